// Copyright (c) corvid authors. All rights reserved. Use of this source
// code is governed by the MIT license that can be found in the LICENSE
// file.

package corvid

import "strings"

// ctcpDelim is the delimiter framing CTCP payloads embedded in
// PRIVMSG/NOTICE bodies (http://www.irchelp.org/protocol/ctcpspec.html).
const ctcpDelim byte = 0x01

// extractCTCP looks for the first \x01...\x01-delimited payload in body
// and splits it into a tag (first whitespace-separated token) and the
// remaining data. Only the first payload in a message is surfaced, per
// §6. ok is false if body does not begin with a CTCP payload.
func extractCTCP(body string) (tag, data string, ok bool) {
	if len(body) < 2 || body[0] != ctcpDelim {
		return "", "", false
	}
	end := strings.IndexByte(body[1:], ctcpDelim)
	if end < 0 {
		return "", "", false
	}
	payload := body[1 : 1+end]

	if sp := strings.IndexByte(payload, ' '); sp >= 0 {
		return payload[:sp], payload[sp+1:], true
	}
	return payload, "", true
}

// encodeCTCP frames tag (and optional data) as a CTCP payload, including
// delimiters, suitable as a PRIVMSG/NOTICE body.
func encodeCTCP(tag, data string) string {
	if data == "" {
		return string(ctcpDelim) + tag + string(ctcpDelim)
	}
	return string(ctcpDelim) + tag + " " + data + string(ctcpDelim)
}
