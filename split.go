// Copyright (c) corvid authors. All rights reserved. Use of this source
// code is governed by the MIT license that can be found in the LICENSE
// file.

package corvid

import "strings"

// perTargetOverhead approximates the "nick!user@host " the server will
// prepend when relaying a PRIVMSG/NOTICE to other recipients, so that the
// server's own outgoing relay also fits within the 512-byte wire limit
// (§4.4). Other commands reserve nothing.
const perTargetOverhead = 74

func splitOverhead(command string) int {
	if command == PRIVMSG || command == NOTICE {
		return perTargetOverhead
	}
	return 0
}

// bodyCapacity computes the body window for a PRIVMSG/NOTICE chat write to
// target: the 512-byte wire limit, less "\r\n", less the fixed
// "<COMMAND> <target> :" framing, less the per-command overhead.
func bodyCapacity(command, target string) int {
	header := command + " " + target + " :"
	return 512 - len("\r\n") - len(header) - splitOverhead(command)
}

// splitBody fragments body into chunks that each fit within cap bytes,
// honoring embedded newlines: a newline found within the current window
// ends that chunk early, and any run of leading/consecutive newlines is
// elided rather than producing empty messages (§4.4).
func splitBody(body string, cap int) []string {
	if cap <= 0 {
		// Degenerate: target name alone exceeds the wire limit. Emit the
		// body unsplit; the caller's transport write will simply clip it.
		return []string{body}
	}

	s := strings.TrimLeft(body, "\r\n")
	var out []string
	for len(s) > 0 {
		limit := cap
		if limit > len(s) {
			limit = len(s)
		}
		window := s[:limit]
		if idx := strings.IndexAny(window, "\r\n"); idx >= 0 {
			out = append(out, window[:idx])
			s = strings.TrimLeft(s[idx:], "\r\n")
			continue
		}
		out = append(out, window)
		s = s[limit:]
	}
	if len(out) == 0 {
		out = append(out, "")
	}
	return out
}

// splitChat builds the wire Messages for a PRIVMSG/NOTICE to target,
// splitting body across as many lines as needed per splitBody.
func splitChat(command, target, body string) []*Message {
	pieces := splitBody(body, bodyCapacity(command, target))
	msgs := make([]*Message, len(pieces))
	for i, p := range pieces {
		msgs[i] = &Message{Command: command, Params: []string{target, p}}
	}
	return msgs
}
