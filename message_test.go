// Copyright (c) corvid authors. All rights reserved. Use of this source
// code is governed by the MIT license that can be found in the LICENSE
// file.

package corvid

import (
	"reflect"
	"testing"
)

func TestParseMessage(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		prefix string
		cmd    string
		params []string
	}{
		{
			name:   "no prefix",
			raw:    "PING 123456",
			cmd:    "PING",
			params: []string{"123456"},
		},
		{
			name:   "trailing without colon",
			raw:    ":foo!bar@baz PRIVMSG #channel hi!",
			prefix: "foo!bar@baz",
			cmd:    "PRIVMSG",
			params: []string{"#channel", "hi!"},
		},
		{
			name:   "trailing preserves comma-space",
			raw:    ":foo!bar@baz PRIVMSG #channel :hello, world!",
			prefix: "foo!bar@baz",
			cmd:    "PRIVMSG",
			params: []string{"#channel", "hello, world!"},
		},
		{
			name:   "005 last arg contains spaces",
			raw:    ":foo!bar@baz 005 testnick CHANLIMIT=#:120 :are supported by this server",
			prefix: "foo!bar@baz",
			cmd:    "005",
			params: []string{"testnick", "CHANLIMIT=#:120", "are supported by this server"},
		},
		{
			name:   "colons in host preserved",
			raw:    ":nick!~ident@00:00:00:00::00 PRIVMSG #some.channel :some message",
			prefix: "nick!~ident@00:00:00:00::00",
			cmd:    "PRIVMSG",
			params: []string{"#some.channel", "some message"},
		},
		{
			name:   "single colon-prefixed arg",
			raw:    ":foo!bar@baz JOIN :#channel",
			prefix: "foo!bar@baz",
			cmd:    "JOIN",
			params: []string{"#channel"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m, err := ParseMessage(tc.raw)
			if err != nil {
				t.Fatalf("ParseMessage(%q) returned error: %v", tc.raw, err)
			}
			if m.Prefix != tc.prefix {
				t.Errorf("Prefix = %q, want %q", m.Prefix, tc.prefix)
			}
			if m.Command != tc.cmd {
				t.Errorf("Command = %q, want %q", m.Command, tc.cmd)
			}
			if !reflect.DeepEqual(m.Params, tc.params) {
				t.Errorf("Params = %#v, want %#v", m.Params, tc.params)
			}
		})
	}
}

func TestParseMessageErrors(t *testing.T) {
	tests := []string{"", ":nospace", "   "}
	for _, raw := range tests {
		if _, err := ParseMessage(raw); err == nil {
			t.Errorf("ParseMessage(%q) did not fail", raw)
		}
	}
}

func TestMessageRoundTrip(t *testing.T) {
	m := &Message{Prefix: "foo!bar@baz", Command: "PRIVMSG", Params: []string{"#channel", "hello, world!"}}
	reparsed, err := ParseMessage(m.String())
	if err != nil {
		t.Fatalf("round-trip parse failed: %v", err)
	}
	if reparsed.Prefix != m.Prefix || reparsed.Command != m.Command || !reflect.DeepEqual(reparsed.Params, m.Params) {
		t.Errorf("round-trip mismatch: got %+v, want %+v", reparsed, m)
	}
}
