// Copyright (c) corvid authors. All rights reserved. Use of this source
// code is governed by the MIT license that can be found in the LICENSE
// file.

package corvid

import (
	"fmt"
	"strings"
)

// Commands is a convenience wrapper around Client's outgoing operations,
// grounded on girc's commands.go: printf-style variants of the same calls,
// plus a few commands (Topic, Who, Whowas, Oper, Away/Back, List) that
// Client itself does not expose directly.
type Commands struct {
	c *Client
}

// Messagef sends a formatted PRIVMSG to target.
func (cmd *Commands) Messagef(target, format string, a ...interface{}) error {
	return cmd.c.Send(target, fmt.Sprintf(format, a...))
}

// Noticef sends a formatted NOTICE to target.
func (cmd *Commands) Noticef(target, format string, a ...interface{}) error {
	return cmd.c.Notice(target, fmt.Sprintf(format, a...))
}

// Action sends a CTCP ACTION (/me) to target (either channel or user).
func (cmd *Commands) Action(target, message string) error {
	return cmd.c.CtcpQuery(target, "ACTION", message)
}

// Actionf sends a formatted CTCP ACTION to target.
func (cmd *Commands) Actionf(target, format string, a ...interface{}) error {
	return cmd.Action(target, fmt.Sprintf(format, a...))
}

// SendCTCPf sends a formatted CTCP request to target via PRIVMSG.
func (cmd *Commands) SendCTCPf(target, tag, format string, a ...interface{}) error {
	return cmd.c.CtcpQuery(target, tag, fmt.Sprintf(format, a...))
}

// SendCTCPReplyf sends a formatted CTCP response to target via NOTICE.
func (cmd *Commands) SendCTCPReplyf(target, tag, format string, a ...interface{}) error {
	return cmd.c.CtcpReply(target, tag, fmt.Sprintf(format, a...))
}

// Topic sets channel's topic. Does not verify the length of the topic.
func (cmd *Commands) Topic(channel, topic string) error {
	if !cmd.c.connected {
		return &NotConnected{Op: "topic"}
	}
	if !cmd.c.ISupport.IsValidChannel(channel) {
		return &InvalidArgument{Arg: channel, Reason: "not a valid channel"}
	}
	return cmd.c.writeMessage(&Message{Command: TOPIC, Params: []string{channel, ":" + topic}})
}

// Who sends a WHO query to the server for target (nick, channel, or mask).
func (cmd *Commands) Who(target string) error {
	if !cmd.c.connected {
		return &NotConnected{Op: "who"}
	}
	if !IsValidNick(target) && !cmd.c.ISupport.IsValidChannel(target) && !IsValidUser(target) {
		return &InvalidArgument{Arg: target, Reason: "not a valid WHO target"}
	}
	return cmd.c.writeMessage(&Message{Command: WHO, Params: []string{target}})
}

// Whowas sends a WHOWAS query for nick, requesting up to amount replies.
func (cmd *Commands) Whowas(nick string, amount int) error {
	if !cmd.c.connected {
		return &NotConnected{Op: "whowas"}
	}
	if !IsValidNick(nick) {
		return &InvalidArgument{Arg: nick, Reason: "not a valid nick"}
	}
	return cmd.c.writeMessage(&Message{Command: WHOWAS, Params: []string{nick, fmt.Sprintf("%d", amount)}})
}

// Oper authenticates the connection as a server operator.
func (cmd *Commands) Oper(user, pass string) error {
	if !cmd.c.connected {
		return &NotConnected{Op: "oper"}
	}
	return cmd.c.writeMessage(&Message{Command: OPER, Params: []string{user, pass}})
}

// Away marks the client away with reason, or calls Back if reason is empty.
func (cmd *Commands) Away(reason string) error {
	if reason == "" {
		return cmd.Back()
	}
	if !cmd.c.connected {
		return &NotConnected{Op: "away"}
	}
	return cmd.c.writeMessage(&Message{Command: AWAY, Params: []string{":" + reason}})
}

// Back clears the away status set by Away.
func (cmd *Commands) Back() error {
	if !cmd.c.connected {
		return &NotConnected{Op: "away"}
	}
	return cmd.c.writeMessage(&Message{Command: AWAY})
}

// List requests the channel list, optionally restricted to channels.
// Supplying no channels asks the server for every channel it knows about.
func (cmd *Commands) List(channels ...string) error {
	if !cmd.c.connected {
		return &NotConnected{Op: "list"}
	}
	if len(channels) == 0 {
		return cmd.c.writeMessage(&Message{Command: LIST})
	}
	for _, ch := range channels {
		if !cmd.c.ISupport.IsValidChannel(ch) {
			return &InvalidArgument{Arg: ch, Reason: "not a valid channel"}
		}
	}
	return cmd.c.writeMessage(&Message{Command: LIST, Params: []string{strings.Join(channels, ",")}})
}
