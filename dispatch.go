// Copyright (c) corvid authors. All rights reserved. Use of this source
// code is governed by the MIT license that can be found in the LICENSE
// file.

package corvid

import (
	"strconv"
	"strings"

	"github.com/araddon/dateparse"
)

// dispatch interprets a single parsed Message against the fixed dispatch
// table in §4.5, firing the corresponding typed event(s). It returns a
// non-nil error only for the two cases that force disconnection: a
// server-originated ERROR, or an unhandled 433.
func (c *Client) dispatch(m *Message) error {
	switch m.Command {
	case PING:
		arg := ""
		if len(m.Params) > 0 {
			arg = m.Params[0]
		}
		_ = c.writeMessage(&Message{Command: PONG, Params: []string{":" + arg}})

	case RPL_WELCOME:
		if len(m.Params) > 0 {
			c.nick = m.Params[0]
		}
		c.pendingNick = ""
		c.Events.OnConnect.Each(func(fn OnConnectFunc) { fn() })

	case RPL_YOURHOST, RPL_CREATED, RPL_MYINFO,
		RPL_LUSERCLIENT, RPL_LUSEROP, RPL_LUSERUNKNOWN, RPL_LUSERCHANNELS, RPL_LUSERME,
		RPL_LOCALUSERS, RPL_GLOBALUSERS:
		text := m.Last()
		if m.Command == RPL_MYINFO && len(m.Params) >= 5 {
			text = strings.Join(m.Params[1:5], " ")
		}
		if m.Command == RPL_CREATED {
			c.parseServerCreated(text)
		}
		c.Events.OnServerInfo.Each(func(fn OnServerInfoFunc) { fn(m.Command, text) })

	case RPL_ISUPPORT:
		c.handleISupport(m)

	case RPL_USERHOST:
		c.Events.OnUserhostReply.Each(func(fn OnUserhostReplyFunc) { fn(parseUserhostReply(m.Last())) })

	case RPL_WHOISUSER:
		if len(m.Params) >= 5 {
			nick, user, host, real := m.Params[1], m.Params[2], m.Params[3], m.Last()
			c.Events.OnWhoisReply.Each(func(fn OnWhoisReplyFunc) { fn(nick, user, host, real) })
		}
	case RPL_WHOISSERVER:
		if len(m.Params) >= 3 {
			nick, server := m.Params[1], m.Params[2]
			c.Events.OnWhoisServerReply.Each(func(fn OnWhoisServerReplyFunc) { fn(nick, server, m.Last()) })
		}
	case RPL_WHOISOPERATOR:
		if len(m.Params) >= 2 {
			nick := m.Params[1]
			c.Events.OnWhoisOperatorReply.Each(func(fn OnWhoisOperatorReplyFunc) { fn(nick, m.Last()) })
		}
	case RPL_WHOISIDLE:
		if len(m.Params) >= 3 {
			nick := m.Params[1]
			idle, _ := strconv.Atoi(m.Params[2])
			c.Events.OnWhoisIdleReply.Each(func(fn OnWhoisIdleReplyFunc) { fn(nick, idle) })
		}
	case RPL_WHOISACCOUNT:
		if len(m.Params) >= 3 {
			nick, account := m.Params[1], m.Params[2]
			c.Events.OnWhoisAccountReply.Each(func(fn OnWhoisAccountReplyFunc) { fn(nick, account) })
		}
	case RPL_WHOISREGNICK, RPL_AWAY:
		if nick, text, ok := whoisNickText(m); ok {
			c.Events.OnWhoisAwayReply.Each(func(fn OnWhoisAwayReplyFunc) { fn(nick, text) })
		}
	case RPL_WHOISHELPOP:
		if nick, text, ok := whoisNickText(m); ok {
			c.Events.OnWhoisHelpOpReply.Each(func(fn OnWhoisHelpOpReplyFunc) { fn(nick, text) })
		}
	case RPL_WHOISSPECIAL:
		if nick, text, ok := whoisNickText(m); ok {
			c.Events.OnWhoisSpecialReply.Each(func(fn OnWhoisSpecialReplyFunc) { fn(nick, text) })
		}
	case RPL_WHOISACTUALLY:
		if nick, text, ok := whoisNickText(m); ok {
			c.Events.OnWhoisActuallyReply.Each(func(fn OnWhoisActuallyReplyFunc) { fn(nick, text) })
		}
	case RPL_WHOISHOST:
		if nick, text, ok := whoisNickText(m); ok {
			c.Events.OnWhoisHostReply.Each(func(fn OnWhoisHostReplyFunc) { fn(nick, text) })
		}
	case RPL_WHOISMODES:
		if nick, text, ok := whoisNickText(m); ok {
			c.Events.OnWhoisModesReply.Each(func(fn OnWhoisModesReplyFunc) { fn(nick, text) })
		}
	case RPL_WHOISSECURE:
		if nick, text, ok := whoisNickText(m); ok {
			c.Events.OnWhoisSecureReply.Each(func(fn OnWhoisSecureReplyFunc) { fn(nick, text) })
		}

	case RPL_WHOISCHANNELS:
		if len(m.Params) >= 2 {
			nick := m.Params[1]
			channels := strings.Fields(m.Last())
			c.Events.OnWhoisChannelsReply.Each(func(fn OnWhoisChannelsReplyFunc) { fn(nick, channels) })
		}

	case RPL_ENDOFWHOIS:
		if len(m.Params) >= 2 {
			nick := m.Params[1]
			c.Events.OnWhoisEnd.Each(func(fn OnWhoisEndFunc) { fn(nick) })
		}

	case RPL_WHOREPLY, RPL_WHOSPCRPL:
		if nick, user, host, real, ok := parseWhoReply(m); ok {
			c.Events.OnWhoReply.Each(func(fn OnWhoReplyFunc) { fn(nick, user, host, real) })
		}

	case RPL_TOPIC:
		if len(m.Params) >= 2 {
			channel := m.Params[1]
			c.Events.OnTopic.Each(func(fn OnTopicFunc) { fn(channel, m.Last()) })
		}
	case RPL_TOPICWHOTIME:
		if len(m.Params) >= 3 {
			channel, who := m.Params[1], m.Params[2]
			c.Events.OnTopicInfo.Each(func(fn OnTopicInfoFunc) { fn(channel, ParseUser(who), m.Last()) })
		}

	case RPL_NAMREPLY:
		if len(m.Params) >= 3 {
			channel := m.Params[len(m.Params)-2]
			names := strings.Fields(m.Last())
			c.Events.OnNameList.Each(func(fn OnNameListFunc) { fn(channel, names) })
		}
	case RPL_ENDOFNAMES:
		if len(m.Params) >= 2 {
			channel := m.Params[1]
			c.Events.OnNameListEnd.Each(func(fn OnNameListEndFunc) { fn(channel) })
		}

	case RPL_MOTD:
		c.Events.OnMotd.Each(func(fn OnMotdFunc) { fn(m.Last()) })
	case RPL_MOTDSTART:
		c.Events.OnMotdStart.Each(func(fn OnMotdStartFunc) { fn(m.Last()) })
	case RPL_ENDOFMOTD:
		c.Events.OnMotdEnd.Each(func(fn OnMotdEndFunc) { fn(m.Last()) })
	case ERR_NOMOTD:
		c.Events.OnNoMotd.Each(func(fn OnNoMotdFunc) { fn(m.Last()) })

	case ERR_NICKNAMEINUSE:
		return c.handleNickInUse(m)

	case PRIVMSG:
		if len(m.Params) >= 1 {
			user := ParseUser(m.Prefix)
			target := m.Params[0]
			body := m.Last()
			if tag, data, ok := extractCTCP(body); ok && c.Events.OnCtcpQuery.Len() > 0 {
				c.Events.OnCtcpQuery.Each(func(fn OnCtcpQueryFunc) { fn(user, target, tag, data) })
			} else {
				c.Events.OnMessage.Each(func(fn OnMessageFunc) { fn(user, target, body) })
			}
		}
	case NOTICE:
		if len(m.Params) >= 1 {
			user := ParseUser(m.Prefix)
			target := m.Params[0]
			body := m.Last()
			if tag, data, ok := extractCTCP(body); ok && c.Events.OnCtcpReply.Len() > 0 {
				c.Events.OnCtcpReply.Each(func(fn OnCtcpReplyFunc) { fn(user, target, tag, data) })
			} else {
				c.Events.OnNotice.Each(func(fn OnNoticeFunc) { fn(user, target, body) })
			}
		}

	case NICK:
		c.handleNick(m)

	case JOIN:
		if len(m.Params) >= 1 {
			user := ParseUser(m.Prefix)
			channel := m.Params[0]
			if strings.EqualFold(user.NickName, c.nick) {
				c.Events.OnSuccessfulJoin.Each(func(fn OnSuccessfulJoinFunc) { fn(channel) })
			} else {
				c.Events.OnJoin.Each(func(fn OnJoinFunc) { fn(user, channel) })
			}
		}

	case PART:
		if len(m.Params) >= 1 {
			user := ParseUser(m.Prefix)
			channel := m.Params[0]
			c.Events.OnPart.Each(func(fn OnPartFunc) { fn(user, channel, m.Last()) })
		}

	case KICK:
		if len(m.Params) >= 2 {
			kicker := ParseUser(m.Prefix)
			channel, kicked := m.Params[0], m.Params[1]
			c.Events.OnKick.Each(func(fn OnKickFunc) { fn(kicker, channel, kicked, m.Last()) })
		}

	case QUIT:
		user := ParseUser(m.Prefix)
		c.Events.OnQuit.Each(func(fn OnQuitFunc) { fn(user, m.Last()) })

	case MODE:
		if len(m.Params) >= 2 {
			target, modeStr := m.Params[0], m.Params[1]
			if c.ISupport.IsValidChannel(target) {
				c.Events.OnModeChange.Each(func(fn OnModeChangeFunc) { fn(target, modeStr, m.Params[2:]) })
			} else {
				user := ParseUser(m.Prefix)
				c.Events.OnUserModeChange.Each(func(fn OnUserModeChangeFunc) { fn(user, modeStr) })
			}
		}

	case INVITE:
		if len(m.Params) >= 2 {
			channel := m.Params[1]
			c.Events.OnInvite.Each(func(fn OnInviteFunc) { fn(channel) })
		}

	case ERROR:
		c.forceDisconnect()
		return &IrcError{Message: m.Last()}

	default:
		// 3-digit numerics and unrecognized verbs are ignored.
	}

	return nil
}

// whoisNickText pulls the common "<nick> :<text>" shape shared by several
// WHOIS numerics (301, 320, 338, 378, 379, 671) out of m.Params.
func whoisNickText(m *Message) (nick, text string, ok bool) {
	if len(m.Params) < 2 {
		return "", "", false
	}
	return m.Params[1], m.Last(), true
}

// parseServerCreated tries to extract the daemon-compile timestamp from a
// 003 (RPL_CREATED) trailing line, grounded on girc's handleCREATED: find
// the first "Weekday," token and parse from there.
func (c *Client) parseServerCreated(text string) {
	days := []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
	words := strings.Fields(text)
	found := -1
	for i, w := range words {
		for _, d := range days {
			if w == d+"," {
				found = i
				break
			}
		}
		if found >= 0 {
			break
		}
	}
	if found < 0 {
		return
	}
	if ts, err := dateparse.ParseAny(strings.Join(words[found:], " ")); err == nil {
		c.ISupport.ServerCreated = ts
	}
}

// parseWhoReply extracts (nick, user, host, realName) from a 352
// (RPL_WHOREPLY) or 354 (RPL_WHOSPCRPL/WHOX) reply, grounded on girc's
// builtin.go handleWHO. RPL_WHOREPLY's format is:
//
//	<client> <channel> <user> <host> <server> <nick> <H|G>[*][@|+] :<hopcount> <real_name>
//
// WHOX (354) replies are assumed to carry corvid's fixed field request
// order (ident, host, nick, account) at params[3:7], since this module's
// Commands.Who never issues a WHOX-flagged request; a server that replies
// with 354 unprompted is handled on a best-effort basis, same as girc.
func parseWhoReply(m *Message) (nick, user, host, real string, ok bool) {
	if m.Command == RPL_WHOSPCRPL {
		if len(m.Params) != 8 {
			return "", "", "", "", false
		}
		user, host, nick = m.Params[3], m.Params[4], m.Params[5]
		return nick, user, host, m.Last(), true
	}

	if len(m.Params) < 6 {
		return "", "", "", "", false
	}
	user, host, nick = m.Params[2], m.Params[3], m.Params[5]
	real = m.Last()
	for i := 0; i < len(real); i++ {
		if real[i] < '0' || real[i] > '9' {
			real = strings.TrimLeft(real[i+1:], " ")
			return nick, user, host, real, true
		}
	}
	return nick, user, host, "", true
}

func (c *Client) handleISupport(m *Message) {
	if len(m.Params) < 2 {
		return
	}
	// Skip the first parameter (our nick) and the last (free-form doc
	// text), per girc's handleISUPPORT.
	for _, token := range m.Params[1 : len(m.Params)-1] {
		c.ISupport.Apply(token)
	}
}

// handleNickInUse implements §4.5's 433 fold-over-handlers: the first
// non-empty replacement wins; if every handler declines, the connection
// is torn down with an IrcError.
func (c *Client) handleNickInUse(m *Message) error {
	failed := ""
	if len(m.Params) > 0 {
		failed = m.Last()
		if len(m.Params) >= 2 {
			failed = m.Params[1]
		}
	}

	var replacement string
	c.Events.OnNickInUse.Each(func(fn OnNickInUseFunc) {
		if replacement != "" {
			return
		}
		if r := fn(failed); r != "" {
			replacement = r
		}
	})

	if replacement != "" {
		return c.writeMessage(&Message{Command: NICK, Params: []string{replacement}})
	}

	c.forceDisconnect()
	return &IrcError{Message: "433 Nick already in use was unhandled"}
}

// handleNick applies §4.5's NICK ordering: fire onNickChange while the
// caller still sees the OLD self-nick, then update the stored nick if the
// rename was self's.
func (c *Client) handleNick(m *Message) {
	if len(m.Params) < 1 {
		return
	}
	user := ParseUser(m.Prefix)
	newNick := m.Params[0]

	wasSelf := strings.EqualFold(user.NickName, c.nick)
	c.Events.OnNickChange.Each(func(fn OnNickChangeFunc) { fn(user, newNick) })
	if wasSelf {
		c.nick = newNick
		c.pendingNick = ""
	}
}

// parseUserhostReply parses a 302 trailing argument into up to 5 IrcUser
// entries: "nick[*]=[+|-]user@host", '@' optional per §4.5.
func parseUserhostReply(text string) []IrcUser {
	fields := strings.Fields(text)
	users := make([]IrcUser, 0, len(fields))
	for _, f := range fields {
		eq := strings.IndexByte(f, '=')
		if eq < 0 {
			continue
		}
		nick := strings.TrimSuffix(f[:eq], "*")
		rest := f[eq+1:]
		rest = strings.TrimPrefix(rest, "+")
		rest = strings.TrimPrefix(rest, "-")
		u := IrcUser{NickName: nick}
		if at := strings.IndexByte(rest, '@'); at >= 0 {
			u.UserName = rest[:at]
			u.HostName = rest[at+1:]
		} else {
			u.UserName = rest
		}
		users = append(users, u)
	}
	return users
}
