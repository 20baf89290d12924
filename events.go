// Copyright (c) corvid authors. All rights reserved. Use of this source
// code is governed by the MIT license that can be found in the LICENSE
// file.

package corvid

// Callback surface exposed to applications (§6). Each named event is its
// own ordered HandlerList on Client; girc's equivalent of this concept
// mixes everything into one Handler(event string, ...) registry keyed by
// command name (handler.go's Caller). Spec's dispatch table is already a
// fixed, internal switch (see dispatch.go), so corvid instead gives each
// named application-facing event its own typed, ordered subscriber list —
// closer in spirit to girc's per-purpose Commands/Caller split, but typed.

type (
	OnConnectFunc        func()
	OnMessageFunc        func(user IrcUser, target, text string)
	OnNoticeFunc         func(user IrcUser, target, text string)
	OnNickChangeFunc     func(user IrcUser, newNick string)
	OnSuccessfulJoinFunc func(channel string)
	OnJoinFunc           func(user IrcUser, channel string)
	OnPartFunc           func(user IrcUser, channel, message string)
	OnQuitFunc           func(user IrcUser, message string)
	OnKickFunc           func(kicker IrcUser, channel, kickedNick, comment string)
	OnNameListFunc       func(channel string, names []string)
	OnNameListEndFunc    func(channel string)
	OnCtcpQueryFunc      func(user IrcUser, target, tag, data string)
	OnCtcpReplyFunc      func(user IrcUser, target, tag, data string)
	OnModeChangeFunc     func(channel, modeStr string, params []string)
	OnUserModeChangeFunc func(user IrcUser, modeStr string)
	// OnNickInUseFunc returns the replacement nick to retry with, or "" to
	// decline (§4.5 433 handling folds over these in subscription order).
	OnNickInUseFunc        func(failedNick string) string
	OnTopicFunc            func(channel, topic string)
	OnTopicInfoFunc        func(channel string, setter IrcUser, raw string)
	OnUserhostReplyFunc    func(users []IrcUser)
	OnInviteFunc           func(channel string)
	OnWhoisReplyFunc       func(nick, user, host, realName string)
	OnWhoisServerReplyFunc func(nick, server, info string)
	OnWhoisOperatorReplyFunc func(nick, text string)
	OnWhoisIdleReplyFunc   func(nick string, idleSeconds int)
	OnWhoisChannelsReplyFunc func(nick string, channels []string)
	OnWhoisAccountReplyFunc func(nick, account string)
	OnWhoisEndFunc         func(nick string)
	OnWhoisAwayReplyFunc   func(nick, text string)
	OnWhoisHelpOpReplyFunc func(nick, text string)
	OnWhoisSpecialReplyFunc func(nick, text string)
	OnWhoisActuallyReplyFunc func(nick, text string)
	OnWhoisHostReplyFunc  func(nick, text string)
	OnWhoisModesReplyFunc func(nick, text string)
	OnWhoisSecureReplyFunc func(nick, text string)
	// OnWhoReplyFunc fires for each 352/354 WHO reply row (§4.5
	// supplemented feature); realName has any WHOX/RPL_WHOREPLY hopcount
	// prefix already stripped.
	OnWhoReplyFunc         func(nick, user, host, realName string)
	OnMotdFunc             func(line string)
	OnMotdStartFunc        func(line string)
	OnMotdEndFunc          func(line string)
	OnNoMotdFunc           func(line string)
	OnServerInfoFunc       func(code, text string)
)

// Events holds the full named callback surface (§6). It is the Events
// field of Client, so applications write c.Events.OnConnect.Subscribe(...).
type Events struct {
	OnConnect        HandlerList[OnConnectFunc]
	OnMessage        HandlerList[OnMessageFunc]
	OnNotice         HandlerList[OnNoticeFunc]
	OnNickChange     HandlerList[OnNickChangeFunc]
	OnSuccessfulJoin HandlerList[OnSuccessfulJoinFunc]
	OnJoin           HandlerList[OnJoinFunc]
	OnPart           HandlerList[OnPartFunc]
	OnQuit           HandlerList[OnQuitFunc]
	OnKick           HandlerList[OnKickFunc]
	OnNameList       HandlerList[OnNameListFunc]
	OnNameListEnd    HandlerList[OnNameListEndFunc]
	OnCtcpQuery      HandlerList[OnCtcpQueryFunc]
	OnCtcpReply      HandlerList[OnCtcpReplyFunc]
	OnModeChange     HandlerList[OnModeChangeFunc]
	OnUserModeChange HandlerList[OnUserModeChangeFunc]
	OnNickInUse      HandlerList[OnNickInUseFunc]
	OnTopic          HandlerList[OnTopicFunc]
	OnTopicInfo      HandlerList[OnTopicInfoFunc]
	OnUserhostReply  HandlerList[OnUserhostReplyFunc]
	OnInvite         HandlerList[OnInviteFunc]

	OnWhoisReply         HandlerList[OnWhoisReplyFunc]
	OnWhoisServerReply   HandlerList[OnWhoisServerReplyFunc]
	OnWhoisOperatorReply HandlerList[OnWhoisOperatorReplyFunc]
	OnWhoisIdleReply     HandlerList[OnWhoisIdleReplyFunc]
	OnWhoisChannelsReply HandlerList[OnWhoisChannelsReplyFunc]
	OnWhoisAccountReply  HandlerList[OnWhoisAccountReplyFunc]
	OnWhoisEnd           HandlerList[OnWhoisEndFunc]
	OnWhoisAwayReply     HandlerList[OnWhoisAwayReplyFunc]
	OnWhoisHelpOpReply   HandlerList[OnWhoisHelpOpReplyFunc]
	OnWhoisSpecialReply  HandlerList[OnWhoisSpecialReplyFunc]
	OnWhoisActuallyReply HandlerList[OnWhoisActuallyReplyFunc]
	OnWhoisHostReply     HandlerList[OnWhoisHostReplyFunc]
	OnWhoisModesReply    HandlerList[OnWhoisModesReplyFunc]
	OnWhoisSecureReply   HandlerList[OnWhoisSecureReplyFunc]
	OnWhoReply           HandlerList[OnWhoReplyFunc]

	OnMotd       HandlerList[OnMotdFunc]
	OnMotdStart  HandlerList[OnMotdStartFunc]
	OnMotdEnd    HandlerList[OnMotdEndFunc]
	OnNoMotd     HandlerList[OnNoMotdFunc]
	OnServerInfo HandlerList[OnServerInfoFunc]
}
