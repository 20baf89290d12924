// Copyright (c) corvid authors. All rights reserved. Use of this source
// code is governed by the MIT license that can be found in the LICENSE
// file.

package corvid

import (
	"strings"

	cmap "github.com/orcaman/concurrent-map"
)

// TrackerState is the Tracker's lifecycle state (§4.7).
type TrackerState int

const (
	TrackerDisabled TrackerState = iota
	TrackerStarting
	TrackerEnabled
)

// TrackedChannel is a channel roster maintained by the Tracker. Its user
// index is a cmap.ConcurrentMap (keys unique, insertion order irrelevant
// per §3), mirroring state.go's Channel.UserList from the teacher.
type TrackedChannel struct {
	Name  string
	users cmap.ConcurrentMap
}

// Users returns every TrackedUser currently listed in the channel.
func (tc *TrackedChannel) Users() []*TrackedUser {
	out := make([]*TrackedUser, 0, tc.users.Count())
	for item := range tc.users.IterBuffered() {
		if u, ok := item.Val.(*TrackedUser); ok {
			out = append(out, u)
		}
	}
	return out
}

// Len reports the number of users currently in the channel.
func (tc *TrackedChannel) Len() int { return tc.users.Count() }

// TrackedUser is the tracker's view of a single IRC user (§3).
type TrackedUser struct {
	NickName, UserName, HostName, RealName string

	// Channels is the ordered, unique-membership list of channel names this
	// user currently belongs to.
	Channels []string

	// ChannelPrefixes maps a channel name to the user's (prefix, mode)
	// pairs in that channel, unique by prefix, ordered by first acquisition.
	ChannelPrefixes map[string][]PrefixEntry

	// Payload is reserved for application-chosen extra data (§3).
	Payload interface{}
}

func newTrackedUser(nick string) *TrackedUser {
	return &TrackedUser{
		NickName:        nick,
		ChannelPrefixes: make(map[string][]PrefixEntry),
	}
}

func (u *TrackedUser) inChannel(channel string) bool {
	for _, c := range u.Channels {
		if c == channel {
			return true
		}
	}
	return false
}

func (u *TrackedUser) addChannel(channel string) {
	if !u.inChannel(channel) {
		u.Channels = append(u.Channels, channel)
	}
}

func (u *TrackedUser) removeChannel(channel string) {
	for i, c := range u.Channels {
		if c == channel {
			u.Channels = append(u.Channels[:i], u.Channels[i+1:]...)
			break
		}
	}
	delete(u.ChannelPrefixes, channel)
}

// addPrefixWithMode implements §4.7's prefix-arithmetic rule: append if
// absent, update the mode in place if the prefix is already held.
func (u *TrackedUser) addPrefixWithMode(channel string, prefix, mode byte) {
	list := u.ChannelPrefixes[channel]
	for i := range list {
		if list[i].Prefix == prefix {
			list[i].Mode = mode
			return
		}
	}
	u.ChannelPrefixes[channel] = append(list, PrefixEntry{Prefix: prefix, Mode: mode})
}

// removePrefix drops a (prefix) entry for channel; if the list becomes
// empty the channel's prefix-map entry is dropped too.
func (u *TrackedUser) removePrefix(channel string, prefix byte) {
	list := u.ChannelPrefixes[channel]
	for i := range list {
		if list[i].Prefix == prefix {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(u.ChannelPrefixes, channel)
	} else {
		u.ChannelPrefixes[channel] = list
	}
}

// getHighestPrefix returns the user's highest-ranked prefix in channel per
// the fixed priority in §4.7, ties resolved by list order (first wins).
func (u *TrackedUser) getHighestPrefix(channel string) (byte, bool) {
	list := u.ChannelPrefixes[channel]
	if len(list) == 0 {
		return 0, false
	}
	best := list[0]
	bestRank := prefixRank(best.Prefix)
	for _, e := range list[1:] {
		if r := prefixRank(e.Prefix); r > bestRank {
			bestRank = r
			best = e
		}
	}
	return best.Prefix, true
}

// Tracker is an opt-in observer (§4.7) that subscribes to the Client's
// dispatcher events and maintains a consistent channel/user graph. It is
// the corvid equivalent of girc's built-in state tracking (state.go),
// generalized into a detachable component a caller can Start/Stop.
type Tracker struct {
	c     *Client
	state TrackerState

	channels cmap.ConcurrentMap // name -> *TrackedChannel
	users    cmap.ConcurrentMap // nick -> *TrackedUser
	self     *TrackedUser

	startupUnsubs []func()
	trackerUnsubs []func()
}

// NewTracker returns a Tracker bound to c, initially Disabled.
func NewTracker(c *Client) *Tracker {
	return &Tracker{c: c, channels: cmap.New(), users: cmap.New()}
}

// State reports the tracker's current lifecycle state.
func (t *Tracker) State() TrackerState { return t.state }

func (t *Tracker) seedSelf() {
	self := newTrackedUser(t.c.Nick())
	self.UserName = t.c.Config.User
	self.RealName = t.c.Config.Name
	t.self = self
	t.users.Set(self.NickName, self)
}

// Start begins tracking (§4.7). If the client is not yet connected, the
// tracker seeds itself and becomes Enabled immediately. Otherwise it enters
// Starting and issues a self-WHOIS to discover already-joined channels.
func (t *Tracker) Start() error {
	if t.state != TrackerDisabled {
		return nil
	}

	if !t.c.Connected() {
		t.state = TrackerEnabled
		t.seedSelf()
		t.subscribeTrackerHandlers()
		return nil
	}

	t.state = TrackerStarting
	selfNick := t.c.Nick()

	id1 := t.c.Events.OnWhoisChannelsReply.Subscribe(func(nick string, channels []string) {
		if !strings.EqualFold(nick, selfNick) || t.state != TrackerStarting {
			return
		}
		t.finishStartup(channels)
	})
	t.startupUnsubs = append(t.startupUnsubs, func() { t.c.Events.OnWhoisChannelsReply.Unsubscribe(id1) })

	id2 := t.c.Events.OnWhoisEnd.Subscribe(func(nick string) {
		if !strings.EqualFold(nick, selfNick) || t.state != TrackerStarting {
			return
		}
		t.finishStartup(nil)
	})
	t.startupUnsubs = append(t.startupUnsubs, func() { t.c.Events.OnWhoisEnd.Unsubscribe(id2) })

	return t.c.QueryWhois(selfNick)
}

// finishStartup transitions Starting -> Enabled: unsubscribes the startup
// handlers, subscribes the steady-state tracker handlers, seeds self, and
// synthesizes membership for every already-joined channel before issuing
// NAMES on all of them.
func (t *Tracker) finishStartup(channels []string) {
	for _, unsub := range t.startupUnsubs {
		unsub()
	}
	t.startupUnsubs = nil

	t.state = TrackerEnabled
	t.seedSelf()
	t.subscribeTrackerHandlers()

	if len(channels) == 0 {
		return
	}
	for _, ch := range channels {
		t.handleSuccessfulJoin(ch)
	}
	_ = t.c.QueryNames(channels...)
}

// Stop ends tracking (§4.7): from Enabled it unsubscribes every tracker
// handler and discards all state; from Starting it unsubscribes only the
// startup handlers; from Disabled it is a no-op.
func (t *Tracker) Stop() {
	switch t.state {
	case TrackerEnabled:
		for _, unsub := range t.trackerUnsubs {
			unsub()
		}
		t.trackerUnsubs = nil
		t.channels = cmap.New()
		t.users = cmap.New()
		t.self = nil
	case TrackerStarting:
		for _, unsub := range t.startupUnsubs {
			unsub()
		}
		t.startupUnsubs = nil
	}
	t.state = TrackerDisabled
}

func (t *Tracker) subscribeTrackerHandlers() {
	add := func(unsub func()) { t.trackerUnsubs = append(t.trackerUnsubs, unsub) }

	id := t.c.Events.OnConnect.Subscribe(func() {
		t.seedSelf()
	})
	add(func() { t.c.Events.OnConnect.Unsubscribe(id) })

	id1 := t.c.Events.OnSuccessfulJoin.Subscribe(t.handleSuccessfulJoin)
	add(func() { t.c.Events.OnSuccessfulJoin.Unsubscribe(id1) })

	id2 := t.c.Events.OnNameList.Subscribe(t.handleNameList)
	add(func() { t.c.Events.OnNameList.Unsubscribe(id2) })

	id3 := t.c.Events.OnJoin.Subscribe(t.handleJoin)
	add(func() { t.c.Events.OnJoin.Unsubscribe(id3) })

	id4 := t.c.Events.OnPart.Subscribe(func(user IrcUser, channel, message string) {
		t.handleLeave(user.NickName, channel)
	})
	add(func() { t.c.Events.OnPart.Unsubscribe(id4) })

	id5 := t.c.Events.OnKick.Subscribe(func(kicker IrcUser, channel, kickedNick, comment string) {
		t.handleLeave(kickedNick, channel)
	})
	add(func() { t.c.Events.OnKick.Unsubscribe(id5) })

	id6 := t.c.Events.OnQuit.Subscribe(func(user IrcUser, message string) {
		t.handleQuit(user.NickName)
	})
	add(func() { t.c.Events.OnQuit.Unsubscribe(id6) })

	id7 := t.c.Events.OnNickChange.Subscribe(t.handleNickChange)
	add(func() { t.c.Events.OnNickChange.Unsubscribe(id7) })

	id8 := t.c.Events.OnModeChange.Subscribe(t.handleModeChange)
	add(func() { t.c.Events.OnModeChange.Unsubscribe(id8) })

	id9 := t.c.Events.OnWhoReply.Subscribe(t.handleWhoReply)
	add(func() { t.c.Events.OnWhoReply.Unsubscribe(id9) })
}

// handleWhoReply passively enriches an already-tracked user's
// user/host/real-name fields from a 352/354 WHO reply (§4.7 supplemented
// feature), grounded on girc's handleWHO. Unlike girc, a WHO reply for a
// nick the tracker has never seen in any channel does not create an entry:
// the tracker's membership model is channel-driven (JOIN/NAMES), and WHO
// is strictly an enrichment of that, not an independent discovery source.
func (t *Tracker) handleWhoReply(nick, user, host, realName string) {
	ui, ok := t.users.Get(nick)
	if !ok {
		return
	}
	u := ui.(*TrackedUser)
	u.UserName = user
	u.HostName = host
	u.RealName = realName
}

func (t *Tracker) handleSuccessfulJoin(channel string) {
	tc := &TrackedChannel{Name: channel, users: cmap.New()}
	t.channels.Set(channel, tc)

	if t.self == nil {
		t.seedSelf()
	}
	t.self.addChannel(channel)
	tc.users.Set(t.self.NickName, t.self)
}

// handleNameList peels known PREFIX characters off each NAMES token and
// records membership + prefix state for channel (§4.7).
func (t *Tracker) handleNameList(channel string, names []string) {
	ci, ok := t.channels.Get(channel)
	if !ok {
		return
	}
	tc := ci.(*TrackedChannel)

	for _, raw := range names {
		name := raw
		var peeled []PrefixEntry
		for len(name) > 0 {
			mode, known := t.c.ISupport.ModeForPrefix(name[0])
			if !known {
				break
			}
			peeled = append(peeled, PrefixEntry{Prefix: name[0], Mode: mode})
			name = name[1:]
		}
		if name == "" {
			continue
		}

		u := t.getOrCreateUser(name)
		u.addChannel(channel)
		tc.users.Set(u.NickName, u)
		for _, p := range peeled {
			u.addPrefixWithMode(channel, p.Prefix, p.Mode)
		}
	}
}

func (t *Tracker) getOrCreateUser(nick string) *TrackedUser {
	if ui, ok := t.users.Get(nick); ok {
		return ui.(*TrackedUser)
	}
	u := newTrackedUser(nick)
	t.users.Set(nick, u)
	return u
}

func (t *Tracker) handleJoin(user IrcUser, channel string) {
	ci, ok := t.channels.Get(channel)
	if !ok {
		return
	}
	tc := ci.(*TrackedChannel)

	u := t.getOrCreateUser(user.NickName)
	if user.UserName != "" {
		u.UserName = user.UserName
	}
	if user.HostName != "" {
		u.HostName = user.HostName
	}
	u.addChannel(channel)
	tc.users.Set(u.NickName, u)
}

// handleLeave implements both onPart and onKick's removal semantics,
// dispatching to self-leave when the affected nick is the tracked self.
func (t *Tracker) handleLeave(nick, channel string) {
	if t.self != nil && strings.EqualFold(nick, t.self.NickName) {
		t.selfLeave(channel)
		return
	}

	ci, ok := t.channels.Get(channel)
	if !ok {
		return
	}
	tc := ci.(*TrackedChannel)
	tc.users.Remove(nick)

	ui, ok := t.users.Get(nick)
	if !ok {
		return
	}
	u := ui.(*TrackedUser)
	u.removeChannel(channel)
	if len(u.Channels) == 0 {
		t.users.Remove(nick)
	}
}

// selfLeave implements §4.7's self-leave: every member's channels/prefixes
// are pruned of the departed channel, non-self users left with no
// remaining channels are dropped, and the channel itself is removed.
func (t *Tracker) selfLeave(channel string) {
	ci, ok := t.channels.Get(channel)
	if !ok {
		return
	}
	tc := ci.(*TrackedChannel)

	for _, u := range tc.Users() {
		u.removeChannel(channel)
		if u != t.self && len(u.Channels) == 0 {
			t.users.Remove(u.NickName)
		}
	}
	t.channels.Remove(channel)
}

func (t *Tracker) handleQuit(nick string) {
	ui, ok := t.users.Get(nick)
	if !ok {
		return
	}
	u := ui.(*TrackedUser)
	for _, channel := range append([]string(nil), u.Channels...) {
		if ci, ok := t.channels.Get(channel); ok {
			ci.(*TrackedChannel).users.Remove(nick)
		}
	}
	t.users.Remove(nick)
}

// handleNickChange re-keys the global user index only; per §4.7 and §9's
// documented limitation, channel maps keep the old nick as their key.
func (t *Tracker) handleNickChange(user IrcUser, newNick string) {
	ui, ok := t.users.Pop(user.NickName)
	if !ok {
		return
	}
	u := ui.(*TrackedUser)
	u.NickName = newNick
	t.users.Set(newNick, u)
	if t.self != nil && t.self == u {
		t.self = u
	}
}

// handleModeChange walks a channel MODE string per §4.7, best-effort
// reusing the final parameter once the parameter stream is exhausted (a
// non-standard server behavior the spec documents rather than corrects).
func (t *Tracker) handleModeChange(channel, modeStr string, params []string) {
	if !strings.HasPrefix(channel, "#") {
		return
	}
	if !t.channels.Has(channel) {
		return
	}

	adding := true
	paramIdx := 0
	nextParam := func() string {
		if paramIdx < len(params) {
			p := params[paramIdx]
			paramIdx++
			return p
		}
		if len(params) > 0 {
			return params[len(params)-1]
		}
		return ""
	}

	for i := 0; i < len(modeStr); i++ {
		switch modeStr[i] {
		case '+':
			adding = true
		case '-':
			adding = false
		default:
			mode := modeStr[i]
			if prefix, isPrefixMode := t.c.ISupport.PrefixForMode(mode); isPrefixMode {
				targetNick := nextParam()
				if targetNick == "" {
					continue
				}
				ui, ok := t.users.Get(targetNick)
				if !ok {
					continue
				}
				u := ui.(*TrackedUser)
				if adding {
					u.addPrefixWithMode(channel, prefix, mode)
				} else {
					u.removePrefix(channel, prefix)
				}
				continue
			}
			// Non-prefix mode: advance the parameter cursor if this class
			// of mode consumes one, without mutating user state.
			if t.c.ISupport.modeTakesArg(adding, mode) {
				nextParam()
			}
		}
	}
}

// Channels returns every tracked channel. Fails with *NotTracking unless
// the tracker is Enabled.
func (t *Tracker) Channels() ([]*TrackedChannel, error) {
	if t.state != TrackerEnabled {
		return nil, &NotTracking{Op: "channels"}
	}
	out := make([]*TrackedChannel, 0, t.channels.Count())
	for item := range t.channels.IterBuffered() {
		if tc, ok := item.Val.(*TrackedChannel); ok {
			out = append(out, tc)
		}
	}
	return out, nil
}

// Users returns every tracked user (including self). Fails with
// *NotTracking unless the tracker is Enabled.
func (t *Tracker) Users() ([]*TrackedUser, error) {
	if t.state != TrackerEnabled {
		return nil, &NotTracking{Op: "users"}
	}
	out := make([]*TrackedUser, 0, t.users.Count())
	for item := range t.users.IterBuffered() {
		if u, ok := item.Val.(*TrackedUser); ok {
			out = append(out, u)
		}
	}
	return out, nil
}

// FindChannel looks up a tracked channel by name.
func (t *Tracker) FindChannel(name string) (*TrackedChannel, error) {
	if t.state != TrackerEnabled {
		return nil, &NotTracking{Op: "find_channel"}
	}
	ci, ok := t.channels.Get(name)
	if !ok {
		return nil, nil
	}
	return ci.(*TrackedChannel), nil
}

// FindUser looks up a tracked user by nick.
func (t *Tracker) FindUser(nick string) (*TrackedUser, error) {
	if t.state != TrackerEnabled {
		return nil, &NotTracking{Op: "find_user"}
	}
	ui, ok := t.users.Get(nick)
	if !ok {
		return nil, nil
	}
	return ui.(*TrackedUser), nil
}

// FindMember looks up a user within a specific channel's roster.
func (t *Tracker) FindMember(channel, nick string) (*TrackedUser, error) {
	if t.state != TrackerEnabled {
		return nil, &NotTracking{Op: "find_member"}
	}
	ci, ok := t.channels.Get(channel)
	if !ok {
		return nil, nil
	}
	tc := ci.(*TrackedChannel)
	ui, ok := tc.users.Get(nick)
	if !ok {
		return nil, nil
	}
	return ui.(*TrackedUser), nil
}
