// Copyright (c) corvid authors. All rights reserved. Use of this source
// code is governed by the MIT license that can be found in the LICENSE
// file.

package corvid

import (
	"fmt"
	"io"
	"log"
	"strings"
)

// Config holds the parameters used to establish and identify a
// connection. Grounded on girc's client.go Config struct, trimmed to the
// fields this core actually needs (girc's CAP/SASL/WebIRC/STS fields are
// out of scope per spec Non-goals).
type Config struct {
	// Nick, User, and Name are sent during the connect handshake
	// (NICK/USER).
	Nick string
	User string
	Name string
	// Password, if non-empty, is sent as PASS before NICK/USER.
	Password string
	// Out, if non-nil, receives a human-readable trace of every inbound
	// line (girc's Config.Out/c.debug pairing).
	Out io.Writer
}

func (c *Config) validate() error {
	if c.Nick == "" {
		return &InvalidArgument{Arg: "Nick", Reason: "must not be empty"}
	}
	if c.User == "" {
		return &InvalidArgument{Arg: "User", Reason: "must not be empty"}
	}
	return nil
}

// Client is the protocol handler/dispatcher (§4.5): it owns the
// transport, the ISUPPORT state, and the current nick/user/real-name, and
// exposes the outgoing operations plus the Events callback surface.
type Client struct {
	Config Config
	Events Events
	Cmd    *Commands

	ISupport *ISupport

	transport Transport
	framer    *lineFramer
	debug     *log.Logger

	connected   bool
	nick        string
	pendingNick string
	user        string
	realName    string
}

// NewClient constructs a Client bound to the given Transport. Connect
// must still be called before any operation other than SetNick works.
func NewClient(cfg Config, transport Transport) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	c := &Client{
		Config:   cfg,
		ISupport: NewISupport(),
		transport: transport,
		nick:     cfg.Nick,
		user:     cfg.User,
		realName: cfg.Name,
	}
	c.Cmd = &Commands{c: c}

	out := cfg.Out
	if out == nil {
		out = io.Discard
	}
	c.debug = log.New(out, "", log.LstdFlags)

	return c, nil
}

// Nick returns the client's current, confirmed nickname.
func (c *Client) Nick() string { return c.nick }

// Connected reports whether the client currently owns a live connection.
func (c *Client) Connected() bool { return c.connected }

// Connect dials address via the Transport and runs the startup handshake:
// PASS (if configured), NICK, USER. onConnect is NOT fired here — per
// §4.5 that happens only once 001 is received inside ReadStep.
func (c *Client) Connect(address string) error {
	if c.connected {
		return &AlreadyConnected{}
	}

	if err := c.transport.Connect(address); err != nil {
		return err
	}
	c.framer = newLineFramer(defaultFramerBufSize)
	c.connected = true

	if c.Config.Password != "" {
		if err := c.writeMessage(&Message{Command: PASS, Params: []string{c.Config.Password}}); err != nil {
			return err
		}
	}
	if err := c.writeMessage(&Message{Command: NICK, Params: []string{c.nick}}); err != nil {
		return err
	}
	return c.writeMessage(&Message{
		Command: USER,
		Params:  []string{c.user, "*", "*", ":" + c.realName},
	})
}

// WriteRaw writes line (without CRLF) directly to the transport. Callers
// are responsible for line semantics; the write is clipped to 510 bytes.
func (c *Client) WriteRaw(line string) error {
	if !c.connected {
		return &NotConnected{Op: "write_raw"}
	}
	if len(line) > maxLineBody {
		line = line[:maxLineBody]
	}
	return c.transport.Send([]byte(line + "\r\n"))
}

func (c *Client) writeMessage(m *Message) error {
	if !c.connected {
		return &NotConnected{Op: "write " + m.Command}
	}
	return c.transport.Send(append(m.Bytes(), '\r', '\n'))
}

// forceDisconnect closes the transport and marks the client disconnected,
// without sending QUIT (used on ERROR / unhandled 433 / peer close).
func (c *Client) forceDisconnect() {
	if c.transport != nil {
		c.transport.Close()
	}
	c.connected = false
}

// Quit sends "QUIT :message" and closes the socket synchronously. Any
// ERROR the server sends in response is not waited for (§5 Cancellation).
func (c *Client) Quit(message string) error {
	if !c.connected {
		return &NotConnected{Op: "quit"}
	}
	_ = c.writeMessage(&Message{Command: QUIT, Params: []string{":" + message}})
	c.forceDisconnect()
	return nil
}

// ReadStep performs exactly one non-blocking receive, feeds the bytes to
// the line framer, and synchronously dispatches every complete message
// before returning (§5). closed is true once the peer has gone away (or
// the connection was force-closed by an IrcError raised mid-dispatch).
func (c *Client) ReadStep() (closed bool, err error) {
	if !c.connected {
		return false, &NotConnected{Op: "read_step"}
	}

	buf := make([]byte, 4096)
	n, rerr := c.transport.Recv(buf)
	if rerr == ErrWouldBlock {
		return false, nil
	}
	if rerr != nil {
		c.forceDisconnect()
		return true, nil
	}
	if n == 0 {
		c.forceDisconnect()
		return true, nil
	}

	if ferr := c.framer.Feed(buf[:n]); ferr != nil {
		c.forceDisconnect()
		return true, ferr
	}

	var dispatchErr error
	_ = c.framer.Lines(func(line []byte) bool {
		msg, perr := ParseMessage(string(line))
		if perr != nil {
			c.debug.Print(perr.Error())
			return false
		}
		c.debug.Print("< " + msg.String())
		if derr := c.dispatch(msg); derr != nil {
			dispatchErr = derr
			return true
		}
		return false
	})

	if dispatchErr != nil {
		return true, dispatchErr
	}
	return false, nil
}

// SetNick changes the client's nickname. While connected this is
// provisional: the stored nick only updates once the server confirms it
// via 001 or a NICK echo (§4.5); while disconnected it takes effect
// immediately.
func (c *Client) SetNick(newNick string) error {
	if newNick == "" {
		return &InvalidArgument{Arg: "nick", Reason: "must not be empty"}
	}
	if c.ISupport.EnforceMaxNickLength && len(newNick) > c.ISupport.MaxNickLength {
		return &InvalidArgument{Arg: "nick", Reason: fmt.Sprintf("exceeds NICKLEN=%d", c.ISupport.MaxNickLength)}
	}
	if !c.connected {
		c.nick = newNick
		return nil
	}
	c.pendingNick = newNick
	return c.writeMessage(&Message{Command: NICK, Params: []string{newNick}})
}

// Send splits body across as many PRIVMSG lines as needed and writes them
// (§4.4).
func (c *Client) Send(target, body string) error {
	if !c.connected {
		return &NotConnected{Op: "send"}
	}
	if !IsValidNick(target) && !c.ISupport.IsValidChannel(target) {
		return &InvalidArgument{Arg: target, Reason: "not a valid nick or channel"}
	}
	for _, m := range splitChat(PRIVMSG, target, body) {
		if err := c.writeMessage(m); err != nil {
			return err
		}
	}
	return nil
}

// Notice is the NOTICE counterpart of Send.
func (c *Client) Notice(target, body string) error {
	if !c.connected {
		return &NotConnected{Op: "notice"}
	}
	if !IsValidNick(target) && !c.ISupport.IsValidChannel(target) {
		return &InvalidArgument{Arg: target, Reason: "not a valid nick or channel"}
	}
	for _, m := range splitChat(NOTICE, target, body) {
		if err := c.writeMessage(m); err != nil {
			return err
		}
	}
	return nil
}

// CtcpQuery sends a CTCP request to target via PRIVMSG.
func (c *Client) CtcpQuery(target, tag, data string) error {
	return c.Send(target, encodeCTCP(tag, data))
}

// CtcpReply sends a CTCP response to target via NOTICE.
func (c *Client) CtcpReply(target, tag, data string) error {
	return c.Notice(target, encodeCTCP(tag, data))
}

// CtcpError sends a CTCP ERRMSG response, the conventional way to signal
// that a CTCP request could not be fulfilled.
func (c *Client) CtcpError(target, tag, message string) error {
	return c.Notice(target, encodeCTCP("ERRMSG", tag+" :"+message))
}

// Join enters channel, optionally with a key.
func (c *Client) Join(channel, key string) error {
	if !c.connected {
		return &NotConnected{Op: "join"}
	}
	if !c.ISupport.IsValidChannel(channel) {
		return &InvalidArgument{Arg: channel, Reason: "not a valid channel"}
	}
	params := []string{channel}
	if key != "" {
		params = append(params, key)
	}
	return c.writeMessage(&Message{Command: JOIN, Params: params})
}

// Part leaves channel, with an optional parting message.
func (c *Client) Part(channel, message string) error {
	if !c.connected {
		return &NotConnected{Op: "part"}
	}
	if !c.ISupport.IsValidChannel(channel) {
		return &InvalidArgument{Arg: channel, Reason: "not a valid channel"}
	}
	params := []string{channel}
	if message != "" {
		params = append(params, ":"+message)
	}
	return c.writeMessage(&Message{Command: PART, Params: params})
}

// Kick removes nick from channel, with an optional comment.
func (c *Client) Kick(channel, nick, comment string) error {
	if !c.connected {
		return &NotConnected{Op: "kick"}
	}
	if !c.ISupport.IsValidChannel(channel) {
		return &InvalidArgument{Arg: channel, Reason: "not a valid channel"}
	}
	if !IsValidNick(nick) {
		return &InvalidArgument{Arg: nick, Reason: "not a valid nick"}
	}
	params := []string{channel, nick}
	if comment != "" {
		params = append(params, ":"+comment)
	}
	return c.writeMessage(&Message{Command: KICK, Params: params})
}

// QueryUserhost issues USERHOST for 1 to 5 nicks.
func (c *Client) QueryUserhost(nicks ...string) error {
	if !c.connected {
		return &NotConnected{Op: "query_userhost"}
	}
	if len(nicks) < 1 || len(nicks) > 5 {
		return &InvalidArgument{Arg: "nicks", Reason: "must supply 1 to 5 nicks"}
	}
	return c.writeMessage(&Message{Command: USERHOST, Params: nicks})
}

// QueryWhois issues WHOIS for nick.
func (c *Client) QueryWhois(nick string) error {
	if !c.connected {
		return &NotConnected{Op: "query_whois"}
	}
	if !IsValidNick(nick) {
		return &InvalidArgument{Arg: nick, Reason: "not a valid nick"}
	}
	return c.writeMessage(&Message{Command: WHOIS, Params: []string{nick}})
}

// QueryNames issues NAMES for the given channels (comma-joined in a
// single line, as IRC allows).
func (c *Client) QueryNames(channels ...string) error {
	if !c.connected {
		return &NotConnected{Op: "query_names"}
	}
	if len(channels) == 0 {
		return &InvalidArgument{Arg: "channels", Reason: "must supply at least one channel"}
	}
	return c.writeMessage(&Message{Command: NAMES, Params: []string{strings.Join(channels, ",")}})
}

// AddUserModes sends "MODE <self> +<modes>".
func (c *Client) AddUserModes(modes string) error {
	return c.userModes("+" + modes)
}

// RemoveUserModes sends "MODE <self> -<modes>".
func (c *Client) RemoveUserModes(modes string) error {
	return c.userModes("-" + modes)
}

func (c *Client) userModes(flags string) error {
	if !c.connected {
		return &NotConnected{Op: "user modes"}
	}
	return c.writeMessage(&Message{Command: MODE, Params: []string{c.nick, flags}})
}
