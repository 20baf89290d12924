// Copyright (c) corvid authors. All rights reserved. Use of this source
// code is governed by the MIT license that can be found in the LICENSE
// file.

package corvid

import (
	"net"
	"strings"
	"sync"
	"testing"
	"time"
)

// pipeTransport adapts one end of a net.Pipe() to the Transport interface,
// using the real netTransport's (transport.go) read-deadline Recv trick
// with a 50ms deadline instead of an immediate one, grounded on girc's
// conn_test.go genMockConn/
// TestConnect pattern of driving a Client off a net.Pipe pair.
type pipeTransport struct {
	conn net.Conn
}

func (t *pipeTransport) Connect(string) error { return nil }

func (t *pipeTransport) Recv(buf []byte) (int, error) {
	_ = t.conn.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
	n, err := t.conn.Read(buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return 0, ErrWouldBlock
		}
		return n, err
	}
	return n, nil
}

func (t *pipeTransport) Send(p []byte) error {
	_, err := t.conn.Write(p)
	return err
}

func (t *pipeTransport) Close() error { return t.conn.Close() }

// recordingSink captures everything the client writes to its transport
// (the far end of the pipe), so tests can assert on outgoing wire traffic
// (handshake, PONG replies) the same way girc's TestConnect reads back
// NICK/USER off its mock conn.
type recordingSink struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (r *recordingSink) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.Write(p)
}

func (r *recordingSink) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.String()
}

func (r *recordingSink) waitFor(t *testing.T, substr string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(r.String(), substr) {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %q in transport output; got %q", substr, r.String())
}

// dialTestClient connects a Client over a net.Pipe, draining everything it
// writes into the returned recordingSink, and returns the server-side
// net.Conn end the test drives as "the IRC server".
func dialTestClient(t *testing.T, cfg Config) (*Client, net.Conn, *recordingSink) {
	t.Helper()
	clientConn, serverConn := net.Pipe()
	rec := &recordingSink{}
	go drain(serverConn, rec)

	c, err := NewClient(cfg, &pipeTransport{conn: clientConn})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if err := c.Connect("pipe"); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	rec.waitFor(t, "USER "+cfg.User)
	return c, serverConn, rec
}

// drain copies everything readable off conn into sink until conn closes,
// the way io.Copy would, without pulling in a second dependency on the
// exact io.Copy buffer size for this test-only helper.
func drain(conn net.Conn, sink *recordingSink) {
	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			sink.Write(buf[:n])
		}
		if err != nil {
			return
		}
	}
}

// feedLine writes a single raw IRC line (as "the server") into the pipe
// and pumps the client's ReadStep until it has been consumed and
// dispatched.
func feedLine(t *testing.T, c *Client, server net.Conn, line string) {
	t.Helper()
	errCh := make(chan error, 1)
	go func() {
		_, err := server.Write([]byte(line + "\r\n"))
		errCh <- err
	}()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case err := <-errCh:
			if err != nil {
				t.Fatalf("server write %q: %v", line, err)
			}
			return
		default:
		}
		closed, rerr := c.ReadStep()
		if rerr != nil {
			t.Fatalf("ReadStep: %v", rerr)
		}
		if closed {
			return
		}
	}
	t.Fatalf("timed out feeding line %q", line)
}

func TestDispatchHandshakeAndPing(t *testing.T) {
	c, server, rec := dialTestClient(t, Config{Nick: "self", User: "self", Name: "Self User"})
	defer server.Close()

	if !strings.Contains(rec.String(), "NICK self") {
		t.Errorf("expected NICK in handshake, got %q", rec.String())
	}

	feedLine(t, c, server, "PING :sync1")
	rec.waitFor(t, "PONG :sync1")
}

func TestDispatchWelcomeSetsNick(t *testing.T) {
	c, server, _ := dialTestClient(t, Config{Nick: "self", User: "self"})
	defer server.Close()

	var connected bool
	c.Events.OnConnect.Subscribe(func() { connected = true })

	feedLine(t, c, server, ":irc.example.net 001 self :Welcome to the network self")
	if !connected {
		t.Error("OnConnect should have fired on 001")
	}
	if c.Nick() != "self" {
		t.Errorf("Nick() = %q, want self", c.Nick())
	}
}

func TestDispatchISupport(t *testing.T) {
	c, server, _ := dialTestClient(t, Config{Nick: "self", User: "self"})
	defer server.Close()

	feedLine(t, c, server, ":irc.example.net 005 self NICKLEN=20 NETWORK=Testnet CHANTYPES=# :are supported by this server")

	if c.ISupport.MaxNickLength != 20 {
		t.Errorf("MaxNickLength = %d, want 20", c.ISupport.MaxNickLength)
	}
	if !c.ISupport.EnforceMaxNickLength {
		t.Error("EnforceMaxNickLength should be true after NICKLEN token")
	}
	if c.ISupport.NetworkName != "Testnet" {
		t.Errorf("NetworkName = %q, want Testnet", c.ISupport.NetworkName)
	}
	if !c.ISupport.IsValidChannel("#go") || c.ISupport.IsValidChannel("&local") {
		t.Error("CHANTYPES=# from the 005 line should have narrowed valid channel prefixes")
	}
}

func TestDispatchPrivmsgCtcpRouting(t *testing.T) {
	c, server, _ := dialTestClient(t, Config{Nick: "self", User: "self"})
	defer server.Close()

	var gotMessage bool
	var gotQuery string
	c.Events.OnMessage.Subscribe(func(user IrcUser, target, text string) { gotMessage = true })
	c.Events.OnCtcpQuery.Subscribe(func(user IrcUser, target, tag, data string) { gotQuery = tag })

	feedLine(t, c, server, ":alice!a@host PRIVMSG #chan :\x01VERSION\x01")
	if gotQuery != "VERSION" {
		t.Errorf("OnCtcpQuery tag = %q, want VERSION", gotQuery)
	}
	if gotMessage {
		t.Error("a CTCP query must not also fire OnMessage")
	}

	feedLine(t, c, server, ":alice!a@host PRIVMSG #chan :hello there")
	if !gotMessage {
		t.Error("a plain PRIVMSG should fire OnMessage")
	}
}

func TestDispatchNoticeCtcpRouting(t *testing.T) {
	c, server, _ := dialTestClient(t, Config{Nick: "self", User: "self"})
	defer server.Close()

	var gotNotice bool
	var gotReplyTag string
	c.Events.OnNotice.Subscribe(func(user IrcUser, target, text string) { gotNotice = true })
	c.Events.OnCtcpReply.Subscribe(func(user IrcUser, target, tag, data string) { gotReplyTag = tag })

	feedLine(t, c, server, ":bob!b@host NOTICE self :\x01PING 12345\x01")
	if gotReplyTag != "PING" {
		t.Errorf("OnCtcpReply tag = %q, want PING", gotReplyTag)
	}
	if gotNotice {
		t.Error("a CTCP reply must not also fire OnNotice")
	}
}

func TestDispatchJoinPartKickQuit(t *testing.T) {
	c, server, _ := dialTestClient(t, Config{Nick: "self", User: "self"})
	defer server.Close()

	var selfJoined bool
	var joinedUser IrcUser
	var partedChannel, partMessage string
	var kickedNick, kickComment string
	var quitUser IrcUser
	c.Events.OnSuccessfulJoin.Subscribe(func(channel string) { selfJoined = true })
	c.Events.OnJoin.Subscribe(func(user IrcUser, channel string) { joinedUser = user })
	c.Events.OnPart.Subscribe(func(user IrcUser, channel, message string) {
		partedChannel, partMessage = channel, message
	})
	c.Events.OnKick.Subscribe(func(kicker IrcUser, channel, kickedNickParam, comment string) {
		kickedNick, kickComment = kickedNickParam, comment
	})
	c.Events.OnQuit.Subscribe(func(user IrcUser, message string) { quitUser = user })

	feedLine(t, c, server, ":self!s@host JOIN #chan")
	if !selfJoined {
		t.Error("OnSuccessfulJoin should fire when self joins")
	}

	feedLine(t, c, server, ":alice!a@host JOIN #chan")
	if joinedUser.NickName != "alice" {
		t.Errorf("OnJoin nick = %q, want alice", joinedUser.NickName)
	}

	feedLine(t, c, server, ":alice!a@host PART #chan :goodbye")
	if partedChannel != "#chan" || partMessage != "goodbye" {
		t.Errorf("OnPart = (%q, %q), want (#chan, goodbye)", partedChannel, partMessage)
	}

	feedLine(t, c, server, ":alice!a@host JOIN #chan")
	feedLine(t, c, server, ":op!o@host KICK #chan alice :rule 5")
	if kickedNick != "alice" || kickComment != "rule 5" {
		t.Errorf("OnKick = (%q, %q), want (alice, rule 5)", kickedNick, kickComment)
	}

	feedLine(t, c, server, ":bob!b@host QUIT :pc fire")
	if quitUser.NickName != "bob" || quitUser.UserName != "b" {
		t.Errorf("OnQuit user = %+v", quitUser)
	}
}

func TestDispatchNickOrdering(t *testing.T) {
	c, server, _ := dialTestClient(t, Config{Nick: "self", User: "self"})
	defer server.Close()

	var seenOldNick string
	c.Events.OnNickChange.Subscribe(func(user IrcUser, newNick string) {
		seenOldNick = user.NickName
	})

	feedLine(t, c, server, ":self!s@host NICK self2")
	if seenOldNick != "self" {
		t.Errorf("OnNickChange should see the OLD nick %q, got %q", "self", seenOldNick)
	}
	if c.Nick() != "self2" {
		t.Errorf("Nick() = %q after self-rename, want self2", c.Nick())
	}

	feedLine(t, c, server, ":other!o@host NICK other2")
	if seenOldNick != "other" {
		t.Errorf("OnNickChange should see other's OLD nick, got %q", seenOldNick)
	}
	if c.Nick() != "self2" {
		t.Errorf("a non-self NICK must not change the client's own nick, got %q", c.Nick())
	}
}

func TestDispatchWhoisReply(t *testing.T) {
	c, server, _ := dialTestClient(t, Config{Nick: "self", User: "self"})
	defer server.Close()

	var gotUser, gotHost, gotReal string
	c.Events.OnWhoisReply.Subscribe(func(nick, user, host, realName string) {
		gotUser, gotHost, gotReal = user, host, realName
	})

	feedLine(t, c, server, ":irc.example.net 311 self alice ident host.example * :Alice Example")
	if gotUser != "ident" || gotHost != "host.example" || gotReal != "Alice Example" {
		t.Errorf("OnWhoisReply = (%q, %q, %q)", gotUser, gotHost, gotReal)
	}
}

func TestDispatchWhoReply(t *testing.T) {
	c, server, _ := dialTestClient(t, Config{Nick: "self", User: "self"})
	defer server.Close()

	var gotUser, gotHost, gotReal string
	c.Events.OnWhoReply.Subscribe(func(nick, user, host, realName string) {
		gotUser, gotHost, gotReal = user, host, realName
	})

	feedLine(t, c, server, ":irc.example.net 352 self #chan ident host.example irc.example.net alice H :3 Alice Example")
	if gotUser != "ident" || gotHost != "host.example" || gotReal != "Alice Example" {
		t.Errorf("OnWhoReply = (%q, %q, %q)", gotUser, gotHost, gotReal)
	}
}
