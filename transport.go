// Copyright (c) corvid authors. All rights reserved. Use of this source
// code is governed by the MIT license that can be found in the LICENSE
// file.

package corvid

import (
	"crypto/tls"
	"errors"
	"net"
	"time"
)

// ErrWouldBlock is returned by Transport.Recv when no data is currently
// available and the call would otherwise have blocked.
var ErrWouldBlock = errors.New("corvid: transport would block")

// Transport is the byte-stream socket abstraction the core consumes (§6).
// TLS, proxying, or a mock for tests are all external adapters satisfying
// this interface; the dispatcher never dials a socket type directly.
type Transport interface {
	// Connect establishes the underlying connection to address.
	Connect(address string) error
	// Recv performs a single non-blocking receive into buf. It returns
	// ErrWouldBlock if no bytes were currently available, and (0, io.EOF)
	// (or any other error) if the peer closed or the socket failed.
	Recv(buf []byte) (int, error)
	// Send writes p to the socket, blocking until the write completes or
	// fails.
	Send(p []byte) error
	// Close tears down the connection. Idempotent.
	Close() error
}

// netTransport is the default Transport, backed by net.Conn (optionally
// wrapped in TLS), grounded on girc's conn.go Dialer/ircConn pairing but
// stripped of girc's background goroutines: every method here is called
// synchronously by the owning Client.
type netTransport struct {
	TLSConfig *tls.Config
	Timeout   time.Duration

	conn net.Conn
}

// NewTransport returns the default net.Conn-backed Transport. If
// tlsConfig is non-nil, the connection is upgraded with tls.Client after
// dialing.
func NewTransport(tlsConfig *tls.Config, dialTimeout time.Duration) Transport {
	return &netTransport{TLSConfig: tlsConfig, Timeout: dialTimeout}
}

func (t *netTransport) Connect(address string) error {
	timeout := t.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	conn, err := net.DialTimeout("tcp", address, timeout)
	if err != nil {
		return &TransportError{Op: "dial", Err: err}
	}

	if t.TLSConfig != nil {
		tlsConn := tls.Client(conn, t.TLSConfig)
		if err := tlsConn.Handshake(); err != nil {
			conn.Close()
			return &TransportError{Op: "tls handshake", Err: err}
		}
		conn = tlsConn
	}

	t.conn = conn
	return nil
}

func (t *netTransport) Recv(buf []byte) (int, error) {
	if t.conn == nil {
		return 0, &NotConnected{Op: "recv"}
	}

	// Emulate a non-blocking read: an immediate deadline means the read
	// either completes with already-buffered data or times out.
	_ = t.conn.SetReadDeadline(time.Now())
	n, err := t.conn.Read(buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return 0, ErrWouldBlock
		}
		return n, err
	}
	return n, nil
}

func (t *netTransport) Send(p []byte) error {
	if t.conn == nil {
		return &NotConnected{Op: "send"}
	}
	_ = t.conn.SetWriteDeadline(time.Time{})
	_, err := t.conn.Write(p)
	if err != nil {
		return &TransportError{Op: "write", Err: err}
	}
	return nil
}

func (t *netTransport) Close() error {
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}
