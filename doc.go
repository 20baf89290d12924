// Copyright (c) corvid authors. All rights reserved. Use of this source
// code is governed by the MIT license that can be found in the LICENSE
// file.

// Package corvid is an IRC client core: it owns a single TCP/TLS
// connection, parses the RFC 1459/2812 wire protocol, dispatches typed
// events to application handlers, and maintains a queryable view of the
// channels and users the client has joined.
//
// The core is single-threaded and cooperative: exactly one goroutine
// should call ReadStep and the outgoing operations on a given Client.
// Event handlers run synchronously, in subscription order, on that same
// goroutine.
package corvid
