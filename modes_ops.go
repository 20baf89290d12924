// Copyright (c) corvid authors. All rights reserved. Use of this source
// code is governed by the MIT license that can be found in the LICENSE
// file.

package corvid

import "strings"

// ModeArg is one (mode letter, argument) pair passed to
// AddChannelModes/RemoveChannelModes. Argument may be empty for modes
// that take none.
type ModeArg struct {
	Mode byte
	Arg  string
}

func (c *Client) chunkModes(channel string, add bool, pairs []ModeArg) error {
	if !c.connected {
		return &NotConnected{Op: "channel modes"}
	}
	if !c.ISupport.IsValidChannel(channel) {
		return &InvalidArgument{Arg: channel, Reason: "not a valid channel"}
	}

	limit := c.ISupport.MessageModeLimit
	if limit <= 0 {
		limit = defaultMessageModeLimit
	}

	sign := byte('+')
	if !add {
		sign = '-'
	}

	for start := 0; start < len(pairs); start += limit {
		end := start + limit
		if end > len(pairs) {
			end = len(pairs)
		}
		chunk := pairs[start:end]

		var modeStr strings.Builder
		modeStr.WriteByte(sign)
		var args []string
		for _, p := range chunk {
			modeStr.WriteByte(p.Mode)
			if p.Arg != "" {
				args = append(args, p.Arg)
			}
		}

		params := append([]string{channel, modeStr.String()}, args...)
		if err := c.writeMessage(&Message{Command: MODE, Params: params}); err != nil {
			return err
		}
	}

	return nil
}

// AddChannelModes emits "MODE <chan> +<modes> <args...>", chunked at
// ISupport.MessageModeLimit pairs per line (§4.6).
func (c *Client) AddChannelModes(channel string, pairs ...ModeArg) error {
	return c.chunkModes(channel, true, pairs)
}

// RemoveChannelModes is the "-" counterpart of AddChannelModes.
func (c *Client) RemoveChannelModes(channel string, pairs ...ModeArg) error {
	return c.chunkModes(channel, false, pairs)
}

func (c *Client) channelList(channel string, add bool, listMode byte, addresses []string) error {
	if !c.connected {
		return &NotConnected{Op: "channel list"}
	}
	if !c.ISupport.IsValidChannel(channel) {
		return &InvalidArgument{Arg: channel, Reason: "not a valid channel"}
	}
	if strings.IndexByte(c.ISupport.ChannelListModes, listMode) < 0 {
		return &BadMode{Mode: listMode}
	}

	pairs := make([]ModeArg, len(addresses))
	for i, addr := range addresses {
		pairs[i] = ModeArg{Mode: listMode, Arg: addr}
	}
	return c.chunkModes(channel, add, pairs)
}

// AddToChannelList adds each address to channel's listMode list (e.g. ban
// list 'b'), chunked the same way as AddChannelModes. Fails with *BadMode
// if listMode is not one of the server's advertised list modes.
func (c *Client) AddToChannelList(channel string, listMode byte, addresses ...string) error {
	return c.channelList(channel, true, listMode, addresses)
}

// RemoveFromChannelList is the "-" counterpart of AddToChannelList.
func (c *Client) RemoveFromChannelList(channel string, listMode byte, addresses ...string) error {
	return c.channelList(channel, false, listMode, addresses)
}
