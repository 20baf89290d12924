// Copyright (c) corvid authors. All rights reserved. Use of this source
// code is governed by the MIT license that can be found in the LICENSE
// file.

package corvid

import "strings"

// modeTakesArg reports whether a channel mode letter consumes a parameter
// when toggled, per the CHANMODES four-class split (§3/§4.7 glossary):
// list and parameterized modes always take one; nullary-removable modes
// take one only while being added; setting modes never do. Grounded on
// girc's modes.go CModes.hasArg, generalized off ISupport's live classes
// instead of a client-held CModes snapshot.
func (is *ISupport) modeTakesArg(adding bool, mode byte) bool {
	if strings.IndexByte(is.ChannelListModes, mode) >= 0 {
		return true
	}
	if strings.IndexByte(is.ChannelParameterizedModes, mode) >= 0 {
		return true
	}
	if strings.IndexByte(is.ChannelNullaryRemovableModes, mode) >= 0 {
		return adding
	}
	return false
}
