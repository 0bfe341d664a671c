package core

import "synthmidi/protocol"

// AcceptChannel reports whether an event on channel passes the receive
// channel setting. Only the low four bits of channel are significant.
func AcceptChannel(receive int8, channel uint8) bool {
	return receive < 0 || int8(channel&protocol.ChannelMask) == receive
}
