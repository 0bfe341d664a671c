package core

import "testing"

func TestAcceptChannelOmni(t *testing.T) {
	for ch := uint8(0); ch < 16; ch++ {
		if !AcceptChannel(-1, ch) {
			t.Errorf("Channel %d rejected with omni receive", ch)
		}
	}
}

func TestAcceptChannelFixed(t *testing.T) {
	testCases := []struct {
		channel  uint8
		expected bool
	}{
		{5, true},
		{21, true}, // only the low nibble counts
		{6, false},
		{0, false},
		{15, false},
	}

	for _, tc := range testCases {
		if got := AcceptChannel(5, tc.channel); got != tc.expected {
			t.Errorf("AcceptChannel(5, %d) = %v, expected %v", tc.channel, got, tc.expected)
		}
	}
}
