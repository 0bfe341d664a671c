//go:build rp2040

package main

import (
	"machine"
)

const dumpButton = machine.GPIO15

// Panel stands in for the front panel: the onboard LED shows held notes and
// a button on GPIO15 (active low) starts a preset dump
type Panel struct {
	led      machine.Pin
	held     [128]bool
	holding  int
	released bool
}

// NewPanel configures the LED and the dump button
func NewPanel() *Panel {
	p := &Panel{led: machine.LED, released: true}
	p.led.Configure(machine.PinConfig{Mode: machine.PinOutput})
	dumpButton.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	return p
}

// AssignNote tracks held notes and lights the LED while any is down
func (p *Panel) AssignNote(note uint8, on bool, velocity uint16, flags uint8) {
	if int(note) >= len(p.held) || p.held[note] == on {
		return
	}
	p.held[note] = on
	if on {
		p.holding++
	} else {
		p.holding--
	}
	p.led.Set(p.holding > 0)
}

// DumpRequested reports a new press of the dump button
func (p *Panel) DumpRequested() bool {
	pressed := !dumpButton.Get()
	if pressed && p.released {
		p.released = false
		return true
	}
	if !pressed {
		p.released = true
	}
	return false
}
