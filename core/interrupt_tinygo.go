//go:build tinygo

package core

import "runtime/interrupt"

// disableInterrupts masks interrupts so the UART receive handler cannot
// touch the input FIFO or the frame buffer, and returns the previous state
func disableInterrupts() interrupt.State {
	return interrupt.Disable()
}

// restoreInterrupts restores the interrupt state
func restoreInterrupts(state interrupt.State) {
	interrupt.Restore(state)
}
