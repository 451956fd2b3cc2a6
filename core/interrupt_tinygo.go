//go:build tinygo

package core

import (
	"runtime"
	"runtime/interrupt"
)

// InterruptState is the saved interrupt mask
type InterruptState = interrupt.State

// DisableInterrupts disables interrupts and returns the previous state
func DisableInterrupts() InterruptState {
	return interrupt.Disable()
}

// RestoreInterrupts restores the interrupt state
func RestoreInterrupts(state InterruptState) {
	interrupt.Restore(state)
}

// Relax is the body of every foreground busy-wait. The scheduler is
// cooperative, so a spinning foreground must yield for the UART pump to run.
func Relax() {
	runtime.Gosched()
}
