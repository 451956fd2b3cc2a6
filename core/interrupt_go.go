//go:build !tinygo

package core

import "runtime"

// InterruptState is a placeholder for interrupt state on regular Go
type InterruptState uintptr

// DisableInterrupts is a no-op on regular Go (for testing)
func DisableInterrupts() InterruptState {
	return 0
}

// RestoreInterrupts is a no-op on regular Go (for testing)
func RestoreInterrupts(state InterruptState) {
	// No-op
}

// Relax is the body of every foreground busy-wait. On regular Go the
// interrupt handlers are goroutines, so the spinning goroutine hands the
// processor over; no other foreground work is scheduled by this.
func Relax() {
	runtime.Gosched()
}
