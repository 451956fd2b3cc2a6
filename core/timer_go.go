//go:build !tinygo

package core

import (
	"sync/atomic"
	"time"
)

var (
	bootTime = time.Now()

	frozenTicks atomic.Uint32
	frozen      atomic.Bool
)

// getSystemTicks returns milliseconds since process start, or the frozen value
func getSystemTicks() uint32 {
	if frozen.Load() {
		return frozenTicks.Load()
	}
	return uint32(time.Since(bootTime).Milliseconds())
}

// SetMillis freezes the clock at ms until ReleaseMillis is called (tests)
func SetMillis(ms uint32) {
	frozenTicks.Store(ms)
	frozen.Store(true)
}

// ReleaseMillis lets the clock run from process start again
func ReleaseMillis() {
	frozen.Store(false)
}
