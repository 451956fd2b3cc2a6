//go:build tinygo

package core

import "sync/atomic"

var systemTicksValue uint32

// getSystemTicks returns the current system ticks
func getSystemTicks() uint32 {
	return atomic.LoadUint32(&systemTicksValue)
}

// SetSystemTicks publishes the millisecond clock read from the hardware timer
func SetSystemTicks(ms uint32) {
	atomic.StoreUint32(&systemTicksValue, ms)
}
