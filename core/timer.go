package core

// Millis returns the free-running millisecond clock that drives the
// Scheduler. It wraps after about 49 days; compare with before().
func Millis() uint32 {
	return getSystemTicks()
}
