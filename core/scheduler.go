package core

// Timer is a periodic foreground task such as telemetry polling or screen
// refresh. Handler returns SF_RESCHEDULE to run again after Period.
type Timer struct {
	WakeTime uint32 // milliseconds
	Period   uint32
	Handler  func(*Timer) uint8
	Next     *Timer
}

const (
	SF_DONE       = 0
	SF_RESCHEDULE = 1
)

// Scheduler keeps timers sorted by WakeTime and runs the due ones from the
// foreground loop. While the console is active the loop does not call
// Dispatch, so no timer runs until the console exits.
type Scheduler struct {
	timerList *Timer
}

// Add inserts a timer in sorted order
func (s *Scheduler) Add(t *Timer) {
	state := DisableInterrupts()
	defer RestoreInterrupts(state)

	s.insertTimer(t)
}

// Pending returns the number of scheduled timers
func (s *Scheduler) Pending() int {
	n := 0
	for t := s.timerList; t != nil; t = t.Next {
		n++
	}
	return n
}

// insertTimer inserts a timer in sorted order by WakeTime
func (s *Scheduler) insertTimer(t *Timer) {
	if s.timerList == nil || before(t.WakeTime, s.timerList.WakeTime) {
		t.Next = s.timerList
		s.timerList = t
		return
	}

	current := s.timerList
	for current.Next != nil && !before(t.WakeTime, current.Next.WakeTime) {
		current = current.Next
	}

	t.Next = current.Next
	current.Next = t
}

// Dispatch runs every timer with WakeTime <= now and returns how many ran
func (s *Scheduler) Dispatch(now uint32) int {
	ran := 0
	for s.timerList != nil && !before(now, s.timerList.WakeTime) {
		state := DisableInterrupts()
		timer := s.timerList
		s.timerList = timer.Next
		timer.Next = nil
		RestoreInterrupts(state)

		ran++
		if timer.Handler(timer) == SF_RESCHEDULE {
			timer.WakeTime = now + max(timer.Period, 1)
			s.Add(timer)
		}
	}
	return ran
}

// before compares wrapping millisecond clocks
func before(a, b uint32) bool {
	return int32(a-b) < 0
}
