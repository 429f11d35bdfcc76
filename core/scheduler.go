package core

// Timer represents a scheduled event. The handler returns SF_DONE to drop
// the timer or SF_RESCHEDULE after advancing WakeTime.
type Timer struct {
	WakeTime uint32
	Handler  func(*Timer) uint8
	Next     *Timer
}

const (
	SF_DONE       = 0
	SF_RESCHEDULE = 1
)

// Scheduler runs task-context timers from the main loop. It is not used from
// interrupt context.
type Scheduler struct {
	list *Timer
}

// Add inserts t in wake-time order. Adding a timer that is already queued
// corrupts the list.
func (s *Scheduler) Add(t *Timer) {
	if s.list == nil || timeBefore(t.WakeTime, s.list.WakeTime) {
		t.Next = s.list
		s.list = t
		return
	}
	cur := s.list
	for cur.Next != nil && !timeBefore(t.WakeTime, cur.Next.WakeTime) {
		cur = cur.Next
	}
	t.Next = cur.Next
	cur.Next = t
}

// Remove unlinks t if it is queued.
func (s *Scheduler) Remove(t *Timer) {
	for p := &s.list; *p != nil; p = &(*p).Next {
		if *p == t {
			*p = t.Next
			t.Next = nil
			return
		}
	}
}

// Dispatch runs every timer due at or before now and returns how many ran.
func (s *Scheduler) Dispatch(now uint32) int {
	ran := 0
	for s.list != nil && !timeBefore(now, s.list.WakeTime) {
		t := s.list
		s.list = t.Next
		t.Next = nil
		ran++
		if t.Handler(t) == SF_RESCHEDULE {
			s.Add(t)
		}
	}
	return ran
}

// Every returns a timer that calls fn every period ticks starting at start.
// Wake times advance by exactly one period, so a stalled loop catches up by
// running fn back to back in the next Dispatch rather than dropping ticks.
func Every(start, period uint32, fn func(wake uint32)) *Timer {
	return &Timer{
		WakeTime: start,
		Handler: func(t *Timer) uint8 {
			fn(t.WakeTime)
			t.WakeTime += period
			return SF_RESCHEDULE
		},
	}
}
