package kernel

// PreemptDisable closes the preemption gate. Calls nest: scheduling resumes
// only after a matching number of PreemptEnable calls. Interrupts still
// fire while the gate is closed, but their reschedule requests are held.
func (s *Scheduler) PreemptDisable() {
	st := s.lock()
	s.depth++
	s.unlock(st)
}

// PreemptEnable reopens one level of the gate. When the last level is
// released, a reschedule requested meanwhile is dispatched immediately.
func (s *Scheduler) PreemptEnable() {
	st := s.lock()
	if s.depth == 0 {
		s.unlock(st)
		s.halt("preemption enabled more times than disabled")
	}
	s.depth--
	if s.depth == 0 {
		s.schedule()
	}
	s.unlock(st)
	s.idle()
}

// WithoutPreemption runs fn with the gate closed and reopens it on every
// exit path, including a panic in fn.
func (s *Scheduler) WithoutPreemption(fn func()) {
	s.PreemptDisable()
	defer s.PreemptEnable()
	fn()
}

// PreemptDepth returns the current nesting depth of the gate.
func (s *Scheduler) PreemptDepth() uint32 {
	st := s.lock()
	defer s.unlock(st)
	return s.depth
}
