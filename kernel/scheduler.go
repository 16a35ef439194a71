package kernel

// Scheduler is the kernel's single scheduling state block: the task pool,
// the ready and sleep sets, the tick counter and the preemption gate.
//
// All state is mutated with the port's interrupts suppressed. Methods are
// called either from the running task or from the timer interrupt.
type Scheduler struct {
	port   Port
	tracer Tracer

	pool  [MaxTasks]taskRecord
	ready readySet
	sleep sleepSet

	tick        uint64
	depth       uint32
	needResched bool
	current     TaskID

	initialized bool
	started     bool
}

// New creates a scheduler bound to port. Init must be called before any
// task is created.
func New(port Port, opts ...Option) *Scheduler {
	s := &Scheduler{port: port}
	for _, opt := range opts {
		opt(s)
	}
	s.reset()
	return s
}

func (s *Scheduler) reset() {
	for i := range s.pool {
		s.pool[i] = taskRecord{next: NoTask, prev: NoTask, heapIdx: -1}
	}
	s.ready.reset(&s.pool)
	s.sleep.reset(&s.pool)
	s.tick = 0
	s.depth = 0
	s.needResched = false
	s.current = NoTask
	s.started = false
}

func (s *Scheduler) lock() IRQState     { return s.port.SuppressInterrupts() }
func (s *Scheduler) unlock(st IRQState) { s.port.AllowInterrupts(st) }

// Init resets the scheduler and arms the port timer at tickHz.
func (s *Scheduler) Init(tickHz uint32) {
	if s.initialized {
		s.halt("init called twice")
	}
	if tickHz == 0 {
		s.halt("tick frequency must be non-zero")
	}
	st := s.lock()
	s.reset()
	s.initialized = true
	s.unlock(st)
	s.port.ConfigureTimer(tickHz, s.timerISR)
}

// Start dispatches the highest-priority ready task. It does not return on
// hardware; a simulated port returns once the simulation has stopped.
func (s *Scheduler) Start() {
	if !s.initialized {
		s.halt("start before init")
	}
	if s.started {
		s.halt("start called twice")
	}
	st := s.lock()
	id, ok := s.ready.highest()
	if !ok {
		s.unlock(st)
		s.halt("start with no ready task")
	}
	t := &s.pool[id]
	s.ready.removeHead(t.priority)
	s.setState(id, StateRunning)
	t.timesliceLeft = TimeSlice
	s.current = id
	s.started = true
	s.needResched = false
	s.trace(Event{Kind: EventSwitch, Tick: s.tick, Task: id, From: NoTask})

	// Interrupts stay suppressed on this path; the first task starts with
	// them allowed.
	s.port.FirstTransfer(t.ctx)
}

func (s *Scheduler) timerISR() {
	s.Tick()
	s.Schedule()
}

// Tick advances the timebase by one: it wakes due sleepers, then charges
// the running task one tick of its timeslice.
func (s *Scheduler) Tick() {
	st := s.lock()
	defer s.unlock(st)

	running := NoTask
	if s.current != NoTask && s.pool[s.current].state == StateRunning {
		running = s.current
	}
	s.tick++
	s.trace(Event{Kind: EventTick, Tick: s.tick, Task: running})

	woke := false
	for {
		id, ok := s.sleep.popDue(s.tick)
		if !ok {
			break
		}
		s.trace(Event{Kind: EventWake, Tick: s.tick, Task: id})
		s.makeReady(id)
		woke = true
	}
	if woke {
		s.needResched = true
	}

	if running == NoTask {
		return
	}
	t := &s.pool[running]
	if t.timesliceLeft > 0 {
		t.timesliceLeft--
	}
	if t.timesliceLeft == 0 {
		t.timesliceLeft = TimeSlice
		if s.ready.peerReady(t.priority) {
			s.needResched = true
		}
	}
}

// Schedule is the dispatch decision. While the preemption gate is closed
// it does nothing and leaves a pending reschedule for later.
func (s *Scheduler) Schedule() {
	st := s.lock()
	s.schedule()
	s.unlock(st)
}

func (s *Scheduler) schedule() {
	if !s.started || s.depth > 0 {
		return
	}
	if !s.needResched {
		return
	}
	s.needResched = false

	id, ok := s.ready.highest()
	if !ok {
		return
	}
	next := &s.pool[id]
	if s.current != NoTask {
		cur := &s.pool[s.current]
		if cur.state == StateRunning && next.priority > cur.priority {
			return
		}
	}
	s.ready.removeHead(next.priority)

	if id == s.current {
		// The current task left Running and was made ready again before
		// anything else could run: resume it in place.
		s.setState(id, StateRunning)
		next.timesliceLeft = TimeSlice
		return
	}
	s.transfer(id)
}

// transfer makes id the running task and switches to its context. The
// previous task goes back to the ready tail only if it is still Running;
// a state set by a blocking call is kept.
func (s *Scheduler) transfer(id TaskID) {
	if id == s.current {
		return
	}
	prevID := s.current
	var prevCtx Context
	if prevID != NoTask {
		prev := &s.pool[prevID]
		if prev.state == StateRunning {
			s.makeReady(prevID)
		}
		prevCtx = prev.ctx
	}

	next := &s.pool[id]
	s.setState(id, StateRunning)
	next.timesliceLeft = TimeSlice
	s.current = id
	s.trace(Event{Kind: EventSwitch, Tick: s.tick, Task: id, From: prevID})

	s.port.Switch(prevCtx, next.ctx)
}

// idle waits for interrupts while the current task has left Running and
// nothing else could be dispatched. It returns once the task runs again or
// the CPU was handed to another task.
func (s *Scheduler) idle() {
	for {
		st := s.lock()
		me := s.current
		waiting := s.started && s.depth == 0 && me != NoTask && s.pool[me].state != StateRunning
		s.unlock(st)
		if !waiting {
			return
		}
		s.port.WaitForInterrupt()
	}
}

func (s *Scheduler) makeReady(id TaskID) {
	s.setState(id, StateReady)
	s.ready.insert(id)
}

func (s *Scheduler) setState(id TaskID, st State) {
	t := &s.pool[id]
	if t.state == st {
		return
	}
	s.trace(Event{Kind: EventState, Tick: s.tick, Task: id, OldState: t.state, NewState: st})
	t.state = st
}
