package kernel

import (
	"errors"
	"fmt"
	"math"
)

// ErrNilEntry is returned by CreateTask for a nil entry function.
var ErrNilEntry = errors.New("nil task entry")

// CreateTask adds a Ready task to the pool. It fails without producing a
// record when the pool is full, the priority is out of range, or the port
// cannot prepare a context on stack; those errors match
// ErrResourceExhausted.
//
// Tasks may be created after Start; a new task of equal or higher
// priority than the caller preempts it.
func (s *Scheduler) CreateTask(name string, entry TaskFunc, arg any, stack StackRegion, priority uint8) (TaskID, error) {
	if !s.initialized {
		return NoTask, ErrNotInitialized
	}
	if entry == nil {
		return NoTask, ErrNilEntry
	}
	if priority >= MaxPriorities {
		return NoTask, priorityError(priority)
	}

	st := s.lock()
	id := s.freeSlot()
	if id == NoTask {
		s.unlock(st)
		return NoTask, ErrPoolExhausted
	}
	s.pool[id].used = true
	s.unlock(st)

	ctx, err := s.port.NewContext(name, entry, arg, stack)
	if err != nil {
		st = s.lock()
		s.pool[id].used = false
		s.unlock(st)
		return NoTask, fmt.Errorf("%w: %s: %w", ErrStackUnavailable, name, err)
	}

	st = s.lock()
	t := &s.pool[id]
	t.name = name
	t.priority = priority
	t.ctx = ctx
	t.stack = stack
	t.entry = entry
	t.arg = arg
	t.state = StateReady
	t.timesliceLeft = TimeSlice
	s.ready.insert(id)
	s.trace(Event{Kind: EventCreate, Tick: s.tick, Task: id})
	s.needResched = true
	s.schedule()
	s.unlock(st)
	return id, nil
}

func (s *Scheduler) freeSlot() TaskID {
	for i := range s.pool {
		if !s.pool[i].used {
			return TaskID(i)
		}
	}
	return NoTask
}

// BlockCurrent moves the calling task from Running to Blocked and
// dispatches. It returns after Wake (or Resume) made the task run again.
//
// Called with the preemption gate closed, the task keeps executing until
// the gate is reopened; the switch happens then.
func (s *Scheduler) BlockCurrent() {
	st := s.lock()
	id := s.currentOrHalt(st)
	s.setState(id, StateBlocked)
	s.needResched = true
	s.schedule()
	s.unlock(st)
	s.idle()
}

// Wake moves a Blocked task to the tail of its ready queue. It reports
// false, doing nothing, if the task is not Blocked.
func (s *Scheduler) Wake(id TaskID) bool {
	st := s.lock()
	if !s.valid(id) || s.pool[id].state != StateBlocked {
		s.unlock(st)
		return false
	}
	s.makeReady(id)
	s.needResched = true
	s.schedule()
	s.unlock(st)
	return true
}

// SleepUntil puts the calling task to sleep until the tick counter reaches
// wakeTick. A tick that has already passed yields instead.
func (s *Scheduler) SleepUntil(wakeTick uint64) {
	st := s.lock()
	id := s.currentOrHalt(st)
	if wakeTick <= s.tick {
		s.needResched = true
		s.schedule()
		s.unlock(st)
		return
	}
	s.setState(id, StateSleeping)
	s.sleep.insert(id, wakeTick)
	s.needResched = true
	s.schedule()
	s.unlock(st)
	s.idle()
}

// Sleep puts the calling task to sleep for ticks ticks. A deadline past
// the end of the tick counter saturates.
func (s *Scheduler) Sleep(ticks uint64) {
	st := s.lock()
	wake := s.tick + ticks
	if wake < s.tick {
		wake = math.MaxUint64
	}
	s.unlock(st)
	s.SleepUntil(wake)
}

// Suspend takes a task out of scheduling until Resume, whatever its state.
// Suspending the calling task dispatches another one.
func (s *Scheduler) Suspend(id TaskID) {
	st := s.lock()
	if !s.valid(id) {
		s.unlock(st)
		return
	}
	t := &s.pool[id]
	switch t.state {
	case StateSuspended:
		s.unlock(st)
		return
	case StateReady:
		s.ready.remove(id)
	case StateSleeping:
		s.sleep.remove(id)
	}
	s.setState(id, StateSuspended)
	if id != s.current {
		s.unlock(st)
		return
	}
	s.needResched = true
	s.schedule()
	s.unlock(st)
	s.idle()
}

// Resume makes a Suspended task Ready. Other states are left untouched.
func (s *Scheduler) Resume(id TaskID) {
	st := s.lock()
	if !s.valid(id) || s.pool[id].state != StateSuspended {
		s.unlock(st)
		return
	}
	s.makeReady(id)
	s.needResched = true
	s.schedule()
	s.unlock(st)
}

// YieldCurrent gives the CPU to a ready task of equal or higher priority,
// if there is one. The caller goes to the tail of its ready queue.
func (s *Scheduler) YieldCurrent() {
	st := s.lock()
	s.currentOrHalt(st)
	s.needResched = true
	s.schedule()
	s.unlock(st)
}

func (s *Scheduler) currentOrHalt(st IRQState) TaskID {
	if !s.started || s.current == NoTask {
		s.unlock(st)
		s.halt("blocking call outside a task")
	}
	return s.current
}

func (s *Scheduler) valid(id TaskID) bool {
	return int(id) < len(s.pool) && s.pool[id].used
}

// Now returns the current tick.
func (s *Scheduler) Now() uint64 {
	st := s.lock()
	defer s.unlock(st)
	return s.tick
}

// Current returns the running task, or NoTask before Start.
func (s *Scheduler) Current() TaskID {
	st := s.lock()
	defer s.unlock(st)
	return s.current
}

// ReadyBitmap returns the ready bitmap: bit i is set iff priority i has a
// ready task.
func (s *Scheduler) ReadyBitmap() uint32 {
	st := s.lock()
	defer s.unlock(st)
	return s.ready.bitmap
}

// TaskInfo returns a snapshot of a task record.
func (s *Scheduler) TaskInfo(id TaskID) (TaskInfo, bool) {
	st := s.lock()
	defer s.unlock(st)
	if !s.valid(id) {
		return TaskInfo{}, false
	}
	return s.info(id), true
}

// Tasks returns snapshots of every task in the pool, in TaskID order.
func (s *Scheduler) Tasks() []TaskInfo {
	st := s.lock()
	defer s.unlock(st)
	var out []TaskInfo
	for i := range s.pool {
		if s.pool[i].used {
			out = append(out, s.info(TaskID(i)))
		}
	}
	return out
}

func (s *Scheduler) info(id TaskID) TaskInfo {
	t := &s.pool[id]
	return TaskInfo{
		ID:            id,
		Name:          t.name,
		State:         t.state,
		Priority:      t.priority,
		TimesliceLeft: t.timesliceLeft,
		WakeTick:      t.wakeTick,
		Stack:         t.stack,
	}
}
