package kernel

import (
	"fmt"
	"sync/atomic"
)

// HaltInfo describes a fatal precondition violation.
type HaltInfo struct {
	Reason string
	Tick   uint64
	Task   TaskID
}

// HaltError is the panic value raised after the halt handler returns.
type HaltError struct {
	Info HaltInfo
}

func (e *HaltError) Error() string {
	if e.Info.Task == NoTask {
		return fmt.Sprintf("kernel halt at tick %d: %s", e.Info.Tick, e.Info.Reason)
	}
	return fmt.Sprintf("kernel halt at tick %d (task %d): %s", e.Info.Tick, e.Info.Task, e.Info.Reason)
}

var haltHandler atomic.Value // func(HaltInfo)

// SetHaltHandler installs a process-wide handler for fatal halts.
//
// The handler must not panic. Passing nil removes it.
func SetHaltHandler(fn func(HaltInfo)) {
	haltHandler.Store(fn)
}

// halt reports a fatal precondition violation. It never returns: there is
// no recovery path, so the faulting call stack is abandoned with a panic.
func (s *Scheduler) halt(reason string) {
	info := HaltInfo{Reason: reason, Tick: s.tick, Task: s.current}
	s.trace(Event{Kind: EventHalt, Tick: s.tick, Task: s.current})
	if v := haltHandler.Load(); v != nil {
		if fn, ok := v.(func(HaltInfo)); ok && fn != nil {
			fn(info)
		}
	}
	panic(&HaltError{Info: info})
}
