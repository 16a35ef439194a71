package sim

import (
	"fmt"
	"runtime"

	"rtk/kernel"
)

// taskContext is the simulated register file of one task: its goroutine's
// baton channel plus the interrupt state saved across a switch.
type taskContext struct {
	name  string
	entry kernel.TaskFunc
	arg   any
	stack kernel.StackRegion

	run chan struct{}

	masked bool
	inISR  bool
}

// NewContext starts a parked goroutine for the task. It runs entry(arg)
// the first time the task is switched to.
func (p *Port) NewContext(name string, entry kernel.TaskFunc, arg any, stack kernel.StackRegion) (kernel.Context, error) {
	if stack.Size < MinStackSize {
		return nil, fmt.Errorf("sim: stack of %d bytes is below %d", stack.Size, MinStackSize)
	}
	select {
	case <-p.ctx.Done():
		return nil, fmt.Errorf("sim: port stopped: %w", p.ctx.Err())
	default:
	}

	tc := &taskContext{
		name:  name,
		entry: entry,
		arg:   arg,
		stack: stack,
		run:   make(chan struct{}),
	}
	p.group.Go(func() error {
		select {
		case <-tc.run:
		case <-p.ctx.Done():
			return nil
		}
		// A fresh context starts with interrupts enabled, as if returning
		// from the exception that switched to it.
		p.masked = false
		p.inISR = false
		return p.runTask(tc)
	})
	return tc, nil
}

func (p *Port) runTask(tc *taskContext) (err error) {
	p.log.Debug("task started", "task", tc.name, "stack", tc.stack.Size)
	defer func() {
		if r := recover(); r != nil {
			if he, ok := r.(*kernel.HaltError); ok {
				err = he
			} else {
				err = fmt.Errorf("sim: task %s panicked: %v", tc.name, r)
			}
			p.log.Error("task failed", "task", tc.name, "err", err)
		}
	}()
	tc.entry(tc.arg)
	return fmt.Errorf("%w: %s", ErrTaskReturned, tc.name)
}

// Switch saves the CPU state into prev, hands the CPU to target and parks
// until prev is switched to again.
func (p *Port) Switch(prev, target kernel.Context) {
	from, ok := prev.(*taskContext)
	if !ok || from == nil {
		panic("sim: switch without a running context")
	}
	to := target.(*taskContext)

	from.masked, from.inISR = p.masked, p.inISR
	p.switches++

	p.exitIfStopped()
	select {
	case to.run <- struct{}{}:
	case <-p.ctx.Done():
		runtime.Goexit()
	}
	select {
	case <-from.run:
	case <-p.ctx.Done():
		runtime.Goexit()
	}

	p.masked, p.inISR = from.masked, from.inISR
}
