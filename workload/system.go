package workload

import (
	"fmt"
	"log/slog"

	"rtk/hal"
	"rtk/internal/logging"
	"rtk/kernel"
	"rtk/ksync"
)

// CPU burns simulated processor time one tick at a time. Every kernel.Port
// satisfies it.
type CPU interface {
	WaitForInterrupt()
}

// Labeler receives the name and priority of every created task.
type Labeler interface {
	Label(id kernel.TaskID, name string, prio uint8)
}

// Env is what a workload runs against.
type Env struct {
	Sched   *kernel.Scheduler
	CPU     CPU
	Console hal.Logger // optional; target of log steps
	Labeler Labeler    // optional
	Logger  *slog.Logger
}

// System is a booted workload: its tasks, semaphores and mailboxes.
type System struct {
	env   Env
	arena *StackArena
	tasks map[string]kernel.TaskID
	names [kernel.MaxTasks]string
	sems  map[string]*ksync.Semaphore
	boxes map[string]*ksync.Mailbox
}

type taskRun struct {
	sys   *System
	name  string
	steps []Step
}

// Boot creates the semaphores, mailboxes and tasks of a validated spec. The scheduler
// must be initialized; it is not started.
func Boot(spec *Spec, env Env) (*System, error) {
	if env.Sched == nil || env.CPU == nil {
		return nil, fmt.Errorf("workload: scheduler and cpu are required")
	}
	if env.Logger == nil {
		env.Logger = logging.Discard()
	}
	env.Logger = env.Logger.With("component", "workload")

	sys := &System{
		env:   env,
		arena: NewStackArena(DefaultArenaBase, spec.ArenaBytes),
		tasks: make(map[string]kernel.TaskID, len(spec.Tasks)),
		sems:  make(map[string]*ksync.Semaphore, len(spec.Semaphores)),
		boxes: make(map[string]*ksync.Mailbox, len(spec.Mailboxes)),
	}
	for _, sem := range spec.Semaphores {
		sys.sems[sem.Name] = ksync.NewSemaphore(env.Sched, sem.Name, sem.Initial)
	}
	for _, mb := range spec.Mailboxes {
		sys.boxes[mb.Name] = ksync.NewMailbox(env.Sched, mb.Name, mb.Slots)
	}

	for i := range spec.Tasks {
		t := &spec.Tasks[i]
		if len(t.steps) != len(t.Program) {
			return nil, fmt.Errorf("workload: task %q: spec not validated", t.Name)
		}
		stack, err := sys.arena.Alloc(t.Stack)
		if err != nil {
			return nil, fmt.Errorf("task %q: %w: %w", t.Name, kernel.ErrStackUnavailable, err)
		}
		tr := &taskRun{sys: sys, name: t.Name, steps: t.steps}
		id, err := env.Sched.CreateTask(t.Name, runTask, tr, stack, uint8(t.Priority))
		if err != nil {
			return nil, fmt.Errorf("task %q: %w", t.Name, err)
		}
		sys.tasks[t.Name] = id
		sys.names[id] = t.Name
		if env.Labeler != nil {
			env.Labeler.Label(id, t.Name, uint8(t.Priority))
		}
		env.Logger.Debug("task created", "task", t.Name, "id", id, "priority", t.Priority,
			"stack_base", fmt.Sprintf("%#x", stack.Base), "stack_size", stack.Size)
	}
	env.Logger.Info("workload booted", "tasks", len(sys.tasks), "semaphores", len(sys.sems),
		"mailboxes", len(sys.boxes), "arena_free", sys.arena.Free())
	return sys, nil
}

// Task returns the TaskID of a named task.
func (sys *System) Task(name string) (kernel.TaskID, bool) {
	id, ok := sys.tasks[name]
	return id, ok
}

// Semaphore returns a named semaphore, or nil.
func (sys *System) Semaphore(name string) *ksync.Semaphore {
	return sys.sems[name]
}

// Mailbox returns a named mailbox, or nil.
func (sys *System) Mailbox(name string) *ksync.Mailbox {
	return sys.boxes[name]
}

func runTask(arg any) {
	tr := arg.(*taskRun)
	for {
		for _, st := range tr.steps {
			tr.sys.exec(tr, st)
		}
	}
}

func (sys *System) exec(tr *taskRun, st Step) {
	s := sys.env.Sched
	switch st.Op {
	case OpSpin:
		for i := uint64(0); i < st.N; i++ {
			sys.env.CPU.WaitForInterrupt()
		}
	case OpSleep:
		s.Sleep(st.N)
	case OpSleepUntil:
		s.SleepUntil(st.N)
	case OpYield:
		s.YieldCurrent()
	case OpLog:
		sys.console(tr, st.Arg)
	case OpTake:
		sys.sems[st.Arg].Take()
	case OpGive:
		sys.sems[st.Arg].Give()
	case OpSuspend:
		s.Suspend(sys.tasks[st.Arg])
	case OpResume:
		s.Resume(sys.tasks[st.Arg])
	case OpSend:
		sys.boxes[st.Arg].Send(ksync.NewMessage(s.Current(), uint8(OpSend), []byte(st.Text)))
	case OpRecv:
		m := sys.boxes[st.Arg].Recv()
		sys.console(tr, fmt.Sprintf("%s: %s (from %s)", st.Arg, m.Payload(), sys.names[m.From]))
	}
}

func (sys *System) console(tr *taskRun, line string) {
	if sys.env.Console != nil {
		sys.env.Console.WriteLineString(fmt.Sprintf("%8d %-10s %s", sys.env.Sched.Now(), tr.name, line))
	}
}
