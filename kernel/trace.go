package kernel

// EventKind identifies a scheduler trace event.
type EventKind uint8

const (
	EventTick EventKind = iota + 1
	EventSwitch
	EventState
	EventWake
	EventCreate
	EventHalt
)

func (k EventKind) String() string {
	switch k {
	case EventTick:
		return "tick"
	case EventSwitch:
		return "switch"
	case EventState:
		return "state"
	case EventWake:
		return "wake"
	case EventCreate:
		return "create"
	case EventHalt:
		return "halt"
	default:
		return "unknown"
	}
}

// Event is emitted to the Tracer at scheduling points.
//
// For EventSwitch, From is the previous task (NoTask on the first
// transfer) and Task the new one. EventState carries OldState and NewState.
// For EventTick, Task is the task that was running when the tick fired.
type Event struct {
	Kind EventKind
	Tick uint64
	Task TaskID
	From TaskID

	OldState State
	NewState State
}

// Tracer observes scheduler events. It is called with interrupts
// suppressed and must not call back into the Scheduler.
type Tracer interface {
	Trace(Event)
}

// TracerFunc adapts a function to Tracer.
type TracerFunc func(Event)

func (f TracerFunc) Trace(e Event) { f(e) }

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithTracer installs a Tracer.
func WithTracer(t Tracer) Option {
	return func(s *Scheduler) { s.tracer = t }
}

func (s *Scheduler) trace(e Event) {
	if s.tracer != nil {
		s.tracer.Trace(e)
	}
}
