package kernel

// TaskID addresses a record in the scheduler's task pool.
type TaskID uint8

// NoTask is the TaskID used for "no task".
const NoTask TaskID = 0xFF

// State is the scheduling state of a task.
type State uint8

const (
	StateReady State = iota
	StateRunning
	StateBlocked
	StateSleeping
	StateSuspended
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateBlocked:
		return "blocked"
	case StateSleeping:
		return "sleeping"
	case StateSuspended:
		return "suspended"
	default:
		return "unknown"
	}
}

// TaskFunc is a task entry point. Tasks are not expected to return.
type TaskFunc func(arg any)

// StackRegion describes the stack memory owned by a task.
type StackRegion struct {
	Base uintptr
	Size uint32
}

// Context is a port-owned execution context handle.
//
// The scheduler never inspects it; it only hands it back to the Port.
type Context any

// taskRecord is the task control record.
//
// Ready queue and sleep set membership are intrusive: next/prev link
// records of the same priority, heapIdx is the position in the sleep heap.
type taskRecord struct {
	used bool
	name string

	state         State
	priority      uint8
	timesliceLeft uint32
	wakeTick      uint64

	ctx   Context
	stack StackRegion
	entry TaskFunc
	arg   any

	next, prev TaskID
	queued     bool

	heapIdx  int
	sleepSeq uint64
}

// TaskInfo is a read-only snapshot of a task record.
type TaskInfo struct {
	ID            TaskID
	Name          string
	State         State
	Priority      uint8
	TimesliceLeft uint32
	WakeTick      uint64
	Stack         StackRegion
}
