package kernel

const (
	// MaxPriorities is the number of priority levels. 0 is the highest.
	//
	// It is bounded by the width of the ready bitmap.
	MaxPriorities = 32

	// TimeSlice is the number of ticks a task runs before rotating to a
	// ready peer at the same priority.
	TimeSlice = 10

	// MaxTasks is the capacity of the task pool.
	MaxTasks = 32
)

// IdlePriority is the lowest priority level.
const IdlePriority = MaxPriorities - 1
