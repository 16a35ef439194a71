// Package trace records a scheduler timeline from kernel trace events and
// reports it as text or as a framebuffer chart.
package trace

import (
	"fmt"
	"sort"
	"sync"

	"rtk/kernel"
)

// DefaultLimit is the number of ticks a Recorder keeps by default.
const DefaultLimit = 4096

// Recorder implements kernel.Tracer. The kernel calls Trace on the
// simulated CPU while renderers take snapshots from other goroutines.
type Recorder struct {
	mu sync.Mutex

	limit int
	first uint64
	ran   []kernel.TaskID

	tasks    map[kernel.TaskID]*TaskRow
	switches uint64
	wakes    uint64
	halt     *kernel.Event
}

// NewRecorder keeps the most recent limit ticks (DefaultLimit if limit <= 0).
func NewRecorder(limit int) *Recorder {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Recorder{
		limit: limit,
		tasks: make(map[kernel.TaskID]*TaskRow),
	}
}

var _ kernel.Tracer = (*Recorder)(nil)

// Label attaches a display name and priority to a task.
func (r *Recorder) Label(id kernel.TaskID, name string, prio uint8) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row := r.row(id)
	row.Name = name
	row.Priority = prio
}

// Trace records one kernel event.
func (r *Recorder) Trace(e kernel.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch e.Kind {
	case kernel.EventTick:
		if len(r.ran) == 0 {
			r.first = e.Tick
		}
		r.ran = append(r.ran, e.Task)
		if len(r.ran) > r.limit {
			drop := len(r.ran) - r.limit
			r.ran = append(r.ran[:0], r.ran[drop:]...)
			r.first += uint64(drop)
		}
	case kernel.EventSwitch:
		if e.From != kernel.NoTask {
			r.switches++
		}
		r.row(e.Task).State = kernel.StateRunning
	case kernel.EventState:
		r.row(e.Task).State = e.NewState
	case kernel.EventWake:
		r.wakes++
	case kernel.EventCreate:
		r.row(e.Task).State = kernel.StateReady
	case kernel.EventHalt:
		ev := e
		r.halt = &ev
	}
}

func (r *Recorder) row(id kernel.TaskID) *TaskRow {
	row, ok := r.tasks[id]
	if !ok {
		row = &TaskRow{ID: id, Name: fmt.Sprintf("task%d", id)}
		r.tasks[id] = row
	}
	return row
}

// TaskRow describes one task of a Timeline.
type TaskRow struct {
	ID       kernel.TaskID
	Name     string
	Priority uint8
	State    kernel.State
}

// Timeline is a consistent copy of the recorded state.
type Timeline struct {
	// First is the tick number of Ran[0]. Ran[i] is the task that was
	// running during tick First+i, or kernel.NoTask when the CPU idled.
	First    uint64
	Ran      []kernel.TaskID
	Tasks    []TaskRow
	Switches uint64
	Wakes    uint64
	Halt     *kernel.Event
}

// Last returns the most recent recorded tick, or 0 if none.
func (tl Timeline) Last() uint64 {
	if len(tl.Ran) == 0 {
		return 0
	}
	return tl.First + uint64(len(tl.Ran)) - 1
}

// Snapshot copies the recorded timeline. Tasks are ordered by priority,
// then TaskID.
func (r *Recorder) Snapshot() Timeline {
	r.mu.Lock()
	defer r.mu.Unlock()

	tl := Timeline{
		First:    r.first,
		Ran:      append([]kernel.TaskID(nil), r.ran...),
		Switches: r.switches,
		Wakes:    r.wakes,
	}
	if r.halt != nil {
		ev := *r.halt
		tl.Halt = &ev
	}
	for _, row := range r.tasks {
		tl.Tasks = append(tl.Tasks, *row)
	}
	sort.Slice(tl.Tasks, func(i, j int) bool {
		a, b := tl.Tasks[i], tl.Tasks[j]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		return a.ID < b.ID
	})
	return tl
}
