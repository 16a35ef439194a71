package trace

import (
	"gonum.org/v1/gonum/stat"

	"rtk/kernel"
)

// TaskStats summarizes the CPU time of one task over a Timeline.
type TaskStats struct {
	TaskRow

	Ticks int
	Share float64 // fraction of recorded ticks

	// Runs are maximal stretches of consecutive ticks on the CPU.
	Runs    int
	MeanRun float64
	StdRun  float64
	MaxRun  int
}

// Stats returns per-task statistics in Timeline.Tasks order.
func (tl Timeline) Stats() []TaskStats {
	runs := runLengths(tl.Ran)
	out := make([]TaskStats, 0, len(tl.Tasks))
	for _, row := range tl.Tasks {
		out = append(out, summarize(row, runs[row.ID], len(tl.Ran)))
	}
	return out
}

// Idle summarizes the ticks during which no task ran.
func (tl Timeline) Idle() TaskStats {
	runs := runLengths(tl.Ran)
	return summarize(TaskRow{ID: kernel.NoTask, Name: "idle"}, runs[kernel.NoTask], len(tl.Ran))
}

func summarize(row TaskRow, runs []float64, total int) TaskStats {
	st := TaskStats{TaskRow: row, Runs: len(runs)}
	for _, n := range runs {
		st.Ticks += int(n)
		if int(n) > st.MaxRun {
			st.MaxRun = int(n)
		}
	}
	if total > 0 {
		st.Share = float64(st.Ticks) / float64(total)
	}
	switch len(runs) {
	case 0:
	case 1:
		st.MeanRun = runs[0]
	default:
		st.MeanRun, st.StdRun = stat.MeanStdDev(runs, nil)
	}
	return st
}

func runLengths(ran []kernel.TaskID) map[kernel.TaskID][]float64 {
	out := make(map[kernel.TaskID][]float64)
	for i := 0; i < len(ran); {
		j := i + 1
		for j < len(ran) && ran[j] == ran[i] {
			j++
		}
		out[ran[i]] = append(out[ran[i]], float64(j-i))
		i = j
	}
	return out
}
