package trace

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"rtk/kernel"
)

// Report writes a per-task summary of tl followed by a strip chart of
// cols columns.
func Report(w io.Writer, tl Timeline, cols int) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	if len(tl.Ran) == 0 {
		fmt.Fprintln(tw, "no ticks recorded")
	} else {
		fmt.Fprintf(tw, "ticks %d-%d, %d switches, %d wakes\n", tl.First, tl.Last(), tl.Switches, tl.Wakes)
	}
	if tl.Halt != nil {
		fmt.Fprintf(tw, "halted at tick %d (task %d)\n", tl.Halt.Tick, tl.Halt.Task)
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "TASK\tPRIO\tSTATE\tTICKS\tSHARE\tRUNS\tMEAN\tSTDDEV\tMAX")
	rows := append(tl.Stats(), tl.Idle())
	for _, st := range rows {
		prio, state := fmt.Sprint(st.Priority), st.State.String()
		if st.ID == kernel.NoTask {
			prio, state = "-", "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%.1f%%\t%d\t%.1f\t%.1f\t%d\n",
			st.Name, prio, state, st.Ticks, 100*st.Share, st.Runs, st.MeanRun, st.StdRun, st.MaxRun)
	}

	if cols > 0 && len(tl.Ran) > 0 {
		per := (len(tl.Ran) + cols - 1) / cols
		fmt.Fprintf(tw, "\ntimeline, %d tick(s) per column\n", per)
		for _, row := range tl.Tasks {
			fmt.Fprintf(tw, "%s\t|%s|\n", row.Name, Strip(tl, row.ID, cols))
		}
	}
	return tw.Flush()
}

// Strip renders the ticks of one task as a row of at most cols characters:
// '#' where the task ran during any tick of the column, '.' elsewhere.
func Strip(tl Timeline, id kernel.TaskID, cols int) string {
	if cols <= 0 || len(tl.Ran) == 0 {
		return ""
	}
	per := (len(tl.Ran) + cols - 1) / cols
	var b strings.Builder
	for i := 0; i < len(tl.Ran); i += per {
		end := min(i+per, len(tl.Ran))
		c := byte('.')
		for _, ran := range tl.Ran[i:end] {
			if ran == id {
				c = '#'
				break
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}
