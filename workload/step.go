package workload

import (
	"fmt"
	"strconv"

	"github.com/google/shlex"
)

// Op is a task program instruction.
type Op uint8

const (
	OpSpin Op = iota + 1
	OpSleep
	OpSleepUntil
	OpYield
	OpLog
	OpTake
	OpGive
	OpSuspend
	OpResume
	OpSend
	OpRecv
)

var opNames = map[string]Op{
	"spin":        OpSpin,
	"sleep":       OpSleep,
	"sleep_until": OpSleepUntil,
	"yield":       OpYield,
	"log":         OpLog,
	"take":        OpTake,
	"give":        OpGive,
	"suspend":     OpSuspend,
	"resume":      OpResume,
	"send":        OpSend,
	"recv":        OpRecv,
}

func (o Op) String() string {
	for name, op := range opNames {
		if op == o {
			return name
		}
	}
	return "unknown"
}

// Step is one parsed program line. N is the tick count of spin, sleep and
// sleep_until; Arg is the message, semaphore, mailbox or task name of the
// others. Text is the payload of send.
type Step struct {
	Op   Op
	N    uint64
	Arg  string
	Text string
}

// ParseStep parses a line such as `sleep 20` or `log "hello world"`.
func ParseStep(line string) (Step, error) {
	fields, err := shlex.Split(line)
	if err != nil {
		return Step{}, fmt.Errorf("tokenize %q: %w", line, err)
	}
	if len(fields) == 0 {
		return Step{}, fmt.Errorf("empty step")
	}
	op, ok := opNames[fields[0]]
	if !ok {
		return Step{}, fmt.Errorf("unknown step %q", fields[0])
	}
	args := fields[1:]

	st := Step{Op: op}
	switch op {
	case OpYield:
		if len(args) != 0 {
			return Step{}, fmt.Errorf("%s takes no arguments", op)
		}
	case OpSpin, OpSleep, OpSleepUntil:
		if len(args) != 1 {
			return Step{}, fmt.Errorf("%s takes a tick count", op)
		}
		n, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return Step{}, fmt.Errorf("%s: bad tick count %q", op, args[0])
		}
		if n == 0 && op != OpSleepUntil {
			return Step{}, fmt.Errorf("%s: tick count must be positive", op)
		}
		st.N = n
	case OpSend:
		if len(args) != 2 {
			return Step{}, fmt.Errorf("send takes a mailbox and a message")
		}
		st.Arg, st.Text = args[0], args[1]
	default:
		if len(args) != 1 {
			return Step{}, fmt.Errorf("%s takes one argument", op)
		}
		st.Arg = args[0]
	}
	return st, nil
}

// consumesTime reports whether the step can let simulated time pass.
func (s Step) consumesTime() bool {
	switch s.Op {
	case OpSpin, OpSleep, OpTake, OpSend, OpRecv:
		return true
	}
	return false
}
