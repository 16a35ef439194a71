// Package workload loads YAML task sets and runs them as kernel tasks.
package workload

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"rtk/kernel"
)

const (
	DefaultTickHz     = 1000
	DefaultStackBytes = 1024
	DefaultArenaBytes = 64 * 1024
	DefaultArenaBase  = 0x2000_0000

	DefaultMailboxSlots = 4
)

// Spec is a parsed workload file.
type Spec struct {
	TickHz     uint32        `yaml:"tick_hz"`
	ArenaBytes uint32        `yaml:"arena_bytes"`
	Semaphores []SemSpec     `yaml:"semaphores"`
	Mailboxes  []MailboxSpec `yaml:"mailboxes"`
	Tasks      []TaskSpec    `yaml:"tasks"`
}

// SemSpec declares a counting semaphore.
type SemSpec struct {
	Name    string `yaml:"name"`
	Initial uint32 `yaml:"initial"`
}

// MailboxSpec declares a bounded message queue. Slots defaults to
// DefaultMailboxSlots.
type MailboxSpec struct {
	Name  string `yaml:"name"`
	Slots int    `yaml:"slots"`
}

// TaskSpec declares a task and its program. Programs loop forever.
type TaskSpec struct {
	Name     string   `yaml:"name"`
	Priority int      `yaml:"priority"`
	Stack    uint32   `yaml:"stack"`
	Program  []string `yaml:"program"`

	steps []Step
}

// Steps returns the parsed program. It is valid after Validate.
func (t *TaskSpec) Steps() []Step { return t.steps }

// LoadFile reads and validates a workload file.
func LoadFile(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading workload: %w", err)
	}
	spec, err := Load(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return spec, nil
}

// Load decodes and validates a workload. Unknown keys are errors.
func Load(r io.Reader) (*Spec, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var spec Spec
	if err := dec.Decode(&spec); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty workload")
		}
		return nil, fmt.Errorf("parsing workload: %w", err)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}

// Validate fills defaults, parses every program and checks all names.
func (s *Spec) Validate() error {
	if s.TickHz == 0 {
		s.TickHz = DefaultTickHz
	}
	if s.ArenaBytes == 0 {
		s.ArenaBytes = DefaultArenaBytes
	}
	if len(s.Tasks) == 0 {
		return fmt.Errorf("no tasks")
	}
	if len(s.Tasks) > kernel.MaxTasks {
		return fmt.Errorf("%d tasks, at most %d supported", len(s.Tasks), kernel.MaxTasks)
	}

	sems := make(map[string]bool, len(s.Semaphores))
	for _, sem := range s.Semaphores {
		if sem.Name == "" {
			return fmt.Errorf("semaphore without a name")
		}
		if sems[sem.Name] {
			return fmt.Errorf("duplicate semaphore %q", sem.Name)
		}
		sems[sem.Name] = true
	}

	boxes := make(map[string]bool, len(s.Mailboxes))
	for i := range s.Mailboxes {
		mb := &s.Mailboxes[i]
		if mb.Name == "" {
			return fmt.Errorf("mailbox without a name")
		}
		if boxes[mb.Name] {
			return fmt.Errorf("duplicate mailbox %q", mb.Name)
		}
		boxes[mb.Name] = true
		if mb.Slots < 0 {
			return fmt.Errorf("mailbox %q: negative slots", mb.Name)
		}
		if mb.Slots == 0 {
			mb.Slots = DefaultMailboxSlots
		}
	}

	tasks := make(map[string]bool, len(s.Tasks))
	for i := range s.Tasks {
		t := &s.Tasks[i]
		if t.Name == "" {
			return fmt.Errorf("task %d has no name", i)
		}
		if tasks[t.Name] {
			return fmt.Errorf("duplicate task %q", t.Name)
		}
		tasks[t.Name] = true
		if t.Priority < 0 || t.Priority >= kernel.MaxPriorities {
			return fmt.Errorf("task %q: priority %d out of range [0, %d]", t.Name, t.Priority, kernel.MaxPriorities-1)
		}
		if t.Stack == 0 {
			t.Stack = DefaultStackBytes
		}
	}

	for i := range s.Tasks {
		t := &s.Tasks[i]
		if len(t.Program) == 0 {
			return fmt.Errorf("task %q: empty program", t.Name)
		}
		t.steps = t.steps[:0]
		consumes := false
		for j, line := range t.Program {
			st, err := ParseStep(line)
			if err != nil {
				return fmt.Errorf("task %q step %d: %w", t.Name, j+1, err)
			}
			switch st.Op {
			case OpTake, OpGive:
				if !sems[st.Arg] {
					return fmt.Errorf("task %q step %d: unknown semaphore %q", t.Name, j+1, st.Arg)
				}
			case OpSend, OpRecv:
				if !boxes[st.Arg] {
					return fmt.Errorf("task %q step %d: unknown mailbox %q", t.Name, j+1, st.Arg)
				}
			case OpSuspend, OpResume:
				if !tasks[st.Arg] {
					return fmt.Errorf("task %q step %d: unknown task %q", t.Name, j+1, st.Arg)
				}
			}
			consumes = consumes || st.consumesTime()
			t.steps = append(t.steps, st)
		}
		if !consumes {
			return fmt.Errorf("task %q: program never lets time pass (needs spin, sleep, take, send or recv)", t.Name)
		}
	}
	return nil
}
