package sim

import (
	"errors"
	"sync"
	"testing"
	"time"

	"rtk/kernel"
)

type tickLog struct {
	mu  sync.Mutex
	ran []kernel.TaskID // ran[i] is the task running at tick i+1
}

func (l *tickLog) Trace(e kernel.Event) {
	if e.Kind != kernel.EventTick {
		return
	}
	l.mu.Lock()
	l.ran = append(l.ran, e.Task)
	l.mu.Unlock()
}

func (l *tickLog) snapshot() []kernel.TaskID {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]kernel.TaskID(nil), l.ran...)
}

var stack = kernel.StackRegion{Base: 0x2000_0000, Size: 1024}

// startAndWait runs s.Start on its own goroutine and waits for it to return.
func startAndWait(t *testing.T, s *kernel.Scheduler) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Start()
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("simulation did not stop")
	}
}

func spinner(p *Port) kernel.TaskFunc {
	return func(any) {
		for {
			p.WaitForInterrupt()
		}
	}
}

func TestRoundRobinOnSimulatedCPU(t *testing.T) {
	p := New(WithManualClock(), WithTickLimit(45))
	log := &tickLog{}
	s := kernel.New(p, kernel.WithTracer(log))
	s.Init(1000)

	a, err := s.CreateTask("A", spinner(p), nil, stack, 0)
	if err != nil {
		t.Fatalf("CreateTask(A) error = %v", err)
	}
	b, err := s.CreateTask("B", spinner(p), nil, stack, 0)
	if err != nil {
		t.Fatalf("CreateTask(B) error = %v", err)
	}
	c, err := s.CreateTask("C", spinner(p), nil, stack, 5)
	if err != nil {
		t.Fatalf("CreateTask(C) error = %v", err)
	}

	p.Raise(45)
	startAndWait(t, s)

	if err := p.Err(); err != nil {
		t.Fatalf("Err() = %v, want nil", err)
	}
	if p.Ticks() != 45 {
		t.Fatalf("Ticks() = %d, want 45", p.Ticks())
	}
	ran := log.snapshot()
	if len(ran) != 45 {
		t.Fatalf("traced ticks = %d, want 45", len(ran))
	}
	for i, id := range ran {
		want := a
		if (i/kernel.TimeSlice)%2 == 1 {
			want = b
		}
		if id == c {
			t.Fatalf("tick %d: low-priority task ran", i+1)
		}
		if id != want {
			t.Fatalf("tick %d ran %d, want %d", i+1, id, want)
		}
	}
	if p.Switches() != 4 {
		t.Fatalf("Switches() = %d, want 4", p.Switches())
	}
}

func TestSleepingTaskWakesOnTick(t *testing.T) {
	p := New(WithManualClock(), WithTickLimit(30))
	s := kernel.New(p)
	s.Init(1000)

	var mu sync.Mutex
	var woke []uint64
	sleeper := func(any) {
		for {
			s.Sleep(7)
			now := s.Now()
			mu.Lock()
			woke = append(woke, now)
			mu.Unlock()
		}
	}
	if _, err := s.CreateTask("sleeper", sleeper, nil, stack, 1); err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	if _, err := s.CreateTask("bg", spinner(p), nil, stack, 9); err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}

	p.Raise(30)
	startAndWait(t, s)

	want := []uint64{7, 14, 21, 28}
	mu.Lock()
	defer mu.Unlock()
	if len(woke) != len(want) {
		t.Fatalf("woke = %v, want %v", woke, want)
	}
	for i := range want {
		if woke[i] != want[i] {
			t.Fatalf("woke = %v, want %v", woke, want)
		}
	}
}

func TestSoleTaskSleepsThroughIdle(t *testing.T) {
	p := New(WithManualClock(), WithTickLimit(12))
	s := kernel.New(p)
	s.Init(1000)

	var mu sync.Mutex
	var rounds int
	if _, err := s.CreateTask("only", func(any) {
		for {
			s.Sleep(5)
			mu.Lock()
			rounds++
			mu.Unlock()
		}
	}, nil, stack, 0); err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}

	p.Raise(12)
	startAndWait(t, s)

	mu.Lock()
	defer mu.Unlock()
	if rounds != 2 {
		t.Fatalf("rounds = %d, want 2", rounds)
	}
	if p.Switches() != 0 {
		t.Fatalf("Switches() = %d, want 0", p.Switches())
	}
}

func TestReturningTaskStopsSimulation(t *testing.T) {
	p := New(WithManualClock())
	s := kernel.New(p)
	s.Init(1000)
	if _, err := s.CreateTask("oneshot", func(any) {}, nil, stack, 0); err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}

	startAndWait(t, s)

	if err := p.Err(); !errors.Is(err, ErrTaskReturned) {
		t.Fatalf("Err() = %v, want ErrTaskReturned", err)
	}
}

func TestHaltInTaskIsReported(t *testing.T) {
	p := New(WithManualClock())
	s := kernel.New(p)
	s.Init(1000)
	if _, err := s.CreateTask("bad", func(any) { s.PreemptEnable() }, nil, stack, 0); err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}

	startAndWait(t, s)

	var he *kernel.HaltError
	if err := p.Err(); !errors.As(err, &he) {
		t.Fatalf("Err() = %v, want *kernel.HaltError", err)
	}
}

func TestNewContextRejectsSmallStack(t *testing.T) {
	p := New(WithManualClock())
	s := kernel.New(p)
	s.Init(1000)

	_, err := s.CreateTask("tiny", func(any) {}, nil, kernel.StackRegion{Base: 0x100, Size: MinStackSize - 1}, 0)
	if !errors.Is(err, kernel.ErrStackUnavailable) {
		t.Fatalf("CreateTask() error = %v, want ErrStackUnavailable", err)
	}
	p.Stop()
}

func TestFreeRunningClock(t *testing.T) {
	p := New(WithTickLimit(20))
	s := kernel.New(p)
	s.Init(2000)
	if _, err := s.CreateTask("spin", spinner(p), nil, stack, 0); err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}

	startAndWait(t, s)

	if p.Ticks() != 20 {
		t.Fatalf("Ticks() = %d, want 20", p.Ticks())
	}
}
