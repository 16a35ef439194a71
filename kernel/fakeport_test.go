package kernel

import (
	"errors"
	"testing"
)

type fakeCtx struct {
	name string
}

type switchCall struct {
	prev, next string
}

// fakePort records transfers and returns from Switch immediately, as if the
// target ran and later switched straight back.
type fakePort struct {
	hz       uint32
	isr      func()
	first    *fakeCtx
	switches []switchCall
	masked   bool
	idles    int
}

func (p *fakePort) ConfigureTimer(hz uint32, isr func()) {
	p.hz = hz
	p.isr = isr
}

func (p *fakePort) NewContext(name string, entry TaskFunc, arg any, stack StackRegion) (Context, error) {
	if stack.Size == 0 {
		return nil, errors.New("zero-size stack")
	}
	return &fakeCtx{name: name}, nil
}

func (p *fakePort) FirstTransfer(target Context) {
	p.first = target.(*fakeCtx)
}

func (p *fakePort) Switch(prev, target Context) {
	var call switchCall
	if prev != nil {
		call.prev = prev.(*fakeCtx).name
	}
	call.next = target.(*fakeCtx).name
	p.switches = append(p.switches, call)
}

func (p *fakePort) SuppressInterrupts() IRQState {
	old := p.masked
	p.masked = true
	if old {
		return 1
	}
	return 0
}

func (p *fakePort) AllowInterrupts(st IRQState) {
	p.masked = st != 0
}

// WaitForInterrupt delivers one timer tick.
func (p *fakePort) WaitForInterrupt() {
	p.idles++
	if p.idles > 100000 {
		panic("fakePort: idle forever")
	}
	p.isr()
}

// tick delivers n timer interrupts.
func (p *fakePort) tick(n int) {
	for i := 0; i < n; i++ {
		p.isr()
	}
}

var testStack = StackRegion{Base: 0x2000_0000, Size: 512}

func nopTask(any) {}

func newTestScheduler(t *testing.T) (*Scheduler, *fakePort) {
	t.Helper()
	p := &fakePort{}
	s := New(p)
	s.Init(1000)
	if p.hz != 1000 || p.isr == nil {
		t.Fatalf("Init() did not configure the timer: hz=%d", p.hz)
	}
	return s, p
}

func mustCreate(t *testing.T, s *Scheduler, name string, prio uint8) TaskID {
	t.Helper()
	id, err := s.CreateTask(name, nopTask, nil, testStack, prio)
	if err != nil {
		t.Fatalf("CreateTask(%q, %d) error = %v", name, prio, err)
	}
	return id
}

func expectHalt(t *testing.T, fn func()) HaltInfo {
	t.Helper()
	var info HaltInfo
	func() {
		defer func() {
			r := recover()
			he, ok := r.(*HaltError)
			if !ok {
				t.Fatalf("recover() = %v, want *HaltError", r)
			}
			info = he.Info
		}()
		fn()
	}()
	return info
}

// checkInvariants verifies queue membership, bitmap and Running bookkeeping.
func checkInvariants(t *testing.T, s *Scheduler) {
	t.Helper()
	running := 0
	for i := range s.pool {
		r := &s.pool[i]
		if !r.used {
			continue
		}
		id := TaskID(i)
		inSleep := s.sleep.contains(id)
		if r.queued && inSleep {
			t.Fatalf("task %d is in a ready queue and the sleep set", id)
		}
		if (r.state == StateReady) != r.queued {
			t.Fatalf("task %d state=%s queued=%v", id, r.state, r.queued)
		}
		if (r.state == StateSleeping) != inSleep {
			t.Fatalf("task %d state=%s sleeping=%v", id, r.state, inSleep)
		}
		if r.priority >= MaxPriorities {
			t.Fatalf("task %d priority %d out of range", id, r.priority)
		}
		if r.state == StateRunning {
			running++
			if id != s.current {
				t.Fatalf("task %d Running but current = %d", id, s.current)
			}
		}
	}
	if running > 1 {
		t.Fatalf("%d tasks Running, want at most 1", running)
	}
	for p := 0; p < MaxPriorities; p++ {
		bit := s.ready.bitmap&(1<<p) != 0
		if bit != (s.ready.head[p] != NoTask) {
			t.Fatalf("bitmap bit %d = %v, queue empty = %v", p, bit, s.ready.head[p] == NoTask)
		}
	}
}
