package kernel

import (
	"math/rand"
	"testing"
)

func newTestPool() *[MaxTasks]taskRecord {
	var pool [MaxTasks]taskRecord
	for i := range pool {
		pool[i] = taskRecord{next: NoTask, prev: NoTask, heapIdx: -1}
	}
	return &pool
}

func TestReadySetEmpty(t *testing.T) {
	var r readySet
	r.reset(newTestPool())

	if id, ok := r.highest(); ok {
		t.Fatalf("highest() = %d, true on empty set, want false", id)
	}
	if r.bitmap != 0 {
		t.Fatalf("bitmap = %#x, want 0", r.bitmap)
	}
	if id := r.removeHead(3); id != NoTask {
		t.Fatalf("removeHead(3) = %d, want NoTask", id)
	}
}

func TestReadySetHighestPriorityFIFO(t *testing.T) {
	pool := newTestPool()
	var r readySet
	r.reset(pool)

	prios := []uint8{5, 0, 7, 0, 5}
	for i, p := range prios {
		pool[i].priority = p
		r.insert(TaskID(i))
	}

	want := []TaskID{1, 3, 0, 4, 2}
	for _, w := range want {
		id, ok := r.highest()
		if !ok {
			t.Fatalf("highest() ok = false, want %d", w)
		}
		if id != w {
			t.Fatalf("highest() = %d, want %d", id, w)
		}
		if got := r.removeHead(pool[id].priority); got != w {
			t.Fatalf("removeHead() = %d, want %d", got, w)
		}
	}
	if r.bitmap != 0 {
		t.Fatalf("bitmap = %#x after draining, want 0", r.bitmap)
	}
}

func TestReadySetRemoveMiddle(t *testing.T) {
	pool := newTestPool()
	var r readySet
	r.reset(pool)

	for i := 0; i < 3; i++ {
		pool[i].priority = 4
		r.insert(TaskID(i))
	}
	r.remove(1)

	if pool[1].queued {
		t.Fatal("task 1 still queued after remove")
	}
	if got := r.removeHead(4); got != 0 {
		t.Fatalf("removeHead(4) = %d, want 0", got)
	}
	if got := r.removeHead(4); got != 2 {
		t.Fatalf("removeHead(4) = %d, want 2", got)
	}
	if r.peerReady(4) {
		t.Fatal("peerReady(4) = true on empty queue")
	}
}

func TestReadySetInsertTwiceIsIgnored(t *testing.T) {
	pool := newTestPool()
	var r readySet
	r.reset(pool)

	r.insert(0)
	r.insert(0)
	r.removeHead(0)
	if id, ok := r.highest(); ok {
		t.Fatalf("highest() = %d after removing the only task, want empty", id)
	}
}

func TestReadySetBitmapMatchesQueues(t *testing.T) {
	pool := newTestPool()
	var r readySet
	r.reset(pool)

	rng := rand.New(rand.NewSource(7))
	for i := range pool {
		pool[i].priority = uint8(rng.Intn(MaxPriorities))
	}

	for step := 0; step < 5000; step++ {
		id := TaskID(rng.Intn(MaxTasks))
		switch rng.Intn(3) {
		case 0:
			r.insert(id)
		case 1:
			r.remove(id)
		case 2:
			r.removeHead(uint8(rng.Intn(MaxPriorities)))
		}

		for p := 0; p < MaxPriorities; p++ {
			bit := r.bitmap&(1<<p) != 0
			if bit != (r.head[p] != NoTask) {
				t.Fatalf("step %d: bit %d = %v, head = %d", step, p, bit, r.head[p])
			}
		}
		if id, ok := r.highest(); ok {
			for p := uint8(0); p < pool[id].priority; p++ {
				if r.head[p] != NoTask {
					t.Fatalf("step %d: highest() priority %d but queue %d non-empty", step, pool[id].priority, p)
				}
			}
		}
	}
}
