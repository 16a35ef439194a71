package kernel

import "container/heap"

// sleepSet orders sleeping tasks by wake tick. Ties wake in the order the
// tasks went to sleep.
type sleepSet struct {
	h   sleepHeap
	seq uint64
}

func (s *sleepSet) reset(pool *[MaxTasks]taskRecord) {
	s.h.pool = pool
	if s.h.ids == nil {
		s.h.ids = make([]TaskID, 0, MaxTasks)
	}
	s.h.ids = s.h.ids[:0]
	s.seq = 0
}

func (s *sleepSet) insert(id TaskID, wakeTick uint64) {
	t := &s.h.pool[id]
	if t.heapIdx >= 0 {
		return
	}
	s.seq++
	t.wakeTick = wakeTick
	t.sleepSeq = s.seq
	heap.Push(&s.h, id)
}

// popDue removes and returns the earliest sleeper if its wake tick is <= now.
// Callers loop until it reports false.
func (s *sleepSet) popDue(now uint64) (TaskID, bool) {
	if len(s.h.ids) == 0 {
		return NoTask, false
	}
	if s.h.pool[s.h.ids[0]].wakeTick > now {
		return NoTask, false
	}
	return heap.Pop(&s.h).(TaskID), true
}

func (s *sleepSet) remove(id TaskID) {
	i := s.h.pool[id].heapIdx
	if i < 0 {
		return
	}
	heap.Remove(&s.h, i)
}

func (s *sleepSet) contains(id TaskID) bool {
	return s.h.pool[id].heapIdx >= 0
}

func (s *sleepSet) len() int {
	return len(s.h.ids)
}

// next returns the earliest wake tick, if any task is sleeping.
func (s *sleepSet) next() (uint64, bool) {
	if len(s.h.ids) == 0 {
		return 0, false
	}
	return s.h.pool[s.h.ids[0]].wakeTick, true
}

type sleepHeap struct {
	pool *[MaxTasks]taskRecord
	ids  []TaskID
}

func (h *sleepHeap) Len() int { return len(h.ids) }

func (h *sleepHeap) Less(i, j int) bool {
	a, b := &h.pool[h.ids[i]], &h.pool[h.ids[j]]
	if a.wakeTick != b.wakeTick {
		return a.wakeTick < b.wakeTick
	}
	return a.sleepSeq < b.sleepSeq
}

func (h *sleepHeap) Swap(i, j int) {
	h.ids[i], h.ids[j] = h.ids[j], h.ids[i]
	h.pool[h.ids[i]].heapIdx = i
	h.pool[h.ids[j]].heapIdx = j
}

func (h *sleepHeap) Push(x any) {
	id := x.(TaskID)
	h.pool[id].heapIdx = len(h.ids)
	h.ids = append(h.ids, id)
}

func (h *sleepHeap) Pop() any {
	n := len(h.ids) - 1
	id := h.ids[n]
	h.ids = h.ids[:n]
	h.pool[id].heapIdx = -1
	return id
}
