package ksync

import "rtk/kernel"

// waitQueue is a fixed-size FIFO of blocked tasks. A task appears at most
// once, so MaxTasks slots are always enough.
type waitQueue struct {
	head  uint32
	tail  uint32
	slots [kernel.MaxTasks]kernel.TaskID
}

func (q *waitQueue) push(id kernel.TaskID) bool {
	if q.head-q.tail >= uint32(len(q.slots)) || q.contains(id) {
		return false
	}
	q.slots[q.head%uint32(len(q.slots))] = id
	q.head++
	return true
}

func (q *waitQueue) pop() (kernel.TaskID, bool) {
	if q.tail == q.head {
		return kernel.NoTask, false
	}
	id := q.slots[q.tail%uint32(len(q.slots))]
	q.tail++
	return id, true
}

// remove drops id if it is queued, keeping the order of the others.
func (q *waitQueue) remove(id kernel.TaskID) {
	n := uint32(len(q.slots))
	w := q.tail
	for r := q.tail; r != q.head; r++ {
		if v := q.slots[r%n]; v != id {
			q.slots[w%n] = v
			w++
		}
	}
	q.head = w
}

func (q *waitQueue) contains(id kernel.TaskID) bool {
	for i := q.tail; i != q.head; i++ {
		if q.slots[i%uint32(len(q.slots))] == id {
			return true
		}
	}
	return false
}

func (q *waitQueue) len() int {
	return int(q.head - q.tail)
}
