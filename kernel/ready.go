package kernel

import "math/bits"

// readySet holds one FIFO queue per priority plus a bitmap with bit i set
// iff queue i is non-empty. Queues are linked through the task records.
type readySet struct {
	pool   *[MaxTasks]taskRecord
	bitmap uint32
	head   [MaxPriorities]TaskID
	tail   [MaxPriorities]TaskID
}

func (r *readySet) reset(pool *[MaxTasks]taskRecord) {
	r.pool = pool
	r.bitmap = 0
	for i := range r.head {
		r.head[i] = NoTask
		r.tail[i] = NoTask
	}
}

// insert appends id to the tail of its priority's queue.
func (r *readySet) insert(id TaskID) {
	t := &r.pool[id]
	if t.queued {
		return
	}
	p := t.priority
	t.next = NoTask
	t.prev = r.tail[p]
	if r.tail[p] == NoTask {
		r.head[p] = id
	} else {
		r.pool[r.tail[p]].next = id
	}
	r.tail[p] = id
	t.queued = true
	r.bitmap |= 1 << p
}

// removeHead pops the front of the queue for priority.
func (r *readySet) removeHead(priority uint8) TaskID {
	id := r.head[priority]
	if id == NoTask {
		return NoTask
	}
	r.remove(id)
	return id
}

// remove unlinks id from whichever position it holds in its queue.
func (r *readySet) remove(id TaskID) {
	t := &r.pool[id]
	if !t.queued {
		return
	}
	p := t.priority
	if t.prev == NoTask {
		r.head[p] = t.next
	} else {
		r.pool[t.prev].next = t.next
	}
	if t.next == NoTask {
		r.tail[p] = t.prev
	} else {
		r.pool[t.next].prev = t.prev
	}
	t.next, t.prev = NoTask, NoTask
	t.queued = false
	if r.head[p] == NoTask {
		r.bitmap &^= 1 << p
	}
}

// highest returns the head of the highest-priority non-empty queue.
func (r *readySet) highest() (TaskID, bool) {
	if r.bitmap == 0 {
		return NoTask, false
	}
	p := bits.TrailingZeros32(r.bitmap)
	return r.head[p], true
}

// peerReady reports whether any task is queued at priority.
func (r *readySet) peerReady(priority uint8) bool {
	return r.bitmap&(1<<priority) != 0
}
