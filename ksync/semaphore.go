// Package ksync provides task synchronization built on the scheduler's
// block and wake operations.
package ksync

import "rtk/kernel"

// Semaphore is a counting semaphore. Waiters are woken in FIFO order.
//
// All state is guarded by the preemption gate: tasks never preempt each
// other inside Take or Give, and interrupt handlers do not touch it.
type Semaphore struct {
	s       *kernel.Scheduler
	name    string
	count   uint32
	waiters waitQueue
}

// NewSemaphore returns a semaphore holding initial units.
func NewSemaphore(s *kernel.Scheduler, name string, initial uint32) *Semaphore {
	return &Semaphore{s: s, name: name, count: initial}
}

// Name returns the semaphore's name.
func (sem *Semaphore) Name() string { return sem.name }

// Take acquires one unit, blocking the calling task until one is available.
func (sem *Semaphore) Take() {
	sem.s.PreemptDisable()
	for sem.count == 0 {
		sem.waiters.push(sem.s.Current())
		sem.s.BlockCurrent()
		// The switch happens here, with the gate reopened.
		sem.s.PreemptEnable()
		sem.s.PreemptDisable()
	}
	sem.count--
	// A waiter resumed after Suspend can get here without being popped.
	sem.waiters.remove(sem.s.Current())
	sem.s.PreemptEnable()
}

// TryTake acquires one unit if available and reports whether it did.
func (sem *Semaphore) TryTake() bool {
	sem.s.PreemptDisable()
	defer sem.s.PreemptEnable()
	if sem.count == 0 {
		return false
	}
	sem.count--
	return true
}

// Give releases one unit and wakes the longest waiting task. Waiters that
// are no longer blocked (suspended meanwhile) are skipped.
func (sem *Semaphore) Give() {
	sem.s.PreemptDisable()
	sem.count++
	wakeOne(sem.s, &sem.waiters)
	sem.s.PreemptEnable()
}

// Count returns the number of available units.
func (sem *Semaphore) Count() uint32 {
	sem.s.PreemptDisable()
	defer sem.s.PreemptEnable()
	return sem.count
}

// Waiting returns the number of queued waiters.
func (sem *Semaphore) Waiting() int {
	sem.s.PreemptDisable()
	defer sem.s.PreemptEnable()
	return sem.waiters.len()
}
