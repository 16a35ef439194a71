package ksync

import "rtk/kernel"

// MaxMessageBytes is the largest payload a Message carries.
const MaxMessageBytes = 32

// Message is a fixed-size message envelope.
type Message struct {
	From kernel.TaskID
	Kind uint8
	Len  uint8
	Data [MaxMessageBytes]byte
}

// NewMessage builds a message, truncating payload to MaxMessageBytes.
func NewMessage(from kernel.TaskID, kind uint8, payload []byte) Message {
	m := Message{From: from, Kind: kind}
	m.Len = uint8(copy(m.Data[:], payload))
	return m
}

// Payload returns the message bytes.
func (m *Message) Payload() []byte { return m.Data[:m.Len] }

// Mailbox is a bounded FIFO of messages between tasks. Send blocks while
// it is full and Recv while it is empty; blocked tasks are woken in FIFO
// order. Like Semaphore, its state is guarded by the preemption gate.
type Mailbox struct {
	_         [0]func() // prevent accidental copying.
	s         *kernel.Scheduler
	name      string
	head      uint32
	tail      uint32
	slots     []Message
	senders   waitQueue
	receivers waitQueue
}

// NewMailbox returns an empty mailbox holding up to slots messages.
// slots below 1 is treated as 1.
func NewMailbox(s *kernel.Scheduler, name string, slots int) *Mailbox {
	if slots < 1 {
		slots = 1
	}
	return &Mailbox{s: s, name: name, slots: make([]Message, slots)}
}

// Name returns the mailbox's name.
func (mb *Mailbox) Name() string { return mb.name }

// Cap returns the number of slots.
func (mb *Mailbox) Cap() int { return len(mb.slots) }

// TrySend enqueues msg, returning false if the mailbox is full.
func (mb *Mailbox) TrySend(msg Message) bool {
	mb.s.PreemptDisable()
	defer mb.s.PreemptEnable()
	return mb.put(msg)
}

// Send enqueues msg, blocking the calling task while the mailbox is full.
func (mb *Mailbox) Send(msg Message) {
	mb.s.PreemptDisable()
	for !mb.put(msg) {
		mb.senders.push(mb.s.Current())
		mb.s.BlockCurrent()
		mb.s.PreemptEnable()
		mb.s.PreemptDisable()
	}
	mb.senders.remove(mb.s.Current())
	mb.s.PreemptEnable()
}

// TryRecv dequeues one message, returning false if the mailbox is empty.
func (mb *Mailbox) TryRecv() (Message, bool) {
	mb.s.PreemptDisable()
	defer mb.s.PreemptEnable()
	return mb.get()
}

// Recv dequeues one message, blocking the calling task until one arrives.
func (mb *Mailbox) Recv() Message {
	mb.s.PreemptDisable()
	for {
		if msg, ok := mb.get(); ok {
			mb.receivers.remove(mb.s.Current())
			mb.s.PreemptEnable()
			return msg
		}
		mb.receivers.push(mb.s.Current())
		mb.s.BlockCurrent()
		mb.s.PreemptEnable()
		mb.s.PreemptDisable()
	}
}

// Len returns the number of queued messages.
func (mb *Mailbox) Len() int {
	mb.s.PreemptDisable()
	defer mb.s.PreemptEnable()
	return int(mb.head - mb.tail)
}

// put and get run with the gate closed.
func (mb *Mailbox) put(msg Message) bool {
	if mb.head-mb.tail >= uint32(len(mb.slots)) {
		return false
	}
	mb.slots[mb.head%uint32(len(mb.slots))] = msg
	mb.head++
	wakeOne(mb.s, &mb.receivers)
	return true
}

func (mb *Mailbox) get() (Message, bool) {
	if mb.tail == mb.head {
		return Message{}, false
	}
	msg := mb.slots[mb.tail%uint32(len(mb.slots))]
	mb.tail++
	wakeOne(mb.s, &mb.senders)
	return msg, true
}

// wakeOne wakes the longest waiting task of q that is still blocked.
func wakeOne(s *kernel.Scheduler, q *waitQueue) {
	for {
		id, ok := q.pop()
		if !ok || s.Wake(id) {
			return
		}
	}
}
