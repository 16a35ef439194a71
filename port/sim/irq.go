package sim

import (
	"runtime"

	"rtk/kernel"
)

// SuppressInterrupts masks the timer interrupt.
func (p *Port) SuppressInterrupts() kernel.IRQState {
	old := p.masked
	p.masked = true
	if old {
		return 1
	}
	return 0
}

// AllowInterrupts restores st. With the free-running clock, re-enabling
// interrupts services at most one pending tick.
func (p *Port) AllowInterrupts(st kernel.IRQState) {
	p.masked = st != 0
	if p.manual || p.masked || p.inISR || !p.live.Load() {
		return
	}
	p.deliver()
}

// WaitForInterrupt blocks until a tick is pending, then services it.
func (p *Port) WaitForInterrupt() {
	for p.pending.Load() == 0 {
		select {
		case <-p.irq:
		case <-p.ctx.Done():
			runtime.Goexit()
		}
	}
	p.deliver()
}

// Raise marks n timer interrupts pending. It is safe to call from any
// goroutine.
func (p *Port) Raise(n int) {
	if n <= 0 {
		return
	}
	p.pending.Add(int64(n))
	select {
	case p.irq <- struct{}{}:
	default:
	}
}

// deliver runs the timer handler for one pending tick on the calling
// goroutine, which must hold the CPU. The handler may switch away; deliver
// then completes when this context is resumed. A stopped simulation ends
// the calling task goroutine instead.
func (p *Port) deliver() {
	p.exitIfStopped()
	if p.isr == nil || p.pending.Load() <= 0 {
		return
	}
	p.pending.Add(-1)
	p.delivered++
	if p.limit > 0 && p.delivered >= p.limit {
		p.Stop()
	}

	p.masked, p.inISR = true, true
	p.isr()
	p.masked, p.inISR = false, false
}

func (p *Port) exitIfStopped() {
	select {
	case <-p.ctx.Done():
		runtime.Goexit()
	default:
	}
}
