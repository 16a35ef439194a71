// Package sim is a host port for the kernel scheduler.
//
// Every task runs on its own goroutine, but only one goroutine holds the
// simulated CPU at a time: Switch hands a baton over an unbuffered channel
// and parks the previous task until it is handed back. Timer interrupts are
// raised by a clock (or by Raise) and serviced on the goroutine holding the
// CPU, at the points where real hardware would take them: when interrupts
// are re-enabled or while waiting for an interrupt.
package sim

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"rtk/internal/logging"
	"rtk/kernel"
)

// ErrTaskReturned is reported when a task entry function returns.
var ErrTaskReturned = errors.New("sim: task entry returned")

// MinStackSize is the smallest stack region NewContext accepts.
const MinStackSize = 64

// Option configures a Port.
type Option func(*options)

type options struct {
	parent context.Context
	logger *slog.Logger
	manual bool
	limit  uint64
}

// WithContext stops the simulation when ctx is done.
func WithContext(ctx context.Context) Option {
	return func(o *options) { o.parent = ctx }
}

// WithLogger sets the logger used for task lifecycle messages.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithManualClock disables the free-running clock; interrupts are only
// raised by Raise. Pending ticks are then serviced only in
// WaitForInterrupt, so simulated time advances only while the CPU waits
// and a run is reproducible.
func WithManualClock() Option {
	return func(o *options) { o.manual = true }
}

// WithTickLimit stops the simulation once n timer interrupts have been
// serviced.
func WithTickLimit(n uint64) Option {
	return func(o *options) { o.limit = n }
}

// Port simulates a single CPU with a periodic timer.
type Port struct {
	log    *slog.Logger
	manual bool
	limit  uint64

	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group

	hz  uint32
	isr func()

	// CPU state. Only the goroutine holding the baton touches these.
	masked    bool
	inISR     bool
	delivered uint64
	switches  uint64

	live    atomic.Bool
	pending atomic.Int64
	irq     chan struct{}

	err error
}

// New returns a port with no timer configured.
func New(opts ...Option) *Port {
	o := options{parent: context.Background()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.Discard()
	}
	ctx, cancel := context.WithCancel(o.parent)
	group, gctx := errgroup.WithContext(ctx)
	return &Port{
		log:    o.logger.With("component", "sim"),
		manual: o.manual,
		limit:  o.limit,
		ctx:    gctx,
		cancel: cancel,
		group:  group,
		irq:    make(chan struct{}, 1),
	}
}

var _ kernel.Port = (*Port)(nil)

// ConfigureTimer records the tick frequency and handler.
func (p *Port) ConfigureTimer(hz uint32, isr func()) {
	p.hz = hz
	p.isr = isr
	p.log.Debug("timer configured", "hz", hz, "manual", p.manual)
}

// Stop ends the simulation. Task goroutines exit at their next switch or
// interrupt point and FirstTransfer returns. Stop may be called from any
// goroutine, including a task.
func (p *Port) Stop() {
	p.cancel()
}

// Done is closed once the simulation has been asked to stop.
func (p *Port) Done() <-chan struct{} {
	return p.ctx.Done()
}

// Err returns the first task failure (a returned entry function or a
// kernel halt), or nil for a clean stop. It is valid after FirstTransfer
// (and so kernel.Scheduler.Start) has returned.
func (p *Port) Err() error {
	return p.err
}

// Ticks returns the number of timer interrupts serviced. Like Err it is
// read after the simulation has stopped.
func (p *Port) Ticks() uint64 {
	return p.delivered
}

// Switches returns the number of context switches performed.
func (p *Port) Switches() uint64 {
	return p.switches
}

// FirstTransfer hands the CPU to target and runs the clock until the
// simulation stops. It returns once every task goroutine has exited.
func (p *Port) FirstTransfer(target kernel.Context) {
	to := target.(*taskContext)
	p.live.Store(true)
	p.log.Debug("first transfer", "task", to.name)

	select {
	case to.run <- struct{}{}:
	case <-p.ctx.Done():
	}

	if p.manual || p.hz == 0 {
		<-p.ctx.Done()
	} else {
		p.clock()
	}

	p.err = p.group.Wait()
	p.live.Store(false)
	p.masked = false
	p.inISR = false
	p.log.Debug("stopped", "ticks", p.delivered, "switches", p.switches, "err", p.err)
}
