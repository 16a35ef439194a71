package app

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"rtk/hal"
	"rtk/internal/logging"
	"rtk/kernel"
	"rtk/port/sim"
	"rtk/trace"
	"rtk/workload"
)

// Config controls a simulation run.
type Config struct {
	// Ticks stops the run after that many timer ticks (0 = until stopped).
	Ticks uint64
	// Hz overrides the workload's tick_hz when non-zero.
	Hz uint32
	// Virtual uses a manual clock: Ticks ticks are raised up front and time
	// advances only while the CPU waits, so runs are reproducible.
	Virtual bool
	// HistoryTicks bounds the recorded timeline.
	HistoryTicks int
	// ReportColumns is the width of the report's strip chart.
	ReportColumns int

	Logger *slog.Logger
}

// DefaultConfig returns the defaults used by the CLI.
func DefaultConfig() Config {
	return Config{
		Ticks:         1000,
		HistoryTicks:  trace.DefaultLimit,
		ReportColumns: 64,
	}
}

// Sim is one workload booted on the simulation port.
type Sim struct {
	cfg    Config
	log    *slog.Logger
	port   *sim.Port
	sched  *kernel.Scheduler
	rec    *trace.Recorder
	sys    *workload.System
	render *trace.Renderer

	h      hal.HAL
	paused bool

	once sync.Once
	done chan struct{}
	err  error
}

// New boots spec on a fresh simulation port. Task console output goes to
// h's logger.
func New(h hal.HAL, spec *workload.Spec, cfg Config) (*Sim, error) {
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	if cfg.Virtual && cfg.Ticks == 0 {
		return nil, errors.New("virtual time needs a tick limit")
	}
	hz := spec.TickHz
	if cfg.Hz != 0 {
		hz = cfg.Hz
	}

	s := &Sim{
		cfg:    cfg,
		log:    cfg.Logger.With("component", "app"),
		rec:    trace.NewRecorder(cfg.HistoryTicks),
		render: trace.NewRenderer(),
		h:      h,
		done:   make(chan struct{}),
	}

	opts := []sim.Option{sim.WithLogger(cfg.Logger)}
	if cfg.Ticks > 0 {
		opts = append(opts, sim.WithTickLimit(cfg.Ticks))
	}
	if cfg.Virtual {
		opts = append(opts, sim.WithManualClock())
	}
	s.port = sim.New(opts...)
	s.sched = kernel.New(s.port, kernel.WithTracer(s.rec))
	s.sched.Init(hz)

	installHaltHandler(h, s.log)

	sys, err := workload.Boot(spec, workload.Env{
		Sched:   s.sched,
		CPU:     s.port,
		Console: h.Logger(),
		Labeler: s.rec,
		Logger:  cfg.Logger,
	})
	if err != nil {
		s.port.Stop()
		return nil, fmt.Errorf("booting workload: %w", err)
	}
	s.sys = sys
	if cfg.Virtual {
		s.port.Raise(int(cfg.Ticks))
	}
	return s, nil
}

// Start runs the scheduler on its own goroutine.
func (s *Sim) Start() {
	s.log.Info("starting", "ticks", s.cfg.Ticks, "virtual", s.cfg.Virtual)
	go func() {
		defer close(s.done)
		defer func() {
			if r := recover(); r != nil {
				var he *kernel.HaltError
				if err, ok := r.(error); ok && errors.As(err, &he) {
					// Start halted before the first transfer; release the
					// task goroutines still parked in the port.
					s.err = he
					s.Stop()
					return
				}
				panic(r)
			}
		}()
		s.sched.Start()
		s.err = s.port.Err()
	}()
}

// Stop asks the simulation to stop. Wait returns once it has.
func (s *Sim) Stop() {
	s.once.Do(s.port.Stop)
}

// Done is closed when the simulation has fully stopped.
func (s *Sim) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the simulation stops and returns its error: a task
// that returned or a kernel halt.
func (s *Sim) Wait() error {
	<-s.done
	if s.err != nil {
		return s.err
	}
	s.log.Info("stopped", "ticks", s.port.Ticks(), "switches", s.port.Switches())
	return nil
}

// Timeline returns a snapshot of the recorded timeline.
func (s *Sim) Timeline() trace.Timeline {
	return s.rec.Snapshot()
}

// Report writes the text report of the run.
func (s *Sim) Report(w io.Writer) error {
	if w == nil {
		w = os.Stdout
	}
	return trace.Report(w, s.rec.Snapshot(), s.cfg.ReportColumns)
}

// Step is a hal runner step: it handles keys, redraws the timeline chart
// and returns hal.ErrStop once the simulation has stopped.
func (s *Sim) Step() error {
	if in := s.h.Input(); in != nil {
		if kbd := in.Keyboard(); kbd != nil {
			s.handleKeys(kbd.Events())
		}
	}

	stopped := false
	select {
	case <-s.done:
		stopped = true
	default:
	}

	if !s.paused || stopped {
		if d := s.h.Display(); d != nil {
			if err := s.render.Render(d.Framebuffer(), s.rec.Snapshot()); err != nil {
				return err
			}
		}
	}
	if stopped {
		return hal.ErrStop
	}
	return nil
}

func (s *Sim) handleKeys(events <-chan hal.KeyEvent) {
	for {
		select {
		case ev := <-events:
			if !ev.Press {
				continue
			}
			switch ev.Code {
			case hal.KeyEscape:
				s.log.Info("stop requested")
				s.Stop()
			case hal.KeySpace:
				s.paused = !s.paused
			}
		default:
			return
		}
	}
}
