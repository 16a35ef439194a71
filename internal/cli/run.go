package cli

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"rtk/app"
	"rtk/hal"
	"rtk/internal/logging"
	"rtk/trace"
	"rtk/workload"
)

type runOptions struct {
	cfg    app.Config
	host   hal.HostConfig
	window bool
	scale  int
	png    string
}

func newRunCmd() *cobra.Command {
	var file string
	opts := runOptions{cfg: app.DefaultConfig()}

	cmd := &cobra.Command{
		Use:   "run -f <workload.yaml>",
		Short: "Boot a workload on the simulator and report its timeline",
		Long: `Boots every task of the workload on the simulation port and runs the
scheduler until --ticks timer ticks have elapsed, the window is closed, or
the process is interrupted. Task console lines and the timeline report are
written to stdout.

With --virtual the timer is driven by the simulation itself: time only
advances while the CPU waits, so the same workload always produces the
same timeline.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := workload.LoadFile(file)
			if err != nil {
				return err
			}
			opts.cfg.Logger = logger
			opts.host.Out = cmd.OutOrStdout()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWorkload(ctx, cmd.OutOrStdout(), spec, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&file, "file", "f", "", "Workload YAML file")
	f.Uint64Var(&opts.cfg.Ticks, "ticks", opts.cfg.Ticks, "Stop after N timer ticks (0 = until interrupted)")
	f.Uint32Var(&opts.cfg.Hz, "hz", 0, "Timer frequency (default: the workload's tick_hz)")
	f.BoolVar(&opts.cfg.Virtual, "virtual", false, "Run on virtual time (reproducible; needs --ticks)")
	f.IntVar(&opts.cfg.ReportColumns, "cols", opts.cfg.ReportColumns, "Width of the report's strip chart")
	f.BoolVar(&opts.window, "window", false, "Show the live timeline in a window")
	f.IntVar(&opts.host.Width, "width", 320, "Timeline chart width in pixels")
	f.IntVar(&opts.host.Height, "height", 240, "Timeline chart height in pixels")
	f.IntVar(&opts.scale, "scale", 2, "Window scale factor")
	f.StringVar(&opts.png, "png", "", "Write the final timeline chart to this PNG file")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runWorkload(ctx context.Context, out io.Writer, spec *workload.Spec, opts runOptions) error {
	log := opts.cfg.Logger
	if log == nil {
		log = logging.Discard()
		opts.cfg.Logger = log
	}

	var sim *app.Sim
	var bootErr error
	newApp := func(h hal.HAL) func() error {
		sim, bootErr = app.New(h, spec, opts.cfg)
		if bootErr != nil {
			return func() error { return bootErr }
		}
		sim.Start()
		go func() {
			select {
			case <-ctx.Done():
				log.Info("interrupted")
				sim.Stop()
			case <-sim.Done():
			}
		}()
		return sim.Step
	}

	var err error
	if opts.window {
		err = hal.RunWindow(newApp, hal.WindowConfig{Host: opts.host, Scale: opts.scale})
	} else {
		err = hal.RunHeadless(ctx, newApp, hal.HeadlessConfig{Host: opts.host, Hz: 30})
	}
	if bootErr != nil {
		return bootErr
	}
	if sim == nil {
		return err
	}
	sim.Stop()
	runErr := sim.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	if err := sim.Report(out); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	if opts.png != "" {
		if err := writePNG(opts.png, sim.Timeline(), opts.host); err != nil {
			return err
		}
		log.Info("timeline chart written", "path", opts.png)
	}
	return runErr
}

func writePNG(path string, tl trace.Timeline, host hal.HostConfig) error {
	w, h := host.Width, host.Height
	if w <= 0 || h <= 0 {
		w, h = 320, 240
	}
	fb := hal.NewFramebuffer(w, h)
	if err := trace.NewRenderer().Render(fb, tl); err != nil {
		return fmt.Errorf("rendering chart: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, hal.Image(fb)); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
