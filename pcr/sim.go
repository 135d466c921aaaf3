package main

import (
	"fmt"
	"io"
	"time"

	"github.com/itohio/gopcr/pkg/config"
	"github.com/itohio/gopcr/pkg/rig"
	"github.com/itohio/gopcr/pkg/sched"
	"github.com/itohio/gopcr/pkg/session"
	"github.com/itohio/gopcr/pkg/telemetry"
	"github.com/urfave/cli/v2"
)

// simFlags override the configured waveform for one simulation.
type simFlags struct {
	kind      string
	period    float64
	amplitude float64
	offset    float64
	duration  time.Duration

	// set holds the names of the flags given on the command line.
	set map[string]bool
}

func (f *simFlags) cliFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "kind", Aliases: []string{"k"}, Destination: &f.kind, Usage: "waveform `KIND` (const|step|ramp|sine)"},
		&cli.Float64Flag{Name: "period", Destination: &f.period, Usage: "waveform period in seconds"},
		&cli.Float64Flag{Name: "amplitude", Destination: &f.amplitude, Usage: "peak to peak amplitude in psi"},
		&cli.Float64Flag{Name: "offset", Destination: &f.offset, Usage: "offset pressure in psi"},
		&cli.DurationFlag{Name: "duration", Destination: &f.duration, Value: 30 * time.Second, Usage: "test time before the simulated operator aborts"},
	}
}

// markSet records which waveform flags were given, so an explicit zero
// still overrides the configuration.
func (f *simFlags) markSet(ctx *cli.Context) {
	f.set = make(map[string]bool)
	for _, name := range []string{"kind", "period", "amplitude", "offset"} {
		if ctx.IsSet(name) {
			f.set[name] = true
		}
	}
}

// apply copies the set flags into cfg.
func (f simFlags) apply(cfg *config.Config) {
	if f.set["kind"] {
		cfg.Waveform.Kind = f.kind
	}
	if f.set["period"] {
		cfg.Waveform.Period = f.period
	}
	if f.set["amplitude"] {
		cfg.Waveform.Amplitude = f.amplitude
	}
	if f.set["offset"] {
		cfg.Waveform.Offset = f.offset
	}
}

// simResult summarizes a simulation run.
type simResult struct {
	Ticks   int
	Lines   int
	Final   float32
	Aborted bool
	Events  []session.EventType
}

func (r simResult) String() string {
	return fmt.Sprintf("%d ticks, %d telemetry lines, final pressure %.2f psi, aborted %v", r.Ticks, r.Lines, r.Final, r.Aborted)
}

// simulate plays the configured waveform against the simulated tank on a
// virtual clock and writes telemetry lines to w. The operator abort is
// simulated after the given duration of test time.
func simulate(cfg *config.Config, f simFlags, w io.Writer) (simResult, error) {
	f.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return simResult{}, err
	}

	tank := rig.NewMock(mockParams(cfg.Mock))
	if err := tank.Connect(); err != nil {
		return simResult{}, err
	}

	var res simResult
	sink := telemetry.Multi{
		telemetry.NewWriter(w),
		telemetry.Func(func(float32) error {
			res.Lines++
			return nil
		}),
	}

	clock := sched.NewVirtual(cfg.Rig.TickInterval)
	sys, err := newSystem(cfg, clock, tank, sink)
	if err != nil {
		tank.Close()
		return simResult{}, err
	}
	defer sys.Close()

	sys.session.Observe(session.ObserverFunc(func(e session.Event) {
		res.Events = append(res.Events, e.Type)
		if e.Type == session.EventAborted {
			res.Aborted = true
		}
	}))

	abortAt := int(f.duration / cfg.Rig.TickInterval)
	if abortAt < 1 {
		abortAt = 1
	}
	// Venting a stuck tank never converges
	limit := abortAt + int(10*time.Minute/cfg.Rig.TickInterval)
	clock.OnTick = func(n int) {
		switch {
		case n == abortAt:
			sys.session.Abort()
		case n >= limit:
			clock.Stop()
		}
	}

	if err := sys.session.Arm(sys.kind, sys.params); err != nil {
		return res, err
	}
	if err := sys.session.Run(); err != nil {
		return res, err
	}

	res.Ticks = clock.Ticks()
	res.Final = tank.Pressure()
	return res, nil
}
