package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/itohio/gopcr/pkg/config"
	"github.com/itohio/gopcr/pkg/gpio"
	"github.com/itohio/gopcr/pkg/link"
	"github.com/itohio/gopcr/pkg/menu"
	"github.com/itohio/gopcr/pkg/mqtt"
	"github.com/itohio/gopcr/pkg/pressure"
	"github.com/itohio/gopcr/pkg/ramp"
	"github.com/itohio/gopcr/pkg/rig"
	"github.com/itohio/gopcr/pkg/sched"
	"github.com/itohio/gopcr/pkg/session"
	"github.com/itohio/gopcr/pkg/telemetry"
	"github.com/itohio/gopcr/pkg/trace"
	"github.com/itohio/gopcr/pkg/wave"
	"github.com/itohio/gopcr/pkg/web"
	"github.com/womat/debug"
)

// system wires the control core to the rig and its consumers.
type system struct {
	cfg      *config.Config
	ctx      *sched.Context
	device   rig.Device
	state    *pressure.Tracker
	engine   *ramp.Engine
	session  *session.Controller
	recorder *trace.Recorder
	web      *web.Server

	kind   wave.Kind
	params wave.Params

	closers []func() error
}

// newSystem builds the control core around an already connected device.
// sink may be nil.
func newSystem(cfg *config.Config, clock sched.Clock, device rig.Device, sink telemetry.Sink) (*system, error) {
	kind, err := wave.ParseKind(cfg.Waveform.Kind)
	if err != nil {
		return nil, err
	}
	sessCfg, err := sessionConfig(cfg)
	if err != nil {
		return nil, err
	}

	params := wave.Params{
		Period:    float32(cfg.Waveform.Period),
		Amplitude: float32(cfg.Waveform.Amplitude),
		Offset:    float32(cfg.Waveform.Offset),
	}

	var initial pressure.State
	initial.SetParams(kind, params)
	state := pressure.NewTracker(initial)

	ctx := sched.NewContext(clock)
	opts := []ramp.Option{ramp.WithMaxTicks(cfg.Rig.MaxTicks)}
	if sink != nil {
		opts = append(opts, ramp.WithSink(sink))
	}
	engine := ramp.New(ctx, device, state, opts...)

	m := menu.New(kind, params, menuLimits(cfg.Waveform.Limits))
	recorder := trace.New(float32(cfg.Telemetry.Window))
	engine.OnSample(recorder.Record)

	return &system{
		cfg:      cfg,
		ctx:      ctx,
		device:   device,
		state:    state,
		engine:   engine,
		session:  session.New(ctx, engine, state, m, sessCfg),
		recorder: recorder,
		kind:     kind,
		params:   params,
		closers:  []func() error{device.Close},
	}, nil
}

// sessionConfig translates the rig section into session tuning.
func sessionConfig(cfg *config.Config) (session.Config, error) {
	shape, err := wave.ParseShape(cfg.Rig.RampShape)
	if err != nil {
		return session.Config{}, err
	}

	byKind := make(map[wave.Kind]float32, len(cfg.Rig.ToleranceByKind))
	for name, tol := range cfg.Rig.ToleranceByKind {
		kind, err := wave.ParseKind(name)
		if err != nil {
			return session.Config{}, fmt.Errorf("rig.tolerance_by_kind: %w", err)
		}
		byKind[kind] = float32(tol)
	}

	return session.Config{
		Generator: wave.Generator{
			SwitchingInterval: float32(cfg.Rig.SwitchingInterval),
			Shape:             shape,
		},
		Tolerance:       float32(cfg.Rig.Tolerance),
		ToleranceByKind: byKind,
		TicksPerPoint:   cfg.TicksPerPoint(),
	}, nil
}

func menuLimits(l config.EditLimits) menu.Limits {
	return menu.Limits{
		PeriodMin:     float32(l.PeriodMin),
		PeriodMax:     float32(l.PeriodMax),
		PeriodStep:    float32(l.PeriodStep),
		AmplitudeMax:  float32(l.AmplitudeMax),
		AmplitudeStep: float32(l.AmplitudeStep),
		OffsetMax:     float32(l.OffsetMax),
		OffsetStep:    float32(l.OffsetStep),
	}
}

// mockParams maps the simulated tank configuration.
func mockParams(c config.MockConfig) *rig.MockParams {
	return &rig.MockParams{
		Initial:     c.Initial,
		RatePerTick: c.RatePerTick,
		Leak:        c.Leak,
		NoiseLevel:  c.NoiseLevel,
		Stuck:       c.Stuck,
	}
}

// openDevice opens and connects the configured rig device.
func openDevice(cfg *config.Config) (rig.Device, error) {
	switch cfg.Rig.Device {
	case "mock":
		m := rig.NewMock(mockParams(cfg.Mock))
		if err := m.Connect(); err != nil {
			return nil, err
		}
		debug.InfoLog.Print("using simulated tank")
		return m, nil

	case "serial":
		l := link.New(cfg.Serial.Port, cfg.Serial.BaudRate)
		if err := l.Connect(); err != nil {
			return nil, err
		}
		d := rig.Combine(l, rig.NewAveraging(l, cfg.Sensor.AverageSamples), l.Close)
		return d, d.Connect()

	case "gpio":
		v, err := gpio.NewValves(cfg.GPIO.Chip, cfg.GPIO.Compressor, cfg.GPIO.Exhaust)
		if err != nil {
			return nil, err
		}
		l := link.New(cfg.Serial.Port, cfg.Serial.BaudRate)
		if err := l.Connect(); err != nil {
			return nil, errors.Join(err, v.Close())
		}
		d := rig.Combine(v, rig.NewAveraging(l, cfg.Sensor.AverageSamples), l.Close, v.Close)
		return d, d.Connect()
	}
	return nil, fmt.Errorf("unknown device %q", cfg.Rig.Device)
}

// openTelemetry opens the telemetry outputs. Several outputs are separated
// by commas and receive every line. An empty output disables telemetry.
func openTelemetry(cfg *config.Config) (telemetry.Sink, func() error, error) {
	var sinks telemetry.Multi
	var closers []func() error
	closeAll := func() error {
		var errs []error
		for _, c := range closers {
			errs = append(errs, c())
		}
		return errors.Join(errs...)
	}

	for _, out := range strings.Split(cfg.Telemetry.Output, ",") {
		out = strings.TrimSpace(out)
		switch strings.ToLower(out) {
		case "", "none", "off":
			continue
		case "stdout":
			sinks = append(sinks, telemetry.NewWriter(os.Stdout))
			continue
		}

		w, err := telemetry.OpenSerial(out, cfg.Telemetry.BaudRate)
		if err != nil {
			return nil, nil, errors.Join(err, closeAll())
		}
		sinks = append(sinks, w)
		closers = append(closers, w.Close)
	}

	switch len(sinks) {
	case 0:
		return nil, closeAll, nil
	case 1:
		return sinks[0], closeAll, nil
	}
	return sinks, closeAll, nil
}

// attachMQTT publishes samples and session events if a broker is configured.
func (s *system) attachMQTT() error {
	if s.cfg.MQTT.Broker == "" {
		return nil
	}

	pub, err := mqtt.NewRealPublisher(s.cfg.MQTT.Broker, s.cfg.MQTT.ClientID, s.cfg.MQTT.Prefix)
	if err != nil {
		return err
	}
	s.attachPublisher(pub)
	debug.InfoLog.Printf("publishing to %s", s.cfg.MQTT.Broker)
	return nil
}

func (s *system) attachPublisher(pub mqtt.Publisher) {
	// One telemetry message per switching interval
	fwd := mqtt.NewForwarder(pub, s.cfg.TicksPerPoint())
	s.engine.OnSample(fwd.OnSample)
	s.session.Observe(fwd)
	s.closers = append(s.closers, pub.Close)
}

// startWeb serves the status API if an address is configured.
func (s *system) startWeb() {
	if s.cfg.Web.Listen == "" {
		return
	}

	s.web = web.New(s.state, s.session)
	go func() {
		if err := s.web.Listen(s.cfg.Web.Listen); err != nil {
			debug.ErrorLog.Print(err)
		}
	}()
	s.closers = append(s.closers, s.web.Shutdown)
}

// start arms and starts the configured waveform.
func (s *system) start() error {
	if err := s.session.Arm(s.kind, s.params); err != nil {
		return err
	}
	return s.session.Start()
}

// Close releases everything in reverse order of acquisition.
func (s *system) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	s.closers = nil
	return errors.Join(errs...)
}
