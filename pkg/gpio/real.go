//go:build linux && !tinygo

package gpio

import (
	"errors"
	"fmt"
	"sync"

	"github.com/itohio/gopcr/pkg/rig"
	"github.com/itohio/gopcr/pkg/rotary"
	"github.com/warthog618/go-gpiocdev"
)

// Valves drives the compressor and exhaust valve lines.
type Valves struct {
	chip       *gpiocdev.Chip
	compressor *gpiocdev.Line
	exhaust    *gpiocdev.Line

	mu      sync.Mutex
	channel rig.Channel
}

var _ rig.Actuator = (*Valves)(nil)

// NewValves requests both lines as outputs driven low.
func NewValves(chipName string, compressor, exhaust int) (*Valves, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	cl, err := chip.RequestLine(compressor, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request compressor pin %d: %w", compressor, err)
	}

	el, err := chip.RequestLine(exhaust, gpiocdev.AsOutput(0))
	if err != nil {
		cl.Close()
		chip.Close()
		return nil, fmt.Errorf("request exhaust pin %d: %w", exhaust, err)
	}

	return &Valves{
		chip:       chip,
		compressor: cl,
		exhaust:    el,
	}, nil
}

// Set energizes ch. The other line is always released first.
func (v *Valves) Set(ch rig.Channel) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	var err error
	switch ch {
	case rig.Hold:
		err = errors.Join(v.compressor.SetValue(0), v.exhaust.SetValue(0))
	case rig.Raise:
		if err = v.exhaust.SetValue(0); err == nil {
			err = v.compressor.SetValue(1)
		}
	case rig.Lower:
		if err = v.compressor.SetValue(0); err == nil {
			err = v.exhaust.SetValue(1)
		}
	default:
		return fmt.Errorf("invalid channel %d", ch)
	}
	if err != nil {
		return fmt.Errorf("set %s: %w", ch, err)
	}
	v.channel = ch
	return nil
}

// Channel returns the energized channel.
func (v *Valves) Channel() rig.Channel {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.channel
}

// Close drives both lines low and releases them.
func (v *Valves) Close() error {
	var errs []error
	if err := v.Set(rig.Hold); err != nil {
		errs = append(errs, err)
	}
	if err := v.compressor.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close compressor pin: %w", err))
	}
	if err := v.exhaust.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close exhaust pin: %w", err))
	}
	if err := v.chip.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close chip: %w", err))
	}
	return errors.Join(errs...)
}

// EncoderPins reads the encoder CLK, DT and SW lines with pull-ups.
type EncoderPins struct {
	chip *gpiocdev.Chip
	clk  *gpiocdev.Line
	dt   *gpiocdev.Line
	sw   *gpiocdev.Line
}

var _ LevelReader = (*EncoderPins)(nil)

// NewEncoderPins requests the three encoder lines as inputs.
func NewEncoderPins(chipName string, clk, dt, sw int) (*EncoderPins, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	p := &EncoderPins{chip: chip}
	for _, req := range []struct {
		name   string
		offset int
		line   **gpiocdev.Line
	}{
		{"CLK", clk, &p.clk},
		{"DT", dt, &p.dt},
		{"SW", sw, &p.sw},
	} {
		l, err := chip.RequestLine(req.offset, gpiocdev.AsInput, gpiocdev.WithPullUp)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("request %s pin %d: %w", req.name, req.offset, err)
		}
		*req.line = l
	}
	return p, nil
}

// Levels returns the raw line levels.
func (p *EncoderPins) Levels() (rotary.Levels, error) {
	clk, err := p.clk.Value()
	if err != nil {
		return rotary.Levels{}, fmt.Errorf("read CLK pin: %w", err)
	}
	dt, err := p.dt.Value()
	if err != nil {
		return rotary.Levels{}, fmt.Errorf("read DT pin: %w", err)
	}
	sw, err := p.sw.Value()
	if err != nil {
		return rotary.Levels{}, fmt.Errorf("read SW pin: %w", err)
	}
	return rotary.Levels{CLK: clk == 1, DT: dt == 1, SW: sw == 1}, nil
}

// Close releases the lines.
func (p *EncoderPins) Close() error {
	var errs []error
	for _, l := range []*gpiocdev.Line{p.clk, p.dt, p.sw} {
		if l == nil {
			continue
		}
		if err := l.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if p.chip != nil {
		if err := p.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	return errors.Join(errs...)
}
