//go:build tinygo

package main

import (
	"machine"
	"sync"

	"github.com/itohio/gopcr/pkg/rig"
	"github.com/itohio/gopcr/pkg/rotary"
)

// valves drives the compressor and exhaust outputs.
type valves struct {
	mu      sync.Mutex
	channel rig.Channel
}

func newValves() *valves {
	PIN_COMPRESSOR.Configure(machine.PinConfig{Mode: machine.PinOutput})
	PIN_EXHAUST.Configure(machine.PinConfig{Mode: machine.PinOutput})
	PIN_COMPRESSOR.Low()
	PIN_EXHAUST.Low()
	return &valves{}
}

// Set releases both outputs before energizing the requested one.
func (v *valves) Set(ch rig.Channel) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	PIN_COMPRESSOR.Low()
	PIN_EXHAUST.Low()
	switch ch {
	case rig.Raise:
		PIN_COMPRESSOR.High()
	case rig.Lower:
		PIN_EXHAUST.High()
	}
	v.channel = ch
	return nil
}

func (v *valves) Channel() rig.Channel {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.channel
}

// transducer reads the pressure sensor.
type transducer struct {
	adc machine.ADC
}

func newTransducer() *transducer {
	machine.InitADC()
	PIN_PRESSURE.Configure(machine.PinConfig{Mode: machine.PinAnalog})
	adc := machine.ADC{Pin: PIN_PRESSURE}
	adc.Configure(machine.ADCConfig{Reference: ADC_REFERENCE_MV})
	return &transducer{adc: adc}
}

func (t *transducer) Read() (float32, error) {
	return rig.ADCToPressure(t.adc.Get(), ADC_RESOLUTION, FULL_SCALE_PSI), nil
}

// encoderPins samples the rotary encoder lines.
type encoderPins struct{}

func newEncoderPins() encoderPins {
	for _, p := range []machine.Pin{PIN_ENC_CLK, PIN_ENC_DT, PIN_ENC_SW} {
		p.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	}
	return encoderPins{}
}

func (encoderPins) Levels() (rotary.Levels, error) {
	return rotary.Levels{
		CLK: PIN_ENC_CLK.Get(),
		DT:  PIN_ENC_DT.Get(),
		SW:  PIN_ENC_SW.Get(),
	}, nil
}

func (encoderPins) Close() error { return nil }
