//go:build tinygo

//go:generate tinygo flash -target=xiao

package main

import (
	"context"
	"io"
	"machine"
	"time"

	"github.com/itohio/gopcr/pkg/gpio"
	"github.com/itohio/gopcr/pkg/menu"
	"github.com/itohio/gopcr/pkg/pressure"
	"github.com/itohio/gopcr/pkg/ramp"
	"github.com/itohio/gopcr/pkg/rig"
	"github.com/itohio/gopcr/pkg/sched"
	"github.com/itohio/gopcr/pkg/session"
	"github.com/itohio/gopcr/pkg/telemetry"
	"github.com/itohio/gopcr/pkg/wave"
	"github.com/womat/debug"
	"tinygo.org/x/drivers/hd44780i2c"
)

var (
	uart = machine.UART0

	defaultParams = wave.Params{Period: 10, Amplitude: 10, Offset: 20}
)

func main() {
	// The UART carries telemetry only
	debug.SetDebug(io.Discard, debug.Standard)

	uart.Configure(machine.UARTConfig{BaudRate: UART_BAUD_RATE})
	out := telemetry.NewWriter(uart)

	v := newValves()
	device := rig.Combine(v, rig.NewAveraging(newTransducer(), AVERAGE_SAMPLES))
	device.Connect()

	machine.I2C0.Configure(machine.I2CConfig{})
	lcd := hd44780i2c.New(machine.I2C0, LCD_ADDRESS)
	lcd.Configure(hd44780i2c.Config{Width: menu.Columns, Height: menu.Rows})

	clock := sched.NewTicker(TICK_INTERVAL)
	ctx := sched.NewContext(clock)

	var initial pressure.State
	initial.SetParams(wave.Sine, defaultParams)
	state := pressure.NewTracker(initial)

	engine := ramp.New(ctx, device, state, ramp.WithMaxTicks(MAX_TICKS), ramp.WithSink(out))
	ctrl := session.New(ctx, engine, state, menu.New(wave.Sine, defaultParams, menu.DefaultLimits()), session.Config{
		Generator:       wave.Generator{SwitchingInterval: wave.DefaultSwitchingInterval},
		Tolerance:       0.1,
		ToleranceByKind: map[wave.Kind]float32{wave.Sine: 0.2},
		TicksPerPoint:   TICKS_PER_STEP,
	})

	enc := gpio.NewEncoder(newEncoderPins(), ENC_DEBOUNCE, ENC_POLL_INTERVAL)
	bg := context.Background()

	go enc.Run(bg)
	go refreshLCD(&lcd, ctrl)
	go remote(ctrl, device, out)

	ctrl.Serve(bg, enc.Inputs())
}

// refreshLCD mirrors the menu rows onto the character display.
func refreshLCD(lcd *hd44780i2c.Device, ctrl *session.Controller) {
	var last [menu.Rows]string
	for {
		rows := ctrl.Display()
		for i, r := range rows {
			if r == last[i] {
				continue
			}
			lcd.SetCursor(0, uint8(i))
			lcd.Print([]byte(r))
		}
		last = rows
		time.Sleep(LCD_REFRESH)
	}
}

// remote lets a host drive the valves while no session runs: one pressure
// line goes out every tick, and "H", "R" or "L" lines select the channel.
// Host commands are ignored while a local session owns the valves.
func remote(ctrl *session.Controller, device rig.Device, out telemetry.Sink) {
	var cmd rig.CommandReader
	for {
		time.Sleep(TICK_INTERVAL)

		idle := ctrl.State() == session.Idle
		for uart.Buffered() > 0 {
			b, err := uart.ReadByte()
			if err != nil {
				break
			}
			ch, ok := cmd.Feed(b)
			if ok && idle {
				device.Set(ch)
			}
		}

		if !idle {
			continue
		}
		if p, err := device.Read(); err == nil {
			out.Emit(p)
		}
	}
}
