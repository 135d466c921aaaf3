//go:build tinygo

package main

import (
	"machine"
	"time"
)

const (
	// Valve outputs (high = energized)
	PIN_COMPRESSOR = machine.D7
	PIN_EXHAUST    = machine.D8

	// Rotary encoder inputs, pulled up
	PIN_ENC_CLK = machine.D1
	PIN_ENC_DT  = machine.D2
	PIN_ENC_SW  = machine.D3

	// Pressure transducer, 0 V at 0 psi and 3.3 V at full scale
	PIN_PRESSURE = machine.A0

	// ADC.Get scales every reading to 16 bits regardless of the hardware resolution
	ADC_RESOLUTION   = 16
	ADC_REFERENCE_MV = 3300
	FULL_SCALE_PSI   = 100
	AVERAGE_SAMPLES  = 4

	// 20x4 character LCD behind a PCF8574 backpack on I2C0 (D4 SDA, D5 SCL)
	LCD_ADDRESS = 0x27

	// Control loop
	TICK_INTERVAL  = 100 * time.Millisecond
	MAX_TICKS      = 5
	TICKS_PER_STEP = 5 // switching interval / tick interval

	ENC_POLL_INTERVAL = time.Millisecond
	ENC_DEBOUNCE      = 2 * time.Millisecond
	LCD_REFRESH       = 200 * time.Millisecond

	// One "%.2f\r\n" line per tick: ~8 bytes at 10 Hz
	UART_BAUD_RATE = 115200
)
