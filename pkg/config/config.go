package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/womat/debug"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Serial    SerialConfig    `yaml:"serial"`
	Rig       RigConfig       `yaml:"rig"`
	Waveform  WaveformConfig  `yaml:"waveform"`
	Sensor    SensorConfig    `yaml:"sensor"`
	Mock      MockConfig      `yaml:"mock"`
	GPIO      GPIOConfig      `yaml:"gpio"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Web       WebConfig       `yaml:"web"`
	Log       LogConfig       `yaml:"log"`
}

// SerialConfig contains serial port configuration of the rig MCU link.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// RigConfig contains the control loop timing and tolerances.
type RigConfig struct {
	Device            string             `yaml:"device"`             // mock, serial or gpio
	TickInterval      time.Duration      `yaml:"tick_interval"`      // Scheduling heartbeat
	MaxTicks          int                `yaml:"max_ticks"`          // Tick budget of a single ramp call
	SwitchingInterval float64            `yaml:"switching_interval"` // Seconds between two waveform points
	Tolerance         float64            `yaml:"tolerance"`          // Acceptance band fraction
	ToleranceByKind   map[string]float64 `yaml:"tolerance_by_kind"`  // Per waveform kind override
	RampShape         string             `yaml:"ramp_shape"`         // sine or triangle
}

// WaveformConfig contains the waveform selected at startup and the operator edit limits.
type WaveformConfig struct {
	Kind      string     `yaml:"kind"`
	Period    float64    `yaml:"period"`    // Seconds
	Amplitude float64    `yaml:"amplitude"` // Peak to peak, psi
	Offset    float64    `yaml:"offset"`    // psi
	Limits    EditLimits `yaml:"limits"`
}

// EditLimits bounds the values an operator can dial in with the encoder.
type EditLimits struct {
	PeriodMin     float64 `yaml:"period_min"`
	PeriodMax     float64 `yaml:"period_max"`
	PeriodStep    float64 `yaml:"period_step"`
	AmplitudeMax  float64 `yaml:"amplitude_max"`
	AmplitudeStep float64 `yaml:"amplitude_step"`
	OffsetMax     float64 `yaml:"offset_max"`
	OffsetStep    float64 `yaml:"offset_step"`
}

// SensorConfig describes the analog pressure transducer.
type SensorConfig struct {
	FullScale      float64 `yaml:"full_scale"`      // psi at VRef
	VRef           float64 `yaml:"vref"`            // Volts
	Resolution     int     `yaml:"resolution"`      // ADC bits
	AverageSamples int     `yaml:"average_samples"` // Number of reads to average (0 = disabled, default)
}

// MockConfig contains simulated tank configuration.
type MockConfig struct {
	Initial     float64 `yaml:"initial"`       // Starting pressure (psi)
	RatePerTick float64 `yaml:"rate_per_tick"` // Pressure change per tick while a channel is energized (psi)
	Leak        float64 `yaml:"leak"`          // Pressure lost every tick (psi)
	NoiseLevel  float64 `yaml:"noise_level"`   // Peak sensor noise (psi)
	Stuck       bool    `yaml:"stuck"`         // Sensor keeps reporting the initial value
}

// GPIOConfig contains Linux GPIO line offsets (BCM numbering).
type GPIOConfig struct {
	Chip         string        `yaml:"chip"`
	Compressor   int           `yaml:"compressor"`
	Exhaust      int           `yaml:"exhaust"`
	EncoderCLK   int           `yaml:"encoder_clk"`
	EncoderDT    int           `yaml:"encoder_dt"`
	EncoderSW    int           `yaml:"encoder_sw"`
	PollInterval time.Duration `yaml:"poll_interval"`
	Debounce     time.Duration `yaml:"debounce"`
}

// TelemetryConfig selects where telemetry lines are written.
type TelemetryConfig struct {
	Output   string `yaml:"output"` // stdout, serial port name or empty to disable
	BaudRate int    `yaml:"baud_rate"`
	Window   int    `yaml:"window_seconds"` // Trace history kept for the scope
}

// MQTTConfig contains the broker connection.
type MQTTConfig struct {
	Broker   string `yaml:"broker"` // Empty disables publishing
	ClientID string `yaml:"client_id"`
	Prefix   string `yaml:"prefix"`
}

// WebConfig contains the status API listen address.
type WebConfig struct {
	Listen string `yaml:"listen"` // Empty disables the API
}

// LogConfig contains logging configuration.
type LogConfig struct {
	Level string `yaml:"level"` // standard, debug or trace
	File  string `yaml:"file"`  // stderr, stdout or a file path
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:     "COM3", // Default for Windows, should be "/dev/ttyACM0" on Linux/Mac
			BaudRate: 115200,
		},
		Rig: RigConfig{
			Device:            "mock",
			TickInterval:      100 * time.Millisecond,
			MaxTicks:          5,
			SwitchingInterval: 0.5,
			Tolerance:         0.1,
			ToleranceByKind:   map[string]float64{},
			RampShape:         "sine",
		},
		Waveform: WaveformConfig{
			Kind:      "const",
			Period:    10,
			Amplitude: 10,
			Offset:    20,
			Limits: EditLimits{
				PeriodMin:     2,
				PeriodMax:     60,
				PeriodStep:    1,
				AmplitudeMax:  100,
				AmplitudeStep: 1,
				OffsetMax:     50,
				OffsetStep:    1,
			},
		},
		Sensor: SensorConfig{
			FullScale:  100,
			VRef:       3.3,
			Resolution: 12,
		},
		Mock: MockConfig{
			Initial:     0,
			RatePerTick: 0.278, // 2.78 psi/s at a 100 ms tick
			Leak:        0,
			NoiseLevel:  0,
		},
		GPIO: GPIOConfig{
			Chip:         "gpiochip0",
			Compressor:   17,
			Exhaust:      27,
			EncoderCLK:   5,
			EncoderDT:    6,
			EncoderSW:    13,
			PollInterval: time.Millisecond,
			Debounce:     2 * time.Millisecond,
		},
		Telemetry: TelemetryConfig{
			Output:   "stdout",
			BaudRate: 115200,
			Window:   60,
		},
		MQTT: MQTTConfig{
			ClientID: "gopcr",
			Prefix:   "rig/pressure",
		},
		Log: LogConfig{
			Level: "standard",
			File:  "stderr",
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist, return defaults
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate rejects values the control loop cannot run with.
func (c *Config) Validate() error {
	if c.Rig.Tolerance <= 0 || c.Rig.Tolerance >= 1 {
		return fmt.Errorf("rig.tolerance must be in (0,1), got %v", c.Rig.Tolerance)
	}
	for kind, tol := range c.Rig.ToleranceByKind {
		if tol <= 0 || tol >= 1 {
			return fmt.Errorf("rig.tolerance_by_kind[%s] must be in (0,1), got %v", kind, tol)
		}
	}
	switch c.Rig.RampShape {
	case "sine", "triangle":
	default:
		return fmt.Errorf("rig.ramp_shape must be sine or triangle, got %q", c.Rig.RampShape)
	}
	switch c.Rig.Device {
	case "mock", "serial", "gpio":
	default:
		return fmt.Errorf("rig.device must be mock, serial or gpio, got %q", c.Rig.Device)
	}
	if c.Waveform.Limits.PeriodMin > c.Waveform.Limits.PeriodMax {
		return fmt.Errorf("waveform.limits: period_min %v exceeds period_max %v",
			c.Waveform.Limits.PeriodMin, c.Waveform.Limits.PeriodMax)
	}
	return nil
}

// TicksPerPoint returns how many scheduler ticks fit into one waveform switching interval.
func (c *Config) TicksPerPoint() int {
	n := int(c.Rig.SwitchingInterval*float64(time.Second)/float64(c.Rig.TickInterval) + 0.5)
	if n < 1 {
		n = 1
	}
	return n
}

// LogOutput opens the configured log sink and returns it along with the
// debug flag matching the configured level.
func (c *LogConfig) LogOutput() (io.WriteCloser, int, error) {
	var flag int
	switch c.Level {
	case "trace", "full":
		flag = debug.Full
	case "debug":
		flag = debug.Warning | debug.Info | debug.Error | debug.Fatal | debug.Debug
	default:
		flag = debug.Standard
	}

	switch c.File {
	case "", "stderr":
		return nopCloser{os.Stderr}, flag, nil
	case "stdout":
		return nopCloser{os.Stdout}, flag, nil
	}

	f, err := os.OpenFile(c.File, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open log file %q: %w", c.File, err)
	}
	return f, flag, nil
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}

	if c.Rig.Device == "" {
		c.Rig.Device = def.Rig.Device
	}
	if c.Rig.TickInterval == 0 {
		c.Rig.TickInterval = def.Rig.TickInterval
	}
	if c.Rig.MaxTicks == 0 {
		c.Rig.MaxTicks = def.Rig.MaxTicks
	}
	if c.Rig.SwitchingInterval == 0 {
		c.Rig.SwitchingInterval = def.Rig.SwitchingInterval
	}
	if c.Rig.Tolerance == 0 {
		c.Rig.Tolerance = def.Rig.Tolerance
	}
	if c.Rig.ToleranceByKind == nil {
		c.Rig.ToleranceByKind = def.Rig.ToleranceByKind
	}
	if c.Rig.RampShape == "" {
		c.Rig.RampShape = def.Rig.RampShape
	}

	if c.Waveform.Kind == "" {
		c.Waveform.Kind = def.Waveform.Kind
	}
	if c.Waveform.Period == 0 {
		c.Waveform.Period = def.Waveform.Period
	}
	if c.Waveform.Limits == (EditLimits{}) {
		c.Waveform.Limits = def.Waveform.Limits
	}

	if c.Sensor.FullScale == 0 {
		c.Sensor.FullScale = def.Sensor.FullScale
	}
	if c.Sensor.VRef == 0 {
		c.Sensor.VRef = def.Sensor.VRef
	}
	if c.Sensor.Resolution == 0 {
		c.Sensor.Resolution = def.Sensor.Resolution
	}

	if c.Mock.RatePerTick == 0 {
		c.Mock.RatePerTick = def.Mock.RatePerTick
	}

	if c.GPIO.Chip == "" {
		c.GPIO.Chip = def.GPIO.Chip
	}
	if c.GPIO.PollInterval == 0 {
		c.GPIO.PollInterval = def.GPIO.PollInterval
	}

	if c.Telemetry.BaudRate == 0 {
		c.Telemetry.BaudRate = def.Telemetry.BaudRate
	}
	if c.Telemetry.Window == 0 {
		c.Telemetry.Window = def.Telemetry.Window
	}

	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = def.MQTT.ClientID
	}
	if c.MQTT.Prefix == "" {
		c.MQTT.Prefix = def.MQTT.Prefix
	}

	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.File == "" {
		c.Log.File = def.Log.File
	}
}
