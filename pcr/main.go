package main

import (
	"os"
	"sort"

	"github.com/itohio/gopcr/pkg/config"
	"github.com/itohio/gopcr/pkg/web"
	"github.com/urfave/cli/v2"
	"github.com/womat/debug"
)

// flags holds command line overrides of the configuration file.
type flags struct {
	config string
	port   string
	device string
	log    string
	mock   bool
}

func main() {
	exitCode := 1
	defer func() {
		os.Exit(exitCode)
	}()

	var f flags
	var sim simFlags
	var start bool

	cliApp := &cli.App{
		Name:    web.MODULE,
		Usage:   "closed loop pressure controller for the pneumatic test rig",
		Version: web.VERSION,
		UsageText: "pcr [--config <file>] [--device mock|serial|gpio] <command>" +
			"\n\nEXAMPLE:" +
			"\n\tplay the configured waveform on a simulated tank" +
			"\n\t\tpcr --mock run --start",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Destination: &f.config, Value: "config.yaml", Usage: "load configuration from `FILE`"},
			&cli.StringFlag{Name: "port", Aliases: []string{"p"}, Destination: &f.port, Usage: "serial `PORT` of the rig MCU (e.g. COM3 or /dev/ttyACM0)"},
			&cli.StringFlag{Name: "device", Aliases: []string{"d"}, Destination: &f.device, Usage: "rig `DEVICE` (mock|serial|gpio)"},
			&cli.StringFlag{Name: "log", Aliases: []string{"l"}, Destination: &f.log, Usage: "`LEVEL` defines the log level (standard|debug|trace)"},
			&cli.BoolFlag{Name: "mock", Aliases: []string{"m"}, Destination: &f.mock, Usage: "use the simulated tank instead of hardware"},
		},
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run the controller headless, operated by the encoder or the keyboard",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "start", Aliases: []string{"s"}, Destination: &start, Usage: "start the configured waveform right away"},
				},
				Action: func(ctx *cli.Context) error {
					return withConfig(f, func(cfg *config.Config) error {
						return runHeadless(ctx.Context, cfg, start)
					})
				},
			},
			{
				Name:  "panel",
				Usage: "show the front panel with the display, encoder buttons and pressure scope",
				Action: func(ctx *cli.Context) error {
					return withConfig(f, func(cfg *config.Config) error {
						return runPanel(cfg, f.config)
					})
				},
			},
			{
				Name:  "ports",
				Usage: "list serial ports",
				Action: func(ctx *cli.Context) error {
					return listPorts(os.Stdout)
				},
			},
			{
				Name:  "sim",
				Usage: "run a waveform against the simulated tank on a virtual clock and print telemetry",
				Flags: sim.cliFlags(),
				Action: func(ctx *cli.Context) error {
					sim.markSet(ctx)
					return withConfig(f, func(cfg *config.Config) error {
						res, err := simulate(cfg, sim, os.Stdout)
						if err != nil {
							return err
						}
						debug.InfoLog.Printf("simulation finished: %s", res)
						return nil
					})
				},
			},
		},
	}

	sort.Sort(cli.FlagsByName(cliApp.Flags))
	sort.Sort(cli.CommandsByName(cliApp.Commands))

	if err := cliApp.Run(os.Args); err != nil {
		debug.FatalLog.Print(err)
		return
	}
	exitCode = 0
}

// withConfig loads the configuration, applies the flags, sets up logging and
// runs fn.
func withConfig(f flags, fn func(cfg *config.Config) error) error {
	cfg, err := config.Load(f.config)
	if err != nil {
		return err
	}
	if err := applyFlags(cfg, f); err != nil {
		return err
	}

	out, flag, err := cfg.Log.LogOutput()
	if err != nil {
		return err
	}
	debug.SetDebug(out, flag)
	defer out.Close()

	return fn(cfg)
}

// applyFlags overrides configuration values given on the command line.
func applyFlags(cfg *config.Config, f flags) error {
	if f.port != "" {
		cfg.Serial.Port = f.port
	}
	if f.device != "" {
		cfg.Rig.Device = f.device
	}
	if f.mock {
		cfg.Rig.Device = "mock"
	}
	if f.log != "" {
		cfg.Log.Level = f.log
	}
	return cfg.Validate()
}
