package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/itohio/gopcr/pkg/config"
	"github.com/itohio/gopcr/pkg/gpio"
	"github.com/itohio/gopcr/pkg/link"
	"github.com/itohio/gopcr/pkg/menu"
	"github.com/itohio/gopcr/pkg/rotary"
	"github.com/itohio/gopcr/pkg/sched"
	"github.com/womat/debug"
)

// runHeadless runs the control core until SIGINT or SIGTERM. A running
// session is vented before returning.
func runHeadless(parent context.Context, cfg *config.Config, start bool) error {
	device, err := openDevice(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to %s device: %w", cfg.Rig.Device, err)
	}

	sink, closeSink, err := openTelemetry(cfg)
	if err != nil {
		device.Close()
		return err
	}

	clock := sched.NewTicker(cfg.Rig.TickInterval)
	sys, err := newSystem(cfg, clock, device, sink)
	if err != nil {
		clock.Stop()
		device.Close()
		closeSink()
		return err
	}
	sys.closers = append(sys.closers, closeSink)
	defer func() {
		clock.Stop()
		if err := sys.Close(); err != nil {
			debug.ErrorLog.Print(err)
		}
		if n := clock.Missed(); n > 0 {
			debug.InfoLog.Printf("%d ticks coalesced", n)
		}
	}()

	if err := sys.attachMQTT(); err != nil {
		debug.ErrorLog.Printf("mqtt disabled: %v", err)
	}
	sys.startWeb()

	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)
	go func() {
		select {
		case <-quit:
			debug.InfoLog.Print("shutting down")
			cancel()
		case <-ctx.Done():
		}
	}()

	inputs, err := openInputs(ctx, cfg, sys)
	if err != nil {
		return err
	}

	if start {
		if err := sys.start(); err != nil {
			return err
		}
	}

	go logDisplay(ctx, sys)

	debug.InfoLog.Printf("%s controller ready on %s device", sys.kind, cfg.Rig.Device)
	if err := sys.session.Serve(ctx, inputs); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// openInputs returns the operator inputs: the rotary encoder on GPIO rigs,
// keyboard keys otherwise.
func openInputs(ctx context.Context, cfg *config.Config, sys *system) (<-chan rotary.Input, error) {
	if cfg.Rig.Device == "gpio" {
		pins, err := gpio.NewEncoderPins(cfg.GPIO.Chip, cfg.GPIO.EncoderCLK, cfg.GPIO.EncoderDT, cfg.GPIO.EncoderSW)
		if err != nil {
			return nil, err
		}
		sys.closers = append(sys.closers, pins.Close)

		enc := gpio.NewEncoder(pins, cfg.GPIO.Debounce, cfg.GPIO.PollInterval)
		go enc.Run(ctx)
		return enc.Inputs(), nil
	}

	debug.InfoLog.Print("keys: a=prev d=next s or enter=select")
	return readKeys(os.Stdin), nil
}

// readKeys turns keyboard lines into encoder inputs. The channel stays open
// at end of input so that a detached process keeps running.
func readKeys(r io.Reader) <-chan rotary.Input {
	ch := make(chan rotary.Input, 16)
	go func() {
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			for _, in := range keyInputs(scanner.Text()) {
				ch <- in
			}
		}
		if err := scanner.Err(); err != nil {
			debug.ErrorLog.Printf("keyboard: %v", err)
		}
	}()
	return ch
}

// keyInputs maps one line of keys to inputs. An empty line is a press.
func keyInputs(line string) []rotary.Input {
	line = strings.TrimSpace(strings.ToLower(line))
	if line == "" {
		return []rotary.Input{rotary.Select}
	}

	var res []rotary.Input
	for _, c := range line {
		switch c {
		case 'a', '<', '-':
			res = append(res, rotary.Prev)
		case 'd', '>', '+':
			res = append(res, rotary.Next)
		case 's':
			res = append(res, rotary.Select)
		}
	}
	return res
}

// logDisplay logs the display rows whenever they change.
func logDisplay(ctx context.Context, sys *system) {
	t := time.NewTicker(time.Second)
	defer t.Stop()

	var last [menu.Rows]string
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}

		rows := sys.session.Display()
		if rows == last {
			continue
		}
		last = rows
		debug.InfoLog.Printf("|%s|%s|%s|%s|", rows[0], rows[1], rows[2], rows[3])
	}
}

// listPorts prints the serial ports found on this machine.
func listPorts(w io.Writer) error {
	ports, err := link.Ports()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Fprintln(w, "no serial ports found")
		return nil
	}
	for _, p := range ports {
		if p.Description != "" && p.Description != p.Name {
			fmt.Fprintf(w, "%s\t%s\n", p.Name, p.Description)
			continue
		}
		fmt.Fprintln(w, p.Name)
	}
	return nil
}
