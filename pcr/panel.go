package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/gopcr/pkg/config"
	"github.com/itohio/gopcr/pkg/menu"
	"github.com/itohio/gopcr/pkg/rotary"
	"github.com/itohio/gopcr/pkg/sched"
	"github.com/itohio/gopcr/pkg/scope"
	"github.com/itohio/gopcr/pkg/trace"
	"github.com/womat/debug"
)

const (
	// Throttle scope redraws to ~30 FPS
	scopeInterval = 33 * time.Millisecond
	// Refresh rate of the character display rows
	displayInterval = 100 * time.Millisecond
	// Longest wait for the tank to vent before the clock is stopped
	ventTimeout = 2 * time.Minute
)

// panelState holds the front panel state.
type panelState struct {
	cfg        *config.Config
	configFile string
	window     fyne.Window

	scopeWidget *scope.ScopeWidget
	rows        [menu.Rows]*widget.Label
	connectBtn  *widget.Button
	inputBtns   []*widget.Button

	// inputs is buffered so button taps never block the UI thread
	inputs chan rotary.Input
	rig    *connection

	lastUpdateTime time.Time
	updateMu       sync.Mutex
}

// connection is a running control core and the goroutines serving it.
type connection struct {
	sys    *system
	clock  *sched.Ticker
	cancel context.CancelFunc
	done   chan struct{}
}

func runPanel(cfg *config.Config, configFile string) error {
	application := app.NewWithID("io.itohio.gopcr")

	window := application.NewWindow("Pressure Controller")
	window.Resize(fyne.NewSize(1000, 700))
	window.CenterOnScreen()

	state := &panelState{
		cfg:         cfg,
		configFile:  configFile,
		window:      window,
		scopeWidget: scope.New(float32(cfg.Telemetry.Window)),
		inputs:      make(chan rotary.Input, 16),
	}

	window.SetContent(container.NewBorder(
		createToolbar(state),
		createFrontPanel(state),
		nil,
		nil,
		state.scopeWidget,
	))
	var closing <-chan struct{}
	window.SetOnClosed(func() {
		closing = disconnect(state, false)
	})
	window.ShowAndRun()

	if closing != nil {
		<-closing
	}
	return nil
}

// createToolbar creates the toolbar with the Connect and Settings buttons.
func createToolbar(state *panelState) fyne.CanvasObject {
	state.connectBtn = widget.NewButtonWithIcon("Connect", theme.LoginIcon(), func() {
		handleConnect(state)
	})
	settingsBtn := widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		showSettingsDialog(state)
	})

	return container.NewBorder(
		nil,
		nil,
		container.NewHBox(state.connectBtn, settingsBtn),
		nil,
		nil,
	)
}

// createFrontPanel creates the character display and the encoder buttons.
func createFrontPanel(state *panelState) fyne.CanvasObject {
	lines := container.NewVBox()
	for i := range state.rows {
		l := widget.NewLabel(fmt.Sprintf("%-*s", menu.Columns, ""))
		l.TextStyle = fyne.TextStyle{Monospace: true}
		state.rows[i] = l
		lines.Add(l)
	}

	button := func(label string, in rotary.Input) *widget.Button {
		b := widget.NewButton(label, func() {
			select {
			case state.inputs <- in:
			default:
				debug.DebugLog.Printf("input %s dropped", in)
			}
		})
		b.Disable()
		state.inputBtns = append(state.inputBtns, b)
		return b
	}

	encoder := container.NewHBox(
		button("◀", rotary.Prev),
		button("●", rotary.Select),
		button("▶", rotary.Next),
	)

	return container.NewHBox(widget.NewCard("", "", lines), container.NewCenter(encoder))
}

// handleConnect handles the connect/disconnect button click.
func handleConnect(state *panelState) {
	if state.rig != nil {
		disconnect(state, true)
		return
	}

	if err := connect(state); err != nil {
		dialog.ShowError(err, state.window)
		return
	}
	state.connectBtn.SetText("Disconnect")
	state.connectBtn.SetIcon(theme.LogoutIcon())
	for _, b := range state.inputBtns {
		b.Enable()
	}
}

func connect(state *panelState) error {
	device, err := openDevice(state.cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to %s device: %w", state.cfg.Rig.Device, err)
	}

	sink, closeSink, err := openTelemetry(state.cfg)
	if err != nil {
		device.Close()
		return err
	}

	clock := sched.NewTicker(state.cfg.Rig.TickInterval)
	sys, err := newSystem(state.cfg, clock, device, sink)
	if err != nil {
		clock.Stop()
		device.Close()
		closeSink()
		return err
	}
	sys.closers = append(sys.closers, closeSink)
	if err := sys.attachMQTT(); err != nil {
		debug.ErrorLog.Printf("mqtt disabled: %v", err)
	}
	sys.startWeb()

	sys.recorder.OnUpdate(func(samples []trace.Sample) {
		state.updateMu.Lock()
		now := time.Now()
		if now.Sub(state.lastUpdateTime) < scopeInterval {
			state.updateMu.Unlock()
			return
		}
		state.lastUpdateTime = now
		state.updateMu.Unlock()

		fyne.Do(func() {
			state.scopeWidget.UpdateData(samples)
		})
	})

	ctx, cancel := context.WithCancel(context.Background())
	conn := &connection{
		sys:    sys,
		clock:  clock,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(conn.done)
		if err := sys.session.Serve(ctx, state.inputs); err != nil && ctx.Err() == nil {
			debug.ErrorLog.Print(err)
		}
	}()
	go refreshDisplay(ctx, state, sys)

	state.rig = conn
	debug.InfoLog.Printf("connected to %s device", state.cfg.Rig.Device)
	return nil
}

// disconnect aborts a running session and releases the rig in the
// background, so the UI stays responsive while the tank vents. The returned
// channel is closed once the rig is released. With restore set the panel
// buttons are brought back on the UI thread afterwards.
func disconnect(state *panelState, restore bool) <-chan struct{} {
	released := make(chan struct{})
	conn := state.rig
	if conn == nil {
		close(released)
		return released
	}
	state.rig = nil

	if state.connectBtn != nil {
		state.connectBtn.SetText("Venting...")
		state.connectBtn.Disable()
	}
	for _, b := range state.inputBtns {
		b.Disable()
	}

	go func() {
		defer close(released)

		if err := conn.close(ventTimeout); err != nil {
			debug.ErrorLog.Print(err)
		}
		debug.InfoLog.Print("disconnected")

		if !restore || state.connectBtn == nil {
			return
		}
		fyne.Do(func() {
			state.connectBtn.SetText("Connect")
			state.connectBtn.SetIcon(theme.LoginIcon())
			state.connectBtn.Enable()
		})
	}()
	return released
}

// close stops serving inputs, waits up to timeout for the session to vent and
// releases the rig. A vent that does not finish in time is cut short by
// stopping the clock.
func (c *connection) close(timeout time.Duration) error {
	c.cancel()

	select {
	case <-c.done:
	case <-time.After(timeout):
		debug.ErrorLog.Printf("tank did not vent within %s, halting", timeout)
		c.clock.Stop()
		<-c.done
	}

	c.clock.Stop()
	return c.sys.Close()
}

// refreshDisplay mirrors the menu rows onto the panel labels.
func refreshDisplay(ctx context.Context, state *panelState, sys *system) {
	t := time.NewTicker(displayInterval)
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
		fyne.Do(func() {
			for i, r := range rows {
				state.rows[i].SetText(r)
			}
		})
	}
}
