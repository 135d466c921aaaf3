package main

import (
	"fmt"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/gopcr/pkg/link"
	"github.com/itohio/gopcr/pkg/wave"
)

// showSettingsDialog displays a settings dialog with tabs for all configuration options.
func showSettingsDialog(state *panelState) {
	tabs := container.NewAppTabs(
		createSerialTab(state),
		createWaveformTab(state),
		createRigTab(state),
		createMockTab(state),
	)

	content := container.NewBorder(nil, nil, nil, nil, tabs)
	content.Resize(fyne.NewSize(600, 500))

	d := dialog.NewCustom("Settings", "Close", content, state.window)
	d.Resize(fyne.NewSize(600, 500))
	d.Show()
}

// save validates and persists the configuration. Changes apply on the next connect.
func save(state *panelState) {
	if err := state.cfg.Validate(); err != nil {
		dialog.ShowError(err, state.window)
		return
	}
	if err := state.cfg.Save(state.configFile); err != nil {
		dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
		return
	}
	if state.rig != nil {
		dialog.ShowInformation("Settings", "Reconnect to apply the new settings.", state.window)
	}
}

// createSerialTab creates the Serial configuration tab.
func createSerialTab(state *panelState) *container.TabItem {
	ports, err := link.Ports()
	portOptions := []string{}
	portMap := make(map[string]string)

	if err == nil {
		for _, port := range ports {
			displayName := port.Name
			if port.Description != "" && port.Description != port.Name {
				displayName = fmt.Sprintf("%s (%s)", port.Name, port.Description)
			}
			portOptions = append(portOptions, displayName)
			portMap[displayName] = port.Name
		}
	}

	currentDisplay := state.cfg.Serial.Port
	found := false
	for _, opt := range portOptions {
		if portMap[opt] == state.cfg.Serial.Port {
			currentDisplay = opt
			found = true
			break
		}
	}
	if !found && state.cfg.Serial.Port != "" {
		portOptions = append(portOptions, state.cfg.Serial.Port)
		portMap[state.cfg.Serial.Port] = state.cfg.Serial.Port
	}

	portSelect := widget.NewSelect(portOptions, nil)
	if currentDisplay != "" {
		portSelect.SetSelected(currentDisplay)
	}

	deviceSelect := widget.NewSelect([]string{"mock", "serial", "gpio"}, nil)
	deviceSelect.SetSelected(state.cfg.Rig.Device)

	telemetryEntry := widget.NewEntry()
	telemetryEntry.SetText(state.cfg.Telemetry.Output)
	telemetryEntry.SetPlaceHolder("stdout, port name or empty")

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Device", Widget: deviceSelect},
			{Text: "Serial Port", Widget: portSelect},
			{Text: "Telemetry Output", Widget: telemetryEntry},
		},
		OnSubmit: func() {
			if portSelect.Selected != "" {
				selected := portMap[portSelect.Selected]
				if selected == "" {
					selected = portSelect.Selected
				}
				state.cfg.Serial.Port = selected
			}
			if deviceSelect.Selected != "" {
				state.cfg.Rig.Device = deviceSelect.Selected
			}
			state.cfg.Telemetry.Output = telemetryEntry.Text
			save(state)
		},
	}

	return container.NewTabItem("Serial", form)
}

// createWaveformTab creates the tab selecting the waveform loaded on connect.
func createWaveformTab(state *panelState) *container.TabItem {
	var kinds []string
	for _, k := range wave.Kinds {
		kinds = append(kinds, k.String())
	}
	kindSelect := widget.NewSelect(kinds, nil)
	kindSelect.SetSelected(state.cfg.Waveform.Kind)

	periodEntry := widget.NewEntry()
	periodEntry.SetText(fmt.Sprintf("%.0f", state.cfg.Waveform.Period))

	amplitudeEntry := widget.NewEntry()
	amplitudeEntry.SetText(fmt.Sprintf("%.1f", state.cfg.Waveform.Amplitude))

	offsetEntry := widget.NewEntry()
	offsetEntry.SetText(fmt.Sprintf("%.1f", state.cfg.Waveform.Offset))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Wave", Widget: kindSelect},
			{Text: "Period (s)", Widget: periodEntry},
			{Text: "Amplitude (psi)", Widget: amplitudeEntry},
			{Text: "Offset (psi)", Widget: offsetEntry},
		},
		OnSubmit: func() {
			if kindSelect.Selected != "" {
				state.cfg.Waveform.Kind = kindSelect.Selected
			}
			if v, err := strconv.ParseFloat(periodEntry.Text, 64); err == nil {
				state.cfg.Waveform.Period = v
			}
			if v, err := strconv.ParseFloat(amplitudeEntry.Text, 64); err == nil {
				state.cfg.Waveform.Amplitude = v
			}
			if v, err := strconv.ParseFloat(offsetEntry.Text, 64); err == nil {
				state.cfg.Waveform.Offset = v
			}
			save(state)
		},
	}

	return container.NewTabItem("Waveform", form)
}

// createRigTab creates the control loop configuration tab.
func createRigTab(state *panelState) *container.TabItem {
	tickEntry := widget.NewEntry()
	tickEntry.SetText(state.cfg.Rig.TickInterval.String())

	maxTicksEntry := widget.NewEntry()
	maxTicksEntry.SetText(strconv.Itoa(state.cfg.Rig.MaxTicks))

	switchingEntry := widget.NewEntry()
	switchingEntry.SetText(fmt.Sprintf("%.2f", state.cfg.Rig.SwitchingInterval))

	toleranceEntry := widget.NewEntry()
	toleranceEntry.SetText(fmt.Sprintf("%.3f", state.cfg.Rig.Tolerance))

	shapeSelect := widget.NewSelect([]string{"sine", "triangle"}, nil)
	shapeSelect.SetSelected(state.cfg.Rig.RampShape)

	averageEntry := widget.NewEntry()
	averageEntry.SetText(strconv.Itoa(state.cfg.Sensor.AverageSamples))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Tick Interval", Widget: tickEntry},
			{Text: "Max Ticks per Ramp", Widget: maxTicksEntry},
			{Text: "Switching Interval (s)", Widget: switchingEntry},
			{Text: "Tolerance (fraction)", Widget: toleranceEntry},
			{Text: "Ramp Shape", Widget: shapeSelect},
			{Text: "Average Samples (0=disabled)", Widget: averageEntry},
		},
		OnSubmit: func() {
			if d, err := time.ParseDuration(tickEntry.Text); err == nil {
				state.cfg.Rig.TickInterval = d
			}
			if n, err := strconv.Atoi(maxTicksEntry.Text); err == nil {
				state.cfg.Rig.MaxTicks = n
			}
			if v, err := strconv.ParseFloat(switchingEntry.Text, 64); err == nil {
				state.cfg.Rig.SwitchingInterval = v
			}
			if v, err := strconv.ParseFloat(toleranceEntry.Text, 64); err == nil {
				state.cfg.Rig.Tolerance = v
			}
			if shapeSelect.Selected != "" {
				state.cfg.Rig.RampShape = shapeSelect.Selected
			}
			if n, err := strconv.Atoi(averageEntry.Text); err == nil {
				state.cfg.Sensor.AverageSamples = n
			}
			save(state)
		},
	}

	return container.NewTabItem("Rig", form)
}

// createMockTab creates the simulated tank configuration tab.
func createMockTab(state *panelState) *container.TabItem {
	initialEntry := widget.NewEntry()
	initialEntry.SetText(fmt.Sprintf("%.2f", state.cfg.Mock.Initial))

	rateEntry := widget.NewEntry()
	rateEntry.SetText(fmt.Sprintf("%.3f", state.cfg.Mock.RatePerTick))

	leakEntry := widget.NewEntry()
	leakEntry.SetText(fmt.Sprintf("%.4f", state.cfg.Mock.Leak))

	noiseEntry := widget.NewEntry()
	noiseEntry.SetText(fmt.Sprintf("%.4f", state.cfg.Mock.NoiseLevel))

	stuckCheck := widget.NewCheck("", nil)
	stuckCheck.SetChecked(state.cfg.Mock.Stuck)

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Initial (psi)", Widget: initialEntry},
			{Text: "Rate per Tick (psi)", Widget: rateEntry},
			{Text: "Leak per Tick (psi)", Widget: leakEntry},
			{Text: "Noise Level (psi)", Widget: noiseEntry},
			{Text: "Stuck Sensor", Widget: stuckCheck},
		},
		OnSubmit: func() {
			if v, err := strconv.ParseFloat(initialEntry.Text, 64); err == nil {
				state.cfg.Mock.Initial = v
			}
			if v, err := strconv.ParseFloat(rateEntry.Text, 64); err == nil {
				state.cfg.Mock.RatePerTick = v
			}
			if v, err := strconv.ParseFloat(leakEntry.Text, 64); err == nil {
				state.cfg.Mock.Leak = v
			}
			if v, err := strconv.ParseFloat(noiseEntry.Text, 64); err == nil {
				state.cfg.Mock.NoiseLevel = v
			}
			state.cfg.Mock.Stuck = stuckCheck.Checked
			save(state)
		},
	}

	return container.NewTabItem("Mock", form)
}
