// Package osd holds the firmware pieces that both the device build and the
// host simulator run: chip setup from the stored settings and the panel
// redraw timer.
package osd

import (
	"osdcon/core"
	"osdcon/max7456"
	"osdcon/settings"
)

// RefreshPeriod is the panel redraw interval in milliseconds.
const RefreshPeriod = 100

// VideoConfig returns the chip setup stored in the video section.
func VideoConfig(s *settings.Store) max7456.Config {
	u8 := func(name string) uint8 {
		opt, ok := s.Lookup(name)
		if !ok {
			return 0
		}
		return s.ReadU8(opt)
	}
	cfg := max7456.Config{
		Mode:       max7456.PAL,
		HOffset:    u8("video_h_offset"),
		VOffset:    u8("video_v_offset"),
		Brightness: u8("video_brightness"),
	}
	if u8(settings.OptVideoMode) != 0 {
		cfg.Mode = max7456.NTSC
	}
	return cfg
}

// Panels redraws the panels that do not depend on telemetry.
type Panels struct {
	Settings *settings.Store
	Chip     *max7456.Device
}

// Timer returns a scheduler timer running Draw every RefreshPeriod from now.
func (p *Panels) Timer() *core.Timer {
	return &core.Timer{
		WakeTime: core.Millis(),
		Period:   RefreshPeriod,
		Handler:  p.Draw,
	}
}

// Draw is the timer handler. A chip error stops the redraw.
func (p *Panels) Draw(t *core.Timer) uint8 {
	opt, ok := p.Settings.Lookup(settings.OptCallsign)
	if !ok {
		return core.SF_DONE
	}
	callsign := p.Settings.ReadStr(opt)
	row := p.Chip.Rows() - 2
	for i := 0; i < len(callsign); i++ {
		if err := p.Chip.Put(uint8(1+i), row, callsign[i]); err != nil {
			core.DebugPrintln("[OSD] panel draw: " + err.Error())
			return core.SF_DONE
		}
	}
	return core.SF_RESCHEDULE
}
