// Package sim runs the OSD firmware stack on the host: the UART rings fed
// by a uart.Stream, the settings store on a host EEPROM image, an emulated
// MAX7456 and the console with its command table, driven by the same
// foreground loop the device runs.
package sim

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"tinygo.org/x/drivers"

	"osdcon/commands"
	"osdcon/console"
	"osdcon/core"
	"osdcon/eeprom"
	"osdcon/max7456"
	"osdcon/osd"
	"osdcon/settings"
	"osdcon/uart"
)

var errReset = errors.New("watchdog reset")

// Panic values that unwind the foreground loop.
type (
	powerOff      struct{}
	watchdogReset struct{}
)

// Hardware is what the simulated board is wired to.
type Hardware struct {
	// Line carries the console UART, usually a *uart.Stream.
	Line uart.Line
	// EEPROM holds the settings.
	EEPROM eeprom.Storage
	// Bus reaches the video-overlay chip.
	Bus drivers.SPI
	// CS selects the chip on Bus; nil when Bus frames transactions.
	CS max7456.Pin
}

// Firmware is the assembled OSD.
type Firmware struct {
	uart     *uart.UART
	settings *settings.Store
	osd      *max7456.Device
	port     *consolePort
	console  *console.Console
	sched    core.Scheduler
	resets   atomic.Int32

	// Idle is slept when the foreground loop has nothing to do.
	Idle time.Duration
}

// New wires the firmware to hw. Nothing runs until Run.
func New(hw Hardware) (*Firmware, error) {
	store, err := settings.NewDefault(hw.EEPROM)
	if err != nil {
		return nil, err
	}
	f := &Firmware{
		uart:     uart.New(hw.Line),
		settings: store,
		osd:      max7456.New(hw.Bus, hw.CS),
		Idle:     time.Millisecond,
	}
	if s, ok := hw.Line.(*uart.Stream); ok {
		s.Attach(f.uart)
	}
	return f, nil
}

// UART returns the console UART.
func (f *Firmware) UART() *uart.UART {
	return f.uart
}

// Settings returns the settings store.
func (f *Firmware) Settings() *settings.Store {
	return f.settings
}

// OSD returns the video-overlay chip driver.
func (f *Firmware) OSD() *max7456.Device {
	return f.osd
}

// Resets returns how many watchdog resets have happened.
func (f *Firmware) Resets() int {
	return int(f.resets.Load())
}

// Boot initializes the peripherals from the stored settings. A blank
// EEPROM is first reset to defaults.
func (f *Firmware) Boot() error {
	if f.settings.Blank() {
		core.DebugPrintln("[FW] blank EEPROM, writing defaults")
		f.settings.Reset()
	}

	baudOpt, _ := f.settings.Lookup(settings.OptUARTBaudrate)
	baud := uart.BaudFromIndex(f.settings.ReadU8(baudOpt), 3)
	if err := f.uart.Init(baud); err != nil {
		return fmt.Errorf("uart init: %w", err)
	}

	if err := f.osd.Configure(osd.VideoConfig(f.settings)); err != nil {
		return fmt.Errorf("max7456 init: %w", err)
	}

	dev := &commands.Device{
		Settings: f.settings,
		Chip:     f.osd,
		Screen:   f.osd,
		Version:  core.Version,
		Modules:  core.TelemetryModules,
		Panels:   core.Panels,
		Watchdog: f,
	}
	f.port = &consolePort{u: f.uart}
	f.console = console.New(f.port, commands.Table(dev))

	f.sched = core.Scheduler{}
	panels := &osd.Panels{Settings: f.settings, Chip: f.osd}
	f.sched.Add(panels.Timer())
	return nil
}

// Arm implements core.Watchdog. The reset fires after the timeout by
// unwinding the foreground loop back to Run, which boots again.
func (f *Firmware) Arm(timeoutMs uint32) error {
	time.Sleep(time.Duration(timeoutMs) * time.Millisecond)
	panic(watchdogReset{})
}

// Run boots and runs the foreground loop until ctx is cancelled. The
// console starts at boot when console_on_boot is set, and otherwise on a
// CR received from the UART. Periodic work only runs while the
// console is closed.
func (f *Firmware) Run(ctx context.Context) error {
	for {
		err := f.runOnce(ctx)
		if !errors.Is(err, errReset) {
			return err
		}
		f.resets.Add(1)
		core.DebugPrintln("[FW] watchdog reset, rebooting")
		if core.IsDebugEnabled() {
			core.DumpEvents()
		}
	}
}

func (f *Firmware) runOnce(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			switch r.(type) {
			case powerOff:
				err = ctx.Err()
			case watchdogReset:
				err = errReset
			default:
				panic(r)
			}
		}
	}()

	if err := f.Boot(); err != nil {
		return err
	}
	f.port.ctx = ctx

	bootOpt, _ := f.settings.Lookup("console_on_boot")
	if f.settings.ReadBool(bootOpt) {
		f.console.Run()
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		f.sched.Dispatch(core.Millis())

		v := f.uart.Receive()
		if uart.Clean(v) && byte(v) == '\r' {
			f.console.PendingCR()
			f.console.Run()
			continue
		}
		time.Sleep(f.Idle)
	}
}
