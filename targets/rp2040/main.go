//go:build rp2040

package main

import (
	"machine"
	"strconv"
	"time"

	"osdcon/commands"
	"osdcon/console"
	"osdcon/core"
	"osdcon/eeprom"
	"osdcon/max7456"
	"osdcon/osd"
	"osdcon/settings"
	"osdcon/uart"
)

var (
	line  *uartLine
	ser   *uart.UART
	store *settings.Store
	chip  *max7456.Device
	con   *console.Console
	sched core.Scheduler

	// Debug counters
	msgerrors uint32
)

func main() {
	// CRITICAL: Disable watchdog on boot to clear any previous state
	if err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0}); err != nil {
		return
	}

	line = &uartLine{hw: machine.UART0}
	ser = uart.New(line)
	line.u = ser
	machine.UART0.Configure(machine.UARTConfig{TX: uartTX, RX: uartRX})
	core.SetDebugWriter(func(msg string) {
		ser.SendString(msg + console.Eol)
	})
	core.SetDebugEnabled(true)

	if err := initEEPROMBus(); err != nil {
		halt()
	}
	mem, err := eeprom.OpenAT24(machine.I2C1, eeprom.Size)
	if err != nil {
		halt()
	}
	if store, err = settings.NewDefault(mem); err != nil {
		halt()
	}
	if store.Blank() {
		store.Reset()
	}

	baudOpt, _ := store.Lookup(settings.OptUARTBaudrate)
	if err := ser.Init(uart.BaudFromIndex(store.ReadU8(baudOpt), 3)); err != nil {
		halt()
	}
	go line.pump()

	if err := initOSDBus(); err != nil {
		halt()
	}
	chip = max7456.New(machine.SPI0, osdCS)
	if err := chip.Configure(osd.VideoConfig(store)); err != nil {
		core.DebugPrintln("[FW] max7456: " + err.Error())
	}

	con = console.New(ser, commands.Table(&commands.Device{
		Settings: store,
		Chip:     chip,
		Screen:   chip,
		Version:  core.Version,
		Modules:  core.TelemetryModules,
		Panels:   core.Panels,
		Watchdog: watchdog{},
	}))

	UpdateSystemTime()
	panels := &osd.Panels{Settings: store, Chip: chip}
	sched.Add(panels.Timer())

	bootOpt, _ := store.Lookup("console_on_boot")
	if store.ReadBool(bootOpt) {
		con.Run()
	}

	// Main loop
	for {
		// Recover from panics in the main loop to prevent a firmware crash
		func() {
			defer func() {
				if r := recover(); r != nil {
					msgerrors++
					core.DebugPrintln("[FW] main loop panic #" + strconv.FormatUint(uint64(msgerrors), 10))
					core.DumpEvents()
				}
			}()

			UpdateSystemTime()
			sched.Dispatch(core.Millis())

			v := ser.Receive()
			if uart.Clean(v) && byte(v) == '\r' {
				con.PendingCR()
				con.Run()
			}
		}()

		// Yield to the UART pump
		time.Sleep(10 * time.Microsecond)
	}
}

// halt stops at a fatal boot error; the console cannot be reached anyway
func halt() {
	for {
		time.Sleep(time.Second)
	}
}
