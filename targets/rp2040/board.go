//go:build rp2040

package main

import "machine"

// Board wiring
const (
	uartTX = machine.GPIO0
	uartRX = machine.GPIO1

	// MAX7456 on SPI0
	osdSCK = machine.GPIO18
	osdSDO = machine.GPIO19
	osdSDI = machine.GPIO16
	osdCS  = machine.GPIO17

	// AT24C32 settings EEPROM on I2C1
	eepromSDA = machine.GPIO6
	eepromSCL = machine.GPIO7

	osdSPIFrequency = 4_000_000
)

// watchdog implements core.Watchdog with the RP2040 watchdog timer
type watchdog struct{}

func (watchdog) Arm(timeoutMs uint32) error {
	if err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: timeoutMs}); err != nil {
		return err
	}
	return machine.Watchdog.Start()
}

func initOSDBus() error {
	osdCS.Configure(machine.PinConfig{Mode: machine.PinOutput})
	osdCS.High()
	return machine.SPI0.Configure(machine.SPIConfig{
		Frequency: osdSPIFrequency,
		SCK:       osdSCK,
		SDO:       osdSDO,
		SDI:       osdSDI,
		Mode:      0,
	})
}

func initEEPROMBus() error {
	return machine.I2C1.Configure(machine.I2CConfig{
		SDA:       eepromSDA,
		SCL:       eepromSCL,
		Frequency: 400 * machine.KHz,
	})
}
