// Package commands is the compiled-in console command table of the OSD.
package commands

import (
	"osdcon/console"
	"osdcon/core"
	"osdcon/font"
	"osdcon/settings"
)

const (
	msgDone          = "Done." + console.Eol
	msgUnknownOption = "Unknown option"

	// RebootTimeoutMs is the watchdog timeout armed by the reboot command.
	RebootTimeoutMs = 250
)

// Device holds the collaborators the handlers call into.
type Device struct {
	Settings *settings.Store
	Chip     font.Chip
	Screen   font.Screen
	Version  uint16
	Modules  core.Names
	Panels   core.Names
	Watchdog core.Watchdog
}

// Table returns the command table in dispatch order. Prefix matching picks
// the first entry, so "e" runs eeprom and "r" runs reset.
func Table(d *Device) []console.Command {
	return []console.Command{
		{Name: "font", Help: "Upload and download mcm-file", Exec: d.font},
		{Name: "reset", Help: "Reset settings to defaults", Exec: d.reset},
		{Name: "eeprom", Help: "Read/write EEPROM", Exec: d.eeprom},
		{Name: "opt", Help: "Read/write OSD options", Exec: d.opt},
		{Name: "info", Help: "Firmware version, modules, panels", Exec: d.info},
		{Name: "help", Help: "Commands list", Exec: help},
		{Name: "exit", Help: "Exit console", Exec: exit},
		{Name: "reboot", Help: "Reboot OSD", Exec: d.reboot},
	}
}

// option returns the lower-cased first character of argument n, or 0.
func option(c *console.Console, n int) byte {
	arg := c.Argument(n)
	if len(arg) == 0 {
		return 0
	}
	return console.Lower(arg[0])
}

func (d *Device) font(c *console.Console) {
	var err error
	switch option(c, 1) {
	case 'u':
		err = d.fontUpload(c)
	case 'd':
		err = d.fontDownload(c)
	default:
		c.Print("Args: u - upload, d - download")
		return
	}
	if err != nil {
		c.Print(err.Error())
	}
}

func (d *Device) fontDownload(c *console.Console) error {
	if err := font.Draw(d.Screen); err != nil {
		return err
	}
	return font.Download(c, d.Chip)
}

func (d *Device) fontUpload(c *console.Console) error {
	if err := font.Draw(d.Screen); err != nil {
		return err
	}
	c.Print("Send MCM-file" + console.Eol)
	if err := font.Upload(c, d.Chip); err != nil {
		return err
	}
	c.Print(msgDone)
	return nil
}

func (d *Device) reset(c *console.Console) {
	c.Print("Reset to defaults... ")
	d.Settings.Reset()
	c.Print(msgDone)
}

func help(c *console.Console) {
	for _, cmd := range c.Commands() {
		c.Print(cmd.Name)
		c.Print(" - ")
		c.Print(cmd.Help)
		c.Eol()
	}
}

func exit(c *console.Console) {
	c.Stop()
}

func (d *Device) info(c *console.Console) {
	c.Printf("VERSION: %04d"+console.Eol, d.Version)
	c.Print("MODULES: ")
	for i := 0; i < d.Modules.Count(); i++ {
		c.Print(d.Modules.Name(i))
		c.Send(' ')
	}
	c.Eol()
	c.Print("PANELS:" + console.Eol)
	for i := 0; i < d.Panels.Count(); i++ {
		c.Printf("%03d: ", i)
		c.Print(d.Panels.Name(i))
		c.Eol()
	}
}

// reboot never returns: the watchdog resets the chip while the loop spins.
func (d *Device) reboot(c *console.Console) {
	core.RecordEvent(core.EvtReboot, RebootTimeoutMs, 0)
	if err := d.Watchdog.Arm(RebootTimeoutMs); err != nil {
		core.DebugPrintln("[CMD] watchdog: " + err.Error())
	}
	for {
		core.Relax()
	}
}
