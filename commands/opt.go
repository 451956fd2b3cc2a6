package commands

import (
	"errors"

	"osdcon/console"
	"osdcon/settings"
)

func (d *Device) opt(c *console.Console) {
	switch option(c, 1) {
	case 'l':
		// console writes cannot fail
		_ = d.Settings.List(c, console.Eol)
	case 'g':
		d.optGet(c)
	case 's':
		d.optSet(c)
	default:
		c.Print("Args: l - list, g - get, s - set")
	}
}

func (d *Device) optGet(c *console.Console) {
	name := c.Argument(2)
	if name == nil {
		c.Print("Args: <name>")
		return
	}
	opt, ok := d.Settings.Lookup(string(name))
	if !ok {
		c.Print(msgUnknownOption)
		return
	}
	c.Print(d.Settings.Describe(opt))
}

func (d *Device) optSet(c *console.Console) {
	name, value := c.Argument(2), c.Argument(3)
	if name == nil || value == nil {
		c.Print("Args: <name> <value>")
		return
	}
	opt, err := d.Settings.Set(string(name), string(value))
	if errors.Is(err, settings.ErrUnknownOption) {
		c.Print(msgUnknownOption)
		return
	}
	if err != nil {
		c.Print(err.Error())
		return
	}
	c.Print(d.Settings.Describe(opt))
}
