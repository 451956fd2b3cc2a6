package commands

import (
	"osdcon/console"
	"osdcon/eeprom"
)

const dumpRow = 16

func (d *Device) eeprom(c *console.Console) {
	mem := d.Settings.Storage()
	switch option(c, 1) {
	case 'd':
		dumpEEPROM(c, mem)
	case 'r':
		readEEPROM(c, mem)
	case 'w':
		writeEEPROM(c, mem)
	default:
		c.Print("Args: d - dump, r - read, w - write")
	}
}

// dumpEEPROM prints 16 bytes per row: "%04x: " then "%02x " per byte.
func dumpEEPROM(c *console.Console, mem eeprom.Storage) {
	size := mem.Len()
	for row := 0; row < size; row += dumpRow {
		c.Printf("%04x: ", row)
		for i := row; i < row+dumpRow && i < size; i++ {
			c.Printf("%02x ", mem.Load(uint16(i)))
		}
		c.Eol()
	}
}

// readEEPROM sends the whole store as raw bytes.
func readEEPROM(c *console.Console, mem eeprom.Storage) {
	for addr := 0; addr < mem.Len(); addr++ {
		c.Send(mem.Load(uint16(addr)))
	}
}

// writeEEPROM receives exactly Len raw bytes and updates the store in place,
// skipping cells that already hold the value.
func writeEEPROM(c *console.Console, mem eeprom.Storage) {
	for addr := 0; addr < mem.Len(); addr++ {
		mem.Update(uint16(addr), c.ReadRaw())
	}
}
