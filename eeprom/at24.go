package eeprom

import (
	"fmt"
	"time"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/at24cx"
)

// writeCycle is the self-timed write time of an AT24 cell. The chip does
// not acknowledge its address until the write has finished.
const writeCycle = 5 * time.Millisecond

// AT24 is a Storage on an AT24Cxx I2C EEPROM, for boards whose
// microcontroller has no EEPROM of its own. The image is cached at open;
// every changed cell is written through.
type AT24 struct {
	dev   at24cx.Device
	cells []byte
	err   error
}

// OpenAT24 reads size bytes from the chip on bus.
func OpenAT24(bus drivers.I2C, size int) (*AT24, error) {
	e := &AT24{dev: at24cx.New(bus), cells: make([]byte, size)}
	for i := range e.cells {
		b, err := e.dev.ReadByte(uint16(i))
		if err != nil {
			return nil, fmt.Errorf("at24 read 0x%03x: %w", i, err)
		}
		e.cells[i] = b
	}
	return e, nil
}

// Len implements Storage.
func (e *AT24) Len() int {
	return len(e.cells)
}

// Load implements Storage.
func (e *AT24) Load(addr uint16) byte {
	if int(addr) >= len(e.cells) {
		return Erased
	}
	return e.cells[addr]
}

// Update implements Storage. A write still refused after a few write
// cycles is kept and reported by Err.
func (e *AT24) Update(addr uint16, b byte) {
	if int(addr) >= len(e.cells) || e.cells[addr] == b {
		return
	}
	e.cells[addr] = b

	var err error
	for try := 0; try < 3; try++ {
		if err = e.dev.WriteByte(addr, b); err == nil {
			break
		}
		time.Sleep(writeCycle)
	}
	if err != nil && e.err == nil {
		e.err = fmt.Errorf("at24 write 0x%03x: %w", addr, err)
	}
}

// Err returns the first write error.
func (e *AT24) Err() error {
	return e.err
}
