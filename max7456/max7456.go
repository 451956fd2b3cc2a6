// Package max7456 drives the MAX7456 single-channel monochrome OSD chip
// over SPI.
package max7456

import (
	"errors"

	"tinygo.org/x/drivers"

	"osdcon/font"
)

var ErrBusy = errors.New("max7456: timeout waiting for chip")

// Pin is the chip-select line; machine.Pin satisfies it.
type Pin interface {
	High()
	Low()
}

// NoPin is a chip-select for buses that frame transactions themselves.
type NoPin struct{}

func (NoPin) High() {}
func (NoPin) Low()  {}

// VideoMode selects the video standard.
type VideoMode uint8

const (
	PAL VideoMode = iota
	NTSC
)

const (
	Columns  = 30
	RowsPAL  = 16
	RowsNTSC = 13

	// poll budget for NVM writes (~12 ms on real hardware) and display clear
	pollLimit = 100000
)

// Config holds the display settings applied by Configure.
type Config struct {
	Mode       VideoMode
	HOffset    uint8 // horizontal offset, 0..63, 32 is centered
	VOffset    uint8 // vertical offset, 0..31, 16 is centered
	Brightness uint8 // character white level, 0..3
}

// Device is a MAX7456 on an SPI bus.
type Device struct {
	bus  drivers.SPI
	cs   Pin
	mode VideoMode
	vm0  uint8
	tx   [2]byte
	rx   [2]byte
}

// New creates a Device. Call Configure before use.
func New(bus drivers.SPI, cs Pin) *Device {
	if cs == nil {
		cs = NoPin{}
	}
	return &Device{bus: bus, cs: cs}
}

// Configure sets the video mode and picture position and enables the OSD.
func (d *Device) Configure(cfg Config) error {
	d.mode = cfg.Mode
	d.vm0 = vm0EnableOSD | vm0VSyncEnable
	if cfg.Mode == PAL {
		d.vm0 |= vm0PAL
	}
	if err := d.writeReg(regVM0, d.vm0); err != nil {
		return err
	}
	if err := d.writeReg(regHOS, cfg.HOffset&0x3f); err != nil {
		return err
	}
	if err := d.writeReg(regVOS, cfg.VOffset&0x1f); err != nil {
		return err
	}
	// same white level for every row brightness register
	for row := uint8(0); row < RowsPAL; row++ {
		if err := d.writeReg(regRB0+row, cfg.Brightness&0x03); err != nil {
			return err
		}
	}
	return nil
}

// Mode returns the configured video standard.
func (d *Device) Mode() VideoMode {
	return d.mode
}

// Rows returns the number of text rows of the video mode.
func (d *Device) Rows() uint8 {
	if d.mode == NTSC {
		return RowsNTSC
	}
	return RowsPAL
}

// HCenter implements font.Screen.
func (d *Device) HCenter() uint8 {
	return Columns / 2
}

// Clear implements font.Screen.
func (d *Device) Clear() error {
	if err := d.writeReg(regDMM, dmmClear); err != nil {
		return err
	}
	return d.waitClear(regDMM|regRead, dmmClear)
}

// Put implements font.Screen.
func (d *Device) Put(x, y, c uint8) error {
	pos := uint16(y)*Columns + uint16(x)
	if err := d.writeReg(regDMAH, uint8(pos>>8)&0x01); err != nil {
		return err
	}
	if err := d.writeReg(regDMAL, uint8(pos)); err != nil {
		return err
	}
	return d.writeReg(regDMDI, c)
}

// ReadGlyph implements font.Chip. The chip stores GlyphDataSize bytes per
// glyph; the trailing bytes of g are zeroed.
func (d *Device) ReadGlyph(index uint8, g *font.Glyph) error {
	if err := d.writeReg(regCMAH, index); err != nil {
		return err
	}
	if err := d.writeReg(regCMM, cmmReadNVM); err != nil {
		return err
	}
	for i := 0; i < font.GlyphDataSize; i++ {
		if err := d.writeReg(regCMAL, uint8(i)); err != nil {
			return err
		}
		v, err := d.readReg(regCMDO)
		if err != nil {
			return err
		}
		g[i] = v
	}
	for i := font.GlyphDataSize; i < font.GlyphSize; i++ {
		g[i] = 0
	}
	return nil
}

// WriteGlyph implements font.Chip. Only the display data bytes are stored.
// The OSD is switched off while the NVM is written.
func (d *Device) WriteGlyph(index uint8, g *font.Glyph) error {
	if err := d.writeReg(regVM0, d.vm0&^vm0EnableOSD); err != nil {
		return err
	}
	if err := d.writeReg(regCMAH, index); err != nil {
		return err
	}
	for i := 0; i < font.GlyphDataSize; i++ {
		if err := d.writeReg(regCMAL, uint8(i)); err != nil {
			return err
		}
		if err := d.writeReg(regCMDI, g[i]); err != nil {
			return err
		}
	}
	if err := d.writeReg(regCMM, cmmWriteNVM); err != nil {
		return err
	}
	if err := d.waitClear(regSTAT, statCharMemBusy); err != nil {
		return err
	}
	return d.writeReg(regVM0, d.vm0)
}

func (d *Device) writeReg(reg, value uint8) error {
	d.tx[0], d.tx[1] = reg, value
	d.cs.Low()
	err := d.bus.Tx(d.tx[:], nil)
	d.cs.High()
	return err
}

func (d *Device) readReg(reg uint8) (uint8, error) {
	d.tx[0], d.tx[1] = reg, 0
	d.cs.Low()
	err := d.bus.Tx(d.tx[:], d.rx[:])
	d.cs.High()
	return d.rx[1], err
}

func (d *Device) waitClear(reg, mask uint8) error {
	for i := 0; i < pollLimit; i++ {
		v, err := d.readReg(reg)
		if err != nil {
			return err
		}
		if v&mask == 0 {
			return nil
		}
	}
	return ErrBusy
}
