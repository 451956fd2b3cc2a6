package max7456

import (
	"errors"
	"sync"

	"osdcon/font"
)

var ErrNVMWhileOSD = errors.New("max7456: NVM written with OSD enabled")

// Emulator models the register file of a MAX7456 behind the drivers.SPI
// interface: display memory, the character memory shadow and its NVM.
// Every NVM write completes at once. The accessors may be called while
// another goroutine drives the bus.
type Emulator struct {
	mu      sync.Mutex
	regs    [0x80]uint8
	display [Columns * RowsPAL]uint8
	shadow  [font.GlyphDataSize]uint8
	nvm     [font.GlyphCount][font.GlyphDataSize]uint8

	// Err latches the first protocol violation seen.
	Err error
	// NVMWrites counts character memory commits.
	NVMWrites int
}

// NewEmulator returns a chip with an all-zero font and a blank screen.
func NewEmulator() *Emulator {
	return &Emulator{}
}

// Tx implements drivers.SPI. Every transaction is a register address byte
// followed by one data byte.
func (e *Emulator) Tx(w, r []byte) error {
	if len(w) < 2 {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	reg, v := w[0], w[1]
	if reg&regRead != 0 {
		if len(r) >= 2 {
			r[0] = 0
			r[1] = e.read(reg)
		}
		return nil
	}
	e.write(reg, v)
	return nil
}

// Transfer implements drivers.SPI. The chip does not use single-byte
// transfers.
func (e *Emulator) Transfer(b byte) (byte, error) {
	return 0, nil
}

func (e *Emulator) read(reg uint8) uint8 {
	switch reg {
	case regSTAT:
		// never busy
		return 0
	case regCMDO:
		return e.shadow[e.regs[regCMAL]%font.GlyphDataSize]
	case regDMDO:
		return e.display[e.position()]
	}
	return e.regs[reg&^regRead]
}

func (e *Emulator) write(reg, v uint8) {
	switch reg {
	case regVM0:
		if v&vm0Reset != 0 {
			e.reset()
			return
		}
	case regDMM:
		if v&dmmClear != 0 {
			e.display = [len(e.display)]uint8{}
			v &^= dmmClear
		}
	case regDMDI:
		e.display[e.position()] = v
	case regCMDI:
		e.shadow[e.regs[regCMAL]%font.GlyphDataSize] = v
	case regCMM:
		switch v {
		case cmmWriteNVM:
			if e.regs[regVM0]&vm0EnableOSD != 0 && e.Err == nil {
				e.Err = ErrNVMWhileOSD
			}
			e.nvm[e.regs[regCMAH]] = e.shadow
			e.NVMWrites++
		case cmmReadNVM:
			e.shadow = e.nvm[e.regs[regCMAH]]
		}
		return
	}
	e.regs[reg] = v
}

func (e *Emulator) reset() {
	e.regs = [len(e.regs)]uint8{}
	e.display = [len(e.display)]uint8{}
}

func (e *Emulator) position() int {
	pos := int(e.regs[regDMAH]&0x01)<<8 | int(e.regs[regDMAL])
	return pos % len(e.display)
}

// At returns the character shown at column x, row y.
func (e *Emulator) At(x, y uint8) uint8 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.display[(int(y)*Columns+int(x))%len(e.display)]
}

// Glyph returns the stored display bytes of glyph c.
func (e *Emulator) Glyph(c uint8) [font.GlyphDataSize]uint8 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.nvm[c]
}

// OSDEnabled reports the VM0 enable bit.
func (e *Emulator) OSDEnabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.regs[regVM0]&vm0EnableOSD != 0
}

// Register returns the last value written to a write address.
func (e *Emulator) Register(reg uint8) uint8 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.regs[reg&^regRead]
}
