// Package eeprom provides the byte-addressed non-volatile backing store of
// the OSD settings.
package eeprom

import (
	"errors"
	"fmt"
	"os"
	"sync"
)

// Size is the EEPROM size of the ATmega328P the OSD runs on.
const Size = 1024

// Erased is the content of a never-written EEPROM cell.
const Erased = 0xff

var ErrOutOfRange = errors.New("eeprom address out of range")

// Storage is byte-addressed non-volatile memory. Every Update is a direct,
// synchronous store; there is no write coalescing or journal.
type Storage interface {
	// Len returns the number of addressable bytes.
	Len() int

	// Load returns the byte at addr. Out of range reads return Erased.
	Load(addr uint16) byte

	// Update stores b at addr, skipping the write when the cell already
	// holds b. Out of range writes are ignored.
	Update(addr uint16, b byte)
}

// ReadBlock fills p from consecutive addresses starting at addr.
func ReadBlock(s Storage, addr uint16, p []byte) error {
	if int(addr)+len(p) > s.Len() {
		return ErrOutOfRange
	}
	for i := range p {
		p[i] = s.Load(addr + uint16(i))
	}
	return nil
}

// UpdateBlock stores p at consecutive addresses starting at addr.
func UpdateBlock(s Storage, addr uint16, p []byte) error {
	if int(addr)+len(p) > s.Len() {
		return ErrOutOfRange
	}
	for i, b := range p {
		s.Update(addr+uint16(i), b)
	}
	return nil
}

// Memory is a RAM backed Storage.
type Memory struct {
	cells  []byte
	writes int
}

// NewMemory creates a Memory of size bytes in the erased state.
func NewMemory(size int) *Memory {
	m := &Memory{cells: make([]byte, size)}
	m.Fill(Erased)
	return m
}

// Len implements Storage.
func (m *Memory) Len() int {
	return len(m.cells)
}

// Load implements Storage.
func (m *Memory) Load(addr uint16) byte {
	if int(addr) >= len(m.cells) {
		return Erased
	}
	return m.cells[addr]
}

// Update implements Storage.
func (m *Memory) Update(addr uint16, b byte) {
	if int(addr) >= len(m.cells) || m.cells[addr] == b {
		return
	}
	m.cells[addr] = b
	m.writes++
}

// Fill sets every cell to b without counting writes.
func (m *Memory) Fill(b byte) {
	for i := range m.cells {
		m.cells[i] = b
	}
}

// Writes returns the number of cell writes performed by Update.
func (m *Memory) Writes() int {
	return m.writes
}

// Bytes returns the backing cells.
func (m *Memory) Bytes() []byte {
	return m.cells
}

// File is a Storage persisted to a host file, used by the simulator.
// The whole image is cached; every changed cell is written through.
type File struct {
	mu    sync.Mutex
	f     *os.File
	cells []byte
	err   error
}

// OpenFile opens or creates an image of size bytes at path. A new or
// short file is padded with Erased cells.
func OpenFile(path string, size int) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open eeprom image %s: %w", path, err)
	}
	cells := make([]byte, size)
	n, _ := f.ReadAt(cells, 0)
	if n < size {
		for i := n; i < size; i++ {
			cells[i] = Erased
		}
		if _, err := f.WriteAt(cells[n:], int64(n)); err != nil {
			f.Close()
			return nil, fmt.Errorf("pad eeprom image %s: %w", path, err)
		}
	}
	return &File{f: f, cells: cells}, nil
}

// Len implements Storage.
func (e *File) Len() int {
	return len(e.cells)
}

// Load implements Storage.
func (e *File) Load(addr uint16) byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	if int(addr) >= len(e.cells) {
		return Erased
	}
	return e.cells[addr]
}

// Update implements Storage. A failed write is kept and reported by Err.
func (e *File) Update(addr uint16, b byte) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if int(addr) >= len(e.cells) || e.cells[addr] == b {
		return
	}
	e.cells[addr] = b
	if _, err := e.f.WriteAt([]byte{b}, int64(addr)); err != nil && e.err == nil {
		e.err = err
	}
}

// Err returns the first write error.
func (e *File) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// Close syncs and closes the image.
func (e *File) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.f.Sync(); err != nil {
		e.f.Close()
		return err
	}
	return e.f.Close()
}
