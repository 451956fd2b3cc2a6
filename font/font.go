// Package font streams the video-overlay glyph table over the text console
// as lines of ASCII bits (the MCM format).
package font

const (
	GlyphCount    = 256 // glyphs in the table
	GlyphDataSize = 54  // display data bytes per glyph
	GlyphSize     = 64  // record size including trailing bytes
)

// Glyph is one font record: GlyphDataSize display bytes followed by
// trailing bytes that only exist in the file format.
type Glyph [GlyphSize]byte

// Chip is the per-glyph access of the video-overlay chip.
type Chip interface {
	ReadGlyph(index uint8, g *Glyph) error
	WriteGlyph(index uint8, g *Glyph) error
}

// Screen is the character-cell output of the video-overlay chip.
type Screen interface {
	Clear() error
	Put(x, y, c uint8) error
	// HCenter returns the middle column of the current video mode.
	HCenter() uint8
}

// Table is an in-memory glyph table. It keeps trailing bytes, unlike the
// chip.
type Table [GlyphCount]Glyph

// ReadGlyph implements Chip.
func (t *Table) ReadGlyph(index uint8, g *Glyph) error {
	*g = t[index]
	return nil
}

// WriteGlyph implements Chip.
func (t *Table) WriteGlyph(index uint8, g *Glyph) error {
	t[index] = *g
	return nil
}

// Snapshot reads the whole table of chip.
func Snapshot(chip Chip) (*Table, error) {
	var t Table
	for c := 0; c < GlyphCount; c++ {
		if err := chip.ReadGlyph(uint8(c), &t[c]); err != nil {
			return nil, err
		}
	}
	return &t, nil
}

// CRC16 returns the checksum of the table in download order, for comparing
// a device font with a file without a full diff.
func (t *Table) CRC16() uint16 {
	crc := uint16(0xFFFF)
	for c := range t {
		for _, b := range t[c] {
			b = b ^ uint8(crc&0xFF)
			b = b ^ (b << 4)
			b16 := uint16(b)
			crc = (b16<<8 | crc>>8) ^ (b16 >> 4) ^ (b16 << 3)
		}
	}
	return crc
}
