package font

import "osdcon/core"

// Header is the first line of an MCM font file.
const Header = "MAX7456\r\n"

// PreambleSize is the number of bytes Upload skips before the bit lines.
const PreambleSize = len(Header)

// Sender transmits bytes, e.g. a console.
type Sender interface {
	Send(b byte)
}

// Receiver blocks until the next clean byte arrives, e.g. a console.
type Receiver interface {
	ReadRaw() byte
}

// Download writes the glyph table of chip as an MCM file: the header line,
// then for every glyph and every one of its GlyphSize bytes a line of eight
// '0'/'1' characters, most significant bit first.
func Download(out Sender, chip Chip) error {
	sendString(out, Header)
	var g Glyph
	for c := 0; c < GlyphCount; c++ {
		if err := chip.ReadGlyph(uint8(c), &g); err != nil {
			return err
		}
		for _, b := range g {
			sendByte(out, b)
		}
	}
	core.RecordEvent(core.EvtFontDump, GlyphCount, 0)
	return nil
}

// Upload reads an MCM file produced by Download and writes every glyph to
// chip as soon as it is complete. The first PreambleSize bytes are skipped
// unchecked, and every bit line must end in exactly two terminator bytes.
// Upload cannot be interrupted once started.
func Upload(in Receiver, chip Chip) error {
	for i := 0; i < PreambleSize; i++ {
		in.ReadRaw()
	}
	var g Glyph
	for c := 0; c < GlyphCount; c++ {
		for i := range g {
			g[i] = readByte(in)
		}
		if err := chip.WriteGlyph(uint8(c), &g); err != nil {
			return err
		}
	}
	core.RecordEvent(core.EvtFontUpload, GlyphCount, 0)
	return nil
}

// Draw shows the whole character set as a 16x16 block centered on screen.
func Draw(screen Screen) error {
	if err := screen.Clear(); err != nil {
		return err
	}
	left := screen.HCenter() - 8
	for h := uint8(0); h < 0x10; h++ {
		for l := uint8(0); l < 0x10; l++ {
			if err := screen.Put(left+l, h, h<<4|l); err != nil {
				return err
			}
		}
	}
	return nil
}

func sendByte(out Sender, b byte) {
	for i := 7; i >= 0; i-- {
		if (b>>i)&1 != 0 {
			out.Send('1')
		} else {
			out.Send('0')
		}
	}
	out.Send('\r')
	out.Send('\n')
}

func readByte(in Receiver) byte {
	var res byte
	for i := 0; i < 8; i++ {
		res = res<<1 | (in.ReadRaw()-'0')&1
	}
	// \r\n
	in.ReadRaw()
	in.ReadRaw()
	return res
}

func sendString(out Sender, s string) {
	for i := 0; i < len(s); i++ {
		out.Send(s[i])
	}
}
