package client

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/golang/glog"

	"osdcon/console"
	"osdcon/font"
)

const (
	uploadPrompt = "Send MCM-file" + console.Eol
	uploadDone   = "Done." + console.Eol

	// bytes per glyph on the wire: GlyphSize lines of 8 bits + CRLF
	glyphWireSize = font.GlyphSize * 10
)

// DownloadFont reads the glyph table of the device.
func (c *Client) DownloadFont() (*font.Table, error) {
	start := time.Now()
	resp, err := c.Exec("font d")
	if err != nil {
		return nil, err
	}
	t, err := font.Decode(strings.NewReader(resp))
	if err != nil {
		return nil, fmt.Errorf("font download: %w", err)
	}
	glog.V(1).Infof("client: font downloaded in %v, crc %04x", time.Since(start), t.CRC16())
	return t, nil
}

// UploadFont writes t to the device, pacing the glyphs by GlyphDelay.
func (c *Client) UploadFont(t *font.Table) error {
	var mcm bytes.Buffer
	if err := font.Encode(&mcm, t); err != nil {
		return err
	}
	if err := c.start("font u"); err != nil {
		return err
	}
	if _, err := c.readUntil(uploadPrompt); err != nil {
		return fmt.Errorf("font upload: %w", err)
	}

	data := mcm.Bytes()
	if err := c.write(data[:font.PreambleSize]); err != nil {
		return err
	}
	data = data[font.PreambleSize:]
	for g := 0; len(data) > 0; g++ {
		if err := c.write(data[:glyphWireSize]); err != nil {
			return fmt.Errorf("font upload glyph %d: %w", g, err)
		}
		data = data[glyphWireSize:]
		if c.opts.GlyphDelay > 0 {
			time.Sleep(c.opts.GlyphDelay)
		}
	}

	resp, err := c.readUntil(c.opts.Prompt)
	if err != nil {
		return fmt.Errorf("font upload: %w", err)
	}
	if resp != uploadDone {
		return fmt.Errorf("font upload: %w: %q", ErrResponse, resp)
	}
	glog.V(1).Infof("client: font uploaded, crc %04x", t.CRC16())
	return nil
}

// ReadEEPROM returns the raw EEPROM image.
func (c *Client) ReadEEPROM() ([]byte, error) {
	if err := c.start("eeprom r"); err != nil {
		return nil, err
	}
	data, err := c.readN(c.opts.EEPROMSize)
	if err != nil {
		return nil, fmt.Errorf("eeprom read: %w", err)
	}
	if err := c.expectEmpty("eeprom read"); err != nil {
		return nil, err
	}
	return data, nil
}

// WriteEEPROM replaces the EEPROM image. data must be exactly EEPROMSize
// bytes: the device reads until it has that many.
func (c *Client) WriteEEPROM(data []byte) error {
	if len(data) != c.opts.EEPROMSize {
		return fmt.Errorf("eeprom image is %d bytes, device has %d", len(data), c.opts.EEPROMSize)
	}
	if err := c.start("eeprom w"); err != nil {
		return err
	}
	if err := c.write(data); err != nil {
		return fmt.Errorf("eeprom write: %w", err)
	}
	return c.expectEmpty("eeprom write")
}
