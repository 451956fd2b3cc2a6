// Package client drives the OSD text console from the host side: it sends
// command lines, collects their responses and runs the raw font and EEPROM
// transfers.
package client

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"

	"osdcon/console"
	"osdcon/host/serial"
)

var (
	ErrTimeout  = errors.New("console timeout")
	ErrStopped  = errors.New("client closed")
	ErrBadLine  = errors.New("invalid command line")
	ErrResponse = errors.New("unexpected console response")
)

// Options tunes a Client.
type Options struct {
	// Prompt the device prints before every line.
	Prompt string
	// Timeout is the longest silence tolerated while waiting for output.
	Timeout time.Duration
	// GlyphDelay is slept after each glyph of a font upload.
	GlyphDelay time.Duration
	// EEPROMSize is the number of bytes the eeprom r/w commands transfer.
	EEPROMSize int
}

// Client is a host-side console session.
type Client struct {
	port serial.Port
	opts Options

	// Received bytes not consumed yet
	mu      sync.Mutex
	input   bytes.Buffer
	readErr error
	notify  chan struct{}

	writeMutex sync.Mutex

	stopChan chan struct{}
	doneChan chan struct{}
}

// New creates a client over port and starts its background reader.
func New(port serial.Port, opts Options) *Client {
	if opts.Prompt == "" {
		opts.Prompt = console.Prompt
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	c := &Client{
		port:     port,
		opts:     opts,
		notify:   make(chan struct{}, 1),
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// Close stops the reader and closes the port.
func (c *Client) Close() error {
	close(c.stopChan)
	err := c.port.Close()
	select {
	case <-c.doneChan:
	case <-time.After(time.Second):
		glog.Warning("client: reader did not stop")
	}
	return err
}

// readLoop continuously reads from the port into the input buffer
func (c *Client) readLoop() {
	defer close(c.doneChan)

	buffer := make([]byte, 256)
	for {
		select {
		case <-c.stopChan:
			return
		default:
		}

		n, err := c.port.Read(buffer)
		if n > 0 {
			c.mu.Lock()
			c.input.Write(buffer[:n])
			c.mu.Unlock()
			c.signal()
		}
		if err == serial.ErrTimeout {
			continue
		}
		if err != nil {
			c.mu.Lock()
			c.readErr = err
			c.mu.Unlock()
			c.signal()
			return
		}
	}
}

func (c *Client) signal() {
	select {
	case c.notify <- struct{}{}:
	default:
	}
}

// wait blocks until match finds what it needs in the received data. match
// returns how many bytes to consume, or -1 to keep waiting. The timeout
// restarts whenever data arrives.
func (c *Client) wait(match func(data []byte) int) ([]byte, error) {
	for {
		c.mu.Lock()
		data := c.input.Bytes()
		if n := match(data); n >= 0 {
			out := append([]byte(nil), c.input.Next(n)...)
			c.mu.Unlock()
			return out, nil
		}
		readErr := c.readErr
		c.mu.Unlock()
		if readErr != nil {
			return nil, readErr
		}

		select {
		case <-c.notify:
		case <-time.After(c.opts.Timeout):
			return nil, fmt.Errorf("%w after %v", ErrTimeout, c.opts.Timeout)
		case <-c.stopChan:
			return nil, ErrStopped
		}
	}
}

// readUntil consumes data up to and including marker and returns what came
// before it.
func (c *Client) readUntil(marker string) (string, error) {
	out, err := c.wait(func(data []byte) int {
		i := bytes.Index(data, []byte(marker))
		if i < 0 {
			return -1
		}
		return i + len(marker)
	})
	if err != nil {
		return "", err
	}
	return string(out[:len(out)-len(marker)]), nil
}

// readN consumes exactly n bytes.
func (c *Client) readN(n int) ([]byte, error) {
	return c.wait(func(data []byte) int {
		if len(data) < n {
			return -1
		}
		return n
	})
}

func (c *Client) write(p []byte) error {
	c.writeMutex.Lock()
	defer c.writeMutex.Unlock()

	n, err := c.port.Write(p)
	if err != nil {
		return err
	}
	if n != len(p) {
		return fmt.Errorf("incomplete write: %d/%d bytes", n, len(p))
	}
	return nil
}

// Sync discards pending input and waits for a fresh prompt.
func (c *Client) Sync() error {
	if err := c.port.Flush(); err != nil {
		return err
	}
	c.mu.Lock()
	c.input.Reset()
	c.mu.Unlock()
	if err := c.write([]byte{'\r'}); err != nil {
		return err
	}
	_, err := c.readUntil(c.opts.Prompt)
	return err
}

// start sends line and waits for its echo, so the handler is running when
// start returns.
func (c *Client) start(line string) error {
	if len(line) == 0 || len(line) >= console.LineSize || strings.ContainsAny(line, "\r\n") {
		return fmt.Errorf("%w: %q", ErrBadLine, line)
	}
	glog.V(2).Infof("client: > %s", line)
	if err := c.write([]byte(line + "\r")); err != nil {
		return err
	}
	_, err := c.readUntil(line + console.Eol)
	return err
}

// Exec runs a command line and returns everything it printed before the
// next prompt.
func (c *Client) Exec(line string) (string, error) {
	if err := c.start(line); err != nil {
		return "", err
	}
	resp, err := c.readUntil(c.opts.Prompt)
	if err != nil {
		return "", fmt.Errorf("%s: %w", line, err)
	}
	glog.V(3).Infof("client: < %q", resp)
	return resp, nil
}

// Get returns the current value of an option as printed by the device.
func (c *Client) Get(name string) (string, error) {
	resp, err := c.Exec("opt g " + name)
	if err != nil {
		return "", err
	}
	return optionValue(resp)
}

// Set stores value into an option and returns the value read back.
func (c *Client) Set(name, value string) (string, error) {
	resp, err := c.Exec("opt s " + name + " " + value)
	if err != nil {
		return "", err
	}
	return optionValue(resp)
}

func optionValue(resp string) (string, error) {
	i := strings.LastIndex(resp, "\t= ")
	if i < 0 {
		return "", fmt.Errorf("%w: %q", ErrResponse, resp)
	}
	return resp[i+3:], nil
}

// expectEmpty reads up to the prompt and fails on any output.
func (c *Client) expectEmpty(what string) error {
	resp, err := c.readUntil(c.opts.Prompt)
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if resp != "" {
		return fmt.Errorf("%s: %w: %q", what, ErrResponse, resp)
	}
	return nil
}
