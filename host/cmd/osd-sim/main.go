// osd-sim runs the OSD firmware on the host. The console is reachable on
// the terminal, or on a serial device such as one end of a pty pair, so
// osd-host can be tried without hardware.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang/glog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"osdcon/core"
	"osdcon/eeprom"
	"osdcon/host/serial"
	"osdcon/max7456"
	"osdcon/sim"
	"osdcon/uart"
)

var (
	device     = flag.String("device", "", "Serial device for the console (default: this terminal)")
	baud       = flag.Int("baud", int(uart.Baud57600), "Baud rate of -device")
	eepromPath = flag.String("eeprom", "", "EEPROM image file (default: in memory)")
	idle       = flag.Duration("idle", time.Millisecond, "Foreground loop sleep when idle")
	debug      = flag.Bool("debug", false, "Log firmware debug messages")
)

// escape ends a terminal session (Ctrl-]).
const escape = 0x1d

func main() {
	flag.Parse()
	defer glog.Flush()

	if err := run(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		glog.Flush()
		os.Exit(1)
	}
}

func run() error {
	core.SetDebugWriter(func(msg string) { glog.Info(msg) })
	core.SetDebugEnabled(*debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var storage eeprom.Storage = eeprom.NewMemory(eeprom.Size)
	if *eepromPath != "" {
		f, err := eeprom.OpenFile(*eepromPath, eeprom.Size)
		if err != nil {
			return err
		}
		defer func() {
			if err := f.Err(); err != nil {
				glog.Errorf("eeprom image: %v", err)
			}
			f.Close()
		}()
		storage = f
	}

	link, restore, err := openLink(ctx, cancel)
	if err != nil {
		return err
	}
	defer restore()

	stream := uart.NewStream(link)
	stream.Backpressure = true
	fw, err := sim.New(sim.Hardware{
		Line:   stream,
		EEPROM: storage,
		Bus:    max7456.NewEmulator(),
	})
	if err != nil {
		return err
	}
	fw.Idle = *idle

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return stream.Serve(gctx)
	})
	g.Go(func() error {
		err := fw.Run(gctx)
		glog.Infof("firmware stopped after %d watchdog resets: %v", fw.Resets(), err)
		if *debug {
			core.DumpEvents()
		}
		return err
	})

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()
	select {
	case err = <-done:
	case <-gctx.Done():
		// A terminal read cannot be interrupted; give up on it.
		select {
		case err = <-done:
		case <-time.After(time.Second):
			glog.Warning("console reader still blocked, exiting")
			err = gctx.Err()
		}
	}
	return err
}

// openLink returns the console byte stream and a function that undoes
// any terminal state change.
func openLink(ctx context.Context, cancel context.CancelFunc) (io.ReadWriteCloser, func(), error) {
	if *device != "" {
		cfg := serial.DefaultConfig(*device)
		cfg.Baud = *baud
		port, err := serial.Open(cfg)
		if err != nil {
			return nil, nil, err
		}
		glog.Infof("console on %s at %d baud", *device, *baud)
		return &pollingPort{Port: port, ctx: ctx}, func() {}, nil
	}

	restore := func() {}
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		state, err := term.MakeRaw(fd)
		if err != nil {
			return nil, nil, fmt.Errorf("terminal raw mode: %w", err)
		}
		restore = func() { term.Restore(fd, state) }
		fmt.Fprint(os.Stdout, "OSD simulator, Ctrl-] to quit\r\n")
	}
	return &stdioLink{cancel: cancel}, restore, nil
}

// pollingPort turns the read timeouts of a serial port into a
// cancellation check.
type pollingPort struct {
	serial.Port
	ctx context.Context
}

func (p *pollingPort) Read(b []byte) (int, error) {
	for {
		n, err := p.Port.Read(b)
		if n == 0 && err == serial.ErrTimeout {
			if p.ctx.Err() != nil {
				return 0, io.EOF
			}
			continue
		}
		return n, err
	}
}

// stdioLink carries the console over stdin and stdout. Reading the escape
// byte ends the session.
type stdioLink struct {
	cancel context.CancelFunc
}

func (l *stdioLink) Read(b []byte) (int, error) {
	n, err := os.Stdin.Read(b)
	for i := 0; i < n; i++ {
		if b[i] == escape {
			l.cancel()
			return i, io.EOF
		}
	}
	return n, err
}

func (l *stdioLink) Write(b []byte) (int, error) {
	return os.Stdout.Write(b)
}

func (l *stdioLink) Close() error {
	return nil
}
