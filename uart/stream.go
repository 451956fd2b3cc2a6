package uart

import (
	"context"
	"io"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"osdcon/core"
)

// Stream is a Line that carries a UART over an io.ReadWriter. It stands in
// for the UART hardware on regular Go: one goroutine plays the receive
// interrupt and another the transmit-ready interrupt.
type Stream struct {
	// Backpressure makes the receive side hold a byte until the ring has
	// room instead of overrunning it. Real hardware cannot do this; it
	// models a peer that never outruns the device.
	Backpressure bool

	rw   io.ReadWriter
	u    *UART
	baud atomic.Uint32
	txOn atomic.Bool
	kick chan struct{}
	werr atomic.Pointer[error]
}

// NewStream creates a Stream over rw.
func NewStream(rw io.ReadWriter) *Stream {
	return &Stream{
		rw:   rw,
		kick: make(chan struct{}, 1),
	}
}

// Attach binds the UART whose interrupt handlers the Stream drives.
func (s *Stream) Attach(u *UART) {
	s.u = u
}

// SetBaud implements Line. The rate is only recorded.
func (s *Stream) SetBaud(baud Baud) error {
	s.baud.Store(uint32(baud))
	return nil
}

// Baud returns the rate last set by Init.
func (s *Stream) Baud() Baud {
	return Baud(s.baud.Load())
}

// Transmit implements Line.
func (s *Stream) Transmit(b byte) {
	if _, err := s.rw.Write([]byte{b}); err != nil {
		s.werr.CompareAndSwap(nil, &err)
	}
}

// EnableTxInterrupt implements Line. Every enable wakes the transmit
// goroutine, which drains the ring until HandleTxReady finds it empty.
func (s *Stream) EnableTxInterrupt(enable bool) {
	s.txOn.Store(enable)
	if enable {
		select {
		case s.kick <- struct{}{}:
		default:
		}
	}
}

// Serve runs both interrupt goroutines until the reader fails or ctx is
// cancelled. On cancellation rw is closed when it implements io.Closer, which
// is the only way to unblock a pending Read.
func (s *Stream) Serve(ctx context.Context) error {
	if s.u == nil {
		return ErrNoLine
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.receiveLoop(gctx)
	})
	g.Go(func() error {
		return s.transmitLoop(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		if c, ok := s.rw.(io.Closer); ok {
			c.Close()
		}
		return nil
	})
	err := g.Wait()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err == io.EOF {
		return nil
	}
	return err
}

func (s *Stream) receiveLoop(ctx context.Context) error {
	var buf [BufferSize]byte
	for {
		n, err := s.rw.Read(buf[:])
		for _, b := range buf[:n] {
			for s.Backpressure && s.u.rx.Full() {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				core.Relax()
			}
			s.u.HandleRx(b, 0)
		}
		if err != nil {
			return err
		}
	}
}

func (s *Stream) transmitLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.kick:
		}
		for s.u.HandleTxReady() {
		}
		if err := s.werr.Load(); err != nil {
			return *err
		}
	}
}
