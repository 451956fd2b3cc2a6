package uart

import "sync/atomic"

// BufferSize is the capacity of both the receive and the transmit ring.
// Must be a power of two.
const BufferSize = 64

const bufferMask = BufferSize - 1

// Ring is a fixed-capacity single-producer/single-consumer byte queue.
//
// The producer stores the payload into the slot at tail and only then
// publishes the new tail; the consumer reads the slot at head and only then
// publishes the new head. Indices are free running and wrap through the mask,
// so all BufferSize slots are usable. Neither side ever blocks.
type Ring struct {
	buf      [BufferSize]byte
	head     atomic.Uint32 // advanced by the consumer
	tail     atomic.Uint32 // advanced by the producer
	overflow atomic.Bool
}

// Put stores b at the tail. When the ring is full the byte is dropped, the
// overflow flag is set and Put returns false. Producer side only.
func (r *Ring) Put(b byte) bool {
	tail := r.tail.Load()
	if tail-r.head.Load() == BufferSize {
		r.overflow.Store(true)
		return false
	}
	r.buf[tail&bufferMask] = b
	r.tail.Store(tail + 1)
	return true
}

// Get removes the byte at the head. Consumer side only.
func (r *Ring) Get() (byte, bool) {
	head := r.head.Load()
	if head == r.tail.Load() {
		return 0, false
	}
	b := r.buf[head&bufferMask]
	r.head.Store(head + 1)
	return b, true
}

// Len returns the number of queued bytes.
func (r *Ring) Len() int {
	return int(r.tail.Load() - r.head.Load())
}

// Full reports whether the next Put would be dropped.
func (r *Ring) Full() bool {
	return r.Len() == BufferSize
}

// Empty reports whether there is nothing to Get.
func (r *Ring) Empty() bool {
	return r.head.Load() == r.tail.Load()
}

// Overflowed reports whether a Put has been dropped since the last TakeOverflow.
func (r *Ring) Overflowed() bool {
	return r.overflow.Load()
}

// TakeOverflow returns and clears the overflow flag.
func (r *Ring) TakeOverflow() bool {
	return r.overflow.Swap(false)
}

// Reset drops all queued bytes. Only valid while neither side is active.
func (r *Ring) Reset() {
	r.head.Store(0)
	r.tail.Store(0)
	r.overflow.Store(false)
}
