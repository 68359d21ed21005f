// Package ring implements a lock-free single-producer/single-consumer ring
// buffer of int16 audio samples.
//
// It is adapted from the byte-oriented SPSC ring buffer in
// drgolem-musictools (pkg/ringbuffer/ringbuffer.go): the same atomic
// read/write position scheme, narrowed to the element type the output
// device callback actually needs (int16 PCM samples) and with a
// never-blocks, zero-fill-on-shortfall Pop suited to a real-time audio
// callback instead of an io.Reader-style "return what's available" Read.
package ring

import "sync/atomic"

// Ring is a fixed-capacity, power-of-two-sized lock-free SPSC ring buffer
// of int16 samples. Push must only be called by the producer; PopInto must
// only be called by the consumer. Neither blocks or allocates.
type Ring struct {
	buf      []int16
	size     uint64 // power of 2
	mask     uint64
	writePos atomic.Uint64
	readPos  atomic.Uint64
}

// New creates a Ring whose capacity is at least size samples (rounded up
// to the next power of 2).
func New(size uint64) *Ring {
	size = nextPowerOf2(size)
	return &Ring{
		buf:  make([]int16, size),
		size: size,
		mask: size - 1,
	}
}

// Len reports how many samples are currently queued for the consumer.
func (r *Ring) Len() uint64 {
	return r.writePos.Load() - r.readPos.Load()
}

// Cap reports the ring's total capacity in samples.
func (r *Ring) Cap() uint64 {
	return r.size
}

// AvailableWrite reports how many samples can be pushed before the ring is
// full.
func (r *Ring) AvailableWrite() uint64 {
	return r.size - r.Len()
}

// Push appends samples to the ring. It writes as many as fit and silently
// drops the rest if the ring is full — the playback pump only pushes when
// it has already confirmed headroom, so this path is a backstop, not the
// primary flow-control mechanism.
func (r *Ring) Push(samples []int16) {
	n := uint64(len(samples))
	avail := r.AvailableWrite()
	if n > avail {
		n = avail
		samples = samples[:n]
	}
	if n == 0 {
		return
	}

	writePos := r.writePos.Load()
	start := writePos & r.mask
	end := (writePos + n) & r.mask

	if end > start || n == 0 {
		copy(r.buf[start:start+n], samples)
	} else {
		firstChunk := r.size - start
		copy(r.buf[start:], samples[:firstChunk])
		copy(r.buf[:end], samples[firstChunk:])
	}

	r.writePos.Store(writePos + n)
}

// PopInto fills dst completely: real samples from the ring where
// available, zero (silence) for any shortfall. This is the device
// callback's consume step: glitch on underrun, never block.
func (r *Ring) PopInto(dst []int16) {
	available := r.Len()
	n := uint64(len(dst))
	toRead := n
	if toRead > available {
		toRead = available
	}

	if toRead > 0 {
		readPos := r.readPos.Load()
		start := readPos & r.mask
		end := (readPos + toRead) & r.mask

		if end > start {
			copy(dst[:toRead], r.buf[start:end])
		} else {
			firstChunk := r.size - start
			copy(dst[:firstChunk], r.buf[start:])
			copy(dst[firstChunk:toRead], r.buf[:end])
		}

		r.readPos.Store(readPos + toRead)
	}

	for i := toRead; i < n; i++ {
		dst[i] = 0
	}
}

// Reset clears the ring, discarding all queued samples. Used when a session
// is loaded; seeking does not reset the ring.
func (r *Ring) Reset() {
	r.readPos.Store(0)
	r.writePos.Store(0)
}

func nextPowerOf2(n uint64) uint64 {
	if n == 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	n++
	return n
}
