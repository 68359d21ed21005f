package engine

import (
	"fmt"
	"log/slog"
	"sync"

	"sdam/internal/reframer"
)

// opusMaxPacketBytes is the RFC 6716 maximum Opus packet size.
const opusMaxPacketBytes = 1275

// recorder owns the input device stream when recording. It reframes raw
// input callbacks into fixed-size PCM chunks, Opus-encodes each, and
// forwards encoded frames to the handler via onFrame.
//
// recorder's exported methods (Start/Stop) are only ever called from the
// handler's worker goroutine, so — like FrameStore and MarkIndex — it
// needs no locking of its own beyond what coordinates its capture
// goroutine's shutdown.
type recorder struct {
	deviceIndex int
	onFrame     func(Frame)
	logger      *slog.Logger

	// openInput is swappable: abstracting device acquisition behind a
	// function value lets a test substitute a fake stream for a real
	// PortAudio device.
	openInput  func(deviceIndex int) (inputStream, []int16, error)
	newEncoder func() (opusEncoder, error)

	stream inputStream
	wg     sync.WaitGroup
	stopCh chan struct{}
}

func newRecorder(deviceIndex int, onFrame func(Frame), logger *slog.Logger) *recorder {
	return &recorder{
		deviceIndex: deviceIndex,
		onFrame:     onFrame,
		logger:      logger,
		openInput:   openInputStream,
		newEncoder:  newOpusEncoder,
	}
}

// Start opens the input stream and begins the capture goroutine. A second
// Start while already recording is a no-op.
func (r *recorder) Start() error {
	if r.stream != nil {
		return nil
	}

	enc, err := r.newEncoder()
	if err != nil {
		return err
	}

	stream, buf, err := r.openInput(r.deviceIndex)
	if err != nil {
		return err
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return fmt.Errorf("%w: start input stream: %v", ErrDevice, err)
	}

	r.stream = stream
	r.stopCh = make(chan struct{})

	r.wg.Add(1)
	go r.captureLoop(stream, buf, enc, r.stopCh)

	if r.logger != nil {
		r.logger.Info("recording started")
	}
	return nil
}

// Stop halts capture and releases the input device. Sequence matters:
// stopping the stream first unblocks any in-flight Read() call in the
// capture goroutine, which then observes stopCh and exits before we close
// the stream, avoiding a close racing a goroutine still touching it.
func (r *recorder) Stop() {
	if r.stream == nil {
		return
	}
	close(r.stopCh)
	_ = r.stream.Stop()
	r.wg.Wait()
	_ = r.stream.Close()
	r.stream = nil

	if r.logger != nil {
		r.logger.Info("recording stopped")
	}
}

// IsRecording reports whether the input stream is currently open.
func (r *recorder) IsRecording() bool {
	return r.stream != nil
}

func (r *recorder) captureLoop(stream inputStream, buf []int16, enc opusEncoder, stopCh chan struct{}) {
	defer r.wg.Done()

	frames := reframer.New(FrameSamples)
	opusBuf := make([]byte, opusMaxPacketBytes)

	for {
		select {
		case <-stopCh:
			return
		default:
		}

		if err := stream.Read(); err != nil {
			select {
			case <-stopCh:
			default:
				if r.logger != nil {
					r.logger.Warn("capture read failed", "err", err)
				}
			}
			return
		}

		for _, chunk := range frames.Push(buf) {
			n, err := enc.Encode(chunk, opusBuf)
			if err != nil {
				if r.logger != nil {
					r.logger.Warn("opus encode failed", "err", err)
				}
				continue
			}
			r.onFrame(NewFrame(opusBuf[:n]))
		}
	}
}
