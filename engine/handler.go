package engine

import (
	"log/slog"
	"path/filepath"
	"time"

	"sdam/internal/ring"
)

// playbackState is the handler's coarse playback state: it is always in
// exactly one of these two states, starting Paused.
type playbackState int

const (
	statePaused playbackState = iota
	statePlaying
)

// pumpInterval is the playback pump's self-scheduling period while playing.
const pumpInterval = 5 * time.Millisecond

// handler is the single-writer worker that owns every piece of mutable
// engine state: the frame store, marks, playback cursor, decoder, and the
// output ring. Every field below is touched only from run's goroutine, so
// none of it needs a lock.
type handler struct {
	cmdCh  chan command
	pumpCh chan struct{}
	done   chan struct{}
	logger *slog.Logger

	store *FrameStore
	marks *MarkIndex

	state         playbackState
	rate          float64
	cursorCurrent *uint64
	cursorFuture  *uint64
	userText      string
	path          *string
	pumpScheduled bool

	decoder    opusDecoder
	newDecoder func() (opusDecoder, error)

	ring      *ring.Ring
	outStream outputStream
	outBuf    []int16
	decodeBuf []int16

	rec *recorder
}

func newHandler(logger *slog.Logger, outStream outputStream, outBuf []int16, inputDeviceIndex int) (*handler, error) {
	dec, err := newOpusDecoder()
	if err != nil {
		return nil, err
	}

	h := &handler{
		cmdCh:      make(chan command, 16),
		pumpCh:     make(chan struct{}, 1),
		done:       make(chan struct{}),
		logger:     logger,
		store:      &FrameStore{},
		marks:      &MarkIndex{},
		state:      statePaused,
		rate:       1.0,
		decoder:    dec,
		newDecoder: newOpusDecoder,
		ring:       ring.New(outputRingSize),
		outStream:  outStream,
		outBuf:     outBuf,
		decodeBuf:  make([]int16, FrameSamples),
	}
	h.rec = newRecorder(inputDeviceIndex, h.postNewFrame, logger)
	return h, nil
}

// postNewFrame is passed to the recorder as its onFrame callback. It runs
// on the capture goroutine, so it must not touch handler state directly —
// it only enqueues, exactly like an external caller's command.
func (h *handler) postNewFrame(f Frame) {
	select {
	case h.cmdCh <- cmdNewFrame{frame: f}:
	case <-h.done:
	}
}

// send enqueues a command from any goroutine, respecting shutdown.
func (h *handler) send(c command) {
	select {
	case h.cmdCh <- c:
	case <-h.done:
	}
}

// run is the worker loop: the sole goroutine that ever mutates handler
// state. It also drives the output device via outputLoop, started
// alongside it.
func (h *handler) run() {
	go h.outputLoop()

	for {
		select {
		case c := <-h.cmdCh:
			if _, quit := c.(cmdQuit); quit {
				h.shutdown()
				return
			}
			h.dispatch(c)
		case <-h.pumpCh:
			h.updateAudioBuffer()
		}
	}
}

func (h *handler) shutdown() {
	if h.rec.IsRecording() {
		h.rec.Stop()
	}
	close(h.done)
}

// outputLoop is the dedicated goroutine that continuously drains the
// output ring into the device: one consumer, paced by the blocking
// Write() call, running for the engine's entire lifetime so Play/Pause
// never open or close the stream — it is created once and reused.
func (h *handler) outputLoop() {
	for {
		select {
		case <-h.done:
			_ = h.outStream.Stop()
			_ = h.outStream.Close()
			return
		default:
		}
		h.ring.PopInto(h.outBuf)
		if err := h.outStream.Write(); err != nil {
			select {
			case <-h.done:
				return
			default:
				if h.logger != nil {
					h.logger.Warn("output write failed", "err", err)
				}
			}
		}
	}
}

func (h *handler) dispatch(c command) {
	switch cmd := c.(type) {
	case cmdStartRecording:
		if err := h.rec.Start(); err != nil && h.logger != nil {
			h.logger.Warn("start recording failed", "err", err)
		}
	case cmdStopRecording:
		h.rec.Stop()
	case cmdPlay:
		h.startPlayback()
	case cmdPause:
		h.state = statePaused
	case cmdToggle:
		if h.state == statePlaying {
			h.state = statePaused
		} else {
			h.startPlayback()
		}
	case cmdSeek:
		h.seek(cmd)
	case cmdSetRate:
		if cmd.rate > 0 {
			h.rate = cmd.rate
		}
	case cmdSetUserText:
		h.userText = cmd.text
	case cmdLoad:
		cmd.reply <- h.load(cmd.path)
	case cmdSave:
		cmd.reply <- h.save(cmd.path)
	case cmdAddMark:
		cmd.reply <- h.addMark(cmd.mark)
	case cmdEditMark:
		cmd.reply <- h.marks.Update(cmd.id, cmd.updated)
	case cmdDeleteMark:
		cmd.reply <- h.marks.Delete(cmd.id)
	case cmdNewFrame:
		h.store.Append(cmd.frame)
		if h.store.Len() == 100 && h.logger != nil {
			h.logger.Debug("frame milestone reached", "frames", h.store.Len())
		}
	case cmdQuery:
		cmd.reply <- cmd.fn(h)
	}
}

func (h *handler) startPlayback() {
	if h.state == statePlaying {
		return
	}
	h.state = statePlaying
	h.schedulePump()
}

// schedulePump arranges a single future updateAudioBuffer call, a
// self-re-posted delayed message outside the regular command queue. The
// time.AfterFunc closure races pumpCh against done so a timer that fires
// after Close never blocks a goroutine trying to send into an unread
// channel.
func (h *handler) schedulePump() {
	if h.pumpScheduled {
		return
	}
	h.pumpScheduled = true
	time.AfterFunc(pumpInterval, func() {
		select {
		case h.pumpCh <- struct{}{}:
		case <-h.done:
		}
	})
}

// updateAudioBuffer is the playback pump. It decodes ahead
// into the output ring whenever the ring has drained to at most one frame's
// worth of samples at the active rate, then reschedules itself — but only
// while still Playing, so pausing lets the pump chain die out naturally.
func (h *handler) updateAudioBuffer() {
	h.pumpScheduled = false
	if h.state != statePlaying {
		return
	}

	rate := h.activeRate()
	threshold := uint64(float64(FrameSamples) / rate)

	if h.ring.Len() <= threshold {
		if h.cursorCurrent != nil {
			if h.cursorFuture == nil {
				if frame, ok := h.store.Get(int(*h.cursorCurrent) + 1); ok {
					h.decodeIntoRing(frame, rate)
					f := *h.cursorCurrent + 1
					h.cursorFuture = &f
				}
			}
			if h.cursorFuture != nil {
				promoted := *h.cursorFuture
				h.cursorCurrent = &promoted
				if frame, ok := h.store.Get(int(promoted) + 1); ok {
					h.decodeIntoRing(frame, rate)
					f := promoted + 1
					h.cursorFuture = &f
				}
				// else: leave cursorFuture pointing at promoted — once the
				// last frame has been queued there is nothing further to
				// advance to.
			}
		} else {
			if frame, ok := h.store.Get(0); ok {
				h.decodeIntoRing(frame, rate)
				zero := uint64(0)
				h.cursorCurrent = &zero
				if frame1, ok := h.store.Get(1); ok {
					h.decodeIntoRing(frame1, rate)
					one := uint64(1)
					h.cursorFuture = &one
				}
			}
		}
	}

	h.schedulePump()
}

// activeRate returns the rate actually used for decoding: the requested
// rate, forced to 1.0 near end of audio so playback doesn't run out of
// frames to skip or repeat across.
func (h *handler) activeRate() float64 {
	if h.rate == 1.0 {
		return 1.0
	}
	if h.cursorCurrent != nil {
		remaining := int64(h.store.Len()) - int64(*h.cursorCurrent)
		if remaining <= 5 {
			return 1.0
		}
	}
	return h.rate
}

// decodeIntoRing decodes one frame and pushes its samples into the output
// ring, applying the rate transform: faster-than-real-time playback drops
// a tail of samples, slower-than-real-time repeats the whole block some
// integer number of times plus a partial tail.
func (h *handler) decodeIntoRing(frame Frame, rate float64) {
	n, err := h.decoder.Decode(frame.Bytes(), h.decodeBuf)
	if err != nil {
		if h.logger != nil {
			h.logger.Warn("opus decode failed", "err", err)
		}
		return
	}

	switch {
	case rate == 1.0:
		h.ring.Push(h.decodeBuf[:n])
	case rate > 1.0:
		cut := int(float64(n) / rate)
		h.ring.Push(h.decodeBuf[:cut])
	default:
		recip := 1 / rate
		reps := int(recip)
		for i := 0; i < reps; i++ {
			h.ring.Push(h.decodeBuf[:n])
		}
		frac := recip - float64(reps)
		if frac != 0 {
			cut := int(float64(n) * frac)
			h.ring.Push(h.decodeBuf[:cut])
		}
	}
}

// seek implements every Seek variant. If fewer than 3 frames exist, it is
// a no-op: there is no meaningful tail to clamp to. Every successful seek
// resets the decoder (see DESIGN.md's resolution of the "reset on
// load/seek" open question) so the next decode never depends on state
// from audio the seek jumped away from.
func (h *handler) seek(cmd cmdSeek) {
	length := h.store.Len()
	if length < 3 {
		return
	}
	end := int64(length - 3)

	var target int64
	switch cmd.kind {
	case seekAbsolute:
		target = cmd.value
	case seekRelativeMs:
		base := int64(0)
		if h.cursorCurrent != nil {
			base = int64(*h.cursorCurrent)
		}
		target = base + cmd.value/FrameDurationMs
		if target < 0 {
			target = 0
		}
	case seekPercentual:
		target = int64(length) * cmd.value / 100
	case seekToStart:
		target = 0
	case seekToEnd:
		target = end
	}
	if target > end {
		target = end
	}
	if target < 0 {
		target = 0
	}

	cur := uint64(target)
	fut := cur + 1
	h.cursorCurrent = &cur
	h.cursorFuture = &fut
	h.resetDecoder()
}

func (h *handler) resetDecoder() {
	dec, err := h.newDecoder()
	if err != nil {
		if h.logger != nil {
			h.logger.Warn("decoder reset failed", "err", err)
		}
		return
	}
	h.decoder = dec
}

// load replaces the entire session wholesale: frames, marks, and text all
// come from the file, and the cursor/decoder/ring reset to a clean Paused
// state.
func (h *handler) load(path string) error {
	data, err := readSessionFile(path)
	if err != nil {
		return err
	}
	audio, marks, text, err := decodeSession(data)
	if err != nil {
		return err
	}

	h.store.ImportFrames(audio)
	h.marks.reset()
	for _, m := range marks {
		h.marks.insertWithID(m)
	}
	h.userText = text
	p := path
	h.path = &p

	h.state = statePaused
	h.cursorCurrent = nil
	h.cursorFuture = nil
	h.ring.Reset()
	h.resetDecoder()
	return nil
}

// save writes the current session to path, or to the remembered path from
// a prior Load/Save if path is nil.
func (h *handler) save(path *string) error {
	target := path
	if target == nil {
		target = h.path
	}
	if target == nil {
		return ErrNoFileOpened
	}

	data, err := encodeSession(h.store.ExportFrames(), h.marks.List(), h.userText)
	if err != nil {
		return err
	}
	if err := writeSessionFile(*target, data); err != nil {
		return err
	}

	p := *target
	h.path = &p
	return nil
}

func (h *handler) addMark(m Mark) markResult {
	if m.Category < 1 {
		return markResult{err: ErrInvalidCategory}
	}
	return markResult{mark: h.marks.Insert(m)}
}

// --- query helpers, invoked through cmdQuery closures from engine.go ---

func (h *handler) fileName() *string {
	if h.path == nil {
		return nil
	}
	base := filepath.Base(*h.path)
	return &base
}

func (h *handler) filePath() *string {
	return h.path
}

func (h *handler) audioLenFrames() int {
	return h.store.Len()
}

func (h *handler) audioDurationSec() int64 {
	return int64(h.store.Len()) * FrameDurationMs / 1000
}

func (h *handler) currentPositionFrames() *uint64 {
	return h.cursorCurrent
}

func (h *handler) isPlaying() bool {
	return h.state == statePlaying
}

func (h *handler) isPaused() bool {
	return h.state == statePaused
}

func (h *handler) isRecording() bool {
	return h.rec.IsRecording()
}

func (h *handler) getMark(id uint64) (Mark, bool) {
	return h.marks.Get(id)
}

func (h *handler) listMarks() []Mark {
	return h.marks.List()
}

func (h *handler) nextClosestMark(frame uint64) (Mark, bool) {
	return h.marks.NextClosest(frame)
}

func (h *handler) previousClosestMark(frame uint64) (Mark, bool) {
	return h.marks.PreviousClosest(frame)
}

func (h *handler) getUserText() string {
	return h.userText
}
