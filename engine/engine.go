// Package engine implements the single-track dictation recorder/player:
// capture, Opus encode/decode, variable-rate playback, marks, and session
// persistence, behind the Engine façade.
//
// Every Engine method posts a command to a single worker goroutine and,
// where a result is needed, waits on a reply channel — no method ever
// locks a mutex, and no caller goroutine ever touches audio state
// directly.
package engine

import (
	"io"
	"log/slog"
)

// Engine is the public façade. All methods are safe to call concurrently
// from multiple goroutines; they only ever enqueue work for the single
// worker goroutine to perform.
type Engine struct {
	h      *handler
	logger *slog.Logger
}

// Option configures NewEngine.
type Option func(*options)

type options struct {
	logger           *slog.Logger
	inputDeviceIndex int
	outputDevice     func() (outputStream, []int16, error)
}

// WithLogger sets the slog.Logger used for warnings the engine can't
// otherwise report (decode errors, device write failures). Defaults to
// slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithInputDevice selects the recording device by PortAudio index.
// Negative (the default) selects the system default input device.
func WithInputDevice(index int) Option {
	return func(o *options) { o.inputDeviceIndex = index }
}

// withOutputStreamFactory overrides how the output stream is opened.
// Unexported: only engine_test.go uses this, to substitute a fake device
// for real hardware.
func withOutputStreamFactory(f func() (outputStream, []int16, error)) Option {
	return func(o *options) { o.outputDevice = f }
}

// NewEngine constructs an Engine, opening the process-lifetime output
// device stream immediately: a single output stream is created once and
// reused for the engine's whole lifetime. Device acquisition failures
// here are fatal: unlike a transient recording-start failure, there is
// nowhere useful to queue audio without an output device.
func NewEngine(outputDeviceIndex int, opts ...Option) (*Engine, error) {
	o := &options{inputDeviceIndex: -1}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.outputDevice == nil {
		o.outputDevice = func() (outputStream, []int16, error) {
			return openOutputStream(outputDeviceIndex)
		}
	}

	stream, buf, err := o.outputDevice()
	if err != nil {
		return nil, err
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return nil, err
	}

	h, err := newHandler(o.logger, stream, buf, o.inputDeviceIndex)
	if err != nil {
		_ = stream.Stop()
		_ = stream.Close()
		return nil, err
	}

	e := &Engine{h: h, logger: o.logger}
	go h.run()
	return e, nil
}

// Close stops recording and playback, releases both audio devices, and
// shuts down the worker goroutine. Close is idempotent.
func (e *Engine) Close() error {
	e.h.send(cmdQuit{})
	return nil
}

// query posts fn to the worker and blocks for its result.
func (e *Engine) query(fn func(h *handler) any) any {
	reply := make(chan any, 1)
	e.h.send(cmdQuery{fn: fn, reply: reply})
	return <-reply
}

// --- file operations ---

// Load replaces the entire in-memory session with the one stored at path.
func (e *Engine) Load(path string) error {
	reply := make(chan error, 1)
	e.h.send(cmdLoad{path: path, reply: reply})
	return <-reply
}

// Save writes the current session to path. If path is nil, it writes to
// the path remembered from the last Load or Save, returning
// ErrNoFileOpened if there is none.
func (e *Engine) Save(path *string) error {
	reply := make(chan error, 1)
	e.h.send(cmdSave{path: path, reply: reply})
	return <-reply
}

// --- recording ---

// StartRecording begins capturing from the input device, appending newly
// encoded frames to the session. A second call while already recording is
// a no-op.
func (e *Engine) StartRecording() {
	e.h.send(cmdStartRecording{})
}

// StopRecording halts capture and releases the input device.
func (e *Engine) StopRecording() {
	e.h.send(cmdStopRecording{})
}

// IsRecording reports whether the input stream is currently open.
func (e *Engine) IsRecording() bool {
	return e.query(func(h *handler) any { return h.isRecording() }).(bool)
}

// --- playback transport ---

// Play transitions to Playing, resuming the self-scheduling playback
// pump. A call while already Playing is a no-op.
func (e *Engine) Play() {
	e.h.send(cmdPlay{})
}

// Pause transitions to Paused. The pump chain dies out on its own within
// one tick.
func (e *Engine) Pause() {
	e.h.send(cmdPause{})
}

// Toggle switches between Play and Pause.
func (e *Engine) Toggle() {
	e.h.send(cmdToggle{})
}

// Forward seeks forward sec seconds from the current position (or from
// frame 0 if nothing has played yet).
func (e *Engine) Forward(sec int64) {
	e.h.send(cmdSeek{kind: seekRelativeMs, value: sec * 1000})
}

// Backward seeks backward sec seconds.
func (e *Engine) Backward(sec int64) {
	e.h.send(cmdSeek{kind: seekRelativeMs, value: -sec * 1000})
}

// JumpToFrame seeks to an absolute frame id, clamped to the playable tail
// (end = len-3).
func (e *Engine) JumpToFrame(frame int64) {
	e.h.send(cmdSeek{kind: seekAbsolute, value: frame})
}

// JumpToTime seeks to an absolute position sec seconds into the session.
func (e *Engine) JumpToTime(sec int64) {
	e.h.send(cmdSeek{kind: seekAbsolute, value: sec * 1000 / FrameDurationMs})
}

// JumpToStart seeks to frame 0.
func (e *Engine) JumpToStart() {
	e.h.send(cmdSeek{kind: seekToStart})
}

// JumpToEnd seeks to the last playable frame (len-3).
func (e *Engine) JumpToEnd() {
	e.h.send(cmdSeek{kind: seekToEnd})
}

// JumpToPercentage seeks to percent% of the way through the session.
// Values outside [0, 100] are silently ignored.
func (e *Engine) JumpToPercentage(percent int64) {
	if percent < 0 || percent > 100 {
		return
	}
	e.h.send(cmdSeek{kind: seekPercentual, value: percent})
}

// SetRate sets the active playback rate. rate <= 0 is silently ignored.
func (e *Engine) SetRate(rate float64) {
	if rate <= 0 {
		return
	}
	e.h.send(cmdSetRate{rate: rate})
}

// --- status getters ---

// FileName returns the base name of the currently open session file, or
// nil if none is open.
func (e *Engine) FileName() *string {
	return e.query(func(h *handler) any { return h.fileName() }).(*string)
}

// FilePath returns the full path of the currently open session file, or
// nil if none is open.
func (e *Engine) FilePath() *string {
	return e.query(func(h *handler) any { return h.filePath() }).(*string)
}

// AudioLen returns the number of frames in the current session.
func (e *Engine) AudioLen() int {
	return e.query(func(h *handler) any { return h.audioLenFrames() }).(int)
}

// AudioDuration returns the current session's total duration in whole
// seconds (audio_len·40/1000).
func (e *Engine) AudioDuration() int64 {
	return e.query(func(h *handler) any { return h.audioDurationSec() }).(int64)
}

// CurrentPosition returns the current playback frame, or nil if playback
// has never started since the last Load/seek-from-nothing.
func (e *Engine) CurrentPosition() *uint64 {
	return e.query(func(h *handler) any { return h.currentPositionFrames() }).(*uint64)
}

// IsPlaying reports whether the engine is in the Playing state.
func (e *Engine) IsPlaying() bool {
	return e.query(func(h *handler) any { return h.isPlaying() }).(bool)
}

// IsPaused reports whether the engine is in the Paused state.
func (e *Engine) IsPaused() bool {
	return e.query(func(h *handler) any { return h.isPaused() }).(bool)
}

// --- marks ---

// AddMark inserts m, assigning it a fresh id, and returns the stored
// mark. Returns ErrInvalidCategory if m.Category < 1.
func (e *Engine) AddMark(m Mark) (Mark, error) {
	reply := make(chan markResult, 1)
	e.h.send(cmdAddMark{mark: m, reply: reply})
	res := <-reply
	return res.mark, res.err
}

// GetMark returns the mark with the given id, or ErrMarkNotFound.
func (e *Engine) GetMark(id uint64) (Mark, error) {
	res := e.query(func(h *handler) any {
		m, ok := h.getMark(id)
		return markResult{mark: m, err: boolToNotFound(ok)}
	}).(markResult)
	return res.mark, res.err
}

// Marks returns every mark in the current session.
func (e *Engine) Marks() []Mark {
	return e.query(func(h *handler) any { return h.listMarks() }).([]Mark)
}

// NextClosestMark returns the mark with the smallest frame offset
// strictly greater than frame.
func (e *Engine) NextClosestMark(frame uint64) (Mark, error) {
	res := e.query(func(h *handler) any {
		m, ok := h.nextClosestMark(frame)
		return markResult{mark: m, err: boolToNotFound(ok)}
	}).(markResult)
	return res.mark, res.err
}

// PreviousClosestMark returns the mark with the largest frame offset
// strictly less than frame.
func (e *Engine) PreviousClosestMark(frame uint64) (Mark, error) {
	res := e.query(func(h *handler) any {
		m, ok := h.previousClosestMark(frame)
		return markResult{mark: m, err: boolToNotFound(ok)}
	}).(markResult)
	return res.mark, res.err
}

// EditMark replaces the mark identified by id with updated, preserving
// id. Returns ErrMarkNotFound if id is absent.
func (e *Engine) EditMark(id uint64, updated Mark) error {
	reply := make(chan error, 1)
	e.h.send(cmdEditMark{id: id, updated: updated, reply: reply})
	return <-reply
}

// DeleteMark removes the mark identified by id, reporting whether a
// removal occurred.
func (e *Engine) DeleteMark(id uint64) bool {
	reply := make(chan bool, 1)
	e.h.send(cmdDeleteMark{id: id, reply: reply})
	return <-reply
}

func boolToNotFound(ok bool) error {
	if ok {
		return nil
	}
	return ErrMarkNotFound
}

// --- free text ---

// UserText returns the session's free-form text field.
func (e *Engine) UserText() string {
	return e.query(func(h *handler) any { return h.getUserText() }).(string)
}

// SetUserText replaces the session's free-form text field.
func (e *Engine) SetUserText(text string) {
	e.h.send(cmdSetUserText{text: text})
}

var _ io.Closer = (*Engine)(nil)
