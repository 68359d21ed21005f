package engine

// command is the internal vocabulary the worker goroutine understands. It
// is never exposed to callers of Engine — the façade (engine.go) is the
// only public surface.
type command interface {
	isCommand()
}

type cmdStartRecording struct{}
type cmdStopRecording struct{}
type cmdPlay struct{}
type cmdPause struct{}
type cmdToggle struct{}

// seekKind identifies which Seek variant a cmdSeek carries.
type seekKind int

const (
	seekAbsolute seekKind = iota
	seekRelativeMs
	seekPercentual
	seekToStart
	seekToEnd
)

type cmdSeek struct {
	kind  seekKind
	value int64 // frame id, millisecond delta, or percentage, depending on kind
}

type cmdSetRate struct {
	rate float64
}

type cmdSetUserText struct {
	text string
}

type cmdLoad struct {
	path  string
	reply chan error
}

type cmdSave struct {
	path  *string // nil means "use remembered path"
	reply chan error
}

// markResult carries an AddMark outcome back through a reply channel: a
// Mark command type alone can't also report ErrInvalidCategory.
type markResult struct {
	mark Mark
	err  error
}

type cmdAddMark struct {
	mark  Mark
	reply chan markResult
}

type cmdEditMark struct {
	id      uint64
	updated Mark
	reply   chan error
}

type cmdDeleteMark struct {
	id    uint64
	reply chan bool
}

// cmdNewFrame is posted by the recorder's capture goroutine whenever it has
// encoded a new frame.
type cmdNewFrame struct {
	frame Frame
}

// cmdQuery runs fn against the handler's state and returns the result on
// reply. Used for every read-only façade getter: one concrete command type
// per getter would be pure boilerplate, so queries share this single shape
// instead, parameterized by the closure that reads whatever state the
// caller asked for.
type cmdQuery struct {
	fn    func(h *handler) any
	reply chan any
}

type cmdQuit struct{}

func (cmdStartRecording) isCommand() {}
func (cmdStopRecording) isCommand()  {}
func (cmdPlay) isCommand()           {}
func (cmdPause) isCommand()          {}
func (cmdToggle) isCommand()         {}
func (cmdSeek) isCommand()           {}
func (cmdSetRate) isCommand()        {}
func (cmdSetUserText) isCommand()    {}
func (cmdLoad) isCommand()           {}
func (cmdSave) isCommand()           {}
func (cmdAddMark) isCommand()        {}
func (cmdEditMark) isCommand()       {}
func (cmdDeleteMark) isCommand()     {}
func (cmdNewFrame) isCommand()       {}
func (cmdQuery) isCommand()          {}
func (cmdQuit) isCommand()           {}
