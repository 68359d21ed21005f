package engine

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"
)

// wireMark is the on-disk 4-field Mark record:
// {id: optional u64, frame_offset: u64, category: u64, label: optional string}.
type wireMark struct {
	ID          *uint64 `msgpack:"id"`
	FrameOffset uint64  `msgpack:"frame_offset"`
	Category    uint64  `msgpack:"category"`
	Label       *string `msgpack:"label"`
}

// wireMarks is the on-disk 1-field wrapper record: {marks: [...]}.
type wireMarks struct {
	Marks []wireMark `msgpack:"marks"`
}

// wireSession is the on-disk top-level 3-field record:
// {audio, marks, text}.
type wireSession struct {
	Audio [][]byte  `msgpack:"audio"`
	Marks wireMarks `msgpack:"marks"`
	Text  string    `msgpack:"text"`
}

func marksToWire(marks []Mark) wireMarks {
	out := make([]wireMark, len(marks))
	for i, m := range marks {
		out[i] = wireMark{
			ID:          m.ID,
			FrameOffset: m.FrameOffset,
			Category:    m.Category,
			Label:       m.Label,
		}
	}
	return wireMarks{Marks: out}
}

func wireToMarks(w wireMarks) []Mark {
	out := make([]Mark, len(w.Marks))
	for i, wm := range w.Marks {
		m := Mark{FrameOffset: wm.FrameOffset, Category: wm.Category, Label: wm.Label}
		if wm.ID != nil {
			m = m.WithID(*wm.ID)
		}
		out[i] = m
	}
	return out
}

// encodeSession serializes a session snapshot to its on-disk bytes.
func encodeSession(audio [][]byte, marks []Mark, text string) ([]byte, error) {
	w := wireSession{Audio: audio, Marks: marksToWire(marks), Text: text}
	data, err := msgpack.Marshal(&w)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	return data, nil
}

// decodeSession deserializes on-disk bytes into a session snapshot.
func decodeSession(data []byte) (audio [][]byte, marks []Mark, text string, err error) {
	var w wireSession
	if err := msgpack.Unmarshal(data, &w); err != nil {
		return nil, nil, "", fmt.Errorf("%w: %v", ErrDeserialization, err)
	}
	return w.Audio, wireToMarks(w.Marks), w.Text, nil
}

// writeSessionFile writes data to path atomically: it writes to a sibling
// temp file and renames it into place, so a crash mid-write never leaves a
// truncated session file.
func writeSessionFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".sdam-session-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp session file: %v", ErrIO, err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: write session file: %v", ErrIO, writeErr)
	}
	if closeErr != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: close session file: %v", ErrIO, closeErr)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: move session file into place: %v", ErrIO, err)
	}
	return nil
}

func readSessionFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read session file: %v", ErrIO, err)
	}
	return data, nil
}
