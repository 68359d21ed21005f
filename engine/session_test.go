package engine

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestSessionEncodeDecodeRoundTrip(t *testing.T) {
	label := "chapter 2"
	marks := []Mark{
		{ID: u64p(0), FrameOffset: 10, Category: 1, Label: &label},
		{ID: u64p(1), FrameOffset: 40, Category: 2, Label: nil},
	}
	audio := [][]byte{{1, 2, 3}, {4, 5}, {}}
	text := "some dictated notes"

	data, err := encodeSession(audio, marks, text)
	if err != nil {
		t.Fatalf("encodeSession: %v", err)
	}

	gotAudio, gotMarks, gotText, err := decodeSession(data)
	if err != nil {
		t.Fatalf("decodeSession: %v", err)
	}

	if gotText != text {
		t.Fatalf("text = %q, want %q", gotText, text)
	}
	if len(gotAudio) != len(audio) {
		t.Fatalf("audio length = %d, want %d", len(gotAudio), len(audio))
	}
	for i := range audio {
		if string(gotAudio[i]) != string(audio[i]) {
			t.Fatalf("audio[%d] = %v, want %v", i, gotAudio[i], audio[i])
		}
	}
	if len(gotMarks) != len(marks) {
		t.Fatalf("marks length = %d, want %d", len(gotMarks), len(marks))
	}
	for i := range marks {
		if *gotMarks[i].ID != *marks[i].ID || gotMarks[i].FrameOffset != marks[i].FrameOffset ||
			gotMarks[i].Category != marks[i].Category {
			t.Fatalf("marks[%d] = %+v, want %+v", i, gotMarks[i], marks[i])
		}
	}
	if gotMarks[0].Label == nil || *gotMarks[0].Label != label {
		t.Fatalf("marks[0].Label = %v, want %q", gotMarks[0].Label, label)
	}
	if gotMarks[1].Label != nil {
		t.Fatalf("marks[1].Label = %v, want nil", gotMarks[1].Label)
	}
}

func TestDecodeSessionMalformedDataReportsDeserializationError(t *testing.T) {
	_, _, _, err := decodeSession([]byte{0xff, 0x00, 0x01})
	if !errors.Is(err, ErrDeserialization) {
		t.Fatalf("decodeSession of malformed bytes = %v, want ErrDeserialization", err)
	}
}

func TestWriteAndReadSessionFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.sdam")

	want := []byte("arbitrary encoded session bytes")
	if err := writeSessionFile(path, want); err != nil {
		t.Fatalf("writeSessionFile: %v", err)
	}

	got, err := readSessionFile(path)
	if err != nil {
		t.Fatalf("readSessionFile: %v", err)
	}
	if string(got) != string(want) {
		t.Fatalf("read back %q, want %q", got, want)
	}
}

func TestReadSessionFileMissingReportsIOError(t *testing.T) {
	_, err := readSessionFile(filepath.Join(t.TempDir(), "does-not-exist.sdam"))
	if !errors.Is(err, ErrIO) {
		t.Fatalf("readSessionFile of a missing file = %v, want ErrIO", err)
	}
}
