package reframer

import (
	"reflect"
	"testing"
)

// TestChunking drives a sequence of short, then overflowing, pushes and
// checks the exact chunk boundaries returned.
func TestChunking(t *testing.T) {
	r := New(5)

	check := func(in []int16, want [][]int16) {
		t.Helper()
		got := r.Push(in)
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("Push(%v) = %v, want %v", in, got, want)
		}
	}

	check([]int16{1, 2, 3}, nil)
	check([]int16{4}, nil)
	check([]int16{5}, [][]int16{{1, 2, 3, 4, 5}})
	check([]int16{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13}, [][]int16{{1, 2, 3, 4, 5}, {6, 7, 8, 9, 10}})
	check([]int16{14, 15}, [][]int16{{11, 12, 13, 14, 15}})
}

// TestRoundTrip checks the general property: the concatenation of all
// emitted chunks equals the pushed stream truncated to a multiple of the
// capacity, and the remainder sits at the head of the internal buffer.
func TestRoundTrip(t *testing.T) {
	const capacity = 7
	r := New(capacity)

	var pushed []int16
	var emitted []int16
	n := int16(0)

	pushOnce := func(count int) {
		batch := make([]int16, count)
		for i := range batch {
			n++
			batch[i] = n
		}
		pushed = append(pushed, batch...)
		for _, chunk := range r.Push(batch) {
			emitted = append(emitted, chunk...)
		}
	}

	pushOnce(2)
	pushOnce(9)
	pushOnce(1)
	pushOnce(15)

	full := (len(pushed) / capacity) * capacity
	if !reflect.DeepEqual(emitted, pushed[:full]) {
		t.Fatalf("emitted = %v, want %v", emitted, pushed[:full])
	}

	remainder := pushed[full:]
	if !reflect.DeepEqual(r.buffer[:len(remainder)], remainder) {
		t.Fatalf("buffer head = %v, want remainder %v", r.buffer[:len(remainder)], remainder)
	}
	if r.cursor != len(remainder) {
		t.Fatalf("cursor = %d, want %d", r.cursor, len(remainder))
	}
}

func TestClearResetsCursorOnly(t *testing.T) {
	r := New(5)
	r.Push([]int16{1, 2, 3})
	r.Clear()
	if r.cursor != 0 {
		t.Fatalf("cursor after Clear = %d, want 0", r.cursor)
	}
	// Storage is untouched: pushing 2 more should NOT flush (cursor=0, so
	// total queued is 2, below capacity).
	got := r.Push([]int16{9, 9})
	if got != nil {
		t.Fatalf("Push after Clear = %v, want nil", got)
	}
}
