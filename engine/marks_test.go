package engine

import "testing"

func TestMarkIndexAssignsMonotonicIDs(t *testing.T) {
	var mi MarkIndex

	m0, _ := NewMark(10, 1, nil)
	got0 := mi.Insert(m0)
	if got0.ID == nil || *got0.ID != 0 {
		t.Fatalf("first insert id = %v, want 0", got0.ID)
	}

	m1, _ := NewMark(20, 1, nil)
	got1 := mi.Insert(m1)
	if got1.ID == nil || *got1.ID != 1 {
		t.Fatalf("second insert id = %v, want 1", got1.ID)
	}

	if ok := mi.Delete(*got0.ID); !ok {
		t.Fatalf("delete of id 0 should have succeeded")
	}

	m2, _ := NewMark(30, 1, nil)
	got2 := mi.Insert(m2)
	if got2.ID == nil || *got2.ID != 2 {
		t.Fatalf("id after delete = %v, want 2 (ids are never recycled)", got2.ID)
	}
}

func TestMarkIndexInsertIgnoresCallerSuppliedID(t *testing.T) {
	var mi MarkIndex
	bogus := uint64(999)
	m := Mark{ID: &bogus, FrameOffset: 5, Category: 1}
	got := mi.Insert(m)
	if got.ID == nil || *got.ID != 0 {
		t.Fatalf("Insert id = %v, want 0 (caller-supplied id must be ignored)", got.ID)
	}
}

func TestNextAndPreviousClosestStrictAndTieBreakFirst(t *testing.T) {
	var mi MarkIndex
	mi.insertWithID(Mark{ID: u64p(0), FrameOffset: 100, Category: 1})
	mi.insertWithID(Mark{ID: u64p(1), FrameOffset: 200, Category: 1})
	mi.insertWithID(Mark{ID: u64p(2), FrameOffset: 200, Category: 1}) // tie with id 1
	mi.insertWithID(Mark{ID: u64p(3), FrameOffset: 300, Category: 1})

	next, ok := mi.NextClosest(150)
	if !ok || next.FrameOffset != 200 || *next.ID != 1 {
		t.Fatalf("NextClosest(150) = %+v, want frame_offset 200 id 1 (first encountered)", next)
	}

	// Exactly-equal offsets are not candidates: NextClosest/PreviousClosest
	// use strict comparisons.
	if _, ok := mi.NextClosest(300); ok {
		t.Fatalf("NextClosest(300) should find nothing past the last mark")
	}

	prev, ok := mi.PreviousClosest(250)
	if !ok || prev.FrameOffset != 200 || *prev.ID != 1 {
		t.Fatalf("PreviousClosest(250) = %+v, want frame_offset 200 id 1 (first encountered)", prev)
	}

	if _, ok := mi.PreviousClosest(100); ok {
		t.Fatalf("PreviousClosest(100) should find nothing before the first mark")
	}
}

func TestMarkIndexUpdatePreservesID(t *testing.T) {
	var mi MarkIndex
	m, _ := NewMark(10, 1, nil)
	inserted := mi.Insert(m)

	label := "edited"
	updated := Mark{FrameOffset: 999, Category: 2, Label: &label}
	if err := mi.Update(*inserted.ID, updated); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, ok := mi.Get(*inserted.ID)
	if !ok {
		t.Fatalf("mark vanished after Update")
	}
	if got.FrameOffset != 999 || got.Category != 2 || got.Label == nil || *got.Label != "edited" {
		t.Fatalf("Update did not apply fields: %+v", got)
	}
	if *got.ID != *inserted.ID {
		t.Fatalf("Update changed id: got %d want %d", *got.ID, *inserted.ID)
	}
}

func TestMarkIndexUpdateUnknownIDFails(t *testing.T) {
	var mi MarkIndex
	if err := mi.Update(42, Mark{Category: 1}); err != ErrMarkNotFound {
		t.Fatalf("Update of unknown id = %v, want ErrMarkNotFound", err)
	}
}

func u64p(v uint64) *uint64 { return &v }
