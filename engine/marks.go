package engine

// Mark is a time-stamped annotation bound to a frame index.
//
// ID is nil until the mark has been inserted into a MarkIndex, which
// assigns it and never changes it afterward.
type Mark struct {
	ID          *uint64
	FrameOffset uint64
	Category    uint64
	Label       *string
}

// NewMark constructs a Mark with no assigned id. category must be >= 1;
// violating that is a programming error reported via ErrInvalidCategory
// rather than silently clamped, since unlike the façade's rate/percentage
// inputs this one isn't meant to be silently corrected.
func NewMark(frameOffset, category uint64, label *string) (Mark, error) {
	if category < 1 {
		return Mark{}, ErrInvalidCategory
	}
	return Mark{FrameOffset: frameOffset, Category: category, Label: label}, nil
}

// WithID returns a copy of m with id set. Used internally when rebuilding
// a Mark read back from a session file, where ids are already assigned.
func (m Mark) WithID(id uint64) Mark {
	m.ID = &id
	return m
}

func (m Mark) hasID(id uint64) bool {
	return m.ID != nil && *m.ID == id
}

// MarkIndex is an unordered collection of marks for the current session.
// All contained marks have a non-nil ID; all IDs are distinct. IDs are
// assigned max(existing)+1, or 0 if empty, and are never recycled on
// delete.
//
// Like FrameStore, MarkIndex carries no internal synchronization — it is
// owned exclusively by the handler goroutine.
type MarkIndex struct {
	marks []Mark
}

// Insert assigns m an id and adds it to the index, returning the mark with
// its assigned id. Any id already set on m is ignored: only the engine
// assigns ids, never the caller.
func (mi *MarkIndex) Insert(m Mark) Mark {
	var nextID uint64
	for _, existing := range mi.marks {
		if existing.ID != nil && *existing.ID+1 > nextID {
			nextID = *existing.ID + 1
		}
	}
	m = m.WithID(nextID)
	mi.marks = append(mi.marks, m)
	return m
}

// insertWithID adds m with an explicit id, bypassing assignment. Used only
// when reconstructing a MarkIndex from a loaded session file, where ids
// must round-trip exactly.
func (mi *MarkIndex) insertWithID(m Mark) {
	mi.marks = append(mi.marks, m)
}

// Get returns the mark with the given id, or false if absent.
func (mi *MarkIndex) Get(id uint64) (Mark, bool) {
	for _, m := range mi.marks {
		if m.hasID(id) {
			return m, true
		}
	}
	return Mark{}, false
}

// List returns all marks, in insertion order. The returned slice is a copy.
func (mi *MarkIndex) List() []Mark {
	out := make([]Mark, len(mi.marks))
	copy(out, mi.marks)
	return out
}

// Update replaces the fields of the mark identified by id with those of
// updated, preserving id. Returns ErrMarkNotFound if id is absent.
func (mi *MarkIndex) Update(id uint64, updated Mark) error {
	for i, m := range mi.marks {
		if m.hasID(id) {
			updated = updated.WithID(id)
			mi.marks[i] = updated
			return nil
		}
	}
	return ErrMarkNotFound
}

// Delete removes the mark with the given id by linear search, removing
// the first match, and reports whether a removal occurred.
func (mi *MarkIndex) Delete(id uint64) bool {
	for i, m := range mi.marks {
		if m.hasID(id) {
			mi.marks = append(mi.marks[:i], mi.marks[i+1:]...)
			return true
		}
	}
	return false
}

// NextClosest returns the mark with the smallest frame_offset strictly
// greater than frame, tie-breaking by first-encountered.
func (mi *MarkIndex) NextClosest(frame uint64) (Mark, bool) {
	var best Mark
	found := false
	for _, m := range mi.marks {
		if m.FrameOffset <= frame {
			continue
		}
		if !found || m.FrameOffset-frame < best.FrameOffset-frame {
			best = m
			found = true
		}
	}
	return best, found
}

// PreviousClosest returns the mark with the largest frame_offset strictly
// less than frame, tie-breaking by first-encountered.
func (mi *MarkIndex) PreviousClosest(frame uint64) (Mark, bool) {
	var best Mark
	found := false
	for _, m := range mi.marks {
		if m.FrameOffset >= frame {
			continue
		}
		if !found || frame-m.FrameOffset < frame-best.FrameOffset {
			best = m
			found = true
		}
	}
	return best, found
}

// reset clears the index, used by Load to discard the previous session's
// marks before importing the new ones.
func (mi *MarkIndex) reset() {
	mi.marks = nil
}
