package state

// History is a linear undo/redo stack of opaque snapshots with one cursor.
// It knows nothing about strokes; callers store whatever restores their view.
type History[T any] struct {
	entries []T
	index   int
}

// NewHistory returns an empty history.
func NewHistory[T any]() *History[T] {
	return &History[T]{index: -1}
}

// Save drops every entry after the cursor, appends s and moves the cursor
// onto it.
func (h *History[T]) Save(s T) {
	h.entries = append(h.entries[:h.index+1], s)
	h.index = len(h.entries) - 1
}

// Undo moves the cursor back one entry and returns the snapshot there.
// It is a no-op on the first entry or an empty history.
func (h *History[T]) Undo() (T, bool) {
	if !h.CanUndo() {
		var zero T
		return zero, false
	}
	h.index--
	return h.entries[h.index], true
}

// Redo moves the cursor forward one entry and returns the snapshot there.
// It is a no-op on the last entry.
func (h *History[T]) Redo() (T, bool) {
	if !h.CanRedo() {
		var zero T
		return zero, false
	}
	h.index++
	return h.entries[h.index], true
}

// Current returns the snapshot under the cursor.
func (h *History[T]) Current() (T, bool) {
	if h.index < 0 {
		var zero T
		return zero, false
	}
	return h.entries[h.index], true
}

func (h *History[T]) CanUndo() bool { return h.index > 0 }
func (h *History[T]) CanRedo() bool { return h.index < len(h.entries)-1 }

// Len returns the number of stored snapshots, including any redo entries.
func (h *History[T]) Len() int { return len(h.entries) }

// Reset empties the history.
func (h *History[T]) Reset() {
	clear(h.entries)
	h.entries = h.entries[:0]
	h.index = -1
}
