package state

import "sync"

// Board is the live drawing state of one session: the ordered stroke
// collection, the shape collection and the background color. Only the
// session mutates it; readers get copies.
type Board struct {
	mu         sync.RWMutex
	strokes    []Stroke
	shapes     []Shape
	background string
}

// NewBoard returns an empty board on the default background.
func NewBoard() *Board {
	return &Board{background: DefaultBackground}
}

// AppendStroke adds a finished stroke at the end of the rendering order and
// returns a snapshot of the collection as it stands afterwards.
func (b *Board) AppendStroke(s Stroke) []Stroke {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.strokes = append(b.strokes, s)
	Logger().Debug("stroke appended", "component", "board", "points", len(s), "strokes", len(b.strokes))
	return cloneStrokes(b.strokes)
}

// ReplaceStrokeWithShape removes the most recent stroke equal to s and adds
// the shape in its place. It returns false, leaving the board untouched, if
// the stroke is no longer present (a clear may have raced the finish).
func (b *Board) ReplaceStrokeWithShape(s Stroke, sh Shape) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := len(b.strokes) - 1; i >= 0; i-- {
		if b.strokes[i].Equal(s) {
			b.strokes = append(b.strokes[:i:i], b.strokes[i+1:]...)
			b.shapes = append(b.shapes, sh)
			Logger().Debug("stroke promoted to shape", "component", "board", "shape", sh.Type)
			return true
		}
	}
	return false
}

// AddShape appends a shape.
func (b *Board) AddShape(sh Shape) []Shape {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.shapes = append(b.shapes, sh)
	return cloneShapes(b.shapes)
}

// SetStrokes replaces the stroke collection, as when hydrating.
func (b *Board) SetStrokes(strokes []Stroke) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.strokes = cloneStrokes(strokes)
}

// SetShapes replaces the shape collection.
func (b *Board) SetShapes(shapes []Shape) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.shapes = cloneShapes(shapes)
}

// SetBackground records the background color.
func (b *Board) SetBackground(color string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.background = color
}

// Strokes returns a copy of the stroke collection in rendering order.
func (b *Board) Strokes() []Stroke {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return cloneStrokes(b.strokes)
}

// Shapes returns a copy of the shape collection.
func (b *Board) Shapes() []Shape {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return cloneShapes(b.shapes)
}

// Background returns the background color.
func (b *Board) Background() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.background
}

// Clear drops every stroke and shape. The background is kept.
func (b *Board) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.strokes = nil
	b.shapes = nil
	Logger().Info("board cleared", "component", "board")
}

// cloneStrokes copies the outer slice. Points are immutable, so strokes may
// share backing arrays.
func cloneStrokes(in []Stroke) []Stroke {
	if in == nil {
		return nil
	}
	out := make([]Stroke, len(in))
	copy(out, in)
	return out
}

func cloneShapes(in []Shape) []Shape {
	if in == nil {
		return nil
	}
	out := make([]Shape, len(in))
	copy(out, in)
	return out
}
