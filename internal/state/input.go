package state

// Tracker builds the active stroke between pointer-down and pointer-up on one
// device. It is not safe for concurrent use; input events arrive on one
// goroutine.
type Tracker struct {
	tool    ToolKind
	current Stroke
	active  bool
}

// Begin starts a new stroke at (x, y). Any stroke in progress is discarded.
func (t *Tracker) Begin(x, y float64, tool ToolKind) {
	if tool == "" {
		tool = ToolPen
	}
	t.tool = tool
	t.current = Stroke{Pt(x, y, tool)}
	t.active = true
}

// Move records a drag sample. Shape tools keep only the anchor and the latest
// position. Samples identical to the previous point are dropped.
func (t *Tracker) Move(x, y float64) {
	if !t.active {
		return
	}
	p := Pt(x, y, t.tool)
	if t.tool.IsShapeTool() {
		t.current = append(t.current[:1], p)
		return
	}
	if t.current[len(t.current)-1] == p {
		return
	}
	t.current = append(t.current, p)
}

// End finalizes the stroke. It returns false if no stroke was in progress.
// Pointer-cancel and pointer-out end a stroke the same way.
func (t *Tracker) End() (Stroke, bool) {
	if !t.active {
		return nil, false
	}
	s := t.current
	t.current = nil
	t.active = false
	return s, true
}

// Cancel abandons the stroke in progress, for example on a tool switch.
func (t *Tracker) Cancel() {
	t.current = nil
	t.active = false
}

// Active reports whether a stroke is in progress.
func (t *Tracker) Active() bool { return t.active }

// Tool returns the tool of the stroke in progress.
func (t *Tracker) Tool() ToolKind { return t.tool }

// Preview returns a copy of the stroke in progress for live rendering.
func (t *Tracker) Preview() Stroke { return t.current.Clone() }
