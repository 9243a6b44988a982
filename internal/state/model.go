package state

import "math"

// ToolKind records which instrument produced a point.
type ToolKind string

const (
	ToolPen       ToolKind = "pen"
	ToolEraser    ToolKind = "eraser"
	ToolCircle    ToolKind = "circle"
	ToolRectangle ToolKind = "rectangle"
)

// IsShapeTool reports whether the tool draws a bounding-box shape rather than
// a freehand stroke.
func (t ToolKind) IsShapeTool() bool {
	return t == ToolCircle || t == ToolRectangle
}

// Point is a single recorded input sample. Points are never mutated after
// they are appended to a stroke.
type Point struct {
	X    float64  `json:"x"`
	Y    float64  `json:"y"`
	Tool ToolKind `json:"tool"`
}

// Pt is a convenience constructor for a Point.
func Pt(x, y float64, tool ToolKind) Point {
	return Point{X: x, Y: y, Tool: tool}
}

// Distance returns the Euclidean distance between two points.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Stroke is the ordered point sequence of one pointer-down to pointer-up
// gesture. A zero-length stroke is a gap sentinel.
type Stroke []Point

// IsGap reports whether s is the empty placeholder stroke.
func (s Stroke) IsGap() bool {
	return len(s) == 0
}

// Equal reports strict pointwise equality: same length and identical x, y and
// tool at every index.
func (s Stroke) Equal(other Stroke) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy that shares no backing array with s.
func (s Stroke) Clone() Stroke {
	if s == nil {
		return nil
	}
	out := make(Stroke, len(s))
	copy(out, s)
	return out
}

// Segments splits the stroke into maximal runs that share a tool, so that a
// mixed pen/eraser path can be redrawn with the right style per run. Adjacent
// runs share their boundary point so the rendered line stays continuous.
func (s Stroke) Segments() []Stroke {
	if len(s) == 0 {
		return nil
	}
	var out []Stroke
	start := 0
	for i := 1; i < len(s); i++ {
		if s[i].Tool != s[start].Tool {
			out = append(out, s[start:i+1])
			start = i
		}
	}
	return append(out, s[start:])
}

// ShapeKind identifies a bounding-box primitive.
type ShapeKind string

const (
	ShapeCircle    ShapeKind = "circle"
	ShapeRectangle ShapeKind = "rectangle"
)

// Shape is a bounding-box defined primitive, either dragged out with a shape
// tool or promoted from a freehand stroke that classified as a circle.
type Shape struct {
	Type   ShapeKind `json:"type"`
	StartX float64   `json:"startX"`
	StartY float64   `json:"startY"`
	EndX   float64   `json:"endX"`
	EndY   float64   `json:"endY"`
	Color  string    `json:"color"`
}

// Bounds returns the normalized bounding box of the shape.
func (s Shape) Bounds() Bounds {
	return NewBounds(Pt(s.StartX, s.StartY, ""), Pt(s.EndX, s.EndY, ""))
}

// Center returns the midpoint of the bounding box.
func (s Shape) Center() (x, y float64) {
	return (s.StartX + s.EndX) / 2, (s.StartY + s.EndY) / 2
}

// Radius returns the circle radius implied by the bounding box. Non-square
// boxes use the smaller half-extent.
func (s Shape) Radius() float64 {
	b := s.Bounds()
	return math.Min(b.Width, b.Height) / 2
}

// Envelope is the unit exchanged with the shared remote store. ClientID names
// the authoring session so a client can drop echoes of its own writes.
type Envelope struct {
	Points   Stroke `json:"points"`
	ClientID string `json:"clientId"`
}
