package state

// Bounds is an axis-aligned rectangle in canvas coordinates.
type Bounds struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// NewBounds returns the smallest Bounds containing every given point.
// No points yields the zero Bounds.
func NewBounds(points ...Point) Bounds {
	if len(points) == 0 {
		return Bounds{}
	}

	minX, minY := points[0].X, points[0].Y
	maxX, maxY := points[0].X, points[0].Y

	for _, point := range points[1:] {
		if point.X < minX {
			minX = point.X
		}
		if point.X > maxX {
			maxX = point.X
		}
		if point.Y < minY {
			minY = point.Y
		}
		if point.Y > maxY {
			maxY = point.Y
		}
	}

	return Bounds{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Pad grows the box by padding on every side.
func (b Bounds) Pad(padding float64) Bounds {
	return Bounds{
		X:      b.X - padding,
		Y:      b.Y - padding,
		Width:  b.Width + 2*padding,
		Height: b.Height + 2*padding,
	}
}

// Union returns the smallest box containing both boxes.
func (b Bounds) Union(other Bounds) Bounds {
	minX := b.X
	if other.X < minX {
		minX = other.X
	}

	minY := b.Y
	if other.Y < minY {
		minY = other.Y
	}

	maxX := b.X + b.Width
	if other.X+other.Width > maxX {
		maxX = other.X + other.Width
	}

	maxY := b.Y + b.Height
	if other.Y+other.Height > maxY {
		maxY = other.Y + other.Height
	}

	return Bounds{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Overlaps reports whether the two boxes touch or intersect.
func (b Bounds) Overlaps(other Bounds) bool {
	return !(b.X+b.Width < other.X || other.X+other.Width < b.X ||
		b.Y+b.Height < other.Y || other.Y+other.Height < b.Y)
}

// Contains reports whether the point lies inside the box, edges included.
func (b Bounds) Contains(p Point) bool {
	return p.X >= b.X && p.X <= b.X+b.Width &&
		p.Y >= b.Y && p.Y <= b.Y+b.Height
}

// ContentBounds returns the box covering every stroke and shape, or false if
// there is nothing drawn. Exporters use it to fit the page to the drawing.
func ContentBounds(strokes []Stroke, shapes []Shape) (Bounds, bool) {
	var (
		out   Bounds
		found bool
	)
	add := func(b Bounds) {
		if !found {
			out, found = b, true
			return
		}
		out = out.Union(b)
	}
	for _, s := range strokes {
		if s.IsGap() {
			continue
		}
		add(NewBounds(s...))
	}
	for _, sh := range shapes {
		add(sh.Bounds())
	}
	return out, found
}
