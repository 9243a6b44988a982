package state

import "math"

const (
	// MinCirclePoints is the shortest stroke that can classify as a circle.
	MinCirclePoints = 10

	// circleSamples is the number of radius samples taken along a stroke.
	circleSamples = 20

	// DefaultCircleTolerance is the allowed deviation of any sampled radius
	// from the mean, as a multiple of the mean. The default is deliberately
	// loose: it accepts wobbly hand-drawn loops and also many ellipses that
	// are nowhere near round.
	DefaultCircleTolerance = 3.0

	// DefaultCirclePoints is the resolution of a canonical circle.
	DefaultCirclePoints = 100

	// closeGapFactor bounds the end-to-start gap, in mean step lengths, under
	// which a path counts as closed for the crossing test.
	closeGapFactor = 2.0

	// minLoopFill is the least area a closed path must enclose, as a
	// fraction of the circle of its mean radius.
	minLoopFill = 0.3
)

// CircleFit describes a stroke that classified as circular.
type CircleFit struct {
	Center    Point
	AvgRadius float64
}

// Classifier decides whether a finished stroke was meant as a circle.
// The zero value uses DefaultCircleTolerance.
type Classifier struct {
	Tolerance float64
}

// NewClassifier returns a Classifier with the given tolerance. Non-positive
// values fall back to DefaultCircleTolerance.
func NewClassifier(tolerance float64) Classifier {
	if tolerance <= 0 {
		tolerance = DefaultCircleTolerance
	}
	return Classifier{Tolerance: tolerance}
}

// SelfIntersects reports whether any two non-adjacent segments of the path
// cross. Paths with fewer than 4 points cannot self-intersect.
func SelfIntersects(points []Point) bool {
	if len(points) < 4 {
		return false
	}
	for i := 0; i < len(points)-1; i++ {
		for j := i + 2; j < len(points)-1; j++ {
			if segmentsIntersect(points[i], points[i+1], points[j], points[j+1]) {
				return true
			}
		}
	}
	return false
}

// orientation returns the sign of the cross product (q-p) x (r-q):
// 0 collinear, 1 clockwise, 2 counter-clockwise.
func orientation(p, q, r Point) int {
	v := (q.Y-p.Y)*(r.X-q.X) - (q.X-p.X)*(r.Y-q.Y)
	switch {
	case v == 0:
		return 0
	case v > 0:
		return 1
	default:
		return 2
	}
}

// onSegment reports whether q lies within the bounding box of segment pr.
// Only meaningful when p, q and r are collinear.
func onSegment(p, q, r Point) bool {
	return q.X <= math.Max(p.X, r.X) && q.X >= math.Min(p.X, r.X) &&
		q.Y <= math.Max(p.Y, r.Y) && q.Y >= math.Min(p.Y, r.Y)
}

func segmentsIntersect(p1, q1, p2, q2 Point) bool {
	o1 := orientation(p1, q1, p2)
	o2 := orientation(p1, q1, q2)
	o3 := orientation(p2, q2, p1)
	o4 := orientation(p2, q2, q1)

	if o1 != o2 && o3 != o4 {
		return true
	}

	// Collinear overlap.
	switch {
	case o1 == 0 && onSegment(p1, p2, q1):
		return true
	case o2 == 0 && onSegment(p1, q2, q1):
		return true
	case o3 == 0 && onSegment(p2, p1, q2):
		return true
	case o4 == 0 && onSegment(p2, q1, q2):
		return true
	}
	return false
}

// Centroid returns the arithmetic mean of the points. The result carries the
// first point's tool. An empty slice yields the zero Point.
func Centroid(points []Point) Point {
	if len(points) == 0 {
		return Point{}
	}
	var sx, sy float64
	for _, p := range points {
		sx += p.X
		sy += p.Y
	}
	n := float64(len(points))
	return Point{X: sx / n, Y: sy / n, Tool: points[0].Tool}
}

// ClassifyCircle is Classifier{}.Classify.
func ClassifyCircle(points []Point) (CircleFit, bool) {
	return Classifier{}.Classify(points)
}

// Classify reports whether the path is an intended closed circle. The path
// must have at least MinCirclePoints points and cross itself, either outright
// or once its end is joined back to its start (see closedLoop). Twenty indices
// ⌊i·N/10⌋ are sampled, so coverage wraps twice over the first half of the
// path; indices past the end are clamped to the last point. Every sampled
// distance to the centroid must lie within AvgRadius*Tolerance of the mean.
// A path that ends on its start must also enclose at least minLoopFill of
// the circle of that radius, so carets and slivers that merely return to
// their start are not circles.
func (c Classifier) Classify(points []Point) (CircleFit, bool) {
	if len(points) < MinCirclePoints {
		return CircleFit{}, false
	}
	loop := closedLoop(points)
	if !SelfIntersects(loop) {
		return CircleFit{}, false
	}
	tolerance := c.Tolerance
	if tolerance <= 0 {
		tolerance = DefaultCircleTolerance
	}

	center := Centroid(points)
	n := len(points)
	var dists [circleSamples]float64
	var sum float64
	for i := range circleSamples {
		idx := i * n / 10
		if idx >= n {
			idx = n - 1
		}
		dists[i] = points[idx].Distance(center)
		sum += dists[i]
	}
	avg := sum / circleSamples
	if avg == 0 || math.IsNaN(avg) {
		return CircleFit{}, false
	}

	band := avg * tolerance
	for _, d := range dists {
		if math.Abs(d-avg) > band {
			return CircleFit{}, false
		}
	}
	if loop[0] == loop[len(loop)-1] && enclosedArea(loop) < minLoopFill*math.Pi*avg*avg {
		return CircleFit{}, false
	}
	return CircleFit{Center: center, AvgRadius: avg}, true
}

// enclosedArea is the shoelace area of the polygon through points.
func enclosedArea(points []Point) float64 {
	var twice float64
	for i := range points {
		p, q := points[i], points[(i+1)%len(points)]
		twice += p.X*q.Y - q.X*p.Y
	}
	return math.Abs(twice) / 2
}

// closedLoop returns points with the start appended when the gap between the
// last and first point is no wider than closeGapFactor mean steps. A loop
// that just meets its start then touches its first segment, which counts as
// a crossing. Paths that already end on their start are returned as is.
func closedLoop(points []Point) []Point {
	n := len(points)
	if n < 3 {
		return points
	}
	first, last := points[0], points[n-1]
	gap := last.Distance(first)
	if gap == 0 {
		return points
	}
	var length float64
	for i := 1; i < n; i++ {
		length += points[i].Distance(points[i-1])
	}
	step := length / float64(n-1)
	if step == 0 || gap > step*closeGapFactor {
		return points
	}
	out := make([]Point, n+1)
	copy(out, points)
	out[n] = first
	return out
}

// CanonicalCircle returns pointCount+1 pen points evenly spaced by angle
// around (cx, cy). The first and last points coincide. A non-positive
// pointCount uses DefaultCirclePoints.
func CanonicalCircle(cx, cy, radius float64, pointCount int) Stroke {
	if pointCount <= 0 {
		pointCount = DefaultCirclePoints
	}
	out := make(Stroke, pointCount+1)
	for i := 0; i <= pointCount; i++ {
		angle := 2 * math.Pi * float64(i) / float64(pointCount)
		out[i] = Point{
			X:    cx + radius*math.Cos(angle),
			Y:    cy + radius*math.Sin(angle),
			Tool: ToolPen,
		}
	}
	// Close the loop exactly; cos/sin of 2π are off by a rounding error.
	out[pointCount] = out[0]
	return out
}

// CircleShape converts a fit into the Shape that replaces the stroke. The
// bounding box is that of the canonical circle.
func CircleShape(fit CircleFit, color string) Shape {
	r := fit.AvgRadius
	return Shape{
		Type:   ShapeCircle,
		StartX: fit.Center.X - r,
		StartY: fit.Center.Y - r,
		EndX:   fit.Center.X + r,
		EndY:   fit.Center.Y + r,
		Color:  color,
	}
}

// ShapeFromDrag builds a shape from a shape-tool drag.
func ShapeFromDrag(kind ShapeKind, start, end Point, color string) Shape {
	return Shape{
		Type:   kind,
		StartX: start.X,
		StartY: start.Y,
		EndX:   end.X,
		EndY:   end.Y,
		Color:  color,
	}
}

// ShapeKindFor maps a shape tool to the shape it draws.
func ShapeKindFor(tool ToolKind) (ShapeKind, bool) {
	switch tool {
	case ToolCircle:
		return ShapeCircle, true
	case ToolRectangle:
		return ShapeRectangle, true
	}
	return "", false
}
