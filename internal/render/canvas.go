// Package render rasterizes a board with gogpu/gg. The resulting pixels back
// PNG export and the pixel-level undo/redo history.
package render

import (
	"fmt"
	"image"
	"image/draw"
	"io"
	"sync"

	"github.com/gogpu/gg"

	"LocalSketch/internal/state"
)

// Canvas is an offscreen raster of one board. It implements
// session.Renderer and is safe for concurrent use.
type Canvas struct {
	mu      sync.Mutex
	dc      *gg.Context
	width   int
	height  int
	bg      string
	history *state.History[*image.RGBA]

	circlePoints int
}

// NewCanvas returns a canvas cleared to the default background, with that
// blank state as the first history entry.
func NewCanvas(width, height int) *Canvas {
	c := &Canvas{
		dc:      gg.NewContext(width, height),
		width:   width,
		height:  height,
		bg:      state.DefaultBackground,
		history: state.NewHistory[*image.RGBA](),

		circlePoints: state.DefaultCirclePoints,
	}
	c.dc.ClearWithColor(gg.Hex(c.bg))
	c.history.Save(c.imageLocked())
	return c
}

// Size returns the canvas dimensions in pixels.
func (c *Canvas) Size() (width, height int) {
	return c.width, c.height
}

// SetCirclePoints sets how many segments approximate a circle shape.
func (c *Canvas) SetCirclePoints(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.circlePoints = n
}

// Redraw repaints the whole board: background, strokes in order, then
// shapes.
func (c *Canvas) Redraw(strokes []state.Stroke, shapes []state.Shape, background string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.bg = background
	c.dc.ClearWithColor(gg.Hex(background))
	for _, s := range strokes {
		c.drawStroke(s)
	}
	for _, sh := range shapes {
		c.drawShape(sh)
	}
}

// DrawStroke paints one stroke on top of the current pixels, as while the
// pointer is still down.
func (c *Canvas) DrawStroke(s state.Stroke) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drawStroke(s)
}

// drawStroke strokes each same-tool run. Eraser runs paint the background
// color with the wide eraser width.
func (c *Canvas) drawStroke(s state.Stroke) {
	for _, seg := range s.Segments() {
		color, width := state.PenColorFor(c.bg), state.PenWidth
		if seg[0].Tool == state.ToolEraser {
			color, width = c.bg, state.EraserWidth
		}
		c.dc.SetHexColor(color)

		if len(seg) == 1 {
			c.dc.DrawPoint(seg[0].X, seg[0].Y, width/2)
			c.fill()
			continue
		}
		c.dc.SetLineWidth(width)
		c.dc.SetLineCap(gg.LineCapRound)
		c.dc.SetLineJoin(gg.LineJoinRound)
		c.dc.MoveTo(seg[0].X, seg[0].Y)
		for _, p := range seg[1:] {
			c.dc.LineTo(p.X, p.Y)
		}
		c.stroke()
	}
}

func (c *Canvas) drawShape(sh state.Shape) {
	color := sh.Color
	if color == "" {
		color = state.PenColorFor(c.bg)
	}
	c.dc.SetHexColor(color)
	c.dc.SetLineWidth(state.PenWidth)
	c.dc.SetLineJoin(gg.LineJoinRound)

	switch sh.Type {
	case state.ShapeCircle:
		x, y := sh.Center()
		pts := state.CanonicalCircle(x, y, sh.Radius(), c.circlePoints)
		c.dc.MoveTo(pts[0].X, pts[0].Y)
		for _, p := range pts[1:] {
			c.dc.LineTo(p.X, p.Y)
		}
		c.dc.ClosePath()
	case state.ShapeRectangle:
		b := sh.Bounds()
		c.dc.DrawRectangle(b.X, b.Y, b.Width, b.Height)
	default:
		return
	}
	c.stroke()
}

func (c *Canvas) stroke() {
	if err := c.dc.Stroke(); err != nil {
		state.Logger().Warn("stroke failed", "component", "render", "err", err)
	}
}

func (c *Canvas) fill() {
	if err := c.dc.Fill(); err != nil {
		state.Logger().Warn("fill failed", "component", "render", "err", err)
	}
}

// Image returns a copy of the current pixels.
func (c *Canvas) Image() *image.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.imageLocked()
}

func (c *Canvas) imageLocked() *image.RGBA {
	_ = c.dc.FlushGPU()
	if img, ok := c.dc.Image().(*image.RGBA); ok {
		return img
	}
	img := c.dc.Image()
	out := image.NewRGBA(img.Bounds())
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)
	return out
}

// EncodePNG writes the current pixels as PNG.
func (c *Canvas) EncodePNG(w io.Writer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.dc.EncodePNG(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// SaveState pushes the current pixels onto the history, dropping any redo
// entries.
func (c *Canvas) SaveState() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history.Save(c.imageLocked())
}

// Undo restores the previous history entry. It is a no-op at the oldest one.
func (c *Canvas) Undo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	img, ok := c.history.Undo()
	if ok {
		c.restore(img)
	}
	return ok
}

// Redo restores the next history entry. It is a no-op at the newest one.
func (c *Canvas) Redo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	img, ok := c.history.Redo()
	if ok {
		c.restore(img)
	}
	return ok
}

// CanUndo and CanRedo report whether Undo or Redo would change anything.
func (c *Canvas) CanUndo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.CanUndo()
}

func (c *Canvas) CanRedo() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.CanRedo()
}

// ResetHistory forgets every entry and records the current pixels as the
// new starting point.
func (c *Canvas) ResetHistory() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history.Reset()
	c.history.Save(c.imageLocked())
}

func (c *Canvas) restore(img *image.RGBA) {
	next := gg.NewContextForImage(img)
	c.dc.Close()
	c.dc = next
}

// Close releases the drawing context.
func (c *Canvas) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history.Reset()
	return c.dc.Close()
}
