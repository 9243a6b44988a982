package export

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"LocalSketch/internal/state"
)

// pageMargin is the blank border around the drawing, in millimetres.
const pageMargin = 10.0

// Board is what gets exported: the strokes and shapes in rendering order on
// a background color.
type Board struct {
	Background string
	Strokes    []state.Stroke
	Shapes     []state.Shape
}

// WritePDF renders the board as vector lines on one A4 page, scaled to fit
// inside the margins.
func WritePDF(w io.Writer, b Board) error {
	p := gofpdf.New("P", "mm", "A4", "")
	p.AddPage()
	pageW, pageH := p.GetPageSize()

	bg := b.Background
	if bg == "" {
		bg = state.DefaultBackground
	}
	setFill(p, bg)
	p.Rect(0, 0, pageW, pageH, "F")

	bounds, ok := state.ContentBounds(b.Strokes, b.Shapes)
	if ok {
		bounds = bounds.Pad(state.EraserWidth / 2)
		scale := math.Min((pageW-2*pageMargin)/bounds.Width, (pageH-2*pageMargin)/bounds.Height)
		if math.IsInf(scale, 0) || scale > 1 {
			scale = 1
		}
		tx := func(x float64) float64 { return pageMargin + (x-bounds.X)*scale }
		ty := func(y float64) float64 { return pageMargin + (y-bounds.Y)*scale }

		p.SetLineCapStyle("round")
		p.SetLineJoinStyle("round")
		for _, st := range b.Strokes {
			for _, seg := range st.Segments() {
				color, width := state.PenColorFor(bg), state.PenWidth
				if seg[0].Tool == state.ToolEraser {
					color, width = bg, state.EraserWidth
				}
				setDraw(p, color)
				p.SetLineWidth(width * scale)
				if len(seg) == 1 {
					setFill(p, color)
					p.Circle(tx(seg[0].X), ty(seg[0].Y), width*scale/2, "F")
					continue
				}
				for i := 1; i < len(seg); i++ {
					p.Line(tx(seg[i-1].X), ty(seg[i-1].Y), tx(seg[i].X), ty(seg[i].Y))
				}
			}
		}

		p.SetLineWidth(state.PenWidth * scale)
		for _, sh := range b.Shapes {
			color := sh.Color
			if color == "" {
				color = state.PenColorFor(bg)
			}
			setDraw(p, color)
			switch sh.Type {
			case state.ShapeCircle:
				x, y := sh.Center()
				p.Circle(tx(x), ty(y), sh.Radius()*scale, "D")
			case state.ShapeRectangle:
				r := sh.Bounds()
				p.Rect(tx(r.X), ty(r.Y), r.Width*scale, r.Height*scale, "D")
			}
		}
	}

	if err := p.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func setDraw(p *gofpdf.Fpdf, hex string) {
	r, g, b := parseHex(hex)
	p.SetDrawColor(r, g, b)
}

func setFill(p *gofpdf.Fpdf, hex string) {
	r, g, b := parseHex(hex)
	p.SetFillColor(r, g, b)
}

// parseHex reads #rrggbb or #rgb. Anything else is black.
func parseHex(hex string) (r, g, b int) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return 0, 0, 0
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)
}
