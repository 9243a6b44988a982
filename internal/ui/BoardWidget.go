package ui

import (
	"context"
	"encoding/json"
	"fmt"
	"image/color"
	"io"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"github.com/gogpu/gg"

	"LocalSketch/internal/export"
	"LocalSketch/internal/render"
	"LocalSketch/internal/session"
	"LocalSketch/internal/state"
)

// BoardWidget is the drawing surface. Finished strokes live in the session
// and are shown through the raster canvas; the stroke under the pointer is
// drawn as vector lines on top until it is released.
type BoardWidget struct {
	widget.BaseWidget

	mu         sync.RWMutex
	session    *session.Session
	raster     *render.Canvas
	tracker    state.Tracker
	tool       state.ToolKind
	background string
	panX, panY float32

	statusBar *widget.Label
}

var _ fyne.Widget = (*BoardWidget)(nil)
var _ fyne.Draggable = (*BoardWidget)(nil)
var _ desktop.Mouseable = (*BoardWidget)(nil)
var _ desktop.Hoverable = (*BoardWidget)(nil)
var _ session.Renderer = (*BoardWidget)(nil)

// NewBoardWidget creates a board that paints into raster. It does nothing
// until a session is attached.
func NewBoardWidget(raster *render.Canvas) *BoardWidget {
	b := &BoardWidget{
		raster:     raster,
		tool:       state.ToolPen,
		background: state.DefaultBackground,
		statusBar:  widget.NewLabel("Ready"),
	}
	b.ExtendBaseWidget(b)
	return b
}

// Attach connects the board to the session whose strokes it shows.
func (b *BoardWidget) Attach(s *session.Session) {
	b.mu.Lock()
	b.session = s
	b.mu.Unlock()
}

func (b *BoardWidget) sess() *session.Session {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.session
}

// Redraw repaints the raster from the model. The session calls it from any
// goroutine, so the widget refresh is handed to the UI thread.
func (b *BoardWidget) Redraw(strokes []state.Stroke, shapes []state.Shape, background string) {
	b.raster.Redraw(strokes, shapes, background)
	b.mu.Lock()
	b.background = background
	b.mu.Unlock()
	onMain(b.Refresh)
}

// SetStatus shows text in the status bar. Safe from any goroutine.
func (b *BoardWidget) SetStatus(text string) {
	onMain(func() { b.statusBar.SetText(text) })
}

// onMain runs fn on the UI thread, or inline before the app is started.
func onMain(fn func()) {
	if fyne.CurrentApp() == nil {
		fn()
		return
	}
	fyne.Do(fn)
}

// StatusBar returns the label SetStatus writes to.
func (b *BoardWidget) StatusBar() *widget.Label { return b.statusBar }

// SetTool selects the instrument for the next stroke. A stroke in progress
// is abandoned.
func (b *BoardWidget) SetTool(tool state.ToolKind) {
	b.mu.Lock()
	b.tool = tool
	b.tracker.Cancel()
	b.mu.Unlock()
	b.Refresh()
}

// Tool returns the selected instrument.
func (b *BoardWidget) Tool() state.ToolKind {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.tool
}

func (b *BoardWidget) toBoard(pos fyne.Position) (float64, float64) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return float64(pos.X - b.panX), float64(pos.Y - b.panY)
}

func (b *BoardWidget) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	x, y := b.toBoard(e.Position)
	b.mu.Lock()
	b.tracker.Begin(x, y, b.tool)
	b.mu.Unlock()
	b.Refresh()
}

func (b *BoardWidget) Dragged(e *fyne.DragEvent) {
	b.mu.Lock()
	active := b.tracker.Active()
	b.mu.Unlock()
	if !active {
		return
	}
	x, y := b.toBoard(e.Position)
	b.mu.Lock()
	b.tracker.Move(x, y)
	b.mu.Unlock()
	b.Refresh()
}

func (b *BoardWidget) MouseUp(e *desktop.MouseEvent) {
	if e.Button == desktop.MouseButtonPrimary {
		b.finish()
	}
}

func (b *BoardWidget) DragEnd() { b.finish() }

// MouseOut finalizes a stroke the same way releasing the button does.
func (b *BoardWidget) MouseOut() { b.finish() }

func (b *BoardWidget) MouseIn(*desktop.MouseEvent)    {}
func (b *BoardWidget) MouseMoved(*desktop.MouseEvent) {}

// finish hands the tracked stroke to the session, which repaints the raster
// through Redraw. Single-point shape drags are dropped; a single pen or
// eraser point is a dot.
func (b *BoardWidget) finish() {
	b.mu.Lock()
	if !b.tracker.Active() {
		b.mu.Unlock()
		return
	}
	tool := b.tracker.Tool()
	stroke, ok := b.tracker.End()
	bg := b.background
	b.mu.Unlock()

	s := b.sess()
	if !ok || s == nil {
		b.Refresh()
		return
	}

	if kind, isShape := state.ShapeKindFor(tool); isShape {
		if len(stroke) < 2 {
			b.Refresh()
			return
		}
		shape := state.ShapeFromDrag(kind, stroke[0], stroke[len(stroke)-1], state.PenColorFor(bg))
		b.watch(s.AddShape(shape))
	} else {
		b.watch(s.FinishStroke(stroke))
	}
	b.raster.SaveState()
	b.Refresh()
}

// watch reports the outcome of background sync work in the status bar.
func (b *BoardWidget) watch(p *session.Pending) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := p.Wait(ctx); err != nil {
			b.SetStatus("Sync problem: " + err.Error())
		}
	}()
}

// Undo and Redo step through pixel snapshots. They do not touch strokes.
func (b *BoardWidget) Undo() {
	if b.raster.Undo() {
		b.Refresh()
	}
}

func (b *BoardWidget) Redo() {
	if b.raster.Redo() {
		b.Refresh()
	}
}

// ClearBoard clears strokes and shapes locally and in persistence.
func (b *BoardWidget) ClearBoard() {
	s := b.sess()
	if s == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.Clear(ctx); err != nil {
			b.SetStatus("Clear failed: " + err.Error())
			return
		}
		b.raster.SaveState()
		b.SetStatus("Board cleared")
	}()
}

// SetBackground changes the board color.
func (b *BoardWidget) SetBackground(hex string) {
	if s := b.sess(); s != nil {
		b.watch(s.SetBackground(hex))
		b.raster.SaveState()
	}
}

// SaveToFile writes the board as JSON.
func (b *BoardWidget) SaveToFile(writer fyne.URIWriteCloser) {
	defer writer.Close()
	s := b.sess()
	if s == nil {
		return
	}
	snap := s.Snapshot()
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		state.Logger().Warn("save failed", "component", "ui", "err", err)
		b.SetStatus("Error saving file")
		return
	}
	if _, err := writer.Write(data); err != nil {
		state.Logger().Warn("save failed", "component", "ui", "uri", writer.URI().String(), "err", err)
		b.SetStatus("Error writing file")
		return
	}
	b.SetStatus(fmt.Sprintf("Saved %d strokes and %d shapes", len(snap.Strokes), len(snap.Shapes)))
}

// LoadFromFile replaces the board with a file written by SaveToFile.
func (b *BoardWidget) LoadFromFile(reader fyne.URIReadCloser) {
	defer reader.Close()
	s := b.sess()
	if s == nil {
		return
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		b.SetStatus("Error reading file")
		return
	}
	var snap session.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		state.Logger().Warn("load failed", "component", "ui", "uri", reader.URI().String(), "err", err)
		b.SetStatus("Error parsing file - invalid format")
		return
	}
	b.watch(s.Restore(snap))
	b.raster.ResetHistory()
	b.SetStatus(fmt.Sprintf("Loaded %d strokes and %d shapes", len(snap.Strokes), len(snap.Shapes)))
}

// ExportPNG saves the rendered board as canvas-image.png in dir.
func (b *BoardWidget) ExportPNG(dir string) {
	url, err := export.PNGDataURL(b.raster.Image())
	if err == nil {
		var path string
		if path, err = export.DownloadDataURL(url, dir); err == nil {
			b.SetStatus("Saved " + path)
			return
		}
	}
	b.SetStatus("Export failed: " + err.Error())
}

// ExportPDF writes the board as a vector PDF.
func (b *BoardWidget) ExportPDF(writer fyne.URIWriteCloser) {
	defer writer.Close()
	s := b.sess()
	if s == nil {
		return
	}
	snap := s.Snapshot()
	err := export.WritePDF(writer, export.Board{Background: snap.Background, Strokes: snap.Strokes, Shapes: snap.Shapes})
	if err != nil {
		b.SetStatus("PDF export failed: " + err.Error())
		return
	}
	b.SetStatus("Exported " + writer.URI().Name())
}

func (b *BoardWidget) Scrolled(e *fyne.ScrollEvent) {
	b.mu.Lock()
	b.panX += e.Scrolled.DX
	b.panY += e.Scrolled.DY
	b.mu.Unlock()
	b.Refresh()
}

func (b *BoardWidget) CreateRenderer() fyne.WidgetRenderer {
	r := &boardWidgetRenderer{board: b}
	r.background = canvas.NewRectangle(hexColor(state.DefaultBackground))
	r.image = canvas.NewImageFromImage(b.raster.Image())
	r.image.FillMode = canvas.ImageFillOriginal
	r.image.ScaleMode = canvas.ImageScalePixels
	return r
}

type boardWidgetRenderer struct {
	board      *BoardWidget
	background *canvas.Rectangle
	image      *canvas.Image
	size       fyne.Size
}

func (r *boardWidgetRenderer) Objects() []fyne.CanvasObject {
	b := r.board
	b.mu.RLock()
	defer b.mu.RUnlock()

	objects := []fyne.CanvasObject{r.background, r.image}
	if !b.tracker.Active() {
		return objects
	}

	preview := b.tracker.Preview()
	ink := hexColor(state.PenColorFor(b.background))
	offset := func(p state.Point) fyne.Position {
		return fyne.NewPos(float32(p.X)+b.panX, float32(p.Y)+b.panY)
	}

	if kind, ok := state.ShapeKindFor(b.tracker.Tool()); ok && len(preview) >= 2 {
		sh := state.ShapeFromDrag(kind, preview[0], preview[len(preview)-1], "")
		box := sh.Bounds()
		var outline fyne.CanvasObject
		if kind == state.ShapeCircle {
			c := canvas.NewCircle(color.Transparent)
			c.StrokeColor, c.StrokeWidth = ink, float32(state.PenWidth)
			x, y := sh.Center()
			rad := sh.Radius()
			c.Move(offset(state.Pt(x-rad, y-rad, "")))
			c.Resize(fyne.NewSize(float32(2*rad), float32(2*rad)))
			outline = c
		} else {
			rect := canvas.NewRectangle(color.Transparent)
			rect.StrokeColor, rect.StrokeWidth = ink, float32(state.PenWidth)
			rect.Move(offset(state.Pt(box.X, box.Y, "")))
			rect.Resize(fyne.NewSize(float32(box.Width), float32(box.Height)))
			outline = rect
		}
		return append(objects, outline)
	}

	for _, seg := range preview.Segments() {
		segColor, width := ink, float32(state.PenWidth)
		if seg[0].Tool == state.ToolEraser {
			segColor, width = hexColor(b.background), float32(state.EraserWidth)
		}
		for i := 1; i < len(seg); i++ {
			line := canvas.NewLine(segColor)
			line.StrokeWidth = width
			line.Position1 = offset(seg[i-1])
			line.Position2 = offset(seg[i])
			objects = append(objects, line)
		}
	}
	return objects
}

func (r *boardWidgetRenderer) Refresh() {
	b := r.board
	b.mu.RLock()
	bg := b.background
	pan := fyne.NewPos(b.panX, b.panY)
	b.mu.RUnlock()

	r.background.FillColor = hexColor(bg)
	r.image.Image = b.raster.Image()
	r.image.Move(pan)
	w, h := b.raster.Size()
	r.image.Resize(fyne.NewSize(float32(w), float32(h)))
	r.Layout(r.size)
	canvas.Refresh(r.image)
	canvas.Refresh(b)
}

func (r *boardWidgetRenderer) Destroy() {}

func (r *boardWidgetRenderer) Layout(size fyne.Size) {
	r.size = size
	r.background.Resize(size)
}

func (r *boardWidgetRenderer) MinSize() fyne.Size {
	return fyne.NewSize(300, 300)
}

// hexColor converts a #rrggbb palette entry for fyne.
func hexColor(hex string) color.Color {
	return gg.Hex(hex).Color()
}
