package ui

import (
	"context"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"

	"LocalSketch/internal/render"
	"LocalSketch/internal/session"
	"LocalSketch/internal/state"
	"LocalSketch/internal/storage"
)

func newTestBoard(t *testing.T) (*BoardWidget, *session.Session) {
	t.Helper()
	test.NewTempApp(t)

	raster := render.NewCanvas(200, 200)
	t.Cleanup(func() { raster.Close() })
	board := NewBoardWidget(raster)
	s, err := session.New(session.Options{ClientID: "ui-test", Store: storage.NewMemory(), Renderer: board})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	board.Attach(s)
	return board, s
}

func press(b *BoardWidget, x, y float32) {
	b.MouseDown(&desktop.MouseEvent{
		PointEvent: fyne.PointEvent{Position: fyne.NewPos(x, y)},
		Button:     desktop.MouseButtonPrimary,
	})
}

func drag(b *BoardWidget, x, y float32) {
	b.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(x, y)}})
}

func release(b *BoardWidget) {
	b.MouseUp(&desktop.MouseEvent{Button: desktop.MouseButtonPrimary})
}

func TestBoardFinishesPenStroke(t *testing.T) {
	b, s := newTestBoard(t)

	press(b, 10, 10)
	drag(b, 20, 10)
	drag(b, 30, 10)
	release(b)
	if err := s.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}

	strokes := s.Strokes()
	if len(strokes) != 1 || len(strokes[0]) != 3 {
		t.Fatalf("strokes = %v, want one three-point stroke", strokes)
	}
	if strokes[0][0] != state.Pt(10, 10, state.ToolPen) {
		t.Errorf("first point = %+v", strokes[0][0])
	}
	if c := b.raster.Image().RGBAAt(20, 10); c.R > 0x80 {
		t.Errorf("pixel under the stroke = %+v, want ink", c)
	}
	if !b.raster.CanUndo() {
		t.Error("a finished stroke should be undoable")
	}
}

func TestBoardRectangleTool(t *testing.T) {
	b, s := newTestBoard(t)
	b.SetTool(state.ToolRectangle)

	press(b, 50, 60)
	drag(b, 70, 65)
	drag(b, 90, 100)
	release(b)

	shapes := s.Shapes()
	if len(shapes) != 1 {
		t.Fatalf("shapes = %v, want one rectangle", shapes)
	}
	want := state.Shape{Type: state.ShapeRectangle, StartX: 50, StartY: 60, EndX: 90, EndY: 100, Color: "#000000"}
	if shapes[0] != want {
		t.Errorf("shape = %+v, want %+v", shapes[0], want)
	}
	if len(s.Strokes()) != 0 {
		t.Error("a shape drag should not add a stroke")
	}
}

func TestBoardMouseOutFinishes(t *testing.T) {
	b, s := newTestBoard(t)

	press(b, 5, 5)
	drag(b, 15, 15)
	b.MouseOut()
	release(b)

	if n := len(s.Strokes()); n != 1 {
		t.Errorf("strokes = %d, want 1 (pointer-out ends the stroke once)", n)
	}
}

func TestBoardToolSwitchAbandonsStroke(t *testing.T) {
	b, s := newTestBoard(t)

	press(b, 5, 5)
	drag(b, 15, 15)
	b.SetTool(state.ToolEraser)
	release(b)

	if n := len(s.Strokes()); n != 0 {
		t.Errorf("strokes = %d, want the abandoned stroke dropped", n)
	}
	if b.Tool() != state.ToolEraser {
		t.Errorf("tool = %s", b.Tool())
	}
}
