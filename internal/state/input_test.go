package state

import "testing"

func TestTrackerFreehand(t *testing.T) {
	var tr Tracker
	if _, ok := tr.End(); ok {
		t.Fatal("End without Begin should report no stroke")
	}

	tr.Begin(0, 0, ToolPen)
	tr.Move(5, 0)
	tr.Move(5, 0)
	tr.Move(10, 0)
	if !tr.Active() {
		t.Fatal("tracker should be active while dragging")
	}
	if p := tr.Preview(); len(p) != 3 {
		t.Fatalf("Preview() has %d points, want 3", len(p))
	}

	s, ok := tr.End()
	if !ok {
		t.Fatal("End() reported no stroke")
	}
	want := Stroke{Pt(0, 0, ToolPen), Pt(5, 0, ToolPen), Pt(10, 0, ToolPen)}
	if !s.Equal(want) {
		t.Errorf("stroke = %v, want %v", s, want)
	}
	if tr.Active() {
		t.Error("tracker should be idle after End")
	}
	tr.Move(20, 20)
	if _, ok := tr.End(); ok {
		t.Error("Move after End should not start a stroke")
	}
}

func TestTrackerShapeTool(t *testing.T) {
	var tr Tracker
	tr.Begin(10, 10, ToolRectangle)
	tr.Move(20, 20)
	tr.Move(30, 25)
	s, _ := tr.End()
	want := Stroke{Pt(10, 10, ToolRectangle), Pt(30, 25, ToolRectangle)}
	if !s.Equal(want) {
		t.Errorf("shape drag = %v, want %v", s, want)
	}
}

func TestTrackerCancel(t *testing.T) {
	var tr Tracker
	tr.Begin(1, 1, "")
	if tr.Tool() != ToolPen {
		t.Errorf("empty tool should default to pen, got %q", tr.Tool())
	}
	tr.Cancel()
	if _, ok := tr.End(); ok {
		t.Error("cancelled stroke should not finish")
	}
}

func TestStrokeSegments(t *testing.T) {
	s := Stroke{
		Pt(0, 0, ToolPen), Pt(1, 0, ToolPen),
		Pt(2, 0, ToolEraser), Pt(3, 0, ToolEraser),
		Pt(4, 0, ToolPen),
	}
	segs := s.Segments()
	if len(segs) != 3 {
		t.Fatalf("Segments() = %d runs, want 3", len(segs))
	}
	if segs[0][0].Tool != ToolPen || segs[1][0].Tool != ToolEraser || segs[2][0].Tool != ToolPen {
		t.Errorf("run tools = %q %q %q", segs[0][0].Tool, segs[1][0].Tool, segs[2][0].Tool)
	}
	// Each run ends on the first point of the next.
	if segs[0][len(segs[0])-1] != segs[1][0] {
		t.Error("runs should share their boundary point")
	}
	if Stroke(nil).Segments() != nil {
		t.Error("gap has no segments")
	}
}
