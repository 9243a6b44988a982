package export

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"LocalSketch/internal/state"
)

func TestDownloadDataURL(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})

	url, err := PNGDataURL(img)
	if err != nil {
		t.Fatal(err)
	}
	dir := filepath.Join(t.TempDir(), "downloads")
	path, err := DownloadDataURL(url, dir)
	if err != nil {
		t.Fatalf("DownloadDataURL: %v", err)
	}
	if filepath.Base(path) != "canvas-image.png" {
		t.Errorf("saved as %s, want canvas-image.png", path)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	got, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if r, _, _, _ := got.At(1, 1).RGBA(); r != 0xffff {
		t.Errorf("pixel (1,1) red = %#x, want 0xffff", r)
	}
}

func TestDownloadDataURLRejects(t *testing.T) {
	for _, url := range []string{
		"",
		"data:image/jpeg;base64,AAAA",
		"data:image/png;base64,!!!",
		"data:image/png;base64,aGVsbG8=",
	} {
		if _, err := DownloadDataURL(url, t.TempDir()); !errors.Is(err, ErrNotPNGDataURL) {
			t.Errorf("DownloadDataURL(%q) = %v, want ErrNotPNGDataURL", url, err)
		}
	}
}

func TestWritePDF(t *testing.T) {
	tests := []struct {
		name  string
		board Board
	}{
		{"empty", Board{}},
		{"strokes and shapes", Board{
			Background: state.DarkBackground,
			Strokes: []state.Stroke{
				{state.Pt(0, 0, state.ToolPen), state.Pt(100, 50, state.ToolPen), state.Pt(120, 50, state.ToolEraser)},
				{state.Pt(300, 300, state.ToolPen)},
				{},
			},
			Shapes: []state.Shape{
				state.ShapeFromDrag(state.ShapeRectangle, state.Pt(10, 10, ""), state.Pt(60, 40, ""), "#ff0000"),
				state.CircleShape(state.CircleFit{Center: state.Pt(200, 200, state.ToolPen), AvgRadius: 40}, ""),
			},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WritePDF(&buf, tt.board); err != nil {
				t.Fatalf("WritePDF: %v", err)
			}
			if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
				t.Errorf("output does not start with a PDF header")
			}
		})
	}
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in      string
		r, g, b int
	}{
		{"#1a1a1a", 0x1a, 0x1a, 0x1a},
		{"#fff", 255, 255, 255},
		{"ff8000", 255, 128, 0},
		{"#zzzzzz", 0, 0, 0},
		{"", 0, 0, 0},
	}
	for _, tt := range tests {
		r, g, b := parseHex(tt.in)
		if r != tt.r || g != tt.g || b != tt.b {
			t.Errorf("parseHex(%q) = %d,%d,%d; want %d,%d,%d", tt.in, r, g, b, tt.r, tt.g, tt.b)
		}
	}
}
