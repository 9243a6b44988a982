package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"LocalSketch/internal/state"
)

type colorSwatch struct {
	widget.BaseWidget
	Color    string
	OnTapped func(string)
}

func newColorSwatch(hex string, tapped func(string)) *colorSwatch {
	s := &colorSwatch{Color: hex, OnTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	rect := canvas.NewRectangle(hexColor(s.Color))
	rect.SetMinSize(fyne.NewSize(24, 24))

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1

	return widget.NewSimpleRenderer(container.NewStack(rect, border))
}

func (s *colorSwatch) Tapped(_ *fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped(s.Color)
	}
}

// NewToolbar builds the tool, history, file and background controls for
// board. Dialogs open on win.
func NewToolbar(board *BoardWidget, win fyne.Window) fyne.CanvasObject {
	tools := widget.NewToolbar(
		widget.NewToolbarAction(theme.DocumentCreateIcon(), func() { board.SetTool(state.ToolPen) }),
		widget.NewToolbarAction(theme.ContentRemoveIcon(), func() { board.SetTool(state.ToolEraser) }),
		widget.NewToolbarAction(theme.RadioButtonIcon(), func() { board.SetTool(state.ToolCircle) }),
		widget.NewToolbarAction(theme.CheckButtonIcon(), func() { board.SetTool(state.ToolRectangle) }),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ContentUndoIcon(), board.Undo),
		widget.NewToolbarAction(theme.ContentRedoIcon(), board.Redo),
		widget.NewToolbarAction(theme.ContentClearIcon(), func() {
			dialog.ShowConfirm("Clear board", "Remove every stroke and shape?", func(ok bool) {
				if ok {
					board.ClearBoard()
				}
			}, win)
		}),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), func() {
			d := dialog.NewFileSave(func(w fyne.URIWriteCloser, err error) {
				if err != nil || w == nil {
					return
				}
				board.SaveToFile(w)
			}, win)
			d.SetFileName("board.json")
			d.SetFilter(storage.NewExtensionFileFilter([]string{".json"}))
			d.Show()
		}),
		widget.NewToolbarAction(theme.FolderOpenIcon(), func() {
			d := dialog.NewFileOpen(func(r fyne.URIReadCloser, err error) {
				if err != nil || r == nil {
					return
				}
				board.LoadFromFile(r)
			}, win)
			d.SetFilter(storage.NewExtensionFileFilter([]string{".json"}))
			d.Show()
		}),
		widget.NewToolbarAction(theme.FileImageIcon(), func() {
			dialog.ShowFolderOpen(func(dir fyne.ListableURI, err error) {
				if err != nil || dir == nil {
					return
				}
				board.ExportPNG(dir.Path())
			}, win)
		}),
		widget.NewToolbarAction(theme.DocumentPrintIcon(), func() {
			d := dialog.NewFileSave(func(w fyne.URIWriteCloser, err error) {
				if err != nil || w == nil {
					return
				}
				board.ExportPDF(w)
			}, win)
			d.SetFileName("board.pdf")
			d.Show()
		}),
	)

	swatches := container.NewHBox()
	for _, bg := range state.BackgroundColors {
		swatches.Add(newColorSwatch(bg.Color, board.SetBackground))
	}

	return container.NewHBox(
		widget.NewLabel("Tool:"),
		tools,
		widget.NewSeparator(),
		widget.NewLabel("Background:"),
		swatches,
		layout.NewSpacer(),
	)
}
