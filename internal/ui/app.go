package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// RunApp opens the board window and blocks until it is closed. A non-empty
// shareLink is shown so the host can pass it to peers. onClose runs once the
// window is gone.
func RunApp(shareLink string, board *BoardWidget, onClose func()) {
	myApp := app.NewWithID("io.localsketch")
	myWindow := myApp.NewWindow("LocalSketch")
	myWindow.Resize(fyne.NewSize(1024, 768))

	toolbar := NewToolbar(board, myWindow)

	bottom := []fyne.CanvasObject{board.StatusBar()}
	if shareLink != "" {
		link := widget.NewEntry()
		link.SetText(shareLink)
		link.Disable()
		bottom = append(bottom, container.NewBorder(nil, nil, widget.NewLabel("Share:"), nil, link))
	}

	content := container.NewBorder(toolbar, container.NewVBox(bottom...), nil, nil, board)
	myWindow.SetContent(content)
	myWindow.ShowAndRun()

	if onClose != nil {
		onClose()
	}
}
