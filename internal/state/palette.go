package state

// BackgroundColor is one entry of the background palette.
type BackgroundColor struct {
	Color    string
	Name     string
	Category string
}

const (
	DefaultBackground = "#ffffff"
	DarkBackground    = "#1a1a1a"
)

// BackgroundColors is the palette offered for the canvas background.
var BackgroundColors = []BackgroundColor{
	{Color: "#ffffff", Name: "White", Category: "neutral"},
	{Color: "#1a1a1a", Name: "Black", Category: "neutral"},
	{Color: "#F2F2F7", Name: "Light Gray", Category: "neutral"},
	{Color: "#8E8E93", Name: "Gray", Category: "neutral"},
	{Color: "#FF3B30", Name: "Red", Category: "vibrant"},
	{Color: "#007AFF", Name: "Blue", Category: "vibrant"},
	{Color: "#FF9500", Name: "Orange", Category: "vibrant"},
	{Color: "#34C759", Name: "Green", Category: "vibrant"},
	{Color: "#AF52DE", Name: "Purple", Category: "vibrant"},
	{Color: "#FF2D92", Name: "Pink", Category: "vibrant"},
	{Color: "#FFCC00", Name: "Yellow", Category: "vibrant"},
	{Color: "#5856D6", Name: "Indigo", Category: "vibrant"},
}

// PenColorFor returns the pen color that stays visible on the background:
// white on the dark background, black otherwise.
func PenColorFor(background string) string {
	if background == DarkBackground {
		return "#ffffff"
	}
	return "#000000"
}

const (
	PenWidth    = 3.0
	EraserWidth = 40.0
)
