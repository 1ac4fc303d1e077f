package config

// Page identifies the screen being shown
type Page int

const (
	PageHome Page = iota
	PageSettings
)

// ClickableArea represents a clickable region for mouse support
type ClickableArea struct {
	X, Y          int
	Width, Height int
	Action        string
}
