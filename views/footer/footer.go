package footer

import (
	"strings"

	"coffee-wallet-tui/styles"

	"github.com/charmbracelet/lipgloss"
)

// Link is one outbound footer link
type Link struct {
	Label string
	URL   string
}

// Links are the static links shown under the page
var Links = []Link{
	{Label: "Tech Blog", URL: "https://skepticfuzz.wordpress.com"},
	{Label: "GitHub", URL: "https://github.com/fuzztobread"},
	{Label: "Twitter", URL: "https://twitter.com/fuzztobread"},
}

// Render lays the links out on one centered line
func Render(width int) string {
	parts := make([]string, 0, len(Links))
	for _, l := range Links {
		parts = append(parts,
			lipgloss.NewStyle().Foreground(styles.CCoffee).Bold(true).Render(l.Label)+" "+
				styles.MutedStyle.Render(l.URL))
	}
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Render(strings.Join(parts, styles.MutedStyle.Render("  ·  ")))
}
