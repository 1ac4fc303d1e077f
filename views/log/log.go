package log

import (
	"fmt"

	"coffee-wallet-tui/helpers"
	"coffee-wallet-tui/styles"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
)

// Height returns how many lines the log viewport gets for a terminal of the
// given height: at most a third of the screen and never more than 15 lines.
func Height(termHeight int) int {
	// header, nav, footer, title and borders
	reservedHeight := 12
	availableHeight := helpers.Max(3, termHeight-reservedHeight)
	return helpers.Min(availableHeight, helpers.Min(termHeight/3, 15))
}

// Render renders the diagnostic log panel
func Render(width int, vp viewport.Model) string {
	title := lipgloss.NewStyle().
		Foreground(styles.CAccent2).
		Bold(true).
		Render("Log")

	border := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.CBorder).
		Padding(0, 1).
		Width(helpers.Max(0, width-2)).
		Height(vp.Height + 2) // title and spacing

	if vp.TotalLineCount() == 0 {
		return border.Render(title + "\n\n" + styles.MutedStyle.Render("nothing logged yet"))
	}

	scrollInfo := ""
	if vp.TotalLineCount() > vp.Height {
		scrollInfo = styles.MutedStyle.Render(fmt.Sprintf(" [%d%%]", int(vp.ScrollPercent()*100)))
	}

	return border.Render(title + scrollInfo + "\n\n" + vp.View())
}
