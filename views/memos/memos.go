package memos

import (
	"fmt"
	"strings"

	"coffee-wallet-tui/contract"
	"coffee-wallet-tui/helpers"
	"coffee-wallet-tui/styles"

	"github.com/charmbracelet/lipgloss"
)

const cardWidth = 34

// Title is the heading above the memo grid
func Title(n int, live bool) string {
	state := styles.MutedStyle.Render("○ not listening")
	if live {
		state = lipgloss.NewStyle().Foreground(styles.CAccent).Render("● live")
	}
	return styles.TitleStyle.Render(fmt.Sprintf("Memos from supporters (%d)", n)) + "  " + state
}

// Render lays memos out as a grid of cards in the order they were received
func Render(memos []contract.Memo, width int) string {
	if len(memos) == 0 {
		return styles.MutedStyle.Render("No memos yet. Be the first to buy a coffee!")
	}

	perRow := helpers.Max(1, width/(cardWidth+3))
	var rows []string
	for start := 0; start < len(memos); start += perRow {
		end := helpers.Min(start+perRow, len(memos))
		cards := make([]string, 0, end-start)
		for _, m := range memos[start:end] {
			cards = append(cards, Card(m))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	}
	return strings.Join(rows, "\n")
}

// Card renders one memo: the quoted message and who sent it when
func Card(m contract.Memo) string {
	msg := lipgloss.NewStyle().
		Foreground(styles.CText).
		Width(cardWidth).
		Render(fmt.Sprintf("%q", m.Message))
	from := styles.MutedStyle.
		Width(cardWidth).
		Render(fmt.Sprintf("From: %s at %s", m.Name, helpers.FormatMemoTime(m.Timestamp)))
	addr := lipgloss.NewStyle().
		Foreground(styles.CCoffee).
		Render(helpers.ShortenAddr(m.Address.Hex()))
	return styles.CardStyle.Render(msg + "\n" + from + "\n" + addr)
}
