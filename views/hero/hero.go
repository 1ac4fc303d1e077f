// Package hero renders the coffee page: title, wallet connection and the
// supporter form.
package hero

import (
	"strings"

	"coffee-wallet-tui/config"
	"coffee-wallet-tui/helpers"
	"coffee-wallet-tui/styles"

	"github.com/charmbracelet/lipgloss"
)

const (
	Title        = "Fuel Anjil's Web3 Journey"
	Tagline      = "Every coffee keeps the commits coming. Leave a name and a note for the road."
	ConnectLabel = "Connect your wallet"
	BuyLabel     = "Fuel Innovation with 0.001 ETH"

	// Actions attached to clickable areas
	ActionConnect = "connect"
	ActionBuy     = "buy"
)

// State is everything the hero page needs to draw itself
type State struct {
	Account       string
	Balance       string
	WalletMissing bool
	Connecting    bool
	Submitting    bool
	SpinnerView   string

	NameView      string
	MessageView   string
	ButtonFocused bool

	LastTx    string
	Notice    string
	NoticeErr bool
}

// Render returns the page and the clickable regions in it, with coordinates
// relative to the top-left of the returned content.
func Render(s State) (string, []config.ClickableArea) {
	var lines []string
	var areas []config.ClickableArea

	lines = append(lines, lipgloss.NewStyle().Bold(true).Render(helpers.FadeString(Title, "#C8A27A", "#F25D94")))
	lines = append(lines, styles.MutedStyle.Render(Tagline), "")

	if s.Account == "" {
		if s.WalletMissing {
			banner := lipgloss.NewStyle().
				Foreground(styles.CWarn).
				Bold(true).
				Render("Please install a wallet to continue.")
			hint := styles.MutedStyle.Render("Create a keystore account with `coffee wallet new`, or point --wallet-url at a JSON-RPC wallet such as Frame.")
			lines = append(lines, banner, hint, "")
		}
		label := ConnectLabel
		if s.Connecting {
			label = s.SpinnerView + " Connecting…"
		}
		areas = append(areas, config.ClickableArea{X: 0, Y: rows(lines), Width: lipgloss.Width(label) + 6, Height: 1, Action: ActionConnect})
		lines = append(lines, styles.Button(label, true))
		return strings.Join(lines, "\n"), areas
	}

	acct := styles.MutedStyle.Render("Connected: ") + helpers.FadeString(helpers.ShortenAddr(s.Account), styles.FadeFrom, styles.FadeTo)
	if s.Balance != "" {
		acct += styles.MutedStyle.Render("  •  " + s.Balance)
	}
	lines = append(lines, acct, "")

	label := lipgloss.NewStyle().Foreground(styles.CAccent).Bold(true)
	lines = append(lines, label.Render("Name"), s.NameView, "")
	lines = append(lines, label.Render("Message"), s.MessageView, "")

	buy := BuyLabel
	if s.Submitting {
		buy = s.SpinnerView + " Brewing… waiting for the transaction to be mined"
	}
	areas = append(areas, config.ClickableArea{X: 0, Y: rows(lines), Width: lipgloss.Width(buy) + 6, Height: 1, Action: ActionBuy})
	lines = append(lines, styles.Button(buy, s.ButtonFocused || s.Submitting))

	if s.LastTx != "" {
		lines = append(lines, "", styles.MutedStyle.Render("Last coffee: ")+s.LastTx)
	}
	if s.Notice != "" {
		style := lipgloss.NewStyle().Foreground(styles.CAccent)
		if s.NoticeErr {
			style = styles.ErrorStyle
		}
		lines = append(lines, "", style.Render(s.Notice))
	}

	return strings.Join(lines, "\n"), areas
}

// Nav returns the navigation bar for the coffee page
func Nav(width int, connected, editing bool) string {
	var keys []string
	switch {
	case editing:
		keys = []string{
			styles.Key("Tab") + " next field",
			styles.Key("Enter") + " buy (on button)",
			styles.Key("Esc") + " done",
		}
	case connected:
		keys = []string{
			styles.Key("i") + " write memo",
			styles.Key("m") + " memos",
			styles.Key("p") + " pay by QR",
			styles.Key("y") + " copy address",
			styles.Key("t") + " copy tx",
			styles.Key("s") + " settings",
			styles.Key("l") + " log",
			styles.Key("q") + " quit",
		}
	default:
		keys = []string{
			styles.Key("c") + " connect",
			styles.Key("m") + " memos",
			styles.Key("p") + " pay by QR",
			styles.Key("s") + " settings",
			styles.Key("l") + " log",
			styles.Key("q") + " quit",
		}
	}
	return styles.NavStyle.Width(width).Render(strings.Join(keys, "   "))
}

// rows is the screen row the next appended line lands on
func rows(lines []string) int {
	if len(lines) == 0 {
		return 0
	}
	return strings.Count(strings.Join(lines, "\n"), "\n") + 1
}
