package settings

import (
	"strings"

	"coffee-wallet-tui/config"
	"coffee-wallet-tui/helpers"
	"coffee-wallet-tui/styles"

	"github.com/charmbracelet/lipgloss"
)

// Nav returns the navigation bar for settings view
func Nav(width int, settingsMode string) string {
	var left string
	if settingsMode == "add" || settingsMode == "edit" {
		left = strings.Join([]string{
			styles.Key("Tab") + " next field",
			styles.Key("Enter") + " save",
			styles.Key("Esc") + " cancel",
		}, "   ")
	} else {
		left = strings.Join([]string{
			styles.Key("↑/↓") + " select",
			styles.Key("Enter") + " connect",
			styles.Key("a") + " add",
			styles.Key("e") + " edit",
			styles.Key("d") + " delete",
			styles.Key("l") + " log",
			styles.Key("Esc") + " back",
		}, "   ")
	}

	return styles.NavStyle.Width(width).Render(left)
}

// Render renders the RPC endpoint list together with the wallet and contract in use
func Render(rpcURLs []config.RPCUrl, selectedIdx int, w config.Wallet, contract string) string {
	lines := []string{styles.TitleStyle.Render("Settings"), ""}

	lines = append(lines, styles.MutedStyle.Render("Contract: ")+helpers.FadeString(helpers.ShortenAddr(contract), styles.FadeFrom, styles.FadeTo))
	switch w.Kind {
	case config.WalletRPC:
		lines = append(lines, styles.MutedStyle.Render("Wallet:   JSON-RPC at ")+w.URL)
	default:
		lines = append(lines, styles.MutedStyle.Render("Wallet:   keystore in ")+w.Keystore)
	}
	lines = append(lines, "")

	if len(rpcURLs) == 0 {
		lines = append(lines, styles.MutedStyle.Render("No RPC URLs configured."))
		lines = append(lines, "")
		lines = append(lines, styles.MutedStyle.Render("Press ")+styles.Key("a")+styles.MutedStyle.Render(" to add your first RPC URL."))
		return strings.Join(lines, "\n")
	}

	lines = append(lines, styles.MutedStyle.Render("RPC Endpoints (ws:// endpoints stream memos live, http:// ones are polled):"))
	lines = append(lines, "")

	for i, rpc := range rpcURLs {
		marker := lipgloss.NewStyle().Foreground(styles.CMuted).Render("○ ")
		if rpc.Active {
			marker = lipgloss.NewStyle().Foreground(styles.CAccent).Render("● ")
		}

		nameStyle := lipgloss.NewStyle().Foreground(styles.CText)
		urlStyle := lipgloss.NewStyle().Foreground(styles.CMuted)

		if i == selectedIdx {
			nameStyle = nameStyle.Background(styles.CPanel).Foreground(styles.CAccent2).Bold(true)
			urlStyle = urlStyle.Background(styles.CPanel)
			marker = lipgloss.NewStyle().Foreground(styles.CAccent2).Render("▶ ")
		}

		lines = append(lines, marker+nameStyle.Render(rpc.Name))
		lines = append(lines, "  "+urlStyle.Render(rpc.URL))
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}
