package receipt

import (
	"strings"

	"coffee-wallet-tui/rpc"
	"coffee-wallet-tui/styles"

	"github.com/charmbracelet/lipgloss"
)

// Render shows the EIP-681 payment link as a QR code so a phone wallet can
// buy the coffee without connecting to this terminal.
func Render(uri, amount, copied string) string {
	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render("Pay "+amount+" from your phone (EIP-681)") + "\n\n")
	b.WriteString(rpc.GenerateQRCode(uri) + "\n")
	b.WriteString(lipgloss.NewStyle().Foreground(styles.CAccent).Render("Payment URL:") + "\n\n")
	b.WriteString(uri)
	b.WriteString("\n\n" + styles.MutedStyle.Render("Scan the QR code with your wallet app. The memo appears once the payment is mined."))
	b.WriteString("\n" + styles.MutedStyle.Render("Press Ctrl+C or click to copy • Esc or Enter to close"))
	if copied != "" {
		b.WriteString("\n" + lipgloss.NewStyle().Foreground(styles.CAccent).Bold(true).Render(copied))
	}
	return b.String()
}
