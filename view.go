package main

import (
	"strings"

	"coffee-wallet-tui/config"
	"coffee-wallet-tui/contract"
	"coffee-wallet-tui/helpers"
	"coffee-wallet-tui/rpc"
	"coffee-wallet-tui/styles"
	"coffee-wallet-tui/views/footer"
	"coffee-wallet-tui/views/hero"
	logview "coffee-wallet-tui/views/log"
	"coffee-wallet-tui/views/memos"
	"coffee-wallet-tui/views/receipt"
	"coffee-wallet-tui/views/settings"

	"github.com/charmbracelet/lipgloss"
)

// -------------------- VIEW --------------------

func (m *model) renderRPCDeleteDialog() string {
	dialogBoxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#874BFD")).
		Padding(1, 0)

	msg := helpers.FadeString("Are you sure you want to delete the RPC endpoint "+m.deleteRPCDialogName+"?", "#F25D94", "#EDFF82")
	question := lipgloss.NewStyle().Width(50).Align(lipgloss.Center).Render(msg)

	var okButton, cancelButton string
	if m.deleteRPCDialogYesSelected {
		okButton = styles.ActiveButtonStyle.MarginTop(1).MarginRight(2).Render("Yes")
		cancelButton = styles.ButtonStyle.MarginTop(1).Render("No")
	} else {
		okButton = styles.ButtonStyle.MarginTop(1).MarginRight(2).Render("Yes")
		cancelButton = styles.ActiveButtonStyle.MarginTop(1).Render("No")
	}

	buttons := lipgloss.JoinHorizontal(lipgloss.Top, okButton, cancelButton)
	ui := lipgloss.JoinVertical(lipgloss.Center, question, buttons)

	return lipgloss.Place(
		m.w, m.h,
		lipgloss.Center, lipgloss.Center,
		dialogBoxStyle.Render(ui),
	)
}

// renderOverlay centers content in a bordered box over the whole screen
func (m *model) renderOverlay(content string) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(cAccent2).
		Background(cPanel).
		Padding(1, 2).
		Render(content)
	return lipgloss.Place(m.w, m.h, lipgloss.Center, lipgloss.Center, box)
}

func (m *model) globalHeader() string {
	availableWidth := max(0, m.w-8) // Account for panel padding

	var acctDisplay string
	if m.account != "" {
		acctDisplay = lipgloss.NewStyle().
			Foreground(cAccent2).
			Bold(true).
			Render("Account: " + helpers.FadeString(helpers.ShortenAddr(m.account), styles.FadeFrom, styles.FadeTo))
	} else {
		acctDisplay = lipgloss.NewStyle().
			Foreground(cMuted).
			Render("Account: Not connected")
	}

	var statusIcon, statusText string
	statusColor := styles.CError

	switch {
	case m.rpcURL == "":
		statusIcon, statusText = "○", "No RPC"
	case m.rpcConnecting:
		statusIcon, statusText = "○", "Connecting..."
	case !m.rpcConnected:
		statusIcon, statusText = "○", "Connection Failed"
	default:
		statusIcon = "●"
		statusColor = cAccent
		for _, r := range m.cfg.RPCURLs {
			if r.Active && r.URL == m.rpcURL {
				statusText = r.Name
				break
			}
		}
		if statusText == "" {
			statusText = "Connected"
		}
		if m.details.ChainID != nil {
			statusText += " · " + rpc.Describe(m.details.ChainID)
		}
	}

	rpcDisplay := lipgloss.NewStyle().
		Foreground(statusColor).
		Bold(true).
		Render(statusIcon + " " + statusText)

	titleText := lipgloss.NewStyle().
		Bold(true).
		Render(helpers.FadeString("buy me a coffee", "#C8A27A", "#F25D94"))

	acctWidth := lipgloss.Width(acctDisplay)
	rpcWidth := lipgloss.Width(rpcDisplay)
	titleWidth := lipgloss.Width(titleText)
	totalOtherWidth := acctWidth + rpcWidth + titleWidth

	var headerLine string
	if totalOtherWidth+4 > availableWidth {
		headerLine = acctDisplay + "\n" + titleText + "\n" + rpcDisplay
	} else {
		// Account | Title (centered) | RPC
		remainingSpace := availableWidth - totalOtherWidth
		leftPadding := remainingSpace / 2
		rightPadding := remainingSpace - leftPadding

		headerLine = acctDisplay +
			strings.Repeat(" ", max(1, leftPadding)) +
			titleText +
			strings.Repeat(" ", max(1, rightPadding)) +
			rpcDisplay
	}

	separator := lipgloss.NewStyle().
		Foreground(cBorder).
		Render(strings.Repeat("─", availableWidth))

	return headerLine + "\n" + separator
}

// heroState collects what the coffee page shows from the model
func (m *model) heroState() hero.State {
	s := hero.State{
		Account:       m.account,
		WalletMissing: m.walletMissing,
		Connecting:    m.connecting || m.pendingConnect,
		Submitting:    m.submitting,
		SpinnerView:   m.spin.View(),
		NameView:      m.nameInput.View(),
		MessageView:   m.messageInput.View(),
		ButtonFocused: m.focus == focusButton,
		Notice:        m.notice,
		NoticeErr:     m.noticeErr,
	}
	if m.details.EthWei != nil {
		s.Balance = helpers.FormatETH(m.details.EthWei) + " (as of " + helpers.LoadedAt(m.details.LoadedAt, false) + ")"
	}
	if m.lastTx != "" {
		s.LastTx = helpers.ShortenAddr(m.lastTx)
	}
	return s
}

// refreshMemoViewport re-renders the memo grid for the current width
func (m *model) refreshMemoViewport() {
	m.memoViewport.SetContent(memos.Render(m.memos, m.memoViewport.Width))
}

func (m *model) View() string {
	// Clear clickable areas for fresh render
	m.clickableAreas = nil

	headerPanel := panelStyle.Width(max(0, m.w-2)).Render(m.globalHeader())
	headerHeight := lipgloss.Height(headerPanel)

	if m.passForm != nil {
		return m.renderOverlay(m.passForm.View())
	}
	if m.showReceipt {
		return m.renderOverlay(receipt.Render(m.paymentURI, helpers.FormatETH(contract.DefaultAmount), m.copiedMsg))
	}

	sections := []string{headerPanel}
	var nav string

	switch m.activePage {
	case config.PageHome:
		content, areas := hero.Render(m.heroState())
		if m.copiedMsg != "" {
			content += "\n\n" + lipgloss.NewStyle().Foreground(cAccent).Bold(true).Render(m.copiedMsg)
		}
		sections = append(sections, panelStyle.Width(max(0, m.w-2)).Render(content))

		// panel border and padding
		for _, a := range areas {
			a.X += 3
			a.Y += headerHeight + 2
			m.clickableAreas = append(m.clickableAreas, a)
		}

		if m.showMemos {
			memoPanel := memos.Title(len(m.memos), m.memoSub != nil) + "\n\n" + m.memoViewport.View()
			sections = append(sections, panelStyle.Width(max(0, m.w-2)).Render(memoPanel))
		}
		nav = hero.Nav(m.w-2, m.account != "", m.focus != focusNone)

	case config.PageSettings:
		if m.showRPCDeleteDialog {
			return m.renderRPCDeleteDialog()
		}
		content := settings.Render(m.cfg.RPCURLs, m.selectedRPCIdx, m.cfg.Wallet, m.cfg.Contract)
		if (m.settingsMode == "add" || m.settingsMode == "edit") && m.form != nil {
			content = styles.TitleStyle.Render("RPC Settings") + "\n\n" + m.form.View()
		}
		sections = append(sections, panelStyle.Width(max(0, m.w-2)).Render(content))
		nav = settings.Nav(m.w-2, m.settingsMode)
	}

	sections = append(sections, nav, footer.Render(m.w-2))

	if m.logEnabled {
		m.logViewport.Height = logview.Height(m.h)
		sections = append(sections, logview.Render(m.w, m.logViewport))
	}

	return appStyle.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}
