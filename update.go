package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"coffee-wallet-tui/config"
	"coffee-wallet-tui/contract"
	"coffee-wallet-tui/helpers"
	"coffee-wallet-tui/rpc"
	"coffee-wallet-tui/views/hero"
	"coffee-wallet-tui/wallet"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/ethereum/go-ethereum/common"
)

// -------------------- TEMP FORM STORAGE --------------------
// Temporary form field storage (package-level to avoid pointer-to-copy issues)
var (
	tempRPCFormName string
	tempRPCFormURL  string
	tempPassphrase  string
)

func validRPCURL(s string) error {
	s = strings.TrimSpace(s)
	for _, scheme := range []string{"http://", "https://", "ws://", "wss://"} {
		if strings.HasPrefix(s, scheme) {
			return nil
		}
	}
	return fmt.Errorf("URL must start with http(s):// or ws(s)://")
}

func (m *model) createPassphraseForm() {
	tempPassphrase = ""

	m.passForm = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Unlock wallet").
				Description("Passphrase of the first account in " + m.cfg.Wallet.Keystore).
				EchoMode(huh.EchoModePassword).
				Value(&tempPassphrase),
		),
	).WithTheme(huh.ThemeCatppuccin())

	m.passForm.Init()
}

func (m *model) createAddRPCForm() {
	tempRPCFormName = ""
	tempRPCFormURL = ""

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("RPC Name").
				Description("A friendly name for this RPC endpoint").
				Value(&tempRPCFormName).
				Placeholder("My Sepolia Node"),

			huh.NewInput().
				Title("RPC URL").
				Description("wss:// endpoints stream new memos, https:// ones are polled").
				Value(&tempRPCFormURL).
				Placeholder("wss://sepolia.infura.io/ws/v3/...").
				Validate(validRPCURL),
		),
	).WithTheme(huh.ThemeCatppuccin())

	m.form.Init()
}

func (m *model) createEditRPCForm(idx int) {
	if idx < 0 || idx >= len(m.cfg.RPCURLs) {
		return
	}

	r := m.cfg.RPCURLs[idx]
	tempRPCFormName = r.Name
	tempRPCFormURL = r.URL

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("RPC Name").
				Value(&tempRPCFormName).
				Placeholder("My Node"),

			huh.NewInput().
				Title("RPC URL").
				Value(&tempRPCFormURL).
				Placeholder("wss://...").
				Validate(validRPCURL),
		),
	).WithTheme(huh.ThemeCatppuccin())

	m.form.Init()
}

// -------------------- ACTIONS --------------------

// requestConnect asks the wallet for an account, unlocking a keystore first
// when it needs a passphrase.
func (m *model) requestConnect() tea.Cmd {
	if m.connecting || m.account != "" {
		return nil
	}
	if !m.walletOpened {
		m.pendingConnect = true
		m.addLog("info", "Wallet still loading, will connect once it is ready")
		return nil
	}
	if ks, ok := m.session.Provider().(*wallet.Keystore); ok && ks.NeedsPassphrase() {
		m.createPassphraseForm()
		return nil
	}
	m.connecting = true
	m.addLog("info", "Requesting wallet connection")
	return connectWallet(m.ctx, m.session)
}

// submit sends the current draft as a buyCoffee payment
func (m *model) submit() tea.Cmd {
	if m.submitting {
		return nil
	}
	if m.account == "" {
		m.addLog("warning", "Connect a wallet before buying a coffee")
		return nil
	}
	m.newSubmitter()
	if m.submitter == nil {
		m.notice, m.noticeErr = "No RPC connection.", true
		m.addLog("error", "Cannot buy a coffee without an RPC connection")
		return nil
	}

	d := m.draft()
	name, message := d.Payload()
	m.addLog("info", fmt.Sprintf("Buying a coffee as `%s`: %q", name, message))
	m.submitting = true
	m.notice = ""
	m.setFocus(focusNone)
	return buyCoffee(m.ctx, m.submitter, d)
}

// setFocus moves keyboard focus within the supporter form
func (m *model) setFocus(f int) {
	m.focus = f
	m.nameInput.Blur()
	m.messageInput.Blur()
	switch f {
	case focusName:
		m.nameInput.Focus()
	case focusMessage:
		m.messageInput.Focus()
	}
}

func (m *model) adoptAccount(a common.Address) tea.Cmd {
	m.account = a.Hex()
	m.walletMissing = false
	m.details = rpc.AccountDetails{Address: m.account}
	return loadDetails(m.ethClient, a)
}

// -------------------- UPDATE --------------------

// formMsg reports whether msg should go to an open huh form. Results of our
// own commands always reach the switch below, even while a form is open.
func formMsg(msg tea.Msg) bool {
	switch msg.(type) {
	case rpcConnectedMsg, walletOpenedMsg, walletProbedMsg, walletConnectedMsg, detailsLoadedMsg,
		memosFetchedMsg, memoSubscribedMsg, memoArrivedMsg, memoSubEndedMsg, txSentMsg, coffeeBoughtMsg,
		clipboardCopiedMsg, clearCopiedMsg, spinner.TickMsg, tea.WindowSizeMsg:
		return false
	}
	return true
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Passphrase prompt takes every key while open
	if m.passForm != nil && formMsg(msg) {
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "esc" {
			m.passForm = nil
			m.addLog("info", "Wallet unlock cancelled")
			return m, nil
		}
		form, cmd := m.passForm.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			m.passForm = f
			switch m.passForm.State {
			case huh.StateCompleted:
				m.passForm = nil
				if ks, ok := m.session.Provider().(*wallet.Keystore); ok {
					ks.SetPassphrase(tempPassphrase)
				}
				tempPassphrase = ""
				m.connecting = true
				m.addLog("info", "Unlocking keystore account")
				return m, connectWallet(m.ctx, m.session)
			case huh.StateAborted:
				m.passForm = nil
				return m, nil
			}
		}
		return m, cmd
	}

	if m.activePage == config.PageSettings && (m.settingsMode == "add" || m.settingsMode == "edit") && m.form != nil && formMsg(msg) {
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "esc" {
			m.settingsMode = "list"
			m.form = nil
			return m, nil
		}

		form, cmd := m.form.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			m.form = f

			if m.form.State == huh.StateCompleted {
				name := strings.TrimSpace(tempRPCFormName)
				url := strings.TrimSpace(tempRPCFormURL)
				if m.settingsMode == "add" {
					if name != "" && url != "" {
						m.cfg.RPCURLs = append(m.cfg.RPCURLs, config.RPCUrl{Name: name, URL: url})
						m.saveConfig()
						m.addLog("success", fmt.Sprintf("Added RPC endpoint: `%s` (%s)", name, url))
					}
				} else if m.selectedRPCIdx >= 0 && m.selectedRPCIdx < len(m.cfg.RPCURLs) {
					m.cfg.RPCURLs[m.selectedRPCIdx].Name = name
					m.cfg.RPCURLs[m.selectedRPCIdx].URL = url
					m.saveConfig()
					m.addLog("success", fmt.Sprintf("Updated RPC endpoint: `%s`", name))
				}
				m.settingsMode = "list"
				m.form = nil
				return m, nil
			}

			if m.form.State == huh.StateAborted {
				m.settingsMode = "list"
				m.form = nil
				return m, nil
			}
		}
		return m, cmd
	}

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.w, m.h = msg.Width, msg.Height
		m.logViewport.Width = max(0, msg.Width-6)
		m.messageInput.SetWidth(min(60, max(20, msg.Width-12)))
		m.memoViewport.Width = max(0, msg.Width-8)
		m.refreshMemoViewport()
		m.updateLogViewport()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case rpcConnectedMsg:
		m.rpcConnecting = false
		if msg.err != nil {
			m.ethClient = nil
			m.rpcConnected = false
			m.coffee = nil
			m.stopFeed()
			m.addLog("error", fmt.Sprintf("RPC connection failed: `%s`", msg.err.Error()))
			if !m.walletOpened {
				return m, openWallet(m.ctx, m.cfg.Wallet, nil)
			}
			return m, nil
		}

		if m.ethClient != nil && m.ethClient != msg.client {
			m.ethClient.Close()
		}
		m.ethClient = msg.client
		m.rpcConnected = true
		m.feedRetried = false
		m.coffee = contract.NewClient(m.contractAddress(), msg.client.Client)
		m.addLog("success", fmt.Sprintf("RPC connected to `%s`", msg.client.URL))

		if !m.walletOpened {
			return m, openWallet(m.ctx, m.cfg.Wallet, msg.client)
		}
		if ks, ok := m.session.Provider().(*wallet.Keystore); ok {
			ks.SetBackend(msg.client.Client)
		}
		cmds := []tea.Cmd{m.startFeed()}
		if m.account != "" {
			cmds = append(cmds, loadDetails(m.ethClient, common.HexToAddress(m.account)))
		}
		return m, tea.Batch(cmds...)

	case walletOpenedMsg:
		m.walletOpened = true
		pending := m.pendingConnect
		m.pendingConnect = false
		if msg.err != nil {
			if errors.Is(msg.err, wallet.ErrNoProvider) {
				m.addLog("warning", "No wallet found: "+msg.err.Error())
				// the user already asked to connect, so the prompt is due now
				m.walletMissing = pending
			} else {
				m.logError("Opening wallet", msg.err)
			}
			return m, nil
		}
		m.walletMissing = false
		m.session = wallet.NewSession(msg.provider)
		switch p := msg.provider.(type) {
		case *wallet.Keystore:
			m.addLog("success", "Keystore wallet found in "+m.cfg.Wallet.Keystore)
		case *wallet.RPCWallet:
			m.addLog("success", "JSON-RPC wallet found at "+p.URL)
		}
		cmds := []tea.Cmd{probeWallet(m.ctx, m.session), m.startFeed()}
		if pending {
			cmds = append(cmds, m.requestConnect())
		}
		return m, tea.Batch(cmds...)

	case walletProbedMsg:
		if msg.err != nil {
			m.logError("Wallet probe", msg.err)
			return m, nil
		}
		if msg.account == (common.Address{}) {
			m.addLog("debug", "No authorized account yet")
			return m, nil
		}
		m.addLog("success", fmt.Sprintf("Found authorized account `%s`", helpers.ShortenAddr(msg.account.Hex())))
		return m, m.adoptAccount(msg.account)

	case walletConnectedMsg:
		m.connecting = false
		if msg.err != nil {
			if errors.Is(msg.err, wallet.ErrNoProvider) {
				m.walletMissing = true
			}
			m.logError("Wallet connection", msg.err)
			return m, nil
		}
		m.addLog("success", fmt.Sprintf("Connected account `%s`", helpers.ShortenAddr(msg.account.Hex())))
		return m, m.adoptAccount(msg.account)

	case detailsLoadedMsg:
		m.details = msg.d
		if m.details.ErrMessage != "" {
			m.addLog("error", fmt.Sprintf("Account `%s`: %s", helpers.ShortenAddr(m.details.Address), m.details.ErrMessage))
		} else {
			m.addLog("info", fmt.Sprintf("Balance of `%s`: %s on %s", helpers.ShortenAddr(m.details.Address), helpers.FormatETH(m.details.EthWei), rpc.Describe(m.details.ChainID)))
		}
		return m, nil

	case memosFetchedMsg:
		if msg.gen != m.memoGen {
			return m, nil
		}
		if msg.err != nil {
			m.logError("Fetching memos", msg.err)
			return m, nil
		}
		m.setMemos(msg.memos)
		m.addLog("success", fmt.Sprintf("Loaded %d memos", len(msg.memos)))
		return m, nil

	case memoSubscribedMsg:
		if msg.gen != m.memoGen {
			if msg.sub != nil {
				msg.sub.Unsubscribe()
			}
			return m, nil
		}
		fetch := fetchMemos(m.ctx, m.feed, msg.gen)
		if msg.err != nil {
			m.logError("Subscribing to NewMemo", msg.err)
			if errors.Is(msg.err, wallet.ErrNoProvider) {
				return m, nil
			}
			// history is still worth showing without live updates
			return m, fetch
		}
		m.memoSub = msg.sub
		m.addLog("info", "Listening for new memos")
		return m, tea.Batch(waitForSubEnd(msg.sub, msg.gen), fetch)

	case memoArrivedMsg:
		next := waitForEvent(m.events)
		if msg.gen != m.memoGen || m.memoSub == nil || m.feed == nil {
			return m, next
		}
		m.setMemos(m.feed.Memos())
		m.addLog("success", fmt.Sprintf("New memo from `%s`: %q", msg.memo.Name, msg.memo.Message))
		return m, next

	case memoSubEndedMsg:
		if msg.gen != m.memoGen || m.memoSub == nil {
			return m, nil
		}
		m.memoSub = nil
		if msg.err != nil {
			m.logError("Memo subscription", msg.err)
		} else {
			m.addLog("warning", "Memo subscription closed")
		}
		if !m.feedRetried {
			m.feedRetried = true
			m.addLog("info", "Resubscribing to new memos")
			return m, m.startFeed()
		}
		m.notice, m.noticeErr = "Live memo updates stopped. Reconnect the RPC in settings to resume.", true
		return m, nil

	case txSentMsg:
		m.lastTx = msg.hash.Hex()
		m.addLog("info", fmt.Sprintf("Transaction `%s` sent, waiting to be mined", helpers.ShortenAddr(m.lastTx)))
		return m, waitForEvent(m.events)

	case coffeeBoughtMsg:
		m.submitting = false
		if msg.err != nil {
			m.notice, m.noticeErr = describeErr(msg.err), true
			m.logError("Buying coffee", msg.err)
			return m, nil
		}
		m.setDraft(msg.draft)
		m.notice, m.noticeErr = "Thanks for the coffee! ☕", false
		if msg.receipt != nil {
			m.lastTx = msg.receipt.TxHash.Hex()
			m.addLog("success", fmt.Sprintf("Coffee bought in block %s", msg.receipt.BlockNumber))
		} else {
			m.addLog("success", "Coffee bought")
		}
		if m.account != "" {
			return m, loadDetails(m.ethClient, common.HexToAddress(m.account))
		}
		return m, nil

	case clipboardCopiedMsg:
		m.copiedMsg = "✓ Copied " + msg.what
		m.copiedMsgTime = time.Now()
		m.addLog("info", "Copied "+msg.what+" to clipboard")
		return m, clearCopiedAfter(2 * time.Second)

	case clearCopiedMsg:
		if time.Since(m.copiedMsgTime) >= 2*time.Second {
			m.copiedMsg = ""
		}
		return m, nil

	case tea.MouseMsg:
		return m, m.handleMouse(msg)

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}

	return m, nil
}

func (m *model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if msg.Action != tea.MouseActionPress {
		return nil
	}
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.memoViewport.LineUp(2)
		return nil
	case tea.MouseButtonWheelDown:
		m.memoViewport.LineDown(2)
		return nil
	case tea.MouseButtonLeft:
	default:
		return nil
	}

	if m.showReceipt {
		return copyToClipboard(m.paymentURI, "payment URL")
	}

	for _, area := range m.clickableAreas {
		if msg.X >= area.X && msg.X < area.X+area.Width &&
			msg.Y >= area.Y && msg.Y < area.Y+area.Height {
			m.addLog("debug", fmt.Sprintf("Click on `%s` at (%d,%d)", area.Action, msg.X, msg.Y))
			switch area.Action {
			case hero.ActionConnect:
				return m.requestConnect()
			case hero.ActionBuy:
				return m.submit()
			}
		}
	}
	return nil
}

func (m *model) handleKey(msg tea.KeyMsg) tea.Cmd {
	// Payment QR panel
	if m.showReceipt {
		switch msg.String() {
		case "ctrl+c":
			return copyToClipboard(m.paymentURI, "payment URL")
		case "esc", "enter", "q":
			m.showReceipt = false
			m.paymentURI = ""
		}
		return nil
	}

	if m.showRPCDeleteDialog {
		switch msg.String() {
		case "left", "right", "tab":
			m.deleteRPCDialogYesSelected = !m.deleteRPCDialogYesSelected
		case "enter":
			if m.deleteRPCDialogYesSelected {
				idx := m.deleteRPCDialogIdx
				if idx >= 0 && idx < len(m.cfg.RPCURLs) {
					m.cfg.RPCURLs = append(m.cfg.RPCURLs[:idx], m.cfg.RPCURLs[idx+1:]...)
					if m.selectedRPCIdx >= len(m.cfg.RPCURLs) && m.selectedRPCIdx > 0 {
						m.selectedRPCIdx--
					}
					m.saveConfig()
					m.addLog("warning", fmt.Sprintf("Deleted RPC endpoint `%s`", m.deleteRPCDialogName))
				}
			}
			m.showRPCDeleteDialog = false
		case "esc":
			m.showRPCDeleteDialog = false
		}
		return nil
	}

	// Supporter form keys
	if m.activePage == config.PageHome && m.focus != focusNone {
		switch msg.String() {
		case "ctrl+c":
			m.teardown()
			return tea.Quit
		case "esc":
			m.setFocus(focusNone)
			return nil
		case "tab":
			m.setFocus(m.focus%focusButton + 1)
			return nil
		case "shift+tab":
			f := m.focus - 1
			if f == focusNone {
				f = focusButton
			}
			m.setFocus(f)
			return nil
		case "enter":
			switch m.focus {
			case focusName:
				m.setFocus(focusMessage)
				return nil
			case focusButton:
				return m.submit()
			}
		}

		var cmd tea.Cmd
		switch m.focus {
		case focusName:
			m.nameInput, cmd = m.nameInput.Update(msg)
			return cmd
		case focusMessage:
			m.messageInput, cmd = m.messageInput.Update(msg)
			return cmd
		}
	}

	// global keys
	if !m.textInputActive() {
		switch msg.String() {
		case "ctrl+c", "q":
			m.teardown()
			return tea.Quit

		case "l", "L":
			m.logEnabled = !m.logEnabled
			m.saveConfig()
			if m.logEnabled {
				m.updateLogViewport()
			}
			return nil

		case "pageup", "pagedown":
			if m.logEnabled {
				var cmd tea.Cmd
				m.logViewport, cmd = m.logViewport.Update(msg)
				return cmd
			}
		}
	}

	switch m.activePage {
	case config.PageHome:
		switch msg.String() {
		case "c", "C":
			return m.requestConnect()
		case "i", "tab":
			if m.account != "" && !m.submitting {
				m.setFocus(focusName)
			}
		case "m", "M":
			m.showMemos = !m.showMemos
		case "up", "k":
			m.memoViewport.LineUp(1)
		case "down", "j":
			m.memoViewport.LineDown(1)
		case "p", "P":
			m.openReceipt()
		case "y", "Y":
			if m.account != "" {
				return copyToClipboard(m.account, "address")
			}
		case "t", "T":
			if m.lastTx != "" {
				return copyToClipboard(m.lastTx, "transaction hash")
			}
		case "s", "S":
			m.activePage = config.PageSettings
			m.settingsMode = "list"
		}

	case config.PageSettings:
		if m.settingsMode != "list" {
			return nil
		}
		switch msg.String() {
		case "esc":
			m.activePage = config.PageHome

		case "a", "A":
			m.settingsMode = "add"
			m.createAddRPCForm()

		case "e", "E":
			if len(m.cfg.RPCURLs) > 0 {
				m.settingsMode = "edit"
				m.createEditRPCForm(m.selectedRPCIdx)
			}

		case "d", "D", "delete", "backspace":
			if len(m.cfg.RPCURLs) > 0 && m.selectedRPCIdx < len(m.cfg.RPCURLs) {
				m.showRPCDeleteDialog = true
				m.deleteRPCDialogYesSelected = true
				m.deleteRPCDialogIdx = m.selectedRPCIdx
				name := strings.TrimSpace(m.cfg.RPCURLs[m.selectedRPCIdx].Name)
				if name == "" {
					name = m.cfg.RPCURLs[m.selectedRPCIdx].URL
				}
				m.deleteRPCDialogName = name
			}

		case "up", "k":
			if m.selectedRPCIdx > 0 {
				m.selectedRPCIdx--
			}

		case "down", "j":
			if m.selectedRPCIdx < len(m.cfg.RPCURLs)-1 {
				m.selectedRPCIdx++
			}

		case "enter", " ":
			if len(m.cfg.RPCURLs) > 0 && m.selectedRPCIdx < len(m.cfg.RPCURLs) {
				for i := range m.cfg.RPCURLs {
					m.cfg.RPCURLs[i].Active = i == m.selectedRPCIdx
				}
				m.rpcURL = m.cfg.RPCURLs[m.selectedRPCIdx].URL
				m.saveConfig()
				// the old feed belongs to the old connection
				m.stopFeed()
				m.rpcConnecting = true
				m.rpcConnected = false
				m.addLog("info", fmt.Sprintf("Switching RPC to `%s`", m.cfg.RPCURLs[m.selectedRPCIdx].Name))
				return connectRPC(m.rpcURL)
			}
		}
	}
	return nil
}

// openReceipt shows the EIP-681 payment QR for the current draft
func (m *model) openReceipt() {
	var chainID = m.details.ChainID
	name, message := m.draft().Payload()
	m.paymentURI = rpc.PaymentURI(m.contractAddress(), chainID, name, message, contract.DefaultAmount)
	m.showReceipt = true
	m.addLog("info", "Showing payment QR code")
}
