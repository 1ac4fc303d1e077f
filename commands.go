package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coffee-wallet-tui/config"
	"coffee-wallet-tui/contract"
	"coffee-wallet-tui/dapp"
	"coffee-wallet-tui/helpers"
	"coffee-wallet-tui/rpc"
	"coffee-wallet-tui/wallet"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"
)

// -------------------- COMMAND FUNCTIONS --------------------
// Functions that return tea.Cmd for async operations

// connectRPC establishes an RPC connection to the Ethereum node
func connectRPC(url string) tea.Cmd {
	return func() tea.Msg {
		result := rpc.Connect(url)
		return rpcConnectedMsg{client: result.Client, err: result.Error}
	}
}

// openWallet builds the configured wallet provider
func openWallet(ctx context.Context, cfg config.Wallet, client *rpc.Client) tea.Cmd {
	return func() tea.Msg {
		var backend wallet.Backend
		if client != nil && client.Client != nil {
			backend = client.Client
		}
		p, err := wallet.Open(ctx, cfg, backend)
		return walletOpenedMsg{provider: p, err: err}
	}
}

// probeWallet adopts an already authorized account without prompting
func probeWallet(ctx context.Context, s *wallet.Session) tea.Cmd {
	return func() tea.Msg {
		acct, err := s.Probe(ctx)
		return walletProbedMsg{account: acct, err: err}
	}
}

// connectWallet asks the wallet to authorize an account
func connectWallet(ctx context.Context, s *wallet.Session) tea.Cmd {
	return func() tea.Msg {
		acct, err := s.Connect(ctx)
		return walletConnectedMsg{account: acct, err: err}
	}
}

// loadDetails fetches the connected account's balance
func loadDetails(client *rpc.Client, addr common.Address) tea.Cmd {
	return func() tea.Msg {
		return detailsLoadedMsg{d: rpc.LoadAccountDetails(client, addr)}
	}
}

// fetchMemos reads the memo history once
func fetchMemos(ctx context.Context, feed *dapp.Feed, gen int) tea.Cmd {
	return func() tea.Msg {
		memos, err := feed.FetchAll(ctx)
		return memosFetchedMsg{gen: gen, memos: memos, err: err}
	}
}

// subscribeMemos opens the live NewMemo listener. Events are forwarded to
// events tagged with gen so stale ones can be dropped.
func subscribeMemos(ctx context.Context, feed *dapp.Feed, events chan<- tea.Msg, gen int) tea.Cmd {
	return func() tea.Msg {
		sub, err := feed.Subscribe(ctx, func(memo contract.Memo) {
			select {
			case events <- memoArrivedMsg{gen: gen, memo: memo}:
			case <-ctx.Done():
			}
		})
		return memoSubscribedMsg{gen: gen, sub: sub, err: err}
	}
}

// waitForEvent delivers the next message pushed by a background goroutine
func waitForEvent(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-events
	}
}

// waitForSubEnd reports when a live subscription stops
func waitForSubEnd(sub *dapp.Subscription, gen int) tea.Cmd {
	return func() tea.Msg {
		<-sub.Done()
		return memoSubEndedMsg{gen: gen, err: sub.Err()}
	}
}

// buyCoffee submits d. The submitter works on its own copy; the copy comes
// back in the result so Update decides what the form shows.
func buyCoffee(ctx context.Context, s *dapp.Submitter, d dapp.Draft) tea.Cmd {
	return func() tea.Msg {
		receipt, err := s.Submit(ctx, &d)
		return coffeeBoughtMsg{draft: d, receipt: receipt, err: err}
	}
}

// copyToClipboard copies text to clipboard
func copyToClipboard(text, what string) tea.Cmd {
	return func() tea.Msg {
		if err := clipboard.WriteAll(text); err != nil {
			return nil
		}
		return clipboardCopiedMsg{what: what}
	}
}

// clearCopiedAfter hides the copy confirmation after d
func clearCopiedAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return clearCopiedMsg{} })
}

// -------------------- MODEL HELPER METHODS --------------------
// These methods help with state management and command generation

// addLog adds a log entry with timestamp and type
func (m *model) addLog(logType, message string) {
	if m.logger == nil {
		return
	}

	switch logType {
	case "info":
		m.logger.Info(message)
	case "success":
		m.logger.Info("✓", "msg", message)
	case "error":
		m.logger.Error(message)
	case "warning":
		m.logger.Warn(message)
	case "debug":
		m.logger.Debug(message)
	default:
		m.logger.Print(message)
	}

	m.updateLogViewport()
}

// logError writes err with its kind so failures can be told apart in the log
func (m *model) logError(what string, err error) {
	m.addLog("error", fmt.Sprintf("%s failed (%s): %v", what, wallet.KindOf(err), err))
}

// updateLogViewport refreshes the viewport content with log output
func (m *model) updateLogViewport() {
	if m.logBuffer == nil {
		return
	}
	m.logViewport.SetContent(m.logBuffer.String())
	m.logViewport.GotoBottom()
}

// textInputActive returns true if any text input is currently active
func (m *model) textInputActive() bool {
	if m.focus == focusName || m.focus == focusMessage {
		return true
	}
	if m.passForm != nil {
		return true
	}
	if (m.settingsMode == "add" || m.settingsMode == "edit") && m.form != nil {
		return true
	}
	return false
}

// saveConfig persists the config and logs a failure
func (m *model) saveConfig() {
	m.cfg.Logger = m.logEnabled
	if err := config.Save(m.configPath, m.cfg); err != nil {
		m.addLog("error", "Saving config failed: "+err.Error())
	}
}

// startFeed tears down any previous memo feed and starts a new generation:
// subscribe first, then fetch the history, so nothing mined in between is lost.
func (m *model) startFeed() tea.Cmd {
	m.stopFeed()
	if m.coffee == nil || m.session.Provider() == nil {
		return nil
	}
	m.feed = dapp.NewFeed(m.coffee, m.session)
	m.addLog("info", fmt.Sprintf("Loading memos from `%s`", helpers.ShortenAddr(m.coffee.Address.Hex())))
	return subscribeMemos(m.ctx, m.feed, m.events, m.memoGen)
}

// stopFeed releases the live subscription, if any, and invalidates results
// still in flight for the current generation.
func (m *model) stopFeed() {
	m.memoGen++
	if m.memoSub != nil {
		m.memoSub.Unsubscribe()
		m.memoSub = nil
		m.addLog("debug", "Memo subscription released")
	}
}

// teardown releases everything acquired for the session
func (m *model) teardown() {
	m.stopFeed()
	m.cancel()
}

// newSubmitter wires the payment path to the current wallet and node
func (m *model) newSubmitter() {
	if m.coffee == nil {
		m.submitter = nil
		return
	}
	s := dapp.NewSubmitter(m.session, m.coffee, m.coffee.Address)
	events, ctx := m.events, m.ctx
	s.OnSent = func(h common.Hash) {
		select {
		case events <- txSentMsg{hash: h}:
		case <-ctx.Done():
		}
	}
	m.submitter = s
}

// setMemos refreshes the memo list shown on screen
func (m *model) setMemos(memos []contract.Memo) {
	m.memos = memos
	m.refreshMemoViewport()
}

// describeErr turns a typed wallet error into the short line shown under the form
func describeErr(err error) string {
	switch {
	case errors.Is(err, wallet.ErrNoProvider):
		return "No wallet available."
	case errors.Is(err, wallet.ErrUserRejected):
		return "The wallet rejected the request."
	case errors.Is(err, wallet.ErrReverted):
		return "The transaction reverted."
	}
	return "Network error, try again."
}
