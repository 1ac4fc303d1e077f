package main

import (
	"context"
	"strings"
	"time"

	"coffee-wallet-tui/config"
	"coffee-wallet-tui/contract"
	"coffee-wallet-tui/dapp"
	"coffee-wallet-tui/rpc"
	"coffee-wallet-tui/styles"
	"coffee-wallet-tui/wallet"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum/common"
)

// -------------------- MODEL --------------------

// form focus positions on the coffee page
const (
	focusNone = iota
	focusName
	focusMessage
	focusButton
)

// model represents the application state following The Elm Architecture
type model struct {
	w, h int

	// root context for chain calls, cancelled on quit
	ctx    context.Context
	cancel context.CancelFunc

	activePage config.Page
	cfg        config.Config
	configPath string

	// node connection
	spin          spinner.Model
	rpcURL        string
	ethClient     *rpc.Client
	rpcConnected  bool
	rpcConnecting bool

	// wallet session
	session        *wallet.Session
	walletOpened   bool
	walletMissing  bool // show the install prompt
	connecting     bool
	pendingConnect bool // connect asked for before the wallet was looked up
	account        string
	details        rpc.AccountDetails
	passForm       *huh.Form

	// supporter form
	nameInput    textinput.Model
	messageInput textarea.Model
	focus        int
	submitting   bool
	lastTx       string
	notice       string
	noticeErr    bool
	submitter    *dapp.Submitter

	// memo feed; gen tells current events from ones of a torn down feed
	coffee       *contract.Client
	feed         *dapp.Feed
	memos        []contract.Memo
	memoSub      *dapp.Subscription
	memoGen      int
	showMemos    bool
	feedRetried  bool // one resubscribe per node connection
	memoViewport viewport.Model
	events       chan tea.Msg

	// payment QR panel
	showReceipt bool
	paymentURI  string

	// clipboard feedback
	copiedMsg     string
	copiedMsgTime time.Time

	// settings state
	settingsMode               string // "list", "add", "edit"
	selectedRPCIdx             int
	form                       *huh.Form
	showRPCDeleteDialog        bool
	deleteRPCDialogName        string
	deleteRPCDialogIdx         int
	deleteRPCDialogYesSelected bool

	// clickable areas for mouse support
	clickableAreas []config.ClickableArea

	// logger panel; the logger always records, the panel is toggled
	logEnabled  bool
	logger      *log.Logger
	logBuffer   *strings.Builder
	logViewport viewport.Model
}

// -------------------- INIT --------------------

// newModel creates a model for cfg, which was loaded from configPath
func newModel(cfg config.Config, configPath string) model {
	ctx, cancel := context.WithCancel(context.Background())

	name := textinput.New()
	name.Placeholder = "Coding Enthusiast"
	name.Prompt = "› "
	name.PromptStyle = lipgloss.NewStyle().Foreground(styles.CAccent)
	name.TextStyle = lipgloss.NewStyle().Foreground(styles.CText)
	name.Cursor.Style = lipgloss.NewStyle().Foreground(styles.CAccent2)
	name.CharLimit = 64
	name.Width = 48

	message := textarea.New()
	message.Placeholder = "Share your thoughts or encouragement..."
	message.ShowLineNumbers = false
	message.CharLimit = 280
	message.SetWidth(50)
	message.SetHeight(3)
	message.Blur()

	sp := spinner.New()
	sp.Spinner = spinner.Line
	sp.Style = lipgloss.NewStyle().Foreground(styles.CAccent2)

	logVP := viewport.New(0, 8) // resized on the first WindowSizeMsg
	logVP.Style = lipgloss.NewStyle().
		Foreground(styles.CText).
		Background(styles.CPanel)

	memoVP := viewport.New(0, 12)

	logBuffer := &strings.Builder{}
	logger := log.NewWithOptions(logBuffer, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
	})
	logger.SetLevel(log.DebugLevel)
	logger.SetStyles(logStyles())

	m := model{
		ctx:          ctx,
		cancel:       cancel,
		activePage:   config.PageHome,
		cfg:          cfg,
		configPath:   configPath,
		spin:         sp,
		rpcURL:       cfg.ActiveRPC(),
		session:      wallet.NewSession(nil),
		nameInput:    name,
		messageInput: message,
		memoViewport: memoVP,
		events:       make(chan tea.Msg, 32),
		settingsMode: "list",
		logEnabled:   cfg.Logger,
		logger:       logger,
		logBuffer:    logBuffer,
		logViewport:  logVP,
	}
	for i, r := range cfg.RPCURLs {
		if r.Active {
			m.selectedRPCIdx = i
		}
	}
	return m
}

func logStyles() *log.Styles {
	s := log.DefaultStyles()
	s.Timestamp = lipgloss.NewStyle().Foreground(cMuted)
	s.Prefix = lipgloss.NewStyle().Bold(true).Foreground(cAccent2)
	s.Message = lipgloss.NewStyle().Foreground(cText)
	s.Key = lipgloss.NewStyle().Foreground(cAccent)
	s.Value = lipgloss.NewStyle().Foreground(cText)
	s.Levels = map[log.Level]lipgloss.Style{
		log.DebugLevel: lipgloss.NewStyle().Foreground(cMuted).SetString("DEBUG"),
		log.InfoLevel:  lipgloss.NewStyle().Foreground(cAccent2).SetString("INFO"),
		log.WarnLevel:  lipgloss.NewStyle().Foreground(cWarn).SetString("WARN"),
		log.ErrorLevel: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).SetString("ERROR"),
	}
	return s
}

// Init implements tea.Model interface and returns initial commands
func (m *model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spin.Tick, waitForEvent(m.events)}
	m.addLog("info", "Starting coffee-wallet-tui")
	if m.rpcURL != "" {
		m.rpcConnecting = true
		cmds = append(cmds, connectRPC(m.rpcURL))
	} else {
		m.addLog("warning", "No RPC endpoint configured; add one in settings")
		cmds = append(cmds, openWallet(m.ctx, m.cfg.Wallet, nil))
	}
	return tea.Batch(cmds...)
}

// draft reads the supporter form
func (m *model) draft() dapp.Draft {
	return dapp.Draft{
		Name:    strings.TrimSpace(m.nameInput.Value()),
		Message: strings.TrimSpace(m.messageInput.Value()),
	}
}

// setDraft writes d back into the supporter form
func (m *model) setDraft(d dapp.Draft) {
	m.nameInput.SetValue(d.Name)
	m.messageInput.SetValue(d.Message)
}

func (m *model) contractAddress() common.Address {
	return common.HexToAddress(m.cfg.Contract)
}
