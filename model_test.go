package main

import (
	"context"
	"errors"
	"math/big"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"coffee-wallet-tui/config"
	"coffee-wallet-tui/contract"
	"coffee-wallet-tui/dapp"
	"coffee-wallet-tui/wallet"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct{ account common.Address }

func (p *stubProvider) Accounts(ctx context.Context) ([]common.Address, error) {
	return []common.Address{p.account}, nil
}

func (p *stubProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	return []common.Address{p.account}, nil
}

func (p *stubProvider) SendTransaction(ctx context.Context, req wallet.TxRequest) (common.Hash, error) {
	return common.Hash{}, nil
}

type stubSource struct{ history []contract.Memo }

func (s *stubSource) Memos(ctx context.Context) ([]contract.Memo, error) {
	return s.history, nil
}

func (s *stubSource) WatchMemos(ctx context.Context, sink chan<- contract.Memo) (event.Subscription, error) {
	return event.NewSubscription(func(quit <-chan struct{}) error {
		<-quit
		return nil
	}), nil
}

// testModel builds a model with no RPC endpoint and an empty keystore dir
func testModel(t *testing.T) *model {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Config{
		Contract: config.DefaultContractAddress,
		Wallet:   config.Wallet{Kind: config.WalletKeystore, Keystore: filepath.Join(dir, "keystore")},
	}
	m := newModel(cfg, filepath.Join(dir, "config.json"))
	t.Cleanup(m.teardown)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return &m
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestConnectWithoutWallet(t *testing.T) {
	m := testModel(t)

	m.Update(openWallet(m.ctx, m.cfg.Wallet, nil)())
	require.True(t, m.walletOpened)
	assert.Nil(t, m.session.Provider())

	cmd := m.requestConnect()
	require.NotNil(t, cmd)
	m.Update(cmd())

	assert.True(t, m.walletMissing)
	assert.Empty(t, m.account)
	assert.False(t, m.connecting)
	assert.Contains(t, m.View(), "Please install a wallet to continue.")
}

func TestConnectBeforeWalletOpened(t *testing.T) {
	m := testModel(t)
	addr := common.HexToAddress("0xb0b")

	assert.Nil(t, m.requestConnect())
	assert.False(t, m.walletMissing)
	assert.True(t, m.pendingConnect)
	assert.NotContains(t, m.View(), "Please install a wallet to continue.")
	assert.Contains(t, m.View(), "Connecting…")

	// the queued request goes out once the wallet shows up
	_, cmd := m.Update(walletOpenedMsg{provider: &stubProvider{account: addr}})
	require.NotNil(t, cmd)
	assert.False(t, m.pendingConnect)
	assert.True(t, m.connecting)
	assert.False(t, m.walletMissing)
}

func TestConnectBeforeWalletOpenedWithoutWallet(t *testing.T) {
	m := testModel(t)

	assert.Nil(t, m.requestConnect())
	m.Update(openWallet(m.ctx, m.cfg.Wallet, nil)())

	assert.False(t, m.pendingConnect)
	assert.False(t, m.connecting)
	assert.True(t, m.walletMissing)
	assert.Contains(t, m.View(), "Please install a wallet to continue.")
}

func TestWalletOpenedWithoutRequestKeepsQuiet(t *testing.T) {
	m := testModel(t)

	m.Update(openWallet(m.ctx, m.cfg.Wallet, nil)())
	assert.True(t, m.walletOpened)
	assert.False(t, m.walletMissing)
}

func TestWalletOpenedClearsInstallPrompt(t *testing.T) {
	m := testModel(t)
	m.walletMissing = true

	m.Update(walletOpenedMsg{provider: &stubProvider{}})
	assert.False(t, m.walletMissing)
	assert.NotContains(t, m.View(), "Please install a wallet to continue.")
}

func TestProbeAdoptsAccount(t *testing.T) {
	m := testModel(t)
	addr := common.HexToAddress("0xa11ce")

	_, cmd := m.Update(walletProbedMsg{account: addr})
	require.NotNil(t, cmd)
	assert.Equal(t, addr.Hex(), m.account)

	// no node, so the balance lookup reports an error instead of a value
	m.Update(cmd())
	assert.NotEmpty(t, m.details.ErrMessage)
}

func TestProbeWithoutAuthorizedAccount(t *testing.T) {
	m := testModel(t)
	_, cmd := m.Update(walletProbedMsg{})
	assert.Nil(t, cmd)
	assert.Empty(t, m.account)
}

func TestCoffeeBoughtClearsForm(t *testing.T) {
	m := testModel(t)
	m.nameInput.SetValue("alice")
	m.messageInput.SetValue("gm")
	m.submitting = true

	m.Update(coffeeBoughtMsg{
		draft:   dapp.Draft{},
		receipt: &types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: common.HexToHash("0xabc"), BlockNumber: big.NewInt(7)},
	})

	assert.False(t, m.submitting)
	assert.Empty(t, m.nameInput.Value())
	assert.Empty(t, m.messageInput.Value())
	assert.Equal(t, common.HexToHash("0xabc").Hex(), m.lastTx)
	assert.Contains(t, m.notice, "Thanks")
}

func TestCoffeeBoughtFailureKeepsForm(t *testing.T) {
	cases := []struct {
		err    error
		notice string
	}{
		{&wallet.Error{Kind: wallet.KindUserRejected}, "The wallet rejected the request."},
		{&wallet.Error{Kind: wallet.KindReverted}, "The transaction reverted."},
		{&wallet.Error{Kind: wallet.KindNetwork}, "Network error, try again."},
		{&wallet.Error{Kind: wallet.KindNoProvider}, "No wallet available."},
	}
	for _, tc := range cases {
		t.Run(tc.notice, func(t *testing.T) {
			m := testModel(t)
			m.nameInput.SetValue("bob")
			m.messageInput.SetValue("keep me")

			m.Update(coffeeBoughtMsg{draft: dapp.Draft{Name: "bob", Message: "keep me"}, err: tc.err})

			assert.Equal(t, "bob", m.nameInput.Value())
			assert.Equal(t, "keep me", m.messageInput.Value())
			assert.Equal(t, tc.notice, m.notice)
		})
	}
}

func TestSubmitRequiresAccount(t *testing.T) {
	m := testModel(t)
	assert.Nil(t, m.submit())
	assert.False(t, m.submitting)
}

func TestToggleMemosTwice(t *testing.T) {
	m := testModel(t)
	m.setMemos([]contract.Memo{
		{Name: "alice", Message: "gm", Timestamp: time.Unix(1700000000, 0)},
		{Name: "bob", Message: "wagmi", Timestamp: time.Unix(1700000100, 0)},
	})
	before := m.View()
	memos := append([]contract.Memo(nil), m.memos...)
	assert.False(t, m.showMemos)
	assert.NotContains(t, before, "Memos from supporters")

	m.Update(key("m"))
	assert.True(t, m.showMemos)
	assert.Contains(t, m.View(), "Memos from supporters")

	m.Update(key("m"))
	assert.False(t, m.showMemos)
	assert.Equal(t, before, m.View())
	assert.Equal(t, memos, m.memos)
}

func TestMemoEventsAfterTeardownIgnored(t *testing.T) {
	m := testModel(t)
	m.session = wallet.NewSession(&stubProvider{})

	feed := dapp.NewFeed(&stubSource{history: []contract.Memo{{Name: "a"}, {Name: "b"}}}, m.session)
	_, err := feed.FetchAll(context.Background())
	require.NoError(t, err)
	sub, err := feed.Subscribe(context.Background(), nil)
	require.NoError(t, err)

	m.feed = feed
	m.memoSub = sub
	gen := m.memoGen

	// an event of an older generation changes nothing
	_, cmd := m.Update(memoArrivedMsg{gen: gen - 1, memo: contract.Memo{Name: "stale"}})
	assert.NotNil(t, cmd)
	assert.Empty(t, m.memos)

	m.Update(memoArrivedMsg{gen: gen, memo: contract.Memo{Name: "b"}})
	assert.Len(t, m.memos, 2)

	m.stopFeed()
	assert.Nil(t, m.memoSub)
	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("subscription not released")
	}

	_, cmd = m.Update(memoArrivedMsg{gen: gen, memo: contract.Memo{Name: "late"}})
	assert.NotNil(t, cmd)
	assert.Len(t, m.memos, 2)
}

func TestStaleFetchIgnored(t *testing.T) {
	m := testModel(t)
	gen := m.memoGen
	m.stopFeed()

	_, cmd := m.Update(memosFetchedMsg{gen: gen, memos: []contract.Memo{{Name: "old"}}})
	assert.Nil(t, cmd)
	assert.Empty(t, m.memos)
}

func liveSub(t *testing.T) *dapp.Subscription {
	t.Helper()
	feed := dapp.NewFeed(&stubSource{}, wallet.NewSession(&stubProvider{}))
	sub, err := feed.Subscribe(context.Background(), nil)
	require.NoError(t, err)
	t.Cleanup(sub.Unsubscribe)
	return sub
}

func TestMemoSubEndedResubscribesOnce(t *testing.T) {
	m := testModel(t)
	m.session = wallet.NewSession(&stubProvider{})
	m.coffee = contract.NewClient(common.HexToAddress(config.DefaultContractAddress), nil)
	dropped := errors.New("connection reset by peer")

	m.memoSub = liveSub(t)
	gen := m.memoGen
	_, cmd := m.Update(memoSubEndedMsg{gen: gen, err: dropped})
	require.NotNil(t, cmd)
	assert.True(t, m.feedRetried)
	assert.Equal(t, gen+1, m.memoGen)
	assert.Empty(t, m.notice)

	// a second drop on the same node leaves the feed stopped, and says so
	m.memoSub = liveSub(t)
	_, cmd = m.Update(memoSubEndedMsg{gen: m.memoGen, err: dropped})
	assert.Nil(t, cmd)
	assert.Nil(t, m.memoSub)
	assert.True(t, m.noticeErr)
	assert.Contains(t, m.notice, "Live memo updates stopped")
}

func TestStaleSubEndIgnored(t *testing.T) {
	m := testModel(t)
	m.memoSub = liveSub(t)

	_, cmd := m.Update(memoSubEndedMsg{gen: m.memoGen - 1, err: errors.New("old")})
	assert.Nil(t, cmd)
	assert.NotNil(t, m.memoSub)
	assert.False(t, m.feedRetried)
}

func TestOpenReceipt(t *testing.T) {
	m := testModel(t)
	m.nameInput.SetValue("carol")

	m.Update(key("p"))
	require.True(t, m.showReceipt)
	assert.True(t, strings.HasPrefix(m.paymentURI, "ethereum:"+common.HexToAddress(config.DefaultContractAddress).Hex()))
	assert.Contains(t, m.paymentURI, "/buyCoffee?string=carol&string=Enjoy+your+coffee%21&value=1000000000000000")

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.showReceipt)
	assert.Empty(t, m.paymentURI)
}

func TestSettingsRoundTrip(t *testing.T) {
	m := testModel(t)
	m.Update(key("s"))
	assert.Equal(t, config.PageSettings, m.activePage)
	assert.Contains(t, m.View(), "Settings")

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, config.PageHome, m.activePage)
}
