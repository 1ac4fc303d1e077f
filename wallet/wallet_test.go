package wallet

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"coffee-wallet-tui/config"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	authorized []common.Address
	requested  []common.Address
	reqErr     error
	requests   int
}

func (f *fakeProvider) Accounts(ctx context.Context) ([]common.Address, error) {
	return f.authorized, nil
}

func (f *fakeProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	f.requests++
	return f.requested, f.reqErr
}

func (f *fakeProvider) SendTransaction(ctx context.Context, req TxRequest) (common.Hash, error) {
	return common.Hash{}, errors.New("not implemented")
}

func TestConnectWithoutProvider(t *testing.T) {
	s := NewSession(nil)

	_, err := s.Connect(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoProvider)
	assert.False(t, s.Connected())
}

func TestProbeAdoptsFirstAuthorizedAccount(t *testing.T) {
	first := common.HexToAddress("0x1")
	p := &fakeProvider{authorized: []common.Address{first, common.HexToAddress("0x2")}}
	s := NewSession(p)

	got, err := s.Probe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, got)

	acct, ok := s.Account()
	assert.True(t, ok)
	assert.Equal(t, first, acct)
	assert.Zero(t, p.requests, "probe must not prompt")
}

func TestProbeWithNoAuthorizedAccounts(t *testing.T) {
	s := NewSession(&fakeProvider{})

	_, err := s.Probe(context.Background())
	require.NoError(t, err)
	assert.False(t, s.Connected())
}

func TestConnectRejected(t *testing.T) {
	s := NewSession(&fakeProvider{reqErr: &Error{Kind: KindUserRejected}})

	_, err := s.Connect(context.Background())
	assert.ErrorIs(t, err, ErrUserRejected)
	assert.False(t, s.Connected())
}

func TestConnectAdoptsFirstRequested(t *testing.T) {
	want := common.HexToAddress("0xabc")
	s := NewSession(&fakeProvider{requested: []common.Address{want}})

	got, err := s.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.True(t, s.Connected())
}

func TestClassify(t *testing.T) {
	assert.Nil(t, Classify("op", nil))
	assert.ErrorIs(t, Classify("op", keystore.ErrDecrypt), ErrUserRejected)
	assert.ErrorIs(t, Classify("op", errors.New("dial tcp: refused")), ErrNetwork)

	reverted := &Error{Kind: KindReverted, Err: errors.New("status 0")}
	err := Classify("submit", reverted)
	assert.ErrorIs(t, err, ErrReverted)
	assert.Contains(t, err.Error(), "submit")

	wrapped := fmt.Errorf("outer: %w", &Error{Kind: KindNoProvider})
	assert.Equal(t, KindNoProvider, KindOf(wrapped))
	assert.Equal(t, KindNetwork, KindOf(errors.New("x")))
}

func TestOpenKeystoreMissingDir(t *testing.T) {
	_, err := OpenKeystore(filepath.Join(t.TempDir(), "missing"), nil)
	assert.ErrorIs(t, err, ErrNoProvider)
}

func TestOpenKeystoreEmptyDir(t *testing.T) {
	_, err := OpenKeystore(t.TempDir(), nil)
	assert.ErrorIs(t, err, ErrNoProvider)
}

func TestOpenUnknownKind(t *testing.T) {
	_, err := Open(context.Background(), config.Wallet{Kind: "ledger"}, nil)
	assert.ErrorIs(t, err, ErrNoProvider)
}

func TestKeystoreUnlockFlow(t *testing.T) {
	dir := t.TempDir()
	raw := keystore.NewKeyStore(dir, keystore.LightScryptN, keystore.LightScryptP)
	acct, err := raw.NewAccount("correct horse")
	require.NoError(t, err)

	ks, err := openKeystore(dir, nil, keystore.LightScryptN, keystore.LightScryptP)
	require.NoError(t, err)
	ctx := context.Background()

	authorized, err := ks.Accounts(ctx)
	require.NoError(t, err)
	assert.Empty(t, authorized)
	assert.True(t, ks.NeedsPassphrase())

	ks.SetPassphrase("wrong")
	_, err = ks.RequestAccounts(ctx)
	assert.ErrorIs(t, err, ErrUserRejected)

	ks.SetPassphrase("correct horse")
	got, err := ks.RequestAccounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []common.Address{acct.Address}, got)
	assert.False(t, ks.NeedsPassphrase())

	s := NewSession(ks)
	probed, err := s.Probe(ctx)
	require.NoError(t, err)
	assert.Equal(t, acct.Address, probed)
}

func TestKeystoreSendWithoutBackend(t *testing.T) {
	dir := t.TempDir()
	raw := keystore.NewKeyStore(dir, keystore.LightScryptN, keystore.LightScryptP)
	_, err := raw.NewAccount("pw")
	require.NoError(t, err)

	ks, err := openKeystore(dir, nil, keystore.LightScryptN, keystore.LightScryptP)
	require.NoError(t, err)

	_, err = ks.SendTransaction(context.Background(), TxRequest{})
	assert.ErrorIs(t, err, ErrNetwork)
}

// ethService answers the wallet methods of an injected provider.
type ethService struct {
	accounts []common.Address
	reject   bool
	sent     []rpcTx
}

type rejectedError struct{}

func (rejectedError) Error() string  { return "User rejected the request." }
func (rejectedError) ErrorCode() int { return 4001 }

func (s *ethService) Accounts() []common.Address { return s.accounts }

func (s *ethService) RequestAccounts() ([]common.Address, error) {
	if s.reject {
		return nil, rejectedError{}
	}
	return s.accounts, nil
}

func (s *ethService) SendTransaction(tx rpcTx) (common.Hash, error) {
	if s.reject {
		return common.Hash{}, rejectedError{}
	}
	s.sent = append(s.sent, tx)
	return common.HexToHash("0xfeed"), nil
}

func newInProcWallet(t *testing.T, svc *ethService) *RPCWallet {
	t.Helper()
	server := gethrpc.NewServer()
	require.NoError(t, server.RegisterName("eth", svc))
	t.Cleanup(server.Stop)
	c := gethrpc.DialInProc(server)
	t.Cleanup(c.Close)
	return NewRPCWallet(c, "inproc")
}

func TestRPCWalletAccounts(t *testing.T) {
	want := common.HexToAddress("0x1234")
	w := newInProcWallet(t, &ethService{accounts: []common.Address{want}})
	ctx := context.Background()

	got, err := w.Accounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []common.Address{want}, got)

	got, err = w.RequestAccounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []common.Address{want}, got)
}

func TestRPCWalletRejection(t *testing.T) {
	w := newInProcWallet(t, &ethService{reject: true})

	_, err := w.RequestAccounts(context.Background())
	assert.ErrorIs(t, err, ErrUserRejected)

	_, err = w.SendTransaction(context.Background(), TxRequest{})
	assert.ErrorIs(t, err, ErrUserRejected)
}

func TestRPCWalletSendTransaction(t *testing.T) {
	svc := &ethService{}
	w := newInProcWallet(t, svc)

	hash, err := w.SendTransaction(context.Background(), TxRequest{
		From: common.HexToAddress("0x1"),
		To:   common.HexToAddress("0x2"),
		Data: []byte{0xde, 0xad},
	})
	require.NoError(t, err)
	assert.Equal(t, common.HexToHash("0xfeed"), hash)
	require.Len(t, svc.sent, 1)
	assert.Equal(t, common.HexToAddress("0x2"), svc.sent[0].To)
	assert.Equal(t, []byte{0xde, 0xad}, []byte(svc.sent[0].Data))
}
