package wallet

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Backend is the slice of ethclient the keystore wallet needs to fill in and
// broadcast transactions.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// Keystore is a wallet backed by a go-ethereum keystore directory.
// Unlocked accounts count as authorized.
type Keystore struct {
	ks      *keystore.KeyStore
	backend Backend

	mu         sync.Mutex
	passphrase string
	unlocked   []common.Address
}

// OpenKeystore opens dir. A missing directory or one without accounts means
// there is no wallet installed.
func OpenKeystore(dir string, backend Backend) (*Keystore, error) {
	return openKeystore(dir, backend, keystore.StandardScryptN, keystore.StandardScryptP)
}

func openKeystore(dir string, backend Backend, scryptN, scryptP int) (*Keystore, error) {
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		return nil, &Error{Kind: KindNoProvider, Op: "open keystore", Err: fmt.Errorf("%s: no keystore directory", dir)}
	}
	ks := keystore.NewKeyStore(dir, scryptN, scryptP)
	if len(ks.Accounts()) == 0 {
		return nil, &Error{Kind: KindNoProvider, Op: "open keystore", Err: fmt.Errorf("%s: no accounts", dir)}
	}
	return &Keystore{ks: ks, backend: backend}, nil
}

// NewAccount creates a fresh encrypted key in dir and returns its address.
func NewAccount(dir, passphrase string) (common.Address, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return common.Address{}, err
	}
	ks := keystore.NewKeyStore(dir, keystore.StandardScryptN, keystore.StandardScryptP)
	acct, err := ks.NewAccount(passphrase)
	if err != nil {
		return common.Address{}, err
	}
	return acct.Address, nil
}

// ListAccounts returns the addresses stored in dir without unlocking anything.
func ListAccounts(dir string) []common.Address {
	ks := keystore.NewKeyStore(dir, keystore.StandardScryptN, keystore.StandardScryptP)
	var out []common.Address
	for _, a := range ks.Accounts() {
		out = append(out, a.Address)
	}
	return out
}

// SetBackend points the wallet at a new node connection.
func (k *Keystore) SetBackend(b Backend) {
	k.mu.Lock()
	k.backend = b
	k.mu.Unlock()
}

// SetPassphrase stores the passphrase used by the next RequestAccounts call.
func (k *Keystore) SetPassphrase(p string) {
	k.mu.Lock()
	k.passphrase = p
	k.mu.Unlock()
}

// NeedsPassphrase is true while no account is unlocked.
func (k *Keystore) NeedsPassphrase() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.unlocked) == 0
}

func (k *Keystore) Accounts(ctx context.Context) ([]common.Address, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return append([]common.Address(nil), k.unlocked...), nil
}

// RequestAccounts unlocks the first keystore account with the stored passphrase.
func (k *Keystore) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	accts := k.ks.Accounts()
	if len(accts) == 0 {
		return nil, &Error{Kind: KindNoProvider, Op: "request accounts"}
	}
	first := accts[0]
	if err := k.ks.Unlock(first, k.passphrase); err != nil {
		return nil, Classify("unlock "+first.Address.Hex(), err)
	}
	k.passphrase = ""
	for _, a := range k.unlocked {
		if a == first.Address {
			return append([]common.Address(nil), k.unlocked...), nil
		}
	}
	k.unlocked = append(k.unlocked, first.Address)
	return append([]common.Address(nil), k.unlocked...), nil
}

// SendTransaction fills nonce, gas and fees from the backend, signs with the
// unlocked key and broadcasts.
func (k *Keystore) SendTransaction(ctx context.Context, req TxRequest) (common.Hash, error) {
	k.mu.Lock()
	backend := k.backend
	k.mu.Unlock()
	if backend == nil {
		return common.Hash{}, &Error{Kind: KindNetwork, Op: "send transaction", Err: fmt.Errorf("no RPC client")}
	}
	value := req.Value
	if value == nil {
		value = new(big.Int)
	}

	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return common.Hash{}, Classify("chain id", err)
	}
	nonce, err := backend.PendingNonceAt(ctx, req.From)
	if err != nil {
		return common.Hash{}, Classify("nonce", err)
	}
	tip, err := backend.SuggestGasTipCap(ctx)
	if err != nil {
		return common.Hash{}, Classify("gas tip", err)
	}
	head, err := backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return common.Hash{}, Classify("latest header", err)
	}
	baseFee := head.BaseFee
	if baseFee == nil {
		baseFee = new(big.Int)
	}
	feeCap := new(big.Int).Add(tip, new(big.Int).Mul(baseFee, big.NewInt(2)))

	to := req.To
	gas, err := backend.EstimateGas(ctx, ethereum.CallMsg{
		From:  req.From,
		To:    &to,
		Value: value,
		Data:  req.Data,
	})
	if err != nil {
		// an estimate failure is almost always the call reverting
		return common.Hash{}, &Error{Kind: KindReverted, Op: "estimate gas", Err: err}
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        &to,
		Value:     value,
		Data:      req.Data,
	})
	signed, err := k.ks.SignTx(accounts.Account{Address: req.From}, tx, chainID)
	if err != nil {
		return common.Hash{}, Classify("sign", err)
	}
	if err := backend.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, Classify("broadcast", err)
	}
	return signed.Hash(), nil
}
