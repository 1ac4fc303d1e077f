// Package wallet is the boundary to whatever holds the user's keys.
//
// A Provider plays the role a browser-injected wallet plays for a web dApp:
// it lists already authorized accounts, asks the user to authorize one, and
// signs and broadcasts transactions on request.
package wallet

import (
	"context"
	"math/big"
	"os"
	"strings"

	"coffee-wallet-tui/config"

	"github.com/ethereum/go-ethereum/common"
)

// TxRequest describes a contract call to be signed and sent by the provider.
type TxRequest struct {
	From  common.Address
	To    common.Address
	Value *big.Int
	Data  []byte
}

// Provider is a wallet the session can talk to.
type Provider interface {
	// Accounts returns accounts the user already authorized, without prompting.
	Accounts(ctx context.Context) ([]common.Address, error)
	// RequestAccounts asks the user to authorize an account.
	RequestAccounts(ctx context.Context) ([]common.Address, error)
	// SendTransaction signs and broadcasts req, returning the tx hash.
	SendTransaction(ctx context.Context, req TxRequest) (common.Hash, error)
}

// Open builds the provider described by cfg. A missing wallet is reported as
// ErrNoProvider so the UI can ask the user to install one.
func Open(ctx context.Context, cfg config.Wallet, backend Backend) (Provider, error) {
	switch cfg.Kind {
	case config.WalletRPC:
		if strings.TrimSpace(cfg.URL) == "" {
			return nil, &Error{Kind: KindNoProvider, Op: "open rpc wallet"}
		}
		w, err := DialRPCWallet(ctx, cfg.URL)
		if err != nil {
			return nil, err
		}
		return w, nil
	case config.WalletKeystore, "":
		dir := cfg.Keystore
		if dir == "" {
			dir = config.DefaultKeystoreDir()
		}
		ks, err := OpenKeystore(dir, backend)
		if err != nil {
			return nil, err
		}
		if pass := os.Getenv("COFFEE_KEYSTORE_PASSPHRASE"); pass != "" {
			// pre-authorization; a wrong passphrase just leaves the wallet locked
			ks.SetPassphrase(pass)
			_, _ = ks.RequestAccounts(ctx)
		}
		return ks, nil
	}
	return nil, &Error{Kind: KindNoProvider, Op: "open wallet " + cfg.Kind}
}
