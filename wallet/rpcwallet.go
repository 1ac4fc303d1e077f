package wallet

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
)

// RPCWallet talks to an external wallet over JSON-RPC using the same methods
// a browser dApp sends to an injected provider.
type RPCWallet struct {
	c   *gethrpc.Client
	URL string
}

// DialRPCWallet connects to url and checks the wallet answers. An unreachable
// wallet is reported as ErrNoProvider.
func DialRPCWallet(ctx context.Context, url string) (*RPCWallet, error) {
	ctx, cancel := context.WithTimeout(ctx, 8*time.Second)
	defer cancel()

	c, err := gethrpc.DialContext(ctx, url)
	if err != nil {
		return nil, &Error{Kind: KindNoProvider, Op: "dial wallet", Err: err}
	}
	var chainID hexutil.Big
	if err := c.CallContext(ctx, &chainID, "eth_chainId"); err != nil {
		c.Close()
		return nil, &Error{Kind: KindNoProvider, Op: "dial wallet", Err: err}
	}
	return NewRPCWallet(c, url), nil
}

// NewRPCWallet wraps an already connected client.
func NewRPCWallet(c *gethrpc.Client, url string) *RPCWallet {
	return &RPCWallet{c: c, URL: url}
}

func (w *RPCWallet) Accounts(ctx context.Context) ([]common.Address, error) {
	var accts []common.Address
	if err := w.c.CallContext(ctx, &accts, "eth_accounts"); err != nil {
		return nil, Classify("eth_accounts", err)
	}
	return accts, nil
}

func (w *RPCWallet) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	var accts []common.Address
	if err := w.c.CallContext(ctx, &accts, "eth_requestAccounts"); err != nil {
		return nil, Classify("eth_requestAccounts", err)
	}
	if len(accts) == 0 {
		return nil, &Error{Kind: KindUserRejected, Op: "eth_requestAccounts", Err: fmt.Errorf("no accounts returned")}
	}
	return accts, nil
}

// rpcTx is the eth_sendTransaction argument; the wallet fills nonce, gas and fees.
type rpcTx struct {
	From  common.Address `json:"from"`
	To    common.Address `json:"to"`
	Value *hexutil.Big   `json:"value,omitempty"`
	Data  hexutil.Bytes  `json:"data,omitempty"`
}

func (w *RPCWallet) SendTransaction(ctx context.Context, req TxRequest) (common.Hash, error) {
	arg := rpcTx{From: req.From, To: req.To, Data: req.Data}
	if req.Value != nil {
		arg.Value = (*hexutil.Big)(req.Value)
	}
	var hash common.Hash
	if err := w.c.CallContext(ctx, &hash, "eth_sendTransaction", arg); err != nil {
		return common.Hash{}, Classify("eth_sendTransaction", err)
	}
	return hash, nil
}

// Close releases the connection.
func (w *RPCWallet) Close() {
	w.c.Close()
}
