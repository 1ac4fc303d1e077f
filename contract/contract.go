// Package contract binds the BuyMeACoffee contract: reading memos, packing
// the payable buyCoffee call and following NewMemo events.
package contract

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"math/big"
	"time"

	"coffee-wallet-tui/wallet"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
)

//go:embed BuyMeACoffee.abi.json
var abiJSON []byte

// DefaultAmount is the price of one coffee: 0.001 ETH in wei.
var DefaultAmount = big.NewInt(1_000_000_000_000_000)

// ParsedABI is the decoded contract interface.
var ParsedABI = mustParse(abiJSON)

func mustParse(b []byte) abi.ABI {
	parsed, err := abi.JSON(bytes.NewReader(b))
	if err != nil {
		panic(fmt.Sprintf("contract: bad ABI: %v", err))
	}
	return parsed
}

// Memo is one supporter message stored by the contract.
type Memo struct {
	Address   common.Address
	Timestamp time.Time
	Name      string
	Message   string
}

// memoTuple mirrors the Solidity Memo struct for ABI decoding.
type memoTuple struct {
	From      common.Address
	Timestamp *big.Int
	Name      string
	Message   string
}

func (t memoTuple) memo() Memo {
	ts := int64(0)
	if t.Timestamp != nil {
		ts = t.Timestamp.Int64()
	}
	return Memo{
		Address:   t.From,
		Timestamp: time.Unix(ts, 0),
		Name:      t.Name,
		Message:   t.Message,
	}
}

// Backend is the part of ethclient the binding uses.
type Backend interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

// Client talks to one deployed BuyMeACoffee contract.
type Client struct {
	Address common.Address
	backend Backend

	// PollInterval paces receipt polling and the eth_getLogs fallback.
	PollInterval time.Duration
}

// NewClient binds the contract at addr.
func NewClient(addr common.Address, backend Backend) *Client {
	return &Client{Address: addr, backend: backend, PollInterval: 2 * time.Second}
}

// Memos returns every memo stored by the contract, oldest first.
func (c *Client) Memos(ctx context.Context) ([]Memo, error) {
	data, err := ParsedABI.Pack("getMemos")
	if err != nil {
		return nil, fmt.Errorf("pack getMemos: %w", err)
	}
	to := c.Address
	out, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, wallet.Classify("getMemos", err)
	}
	return UnpackMemos(out)
}

// UnpackMemos decodes the return data of getMemos.
func UnpackMemos(out []byte) ([]Memo, error) {
	values, err := ParsedABI.Unpack("getMemos", out)
	if err != nil {
		return nil, fmt.Errorf("unpack getMemos: %w", err)
	}
	if len(values) == 0 {
		return nil, nil
	}
	tuples := *abi.ConvertType(values[0], new([]memoTuple)).(*[]memoTuple)
	memos := make([]Memo, 0, len(tuples))
	for _, t := range tuples {
		memos = append(memos, t.memo())
	}
	return memos, nil
}

// PackBuyCoffee returns calldata for buyCoffee(name, message).
func (c *Client) PackBuyCoffee(name, message string) ([]byte, error) {
	return ParsedABI.Pack("buyCoffee", name, message)
}

// PackWithdrawTips returns calldata for withdrawTips(), callable by the owner only.
func (c *Client) PackWithdrawTips() ([]byte, error) {
	return ParsedABI.Pack("withdrawTips")
}

func (c *Client) memoQuery() ethereum.FilterQuery {
	return ethereum.FilterQuery{
		Addresses: []common.Address{c.Address},
		Topics:    [][]common.Hash{{ParsedABI.Events["NewMemo"].ID}},
	}
}

// ParseMemo decodes a NewMemo log.
func ParseMemo(l types.Log) (Memo, error) {
	ev := ParsedABI.Events["NewMemo"]
	if len(l.Topics) < 2 || l.Topics[0] != ev.ID {
		return Memo{}, errors.New("not a NewMemo log")
	}
	var body memoTuple
	if err := ParsedABI.UnpackIntoInterface(&body, "NewMemo", l.Data); err != nil {
		return Memo{}, fmt.Errorf("unpack NewMemo: %w", err)
	}
	body.From = common.BytesToAddress(l.Topics[1].Bytes())
	return body.memo(), nil
}

// WatchMemos streams new memos into sink until the subscription is closed.
// Endpoints that cannot push notifications are polled with eth_getLogs.
func (c *Client) WatchMemos(ctx context.Context, sink chan<- Memo) (event.Subscription, error) {
	logs := make(chan types.Log)
	sub, err := c.backend.SubscribeFilterLogs(ctx, c.memoQuery(), logs)
	if errors.Is(err, gethrpc.ErrNotificationsUnsupported) {
		return c.pollMemos(ctx, sink)
	}
	if err != nil {
		return nil, wallet.Classify("subscribe NewMemo", err)
	}

	return event.NewSubscription(func(quit <-chan struct{}) error {
		defer sub.Unsubscribe()
		for {
			select {
			case l := <-logs:
				if l.Removed {
					continue
				}
				memo, err := ParseMemo(l)
				if err != nil {
					continue
				}
				select {
				case sink <- memo:
				case err := <-sub.Err():
					return err
				case <-quit:
					return nil
				}
			case err := <-sub.Err():
				return err
			case <-quit:
				return nil
			}
		}
	}), nil
}

func (c *Client) pollMemos(ctx context.Context, sink chan<- Memo) (event.Subscription, error) {
	head, err := c.backend.BlockNumber(ctx)
	if err != nil {
		return nil, wallet.Classify("block number", err)
	}
	next := head + 1

	return event.NewSubscription(func(quit <-chan struct{}) error {
		ticker := time.NewTicker(c.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
			case <-quit:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}

			latest, err := c.backend.BlockNumber(ctx)
			if err != nil || latest < next {
				continue
			}
			q := c.memoQuery()
			q.FromBlock = new(big.Int).SetUint64(next)
			q.ToBlock = new(big.Int).SetUint64(latest)
			found, err := c.backend.FilterLogs(ctx, q)
			if err != nil {
				continue
			}
			next = latest + 1
			for _, l := range found {
				memo, err := ParseMemo(l)
				if err != nil {
					continue
				}
				select {
				case sink <- memo:
				case <-quit:
					return nil
				}
			}
		}
	}), nil
}

// WaitMined polls for the receipt of hash. A failed execution is ErrReverted.
func (c *Client) WaitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(c.PollInterval)
	defer ticker.Stop()
	for {
		receipt, err := c.backend.TransactionReceipt(ctx, hash)
		switch {
		case err == nil:
			if receipt.Status == types.ReceiptStatusFailed {
				return receipt, &wallet.Error{Kind: wallet.KindReverted, Op: "buyCoffee", Err: fmt.Errorf("tx %s reverted", hash.Hex())}
			}
			return receipt, nil
		case errors.Is(err, ethereum.NotFound):
		default:
			return nil, wallet.Classify("receipt", err)
		}

		select {
		case <-ctx.Done():
			return nil, wallet.Classify("receipt", ctx.Err())
		case <-ticker.C:
		}
	}
}
