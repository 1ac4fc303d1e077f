package dapp

import (
	"context"
	"fmt"
	"math/big"

	"coffee-wallet-tui/contract"
	"coffee-wallet-tui/wallet"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Payable is the contract surface the submitter needs.
type Payable interface {
	PackBuyCoffee(name, message string) ([]byte, error)
	WaitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// Submitter sends buyCoffee payments from the session's account.
type Submitter struct {
	session  *wallet.Session
	contract Payable
	to       common.Address
	Amount   *big.Int

	// OnSent, if set, is called with the hash once the wallet broadcast the tx.
	OnSent func(common.Hash)
}

// NewSubmitter pays the contract at to through session.
func NewSubmitter(session *wallet.Session, c Payable, to common.Address) *Submitter {
	return &Submitter{session: session, contract: c, to: to, Amount: contract.DefaultAmount}
}

// Submit sends one payment carrying d and waits until it is mined. On success
// d is cleared; on failure d is left as it was. Every call is a new payment.
func (s *Submitter) Submit(ctx context.Context, d *Draft) (*types.Receipt, error) {
	if s.session == nil || s.session.Provider() == nil {
		return nil, &wallet.Error{Kind: wallet.KindNoProvider, Op: "buyCoffee"}
	}
	from, ok := s.session.Account()
	if !ok {
		return nil, &wallet.Error{Kind: wallet.KindNoProvider, Op: "buyCoffee", Err: fmt.Errorf("no connected account")}
	}

	name, message := d.Payload()
	data, err := s.contract.PackBuyCoffee(name, message)
	if err != nil {
		return nil, fmt.Errorf("pack buyCoffee: %w", err)
	}

	hash, err := s.session.Provider().SendTransaction(ctx, wallet.TxRequest{
		From:  from,
		To:    s.to,
		Value: new(big.Int).Set(s.Amount),
		Data:  data,
	})
	if err != nil {
		return nil, wallet.Classify("buyCoffee", err)
	}
	if s.OnSent != nil {
		s.OnSent(hash)
	}

	receipt, err := s.contract.WaitMined(ctx, hash)
	if err != nil {
		return receipt, wallet.Classify("buyCoffee", err)
	}
	d.Reset()
	return receipt, nil
}
