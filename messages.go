package main

import (
	"coffee-wallet-tui/contract"
	"coffee-wallet-tui/dapp"
	"coffee-wallet-tui/rpc"
	"coffee-wallet-tui/wallet"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// -------------------- TEA MESSAGES --------------------
// All custom message types for The Elm Architecture

// clipboardCopiedMsg indicates clipboard copy completed
type clipboardCopiedMsg struct {
	what string
}

// clearCopiedMsg hides the copy confirmation
type clearCopiedMsg struct{}

// rpcConnectedMsg contains result of RPC connection attempt
type rpcConnectedMsg struct {
	client *rpc.Client
	err    error
}

// walletOpenedMsg carries the wallet provider, nil when none is installed
type walletOpenedMsg struct {
	provider wallet.Provider
	err      error
}

// walletProbedMsg is the result of looking for an already authorized account
type walletProbedMsg struct {
	account common.Address
	err     error
}

// walletConnectedMsg is the result of asking the wallet for an account
type walletConnectedMsg struct {
	account common.Address
	err     error
}

// detailsLoadedMsg contains the connected account's balance
type detailsLoadedMsg struct {
	d rpc.AccountDetails
}

// memosFetchedMsg carries the memo history of feed generation gen
type memosFetchedMsg struct {
	gen   int
	memos []contract.Memo
	err   error
}

// memoSubscribedMsg hands over the live subscription of generation gen
type memoSubscribedMsg struct {
	gen int
	sub *dapp.Subscription
	err error
}

// memoArrivedMsg is one live NewMemo event
type memoArrivedMsg struct {
	gen  int
	memo contract.Memo
}

// memoSubEndedMsg reports that a live subscription stopped on its own
type memoSubEndedMsg struct {
	gen int
	err error
}

// txSentMsg reports that the wallet broadcast the payment
type txSentMsg struct {
	hash common.Hash
}

// coffeeBoughtMsg is the outcome of a submission. draft is the draft after
// the attempt: cleared on success, untouched on failure.
type coffeeBoughtMsg struct {
	draft   dapp.Draft
	receipt *types.Receipt
	err     error
}
