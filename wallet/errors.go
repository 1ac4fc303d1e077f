package wallet

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
)

// Kind classifies a failed wallet or contract operation.
type Kind int

const (
	KindNetwork Kind = iota
	KindNoProvider
	KindUserRejected
	KindReverted
)

func (k Kind) String() string {
	switch k {
	case KindNoProvider:
		return "no provider"
	case KindUserRejected:
		return "user rejected"
	case KindReverted:
		return "reverted"
	default:
		return "network failure"
	}
}

// Sentinels for errors.Is checks against an *Error's kind.
var (
	ErrNoProvider   = &Error{Kind: KindNoProvider}
	ErrUserRejected = &Error{Kind: KindUserRejected}
	ErrNetwork      = &Error{Kind: KindNetwork}
	ErrReverted     = &Error{Kind: KindReverted}
)

// Error is returned by every wallet, submit and feed operation.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op == "" && e.Err == nil:
		return e.Kind.String()
	case e.Err == nil:
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	case e.Op == "":
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind so callers can compare against the sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// EIP-1193 "User Rejected Request"
const userRejectedCode = 4001

// Classify wraps err in an *Error, guessing the kind from well known causes.
// Errors that already carry a kind keep it.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var werr *Error
	if errors.As(err, &werr) {
		if werr.Op == "" {
			return &Error{Kind: werr.Kind, Op: op, Err: werr.Err}
		}
		return err
	}
	kind := KindNetwork
	var rpcErr gethrpc.Error
	switch {
	case errors.Is(err, keystore.ErrDecrypt), errors.Is(err, keystore.ErrLocked):
		kind = KindUserRejected
	case errors.As(err, &rpcErr) && rpcErr.ErrorCode() == userRejectedCode:
		kind = KindUserRejected
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf reports the kind of err, KindNetwork for unclassified errors.
func KindOf(err error) Kind {
	var werr *Error
	if errors.As(err, &werr) {
		return werr.Kind
	}
	return KindNetwork
}
