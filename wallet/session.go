package wallet

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Session tracks which account, if any, the user connected.
// Methods are safe to call from command goroutines.
type Session struct {
	mu       sync.RWMutex
	provider Provider
	account  common.Address
	set      bool
}

// NewSession returns a disconnected session. p may be nil when no wallet is installed.
func NewSession(p Provider) *Session {
	return &Session{provider: p}
}

// Provider returns the wallet, nil when none is installed.
func (s *Session) Provider() Provider {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.provider
}

// Account returns the connected account and whether there is one.
func (s *Session) Account() (common.Address, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.account, s.set
}

func (s *Session) Connected() bool {
	_, ok := s.Account()
	return ok
}

// Probe adopts the first already authorized account, if the wallet has one.
// It never prompts the user.
func (s *Session) Probe(ctx context.Context) (common.Address, error) {
	p := s.Provider()
	if p == nil {
		return common.Address{}, &Error{Kind: KindNoProvider, Op: "probe"}
	}
	accts, err := p.Accounts(ctx)
	if err != nil {
		return common.Address{}, Classify("probe", err)
	}
	if len(accts) == 0 {
		return common.Address{}, nil
	}
	s.adopt(accts[0])
	return accts[0], nil
}

// Connect asks the wallet to authorize an account and adopts the first one.
// Without a wallet it returns ErrNoProvider and leaves the session untouched.
func (s *Session) Connect(ctx context.Context) (common.Address, error) {
	p := s.Provider()
	if p == nil {
		return common.Address{}, &Error{Kind: KindNoProvider, Op: "connect"}
	}
	accts, err := p.RequestAccounts(ctx)
	if err != nil {
		return common.Address{}, Classify("connect", err)
	}
	if len(accts) == 0 {
		return common.Address{}, &Error{Kind: KindUserRejected, Op: "connect"}
	}
	s.adopt(accts[0])
	return accts[0], nil
}

func (s *Session) adopt(a common.Address) {
	s.mu.Lock()
	s.account = a
	s.set = true
	s.mu.Unlock()
}
