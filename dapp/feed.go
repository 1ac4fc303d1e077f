package dapp

import (
	"context"
	"sync"

	"coffee-wallet-tui/contract"
	"coffee-wallet-tui/wallet"

	"github.com/ethereum/go-ethereum/event"
)

// MemoSource reads and follows contract memos.
type MemoSource interface {
	Memos(ctx context.Context) ([]contract.Memo, error)
	WatchMemos(ctx context.Context, sink chan<- contract.Memo) (event.Subscription, error)
}

// Feed is the in-memory memo list: one fetch, then appends in arrival order.
// Subscribe before FetchAll so nothing mined while the history is read is
// missed; events seen before the fetch lands are kept after the history.
// Duplicates between history and live events are kept.
type Feed struct {
	source  MemoSource
	session *wallet.Session

	mu      sync.Mutex
	memos   []contract.Memo
	fetched bool
	early   []contract.Memo // live events delivered before FetchAll returned
}

func NewFeed(source MemoSource, session *wallet.Session) *Feed {
	return &Feed{source: source, session: session}
}

func (f *Feed) ready(op string) error {
	if f.session == nil || f.session.Provider() == nil {
		return &wallet.Error{Kind: wallet.KindNoProvider, Op: op}
	}
	if f.source == nil {
		return &wallet.Error{Kind: wallet.KindNetwork, Op: op}
	}
	return nil
}

// FetchAll loads the full memo history, replacing the current list.
// Without a wallet provider it returns ErrNoProvider and leaves the list alone.
func (f *Feed) FetchAll(ctx context.Context) ([]contract.Memo, error) {
	if err := f.ready("getMemos"); err != nil {
		return nil, err
	}
	memos, err := f.source.Memos(ctx)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.memos = append(append([]contract.Memo(nil), memos...), f.early...)
	f.early = nil
	f.fetched = true
	f.mu.Unlock()
	return f.Memos(), nil
}

// Memos returns a copy of the list.
func (f *Feed) Memos() []contract.Memo {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]contract.Memo(nil), f.memos...)
}

func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.memos)
}

// Subscribe follows NewMemo events. Each event is appended and then passed to
// notify, which runs on the subscription goroutine.
func (f *Feed) Subscribe(ctx context.Context, notify func(contract.Memo)) (*Subscription, error) {
	if err := f.ready("subscribe NewMemo"); err != nil {
		return nil, err
	}
	sink := make(chan contract.Memo)
	sub, err := f.source.WatchMemos(ctx, sink)
	if err != nil {
		return nil, err
	}

	s := &Subscription{feed: f, sub: sub, quit: make(chan struct{}), done: make(chan struct{})}
	go s.loop(sink, notify)
	return s, nil
}

// deliver appends m unless s was already released.
func (f *Feed) deliver(s *Subscription, m contract.Memo) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s.closed {
		return false
	}
	if !f.fetched {
		f.early = append(f.early, m)
	}
	f.memos = append(f.memos, m)
	return true
}

// Subscription is the handle to a live memo listener.
type Subscription struct {
	feed *Feed
	sub  event.Subscription

	once   sync.Once
	quit   chan struct{}
	done   chan struct{}
	closed bool // guarded by feed.mu
	err    error
}

func (s *Subscription) loop(sink <-chan contract.Memo, notify func(contract.Memo)) {
	defer close(s.done)
	for {
		select {
		case m := <-sink:
			if s.feed.deliver(s, m) && notify != nil {
				notify(m)
			}
		case err, ok := <-s.sub.Err():
			if ok {
				s.err = err
			}
			return
		case <-s.quit:
			return
		}
	}
}

// Unsubscribe detaches the listener. It is safe to call more than once; once
// it returns no further event changes the feed.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.feed.mu.Lock()
		s.closed = true
		s.feed.mu.Unlock()
		close(s.quit)
		s.sub.Unsubscribe()
	})
}

// Done is closed when the listener goroutine exits.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Err reports why the listener stopped; nil after Unsubscribe. Valid once Done is closed.
func (s *Subscription) Err() error {
	<-s.done
	return s.err
}
