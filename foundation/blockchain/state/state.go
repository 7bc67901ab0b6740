// Package state is the single owner of the canonical chain and the pool of
// pending transactions. Every mutation goes through AddTransaction or
// SetChainState and is announced to subscribers as a change event.
package state

import (
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/event"

	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/database"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/mempool"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/operator"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/storage"
)

// EventHandler defines a function that is called when events
// occur in the processing of persisting blocks.
type EventHandler func(v string, args ...any)

// ChangeEvent is sent to subscribers whenever the chain or the pool
// changes. It carries nothing, subscribers read the current snapshot.
type ChangeEvent struct{}

// =============================================================================

// Config represents the configuration required to construct the state.
type Config struct {
	Operator  *operator.Operator
	Storage   storage.Storage
	EvHandler EventHandler
}

// State manages the chain and the pool.
type State struct {
	mu        sync.RWMutex
	evHandler EventHandler

	operator *operator.Operator
	storage  storage.Storage
	chain    []database.Block
	mempool  *mempool.Mempool

	changeFeed event.Feed
	scope      event.SubscriptionScope
}

// New constructs the state, loading the chain from storage. The stored
// chain is replayed through the operator and only its valid prefix is
// kept.
func New(cfg Config) (*State, error) {
	if cfg.Operator == nil {
		return nil, errors.New("operator is required")
	}

	if cfg.Storage == nil {
		return nil, errors.New("storage is required")
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	// Load all existing blocks from storage into memory for processing.
	stored := storage.Load(cfg.Storage, ev)

	chain, err := cfg.Operator.ValidPrefix(stored)
	if err != nil {
		ev("state: New: WARNING: dropping stored blocks from index %d: %s", len(chain), err)
	}

	ev("state: New: loaded chain: height[%d]", len(chain))

	state := State{
		evHandler: ev,
		operator:  cfg.Operator,
		storage:   cfg.Storage,
		chain:     chain,
		mempool:   mempool.New(),
	}

	return &state, nil
}

// Shutdown ends every change subscription and releases storage.
func (s *State) Shutdown() error {
	s.evHandler("state: Shutdown: started")
	defer s.evHandler("state: Shutdown: completed")

	s.scope.Close()

	return s.storage.Close()
}

// Operator returns the operator the state validates with.
func (s *State) Operator() *operator.Operator {
	return s.operator
}

// SubscribeChanges registers the channel for change events. Delivery blocks
// until every subscriber has received, so the channel should be buffered
// and drained promptly.
func (s *State) SubscribeChanges(ch chan<- ChangeEvent) event.Subscription {
	return s.scope.Track(s.changeFeed.Subscribe(ch))
}

// notify announces a change. It must be called without the lock held.
func (s *State) notify() {
	n := s.changeFeed.Send(ChangeEvent{})
	s.evHandler("state: notify: change sent: subscribers[%d]", n)
}
