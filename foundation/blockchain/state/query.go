package state

import (
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/database"
)

// Chain returns a copy of the canonical chain.
func (s *State) Chain() []database.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return database.CopyChain(s.chain)
}

// Pool returns a copy of the pending transactions in pool order.
func (s *State) Pool() []database.AccountTransaction {
	return s.mempool.Copy()
}

// PoolCount returns the number of pending transactions.
func (s *State) PoolCount() int {
	return s.mempool.Count()
}

// Snapshot returns copies of the chain and pool taken together.
func (s *State) Snapshot() ([]database.Block, []database.AccountTransaction) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return database.CopyChain(s.chain), s.mempool.Copy()
}

// Height returns the number of blocks in the chain.
func (s *State) Height() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return uint64(len(s.chain))
}

// LatestBlock returns the tip of the chain. The bool is false when the
// chain is empty.
func (s *State) LatestBlock() (database.Block, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.chain) == 0 {
		return database.Block{}, false
	}

	return s.chain[len(s.chain)-1], true
}

// Blocks returns the blocks with an index in [from, to). The range is
// clamped to the chain.
func (s *State) Blocks(from uint64, to uint64) []database.Block {
	s.mu.RLock()
	defer s.mu.RUnlock()

	height := uint64(len(s.chain))
	if to > height {
		to = height
	}

	if from >= to {
		return []database.Block{}
	}

	return database.CopyChain(s.chain[from:to])
}
