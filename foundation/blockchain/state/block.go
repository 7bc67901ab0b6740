package state

import (
	"errors"

	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/database"
)

// ErrShorterChain is returned when a submitted range is valid but replaces
// local blocks without making the chain longer.
var ErrShorterChain = errors.New("range does not outgrow the local chain")

// SubmitBlocks applies a block range through the operator and, when it is
// accepted, makes the result the canonical chain. A range that doesn't
// connect to the local chain yields an operator.MissingRangeError.
func (s *State) SubmitBlocks(blocks []database.Block) error {
	changed, err := s.submitBlocks(blocks)
	if err != nil {
		s.evHandler("state: SubmitBlocks: blks[%d]: rejected: %s", len(blocks), err)
		return err
	}

	if changed {
		s.notify()
	}

	return nil
}

func (s *State) submitBlocks(blocks []database.Block) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chain, err := s.operator.AppendRange(s.chain, blocks)
	if err != nil {
		return false, err
	}

	// Replacing local blocks takes a strictly longer chain. A range the
	// local chain already holds is a no-op.
	if !isPrefix(s.chain, chain) && len(chain) <= len(s.chain) {
		if isPrefix(chain, s.chain) {
			s.evHandler("state: SubmitBlocks: range already held: height[%d]", len(s.chain))
			return false, nil
		}
		return false, ErrShorterChain
	}

	return s.setChainState(chain), nil
}

// SetChainState makes the chain canonical. Only the suffix that differs
// from the local chain is reconciled: pending transactions committed in
// that suffix leave the pool and the new chain is persisted. Calling it
// with the current chain does nothing. The chain is trusted, callers with
// blocks from the network use SubmitBlocks.
func (s *State) SetChainState(chain []database.Block) {
	s.mu.Lock()
	changed := s.setChainState(chain)
	s.mu.Unlock()

	if changed {
		s.notify()
	}
}

func (s *State) setChainState(chain []database.Block) bool {
	fork := -1
	for i := range chain {
		if i >= len(s.chain) || chain[i].Header.Hash != s.chain[i].Header.Hash {
			fork = i
			break
		}
	}

	if fork == -1 {
		s.evHandler("state: SetChainState: no change: height[%d]", len(s.chain))
		return false
	}

	s.evHandler("state: SetChainState: reconcile from index[%d]: old height[%d]: new height[%d]", fork, len(s.chain), len(chain))

	committed := make(map[string]struct{})
	for _, block := range chain[fork:] {
		for sig := range block.Signatures() {
			committed[sig] = struct{}{}
		}
	}

	if n := s.mempool.RemoveCommitted(committed); n > 0 {
		s.evHandler("state: SetChainState: removed committed txs from pool: count[%d]", n)
	}

	next := make([]database.Block, 0, len(chain))
	next = append(next, s.chain[:fork]...)
	next = append(next, chain[fork:]...)
	s.chain = next

	s.prunePool()

	if err := s.storage.SaveChain(s.chain); err != nil {
		s.evHandler("state: SetChainState: ERROR: persisting chain: %s", err)
	}

	return true
}

// prunePool drops pending transactions that no longer validate against the
// new chain, keeping the order of those that still do.
func (s *State) prunePool() {
	pending := s.mempool.Copy()
	if len(pending) == 0 {
		return
	}

	kept := make([]database.AccountTransaction, 0, len(pending))
	stale := make(map[string]struct{})
	for _, tx := range pending {
		if err := s.operator.ValidateTransaction(tx, s.chain, kept); err != nil {
			s.evHandler("state: SetChainState: dropping tx[%s]: %s", tx, err)
			stale[tx.Header.Signature] = struct{}{}
			continue
		}
		kept = append(kept, tx)
	}

	switch {
	case len(kept) == 0:
		s.mempool.Truncate()
	case len(stale) > 0:
		s.mempool.RemoveCommitted(stale)
	}
}

// isPrefix reports whether every block of prefix matches the chain.
func isPrefix(prefix []database.Block, chain []database.Block) bool {
	if len(prefix) > len(chain) {
		return false
	}

	for i := range prefix {
		if prefix[i].Header.Hash != chain[i].Header.Hash {
			return false
		}
	}

	return true
}
