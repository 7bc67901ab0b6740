// Package mempool maintains the pool of transactions waiting to be mined.
package mempool

import (
	"errors"
	"sync"

	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/database"
)

// ErrDuplicate is returned when a transaction with the same signature is
// already in the pool.
var ErrDuplicate = errors.New("transaction already in pool")

// Mempool represents the ordered set of pending transactions with a second
// key on the transaction signature. Order matters since a transaction may
// spend the output of one ahead of it.
type Mempool struct {
	mu   sync.RWMutex
	txs  []database.AccountTransaction
	sigs map[string]struct{}
}

// New constructs a new, empty mempool.
func New() *Mempool {
	return &Mempool{
		txs:  []database.AccountTransaction{},
		sigs: make(map[string]struct{}),
	}
}

// Count returns the current number of transaction in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.txs)
}

// Append adds the transaction to the tail of the pool.
func (mp *Mempool) Append(tx database.AccountTransaction) (int, error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if _, exists := mp.sigs[tx.Header.Signature]; exists {
		return len(mp.txs), ErrDuplicate
	}

	mp.txs = append(mp.txs, tx)
	mp.sigs[tx.Header.Signature] = struct{}{}

	return len(mp.txs), nil
}

// Contains reports whether a transaction with the signature is pending.
func (mp *Mempool) Contains(signature string) bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	_, exists := mp.sigs[signature]
	return exists
}

// Copy returns the pending transactions in pool order.
func (mp *Mempool) Copy() []database.AccountTransaction {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	txs := make([]database.AccountTransaction, len(mp.txs))
	copy(txs, mp.txs)

	return txs
}

// RemoveCommitted drops every transaction whose signature is in the set,
// keeping the order of the rest. It returns how many were removed.
func (mp *Mempool) RemoveCommitted(signatures map[string]struct{}) int {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	kept := mp.txs[:0:0]
	for _, tx := range mp.txs {
		if _, committed := signatures[tx.Header.Signature]; committed {
			delete(mp.sigs, tx.Header.Signature)
			continue
		}
		kept = append(kept, tx)
	}

	removed := len(mp.txs) - len(kept)
	mp.txs = kept

	return removed
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.txs = []database.AccountTransaction{}
	mp.sigs = make(map[string]struct{})
}
