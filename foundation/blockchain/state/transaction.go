package state

import (
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/database"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/mempool"
)

// AddTransaction validates the transaction against the current chain and
// pool and, when it passes, appends it to the pool.
func (s *State) AddTransaction(tx database.AccountTransaction) error {
	if err := s.addTransaction(tx); err != nil {
		s.evHandler("state: AddTransaction: tx[%s]: rejected: %s", tx, err)
		return err
	}

	s.notify()

	return nil
}

func (s *State) addTransaction(tx database.AccountTransaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mempool.Contains(tx.Header.Signature) {
		return mempool.ErrDuplicate
	}

	if err := s.operator.ValidateTransaction(tx, s.chain, s.mempool.Copy()); err != nil {
		return err
	}

	n, err := s.mempool.Append(tx)
	if err != nil {
		return err
	}

	s.evHandler("state: AddTransaction: tx[%s]: added: pool[%d]", tx, n)

	return nil
}
