// Package accounts rebuilds account information by replaying the ledger.
package accounts

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/database"
)

// Info represents information derived for an individual account.
type Info struct {
	Address    string `json:"address"`
	Balance    int64  `json:"balance"`
	OpNonce    uint64 `json:"op_nonce"`
	Operations int    `json:"operations"`
}

// Accounts manages data related to accounts who have transacted on
// the blockchain.
type Accounts struct {
	info map[string]Info
	mu   sync.RWMutex
}

// New constructs an empty set of accounts.
func New() *Accounts {
	return &Accounts{
		info: make(map[string]Info),
	}
}

// Replay applies every operation of the chain then the pool in the order
// they happened. Within a block the transactions come before the coinbase.
// The first operation that doesn't continue its account's history stops the
// replay and is returned as an error along with what was replayed so far.
func Replay(chain []database.Block, pool []database.AccountTransaction) (*Accounts, error) {
	act := New()

	for _, block := range chain {
		for _, tx := range block.Payload.Txs {
			if err := act.applyTx(tx); err != nil {
				return act, fmt.Errorf("blk[%d]: %w", block.Payload.Index, err)
			}
		}

		if err := act.Apply(block.Payload.Coinbase.Payload.To); err != nil {
			return act, fmt.Errorf("blk[%d]: coinbase: %w", block.Payload.Index, err)
		}
	}

	for i, tx := range pool {
		if err := act.applyTx(tx); err != nil {
			return act, fmt.Errorf("pool[%d]: %w", i, err)
		}
	}

	return act, nil
}

func (act *Accounts) applyTx(tx database.AccountTransaction) error {
	if err := act.Apply(tx.Payload.From); err != nil {
		return err
	}

	return act.Apply(tx.Payload.To)
}

// Apply records the operation against its account. The operation must
// start the account's history or follow the last operation applied to it.
func (act *Accounts) Apply(op database.AccountOperation) error {
	act.mu.Lock()
	defer act.mu.Unlock()

	info, exists := act.info[op.Address]
	switch {
	case !exists:
		if op.OpNonce != 0 || op.UpdatedBalance != op.Operation {
			return fmt.Errorf("account %s doesn't start at op_nonce 0: %s", op.Address, op)
		}
		info = Info{Address: op.Address}

	default:
		prior := database.AccountOperation{Address: info.Address, OpNonce: info.OpNonce, UpdatedBalance: info.Balance}
		if err := op.Follows(prior); err != nil {
			return err
		}
	}

	if op.UpdatedBalance < 0 {
		return fmt.Errorf("account %s has a negative balance: %s", op.Address, op)
	}

	info.Balance = op.UpdatedBalance
	info.OpNonce = op.OpNonce
	info.Operations++
	act.info[op.Address] = info

	return nil
}

// Query returns the information for the specified account.
func (act *Accounts) Query(address string) (Info, bool) {
	act.mu.RLock()
	defer act.mu.RUnlock()

	info, exists := act.info[address]
	return info, exists
}

// Copy makes a copy of the current information for all accounts.
func (act *Accounts) Copy() map[string]Info {
	act.mu.RLock()
	defer act.mu.RUnlock()

	accounts := make(map[string]Info, len(act.info))
	for addr, info := range act.info {
		accounts[addr] = info
	}
	return accounts
}

// List returns the information for all accounts ordered by address.
func (act *Accounts) List() []Info {
	act.mu.RLock()
	defer act.mu.RUnlock()

	list := make([]Info, 0, len(act.info))
	for _, info := range act.info {
		list = append(list, info)
	}

	slices.SortFunc(list, func(a, b Info) int {
		return strings.Compare(a.Address, b.Address)
	})

	return list
}
