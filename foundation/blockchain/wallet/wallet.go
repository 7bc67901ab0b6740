// Package wallet sends value from one account through a node's state.
package wallet

import (
	"fmt"

	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/database"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/operator"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/signature"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/state"
)

// Wallet holds the key for one account and the state it transacts on.
type Wallet struct {
	state   *state.State
	keypair signature.Keypair
}

// New constructs a wallet for the keypair.
func New(st *state.State, kp signature.Keypair) *Wallet {
	return &Wallet{
		state:   st,
		keypair: kp,
	}
}

// Address returns the account address of the wallet.
func (w *Wallet) Address() string {
	return w.keypair.Address
}

// Balance returns the balance of the account, pending transactions
// included.
func (w *Wallet) Balance() int64 {
	chain, pool := w.state.Snapshot()
	return operator.Balance(w.keypair.Address, chain, pool)
}

// Send builds a transaction moving the amount to the address, paying the
// fee to the miner, and adds it to the pool.
func (w *Wallet) Send(to string, amount int64, fee int64) (database.AccountTransaction, error) {
	chain, pool := w.state.Snapshot()

	info := operator.TransferInfo{
		From:   w.keypair.Address,
		To:     to,
		Amount: amount,
		Fee:    fee,
	}

	tx, err := w.state.Operator().CreateTransaction(info, w.keypair.Private, chain, pool)
	if err != nil {
		return database.AccountTransaction{}, fmt.Errorf("creating transaction: %w", err)
	}

	if err := w.state.AddTransaction(tx); err != nil {
		return database.AccountTransaction{}, err
	}

	return tx, nil
}
