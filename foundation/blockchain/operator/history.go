package operator

import (
	"iter"

	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/database"
)

// History walks every account operation from the most recent to the
// oldest. The pool is more recent than the chain and both are walked from
// their tails. Within a block the coinbase comes before the block's
// transactions since it accounts for their fees.
func History(chain []database.Block, pool []database.AccountTransaction) iter.Seq[database.AccountOperation] {
	return func(yield func(database.AccountOperation) bool) {
		if !walkTxs(pool, yield) {
			return
		}

		for i := len(chain) - 1; i >= 0; i-- {
			if !yield(chain[i].Payload.Coinbase.Payload.To) {
				return
			}

			if !walkTxs(chain[i].Payload.Txs, yield) {
				return
			}
		}
	}
}

func walkTxs(txs []database.AccountTransaction, yield func(database.AccountOperation) bool) bool {
	for i := len(txs) - 1; i >= 0; i-- {
		if !yield(txs[i].Payload.From) {
			return false
		}
		if !yield(txs[i].Payload.To) {
			return false
		}
	}

	return true
}

// LatestOperation returns the most recent operation recorded against the
// address, searching the pool before the chain.
func LatestOperation(address string, chain []database.Block, pool []database.AccountTransaction) (database.AccountOperation, bool) {
	for op := range History(chain, pool) {
		if op.Address == address {
			return op, true
		}
	}

	return database.AccountOperation{}, false
}

// Balance returns the current balance of the address. An address with no
// history has a balance of zero.
func Balance(address string, chain []database.Block, pool []database.AccountTransaction) int64 {
	op, ok := LatestOperation(address, chain, pool)
	if !ok {
		return 0
	}

	return op.UpdatedBalance
}
