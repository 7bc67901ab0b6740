// Package storage defines the contract for persisting the chain. The chain
// is always saved and loaded as a whole.
package storage

import "github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/database"

// Storage persists the chain.
type Storage interface {
	SaveChain(chain []database.Block) error
	LoadChain() ([]database.Block, error)
	Close() error
}

// Load reads the chain from storage on a best effort basis. Absent or
// corrupt storage yields an empty chain and the problem is reported to the
// event handler.
func Load(strg Storage, evHandler func(v string, args ...any)) []database.Block {
	chain, err := strg.LoadChain()
	if err != nil {
		evHandler("storage: Load: WARNING: starting with an empty chain: %s", err)
		return []database.Block{}
	}

	if chain == nil {
		return []database.Block{}
	}

	return chain
}
