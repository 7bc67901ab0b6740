// Package memory implements the ability to save and load the chain in
// memory using a slice.
package memory

import (
	"sync"

	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/database"
)

// Memory represents the storage implementation for keeping the chain in
// memory. This implements the storage.Storage interface.
type Memory struct {
	mu     sync.RWMutex
	blocks []database.Block
	writes int
}

// New constructs a Memory value for use, optionally seeded with a chain.
func New(chain ...database.Block) *Memory {
	return &Memory{
		blocks: database.CopyChain(chain),
	}
}

// Close in this implementation has nothing to do since everything
// is in memory.
func (m *Memory) Close() error {
	return nil
}

// SaveChain replaces the stored chain.
func (m *Memory) SaveChain(chain []database.Block) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks = database.CopyChain(chain)
	m.writes++

	return nil
}

// LoadChain returns a copy of the stored chain.
func (m *Memory) LoadChain() ([]database.Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return database.CopyChain(m.blocks), nil
}

// Writes returns the number of times the chain has been saved.
func (m *Memory) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.writes
}
