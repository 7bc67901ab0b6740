// Package disk implements the ability to save and load the chain as a
// single JSON file on disk.
package disk

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/database"
)

// Disk represents the storage implementation for keeping the chain in a
// JSON file holding an array of blocks. This implements the storage.Storage
// interface.
type Disk struct {
	mu     sync.Mutex
	dbPath string
}

// New constructs a Disk value for use. The directory for the file is
// created if it doesn't exist.
func New(dbPath string) (*Disk, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, err
	}

	return &Disk{dbPath: dbPath}, nil
}

// Close in this implementation has nothing to do since the file is
// written and closed on every save.
func (d *Disk) Close() error {
	return nil
}

// SaveChain replaces the chain on disk. The chain is written to a temporary
// file that is then renamed over the old one, so a crash never leaves a
// partial file behind.
func (d *Disk) SaveChain(chain []database.Block) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if chain == nil {
		chain = []database.Block{}
	}

	// Marshal the chain for writing to disk in a more human readable format.
	data, err := json.MarshalIndent(chain, "", "  ")
	if err != nil {
		return err
	}

	f, err := os.CreateTemp(filepath.Dir(d.dbPath), filepath.Base(d.dbPath)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}

	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, d.dbPath); err != nil {
		os.Remove(tmp)
		return err
	}

	return nil
}

// LoadChain reads the chain from disk. A missing file is an empty chain.
func (d *Disk) LoadChain() ([]database.Block, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	data, err := os.ReadFile(d.dbPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []database.Block{}, nil
		}
		return nil, err
	}

	chain, err := database.DeserializeChain(data)
	if err != nil {
		return nil, fmt.Errorf("corrupt chain file %s: %w", d.dbPath, err)
	}

	return chain, nil
}
