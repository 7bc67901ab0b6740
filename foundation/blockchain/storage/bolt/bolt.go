// Package bolt implements the ability to save and load the chain in a bolt
// key/value database, one key per block.
package bolt

import (
	"encoding/binary"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/database"
)

var blocksBucket = []byte("blocks")

// Bolt represents the storage implementation for keeping the chain in a
// bolt database. Blocks are keyed by their big endian index so a cursor
// walks them in chain order. This implements the storage.Storage interface.
type Bolt struct {
	db *bolt.DB
}

// New opens, or creates, the bolt database at the specified path.
func New(dbPath string) (*Bolt, error) {
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bolt db %s: %w", dbPath, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(blocksBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Bolt{db: db}, nil
}

// Close releases the database file.
func (b *Bolt) Close() error {
	return b.db.Close()
}

// SaveChain replaces the stored chain in a single transaction. Blocks whose
// stored bytes are unchanged are left alone.
func (b *Bolt) SaveChain(chain []database.Block) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(blocksBucket)

		for i, block := range chain {
			data, err := block.Serialize()
			if err != nil {
				return err
			}

			key := indexKey(uint64(i))
			if string(bucket.Get(key)) == string(data) {
				continue
			}

			if err := bucket.Put(key, data); err != nil {
				return err
			}
		}

		// Drop anything past the new tip. Keys are collected first since
		// deleting under a live cursor skips entries.
		var stale [][]byte
		c := bucket.Cursor()
		for k, _ := c.Seek(indexKey(uint64(len(chain)))); k != nil; k, _ = c.Next() {
			stale = append(stale, append([]byte(nil), k...))
		}

		for _, k := range stale {
			if err := bucket.Delete(k); err != nil {
				return err
			}
		}

		return nil
	})
}

// LoadChain reads every block in index order.
func (b *Bolt) LoadChain() ([]database.Block, error) {
	chain := []database.Block{}

	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(blocksBucket).ForEach(func(k, v []byte) error {
			block, err := database.DeserializeBlock(v)
			if err != nil {
				return fmt.Errorf("corrupt block at key %x: %w", k, err)
			}

			if block.Payload.Index != uint64(len(chain)) {
				return fmt.Errorf("block out of order, got %d, exp %d", block.Payload.Index, len(chain))
			}

			chain = append(chain, block)
			return nil
		})
	})

	if err != nil {
		return nil, err
	}

	return chain, nil
}

func indexKey(index uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, index)
	return key
}
