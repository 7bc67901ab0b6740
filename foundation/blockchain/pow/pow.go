// Package pow implements the proof of work used to seal blocks. A digest
// satisfies a complexity when its leading complexity bits are zero, with
// only the first 32 bits of the digest taking part in the check.
package pow

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/database"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/signature"
)

// MaxComplexity is the largest complexity the predicate can express.
const MaxComplexity = 32

// batchSize is the number of attempts made between checks for
// cancellation or a replacement task.
const batchSize = 1024

// Satisfies reports whether the digest meets the complexity.
func Satisfies(digest [32]byte, complexity uint) bool {
	if complexity > MaxComplexity {
		return false
	}

	u32 := binary.BigEndian.Uint32(digest[:4])
	mask := ^uint32((uint64(1) << (MaxComplexity - complexity)) - 1)

	return u32&mask == 0
}

// Check reports whether the sha256 of the data meets the complexity.
func Check(data []byte, complexity uint) bool {
	return Satisfies(sha256.Sum256(data), complexity)
}

// Proof returns the digest of the data extended with the nonce.
func Proof(data []byte, nonce uint32) [32]byte {
	buf := make([]byte, len(data)+4)
	copy(buf, data)
	binary.BigEndian.PutUint32(buf[len(data):], nonce)

	return sha256.Sum256(buf)
}

// Solve finds a nonce that makes the proof of the data meet the complexity.
func Solve(ctx context.Context, data []byte, complexity uint) (uint32, error) {
	if complexity > MaxComplexity {
		return 0, fmt.Errorf("complexity %d is out of range", complexity)
	}

	var nonce uint32
	for {
		for range batchSize {
			if Satisfies(Proof(data, nonce), complexity) {
				return nonce, nil
			}
			nonce++
		}

		if err := ctx.Err(); err != nil {
			return 0, err
		}
	}
}

// CheckBlock reports whether the hash of the block payload meets the
// complexity and the header carries that hash.
func CheckBlock(block database.Block, complexity uint) (bool, error) {
	digest, err := block.Digest()
	if err != nil {
		return false, err
	}

	if !Satisfies(digest, complexity) {
		return false, nil
	}

	return signature.EncodeHash(digest) == block.Header.Hash, nil
}

// Mine searches for a nonce that seals the block template, starting from
// nonce 0. On success the block is returned with its nonce and hash set.
func Mine(ctx context.Context, block database.Block, complexity uint, evHandler func(v string, args ...any)) (database.Block, error) {
	evHandler("pow: Mine: MINING: started: blk[%d]", block.Payload.Index)
	defer evHandler("pow: Mine: MINING: completed: blk[%d]", block.Payload.Index)

	if complexity > MaxComplexity {
		return database.Block{}, fmt.Errorf("complexity %d is out of range", complexity)
	}

	s := newSearch(block, complexity)
	for {
		found, err := s.step(batchSize)
		if err != nil {
			return database.Block{}, err
		}

		if found {
			evHandler("pow: Mine: MINING: SOLVED: blk[%d]: nonce[%d]: attempts[%d]", block.Payload.Index, s.block.Payload.Nonce, s.attempts)
			return s.block, nil
		}

		if ctx.Err() != nil {
			evHandler("pow: Mine: MINING: CANCELLED: attempts[%d]", s.attempts)
			return database.Block{}, ctx.Err()
		}
	}
}

// =============================================================================

// search holds the progress of one nonce search over one block template.
type search struct {
	block      database.Block
	complexity uint
	nonce      uint32
	attempts   uint64
}

func newSearch(block database.Block, complexity uint) *search {
	block.Payload.Nonce = 0
	block.Header.Hash = ""

	return &search{
		block:      block,
		complexity: complexity,
	}
}

// step makes up to n attempts. When a solution is found the block carries
// the winning nonce and its hash.
func (s *search) step(n int) (bool, error) {
	for range n {
		s.attempts++
		s.block.Payload.Nonce = s.nonce

		digest, err := s.block.Digest()
		if err != nil {
			return false, err
		}

		if Satisfies(digest, s.complexity) {
			s.block.Header.Hash = signature.EncodeHash(digest)
			return true, nil
		}

		// The nonce is allowed to wrap.
		s.nonce++
	}

	return false, nil
}
