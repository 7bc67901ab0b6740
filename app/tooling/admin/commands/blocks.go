package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/database"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/operator"
)

// Blocks writes a one line summary of every block.
func Blocks(w io.Writer, chain []database.Block) {
	for _, blk := range chain {
		fmt.Fprintf(w, "Block: %d  Hash: %s  Time: %s  Txs: %d  Fees: %d  Nonce: %d\n",
			blk.Payload.Index,
			blk.Header.Hash,
			time.UnixMilli(blk.Payload.Timestamp).UTC().Format(time.RFC3339),
			len(blk.Payload.Txs),
			blk.TotalFees(),
			blk.Payload.Nonce,
		)
	}
}

// Verify replays the chain through the operator and reports the first
// block that doesn't validate.
func Verify(w io.Writer, op *operator.Operator, chain []database.Block) error {
	valid, err := op.ValidPrefix(chain)
	if err != nil {
		return fmt.Errorf("block %d: %w", len(valid), err)
	}

	fmt.Fprintf(w, "chain verified: height[%d]\n", len(valid))
	return nil
}
