package worker

import (
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/database"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/message"
)

// miningOperations submits the blocks sealed by this node's miner.
func (w *Worker) miningOperations() {
	w.evHandler("worker: miningOperations: G started")
	defer w.evHandler("worker: miningOperations: G completed")

	for {
		select {
		case block := <-w.miner.Mined():
			if !w.isShutdown() {
				w.runMiningOperation(block)
			}
		case <-w.shut:
			w.evHandler("worker: miningOperations: received shut signal")
			return
		}
	}
}

// runMiningOperation applies a mined block and, when it becomes the new tip,
// broadcasts it. A block that lost a race with a peer block is dropped.
func (w *Worker) runMiningOperation(block database.Block) {
	w.evHandler("worker: runMiningOperation: MINING: started: %s", block)
	defer w.evHandler("worker: runMiningOperation: MINING: completed")

	if err := w.state.SubmitBlocks([]database.Block{block}); err != nil {
		w.evHandler("worker: runMiningOperation: MINING: block refused: %s", err)
		return
	}

	w.broadcastBlocks([]database.Block{block})
}

// broadcastBlocks sends a block range to every known peer.
func (w *Worker) broadcastBlocks(blocks []database.Block) {
	msg, err := message.EncodeBlocks(blocks)
	if err != nil {
		w.evHandler("worker: broadcastBlocks: ERROR: %s", err)
		return
	}

	w.transport.Broadcast(w.ctx, msg)
}
