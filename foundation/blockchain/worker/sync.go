package worker

import (
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/message"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/peer"
)

// maxBlocksPerMessage caps the number of blocks requested or sent in a
// single message. Longer gaps are closed over several round trips.
const maxBlocksPerMessage = 100

// Sync announces this node to its peers and asks them for the blocks that
// follow the local tip.
func (w *Worker) Sync() {
	w.evHandler("worker: sync: started")
	defer w.evHandler("worker: sync: completed")

	w.broadcastStatus()

	height := w.state.Height()
	msg, err := message.EncodeRequestBlocks(message.BlockRange{
		Start: height,
		End:   height + maxBlocksPerMessage,
	})
	if err != nil {
		w.evHandler("worker: sync: ERROR: %s", err)
		return
	}

	w.transport.Broadcast(w.ctx, msg)
}

// requestBlocks asks the peer for the blocks with an index in [start, end).
func (w *Worker) requestBlocks(pr peer.Peer, start uint64, end uint64) {
	if end > start+maxBlocksPerMessage {
		end = start + maxBlocksPerMessage
	}

	w.evHandler("worker: requestBlocks: %s: range[%d:%d]", pr.Host, start, end)

	msg, err := message.EncodeRequestBlocks(message.BlockRange{Start: start, End: end})
	if err != nil {
		w.evHandler("worker: requestBlocks: ERROR: %s", err)
		return
	}

	if err := w.transport.Send(w.ctx, pr, msg); err != nil {
		w.evHandler("worker: requestBlocks: %s: ERROR: %s", pr.Host, err)
	}
}

// status describes the local chain.
func (w *Worker) status() message.Status {
	st := message.Status{
		Host:   w.host,
		Height: w.state.Height(),
	}

	if latest, ok := w.state.LatestBlock(); ok {
		st.LatestHash = latest.Header.Hash
	}

	return st
}

// broadcastStatus tells every known peer about the local chain.
func (w *Worker) broadcastStatus() {
	msg, err := message.EncodeStatus(w.status())
	if err != nil {
		w.evHandler("worker: broadcastStatus: ERROR: %s", err)
		return
	}

	w.transport.Broadcast(w.ctx, msg)
}
