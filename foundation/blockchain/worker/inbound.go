package worker

import (
	"errors"

	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/database"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/mempool"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/message"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/operator"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/peer"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/state"
)

// inboundOperations handles the messages received from peers one at a time.
func (w *Worker) inboundOperations() {
	w.evHandler("worker: inboundOperations: G started")
	defer w.evHandler("worker: inboundOperations: G completed")

	for {
		select {
		case env := <-w.inbound:
			if !w.isShutdown() {
				w.dispatch(env.from, env.payload)
			}
		case <-w.shut:
			w.evHandler("worker: inboundOperations: received shut signal")
			return
		}
	}
}

// dispatch decodes a message and routes it by tag. Malformed messages are
// logged and dropped.
func (w *Worker) dispatch(from peer.Peer, payload []byte) {
	env, err := message.Decode(payload)
	if err != nil {
		w.evHandler("worker: dispatch: %s: malformed message: %s", from.Host, err)
		return
	}

	w.evHandler("worker: dispatch: %s: tag[%s]", from.Host, env.Tag)

	switch env.Tag {
	case message.TagTransaction:
		tx, err := env.Transaction()
		if err != nil {
			w.evHandler("worker: dispatch: %s: malformed transaction: %s", from.Host, err)
			return
		}
		w.handleTransaction(tx)

	case message.TagBlocks:
		blocks, err := env.Blocks()
		if err != nil {
			w.evHandler("worker: dispatch: %s: malformed blocks: %s", from.Host, err)
			return
		}
		w.handleBlocks(from, blocks)

	case message.TagRequestBlocks:
		r, err := env.RequestBlocks()
		if err != nil {
			w.evHandler("worker: dispatch: %s: malformed block request: %s", from.Host, err)
			return
		}
		w.handleRequestBlocks(from, r)

	case message.TagStatus:
		st, err := env.Status()
		if err != nil {
			w.evHandler("worker: dispatch: %s: malformed status: %s", from.Host, err)
			return
		}
		w.handleStatus(from, st)
	}
}

// handleTransaction adds a peer transaction to the pool and passes it on
// when it is new to this node.
func (w *Worker) handleTransaction(tx database.AccountTransaction) {
	err := w.state.AddTransaction(tx)
	switch {
	case err == nil:
		w.SignalShareTx(tx)

	case errors.Is(err, mempool.ErrDuplicate):

	default:
		w.evHandler("worker: handleTransaction: tx[%s]: %s", tx, err)
	}
}

// handleBlocks submits a peer block range. Gaps are closed by asking the
// sender for the blocks in between, and a range that forks off somewhere
// this node can't see is re-requested from the genesis block.
func (w *Worker) handleBlocks(from peer.Peer, blocks []database.Block) {
	first := blocks[0].Payload.Index
	last := blocks[len(blocks)-1].Payload.Index

	before, _ := w.state.LatestBlock()

	err := w.state.SubmitBlocks(blocks)
	switch {
	case err == nil:
		after, _ := w.state.LatestBlock()
		if after.Header.Hash != before.Header.Hash {
			w.broadcastBlocks(blocks)
		}

	case operator.IsMissingRange(err):
		mr := operator.GetMissingRange(err)
		w.requestBlocks(from, mr.Start, last+1)

	case isContinuity(err) && first > 0:
		w.requestBlocks(from, 0, last+1)

	case errors.Is(err, state.ErrShorterChain):

	default:
		w.evHandler("worker: handleBlocks: %s: range[%d:%d]: %s", from.Host, first, last+1, err)
	}
}

// handleRequestBlocks replies with the requested blocks this node holds.
func (w *Worker) handleRequestBlocks(from peer.Peer, r message.BlockRange) {
	end := r.End
	if end > r.Start+maxBlocksPerMessage {
		end = r.Start + maxBlocksPerMessage
	}

	blocks := w.state.Blocks(r.Start, end)
	if len(blocks) == 0 {
		return
	}

	msg, err := message.EncodeBlocks(blocks)
	if err != nil {
		w.evHandler("worker: handleRequestBlocks: ERROR: %s", err)
		return
	}

	if err := w.transport.Send(w.ctx, from, msg); err != nil {
		w.evHandler("worker: handleRequestBlocks: %s: ERROR: %s", from.Host, err)
	}
}

// handleStatus records the peer and asks for its blocks when its chain is
// longer.
func (w *Worker) handleStatus(from peer.Peer, st message.Status) {
	pr := from
	if st.Host != "" {
		pr = peer.New(st.Host)
	}
	w.addPeer(pr)

	if height := w.state.Height(); st.Height > height {
		w.requestBlocks(pr, height, st.Height)
	}
}

func isContinuity(err error) bool {
	ve := operator.GetValidationError(err)
	return ve != nil && ve.Rule == operator.RuleContinuity
}
