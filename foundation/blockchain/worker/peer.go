package worker

import (
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/peer"
)

// peerOperations periodically announces this node to its peers.
func (w *Worker) peerOperations() {
	w.evHandler("worker: peerOperations: G started")
	defer w.evHandler("worker: peerOperations: G completed")

	for {
		select {
		case <-w.ticker.C:
			if !w.isShutdown() {
				w.runPeersOperation()
			}
		case <-w.shut:
			w.evHandler("worker: peerOperations: received shut signal")
			return
		}
	}
}

// runPeersOperation sends this node's status to the known peers. Peers
// with a longer chain answer by being asked for their blocks when their
// own status arrives.
func (w *Worker) runPeersOperation() {
	w.evHandler("worker: runPeersOperation: started")
	defer w.evHandler("worker: runPeersOperation: completed")

	w.broadcastStatus()
}

// addPeer makes sure the peer is included in the node's list of known
// peers.
func (w *Worker) addPeer(pr peer.Peer) {

	// Don't add this running node to the known peer list.
	if pr.Host == "" || pr.Match(w.host) {
		return
	}

	if w.peers.Add(pr) {
		w.evHandler("worker: addPeer: adding peer-node %s", pr)
	}
}
