// Package worker implements block propagation, peer updates, and transaction
// sharing for a node.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/database"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/miner"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/peer"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/state"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/transport"
)

// DefaultSyncInterval represents the interval of announcing this node to its
// peers and finding out about longer chains.
const DefaultSyncInterval = 10 * time.Second

// maxInbound represents the max number of received messages waiting to be
// processed. Messages received while the queue is full are dropped.
const maxInbound = 100

// Transport represents the behavior required to exchange messages with
// other nodes.
type Transport interface {
	Host() string
	OnReceive(fn transport.Receiver)
	Send(ctx context.Context, to peer.Peer, payload []byte) error
	Broadcast(ctx context.Context, payload []byte)
}

// Config represents the configuration required to start the worker. The
// miner is optional, a node without one only relays.
type Config struct {
	State        *state.State
	Miner        *miner.Miner
	Transport    Transport
	Peers        *peer.PeerSet
	SyncInterval time.Duration
	EvHandler    state.EventHandler
}

// =============================================================================

type envelope struct {
	from    peer.Peer
	payload []byte
}

// Worker manages the network workflows for the node.
type Worker struct {
	state     *state.State
	miner     *miner.Miner
	transport Transport
	peers     *peer.PeerSet
	host      string
	evHandler state.EventHandler

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	ticker    *time.Ticker
	shut      chan struct{}
	once      sync.Once
	inbound   chan envelope
	txSharing chan database.AccountTransaction
}

// Run creates a worker, registers it with the transport, and starts up all
// the background processes.
func Run(cfg Config) (*Worker, error) {
	if cfg.State == nil {
		return nil, errors.New("state is required")
	}

	if cfg.Transport == nil {
		return nil, errors.New("transport is required")
	}

	if cfg.Peers == nil {
		cfg.Peers = peer.NewPeerSet()
	}

	if cfg.SyncInterval == 0 {
		cfg.SyncInterval = DefaultSyncInterval
	}

	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())

	w := Worker{
		state:     cfg.State,
		miner:     cfg.Miner,
		transport: cfg.Transport,
		peers:     cfg.Peers,
		host:      cfg.Transport.Host(),
		evHandler: ev,
		ctx:       ctx,
		cancel:    cancel,
		ticker:    time.NewTicker(cfg.SyncInterval),
		shut:      make(chan struct{}),
		inbound:   make(chan envelope, maxInbound),
		txSharing: make(chan database.AccountTransaction, maxTxShareRequests),
	}

	// Register this worker with the transport.
	w.transport.OnReceive(w.receive)

	// Load the set of operations we need to run.
	operations := []func(){
		w.peerOperations,
		w.inboundOperations,
		w.shareTxOperations,
	}
	if w.miner != nil {
		operations = append(operations, w.miningOperations)
	}

	// Set waitgroup to match the number of G's we need for the set
	// of operations we have.
	g := len(operations)
	w.wg.Add(g)

	// We don't want to return until we know all the G's are up and running.
	hasStarted := make(chan bool)

	// Start all the operational G's.
	for _, op := range operations {
		go func(op func()) {
			defer w.wg.Done()
			hasStarted <- true
			op()
		}(op)
	}

	// Wait for the G's to report they are running.
	for range g {
		<-hasStarted
	}

	// Ask the network for anything this node is missing.
	w.Sync()

	return &w, nil
}

// Shutdown terminates the goroutines performing work.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.once.Do(func() {
		w.evHandler("worker: shutdown: stop ticker")
		w.ticker.Stop()

		w.evHandler("worker: shutdown: cancel outstanding sends")
		w.cancel()

		w.evHandler("worker: shutdown: terminate goroutines")
		close(w.shut)
		w.wg.Wait()
	})
}

// SignalShareTx signals a share transaction operation. If
// maxTxShareRequests signals exist in the channel, we won't send these.
func (w *Worker) SignalShareTx(tx database.AccountTransaction) {
	select {
	case w.txSharing <- tx:
		w.evHandler("worker: SignalShareTx: share Tx signaled")
	default:
		w.evHandler("worker: SignalShareTx: queue full, transactions won't be shared.")
	}
}

// =============================================================================

// receive queues a message delivered by the transport.
func (w *Worker) receive(from peer.Peer, payload []byte) {
	select {
	case w.inbound <- envelope{from: from, payload: payload}:
	default:
		w.evHandler("worker: receive: queue full, dropping message from %s", from.Host)
	}
}

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}
