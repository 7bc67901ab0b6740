package worker_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/database"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/message"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/operator"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/peer"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/pow"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/signature"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/state"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/storage/memory"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/transport"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/worker"
)

const broadcast = "*"

type sent struct {
	to  string
	env message.Envelope
}

type fakeTransport struct {
	mu   sync.Mutex
	recv transport.Receiver
	sent chan sent
}

func (ft *fakeTransport) Host() string {
	return "node-a:9080"
}

func (ft *fakeTransport) OnReceive(fn transport.Receiver) {
	ft.mu.Lock()
	defer ft.mu.Unlock()

	ft.recv = fn
}

func (ft *fakeTransport) Send(ctx context.Context, to peer.Peer, payload []byte) error {
	return ft.record(to.Host, payload)
}

func (ft *fakeTransport) Broadcast(ctx context.Context, payload []byte) {
	ft.record(broadcast, payload)
}

func (ft *fakeTransport) record(to string, payload []byte) error {
	env, err := message.Decode(payload)
	if err != nil {
		return err
	}

	ft.sent <- sent{to: to, env: env}
	return nil
}

func (ft *fakeTransport) deliver(from string, payload []byte) {
	ft.mu.Lock()
	fn := ft.recv
	ft.mu.Unlock()

	fn(peer.New(from), payload)
}

// expect waits for a message with the tag, skipping anything else.
func (ft *fakeTransport) expect(t *testing.T, tag string) sent {
	t.Helper()

	timeout := time.After(5 * time.Second)
	for {
		select {
		case s := <-ft.sent:
			if s.env.Tag == tag {
				return s
			}
		case <-timeout:
			t.Fatalf("no %s message was sent", tag)
		}
	}
}

// =============================================================================

type harness struct {
	op    *operator.Operator
	st    *state.State
	ft    *fakeTransport
	peers *peer.PeerSet
	miner signature.Keypair
	chain []database.Block
}

func newHarness(t *testing.T, blocks int) *harness {
	t.Helper()

	now := time.UnixMilli(1700000000000)
	var mu sync.Mutex

	op, err := operator.New(operator.Config{
		Scheme:      signature.Secp256k1{},
		BlockReward: 100,
		Complexity:  4,
		Now: func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			now = now.Add(time.Second)
			return now
		},
	})
	require.NoError(t, err)

	miner, err := signature.GenerateKeypair(signature.Secp256k1{})
	require.NoError(t, err)

	h := harness{
		op:    op,
		miner: miner,
	}

	for range blocks {
		h.chain = append(h.chain, h.mine(t, nil))
	}

	return &h
}

// start runs a worker over a node seeded with the first n blocks.
func (h *harness) start(t *testing.T, n int) {
	t.Helper()

	st, err := state.New(state.Config{
		Operator: h.op,
		Storage:  memory.New(h.chain[:n]...),
	})
	require.NoError(t, err)

	h.st = st
	h.ft = &fakeTransport{sent: make(chan sent, 100)}
	h.peers = peer.NewPeerSet(peer.New("node-b:9080"))

	w, err := worker.Run(worker.Config{
		State:        st,
		Transport:    h.ft,
		Peers:        h.peers,
		SyncInterval: time.Hour,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		w.Shutdown()
		st.Shutdown()
	})

	h.ft.expect(t, message.TagStatus)
	h.ft.expect(t, message.TagRequestBlocks)
}

func (h *harness) mine(t *testing.T, pool []database.AccountTransaction) database.Block {
	t.Helper()

	tmpl, err := h.op.CreateBlockTemplate(h.miner, h.chain, pool)
	require.NoError(t, err)

	blk, err := pow.Mine(context.Background(), tmpl, h.op.Complexity(), func(v string, args ...any) {})
	require.NoError(t, err)

	return blk
}

func (h *harness) waitHeight(t *testing.T, height uint64) {
	t.Helper()

	require.Eventually(t, func() bool {
		return h.st.Height() == height
	}, 5*time.Second, 10*time.Millisecond)
}

// =============================================================================

func Test_Transaction(t *testing.T) {
	h := newHarness(t, 1)
	h.start(t, 1)

	to, err := signature.GenerateKeypair(signature.Secp256k1{})
	require.NoError(t, err)

	info := operator.TransferInfo{From: h.miner.Address, To: to.Address, Amount: 10, Fee: 1}
	tx, err := h.op.CreateTransaction(info, h.miner.Private, h.chain, nil)
	require.NoError(t, err)

	msg, err := message.EncodeTransaction(tx)
	require.NoError(t, err)

	h.ft.deliver("node-b:9080", msg)

	s := h.ft.expect(t, message.TagTransaction)
	require.Equal(t, broadcast, s.to, "a new transaction is passed on")

	shared, err := s.env.Transaction()
	require.NoError(t, err)
	require.Equal(t, tx.Header.Signature, shared.Header.Signature)
	require.Len(t, h.st.Pool(), 1)

	// A transaction seen before is not passed on again.
	h.ft.deliver("node-b:9080", msg)
	h.ft.deliver("node-b:9080", []byte(`{"tag":"nope"}`))

	select {
	case s := <-h.ft.sent:
		t.Fatalf("unexpected message: %s to %s", s.env.Tag, s.to)
	case <-time.After(100 * time.Millisecond):
	}
	require.Len(t, h.st.Pool(), 1)
}

func Test_Blocks(t *testing.T) {
	h := newHarness(t, 2)
	h.start(t, 1)

	msg, err := message.EncodeBlocks(h.chain[1:])
	require.NoError(t, err)

	h.ft.deliver("node-b:9080", msg)
	h.waitHeight(t, 2)

	s := h.ft.expect(t, message.TagBlocks)
	require.Equal(t, broadcast, s.to, "a new tip is passed on")
}

func Test_MissingRange(t *testing.T) {
	h := newHarness(t, 4)
	h.start(t, 1)

	msg, err := message.EncodeBlocks(h.chain[3:])
	require.NoError(t, err)

	h.ft.deliver("node-b:9080", msg)

	s := h.ft.expect(t, message.TagRequestBlocks)
	require.Equal(t, "node-b:9080", s.to, "the gap is requested from the sender")

	r, err := s.env.RequestBlocks()
	require.NoError(t, err)
	require.Equal(t, message.BlockRange{Start: 1, End: 4}, r)

	msg, err = message.EncodeBlocks(h.chain[1:])
	require.NoError(t, err)

	h.ft.deliver("node-b:9080", msg)
	h.waitHeight(t, 4)
}

func Test_RequestBlocks(t *testing.T) {
	h := newHarness(t, 3)
	h.start(t, 3)

	msg, err := message.EncodeRequestBlocks(message.BlockRange{Start: 1, End: 10})
	require.NoError(t, err)

	h.ft.deliver("node-b:9080", msg)

	s := h.ft.expect(t, message.TagBlocks)
	require.Equal(t, "node-b:9080", s.to, "the reply goes to the requester")

	blocks, err := s.env.Blocks()
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	require.Equal(t, h.chain[1].Header.Hash, blocks[0].Header.Hash)
	require.Equal(t, h.chain[2].Header.Hash, blocks[1].Header.Hash)
}

func Test_Status(t *testing.T) {
	h := newHarness(t, 1)
	h.start(t, 1)

	msg, err := message.EncodeStatus(message.Status{Host: "node-c:9080", Height: 5, LatestHash: "abc="})
	require.NoError(t, err)

	h.ft.deliver("node-c:9080", msg)

	s := h.ft.expect(t, message.TagRequestBlocks)
	require.Equal(t, "node-c:9080", s.to)

	r, err := s.env.RequestBlocks()
	require.NoError(t, err)
	require.Equal(t, message.BlockRange{Start: 1, End: 5}, r)

	hosts := h.peers.Copy("")
	require.Equal(t, []peer.Peer{peer.New("node-b:9080"), peer.New("node-c:9080")}, hosts)
}
