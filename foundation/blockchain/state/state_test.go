package state_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/database"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/mempool"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/operator"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/pow"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/signature"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/state"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/storage/memory"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.t = c.t.Add(time.Second)
	return c.t
}

type node struct {
	op      *operator.Operator
	strg    *memory.Memory
	st      *state.State
	changes chan state.ChangeEvent
	miner   signature.Keypair
	alice   signature.Keypair
}

func newNode(t *testing.T, op *operator.Operator, seed ...database.Block) *node {
	t.Helper()

	strg := memory.New(seed...)

	st, err := state.New(state.Config{
		Operator: op,
		Storage:  strg,
	})
	require.NoError(t, err)

	changes := make(chan state.ChangeEvent, 100)
	sub := st.SubscribeChanges(changes)
	t.Cleanup(func() {
		sub.Unsubscribe()
		st.Shutdown()
	})

	return &node{
		op:      op,
		strg:    strg,
		st:      st,
		changes: changes,
		miner:   keypair(t),
		alice:   keypair(t),
	}
}

func newOperator(t *testing.T) *operator.Operator {
	t.Helper()

	clk := clock{t: time.UnixMilli(1700000000000)}

	op, err := operator.New(operator.Config{
		Scheme:      signature.Secp256k1{},
		BlockReward: 100,
		Complexity:  4,
		Now:         clk.Now,
	})
	require.NoError(t, err)

	return op
}

func keypair(t *testing.T) signature.Keypair {
	t.Helper()

	kp, err := signature.GenerateKeypair(signature.Secp256k1{})
	require.NoError(t, err)

	return kp
}

// mine seals a block on top of the chain with the pool embedded.
func mine(t *testing.T, op *operator.Operator, miner signature.Keypair, chain []database.Block, pool []database.AccountTransaction) database.Block {
	t.Helper()

	tmpl, err := op.CreateBlockTemplate(miner, chain, pool)
	require.NoError(t, err)

	blk, err := pow.Mine(context.Background(), tmpl, op.Complexity(), func(v string, args ...any) {})
	require.NoError(t, err)

	return blk
}

func (n *node) transfer(t *testing.T, amount int64, fee int64) database.AccountTransaction {
	t.Helper()

	chain, pool := n.st.Snapshot()
	info := operator.TransferInfo{From: n.miner.Address, To: n.alice.Address, Amount: amount, Fee: fee}

	tx, err := n.op.CreateTransaction(info, n.miner.Private, chain, pool)
	require.NoError(t, err)

	return tx
}

// extend mines the current pool and submits the block to the node.
func (n *node) extend(t *testing.T) database.Block {
	t.Helper()

	chain, pool := n.st.Snapshot()
	blk := mine(t, n.op, n.miner, chain, pool)
	require.NoError(t, n.st.SubmitBlocks([]database.Block{blk}))

	return blk
}

func drain(ch chan state.ChangeEvent) int {
	var n int
	for {
		select {
		case <-ch:
			n++
		default:
			return n
		}
	}
}

// =============================================================================

func Test_Load(t *testing.T) {
	op := newOperator(t)
	miner := keypair(t)

	g := mine(t, op, miner, nil, nil)
	b1 := mine(t, op, miner, []database.Block{g}, nil)
	b2 := mine(t, op, miner, []database.Block{g, b1}, nil)
	b2.Header.Hash = b1.Header.Hash

	n := newNode(t, op, g, b1, b2)
	require.Equal(t, uint64(2), n.st.Height())

	tip, ok := n.st.LatestBlock()
	require.True(t, ok)
	require.Equal(t, b1.Header.Hash, tip.Header.Hash)

	empty := newNode(t, op)
	_, ok = empty.st.LatestBlock()
	require.False(t, ok)
	require.Zero(t, empty.st.Height())
}

func Test_AddTransaction(t *testing.T) {
	n := newNode(t, newOperator(t))
	n.extend(t)
	require.Equal(t, 1, drain(n.changes))

	tx := n.transfer(t, 40, 2)
	require.NoError(t, n.st.AddTransaction(tx))
	require.Len(t, n.st.Pool(), 1)
	require.Equal(t, 1, drain(n.changes))

	err := n.st.AddTransaction(tx)
	require.True(t, errors.Is(err, mempool.ErrDuplicate))

	bad := n.transfer(t, 1000, 0)
	err = n.st.AddTransaction(bad)
	require.True(t, operator.IsValidationError(err))
	require.Len(t, n.st.Pool(), 1)
	require.Zero(t, drain(n.changes))

	// Transactions in the pool chain off each other.
	require.NoError(t, n.st.AddTransaction(n.transfer(t, 10, 1)))
	require.Len(t, n.st.Pool(), 2)
}

func Test_SubmitBlocks(t *testing.T) {
	n := newNode(t, newOperator(t))
	n.extend(t)

	require.NoError(t, n.st.AddTransaction(n.transfer(t, 40, 2)))
	require.NoError(t, n.st.AddTransaction(n.transfer(t, 10, 1)))
	drain(n.changes)
	writes := n.strg.Writes()

	blk := n.extend(t)
	require.Len(t, blk.Payload.Txs, 2)
	require.Equal(t, uint64(2), n.st.Height())
	require.Empty(t, n.st.Pool())
	require.Equal(t, 1, drain(n.changes))
	require.Equal(t, writes+1, n.strg.Writes())

	chain, pool := n.st.Snapshot()
	require.Equal(t, int64(50), operator.Balance(n.alice.Address, chain, pool))
	require.Equal(t, int64(200-53+3), operator.Balance(n.miner.Address, chain, pool))

	stored, err := n.strg.LoadChain()
	require.NoError(t, err)
	require.Len(t, stored, 2)
}

func Test_Idempotence(t *testing.T) {
	n := newNode(t, newOperator(t))
	n.extend(t)
	n.extend(t)
	drain(n.changes)

	chain := n.st.Chain()
	writes := n.strg.Writes()

	n.st.SetChainState(chain)
	n.st.SetChainState(chain)
	require.Zero(t, drain(n.changes))
	require.Equal(t, writes, n.strg.Writes())

	// Resubmitting blocks already in the chain changes nothing either.
	require.NoError(t, n.st.SubmitBlocks(chain[1:]))
	require.Zero(t, drain(n.changes))
	require.Equal(t, writes, n.strg.Writes())
}

func Test_MissingRange(t *testing.T) {
	op := newOperator(t)
	n := newNode(t, op)
	n.extend(t)

	other := newNode(t, op)
	other.extend(t)
	other.extend(t)
	other.extend(t)

	err := n.st.SubmitBlocks(other.st.Blocks(2, 3))
	require.True(t, operator.IsMissingRange(err))

	mr := operator.GetMissingRange(err)
	require.Equal(t, uint64(1), mr.Start)
	require.Equal(t, uint64(2), mr.End)

	// Filling the gap from the other node's chain replaces ours.
	require.NoError(t, n.st.SubmitBlocks(other.st.Blocks(0, 3)))
	require.Equal(t, uint64(3), n.st.Height())

	// A range the local chain already holds is a no-op.
	require.NoError(t, n.st.SubmitBlocks(n.st.Blocks(0, 1)))
	require.Equal(t, uint64(3), n.st.Height())

	// A valid but shorter range is refused.
	fork := newNode(t, op)
	fork.extend(t)
	err = n.st.SubmitBlocks(fork.st.Blocks(0, 1))
	require.True(t, errors.Is(err, state.ErrShorterChain))
	require.Equal(t, uint64(3), n.st.Height())
}

func Test_Fork(t *testing.T) {
	op := newOperator(t)
	m1 := keypair(t)
	m2 := keypair(t)
	alice := keypair(t)
	bob := keypair(t)

	g := mine(t, op, m1, nil, nil)
	n := newNode(t, op, g)
	other := newNode(t, op, g)

	// Local branch: block 1 commits a transfer from m1.
	orphan := transfer(t, op, m1, alice.Address, 5, 0, n.st.Chain(), nil)
	require.NoError(t, n.st.AddTransaction(orphan))

	chain, pool := n.st.Snapshot()
	require.NoError(t, n.st.SubmitBlocks([]database.Block{mine(t, op, m2, chain, pool)}))
	require.Empty(t, n.st.Pool())

	// Other branch: block 1 is empty but pays m2 the same reward.
	require.NoError(t, other.st.SubmitBlocks([]database.Block{mine(t, op, m2, other.st.Chain(), nil)}))

	// A transfer from m2 to a fresh account is valid on both branches and
	// pending on both.
	shared := transfer(t, op, m2, bob.Address, 7, 1, n.st.Chain(), nil)
	require.NoError(t, n.st.AddTransaction(shared))
	require.NoError(t, other.st.AddTransaction(shared))

	// The other branch commits it and grows past the local chain.
	for range 2 {
		chain, pool := other.st.Snapshot()
		require.NoError(t, other.st.SubmitBlocks([]database.Block{mine(t, op, m1, chain, pool)}))
	}

	before := n.st.Chain()
	drain(n.changes)

	require.NoError(t, n.st.SubmitBlocks(other.st.Blocks(1, 4)))
	require.Equal(t, 1, drain(n.changes))

	after := n.st.Chain()
	require.Len(t, after, 4)
	require.Equal(t, before[0].Header.Hash, after[0].Header.Hash)
	require.NotEqual(t, before[1].Header.Hash, after[1].Header.Hash)

	// The committed transfer left the pool and the orphaned one is not put
	// back.
	require.Empty(t, n.st.Pool())

	require.Equal(t, int64(7), operator.Balance(bob.Address, after, nil))
	require.Zero(t, operator.Balance(alice.Address, after, nil))
	require.Equal(t, int64(301), operator.Balance(m1.Address, after, nil))
}

func Test_ForkInvalidatesPool(t *testing.T) {
	op := newOperator(t)
	m1 := keypair(t)
	m2 := keypair(t)
	alice := keypair(t)
	bob := keypair(t)

	g := mine(t, op, m1, nil, nil)
	n := newNode(t, op, g)
	other := newNode(t, op, g)

	// Locally m1 has a pending spend.
	pending := transfer(t, op, m1, alice.Address, 5, 0, n.st.Chain(), nil)
	require.NoError(t, n.st.AddTransaction(pending))
	require.Equal(t, 1, n.st.PoolCount())

	// The other branch commits a different spend with the same op nonce.
	spent := transfer(t, op, m1, bob.Address, 10, 0, other.st.Chain(), nil)
	require.NoError(t, other.st.AddTransaction(spent))
	for range 2 {
		chain, pool := other.st.Snapshot()
		require.NoError(t, other.st.SubmitBlocks([]database.Block{mine(t, op, m2, chain, pool)}))
	}

	require.NoError(t, n.st.SubmitBlocks(other.st.Blocks(1, 3)))
	require.Equal(t, uint64(3), n.st.Height())

	// The pending spend no longer follows m1's history and is dropped.
	require.Zero(t, n.st.PoolCount())
	require.Empty(t, n.st.Pool())

	// The pool is usable again against the new chain.
	next := transfer(t, op, m1, alice.Address, 5, 0, n.st.Chain(), nil)
	require.NoError(t, n.st.AddTransaction(next))
	require.Equal(t, 1, n.st.PoolCount())
}

func transfer(t *testing.T, op *operator.Operator, from signature.Keypair, to string, amount int64, fee int64, chain []database.Block, pool []database.AccountTransaction) database.AccountTransaction {
	t.Helper()

	info := operator.TransferInfo{From: from.Address, To: to, Amount: amount, Fee: fee}

	tx, err := op.CreateTransaction(info, from.Private, chain, pool)
	require.NoError(t, err)

	return tx
}
