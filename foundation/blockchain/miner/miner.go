// Package miner coordinates block discovery for one miner identity. It
// keeps a proof of work worker busy with a fresh block template and hands
// sealed blocks to the caller, who decides what to do with them.
package miner

import (
	"errors"
	"sync"
	"time"

	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/database"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/pow"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/signature"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/state"
)

// DefaultInterval is how often the template is rebuilt when nothing
// changes.
const DefaultInterval = time.Second

// Config represents the configuration required to construct a miner.
type Config struct {
	State     *state.State
	Keypair   signature.Keypair
	Interval  time.Duration
	EvHandler state.EventHandler
}

// Miner owns one pow worker. Every task it issues carries a new generation
// and results from any earlier generation are discarded.
type Miner struct {
	state     *state.State
	keypair   signature.Keypair
	interval  time.Duration
	evHandler state.EventHandler

	worker     *pow.Worker
	generation uint64
	mined      chan database.Block
	retemplate chan struct{}

	wg   sync.WaitGroup
	shut chan struct{}
	once sync.Once
}

// New constructs a miner. Mining starts with Run.
func New(cfg Config) (*Miner, error) {
	if cfg.State == nil {
		return nil, errors.New("state is required")
	}

	if cfg.Keypair.Private == nil {
		return nil, errors.New("miner keypair is required")
	}

	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	m := Miner{
		state:      cfg.State,
		keypair:    cfg.Keypair,
		interval:   interval,
		evHandler:  ev,
		worker:     pow.NewWorker(ev),
		mined:      make(chan database.Block, 1),
		retemplate: make(chan struct{}, 1),
		shut:       make(chan struct{}),
	}

	return &m, nil
}

// Mined returns the channel sealed blocks are delivered on. The blocks are
// not validated or applied by the miner.
func (m *Miner) Mined() <-chan database.Block {
	return m.mined
}

// Run starts the coordinator goroutines.
func (m *Miner) Run() {
	changes := make(chan state.ChangeEvent, 16)
	sub := m.state.SubscribeChanges(changes)

	m.wg.Add(2)

	go func() {
		defer m.wg.Done()
		defer sub.Unsubscribe()
		m.watchChanges(changes, sub.Err())
	}()

	go func() {
		defer m.wg.Done()
		m.coordinate()
	}()
}

// Shutdown stops the coordinator and the worker.
func (m *Miner) Shutdown() {
	m.evHandler("miner: shutdown: started")
	defer m.evHandler("miner: shutdown: completed")

	m.once.Do(func() {
		close(m.shut)
	})

	m.wg.Wait()
	m.worker.Shutdown()
}

// =============================================================================

// watchChanges drains change events as fast as they come and collapses
// them into a single pending retemplate signal. Draining here keeps the
// state from blocking on a coordinator that is busy handing off a block.
func (m *Miner) watchChanges(changes <-chan state.ChangeEvent, errs <-chan error) {
	m.evHandler("miner: watchChanges: G started")
	defer m.evHandler("miner: watchChanges: G completed")

	for {
		select {
		case <-changes:
			select {
			case m.retemplate <- struct{}{}:
			default:
			}

		case <-errs:
			return

		case <-m.shut:
			return
		}
	}
}

// coordinate keeps the worker on the latest template and forwards results
// for the current generation.
func (m *Miner) coordinate() {
	m.evHandler("miner: coordinate: G started")
	defer m.evHandler("miner: coordinate: G completed")

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.submitTemplate("start")

	for {
		select {
		case <-m.shut:
			return

		case <-ticker.C:
			m.submitTemplate("interval")

		case <-m.retemplate:
			m.submitTemplate("change")

		case res := <-m.worker.Results():
			if res.Generation != m.generation {
				m.evHandler("miner: coordinate: discarding stale result: gen[%d]: current[%d]", res.Generation, m.generation)
				continue
			}

			m.evHandler("miner: coordinate: mined: %s", res.Block)

			if !m.hold(res.Block) {
				return
			}

			select {
			case m.mined <- res.Block:
			case <-m.shut:
				return
			}
		}
	}
}

// submitTemplate builds a template from the current snapshot and makes it
// the worker's only task.
func (m *Miner) submitTemplate(reason string) {
	chain, pool := m.state.Snapshot()

	block, err := m.state.Operator().CreateBlockTemplate(m.keypair, chain, pool)
	if err != nil {
		m.evHandler("miner: submitTemplate: ERROR: %s", err)
		return
	}

	m.generation++
	m.evHandler("miner: submitTemplate: %s: gen[%d]: blk[%d]: txs[%d]", reason, m.generation, block.Payload.Index, len(block.Payload.Txs))

	m.worker.Submit(pow.Task{
		Generation: m.generation,
		Block:      block,
		Complexity: m.state.Operator().Complexity(),
	})
}

// hold waits until the block's timestamps are in the past so a block sealed
// in the millisecond it was templated is not refused. It reports false when
// the miner is shut down while waiting.
func (m *Miner) hold(block database.Block) bool {
	wait := m.state.Operator().SealDelay(block)
	if wait == 0 {
		return true
	}

	m.evHandler("miner: hold: blk[%d]: wait[%v]", block.Payload.Index, wait)

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-m.shut:
		return false
	}
}
