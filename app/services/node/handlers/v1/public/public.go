// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/luismeyer95/blockchain-sim-sub000/business/web/errs"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/accounts"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/database"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/genesis"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/state"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/wallet"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/events"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/nameservice"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/validate"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/web"
)

// Sharer passes accepted transactions on to the network.
type Sharer interface {
	SignalShareTx(tx database.AccountTransaction)
}

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log    *zap.SugaredLogger
	Gen    genesis.Genesis
	State  *state.State
	Wallet *wallet.Wallet
	Sharer Sharer
	NS     *nameservice.NameService
	WS     websocket.Upgrader
	Evts   *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.Gen, http.StatusOK)
}

// Accounts returns the balances and operation counts for every account, or
// for the account in the path.
func (h Handlers) Accounts(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	chain, pool := h.State.Snapshot()

	act, err := accounts.Replay(chain, pool)
	if err != nil {
		h.Log.Warnw("accounts", "traceid", web.GetTraceID(ctx), "ERROR", err)
	}

	var infos []accounts.Info
	switch address := web.Param(r, "address"); address {
	case "":
		infos = act.List()

	default:
		info, exists := act.Query(address)
		if !exists {
			return errs.NewTrusted(errors.New("account has no operations"), http.StatusNotFound)
		}
		infos = []accounts.Info{info}
	}

	acts := make([]accountInfo, len(infos))
	for i, info := range infos {
		acts[i] = accountInfo{
			Address:    info.Address,
			Name:       h.NS.Lookup(info.Address),
			Balance:    info.Balance,
			OpNonce:    info.OpNonce,
			Operations: info.Operations,
		}
	}

	ai := accountList{
		Height:      uint64(len(chain)),
		Uncommitted: len(pool),
		Accounts:    acts,
	}
	if len(chain) > 0 {
		ai.LatestBlock = chain[len(chain)-1].Header.Hash
	}

	return web.Respond(ctx, w, ai, http.StatusOK)
}

// Blocks returns the blocks with an index in [from, to), the whole chain
// when no range is specified.
func (h Handlers) Blocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	from, to := uint64(0), h.State.Height()

	if s := web.Param(r, "from"); s != "" {
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
		from = n
	}

	if s := web.Param(r, "to"); s != "" && s != "latest" {
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
		to = n
	}

	return web.Respond(ctx, w, h.State.Blocks(from, to), http.StatusOK)
}

// Mempool returns the set of uncommitted transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.Pool(), http.StatusOK)
}

// SubmitTransaction adds a transaction signed by a wallet to the pool and
// shares it with the network.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	data, err := web.Body(r)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	tx, err := database.DeserializeTransaction(data)
	if err != nil {
		if validate.IsFieldErrors(err) {
			return err
		}
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Log.Infow("submit tran", "traceid", web.GetTraceID(ctx), "tx", tx)
	if err := h.State.AddTransaction(tx); err != nil {
		return err
	}

	h.share(tx)

	resp := submitted{
		Status:      "transaction added to pool",
		Transaction: tx,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SendTransaction builds, signs and submits a transfer from the node's own
// account.
func (h Handlers) SendTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if h.Wallet == nil {
		return errs.NewTrusted(errors.New("node has no account"), http.StatusNotFound)
	}

	var req sendRequest
	if err := web.Decode(r, &req); err != nil {
		if validate.IsFieldErrors(err) {
			return err
		}
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	tx, err := h.Wallet.Send(req.To, req.Amount, req.Fee)
	if err != nil {
		return err
	}

	h.share(tx)

	resp := submitted{
		Status:      "transaction added to pool",
		Transaction: tx,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

func (h Handlers) share(tx database.AccountTransaction) {
	if h.Sharer != nil {
		h.Sharer.SignalShareTx(tx)
	}
}
