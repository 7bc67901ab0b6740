// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/luismeyer95/blockchain-sim-sub000/app/services/node/handlers/v1/private"
	"github.com/luismeyer95/blockchain-sim-sub000/app/services/node/handlers/v1/public"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/genesis"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/peer"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/state"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/transport"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/wallet"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/events"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/nameservice"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/web"
)

const version = "v1"

// Sharer passes accepted transactions on to the network.
type Sharer = public.Sharer

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log       *zap.SugaredLogger
	Genesis   genesis.Genesis
	State     *state.State
	Wallet    *wallet.Wallet
	Sharer    Sharer
	Transport *transport.HTTP
	Peers     *peer.PeerSet
	NS        *nameservice.NameService
	Evts      *events.Events
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:    cfg.Log,
		Gen:    cfg.Genesis,
		State:  cfg.State,
		Wallet: cfg.Wallet,
		Sharer: cfg.Sharer,
		NS:     cfg.NS,
		WS:     websocket.Upgrader{},
		Evts:   cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/events", pbl.Events)
	app.Handle(http.MethodGet, version, "/genesis", pbl.Genesis)
	app.Handle(http.MethodGet, version, "/accounts/list", pbl.Accounts)
	app.Handle(http.MethodGet, version, "/accounts/list/:address", pbl.Accounts)
	app.Handle(http.MethodGet, version, "/blocks/list", pbl.Blocks)
	app.Handle(http.MethodGet, version, "/blocks/list/:from/:to", pbl.Blocks)
	app.Handle(http.MethodGet, version, "/tx/uncommitted/list", pbl.Mempool)
	app.Handle(http.MethodPost, version, "/tx/submit", pbl.SubmitTransaction)
	app.Handle(http.MethodPost, version, "/tx/send", pbl.SendTransaction)
}

// PrivateRoutes binds all the version 1 private routes.
func PrivateRoutes(app *web.App, cfg Config) {
	prv := private.Handlers{
		Log:       cfg.Log,
		State:     cfg.State,
		Transport: cfg.Transport,
		Peers:     cfg.Peers,
	}

	app.Handle(http.MethodGet, version, "/node/status", prv.Status)
	app.Handle(http.MethodPost, version, "/node/message", prv.Message)
}
