// Package handlers manages the different versions of the API.
package handlers

import (
	"context"
	"expvar"
	"net/http"
	"net/http/pprof"
	"os"

	"go.uber.org/zap"

	"github.com/luismeyer95/blockchain-sim-sub000/app/services/node/handlers/debug/checkgrp"
	v1 "github.com/luismeyer95/blockchain-sim-sub000/app/services/node/handlers/v1"
	"github.com/luismeyer95/blockchain-sim-sub000/business/web/mid"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/genesis"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/peer"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/state"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/transport"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/wallet"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/events"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/nameservice"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/web"
)

// MuxConfig contains all the mandatory systems required by handlers.
type MuxConfig struct {
	Shutdown  chan os.Signal
	Log       *zap.SugaredLogger
	Genesis   genesis.Genesis
	State     *state.State
	Wallet    *wallet.Wallet
	Sharer    v1.Sharer
	Transport *transport.HTTP
	Peers     *peer.PeerSet
	NS        *nameservice.NameService
	Evts      *events.Events
	CORS      []string
}

// PublicMux constructs a http.Handler with all application routes defined.
func PublicMux(cfg MuxConfig) http.Handler {

	// Construct the web.App which holds all routes as well as common Middleware.
	app := web.NewApp(
		cfg.Shutdown,
		mid.Logger(cfg.Log),
		mid.Errors(cfg.Log),
		mid.Metrics(),
		mid.Cors(cfg.CORS...),
		mid.Panics(),
	)

	// Answer CORS preflight requests for every route.
	h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return nil
	}
	app.Handle(http.MethodOptions, "", "/*", h, mid.Cors(cfg.CORS...))

	// Load the v1 routes.
	v1.PublicRoutes(app, v1.Config{
		Log:     cfg.Log,
		Genesis: cfg.Genesis,
		State:   cfg.State,
		Wallet:  cfg.Wallet,
		Sharer:  cfg.Sharer,
		NS:      cfg.NS,
		Evts:    cfg.Evts,
	})

	return app
}

// PrivateMux constructs a http.Handler with all application routes defined.
func PrivateMux(cfg MuxConfig) http.Handler {

	// Construct the web.App which holds all routes as well as common Middleware.
	app := web.NewApp(
		cfg.Shutdown,
		mid.Logger(cfg.Log),
		mid.Errors(cfg.Log),
		mid.Metrics(),
		mid.Panics(),
	)

	// Load the v1 routes.
	v1.PrivateRoutes(app, v1.Config{
		Log:       cfg.Log,
		State:     cfg.State,
		Transport: cfg.Transport,
		Peers:     cfg.Peers,
	})

	return app
}

// DebugStandardLibraryMux registers all the debug routes from the standard library
// into a new mux bypassing the use of the DefaultServerMux. Using the
// DefaultServerMux would be a security risk since a dependency could inject a
// handler into our service without us knowing it.
func DebugStandardLibraryMux() *http.ServeMux {
	mux := http.NewServeMux()

	// Register all the standard library debug endpoints.
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/debug/vars", expvar.Handler())

	return mux
}

// DebugMux registers all the debug standard library routes and then custom
// debug application routes for the service. This bypassing the use of the
// DefaultServerMux. Using the DefaultServerMux would be a security risk since
// a dependency could inject a handler into our service without us knowing it.
func DebugMux(build string, log *zap.SugaredLogger, st *state.State) http.Handler {
	mux := DebugStandardLibraryMux()

	// Register debug check endpoints.
	cgh := checkgrp.Handlers{
		Build: build,
		Log:   log,
		State: st,
	}
	mux.HandleFunc("/debug/readiness", cgh.Readiness)
	mux.HandleFunc("/debug/liveness", cgh.Liveness)

	return mux
}
