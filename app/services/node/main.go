package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"go.uber.org/zap"

	"github.com/luismeyer95/blockchain-sim-sub000/app/services/node/handlers"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/genesis"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/miner"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/operator"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/peer"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/signature"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/state"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/storage"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/storage/bolt"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/storage/disk"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/storage/memory"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/transport"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/wallet"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/worker"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/events"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/logger"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/nameservice"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("NODE")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	// This is all the configuration for the application and the default values.
	// Configuration values will be passed through the application as individual
	// values.
	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:10s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
			PublicHost      string        `conf:"default:0.0.0.0:8080"`
			PrivateHost     string        `conf:"default:0.0.0.0:9080"`
			CORSOrigins     []string      `conf:"default:*"`
		}
		State struct {
			GenesisPath  string        `conf:"default:zblock/genesis.json"`
			Storage      string        `conf:"default:disk,help:disk|bolt|memory"`
			DBPath       string        `conf:"default:zblock/miner1/blocks.json"`
			MinerName    string        `conf:"default:miner1,help:empty runs a relay node"`
			KnownPeers   []string      `conf:"default:0.0.0.0:9080;0.0.0.0:9180"`
			SyncInterval time.Duration `conf:"default:10s"`
		}
		NameService struct {
			Folder string `conf:"default:zblock/accounts/"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "toy proof of work ledger node",
		},
	}

	// Parse will set the defaults and then look for any overriding values
	// in environment variables and command line flags.
	const prefix = "NODE"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	// Display the current configuration to the logs.
	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Genesis Support

	gen, err := genesis.Load(cfg.State.GenesisPath)
	if err != nil {
		return fmt.Errorf("unable to load genesis: %w", err)
	}

	scheme, err := gen.SignatureScheme()
	if err != nil {
		return err
	}

	interval, err := gen.Interval()
	if err != nil {
		return err
	}

	log.Infow("startup", "status", "genesis", "scheme", scheme.Name(), "reward", gen.BlockReward, "complexity", gen.Complexity)

	// =========================================================================
	// Name Service Support

	// The nameservice package provides name resolution for account addresses.
	// The names come from the file names in the accounts folder.
	if err := os.MkdirAll(cfg.NameService.Folder, 0755); err != nil {
		return fmt.Errorf("creating accounts folder: %w", err)
	}

	var kp signature.Keypair
	if cfg.State.MinerName != "" {
		path := filepath.Join(cfg.NameService.Folder, cfg.State.MinerName+signature.KeyExtension)
		if kp, err = loadOrCreateKey(scheme, path); err != nil {
			return fmt.Errorf("unable to load private key for node: %w", err)
		}
	}

	ns, err := nameservice.New(scheme, cfg.NameService.Folder)
	if err != nil {
		return fmt.Errorf("unable to load account name service: %w", err)
	}

	// Logging the accounts for documentation in the logs.
	for account, name := range ns.Copy() {
		log.Infow("startup", "status", "nameservice", "name", name, "account", account)
	}

	// =========================================================================
	// Blockchain Support

	// The blockchain packages accept a function of this signature to allow the
	// application to log. These raw messages are also sent to any websocket
	// client that is connected into the system through the events package.
	evts := events.New()
	ev := logger.NewEventHandler(log, "00000000-0000-0000-0000-000000000000", evts.Send)

	strg, err := openStorage(cfg.State.Storage, cfg.State.DBPath)
	if err != nil {
		return err
	}

	op, err := operator.New(operator.Config{
		Scheme:      scheme,
		BlockReward: gen.BlockReward,
		Complexity:  gen.Complexity,
		EvHandler:   ev,
	})
	if err != nil {
		return err
	}

	// The state value owns the chain and the pool of pending transactions.
	st, err := state.New(state.Config{
		Operator:  op,
		Storage:   strg,
		EvHandler: ev,
	})
	if err != nil {
		return err
	}
	defer st.Shutdown()

	// A peer set is a collection of known nodes in the network so transactions
	// and blocks can be shared.
	peerSet := peer.NewPeerSet()
	for _, host := range cfg.State.KnownPeers {
		peerSet.Add(peer.New(host))
	}

	tr, err := transport.New(transport.Config{
		Host:      cfg.Web.PrivateHost,
		Peers:     peerSet,
		EvHandler: ev,
	})
	if err != nil {
		return err
	}

	var mnr *miner.Miner
	var wlt *wallet.Wallet
	if cfg.State.MinerName != "" {
		mnr, err = miner.New(miner.Config{
			State:     st,
			Keypair:   kp,
			Interval:  interval,
			EvHandler: ev,
		})
		if err != nil {
			return err
		}
		wlt = wallet.New(st, kp)
	}

	// The worker package implements the network workflows such as block
	// propagation, transaction peer sharing, and peer updates.
	wrk, err := worker.Run(worker.Config{
		State:        st,
		Miner:        mnr,
		Transport:    tr,
		Peers:        peerSet,
		SyncInterval: cfg.State.SyncInterval,
		EvHandler:    ev,
	})
	if err != nil {
		return err
	}
	defer wrk.Shutdown()

	if mnr != nil {
		mnr.Run()
		defer mnr.Shutdown()
	}

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug v1 router started", "host", cfg.Web.DebugHost)

	// The Debug function returns a mux to listen and serve on for all the debug
	// related endpoints. This includes the standard library endpoints.

	// Construct the mux for the debug calls.
	debugMux := handlers.DebugMux(build, log, st)

	// Start the service listening for debug requests.
	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug v1 router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Service Start/Stop Support

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	muxCfg := handlers.MuxConfig{
		Shutdown:  shutdown,
		Log:       log,
		Genesis:   gen,
		State:     st,
		Wallet:    wlt,
		Sharer:    wrk,
		Transport: tr,
		Peers:     peerSet,
		NS:        ns,
		Evts:      evts,
		CORS:      cfg.Web.CORSOrigins,
	}

	// =========================================================================
	// Start Public Service

	log.Infow("startup", "status", "initializing V1 public API support")

	// Construct a server to service the requests against the mux.
	public := http.Server{
		Addr:         cfg.Web.PublicHost,
		Handler:      handlers.PublicMux(muxCfg),
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	// Start the service listening for api requests.
	go func() {
		log.Infow("startup", "status", "public api router started", "host", public.Addr)
		serverErrors <- public.ListenAndServe()
	}()

	// =========================================================================
	// Start Private Service

	log.Infow("startup", "status", "initializing V1 private API support")

	// Construct a server to service the requests against the mux.
	private := http.Server{
		Addr:         cfg.Web.PrivateHost,
		Handler:      handlers.PrivateMux(muxCfg),
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	// Start the service listening for api requests.
	go func() {
		log.Infow("startup", "status", "private api router started", "host", private.Addr)
		serverErrors <- private.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Release any web sockets that are currently active.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Shutdown()

		// Give outstanding requests a deadline for completion.
		ctx, cancelPri := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancelPri()

		// Asking listener to shut down and shed load.
		log.Infow("shutdown", "status", "shutdown private API started")
		if err := private.Shutdown(ctx); err != nil {
			private.Close()
			return fmt.Errorf("could not stop private service gracefully: %w", err)
		}

		// Give outstanding requests a deadline for completion.
		ctx, cancelPub := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancelPub()

		// Asking listener to shut down and shed load.
		log.Infow("shutdown", "status", "shutdown public API started")
		if err := public.Shutdown(ctx); err != nil {
			public.Close()
			return fmt.Errorf("could not stop public service gracefully: %w", err)
		}
	}

	return nil
}

// openStorage constructs the configured block storage.
func openStorage(kind string, path string) (storage.Storage, error) {
	switch kind {
	case "disk":
		return disk.New(path)
	case "bolt":
		return bolt.New(path)
	case "memory":
		return memory.New(), nil
	}

	return nil, fmt.Errorf("unknown storage %q", kind)
}

// loadOrCreateKey loads the node's private key, generating and saving one
// the first time the node runs.
func loadOrCreateKey(scheme signature.Scheme, path string) (signature.Keypair, error) {
	kp, err := signature.LoadKey(scheme, path)
	if err == nil {
		return kp, nil
	}

	if !errors.Is(err, fs.ErrNotExist) {
		return signature.Keypair{}, err
	}

	if kp, err = signature.GenerateKeypair(scheme); err != nil {
		return signature.Keypair{}, err
	}

	if err := signature.SaveKey(scheme, path, kp.Private); err != nil {
		return signature.Keypair{}, err
	}

	return kp, nil
}
