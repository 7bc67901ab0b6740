// This program performs administrative tasks against a node's block storage
// while the node is stopped.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ardanlabs/conf/v3"
	"go.uber.org/zap"

	"github.com/luismeyer95/blockchain-sim-sub000/app/tooling/admin/commands"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/genesis"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/operator"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/storage"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/storage/bolt"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/storage/disk"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/logger"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("ADMIN")
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
	cfg := struct {
		conf.Version
		Args        conf.Args
		GenesisPath string `conf:"default:zblock/genesis.json"`
		Storage     string `conf:"default:disk,help:disk|bolt"`
		DBPath      string `conf:"default:zblock/miner1/blocks.json"`
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "ledger storage administration",
		},
	}

	const prefix = "ADMIN"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	var strg storage.Storage
	switch cfg.Storage {
	case "disk":
		strg, err = disk.New(cfg.DBPath)
	case "bolt":
		strg, err = bolt.New(cfg.DBPath)
	default:
		err = fmt.Errorf("unknown storage %q", cfg.Storage)
	}
	if err != nil {
		return err
	}
	defer strg.Close()

	return processCommands(cfg.Args, cfg.GenesisPath, strg)
}

// processCommands handles the execution of the commands specified on
// the command line.
func processCommands(args conf.Args, genesisPath string, strg storage.Storage) error {
	chain, err := strg.LoadChain()
	if err != nil {
		return fmt.Errorf("loading chain: %w", err)
	}

	switch args.Num(0) {
	case "bals":
		if err := commands.Balances(os.Stdout, chain, args.Num(1)); err != nil {
			return fmt.Errorf("getting balances: %w", err)
		}

	case "blocks":
		commands.Blocks(os.Stdout, chain)

	case "verify":
		gen, err := genesis.Load(genesisPath)
		if err != nil {
			return err
		}

		scheme, err := gen.SignatureScheme()
		if err != nil {
			return err
		}

		op, err := operator.New(operator.Config{
			Scheme:      scheme,
			BlockReward: gen.BlockReward,
			Complexity:  gen.Complexity,
		})
		if err != nil {
			return err
		}

		return commands.Verify(os.Stdout, op, chain)

	default:
		return errors.New("usage: admin [bals [address] | blocks | verify]")
	}

	return nil
}
