// Package commands contains the functionality for the set of commands
// currently supported by the admin tool.
package commands

import (
	"fmt"
	"io"

	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/accounts"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/database"
)

// Balances writes the balance of every account in the chain, or of the
// single address when one is specified.
func Balances(w io.Writer, chain []database.Block, onlyAct string) error {
	act, err := accounts.Replay(chain, nil)
	if err != nil {
		return err
	}

	if len(chain) > 0 {
		fmt.Fprintf(w, "LatestBlockHash: %s\n\n", chain[len(chain)-1].Header.Hash)
	}

	for _, info := range act.List() {
		if onlyAct != "" && onlyAct != info.Address {
			continue
		}
		fmt.Fprintf(w, "Account: %s  Balance: %d  OpNonce: %d\n", info.Address, info.Balance, info.OpNonce)
	}

	return nil
}
