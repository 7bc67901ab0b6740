// This program is the wallet for the ledger nodes.
package main

import "github.com/luismeyer95/blockchain-sim-sub000/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
