package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/database"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/genesis"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/operator"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/nameservice"
)

var (
	to     string
	amount int64
	fee    int64
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send transaction",
	RunE:  sendRun,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Address or account name to send to.")
	sendCmd.MarkFlagRequired("to")
	sendCmd.Flags().Int64VarP(&amount, "amount", "v", 0, "Amount to send.")
	sendCmd.Flags().Int64VarP(&fee, "fee", "f", 0, "Fee paid to the miner.")
}

// sendRun builds the transaction locally from the node's chain and pool,
// signs it and submits it to the node.
func sendRun(cmd *cobra.Command, args []string) error {
	scheme, kp, err := loadKeypair()
	if err != nil {
		return err
	}

	var gen genesis.Genesis
	if err := send(http.MethodGet, url+"/v1/genesis", nil, &gen); err != nil {
		return fmt.Errorf("fetching genesis: %w", err)
	}

	if gen.Scheme != scheme.Name() {
		return fmt.Errorf("node signs with %s, wallet with %s", gen.Scheme, scheme.Name())
	}

	op, err := operator.New(operator.Config{
		Scheme:      scheme,
		BlockReward: gen.BlockReward,
		Complexity:  gen.Complexity,
	})
	if err != nil {
		return err
	}

	var chain []database.Block
	if err := send(http.MethodGet, url+"/v1/blocks/list", nil, &chain); err != nil {
		return fmt.Errorf("fetching chain: %w", err)
	}

	var pool []database.AccountTransaction
	if err := send(http.MethodGet, url+"/v1/tx/uncommitted/list", nil, &pool); err != nil {
		return fmt.Errorf("fetching pool: %w", err)
	}

	info := operator.TransferInfo{
		From:   kp.Address,
		To:     resolve(to),
		Amount: amount,
		Fee:    fee,
	}

	tx, err := op.CreateTransaction(info, kp.Private, chain, pool)
	if err != nil {
		return err
	}

	// Catch what the node would refuse before sending it.
	if err := op.ValidateTransaction(tx, chain, pool); err != nil {
		return err
	}

	data, err := tx.Serialize()
	if err != nil {
		return err
	}

	var resp struct {
		Status string `json:"status"`
	}
	if err := send(http.MethodPost, url+"/v1/tx/submit", data, &resp); err != nil {
		return err
	}

	fmt.Println(resp.Status)
	fmt.Println(tx.Header.Signature)

	return nil
}

// resolve turns an account name known to the local key folder into its
// address. Anything else is taken to be an address.
func resolve(name string) string {
	scheme, _, err := loadKeypair()
	if err != nil {
		return name
	}

	ns, err := nameservice.New(scheme, accountPath)
	if err != nil {
		return name
	}

	for address, n := range ns.Copy() {
		if n == name {
			return address
		}
	}

	return name
}
