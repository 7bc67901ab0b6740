package cmd

import (
	"fmt"
	"net/http"
	neturl "net/url"

	"github.com/spf13/cobra"
)

type accountInfo struct {
	Address    string `json:"address"`
	Name       string `json:"name"`
	Balance    int64  `json:"balance"`
	OpNonce    uint64 `json:"op_nonce"`
	Operations int    `json:"operations"`
}

type accountList struct {
	LatestBlock string        `json:"latest_block"`
	Height      uint64        `json:"height"`
	Uncommitted int           `json:"uncommitted"`
	Accounts    []accountInfo `json:"accounts"`
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print your balance.",
	RunE:  balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func balanceRun(cmd *cobra.Command, args []string) error {
	_, kp, err := loadKeypair()
	if err != nil {
		return err
	}

	fmt.Println("For Account:", kp.Address)

	var list accountList
	err = send(http.MethodGet, fmt.Sprintf("%s/v1/accounts/list/%s", url, neturl.PathEscape(kp.Address)), nil, &list)
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			fmt.Println(0)
			return nil
		}
		return err
	}

	if len(list.Accounts) > 0 {
		fmt.Println(list.Accounts[0].Balance)
	}

	return nil
}
