package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/signature"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate new key pair",
	RunE:  generateRun,
}

func init() {
	rootCmd.AddCommand(generateCmd)
}

func generateRun(cmd *cobra.Command, args []string) error {
	scheme, err := signature.ByName(schemeName)
	if err != nil {
		return err
	}

	path := getPrivateKeyPath()
	if _, err := os.Stat(path); err == nil {
		return errors.New("key file already exists: " + path)
	}

	kp, err := signature.GenerateKeypair(scheme)
	if err != nil {
		return err
	}

	if err := signature.SaveKey(scheme, path, kp.Private); err != nil {
		return err
	}

	fmt.Println(kp.Address)
	return nil
}
