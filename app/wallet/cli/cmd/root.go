// Package cmd contains wallet app
package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/signature"
)

var (
	accountName string
	accountPath string
	schemeName  string
	url         string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&accountName, "account", "a", "private", "Name of the private key file.")
	rootCmd.PersistentFlags().StringVarP(&accountPath, "account-path", "p", "zblock/accounts/", "Path to the directory with private keys.")
	rootCmd.PersistentFlags().StringVarP(&schemeName, "scheme", "s", signature.SchemeSecp256k1, "Signature scheme of the keys.")
	rootCmd.PersistentFlags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the node.")
}

var rootCmd = &cobra.Command{
	Use:          "wallet",
	Short:        "Your simple wallet",
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func getPrivateKeyPath() string {
	name := accountName
	if !strings.HasSuffix(name, signature.KeyExtension) {
		name += signature.KeyExtension
	}

	return filepath.Join(accountPath, name)
}

func loadKeypair() (signature.Scheme, signature.Keypair, error) {
	scheme, err := signature.ByName(schemeName)
	if err != nil {
		return nil, signature.Keypair{}, err
	}

	kp, err := signature.LoadKey(scheme, getPrivateKeyPath())
	if err != nil {
		return nil, signature.Keypair{}, err
	}

	return scheme, kp, nil
}
