// Package nameservice reads a folder of key files and creates a name
// service lookup for the accounts they hold.
package nameservice

import (
	"fmt"
	"io/fs"
	"maps"
	"path"
	"path/filepath"
	"strings"

	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/signature"
)

// NameService maintains a map of account addresses for name lookup.
type NameService struct {
	accounts map[string]string
}

// New constructs a name service with the accounts whose keys are stored in
// the root folder. The file name, minus its extension, names the account.
func New(scheme signature.Scheme, root string) (*NameService, error) {
	ns := NameService{
		accounts: make(map[string]string),
	}

	fn := func(fileName string, info fs.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("walkdir failure: %w", err)
		}

		if path.Ext(fileName) != signature.KeyExtension {
			return nil
		}

		kp, err := signature.LoadKey(scheme, fileName)
		if err != nil {
			return fmt.Errorf("loading key %s: %w", fileName, err)
		}

		ns.accounts[kp.Address] = strings.TrimSuffix(path.Base(fileName), signature.KeyExtension)

		return nil
	}

	if err := filepath.Walk(root, fn); err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return &ns, nil
}

// Lookup returns the name for the specified account address.
func (ns *NameService) Lookup(address string) string {
	name, exists := ns.accounts[address]
	if !exists {
		return address
	}
	return name
}

// Copy returns a copy of the map of account addresses and names.
func (ns *NameService) Copy() map[string]string {
	return maps.Clone(ns.accounts)
}
