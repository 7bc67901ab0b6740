package signature

import (
	"crypto"
	"os"
	"path/filepath"
	"strings"
)

// KeyExtension is the file extension used for stored private keys.
const KeyExtension = ".key"

// SaveKey writes the serialized private key to the file.
func SaveKey(scheme Scheme, path string, key crypto.Signer) error {
	data, err := scheme.EncodePrivateKey(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	return os.WriteFile(path, []byte(data), 0600)
}

// LoadKey reads a private key from the file and builds its keypair.
func LoadKey(scheme Scheme, path string) (Keypair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Keypair{}, err
	}

	key, err := scheme.DecodePrivateKey(strings.TrimSpace(string(data)))
	if err != nil {
		return Keypair{}, err
	}

	return NewKeypair(scheme, key)
}
