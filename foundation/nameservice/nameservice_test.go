package nameservice_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/signature"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/nameservice"
)

func TestLookup(t *testing.T) {
	root := t.TempDir()
	scheme := signature.Secp256k1{}

	kp, err := signature.GenerateKeypair(scheme)
	if err != nil {
		t.Fatalf("Should be able to generate a key: %s", err)
	}

	if err := signature.SaveKey(scheme, filepath.Join(root, "miner1"+signature.KeyExtension), kp.Private); err != nil {
		t.Fatalf("Should be able to save the key: %s", err)
	}

	if err := os.WriteFile(filepath.Join(root, "README"), []byte("not a key"), 0600); err != nil {
		t.Fatalf("Should be able to write a file: %s", err)
	}

	ns, err := nameservice.New(scheme, root)
	if err != nil {
		t.Fatalf("Should be able to construct the name service: %s", err)
	}

	if name := ns.Lookup(kp.Address); name != "miner1" {
		t.Fatalf("Should find the account name, got %q", name)
	}

	if name := ns.Lookup("unknown"); name != "unknown" {
		t.Fatalf("Should fall back to the address, got %q", name)
	}

	if names := ns.Copy(); len(names) != 1 {
		t.Fatalf("Should hold a single account, got %d", len(names))
	}
}
