package genesis_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/genesis"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestLoad(t *testing.T) {
	type table struct {
		name    string
		file    string
		content string
		exp     genesis.Genesis
		fail    bool
	}

	tt := []table{
		{
			name:    "json",
			file:    "genesis.json",
			content: `{"chain_id": 7, "block_reward": 50, "complexity": 8, "scheme": "rsa-pss", "mining_interval": "500ms"}`,
			exp:     genesis.Genesis{ChainID: 7, BlockReward: 50, Complexity: 8, Scheme: "rsa-pss", MiningInterval: "500ms"},
		},
		{
			name:    "yaml with defaults",
			file:    "genesis.yaml",
			content: "chain_id: 2\nblock_reward: 10\ncomplexity: 4\n",
			exp:     genesis.Genesis{ChainID: 2, BlockReward: 10, Complexity: 4, Scheme: "secp256k1", MiningInterval: "1s"},
		},
		{
			name:    "complexity out of range",
			file:    "genesis.json",
			content: `{"block_reward": 50, "complexity": 33}`,
			fail:    true,
		},
		{
			name:    "unknown scheme",
			file:    "genesis.yml",
			content: "block_reward: 1\nscheme: ed25519\n",
			fail:    true,
		},
		{
			name:    "bad interval",
			file:    "genesis.json",
			content: `{"block_reward": 50, "mining_interval": "soon"}`,
			fail:    true,
		},
	}

	t.Log("Given the need to load the genesis file.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling %s.", testID, tst.name)
			{
				f := func(t *testing.T) {
					path := filepath.Join(t.TempDir(), tst.file)
					if err := os.WriteFile(path, []byte(tst.content), 0600); err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to write the file: %v", failed, testID, err)
					}

					got, err := genesis.Load(path)
					if tst.fail {
						if err == nil {
							t.Fatalf("\t%s\tTest %d:\tShould reject the file.", failed, testID)
						}
						t.Logf("\t%s\tTest %d:\tShould reject the file: %v", success, testID, err)
						return
					}

					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to load the file: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to load the file.", success, testID)

					if got != tst.exp {
						t.Logf("\t%s\tTest %d:\tgot: %+v", failed, testID, got)
						t.Logf("\t%s\tTest %d:\texp: %+v", failed, testID, tst.exp)
						t.Fatalf("\t%s\tTest %d:\tShould get back the expected values.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould get back the expected values.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func TestDefault(t *testing.T) {
	g := genesis.Default()

	d, err := g.Interval()
	if err != nil || d != time.Second {
		t.Fatalf("\t%s\tShould default to a one second interval: %v", failed, err)
	}
	t.Logf("\t%s\tShould default to a one second interval.", success)

	if _, err := g.SignatureScheme(); err != nil {
		t.Fatalf("\t%s\tShould default to a known scheme: %v", failed, err)
	}
	t.Logf("\t%s\tShould default to a known scheme.", success)
}
