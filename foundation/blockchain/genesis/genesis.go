// Package genesis maintains access to the genesis file. The genesis file
// holds the ledger parameters every node of a deployment must agree on.
package genesis

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/signature"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/validate"
)

// Set of default values applied when the file leaves them out.
const (
	DefaultScheme         = signature.SchemeSecp256k1
	DefaultMiningInterval = "1s"
)

// Genesis represents the genesis file. BlockReward is paid to the miner of
// every block, Complexity is the number of leading zero bits a block hash
// needs and MiningInterval is how often a miner rebuilds its template.
type Genesis struct {
	Date           time.Time `json:"date" yaml:"date"`
	ChainID        uint16    `json:"chain_id" yaml:"chain_id"`
	BlockReward    int64     `json:"block_reward" yaml:"block_reward" validate:"gte=0"`
	Complexity     uint      `json:"complexity" yaml:"complexity" validate:"lte=32"`
	Scheme         string    `json:"scheme" yaml:"scheme" validate:"oneof=secp256k1 rsa-pss"`
	MiningInterval string    `json:"mining_interval" yaml:"mining_interval"`
}

// Default returns the genesis used when no file is provided.
func Default() Genesis {
	return Genesis{
		Date:           time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC),
		ChainID:        1,
		BlockReward:    100,
		Complexity:     12,
		Scheme:         DefaultScheme,
		MiningInterval: DefaultMiningInterval,
	}
}

// =============================================================================

// Load opens and consumes the genesis file. Files ending in .yaml or .yml
// are read as YAML, anything else as JSON.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(content, &genesis)
	default:
		err = json.Unmarshal(content, &genesis)
	}
	if err != nil {
		return Genesis{}, fmt.Errorf("decoding genesis %s: %w", path, err)
	}

	if genesis.Scheme == "" {
		genesis.Scheme = DefaultScheme
	}

	if genesis.MiningInterval == "" {
		genesis.MiningInterval = DefaultMiningInterval
	}

	if err := validate.Check(genesis); err != nil {
		return Genesis{}, fmt.Errorf("validating genesis %s: %w", path, err)
	}

	if _, err := genesis.Interval(); err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}

// Interval returns the mining interval as a duration.
func (g Genesis) Interval() (time.Duration, error) {
	d, err := time.ParseDuration(g.MiningInterval)
	if err != nil {
		return 0, fmt.Errorf("parsing mining interval %q: %w", g.MiningInterval, err)
	}

	if d <= 0 {
		return 0, fmt.Errorf("mining interval %q must be positive", g.MiningInterval)
	}

	return d, nil
}

// SignatureScheme returns the signature scheme named by the genesis.
func (g Genesis) SignatureScheme() (signature.Scheme, error) {
	return signature.ByName(g.Scheme)
}
