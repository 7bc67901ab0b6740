package database

import (
	"fmt"

	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/signature"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/validate"
)

// BlockHeader carries the hash of the block payload.
type BlockHeader struct {
	Hash string `json:"hash" validate:"required,base64"`
}

// BlockPayload is the hashed part of a block. PreviousHash is nil only for
// the block at index 0. Timestamp is expressed in unix milliseconds.
type BlockPayload struct {
	Index        uint64               `json:"index"`
	Timestamp    int64                `json:"timestamp" validate:"gt=0"`
	Nonce        uint32               `json:"nonce"`
	PreviousHash *string              `json:"previous_hash" validate:"omitnil,base64"`
	Coinbase     CoinbaseTransaction  `json:"coinbase"`
	Txs          []AccountTransaction `json:"txs" validate:"required,dive"`
}

// Block represents an ordered, hash linked entry in the ledger.
type Block struct {
	Header  BlockHeader  `json:"header"`
	Payload BlockPayload `json:"payload"`
}

// Digest returns the sha256 digest of the canonical form of the payload.
func (b Block) Digest() ([32]byte, error) {
	return signature.Digest(b.Payload)
}

// ComputeHash returns the base64 hash of the payload. This is what the
// header hash must equal for the block to be valid.
func (b Block) ComputeHash() (string, error) {
	return signature.Hash(b.Payload)
}

// TotalFees sums the miner fees of the block's transactions.
func (b Block) TotalFees() int64 {
	return TotalFees(b.Payload.Txs)
}

// Signatures returns the set of transaction signatures embedded in the block.
func (b Block) Signatures() map[string]struct{} {
	sigs := make(map[string]struct{}, len(b.Payload.Txs))
	for _, tx := range b.Payload.Txs {
		sigs[tx.Header.Signature] = struct{}{}
	}
	return sigs
}

// Serialize returns the wire form of the block.
func (b Block) Serialize() ([]byte, error) {
	return signature.Marshal(b)
}

// DeserializeBlock decodes the wire form of a block, rejecting anything that
// does not match the expected shape.
func DeserializeBlock(data []byte) (Block, error) {
	var b Block
	if err := validate.Decode(data, &b); err != nil {
		return Block{}, err
	}

	if err := b.checkShape(); err != nil {
		return Block{}, err
	}

	return b, nil
}

// checkShape performs the structural checks the tags can't express.
func (b Block) checkShape() error {
	if (b.Payload.Index == 0) != (b.Payload.PreviousHash == nil) {
		return fmt.Errorf("previous_hash must be null only for index 0, index %d", b.Payload.Index)
	}

	return nil
}

// String implements the fmt.Stringer interface for logging.
func (b Block) String() string {
	hash := b.Header.Hash
	if len(hash) > 12 {
		hash = hash[:12]
	}

	return fmt.Sprintf("blk[%d]: hash[%s]: nonce[%d]: txs[%d]", b.Payload.Index, hash, b.Payload.Nonce, len(b.Payload.Txs))
}

// =============================================================================

// TotalFees sums the miner fees of the specified transactions.
func TotalFees(txs []AccountTransaction) int64 {
	var total int64
	for _, tx := range txs {
		total += tx.Payload.MinerFee
	}
	return total
}

// CopyChain returns a copy of the chain that can be modified without
// affecting the original.
func CopyChain(chain []Block) []Block {
	cpy := make([]Block, len(chain))
	copy(cpy, chain)
	return cpy
}

// DeserializeChain decodes a JSON array of blocks, the persisted form of
// the chain.
func DeserializeChain(data []byte) ([]Block, error) {
	var chain []Block
	if err := validate.Decode(data, &chain); err != nil {
		return nil, err
	}

	for _, b := range chain {
		if err := validateBlockShape(b); err != nil {
			return nil, err
		}
	}

	return chain, nil
}

// validateBlockShape runs the tag checks plus the structural checks on one
// block. It's used for blocks that arrived inside an array.
func validateBlockShape(b Block) error {
	if err := validate.Check(b); err != nil {
		return err
	}

	return b.checkShape()
}
