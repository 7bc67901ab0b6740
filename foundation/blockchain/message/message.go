// Package message frames ledger resources for transmission between nodes.
// Every message is an envelope carrying a tag that names the resource and
// the resource itself as the payload.
package message

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/database"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/validate"
)

// Set of tags a message can carry.
const (
	TagTransaction   = "transaction"
	TagBlocks        = "blocks"
	TagRequestBlocks = "request_blocks"
	TagStatus        = "status"
)

// Envelope is the wire form of every message.
type Envelope struct {
	Tag     string          `json:"tag" validate:"required,oneof=transaction blocks request_blocks status"`
	Payload json.RawMessage `json:"payload" validate:"required"`
}

// BlockRange asks for the blocks with an index in [Start, End).
type BlockRange struct {
	Start uint64 `json:"start"`
	End   uint64 `json:"end" validate:"gtfield=Start"`
}

// Status describes the tip of a node's chain.
type Status struct {
	Host       string `json:"host"`
	Height     uint64 `json:"height"`
	LatestHash string `json:"latest_hash"`
}

// =============================================================================

// EncodeTransaction frames a transaction.
func EncodeTransaction(tx database.AccountTransaction) ([]byte, error) {
	return encode(TagTransaction, tx)
}

// EncodeBlocks frames a contiguous range of blocks.
func EncodeBlocks(blocks []database.Block) ([]byte, error) {
	if len(blocks) == 0 {
		return nil, errors.New("no blocks to encode")
	}

	return encode(TagBlocks, blocks)
}

// EncodeRequestBlocks frames a request for a range of blocks.
func EncodeRequestBlocks(r BlockRange) ([]byte, error) {
	return encode(TagRequestBlocks, r)
}

// EncodeStatus frames a node status.
func EncodeStatus(s Status) ([]byte, error) {
	return encode(TagStatus, s)
}

func encode(tag string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", tag, err)
	}

	env := Envelope{
		Tag:     tag,
		Payload: data,
	}

	return json.Marshal(env)
}

// =============================================================================

// Decode unwraps the envelope. The payload is decoded separately with the
// accessor for the tag.
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := validate.Decode(data, &env); err != nil {
		return Envelope{}, err
	}

	return env, nil
}

// Transaction decodes the payload of a transaction message.
func (env Envelope) Transaction() (database.AccountTransaction, error) {
	if err := env.expect(TagTransaction); err != nil {
		return database.AccountTransaction{}, err
	}

	return database.DeserializeTransaction(env.Payload)
}

// Blocks decodes the payload of a blocks message.
func (env Envelope) Blocks() ([]database.Block, error) {
	if err := env.expect(TagBlocks); err != nil {
		return nil, err
	}

	blocks, err := database.DeserializeChain(env.Payload)
	if err != nil {
		return nil, err
	}

	if len(blocks) == 0 {
		return nil, errors.New("blocks message carries no blocks")
	}

	return blocks, nil
}

// RequestBlocks decodes the payload of a request_blocks message.
func (env Envelope) RequestBlocks() (BlockRange, error) {
	var r BlockRange
	if err := env.decode(TagRequestBlocks, &r); err != nil {
		return BlockRange{}, err
	}

	return r, nil
}

// Status decodes the payload of a status message.
func (env Envelope) Status() (Status, error) {
	var s Status
	if err := env.decode(TagStatus, &s); err != nil {
		return Status{}, err
	}

	return s, nil
}

func (env Envelope) decode(tag string, val any) error {
	if err := env.expect(tag); err != nil {
		return err
	}

	return validate.Decode(env.Payload, val)
}

func (env Envelope) expect(tag string) error {
	if env.Tag != tag {
		return fmt.Errorf("message is tagged %s, not %s", env.Tag, tag)
	}

	return nil
}
