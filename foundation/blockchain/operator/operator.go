// Package operator holds the rules of the ledger. It decides what counts as
// a valid transaction, coinbase or block and it is the only place new
// transactions and block templates are built from intent. The operator
// holds no chain or pool of its own, every call is handed the snapshot it
// should work against.
package operator

import (
	"crypto"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/database"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/pow"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/signature"
)

// EventHandler defines a function that is called when events occur in the
// processing of transactions and blocks.
type EventHandler func(v string, args ...any)

// Config represents the configuration required to construct an operator.
type Config struct {
	Scheme      signature.Scheme
	BlockReward int64
	Complexity  uint
	Now         func() time.Time
	EvHandler   EventHandler
}

// Operator validates and constructs ledger values.
type Operator struct {
	scheme      signature.Scheme
	blockReward int64
	complexity  uint
	now         func() time.Time
	evHandler   EventHandler
}

// New constructs an operator for use.
func New(cfg Config) (*Operator, error) {
	if cfg.Scheme == nil {
		return nil, errors.New("signature scheme is required")
	}

	if cfg.BlockReward < 0 {
		return nil, fmt.Errorf("block reward %d can't be negative", cfg.BlockReward)
	}

	if cfg.Complexity > pow.MaxComplexity {
		return nil, fmt.Errorf("complexity %d is out of range", cfg.Complexity)
	}

	ev := func(v string, args ...any) {}
	if cfg.EvHandler != nil {
		ev = cfg.EvHandler
	}

	now := time.Now
	if cfg.Now != nil {
		now = cfg.Now
	}

	op := Operator{
		scheme:      cfg.Scheme,
		blockReward: cfg.BlockReward,
		complexity:  cfg.Complexity,
		now:         now,
		evHandler:   ev,
	}

	return &op, nil
}

// Scheme returns the signature scheme the operator verifies with.
func (o *Operator) Scheme() signature.Scheme {
	return o.scheme
}

// BlockReward returns the fixed reward paid for every block.
func (o *Operator) BlockReward() int64 {
	return o.blockReward
}

// Complexity returns the proof of work complexity blocks must meet.
func (o *Operator) Complexity() uint {
	return o.complexity
}

// SealDelay returns how long until both timestamps of the block are in the
// past and the block can pass the timestamp rule. Zero means now.
func (o *Operator) SealDelay(block database.Block) time.Duration {
	latest := max(block.Payload.Timestamp, block.Payload.Coinbase.Payload.Timestamp)

	wait := latest + 1 - o.now().UnixMilli()
	if wait <= 0 {
		return 0
	}

	return time.Duration(wait) * time.Millisecond
}

// =============================================================================

// TransferInfo is the intent behind a transaction.
type TransferInfo struct {
	From   string
	To     string
	Amount int64
	Fee    int64
}

// DeriveNextOperation builds the operation that follows the most recent one
// recorded against the address.
func (o *Operator) DeriveNextOperation(address string, operation int64, chain []database.Block, pool []database.AccountTransaction) database.AccountOperation {
	prior, ok := LatestOperation(address, chain, pool)
	if !ok {
		return database.FirstOperation(address, operation)
	}

	return prior.Next(operation)
}

// CreateTransaction builds and signs the transaction moving the amount and
// fee out of the source account. The result isn't checked against the
// ledger, that is left to ValidateTransaction.
func (o *Operator) CreateTransaction(info TransferInfo, key crypto.Signer, chain []database.Block, pool []database.AccountTransaction) (database.AccountTransaction, error) {
	payload := database.TransactionPayload{
		From:     o.DeriveNextOperation(info.From, -(info.Amount + info.Fee), chain, pool),
		To:       o.DeriveNextOperation(info.To, info.Amount, chain, pool),
		MinerFee: info.Fee,
	}

	return database.SignTransaction(o.scheme, payload, key)
}

// CreateBlockTemplate builds the next block for the miner. The template
// embeds the full pool and pays the block reward plus the pool's fees to
// the miner. The nonce is zero and the hash is left for mining to fill in.
func (o *Operator) CreateBlockTemplate(miner signature.Keypair, chain []database.Block, pool []database.AccountTransaction) (database.Block, error) {
	txs := make([]database.AccountTransaction, len(pool))
	copy(txs, pool)

	now := o.now().UnixMilli()

	reward := o.blockReward + database.TotalFees(txs)
	payload := database.CoinbasePayload{
		To:        o.DeriveNextOperation(miner.Address, reward, chain, txs),
		Timestamp: now,
	}

	coinbase, err := database.SignCoinbase(o.scheme, payload, miner.Private)
	if err != nil {
		return database.Block{}, err
	}

	var index uint64
	var prevHash *string
	if len(chain) > 0 {
		last := chain[len(chain)-1]
		index = last.Payload.Index + 1

		hash := last.Header.Hash
		prevHash = &hash
	}

	block := database.Block{
		Payload: database.BlockPayload{
			Index:        index,
			Timestamp:    now,
			Nonce:        0,
			PreviousHash: prevHash,
			Coinbase:     coinbase,
			Txs:          txs,
		},
	}

	return block, nil
}

// =============================================================================

// ValidateTransaction checks the transaction against the ledger formed by
// the chain and pool. Checks run in order and the first violation is
// returned as a ValidationError.
func (o *Operator) ValidateTransaction(tx database.AccountTransaction, chain []database.Block, pool []database.AccountTransaction) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = invalid(RuleMalformed, "%v", r)
		}
	}()

	return o.validateTransaction(tx, chain, pool)
}

func (o *Operator) validateTransaction(tx database.AccountTransaction, chain []database.Block, pool []database.AccountTransaction) error {
	from := tx.Payload.From
	to := tx.Payload.To
	fee := tx.Payload.MinerFee

	o.evHandler("operator: ValidateTransaction: tx[%s]: check: operation signs", tx)

	if from.Operation >= 0 {
		return invalid(RuleSign, "from operation must be negative, got %d", from.Operation)
	}

	if to.Operation <= 0 {
		return invalid(RuleSign, "to operation must be positive, got %d", to.Operation)
	}

	o.evHandler("operator: ValidateTransaction: tx[%s]: check: accounts are distinct", tx)

	if from.Address == to.Address {
		return invalid(RuleDistinct, "account %s can't transfer to itself", from.Address)
	}

	o.evHandler("operator: ValidateTransaction: tx[%s]: check: operations sum to zero", tx)

	if fee < 0 {
		return invalid(RuleZeroSum, "miner fee can't be negative, got %d", fee)
	}

	// The two operations have opposite signs so their sum can't overflow.
	sum := from.Operation + to.Operation
	if sum > 0 && fee > math.MaxInt64-sum {
		return invalid(RuleZeroSum, "operations overflow, from %d, to %d, fee %d", from.Operation, to.Operation, fee)
	}

	if sum+fee != 0 {
		return invalid(RuleZeroSum, "operations don't sum to zero, from %d, to %d, fee %d", from.Operation, to.Operation, fee)
	}

	o.evHandler("operator: ValidateTransaction: tx[%s]: check: balances are not negative", tx)

	if from.UpdatedBalance < 0 {
		return invalid(RuleBalance, "insufficient funds on account %s, resulting balance %d", from.Address, from.UpdatedBalance)
	}

	if to.UpdatedBalance < 0 {
		return invalid(RuleBalance, "negative balance on account %s, resulting balance %d", to.Address, to.UpdatedBalance)
	}

	o.evHandler("operator: ValidateTransaction: tx[%s]: check: operations follow account history", tx)

	if err := checkCongruence(RuleCongruence, from, chain, pool); err != nil {
		return err
	}

	if err := checkCongruence(RuleCongruence, to, chain, pool); err != nil {
		return err
	}

	o.evHandler("operator: ValidateTransaction: tx[%s]: check: signature", tx)

	if !tx.VerifySignature(o.scheme) {
		return invalid(RuleSignature, "signature is not valid for account %s", from.Address)
	}

	return nil
}

// checkCongruence compares the operation against the latest operation
// recorded for the same address.
func checkCongruence(rule string, op database.AccountOperation, chain []database.Block, pool []database.AccountTransaction) error {
	prior, ok := LatestOperation(op.Address, chain, pool)
	if !ok {
		if op.OpNonce != 0 {
			return invalid(rule, "no prior operation on account %s, op_nonce must be 0, got %d", op.Address, op.OpNonce)
		}

		if op.UpdatedBalance != op.Operation {
			return invalid(rule, "first operation on account %s must carry its own balance, got %d, exp %d", op.Address, op.UpdatedBalance, op.Operation)
		}

		return nil
	}

	if op.OpNonce == 0 {
		return invalid(rule, "found prior operation on account %s, op_nonce[%d]", op.Address, prior.OpNonce)
	}

	if err := op.Follows(prior); err != nil {
		return invalid(rule, "account %s: %s", op.Address, err)
	}

	return nil
}

// =============================================================================

// ValidateBlock checks the block can extend the chain at its index. Only
// chain[:index] takes part in the checks. Checks run in order and the first
// violation is returned as a ValidationError.
func (o *Operator) ValidateBlock(chain []database.Block, block database.Block) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = invalid(RuleMalformed, "%v", r)
		}
	}()

	return o.validateBlock(chain, block)
}

func (o *Operator) validateBlock(chain []database.Block, block database.Block) error {
	index := block.Payload.Index
	if index > uint64(len(chain)) {
		return invalid(RuleContinuity, "block index %d is past the end of the chain, length %d", index, len(chain))
	}

	prior := chain[:index]
	coinbase := block.Payload.Coinbase
	txs := block.Payload.Txs

	o.evHandler("operator: ValidateBlock: blk[%d]: check: proof of work", index)

	digest, err := block.Digest()
	if err != nil {
		return invalid(RuleProofOfWork, "unable to hash block: %s", err)
	}

	if !pow.Satisfies(digest, o.complexity) {
		return invalid(RuleProofOfWork, "block hash doesn't meet complexity %d", o.complexity)
	}

	if hash := signature.EncodeHash(digest); hash != block.Header.Hash {
		return invalid(RuleProofOfWork, "header hash doesn't match payload, got %s, exp %s", block.Header.Hash, hash)
	}

	o.evHandler("operator: ValidateBlock: blk[%d]: check: previous hash matches parent block", index)

	var parent *database.Block
	if index > 0 {
		parent = &prior[index-1]
	}

	switch {
	case parent == nil && block.Payload.PreviousHash != nil:
		return invalid(RuleContinuity, "first block can't have a previous hash")

	case parent != nil && block.Payload.PreviousHash == nil:
		return invalid(RuleContinuity, "block %d is missing its previous hash", index)

	case parent != nil && *block.Payload.PreviousHash != parent.Header.Hash:
		return invalid(RuleContinuity, "previous hash doesn't match parent block, got %s, exp %s", *block.Payload.PreviousHash, parent.Header.Hash)
	}

	o.evHandler("operator: ValidateBlock: blk[%d]: check: coinbase signature", index)

	if !coinbase.VerifySignature(o.scheme) {
		return invalid(RuleCoinbaseSignature, "coinbase signature is not valid for account %s", coinbase.Payload.To.Address)
	}

	o.evHandler("operator: ValidateBlock: blk[%d]: check: timestamps", index)

	if err := o.checkTimestamps(parent, block); err != nil {
		return err
	}

	o.evHandler("operator: ValidateBlock: blk[%d]: check: coinbase follows account history", index)

	if coinbase.Payload.To.Operation <= 0 {
		return invalid(RuleCoinbase, "coinbase operation must be positive, got %d", coinbase.Payload.To.Operation)
	}

	if err := checkCongruence(RuleCoinbase, coinbase.Payload.To, prior, txs); err != nil {
		return err
	}

	o.evHandler("operator: ValidateBlock: blk[%d]: check: transactions: count[%d]", index, len(txs))

	for i := len(txs) - 1; i >= 0; i-- {
		if err := o.validateTransaction(txs[i], prior, txs[:i]); err != nil {
			ve := GetValidationError(err)
			return invalid(ve.Rule, "tx[%d]: %s", i, ve.Message)
		}
	}

	o.evHandler("operator: ValidateBlock: blk[%d]: check: coinbase pays reward plus fees", index)

	var fees int64
	for _, tx := range txs {
		if tx.Payload.MinerFee > math.MaxInt64-o.blockReward-fees {
			return invalid(RuleReward, "fees overflow")
		}
		fees += tx.Payload.MinerFee
	}

	if exp := o.blockReward + fees; coinbase.Payload.To.Operation != exp {
		return invalid(RuleReward, "coinbase pays %d, exp %d", coinbase.Payload.To.Operation, exp)
	}

	return nil
}

// checkTimestamps requires both block and coinbase timestamps to be after
// the parent's and before now. The first block is only bound by now.
func (o *Operator) checkTimestamps(parent *database.Block, block database.Block) error {
	now := o.now().UnixMilli()

	ts := block.Payload.Timestamp
	cbTS := block.Payload.Coinbase.Payload.Timestamp

	if ts >= now {
		return invalid(RuleTimestamp, "block timestamp %d is not in the past, now %d", ts, now)
	}

	if cbTS >= now {
		return invalid(RuleTimestamp, "coinbase timestamp %d is not in the past, now %d", cbTS, now)
	}

	if parent == nil {
		return nil
	}

	if ts <= parent.Payload.Timestamp {
		return invalid(RuleTimestamp, "block timestamp %d is not after parent block %d", ts, parent.Payload.Timestamp)
	}

	if cbTS <= parent.Payload.Coinbase.Payload.Timestamp {
		return invalid(RuleTimestamp, "coinbase timestamp %d is not after parent coinbase %d", cbTS, parent.Payload.Coinbase.Payload.Timestamp)
	}

	return nil
}

// =============================================================================

// AppendRange applies a contiguous range of blocks onto the chain and
// returns the resulting chain. The range may start anywhere up to the tip,
// replacing the local blocks from that index. The input chain is never
// modified: when any block fails, the error is returned and nothing is
// applied. A range that starts past the tip yields a MissingRangeError.
func (o *Operator) AppendRange(chain []database.Block, blocks []database.Block) (result []database.Block, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = invalid(RuleMalformed, "%v", r)
		}
	}()

	if len(blocks) == 0 {
		return nil, invalid(RuleRange, "empty block range")
	}

	first := blocks[0].Payload.Index
	if first > uint64(len(chain)) {
		return nil, &MissingRangeError{Start: uint64(len(chain)), End: first}
	}

	o.evHandler("operator: AppendRange: blks[%d:%d]: local length[%d]", first, first+uint64(len(blocks)), len(chain))

	working := make([]database.Block, first, first+uint64(len(blocks)))
	copy(working, chain[:first])

	for i, block := range blocks {
		if exp := first + uint64(i); block.Payload.Index != exp {
			return nil, invalid(RuleRange, "range is not contiguous, got index %d, exp %d", block.Payload.Index, exp)
		}

		if err := o.validateBlock(working, block); err != nil {
			return nil, err
		}

		working = append(working, block)
	}

	return working, nil
}

// ValidPrefix replays the chain block by block and returns the longest
// prefix that validates, along with the error that ended it.
func (o *Operator) ValidPrefix(chain []database.Block) ([]database.Block, error) {
	valid := make([]database.Block, 0, len(chain))

	for i, block := range chain {
		if block.Payload.Index != uint64(i) {
			return valid, invalid(RuleRange, "block at position %d has index %d", i, block.Payload.Index)
		}

		if err := o.ValidateBlock(valid, block); err != nil {
			return valid, err
		}
		valid = append(valid, block)
	}

	return valid, nil
}
