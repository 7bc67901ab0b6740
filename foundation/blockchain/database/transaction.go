package database

import (
	"crypto"
	"fmt"

	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/signature"
	"github.com/luismeyer95/blockchain-sim-sub000/foundation/validate"
)

// TransactionHeader carries the signature produced by the source account.
type TransactionHeader struct {
	Signature string `json:"signature" validate:"required,base64"`
}

// TransactionPayload is the signed part of an account transaction.
type TransactionPayload struct {
	From     AccountOperation `json:"from"`
	To       AccountOperation `json:"to"`
	MinerFee int64            `json:"miner_fee" validate:"gte=0"`
}

// AccountTransaction is a peer to peer value transfer. The debit on From,
// the credit on To and the miner fee always sum to zero.
type AccountTransaction struct {
	Header  TransactionHeader  `json:"header"`
	Payload TransactionPayload `json:"payload"`
}

// SignTransaction signs the payload with the private key of the source
// account and returns the completed transaction.
func SignTransaction(scheme signature.Scheme, payload TransactionPayload, key crypto.Signer) (AccountTransaction, error) {
	sig, err := signature.SignValue(scheme, payload, key)
	if err != nil {
		return AccountTransaction{}, fmt.Errorf("signing transaction: %w", err)
	}

	tx := AccountTransaction{
		Header:  TransactionHeader{Signature: sig},
		Payload: payload,
	}

	return tx, nil
}

// VerifySignature checks the signature was produced by the From account.
func (tx AccountTransaction) VerifySignature(scheme signature.Scheme) bool {
	return signature.VerifyValue(scheme, tx.Payload, tx.Payload.From.Address, tx.Header.Signature)
}

// Serialize returns the wire form of the transaction.
func (tx AccountTransaction) Serialize() ([]byte, error) {
	return signature.Marshal(tx)
}

// DeserializeTransaction decodes the wire form of a transaction, rejecting
// anything that does not match the expected shape.
func DeserializeTransaction(data []byte) (AccountTransaction, error) {
	var tx AccountTransaction
	if err := validate.Decode(data, &tx); err != nil {
		return AccountTransaction{}, err
	}

	return tx, nil
}

// String implements the fmt.Stringer interface for logging.
func (tx AccountTransaction) String() string {
	sig := tx.Header.Signature
	if len(sig) > 16 {
		sig = sig[:16]
	}

	return fmt.Sprintf("%s: %s -> %s fee[%d]", sig, tx.Payload.From, tx.Payload.To, tx.Payload.MinerFee)
}
