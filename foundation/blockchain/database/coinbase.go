package database

import (
	"crypto"
	"fmt"

	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/signature"
)

// CoinbasePayload is the signed part of a coinbase transaction. Timestamp is
// expressed in unix milliseconds.
type CoinbasePayload struct {
	To        AccountOperation `json:"to"`
	Timestamp int64            `json:"timestamp" validate:"gt=0"`
}

// CoinbaseTransaction pays the block reward and the fees of the block's
// transactions to the miner. It is signed by the miner.
type CoinbaseTransaction struct {
	Header  TransactionHeader `json:"header"`
	Payload CoinbasePayload   `json:"payload"`
}

// SignCoinbase signs the payload with the private key of the miner.
func SignCoinbase(scheme signature.Scheme, payload CoinbasePayload, key crypto.Signer) (CoinbaseTransaction, error) {
	sig, err := signature.SignValue(scheme, payload, key)
	if err != nil {
		return CoinbaseTransaction{}, fmt.Errorf("signing coinbase: %w", err)
	}

	cb := CoinbaseTransaction{
		Header:  TransactionHeader{Signature: sig},
		Payload: payload,
	}

	return cb, nil
}

// VerifySignature checks the signature was produced by the To account.
func (cb CoinbaseTransaction) VerifySignature(scheme signature.Scheme) bool {
	return signature.VerifyValue(scheme, cb.Payload, cb.Payload.To.Address, cb.Header.Signature)
}
