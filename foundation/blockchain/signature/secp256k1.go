package signature

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Secp256k1 implements the Scheme interface with ECDSA over the secp256k1
// curve. Addresses are the hex encoded compressed public key.
type Secp256k1 struct{}

// Name returns the configured name of the scheme.
func (Secp256k1) Name() string {
	return SchemeSecp256k1
}

// GenerateKey creates a new private key.
func (Secp256k1) GenerateKey() (crypto.Signer, error) {
	return ethcrypto.GenerateKey()
}

// Address serializes the public key into an account address.
func (Secp256k1) Address(pub crypto.PublicKey) (string, error) {
	pk, ok := pub.(*ecdsa.PublicKey)
	if !ok {
		return "", fmt.Errorf("expected ecdsa public key, got %T", pub)
	}

	return hexutil.Encode(ethcrypto.CompressPubkey(pk)), nil
}

// PublicKey deserializes an account address back into a public key.
func (Secp256k1) PublicKey(address string) (crypto.PublicKey, error) {
	data, err := hexutil.Decode(address)
	if err != nil {
		return nil, fmt.Errorf("decoding address: %w", err)
	}

	pk, err := ethcrypto.DecompressPubkey(data)
	if err != nil {
		return nil, fmt.Errorf("decompressing address: %w", err)
	}

	return pk, nil
}

// Sign produces a 65 byte [R|S|V] signature over the sha256 of the data.
func (Secp256k1) Sign(data []byte, key crypto.Signer) ([]byte, error) {
	pk, ok := key.(*ecdsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("expected ecdsa private key, got %T", key)
	}

	digest := sha256.Sum256(data)
	return ethcrypto.Sign(digest[:], pk)
}

// Verify checks the signature over the data against the address.
func (s Secp256k1) Verify(data []byte, address string, sig []byte) bool {
	if len(sig) != ethcrypto.SignatureLength {
		return false
	}

	pub, err := hexutil.Decode(address)
	if err != nil {
		return false
	}

	// Reject signatures that recover a different key than the address even
	// when the [R|S] part alone would verify.
	digest := sha256.Sum256(data)
	recovered, err := ethcrypto.SigToPub(digest[:], sig)
	if err != nil {
		return false
	}
	if hexutil.Encode(ethcrypto.CompressPubkey(recovered)) != address {
		return false
	}

	return ethcrypto.VerifySignature(pub, digest[:], sig[:ethcrypto.RecoveryIDOffset])
}

// EncodePrivateKey serializes the private key as hex.
func (Secp256k1) EncodePrivateKey(key crypto.Signer) (string, error) {
	pk, ok := key.(*ecdsa.PrivateKey)
	if !ok {
		return "", fmt.Errorf("expected ecdsa private key, got %T", key)
	}

	return hexutil.Encode(ethcrypto.FromECDSA(pk))[2:], nil
}

// DecodePrivateKey deserializes a hex private key.
func (Secp256k1) DecodePrivateKey(s string) (crypto.Signer, error) {
	if s == "" {
		return nil, errors.New("empty private key")
	}

	return ethcrypto.HexToECDSA(s)
}
