// Package signature provides helper functions for handling the blockchain
// signature needs: canonical hashing, signing, verification and key
// (de)serialization behind a pluggable scheme.
package signature

import (
	"crypto"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Scheme represents the behavior required by the ledger from a digital
// signature algorithm. Accounts are identified by the serialized form of
// their public key, which is what Address returns.
type Scheme interface {
	Name() string
	GenerateKey() (crypto.Signer, error)
	Address(pub crypto.PublicKey) (string, error)
	PublicKey(address string) (crypto.PublicKey, error)
	Sign(data []byte, key crypto.Signer) ([]byte, error)
	Verify(data []byte, address string, sig []byte) bool
	EncodePrivateKey(key crypto.Signer) (string, error)
	DecodePrivateKey(s string) (crypto.Signer, error)
}

// Set of scheme names that can be configured.
const (
	SchemeSecp256k1 = "secp256k1"
	SchemeRSAPSS    = "rsa-pss"
)

// ByName returns the scheme registered under the specified name.
func ByName(name string) (Scheme, error) {
	switch name {
	case "", SchemeSecp256k1:
		return Secp256k1{}, nil
	case SchemeRSAPSS:
		return RSAPSS{Bits: DefaultRSABits}, nil
	}

	return nil, fmt.Errorf("unknown signature scheme %q", name)
}

// =============================================================================

// Keypair binds a private key to the account address derived from it.
type Keypair struct {
	Address string
	Private crypto.Signer
}

// NewKeypair constructs a keypair for the private key using the scheme.
func NewKeypair(scheme Scheme, key crypto.Signer) (Keypair, error) {
	address, err := scheme.Address(key.Public())
	if err != nil {
		return Keypair{}, err
	}

	kp := Keypair{
		Address: address,
		Private: key,
	}

	return kp, nil
}

// GenerateKeypair creates a brand new keypair with the scheme.
func GenerateKeypair(scheme Scheme) (Keypair, error) {
	key, err := scheme.GenerateKey()
	if err != nil {
		return Keypair{}, err
	}

	return NewKeypair(scheme, key)
}

// =============================================================================

// Marshal returns the canonical byte representation of the value. Every
// hash and signature in the ledger is computed over these bytes.
func Marshal(value any) ([]byte, error) {
	return json.Marshal(value)
}

// Digest returns the sha256 digest of the canonical form of the value.
func Digest(value any) ([32]byte, error) {
	data, err := Marshal(value)
	if err != nil {
		return [32]byte{}, err
	}

	return sha256.Sum256(data), nil
}

// Hash returns the base64 text form of the digest of the value.
func Hash(value any) (string, error) {
	digest, err := Digest(value)
	if err != nil {
		return "", err
	}

	return EncodeHash(digest), nil
}

// EncodeHash converts a digest into its base64 text form.
func EncodeHash(digest [32]byte) string {
	return base64.StdEncoding.EncodeToString(digest[:])
}

// EncodeSignature converts signature bytes into their base64 text form.
func EncodeSignature(sig []byte) string {
	return base64.StdEncoding.EncodeToString(sig)
}

// DecodeSignature converts the base64 text form back into signature bytes.
func DecodeSignature(sig string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(sig)
}

// SignValue signs the canonical form of the value and returns the base64
// text form of the signature.
func SignValue(scheme Scheme, value any, key crypto.Signer) (string, error) {
	data, err := Marshal(value)
	if err != nil {
		return "", err
	}

	sig, err := scheme.Sign(data, key)
	if err != nil {
		return "", err
	}

	return EncodeSignature(sig), nil
}

// VerifyValue checks the base64 signature over the canonical form of the
// value was produced by the key behind the address.
func VerifyValue(scheme Scheme, value any, address string, sig string) bool {
	data, err := Marshal(value)
	if err != nil {
		return false
	}

	raw, err := DecodeSignature(sig)
	if err != nil {
		return false
	}

	return scheme.Verify(data, address, raw)
}
