package signature

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
)

// DefaultRSABits is the key size used when generating rsa keys.
const DefaultRSABits = 2048

// RSAPSS implements the Scheme interface with RSA-PSS over SHA-256.
// Addresses are the base64 encoded PKIX form of the public key.
type RSAPSS struct {
	Bits int
}

// Name returns the configured name of the scheme.
func (RSAPSS) Name() string {
	return SchemeRSAPSS
}

// GenerateKey creates a new private key.
func (r RSAPSS) GenerateKey() (crypto.Signer, error) {
	bits := r.Bits
	if bits == 0 {
		bits = DefaultRSABits
	}

	return rsa.GenerateKey(rand.Reader, bits)
}

// Address serializes the public key into an account address.
func (RSAPSS) Address(pub crypto.PublicKey) (string, error) {
	pk, ok := pub.(*rsa.PublicKey)
	if !ok {
		return "", fmt.Errorf("expected rsa public key, got %T", pub)
	}

	der, err := x509.MarshalPKIXPublicKey(pk)
	if err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(der), nil
}

// PublicKey deserializes an account address back into a public key.
func (RSAPSS) PublicKey(address string) (crypto.PublicKey, error) {
	der, err := base64.StdEncoding.DecodeString(address)
	if err != nil {
		return nil, fmt.Errorf("decoding address: %w", err)
	}

	pub, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("parsing address: %w", err)
	}

	pk, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("expected rsa public key, got %T", pub)
	}

	return pk, nil
}

// Sign produces a PSS signature over the sha256 of the data.
func (RSAPSS) Sign(data []byte, key crypto.Signer) ([]byte, error) {
	pk, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("expected rsa private key, got %T", key)
	}

	digest := sha256.Sum256(data)
	opts := rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthAuto}

	return rsa.SignPSS(rand.Reader, pk, crypto.SHA256, digest[:], &opts)
}

// Verify checks the signature over the data against the address.
func (r RSAPSS) Verify(data []byte, address string, sig []byte) bool {
	pub, err := r.PublicKey(address)
	if err != nil {
		return false
	}

	digest := sha256.Sum256(data)
	opts := rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthAuto}

	return rsa.VerifyPSS(pub.(*rsa.PublicKey), crypto.SHA256, digest[:], sig, &opts) == nil
}

// EncodePrivateKey serializes the private key as PKCS1 PEM.
func (RSAPSS) EncodePrivateKey(key crypto.Signer) (string, error) {
	pk, ok := key.(*rsa.PrivateKey)
	if !ok {
		return "", fmt.Errorf("expected rsa private key, got %T", key)
	}

	block := pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(pk),
	}

	return string(pem.EncodeToMemory(&block)), nil
}

// DecodePrivateKey deserializes a PKCS1 PEM private key.
func (RSAPSS) DecodePrivateKey(s string) (crypto.Signer, error) {
	block, _ := pem.Decode([]byte(s))
	if block == nil {
		return nil, errors.New("no pem block found")
	}

	return x509.ParsePKCS1PrivateKey(block.Bytes)
}
