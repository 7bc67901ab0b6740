package signature_test

import (
	"testing"

	"github.com/luismeyer95/blockchain-sim-sub000/foundation/blockchain/signature"
)

const (
	pkHexKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
)

// =============================================================================

func Test_Signing(t *testing.T) {
	value := struct {
		Name string
	}{
		Name: "Bill",
	}

	scheme := signature.Secp256k1{}

	key, err := scheme.DecodePrivateKey(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to decode a private key: %s", err)
	}

	kp, err := signature.NewKeypair(scheme, key)
	if err != nil {
		t.Fatalf("Should be able to build a keypair: %s", err)
	}

	sig, err := signature.SignValue(scheme, value, kp.Private)
	if err != nil {
		t.Fatalf("Should be able to sign data: %s", err)
	}

	if !signature.VerifyValue(scheme, value, kp.Address, sig) {
		t.Fatalf("Should be able to verify the signature.")
	}

	value.Name = "Jill"
	if signature.VerifyValue(scheme, value, kp.Address, sig) {
		t.Fatalf("Should not verify the signature for different data.")
	}
}

func Test_WrongSigner(t *testing.T) {
	value := struct {
		Name string
	}{
		Name: "Bill",
	}

	scheme := signature.Secp256k1{}

	kp1, err := signature.GenerateKeypair(scheme)
	if err != nil {
		t.Fatalf("Should be able to generate a keypair: %s", err)
	}

	kp2, err := signature.GenerateKeypair(scheme)
	if err != nil {
		t.Fatalf("Should be able to generate a keypair: %s", err)
	}

	sig, err := signature.SignValue(scheme, value, kp1.Private)
	if err != nil {
		t.Fatalf("Should be able to sign data: %s", err)
	}

	if signature.VerifyValue(scheme, value, kp2.Address, sig) {
		t.Fatalf("Should not verify a signature against another address.")
	}
}

func Test_Hash(t *testing.T) {
	value := struct {
		Name string
	}{
		Name: "Bill",
	}

	// sha256 of {"Name":"Bill"} in base64.
	hash := "D2iHrIUQHW1kJaYX7fNb1yG19hn7ksNsPSIk472w7lo="

	h, err := signature.Hash(value)
	if err != nil {
		t.Fatalf("Should be able to hash the value: %s", err)
	}
	if h != hash {
		t.Logf("got: %s", h)
		t.Logf("exp: %s", hash)
		t.Fatalf("Should get back the right hash: %s", h[:6])
	}

	h, _ = signature.Hash(value)
	if h != hash {
		t.Logf("got: %s", h)
		t.Logf("exp: %s", hash)
		t.Fatalf("Should get back the same hash twice.")
	}
}

func Test_KeySerialization(t *testing.T) {
	type table struct {
		name   string
		scheme signature.Scheme
	}

	tt := []table{
		{name: "secp256k1", scheme: signature.Secp256k1{}},
		{name: "rsa-pss", scheme: signature.RSAPSS{Bits: 1024}},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			kp, err := signature.GenerateKeypair(tst.scheme)
			if err != nil {
				t.Fatalf("Test %s:\tShould be able to generate a keypair: %s", tst.name, err)
			}

			pub, err := tst.scheme.PublicKey(kp.Address)
			if err != nil {
				t.Fatalf("Test %s:\tShould be able to deserialize the address: %s", tst.name, err)
			}

			address, err := tst.scheme.Address(pub)
			if err != nil {
				t.Fatalf("Test %s:\tShould be able to serialize the public key: %s", tst.name, err)
			}
			if address != kp.Address {
				t.Logf("Test %s:\tgot: %s", tst.name, address)
				t.Logf("Test %s:\texp: %s", tst.name, kp.Address)
				t.Fatalf("Test %s:\tShould get back the same address.", tst.name)
			}

			encoded, err := tst.scheme.EncodePrivateKey(kp.Private)
			if err != nil {
				t.Fatalf("Test %s:\tShould be able to encode the private key: %s", tst.name, err)
			}

			key, err := tst.scheme.DecodePrivateKey(encoded)
			if err != nil {
				t.Fatalf("Test %s:\tShould be able to decode the private key: %s", tst.name, err)
			}

			data := []byte("Hello World!")
			sig, err := tst.scheme.Sign(data, key)
			if err != nil {
				t.Fatalf("Test %s:\tShould be able to sign with the decoded key: %s", tst.name, err)
			}

			if !tst.scheme.Verify(data, kp.Address, sig) {
				t.Fatalf("Test %s:\tShould verify against the original address.", tst.name)
			}
		}

		t.Run(tst.name, f)
	}
}
