package crypto

import (
	"encoding/hex"

	"github.com/iov-one/swapkeep"
	"github.com/iov-one/swapkeep/errors"
	"golang.org/x/crypto/ed25519"
)

// ExtensionName is used for the conditions we get from signatures.
const ExtensionName = "sigs"

// PubKey represents a crypto public key we use.
type PubKey interface {
	Verify(message, sig []byte) bool
	Condition() swapkeep.Condition
}

// Signer is the functionality we use from a private key.
type Signer interface {
	Sign(message []byte) ([]byte, error)
	PublicKey() PublicKey
}

// PublicKey is an ed25519 public key.
type PublicKey []byte

var _ PubKey = PublicKey(nil)

// ParsePublicKey decodes a hex encoded ed25519 public key.
func ParsePublicKey(enc string) (PublicKey, error) {
	raw, err := hex.DecodeString(enc)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, "cannot decode hex")
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, errors.Wrapf(errors.ErrInput, "public key length %d", len(raw))
	}
	return PublicKey(raw), nil
}

// Verify verifies the signature was created with this message and public key.
func (p PublicKey) Verify(message, sig []byte) bool {
	if len(p) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(p), message, sig)
}

// Condition encodes the public key into a condition. The condition of an
// empty key is nil.
func (p PublicKey) Condition() swapkeep.Condition {
	if len(p) == 0 {
		return nil
	}
	return swapkeep.NewCondition(ExtensionName, "ed25519", p)
}

// Address returns the address of the signature condition. The address of an
// empty key is nil.
func (p PublicKey) Address() swapkeep.Address {
	if len(p) == 0 {
		return nil
	}
	return p.Condition().Address()
}

// String returns the hex representation of the key.
func (p PublicKey) String() string {
	return hex.EncodeToString(p)
}

// PrivateKey is an ed25519 private key.
type PrivateKey []byte

var _ Signer = PrivateKey(nil)

// Sign returns a matching signature for this private key.
func (p PrivateKey) Sign(message []byte) ([]byte, error) {
	if len(p) != ed25519.PrivateKeySize {
		return nil, errors.Wrap(errors.ErrState, "invalid private key")
	}
	return ed25519.Sign(ed25519.PrivateKey(p), message), nil
}

// PublicKey returns the corresponding PublicKey.
func (p PrivateKey) PublicKey() PublicKey {
	if len(p) != ed25519.PrivateKeySize {
		return nil
	}
	pub := ed25519.PrivateKey(p).Public().(ed25519.PublicKey)
	return PublicKey(pub)
}

// GenPrivKeyEd25519 returns a random new private key.
func GenPrivKeyEd25519() PrivateKey {
	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		panic(err)
	}
	return PrivateKey(priv)
}

// PrivKeyEd25519FromSeed will deterministically generate a private key from
// a given seed. Use if you have a strong source of external randomness,
// or for deterministic keys in test cases.
func PrivKeyEd25519FromSeed(seed []byte) PrivateKey {
	return PrivateKey(ed25519.NewKeyFromSeed(seed))
}
