package swaptest

import (
	"github.com/iov-one/swapkeep/crypto"
)

// NewKey returns a freshly generated ed25519 private key.
func NewKey() crypto.PrivateKey {
	return crypto.GenPrivKeyEd25519()
}
