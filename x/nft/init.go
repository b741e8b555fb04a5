package nft

import (
	"github.com/iov-one/swapkeep"
	"github.com/iov-one/swapkeep/errors"
)

const optKey = "nft"

// GenesisToken is used to parse the json from genesis file.
type GenesisToken struct {
	ID    string           `json:"id"`
	Owner swapkeep.Address `json:"owner"`
}

// Initializer fulfils the Initializer interface to load data from
// the genesis file
type Initializer struct{}

var _ swapkeep.Initializer = Initializer{}

// FromGenesis mints all tokens declared in the genesis file.
func (Initializer) FromGenesis(opts swapkeep.Options, kv swapkeep.KVStore) error {
	var tokens []GenesisToken
	if err := opts.ReadOptions(optKey, &tokens); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	reg := NewRegistry()
	for _, t := range tokens {
		if err := reg.Mint(kv, []byte(t.ID), t.Owner); err != nil {
			return errors.Wrapf(err, "token %q", t.ID)
		}
	}
	return nil
}
