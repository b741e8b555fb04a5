package swap

import (
	"github.com/iov-one/swapkeep"
	"github.com/iov-one/swapkeep/gconf"
)

// Initializer fulfils the Initializer interface to load the escrow
// configuration from the "conf.swap" section of the genesis file.
type Initializer struct{}

var _ swapkeep.Initializer = Initializer{}

// FromGenesis validates and stores the escrow configuration.
func (Initializer) FromGenesis(opts swapkeep.Options, db swapkeep.KVStore) error {
	var conf Configuration
	return gconf.InitConfig(db, opts, packageName, &conf)
}
