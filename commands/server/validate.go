package server

import (
	"encoding/json"
	"io/ioutil"
	"path/filepath"

	"github.com/iov-one/swapkeep"
	"github.com/iov-one/swapkeep/errors"
	"github.com/iov-one/swapkeep/store"
	"github.com/iov-one/swapkeep/x/cash"
	"github.com/iov-one/swapkeep/x/nft"
	"github.com/iov-one/swapkeep/x/swap"
)

// GenesisInitializer loads the initial wallets, the tokens and the escrow
// configuration.
func GenesisInitializer() swapkeep.Initializer {
	return swapkeep.ChainInitializers(
		cash.Initializer{},
		nft.Initializer{},
		swap.Initializer{},
	)
}

// ValidateGenesis checks that each genesis file can be loaded.
func ValidateGenesis(ini swapkeep.Initializer, genesisPaths []string) error {
	for _, path := range genesisPaths {
		if err := validateGenesis(ini, path); err != nil {
			return errors.Wrap(err, path)
		}
	}
	return nil
}

func validateGenesis(ini swapkeep.Initializer, genesisPath string) error {
	opts, err := readGenesis(genesisPath)
	if err != nil {
		return err
	}
	// Use in memory store because we want to discard the result.
	db := store.MemStore()
	if err := ini.FromGenesis(opts, db); err != nil {
		return errors.Wrap(err, "cannot initialize from genesis")
	}
	if _, err := swap.LoadConfiguration(db); err != nil {
		return errors.Wrap(err, "escrow configuration")
	}
	return nil
}

func readGenesis(path string) (swapkeep.Options, error) {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "cannot read genesis file: %s", err)
	}
	var doc GenesisDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "cannot JSON deserialize genesis: %s", err)
	}
	return doc.AppState, nil
}

// ValidateCmd checks the genesis file of the home directory, or the files
// given as arguments.
func ValidateCmd(home string, args []string) error {
	paths := args
	if len(paths) == 0 {
		paths = []string{filepath.Join(home, genesisFile)}
	}
	return ValidateGenesis(GenesisInitializer(), paths)
}
