package server

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"io/ioutil"
	"os"
	"path/filepath"
	"time"

	"github.com/iov-one/swapkeep"
	"github.com/iov-one/swapkeep/coin"
	"github.com/iov-one/swapkeep/crypto"
	"github.com/iov-one/swapkeep/errors"
	"github.com/iov-one/swapkeep/x/cash"
	"github.com/iov-one/swapkeep/x/nft"
	"github.com/iov-one/swapkeep/x/swap"
	"github.com/tendermint/tendermint/libs/log"
)

const (
	flagAmount  = "amount"
	flagAsset   = "asset"
	flagTimeout = "timeout"
	flagSupply  = "supply"
)

// Key files are written into the keys directory of the home directory.
const (
	keysDir         = "keys"
	fungibleKeyFile = "fungible.key"
	uniqueKeyFile   = "unique.key"
)

// GenesisDoc is the content of the genesis file.
type GenesisDoc struct {
	AppState swapkeep.Options `json:"app_state"`
}

type initArgs struct {
	amount  coin.Coin
	supply  coin.Coin
	asset   string
	timeout time.Duration
}

func parseInitArgs(args []string) (initArgs, error) {
	res := initArgs{
		amount: coin.NewCoin(1000, "IOV"),
		supply: coin.NewCoin(10000, "IOV"),
	}
	initFlags := flag.NewFlagSet("init", flag.ContinueOnError)
	initFlags.Var(&res.amount, flagAmount, "amount of tokens traded for the asset")
	initFlags.Var(&res.supply, flagSupply, "tokens issued to the fungible depositor")
	initFlags.StringVar(&res.asset, flagAsset, "asset-1", "id of the traded unique asset")
	initFlags.DurationVar(&res.timeout, flagTimeout, time.Hour, "inactivity timeout of a round")
	if err := initFlags.Parse(args); err != nil {
		return res, errors.Wrap(errors.ErrInput, err.Error())
	}
	if !res.supply.IsGTE(res.amount) {
		return res, errors.Wrap(errors.ErrAmount, "supply must cover the traded amount")
	}
	return res, nil
}

// InitCmd creates the home directory with a default configuration, a
// genesis file and the keys of both depositors. The fungible depositor is
// issued the token supply and the unique depositor owns the asset. Existing
// files are never overwritten.
func InitCmd(logger log.Logger, home string, args []string) error {
	a, err := parseInitArgs(args)
	if err != nil {
		return err
	}
	genFile := filepath.Join(home, genesisFile)
	if fileExists(genFile) {
		return errors.Wrapf(errors.ErrDuplicate, "genesis file %s already exists", genFile)
	}
	if err := os.MkdirAll(filepath.Join(home, keysDir), 0700); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}

	fungible := crypto.GenPrivKeyEd25519()
	unique := crypto.GenPrivKeyEd25519()
	for name, key := range map[string]crypto.PrivateKey{fungibleKeyFile: fungible, uniqueKeyFile: unique} {
		path := filepath.Join(home, keysDir, name)
		if err := ioutil.WriteFile(path, []byte(hex.EncodeToString(key)), 0600); err != nil {
			return errors.Wrap(errors.ErrInput, err.Error())
		}
		logger.Info("Generated key", "path", path, "address", key.PublicKey().Address())
	}

	doc, err := GenerateGenesis(fungible.PublicKey().Address(), unique.PublicKey().Address(), a)
	if err != nil {
		return err
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	if err := ioutil.WriteFile(genFile, raw, 0600); err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	logger.Info("Generated genesis file", "path", genFile)

	confFile := filepath.Join(home, configFile)
	if fileExists(confFile) {
		logger.Info("Found config file", "path", confFile)
		return nil
	}
	if err := SaveConfig(home, DefaultConfig()); err != nil {
		return err
	}
	logger.Info("Generated config file", "path", confFile)
	return nil
}

// GenerateGenesis returns the genesis of an escrow between given
// depositors.
func GenerateGenesis(fungible, unique swapkeep.Address, a initArgs) (*GenesisDoc, error) {
	conf := swap.Configuration{
		Escrow:            swap.EscrowCondition([]byte{1}).Address(),
		FungibleDepositor: fungible,
		UniqueDepositor:   unique,
		Amount:            &a.amount,
		AssetID:           a.asset,
		Timeout:           swapkeep.AsDuration(a.timeout),
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	state := make(swapkeep.Options)
	if err := setOption(state, "cash", []cash.GenesisAccount{
		{Address: fungible, Coins: coin.Coins{&a.supply}},
	}); err != nil {
		return nil, err
	}
	if err := setOption(state, "nft", []nft.GenesisToken{
		{ID: a.asset, Owner: unique},
	}); err != nil {
		return nil, err
	}
	if err := setOption(state, "conf", map[string]interface{}{"swap": conf}); err != nil {
		return nil, err
	}
	return &GenesisDoc{AppState: state}, nil
}

func setOption(opts swapkeep.Options, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return errors.Wrapf(errors.ErrInput, "%s: %s", key, err)
	}
	opts[key] = raw
	return nil
}

// ReadKey loads a private key written by InitCmd.
func ReadKey(path string) (crypto.PrivateKey, error) {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrNotFound, err.Error())
	}
	key, err := hex.DecodeString(string(raw))
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, "cannot decode key")
	}
	if k := crypto.PrivateKey(key); k.PublicKey() != nil {
		return k, nil
	}
	return nil, errors.Wrap(errors.ErrInput, "invalid key length")
}

func fileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return !os.IsNotExist(err)
}
