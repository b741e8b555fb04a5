package server

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"time"

	"github.com/iov-one/swapkeep/errors"
	"github.com/sethvargo/go-envconfig"
	"github.com/tendermint/tendermint/libs/log"
	"gopkg.in/yaml.v3"
)

const (
	configFile  = "config.yaml"
	genesisFile = "genesis.json"
	dataDir     = "data"

	// EnvPrefix is the prefix of environment variables overriding the
	// configuration file.
	EnvPrefix = "SWAPKEEP_"
)

const (
	BackendMemDB     = "memdb"
	BackendGoLevelDB = "goleveldb"
)

// Config is the daemon configuration. It is read from config.yaml in the
// home directory and each value can be overridden by an environment
// variable.
type Config struct {
	Listen       string        `yaml:"listen" env:"LISTEN,overwrite"`
	PollInterval time.Duration `yaml:"poll_interval" env:"POLL_INTERVAL,overwrite"`
	LogLevel     string        `yaml:"log_level" env:"LOG_LEVEL,overwrite"`
	DBBackend    string        `yaml:"db_backend" env:"DB_BACKEND,overwrite"`
	// PostgresDSN enables the persistent event journal when set.
	PostgresDSN string        `yaml:"postgres_dsn,omitempty" env:"POSTGRES_DSN,overwrite"`
	MaxSkew     time.Duration `yaml:"max_skew" env:"MAX_SKEW,overwrite"`
	EventsLimit int           `yaml:"events_limit" env:"EVENTS_LIMIT,overwrite"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		Listen:       "localhost:8080",
		PollInterval: 5 * time.Second,
		LogLevel:     "info",
		DBBackend:    BackendGoLevelDB,
		MaxSkew:      time.Minute,
		EventsLimit:  1000,
	}
}

// Validate returns an error if the configuration cannot be used.
func (c Config) Validate() error {
	var errs error
	if c.Listen == "" {
		errs = errors.AppendField(errs, "Listen", errors.ErrEmpty)
	}
	if c.PollInterval <= 0 {
		errs = errors.AppendField(errs, "PollInterval", errors.Wrap(errors.ErrInput, "must be positive"))
	}
	if _, err := log.AllowLevel(c.LogLevel); err != nil {
		errs = errors.AppendField(errs, "LogLevel", errors.Wrap(errors.ErrInput, err.Error()))
	}
	switch c.DBBackend {
	case BackendMemDB, BackendGoLevelDB:
	default:
		errs = errors.AppendField(errs, "DBBackend", errors.Wrapf(errors.ErrInput, "unknown backend %q", c.DBBackend))
	}
	if c.MaxSkew <= 0 {
		errs = errors.AppendField(errs, "MaxSkew", errors.Wrap(errors.ErrInput, "must be positive"))
	}
	if c.EventsLimit <= 0 {
		errs = errors.AppendField(errs, "EventsLimit", errors.Wrap(errors.ErrInput, "must be positive"))
	}
	return errs
}

// LoadConfig reads the configuration from the home directory, applies the
// overrides found by the lookuper and validates the result. A missing
// configuration file is not an error.
func LoadConfig(ctx context.Context, home string, l envconfig.Lookuper) (Config, error) {
	conf := DefaultConfig()
	raw, err := ioutil.ReadFile(filepath.Join(home, configFile))
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, &conf); err != nil {
			return conf, errors.Wrapf(errors.ErrInput, "parse %s: %s", configFile, err)
		}
	case os.IsNotExist(err):
	default:
		return conf, errors.Wrapf(errors.ErrInput, "read %s: %s", configFile, err)
	}

	if l == nil {
		l = envconfig.OsLookuper()
	}
	if err := envconfig.ProcessWith(ctx, &conf, envconfig.PrefixLookuper(EnvPrefix, l)); err != nil {
		return conf, errors.Wrapf(errors.ErrInput, "environment: %s", err)
	}
	return conf, conf.Validate()
}

// SaveConfig writes the configuration into the home directory.
func SaveConfig(home string, conf Config) error {
	raw, err := yaml.Marshal(conf)
	if err != nil {
		return errors.Wrap(errors.ErrInput, err.Error())
	}
	return ioutil.WriteFile(filepath.Join(home, configFile), raw, 0600)
}

// FilterLogger drops the entries of the logger below given level.
func FilterLogger(logger log.Logger, level string) (log.Logger, error) {
	opt, err := log.AllowLevel(level)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInput, err.Error())
	}
	return log.NewFilter(logger, opt), nil
}
