package server

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/iov-one/swapkeep"
	"github.com/iov-one/swapkeep/errors"
	"github.com/iov-one/swapkeep/eventlog"
	api "github.com/iov-one/swapkeep/server"
	"github.com/iov-one/swapkeep/store/iavl"
	"github.com/iov-one/swapkeep/upkeep"
	"github.com/iov-one/swapkeep/x/cash"
	"github.com/iov-one/swapkeep/x/nft"
	"github.com/iov-one/swapkeep/x/swap"
	"github.com/tendermint/tendermint/libs/log"
)

const (
	flagBind  = "bind"
	flagDebug = "debug"
)

const shutdownTimeout = 10 * time.Second

type startArgs struct {
	bind  string
	debug bool
}

func parseStartArgs(args []string) (startArgs, error) {
	var res startArgs
	startFlags := flag.NewFlagSet("start", flag.ContinueOnError)
	startFlags.StringVar(&res.bind, flagBind, "", "address the API listens on, overrides the configuration")
	startFlags.BoolVar(&res.debug, flagDebug, false, "log at debug level")
	if err := startFlags.Parse(args); err != nil {
		return res, errors.Wrap(errors.ErrInput, err.Error())
	}
	return res, nil
}

// StartCmd loads the state of the home directory and serves the escrow
// until the process is interrupted.
func StartCmd(logger log.Logger, home string, args []string) error {
	a, err := parseStartArgs(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conf, err := LoadConfig(ctx, home, nil)
	if a.bind != "" {
		conf.Listen = a.bind
	}
	if a.debug {
		conf.LogLevel = "debug"
	}
	if err != nil {
		return errors.Wrap(err, "configuration")
	}
	logger, err = FilterLogger(logger, conf.LogLevel)
	if err != nil {
		return err
	}

	app, err := NewApp(ctx, conf, home, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	logger.Info("Starting swapkeep", "listen", conf.Listen, "version", swapkeep.Version())
	return app.Run(ctx)
}

// App wires the escrow with its storage, the event journals, the upkeep
// runner and the HTTP API.
type App struct {
	logger  log.Logger
	store   iavl.CommitStore
	escrow  *swap.Escrow
	api     *api.Server
	runner  *upkeep.Runner
	closers []func()
}

// NewApp opens the state of the home directory. A fresh state is
// initialized from the genesis file.
func NewApp(ctx context.Context, conf Config, home string, logger log.Logger) (*App, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	db, err := openStore(conf, home)
	if err != nil {
		return nil, err
	}
	app := &App{
		logger:  logger,
		store:   db,
		closers: []func(){db.Close},
	}

	kv := db.AutoCommit()
	if err := initStore(db, kv, filepath.Join(home, genesisFile), logger); err != nil {
		app.Close()
		return nil, err
	}
	swapConf, err := swap.LoadConfiguration(kv)
	if err != nil {
		app.Close()
		return nil, err
	}

	ctrl := cash.NewController()
	reg := nft.NewRegistry()
	esc, err := swap.NewEscrow(kv, swap.NewCashLedger(ctrl, *swapConf.Amount), reg)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.escrow = esc

	metrics := api.NewMetrics()
	memory := eventlog.NewMemory(conf.EventsLimit)
	esc.Subscribe(metrics)
	esc.Subscribe(memory)

	var journal eventlog.Journal = memory
	if conf.PostgresDSN != "" {
		pg, err := eventlog.NewPostgres(ctx, conf.PostgresDSN)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.closers = append(app.closers, pg.Close)
		esc.Subscribe(pg)
		journal = pg
	}

	app.api = api.New(esc, ctrl, reg, api.Options{
		Addr:    conf.Listen,
		MaxSkew: conf.MaxSkew,
		Logger:  logger,
		Journal: journal,
		Metrics: metrics,
	})
	app.runner = upkeep.NewRunner(esc, conf.PollInterval,
		upkeep.WithLogger(logger),
		upkeep.WithNotReady(swap.ErrUpkeepNotReady.Is),
		upkeep.WithObserver(metrics.ObserveUpkeep),
	)
	return app, nil
}

func openStore(conf Config, home string) (iavl.CommitStore, error) {
	switch conf.DBBackend {
	case BackendMemDB:
		return iavl.NewMemCommitStore(), nil
	case BackendGoLevelDB:
		return iavl.NewCommitStore(filepath.Join(home, dataDir), "swapkeep")
	default:
		return iavl.CommitStore{}, errors.Wrapf(errors.ErrInput, "unknown backend %q", conf.DBBackend)
	}
}

// initStore loads the genesis into a store that was never committed.
func initStore(db iavl.CommitStore, kv swapkeep.CacheableKVStore, genFile string, logger log.Logger) error {
	id, err := db.LatestVersion()
	if err != nil {
		return err
	}
	if id.Version > 0 {
		logger.Info("Loaded state", "version", id.Version)
		return nil
	}

	opts, err := readGenesis(genFile)
	if err != nil {
		return err
	}
	cache := kv.CacheWrap()
	if err := GenesisInitializer().FromGenesis(opts, cache); err != nil {
		cache.Discard()
		return errors.Wrap(err, "cannot initialize from genesis")
	}
	if err := cache.Write(); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	logger.Info("Initialized state from genesis", "path", genFile)
	return nil
}

// Escrow returns the escrow served by the application.
func (a *App) Escrow() *swap.Escrow {
	return a.escrow
}

// Handler returns the HTTP API handler.
func (a *App) Handler() http.Handler {
	return a.api.Handler()
}

// Run serves the API and runs the upkeep until the context is cancelled or
// the API fails.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errc := make(chan error, 2)
	go func() { errc <- a.api.Start() }()
	go func() { errc <- a.runner.Run(ctx) }()

	var err error
	pending := 2
	select {
	case <-ctx.Done():
	case err = <-errc:
		pending--
	}
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if serr := a.api.Shutdown(shutdownCtx); serr != nil && err == nil {
		err = serr
	}
	for ; pending > 0; pending-- {
		if rerr := <-errc; rerr != nil && err == nil {
			err = rerr
		}
	}
	return err
}

// Close releases the store and the journals.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
