package swapkeep

import (
	"context"
	"time"

	"github.com/iov-one/swapkeep/errors"
	"github.com/tendermint/tendermint/libs/log"
)

type contextKey int // local to the swapkeep module

const (
	contextKeyLogger contextKey = iota
	contextKeyBlockTime
)

var (
	// DefaultLogger is used for all context that have not
	// set anything themselves
	DefaultLogger = log.NewNopLogger()
)

// WithBlockTime returns a context that carries given time as the "now" of
// the current execution. All time based decisions (timeouts, expiration)
// must be taken using this value instead of the system clock, so that a
// single operation sees one consistent point in time.
func WithBlockTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, contextKeyBlockTime, t)
}

// BlockTime returns the time of the current execution as declared in the
// context. It returns an error if the time was not set.
func BlockTime(ctx context.Context) (time.Time, error) {
	t, ok := ctx.Value(contextKeyBlockTime).(time.Time)
	if !ok {
		return t, errors.Wrap(errors.ErrHuman, "block time not present in the context")
	}
	return t, nil
}

// IsExpired returns true if given time is in the past as compared to the
// "now" as declared in the context. Expiration is inclusive, meaning that
// if current time is equal to the expiration time than this function
// returns true.
//
// This function panic if the block time is not provided in the context.
// This must never happen. The panic is here to prevent from broken setup
// to be processing data incorrectly.
func IsExpired(ctx context.Context, t UnixTime) bool {
	now, err := BlockTime(ctx)
	if err != nil {
		panic(err)
	}
	return t <= AsUnixTime(now)
}

// WithLogger sets the logger for this context.
func WithLogger(ctx context.Context, logger log.Logger) context.Context {
	return context.WithValue(ctx, contextKeyLogger, logger)
}

// WithLogInfo accepts keyvalue pairs, and returns another context like
// this, after passing all the keyvals to the Logger.
func WithLogInfo(ctx context.Context, keyvals ...interface{}) context.Context {
	logger := GetLogger(ctx).With(keyvals...)
	return WithLogger(ctx, logger)
}

// GetLogger returns the currently set logger, or DefaultLogger if none
// was set.
func GetLogger(ctx context.Context) log.Logger {
	if l, ok := ctx.Value(contextKeyLogger).(log.Logger); ok {
		return l
	}
	return DefaultLogger
}
