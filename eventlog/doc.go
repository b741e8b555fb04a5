// Package eventlog keeps a journal of escrow events. Memory keeps the most
// recent events of the running process, Postgres persists all of them.
package eventlog

import (
	"context"

	"github.com/iov-one/swapkeep/x/swap"
)

// Journal records escrow events and returns the most recent ones.
type Journal interface {
	swap.EventListener
	Recent(ctx context.Context, n int) ([]swap.Event, error)
}

var (
	_ Journal = (*Memory)(nil)
	_ Journal = (*Postgres)(nil)
)
