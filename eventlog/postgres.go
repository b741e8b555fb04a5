package eventlog

import (
	"context"
	"encoding/json"

	"github.com/iov-one/swapkeep"
	"github.com/iov-one/swapkeep/errors"
	"github.com/iov-one/swapkeep/x/swap"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS swap_events (
    sequence BIGINT PRIMARY KEY,
    kind TEXT NOT NULL,
    happened_at BIGINT NOT NULL,
    payload JSONB NOT NULL
);
`

// Postgres persists events in the swap_events table. Events are keyed by
// their sequence, so replaying an event is a no-op.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ swap.EventListener = (*Postgres)(nil)

// NewPostgres connects to Postgres using the DSN and ensures the table
// exists.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	if dsn == "" {
		return nil, errors.Wrap(errors.ErrEmpty, "postgres dsn")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrapf(errors.ErrDatabase, "ping: %s", err)
	}
	if _, err := pool.Exec(ctx, createTableSQL); err != nil {
		pool.Close()
		return nil, errors.Wrapf(errors.ErrDatabase, "create table: %s", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close releases all connections.
func (p *Postgres) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

// Ping checks the database connection.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// OnEvent stores the event. The escrow state is already committed at this
// point, so a failure is only logged.
func (p *Postgres) OnEvent(ctx context.Context, e swap.Event) {
	if err := p.Save(ctx, e); err != nil {
		swapkeep.GetLogger(ctx).Error("cannot store event", "sequence", e.Sequence, "err", err)
	}
}

// Save stores the event unless an event with the same sequence exists.
func (p *Postgres) Save(ctx context.Context, e swap.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return errors.Wrapf(errors.ErrModel, "marshal event: %s", err)
	}
	_, err = p.pool.Exec(ctx, `
INSERT INTO swap_events (sequence, kind, happened_at, payload)
VALUES ($1, $2, $3, $4)
ON CONFLICT (sequence) DO NOTHING
`, e.Sequence, string(e.Kind), int64(e.Time), payload)
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

// Recent returns up to n newest events, oldest first.
func (p *Postgres) Recent(ctx context.Context, n int) ([]swap.Event, error) {
	rows, err := p.pool.Query(ctx, `
SELECT payload FROM (
    SELECT sequence, payload FROM swap_events ORDER BY sequence DESC LIMIT $1
) AS recent ORDER BY sequence ASC
`, n)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	defer rows.Close()

	var res []swap.Event
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, errors.Wrap(errors.ErrDatabase, err.Error())
		}
		var e swap.Event
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, errors.Wrapf(errors.ErrModel, "unmarshal event: %s", err)
		}
		res = append(res, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return res, nil
}
