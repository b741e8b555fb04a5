package swap

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iov-one/swapkeep"
	"github.com/iov-one/swapkeep/errors"
	"github.com/iov-one/swapkeep/orm"
	"github.com/tendermint/tendermint/libs/log"
)

var recordKey = []byte("round")

// Escrow is the state machine of a single token for asset exchange.
//
// All state changes are serialized by a mutex and executed in a cache wrap
// of the underlying store. Ledger transfers and the record update are
// written together or not at all. Readers use the last committed snapshot of
// the record and never wait for writers.
type Escrow struct {
	mu        sync.Mutex
	db        swapkeep.CacheableKVStore
	conf      Configuration
	ledger    FungibleLedger
	registry  UniqueRegistry
	records   orm.ModelBucket
	events    orm.Sequence
	listeners []EventListener

	// snapshot holds the last committed *EscrowRecord.
	snapshot atomic.Value
}

var _ swapkeep.Upkeep = (*Escrow)(nil)

// NewEscrow loads the configuration and the current round from the store.
// The configuration must have been initialized before, see Initializer.
func NewEscrow(db swapkeep.CacheableKVStore, ledger FungibleLedger, registry UniqueRegistry) (*Escrow, error) {
	conf, err := LoadConfiguration(db)
	if err != nil {
		return nil, err
	}
	e := &Escrow{
		db:       db,
		conf:     conf,
		ledger:   ledger,
		registry: registry,
		records:  orm.NewModelBucket("swap"),
		events:   orm.NewSequence("swap", "events"),
	}
	var rec EscrowRecord
	switch err := e.records.One(db, recordKey, &rec); {
	case err == nil:
	case errors.ErrNotFound.Is(err):
		// No deposit was ever made.
	default:
		return nil, errors.Wrap(err, "load escrow record")
	}
	e.snapshot.Store(&rec)
	return e, nil
}

// Subscribe registers a listener that is notified about all events
// committed from now on.
func (e *Escrow) Subscribe(l EventListener) {
	e.mu.Lock()
	e.listeners = append(e.listeners, l)
	e.mu.Unlock()
}

// Configuration returns the configuration the escrow was created with.
func (e *Escrow) Configuration() Configuration {
	c := e.conf
	c.Amount = e.conf.Amount.Clone()
	return c
}

// Record returns a copy of the last committed state of the round.
func (e *Escrow) Record() *EscrowRecord {
	return e.current().Clone()
}

func (e *Escrow) current() *EscrowRecord {
	return e.snapshot.Load().(*EscrowRecord)
}

// DepositFungible pulls the configured amount of tokens from the caller into
// the escrow custody. The caller must have authorized the escrow to spend
// that amount.
func (e *Escrow) DepositFungible(ctx context.Context, caller swapkeep.Address) error {
	return e.mutate(ctx, "deposit_fungible", func(db swapkeep.KVStore, rec *EscrowRecord, now swapkeep.UnixTime) ([]Event, error) {
		if !caller.Equals(e.conf.FungibleDepositor) {
			return nil, errors.Wrapf(errors.ErrUnauthorized, "%s is not the fungible depositor", caller)
		}
		if rec.HasFungible() {
			return nil, errors.Wrap(ErrAlreadyDeposited, "fungible side")
		}
		amount := *e.conf.Amount
		if err := e.ledger.TransferFrom(db, e.conf.Escrow, caller, e.conf.Escrow, amount); err != nil {
			return nil, errors.Wrapf(ErrTransferFailed, "pull %s: %s", amount, err)
		}
		rec.FungibleHeld = &amount
		rec.LastActivity = latest(rec.LastActivity, now)
		return []Event{{
			Kind:   EventDepositReceived,
			Side:   SideFungible,
			Party:  caller,
			Amount: &amount,
		}}, nil
	})
}

// DepositUniqueAsset moves the configured asset from the caller into the
// escrow custody. The caller must own the asset and must have approved the
// escrow to transfer it.
func (e *Escrow) DepositUniqueAsset(ctx context.Context, caller swapkeep.Address) error {
	return e.mutate(ctx, "deposit_unique", func(db swapkeep.KVStore, rec *EscrowRecord, now swapkeep.UnixTime) ([]Event, error) {
		if !caller.Equals(e.conf.UniqueDepositor) {
			return nil, errors.Wrapf(errors.ErrUnauthorized, "%s is not the unique asset depositor", caller)
		}
		if rec.UniqueHeld {
			return nil, errors.Wrap(ErrAlreadyDeposited, "unique side")
		}
		id := []byte(e.conf.AssetID)
		ok, err := e.registry.IsAuthorized(db, caller, id, e.conf.Escrow)
		if err != nil {
			return nil, errors.Wrapf(ErrTransferFailed, "asset %q: %s", e.conf.AssetID, err)
		}
		if !ok {
			return nil, errors.Wrapf(ErrTransferFailed, "asset %q not owned by the caller or escrow not approved", e.conf.AssetID)
		}
		if err := e.registry.Transfer(db, e.conf.Escrow, id, e.conf.Escrow); err != nil {
			return nil, errors.Wrapf(ErrTransferFailed, "pull asset %q: %s", e.conf.AssetID, err)
		}
		rec.UniqueHeld = true
		rec.LastActivity = latest(rec.LastActivity, now)
		return []Event{{
			Kind:    EventDepositReceived,
			Side:    SideUnique,
			Party:   caller,
			AssetID: e.conf.AssetID,
		}}, nil
	})
}

// DenyAndWithdraw returns the caller's deposit and clears that side of the
// round. The other side and the activity time are not changed.
func (e *Escrow) DenyAndWithdraw(ctx context.Context, caller swapkeep.Address) error {
	return e.mutate(ctx, "withdraw", func(db swapkeep.KVStore, rec *EscrowRecord, now swapkeep.UnixTime) ([]Event, error) {
		switch {
		case caller.Equals(e.conf.FungibleDepositor) && rec.HasFungible():
			ev, err := e.refundFungible(db, rec)
			if err != nil {
				return nil, err
			}
			ev.Kind = EventDepositWithdrawn
			return []Event{ev}, nil
		case caller.Equals(e.conf.UniqueDepositor) && rec.UniqueHeld:
			ev, err := e.refundUnique(db, rec)
			if err != nil {
				return nil, err
			}
			ev.Kind = EventDepositWithdrawn
			return []Event{ev}, nil
		default:
			return nil, errors.Wrapf(ErrNothingToWithdraw, "%s", caller)
		}
	})
}

// IsActionDue reports whether PerformAction has work to do. It reads the
// last committed state only and never blocks.
func (e *Escrow) IsActionDue(ctx context.Context) (bool, []byte) {
	ctx, _ = withBlockTime(ctx)
	action := e.dueAction(ctx, e.current())
	if action == ActionNone {
		return false, nil
	}
	payload, err := (&UpkeepPayload{Action: action}).Marshal()
	if err != nil {
		// A due action with no payload is still executed.
		return true, nil
	}
	return true, payload
}

// PerformAction executes the due action. The state is evaluated again and
// ErrUpkeepNotReady is returned when nothing is due anymore. The payload is
// only a hint: the action due now is executed even if the payload names
// another one or cannot be decoded.
func (e *Escrow) PerformAction(ctx context.Context, payload []byte) error {
	hint := ActionNone
	if len(payload) != 0 {
		var p UpkeepPayload
		if err := p.Unmarshal(payload); err != nil {
			swapkeep.GetLogger(ctx).Debug("ignoring upkeep payload", "module", "swap", "err", err)
		} else {
			hint = p.Action
		}
	}
	ctx, _ = withBlockTime(ctx)
	return e.mutate(ctx, "perform_action", func(db swapkeep.KVStore, rec *EscrowRecord, now swapkeep.UnixTime) ([]Event, error) {
		action := e.dueAction(ctx, rec)
		if action == ActionNone {
			return nil, errors.Wrap(ErrUpkeepNotReady, "no action due")
		}
		if hint != ActionNone && hint != action {
			swapkeep.GetLogger(ctx).Debug("stale upkeep payload", "module", "swap", "requested", hint, "due", action)
		}
		switch action {
		case ActionSwap:
			return e.swap(db, rec)
		default:
			return e.cancel(db, rec)
		}
	})
}

func (e *Escrow) swap(db swapkeep.KVStore, rec *EscrowRecord) ([]Event, error) {
	amount := *rec.FungibleHeld
	if err := e.ledger.TransferFrom(db, e.conf.Escrow, e.conf.Escrow, e.conf.UniqueDepositor, amount); err != nil {
		return nil, errors.Wrapf(ErrTransferFailed, "pay %s: %s", amount, err)
	}
	if err := e.registry.Transfer(db, e.conf.Escrow, []byte(e.conf.AssetID), e.conf.FungibleDepositor); err != nil {
		return nil, errors.Wrapf(ErrTransferFailed, "deliver asset %q: %s", e.conf.AssetID, err)
	}
	rec.FungibleHeld = nil
	rec.UniqueHeld = false
	return []Event{{
		Kind:              EventSwapExecuted,
		FungibleRecipient: e.conf.UniqueDepositor,
		UniqueRecipient:   e.conf.FungibleDepositor,
		Amount:            &amount,
		AssetID:           e.conf.AssetID,
	}}, nil
}

func (e *Escrow) cancel(db swapkeep.KVStore, rec *EscrowRecord) ([]Event, error) {
	var (
		ev  Event
		err error
	)
	if rec.HasFungible() {
		ev, err = e.refundFungible(db, rec)
	} else {
		ev, err = e.refundUnique(db, rec)
	}
	if err != nil {
		return nil, err
	}
	ev.Kind = EventRoundCancelled
	return []Event{ev}, nil
}

func (e *Escrow) refundFungible(db swapkeep.KVStore, rec *EscrowRecord) (Event, error) {
	amount := *rec.FungibleHeld
	if err := e.ledger.TransferFrom(db, e.conf.Escrow, e.conf.Escrow, e.conf.FungibleDepositor, amount); err != nil {
		return Event{}, errors.Wrapf(ErrTransferFailed, "return %s: %s", amount, err)
	}
	rec.FungibleHeld = nil
	return Event{Side: SideFungible, Party: e.conf.FungibleDepositor, Amount: &amount}, nil
}

func (e *Escrow) refundUnique(db swapkeep.KVStore, rec *EscrowRecord) (Event, error) {
	if err := e.registry.Transfer(db, e.conf.Escrow, []byte(e.conf.AssetID), e.conf.UniqueDepositor); err != nil {
		return Event{}, errors.Wrapf(ErrTransferFailed, "return asset %q: %s", e.conf.AssetID, err)
	}
	rec.UniqueHeld = false
	return Event{Side: SideUnique, Party: e.conf.UniqueDepositor, AssetID: e.conf.AssetID}, nil
}

// dueAction prefers the swap when both sides are held, regardless of the
// elapsed time. The context must declare the block time.
func (e *Escrow) dueAction(ctx context.Context, rec *EscrowRecord) Action {
	switch rec.Sides() {
	case 2:
		return ActionSwap
	case 1:
		if swapkeep.IsExpired(ctx, rec.LastActivity.Add(e.conf.Timeout.Duration())) {
			return ActionCancel
		}
	}
	return ActionNone
}

// Update executes fn in a cache wrap of the escrow store, serialized with
// all escrow operations. Changes are written only if fn succeeds.
func (e *Escrow) Update(ctx context.Context, fn func(db swapkeep.KVStore) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	cache := e.db.CacheWrap()
	if err := fn(cache); err != nil {
		cache.Discard()
		return err
	}
	if err := cache.Write(); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

// View executes fn with a read only access to the escrow store, serialized
// with all escrow operations.
func (e *Escrow) View(fn func(db swapkeep.ReadOnlyKVStore) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.db)
}

type mutation func(db swapkeep.KVStore, rec *EscrowRecord, now swapkeep.UnixTime) ([]Event, error)

// mutate runs fn on a copy of the current record inside a cache wrap. The
// record, the event sequence and all transfers done by fn are written only
// when fn succeeds. Events are published after the write.
func (e *Escrow) mutate(ctx context.Context, op string, fn mutation) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	logger := swapkeep.GetLogger(ctx).With("module", "swap", "op", op)
	ctx, now := withBlockTime(ctx)
	rec := e.current().Clone()
	cache := e.db.CacheWrap()

	events, err := fn(cache, rec, now)
	if err == nil {
		err = e.records.Put(cache, recordKey, rec)
	}
	for i := 0; err == nil && i < len(events); i++ {
		events[i].Time = now
		events[i].Sequence, err = e.events.NextInt(cache)
	}
	if err != nil {
		cache.Discard()
		logger.Debug("operation rejected", "err", err)
		return err
	}
	if err := cache.Write(); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}

	e.snapshot.Store(rec)
	logger.Info("operation committed", "fungible", rec.HasFungible(), "unique", rec.UniqueHeld)
	e.publish(ctx, logger, events)
	return nil
}

func (e *Escrow) publish(ctx context.Context, logger log.Logger, events []Event) {
	for _, ev := range events {
		tags := ev.Tags()
		kv := make([]interface{}, 0, 2*len(tags))
		for _, t := range tags {
			kv = append(kv, string(t.Key), string(t.Value))
		}
		logger.Debug("event", kv...)
		for _, l := range e.listeners {
			l.OnEvent(ctx, ev)
		}
	}
}

// withBlockTime returns the execution time declared in the context. A
// context without one gets the system clock time attached.
func withBlockTime(ctx context.Context) (context.Context, swapkeep.UnixTime) {
	if t, err := swapkeep.BlockTime(ctx); err == nil {
		return ctx, swapkeep.AsUnixTime(t)
	}
	now := time.Now()
	return swapkeep.WithBlockTime(ctx, now), swapkeep.AsUnixTime(now)
}

func latest(a, b swapkeep.UnixTime) swapkeep.UnixTime {
	if a > b {
		return a
	}
	return b
}
