package swap

import (
	"context"
	"fmt"

	"github.com/iov-one/swapkeep"
	"github.com/iov-one/swapkeep/coin"
	"github.com/tendermint/tendermint/libs/common"
)

// EventKind names what happened to the escrow.
type EventKind string

const (
	EventDepositReceived  EventKind = "deposit_received"
	EventDepositWithdrawn EventKind = "deposit_withdrawn"
	EventSwapExecuted     EventKind = "swap_executed"
	EventRoundCancelled   EventKind = "round_cancelled"
)

// Side identifies one of the two deposits.
type Side string

const (
	SideFungible Side = "fungible"
	SideUnique   Side = "unique"
)

// Event is a notification about a committed change of the escrow. Events
// are numbered with a persistent, increasing sequence.
type Event struct {
	Sequence int64             `json:"sequence"`
	Kind     EventKind         `json:"kind"`
	Time     swapkeep.UnixTime `json:"time"`

	// Side and Party are set for deposits, withdrawals and cancellations.
	// Party is the depositor or the refunded party.
	Side  Side             `json:"side,omitempty"`
	Party swapkeep.Address `json:"party,omitempty"`

	// FungibleRecipient receives the tokens and UniqueRecipient receives
	// the asset of an executed swap.
	FungibleRecipient swapkeep.Address `json:"fungible_recipient,omitempty"`
	UniqueRecipient   swapkeep.Address `json:"unique_recipient,omitempty"`

	Amount  *coin.Coin `json:"amount,omitempty"`
	AssetID string     `json:"asset_id,omitempty"`
}

// Tags returns the event attributes as key value pairs, ready to be
// attached to a log line or an index.
func (e Event) Tags() []common.KVPair {
	tags := []common.KVPair{
		{Key: []byte("kind"), Value: []byte(e.Kind)},
		{Key: []byte("sequence"), Value: []byte(fmt.Sprint(e.Sequence))},
	}
	add := func(k string, v []byte) {
		if len(v) != 0 {
			tags = append(tags, common.KVPair{Key: []byte(k), Value: v})
		}
	}
	add("side", []byte(e.Side))
	add("party", addrTag(e.Party))
	add("fungible_recipient", addrTag(e.FungibleRecipient))
	add("unique_recipient", addrTag(e.UniqueRecipient))
	if e.Amount != nil {
		add("amount", []byte(e.Amount.String()))
	}
	add("asset_id", []byte(e.AssetID))
	return tags
}

func addrTag(a swapkeep.Address) []byte {
	if len(a) == 0 {
		return nil
	}
	return []byte(a.String())
}

// EventListener is notified about every committed event, in commit order.
// OnEvent is called while the escrow is locked and must not call back into
// the escrow.
type EventListener interface {
	OnEvent(ctx context.Context, e Event)
}

// EventListenerFunc adapts a function to the EventListener interface.
type EventListenerFunc func(ctx context.Context, e Event)

func (fn EventListenerFunc) OnEvent(ctx context.Context, e Event) {
	fn(ctx, e)
}
