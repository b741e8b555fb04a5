package swap

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/swapkeep"
	"github.com/iov-one/swapkeep/codec"
	"github.com/iov-one/swapkeep/coin"
	"github.com/iov-one/swapkeep/errors"
	"github.com/iov-one/swapkeep/orm"
)

// EscrowRecord is the state of the current round. There is only one record
// per escrow and it is reused after each round.
type EscrowRecord struct {
	// FungibleHeld is the amount of tokens in custody. It is either nil or
	// exactly the configured amount.
	FungibleHeld *coin.Coin `protobuf:"bytes,1,opt,name=fungible_held,proto3" json:"fungible_held,omitempty"`
	// UniqueHeld is true when the configured asset is in custody.
	UniqueHeld bool `protobuf:"varint,2,opt,name=unique_held,proto3" json:"unique_held"`
	// LastActivity is the time of the most recent accepted deposit. It
	// never moves backwards.
	LastActivity swapkeep.UnixTime `protobuf:"varint,3,opt,name=last_activity,proto3" json:"last_activity"`
}

func (m *EscrowRecord) Reset()         { *m = EscrowRecord{} }
func (m *EscrowRecord) String() string { return proto.CompactTextString(m) }
func (*EscrowRecord) ProtoMessage()    {}

func (m *EscrowRecord) Marshal() ([]byte, error) {
	var e codec.Encoder
	if m.FungibleHeld != nil {
		e.Message(1, m.FungibleHeld)
	}
	e.Bool(2, m.UniqueHeld)
	e.Int64(3, int64(m.LastActivity))
	return e.Result()
}

func (m *EscrowRecord) Unmarshal(raw []byte) error {
	*m = EscrowRecord{}
	return codec.Decode(raw, func(f codec.Field) (err error) {
		switch f.Num {
		case 1:
			m.FungibleHeld = new(coin.Coin)
			err = f.Message(m.FungibleHeld)
		case 2:
			m.UniqueHeld, err = f.Bool()
		case 3:
			var t int64
			t, err = f.Int64()
			m.LastActivity = swapkeep.UnixTime(t)
		}
		return err
	})
}

func (m *EscrowRecord) Validate() error {
	if m.FungibleHeld != nil {
		if err := m.FungibleHeld.Validate(); err != nil {
			return errors.Field("FungibleHeld", err, "invalid coin")
		}
		if !m.FungibleHeld.IsPositive() {
			return errors.Field("FungibleHeld", errors.ErrAmount, "must be positive")
		}
	}
	if m.LastActivity < 0 {
		return errors.Field("LastActivity", errors.ErrInput, "negative time")
	}
	return nil
}

var _ orm.Model = (*EscrowRecord)(nil)

// HasFungible returns true if tokens are in custody.
func (m *EscrowRecord) HasFungible() bool {
	return !coin.IsEmpty(m.FungibleHeld)
}

// Sides returns the number of deposited sides.
func (m *EscrowRecord) Sides() int {
	n := 0
	if m.HasFungible() {
		n++
	}
	if m.UniqueHeld {
		n++
	}
	return n
}

// Clone returns an independent copy of the record.
func (m *EscrowRecord) Clone() *EscrowRecord {
	c := *m
	c.FungibleHeld = m.FungibleHeld.Clone()
	return &c
}

// Action is the work that the escrow declares due.
type Action int32

const (
	ActionNone Action = iota
	// ActionSwap exchanges both deposits.
	ActionSwap
	// ActionCancel refunds the only deposit after the timeout.
	ActionCancel
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionSwap:
		return "swap"
	case ActionCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// UpkeepPayload is returned by IsActionDue and passed back to
// PerformAction.
type UpkeepPayload struct {
	Action Action `protobuf:"varint,1,opt,name=action,proto3" json:"action"`
}

func (m *UpkeepPayload) Reset()         { *m = UpkeepPayload{} }
func (m *UpkeepPayload) String() string { return proto.CompactTextString(m) }
func (*UpkeepPayload) ProtoMessage()    {}

func (m *UpkeepPayload) Marshal() ([]byte, error) {
	var e codec.Encoder
	e.Int64(1, int64(m.Action))
	return e.Result()
}

func (m *UpkeepPayload) Unmarshal(raw []byte) error {
	*m = UpkeepPayload{}
	return codec.Decode(raw, func(f codec.Field) error {
		if f.Num != 1 {
			return nil
		}
		a, err := f.Int64()
		m.Action = Action(a)
		return err
	})
}
