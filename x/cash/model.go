package cash

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/swapkeep"
	"github.com/iov-one/swapkeep/codec"
	"github.com/iov-one/swapkeep/coin"
	"github.com/iov-one/swapkeep/errors"
	"github.com/iov-one/swapkeep/orm"
)

// Wallet holds all coins owned by a single address.
type Wallet struct {
	Coins []*coin.Coin `protobuf:"bytes,1,rep,name=coins,proto3" json:"coins,omitempty"`
}

func (m *Wallet) Reset()         { *m = Wallet{} }
func (m *Wallet) String() string { return proto.CompactTextString(m) }
func (*Wallet) ProtoMessage()    {}

func (m *Wallet) Marshal() ([]byte, error) {
	var e codec.Encoder
	for _, c := range m.Coins {
		e.Message(1, c)
	}
	return e.Result()
}

func (m *Wallet) Unmarshal(raw []byte) error {
	*m = Wallet{}
	return codec.Decode(raw, func(f codec.Field) error {
		if f.Num != 1 {
			return nil
		}
		var c coin.Coin
		if err := f.Message(&c); err != nil {
			return err
		}
		m.Coins = append(m.Coins, &c)
		return nil
	})
}

// Validate requires a normalized, non negative set of coins.
func (m *Wallet) Validate() error {
	cs := coin.Coins(m.Coins)
	if err := cs.Validate(); err != nil {
		return err
	}
	if !cs.IsNonNegative() {
		return errors.Wrap(errors.ErrAmount, "negative wallet balance")
	}
	return nil
}

var _ orm.Model = (*Wallet)(nil)

// Allowance is the amount a spender may still move out of the owner's
// wallet.
type Allowance struct {
	Amount *coin.Coin `protobuf:"bytes,1,opt,name=amount,proto3" json:"amount,omitempty"`
}

func (m *Allowance) Reset()         { *m = Allowance{} }
func (m *Allowance) String() string { return proto.CompactTextString(m) }
func (*Allowance) ProtoMessage()    {}

func (m *Allowance) Marshal() ([]byte, error) {
	var e codec.Encoder
	if m.Amount != nil {
		e.Message(1, m.Amount)
	}
	return e.Result()
}

func (m *Allowance) Unmarshal(raw []byte) error {
	*m = Allowance{}
	return codec.Decode(raw, func(f codec.Field) error {
		if f.Num != 1 {
			return nil
		}
		m.Amount = new(coin.Coin)
		return f.Message(m.Amount)
	})
}

func (m *Allowance) Validate() error {
	if m.Amount == nil {
		return errors.Wrap(errors.ErrEmpty, "amount")
	}
	if err := m.Amount.Validate(); err != nil {
		return err
	}
	if !m.Amount.IsPositive() {
		return errors.Wrap(errors.ErrAmount, "allowance must be positive")
	}
	return nil
}

var _ orm.Model = (*Allowance)(nil)

// allowanceKey is <owner><spender><ticker>. Addresses have a fixed length,
// so the key is unambiguous.
func allowanceKey(owner, spender swapkeep.Address, ticker string) []byte {
	key := make([]byte, 0, len(owner)+len(spender)+len(ticker))
	key = append(key, owner...)
	key = append(key, spender...)
	return append(key, ticker...)
}
