package swap

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/swapkeep"
	"github.com/iov-one/swapkeep/codec"
	"github.com/iov-one/swapkeep/coin"
	"github.com/iov-one/swapkeep/errors"
	"github.com/iov-one/swapkeep/gconf"
)

const packageName = "swap"

// Configuration fixes the parties and the assets of the escrow. It is set
// once from the genesis file and never changes.
type Configuration struct {
	// Escrow is the address that holds deposited assets in custody.
	Escrow swapkeep.Address `protobuf:"bytes,1,opt,name=escrow,proto3" json:"escrow"`
	// FungibleDepositor is the only party allowed to deposit tokens.
	FungibleDepositor swapkeep.Address `protobuf:"bytes,2,opt,name=fungible_depositor,proto3" json:"fungible_depositor"`
	// UniqueDepositor is the only party allowed to deposit the asset.
	UniqueDepositor swapkeep.Address `protobuf:"bytes,3,opt,name=unique_depositor,proto3" json:"unique_depositor"`
	Amount          *coin.Coin       `protobuf:"bytes,4,opt,name=amount,proto3" json:"amount"`
	AssetID         string           `protobuf:"bytes,5,opt,name=asset_id,proto3" json:"asset_id"`
	// Timeout is how long a one sided round may stay open before the
	// deposit becomes eligible for a refund.
	Timeout swapkeep.Duration `protobuf:"varint,6,opt,name=timeout,proto3" json:"timeout"`
}

func (m *Configuration) Reset()         { *m = Configuration{} }
func (m *Configuration) String() string { return proto.CompactTextString(m) }
func (*Configuration) ProtoMessage()    {}

func (m *Configuration) Marshal() ([]byte, error) {
	var e codec.Encoder
	e.Bytes(1, m.Escrow)
	e.Bytes(2, m.FungibleDepositor)
	e.Bytes(3, m.UniqueDepositor)
	if m.Amount != nil {
		e.Message(4, m.Amount)
	}
	e.String(5, m.AssetID)
	e.Int64(6, int64(m.Timeout))
	return e.Result()
}

func (m *Configuration) Unmarshal(raw []byte) error {
	*m = Configuration{}
	return codec.Decode(raw, func(f codec.Field) (err error) {
		switch f.Num {
		case 1:
			m.Escrow, err = f.Bytes()
		case 2:
			m.FungibleDepositor, err = f.Bytes()
		case 3:
			m.UniqueDepositor, err = f.Bytes()
		case 4:
			m.Amount = new(coin.Coin)
			err = f.Message(m.Amount)
		case 5:
			m.AssetID, err = f.Text()
		case 6:
			var d int64
			d, err = f.Int64()
			m.Timeout = swapkeep.Duration(d)
		}
		return err
	})
}

// Validate returns all problems found, each reported as a field error.
func (m *Configuration) Validate() error {
	var errs error
	if err := m.Escrow.Validate(); err != nil {
		errs = errors.AppendField(errs, "Escrow", err)
	}
	if err := m.FungibleDepositor.Validate(); err != nil {
		errs = errors.AppendField(errs, "FungibleDepositor", err)
	}
	if err := m.UniqueDepositor.Validate(); err != nil {
		errs = errors.AppendField(errs, "UniqueDepositor", err)
	}
	if m.FungibleDepositor.Equals(m.UniqueDepositor) {
		errs = errors.AppendField(errs, "UniqueDepositor",
			errors.Wrap(errors.ErrInput, "depositors must be different"))
	}
	if m.Escrow.Equals(m.FungibleDepositor) || m.Escrow.Equals(m.UniqueDepositor) {
		errs = errors.AppendField(errs, "Escrow",
			errors.Wrap(errors.ErrInput, "escrow cannot be a depositor"))
	}
	switch {
	case m.Amount == nil:
		errs = errors.AppendField(errs, "Amount", errors.ErrEmpty)
	case m.Amount.Validate() != nil:
		errs = errors.AppendField(errs, "Amount", m.Amount.Validate())
	case !m.Amount.IsPositive():
		errs = errors.AppendField(errs, "Amount", errors.Wrap(errors.ErrAmount, "must be positive"))
	}
	if n := len(m.AssetID); n < 3 || n > 256 {
		errs = errors.AppendField(errs, "AssetID", errors.Wrapf(errors.ErrInput, "length %d", n))
	}
	if m.Timeout <= 0 {
		errs = errors.AppendField(errs, "Timeout", errors.Wrap(errors.ErrInput, "must be positive"))
	}
	return errs
}

// LoadConfiguration reads the escrow configuration from the store.
func LoadConfiguration(db gconf.ReadStore) (Configuration, error) {
	var conf Configuration
	if err := gconf.Load(db, packageName, &conf); err != nil {
		return conf, errors.Wrap(err, "load swap configuration")
	}
	return conf, nil
}

// EscrowCondition returns the condition that the escrow custody address
// is derived from. Nobody can sign for it.
func EscrowCondition(id []byte) swapkeep.Condition {
	return swapkeep.NewCondition("swap", "escrow", id)
}
