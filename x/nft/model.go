package nft

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/swapkeep"
	"github.com/iov-one/swapkeep/codec"
	"github.com/iov-one/swapkeep/errors"
	"github.com/iov-one/swapkeep/orm"
)

const (
	minIDLength = 3
	maxIDLength = 256
)

// Token is a single, unique asset.
type Token struct {
	ID       []byte           `protobuf:"bytes,1,opt,name=id,proto3" json:"id,omitempty"`
	Owner    swapkeep.Address `protobuf:"bytes,2,opt,name=owner,proto3" json:"owner,omitempty"`
	Approved swapkeep.Address `protobuf:"bytes,3,opt,name=approved,proto3" json:"approved,omitempty"`
}

func (m *Token) Reset()         { *m = Token{} }
func (m *Token) String() string { return proto.CompactTextString(m) }
func (*Token) ProtoMessage()    {}

func (m *Token) Marshal() ([]byte, error) {
	var e codec.Encoder
	e.Bytes(1, m.ID)
	e.Bytes(2, m.Owner)
	e.Bytes(3, m.Approved)
	return e.Result()
}

func (m *Token) Unmarshal(raw []byte) error {
	*m = Token{}
	return codec.Decode(raw, func(f codec.Field) (err error) {
		switch f.Num {
		case 1:
			m.ID, err = f.Bytes()
		case 2:
			m.Owner, err = f.Bytes()
		case 3:
			m.Approved, err = f.Bytes()
		}
		return err
	})
}

func (m *Token) Validate() error {
	var errs error
	if !isValidTokenID(m.ID) {
		errs = errors.AppendField(errs, "ID", errors.Wrapf(errors.ErrInput, "id length %d", len(m.ID)))
	}
	if err := m.Owner.Validate(); err != nil {
		errs = errors.AppendField(errs, "Owner", err)
	}
	if len(m.Approved) != 0 {
		if err := m.Approved.Validate(); err != nil {
			errs = errors.AppendField(errs, "Approved", err)
		}
	}
	return errs
}

var _ orm.Model = (*Token)(nil)

func isValidTokenID(id []byte) bool {
	return len(id) >= minIDLength && len(id) <= maxIDLength
}
