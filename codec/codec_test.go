package codec

import (
	"testing"

	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/swapkeep/errors"
	"github.com/iov-one/swapkeep/swaptest/assert"
)

// reference is encoded by the reflection based gogo marshaler. It has no
// Marshal method, so proto.Marshal cannot call back into this package.
type reference struct {
	Num   int64        `protobuf:"varint,1,opt,name=num,proto3"`
	Flag  bool         `protobuf:"varint,2,opt,name=flag,proto3"`
	Data  []byte       `protobuf:"bytes,3,opt,name=data,proto3"`
	Name  string       `protobuf:"bytes,4,opt,name=name,proto3"`
	Child *reference   `protobuf:"bytes,5,opt,name=child,proto3"`
	List  []*reference `protobuf:"bytes,6,rep,name=list,proto3"`
}

func (m *reference) Reset()         { *m = reference{} }
func (m *reference) String() string { return proto.CompactTextString(m) }
func (*reference) ProtoMessage()    {}

// sample has the same layout as reference but is encoded with this package.
type sample struct {
	Num   int64
	Flag  bool
	Data  []byte
	Name  string
	Child *sample
	List  []*sample
}

func (m *sample) Marshal() ([]byte, error) {
	var e Encoder
	e.Int64(1, m.Num)
	e.Bool(2, m.Flag)
	e.Bytes(3, m.Data)
	e.String(4, m.Name)
	if m.Child != nil {
		e.Message(5, m.Child)
	}
	for _, s := range m.List {
		e.Message(6, s)
	}
	return e.Result()
}

func (m *sample) Unmarshal(raw []byte) error {
	*m = sample{}
	return Decode(raw, func(f Field) (err error) {
		switch f.Num {
		case 1:
			m.Num, err = f.Int64()
		case 2:
			m.Flag, err = f.Bool()
		case 3:
			m.Data, err = f.Bytes()
		case 4:
			m.Name, err = f.Text()
		case 5:
			m.Child = new(sample)
			err = f.Message(m.Child)
		case 6:
			var s sample
			err = f.Message(&s)
			m.List = append(m.List, &s)
		}
		return err
	})
}

func (m *sample) reference() *reference {
	if m == nil {
		return nil
	}
	r := &reference{
		Num:   m.Num,
		Flag:  m.Flag,
		Data:  m.Data,
		Name:  m.Name,
		Child: m.Child.reference(),
	}
	for _, s := range m.List {
		r.List = append(r.List, s.reference())
	}
	return r
}

func TestEncoderMatchesReflection(t *testing.T) {
	cases := map[string]*sample{
		"empty":          {},
		"scalars":        {Num: 300, Flag: true, Data: []byte{0, 1, 2}, Name: "escrow"},
		"negative":       {Num: -7},
		"empty child":    {Child: &sample{}},
		"nested":         {Name: "top", Child: &sample{Num: 1, Child: &sample{Name: "deep"}}},
		"repeated":       {List: []*sample{{Num: 1}, {}, {Name: "three"}}},
		"everything set": {Num: 1 << 40, Flag: true, Data: []byte("x"), Name: "y", Child: &sample{Flag: true}, List: []*sample{{Num: 2}}},
	}
	for testName, s := range cases {
		t.Run(testName, func(t *testing.T) {
			got, err := s.Marshal()
			assert.Nil(t, err)
			want, err := proto.Marshal(s.reference())
			assert.Nil(t, err)
			if len(want) == 0 {
				want = []byte{}
			}
			assert.Equal(t, want, got)

			var back sample
			assert.Nil(t, back.Unmarshal(want))
			assert.Equal(t, s.reference(), back.reference())
		})
	}
}

func TestEmptyResultIsNotNil(t *testing.T) {
	var e Encoder
	raw, err := e.Result()
	assert.Nil(t, err)
	if raw == nil {
		t.Fatal("nil result")
	}
}

type failing struct{}

func (failing) Marshal() ([]byte, error) { return nil, errors.ErrState }

func TestEncoderKeepsFirstError(t *testing.T) {
	var e Encoder
	e.Uint64(1, 5)
	e.Message(2, failing{})
	e.String(3, "ignored")
	_, err := e.Result()
	assert.IsErr(t, errors.ErrState, err)
}

func TestDecode(t *testing.T) {
	cases := map[string]struct {
		raw     []byte
		want    sample
		wantErr *errors.Error
	}{
		"unknown varint skipped": {
			raw:  []byte{0x38, 0x05, 0x08, 0x02},
			want: sample{Num: 2},
		},
		"fixed size fields skipped": {
			raw:  []byte{0x39, 1, 2, 3, 4, 5, 6, 7, 8, 0x3d, 1, 2, 3, 4, 0x22, 0x01, 'a'},
			want: sample{Name: "a"},
		},
		"truncated varint": {
			raw:     []byte{0x08, 0x80},
			wantErr: errors.ErrInput,
		},
		"truncated bytes": {
			raw:     []byte{0x22, 0x05, 'a', 'b'},
			wantErr: errors.ErrInput,
		},
		"truncated fixed64": {
			raw:     []byte{0x39, 1, 2},
			wantErr: errors.ErrInput,
		},
		"group wire type": {
			raw:     []byte{0x0b},
			wantErr: errors.ErrInput,
		},
		"field zero": {
			raw:     []byte{0x00, 0x01},
			wantErr: errors.ErrInput,
		},
		"string field sent as varint": {
			raw:     []byte{0x20, 0x01},
			wantErr: errors.ErrInput,
		},
		"number field sent as bytes": {
			raw:     []byte{0x0a, 0x01, 0x01},
			wantErr: errors.ErrInput,
		},
		"broken child": {
			raw:     []byte{0x2a, 0x02, 0x08, 0x80},
			wantErr: errors.ErrInput,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			var got sample
			err := got.Unmarshal(tc.raw)
			if tc.wantErr != nil {
				assert.IsErr(t, tc.wantErr, err)
				return
			}
			assert.Nil(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestBytesAreCopied(t *testing.T) {
	raw := []byte{0x1a, 0x02, 'o', 'k'}
	var s sample
	assert.Nil(t, s.Unmarshal(raw))
	raw[2] = 'x'
	assert.Equal(t, []byte("ok"), s.Data)
}
