// Package codec writes and reads models in the protobuf wire format.
//
// Models encode their fields in tag order with an Encoder and decode them
// with Decode. The output is the same as the one of gogo generated
// marshalers for proto3 messages: zero scalars are omitted and embedded
// messages are length delimited.
package codec

import (
	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/swapkeep/errors"
)

const (
	wireVarint  = 0
	wireFixed64 = 1
	wireBytes   = 2
	wireFixed32 = 5
)

// Marshaler is implemented by all models.
type Marshaler interface {
	Marshal() ([]byte, error)
}

// Unmarshaler is implemented by all models.
type Unmarshaler interface {
	Unmarshal([]byte) error
}

// Encoder collects encoded fields. The zero value is ready to use.
type Encoder struct {
	buf []byte
	err error
}

func (e *Encoder) key(field, wire int) {
	e.buf = append(e.buf, proto.EncodeVarint(uint64(field)<<3|uint64(wire))...)
}

// Uint64 writes a varint field.
func (e *Encoder) Uint64(field int, v uint64) {
	if v == 0 {
		return
	}
	e.key(field, wireVarint)
	e.buf = append(e.buf, proto.EncodeVarint(v)...)
}

// Int64 writes a varint field. Negative values take ten bytes.
func (e *Encoder) Int64(field int, v int64) {
	e.Uint64(field, uint64(v))
}

func (e *Encoder) Bool(field int, v bool) {
	if v {
		e.Uint64(field, 1)
	}
}

// Bytes writes a length delimited field unless v is empty.
func (e *Encoder) Bytes(field int, v []byte) {
	if len(v) == 0 {
		return
	}
	e.delimited(field, v)
}

func (e *Encoder) String(field int, v string) {
	e.Bytes(field, []byte(v))
}

// Message writes an embedded message. An empty message is still written, so
// that a set field can be told apart from a missing one.
func (e *Encoder) Message(field int, m Marshaler) {
	if e.err != nil {
		return
	}
	raw, err := m.Marshal()
	if err != nil {
		e.err = errors.Wrapf(err, "field %d", field)
		return
	}
	e.delimited(field, raw)
}

func (e *Encoder) delimited(field int, v []byte) {
	e.key(field, wireBytes)
	e.buf = append(e.buf, proto.EncodeVarint(uint64(len(v)))...)
	e.buf = append(e.buf, v...)
}

// Result returns the encoded message or the first error returned by an
// embedded message. An empty message is a non nil, empty slice.
func (e *Encoder) Result() ([]byte, error) {
	if e.err != nil {
		return nil, e.err
	}
	if e.buf == nil {
		return []byte{}, nil
	}
	return e.buf, nil
}

// Field is a single decoded field.
type Field struct {
	Num  int
	wire int
	num  uint64
	raw  []byte
}

func (f Field) wrongType(want string) error {
	return errors.Wrapf(errors.ErrInput, "field %d: wire type %d is not %s", f.Num, f.wire, want)
}

func (f Field) Uint64() (uint64, error) {
	if f.wire != wireVarint {
		return 0, f.wrongType("varint")
	}
	return f.num, nil
}

func (f Field) Int64() (int64, error) {
	v, err := f.Uint64()
	return int64(v), err
}

func (f Field) Bool() (bool, error) {
	v, err := f.Uint64()
	return v != 0, err
}

// Bytes returns a copy of a length delimited field.
func (f Field) Bytes() ([]byte, error) {
	if f.wire != wireBytes {
		return nil, f.wrongType("length delimited")
	}
	return append([]byte(nil), f.raw...), nil
}

func (f Field) Text() (string, error) {
	if f.wire != wireBytes {
		return "", f.wrongType("length delimited")
	}
	return string(f.raw), nil
}

// Message decodes an embedded message into dst.
func (f Field) Message(dst Unmarshaler) error {
	if f.wire != wireBytes {
		return f.wrongType("length delimited")
	}
	return dst.Unmarshal(f.raw)
}

// Decode calls fn for every field of raw, in order. Fixed size fields are
// skipped. fn should ignore field numbers it does not know.
func Decode(raw []byte, fn func(Field) error) error {
	for len(raw) > 0 {
		key, n := proto.DecodeVarint(raw)
		if n == 0 {
			return errors.Wrap(errors.ErrInput, "truncated field key")
		}
		raw = raw[n:]

		f := Field{Num: int(key >> 3), wire: int(key & 7)}
		if f.Num <= 0 {
			return errors.Wrapf(errors.ErrInput, "invalid field number %d", f.Num)
		}
		switch f.wire {
		case wireVarint:
			v, n := proto.DecodeVarint(raw)
			if n == 0 {
				return errors.Wrapf(errors.ErrInput, "field %d: truncated varint", f.Num)
			}
			f.num = v
			raw = raw[n:]
		case wireBytes:
			size, n := proto.DecodeVarint(raw)
			if n == 0 || size > uint64(len(raw)-n) {
				return errors.Wrapf(errors.ErrInput, "field %d: truncated value", f.Num)
			}
			end := n + int(size)
			f.raw = raw[n:end]
			raw = raw[end:]
		case wireFixed64, wireFixed32:
			size := 8
			if f.wire == wireFixed32 {
				size = 4
			}
			if len(raw) < size {
				return errors.Wrapf(errors.ErrInput, "field %d: truncated value", f.Num)
			}
			raw = raw[size:]
			continue
		default:
			return errors.Wrapf(errors.ErrInput, "field %d: unsupported wire type %d", f.Num, f.wire)
		}
		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}
