// Package wire reads the protobuf wire format used by NVR report
// submessages into flat, ordered field lists.
//
// The reader never fails: a truncated varint yields the bits accumulated so
// far and an unsupported wire type ends the current message. Length-delimited
// payloads are returned as subslices of the input buffer, so the buffer must
// not be modified while any decoded value derived from it is still in use.
package wire

import (
	"encoding/binary"
	"math"
	"strconv"

	"google.golang.org/protobuf/encoding/protowire"
)

// Type is the wire type discriminator of a field.
type Type = protowire.Type

// Wire types understood by ParseFields.
const (
	Varint          Type = protowire.VarintType
	Fixed64         Type = protowire.Fixed64Type
	LengthDelimited Type = protowire.BytesType
	Fixed32         Type = protowire.Fixed32Type
)

// Field is a single decoded field of a message.
type Field struct {
	Number int32
	Type   Type
	// Value holds the payload of VARINT, FIXED32 and FIXED64 fields.
	Value uint64
	// Bytes holds the payload of LENGTH_DELIMITED fields. It aliases the
	// buffer passed to ParseFields.
	Bytes []byte
}

// ReadVarint decodes a base-128 varint starting at off.
//
// If the continuation bits run past the end of buf, decoding stops and the
// value accumulated so far is returned together with the number of bytes
// consumed.
func ReadVarint(buf []byte, off int) (uint64, int) {
	if off < 0 || off >= len(buf) {
		return 0, 0
	}
	if v, n := protowire.ConsumeVarint(buf[off:]); n > 0 {
		return v, n
	}

	var (
		v     uint64
		shift uint
		n     int
	)
	for i := off; i < len(buf); i++ {
		b := buf[i]
		n++
		if shift < 64 {
			v |= uint64(b&0x7f) << shift
		}
		if b < 0x80 {
			break
		}
		shift += 7
	}
	return v, n
}

// ParseFields splits a message into its fields in wire order.
//
// Parsing stops at the first unsupported wire type or at a fixed-width
// value that does not fit in the remaining bytes; the fields decoded up to
// that point are returned. A length-delimited field whose declared length
// overruns the buffer is clamped to the remaining bytes and ends the
// message.
func ParseFields(buf []byte) Fields {
	var fields Fields
	off := 0
	for off < len(buf) {
		tag, n := ReadVarint(buf, off)
		off += n
		num := int32(tag >> 3)
		typ := Type(tag & 7)

		switch typ {
		case Varint:
			v, n := ReadVarint(buf, off)
			off += n
			fields = append(fields, Field{Number: num, Type: typ, Value: v})

		case LengthDelimited:
			size, n := ReadVarint(buf, off)
			off += n
			if size > uint64(len(buf)-off) {
				fields = append(fields, Field{Number: num, Type: typ, Bytes: buf[off:len(buf):len(buf)]})
				return fields
			}
			end := off + int(size)
			fields = append(fields, Field{Number: num, Type: typ, Bytes: buf[off:end:end]})
			off = end

		case Fixed32:
			v, n := protowire.ConsumeFixed32(buf[off:])
			if n < 0 {
				return fields
			}
			off += n
			fields = append(fields, Field{Number: num, Type: typ, Value: uint64(v)})

		case Fixed64:
			if len(buf)-off < 8 {
				return fields
			}
			lo := binary.LittleEndian.Uint32(buf[off:])
			hi := binary.LittleEndian.Uint32(buf[off+4:])
			off += 8
			fields = append(fields, Field{Number: num, Type: typ, Value: uint64(lo) | uint64(hi)<<32})

		default:
			return fields
		}
	}
	return fields
}

// ToNumber narrows a varint holding a 32-bit signed quantity. Values above
// 0x7FFFFFFF are treated as two's complement and shifted down by 2^32.
func ToNumber(v uint64) int64 {
	if v > 0x7fffffff {
		return int64(v - 0x100000000)
	}
	return int64(v)
}

// ToFloat reinterprets a FIXED32 payload as an IEEE-754 single.
func ToFloat(bits uint32) float32 {
	return math.Float32frombits(bits)
}

// ToDouble reinterprets a FIXED64 payload as an IEEE-754 double.
func ToDouble(bits uint64) float64 {
	return math.Float64frombits(bits)
}

// Fields is the ordered field list of one message.
type Fields []Field

// First returns the first field with the given number.
func (fs Fields) First(num int32) (Field, bool) {
	for _, f := range fs {
		if f.Number == num {
			return f, true
		}
	}
	return Field{}, false
}

// All returns every field with the given number, in wire order.
func (fs Fields) All(num int32) Fields {
	var out Fields
	for _, f := range fs {
		if f.Number == num {
			out = append(out, f)
		}
	}
	return out
}

// Uint64 returns the scalar payload of the first field with the given
// number, or 0 when it is absent or length-delimited.
func (fs Fields) Uint64(num int32) uint64 {
	f, ok := fs.First(num)
	if !ok || f.Type == LengthDelimited {
		return 0
	}
	return f.Value
}

// Uint32 truncates Uint64 to 32 bits.
func (fs Fields) Uint32(num int32) uint32 {
	return uint32(fs.Uint64(num))
}

// Int returns the first field as a protobuf int32. Negative values arrive
// either as 5 byte 32-bit varints or as 10 byte sign-extended ones; both
// keep only the low 32 bits.
func (fs Fields) Int(num int32) int64 {
	return int64(int32(fs.Uint64(num)))
}

// Text decodes the first field with the given number as text. Scalar
// fields render as their decimal value; an absent field yields "".
func (fs Fields) Text(num int32) string {
	f, ok := fs.First(num)
	if !ok {
		return ""
	}
	return f.String()
}

// Message returns the payload of the first field with the given number
// when it is length-delimited.
func (fs Fields) Message(num int32) ([]byte, bool) {
	f, ok := fs.First(num)
	if !ok || f.Type != LengthDelimited {
		return nil, false
	}
	return f.Bytes, true
}

// Messages returns the payloads of every length-delimited field with the
// given number. Scalar occurrences are skipped.
func (fs Fields) Messages(num int32) [][]byte {
	var out [][]byte
	for _, f := range fs {
		if f.Number == num && f.Type == LengthDelimited {
			out = append(out, f.Bytes)
		}
	}
	return out
}

// String renders the field payload as text.
func (f Field) String() string {
	if f.Type == LengthDelimited {
		return string(f.Bytes)
	}
	return strconv.FormatUint(f.Value, 10)
}
