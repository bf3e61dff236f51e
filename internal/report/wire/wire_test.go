package wire

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestReadVarint_RoundTrip(t *testing.T) {
	values := []uint64{
		0, 1, 127, 128, 300, 16383, 16384,
		math.MaxUint32, 1 << 53, 1<<53 + 1, 1<<63 - 1, 1 << 63, math.MaxUint64,
	}

	for _, want := range values {
		buf := protowire.AppendVarint(nil, want)
		got, n := ReadVarint(buf, 0)
		assert.Equal(t, want, got, "value %d", want)
		assert.Equal(t, len(buf), n, "bytes read for %d", want)
	}
}

func TestReadVarint_Offset(t *testing.T) {
	buf := append([]byte{0xff, 0xff}, protowire.AppendVarint(nil, 150)...)

	got, n := ReadVarint(buf, 2)
	assert.Equal(t, uint64(150), got)
	assert.Equal(t, 2, n)
}

func TestReadVarint_Truncated(t *testing.T) {
	// 0x96 0x01 is 150; dropping the last byte leaves a dangling continuation.
	got, n := ReadVarint([]byte{0x96}, 0)
	assert.Equal(t, uint64(0x16), got)
	assert.Equal(t, 1, n)

	got, n = ReadVarint([]byte{}, 0)
	assert.Zero(t, got)
	assert.Zero(t, n)
}

func TestParseFields_Tuples(t *testing.T) {
	var buf []byte
	buf = protowire.AppendTag(buf, 1, protowire.VarintType)
	buf = protowire.AppendVarint(buf, 42)
	buf = protowire.AppendTag(buf, 2, protowire.BytesType)
	buf = protowire.AppendBytes(buf, []byte("hello"))
	buf = protowire.AppendTag(buf, 3, protowire.Fixed32Type)
	buf = protowire.AppendFixed32(buf, math.Float32bits(1.5))
	buf = protowire.AppendTag(buf, 4, protowire.Fixed64Type)
	buf = protowire.AppendFixed64(buf, 0x0102030405060708)
	buf = protowire.AppendTag(buf, 1, protowire.VarintType)
	buf = protowire.AppendVarint(buf, math.MaxUint64)

	fields := ParseFields(buf)
	require.Len(t, fields, 5)

	assert.Equal(t, Field{Number: 1, Type: Varint, Value: 42}, fields[0])
	assert.Equal(t, int32(2), fields[1].Number)
	assert.Equal(t, LengthDelimited, fields[1].Type)
	assert.Equal(t, []byte("hello"), fields[1].Bytes)
	assert.Equal(t, Field{Number: 3, Type: Fixed32, Value: uint64(math.Float32bits(1.5))}, fields[2])
	assert.Equal(t, Field{Number: 4, Type: Fixed64, Value: 0x0102030405060708}, fields[3])
	assert.Equal(t, Field{Number: 1, Type: Varint, Value: math.MaxUint64}, fields[4])

	assert.Len(t, fields.All(1), 2)
	first, ok := fields.First(1)
	require.True(t, ok)
	assert.Equal(t, uint64(42), first.Value)
}

func TestParseFields_ZeroCopy(t *testing.T) {
	var buf []byte
	buf = protowire.AppendTag(buf, 7, protowire.BytesType)
	buf = protowire.AppendBytes(buf, []byte("abc"))

	fields := ParseFields(buf)
	require.Len(t, fields, 1)

	buf[len(buf)-1] = 'z'
	assert.Equal(t, "abz", string(fields[0].Bytes), "payload must alias the input buffer")
}

func TestParseFields_UnknownWireTypeStops(t *testing.T) {
	var buf []byte
	buf = protowire.AppendTag(buf, 1, protowire.VarintType)
	buf = protowire.AppendVarint(buf, 9)
	buf = protowire.AppendTag(buf, 2, protowire.StartGroupType)
	buf = protowire.AppendTag(buf, 3, protowire.VarintType)
	buf = protowire.AppendVarint(buf, 10)

	fields := ParseFields(buf)
	require.Len(t, fields, 1)
	assert.Equal(t, uint64(9), fields[0].Value)
}

func TestParseFields_TruncatedPayloads(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
		want int
	}{
		{
			name: "length overruns buffer",
			buf:  append(protowire.AppendTag(nil, 1, protowire.BytesType), 0x05, 'a', 'b'),
			want: 1,
		},
		{
			name: "short fixed32",
			buf:  append(protowire.AppendTag(nil, 1, protowire.Fixed32Type), 0x01, 0x02),
			want: 0,
		},
		{
			name: "short fixed64",
			buf:  append(protowire.AppendTag(nil, 1, protowire.Fixed64Type), 0x01, 0x02, 0x03),
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := ParseFields(tt.buf)
			assert.Len(t, fields, tt.want)
		})
	}
}

func TestParseFields_ClampedLengthKeepsTail(t *testing.T) {
	buf := append(protowire.AppendTag(nil, 1, protowire.BytesType), 0x05, 'a', 'b')

	fields := ParseFields(buf)
	require.Len(t, fields, 1)
	assert.Equal(t, "ab", string(fields[0].Bytes))
}

func TestToNumber(t *testing.T) {
	assert.Equal(t, int64(0), ToNumber(0))
	assert.Equal(t, int64(0x7fffffff), ToNumber(0x7fffffff))
	assert.Equal(t, int64(-1), ToNumber(0xffffffff))
	assert.Equal(t, int64(-2147483648), ToNumber(0x80000000))
}

func TestFields_Int(t *testing.T) {
	tests := []struct {
		name string
		v    uint64
		want int64
	}{
		{"positive", 7, 7},
		{"32-bit negative", 0xffffffff, -1},
		{"sign-extended negative", math.MaxUint64, -1},
		{"sign-extended min int32", uint64(0xffffffff80000000), math.MinInt32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := protowire.AppendTag(nil, 3, protowire.VarintType)
			buf = protowire.AppendVarint(buf, tt.v)
			assert.Equal(t, tt.want, ParseFields(buf).Int(3))
		})
	}
}

func TestToFloatAndDouble(t *testing.T) {
	assert.Equal(t, float32(3.25), ToFloat(math.Float32bits(3.25)))
	assert.Equal(t, 3.14, ToDouble(math.Float64bits(3.14)))
}

func TestFields_Accessors(t *testing.T) {
	var buf []byte
	buf = protowire.AppendTag(buf, 1, protowire.BytesType)
	buf = protowire.AppendString(buf, "name")
	buf = protowire.AppendTag(buf, 2, protowire.VarintType)
	buf = protowire.AppendVarint(buf, 77)
	buf = protowire.AppendTag(buf, 3, protowire.BytesType)
	buf = protowire.AppendString(buf, "a")
	buf = protowire.AppendTag(buf, 3, protowire.VarintType)
	buf = protowire.AppendVarint(buf, 5)
	buf = protowire.AppendTag(buf, 3, protowire.BytesType)
	buf = protowire.AppendString(buf, "b")

	fields := ParseFields(buf)

	assert.Equal(t, "name", fields.Text(1))
	assert.Equal(t, "77", fields.Text(2), "scalar fields render as decimal text")
	assert.Equal(t, "", fields.Text(9))
	assert.Equal(t, uint64(77), fields.Uint64(2))
	assert.Equal(t, uint64(0), fields.Uint64(1), "length-delimited fields have no scalar value")

	_, ok := fields.Message(2)
	assert.False(t, ok)
	msg, ok := fields.Message(1)
	require.True(t, ok)
	assert.Equal(t, "name", string(msg))

	msgs := fields.Messages(3)
	require.Len(t, msgs, 2)
	assert.Equal(t, "a", string(msgs[0]))
	assert.Equal(t, "b", string(msgs[1]))
}
