// Package reporttest builds NVR report fixtures for tests.
package reporttest

import (
	"encoding/binary"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Magic is the report file signature.
var Magic = []byte{0x4e, 0x56, 0x52, 0x00}

// Msg accumulates an encoded protobuf message.
type Msg []byte

// Uint appends a varint field.
func (m Msg) Uint(num protowire.Number, v uint64) Msg {
	m = protowire.AppendTag(m, num, protowire.VarintType)
	return protowire.AppendVarint(m, v)
}

// Str appends a string field.
func (m Msg) Str(num protowire.Number, s string) Msg {
	m = protowire.AppendTag(m, num, protowire.BytesType)
	return protowire.AppendString(m, s)
}

// Sub appends a nested message field.
func (m Msg) Sub(num protowire.Number, sub Msg) Msg {
	m = protowire.AppendTag(m, num, protowire.BytesType)
	return protowire.AppendBytes(m, sub)
}

// Float appends a fixed32 float field.
func (m Msg) Float(num protowire.Number, f float32) Msg {
	m = protowire.AppendTag(m, num, protowire.Fixed32Type)
	return protowire.AppendFixed32(m, math.Float32bits(f))
}

// Double appends a fixed64 double field.
func (m Msg) Double(num protowire.Number, f float64) Msg {
	m = protowire.AppendTag(m, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(m, math.Float64bits(f))
}

// DoubleValue encodes a metric value holding a double.
func DoubleValue(f float64) Msg {
	return Msg{}.Double(3, f)
}

// Uint64Value encodes a metric value holding a uint64.
func Uint64Value(v uint64) Msg {
	return Msg{}.Uint(5, v)
}

// StringValue encodes a metric value holding text.
func StringValue(s string) Msg {
	return Msg{}.Str(1, s)
}

// MetricResult encodes a metric result.
func MetricResult(nameID uint64, value Msg) Msg {
	m := Msg{}.Uint(1, nameID)
	if value != nil {
		m = m.Sub(2, value)
	}
	return m
}

// SectionMetric is a name/label pair declared by a section header.
type SectionMetric struct {
	Name  string
	Label string
}

// Section encodes a section with a header listing metrics.
func Section(identifier, displayName string, order uint64, metrics ...SectionMetric) Msg {
	header := Msg{}.Uint(1, 1)
	for _, sm := range metrics {
		def := Msg{}.Str(1, sm.Name)
		if sm.Label != "" {
			def = def.Str(2, sm.Label)
		}
		header = header.Sub(2, def)
	}
	return Msg{}.
		Str(1, identifier).
		Str(2, displayName).
		Uint(3, order).
		Sub(4, header)
}

// RuleMessage is one rule body message.
type RuleMessage struct {
	Type uint64
	Text string
}

// RuleResult encodes a rule result attached to sectionID.
func RuleResult(identifier, sectionID string, messages ...RuleMessage) Msg {
	body := Msg{}
	for _, rm := range messages {
		msg := Msg{}.Str(1, rm.Text).Uint(2, rm.Type)
		body = body.Sub(1, Msg{}.Sub(1, msg))
	}
	return Msg{}.
		Str(1, identifier).
		Str(2, identifier).
		Sub(3, body).
		Str(4, sectionID)
}

// SourceLine encodes a disassembly line. A filePath of "" with a non-zero
// filePathID refers to the string table.
func SourceLine(address uint64, sass string, line uint64, filePathID uint64, filePath string) Msg {
	loc := Msg{}.Uint(2, line)
	if filePathID > 0 {
		loc = loc.Uint(3, filePathID)
	}
	if filePath != "" {
		loc = loc.Str(4, filePath)
	}
	return Msg{}.
		Uint(1, address).
		Str(2, sass).
		Sub(5, loc)
}

// Dim3 encodes a launch extent.
func Dim3(x, y, z uint64) Msg {
	return Msg{}.Uint(1, x).Uint(2, y).Uint(3, z)
}

// Result describes a profile result fixture.
type Result struct {
	Mangled   string
	Function  string
	Demangled string
	Grid      Msg
	Block     Msg
	ContextID uint64
	StreamID  uint64
	Source    []Msg
	Metrics   []Msg
	Sections  []Msg
	Rules     []Msg
}

// Encode encodes r as a ProfileResult.
func (r Result) Encode() Msg {
	m := Msg{}
	if r.Mangled != "" {
		m = m.Str(5, r.Mangled)
	}
	if r.Function != "" {
		m = m.Str(6, r.Function)
	}
	if r.Demangled != "" {
		m = m.Str(7, r.Demangled)
	}
	if r.Grid != nil {
		m = m.Sub(10, r.Grid)
	}
	if r.Block != nil {
		m = m.Sub(11, r.Block)
	}
	for _, s := range r.Source {
		m = m.Sub(12, s)
	}
	for _, mr := range r.Metrics {
		m = m.Sub(13, mr)
	}
	for _, s := range r.Sections {
		m = m.Sub(17, s)
	}
	for _, rr := range r.Rules {
		m = m.Sub(19, rr)
	}
	if r.ContextID != 0 {
		m = m.Uint(22, r.ContextID)
	}
	if r.StreamID != 0 {
		m = m.Uint(23, r.StreamID)
	}
	return m
}

// Block describes one container block.
type Block struct {
	Strings []string
	Sources []Msg
	Results []Msg
	Ranges  []Msg
	// Padding is appended after the entries and counted in payloadSize.
	Padding int
	// NoPayloadSize omits the payloadSize field.
	NoPayloadSize bool
	ProcessID     uint64
}

// Encode frames b as a block header followed by its entries.
func (b Block) Encode() []byte {
	var payload []byte
	for _, e := range b.Sources {
		payload = Frame(payload, e)
	}
	for _, e := range b.Results {
		payload = Frame(payload, e)
	}
	for _, e := range b.Ranges {
		payload = Frame(payload, e)
	}
	payload = append(payload, make([]byte, b.Padding)...)

	header := Msg{}.
		Uint(1, uint64(len(b.Sources))).
		Uint(2, uint64(len(b.Results)))
	if b.ProcessID != 0 {
		header = header.Sub(3, Msg{}.Uint(1, b.ProcessID).Uint(2, 1700000000))
	}
	if len(b.Strings) > 0 {
		st := Msg{}
		for _, s := range b.Strings {
			st = st.Str(1, s)
		}
		header = header.Sub(4, st)
	}
	if !b.NoPayloadSize {
		header = header.Uint(5, uint64(len(payload)))
	}
	header = header.Uint(7, uint64(len(b.Ranges)))

	out := Frame(nil, header)
	return append(out, payload...)
}

// Frame appends a little-endian u32 length followed by payload.
func Frame(dst, payload []byte) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(payload)))
	return append(dst, payload...)
}

// File assembles a complete report with the given version and blocks.
func File(version uint64, blocks ...Block) []byte {
	out := append([]byte(nil), Magic...)
	out = Frame(out, Msg{}.Uint(1, version))
	for _, b := range blocks {
		out = append(out, b.Encode()...)
	}
	return out
}
