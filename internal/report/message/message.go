// Package message decodes the individual protobuf messages of an NVR report
// into plain Go values.
//
// Every decoder accepts whatever bytes it is given and returns a best-effort
// value: missing fields take their zero value and malformed trailing data is
// ignored. Text fields are copied out of the input buffer; nested message
// payloads are decoded eagerly.
package message

import (
	"github.com/coral-mesh/ncurep/internal/report/wire"
)

// MetricResult is one raw metric attached to a profile result. The metric
// name is an index into the block's string table.
type MetricResult struct {
	NameID uint64
	// Value is nil when the result carried no recognised value.
	Value *MetricValue
}

// Dim3 is a three dimensional launch extent.
type Dim3 struct {
	X uint64 `json:"x"`
	Y uint64 `json:"y"`
	Z uint64 `json:"z"`
}

// SectionMetric names a metric displayed in a section header.
type SectionMetric struct {
	Name  string
	Label string
}

// SectionHeader lists the metrics displayed at the top of a section.
type SectionHeader struct {
	Rows    uint64
	Metrics []SectionMetric
}

// RuleMessageType classifies a rule message.
type RuleMessageType int64

const (
	RuleMessageNone RuleMessageType = iota
	RuleMessageOk
	RuleMessageWarning
	RuleMessageError
	RuleMessageOptimization
)

func (t RuleMessageType) String() string {
	switch t {
	case RuleMessageNone:
		return "none"
	case RuleMessageOk:
		return "ok"
	case RuleMessageWarning:
		return "warning"
	case RuleMessageError:
		return "error"
	case RuleMessageOptimization:
		return "optimization"
	}
	return "unknown"
}

// RuleResultMessage is the text emitted by an analysis rule.
type RuleResultMessage struct {
	Text string
	Type RuleMessageType
}

// RuleResultBodyItem wraps one optional rule message.
type RuleResultBodyItem struct {
	Message *RuleResultMessage
}

// RuleResultBody is the ordered list of items produced by a rule.
type RuleResultBody struct {
	Items []RuleResultBodyItem
}

// RuleResult is the outcome of one analysis rule.
type RuleResult struct {
	Identifier        string
	DisplayName       string
	Body              *RuleResultBody
	SectionIdentifier string
}

// Section is a named group of metrics.
type Section struct {
	Identifier  string
	DisplayName string
	Order       int64
	Header      *SectionHeader
}

// SourceLocator points at a line of high level source.
type SourceLocator struct {
	Line       uint64
	FilePathID uint64
	FilePath   string
}

// SourceLine is one line of disassembly correlated with source.
type SourceLine struct {
	Address uint64
	SASS    string
	PTX     string
	Locator *SourceLocator
}

// ProfileResult is one profiled kernel launch.
type ProfileResult struct {
	MangledName   string
	FunctionName  string
	DemangledName string
	GridSize      *Dim3
	BlockSize     *Dim3
	Source        []SourceLine
	MetricResults []MetricResult
	Sections      []Section
	RuleResults   []RuleResult
	ContextID     uint64
	StreamID      uint64
}

// StringTable is the per-block string pool metric names refer to.
type StringTable struct {
	Strings []string
}

// Lookup returns the string at id.
func (t *StringTable) Lookup(id uint64) (string, bool) {
	if t == nil || id >= uint64(len(t.Strings)) {
		return "", false
	}
	return t.Strings[id], true
}

// SessionDetails describes the profiling session that produced a block.
type SessionDetails struct {
	ProcessID    uint64
	CreationTime uint64
}

// BlockHeader describes the payload of one container block.
type BlockHeader struct {
	NumSources      uint64
	NumResults      uint64
	NumRangeResults uint64
	SessionDetails  *SessionDetails
	StringTable     *StringTable
	PayloadSize     uint64
}

// FileHeader is the report file preamble.
type FileHeader struct {
	Version uint64
}

// DecodeMetricValue decodes a ProfileMetricValue. The first member present
// in the order string, float, double, uint32, uint64 wins. It returns nil
// when no member is present.
func DecodeMetricValue(buf []byte) *MetricValue {
	fs := wire.ParseFields(buf)
	if f, ok := fs.First(fieldMetricValueString); ok {
		return &MetricValue{Kind: KindString, Str: f.String()}
	}
	if f, ok := fs.First(fieldMetricValueFloat); ok {
		return &MetricValue{Kind: KindFloat, Float: float64(wire.ToFloat(uint32(f.Value)))}
	}
	if f, ok := fs.First(fieldMetricValueDouble); ok {
		return &MetricValue{Kind: KindDouble, Float: wire.ToDouble(f.Value)}
	}
	if f, ok := fs.First(fieldMetricValueUint32); ok {
		return &MetricValue{Kind: KindUint32, Uint: uint64(uint32(f.Value))}
	}
	if f, ok := fs.First(fieldMetricValueUint64); ok {
		return &MetricValue{Kind: KindUint64, Uint: f.Value}
	}
	return nil
}

// DecodeMetricResult decodes a ProfileMetricResult.
func DecodeMetricResult(buf []byte) MetricResult {
	fs := wire.ParseFields(buf)
	r := MetricResult{NameID: fs.Uint64(fieldMetricResultNameID)}
	if b, ok := fs.Message(fieldMetricResultValue); ok {
		r.Value = DecodeMetricValue(b)
	}
	return r
}

// DecodeDim3 decodes a Uint64x3.
func DecodeDim3(buf []byte) Dim3 {
	fs := wire.ParseFields(buf)
	return Dim3{
		X: fs.Uint64(fieldDimX),
		Y: fs.Uint64(fieldDimY),
		Z: fs.Uint64(fieldDimZ),
	}
}

// DecodeSectionMetric decodes a section metric. A missing label falls back
// to the metric name.
func DecodeSectionMetric(buf []byte) SectionMetric {
	fs := wire.ParseFields(buf)
	m := SectionMetric{
		Name:  fs.Text(fieldSectionMetricName),
		Label: fs.Text(fieldSectionMetricLabel),
	}
	if m.Label == "" {
		m.Label = m.Name
	}
	return m
}

// DecodeSectionHeader decodes a section header.
func DecodeSectionHeader(buf []byte) SectionHeader {
	fs := wire.ParseFields(buf)
	h := SectionHeader{Rows: fs.Uint64(fieldSectionHeaderRows)}
	for _, b := range fs.Messages(fieldSectionHeaderMetrics) {
		h.Metrics = append(h.Metrics, DecodeSectionMetric(b))
	}
	return h
}

// DecodeRuleResultMessage decodes a rule message.
func DecodeRuleResultMessage(buf []byte) RuleResultMessage {
	fs := wire.ParseFields(buf)
	return RuleResultMessage{
		Text: fs.Text(fieldRuleMessageText),
		Type: RuleMessageType(fs.Int(fieldRuleMessageType)),
	}
}

// DecodeRuleResultBodyItem decodes a rule body item.
func DecodeRuleResultBodyItem(buf []byte) RuleResultBodyItem {
	fs := wire.ParseFields(buf)
	var item RuleResultBodyItem
	if b, ok := fs.Message(fieldBodyItemMessage); ok {
		m := DecodeRuleResultMessage(b)
		item.Message = &m
	}
	return item
}

// DecodeRuleResultBody decodes a rule body.
func DecodeRuleResultBody(buf []byte) RuleResultBody {
	fs := wire.ParseFields(buf)
	var body RuleResultBody
	for _, b := range fs.Messages(fieldBodyItems) {
		body.Items = append(body.Items, DecodeRuleResultBodyItem(b))
	}
	return body
}

// DecodeRuleResult decodes a rule result.
func DecodeRuleResult(buf []byte) RuleResult {
	fs := wire.ParseFields(buf)
	r := RuleResult{
		Identifier:        fs.Text(fieldRuleIdentifier),
		DisplayName:       fs.Text(fieldRuleDisplayName),
		SectionIdentifier: fs.Text(fieldRuleSectionIdentifier),
	}
	if b, ok := fs.Message(fieldRuleBody); ok {
		body := DecodeRuleResultBody(b)
		r.Body = &body
	}
	return r
}

// DecodeSection decodes a profiler section.
func DecodeSection(buf []byte) Section {
	fs := wire.ParseFields(buf)
	s := Section{
		Identifier:  fs.Text(fieldSectionIdentifier),
		DisplayName: fs.Text(fieldSectionDisplayName),
		Order:       fs.Int(fieldSectionOrder),
	}
	if b, ok := fs.Message(fieldSectionHeader); ok {
		h := DecodeSectionHeader(b)
		s.Header = &h
	}
	return s
}

// DecodeSourceLocator decodes a source locator.
func DecodeSourceLocator(buf []byte) SourceLocator {
	fs := wire.ParseFields(buf)
	return SourceLocator{
		Line:       fs.Uint64(fieldLocatorLine),
		FilePathID: fs.Uint64(fieldLocatorFilePathID),
		FilePath:   fs.Text(fieldLocatorFilePath),
	}
}

// DecodeSourceLine decodes a source line.
func DecodeSourceLine(buf []byte) SourceLine {
	fs := wire.ParseFields(buf)
	l := SourceLine{
		Address: fs.Uint64(fieldSourceAddress),
		SASS:    fs.Text(fieldSourceSASS),
		PTX:     fs.Text(fieldSourcePTX),
	}
	if b, ok := fs.Message(fieldSourceLocator); ok {
		loc := DecodeSourceLocator(b)
		l.Locator = &loc
	}
	return l
}

// DecodeProfileResult decodes one kernel launch.
func DecodeProfileResult(buf []byte) ProfileResult {
	fs := wire.ParseFields(buf)
	r := ProfileResult{
		MangledName:   fs.Text(fieldResultMangledName),
		FunctionName:  fs.Text(fieldResultFunctionName),
		DemangledName: fs.Text(fieldResultDemangledName),
		ContextID:     fs.Uint64(fieldResultContextID),
		StreamID:      fs.Uint64(fieldResultStreamID),
	}
	if b, ok := fs.Message(fieldResultGridSize); ok {
		d := DecodeDim3(b)
		r.GridSize = &d
	}
	if b, ok := fs.Message(fieldResultBlockSize); ok {
		d := DecodeDim3(b)
		r.BlockSize = &d
	}
	for _, b := range fs.Messages(fieldResultSource) {
		r.Source = append(r.Source, DecodeSourceLine(b))
	}
	for _, b := range fs.Messages(fieldResultMetricResults) {
		r.MetricResults = append(r.MetricResults, DecodeMetricResult(b))
	}
	for _, b := range fs.Messages(fieldResultSections) {
		r.Sections = append(r.Sections, DecodeSection(b))
	}
	for _, b := range fs.Messages(fieldResultRuleResults) {
		r.RuleResults = append(r.RuleResults, DecodeRuleResult(b))
	}
	return r
}

// DecodeStringTable decodes a string table. Scalar occurrences of the
// strings field are skipped.
func DecodeStringTable(buf []byte) StringTable {
	fs := wire.ParseFields(buf)
	var t StringTable
	for _, b := range fs.Messages(fieldStringTableStrings) {
		t.Strings = append(t.Strings, string(b))
	}
	return t
}

// DecodeSessionDetails decodes session details.
func DecodeSessionDetails(buf []byte) SessionDetails {
	fs := wire.ParseFields(buf)
	return SessionDetails{
		ProcessID:    fs.Uint64(fieldSessionProcessID),
		CreationTime: fs.Uint64(fieldSessionCreationTime),
	}
}

// DecodeBlockHeader decodes a block header.
func DecodeBlockHeader(buf []byte) BlockHeader {
	fs := wire.ParseFields(buf)
	h := BlockHeader{
		NumSources:      fs.Uint64(fieldBlockNumSources),
		NumResults:      fs.Uint64(fieldBlockNumResults),
		NumRangeResults: fs.Uint64(fieldBlockNumRangeResults),
		PayloadSize:     fs.Uint64(fieldBlockPayloadSize),
	}
	if b, ok := fs.Message(fieldBlockSessionDetails); ok {
		sd := DecodeSessionDetails(b)
		h.SessionDetails = &sd
	}
	if b, ok := fs.Message(fieldBlockStringTable); ok {
		st := DecodeStringTable(b)
		h.StringTable = &st
	}
	return h
}

// DecodeFileHeader decodes the file header.
func DecodeFileHeader(buf []byte) FileHeader {
	fs := wire.ParseFields(buf)
	return FileHeader{Version: fs.Uint64(fieldFileHeaderVersion)}
}
