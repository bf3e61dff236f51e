package message

// Protobuf field numbers for ProfileMetricValue.
const (
	fieldMetricValueString = 1
	fieldMetricValueFloat  = 2
	fieldMetricValueDouble = 3
	fieldMetricValueUint32 = 4
	fieldMetricValueUint64 = 5
)

// Protobuf field numbers for ProfileMetricResult.
const (
	fieldMetricResultNameID = 1
	fieldMetricResultValue  = 2
)

// Protobuf field numbers for Uint64x3.
const (
	fieldDimX = 1
	fieldDimY = 2
	fieldDimZ = 3
)

// Protobuf field numbers for ProfilerSectionMetric.
const (
	fieldSectionMetricName  = 1
	fieldSectionMetricLabel = 2
)

// Protobuf field numbers for ProfilerSectionHeader.
const (
	fieldSectionHeaderRows    = 1
	fieldSectionHeaderMetrics = 2
)

// Protobuf field numbers for RuleResultMessage.
const (
	fieldRuleMessageText = 1
	fieldRuleMessageType = 2
)

// Protobuf field numbers for RuleResultBodyItem.
const (
	fieldBodyItemMessage = 1
)

// Protobuf field numbers for RuleResultBody.
const (
	fieldBodyItems = 1
)

// Protobuf field numbers for RuleResult.
const (
	fieldRuleIdentifier        = 1
	fieldRuleDisplayName       = 2
	fieldRuleBody              = 3
	fieldRuleSectionIdentifier = 4
)

// Protobuf field numbers for ProfilerSection.
const (
	fieldSectionIdentifier  = 1
	fieldSectionDisplayName = 2
	fieldSectionOrder       = 3
	fieldSectionHeader      = 4
)

// Protobuf field numbers for SourceLocator.
const (
	fieldLocatorLine       = 2
	fieldLocatorFilePathID = 3
	fieldLocatorFilePath   = 4
)

// Protobuf field numbers for SourceLine.
const (
	fieldSourceAddress = 1
	fieldSourceSASS    = 2
	fieldSourcePTX     = 3
	fieldSourceLocator = 5
)

// Protobuf field numbers for ProfileResult.
const (
	fieldResultMangledName   = 5
	fieldResultFunctionName  = 6
	fieldResultDemangledName = 7
	fieldResultGridSize      = 10
	fieldResultBlockSize     = 11
	fieldResultSource        = 12
	fieldResultMetricResults = 13
	fieldResultSections      = 17
	fieldResultRuleResults   = 19
	fieldResultContextID     = 22
	fieldResultStreamID      = 23
)

// Protobuf field numbers for StringTable.
const (
	fieldStringTableStrings = 1
)

// Protobuf field numbers for BlockHeader.
const (
	fieldBlockNumSources      = 1
	fieldBlockNumResults      = 2
	fieldBlockSessionDetails  = 3
	fieldBlockStringTable     = 4
	fieldBlockPayloadSize     = 5
	fieldBlockNumRangeResults = 7
)

// Protobuf field numbers for ReportSessionDetails.
const (
	fieldSessionProcessID    = 1
	fieldSessionCreationTime = 2
)

// Protobuf field numbers for FileHeader.
const (
	fieldFileHeaderVersion = 1
)
