// Package container walks the block structure of an NVR report file.
//
// A report is a 4 byte signature, a length-prefixed FileHeader and zero or
// more blocks. Each block is a length-prefixed BlockHeader followed by the
// source, result and range entries it declares, every entry framed as a
// little-endian uint32 length and that many bytes. Only result entries are
// decoded; sources and ranges are skipped.
//
// Structural damage after the file header never fails the walk. A block or
// entry that does not fit in the buffer ends the walk and is reported in
// Stats, so a partially written capture still yields every kernel that was
// completely written.
package container

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/coral-mesh/ncurep/internal/report/message"
)

// Magic is the report file signature.
var Magic = [4]byte{0x4e, 0x56, 0x52, 0x00}

var (
	// ErrBadMagic is returned when the buffer does not start with Magic.
	ErrBadMagic = errors.New("not an NVR report: bad magic")
	// ErrTruncatedHeader is returned when the buffer ends before the file
	// header length prefix.
	ErrTruncatedHeader = errors.New("truncated report: missing file header")
)

const lengthPrefixSize = 4

// Entry is one decoded kernel launch together with the string table that
// was in effect when it was read.
type Entry struct {
	Result message.ProfileResult
	// Strings is shared between every entry that used the same table and
	// must be treated as read-only.
	Strings *message.StringTable
	// Block is the zero-based index of the containing block.
	Block int
}

// Stats summarises the structure of a walked report.
type Stats struct {
	Bytes          int  `json:"bytes"`
	Blocks         int  `json:"blocks"`
	Results        int  `json:"results"`
	SkippedSources int  `json:"skippedSources"`
	SkippedRanges  int  `json:"skippedRanges"`
	Realignments   int  `json:"realignments"`
	Truncated      bool `json:"truncated"`
}

// Capture is the raw content of a report.
type Capture struct {
	Header  message.FileHeader
	Entries []Entry
	// Sessions lists the session details of every block that declared one.
	Sessions []message.SessionDetails
	Stats    Stats
}

// Stage identifies a walk milestone reported to a ProgressFunc.
type Stage int

const (
	StageFileHeader Stage = iota
	StageBlock
	StageKernel
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageFileHeader:
		return "file_header"
	case StageBlock:
		return "block"
	case StageKernel:
		return "kernel"
	case StageDone:
		return "done"
	}
	return "unknown"
}

// Progress is an advisory snapshot of the walk.
type Progress struct {
	Stage   Stage
	Block   int
	Kernels int
	Offset  int
	Total   int
}

// ProgressFunc receives progress synchronously from the walking goroutine.
type ProgressFunc func(Progress)

// Walker walks report buffers. The zero value is ready to use.
type Walker struct {
	Logger   *zerolog.Logger
	Progress ProgressFunc
}

// Walk walks buf with a zero Walker.
func Walk(buf []byte) (*Capture, error) {
	return Walker{}.Walk(buf)
}

type state int

const (
	stateMagic state = iota
	stateFileHeader
	stateBlock
	stateDone
)

type walk struct {
	buf     []byte
	off     int
	block   int
	strings *message.StringTable
	capture *Capture
	logger  zerolog.Logger
	report  ProgressFunc
}

// Walk decodes every complete block in buf. Text is copied out of buf, so
// the capture stays valid after buf is reused.
func (w Walker) Walk(buf []byte) (*Capture, error) {
	wk := &walk{
		buf:     buf,
		capture: &Capture{Stats: Stats{Bytes: len(buf)}},
		logger:  zerolog.Nop(),
		report:  w.Progress,
	}
	if w.Logger != nil {
		wk.logger = *w.Logger
	}

	var err error
	for st := stateMagic; st != stateDone; {
		switch st {
		case stateMagic:
			st, err = wk.readMagic()
		case stateFileHeader:
			st, err = wk.readFileHeader()
		case stateBlock:
			st = wk.readBlock()
		}
		if err != nil {
			return nil, err
		}
	}

	wk.progress(StageDone)
	return wk.capture, nil
}

func (wk *walk) remaining() int {
	return len(wk.buf) - wk.off
}

func (wk *walk) progress(stage Stage) {
	if wk.report == nil {
		return
	}
	wk.report(Progress{
		Stage:   stage,
		Block:   wk.block,
		Kernels: len(wk.capture.Entries),
		Offset:  wk.off,
		Total:   len(wk.buf),
	})
}

// frame returns the next length-prefixed payload and advances past it. It
// reports false, without moving the cursor, when the prefix or the payload
// does not fit.
func (wk *walk) frame() ([]byte, bool) {
	if wk.remaining() < lengthPrefixSize {
		return nil, false
	}
	size := uint64(binary.LittleEndian.Uint32(wk.buf[wk.off:]))
	if size > uint64(wk.remaining()-lengthPrefixSize) {
		return nil, false
	}
	start := wk.off + lengthPrefixSize
	end := start + int(size)
	wk.off = end
	return wk.buf[start:end:end], true
}

func (wk *walk) readMagic() (state, error) {
	if len(wk.buf) < len(Magic) || !bytes.Equal(wk.buf[:len(Magic)], Magic[:]) {
		n := min(len(wk.buf), len(Magic))
		return stateDone, fmt.Errorf("%w: % x", ErrBadMagic, wk.buf[:n])
	}
	wk.off = len(Magic)
	return stateFileHeader, nil
}

func (wk *walk) readFileHeader() (state, error) {
	if wk.remaining() < lengthPrefixSize {
		return stateDone, fmt.Errorf("%w: %d bytes after signature", ErrTruncatedHeader, wk.remaining())
	}
	size := int(min(uint64(binary.LittleEndian.Uint32(wk.buf[wk.off:])), uint64(wk.remaining()-lengthPrefixSize)))
	start := wk.off + lengthPrefixSize
	wk.capture.Header = message.DecodeFileHeader(wk.buf[start : start+size])
	wk.off = start + size

	wk.logger.Debug().
		Uint64("version", wk.capture.Header.Version).
		Int("header_bytes", size).
		Msg("Read file header")
	wk.progress(StageFileHeader)
	return stateBlock, nil
}

func (wk *walk) readBlock() state {
	if wk.remaining() < lengthPrefixSize {
		return stateDone
	}
	size := binary.LittleEndian.Uint32(wk.buf[wk.off:])
	if size == 0 {
		return stateDone
	}
	raw, ok := wk.frame()
	if !ok {
		wk.truncated("block header")
		return stateDone
	}

	hdr := message.DecodeBlockHeader(raw)
	if hdr.StringTable != nil && len(hdr.StringTable.Strings) > 0 {
		wk.strings = hdr.StringTable
	}
	if hdr.SessionDetails != nil {
		wk.capture.Sessions = append(wk.capture.Sessions, *hdr.SessionDetails)
	}
	stats := &wk.capture.Stats
	stats.Blocks++

	wk.logger.Debug().
		Int("block", wk.block).
		Uint64("sources", hdr.NumSources).
		Uint64("results", hdr.NumResults).
		Uint64("ranges", hdr.NumRangeResults).
		Uint64("payload_size", hdr.PayloadSize).
		Int("strings", wk.stringCount()).
		Msg("Read block header")

	payloadStart := wk.off

	for i := uint64(0); i < hdr.NumSources; i++ {
		if _, ok := wk.frame(); !ok {
			wk.truncated("source entry")
			return stateDone
		}
		stats.SkippedSources++
	}

	for i := uint64(0); i < hdr.NumResults; i++ {
		entry, ok := wk.frame()
		if !ok {
			wk.truncated("result entry")
			return stateDone
		}
		wk.capture.Entries = append(wk.capture.Entries, Entry{
			Result:  message.DecodeProfileResult(entry),
			Strings: wk.strings,
			Block:   wk.block,
		})
		stats.Results++
		wk.progress(StageKernel)
	}

	for i := uint64(0); i < hdr.NumRangeResults; i++ {
		if _, ok := wk.frame(); !ok {
			wk.truncated("range entry")
			return stateDone
		}
		stats.SkippedRanges++
	}

	if hdr.PayloadSize > 0 {
		end := payloadStart + int(min(hdr.PayloadSize, uint64(len(wk.buf)-payloadStart)))
		if wk.off < end {
			wk.logger.Debug().
				Int("block", wk.block).
				Int("offset", wk.off).
				Int("payload_end", end).
				Msg("Realigning cursor to declared payload end")
			wk.off = end
			stats.Realignments++
		}
		if hdr.PayloadSize > uint64(len(wk.buf)-payloadStart) {
			stats.Truncated = true
		}
	}

	wk.progress(StageBlock)
	wk.block++
	return stateBlock
}

func (wk *walk) stringCount() int {
	if wk.strings == nil {
		return 0
	}
	return len(wk.strings.Strings)
}

func (wk *walk) truncated(what string) {
	wk.capture.Stats.Truncated = true
	wk.logger.Debug().
		Int("block", wk.block).
		Int("offset", wk.off).
		Int("remaining", wk.remaining()).
		Msgf("Truncated %s, ending walk", what)
}
