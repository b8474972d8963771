// Package formats provides parsers for NinjaRipper capture files.
// NR (NinjaRipper 2) chunked container parser.
package formats

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

// NR format errors.
var (
	// ErrNRFormat is wrapped by every error caused by a malformed container.
	ErrNRFormat = errors.New("malformed NR file")

	ErrTruncatedNRHeader = fmt.Errorf("%w: truncated header", ErrNRFormat)
	ErrInvalidNRMagic    = fmt.Errorf("%w: invalid magic, expected 'NRIP'", ErrNRFormat)
	ErrZeroSizeChunk     = fmt.Errorf("%w: zero-size chunk", ErrNRFormat)
)

const (
	// NRMagic is "NRIP" read as a little-endian uint32.
	NRMagic uint32 = 0x5049524E

	// NRMaxKnownVersion is the highest format version with a known layout.
	NRMaxKnownVersion uint32 = 3

	nrHeaderSize      = 16
	nrChunkHeaderSize = 12
)

// NRTag identifies a chunk type. It is four ASCII characters stored
// least-significant byte first.
type NRTag uint32

// Known chunk tags.
const (
	NRTagVertex NRTag = 0x54524556 // "VERT"
	NRTagIndex  NRTag = 0x58444E49 // "INDX"
)

// String returns the tag as four characters. Non-printable bytes become '.'.
func (t NRTag) String() string {
	var b [4]byte
	for i := range b {
		c := byte(t >> (8 * i))
		if c < 0x20 || c > 0x7e {
			c = '.'
		}
		b[i] = c
	}
	return string(b[:])
}

// NRChunk is one tagged region of the container.
type NRChunk struct {
	Tag    NRTag
	Index  uint32 // Per-tag ordinal from the chunk header
	Offset int    // Start of the chunk header within the file
	Size   uint32 // Declared size including the 12-byte header
	Data   []byte // Payload, clamped to the file; aliases the parsed buffer
}

// NRFile represents a parsed NR container.
type NRFile struct {
	Version     uint32
	Chunks      []NRChunk
	Diagnostics []NRDiagnostic

	byTag map[NRTag][]int
}

// ChunksByTag returns the chunks with the given tag in file order.
func (f *NRFile) ChunksByTag(tag NRTag) []NRChunk {
	positions := f.byTag[tag]
	if len(positions) == 0 {
		return nil
	}
	chunks := make([]NRChunk, len(positions))
	for i, p := range positions {
		chunks[i] = f.Chunks[p]
	}
	return chunks
}

// TagCounts returns the number of chunks per tag.
func (f *NRFile) TagCounts() map[NRTag]int {
	counts := make(map[NRTag]int, len(f.byTag))
	for tag, positions := range f.byTag {
		counts[tag] = len(positions)
	}
	return counts
}

// ParseNR parses an NR container from raw bytes.
//
// A zero-size chunk stops the scan: the chunks collected so far are
// returned together with an error wrapping ErrZeroSizeChunk.
func ParseNR(data []byte) (*NRFile, error) {
	if len(data) < nrHeaderSize {
		return nil, ErrTruncatedNRHeader
	}

	if binary.LittleEndian.Uint32(data[0:4]) != NRMagic {
		return nil, ErrInvalidNRMagic
	}

	f := &NRFile{
		Version: binary.LittleEndian.Uint32(data[4:8]),
		byTag:   make(map[NRTag][]int),
	}

	// Later versions are expected to keep the chunk layout
	if f.Version > NRMaxKnownVersion {
		f.addDiagnostic(DiagUnsupportedVersion,
			"unsupported version %d (max known %d), continuing", f.Version, NRMaxKnownVersion)
	}

	pos := nrHeaderSize
	for len(data)-pos >= nrChunkHeaderSize {
		size := binary.LittleEndian.Uint32(data[pos:])
		if size == 0 {
			return f, fmt.Errorf("%w at offset %d", ErrZeroSizeChunk, pos)
		}

		chunk := NRChunk{
			Tag:    NRTag(binary.LittleEndian.Uint32(data[pos+4:])),
			Index:  binary.LittleEndian.Uint32(data[pos+8:]),
			Offset: pos,
			Size:   size,
		}

		end := pos + int(size)
		if uint64(pos)+uint64(size) > uint64(len(data)) {
			end = len(data)
			f.addDiagnostic(DiagTruncatedChunk,
				"chunk %s at offset %d declares %d bytes, only %d available",
				chunk.Tag, pos, size, len(data)-pos)
		}
		if size > nrChunkHeaderSize {
			chunk.Data = data[pos+nrChunkHeaderSize : end]
		}

		f.byTag[chunk.Tag] = append(f.byTag[chunk.Tag], len(f.Chunks))
		f.Chunks = append(f.Chunks, chunk)

		pos = end
	}

	return f, nil
}

// ParseNRFile parses an NR container from disk.
func ParseNRFile(path string) (*NRFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading NR file: %w", err)
	}
	return ParseNR(data)
}

// FindNRChunks returns the chunks matching tag, preserving order.
func FindNRChunks(chunks []NRChunk, tag NRTag) []NRChunk {
	var found []NRChunk
	for _, c := range chunks {
		if c.Tag == tag {
			found = append(found, c)
		}
	}
	return found
}

func (f *NRFile) addDiagnostic(kind NRDiagnosticKind, format string, args ...any) {
	f.Diagnostics = append(f.Diagnostics, NRDiagnostic{Kind: kind, Message: fmt.Sprintf(format, args...)})
}
