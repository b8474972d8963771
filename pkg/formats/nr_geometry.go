package formats

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrNoGeometry is returned when a file has no vertex or no index chunk.
var ErrNoGeometry = errors.New("no vertex or index data found")

const (
	nrBufferHeaderSize = 8  // count + stride (VERT) or count + topology (INDX)
	nrPositionSize     = 12 // three float32
)

// NRSpace selects which vertex buffer to read.
type NRSpace int

// Coordinate spaces, by vertex chunk position in capture order.
const (
	NRSpaceLocal NRSpace = 0
	NRSpaceWorld NRSpace = 1
)

// String returns "Local" or "World".
func (s NRSpace) String() string {
	switch s {
	case NRSpaceLocal:
		return "Local"
	case NRSpaceWorld:
		return "World"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// NRMesh is the geometry extracted from one NR file for one space.
type NRMesh struct {
	Vertices []mgl32.Vec3
	Faces    [][3]uint32 // 0-based indices into Vertices, not range checked

	Space    NRSpace // Requested space
	Selected NRSpace // Space actually read

	Diagnostics []NRDiagnostic
}

// Bounds returns the axis-aligned bounding box of the vertices.
// An empty mesh yields two zero vectors.
func (m *NRMesh) Bounds() (lo, hi mgl32.Vec3) {
	if len(m.Vertices) == 0 {
		return mgl32.Vec3{}, mgl32.Vec3{}
	}
	lo, hi = m.Vertices[0], m.Vertices[0]
	for _, v := range m.Vertices[1:] {
		for i := 0; i < 3; i++ {
			lo[i] = min(lo[i], v[i])
			hi[i] = max(hi[i], v[i])
		}
	}
	return lo, hi
}

// DecodeNRVertices decodes the positions of a VERT payload.
// Only the first 12 bytes of each stride-sized record are read.
// Decoding stops at the end of the payload; truncated reports whether
// fewer vertices than declared were available.
//
// A stride of 0 repeats the first record. The number of copies is capped at
// the number of 12-byte records the payload could hold, and reaching the cap
// before count is reported as truncation.
func DecodeNRVertices(payload []byte) (vertices []mgl32.Vec3, truncated bool) {
	if len(payload) < nrBufferHeaderSize {
		return nil, false
	}

	count := binary.LittleEndian.Uint32(payload[0:4])
	stride := int(binary.LittleEndian.Uint32(payload[4:8]))

	limitStride := stride
	if stride == 0 {
		limitStride = nrPositionSize
	}
	limit := recordCapacity(count, len(payload)-nrBufferHeaderSize, limitStride, nrPositionSize)

	vertices = make([]mgl32.Vec3, 0, limit)
	pos := nrBufferHeaderSize
	for i := uint32(0); i < count; i++ {
		if pos+nrPositionSize > len(payload) || len(vertices) == limit {
			return vertices, true
		}
		vertices = append(vertices, mgl32.Vec3{
			math.Float32frombits(binary.LittleEndian.Uint32(payload[pos:])),
			math.Float32frombits(binary.LittleEndian.Uint32(payload[pos+4:])),
			math.Float32frombits(binary.LittleEndian.Uint32(payload[pos+8:])),
		})
		pos += stride
	}
	return vertices, false
}

// DecodeNRIndices decodes the indices of an INDX payload.
// The topology field is ignored; a triangle list is assumed.
func DecodeNRIndices(payload []byte) (indices []uint32, truncated bool) {
	if len(payload) < nrBufferHeaderSize {
		return nil, false
	}

	count := binary.LittleEndian.Uint32(payload[0:4])

	indices = make([]uint32, 0, recordCapacity(count, len(payload)-nrBufferHeaderSize, 4, 4))
	pos := nrBufferHeaderSize
	for i := uint32(0); i < count; i++ {
		if pos+4 > len(payload) {
			return indices, true
		}
		indices = append(indices, binary.LittleEndian.Uint32(payload[pos:]))
		pos += 4
	}
	return indices, false
}

// recordCapacity bounds a declared record count by what fits in n bytes.
func recordCapacity(count uint32, n, stride, size int) int {
	if n < size {
		return 0
	}
	fit := (n-size)/stride + 1
	if uint64(fit) > uint64(count) {
		return int(count)
	}
	return fit
}

// SelectNRVertexChunk picks the vertex chunk for the requested space.
// World space is the second vertex chunk; with fewer than two chunks it
// falls back to the first. The returned space is the one actually chosen.
// ok is false when vertChunks is empty.
func SelectNRVertexChunk(vertChunks []NRChunk, space NRSpace) (chunk NRChunk, selected NRSpace, ok bool) {
	if len(vertChunks) == 0 {
		return NRChunk{}, space, false
	}
	if space == NRSpaceWorld && len(vertChunks) > 1 {
		return vertChunks[1], NRSpaceWorld, true
	}
	return vertChunks[0], NRSpaceLocal, true
}

// ConvertNR extracts a triangle mesh from a parsed NR file.
// The first index chunk is used for either space.
func ConvertNR(f *NRFile, space NRSpace) (*NRMesh, error) {
	vertChunks := f.ChunksByTag(NRTagVertex)
	indxChunks := f.ChunksByTag(NRTagIndex)
	if len(vertChunks) == 0 || len(indxChunks) == 0 {
		return nil, fmt.Errorf("%w (%d %s, %d %s chunks)", ErrNoGeometry,
			len(vertChunks), NRTagVertex, len(indxChunks), NRTagIndex)
	}

	mesh := &NRMesh{Space: space}

	vertChunk, selected, _ := SelectNRVertexChunk(vertChunks, space)
	mesh.Selected = selected
	if selected != space {
		mesh.addDiagnostic(DiagWorldSpaceUnavailable,
			"%s space requested but only %d %s chunk present, using %s",
			space, len(vertChunks), NRTagVertex, selected)
	}

	var truncated bool
	mesh.Vertices, truncated = DecodeNRVertices(vertChunk.Data)
	if truncated {
		mesh.addDiagnostic(DiagTruncatedVertices,
			"vertex chunk at offset %d ends after %d vertices", vertChunk.Offset, len(mesh.Vertices))
	}
	if len(vertChunk.Data) >= nrBufferHeaderSize && binary.LittleEndian.Uint32(vertChunk.Data[4:8]) == 0 && len(mesh.Vertices) > 0 {
		mesh.addDiagnostic(DiagZeroStride,
			"vertex chunk at offset %d has stride 0, every vertex repeats the first", vertChunk.Offset)
	}

	indxChunk := indxChunks[0]
	indices, truncated := DecodeNRIndices(indxChunk.Data)
	if truncated {
		mesh.addDiagnostic(DiagTruncatedIndices,
			"index chunk at offset %d ends after %d indices", indxChunk.Offset, len(indices))
	}

	mesh.Faces = make([][3]uint32, 0, len(indices)/3)
	for i := 0; i+2 < len(indices); i += 3 {
		mesh.Faces = append(mesh.Faces, [3]uint32{indices[i], indices[i+1], indices[i+2]})
	}
	if rem := len(indices) % 3; rem != 0 {
		mesh.addDiagnostic(DiagDanglingIndices, "dropped %d trailing indices", rem)
	}

	return mesh, nil
}

func (m *NRMesh) addDiagnostic(kind NRDiagnosticKind, format string, args ...any) {
	m.Diagnostics = append(m.Diagnostics, NRDiagnostic{Kind: kind, Message: fmt.Sprintf(format, args...)})
}
