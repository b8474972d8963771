package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestDecodeNRVertices_ZeroCount(t *testing.T) {
	for _, stride := range []uint32{0, 12, 32} {
		vertices, truncated := DecodeNRVertices(vertPayload(stride))
		if len(vertices) != 0 || truncated {
			t.Errorf("stride %d: expected no vertices, got %d (truncated=%v)", stride, len(vertices), truncated)
		}
	}
}

func TestDecodeNRVertices_ShortPayload(t *testing.T) {
	vertices, truncated := DecodeNRVertices([]byte{1, 0, 0, 0, 12, 0, 0})
	if len(vertices) != 0 || truncated {
		t.Errorf("expected empty result for 7-byte payload, got %d vertices", len(vertices))
	}
}

func TestDecodeNRVertices_Stride(t *testing.T) {
	payload := vertPayload(20, [3]float32{1, 2, 3}, [3]float32{4, 5, 6})

	// The second record starts at 8+20; 8+12 holds padding
	if got := binary.LittleEndian.Uint32(payload[20:]); got != 0xABABABAB {
		t.Fatalf("test payload layout unexpected: 0x%08X at offset 20", got)
	}

	vertices, truncated := DecodeNRVertices(payload)
	if truncated {
		t.Error("expected complete decode")
	}
	if len(vertices) != 2 {
		t.Fatalf("expected 2 vertices, got %d", len(vertices))
	}
	if vertices[0] != (mgl32.Vec3{1, 2, 3}) {
		t.Errorf("vertex 0: expected (1,2,3), got %v", vertices[0])
	}
	if vertices[1] != (mgl32.Vec3{4, 5, 6}) {
		t.Errorf("vertex 1: expected (4,5,6), got %v", vertices[1])
	}
}

func TestDecodeNRVertices_Truncated(t *testing.T) {
	payload := vertPayload(12, [3]float32{1, 1, 1}, [3]float32{2, 2, 2}, [3]float32{3, 3, 3})
	payload = payload[:len(payload)-4]

	vertices, truncated := DecodeNRVertices(payload)
	if !truncated {
		t.Error("expected truncation to be reported")
	}
	if len(vertices) != 2 {
		t.Errorf("expected 2 vertices, got %d", len(vertices))
	}
}

func TestDecodeNRVertices_LastRecordShorterThanStride(t *testing.T) {
	// Trailing attributes of the last record may be cut off; the position is still whole
	payload := vertPayload(24, [3]float32{1, 2, 3}, [3]float32{4, 5, 6})
	payload = payload[:len(payload)-12]

	vertices, truncated := DecodeNRVertices(payload)
	if truncated || len(vertices) != 2 {
		t.Errorf("expected 2 complete vertices, got %d (truncated=%v)", len(vertices), truncated)
	}
}

func TestDecodeNRVertices_HugeDeclaredCount(t *testing.T) {
	payload := vertPayload(12, [3]float32{1, 2, 3})
	binary.LittleEndian.PutUint32(payload, 0xFFFFFFFF)

	vertices, truncated := DecodeNRVertices(payload)
	if !truncated || len(vertices) != 1 {
		t.Errorf("expected 1 vertex and truncation, got %d (truncated=%v)", len(vertices), truncated)
	}
}

func TestDecodeNRVertices_ZeroStride(t *testing.T) {
	payload := vertPayload(0, [3]float32{1, 2, 3}, [3]float32{4, 5, 6})

	vertices, truncated := DecodeNRVertices(payload)
	if truncated {
		t.Error("expected complete decode")
	}
	if len(vertices) != 2 {
		t.Fatalf("expected 2 vertices, got %d", len(vertices))
	}
	for i, v := range vertices {
		if v != (mgl32.Vec3{1, 2, 3}) {
			t.Errorf("vertex %d: expected the first record (1,2,3), got %v", i, v)
		}
	}
}

func TestDecodeNRVertices_ZeroStrideHugeCount(t *testing.T) {
	payload := vertPayload(0, [3]float32{1, 2, 3}, [3]float32{4, 5, 6})
	binary.LittleEndian.PutUint32(payload, 0xFFFFFFFF)

	vertices, truncated := DecodeNRVertices(payload)
	if !truncated || len(vertices) != 2 {
		t.Errorf("expected 2 vertices and truncation, got %d (truncated=%v)", len(vertices), truncated)
	}
}

func TestDecodeNRIndices(t *testing.T) {
	indices, truncated := DecodeNRIndices(indxPayload(0, 1, 2, 2, 1, 3))
	if truncated {
		t.Error("expected complete decode")
	}
	want := []uint32{0, 1, 2, 2, 1, 3}
	if len(indices) != len(want) {
		t.Fatalf("expected %d indices, got %d", len(want), len(indices))
	}
	for i := range want {
		if indices[i] != want[i] {
			t.Errorf("index %d: expected %d, got %d", i, want[i], indices[i])
		}
	}
}

func TestDecodeNRIndices_Truncated(t *testing.T) {
	payload := indxPayload(0, 1, 2, 3)
	payload = payload[:len(payload)-2]

	indices, truncated := DecodeNRIndices(payload)
	if !truncated {
		t.Error("expected truncation to be reported")
	}
	if len(indices) != 3 {
		t.Errorf("expected 3 indices, got %d", len(indices))
	}
}

func TestSelectNRVertexChunk(t *testing.T) {
	local := NRChunk{Tag: NRTagVertex, Index: 0, Offset: 16}
	world := NRChunk{Tag: NRTagVertex, Index: 1, Offset: 100}

	tests := []struct {
		name       string
		chunks     []NRChunk
		space      NRSpace
		wantOffset int
		wantSpace  NRSpace
	}{
		{"local of two", []NRChunk{local, world}, NRSpaceLocal, 16, NRSpaceLocal},
		{"world of two", []NRChunk{local, world}, NRSpaceWorld, 100, NRSpaceWorld},
		{"local of one", []NRChunk{local}, NRSpaceLocal, 16, NRSpaceLocal},
		{"world falls back", []NRChunk{local}, NRSpaceWorld, 16, NRSpaceLocal},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			chunk, space, ok := SelectNRVertexChunk(tc.chunks, tc.space)
			if !ok {
				t.Fatal("expected a chunk to be selected")
			}
			if chunk.Offset != tc.wantOffset {
				t.Errorf("expected chunk at %d, got %d", tc.wantOffset, chunk.Offset)
			}
			if space != tc.wantSpace {
				t.Errorf("expected space %s, got %s", tc.wantSpace, space)
			}
		})
	}
}

func TestSelectNRVertexChunk_Empty(t *testing.T) {
	for _, space := range []NRSpace{NRSpaceLocal, NRSpaceWorld} {
		chunk, selected, ok := SelectNRVertexChunk(nil, space)
		if ok {
			t.Errorf("%s: expected ok=false for no chunks", space)
		}
		if selected != space || chunk.Data != nil {
			t.Errorf("%s: expected zero chunk and requested space, got %+v, %s", space, chunk, selected)
		}
	}
}

func TestConvertNR_RoundTrip(t *testing.T) {
	data := createTestNR(1,
		testChunk{tag: NRTagVertex, data: vertPayload(12, [3]float32{0, 0, 0}, [3]float32{1, 0, 0}, [3]float32{0, 1, 0})},
		testChunk{tag: NRTagIndex, data: indxPayload(0, 1, 2)},
	)
	f, err := ParseNR(data)
	if err != nil {
		t.Fatalf("ParseNR failed: %v", err)
	}

	mesh, err := ConvertNR(f, NRSpaceLocal)
	if err != nil {
		t.Fatalf("ConvertNR failed: %v", err)
	}

	var out bytes.Buffer
	if err := WriteOBJ(&out, mesh, "/captures/mesh_0001.nr"); err != nil {
		t.Fatalf("WriteOBJ failed: %v", err)
	}
	text := out.String()

	var vLines, fLines []string
	for _, line := range strings.Split(text, "\n") {
		switch {
		case strings.HasPrefix(line, "v "):
			vLines = append(vLines, line)
		case strings.HasPrefix(line, "f "):
			fLines = append(fLines, line)
		}
	}

	wantV := []string{"v 0.000000 0.000000 0.000000", "v 1.000000 0.000000 0.000000", "v 0.000000 1.000000 0.000000"}
	if len(vLines) != len(wantV) {
		t.Fatalf("expected %d vertex lines, got %d:\n%s", len(wantV), len(vLines), text)
	}
	for i := range wantV {
		if vLines[i] != wantV[i] {
			t.Errorf("vertex line %d: expected %q, got %q", i, wantV[i], vLines[i])
		}
	}
	if len(fLines) != 1 || fLines[0] != "f 1 2 3" {
		t.Errorf("expected single face 'f 1 2 3', got %q", fLines)
	}
	if !strings.Contains(text, "# Original file: mesh_0001.nr\n") {
		t.Errorf("expected source basename in header:\n%s", text)
	}
	if !strings.Contains(text, "# Vertex space: Local\n") {
		t.Errorf("expected vertex space in header:\n%s", text)
	}
}

func TestConvertNR_WorldSpace(t *testing.T) {
	data := createTestNR(1,
		testChunk{tag: NRTagVertex, index: 0, data: vertPayload(12, [3]float32{1, 1, 1})},
		testChunk{tag: NRTagIndex, index: 0, data: indxPayload(0, 0, 0)},
		testChunk{tag: NRTagVertex, index: 1, data: vertPayload(12, [3]float32{9, 9, 9})},
		testChunk{tag: NRTagIndex, index: 1, data: indxPayload(5, 5, 5)},
	)
	f, err := ParseNR(data)
	if err != nil {
		t.Fatalf("ParseNR failed: %v", err)
	}

	mesh, err := ConvertNR(f, NRSpaceWorld)
	if err != nil {
		t.Fatalf("ConvertNR failed: %v", err)
	}
	if mesh.Selected != NRSpaceWorld {
		t.Errorf("expected world space, got %s", mesh.Selected)
	}
	if len(mesh.Vertices) != 1 || mesh.Vertices[0] != (mgl32.Vec3{9, 9, 9}) {
		t.Errorf("expected world vertex (9,9,9), got %v", mesh.Vertices)
	}
	// First index chunk regardless of space
	if len(mesh.Faces) != 1 || mesh.Faces[0] != [3]uint32{0, 0, 0} {
		t.Errorf("expected faces from first INDX chunk, got %v", mesh.Faces)
	}
	if len(mesh.Diagnostics) != 0 {
		t.Errorf("expected no diagnostics, got %v", mesh.Diagnostics)
	}
}

func TestConvertNR_WorldFallback(t *testing.T) {
	data := createTestNR(1,
		testChunk{tag: NRTagVertex, data: vertPayload(12, [3]float32{1, 2, 3})},
		testChunk{tag: NRTagIndex, data: indxPayload(0, 0, 0)},
	)
	f, err := ParseNR(data)
	if err != nil {
		t.Fatalf("ParseNR failed: %v", err)
	}

	mesh, err := ConvertNR(f, NRSpaceWorld)
	if err != nil {
		t.Fatalf("expected silent fallback, got %v", err)
	}
	if mesh.Space != NRSpaceWorld || mesh.Selected != NRSpaceLocal {
		t.Errorf("expected requested World, selected Local; got %s, %s", mesh.Space, mesh.Selected)
	}
	if !HasDiagnostic(mesh.Diagnostics, DiagWorldSpaceUnavailable) {
		t.Errorf("expected WorldSpaceUnavailable diagnostic, got %v", mesh.Diagnostics)
	}
}

func TestConvertNR_ZeroStride(t *testing.T) {
	data := createTestNR(1,
		testChunk{tag: NRTagVertex, data: vertPayload(0, [3]float32{1, 2, 3}, [3]float32{4, 5, 6})},
		testChunk{tag: NRTagIndex, data: indxPayload(0, 1, 1)},
	)
	f, err := ParseNR(data)
	if err != nil {
		t.Fatalf("ParseNR failed: %v", err)
	}

	mesh, err := ConvertNR(f, NRSpaceLocal)
	if err != nil {
		t.Fatalf("ConvertNR failed: %v", err)
	}
	if len(mesh.Vertices) != 2 || mesh.Vertices[1] != (mgl32.Vec3{1, 2, 3}) {
		t.Errorf("expected the first record twice, got %v", mesh.Vertices)
	}
	if !HasDiagnostic(mesh.Diagnostics, DiagZeroStride) {
		t.Errorf("expected ZeroStride diagnostic, got %v", mesh.Diagnostics)
	}
	if HasDiagnostic(mesh.Diagnostics, DiagTruncatedVertices) {
		t.Errorf("expected no truncation, got %v", mesh.Diagnostics)
	}
}

func TestConvertNR_DanglingIndices(t *testing.T) {
	data := createTestNR(1,
		testChunk{tag: NRTagVertex, data: vertPayload(12, [3]float32{})},
		testChunk{tag: NRTagIndex, data: indxPayload(0, 1, 2, 3, 4, 5, 6)},
	)
	f, err := ParseNR(data)
	if err != nil {
		t.Fatalf("ParseNR failed: %v", err)
	}

	mesh, err := ConvertNR(f, NRSpaceLocal)
	if err != nil {
		t.Fatalf("ConvertNR failed: %v", err)
	}
	if len(mesh.Faces) != 2 {
		t.Fatalf("expected 2 faces, got %d", len(mesh.Faces))
	}
	if mesh.Faces[0] != [3]uint32{0, 1, 2} || mesh.Faces[1] != [3]uint32{3, 4, 5} {
		t.Errorf("unexpected faces: %v", mesh.Faces)
	}
	if !HasDiagnostic(mesh.Diagnostics, DiagDanglingIndices) {
		t.Errorf("expected DanglingIndices diagnostic, got %v", mesh.Diagnostics)
	}
	// Out-of-range indices are kept as-is
	if mesh.Faces[1][2] != 5 {
		t.Errorf("expected index 5 to be preserved, got %d", mesh.Faces[1][2])
	}
}

func TestConvertNR_NoGeometry(t *testing.T) {
	tests := []struct {
		name   string
		chunks []testChunk
	}{
		{"no chunks", nil},
		{"no vertex chunk", []testChunk{{tag: NRTagIndex, data: indxPayload(0, 1, 2)}}},
		{"no index chunk", []testChunk{{tag: NRTagVertex, data: vertPayload(12, [3]float32{})}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f, err := ParseNR(createTestNR(1, tc.chunks...))
			if err != nil {
				t.Fatalf("ParseNR failed: %v", err)
			}
			mesh, err := ConvertNR(f, NRSpaceLocal)
			if !errors.Is(err, ErrNoGeometry) {
				t.Errorf("expected ErrNoGeometry, got %v", err)
			}
			if mesh != nil {
				t.Error("expected no mesh")
			}
		})
	}
}

func TestConvertNR_Truncated(t *testing.T) {
	vert := vertPayload(16, [3]float32{1, 1, 1}, [3]float32{2, 2, 2})
	vert = vert[:len(vert)-10]
	indx := indxPayload(0, 1, 0)
	indx = indx[:len(indx)-4]

	f, err := ParseNR(createTestNR(1,
		testChunk{tag: NRTagVertex, data: vert},
		testChunk{tag: NRTagIndex, data: indx},
	))
	if err != nil {
		t.Fatalf("ParseNR failed: %v", err)
	}

	mesh, err := ConvertNR(f, NRSpaceLocal)
	if err != nil {
		t.Fatalf("ConvertNR failed: %v", err)
	}
	if len(mesh.Vertices) != 1 || len(mesh.Faces) != 0 {
		t.Errorf("expected partial mesh, got %d vertices, %d faces", len(mesh.Vertices), len(mesh.Faces))
	}
	for _, kind := range []NRDiagnosticKind{DiagTruncatedVertices, DiagTruncatedIndices, DiagDanglingIndices} {
		if !HasDiagnostic(mesh.Diagnostics, kind) {
			t.Errorf("expected %s diagnostic, got %v", kind, mesh.Diagnostics)
		}
	}
}

func TestNRMesh_Bounds(t *testing.T) {
	mesh := &NRMesh{Vertices: []mgl32.Vec3{{1, -2, 3}, {-4, 5, 0}, {2, 0, -6}}}

	lo, hi := mesh.Bounds()
	if lo != (mgl32.Vec3{-4, -2, -6}) {
		t.Errorf("expected min (-4,-2,-6), got %v", lo)
	}
	if hi != (mgl32.Vec3{2, 5, 3}) {
		t.Errorf("expected max (2,5,3), got %v", hi)
	}

	empty := &NRMesh{}
	lo, hi = empty.Bounds()
	if lo != (mgl32.Vec3{}) || hi != (mgl32.Vec3{}) {
		t.Errorf("expected zero bounds for empty mesh, got %v %v", lo, hi)
	}
}

func TestNRSpace_String(t *testing.T) {
	if NRSpaceLocal.String() != "Local" || NRSpaceWorld.String() != "World" {
		t.Errorf("unexpected names: %s, %s", NRSpaceLocal, NRSpaceWorld)
	}
	if NRSpace(5).String() != "Unknown(5)" {
		t.Errorf("unexpected name for invalid space: %s", NRSpace(5))
	}
}
