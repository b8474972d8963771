package formats

import "fmt"

// NRDiagnosticKind classifies a non-fatal condition met while reading.
type NRDiagnosticKind int

// Diagnostic kinds.
const (
	DiagUnsupportedVersion    NRDiagnosticKind = iota // Version newer than NRMaxKnownVersion
	DiagTruncatedChunk                                // Chunk runs past end of file
	DiagTruncatedVertices                             // Fewer vertices than declared
	DiagTruncatedIndices                              // Fewer indices than declared
	DiagWorldSpaceUnavailable                         // Fell back to local space
	DiagDanglingIndices                               // Index count not a multiple of 3
	DiagZeroStride                                    // Vertex stride 0, first record repeated
)

// String returns a short name for the kind.
func (k NRDiagnosticKind) String() string {
	switch k {
	case DiagUnsupportedVersion:
		return "UnsupportedVersion"
	case DiagTruncatedChunk:
		return "TruncatedChunk"
	case DiagTruncatedVertices:
		return "TruncatedVertices"
	case DiagTruncatedIndices:
		return "TruncatedIndices"
	case DiagWorldSpaceUnavailable:
		return "WorldSpaceUnavailable"
	case DiagDanglingIndices:
		return "DanglingIndices"
	case DiagZeroStride:
		return "ZeroStride"
	default:
		return fmt.Sprintf("Unknown(%d)", k)
	}
}

// NRDiagnostic is a warning produced by permissive decoding.
type NRDiagnostic struct {
	Kind    NRDiagnosticKind
	Message string
}

// String returns "Kind: message".
func (d NRDiagnostic) String() string {
	return d.Kind.String() + ": " + d.Message
}

// HasDiagnostic reports whether diags contains an entry of the given kind.
func HasDiagnostic(diags []NRDiagnostic, kind NRDiagnosticKind) bool {
	for _, d := range diags {
		if d.Kind == kind {
			return true
		}
	}
	return false
}
