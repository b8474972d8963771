package formats

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
)

// WriteOBJ writes the mesh as Wavefront OBJ positions and triangle faces.
// source is only used for the header comment.
func WriteOBJ(w io.Writer, m *NRMesh, source string) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "# Converted from NinjaRipper 2 .nr file")
	fmt.Fprintf(bw, "# Original file: %s\n", filepath.Base(source))
	fmt.Fprintf(bw, "# Vertex space: %s\n\n", m.Space)

	for _, v := range m.Vertices {
		fmt.Fprintf(bw, "v %.6f %.6f %.6f\n", v[0], v[1], v[2])
	}

	// OBJ indices are 1-based
	fmt.Fprintln(bw)
	for _, f := range m.Faces {
		fmt.Fprintf(bw, "f %d %d %d\n", uint64(f[0])+1, uint64(f[1])+1, uint64(f[2])+1)
	}

	return bw.Flush()
}
