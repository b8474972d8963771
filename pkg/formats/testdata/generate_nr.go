//go:build ignore

// This program generates a sample NR capture for manual testing.
// Run with: go run generate_nr.go
package main

import (
	"bytes"
	"encoding/binary"
	"os"
)

const (
	tagVert = 0x54524556 // "VERT"
	tagIndx = 0x58444E49 // "INDX"
	tagText = 0x54584554 // "TEXT", ignored by the converter
)

func chunk(buf *bytes.Buffer, tag, index uint32, payload []byte) {
	binary.Write(buf, binary.LittleEndian, uint32(12+len(payload)))
	binary.Write(buf, binary.LittleEndian, tag)
	binary.Write(buf, binary.LittleEndian, index)
	buf.Write(payload)
}

// quad returns a VERT payload with a unit quad offset by dx,
// each vertex followed by a normal and UV (stride 32).
func quad(dx float32) []byte {
	var p bytes.Buffer
	binary.Write(&p, binary.LittleEndian, uint32(4))  // count
	binary.Write(&p, binary.LittleEndian, uint32(32)) // stride
	for _, v := range [][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}} {
		binary.Write(&p, binary.LittleEndian, [3]float32{v[0] + dx, v[1], 0}) // position
		binary.Write(&p, binary.LittleEndian, [3]float32{0, 0, 1})            // normal
		binary.Write(&p, binary.LittleEndian, v)                              // uv
	}
	return p.Bytes()
}

func main() {
	var buf bytes.Buffer

	// Header (16 bytes)
	binary.Write(&buf, binary.LittleEndian, uint32(0x5049524E)) // "NRIP"
	binary.Write(&buf, binary.LittleEndian, uint32(1))          // version
	buf.Write(make([]byte, 8))                                  // reserved

	chunk(&buf, tagText, 0, []byte("sample.dds\x00"))
	chunk(&buf, tagVert, 0, quad(0))   // local space
	chunk(&buf, tagVert, 1, quad(100)) // world space

	var idx bytes.Buffer
	binary.Write(&idx, binary.LittleEndian, uint32(6)) // count
	binary.Write(&idx, binary.LittleEndian, uint32(4)) // triangle list
	binary.Write(&idx, binary.LittleEndian, []uint32{0, 1, 2, 0, 2, 3})
	chunk(&buf, tagIndx, 0, idx.Bytes())

	if err := os.WriteFile("sample.nr", buf.Bytes(), 0644); err != nil {
		panic(err)
	}
}
