// Package formats provides parsers for NinjaRipper capture files.
package formats

// Note: NR container reading is implemented in nr.go
// Note: VERT/INDX geometry decoding is implemented in nr_geometry.go
// Note: OBJ output is implemented in obj.go
