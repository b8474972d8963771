package convert

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Faultbox/nr2obj/pkg/formats"
)

// Input discovery errors.
var (
	ErrUnsupportedInput = errors.New("input must be a .nr file or a directory containing .nr files")
	ErrNoInputs         = errors.New("no .nr files found")
)

// DefaultOutputDirName is created next to the input when no output
// directory is configured for a command-line conversion.
const DefaultOutputDirName = "obj_output"

// IsNRFile reports whether path has a .nr extension, in any case.
func IsNRFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".nr")
}

// FindInputs resolves a file or directory argument to the .nr files it names.
// Directories are not searched recursively.
func FindInputs(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedInput, err)
	}

	if !info.IsDir() {
		if !IsNRFile(path) {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedInput, path)
		}
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("reading directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() && IsNRFile(e.Name()) {
			files = append(files, filepath.Join(path, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoInputs, path)
	}

	sort.Strings(files)
	return files, nil
}

// DefaultOutputDir returns where a conversion of path writes by default:
// an obj_output directory beside the file, or beside the directory.
func DefaultOutputDir(path string) string {
	return filepath.Join(filepath.Dir(filepath.Clean(path)), DefaultOutputDirName)
}

// OutputPath derives the .obj path for one space of an input file.
// An empty outDir places the output beside the input.
func OutputPath(input, outDir, suffix string) string {
	if outDir == "" {
		outDir = filepath.Dir(input)
	}
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(outDir, stem+suffix+".obj")
}

// SpaceLabel is the lower-case name used in logs.
func SpaceLabel(space formats.NRSpace) string {
	return strings.ToLower(space.String())
}
