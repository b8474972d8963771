// Package convert runs NR to OBJ conversions for files and directories.
package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/nr2obj/internal/config"
	"github.com/Faultbox/nr2obj/pkg/formats"
)

// ErrOutputConflict marks an input whose OBJ path an earlier input of the
// same batch already writes, such as a.nr and a.NR in one directory.
var ErrOutputConflict = errors.New("output path already written by another input")

// Result is the outcome of writing one OBJ artifact.
type Result struct {
	Input    string
	Output   string
	Space    formats.NRSpace // Requested space
	Selected formats.NRSpace // Space the vertices came from

	Vertices    int
	Faces       int
	Diagnostics []formats.NRDiagnostic

	Err error
}

// OK reports whether the artifact was written.
func (r Result) OK() bool {
	return r.Err == nil
}

// Summary collects the results of a batch.
type Summary struct {
	Results  []Result
	Duration time.Duration
}

// Succeeded returns the number of artifacts written.
func (s *Summary) Succeeded() int {
	n := 0
	for _, r := range s.Results {
		if r.OK() {
			n++
		}
	}
	return n
}

// Failed returns the number of artifacts that could not be written.
func (s *Summary) Failed() int {
	return len(s.Results) - s.Succeeded()
}

// Err combines every failure of the batch, or returns nil.
func (s *Summary) Err() error {
	var err error
	for _, r := range s.Results {
		if r.Err != nil {
			err = multierr.Append(err, fmt.Errorf("%s (%s): %w", r.Input, r.Space, r.Err))
		}
	}
	return err
}

// Converter writes one OBJ per configured space for each input file.
type Converter struct {
	cfg     config.ConvertConfig
	spaces  []formats.NRSpace
	workers int
	log     *zap.Logger
}

// New creates a Converter. An empty cfg.OutputDir writes beside each input.
func New(cfg config.ConvertConfig, log *zap.Logger) (*Converter, error) {
	spaces, err := cfg.ParsedSpaces()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &Converter{
		cfg:     cfg,
		spaces:  spaces,
		workers: workers,
		log:     log,
	}, nil
}

// ConvertFile converts one .nr file for every configured space.
// The file is read and parsed once; a failure in one space does not stop
// the others. It never panics on malformed input.
func (c *Converter) ConvertFile(path string) []Result {
	results := c.newResults(path, nil)

	log := c.log.With(zap.String("file", path))

	f, err := formats.ParseNRFile(path)
	if err != nil {
		log.Error("parse failed", zap.Error(err))
		for i := range results {
			results[i].Err = err
		}
		return results
	}

	log.Debug("parsed", zap.Uint32("version", f.Version), zap.Int("chunks", len(f.Chunks)))
	for i, chunk := range f.Chunks {
		log.Debug("chunk",
			zap.Int("n", i),
			zap.Stringer("tag", chunk.Tag),
			zap.Uint32("index", chunk.Index),
			zap.Int("offset", chunk.Offset),
			zap.Uint32("size", chunk.Size))
	}
	logDiagnostics(log, f.Diagnostics)

	for i := range results {
		c.convertSpace(log, f, &results[i])
	}
	return results
}

func (c *Converter) convertSpace(log *zap.Logger, f *formats.NRFile, r *Result) {
	log = log.With(zap.String("space", SpaceLabel(r.Space)))

	mesh, err := formats.ConvertNR(f, r.Space)
	if err != nil {
		log.Error("conversion failed", zap.Error(err))
		r.Err = err
		return
	}

	r.Selected = mesh.Selected
	r.Vertices = len(mesh.Vertices)
	r.Faces = len(mesh.Faces)
	r.Diagnostics = mesh.Diagnostics
	logDiagnostics(log, mesh.Diagnostics)

	// Render first so a failed conversion never leaves a partial file
	var buf bytes.Buffer
	if err := formats.WriteOBJ(&buf, mesh, r.Input); err != nil {
		r.Err = fmt.Errorf("rendering OBJ: %w", err)
		log.Error("conversion failed", zap.Error(r.Err))
		return
	}

	if err := os.MkdirAll(filepath.Dir(r.Output), 0755); err != nil {
		r.Err = fmt.Errorf("creating output directory: %w", err)
		log.Error("conversion failed", zap.Error(r.Err))
		return
	}
	if err := os.WriteFile(r.Output, buf.Bytes(), 0644); err != nil {
		r.Err = fmt.Errorf("writing OBJ: %w", err)
		log.Error("conversion failed", zap.Error(r.Err))
		return
	}

	log.Info("converted",
		zap.String("output", r.Output),
		zap.Int("vertices", r.Vertices),
		zap.Int("faces", r.Faces))
}

// Run converts inputs using the configured number of workers.
// Cancelling ctx stops new files from being started; files not started
// are reported with ctx.Err(). An input whose outputs collide with an
// earlier input is not converted and fails with ErrOutputConflict.
// Results are ordered by input, then space.
func (c *Converter) Run(ctx context.Context, inputs []string) *Summary {
	start := time.Now()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = make([]Result, 0, len(inputs)*len(c.spaces))
	)

	queued := make([]string, 0, len(inputs))
	claimed := make(map[string]string, len(inputs)*len(c.spaces))
	for _, in := range inputs {
		if owner := c.claimOutputs(claimed, in); owner != "" {
			err := fmt.Errorf("%w: %s", ErrOutputConflict, owner)
			c.log.Error("conversion skipped", zap.String("file", in), zap.Error(err))
			results = append(results, c.newResults(in, err)...)
			continue
		}
		queued = append(queued, in)
	}

	tasks := make(chan string, len(queued))
	for _, in := range queued {
		tasks <- in
	}
	close(tasks)

	workers := min(c.workers, len(queued))
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range tasks {
				var rs []Result
				if err := ctx.Err(); err != nil {
					rs = c.newResults(path, err)
				} else {
					rs = c.ConvertFile(path)
				}

				mu.Lock()
				results = append(results, rs...)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Input != results[j].Input {
			return results[i].Input < results[j].Input
		}
		return results[i].Space < results[j].Space
	})

	return &Summary{Results: results, Duration: time.Since(start)}
}

// claimOutputs records the outputs of path in claimed. If any of them is
// already taken it records nothing and returns the input that owns it.
func (c *Converter) claimOutputs(claimed map[string]string, path string) string {
	outputs := make([]string, len(c.spaces))
	for i, space := range c.spaces {
		outputs[i] = filepath.Clean(OutputPath(path, c.cfg.OutputDir, c.cfg.Suffix(space)))
		if owner, ok := claimed[outputs[i]]; ok {
			return owner
		}
	}
	for _, out := range outputs {
		claimed[out] = path
	}
	return ""
}

// newResults prepares one Result per configured space.
func (c *Converter) newResults(path string, err error) []Result {
	results := make([]Result, len(c.spaces))
	for i, space := range c.spaces {
		results[i] = Result{
			Input:    path,
			Output:   OutputPath(path, c.cfg.OutputDir, c.cfg.Suffix(space)),
			Space:    space,
			Selected: space,
			Err:      err,
		}
	}
	return results
}

func logDiagnostics(log *zap.Logger, diags []formats.NRDiagnostic) {
	for _, d := range diags {
		log.Warn(d.Message, zap.Stringer("kind", d.Kind))
	}
}
