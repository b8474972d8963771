// nr2obj converts NinjaRipper 2 .nr captures to Wavefront OBJ meshes.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Faultbox/nr2obj/internal/config"
	"github.com/Faultbox/nr2obj/internal/convert"
	"github.com/Faultbox/nr2obj/internal/logger"
	"github.com/Faultbox/nr2obj/pkg/formats"
)

// out formats counts with thousands separators.
var out = message.NewPrinter(language.English)

func main() {
	config.ParseFlags()
	code := run(config.Args())
	logger.Sync()
	os.Exit(code)
}

func run(args []string) int {
	if len(args) < 1 {
		printUsage()
		return 1
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		return 1
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		return 1
	}

	logger.Sugar.Debugf("Config: %+v", cfg)

	command := args[0]
	switch command {
	case "convert", "c":
		return cmdConvert(cfg, args[1:])
	case "info", "i":
		return cmdInfo(args[1:])
	case "config":
		return cmdConfig(cfg, args[1:])
	case "help", "-h", "--help":
		printUsage()
		return 0
	}

	// Files dropped onto the executable arrive as bare paths
	if convert.IsNRFile(command) {
		return cmdDropped(cfg, args)
	}
	fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
	printUsage()
	return 1
}

func printUsage() {
	fmt.Println(`nr2obj - NinjaRipper 2 capture to OBJ converter

Usage:
  nr2obj [flags] <command> [arguments]
  nr2obj [flags] <file.nr>...

Commands:
  convert <file.nr|dir>   Convert to Local and World space OBJ files
  info <file.nr>          Show chunks and geometry statistics
  config init [path]      Write the current configuration as YAML

Flags:
  -o <dir>        Output directory (default: obj_output beside the input)
  -j <n>          Files converted in parallel
  -space <name>   Convert only local or world space
  -config <path>  Config file
  -log-file <p>   Also write logs to a file
  -debug          Debug logging (lists every chunk)

Examples:
  nr2obj convert captures/
  nr2obj -o meshes -space world convert frame_0001.nr
  nr2obj info frame_0001.nr`)
}

func cmdConvert(cfg *config.Config, args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: nr2obj convert <file.nr|dir>")
		return 1
	}

	inputs, err := convert.FindInputs(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	convCfg := cfg.Convert
	if convCfg.OutputDir == "" {
		convCfg.OutputDir = convert.DefaultOutputDir(args[0])
	}

	return runBatch(convCfg, inputs)
}

// cmdDropped converts each dropped file next to itself.
func cmdDropped(cfg *config.Config, args []string) int {
	var inputs []string
	for _, path := range args {
		if info, err := os.Stat(path); err != nil || info.IsDir() || !convert.IsNRFile(path) {
			logger.Warn("skipping input, not a .nr file", zap.String("file", path))
			continue
		}
		inputs = append(inputs, path)
	}
	if len(inputs) == 0 {
		return 1
	}
	return runBatch(cfg.Convert, inputs)
}

func runBatch(convCfg config.ConvertConfig, inputs []string) int {
	conv, err := convert.New(convCfg, logger.Named("convert"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("converting",
		zap.Int("files", len(inputs)),
		zap.Strings("spaces", convCfg.Spaces),
		zap.String("output_dir", convCfg.OutputDir))
	logger.Debug("inputs", zap.Strings("files", inputs), zap.Int("workers", convCfg.Workers))

	summary := conv.Run(ctx, inputs)

	for _, r := range summary.Results {
		status := "ok"
		if !r.OK() {
			status = "FAILED"
		}
		out.Printf("%-6s %s -> %s (%d vertices, %d faces)\n",
			status, filepath.Base(r.Input), r.Output, r.Vertices, r.Faces)
	}
	out.Fprintf(os.Stderr, "\n%d written, %d failed in %v\n",
		summary.Succeeded(), summary.Failed(), summary.Duration.Round(time.Millisecond))

	if err := summary.Err(); err != nil {
		logger.Error("batch finished with failures", zap.Error(err))
		return 1
	}
	return 0
}

func cmdInfo(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: nr2obj info <file.nr>")
		return 1
	}

	f, err := formats.ParseNRFile(args[0])
	if f == nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	out.Printf("File:    %s\n", args[0])
	out.Printf("Version: %d\n", f.Version)
	out.Printf("Chunks:  %d\n", len(f.Chunks))
	fmt.Println()

	fmt.Println("Chunks:")
	for i, c := range f.Chunks {
		out.Printf("  %3d: %s (idx=%d, pos=%d, size=%d)\n", i, c.Tag, c.Index, c.Offset, c.Size)
	}

	counts := f.TagCounts()

	fmt.Println()
	fmt.Println("Chunks by tag:")
	for _, tag := range tagsByCount(counts) {
		out.Printf("  %s %d\n", tag, counts[tag])
	}

	for _, d := range f.Diagnostics {
		fmt.Printf("Warning: %s\n", d)
	}
	if err != nil {
		// Partial chunk list from a corrupt file
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	for _, space := range []formats.NRSpace{formats.NRSpaceLocal, formats.NRSpaceWorld} {
		mesh, err := formats.ConvertNR(f, space)
		if err != nil {
			fmt.Printf("\n%s: %v\n", space, err)
			continue
		}
		lo, hi := mesh.Bounds()
		size := hi.Sub(lo)

		fmt.Println()
		out.Printf("%s space (from %s):\n", space, mesh.Selected)
		out.Printf("  Vertices: %d\n", len(mesh.Vertices))
		out.Printf("  Faces:    %d\n", len(mesh.Faces))
		fmt.Printf("  Bounds:   (%.3f, %.3f, %.3f) - (%.3f, %.3f, %.3f)\n", lo[0], lo[1], lo[2], hi[0], hi[1], hi[2])
		fmt.Printf("  Diagonal: %.3f\n", size.Len())
		for _, d := range mesh.Diagnostics {
			fmt.Printf("  Warning: %s\n", d)
		}
	}

	return 0
}

// tagsByCount orders tags by descending count, then by tag value.
func tagsByCount(counts map[formats.NRTag]int) []formats.NRTag {
	tags := make([]formats.NRTag, 0, len(counts))
	for tag := range counts {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool {
		if counts[tags[i]] != counts[tags[j]] {
			return counts[tags[i]] > counts[tags[j]]
		}
		return tags[i] < tags[j]
	})
	return tags
}

func cmdConfig(cfg *config.Config, args []string) int {
	if len(args) < 1 || args[0] != "init" {
		fmt.Fprintln(os.Stderr, "Usage: nr2obj config init [path]")
		return 1
	}

	var err error
	path := filepath.Join(config.ConfigDir(), "config.yaml")
	if len(args) > 1 {
		path = args[1]
		err = cfg.SaveTo(path)
	} else {
		err = cfg.Save()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error writing config: %v\n", err)
		return 1
	}

	fmt.Printf("Wrote %s\n", path)
	return 0
}
