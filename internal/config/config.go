// Package config handles nr2obj configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/Faultbox/nr2obj/pkg/formats"
)

// Config holds all converter settings.
type Config struct {
	Convert ConvertConfig `yaml:"convert"`
	Logging LoggingConfig `yaml:"logging"`
}

// ConvertConfig holds batch conversion settings.
type ConvertConfig struct {
	OutputDir   string   `yaml:"output_dir"`   // Empty: derived from the input path
	Spaces      []string `yaml:"spaces"`       // "local" and/or "world"
	LocalSuffix string   `yaml:"local_suffix"` // Appended to the input stem
	WorldSuffix string   `yaml:"world_suffix"`
	Workers     int      `yaml:"workers"` // Files converted in parallel
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Convert: ConvertConfig{
			OutputDir:   "",
			Spaces:      []string{"local", "world"},
			LocalSuffix: "_Local",
			WorldSuffix: "_World",
			Workers:     4,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// ParseSpace converts a space name to formats.NRSpace.
func ParseSpace(name string) (formats.NRSpace, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "local":
		return formats.NRSpaceLocal, nil
	case "world":
		return formats.NRSpaceWorld, nil
	default:
		return 0, fmt.Errorf("unknown vertex space %q (want local or world)", name)
	}
}

// ParsedSpaces returns the configured spaces in order.
func (c *ConvertConfig) ParsedSpaces() ([]formats.NRSpace, error) {
	spaces := make([]formats.NRSpace, 0, len(c.Spaces))
	for _, name := range c.Spaces {
		space, err := ParseSpace(name)
		if err != nil {
			return nil, err
		}
		spaces = append(spaces, space)
	}
	return spaces, nil
}

// Suffix returns the output file suffix for a space.
func (c *ConvertConfig) Suffix(space formats.NRSpace) string {
	if space == formats.NRSpaceWorld {
		return c.WorldSuffix
	}
	return c.LocalSuffix
}

// Validate checks that the config can drive a conversion.
func (c *Config) Validate() error {
	var err error

	if len(c.Convert.Spaces) == 0 {
		err = multierr.Append(err, errors.New("convert.spaces: at least one space is required"))
	}
	if _, spaceErr := c.Convert.ParsedSpaces(); spaceErr != nil {
		err = multierr.Append(err, fmt.Errorf("convert.spaces: %w", spaceErr))
	}
	if c.Convert.Workers < 1 {
		err = multierr.Append(err, fmt.Errorf("convert.workers: must be positive, got %d", c.Convert.Workers))
	}
	if c.Convert.LocalSuffix == c.Convert.WorldSuffix {
		err = multierr.Append(err, fmt.Errorf("convert: local and world suffix are both %q", c.Convert.LocalSuffix))
	}

	return err
}
