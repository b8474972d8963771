package config

import "flag"

var (
	flagConfig  = flag.String("config", "", "Path to config file")
	flagDebug   = flag.Bool("debug", false, "Enable debug logging")
	flagOutput  = flag.String("o", "", "Output directory for .obj files")
	flagWorkers = flag.Int("j", 0, "Number of files converted in parallel")
	flagSpace   = flag.String("space", "", "Convert only this space (local or world)")
	flagLogFile = flag.String("log-file", "", "Also write logs to this file")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the non-flag arguments.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagOutput != "" {
		cfg.Convert.OutputDir = *flagOutput
	}
	if *flagWorkers > 0 {
		cfg.Convert.Workers = *flagWorkers
	}
	if *flagSpace != "" {
		cfg.Convert.Spaces = []string{*flagSpace}
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
}
