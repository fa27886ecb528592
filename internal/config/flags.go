package config

import "flag"

// Flags holds command-line overrides. Zero values (and a negative precision)
// leave the file and default settings alone.
type Flags struct {
	Config    string
	Debug     bool
	Output    string
	Workers   int
	Precision int
	LogFile   string
}

// Register binds the override flags to fs.
func (f *Flags) Register(fs *flag.FlagSet) {
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.Output, "o", "", "Output mesh path (.obj, .gltf, .glb)")
	fs.IntVar(&f.Workers, "workers", 0, "Number of sources loaded concurrently")
	fs.IntVar(&f.Precision, "precision", -1, "Decimal places used to weld vertices")
	fs.StringVar(&f.LogFile, "log", "", "Also write logs to this file")
}

// ConfigPath returns the explicit config path if provided via -config.
func (f *Flags) ConfigPath() string {
	if f == nil {
		return ""
	}
	return f.Config
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config, f *Flags) {
	if f == nil {
		return
	}
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.Output != "" {
		cfg.Output.Path = f.Output
	}
	if f.Workers > 0 {
		cfg.Merge.Workers = f.Workers
	}
	if f.Precision >= 0 {
		cfg.Merge.Precision = f.Precision
	}
	if f.LogFile != "" {
		cfg.Logging.LogFile = f.LogFile
	}
}
