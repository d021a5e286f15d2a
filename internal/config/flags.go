package config

import (
	"github.com/spf13/pflag"
)

// Flag names shared by the CLI commands.
const (
	FlagConfig         = "config"
	FlagTarget         = "target"
	FlagDetail         = "detail"
	FlagOutputDir      = "output-dir"
	FlagSize           = "size"
	FlagCorrespondence = "correspondence"
	FlagThickness      = "thickness"
	FlagMultisampling  = "multisampling"
	FlagFilter         = "filter"
	FlagThreads        = "threads"
	FlagNoGutter       = "no-gutter"
	FlagDebug          = "debug"
	FlagLogFile        = "log-file"
)

// RegisterFlags adds the override flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP(FlagConfig, "c", "", "path to a bake config file")
	fs.String(FlagTarget, "", "target mesh (.obj)")
	fs.String(FlagDetail, "", "detail mesh (.obj); defaults to the target")
	fs.StringP(FlagOutputDir, "o", "", "directory for baked images")
	fs.Int(FlagSize, 0, "output width and height in texels")
	fs.String(FlagCorrespondence, "", "identity, nearest, raycast or raycast_then_nearest")
	fs.Float64(FlagThickness, 0, "ray search distance from the target surface")
	fs.Int(FlagMultisampling, 0, "samples per texel axis")
	fs.String(FlagFilter, "", "box, bspline or mitchell")
	fs.Int(FlagThreads, 0, "worker count, 0 for all cores")
	fs.Bool(FlagNoGutter, false, "disable gutter filling")
	fs.Bool(FlagDebug, false, "enable debug logging")
	fs.String(FlagLogFile, "", "also log to this file")
}

// LoadWithFlags reads the file named by the config flag and applies the remaining
// flags on top, giving defaults < file < flags.
func LoadWithFlags(fs *pflag.FlagSet) (*Config, error) {
	path, _ := fs.GetString(FlagConfig)
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyFlags(fs)
	return cfg, nil
}

// ApplyFlags overrides fields whose flag was set on the command line.
func (c *Config) ApplyFlags(fs *pflag.FlagSet) {
	str := func(name string, dst *string) {
		if fs.Changed(name) {
			*dst, _ = fs.GetString(name)
		}
	}
	integer := func(name string, dst *int) {
		if fs.Changed(name) {
			*dst, _ = fs.GetInt(name)
		}
	}

	str(FlagTarget, &c.Target)
	str(FlagDetail, &c.Detail)
	str(FlagOutputDir, &c.OutputDir)
	str(FlagCorrespondence, &c.Bake.Correspondence)
	str(FlagFilter, &c.Bake.Filter)
	str(FlagLogFile, &c.Logging.LogFile)
	integer(FlagMultisampling, &c.Bake.Multisampling)
	integer(FlagThreads, &c.Bake.Threads)
	if fs.Changed(FlagSize) {
		n, _ := fs.GetInt(FlagSize)
		c.Bake.Width, c.Bake.Height = n, n
	}
	if fs.Changed(FlagThickness) {
		c.Bake.Thickness, _ = fs.GetFloat64(FlagThickness)
	}
	if on, _ := fs.GetBool(FlagNoGutter); on {
		c.Bake.Gutter.Enabled = false
	}
	if on, _ := fs.GetBool(FlagDebug); on {
		c.Logging.Level = "debug"
	}
}
