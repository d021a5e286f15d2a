// Package config handles bake job configuration loading and management.
package config

// Config holds a bake job.
type Config struct {
	Target     string            `yaml:"target"`
	Detail     string            `yaml:"detail,omitempty"`
	OutputDir  string            `yaml:"output_dir"`
	Bake       BakeConfig        `yaml:"bake"`
	Evaluators []EvaluatorConfig `yaml:"evaluators"`
	Logging    LoggingConfig     `yaml:"logging"`
	Output     OutputConfig      `yaml:"output"`
}

// BakeConfig holds the baker parameters.
type BakeConfig struct {
	Width          int          `yaml:"width"`
	Height         int          `yaml:"height"`
	UVLayer        int          `yaml:"uv_layer"`
	Correspondence string       `yaml:"correspondence"` // identity|nearest|raycast|raycast_then_nearest
	Thickness      float64      `yaml:"thickness"`
	Gutter         GutterConfig `yaml:"gutter"`
	Multisampling  int          `yaml:"multisampling"`
	TileSize       int          `yaml:"tile_size"`
	Filter         string       `yaml:"filter"`  // box|bspline|mitchell
	Threads        int          `yaml:"threads"` // 0 = GOMAXPROCS
}

// GutterConfig controls dilation of islands into empty texels.
type GutterConfig struct {
	Enabled bool `yaml:"enabled"`
	Size    int  `yaml:"size"`
}

// EvaluatorConfig describes one map to bake. Which fields apply depends on
// Type.
type EvaluatorConfig struct {
	Type   string `yaml:"type"`
	Output string `yaml:"output"`

	// occlusion
	BentNormalOutput string  `yaml:"bent_normal_output,omitempty"`
	Rays             int     `yaml:"rays,omitempty"`
	MaxDistance      float64 `yaml:"max_distance,omitempty"`
	SpreadAngle      float64 `yaml:"spread_angle,omitempty"`
	BiasAngle        float64 `yaml:"bias_angle,omitempty"`

	// curvature
	Curvature  string  `yaml:"curvature,omitempty"`
	ColorMode  string  `yaml:"color_mode,omitempty"`
	RampFile   string  `yaml:"ramp_file,omitempty"`
	RangeScale float64 `yaml:"range_scale,omitempty"`
	MaxRange   float64 `yaml:"max_range,omitempty"`

	// occlusion and curvature
	BlurRadius int `yaml:"blur_radius,omitempty"`

	// property
	Property string `yaml:"property,omitempty"`

	// resample
	Source        string         `yaml:"source,omitempty"`
	Sources       map[int]string `yaml:"sources,omitempty"`
	DetailUVLayer int            `yaml:"detail_uv_layer,omitempty"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// OutputConfig holds settings applied when writing images.
type OutputConfig struct {
	// ScaleDown shrinks outputs to the next power of two divided by this
	// factor. Values below 2 keep the bake size.
	ScaleDown int `yaml:"scale_down"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		OutputDir: ".",
		Bake: BakeConfig{
			Width:          512,
			Height:         512,
			Correspondence: "raycast_then_nearest",
			Thickness:      3.0,
			Gutter: GutterConfig{
				Enabled: true,
				Size:    4,
			},
			Multisampling: 1,
			TileSize:      32,
			Filter:        "mitchell",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Output: OutputConfig{
			ScaleDown: 1,
		},
	}
}
