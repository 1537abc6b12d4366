// Package config holds the yaml run configuration for dosim.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultSystem      = "squarewell"
	DefaultMethod      = "samc"
	DefaultT0          = 1e5
	DefaultMaxMoves    = 1_000_000
	DefaultEnergyBin   = 1.0
	DefaultCellWidth   = 5.0
	DefaultLambda      = 1.3
	DefaultLatticeSize = 8
	DefaultScale       = 0.05
	DefaultAddRemove   = 0.1
	DefaultReportEvery = 100_000
	DefaultMovieTime   = 2.0
	DefaultTraceEvery  = 1000
	DefaultSaveEvery   = 500_000
)

// Config is the full run description. Zero values mean "use the
// default"; Validate reports combinations that cannot run.
type Config struct {
	System  string       `yaml:"system"`
	Method  string       `yaml:"method"`
	T0      float64      `yaml:"t0"`
	Seed    uint64       `yaml:"seed"`
	Moves   uint64       `yaml:"moves"`
	Bin     float64      `yaml:"energy_bin"`
	MaxN    int          `yaml:"max_atoms"`
	Move    MoveConfig   `yaml:"move"`
	Geom    GeomConfig   `yaml:"geometry"`
	Report  ReportConfig `yaml:"report"`
	DataDir string       `yaml:"data_dir"`
}

// MoveConfig tunes move proposals. TargetAcceptance > 0 switches on
// adaptive control of the add/remove probability.
type MoveConfig struct {
	TranslationScale     float64 `yaml:"translation_scale"`
	AddRemoveProbability float64 `yaml:"addremove_probability"`
	TargetAcceptance     float64 `yaml:"target_acceptance"`
}

// GeomConfig describes the simulated cell.
type GeomConfig struct {
	// CellWidth is the periodic cube edge for off-lattice systems.
	CellWidth float64 `yaml:"cell_width"`
	// Lambda is the square-well attraction range in diameters.
	Lambda float64 `yaml:"lambda"`
	// LatticeSize is the periodic lattice edge for latticegas.
	LatticeSize int `yaml:"lattice_size"`
}

// ReportConfig sets diagnostic cadences. Zero disables a hook.
type ReportConfig struct {
	Every      uint64  `yaml:"every"`
	MovieTime  float64 `yaml:"movie_time"`
	TraceEvery uint64  `yaml:"trace_every"`
	SaveEvery  uint64  `yaml:"save_every"`
}

func Default() *Config {
	return &Config{
		System: DefaultSystem,
		Method: DefaultMethod,
		T0:     DefaultT0,
		Moves:  DefaultMaxMoves,
		Bin:    DefaultEnergyBin,
		Move: MoveConfig{
			TranslationScale:     DefaultScale,
			AddRemoveProbability: DefaultAddRemove,
		},
		Geom: GeomConfig{
			CellWidth:   DefaultCellWidth,
			Lambda:      DefaultLambda,
			LatticeSize: DefaultLatticeSize,
		},
		Report: ReportConfig{
			Every:      DefaultReportEvery,
			MovieTime:  DefaultMovieTime,
			TraceEvery: DefaultTraceEvery,
			SaveEvery:  DefaultSaveEvery,
		},
		DataDir: ".dosim",
	}
}

// Load reads path over the defaults, so missing keys keep their
// default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	switch c.Method {
	case "samc", "wl":
	default:
		return fmt.Errorf("config: unknown method %q", c.Method)
	}
	if c.Method == "samc" && c.T0 <= 0 {
		return fmt.Errorf("config: samc needs t0 > 0, have %g", c.T0)
	}
	if c.Bin <= 0 {
		return fmt.Errorf("config: energy bin must be positive, have %g", c.Bin)
	}
	if c.MaxN < 0 {
		return fmt.Errorf("config: max atoms must not be negative, have %d", c.MaxN)
	}
	if p := c.Move.AddRemoveProbability; p < 0 || p > 1 {
		return fmt.Errorf("config: addremove probability %g outside [0,1]", p)
	}
	if r := c.Move.TargetAcceptance; r < 0 || r >= 1 {
		return fmt.Errorf("config: target acceptance %g outside [0,1)", r)
	}
	if c.Geom.CellWidth <= 2 {
		return fmt.Errorf("config: cell width must exceed 2 diameters, have %g", c.Geom.CellWidth)
	}
	if c.Geom.Lambda <= 1 || c.Geom.Lambda > c.Geom.CellWidth/2 {
		return fmt.Errorf("config: lambda %g outside (1, cell/2]", c.Geom.Lambda)
	}
	if c.Geom.LatticeSize < 2 {
		return fmt.Errorf("config: lattice size must be at least 2, have %d", c.Geom.LatticeSize)
	}
	if c.Report.MovieTime != 0 && c.Report.MovieTime <= 1 {
		return fmt.Errorf("config: movie time base must exceed 1, have %g", c.Report.MovieTime)
	}
	return nil
}
