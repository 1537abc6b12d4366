package config

// Preset is a named, described starting configuration.
type Preset struct {
	Description string
	Config      *Config
}

var presets = map[string]Preset{
	"sw-quick": {
		Description: "small square-well cell, SAMC, short run for smoke tests",
		Config: func() *Config {
			c := Default()
			c.Moves = 100_000
			c.T0 = 1e4
			c.Report.Every = 10_000
			return c
		}(),
	},
	"sw-samc": {
		Description: "square-well fluid with the SAMC schedule, adaptive add/remove",
		Config: func() *Config {
			c := Default()
			c.Moves = 50_000_000
			c.T0 = 1e6
			c.Move.TargetAcceptance = 0.5
			return c
		}(),
	},
	"sw-wl": {
		Description: "square-well fluid with Wang-Landau flatness updates",
		Config: func() *Config {
			c := Default()
			c.Method = "wl"
			c.Moves = 50_000_000
			c.Move.TargetAcceptance = 0.5
			return c
		}(),
	},
	"lattice-wl": {
		Description: "8x8 lattice gas, Wang-Landau; the discrete spectrum keeps bins exact",
		Config: func() *Config {
			c := Default()
			c.System = "latticegas"
			c.Method = "wl"
			c.Moves = 10_000_000
			c.MaxN = 32
			return c
		}(),
	},
	"lattice-samc": {
		Description: "8x8 lattice gas, SAMC with a gentle t0",
		Config: func() *Config {
			c := Default()
			c.System = "latticegas"
			c.Moves = 10_000_000
			c.T0 = 1e5
			c.MaxN = 32
			return c
		}(),
	},
}

// GetPreset returns a copy of the named preset's config, or nil.
func GetPreset(name string) *Config {
	p, ok := presets[name]
	if !ok {
		return nil
	}
	c := *p.Config
	return &c
}

// ListPresets returns every preset name.
func ListPresets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	return names
}

// DescribePreset returns a preset's one-line description.
func DescribePreset(name string) string {
	return presets[name].Description
}
