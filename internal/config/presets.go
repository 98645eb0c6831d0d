package config

import "sort"

// Presets are ready-made render parameter bundles, keyed by the kind of
// black hole they portray. Masses in solar masses; scale fixes how many
// Schwarzschild radii the image corner sits from the hole.
var Presets = map[string]*RenderConfig{
	"stellar": {
		Mass: 10, Scale: 100, Width: 512, Method: "weak", Frames: 36,
	},
	"stellar-close": {
		Mass: 10, Scale: 20, Width: 512, Method: "geodesic", Frames: 36,
	},
	"intermediate": {
		Mass: 1e4, Scale: 100, Width: 512, Method: "weak", Frames: 36,
	},
	"supermassive": {
		Mass: 4.3e6, Scale: 150, Width: 768, Method: "weak", Frames: 48,
	},
	"supermassive-close": {
		Mass: 4.3e6, Scale: 10, Width: 768, Method: "geodesic", Frames: 48,
	},
}

func GetPreset(name string) *RenderConfig {
	preset, ok := Presets[name]
	if !ok {
		return nil
	}
	out := *preset
	return &out
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
