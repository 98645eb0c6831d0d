package store

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/mirage/internal/lensing"
)

// ProfileExport is the JSON form of a traced deflection profile together
// with the parameters that produced it.
type ProfileExport struct {
	Mass           float64   `json:"mass"`
	Scale          float64   `json:"scale"`
	Method         string    `json:"method"`
	MetersPerPixel float64   `json:"meters_per_pixel"`
	Radii          []float64 `json:"radii_px"`
	Angles         []float64 `json:"angles_rad"`
}

func newProfileExport(opts lensing.Options, metersPerPixel float64, p *lensing.Profile) ProfileExport {
	return ProfileExport{
		Mass:           opts.Mass,
		Scale:          opts.Scale,
		Method:         string(opts.Method),
		MetersPerPixel: metersPerPixel,
		Radii:          p.Radii,
		Angles:         p.Angles,
	}
}

func ExportProfileJSON(path string, opts lensing.Options, metersPerPixel float64, p *lensing.Profile) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return writeProfileJSON(file, newProfileExport(opts, metersPerPixel, p))
}

func ExportProfileJSONStdout(opts lensing.Options, metersPerPixel float64, p *lensing.Profile) error {
	return writeProfileJSON(os.Stdout, newProfileExport(opts, metersPerPixel, p))
}

func writeProfileJSON(w io.Writer, data ProfileExport) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
