package server

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/san-kum/mirage/internal/lensing"
)

const (
	minWidth  = 64
	maxWidth  = 2048
	minFrames = 2
	maxFrames = 200
)

// renderParams reads the lensing parameters from the query string, falling
// back to the configured defaults for absent keys.
func (s *Server) renderParams(r *http.Request) (lensing.Options, int, error) {
	q := r.URL.Query()

	opts := lensing.Options{}
	var err error
	if opts.Mass, err = parseFloatParam(q, "mass", s.cfg.Render.Mass, 1e-6, 1e12); err != nil {
		return opts, 0, err
	}
	if opts.Scale, err = parseFloatParam(q, "scale", s.cfg.Render.Scale, 1e-3, 1e9); err != nil {
		return opts, 0, err
	}
	width, err := parseIntParam(q, "width", s.cfg.Render.Width, minWidth, maxWidth)
	if err != nil {
		return opts, 0, err
	}

	method := q.Get("method")
	if method == "" {
		method = s.cfg.Render.Method
	}
	if opts.Method, err = lensing.ParseMethod(method); err != nil {
		return opts, 0, fmt.Errorf("invalid method: %s", method)
	}

	return opts, width, nil
}

func (s *Server) frameParam(r *http.Request) (int, error) {
	return parseIntParam(r.URL.Query(), "frames", s.cfg.Render.Frames, minFrames, maxFrames)
}

// parseIntParam parses an integer query parameter with range validation.
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// parseFloatParam parses a float query parameter with range validation.
func parseFloatParam(values url.Values, key string, defaultValue, min, max float64) (float64, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %g and %g, got: %g", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}
