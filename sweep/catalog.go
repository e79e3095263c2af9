// Package sweep runs a depth-estimation evaluator once per (corruption, severity)
// pair and records what each child process printed.
package sweep

import "slices"

// Corruption names a synthetic image degradation understood by the evaluators
type Corruption string

// Severity is the corruption intensity, 1 (mildest) to 5 (strongest)
type Severity int

// Severity bounds
const (
	MinSeverity Severity = 1
	MaxSeverity Severity = 5
)

// defaultCatalog is the fixed iteration order of every sweep
var defaultCatalog = []Corruption{
	"gaussian_noise",
	"shot_noise",
	"impulse_noise",
	"defocus_blur",
	"glass_blur",
	"motion_blur",
	"zoom_blur",
	"snow",
	"frost",
	"fog",
	"brightness",
	"contrast",
	"elastic_transform",
	"pixelate",
	"jpeg_compression",
}

// DefaultCatalog returns a copy of the 15 corruptions in sweep order
func DefaultCatalog() []Corruption {
	return slices.Clone(defaultCatalog)
}

// Severities returns MinSeverity..MaxSeverity ascending
func Severities() []Severity {
	out := make([]Severity, 0, MaxSeverity-MinSeverity+1)
	for s := MinSeverity; s <= MaxSeverity; s++ {
		out = append(out, s)
	}
	return out
}

// Valid reports whether s is within MinSeverity..MaxSeverity
func (s Severity) Valid() bool {
	return s >= MinSeverity && s <= MaxSeverity
}
