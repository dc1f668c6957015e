// Package room resolves the geometry and calibration description of an X-ray
// room from the parameters of a configured action.
package room

import (
	"errors"
	"fmt"

	"normi13qc/internal/models"
	"normi13qc/pkg/params"
)

// Unresolved marks a distance that must be derived per image at analysis time.
const Unresolved = -1.0

// OutValue is reported for quantities that could not be determined.
const OutValue = -1.0

// ErrConfiguration matches every ConfigurationError with errors.Is.
var ErrConfiguration = errors.New("configuration error")

// ConfigurationError is returned when a room cannot be resolved. It aborts
// only the action that requested the room.
type ConfigurationError struct {
	Room   string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Room == "" {
		return "room definition: " + e.Reason
	}
	return fmt.Sprintf("room %s: %s", e.Room, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// LinepairType selects the line pair insert of the phantom.
type LinepairType string

const (
	LinepairNone  LinepairType = "None"
	LinepairRXT02 LinepairType = "RXT02"
	LinepairTyp38 LinepairType = "typ38"
)

// Markers returns the marker keys expected for the insert.
func (t LinepairType) Markers() []string {
	switch t {
	case LinepairRXT02:
		return []string{"xymm1.0", "xymm0.6"}
	case LinepairTyp38:
		return []string{"xymm1.8", "xymm0.6", "xymm1.4", "xymm4.6"}
	}
	return nil
}

// Valid reports whether t is a recognised insert.
func (t LinepairType) Valid() bool {
	switch t {
	case LinepairNone, LinepairRXT02, LinepairTyp38:
		return true
	}
	return false
}

// Distance is a fixed value, a [table, wall] pair, or Unresolved entries.
type Distance []float64

// For returns the distance that applies to stand, false when unresolved.
// A pair has no value for an unknown stand.
func (d Distance) For(stand models.Stand) (float64, bool) {
	var v float64
	switch {
	case len(d) == 0:
		return 0, false
	case len(d) == 1:
		v = d[0]
	case stand == models.StandUnknown:
		return 0, false
	default:
		v = d[stand.Index()]
	}
	if v == Unresolved {
		return 0, false
	}
	return v, true
}

// Pair reports whether d holds two resolved [table, wall] values.
func (d Distance) Pair() bool {
	return len(d) == 2 && d[0] != Unresolved && d[1] != Unresolved
}

// Config is the canonical description of a room. A fresh Config is built for
// every dispatched action and not modified after resolution.
type Config struct {
	Name             string                  `yaml:"name"`
	LinepairType     LinepairType            `yaml:"linepairType"`
	LinepairMarkers  map[string]params.Point `yaml:"linepairMarkers"`
	ArtefactBorderPx [4]int                  `yaml:"artefactBorderPx,flow"`
	DetectorNames    map[string]string       `yaml:"detectorNames"`
	PIDmm            Distance                `yaml:"pidmm,flow"`
	SIDmm            Distance                `yaml:"sidmm,flow"`
	AutoSuffix       bool                    `yaml:"autoSuffix"`
	OutValue         float64                 `yaml:"outValue"`

	// Overrides, only set through use_* parameters
	PixelSpacingMm *float64 `yaml:"pixelSpacingMm,omitempty"`
	MustBeInverted *bool    `yaml:"mustBeInverted,omitempty"`
	MustBeMirrored *bool    `yaml:"mustBeMirrored,omitempty"`
}

// DetectorLabel returns the configured label for a detector id.
func (c *Config) DetectorLabel(detectorID string) (string, bool) {
	label, ok := c.DetectorNames[detectorID]
	return label, ok
}
