package pipeline

import (
	"strconv"
	"strings"

	"normi13qc/internal/models"
	"normi13qc/pkg/results"
)

// maxStringLen bounds string header results.
const maxStringLen = 100

// floatFields are the header fields reported as numbers. Everything else is
// reported as text.
var floatFields = map[string]bool{
	"Exposure (mAs)":                true,
	"Exposure (uAs)":                true,
	"DistanceSourceToDetector (mm)": true,
	"ExposureTime (ms)":             true,
	"ExposureTime (us)":             true,
	"ImageAreaDoseProduct":          true,
	"Sensitivity":                   true,
	"kVp":                           true,
	"CollimatorLeft":                true,
	"CollimatorRight":               true,
	"CollimatorUp":                  true,
	"CollimatorDown":                true,
	"EntranceDose_mGy":              true,
	"RelativeXRayExposure":          true,
}

// flattenHeader writes header entries, numbers as floats (or -1 when they do
// not parse) and the rest as truncated strings.
func flattenHeader(sink results.Sink, entries []models.Entry, suffix string) {
	for _, e := range entries {
		name := e.Name + suffix
		if floatFields[e.Name] {
			v, err := strconv.ParseFloat(strings.TrimSpace(e.Value), 64)
			if err != nil {
				v = -1
			}
			sink.AddFloat(name, v)
			continue
		}
		sink.AddString(name, truncate(e.Value, maxStringLen))
	}
}

// flattenMeasurements writes analysis measurements followed by num_slices.
func flattenMeasurements(sink results.Sink, ms []models.Measurement, suffix string, numSlices int) {
	for _, m := range ms {
		sink.AddFloat(m.Name+suffix, m.Value)
	}
	sink.AddFloat("num_slices"+suffix, float64(numSlices))
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
