// Package dicomio reads radiographic series from DICOM files: header-only
// reads for metadata actions and full reads that yield grey value frames.
package dicomio

import (
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// Well known tags used by the QC actions.
var (
	TagStudyDate                 = tag.Tag{Group: 0x0008, Element: 0x0020}
	TagSeriesDate                = tag.Tag{Group: 0x0008, Element: 0x0021}
	TagAcquisitionDate           = tag.Tag{Group: 0x0008, Element: 0x0022}
	TagAcquisitionDateTime       = tag.Tag{Group: 0x0008, Element: 0x002A}
	TagStudyTime                 = tag.Tag{Group: 0x0008, Element: 0x0030}
	TagSeriesTime                = tag.Tag{Group: 0x0008, Element: 0x0031}
	TagAcquisitionTime           = tag.Tag{Group: 0x0008, Element: 0x0032}
	TagDistanceSourceDetector    = tag.Tag{Group: 0x0018, Element: 0x1110}
	TagImagerPixelSpacing        = tag.Tag{Group: 0x0018, Element: 0x1164}
	TagDetectorID                = tag.Tag{Group: 0x0018, Element: 0x700A}
	TagPixelSpacing              = tag.Tag{Group: 0x0028, Element: 0x0030}
	TagPhotometricInterpretation = tag.Tag{Group: 0x0028, Element: 0x0004}
	TagPixelData                 = tag.Tag{Group: 0x7FE0, Element: 0x0010}
)

// Header gives read access to the top level attributes of a DICOM object.
// Values are kept as text; multi-valued attributes are joined with a backslash.
type Header struct {
	values map[tag.Tag]string
}

// NewHeader builds a header from literal attribute values.
func NewHeader(values map[tag.Tag]string) *Header {
	h := &Header{values: make(map[tag.Tag]string, len(values))}
	for t, v := range values {
		h.values[t] = v
	}
	return h
}

// HeaderFromDataset flattens the top level elements of ds. Pixel data and
// sequences are left out.
func HeaderFromDataset(ds *dicom.Dataset) *Header {
	h := &Header{values: make(map[tag.Tag]string, len(ds.Elements))}
	for _, el := range ds.Elements {
		if el == nil || el.Value == nil || el.Tag == TagPixelData {
			continue
		}
		if s, ok := valueString(el.Value); ok {
			h.values[el.Tag] = s
		}
	}
	return h
}

func valueString(v dicom.Value) (string, bool) {
	switch raw := v.GetValue().(type) {
	case []string:
		parts := make([]string, len(raw))
		for i, s := range raw {
			parts[i] = strings.TrimRight(strings.TrimSpace(s), "\x00")
		}
		return strings.Join(parts, `\`), true
	case []int:
		parts := make([]string, len(raw))
		for i, n := range raw {
			parts[i] = strconv.Itoa(n)
		}
		return strings.Join(parts, `\`), true
	case []float64:
		parts := make([]string, len(raw))
		for i, f := range raw {
			parts[i] = strconv.FormatFloat(f, 'g', -1, 64)
		}
		return strings.Join(parts, `\`), true
	}
	return "", false
}

// Get returns the text value of t.
func (h *Header) Get(t tag.Tag) (string, bool) {
	if h == nil {
		return "", false
	}
	v, ok := h.values[t]
	return v, ok
}

// String returns the text value of t, empty when absent.
func (h *Header) String(t tag.Tag) string {
	v, _ := h.Get(t)
	return v
}

// Floats parses every value of a multi-valued numeric attribute.
func (h *Header) Floats(t tag.Tag) ([]float64, bool) {
	v, ok := h.Get(t)
	if !ok || v == "" {
		return nil, false
	}
	parts := strings.Split(v, `\`)
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, false
		}
		out = append(out, f)
	}
	return out, true
}

// Float parses the first value of a numeric attribute.
func (h *Header) Float(t tag.Tag) (float64, bool) {
	vals, ok := h.Floats(t)
	if !ok || len(vals) == 0 {
		return 0, false
	}
	return vals[0], true
}
