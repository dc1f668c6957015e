package analysis

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/suyashkumar/dicom/pkg/tag"

	"normi13qc/internal/models"
	"normi13qc/pkg/dicomio"
)

type headerField struct {
	tag  tag.Tag
	name string
}

func dcmTag(group, element uint16) tag.Tag { return tag.Tag{Group: group, Element: element} }

// qcwadFields is the header selection stored for every series.
var qcwadFields = []headerField{
	{dcmTag(0x0008, 0x0021), "SeriesDate"},
	{dcmTag(0x0008, 0x0031), "SeriesTime"},
	{dcmTag(0x0008, 0x0070), "Manufacturer"},
	{dcmTag(0x0008, 0x1010), "StationName"},
	{dcmTag(0x0008, 0x1030), "StudyDescription"},
	{dcmTag(0x0008, 0x103E), "SeriesDescription"},
	{dcmTag(0x0008, 0x1090), "ModelName"},
	{dcmTag(0x0018, 0x0015), "BodyPart"},
	{dcmTag(0x0018, 0x1000), "DeviceSerialNumber"},
	{dcmTag(0x0018, 0x1020), "SoftwareVersions"},
	{dcmTag(0x0018, 0x1030), "ProtocolName"},
	{dcmTag(0x0018, 0x5101), "ViewPosition"},
	{dcmTag(0x0018, 0x0060), "kVp"},
	{dcmTag(0x0018, 0x1150), "ExposureTime (ms)"},
	{dcmTag(0x0018, 0x8150), "ExposureTime (us)"},
	{dcmTag(0x0018, 0x1152), "Exposure (mAs)"},
	{dcmTag(0x0018, 0x1153), "Exposure (uAs)"},
	{dcmTag(0x0018, 0x115E), "ImageAreaDoseProduct"},
	{dcmTag(0x0018, 0x1110), "DistanceSourceToDetector (mm)"},
	{dcmTag(0x0018, 0x7050), "FilterMaterial"},
	{dcmTag(0x0018, 0x1160), "FilterType"},
	{dcmTag(0x0018, 0x1190), "FocalSpot"},
	{dcmTag(0x0018, 0x700A), "DetectorID"},
	{dcmTag(0x0018, 0x7004), "DetectorType"},
	{dcmTag(0x0018, 0x1702), "CollimatorLeft"},
	{dcmTag(0x0018, 0x1704), "CollimatorRight"},
	{dcmTag(0x0018, 0x1706), "CollimatorUp"},
	{dcmTag(0x0018, 0x1708), "CollimatorDown"},
	{dcmTag(0x0018, 0x1405), "RelativeXRayExposure"},
	{dcmTag(0x0018, 0x6000), "Sensitivity"},
	{dcmTag(0x0040, 0x8302), "EntranceDose_mGy"},
	{dcmTag(0x0018, 0x1164), "ImagerPixelSpacing"},
	{dcmTag(0x0028, 0x0030), "PixelSpacing"},
}

// DICOMInfo lists the selected header fields of the image in cs.
func (q *XRayQC) DICOMInfo(cs *Context, info string) ([]models.Entry, models.DetectorIdentity, error) {
	if info != InfoQCWAD {
		return nil, models.DetectorIdentity{}, fmt.Errorf("unknown dicom info selection %q", info)
	}
	entries := make([]models.Entry, 0, len(qcwadFields))
	for _, f := range qcwadFields {
		entries = append(entries, models.Entry{Name: f.name, Value: cs.Header.String(f.tag)})
	}
	return entries, Identify(cs.Room, cs.Header), nil
}

// AcqDateTime returns the acquisition moment of the series. It falls back
// from acquisition to series to study date and time.
func (q *XRayQC) AcqDateTime(h *dicomio.Header) (time.Time, error) {
	if dt, ok := h.Get(dicomio.TagAcquisitionDateTime); ok && dt != "" {
		if v, err := parseDT(dt); err == nil {
			return v, nil
		}
	}
	pairs := [][2]tag.Tag{
		{dicomio.TagAcquisitionDate, dicomio.TagAcquisitionTime},
		{dicomio.TagSeriesDate, dicomio.TagSeriesTime},
		{dicomio.TagStudyDate, dicomio.TagStudyTime},
	}
	for _, p := range pairs {
		date, ok := h.Get(p[0])
		if !ok || date == "" {
			continue
		}
		v, err := parseDT(date + strings.ReplaceAll(h.String(p[1]), ":", ""))
		if err == nil {
			return v, nil
		}
	}
	return time.Time{}, fmt.Errorf("no acquisition date/time in header")
}

// parseDT reads a DICOM DT value "YYYYMMDDHHMMSS.FFFFFF"; any trailing
// component may be missing and timezone offsets are ignored.
func parseDT(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "+-"); i >= 0 {
		s = s[:i]
	}
	frac := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s, frac = s[:i], s[i+1:]
	}
	if len(s) < 8 || len(s)%2 != 0 {
		return time.Time{}, fmt.Errorf("malformed date/time %q", s)
	}

	parts := []int{0, 1, 1, 0, 0, 0}
	widths := []int{4, 2, 2, 2, 2, 2}
	pos := 0
	for i, w := range widths {
		if pos >= len(s) {
			break
		}
		if pos+w > len(s) {
			return time.Time{}, fmt.Errorf("malformed date/time %q", s)
		}
		v, err := strconv.Atoi(s[pos : pos+w])
		if err != nil {
			return time.Time{}, fmt.Errorf("malformed date/time %q: %w", s, err)
		}
		parts[i] = v
		pos += w
	}

	nsec := 0
	if frac != "" {
		f, err := strconv.ParseFloat("0."+frac, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("malformed fraction %q: %w", frac, err)
		}
		nsec = int(f * 1e9)
	}
	return time.Date(parts[0], time.Month(parts[1]), parts[2], parts[3], parts[4], parts[5], nsec, time.UTC), nil
}
