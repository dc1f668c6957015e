package analysis

import (
	"fmt"
	"math"

	"normi13qc/internal/models"
	"normi13qc/pkg/dicomio"
	"normi13qc/pkg/room"
)

// wallSIDThresholdMm separates table (shorter) from wall stand exposures when
// the room does not define both source distances.
const wallSIDThresholdMm = 1600.0

// Identify derives the detector identity of an image.
func Identify(rc *room.Config, h *dicomio.Header) models.DetectorIdentity {
	stand := Stand(rc, h)
	label := string(stand)
	if id := h.String(dicomio.TagDetectorID); id != "" {
		if l, ok := rc.DetectorLabel(id); ok {
			label = l
		}
	}
	return models.DetectorIdentity{Label: label, Stand: stand, AutoSuffix: rc.AutoSuffix}
}

// Stand tells whether an image was taken on the table or the wall stand.
func Stand(rc *room.Config, h *dicomio.Header) models.Stand {
	sid, ok := h.Float(dicomio.TagDistanceSourceDetector)
	if !ok {
		return models.StandUnknown
	}
	if rc.SIDmm.Pair() {
		if math.Abs(sid-rc.SIDmm[0]) <= math.Abs(sid-rc.SIDmm[1]) {
			return models.StandTable
		}
		return models.StandWall
	}
	if sid >= wallSIDThresholdMm {
		return models.StandWall
	}
	return models.StandTable
}

// PixelSpacing returns the pixel size in mm at the phantom plane. The
// override wins; otherwise the detector pixel size is corrected for the
// magnification given by the source and patient distances.
func PixelSpacing(rc *room.Config, h *dicomio.Header, stand models.Stand) (float64, error) {
	if rc.PixelSpacingMm != nil {
		return *rc.PixelSpacingMm, nil
	}

	detector, ok := h.Float(dicomio.TagImagerPixelSpacing)
	if !ok {
		detector, ok = h.Float(dicomio.TagPixelSpacing)
	}
	if !ok || detector <= 0 {
		return 0, fmt.Errorf("no pixel spacing in header and no use_pixmm override")
	}

	sid, ok := rc.SIDmm.For(stand)
	if !ok {
		sid, ok = h.Float(dicomio.TagDistanceSourceDetector)
	}
	if !ok || sid <= 0 {
		return detector, nil
	}

	pid, ok := rc.PIDmm.For(stand)
	if !ok {
		pid = 0
	}
	if pid >= sid {
		return 0, fmt.Errorf("patient to detector distance %.1f exceeds source distance %.1f", pid, sid)
	}
	return detector * (sid - pid) / sid, nil
}

// orient applies the inversion and mirroring policy to a copy of f.
func orient(rc *room.Config, h *dicomio.Header, f *models.Frame) *models.Frame {
	out := f.Clone()

	invert := h.String(dicomio.TagPhotometricInterpretation) == "MONOCHROME1"
	if rc.MustBeInverted != nil {
		invert = *rc.MustBeInverted
	}
	if invert {
		lo, hi := minMax(out.Data)
		for i, v := range out.Data {
			out.Data[i] = hi + lo - v
		}
	}

	if rc.MustBeMirrored != nil && *rc.MustBeMirrored {
		for y := 0; y < out.Height; y++ {
			row := out.Data[y*out.Width : (y+1)*out.Width]
			for i, j := 0, len(row)-1; i < j; i, j = i+1, j-1 {
				row[i], row[j] = row[j], row[i]
			}
		}
	}
	return out
}
