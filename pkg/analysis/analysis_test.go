package analysis

import (
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suyashkumar/dicom/pkg/tag"

	"normi13qc/internal/models"
	"normi13qc/pkg/dicomio"
	"normi13qc/pkg/room"
	"normi13qc/pkg/visualization"
)

func testRoom() *room.Config {
	return &room.Config{
		Name:          "WKZ1",
		LinepairType:  room.LinepairTyp38,
		DetectorNames: map[string]string{"SN152495": "Tafel", "SN152508": "Wand"},
		PIDmm:         room.Distance{70, 50},
		SIDmm:         room.Distance{room.Unresolved, room.Unresolved},
		AutoSuffix:    true,
		OutValue:      room.OutValue,
	}
}

func flatFrame(w, h int, v float64) *models.Frame {
	f := models.NewFrame(w, h)
	for i := range f.Data {
		f.Data[i] = v
	}
	return f
}

func ptr[T any](v T) *T { return &v }

func TestIdentify(t *testing.T) {
	rc := testRoom()

	id := Identify(rc, dicomio.NewHeader(map[tag.Tag]string{
		dicomio.TagDetectorID:             "SN152508",
		dicomio.TagDistanceSourceDetector: "1150",
	}))
	assert.Equal(t, "Wand", id.Label)
	assert.Equal(t, models.StandTable, id.Stand)
	assert.Equal(t, "_Wand", id.Suffix())

	id = Identify(rc, dicomio.NewHeader(map[tag.Tag]string{
		dicomio.TagDetectorID:             "unknown",
		dicomio.TagDistanceSourceDetector: "1800",
	}))
	assert.Equal(t, "wall", id.Label)
	assert.Equal(t, "_wall", id.Suffix())

	id = Identify(rc, dicomio.NewHeader(nil))
	assert.Equal(t, "", id.Suffix())

	rc.AutoSuffix = false
	id = Identify(rc, dicomio.NewHeader(map[tag.Tag]string{dicomio.TagDetectorID: "SN152495"}))
	assert.Equal(t, "Tafel", id.Label)
	assert.Equal(t, "", id.Suffix())
}

func TestStandUsesRoomPair(t *testing.T) {
	rc := testRoom()
	rc.SIDmm = room.Distance{1800, 2000}

	h := dicomio.NewHeader(map[tag.Tag]string{dicomio.TagDistanceSourceDetector: "1850"})
	assert.Equal(t, models.StandTable, Stand(rc, h))

	h = dicomio.NewHeader(map[tag.Tag]string{dicomio.TagDistanceSourceDetector: "1950"})
	assert.Equal(t, models.StandWall, Stand(rc, h))
}

func TestPixelSpacing(t *testing.T) {
	rc := testRoom()
	h := dicomio.NewHeader(map[tag.Tag]string{
		dicomio.TagImagerPixelSpacing:     `0.15\0.15`,
		dicomio.TagDistanceSourceDetector: "1000",
	})

	v, err := PixelSpacing(rc, h, models.StandTable)
	require.NoError(t, err)
	assert.InDelta(t, 0.15*930/1000, v, 1e-12)

	v, err = PixelSpacing(rc, h, models.StandWall)
	require.NoError(t, err)
	assert.InDelta(t, 0.15*950/1000, v, 1e-12)

	rc.PixelSpacingMm = ptr(0.1)
	v, err = PixelSpacing(rc, h, models.StandTable)
	require.NoError(t, err)
	assert.Equal(t, 0.1, v)

	rc.PixelSpacingMm = nil
	_, err = PixelSpacing(rc, dicomio.NewHeader(nil), models.StandTable)
	assert.Error(t, err)

	// without a header SID the stand is unknown and the table distances are not used
	noSID := dicomio.NewHeader(map[tag.Tag]string{dicomio.TagImagerPixelSpacing: `0.15\0.15`})
	rc.SIDmm = room.Distance{1150, 1800}
	stand := Stand(rc, noSID)
	require.Equal(t, models.StandUnknown, stand)
	v, err = PixelSpacing(rc, noSID, stand)
	require.NoError(t, err)
	assert.Equal(t, 0.15, v)
}

func TestOrient(t *testing.T) {
	f := models.NewFrame(3, 1)
	copy(f.Data, []float64{1, 2, 10})

	rc := testRoom()
	rc.MustBeInverted = ptr(true)
	rc.MustBeMirrored = ptr(true)

	out := orient(rc, dicomio.NewHeader(nil), f)
	assert.Equal(t, []float64{1, 9, 10}, out.Data)
	assert.Equal(t, []float64{1, 2, 10}, f.Data, "input frame is left untouched")

	rc = testRoom()
	h := dicomio.NewHeader(map[tag.Tag]string{dicomio.TagPhotometricInterpretation: "MONOCHROME1"})
	assert.Equal(t, []float64{10, 9, 1}, orient(rc, h, f).Data)

	rc.MustBeInverted = ptr(false)
	assert.Equal(t, []float64{1, 2, 10}, orient(rc, h, f).Data)
}

func TestAcqDateTime(t *testing.T) {
	q := NewXRayQC(nil)

	got, err := q.AcqDateTime(dicomio.NewHeader(map[tag.Tag]string{
		dicomio.TagAcquisitionDate: "20170828",
		dicomio.TagAcquisitionTime: "101530.25",
		dicomio.TagStudyDate:       "20000101",
	}))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2017, 8, 28, 10, 15, 30, 250000000, time.UTC), got)

	got, err = q.AcqDateTime(dicomio.NewHeader(map[tag.Tag]string{
		dicomio.TagSeriesDate: "20161220",
		dicomio.TagSeriesTime: "09:05",
	}))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2016, 12, 20, 9, 5, 0, 0, time.UTC), got)

	got, err = q.AcqDateTime(dicomio.NewHeader(map[tag.Tag]string{
		dicomio.TagAcquisitionDateTime: "20170310123000+0100",
	}))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2017, 3, 10, 12, 30, 0, 0, time.UTC), got)

	_, err = q.AcqDateTime(dicomio.NewHeader(nil))
	assert.Error(t, err)
}

func TestDICOMInfo(t *testing.T) {
	q := NewXRayQC(nil)
	cs := &Context{
		Room: testRoom(),
		Header: dicomio.NewHeader(map[tag.Tag]string{
			{Group: 0x0018, Element: 0x0060}:  "70",
			dicomio.TagDetectorID:             "SN152495",
			dicomio.TagDistanceSourceDetector: "1150",
		}),
	}

	entries, id, err := q.DICOMInfo(cs, InfoQCWAD)
	require.NoError(t, err)
	assert.Len(t, entries, len(qcwadFields))
	assert.Contains(t, entries, models.Entry{Name: "kVp", Value: "70"})
	assert.Contains(t, entries, models.Entry{Name: "Sensitivity", Value: ""})
	assert.Equal(t, "Tafel", id.Label)

	_, _, err = q.DICOMInfo(cs, "other")
	assert.Error(t, err)
}

func TestQC(t *testing.T) {
	f := flatFrame(100, 80, 1000)
	// a bright square so the image has edges and a spread of ROI means
	for y := 10; y < 30; y++ {
		for x := 10; x < 30; x++ {
			f.Set(x, y, 3000)
		}
	}

	rc := testRoom()
	rc.PixelSpacingMm = ptr(0.2)
	rep, err := NewXRayQC(nil).QC(&Context{Room: rc, Header: dicomio.NewHeader(nil), Pixels: f})
	require.NoError(t, err)
	require.Equal(t, 0, rep.Status)

	values := map[string]float64{}
	for _, m := range rep.Measurements {
		values[m.Name] = m.Value
	}
	assert.Equal(t, 0.2, values["PixelSpacing_mm"])
	assert.Equal(t, 1000.0, values["Signal_mean"])
	assert.Equal(t, 0.0, values["Signal_sd"])
	assert.Equal(t, -1.0, values["SNR"])
	assert.Equal(t, 3.0, values["DynamicRange"])
	assert.Greater(t, values["EdgeStrength"], 0.0)
	assert.Len(t, rep.Overlays[KindNormi13], 5)
}

func TestQCSmallImage(t *testing.T) {
	rep, err := NewXRayQC(nil).QC(&Context{Room: testRoom(), Header: dicomio.NewHeader(nil), Pixels: flatFrame(5, 5, 1)})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Status)
	assert.NotEmpty(t, rep.Message)
	assert.Empty(t, rep.Measurements)
}

func TestQCRequiresPixels(t *testing.T) {
	_, err := NewXRayQC(nil).QC(&Context{Room: testRoom(), Header: dicomio.NewHeader(nil)})
	assert.Error(t, err)
}

func TestUniformity(t *testing.T) {
	f := flatFrame(100, 100, 500)
	f.Set(50, 60, 100000)
	// values in the excluded border are ignored
	f.Set(1, 1, 1e9)

	rc := testRoom()
	rc.ArtefactBorderPx = [4]int{5, 5, 5, 5}
	rep, err := NewXRayQC(nil).Uniformity(&Context{Room: rc, Header: dicomio.NewHeader(nil), Pixels: f})
	require.NoError(t, err)
	require.Equal(t, 0, rep.Status)

	values := map[string]float64{}
	for _, m := range rep.Measurements {
		values[m.Name] = m.Value
	}
	assert.Equal(t, 0.0, values["Uniformity_pct"])
	assert.Equal(t, 1.0, values["Artefact_pixels"])
	assert.InDelta(t, 1.0/(90*90), values["Artefact_fraction"], 1e-12)
	assert.Len(t, rep.Overlays[KindArtefacts], 2)
}

func TestUniformityBorderTooWide(t *testing.T) {
	rc := testRoom()
	rc.ArtefactBorderPx = [4]int{50, 50, 0, 0}
	rep, err := NewXRayQC(nil).Uniformity(&Context{Room: rc, Header: dicomio.NewHeader(nil), Pixels: flatFrame(100, 100, 1)})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Status)
}

func TestUniformityBordersWiderThanImage(t *testing.T) {
	rc := testRoom()
	rc.ArtefactBorderPx = [4]int{0, 0, 80, 80}
	rep, err := NewXRayQC(nil).Uniformity(&Context{Room: rc, Header: dicomio.NewHeader(nil), Pixels: flatFrame(100, 100, 1)})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Status)
	assert.Contains(t, rep.Message, "no usable image area")
	assert.Empty(t, rep.Measurements)
	assert.Empty(t, rep.Overlays[KindArtefacts])
}

func TestUniformityAsymmetricBorder(t *testing.T) {
	rc := testRoom()
	rc.ArtefactBorderPx = [4]int{10, 20, 30, 5}
	rep, err := NewXRayQC(nil).Uniformity(&Context{Room: rc, Header: dicomio.NewHeader(nil), Pixels: flatFrame(100, 100, 1)})
	require.NoError(t, err)
	require.Equal(t, 0, rep.Status)
	require.NotEmpty(t, rep.Overlays[KindArtefacts])
	assert.Equal(t, image.Rect(30, 10, 95, 80), rep.Overlays[KindArtefacts][0].Rect)
}

func TestSaveAnnotatedImage(t *testing.T) {
	q := NewXRayQC(visualization.NewRenderer())
	cs := &Context{Room: testRoom(), Header: dicomio.NewHeader(nil), Pixels: flatFrame(60, 60, 10)}
	rep, err := q.Uniformity(cs)
	require.NoError(t, err)

	dir := t.TempDir()
	for _, kind := range []string{KindArtefacts, KindUniformity} {
		filename := filepath.Join(dir, kind+".jpg")
		require.NoError(t, q.SaveAnnotatedImage(cs, rep, filename, kind))
		_, err := os.Stat(filename)
		assert.NoError(t, err)
	}

	assert.Error(t, q.SaveAnnotatedImage(cs, rep, filepath.Join(dir, "x.jpg"), "mtf"))
}
