package analysis

import (
	"fmt"
	"image"
	"log/slog"
	"math"

	"github.com/anthonynsimon/bild/effect"
	"gonum.org/v1/gonum/stat"

	"normi13qc/internal/logging"
	"normi13qc/internal/models"
	"normi13qc/pkg/visualization"
)

// Version identifies the analysis implementation in stored results.
const Version = "1.0.0"

// artefactSigma is the deviation, in standard deviations, above which a
// pixel counts as artefact.
const artefactSigma = 5.0

// minROISize is the smallest ROI edge the analysis accepts.
const minROISize = 2

// XRayQC is the baseline analysis service. It reports simple ROI statistics
// so a configured room can be exercised end to end.
type XRayQC struct {
	renderer *visualization.Renderer
	log      *slog.Logger
}

// NewXRayQC creates the baseline analyzer writing thumbnails through renderer.
func NewXRayQC(renderer *visualization.Renderer) *XRayQC {
	if renderer == nil {
		renderer = visualization.NewRenderer()
	}
	return &XRayQC{renderer: renderer, log: logging.New("analysis")}
}

// Version returns the analysis version string.
func (q *XRayQC) Version() string { return Version }

// QC measures signal, noise, dynamic range and edge content of the image.
func (q *XRayQC) QC(cs *Context) (*Report, error) {
	rep, img, err := q.prepare(cs)
	if err != nil || rep.Status != 0 {
		return rep, err
	}

	// Step 1: pixel size at the phantom plane
	pixmm, err := PixelSpacing(cs.Room, cs.Header, rep.Identity.Stand)
	if err != nil {
		pixmm = cs.Room.OutValue
		rep.Message = err.Error()
	}

	// Step 2: ROI statistics
	rois := fiveROIs(img.Bounds(), roiSize(img))
	means := make([]float64, len(rois))
	for i, r := range rois {
		means[i], _ = roiStats(img, r)
	}
	mean, sd := roiStats(img, rois[0])
	snr := cs.Room.OutValue
	if sd > 0 {
		snr = mean / sd
	}
	lo, hi := minMax(means)
	dynamic := cs.Room.OutValue
	if lo > 0 {
		dynamic = hi / lo
	}

	// Step 3: edge content
	edges := edgeStrength(img)

	rep.Measurements = []models.Measurement{
		{Name: "PixelSpacing_mm", Value: pixmm},
		{Name: "Signal_mean", Value: mean},
		{Name: "Signal_sd", Value: sd},
		{Name: "SNR", Value: snr},
		{Name: "DynamicRange", Value: dynamic},
		{Name: "EdgeStrength", Value: edges},
	}
	rep.Overlays[KindNormi13] = toOverlays(rois, "roi")
	if cs.Verbose {
		q.log.Debug("qc finished", "room", cs.Room.Name, "measurements", len(rep.Measurements))
	}
	return rep, nil
}

// Uniformity compares ROI means and counts outlier pixels inside the
// artefact border.
func (q *XRayQC) Uniformity(cs *Context) (*Report, error) {
	rep, img, err := q.prepare(cs)
	if err != nil || rep.Status != 0 {
		return rep, err
	}

	// border order is top, bottom, left, right
	b := cs.Room.ArtefactBorderPx
	width, height := img.Width-b[2]-b[3], img.Height-b[0]-b[1]
	if width < 4*minROISize || height < 4*minROISize {
		rep.Status = 1
		rep.Message = fmt.Sprintf("artefact border %v leaves no usable image area", b)
		return rep, nil
	}
	region := image.Rect(b[2], b[0], b[2]+width, b[0]+height)

	// Step 1: uniformity over five ROIs
	size := max(min(region.Dx(), region.Dy())/10, minROISize)
	rois := fiveROIs(region, size)
	means := make([]float64, len(rois))
	for i, r := range rois {
		means[i], _ = roiStats(img, r)
	}
	lo, hi := minMax(means)
	uniformity := cs.Room.OutValue
	if hi+lo != 0 {
		uniformity = 100 * (hi - lo) / (hi + lo)
	}

	// Step 2: artefacts
	mean, sd := roiStats(img, region)
	count := 0
	box := image.Rectangle{}
	for y := region.Min.Y; y < region.Max.Y; y++ {
		for x := region.Min.X; x < region.Max.X; x++ {
			if sd > 0 && math.Abs(img.At(x, y)-mean) > artefactSigma*sd {
				count++
				box = box.Union(image.Rect(x, y, x+1, y+1))
			}
		}
	}
	fraction := float64(count) / float64(region.Dx()*region.Dy())

	rep.Measurements = []models.Measurement{
		{Name: "Uniformity_pct", Value: uniformity},
		{Name: "Artefact_pixels", Value: float64(count)},
		{Name: "Artefact_fraction", Value: fraction},
	}
	rep.Overlays[KindUniformity] = toOverlays(rois, "roi")
	rep.Overlays[KindArtefacts] = []visualization.Overlay{{Rect: region, Label: "border"}}
	if count > 0 {
		rep.Overlays[KindArtefacts] = append(rep.Overlays[KindArtefacts], visualization.Overlay{Rect: box, Label: "artefacts"})
	}
	return rep, nil
}

// SaveAnnotatedImage writes the thumbnail of kind for a finished analysis.
func (q *XRayQC) SaveAnnotatedImage(cs *Context, rep *Report, filename, kind string) error {
	switch kind {
	case KindNormi13, KindArtefacts, KindUniformity:
	default:
		return fmt.Errorf("unknown thumbnail kind %q", kind)
	}
	img := cs.Pixels
	if rep != nil && rep.Image != nil {
		img = rep.Image
	}
	if img == nil {
		return fmt.Errorf("no image to annotate")
	}
	var overlays []visualization.Overlay
	if rep != nil {
		overlays = rep.Overlays[kind]
	}
	return q.renderer.SaveFrame(img, overlays, filename)
}

// prepare validates the input and orients the frame.
func (q *XRayQC) prepare(cs *Context) (*Report, *models.Frame, error) {
	if cs.Room == nil {
		return nil, nil, fmt.Errorf("analysis context has no room")
	}
	if cs.Pixels == nil {
		return nil, nil, fmt.Errorf("analysis context has no pixel data")
	}
	if err := cs.Pixels.Validate(); err != nil {
		return nil, nil, err
	}

	img := orient(cs.Room, cs.Header, cs.Pixels)
	rep := &Report{
		Identity: Identify(cs.Room, cs.Header),
		Overlays: make(map[string][]visualization.Overlay),
		Image:    img,
	}
	if roiSize(img) < minROISize {
		rep.Status = 1
		rep.Message = fmt.Sprintf("image %dx%d too small for analysis", img.Width, img.Height)
	}
	return rep, img, nil
}

// roiSize is a tenth of the shortest image edge.
func roiSize(f *models.Frame) int {
	return min(f.Width, f.Height) / 10
}

// fiveROIs places a centre ROI and four ROIs halfway towards the corners of r.
func fiveROIs(r image.Rectangle, size int) []image.Rectangle {
	cx, cy := (r.Min.X+r.Max.X)/2, (r.Min.Y+r.Max.Y)/2
	dx, dy := r.Dx()/4, r.Dy()/4
	centres := []image.Point{
		{cx, cy},
		{cx - dx, cy - dy},
		{cx + dx, cy - dy},
		{cx - dx, cy + dy},
		{cx + dx, cy + dy},
	}
	out := make([]image.Rectangle, len(centres))
	for i, c := range centres {
		out[i] = image.Rect(c.X-size/2, c.Y-size/2, c.X-size/2+size, c.Y-size/2+size).Intersect(r)
	}
	return out
}

func roiStats(f *models.Frame, r image.Rectangle) (mean, sd float64) {
	vals := make([]float64, 0, r.Dx()*r.Dy())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			vals = append(vals, f.At(x, y))
		}
	}
	if len(vals) == 0 {
		return 0, 0
	}
	if len(vals) == 1 {
		return vals[0], 0
	}
	return stat.MeanStdDev(vals, nil)
}

// edgeStrength is the mean Sobel magnitude of the window-levelled image,
// scaled to [0,1].
func edgeStrength(f *models.Frame) float64 {
	sobel := effect.Sobel(visualization.FrameToImage(f))
	b := sobel.Bounds()
	total := 0.0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			total += float64(sobel.RGBAAt(x, y).R)
		}
	}
	return total / (255 * float64(b.Dx()*b.Dy()))
}

func toOverlays(rects []image.Rectangle, label string) []visualization.Overlay {
	out := make([]visualization.Overlay, len(rects))
	for i, r := range rects {
		out[i] = visualization.Overlay{Rect: r, Label: fmt.Sprintf("%s%d", label, i)}
	}
	return out
}

func minMax(data []float64) (lo, hi float64) {
	if len(data) == 0 {
		return 0, 0
	}
	lo, hi = data[0], data[0]
	for _, v := range data[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

var _ Service = (*XRayQC)(nil)
