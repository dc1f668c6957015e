package visualization

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"

	"normi13qc/internal/models"
)

// Options control how thumbnails are written
type Options struct {
	// MaxSize is the maximum edge length of a thumbnail in pixels
	MaxSize int

	// Quality is the JPEG encoding quality
	Quality int
}

var (
	setupOnce sync.Once
	defaults  = Options{MaxSize: 512, Quality: 90}
)

// Setup fixes the rendering options for the whole process. Only the first
// call has an effect; renderers created afterwards use these options.
func Setup(opts Options) {
	setupOnce.Do(func() {
		if opts.MaxSize > 0 {
			defaults.MaxSize = opts.MaxSize
		}
		if opts.Quality > 0 && opts.Quality <= 100 {
			defaults.Quality = opts.Quality
		}
	})
}

// Overlay is a rectangle drawn on top of a rendered frame
type Overlay struct {
	Rect  image.Rectangle
	Label string
}

// Renderer turns analysed frames into annotated thumbnails
type Renderer struct {
	opts Options
}

// NewRenderer creates a renderer using the process wide options
func NewRenderer() *Renderer {
	return &Renderer{opts: defaults}
}

// FrameToImage window-levels a frame over its full grey value range
func FrameToImage(f *models.Frame) *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, f.Width, f.Height))

	lo, hi := findMinMax(f.Data)
	scale := 0.0
	if hi > lo {
		scale = 65535.0 / (hi - lo)
	}

	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			value := uint16(math.Max(0, math.Min(65535, (f.At(x, y)-lo)*scale)))
			img.SetGray16(x, y, color.Gray16{Y: value})
		}
	}

	return img
}

// Annotate draws every overlay in its own colour on a copy of img
func Annotate(img image.Image, overlays []Overlay) *image.NRGBA {
	out := imaging.Clone(img)
	for i, o := range overlays {
		c := overlayColor(i, len(overlays))
		drawRect(out, o.Rect.Intersect(out.Bounds()), c)
	}
	return out
}

// overlayColor spreads hues evenly so neighbouring ROIs stay distinguishable
func overlayColor(i, n int) color.Color {
	if n < 1 {
		n = 1
	}
	hue := 360.0 * float64(i) / float64(n)
	return colorful.Hsv(hue, 0.9, 1.0)
}

func drawRect(img *image.NRGBA, r image.Rectangle, c color.Color) {
	if r.Empty() {
		return
	}
	for x := r.Min.X; x < r.Max.X; x++ {
		img.Set(x, r.Min.Y, c)
		img.Set(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.Set(r.Min.X, y, c)
		img.Set(r.Max.X-1, y, c)
	}
}

// SaveFrame renders a frame with overlays and saves it as a JPEG thumbnail
func (r *Renderer) SaveFrame(f *models.Frame, overlays []Overlay, filename string) error {
	if err := f.Validate(); err != nil {
		return err
	}
	return r.SaveThumbnail(Annotate(FrameToImage(f), overlays), filename)
}

// SaveThumbnail scales img down to the configured size and saves it as JPEG
func (r *Renderer) SaveThumbnail(img image.Image, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("failed to create thumbnail directory: %w", err)
	}

	b := img.Bounds()
	if b.Dx() > r.opts.MaxSize || b.Dy() > r.opts.MaxSize {
		img = imaging.Fit(img, r.opts.MaxSize, r.opts.MaxSize, imaging.Lanczos)
	}

	if err := imaging.Save(img, filename, imaging.JPEGQuality(r.opts.Quality)); err != nil {
		return fmt.Errorf("failed to save thumbnail %s: %w", filename, err)
	}
	return nil
}

func findMinMax(data []float64) (min, max float64) {
	if len(data) == 0 {
		return 0, 0
	}
	min, max = data[0], data[0]
	for _, v := range data[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}
