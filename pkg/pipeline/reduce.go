package pipeline

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"normi13qc/internal/models"
	"normi13qc/pkg/dicomio"
)

// Reduce turns a prepared series into a single header and image. Volumetric
// input takes the header of the middle frame and the mean of all frames.
func Reduce(in *dicomio.Input) (*dicomio.Header, *models.Frame, error) {
	if len(in.Frames) == 0 {
		return nil, nil, fmt.Errorf("series has no frames")
	}
	if len(in.Headers) != len(in.Frames) {
		return nil, nil, fmt.Errorf("series has %d headers for %d frames", len(in.Headers), len(in.Frames))
	}

	if in.Mode != models.Mode3D {
		return in.Headers[0], in.Frames[0], nil
	}

	mid := len(in.Frames) / 2
	mean, err := meanFrame(in.Frames)
	if err != nil {
		return nil, nil, err
	}
	return in.Headers[mid], mean, nil
}

func meanFrame(frames []*models.Frame) (*models.Frame, error) {
	first := frames[0]
	out := models.NewFrame(first.Width, first.Height)
	for i, f := range frames {
		if f.Width != first.Width || f.Height != first.Height {
			return nil, fmt.Errorf("frame %d is %dx%d, expected %dx%d", i, f.Width, f.Height, first.Width, first.Height)
		}
		floats.Add(out.Data, f.Data)
	}
	floats.Scale(1/float64(len(frames)), out.Data)
	return out, nil
}
