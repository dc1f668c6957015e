package dicomio

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/frame"

	"normi13qc/internal/models"
)

// Input is a prepared series: one header and one frame per image.
type Input struct {
	Headers []*Header
	Frames  []*models.Frame
	Mode    models.Mode
}

// Reader loads DICOM files from disk.
type Reader struct{}

// NewReader returns a file based DICOM reader.
func NewReader() *Reader {
	return &Reader{}
}

// ReadHeaders parses path without its pixel data.
func (r *Reader) ReadHeaders(path string) (*Header, error) {
	ds, err := dicom.ParseFile(path, nil, dicom.SkipPixelData())
	if err != nil {
		return nil, fmt.Errorf("failed to read headers of %s: %w", path, err)
	}
	return HeaderFromDataset(&ds), nil
}

// Prepare reads all files of a series. A single multi-frame file shares its
// header between frames; several files contribute one header each.
func (r *Reader) Prepare(files []string) (*Input, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files")
	}

	in := &Input{}
	for _, path := range files {
		ds, err := dicom.ParseFile(path, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		header, frames, err := collect(&ds)
		if err != nil {
			return nil, fmt.Errorf("failed to read pixel data of %s: %w", path, err)
		}
		for _, f := range frames {
			in.Headers = append(in.Headers, header)
			in.Frames = append(in.Frames, f)
		}
	}

	in.Mode = models.Mode2D
	if len(in.Frames) > 1 {
		in.Mode = models.Mode3D
	}
	return in, nil
}

func collect(ds *dicom.Dataset) (*Header, []*models.Frame, error) {
	el, err := ds.FindElementByTag(TagPixelData)
	if err != nil {
		return nil, nil, fmt.Errorf("no pixel data: %w", err)
	}
	info, ok := el.Value.GetValue().(dicom.PixelDataInfo)
	if !ok {
		return nil, nil, fmt.Errorf("unexpected pixel data value %T", el.Value.GetValue())
	}
	if info.IsEncapsulated {
		return nil, nil, fmt.Errorf("encapsulated (compressed) pixel data is not supported")
	}

	frames := make([]*models.Frame, 0, len(info.Frames))
	for i, fr := range info.Frames {
		f, err := nativeToFrame(fr.NativeData)
		if err != nil {
			return nil, nil, fmt.Errorf("frame %d: %w", i, err)
		}
		frames = append(frames, f)
	}
	if len(frames) == 0 {
		return nil, nil, fmt.Errorf("pixel data holds no frames")
	}
	return HeaderFromDataset(ds), frames, nil
}

// nativeToFrame converts the first sample of every pixel to a grey value.
func nativeToFrame(nf frame.NativeFrame) (*models.Frame, error) {
	if nf.Rows <= 0 || nf.Cols <= 0 {
		return nil, fmt.Errorf("invalid frame dimensions %dx%d", nf.Cols, nf.Rows)
	}
	if len(nf.Data) != nf.Rows*nf.Cols {
		return nil, fmt.Errorf("frame has %d pixels, expected %d", len(nf.Data), nf.Rows*nf.Cols)
	}
	f := models.NewFrame(nf.Cols, nf.Rows)
	for i, px := range nf.Data {
		if len(px) == 0 {
			return nil, fmt.Errorf("pixel %d has no samples", i)
		}
		f.Data[i] = float64(px[0])
	}
	return f, nil
}

// SeriesFiles lists the files of the first series in a study directory.
// Files directly inside dir form the series; otherwise the first
// sub-directory holding files is used. Hidden files are ignored.
func SeriesFiles(dir string) ([]string, error) {
	files, subdirs, err := listDir(dir)
	if err != nil {
		return nil, err
	}
	if len(files) > 0 {
		return files, nil
	}
	for _, sub := range subdirs {
		files, _, err := listDir(sub)
		if err != nil {
			return nil, err
		}
		if len(files) > 0 {
			return files, nil
		}
	}
	return nil, fmt.Errorf("no series files found in %s", dir)
}

func listDir(dir string) (files, subdirs []string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if e.IsDir() {
			subdirs = append(subdirs, path)
		} else if e.Type().IsRegular() {
			files = append(files, path)
		}
	}
	sort.Strings(files)
	sort.Strings(subdirs)
	return files, subdirs, nil
}
