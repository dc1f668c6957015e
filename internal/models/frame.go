package models

import (
	"fmt"
	"image"
)

// Mode tells whether an input series holds a single image or a stack of frames
type Mode int

const (
	Mode2D Mode = iota
	Mode3D
)

func (m Mode) String() string {
	if m == Mode3D {
		return "3D"
	}
	return "2D"
}

// Frame represents a single radiographic image as grey values
type Frame struct {
	// Data is the pixel data as a 1D array in row-major order
	Data []float64

	// Width is the number of columns
	Width int

	// Height is the number of rows
	Height int
}

// NewFrame allocates a zeroed frame of the given size
func NewFrame(width, height int) *Frame {
	return &Frame{
		Data:   make([]float64, width*height),
		Width:  width,
		Height: height,
	}
}

// At returns the grey value at column x, row y
func (f *Frame) At(x, y int) float64 {
	return f.Data[y*f.Width+x]
}

// Set stores a grey value at column x, row y
func (f *Frame) Set(x, y int, v float64) {
	f.Data[y*f.Width+x] = v
}

// Bounds returns the pixel rectangle of the frame
func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.Width, f.Height)
}

// Validate checks that the pixel buffer matches the frame dimensions
func (f *Frame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("invalid frame dimensions %dx%d", f.Width, f.Height)
	}
	if len(f.Data) != f.Width*f.Height {
		return fmt.Errorf("frame data length %d does not match %dx%d", len(f.Data), f.Width, f.Height)
	}
	return nil
}

// Clone returns a deep copy of the frame
func (f *Frame) Clone() *Frame {
	data := make([]float64, len(f.Data))
	copy(data, f.Data)
	return &Frame{Data: data, Width: f.Width, Height: f.Height}
}
