// Package analysis defines the contract of the X-ray QC analysis service and
// ships a baseline implementation of it.
package analysis

import (
	"time"

	"normi13qc/internal/models"
	"normi13qc/pkg/dicomio"
	"normi13qc/pkg/room"
	"normi13qc/pkg/visualization"
)

// Thumbnail kinds accepted by SaveAnnotatedImage.
const (
	KindNormi13    = "normi13"
	KindArtefacts  = "artefacts"
	KindUniformity = "uniformity"
)

// InfoQCWAD selects the header fields reported to the QC database.
const InfoQCWAD = "qcwad"

// Context is the input of one analysis run. It is owned by the caller for the
// duration of a single action.
type Context struct {
	Room   *room.Config
	Header *dicomio.Header
	Pixels *models.Frame

	// Verbose enables detailed analysis logging; the dispatcher keeps it off
	Verbose bool
}

// Report is the outcome of an image analysis.
type Report struct {
	// Status is 0 on success
	Status  int
	Message string

	Measurements []models.Measurement
	Identity     models.DetectorIdentity

	// Overlays holds the regions used per thumbnail kind
	Overlays map[string][]visualization.Overlay

	// Image is the oriented frame the analysis worked on
	Image *models.Frame
}

// Service is the analysis collaborator used by the dispatcher.
type Service interface {
	Version() string
	AcqDateTime(h *dicomio.Header) (time.Time, error)
	DICOMInfo(cs *Context, info string) ([]models.Entry, models.DetectorIdentity, error)
	QC(cs *Context) (*Report, error)
	Uniformity(cs *Context) (*Report, error)
	SaveAnnotatedImage(cs *Context, rep *Report, filename, kind string) error
}
