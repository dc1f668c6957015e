// Package pipeline runs the configured QC actions against one DICOM series
// and writes their results to a sink.
//
// Each action is handled independently:
// 1. The action parameters are resolved into a room definition
// 2. The series is read (headers only, or full pixel data)
// 3. Volumetric input is reduced to a single 2D image
// 4. The analysis service is invoked
// 5. Its output is flattened into named, typed results
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"normi13qc/internal/logging"
	"normi13qc/pkg/analysis"
	"normi13qc/pkg/config"
	"normi13qc/pkg/dicomio"
	"normi13qc/pkg/params"
	"normi13qc/pkg/results"
	"normi13qc/pkg/room"
)

// Action names understood by the dispatcher.
const (
	ActionAcqDateTime = "acqdatetime"
	ActionHeader      = "header_series"
	ActionQC          = "qc_series"
	ActionUniformity  = "uniformity_series"
)

// Reader loads the input series.
type Reader interface {
	ReadHeaders(path string) (*dicomio.Header, error)
	Prepare(files []string) (*dicomio.Input, error)
}

// Params holds the runtime options of a dispatcher.
type Params struct {
	// OutputDir receives the annotated thumbnails
	OutputDir string
}

// Dispatcher routes configured actions to the analysis service.
type Dispatcher struct {
	params  *Params
	reader  Reader
	service analysis.Service
	sink    results.Sink
	rooms   *room.Resolver
	log     *slog.Logger
}

// NewDispatcher creates a dispatcher writing to sink.
func NewDispatcher(p *Params, reader Reader, service analysis.Service, sink results.Sink) *Dispatcher {
	if p == nil {
		p = &Params{}
	}
	return &Dispatcher{
		params:  p,
		reader:  reader,
		service: service,
		sink:    sink,
		rooms:   room.NewResolver(logging.New("room")),
		log:     logging.New("pipeline"),
	}
}

// Run executes actions in order against files and flushes the sink.
//
// A configuration error skips only the action that raised it. Any other error
// stops the run before the sink is written.
func (d *Dispatcher) Run(actions config.Actions, files []string) error {
	if len(files) == 0 {
		return fmt.Errorf("no input files")
	}

	for _, action := range actions {
		err := d.Dispatch(action, files)
		if errors.Is(err, room.ErrConfiguration) {
			d.log.Error("action skipped", "action", action.Name, "error", err)
			continue
		}
		if err != nil {
			return fmt.Errorf("action %s: %w", action.Name, err)
		}
	}

	if err := d.sink.Write(); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	return nil
}

// Dispatch executes a single action. Unknown action names are ignored.
func (d *Dispatcher) Dispatch(action config.Action, files []string) error {
	p := action.Params
	if p == nil {
		p = params.Params{}
	}

	d.log.Info("running action", "action", action.Name)
	switch action.Name {
	case ActionAcqDateTime:
		return d.acqDateTime(files)
	case ActionHeader:
		return d.headerSeries(p, files)
	case ActionQC:
		return d.qcSeries(p, files)
	case ActionUniformity:
		return d.uniformitySeries(p, files)
	}
	d.log.Warn("unknown action ignored", "action", action.Name)
	return nil
}

func (d *Dispatcher) acqDateTime(files []string) error {
	h, err := d.reader.ReadHeaders(files[0])
	if err != nil {
		return err
	}
	dt, err := d.service.AcqDateTime(h)
	if err != nil {
		return err
	}
	d.sink.AddDateTime("AcquisitionDateTime", dt)
	return nil
}

func (d *Dispatcher) headerSeries(p params.Params, files []string) error {
	rc, err := d.rooms.Resolve(p)
	if err != nil {
		return err
	}

	h, err := d.reader.ReadHeaders(files[0])
	if err != nil {
		return err
	}

	cs := &analysis.Context{Room: rc, Header: h, Verbose: false}
	entries, id, err := d.service.DICOMInfo(cs, analysis.InfoQCWAD)
	if err != nil {
		return err
	}

	suffix := id.Suffix()
	d.sink.AddString("pluginversion"+suffix, d.service.Version())
	flattenHeader(d.sink, entries, suffix)
	d.sink.AddString("room"+suffix, rc.Name)
	d.sink.AddString("stand"+suffix, string(id.Stand))
	return nil
}

func (d *Dispatcher) qcSeries(p params.Params, files []string) error {
	cs, numSlices, err := d.imageContext(p, files)
	if err != nil {
		return err
	}

	rep, err := d.service.QC(cs)
	if err != nil {
		return err
	}
	d.checkStatus(ActionQC, rep)

	suffix := rep.Identity.Suffix()
	if err := d.thumbnail(cs, rep, analysis.KindNormi13, suffix); err != nil {
		return err
	}
	flattenMeasurements(d.sink, rep.Measurements, suffix, numSlices)
	return nil
}

func (d *Dispatcher) uniformitySeries(p params.Params, files []string) error {
	cs, numSlices, err := d.imageContext(p, files)
	if err != nil {
		return err
	}

	rep, err := d.service.Uniformity(cs)
	if err != nil {
		return err
	}
	d.checkStatus(ActionUniformity, rep)

	suffix := rep.Identity.Suffix()
	for _, kind := range []string{analysis.KindArtefacts, analysis.KindUniformity} {
		if err := d.thumbnail(cs, rep, kind, suffix); err != nil {
			return err
		}
	}
	flattenMeasurements(d.sink, rep.Measurements, suffix, numSlices)
	return nil
}

// imageContext resolves the room and loads the reduced 2D image. It returns
// the number of frames of the original series.
func (d *Dispatcher) imageContext(p params.Params, files []string) (*analysis.Context, int, error) {
	rc, err := d.rooms.Resolve(p)
	if err != nil {
		return nil, 0, err
	}

	in, err := d.reader.Prepare(files)
	if err != nil {
		return nil, 0, err
	}
	numSlices := len(in.Frames)

	header, pixels, err := Reduce(in)
	if err != nil {
		return nil, 0, err
	}

	cs := &analysis.Context{Room: rc, Header: header, Pixels: pixels, Verbose: false}
	return cs, numSlices, nil
}

// thumbnail saves the annotated image of kind and reports it as an object.
func (d *Dispatcher) thumbnail(cs *analysis.Context, rep *analysis.Report, kind, suffix string) error {
	name := kind + suffix
	filename := filepath.Join(d.params.OutputDir, name+".jpg")
	if err := d.service.SaveAnnotatedImage(cs, rep, filename, kind); err != nil {
		return err
	}
	d.sink.AddObject(name, filename)
	return nil
}

func (d *Dispatcher) checkStatus(action string, rep *analysis.Report) {
	if rep.Status != 0 {
		d.log.Warn("analysis reported a problem", "action", action, "status", rep.Status, "message", rep.Message)
	}
}
