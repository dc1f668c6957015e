package room

import (
	"errors"
	"log/slog"

	"normi13qc/internal/logging"
	"normi13qc/pkg/params"
)

// Resolver builds room configurations from action parameters.
type Resolver struct {
	log *slog.Logger
}

// NewResolver returns a resolver that reports soft parse failures to logger.
// A nil logger uses the "room" component logger.
func NewResolver(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = logging.New("room")
	}
	return &Resolver{log: logger}
}

// Resolve reads roomname and linepair_type from p and resolves the room.
func (r *Resolver) Resolve(p params.Params) (*Config, error) {
	name, err := p.String("roomname")
	if err != nil {
		return nil, &ConfigurationError{Reason: "missing roomname"}
	}
	lp, err := p.String("linepair_type")
	if err != nil {
		return nil, &ConfigurationError{Room: name, Reason: "missing linepair_type"}
	}
	return r.Build(name, LinepairType(lp), p)
}

// Build resolves a room from its name, insert type and remaining parameters.
func (r *Resolver) Build(name string, lp LinepairType, p params.Params) (*Config, error) {
	// Step 1: insert type
	if !lp.Valid() {
		return nil, &ConfigurationError{Room: name, Reason: "incorrect linepair type " + string(lp)}
	}

	// Step 2: marker positions, any of them may be left to the analysis defaults
	markers := make(map[string]params.Point)
	var unset []string
	for _, key := range lp.Markers() {
		pt, err := p.Point(key)
		if err != nil {
			if !errors.Is(err, params.ErrMissing) {
				r.log.Info("malformed marker position", "room", name, "param", key, "error", err)
			}
			unset = append(unset, key)
			continue
		}
		markers[key] = pt
	}
	if len(unset) > 0 {
		r.log.Info("marker positions not supplied, analysis uses empirical values", "room", name, "markers", unset)
	}

	// Step 3: artefact border
	border, err := p.Ints("artefactborderpx", 4)
	r.note(name, "artefactborderpx", err, "no valid border supplied, using [0,0,0,0]")
	border = params.OrDefault(border, err, []int{0, 0, 0, 0})

	// Step 4: detector names
	names, err := p.Pairs("detector_names")
	r.note(name, "detector_names", err, "no explicit detector name pairs defined")
	names = params.OrDefault(names, err, map[string]string{})

	// Step 5: patient to detector distance
	pid, ok := distance(p, "pidmm", "tablepidmm", "wallpidmm")
	if !ok {
		if !p.Has("use_pixmm") {
			return nil, &ConfigurationError{Room: name, Reason: `must supply "tablepidmm" and "wallpidmm", or "pidmm", or "use_pixmm"`}
		}
		pid = Distance{Unresolved}
	}

	// Step 6: source to detector distance
	sid, ok := distance(p, "sidmm", "tablesidmm", "wallsidmm")
	if !ok {
		sid = Distance{Unresolved, Unresolved}
	}

	// Step 7: suffix policy
	autoSuffix := p.Bool("auto_suffix")
	r.log.Debug("auto_suffix resolved", "room", name, "auto_suffix", autoSuffix)

	// Step 8: base configuration
	cfg := &Config{
		Name:            name,
		LinepairType:    lp,
		LinepairMarkers: markers,
		DetectorNames:   names,
		PIDmm:           pid,
		SIDmm:           sid,
		AutoSuffix:      autoSuffix,
		OutValue:        OutValue,
	}
	copy(cfg.ArtefactBorderPx[:], border)

	// Step 9: overrides
	applyOverrides(cfg, p)
	return cfg, nil
}

// distance resolves a fixed value first, then a table/wall pair.
func distance(p params.Params, fixed, table, wall string) (Distance, bool) {
	if v, err := p.Float(fixed); err == nil {
		return Distance{v}, true
	}
	t, errT := p.Float(table)
	w, errW := p.Float(wall)
	if errT == nil && errW == nil {
		return Distance{t, w}, true
	}
	return nil, false
}

// applyOverrides layers the use_* parameters on top of the resolved room.
// Absent or malformed overrides are skipped.
func applyOverrides(cfg *Config, p params.Params) {
	if v, err := p.Float("use_pixmm"); err == nil {
		cfg.PixelSpacingMm = &v
	}
	if v, err := p.BoolOpt("use_mustbeinverted"); err == nil {
		cfg.MustBeInverted = &v
	}
	// no use_ prefix here; existing configurations depend on the key name
	if v, err := p.BoolOpt("mustbemirrored"); err == nil {
		cfg.MustBeMirrored = &v
	}
}

func (r *Resolver) note(room, key string, err error, msg string) {
	if err == nil {
		return
	}
	if errors.Is(err, params.ErrMissing) {
		r.log.Info(msg, "room", room, "param", key)
		return
	}
	r.log.Info(msg, "room", room, "param", key, "error", err)
}
