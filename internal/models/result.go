package models

// Entry is a single named value reported by an analysis
type Entry struct {
	Name  string
	Value string
}

// Measurement is a single named numeric value reported by an analysis
type Measurement struct {
	Name  string
	Value float64
}

// Stand identifies the physical detector holder used for an exposure
type Stand string

const (
	StandUnknown Stand = ""
	StandTable   Stand = "table"
	StandWall    Stand = "wall"
)

// Index returns the position of the stand in a [table, wall] distance pair
func (s Stand) Index() int {
	if s == StandWall {
		return 1
	}
	return 0
}

// DetectorIdentity names the detector that produced an image.
// It is derived once per analysis and never mutated afterwards.
type DetectorIdentity struct {
	// Label is the human readable detector name, empty when unknown
	Label string

	// Stand is the table/wall position derived from the acquisition geometry
	Stand Stand

	// AutoSuffix tells whether result names should carry the label as suffix
	AutoSuffix bool
}

// Suffix returns the string appended to every result name
func (d DetectorIdentity) Suffix() string {
	if !d.AutoSuffix || d.Label == "" {
		return ""
	}
	return "_" + d.Label
}
