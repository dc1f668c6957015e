// Package params turns the flat string-keyed parameter map of a configured
// action into typed values. Every lookup reports absence and malformed input
// as distinct errors so callers decide explicitly which default applies.
package params

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrMissing is returned when a parameter is not present.
var ErrMissing = errors.New("parameter not set")

// ParseError reports a parameter that is present but malformed.
type ParseError struct {
	Key   string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parameter %s=%q: %v", e.Key, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Point is a 2D coordinate in mm.
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Params holds the raw parameters of one action. Values keep the literal
// text found in the configuration file.
type Params map[string]string

// UnmarshalYAML accepts scalars of any type and stores their literal text.
// Scalar lists are joined with ";" and null values are dropped.
func (p *Params) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("params must be a mapping, got line %d", node.Line)
	}
	out := make(Params, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		switch val.Kind {
		case yaml.ScalarNode:
			if val.Tag == "!!null" {
				continue
			}
			out[key.Value] = val.Value
		case yaml.SequenceNode:
			parts := make([]string, 0, len(val.Content))
			for _, item := range val.Content {
				if item.Kind != yaml.ScalarNode {
					return fmt.Errorf("param %s: nested values are not supported", key.Value)
				}
				parts = append(parts, item.Value)
			}
			out[key.Value] = strings.Join(parts, ";")
		default:
			return fmt.Errorf("param %s: nested values are not supported", key.Value)
		}
	}
	*p = out
	return nil
}

// Has reports whether key is present, regardless of its value.
func (p Params) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// String returns the raw value of key.
func (p Params) String(key string) (string, error) {
	v, ok := p[key]
	if !ok {
		return "", ErrMissing
	}
	return v, nil
}

// Float parses key as a floating point number.
func (p Params) Float(key string) (float64, error) {
	raw, ok := p[key]
	if !ok {
		return 0, ErrMissing
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, &ParseError{Key: key, Value: raw, Err: err}
	}
	return v, nil
}

// Bool is true only when the lowercase value of key equals "true".
func (p Params) Bool(key string) bool {
	return strings.ToLower(p[key]) == "true"
}

// BoolOpt is like Bool but reports absence.
func (p Params) BoolOpt(key string) (bool, error) {
	raw, ok := p[key]
	if !ok {
		return false, ErrMissing
	}
	return strings.ToLower(raw) == "true", nil
}

// Point parses a "x;y" coordinate.
func (p Params) Point(key string) (Point, error) {
	raw, ok := p[key]
	if !ok {
		return Point{}, ErrMissing
	}
	vals, err := splitFloats(raw)
	if err != nil {
		return Point{}, &ParseError{Key: key, Value: raw, Err: err}
	}
	if len(vals) != 2 {
		return Point{}, &ParseError{Key: key, Value: raw, Err: fmt.Errorf("want 2 values, got %d", len(vals))}
	}
	return Point{X: vals[0], Y: vals[1]}, nil
}

// Ints parses a ";" separated list of exactly n non-negative integers.
func (p Params) Ints(key string, n int) ([]int, error) {
	raw, ok := p[key]
	if !ok {
		return nil, ErrMissing
	}
	fields := strings.Split(raw, ";")
	if len(fields) != n {
		return nil, &ParseError{Key: key, Value: raw, Err: fmt.Errorf("want %d values, got %d", n, len(fields))}
	}
	out := make([]int, n)
	for i, f := range fields {
		v, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, &ParseError{Key: key, Value: raw, Err: err}
		}
		if v < 0 {
			return nil, &ParseError{Key: key, Value: raw, Err: fmt.Errorf("negative value %d", v)}
		}
		out[i] = v
	}
	return out, nil
}

// Pairs parses "k1;v1|k2;v2" into a map. Later keys overwrite earlier ones.
func (p Params) Pairs(key string) (map[string]string, error) {
	raw, ok := p[key]
	if !ok {
		return nil, ErrMissing
	}
	out := make(map[string]string)
	for _, entry := range strings.Split(raw, "|") {
		kv := strings.Split(entry, ";")
		if len(kv) < 2 || kv[0] == "" {
			return nil, &ParseError{Key: key, Value: raw, Err: fmt.Errorf("malformed pair %q", entry)}
		}
		out[kv[0]] = kv[1]
	}
	return out, nil
}

// OrDefault returns def when err is non-nil, v otherwise.
func OrDefault[T any](v T, err error, def T) T {
	if err != nil {
		return def
	}
	return v
}

func splitFloats(raw string) ([]float64, error) {
	fields := strings.Split(raw, ";")
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
