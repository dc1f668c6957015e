// Package results accumulates named QC results and flushes them to one or
// more writers.
package results

import (
	"fmt"
	"time"
)

// Category is the kind of value a result holds.
type Category string

const (
	CategoryFloat    Category = "float"
	CategoryString   Category = "string"
	CategoryDateTime Category = "datetime"
	CategoryObject   Category = "object"
)

// DateTimeLayout is the text form of datetime results.
const DateTimeLayout = "2006-01-02 15:04:05"

// Result is a single named value.
type Result struct {
	Name     string
	Category Category
	Float    float64
	String   string
	Time     time.Time
}

// Text returns the value of r as text.
func (r Result) Text() string {
	switch r.Category {
	case CategoryFloat:
		return fmt.Sprintf("%g", r.Float)
	case CategoryDateTime:
		return r.Time.Format(DateTimeLayout)
	}
	return r.String
}

// Sink receives results from the dispatcher.
type Sink interface {
	AddFloat(name string, value float64)
	AddString(name, value string)
	AddDateTime(name string, value time.Time)
	AddObject(name, path string)
	Write() error
}

// Writer persists a batch of results.
type Writer interface {
	WriteResults(rs []Result) error
}

// Collector keeps results in insertion order. Names are not de-duplicated.
type Collector struct {
	results []Result
	writers []Writer
}

// NewCollector returns a collector flushing to writers on Write.
func NewCollector(writers ...Writer) *Collector {
	return &Collector{writers: writers}
}

func (c *Collector) AddFloat(name string, value float64) {
	c.results = append(c.results, Result{Name: name, Category: CategoryFloat, Float: value})
}

func (c *Collector) AddString(name, value string) {
	c.results = append(c.results, Result{Name: name, Category: CategoryString, String: value})
}

func (c *Collector) AddDateTime(name string, value time.Time) {
	c.results = append(c.results, Result{Name: name, Category: CategoryDateTime, Time: value})
}

func (c *Collector) AddObject(name, path string) {
	c.results = append(c.results, Result{Name: name, Category: CategoryObject, String: path})
}

// Results returns a copy of the accumulated results.
func (c *Collector) Results() []Result {
	out := make([]Result, len(c.results))
	copy(out, c.results)
	return out
}

// Write flushes all accumulated results to every writer.
func (c *Collector) Write() error {
	for _, w := range c.writers {
		if err := w.WriteResults(c.results); err != nil {
			return err
		}
	}
	return nil
}

var _ Sink = (*Collector)(nil)
