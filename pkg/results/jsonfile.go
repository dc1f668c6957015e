package results

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// JSONFile writes results as a JSON array of {category, name, val} objects.
type JSONFile struct {
	Path string
}

type jsonResult struct {
	Category Category    `json:"category"`
	Name     string      `json:"name"`
	Val      interface{} `json:"val"`
}

// WriteResults replaces the file with rs.
func (j *JSONFile) WriteResults(rs []Result) error {
	out := make([]jsonResult, 0, len(rs))
	for _, r := range rs {
		jr := jsonResult{Category: r.Category, Name: r.Name}
		if r.Category == CategoryFloat {
			// JSON has no NaN or infinity
			if !math.IsNaN(r.Float) && !math.IsInf(r.Float, 0) {
				jr.Val = r.Float
			}
		} else {
			jr.Val = r.Text()
		}
		out = append(out, jr)
	}

	data, err := json.MarshalIndent(out, "", "    ")
	if err != nil {
		return fmt.Errorf("error marshaling results: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(j.Path), 0755); err != nil {
		return fmt.Errorf("error creating results directory: %w", err)
	}
	if err := os.WriteFile(j.Path, data, 0644); err != nil {
		return fmt.Errorf("error writing results file: %w", err)
	}
	return nil
}
