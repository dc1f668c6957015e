package results

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryWriter struct {
	batches [][]Result
}

func (m *memoryWriter) WriteResults(rs []Result) error {
	m.batches = append(m.batches, append([]Result(nil), rs...))
	return nil
}

func fill(c *Collector) {
	c.AddString("pluginversion", "1.0.0")
	c.AddFloat("kVp", 70)
	c.AddFloat("kVp", 71)
	c.AddDateTime("AcquisitionDateTime", time.Date(2017, 8, 28, 10, 15, 30, 0, time.UTC))
	c.AddObject("normi13", "/tmp/normi13.jpg")
}

func TestCollectorKeepsOrderAndDuplicates(t *testing.T) {
	w := &memoryWriter{}
	c := NewCollector(w)
	fill(c)

	require.NoError(t, c.Write())
	require.Len(t, w.batches, 1)

	names := make([]string, 0, len(w.batches[0]))
	for _, r := range w.batches[0] {
		names = append(names, r.Name)
	}
	want := []string{"pluginversion", "kVp", "kVp", "AcquisitionDateTime", "normi13"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("result order mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, c.Results(), w.batches[0])
}

func TestResultText(t *testing.T) {
	assert.Equal(t, "70", Result{Category: CategoryFloat, Float: 70}.Text())
	assert.Equal(t, "0.25", Result{Category: CategoryFloat, Float: 0.25}.Text())
	assert.Equal(t, "2017-08-28 10:15:30", Result{Category: CategoryDateTime, Time: time.Date(2017, 8, 28, 10, 15, 30, 0, time.UTC)}.Text())
	assert.Equal(t, "abc", Result{Category: CategoryString, String: "abc"}.Text())
}

func TestJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "results.json")
	c := NewCollector(&JSONFile{Path: path})
	fill(c)
	c.AddFloat("broken", math.NaN())
	require.NoError(t, c.Write())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got []map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 6)

	assert.Equal(t, map[string]interface{}{"category": "string", "name": "pluginversion", "val": "1.0.0"}, got[0])
	assert.Equal(t, map[string]interface{}{"category": "float", "name": "kVp", "val": 70.0}, got[1])
	assert.Equal(t, "2017-08-28 10:15:30", got[3]["val"])
	assert.Equal(t, "object", got[4]["category"])
	assert.Nil(t, got[5]["val"])
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db", "results.sqlite")
	store, err := OpenSQLite(path, "study1")
	require.NoError(t, err)
	defer store.Close()

	c := NewCollector()
	fill(c)

	runID, err := store.SaveRun(c.Results())
	require.NoError(t, err)
	assert.NotEmpty(t, runID)

	got, err := store.Run(runID)
	require.NoError(t, err)
	if diff := cmp.Diff(c.Results(), got); diff != "" {
		t.Errorf("stored results mismatch (-want +got):\n%s", diff)
	}

	other, err := store.SaveRun(c.Results()[:1])
	require.NoError(t, err)
	assert.NotEqual(t, runID, other)
}

func TestSQLiteStoreReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.sqlite")

	store, err := OpenSQLite(path, "")
	require.NoError(t, err)
	c := NewCollector(store)
	c.AddFloat("num_slices", 5)
	require.NoError(t, c.Write())
	require.NoError(t, store.Close())

	// migrations are already applied on the second open
	store, err = OpenSQLite(path, "")
	require.NoError(t, err)
	defer store.Close()
}
