package config

import (
	"os"
	"path/filepath"
	"testing"
)

const wadJSON = `{
    "comment": "WKZ1 normi13",
    "actions": {
        "qc_series": {
            "filters": {},
            "params": {
                "detector_names": "SN152495;Tafel|SN152508;Wand",
                "linepair_type": "typ38",
                "roomname": "WKZ1",
                "tablepidmm": 70,
                "wallpidmm": 50,
                "auto_suffix": true
            }
        },
        "acqdatetime": {
            "filters": {},
            "params": {}
        },
        "header_series": {
            "filters": {}
        }
    }
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

// TestLoadConfigJSON verifies that a WAD style JSON config is read in file order
func TestLoadConfigJSON(t *testing.T) {
	cfg, err := LoadConfig(writeFile(t, "config.json", wadJSON))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Comment != "WKZ1 normi13" {
		t.Errorf("Expected comment %q, got %q", "WKZ1 normi13", cfg.Comment)
	}

	wantOrder := []string{"qc_series", "acqdatetime", "header_series"}
	if len(cfg.Actions) != len(wantOrder) {
		t.Fatalf("Expected %d actions, got %d", len(wantOrder), len(cfg.Actions))
	}
	for i, name := range wantOrder {
		if cfg.Actions[i].Name != name {
			t.Errorf("Expected action %d to be %s, got %s", i, name, cfg.Actions[i].Name)
		}
	}

	qc := cfg.Actions[0].Params
	if qc["tablepidmm"] != "70" {
		t.Errorf("Expected numeric param as text \"70\", got %q", qc["tablepidmm"])
	}
	if qc["auto_suffix"] != "true" {
		t.Errorf("Expected boolean param as text \"true\", got %q", qc["auto_suffix"])
	}

	header, ok := cfg.Find("header_series")
	if !ok {
		t.Fatal("Expected header_series action")
	}
	if header.Params == nil || len(header.Params) != 0 {
		t.Errorf("Expected empty params for action without params, got %v", header.Params)
	}

	// Output defaults survive loading
	if cfg.Output.JPEGQuality != 90 || cfg.Output.ThumbnailSize != 512 || cfg.Output.Dir != "." {
		t.Errorf("Expected default output options, got %+v", cfg.Output)
	}
}

// TestLoadConfigErrors verifies missing and empty configuration files are rejected
func TestLoadConfigErrors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Expected error for missing file")
	}
	if _, err := LoadConfig(writeFile(t, "empty.yaml", "comment: nothing\n")); err == nil {
		t.Error("Expected error for config without actions")
	}
	if _, err := LoadConfig(writeFile(t, "bad.yaml", "actions: [1, 2]\n")); err == nil {
		t.Error("Expected error for malformed actions")
	}
}

// TestCreateDefaultConfigFile verifies the example file can be loaded back
func TestCreateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := CreateDefaultConfigFile(path); err != nil {
		t.Fatalf("CreateDefaultConfigFile failed: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	example := ExampleConfig()
	if len(cfg.Actions) != len(example.Actions) {
		t.Fatalf("Expected %d actions, got %d", len(example.Actions), len(cfg.Actions))
	}
	for i := range example.Actions {
		if cfg.Actions[i].Name != example.Actions[i].Name {
			t.Errorf("Expected action %s at %d, got %s", example.Actions[i].Name, i, cfg.Actions[i].Name)
		}
	}
	qc, _ := cfg.Find("qc_series")
	if qc.Params["xymm0.6"] != "-108.5;3.8" {
		t.Errorf("Expected marker param to survive, got %q", qc.Params["xymm0.6"])
	}
}
