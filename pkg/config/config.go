// Package config provides configuration loading and management for normi13qc.
// It handles loading the module configuration (YAML or JSON) and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"normi13qc/pkg/params"
)

// Config represents the module configuration: the ordered list of actions
// plus runtime output options.
type Config struct {
	// Comment is free text carried along by the configuration file
	Comment string `yaml:"comment,omitempty"`

	// Actions lists the analyses to run, in file order
	Actions Actions `yaml:"actions"`

	// Output parameters
	Output struct {
		// Dir is the directory receiving annotated thumbnails
		Dir string `yaml:"dir"`

		// ThumbnailSize is the maximum edge length of a thumbnail in pixels
		ThumbnailSize int `yaml:"thumbnailSize"`

		// JPEGQuality is the JPEG encoding quality of thumbnails
		JPEGQuality int `yaml:"jpegQuality"`
	} `yaml:"output"`
}

// Action is one configured analysis.
type Action struct {
	Name    string
	Filters map[string]interface{}
	Params  params.Params
}

type actionBody struct {
	Filters map[string]interface{} `yaml:"filters"`
	Params  params.Params          `yaml:"params"`
}

// Actions keeps configured actions in the order they appear in the file.
type Actions []Action

// UnmarshalYAML decodes the actions mapping without losing its key order.
func (a *Actions) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("actions must be a mapping, got line %d", node.Line)
	}
	out := make(Actions, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var body actionBody
		if err := node.Content[i+1].Decode(&body); err != nil {
			return fmt.Errorf("action %s: %w", node.Content[i].Value, err)
		}
		if body.Params == nil {
			body.Params = params.Params{}
		}
		out = append(out, Action{
			Name:    node.Content[i].Value,
			Filters: body.Filters,
			Params:  body.Params,
		})
	}
	*a = out
	return nil
}

// MarshalYAML encodes the actions as a mapping in slice order.
func (a Actions) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, act := range a {
		filters := act.Filters
		if filters == nil {
			filters = map[string]interface{}{}
		}
		var body yaml.Node
		if err := body.Encode(struct {
			Filters map[string]interface{} `yaml:"filters"`
			Params  map[string]string      `yaml:"params"`
		}{filters, act.Params}); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: act.Name},
			&body,
		)
	}
	return node, nil
}

// Find returns the action with the given name.
func (c *Config) Find(name string) (Action, bool) {
	for _, a := range c.Actions {
		if a.Name == name {
			return a, true
		}
	}
	return Action{}, false
}

// DefaultConfig returns a configuration with default values and no actions
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default output parameters
	cfg.Output.Dir = "."
	cfg.Output.ThumbnailSize = 512
	cfg.Output.JPEGQuality = 90

	return cfg
}

// ExampleConfig returns the default configuration with one action of every kind
func ExampleConfig() *Config {
	cfg := DefaultConfig()
	cfg.Comment = "Normi13 QC for a digital radiography room"

	room := params.Params{
		"roomname":       "WKZ1",
		"linepair_type":  "typ38",
		"tablepidmm":     "70",
		"wallpidmm":      "50",
		"detector_names": "SN152495;Tafel|SN152508;Wand",
		"xymm0.6":        "-108.5;3.8",
		"xymm1.4":        "-87.9;24.2",
		"xymm1.8":        "-81.3;-27.3",
		"xymm4.6":        "-56.2;-2.2",
	}
	cfg.Actions = Actions{
		{Name: "acqdatetime", Params: params.Params{}},
		{Name: "header_series", Params: room},
		{Name: "qc_series", Params: room},
		{Name: "uniformity_series", Params: room},
	}
	return cfg
}

// LoadConfig loads configuration from a YAML or JSON file
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML; JSON documents parse as YAML too
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if len(cfg.Actions) == 0 {
		return nil, fmt.Errorf("config file %s defines no actions", configPath)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates an example configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(ExampleConfig(), configPath)
}
