package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)

	c := GenerateDefault(dir)
	c.Analysis.Passes = []string{"nvassume", "redwidth", "minreg"}
	c.Analysis.Workers = 4
	c.Report.Format = "json"
	c.Assume.Ranges = []AssumeRange{{Name: "my.lane", Min: 0, Max: 31}}
	if err := c.Save(path); err != nil {
		t.Fatal(err)
	}

	got, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, c) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, c)
	}
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(path, []byte("[log]\nlevel = \"debug\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	c, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Log.Level != "debug" {
		t.Errorf("level = %q", c.Log.Level)
	}
	if c.Report.Format != "text" || len(c.Analysis.Passes) != 1 || c.Analysis.Passes[0] != "minreg" {
		t.Errorf("defaults lost: %+v", c)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"format", func(c *Config) { c.Report.Format = "xml" }},
		{"workers", func(c *Config) { c.Analysis.Workers = -1 }},
		{"width", func(c *Config) { c.Narrow.Widths = []int{64} }},
		{"range", func(c *Config) { c.Assume.Ranges = []AssumeRange{{Name: "x", Min: 2, Max: 1}} }},
	}
	for _, tt := range tests {
		c := Default()
		tt.mutate(c)
		if c.Validate() == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
	if err := Default().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestFindConfigFile(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	if got := FindConfigFile(sub); got != "" {
		t.Errorf("unexpected config %s", got)
	}
	if err := Default().Save(filepath.Join(root, ConfigFileName)); err != nil {
		t.Fatal(err)
	}
	want, _ := filepath.Abs(filepath.Join(root, ConfigFileName))
	if got := FindConfigFile(sub); got != want {
		t.Errorf("FindConfigFile = %q, want %q", got, want)
	}
}
