package cli

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/visualtest/pkg/errors"
	"github.com/matzehuels/visualtest/pkg/renderer"
	"github.com/matzehuels/visualtest/pkg/sizes"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "visualtest.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
styles_dir = "test/visual/styles"
jobs = 8
renderers = ["agg", "svg"]
sizes = "256x256, 512x128"
scales = [1, 1.5]
default_status = false

[report]
json = "out/report.json"
redis_addr = "localhost:6379"
`)

	cfg, err := loadConfig(path, true)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.StylesDir != "test/visual/styles" || cfg.Jobs != 8 || cfg.DefaultStatus {
		t.Errorf("cfg = %+v", cfg)
	}
	if !slices.Equal(cfg.Renderers, []string{"agg", "svg"}) || !slices.Equal(cfg.Scales, []float64{1, 1.5}) {
		t.Errorf("renderers = %v, scales = %v", cfg.Renderers, cfg.Scales)
	}
	if cfg.Report.JSON != "out/report.json" || cfg.Report.RedisAddr != "localhost:6379" {
		t.Errorf("report = %+v", cfg.Report)
	}
	// Keys absent from the file keep their defaults.
	if cfg.OutputDir != renderer.DefaultOutputDir || cfg.Tiles != "1x1" {
		t.Errorf("defaults lost: output_dir = %q, tiles = %q", cfg.OutputDir, cfg.Tiles)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.toml")

	cfg, err := loadConfig(missing, false)
	if err != nil {
		t.Fatalf("implicit missing config should fall back to defaults: %v", err)
	}
	if cfg.Jobs != 1 || cfg.Sizes != "500x100" || !cfg.DefaultStatus {
		t.Errorf("defaults = %+v", cfg)
	}

	tests := []struct {
		name string
		path string
		code errors.Code
	}{
		{"explicit missing", missing, errors.ErrCodeNotFound},
		{"syntax", writeConfig(t, "jobs = = 2"), errors.ErrCodeParse},
		{"wrong type", writeConfig(t, `jobs = "many"`), errors.ErrCodeParse},
		{"unknown key", writeConfig(t, "job = 2"), errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig(tt.path, true)
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("code = %v, want %v (err: %v)", got, tt.code, err)
			}
		})
	}
}

func TestRunnerOptions(t *testing.T) {
	logger := log.New(os.Stderr)

	cfg := defaultConfig()
	cfg.StylesDir = t.TempDir()
	cfg.Jobs = 3
	cfg.Sizes = "100x50,200x100"
	cfg.Tiles = "1x1,2x2"
	cfg.Renderers = []string{"svg", "agg", "svg"}
	cfg.DefaultStatus = false

	opts, err := cfg.runnerOptions(logger)
	if err != nil {
		t.Fatalf("runnerOptions: %v", err)
	}
	if opts.Jobs != 3 || opts.Logger != logger || opts.Defaults.Status {
		t.Errorf("opts = %+v", opts)
	}
	if !slices.Equal(opts.Defaults.Sizes, []sizes.Size{{Width: 100, Height: 50}, {Width: 200, Height: 100}}) {
		t.Errorf("sizes = %v", opts.Defaults.Sizes)
	}
	if len(opts.Defaults.Tiles) != 2 || opts.Defaults.Tiles[1] != (sizes.TileGrid{Width: 2, Height: 2}) {
		t.Errorf("tiles = %v", opts.Defaults.Tiles)
	}
	if !slices.Equal(opts.Kinds, []renderer.Kind{renderer.KindSVG, renderer.KindAGG}) {
		t.Errorf("kinds = %v", opts.Kinds)
	}
	if len(opts.Renderers) != 2 {
		t.Errorf("renderers = %d, want 2", len(opts.Renderers))
	}
}

func TestRunnerOptionsErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*config)
		code   errors.Code
	}{
		{"empty styles dir", func(c *config) { c.StylesDir = "" }, errors.ErrCodeInvalidPath},
		{"bad sizes", func(c *config) { c.Sizes = "100x" }, errors.ErrCodeParse},
		{"bad tiles", func(c *config) { c.Tiles = "two" }, errors.ErrCodeParse},
		{"unknown renderer", func(c *config) { c.Renderers = []string{"cairo"} }, errors.ErrCodeInvalidInput},
		{"negative scale", func(c *config) { c.Scales = []float64{-1} }, errors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.StylesDir = t.TempDir()
			tt.modify(&cfg)
			_, err := cfg.runnerOptions(nil)
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("code = %v, want %v (err: %v)", got, tt.code, err)
			}
		})
	}
}

func TestRunFlagsOverrideConfig(t *testing.T) {
	var flags runFlags
	cmd := &cobra.Command{Use: "run"}
	flags.register(cmd)
	if err := cmd.ParseFlags([]string{"-j", "4", "--scales", "1.5,3", "--renderer", "agg", "--renderer", "grid", "--json", "r.json"}); err != nil {
		t.Fatal(err)
	}

	cfg := defaultConfig()
	cfg.StylesDir = "from-config"
	cfg.Overwrite = true
	if err := flags.apply(cmd, &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Jobs != 4 || !slices.Equal(cfg.Scales, []float64{1.5, 3}) || cfg.Report.JSON != "r.json" {
		t.Errorf("cfg = %+v", cfg)
	}
	if !slices.Equal(cfg.Renderers, []string{"agg", "grid"}) {
		t.Errorf("renderers = %v", cfg.Renderers)
	}
	if cfg.StylesDir != "from-config" || !cfg.Overwrite {
		t.Errorf("unset flags overrode config: %+v", cfg)
	}
}

func TestRunFlagsBadScales(t *testing.T) {
	var flags runFlags
	cmd := &cobra.Command{Use: "run"}
	flags.register(cmd)
	if err := cmd.ParseFlags([]string{"--scales", "0"}); err != nil {
		t.Fatal(err)
	}
	cfg := defaultConfig()
	if err := flags.apply(cmd, &cfg); !errors.Is(err, errors.ErrCodeParse) {
		t.Errorf("err = %v, want PARSE_ERROR", err)
	}
}

func TestDisplayModes(t *testing.T) {
	tests := []struct {
		flags   runFlags
		want    displayMode
		wantErr bool
	}{
		{runFlags{}, displayFull, false},
		{runFlags{short: true}, displayShort, false},
		{runFlags{quiet: true}, displayQuiet, false},
		{runFlags{tui: true}, displayTUI, false},
		{runFlags{short: true, tui: true}, displayFull, true},
	}
	for _, tt := range tests {
		got, err := tt.flags.display()
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("display(%+v) = %v, %v", tt.flags, got, err)
		}
	}
}
