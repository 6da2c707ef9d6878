package cli

import (
	"os"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/visualtest/pkg/errors"
	"github.com/matzehuels/visualtest/pkg/renderer"
	"github.com/matzehuels/visualtest/pkg/runner"
	"github.com/matzehuels/visualtest/pkg/sizes"
)

// defaultConfigFile is read from the working directory when --config is
// not given. A missing default file is not an error.
const defaultConfigFile = "visualtest.toml"

// config is the merged run configuration: built-in defaults, then the
// TOML file, then command-line flags.
type config struct {
	StylesDir     string    `toml:"styles_dir"`
	OutputDir     string    `toml:"output_dir"`
	ReferenceDir  string    `toml:"reference_dir"`
	Overwrite     bool      `toml:"overwrite"`
	Jobs          int       `toml:"jobs"`
	Renderers     []string  `toml:"renderers"`
	Sizes         string    `toml:"sizes"`
	Scales        []float64 `toml:"scales"`
	Tiles         string    `toml:"tiles"`
	DefaultStatus bool      `toml:"default_status"`

	Report reportConfig `toml:"report"`
}

// reportConfig selects the report destinations besides the console.
type reportConfig struct {
	JSON            string `toml:"json"`
	JSONLines       string `toml:"jsonl"`
	RedisAddr       string `toml:"redis_addr"`
	RedisKey        string `toml:"redis_key"`
	RedisChannel    string `toml:"redis_channel"`
	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
}

func defaultConfig() config {
	return config{
		StylesDir:     "styles",
		OutputDir:     renderer.DefaultOutputDir,
		ReferenceDir:  renderer.DefaultReferenceDir,
		Jobs:          1,
		Sizes:         "500x100",
		Scales:        slices.Clone(runner.DefaultScales),
		Tiles:         "1x1",
		DefaultStatus: true,
	}
}

// loadConfig decodes path over the defaults. When explicit is false a
// missing file yields the defaults. Unknown keys are rejected.
func loadConfig(path string, explicit bool) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		path = defaultConfigFile
	}
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return defaultConfig(), nil
		}
		if os.IsNotExist(err) {
			return config{}, errors.Wrap(errors.ErrCodeNotFound, err, "config file %s", path)
		}
		return config{}, errors.Wrap(errors.ErrCodeParse, err, "config file %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return config{}, errors.New(errors.ErrCodeInvalidInput, "config file %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// runnerOptions converts the configuration into validated runner options.
func (c config) runnerOptions(logger *log.Logger) (runner.Options, error) {
	for kind, dir := range map[string]string{"styles": c.StylesDir, "output": c.OutputDir, "reference": c.ReferenceDir} {
		if err := errors.ValidateDir(kind, dir); err != nil {
			return runner.Options{}, err
		}
	}

	szs, err := sizes.Parse(c.Sizes)
	if err != nil {
		return runner.Options{}, err
	}
	tiles, err := sizes.ParseTiles(c.Tiles)
	if err != nil {
		return runner.Options{}, err
	}

	var kinds []renderer.Kind
	for _, name := range c.Renderers {
		k, err := renderer.ParseKind(name)
		if err != nil {
			return runner.Options{}, err
		}
		if !slices.Contains(kinds, k) {
			kinds = append(kinds, k)
		}
	}

	opts := runner.Options{
		StylesDir:    c.StylesDir,
		OutputDir:    c.OutputDir,
		ReferenceDir: c.ReferenceDir,
		Overwrite:    c.Overwrite,
		Jobs:         c.Jobs,
		Defaults: runner.Config{
			Sizes:  szs,
			Scales: slices.Clone(c.Scales),
			Tiles:  tiles,
			Status: c.DefaultStatus,
		},
		Kinds:  kinds,
		Logger: logger,
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return runner.Options{}, err
	}
	return opts, nil
}
