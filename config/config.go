package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/krau/tagpipe/rules"
)

//go:embed sample_config.toml
var sampleConfig string

type Model struct {
	Name      string     `toml:"name" yaml:"name"`
	Dir       string     `toml:"dir" yaml:"dir"`
	FileName  string     `toml:"file_name" yaml:"file_name"`
	TagsName  string     `toml:"tags_name" yaml:"tags_name"`
	Libonnx   string     `toml:"libonnx" yaml:"libonnx"`
	ImageSize int        `toml:"image_size" yaml:"image_size"`
	Sigmoid   bool       `toml:"sigmoid" yaml:"sigmoid"`
	CUDA      bool       `toml:"cuda" yaml:"cuda"`
	Mean      [3]float32 `toml:"mean" yaml:"mean"`
	Std       [3]float32 `toml:"std" yaml:"std"`
}

type Tagging struct {
	Threshold             float32 `toml:"threshold" yaml:"threshold"`
	MaxTags               int     `toml:"max_tags" yaml:"max_tags"`
	Categories            []int   `toml:"categories" yaml:"categories"`
	AllowUnknownBlacklist bool    `toml:"allow_unknown_blacklist" yaml:"allow_unknown_blacklist"`
	SynonymGroups         [][]int `toml:"synonym_groups" yaml:"synonym_groups"`
}

type Paths struct {
	BaseDir      string `toml:"base_dir" yaml:"base_dir"`
	OutputDir    string `toml:"output_dir" yaml:"output_dir"`
	OutputSuffix string `toml:"output_suffix" yaml:"output_suffix"`
	Blacklist    string `toml:"blacklist" yaml:"blacklist"`
	LogDir       string `toml:"log_dir" yaml:"log_dir"`
}

type Batch struct {
	Size    int `toml:"size" yaml:"size"`
	Workers int `toml:"workers" yaml:"workers"`
}

type Server struct {
	Token string `toml:"token" yaml:"token"`
	Host  string `toml:"host" yaml:"host"`
	Port  string `toml:"port" yaml:"port"`
}

type Logging struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

type Exclusion struct {
	If   string `toml:"if" yaml:"if"`
	Drop string `toml:"drop" yaml:"drop"`
}

type Conflict struct {
	Tag  string   `toml:"tag" yaml:"tag"`
	With []string `toml:"with" yaml:"with"`
}

// Rules holds consistency rules added on top of the built-in battery.
type Rules struct {
	DisableDefaults bool        `toml:"disable_defaults" yaml:"disable_defaults"`
	Exclusions      []Exclusion `toml:"exclusions" yaml:"exclusions"`
	Conflicts       []Conflict  `toml:"conflicts" yaml:"conflicts"`
}

type Config struct {
	Model   Model    `toml:"model" yaml:"model"`
	Tagging Tagging  `toml:"tagging" yaml:"tagging"`
	Paths   Paths    `toml:"paths" yaml:"paths"`
	Folders []string `toml:"folders" yaml:"folders"`
	Batch   Batch    `toml:"batch" yaml:"batch"`
	Server  Server   `toml:"server" yaml:"server"`
	Logging Logging  `toml:"logging" yaml:"logging"`
	Rules   Rules    `toml:"rules" yaml:"rules"`
}

// DefaultSearchPaths lists the files Load tries, in order, when no path is given.
var DefaultSearchPaths = []string{"tagpipe.toml", "config.toml", "config.yaml", "config.yml"}

// Load reads the configuration at path, or the first existing file of
// DefaultSearchPaths when path is empty. Without any file the defaults are
// used. It returns the resolved path ("" when none was read).
func Load(path string) (*Config, string, error) {
	cfg := Default()

	resolved, err := resolvePath(path)
	if err != nil {
		return nil, "", err
	}
	if resolved != "" {
		if err := decodeFile(resolved, &cfg); err != nil {
			return nil, "", err
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return &cfg, resolved, nil
}

func resolvePath(path string) (string, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("stat config: %w", err)
		}
		return path, nil
	}
	for _, candidate := range DefaultSearchPaths {
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, nil
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("stat config: %w", err)
		}
	}
	return "", nil
}

func decodeFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(file)
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil {
			return fmt.Errorf("parse config: %w", err)
		}
	default:
		dec := toml.NewDecoder(file)
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return fmt.Errorf("parse config: %w", err)
		}
	}
	return nil
}

func (c *Config) ModelPath() string {
	return filepath.Join(c.Model.Dir, c.Model.FileName)
}

func (c *Config) TagsPath() string {
	return filepath.Join(c.Model.Dir, c.Model.TagsName)
}

// OutputPath returns the JSONL file for a folder: <output_dir>/<folder>/<folder>_<suffix>.
func (c *Config) OutputPath(folder string) string {
	return filepath.Join(c.Paths.OutputDir, folder, folder+"_"+c.Paths.OutputSuffix)
}

// LogFile returns the per-model log file, or "" when file logging is off.
func (c *Config) LogFile() string {
	if c.Paths.LogDir == "" {
		return ""
	}
	name := strings.NewReplacer("/", "_", "\\", "_", " ", "_").Replace(c.Model.Name)
	return filepath.Join(c.Paths.LogDir, name+".log")
}

// RuleSet returns the consistency rules: the built-in battery unless disabled,
// followed by the configured extras.
func (c *Config) RuleSet() []rules.Rule {
	var out []rules.Rule
	if !c.Rules.DisableDefaults {
		out = append(out, rules.Default()...)
	}
	for _, e := range c.Rules.Exclusions {
		out = append(out, rules.Exclude{If: e.If, Drop: e.Drop})
	}
	for _, cf := range c.Rules.Conflicts {
		out = append(out, rules.Conflict{Label: "conflict:" + cf.Tag, Tag: cf.Tag, With: cf.With})
	}
	if out == nil {
		out = []rules.Rule{}
	}
	return out
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// CreateSample writes the sample configuration file to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
