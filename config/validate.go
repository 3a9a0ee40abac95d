package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	c.Model.Name = strings.TrimSpace(c.Model.Name)
	c.Paths.OutputSuffix = strings.TrimSpace(c.Paths.OutputSuffix)
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))

	for _, p := range []*string{&c.Model.Dir, &c.Model.Libonnx, &c.Paths.BaseDir, &c.Paths.OutputDir, &c.Paths.Blacklist, &c.Paths.LogDir} {
		expanded, err := expandPath(strings.TrimSpace(*p))
		if err != nil {
			return err
		}
		*p = expanded
	}

	folders := c.Folders[:0]
	for _, f := range c.Folders {
		if f = strings.Trim(strings.TrimSpace(f), "/\\"); f != "" {
			folders = append(folders, f)
		}
	}
	c.Folders = folders
	return nil
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	var errs []error
	if c.Tagging.Threshold < 0 || c.Tagging.Threshold > 1 {
		errs = append(errs, errors.New("tagging.threshold must be between 0 and 1"))
	}
	if c.Tagging.MaxTags < 1 {
		errs = append(errs, errors.New("tagging.max_tags must be at least 1"))
	}
	if c.Batch.Size < 1 {
		errs = append(errs, errors.New("batch.size must be at least 1"))
	}
	if c.Batch.Workers < 1 {
		errs = append(errs, errors.New("batch.workers must be at least 1"))
	}
	if c.Model.Dir == "" || c.Model.FileName == "" || c.Model.TagsName == "" {
		errs = append(errs, errors.New("model.dir, model.file_name and model.tags_name must be set"))
	}
	if c.Model.ImageSize < 1 {
		errs = append(errs, errors.New("model.image_size must be positive"))
	}
	for i, s := range c.Model.Std {
		if s == 0 {
			errs = append(errs, fmt.Errorf("model.std[%d] must not be zero", i))
		}
	}
	if c.Paths.OutputSuffix == "" {
		errs = append(errs, errors.New("paths.output_suffix must be set"))
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format))
	}
	for i, e := range c.Rules.Exclusions {
		if strings.TrimSpace(e.If) == "" || strings.TrimSpace(e.Drop) == "" {
			errs = append(errs, fmt.Errorf("rules.exclusions[%d]: if and drop must be set", i))
		} else if strings.TrimSpace(e.If) == strings.TrimSpace(e.Drop) {
			errs = append(errs, fmt.Errorf("rules.exclusions[%d]: %q cannot exclude itself", i, e.If))
		}
	}
	for i, cf := range c.Rules.Conflicts {
		if strings.TrimSpace(cf.Tag) == "" || len(cf.With) == 0 {
			errs = append(errs, fmt.Errorf("rules.conflicts[%d]: tag and with must be set", i))
		}
	}
	return errors.Join(errs...)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	return filepath.Clean(pathValue), nil
}
