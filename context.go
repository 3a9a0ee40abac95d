package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"sync"

	"github.com/krau/tagpipe/catalog"
	"github.com/krau/tagpipe/config"
	"github.com/krau/tagpipe/logging"
	"github.com/krau/tagpipe/tagging"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	logger   *slog.Logger
	closeLog func() error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, err := config.Load(path)
		if err != nil {
			c.configErr = fmt.Errorf("load config: %w", err)
			return
		}
		logger, closeLog, err := logging.New(logging.Options{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			File:   cfg.LogFile(),
		})
		if err != nil {
			c.configErr = err
			return
		}
		slog.SetDefault(logger)
		c.config = cfg
		c.configPath = resolved
		c.logger = logger
		c.closeLog = closeLog
	})
	return c.config, c.configErr
}

func (c *commandContext) close() error {
	if c.closeLog == nil {
		return nil
	}
	err := c.closeLog()
	c.closeLog = nil
	return err
}

// loadPipeline reads the catalog and blacklist and builds the tagging pipeline.
// Every configuration inconsistency is reported here, before any image is read.
func (c *commandContext) loadPipeline() (*tagging.Pipeline, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	cat, err := catalog.LoadCSV(cfg.TagsPath())
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	blacklist, err := catalog.LoadBlacklist(cfg.Paths.Blacklist)
	if errors.Is(err, fs.ErrNotExist) {
		c.logger.Warn("Blacklist file not found, continuing without one", slog.String("path", cfg.Paths.Blacklist))
		blacklist, err = catalog.Blacklist{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load blacklist: %w", err)
	}
	p, err := tagging.New(cat.WithCategories(cfg.Tagging.Categories), tagging.Options{
		Threshold:             cfg.Tagging.Threshold,
		MaxTags:               cfg.Tagging.MaxTags,
		SynonymGroups:         cfg.Tagging.SynonymGroups,
		Blacklist:             blacklist,
		AllowUnknownBlacklist: cfg.Tagging.AllowUnknownBlacklist,
		Rules:                 cfg.RuleSet(),
	}, c.logger)
	if err != nil {
		return nil, err
	}
	c.logger.Info("Tagging pipeline ready",
		slog.Int("tags", cat.Len()),
		slog.Int("valid", p.Catalog().ValidCount()),
		slog.Int("synonym_groups", p.Groups().Len()),
		slog.Int("blacklist", len(blacklist)),
		slog.Int("rules", len(p.Engine().Rules())),
	)
	return p, nil
}
