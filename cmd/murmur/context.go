package main

import (
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"murmur/internal/config"
	"murmur/internal/logging"
	"murmur/internal/models"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil {
			if level := strings.TrimSpace(*c.logLevelFlag); level != "" {
				cfg.Logging.Level = strings.ToLower(level)
			}
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configSeen = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// ensureLogger builds the application logger once and prunes old log files.
func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.loggerErr = err
			return
		}
		logging.CleanupOldFiles(logger, cfg.Logging.RetentionDays, time.Now(), logging.RetentionTarget{
			Dir:     cfg.Paths.LogDir,
			Pattern: "murmur*.log*",
			Exclude: []string{filepath.Join(cfg.Paths.LogDir, logging.LogFileName)},
		})
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) catalog() (*models.Catalog, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	catalog := models.NewCatalog(cfg.Paths.ModelsDir, cfg.Models.BaseURL)
	if err := catalog.LoadOverrides(cfg.Models.CatalogFile); err != nil {
		return nil, err
	}
	return catalog, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
