package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"reelforge/internal/config"
	"reelforge/internal/jobs"
	"reelforge/internal/logging"
)

const defaultEnvFile = ".env"

type commandContext struct {
	configFlag  *string
	envFileFlag *string

	envOnce sync.Once
	envErr  error

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(configFlag, envFileFlag *string) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		envFileFlag: envFileFlag,
	}
}

// loadEnv applies the environment file before configuration is read so the
// REELFORGE_* and GOOGLE_APPLICATION_CREDENTIALS overrides can live there.
// Variables already set in the process environment win.
func (c *commandContext) loadEnv() error {
	c.envOnce.Do(func() {
		var path string
		if c.envFileFlag != nil {
			path = strings.TrimSpace(*c.envFileFlag)
		}
		if path == "" {
			if _, err := os.Stat(defaultEnvFile); err != nil {
				return
			}
			path = defaultEnvFile
		}
		if err := godotenv.Load(path); err != nil {
			c.envErr = fmt.Errorf("load env file %s: %w", path, err)
		}
	})
	return c.envErr
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

func (c *commandContext) withStore(fn func(*config.Config, *jobs.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := jobs.Open(cfg)
	if err != nil {
		return fmt.Errorf("open jobs store: %w", err)
	}
	defer store.Close()
	return fn(cfg, store)
}

// newLogger writes to stderr and the main log file so command output on
// stdout stays parseable.
func (c *commandContext) newLogger(cfg *config.Config, level string) (*slog.Logger, error) {
	if level == "" {
		level = cfg.Logging.Level
	}
	outputs := []string{"stderr"}
	if cfg.Paths.LogDir != "" {
		outputs = append(outputs, filepath.Join(cfg.Paths.LogDir, logging.MainLogName))
	}
	return logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      outputs,
		ErrorOutputPaths: outputs,
	})
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

var errJobsFailed = errors.New("one or more jobs failed")
