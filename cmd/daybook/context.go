package main

import (
	"log/slog"
	"strings"
	"sync"

	"daybook/internal/config"
	"daybook/internal/logging"
	"daybook/internal/pipeline"
	"daybook/internal/resolver"
)

// commandContext shares the lazily-loaded config and logger between
// subcommands so each command builds at most one controller.
type commandContext struct {
	configFlag         *string
	nonInteractiveFlag *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string, nonInteractiveFlag *bool) *commandContext {
	return &commandContext{
		configFlag:         configFlag,
		nonInteractiveFlag: nonInteractiveFlag,
	}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) resolver() resolver.Interactive {
	if c.nonInteractiveFlag != nil && *c.nonInteractiveFlag {
		return resolver.Batch{}
	}
	return resolver.NewTerminal()
}

// newController builds the pipeline controller; callers must Close it.
func (c *commandContext) newController() (*pipeline.Controller, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return pipeline.New(pipeline.Deps{
		Config:   cfg,
		Logger:   logger,
		Resolver: c.resolver(),
	})
}
