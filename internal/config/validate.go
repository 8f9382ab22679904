package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateOperator(); err != nil {
		return err
	}
	if err := c.validateLookAhead(); err != nil {
		return err
	}
	if err := c.validateActions(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateOperator() error {
	if c.Operator.Email == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/daybook/config.toml"
		}
		return fmt.Errorf("operator.email is required. Edit %s (create with 'daybook config init')", defaultPath)
	}
	if !strings.Contains(c.Operator.Email, "@") {
		return fmt.Errorf("operator.email %q is not an email address", c.Operator.Email)
	}
	return nil
}

func (c *Config) validateLookAhead() error {
	if c.LookAhead.BusinessDays < 1 || c.LookAhead.BusinessDays > 30 {
		return errors.New("look_ahead.business_days must be between 1 and 30")
	}
	if c.LookAhead.MinDescriptionChars < 0 {
		return errors.New("look_ahead.min_description_chars must not be negative")
	}
	return nil
}

func (c *Config) validateActions() error {
	if strings.TrimSpace(c.Actions.MasterFile) == "" {
		return errors.New("actions.master_file must be set")
	}
	if c.Actions.StaleAfterDays < 0 {
		return errors.New("actions.stale_after_days must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
