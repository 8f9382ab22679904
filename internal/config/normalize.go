package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeSources(); err != nil {
		return err
	}
	if err := c.normalizeRules(); err != nil {
		return err
	}
	c.normalizeOperator()
	c.normalizeEnrichment()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.Root) == "" {
		c.Paths.Root = defaultRoot
	}
	if c.Paths.Root, err = expandPath(c.Paths.Root); err != nil {
		return fmt.Errorf("paths.root: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = filepath.Join(c.Paths.Root, "state")
	} else if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.StateDir, "logs")
	} else if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.InboxDir) == "" {
		c.Paths.InboxDir = filepath.Join(c.Paths.Root, "inbox")
	} else if c.Paths.InboxDir, err = expandPath(c.Paths.InboxDir); err != nil {
		return fmt.Errorf("paths.inbox_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSources() error {
	var err error
	if c.Sources.CalendarExport, err = expandPath(c.Sources.CalendarExport); err != nil {
		return fmt.Errorf("sources.calendar_export: %w", err)
	}
	if c.Sources.MailExport, err = expandPath(c.Sources.MailExport); err != nil {
		return fmt.Errorf("sources.mail_export: %w", err)
	}
	if c.Sources.EntitiesFile, err = expandPath(c.Sources.EntitiesFile); err != nil {
		return fmt.Errorf("sources.entities_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeRules() error {
	var err error
	if c.Rules.ClassifyFile, err = expandPath(c.Rules.ClassifyFile); err != nil {
		return fmt.Errorf("rules.classify_file: %w", err)
	}
	if c.Rules.PrepFile, err = expandPath(c.Rules.PrepFile); err != nil {
		return fmt.Errorf("rules.prep_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeOperator() {
	c.Operator.Name = strings.TrimSpace(c.Operator.Name)
	c.Operator.Email = strings.ToLower(strings.TrimSpace(c.Operator.Email))
	domains := make([]string, 0, len(c.Operator.InternalDomains))
	for _, domain := range c.Operator.InternalDomains {
		domain = strings.ToLower(strings.TrimSpace(domain))
		if domain != "" {
			domains = append(domains, domain)
		}
	}
	// The operator's own domain is always internal.
	if at := strings.LastIndex(c.Operator.Email, "@"); at >= 0 {
		own := c.Operator.Email[at+1:]
		found := false
		for _, domain := range domains {
			if domain == own {
				found = true
				break
			}
		}
		if !found && own != "" {
			domains = append(domains, own)
		}
	}
	c.Operator.InternalDomains = domains
}

func (c *Config) normalizeEnrichment() {
	c.Enrichment.APIKey = strings.TrimSpace(c.Enrichment.APIKey)
	if strings.TrimSpace(c.Enrichment.BaseURL) == "" {
		c.Enrichment.BaseURL = defaultEnrichmentBaseURL
	}
	if strings.TrimSpace(c.Enrichment.Model) == "" {
		c.Enrichment.Model = defaultEnrichmentModel
	}
	if c.Enrichment.TimeoutSeconds <= 0 {
		c.Enrichment.TimeoutSeconds = defaultEnrichmentTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
