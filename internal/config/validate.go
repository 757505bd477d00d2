package config

import (
	"fmt"
	"strings"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if err := c.Classifier.validate(); err != nil {
		return fmt.Errorf("classifier: %w", err)
	}

	if c.Scheduler.Enabled && strings.TrimSpace(c.Scheduler.SnapshotCron) == "" {
		return fmt.Errorf("scheduler: snapshot_cron must be set when the scheduler is enabled")
	}

	return nil
}

func (c *ClassifierConfig) validate() error {
	switch c.Backend {
	case "http":
		if strings.TrimSpace(c.BaseURL) == "" {
			return fmt.Errorf("base_url must be set for the http backend")
		}
	case "llm":
		if strings.TrimSpace(c.Model) == "" {
			return fmt.Errorf("model must be set for the llm backend")
		}
	default:
		return fmt.Errorf("unknown backend %q (expected http or llm)", c.Backend)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0 (got %v)", c.Timeout)
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("retry_backoff must be >= 0 (got %v)", c.RetryBackoff)
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence_threshold must be in [0,1] (got %v)", c.ConfidenceThreshold)
	}

	return nil
}
