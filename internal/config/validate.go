package config

import "fmt"

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateOrganize(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateOrganize() error {
	if c.Organize.Workers < 1 {
		return fmt.Errorf("organize.workers must be at least 1, got %d", c.Organize.Workers)
	}
	if c.Organize.ProgressInterval < 1 {
		return fmt.Errorf("organize.progress_interval must be at least 1, got %d", c.Organize.ProgressInterval)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
