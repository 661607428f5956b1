package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateVerifier(); err != nil {
		return err
	}
	if err := c.validatePoll(); err != nil {
		return err
	}
	if err := c.validateTransform(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateVerifier() error {
	if c.Verifier.BaseURL == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/veracity/config.toml"
		}
		return fmt.Errorf("verifier.base_url is required. Set %s env var or edit %s (create with 'veracity config init')", verifierBaseURLEnv, defaultPath)
	}
	switch c.Verifier.Mode {
	case "summary", "thorough":
	default:
		return fmt.Errorf("verifier.mode must be %q or %q", "summary", "thorough")
	}
	return nil
}

func (c *Config) validatePoll() error {
	if err := ensurePositiveMap(map[string]int{
		"poll.base_delay":     c.Poll.BaseDelaySeconds,
		"poll.delay_cap":      c.Poll.DelayCapSeconds,
		"poll.max_wait":       c.Poll.MaxWaitSeconds,
		"poll.max_concurrent": c.Poll.MaxConcurrent,
	}); err != nil {
		return err
	}
	if c.Poll.DelayCapSeconds < c.Poll.BaseDelaySeconds {
		return errors.New("poll.delay_cap must be at least poll.base_delay")
	}
	if c.Poll.MaxWaitSeconds < c.Poll.BaseDelaySeconds {
		return errors.New("poll.max_wait must be at least poll.base_delay")
	}
	return nil
}

func (c *Config) validateTransform() error {
	switch c.Transform.PrimaryClaim {
	case "first", "confidence":
		return nil
	default:
		return fmt.Errorf("transform.primary_claim must be %q or %q", "first", "confidence")
	}
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be %q or %q", "console", "json")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return errors.New("logging.level must be one of debug, info, warn, error")
	}
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
