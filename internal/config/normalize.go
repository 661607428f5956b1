package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeVerifier()
	c.normalizePoll()
	c.normalizeTransform()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = ExpandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = ExpandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeVerifier() {
	c.Verifier.BaseURL = strings.TrimRight(strings.TrimSpace(c.Verifier.BaseURL), "/")
	c.Verifier.APIKey = strings.TrimSpace(c.Verifier.APIKey)
	c.Verifier.Mode = strings.ToLower(strings.TrimSpace(c.Verifier.Mode))
	if c.Verifier.Mode == "" {
		c.Verifier.Mode = defaultVerifierMode
	}
	if c.Verifier.TimeoutSeconds <= 0 {
		c.Verifier.TimeoutSeconds = defaultVerifierTimeout
	}
	if v := strings.TrimSpace(os.Getenv(verifierAPIKeyEnv)); v != "" {
		c.Verifier.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv(verifierBaseURLEnv)); v != "" {
		c.Verifier.BaseURL = strings.TrimRight(v, "/")
	}
}

func (c *Config) normalizePoll() {
	if c.Poll.BaseDelaySeconds <= 0 {
		c.Poll.BaseDelaySeconds = defaultPollBaseDelay
	}
	if c.Poll.DelayCapSeconds <= 0 {
		c.Poll.DelayCapSeconds = defaultPollDelayCap
	}
	if c.Poll.MaxWaitSeconds <= 0 {
		c.Poll.MaxWaitSeconds = defaultPollMaxWait
	}
	if c.Poll.MaxConcurrent <= 0 {
		c.Poll.MaxConcurrent = defaultPollMaxConcurrent
	}
}

func (c *Config) normalizeTransform() {
	c.Transform.PrimaryClaim = strings.ToLower(strings.TrimSpace(c.Transform.PrimaryClaim))
	if c.Transform.PrimaryClaim == "" {
		c.Transform.PrimaryClaim = defaultPrimaryClaim
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
