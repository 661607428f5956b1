package main

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"veracity/internal/api"
	"veracity/internal/config"
)

type commandContext struct {
	apiFlag    *string
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(apiFlag, configFlag *string) *commandContext {
	return &commandContext{
		apiFlag:    apiFlag,
		configFlag: configFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) apiAddress() (string, string, error) {
	if c.apiFlag != nil && strings.TrimSpace(*c.apiFlag) != "" {
		token := ""
		if cfg, err := c.ensureConfig(); err == nil && cfg != nil {
			token = cfg.Paths.APIToken
		}
		return strings.TrimSpace(*c.apiFlag), token, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return "", "", err
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return "", "", errors.New("api_bind is not configured; set it in the config file or pass --api")
	}
	return bind, cfg.Paths.APIToken, nil
}

func (c *commandContext) withClient(fn func(*api.Client) error) error {
	address, token, err := c.apiAddress()
	if err != nil {
		return err
	}
	if err := fn(api.NewClient(address, token)); err != nil {
		return wrapAPIError(err, address)
	}
	return nil
}

func wrapAPIError(err error, address string) error {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return fmt.Errorf("connect to daemon at %s: connection refused; start the daemon with `veracity daemon`", address)
	}
	return err
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
