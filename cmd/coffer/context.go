package main

import (
	"strings"
	"sync"

	"coffer/internal/config"
)

type commandContext struct {
	configFlag   *string
	walletFlag   *string
	passwordFlag *string
	offlineFlag  *bool

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(configFlag, walletFlag, passwordFlag *string, offlineFlag *bool) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		walletFlag:   walletFlag,
		passwordFlag: passwordFlag,
		offlineFlag:  offlineFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolvedPath, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolvedPath
	})
	return c.config, c.configErr
}

func (c *commandContext) walletPath() string {
	if c.walletFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.walletFlag)
}

func (c *commandContext) password() string {
	if c.passwordFlag == nil {
		return ""
	}
	return *c.passwordFlag
}

func (c *commandContext) offline() bool {
	return c.offlineFlag != nil && *c.offlineFlag
}
