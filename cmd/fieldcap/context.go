package main

import (
	"strings"
	"sync"
	"time"

	"fieldcap/internal/config"
	"fieldcap/internal/queue"
	"fieldcap/internal/refdata"
	"fieldcap/internal/remote"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
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
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) withStore(fn func(*config.Config, *queue.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := queue.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(cfg, store)
}

func (c *commandContext) withRefdata(fn func(*config.Config, *refdata.Store, *refdata.Resolver) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := refdata.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	var creator refdata.RemoteCreator
	if strings.TrimSpace(cfg.Remote.BaseURL) != "" {
		creator = remote.NewClient(cfg.Remote.BaseURL, cfg.Remote.APIToken,
			remote.WithTimeout(time.Duration(cfg.Remote.RefDataTimeout)*time.Second))
	}
	resolver := refdata.NewResolver(store, creator, time.Duration(cfg.Remote.RefDataTimeout)*time.Second, nil)
	return fn(cfg, store, resolver)
}
