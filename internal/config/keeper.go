package config

import (
	"github.com/andrew-solarstorm/go-packages/common"
	"github.com/robfig/cron/v3"
)

type KeeperConfig struct {
	Enabled bool
	// Schedule is a cron spec with a seconds field, e.g. "0 0 */6 * * *".
	Schedule   string
	RunOnStart bool
}

func (c *KeeperConfig) Key() string {
	return KEEPER_CONFIG_KEY
}

func (c *KeeperConfig) Load() error {
	c.Enabled = common.GetEnvOrDefault("KEEPER_ENABLED", "true") == "true"
	c.Schedule = common.GetEnvOrDefault("KEEPER_SCHEDULE", "0 0 */6 * * *")
	c.RunOnStart = common.GetEnvOrDefault("KEEPER_RUN_ON_START", "false") == "true"
	return c.Validate()
}

func (c *KeeperConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	_, err := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor).Parse(c.Schedule)
	return err
}
