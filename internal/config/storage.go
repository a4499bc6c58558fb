package config

import (
	"errors"

	"github.com/andrew-solarstorm/go-packages/common"
)

type StorageConfig struct {
	// DBPath is the path to the BoltDB file holding the ledger.
	// Default: "./data/compound-engine.db"
	DBPath string

	// Compound cycles are written to InfluxDB when InfluxURL is set.
	InfluxURL    string
	InfluxToken  string
	InfluxOrg    string
	InfluxBucket string
}

func (c *StorageConfig) Key() string {
	return STORAGE_CONFIG_KEY
}

func (c *StorageConfig) Load() error {
	c.DBPath = common.GetEnvOrDefault("LEDGER_DB_PATH", "./data/compound-engine.db")
	c.InfluxURL = common.GetEnvOrDefault("INFLUX_URL", "")
	c.InfluxToken = common.GetEnvOrDefault("INFLUX_TOKEN", "")
	c.InfluxOrg = common.GetEnvOrDefault("INFLUX_ORG", "")
	c.InfluxBucket = common.GetEnvOrDefault("INFLUX_BUCKET", "compound-cycles")
	return c.Validate()
}

func (c *StorageConfig) Validate() error {
	if c.InfluxURL != "" && (c.InfluxOrg == "" || c.InfluxBucket == "") {
		return errors.New("INFLUX_ORG and INFLUX_BUCKET are required with INFLUX_URL")
	}
	return nil
}
