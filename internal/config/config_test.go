package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGeneralConfigValidate(t *testing.T) {
	gc := &GeneralConfig{HTTPHost: "localhost", HTTPPort: "8080", Env: "prod"}
	require.NoError(t, gc.Validate())

	gc.Env = "qa"
	require.ErrorContains(t, gc.Validate(), "unknown ENV")

	gc.Env = "dev"
	gc.HTTPPort = ""
	require.Error(t, gc.Validate())
}

func TestStorageConfigValidate(t *testing.T) {
	require.NoError(t, (&StorageConfig{}).Validate())
	require.Error(t, (&StorageConfig{InfluxURL: "http://influx:8086"}).Validate())
	require.NoError(t, (&StorageConfig{InfluxURL: "http://influx:8086", InfluxOrg: "org", InfluxBucket: "cycles"}).Validate())
}
