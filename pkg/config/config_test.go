package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, "development", c.Environment)
	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, BackendMySQL, c.Backend.Type)
	assert.Equal(t, "0 0 22 * * 1-5", c.Schedule.PredictCron)
	assert.Equal(t, 5*time.Minute, c.Redis.CacheTTL)

	assert.Equal(t, 25, c.Forest.Trees)
	assert.Equal(t, 5, c.Forest.MinWindow)
	assert.Equal(t, 15, c.Forest.MaxWindow)
	assert.Equal(t, 2.0, c.Forest.HorizonDivisor)
	assert.Equal(t, 10.0, c.Forest.ConfidenceFloor)
	assert.Equal(t, 99.0, c.Forest.ConfidenceCeiling)
	assert.Equal(t, uint64(0), c.Forest.Seed)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
environment: test
backend:
  type: clickhouse
server:
  port: 9090
forest:
  trees: 50
  seed: 42
kafka:
  enabled: true
  brokers: ["k1:9092"]
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "test", c.Environment)
	assert.Equal(t, BackendClickHouse, c.Backend.Type)
	assert.Equal(t, 9090, c.Server.Port)
	assert.Equal(t, 50, c.Forest.Trees)
	assert.Equal(t, uint64(42), c.Forest.Seed)
	// untouched forest fields keep their defaults
	assert.Equal(t, 15, c.Forest.MaxWindow)
	assert.Equal(t, "prediction-events", c.Kafka.EventsTopic)
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"backend": "backend:\n  type: sqlite\n",
		"window":  "forest:\n  min_window: 10\n  max_window: 5\n",
		"kafka":   "kafka:\n  enabled: true\n",
	}
	for name, yml := range cases {
		path := filepath.Join(dir, name+".yaml")
		require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))
		_, err := Load(path)
		assert.Error(t, err, name)
	}

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"DB_HOST":       "db.internal",
		"DB_PORT":       "3307",
		"DB_PASSWORD":   "secret",
		"KAFKA_BROKERS": "a:9092, b:9092,",
		"FOREST_SEED":   "7",
		"BACKEND":       "memory",
	}
	c := Default()
	require.NoError(t, c.ApplyEnv(func(k string) string { return env[k] }))

	assert.Equal(t, "db.internal", c.Database.Host)
	assert.Equal(t, 3307, c.Database.Port)
	assert.Equal(t, []string{"a:9092", "b:9092"}, c.Kafka.Brokers)
	assert.True(t, c.Kafka.Enabled)
	assert.Equal(t, uint64(7), c.Forest.Seed)
	assert.Equal(t, BackendMemory, c.Backend.Type)
	assert.Equal(t, "root:secret@tcp(db.internal:3307)/stock_prediction_db?charset=utf8mb4&parseTime=True&loc=UTC", c.MySQLDSN())

	bad := Default()
	assert.Error(t, bad.ApplyEnv(func(k string) string {
		if k == "DB_PORT" {
			return "x"
		}
		return ""
	}))
}

func TestExampleConfigMatchesDefaults(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "config", "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}
