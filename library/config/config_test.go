package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLoad(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_HOST", "db")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_ADDRS", "k1:9092,k2:9092")

	cfg, err := Load(WithLogLevel(zapcore.WarnLevel), WithWriteTimeout(time.Minute))
	require.NoError(t, err)
	require.Equal(t, DriverPostgres, cfg.Database.Driver)
	require.Equal(t, "db", cfg.Database.Postgres.Host)
	require.Equal(t, "5432", cfg.Database.Postgres.Port)
	require.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Addrs)
	require.True(t, cfg.Kafka.Enabled)
	require.Equal(t, zapcore.WarnLevel, cfg.Log.LogLevel)
	require.Equal(t, time.Minute, cfg.Server.WriteTimeout)
	require.Equal(t, "8080", cfg.Server.Port)
	require.Equal(t, 10, cfg.CB.RecordLength)
}

func TestLoad_UnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")

	_, err := Load()
	require.Error(t, err)
}
