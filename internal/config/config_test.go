package config

import (
    "testing"
    "time"

    "github.com/alicebob/miniredis/v2"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "go.uber.org/zap"

    "github.com/iliyamo/tutoring-schedule/internal/model"
    "github.com/iliyamo/tutoring-schedule/internal/schedule"
)

func setMemoryEnv(t *testing.T) {
    t.Helper()
    t.Setenv("APP_PORT", "8080")
    t.Setenv("JWT_SECRET", "secret")
    t.Setenv("STORE_DRIVER", "memory")
}

func TestFromEnvDefaults(t *testing.T) {
    setMemoryEnv(t)

    cfg, err := FromEnv()

    require.NoError(t, err)
    assert.Equal(t, "development", cfg.Env)
    assert.Equal(t, DriverMemory, cfg.StoreDriver)
    assert.Equal(t, schedule.DefaultGridConfig, cfg.Grid)
    assert.Equal(t, 50*time.Millisecond, cfg.StoreRetryDelay)
    assert.Equal(t, 24*time.Hour, cfg.GenerationInterval)
    assert.Equal(t, "logs/schedule.log", cfg.AuditLogPath)
    assert.False(t, cfg.EventsEnabled)
}

func TestFromEnvOverrides(t *testing.T) {
    setMemoryEnv(t)
    t.Setenv("GRID_PERIOD_MINUTES", "45")
    t.Setenv("GRID_DAY_START", "07:30")
    t.Setenv("GRID_DAY_END", "21:00")
    t.Setenv("GENERATION_ENABLED", "true")
    t.Setenv("GENERATION_BRANCHES", "1, 4")
    t.Setenv("RABBITMQ_URL", "amqp://broker:5672/")

    cfg, err := FromEnv()

    require.NoError(t, err)
    assert.Equal(t, 45, cfg.Grid.PeriodMinutes)
    assert.Equal(t, model.MustTimeOfDay("07:30"), cfg.Grid.DayStart)
    assert.Equal(t, model.MustTimeOfDay("21:00"), cfg.Grid.DayEnd)
    assert.Equal(t, []int64{1, 4}, cfg.GenerationBranches)
    assert.Equal(t, "amqp://broker:5672/", cfg.RabbitURL)
}

func TestFromEnvMySQLRequiresDatabase(t *testing.T) {
    t.Setenv("APP_PORT", "8080")
    t.Setenv("JWT_SECRET", "secret")
    t.Setenv("STORE_DRIVER", "mysql")
    t.Setenv("DB_USER", "")
    t.Setenv("DB_HOST", "")
    t.Setenv("DB_PORT", "")
    t.Setenv("DB_NAME", "")

    _, err := FromEnv()

    require.Error(t, err)
    for _, key := range []string{"DB_USER", "DB_HOST", "DB_PORT", "DB_NAME"} {
        assert.Contains(t, err.Error(), key)
    }
}

func TestFromEnvReportsEveryProblem(t *testing.T) {
    t.Setenv("APP_PORT", "")
    t.Setenv("JWT_SECRET", "")
    t.Setenv("STORE_DRIVER", "sqlite")
    t.Setenv("GRID_DAY_START", "25:00")
    t.Setenv("GENERATION_BRANCHES", "1,x")

    _, err := FromEnv()

    require.Error(t, err)
    msg := err.Error()
    assert.Contains(t, msg, "APP_PORT")
    assert.Contains(t, msg, "JWT_SECRET")
    assert.Contains(t, msg, `unknown STORE_DRIVER "sqlite"`)
    assert.Contains(t, msg, "GRID_DAY_START")
    assert.Contains(t, msg, "GENERATION_BRANCHES")
}

func TestFromEnvRejectsEmptyGrid(t *testing.T) {
    setMemoryEnv(t)
    t.Setenv("GRID_DAY_START", "18:00")
    t.Setenv("GRID_DAY_END", "08:00")

    _, err := FromEnv()

    assert.ErrorIs(t, err, schedule.ErrInvalidGridConfig)
}

func TestGenerationNeedsBranches(t *testing.T) {
    setMemoryEnv(t)
    t.Setenv("GENERATION_ENABLED", "1")
    t.Setenv("GENERATION_BRANCHES", "")

    _, err := FromEnv()

    assert.ErrorContains(t, err, "GENERATION_BRANCHES")
}

func TestRateLimitConfigClamps(t *testing.T) {
    t.Setenv("RATE_LIMIT_CAPACITY", "0")
    t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
    t.Setenv("RATE_LIMIT_TTL", "1s")

    cfg := LoadRateLimitConfig()

    assert.Equal(t, 1, cfg.Capacity)
    assert.Equal(t, 10*time.Second, cfg.TTL)
    assert.Equal(t, "user_route", cfg.KeyStrategy)
}

func TestCacheConfigMethods(t *testing.T) {
    t.Setenv("CACHE_METHODS", "get, head")

    cfg := LoadCacheConfig()

    assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, cfg.Methods)
}

func TestNewRedisClient(t *testing.T) {
    mr := miniredis.RunT(t)

    addr := mr.Addr()
    client := NewRedisClient(RedisConfig{Addr: addr}, zap.NewNop())
    require.NotNil(t, client)
    t.Cleanup(func() { _ = client.Close() })

    mr.Close()
    assert.Nil(t, NewRedisClient(RedisConfig{Addr: addr}, zap.NewNop()))
}
