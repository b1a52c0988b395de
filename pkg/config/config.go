package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

const (
	minPeriods = 1
	maxPeriods = 12
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	CORS        CORSConfig
	Log         LogConfig
	Timetable   TimetableConfig
	Scheduler   SchedulerConfig
	Persistence PersistenceConfig
	Export      ExportConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// TimetableConfig describes the initial weekly grid layout.
type TimetableConfig struct {
	Days         []string
	Periods      int
	Cohorts      []string
	SeedDefaults bool
}

// SchedulerConfig holds the time budgets of the automatic scheduler passes.
type SchedulerConfig struct {
	StrictBudget  time.Duration
	RelaxedBudget time.Duration
	FinalBudget   time.Duration
	Seed          int64
}

// PersistenceConfig toggles postgres-backed timetable snapshots.
type PersistenceConfig struct {
	Enabled bool
}

// ExportConfig governs export rendering caches.
type ExportConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{Secret: v.GetString("JWT_SECRET")}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Timetable = TimetableConfig{
		Days:         splitAndTrim(v.GetString("TIMETABLE_DAYS")),
		Periods:      clampPeriods(v.GetInt("TIMETABLE_PERIODS")),
		Cohorts:      splitAndTrim(v.GetString("TIMETABLE_COHORTS")),
		SeedDefaults: v.GetBool("SEED_DEFAULTS"),
	}

	cfg.Scheduler = SchedulerConfig{
		StrictBudget:  parseDuration(v.GetString("SCHEDULER_STRICT_BUDGET"), 2*time.Second),
		RelaxedBudget: parseDuration(v.GetString("SCHEDULER_RELAXED_BUDGET"), 2*time.Second),
		FinalBudget:   parseDuration(v.GetString("SCHEDULER_FINAL_BUDGET"), time.Second),
		Seed:          v.GetInt64("SCHEDULER_SEED"),
	}

	cfg.Persistence = PersistenceConfig{Enabled: v.GetBool("ENABLE_PERSISTENCE")}

	cfg.Export = ExportConfig{
		CacheEnabled: v.GetBool("ENABLE_EXPORT_CACHE"),
		CacheTTL:     parseDuration(v.GetString("EXPORT_CACHE_TTL"), 10*time.Minute),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "sma_timetable")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("TIMETABLE_DAYS", "Mon,Tue,Wed,Thu,Fri")
	v.SetDefault("TIMETABLE_PERIODS", 5)
	v.SetDefault("TIMETABLE_COHORTS", "Y7,Y8,Y9,Y10,Y11,LSU,SF")
	v.SetDefault("SEED_DEFAULTS", true)

	v.SetDefault("SCHEDULER_STRICT_BUDGET", "2s")
	v.SetDefault("SCHEDULER_RELAXED_BUDGET", "2s")
	v.SetDefault("SCHEDULER_FINAL_BUDGET", "1s")
	v.SetDefault("SCHEDULER_SEED", 0)

	v.SetDefault("ENABLE_PERSISTENCE", false)
	v.SetDefault("ENABLE_EXPORT_CACHE", false)
	v.SetDefault("EXPORT_CACHE_TTL", "10m")
}

// clampPeriods mirrors the settings form: 1..12 periods, 5 when unset.
func clampPeriods(value int) int {
	if value == 0 {
		return 5
	}
	if value < minPeriods {
		return minPeriods
	}
	if value > maxPeriods {
		return maxPeriods
	}
	return value
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
