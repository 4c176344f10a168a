/* config.go
 * Loads the application configuration from a .env file and the environment
 */

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"bootcamp-grader/api/browser"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env      string
	HTTPAddr string

	Log     LogConfig
	Mongo   MongoConfig
	Redis   RedisConfig
	Discord DiscordConfig
	TMDB    TMDBConfig
	Browser browser.Config
	Stage1  StageConfig
	Stage2  StageConfig
}

type LogConfig struct {
	Level  string
	Format string
}

type MongoConfig struct {
	URI      string
	Database string
}

// RedisConfig configures the batch lock. An empty Addr keeps the lock in process.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	LockTTL  time.Duration
}

// DiscordConfig configures the operator bot. An empty Token disables the bot.
type DiscordConfig struct {
	Token  string
	Prefix string
}

// TMDBConfig configures the movie catalog used as reference data by the listing stage
type TMDBConfig struct {
	BaseURL string
	Token   string
	RPS     float64
}

type StageConfig struct {
	PassMark    int
	Concurrency int
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
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Env:      strings.ToLower(v.GetString("APP_ENV")),
		HTTPAddr: v.GetString("HTTP_ADDR"),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Mongo = MongoConfig{
		URI:      v.GetString("MONGO_URI"),
		Database: v.GetString("MONGO_DB"),
	}

	cfg.Redis = RedisConfig{
		Addr:     v.GetString("REDIS_ADDR"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
		LockTTL:  parseDuration(v.GetString("REDIS_LOCK_TTL"), 2*time.Hour),
	}

	cfg.Discord = DiscordConfig{
		Token:  v.GetString("DISCORD_TOKEN"),
		Prefix: v.GetString("DISCORD_PREFIX"),
	}

	cfg.TMDB = TMDBConfig{
		BaseURL: v.GetString("TMDB_BASE_URL"),
		Token:   v.GetString("TMDB_TOKEN"),
		RPS:     v.GetFloat64("TMDB_RPS"),
	}

	cfg.Browser = browser.Config{
		ExecPath:    v.GetString("BROWSER_PATH"),
		Headless:    v.GetBool("BROWSER_HEADLESS"),
		UserAgent:   v.GetString("BROWSER_USER_AGENT"),
		Timeout:     parseDuration(v.GetString("BROWSER_TIMEOUT"), 120*time.Second),
		SettleDelay: parseDuration(v.GetString("BROWSER_SETTLE"), time.Second),
	}

	cfg.Stage1 = StageConfig{
		PassMark:    v.GetInt("STAGE1_PASS_MARK"),
		Concurrency: v.GetInt("STAGE1_CONCURRENCY"),
	}
	cfg.Stage2 = StageConfig{
		PassMark:    v.GetInt("STAGE2_PASS_MARK"),
		Concurrency: v.GetInt("STAGE2_CONCURRENCY"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.Env != EnvDevelopment && c.Env != EnvProduction {
		errs = append(errs, fmt.Errorf("APP_ENV must be %s or %s, got %q", EnvDevelopment, EnvProduction, c.Env))
	}
	if strings.TrimSpace(c.Mongo.Database) == "" {
		errs = append(errs, errors.New("MONGO_DB is required"))
	}
	if c.Stage1.Concurrency <= 0 || c.Stage2.Concurrency <= 0 {
		errs = append(errs, errors.New("stage concurrency must be positive"))
	}
	if c.TMDB.RPS <= 0 {
		errs = append(errs, errors.New("TMDB_RPS must be positive"))
	}
	return errors.Join(errs...)
}

// IsProduction reports whether the app runs with production settings
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", EnvDevelopment)
	v.SetDefault("HTTP_ADDR", ":8080")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DB", "bootcamp_grader")

	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_LOCK_TTL", "2h")

	v.SetDefault("DISCORD_TOKEN", "")
	v.SetDefault("DISCORD_PREFIX", "$")

	v.SetDefault("TMDB_BASE_URL", "https://api.themoviedb.org/3")
	v.SetDefault("TMDB_TOKEN", "")
	v.SetDefault("TMDB_RPS", 4)

	v.SetDefault("BROWSER_PATH", "")
	v.SetDefault("BROWSER_HEADLESS", true)
	v.SetDefault("BROWSER_USER_AGENT", "")
	v.SetDefault("BROWSER_TIMEOUT", "120s")
	v.SetDefault("BROWSER_SETTLE", "1s")

	v.SetDefault("STAGE1_PASS_MARK", 6)
	v.SetDefault("STAGE1_CONCURRENCY", 50)
	v.SetDefault("STAGE2_PASS_MARK", 6)
	v.SetDefault("STAGE2_CONCURRENCY", 30)
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
