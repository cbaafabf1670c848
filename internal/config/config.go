package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"fediwall/internal/pipeline"
	"fediwall/internal/storage"
)

// EnvPrefix is prepended to every environment variable, e.g. FEDIWALL_SERVERS.
const EnvPrefix = "FEDIWALL"

// Config holds all configuration for the application.
// Values are read by viper from a config file or environment variables.
// List values given through the environment are comma separated.
type Config struct {
	Servers  []string `mapstructure:"SERVERS"`
	Tags     []string `mapstructure:"TAGS"`
	Accounts []string `mapstructure:"ACCOUNTS"`
	Limit    int      `mapstructure:"LIMIT"`
	// Interval is the refresh period of the watch command, in seconds.
	Interval int `mapstructure:"INTERVAL"`

	LoadPublic    bool `mapstructure:"LOAD_PUBLIC"`
	LoadFederated bool `mapstructure:"LOAD_FEDERATED"`
	LoadTrends    bool `mapstructure:"LOAD_TRENDS"`

	Languages []string `mapstructure:"LANGUAGES"`
	BadWords  []string `mapstructure:"BAD_WORDS"`

	HideSensitive bool `mapstructure:"HIDE_SENSITIVE"`
	HideBoosts    bool `mapstructure:"HIDE_BOOSTS"`
	HideReplies   bool `mapstructure:"HIDE_REPLIES"`
	HideBots      bool `mapstructure:"HIDE_BOTS"`

	ShowText   bool `mapstructure:"SHOW_TEXT"`
	ShowMedia  bool `mapstructure:"SHOW_MEDIA"`
	PlayVideos bool `mapstructure:"PLAY_VIDEOS"`

	TelegramBotToken string `mapstructure:"TELEGRAM_BOT_TOKEN"`
	BotMaxPosts      int    `mapstructure:"BOT_MAX_POSTS"`

	// CacheBackend selects the account cache: "memory" or "badger".
	CacheBackend string `mapstructure:"CACHE_BACKEND"`
	// BadgerDBPath keeps the badger cache on disk. Empty runs it in memory.
	BadgerDBPath string `mapstructure:"BADGERDB_PATH"`

	LogLevel     string        `mapstructure:"LOG_LEVEL"`
	MetricsAddr  string        `mapstructure:"METRICS_ADDR"`
	CycleTimeout time.Duration `mapstructure:"CYCLE_TIMEOUT"`
	TaskJitter   time.Duration `mapstructure:"TASK_JITTER"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVERS", []string{"mastodon.social"})
	v.SetDefault("TAGS", []string{"foss", "cats", "dogs"})
	v.SetDefault("ACCOUNTS", []string{})
	v.SetDefault("LIMIT", 20)
	v.SetDefault("INTERVAL", 10)
	v.SetDefault("LOAD_PUBLIC", false)
	v.SetDefault("LOAD_FEDERATED", false)
	v.SetDefault("LOAD_TRENDS", false)
	v.SetDefault("LANGUAGES", []string{})
	v.SetDefault("BAD_WORDS", []string{})
	v.SetDefault("HIDE_SENSITIVE", false)
	v.SetDefault("HIDE_BOOSTS", false)
	v.SetDefault("HIDE_REPLIES", false)
	v.SetDefault("HIDE_BOTS", false)
	v.SetDefault("SHOW_TEXT", true)
	v.SetDefault("SHOW_MEDIA", true)
	v.SetDefault("PLAY_VIDEOS", true)
	v.SetDefault("TELEGRAM_BOT_TOKEN", "")
	v.SetDefault("BOT_MAX_POSTS", 5)
	v.SetDefault("CACHE_BACKEND", storage.BackendMemory)
	v.SetDefault("BADGERDB_PATH", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("METRICS_ADDR", "")
	v.SetDefault("CYCLE_TIMEOUT", time.Duration(0))
	v.SetDefault("TASK_JITTER", pipeline.DefaultTaskJitter)
}

// LoadConfig reads configuration from config.yaml in path, or from the file
// itself when path names one, then overlays environment variables.
// A missing config file is not an error.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	setDefaults(v)

	if path != "" && isFile(path) {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if path == "" {
			path = "."
		}
		v.AddConfigPath(path)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if _, err = logrus.ParseLevel(config.LogLevel); err != nil {
		return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	switch config.CacheBackend {
	case storage.BackendMemory, storage.BackendBadger:
	default:
		return Config{}, fmt.Errorf("unknown CACHE_BACKEND %q", config.CacheBackend)
	}
	if config.BotMaxPosts < 1 {
		config.BotMaxPosts = 1
	}

	return config, nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
