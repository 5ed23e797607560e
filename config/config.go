package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Reddit        RedditConfig        `toml:"reddit"`
	Cities        map[string]string   `toml:"cities"`
	Collection    CollectionConfig    `toml:"collection"`
	Sentiment     SentimentConfig     `toml:"sentiment"`
	Storage       StorageConfig       `toml:"storage"`
	Server        ServerConfig        `toml:"server"`
	Notifications NotificationsConfig `toml:"notifications"`
}

type RedditConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	UserAgent    string `toml:"user_agent"`
}

type CollectionConfig struct {
	MaxPostsPerFetch   int     `toml:"max_posts_per_fetch"`
	TimeFilter         string  `toml:"time_filter"` // hour, day, week, month, year, all
	FetchComments      bool    `toml:"fetch_comments"`
	MaxCommentsPerPost int     `toml:"max_comments_per_post"`
	CommentSort        string  `toml:"comment_sort"` // top | new | best | controversial
	MinCommentLength   int     `toml:"min_comment_length"`
	MinTextLength      int     `toml:"min_text_length"`
	IntervalHours      float64 `toml:"interval_hours"`
}

type SentimentConfig struct {
	VeryPositiveThreshold float64 `toml:"very_positive_threshold"`
	VeryNegativeThreshold float64 `toml:"very_negative_threshold"`
}

type StorageConfig struct {
	SaveLocation string `toml:"save_location"`
}

type ServerConfig struct {
	Host string `toml:"host"`
	Port string `toml:"port"`
}

type NotificationsConfig struct {
	Enabled          bool   `toml:"enabled"`
	NotifyOnCycle    bool   `toml:"notify_on_cycle"`
	DiscordWebhook   string `toml:"discord_webhook"`
	TelegramBotToken string `toml:"telegram_bot_token"`
	TelegramChatID   string `toml:"telegram_chat_id"`
}

var validTimeFilters = map[string]bool{
	"hour": true, "day": true, "week": true,
	"month": true, "year": true, "all": true,
}

func GetConfigPath() string {
	currentDirConfig := "config.toml"
	if _, err := os.Stat(currentDirConfig); err == nil {
		return currentDirConfig
	}
	return filepath.Join(GetConfigDir(), "config.toml")
}

func GetConfigDir() string {
	var configDir string
	var err error

	if runtime.GOOS == "darwin" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			log.Fatal(err)
		}
		configDir = filepath.Join(homeDir, ".config")
	} else {
		configDir, err = os.UserConfigDir()
		if err != nil {
			log.Fatal(err)
		}
	}

	return filepath.Join(configDir, "citymood")
}

// CreateDefaultConfig returns the configuration used when no config file exists.
func CreateDefaultConfig() *Config {
	saveLocation := "./data"
	if home, err := os.UserHomeDir(); err == nil {
		saveLocation = filepath.Join(home, "citymood")
	}

	return &Config{
		Reddit: RedditConfig{
			UserAgent: "citymood/0.1",
		},
		Cities: map[string]string{
			"Gurgaon":  "gurgaon",
			"New York": "nyc",
			"Paris":    "paris",
			"Delhi":    "delhi",
			"Tokyo":    "tokyo",
		},
		Collection: CollectionConfig{
			MaxPostsPerFetch:   100,
			TimeFilter:         "week",
			FetchComments:      true,
			MaxCommentsPerPost: 50,
			CommentSort:        "top",
			MinCommentLength:   10,
			MinTextLength:      10,
			IntervalHours:      6.0,
		},
		Sentiment: SentimentConfig{
			VeryPositiveThreshold: 0.6,
			VeryNegativeThreshold: -0.6,
		},
		Storage: StorageConfig{
			SaveLocation: saveLocation,
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: "8080",
		},
		Notifications: NotificationsConfig{
			NotifyOnCycle: true,
		},
	}
}

func EnsureConfigExists(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(CreateDefaultConfig()); err != nil {
		return fmt.Errorf("failed to write default config: %w", err)
	}

	log.Printf("Created default config at %s", configPath)
	return nil
}

func LoadConfig(configPath string) (*Config, error) {
	cfg := CreateDefaultConfig()
	if _, err := toml.DecodeFile(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnvOverrides lets credentials and scheduling knobs come from the
// environment so deployments never need secrets in the config file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("REDDIT_CLIENT_ID"); v != "" {
		cfg.Reddit.ClientID = v
	}
	if v := os.Getenv("REDDIT_CLIENT_SECRET"); v != "" {
		cfg.Reddit.ClientSecret = v
	}
	if v := os.Getenv("REDDIT_USER_AGENT"); v != "" {
		cfg.Reddit.UserAgent = v
	}
	if v := os.Getenv("FETCH_COMMENTS"); v != "" {
		cfg.Collection.FetchComments = parseBool(v)
	}
	if v := os.Getenv("COLLECTION_INTERVAL_HOURS"); v != "" {
		if hours, err := strconv.ParseFloat(v, 64); err == nil && hours > 0 {
			cfg.Collection.IntervalHours = hours
		}
	}
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}

func (c *Config) Validate() error {
	if c.Reddit.ClientID == "" {
		return fmt.Errorf("reddit client_id not configured (config file or REDDIT_CLIENT_ID)")
	}
	if c.Reddit.ClientSecret == "" {
		return fmt.Errorf("reddit client_secret not configured (config file or REDDIT_CLIENT_SECRET)")
	}
	if c.Reddit.UserAgent == "" {
		return fmt.Errorf("reddit user_agent not configured")
	}
	if len(c.Cities) == 0 {
		return fmt.Errorf("no cities configured")
	}
	if !validTimeFilters[c.Collection.TimeFilter] {
		return fmt.Errorf("invalid time_filter %q (want hour, day, week, month, year or all)", c.Collection.TimeFilter)
	}
	if c.Collection.MaxPostsPerFetch <= 0 {
		return fmt.Errorf("max_posts_per_fetch must be positive")
	}
	if c.Collection.MaxCommentsPerPost <= 0 {
		return fmt.Errorf("max_comments_per_post must be positive")
	}
	if c.Collection.IntervalHours <= 0 {
		return fmt.Errorf("interval_hours must be positive")
	}
	return nil
}

// Interval converts the configured fractional hours to a duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.Collection.IntervalHours * float64(time.Hour))
}

// DatabasePath is where the sqlite file lives inside the save location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Storage.SaveLocation, "citymood.db")
}
