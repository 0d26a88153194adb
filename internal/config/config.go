package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	DataDir   string          `yaml:"data_dir"`
	Series    SeriesConfig    `yaml:"series"`
	Publish   PublishConfig   `yaml:"publish"`
	Extractor ExtractorConfig `yaml:"extractor"`
	Research  ResearchConfig  `yaml:"research"`
	Log       LogConfig       `yaml:"log"`
}

type SeriesConfig struct {
	Articles        int    `yaml:"articles"`
	WordsPerArticle int    `yaml:"words_per_article"`
	Style           string `yaml:"style"`
}

type PublishConfig struct {
	Platform       string        `yaml:"platform"`
	MaxAttempts    int           `yaml:"max_attempts"`
	BaseDelayMS    int           `yaml:"base_delay_ms"`
	TimeoutSeconds int           `yaml:"timeout_seconds"`
	B4A            B4AConfig     `yaml:"b4a"`
	Breaker        BreakerConfig `yaml:"breaker"`
}

type B4AConfig struct {
	Node   string `yaml:"node"`
	Script string `yaml:"script"`
}

type BreakerConfig struct {
	ConsecutiveFailures int `yaml:"consecutive_failures"`
	OpenSeconds         int `yaml:"open_seconds"`
}

type ExtractorConfig struct {
	Strategy           string   `yaml:"strategy"`
	FallbackStrategies []string `yaml:"fallback_strategies"`
	Cookie             string   `yaml:"cookie,omitempty"`
	Token              string   `yaml:"token,omitempty"`
	ProxyURL           string   `yaml:"proxy_url,omitempty"`
	UserAgent          string   `yaml:"user_agent"`
	TimeoutSeconds     int      `yaml:"timeout_seconds"`
	MaxAttempts        int      `yaml:"max_attempts"`
	BaseDelayMS        int      `yaml:"base_delay_ms"`
	OutputDir          string   `yaml:"output_dir"`
	ErrorLogFile       string   `yaml:"error_log_file"`
	RateLimitMS        int      `yaml:"rate_limit_ms"`
}

type ResearchConfig struct {
	Feeds          []string `yaml:"feeds"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
	MaxHits        int      `yaml:"max_hits"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		DataDir: filepath.Join(Dir(), "series"),
		Series: SeriesConfig{
			Articles:        10,
			WordsPerArticle: 3500,
			Style:           "soul-scribe-c",
		},
		Publish: PublishConfig{
			Platform:       "b4a",
			MaxAttempts:    3,
			BaseDelayMS:    2000,
			TimeoutSeconds: 30,
			B4A: B4AConfig{
				Node:   "node",
				Script: filepath.Join(home, ".claude", "skills", "slash-b4a", "scripts", "rewrite.js"),
			},
			Breaker: BreakerConfig{
				ConsecutiveFailures: 5,
				OpenSeconds:         60,
			},
		},
		Extractor: ExtractorConfig{
			Strategy:           "cookie",
			FallbackStrategies: []string{"cookie", "playwright", "proxy", "manual"},
			UserAgent:          "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) MicroMessenger/8.0",
			TimeoutSeconds:     30,
			MaxAttempts:        2,
			BaseDelayMS:        1000,
			OutputDir:          filepath.Join(".", "data", "wechat_articles"),
			ErrorLogFile:       filepath.Join(".", "logs", "wechat_crawler_errors.log"),
			RateLimitMS:        2000,
		},
		Research: ResearchConfig{
			Feeds: []string{
				"https://www.anthropic.com/rss.xml",
				"https://hnrss.org/frontpage",
				"https://blog.golang.org/feed.atom",
			},
			TimeoutSeconds: 15,
			MaxHits:        10,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func Dir() string {
	if dir := os.Getenv("SERIESGEN_HOME"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".seriesgen")
}

// HistoryDBPath is the SQLite file recording publish and extraction attempts.
func HistoryDBPath() string {
	return filepath.Join(Dir(), "history.db")
}

func Path() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Load reads path, or the default location when path is empty. A missing
// file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = Path()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(cfg *Config) error {
	return SaveTo("", cfg)
}

// SaveTo writes cfg to path, or the default location when path is empty.
func SaveTo(path string, cfg *Config) error {
	if path == "" {
		path = Path()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
