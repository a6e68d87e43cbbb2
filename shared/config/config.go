package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultConfigFile = "config.yaml"

type Config struct {
	Playlist   PlaylistConfig   `yaml:"playlist"`
	Transcript TranscriptConfig `yaml:"transcript"`
	AI         AIConfig         `yaml:"ai"`
	GitHub     GitHubConfig     `yaml:"github"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Schedule   string           `yaml:"schedule" env:"SCHEDULE"`
}

type PlaylistConfig struct {
	ID            string `yaml:"id" env:"PLAYLIST_ID"`
	FeedURL       string `yaml:"feed_url"`
	MaxVideos     int    `yaml:"max_videos"`
	YouTubeAPIKey string `yaml:"youtube_api_key" env:"YOUTUBE_API_KEY"`
}

type TranscriptConfig struct {
	// Languages lists the preferred caption languages, most preferred first.
	Languages []string `yaml:"languages"`
}

type AIConfig struct {
	GeminiAPIKey string `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	Model        string `yaml:"model"`
	BaseURL      string `yaml:"base_url"`
}

type GitHubConfig struct {
	Token       string   `yaml:"token" env:"GITHUB_TOKEN"`
	Repository  string   `yaml:"repository" env:"GITHUB_REPOSITORY"`
	TitlePrefix string   `yaml:"title_prefix"`
	Labels      []string `yaml:"labels"`
	BaseURL     string   `yaml:"base_url"`
}

type MonitoringConfig struct {
	HealthPort int `yaml:"health_port"`
}

// Owner returns the owner half of the "owner/name" repository.
func (g GitHubConfig) Owner() string {
	owner, _, _ := strings.Cut(g.Repository, "/")
	return owner
}

// Name returns the name half of the "owner/name" repository.
func (g GitHubConfig) Name() string {
	_, name, _ := strings.Cut(g.Repository, "/")
	return name
}

// Load reads the file named by CONFIG_FILE, or config.yaml when it is unset.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return load(os.Getenv("CONFIG_FILE"))
}

// LoadFile reads configuration from path. An empty path behaves like Load
// without consulting CONFIG_FILE.
func LoadFile(path string) (*Config, error) {
	_ = godotenv.Load()
	return load(path)
}

func load(configFile string) (*Config, error) {
	explicit := configFile != ""
	if !explicit {
		configFile = defaultConfigFile
	}

	var cfg Config
	data, err := os.ReadFile(configFile)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// Environment-only operation
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyEnv() {
	if c.Playlist.ID == "" {
		c.Playlist.ID = os.Getenv("PLAYLIST_ID")
	}
	if c.Playlist.YouTubeAPIKey == "" {
		c.Playlist.YouTubeAPIKey = os.Getenv("YOUTUBE_API_KEY")
	}
	if c.AI.GeminiAPIKey == "" {
		c.AI.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.GitHub.Token == "" {
		c.GitHub.Token = os.Getenv("GITHUB_TOKEN")
	}
	if c.GitHub.Repository == "" {
		c.GitHub.Repository = os.Getenv("GITHUB_REPOSITORY")
	}
	if c.Schedule == "" {
		c.Schedule = os.Getenv("SCHEDULE")
	}
}

func (c *Config) applyDefaults() {
	if c.Playlist.FeedURL == "" {
		c.Playlist.FeedURL = "https://www.youtube.com/feeds/videos.xml"
	}
	if c.Playlist.MaxVideos <= 0 {
		c.Playlist.MaxVideos = 5
	}
	if len(c.Transcript.Languages) == 0 {
		c.Transcript.Languages = []string{"en", "en-US", "en-GB"}
	}
	if c.AI.Model == "" {
		c.AI.Model = "gemini-2.5-flash"
	}
	if c.GitHub.TitlePrefix == "" {
		c.GitHub.TitlePrefix = "Weekly Digest"
	}
	if c.Monitoring.HealthPort == 0 {
		c.Monitoring.HealthPort = 8080
	}
	if c.Schedule == "" {
		c.Schedule = "0 0 9 * * 1" // Mondays at 9 AM
	}
}

func (c *Config) validate() error {
	if c.AI.GeminiAPIKey == "" {
		return fmt.Errorf("Gemini API key is required (set GEMINI_API_KEY or ai.gemini_api_key)")
	}
	if c.Playlist.ID == "" {
		return fmt.Errorf("playlist ID is required (set PLAYLIST_ID or playlist.id)")
	}
	if c.GitHub.Token == "" {
		return fmt.Errorf("GitHub token is required (set GITHUB_TOKEN or github.token)")
	}
	if c.GitHub.Repository == "" {
		return fmt.Errorf("GitHub repository is required (set GITHUB_REPOSITORY or github.repository)")
	}
	if c.GitHub.Owner() == "" || c.GitHub.Name() == "" || strings.Count(c.GitHub.Repository, "/") != 1 {
		return fmt.Errorf("GitHub repository must be in owner/name form, got %q", c.GitHub.Repository)
	}
	return nil
}
