package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("GEMINI_API_KEY", "gemini-key")
	t.Setenv("PLAYLIST_ID", "PL123")
	t.Setenv("GITHUB_TOKEN", "gh-token")
	t.Setenv("GITHUB_REPOSITORY", "octo/digest")
	t.Setenv("YOUTUBE_API_KEY", "")
	t.Setenv("SCHEDULE", "")
}

func TestLoadFromEnvironmentOnly(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Playlist.ID != "PL123" {
		t.Errorf("Playlist.ID = %s, want PL123", cfg.Playlist.ID)
	}
	if cfg.GitHub.Owner() != "octo" || cfg.GitHub.Name() != "digest" {
		t.Errorf("repository split = %s/%s, want octo/digest", cfg.GitHub.Owner(), cfg.GitHub.Name())
	}
	if cfg.AI.Model != "gemini-2.5-flash" {
		t.Errorf("AI.Model = %s, want gemini-2.5-flash", cfg.AI.Model)
	}
	if cfg.Playlist.MaxVideos != 5 {
		t.Errorf("Playlist.MaxVideos = %d, want 5", cfg.Playlist.MaxVideos)
	}
	wantLangs := []string{"en", "en-US", "en-GB"}
	if !reflect.DeepEqual(cfg.Transcript.Languages, wantLangs) {
		t.Errorf("Transcript.Languages = %v, want %v", cfg.Transcript.Languages, wantLangs)
	}
	if cfg.GitHub.TitlePrefix != "Weekly Digest" {
		t.Errorf("GitHub.TitlePrefix = %s, want Weekly Digest", cfg.GitHub.TitlePrefix)
	}
	if cfg.Schedule != "0 0 9 * * 1" {
		t.Errorf("Schedule = %s, want weekly default", cfg.Schedule)
	}
	if cfg.Monitoring.HealthPort != 8080 {
		t.Errorf("Monitoring.HealthPort = %d, want 8080", cfg.Monitoring.HealthPort)
	}
}

func TestLoadFromFile(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("PLAYLIST_ID", "PL-from-env")

	configFile := filepath.Join(t.TempDir(), "digest.yaml")
	content := `
playlist:
  id: PL-from-file
  max_videos: 3
transcript:
  languages: [en, de]
ai:
  model: gemini-2.0-flash
github:
  title_prefix: Digest
  labels: [digest, automated]
schedule: "0 30 8 * * *"
`
	if err := os.WriteFile(configFile, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	t.Setenv("CONFIG_FILE", configFile)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Playlist.ID != "PL-from-file" {
		t.Errorf("Playlist.ID = %s, file value should win over environment", cfg.Playlist.ID)
	}
	if cfg.Playlist.MaxVideos != 3 {
		t.Errorf("Playlist.MaxVideos = %d, want 3", cfg.Playlist.MaxVideos)
	}
	if !reflect.DeepEqual(cfg.Transcript.Languages, []string{"en", "de"}) {
		t.Errorf("Transcript.Languages = %v", cfg.Transcript.Languages)
	}
	if cfg.AI.Model != "gemini-2.0-flash" {
		t.Errorf("AI.Model = %s", cfg.AI.Model)
	}
	if cfg.GitHub.Token != "gh-token" {
		t.Errorf("GitHub.Token = %s, want value from environment", cfg.GitHub.Token)
	}
	if !reflect.DeepEqual(cfg.GitHub.Labels, []string{"digest", "automated"}) {
		t.Errorf("GitHub.Labels = %v", cfg.GitHub.Labels)
	}
	if cfg.Schedule != "0 30 8 * * *" {
		t.Errorf("Schedule = %s", cfg.Schedule)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "Missing Gemini key",
			env:     map[string]string{"GEMINI_API_KEY": ""},
			wantErr: "Gemini API key is required",
		},
		{
			name:    "Missing playlist",
			env:     map[string]string{"PLAYLIST_ID": ""},
			wantErr: "playlist ID is required",
		},
		{
			name:    "Missing token",
			env:     map[string]string{"GITHUB_TOKEN": ""},
			wantErr: "GitHub token is required",
		},
		{
			name:    "Missing repository",
			env:     map[string]string{"GITHUB_REPOSITORY": ""},
			wantErr: "GitHub repository is required",
		},
		{
			name:    "Malformed repository",
			env:     map[string]string{"GITHUB_REPOSITORY": "just-a-name"},
			wantErr: "owner/name",
		},
		{
			name:    "Too many slashes",
			env:     map[string]string{"GITHUB_REPOSITORY": "a/b/c"},
			wantErr: "owner/name",
		},
		{
			name:    "Explicit config file missing",
			env:     map[string]string{"CONFIG_FILE": filepath.Join(os.TempDir(), "does-not-exist-digest.yaml")},
			wantErr: "failed to read config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBaseEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	setBaseEnv(t)

	configFile := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(configFile, []byte("playlist: [unclosed"), 0600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	t.Setenv("CONFIG_FILE", configFile)

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
		t.Errorf("Load() error = %v, want parse error", err)
	}
}

func TestLoadFileIgnoresConfigFileEnv(t *testing.T) {
	setBaseEnv(t)

	dir := t.TempDir()
	envFile := filepath.Join(dir, "env.yaml")
	flagFile := filepath.Join(dir, "flag.yaml")
	if err := os.WriteFile(envFile, []byte("playlist:\n  id: PL-from-env-file\n"), 0600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	if err := os.WriteFile(flagFile, []byte("playlist:\n  id: PL-from-flag-file\n"), 0600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	t.Setenv("CONFIG_FILE", envFile)

	cfg, err := LoadFile(flagFile)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.Playlist.ID != "PL-from-flag-file" {
		t.Errorf("Playlist.ID = %s, want value from the given path", cfg.Playlist.ID)
	}
	if got := os.Getenv("CONFIG_FILE"); got != envFile {
		t.Errorf("CONFIG_FILE = %s, LoadFile must not modify the environment", got)
	}
}

func TestLoadFileMissingPath(t *testing.T) {
	setBaseEnv(t)

	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil || !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("LoadFile() error = %v, want read error for explicit path", err)
	}
}
