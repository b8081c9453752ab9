package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/oauth2"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Downloads   DownloadsConfig   `toml:"downloads"`
	History     HistoryConfig     `toml:"history"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials and cached OAuth tokens.
type SpotifyConfig struct {
	ClientID     string    `toml:"client_id"`
	ClientSecret string    `toml:"client_secret"`
	RedirectURI  string    `toml:"redirect_uri"`
	AccessToken  string    `toml:"access_token,omitempty"`
	RefreshToken string    `toml:"refresh_token,omitempty"`
	TokenExpiry  time.Time `toml:"token_expiry,omitempty"`
}

// Map converts the Spotify credentials to the map form consumed by service constructors.
func (s SpotifyConfig) Map() map[string]string {
	return map[string]string{
		"client_id":     s.ClientID,
		"client_secret": s.ClientSecret,
		"redirect_uri":  s.RedirectURI,
		"access_token":  s.AccessToken,
		"refresh_token": s.RefreshToken,
	}
}

// Token returns the cached OAuth tokens as an [oauth2.Token], or nil when no token has been cached.
func (s SpotifyConfig) Token() *oauth2.Token {
	if s.AccessToken == "" && s.RefreshToken == "" {
		return nil
	}
	return &oauth2.Token{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		Expiry:       s.TokenExpiry,
	}
}

// Update stores the given [oauth2.Token] in the config for later persistence via [SaveConfig].
func (s *SpotifyConfig) Update(token *oauth2.Token) error {
	if token == nil {
		return fmt.Errorf("%w: nil token", ErrInvalidArgument)
	}
	s.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		s.RefreshToken = token.RefreshToken
	}
	s.TokenExpiry = token.Expiry
	return nil
}

// DownloadsConfig contains settings for the external audio downloader.
type DownloadsConfig struct {
	Directory    string  `toml:"directory"`
	AudioFormat  string  `toml:"audio_format"`
	AudioQuality string  `toml:"audio_quality"`
	RateLimit    float64 `toml:"rate_limit"`
	YTDLPPath    string  `toml:"yt_dlp_path"`
	FFmpegPath   string  `toml:"ffmpeg_path"`
}

// HistoryConfig contains settings for per-playlist download history files.
type HistoryConfig struct {
	Directory string `toml:"directory"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains settings for the local OAuth callback server.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

// SaveConfig writes the configuration back to the specified path as TOML.
//
// Token values end up in the file, so it is written with owner-only permissions.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	// Check if file already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: config file at %s", os.ErrExist, path)
	}

	// Write the embedded example config to the file
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
