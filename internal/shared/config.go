package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Backlog     BacklogConfig     `toml:"backlog"`
	Downloads   DownloadsConfig   `toml:"downloads"`
	Intervals   IntervalsConfig   `toml:"intervals"`
	History     HistoryConfig     `toml:"history"`
	Server      ServerConfig      `toml:"server"`
}

// CredentialsConfig contains per-account credentials.
type CredentialsConfig struct {
	Listening   ListeningConfig   `toml:"listening"`
	Downloading DownloadingConfig `toml:"downloading"`
}

// ListeningConfig contains the Spotify Web API credentials of the account being watched.
type ListeningConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RefreshToken string `toml:"refresh_token"`
	RedirectURI  string `toml:"redirect_uri"`
}

// Map converts the listening credentials into the map form consumed by services.
func (l ListeningConfig) Map() map[string]string {
	return map[string]string{
		"client_id":     l.ClientID,
		"client_secret": l.ClientSecret,
		"refresh_token": l.RefreshToken,
		"redirect_uri":  l.RedirectURI,
	}
}

// DownloadingConfig contains the credentials of the account used by the download tool.
type DownloadingConfig struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// BacklogConfig locates the persisted backlog document.
type BacklogConfig struct {
	Path string `toml:"path"`
}

// DownloadsConfig controls the external download tool invocation.
type DownloadsConfig struct {
	Root        string `toml:"root"`
	Command     string `toml:"command"`
	Format      string `toml:"format"`
	MaxPerRun   int    `toml:"max_per_run"`
	MaxAttempts int    `toml:"max_attempts"` // 0 = retry forever
}

// IntervalsConfig holds the two loop intervals in seconds.
type IntervalsConfig struct {
	ListenCheck     int `toml:"listen_check"`
	DownloadProcess int `toml:"download_process"`
}

// HistoryConfig contains download history database settings.
type HistoryConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains the local OAuth callback server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path,
// then applies environment variable overrides.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.ApplyEnv()
	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	config.ApplyEnv()
	return &config
}

// SaveConfig writes the configuration back to disk as TOML.
func SaveConfig(path string, config *Config) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overlays the environment variables used by containerized deployments
// onto the configuration. Unset variables leave the file values untouched.
func (c *Config) ApplyEnv() {
	setString(&c.Credentials.Listening.ClientID, "LISTENING_CLIENT_ID")
	setString(&c.Credentials.Listening.ClientSecret, "LISTENING_CLIENT_SECRET")
	setString(&c.Credentials.Listening.RefreshToken, "LISTENING_REFRESH_TOKEN")
	setString(&c.Credentials.Downloading.Username, "DOWNLOAD_USERNAME")
	setString(&c.Credentials.Downloading.Password, "DOWNLOAD_PASSWORD")
	setString(&c.Downloads.Root, "DOWNLOAD_FOLDER")
	setString(&c.Backlog.Path, "BACKLOG_FILE")
	setInt(&c.Intervals.ListenCheck, "LISTEN_CHECK_INTERVAL")
	setInt(&c.Intervals.DownloadProcess, "DOWNLOAD_INTERVAL")
}

// ValidateListening checks that the watcher side has everything it needs.
func (c *Config) ValidateListening() error {
	l := c.Credentials.Listening
	if l.ClientID == "" || l.ClientSecret == "" {
		return fmt.Errorf("%w: listening client_id and client_secret are required", ErrMissingCredentials)
	}
	if l.RefreshToken == "" {
		return fmt.Errorf("%w: run `sidetrack auth` first", ErrNoRefreshToken)
	}
	return nil
}

// ValidateDownloading checks that the processor side has everything it needs.
func (c *Config) ValidateDownloading() error {
	d := c.Credentials.Downloading
	if d.Username == "" || d.Password == "" {
		return fmt.Errorf("%w: downloading username and password are required", ErrMissingCredentials)
	}
	return nil
}

func setString(target *string, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

func setInt(target *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*target = n
		}
	}
}
