// ABOUTME: Application configuration stored at XDG paths with .env and environment overrides
// ABOUTME: Selects the record backend and carries connection, server and logging settings
package config

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/oklog/ulid/v2"
)

// AppName names the config and data directories.
const AppName = "dealboard"

// Record backends.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendCharm    = "charm"
	BackendHTTP     = "http"
)

// Backends lists every supported backend.
var Backends = []string{BackendSQLite, BackendPostgres, BackendCharm, BackendHTTP}

type RecordsConfig struct {
	URL       string   `json:"url"`
	APIKey    string   `json:"api_key,omitempty"`
	ProjectID string   `json:"project_id,omitempty"`
	Timeout   Duration `json:"timeout"`
}

type CharmConfig struct {
	Host     string `json:"host,omitempty"`
	AutoSync bool   `json:"auto_sync"`
}

type WebConfig struct {
	Port int `json:"port"`
}

type StoreConfig struct {
	Port int `json:"port"`
	// APIKey is what clients must present to the record store server.
	APIKey string `json:"api_key,omitempty"`
}

type Config struct {
	Backend      string        `json:"backend"`
	DatabasePath string        `json:"database_path,omitempty"`
	DatabaseURL  string        `json:"database_url,omitempty"`
	Records      RecordsConfig `json:"records"`
	Charm        CharmConfig   `json:"charm"`
	Web          WebConfig     `json:"web"`
	Store        StoreConfig   `json:"store"`
	LogLevel     string        `json:"log_level"`
	PrettyLogs   bool          `json:"pretty_logs"`
	DeviceID     string        `json:"device_id,omitempty"`
	GoogleSync   GoogleSync    `json:"google_sync"`
}

// GoogleSync controls the Google Contacts import: the OAuth client, where its
// token lives and the background schedule.
type GoogleSync struct {
	ClientID     string   `json:"client_id,omitempty"`
	ClientSecret string   `json:"client_secret,omitempty"`
	CallbackPort int      `json:"callback_port"`
	Scopes       []string `json:"scopes,omitempty"`
	TokenPath    string   `json:"token_path,omitempty"`
	Schedule     string   `json:"schedule,omitempty"`
}

// GoogleContactsScope is the read-only People API scope the import asks for.
const GoogleContactsScope = "https://www.googleapis.com/auth/contacts.readonly"

// Duration marshals as a Go duration string such as "30s".
type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		var n float64
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("invalid duration %s", string(b))
		}
		d.Duration = time.Duration(n) * time.Second
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// Dir returns the XDG config directory for the app.
func Dir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Path returns the config file location.
func Path() string {
	return filepath.Join(Dir(), "config.json")
}

// DefaultDatabasePath is where the SQLite backend keeps its file.
func DefaultDatabasePath() string {
	return filepath.Join(xdg.DataHome, AppName, "dealboard.db")
}

// DefaultGoogleTokenPath is where the Google OAuth token is kept.
func DefaultGoogleTokenPath() string {
	return filepath.Join(xdg.DataHome, AppName, "google-token.json")
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Backend:      BackendSQLite,
		DatabasePath: DefaultDatabasePath(),
		Records: RecordsConfig{
			URL:     "http://localhost:8090",
			Timeout: Duration{30 * time.Second},
		},
		Charm:    CharmConfig{AutoSync: true},
		Web:      WebConfig{Port: 8080},
		Store:    StoreConfig{Port: 8090},
		GoogleSync: GoogleSync{
			CallbackPort: 8085,
			Scopes:       []string{GoogleContactsScope},
			TokenPath:    DefaultGoogleTokenPath(),
		},
		LogLevel: "info",
	}
}

// Load reads the config file, then .env, then DEALBOARD_* environment variables.
// A missing file yields defaults.
func Load() (*Config, error) {
	cfg := Default()

	f, err := os.Open(Path())
	switch {
	case err == nil:
		defer func() { _ = f.Close() }()
		if err := json.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config: %w", err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}

	// .env is optional
	_ = godotenv.Load()

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	str := func(key string, dst *string) {
		if v := os.Getenv("DEALBOARD_" + key); v != "" {
			*dst = v
		}
	}
	str("BACKEND", &cfg.Backend)
	str("DATABASE_PATH", &cfg.DatabasePath)
	str("DATABASE_URL", &cfg.DatabaseURL)
	str("RECORDS_URL", &cfg.Records.URL)
	str("RECORDS_API_KEY", &cfg.Records.APIKey)
	str("RECORDS_PROJECT_ID", &cfg.Records.ProjectID)
	str("CHARM_HOST", &cfg.Charm.Host)
	str("STORE_API_KEY", &cfg.Store.APIKey)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("DEVICE_ID", &cfg.DeviceID)
	str("GOOGLE_TOKEN_PATH", &cfg.GoogleSync.TokenPath)

	// The Google client credentials keep the names Google's own tools use.
	for key, dst := range map[string]*string{"GOOGLE_CLIENT_ID": &cfg.GoogleSync.ClientID, "GOOGLE_CLIENT_SECRET": &cfg.GoogleSync.ClientSecret} {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("DEALBOARD_RECORDS_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid DEALBOARD_RECORDS_TIMEOUT: %w", err)
		}
		cfg.Records.Timeout = Duration{d}
	}
	for key, dst := range map[string]*int{"WEB_PORT": &cfg.Web.Port, "STORE_PORT": &cfg.Store.Port, "GOOGLE_CALLBACK_PORT": &cfg.GoogleSync.CallbackPort} {
		if v := os.Getenv("DEALBOARD_" + key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid DEALBOARD_%s: %w", key, err)
			}
			*dst = n
		}
	}
	for key, dst := range map[string]*bool{"CHARM_AUTO_SYNC": &cfg.Charm.AutoSync, "PRETTY_LOGS": &cfg.PrettyLogs} {
		if v := os.Getenv("DEALBOARD_" + key); v != "" {
			*dst = v == "true" || v == "1"
		}
	}
	return nil
}

// Validate checks the settings that would otherwise fail later and obscurely.
func (c *Config) Validate() error {
	known := false
	for _, b := range Backends {
		if c.Backend == b {
			known = true
		}
	}
	if !known {
		return fmt.Errorf("unknown backend %q (valid: %s)", c.Backend, strings.Join(Backends, ", "))
	}
	if c.Backend == BackendPostgres && c.DatabaseURL == "" {
		return fmt.Errorf("backend postgres requires database_url")
	}
	if c.Backend == BackendHTTP && c.Records.URL == "" {
		return fmt.Errorf("backend http requires records.url")
	}
	return nil
}

// Save writes the config file with restricted permissions, assigning a device
// id on first save.
func Save(cfg *Config) error {
	if cfg.DeviceID == "" {
		cfg.DeviceID = GenerateDeviceID()
	}
	if err := os.MkdirAll(Dir(), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(Path(), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// GenerateDeviceID returns a new ULID identifying this installation.
func GenerateDeviceID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(rand.Reader, 0)).String()
}

// Set assigns one dotted key such as "records.url" or "web.port".
func (c *Config) Set(key, value string) error {
	atoi := func() (int, error) {
		n, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("%s must be a number: %w", key, err)
		}
		return n, nil
	}
	boolean := func() (bool, error) {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return false, fmt.Errorf("%s must be true or false: %w", key, err)
		}
		return b, nil
	}

	var err error
	switch key {
	case "backend":
		c.Backend = value
	case "database_path":
		c.DatabasePath = value
	case "database_url":
		c.DatabaseURL = value
	case "records.url":
		c.Records.URL = value
	case "records.api_key":
		c.Records.APIKey = value
	case "records.project_id":
		c.Records.ProjectID = value
	case "records.timeout":
		var d time.Duration
		d, err = time.ParseDuration(value)
		c.Records.Timeout = Duration{d}
	case "charm.host":
		c.Charm.Host = value
	case "charm.auto_sync":
		c.Charm.AutoSync, err = boolean()
	case "web.port":
		c.Web.Port, err = atoi()
	case "store.port":
		c.Store.Port, err = atoi()
	case "store.api_key":
		c.Store.APIKey = value
	case "log_level":
		c.LogLevel = value
	case "pretty_logs":
		c.PrettyLogs, err = boolean()
	case "google_sync.schedule":
		c.GoogleSync.Schedule = value
	case "google_sync.client_id":
		c.GoogleSync.ClientID = value
	case "google_sync.client_secret":
		c.GoogleSync.ClientSecret = value
	case "google_sync.callback_port":
		c.GoogleSync.CallbackPort, err = atoi()
	case "google_sync.scopes":
		c.GoogleSync.Scopes = strings.Fields(strings.ReplaceAll(value, ",", " "))
	case "google_sync.token_path":
		c.GoogleSync.TokenPath = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	if err != nil {
		return err
	}
	return c.Validate()
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	out := *c
	if out.Records.APIKey != "" {
		out.Records.APIKey = "********"
	}
	if out.Store.APIKey != "" {
		out.Store.APIKey = "********"
	}
	if out.GoogleSync.ClientSecret != "" {
		out.GoogleSync.ClientSecret = "********"
	}
	return out
}
