package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/loom-ui/loom/internal/errors"
)

const (
	// FileName is the name of the configuration file.
	FileName = "loom.json"

	// DefaultPort is the default live-server port.
	DefaultPort = 4800

	// DefaultHost is the default live-server host.
	DefaultHost = "localhost"

	// DefaultDebounce is the default list-reconciler debounce interval.
	DefaultDebounce = 16 * time.Millisecond
)

// Config is the complete loom.json configuration.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty"`

	// Version is the project version.
	Version string `json:"version,omitempty"`

	// Server contains live-server settings.
	Server ServerConfig `json:"server,omitempty"`

	// Engine contains rendering-engine defaults.
	Engine EngineConfig `json:"engine,omitempty"`

	// Static contains static file serving configuration.
	Static StaticConfig `json:"static,omitempty"`

	// Dev contains development options.
	Dev DevConfig `json:"dev,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains live-server settings.
type ServerConfig struct {
	// Host is the host to bind to.
	Host string `json:"host,omitempty"`

	// Port is the port to listen on.
	Port int `json:"port,omitempty"`

	// SessionIdle is how long an idle session survives before eviction
	// (e.g. "2m").
	SessionIdle string `json:"sessionIdle,omitempty"`
}

// EngineConfig contains rendering-engine defaults.
type EngineConfig struct {
	// DebounceMillis is the default list-reconciler debounce interval.
	DebounceMillis int `json:"debounceMillis,omitempty"`

	// Minify minifies rendered HTML output.
	Minify bool `json:"minify,omitempty"`
}

// StaticConfig contains static file serving configuration.
type StaticConfig struct {
	// Dir is the directory containing static files.
	Dir string `json:"dir,omitempty"`

	// Prefix is the URL prefix for static files.
	Prefix string `json:"prefix,omitempty"`
}

// DevConfig contains development options.
type DevConfig struct {
	// Watch contains paths watched for template changes.
	Watch []string `json:"watch,omitempty"`

	// LiveReload pushes a reload frame to connected sessions when a
	// watched file changes.
	LiveReload bool `json:"liveReload,omitempty"`
}

// New creates a Config with default values.
func New() *Config {
	return &Config{
		Version: "0.1.0",
		Server: ServerConfig{
			Host:        DefaultHost,
			Port:        DefaultPort,
			SessionIdle: "2m",
		},
		Engine: EngineConfig{
			DebounceMillis: int(DefaultDebounce / time.Millisecond),
		},
		Static: StaticConfig{
			Dir:    "public",
			Prefix: "/static/",
		},
		Dev: DevConfig{
			Watch:      []string{"templates", "public"},
			LiveReload: true,
		},
	}
}

// Load reads configuration from loom.json in the given directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, FileName))
}

// LoadFile reads configuration from the given file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("L302").
				WithDetail("no %s in %s", FileName, filepath.Dir(path))
		}
		return nil, errors.New("L301").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("L301").
			WithDetail("%s is not valid JSON", path).Wrap(err)
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration back to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.New("L301").WithDetail("no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the given path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("L301").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.New("L301").Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.SessionIdle == "" {
		c.Server.SessionIdle = "2m"
	}
	if c.Engine.DebounceMillis == 0 {
		c.Engine.DebounceMillis = int(DefaultDebounce / time.Millisecond)
	}
	if c.Static.Dir == "" {
		c.Static.Dir = "public"
	}
	if c.Static.Prefix == "" {
		c.Static.Prefix = "/static/"
	}
	if c.Dev.Watch == nil {
		c.Dev.Watch = []string{"templates", "public"}
	}
}

// Validate checks the configuration for out-of-range values.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.New("L301").
			WithDetail("port %d out of range", c.Server.Port)
	}
	if c.Engine.DebounceMillis < 0 {
		return errors.New("L301").
			WithDetail("debounceMillis %d is negative", c.Engine.DebounceMillis)
	}
	if _, err := time.ParseDuration(c.Server.SessionIdle); err != nil {
		return errors.New("L301").
			WithDetail("sessionIdle %q is not a duration", c.Server.SessionIdle)
	}
	return nil
}

// Address returns the host:port string for the live server.
func (c *Config) Address() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// Debounce returns the engine's default debounce interval.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Engine.DebounceMillis) * time.Millisecond
}

// SessionIdle returns the idle eviction window.
func (c *Config) SessionIdle() time.Duration {
	d, err := time.ParseDuration(c.Server.SessionIdle)
	if err != nil {
		return 2 * time.Minute
	}
	return d
}

// StaticPath returns the absolute path to the static directory.
func (c *Config) StaticPath() string {
	if filepath.IsAbs(c.Static.Dir) {
		return c.Static.Dir
	}
	return filepath.Join(c.Dir(), c.Static.Dir)
}

// Exists reports whether a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, FileName))
	return err == nil
}

// FindProjectRoot walks up from startDir to the directory containing
// loom.json.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}
	for {
		if Exists(dir) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("L302").
				WithDetail("no %s in %s or any parent", FileName, startDir)
		}
		dir = parent
	}
}
