package config

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/vstore/internal/errors"
)

const (
	// ConfigFileName is the name of the default configuration file.
	ConfigFileName = "vstore.json"

	// DefaultName is the default store name.
	DefaultName = "workspace"

	// DefaultHost is the default devtools server host.
	DefaultHost = "localhost"

	// DefaultPort is the default devtools server port.
	DefaultPort = 7777

	// DefaultDevtoolsPath is the URL prefix of the devtools routes.
	DefaultDevtoolsPath = "/devtools"

	// DefaultMetricsPath is where Prometheus metrics are served.
	DefaultMetricsPath = "/metrics"

	// DefaultNamespace is the Prometheus metrics namespace.
	DefaultNamespace = "vstore"

	// DefaultDebounce is the delay between a seed file change and the reload.
	DefaultDebounce = "250ms"
)

// candidates are the file names Find looks for, in order.
var candidates = []string{"vstore.json", "vstore.toml", "vstore.yaml", "vstore.yml"}

// Config represents the complete vstore configuration.
type Config struct {
	// Name is the store name shown in logs, metrics and devtools.
	Name string `json:"name,omitempty" toml:"name,omitempty" yaml:"name,omitempty" validate:"required"`

	// Devtools configures the devtools HTTP and websocket server.
	Devtools DevtoolsConfig `json:"devtools" toml:"devtools" yaml:"devtools"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `json:"metrics" toml:"metrics" yaml:"metrics"`

	// Tracing configures OpenTelemetry tracing.
	Tracing TracingConfig `json:"tracing" toml:"tracing" yaml:"tracing"`

	// Log configures structured logging.
	Log LogConfig `json:"log" toml:"log" yaml:"log"`

	// Workspace configures the demo workspace store.
	Workspace WorkspaceConfig `json:"workspace" toml:"workspace" yaml:"workspace"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// DevtoolsConfig contains devtools server settings.
type DevtoolsConfig struct {
	// Host is the host to bind to.
	Host string `json:"host,omitempty" toml:"host,omitempty" yaml:"host,omitempty"`

	// Port is the port to listen on. Zero picks a free port.
	Port int `json:"port,omitempty" toml:"port,omitempty" yaml:"port,omitempty" validate:"gte=0,lte=65535"`

	// Path is the URL prefix of the devtools routes.
	Path string `json:"path,omitempty" toml:"path,omitempty" yaml:"path,omitempty" validate:"omitempty,startswith=/"`

	// AllowOrigins lists the origins allowed to open the websocket.
	// Empty allows any origin.
	AllowOrigins []string `json:"allowOrigins,omitempty" toml:"allowOrigins,omitempty" yaml:"allowOrigins,omitempty" validate:"dive,url"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled exposes metrics and installs the metrics middleware.
	Enabled bool `json:"enabled" toml:"enabled" yaml:"enabled"`

	// Path is where metrics are served.
	Path string `json:"path,omitempty" toml:"path,omitempty" yaml:"path,omitempty" validate:"omitempty,startswith=/"`

	// Namespace prefixes every metric name.
	Namespace string `json:"namespace,omitempty" toml:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	// Enabled installs a tracer provider and the tracing middleware.
	Enabled bool `json:"enabled" toml:"enabled" yaml:"enabled"`

	// ServiceName is reported as the service.name resource attribute.
	ServiceName string `json:"serviceName,omitempty" toml:"serviceName,omitempty" yaml:"serviceName,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `json:"level,omitempty" toml:"level,omitempty" yaml:"level,omitempty" validate:"omitempty,oneof=debug info warn error"`

	// Format is text or json.
	Format string `json:"format,omitempty" toml:"format,omitempty" yaml:"format,omitempty" validate:"omitempty,oneof=text json"`
}

// WorkspaceConfig contains settings for the workspace store.
type WorkspaceConfig struct {
	// Seed is a json, toml or yaml file loaded into the store at start.
	Seed string `json:"seed,omitempty" toml:"seed,omitempty" yaml:"seed,omitempty"`

	// Watch reloads the seed file when it changes.
	Watch bool `json:"watch" toml:"watch" yaml:"watch"`

	// Debounce is the delay before a change is applied (e.g., "250ms").
	Debounce string `json:"debounce,omitempty" toml:"debounce,omitempty" yaml:"debounce,omitempty" validate:"omitempty,duration"`
}

// validate is the validator instance for configuration structs.
var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("duration", validateDuration)
}

// validateDuration accepts strings time.ParseDuration understands.
func validateDuration(fl validator.FieldLevel) bool {
	d, err := time.ParseDuration(fl.Field().String())
	return err == nil && d >= 0
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Name: DefaultName,
		Devtools: DevtoolsConfig{
			Host: DefaultHost,
			Port: DefaultPort,
			Path: DefaultDevtoolsPath,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Path:      DefaultMetricsPath,
			Namespace: DefaultNamespace,
		},
		Tracing: TracingConfig{
			ServiceName: "vstore",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Workspace: WorkspaceConfig{
			Debounce: DefaultDebounce,
		},
	}
}

// Load reads configuration from path. An empty path means ConfigFileName.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigFileName
	}

	cfg := New()
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			cfg.configPath = path
			return cfg, nil
		}
		return nil, errors.New("C001").Wrap(err)
	}

	if err := decode(path, data, cfg); err != nil {
		return nil, err
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDir loads the first configuration file Find locates in dir, or the
// defaults when there is none.
func LoadDir(dir string) (*Config, error) {
	path, ok := Find(dir)
	if !ok {
		cfg := New()
		cfg.configPath = filepath.Join(dir, ConfigFileName)
		return cfg, nil
	}
	return Load(path)
}

// Find returns the first configuration file present in dir.
func Find(dir string) (string, bool) {
	for _, name := range candidates {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

// decode picks a codec by extension and decodes data into cfg.
func decode(path string, data []byte, cfg *Config) error {
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		return errors.New("C003").
			WithDetail(fmt.Sprintf("Cannot decode %s.", filepath.Base(path))).
			WithSuggestion("Rename the file to vstore.json, vstore.toml or vstore.yaml")
	}
	if err == nil {
		return nil
	}

	ve := errors.New("C001").Wrap(err)
	var derr *toml.DecodeError
	if stderrors.As(err, &derr) {
		row, col := derr.Position()
		return ve.WithLocation(path, row, col)
	}
	return ve.WithLocationFromError(path, err)
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to path, encoded by its extension.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	case ".toml":
		data, err = toml.Marshal(c)
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		return errors.New("C003")
	}
	if err != nil {
		return errors.New("C004").Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("C004").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
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

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Name == "" {
		c.Name = DefaultName
	}

	if c.Devtools.Host == "" {
		c.Devtools.Host = DefaultHost
	}
	if c.Devtools.Path == "" {
		c.Devtools.Path = DefaultDevtoolsPath
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}

	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "vstore"
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	if c.Workspace.Debounce == "" {
		c.Workspace.Debounce = DefaultDebounce
	}
}

// Validate checks the configuration against its struct tags.
// Every failing field is listed in the returned error's detail.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.New("C002").Wrap(err)
	}

	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fmt.Sprintf("%s fails %q", strings.TrimPrefix(fe.Namespace(), "Config."), fe.Tag())
		if fe.Param() != "" {
			msg += " (" + fe.Param() + ")"
		}
		problems = append(problems, msg)
	}
	return errors.New("C002").
		WithDetail(strings.Join(problems, "; ")).
		WithSuggestion("Check the configuration reference in the package documentation")
}

// DevtoolsAddress returns the listen address of the devtools server.
func (c *Config) DevtoolsAddress() string {
	return net.JoinHostPort(c.Devtools.Host, strconv.Itoa(c.Devtools.Port))
}

// DevtoolsURL returns the base HTTP URL of the devtools routes.
func (c *Config) DevtoolsURL() string {
	return "http://" + c.DevtoolsAddress() + c.Devtools.Path
}

// StreamURL returns the websocket URL of the devtools stream.
func (c *Config) StreamURL() string {
	return "ws://" + c.DevtoolsAddress() + c.Devtools.Path + "/ws"
}

// DebounceDuration parses Workspace.Debounce, falling back to the default.
func (c *Config) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(c.Workspace.Debounce)
	if err != nil {
		d, _ = time.ParseDuration(DefaultDebounce)
	}
	return d
}

// SeedPath returns the seed file path resolved against the config directory.
func (c *Config) SeedPath() string {
	if c.Workspace.Seed == "" || filepath.IsAbs(c.Workspace.Seed) {
		return c.Workspace.Seed
	}
	return filepath.Join(c.Dir(), c.Workspace.Seed)
}

// SlogLevel returns the slog level for Log.Level.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds a text or JSON slog logger writing to w.
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: l.SlogLevel()}
	if strings.EqualFold(l.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
