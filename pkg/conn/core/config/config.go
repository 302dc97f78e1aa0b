package config

// Package config provides structures and utilities for managing mooring configuration.

// LogLevel defines the logging level for the library.
type LogLevel string

const (
	LogLevelDebug  LogLevel = "DEBUG"
	LogLevelInfo   LogLevel = "INFO"
	LogLevelWarn   LogLevel = "WARN"
	LogLevelError  LogLevel = "ERROR"
	LogLevelFatal  LogLevel = "FATAL"
	LogLevelSilent LogLevel = "SILENT"
)

// Recognized keys of the Options mapping read by ConnectionProvider.Configure.
const (
	// KeyDatasource holds either a PooledSource handle or a lookup name string.
	KeyDatasource = "datasource"
	// KeyUser holds the user passed to credentialed acquisition.
	KeyUser = "user"
	// KeyPassword holds the password passed to credentialed acquisition.
	KeyPassword = "password"
)

// Options is the string-keyed configuration mapping read once during Configure.
// Values under the recognized keys are either strings or live object handles;
// presence of a key is significant (an empty-string credential is still a credential).
type Options map[string]interface{}

// Has reports whether the given key is present in the mapping.
func (o Options) Has(key string) bool {
	_, ok := o[key]
	return ok
}

// String returns the value under key as a string. The second return value
// reports whether the key was present and held a string.
func (o Options) String(key string) (string, bool) {
	v, ok := o[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// PoolConfig holds connection pool settings applied to the underlying *sql.DB.
type PoolConfig struct {
	MaxOpenConns           int `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns           int `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetimeMinutes int `yaml:"conn_max_lifetime_minutes" mapstructure:"conn_max_lifetime_minutes"`
}

// SourceConfig holds the settings of one named pooled-connection source.
type SourceConfig struct {
	Kind     string     `yaml:"kind" mapstructure:"kind"`         // Source kind (e.g., "sqlpool", "gormpool").
	Driver   string     `yaml:"driver" mapstructure:"driver"`     // Driver name (e.g., "postgres", "mysql", "sqlite").
	Host     string     `yaml:"host" mapstructure:"host"`         // Server host address.
	Port     int        `yaml:"port" mapstructure:"port"`         // Server port number.
	Database string     `yaml:"database" mapstructure:"database"` // Database name, or file path for SQLite.
	User     string     `yaml:"user" mapstructure:"user"`         // Default user baked into the base pool.
	Password string     `yaml:"password" mapstructure:"password"` // Default password baked into the base pool.
	Sslmode  string     `yaml:"sslmode" mapstructure:"sslmode"`   // SSL mode for the connection.
	Pool     PoolConfig `yaml:"pool" mapstructure:"pool"`         // Connection pool settings.
}

// ProviderConfig holds the settings the connection provider is configured with.
type ProviderConfig struct {
	// Datasource is the lookup name of the source to resolve through the registry.
	Datasource string `yaml:"datasource"`
	// User, if set, switches acquisition to the credentialed path.
	User string `yaml:"user"`
	// Password, if set, switches acquisition to the credentialed path.
	Password string `yaml:"password"`
}

// SnapshotConfig holds the captured-state store settings.
type SnapshotConfig struct {
	// Store selects the snapshot store implementation ("local" or "gcs").
	Store string `yaml:"store"`
	// BaseDir is the root directory of the local store.
	BaseDir string `yaml:"base_dir"`
	// Bucket is the bucket name of the GCS store.
	Bucket string `yaml:"bucket"`
	// Prefix is prepended to every object/file name.
	Prefix string `yaml:"prefix"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the logging level (e.g., "INFO", "DEBUG").
	Level string `yaml:"level"`
}

// SystemConfig holds system-wide settings.
type SystemConfig struct {
	// Logging is the logging configuration.
	Logging LoggingConfig `yaml:"logging"`
}

// MooringConfig holds all configuration under the "mooring" top-level key.
type MooringConfig struct {
	// System contains system-wide configurations.
	System SystemConfig `yaml:"system"`
	// Provider contains the connection-provider settings.
	Provider ProviderConfig `yaml:"provider"`
	// Sources holds the raw named source definitions, keyed by lookup name.
	// Entries are decoded into SourceConfig when the sources are built.
	Sources map[string]interface{} `yaml:"sources"`
	// Snapshot contains the captured-state store settings.
	Snapshot SnapshotConfig `yaml:"snapshot"`
}

// Config is the root structure for the entire library configuration.
type Config struct {
	Mooring MooringConfig `yaml:"mooring"`
}

// NewConfig creates a Config populated with defaults. YAML and environment
// overrides are applied on top of these values by the loader.
func NewConfig() *Config {
	cfg := &Config{
		Mooring: MooringConfig{
			System: SystemConfig{
				Logging: LoggingConfig{Level: "INFO"},
			},
			Snapshot: SnapshotConfig{
				Store:   "local",
				BaseDir: ".mooring/snapshots",
			},
		},
	}

	// Initialize Sources as an empty map, to be populated by YAML.
	cfg.Mooring.Sources = map[string]interface{}{}
	return cfg
}

// ProviderOptions converts the provider section into the Options mapping that
// ConnectionProvider.Configure consumes. Credentials are only present when set,
// so their absence keeps the non-credentialed acquisition path.
func (c *Config) ProviderOptions() Options {
	opts := Options{}
	if c.Mooring.Provider.Datasource != "" {
		opts[KeyDatasource] = c.Mooring.Provider.Datasource
	}
	if c.Mooring.Provider.User != "" {
		opts[KeyUser] = c.Mooring.Provider.User
	}
	if c.Mooring.Provider.Password != "" {
		opts[KeyPassword] = c.Mooring.Provider.Password
	}
	return opts
}
