// Package config loads server settings from defaults, an optional TOML file,
// an optional .env file and the process environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

const (
	defaultListenAddr     = ":8080"
	defaultDBPath         = "./data/ledger.db"
	defaultLocalStorePath = "./data/local.json"
	defaultStaticPath     = "./static"
	defaultTokenDuration  = 24 * time.Hour
	defaultLogLevel       = "info"
	defaultLogMaxSizeMB   = 10
	defaultLogMaxFiles    = 5
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Server  ServerConfig  `toml:"server"`
	Storage StorageConfig `toml:"storage"`
	Auth    AuthConfig    `toml:"auth"`
	Logging LoggingConfig `toml:"logging"`
}

type ServerConfig struct {
	ListenAddr string `toml:"listen_addr"`
	StaticPath string `toml:"static_path"`
}

type StorageConfig struct {
	DBPath         string `toml:"db_path"`
	LocalStorePath string `toml:"local_store_path"`
}

type AuthConfig struct {
	// JWTSecret signs session tokens. When empty a random secret is used and
	// sessions do not survive a restart.
	JWTSecret     string        `toml:"jwt_secret"`
	TokenDuration time.Duration `toml:"token_duration"`
}

type LoggingConfig struct {
	Level     string `toml:"level"`
	File      string `toml:"file"`
	MaxSizeMB int    `toml:"max_size_mb"`
	MaxFiles  int    `toml:"max_files"`
}

type LoadOptions struct {
	// ConfigPath is a TOML file. A missing file is not an error.
	ConfigPath string
	// EnvFile is a dotenv file. A missing file is not an error.
	EnvFile string
	// Env replaces the process environment when non-nil.
	Env map[string]string
}

func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			ListenAddr: defaultListenAddr,
			StaticPath: defaultStaticPath,
		},
		Storage: StorageConfig{
			DBPath:         defaultDBPath,
			LocalStorePath: defaultLocalStorePath,
		},
		Auth: AuthConfig{
			TokenDuration: defaultTokenDuration,
		},
		Logging: LoggingConfig{
			Level:     defaultLogLevel,
			MaxSizeMB: defaultLogMaxSizeMB,
			MaxFiles:  defaultLogMaxFiles,
		},
	}
}

func Load(opts LoadOptions) (Config, error) {
	cfg := DefaultConfig()

	if err := loadAndApplyFile(opts.ConfigPath, &cfg); err != nil {
		return Config{}, err
	}

	env, err := environment(opts)
	if err != nil {
		return Config{}, err
	}
	if err := applyEnvOverrides(&cfg, env); err != nil {
		return Config{}, err
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type rawConfig struct {
	Server  *rawServer  `toml:"server"`
	Storage *rawStorage `toml:"storage"`
	Auth    *rawAuth    `toml:"auth"`
	Logging *rawLogging `toml:"logging"`
}

type rawServer struct {
	ListenAddr *string `toml:"listen_addr"`
	StaticPath *string `toml:"static_path"`
}

type rawStorage struct {
	DBPath         *string `toml:"db_path"`
	LocalStorePath *string `toml:"local_store_path"`
}

type rawAuth struct {
	JWTSecret     *string `toml:"jwt_secret"`
	TokenDuration *string `toml:"token_duration"`
}

type rawLogging struct {
	Level     *string `toml:"level"`
	File      *string `toml:"file"`
	MaxSizeMB *int    `toml:"max_size_mb"`
	MaxFiles  *int    `toml:"max_files"`
}

func loadAndApplyFile(path string, cfg *Config) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file %q: %w", path, err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: parse TOML file %q: %v", ErrInvalidConfig, path, err)
	}

	if s := raw.Server; s != nil {
		setString(&cfg.Server.ListenAddr, s.ListenAddr)
		setString(&cfg.Server.StaticPath, s.StaticPath)
	}
	if s := raw.Storage; s != nil {
		setString(&cfg.Storage.DBPath, s.DBPath)
		setString(&cfg.Storage.LocalStorePath, s.LocalStorePath)
	}
	if a := raw.Auth; a != nil {
		setString(&cfg.Auth.JWTSecret, a.JWTSecret)
		if a.TokenDuration != nil {
			d, err := time.ParseDuration(*a.TokenDuration)
			if err != nil {
				return fmt.Errorf("%w: auth.token_duration: %v", ErrInvalidConfig, err)
			}
			cfg.Auth.TokenDuration = d
		}
	}
	if l := raw.Logging; l != nil {
		setString(&cfg.Logging.Level, l.Level)
		setString(&cfg.Logging.File, l.File)
		if l.MaxSizeMB != nil {
			cfg.Logging.MaxSizeMB = *l.MaxSizeMB
		}
		if l.MaxFiles != nil {
			cfg.Logging.MaxFiles = *l.MaxFiles
		}
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// environment merges the dotenv file under the process (or injected) environment.
// Variables already set win over the file, as with godotenv.Load.
func environment(opts LoadOptions) (map[string]string, error) {
	env := map[string]string{}
	if opts.EnvFile != "" {
		fileEnv, err := godotenv.Read(opts.EnvFile)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: read env file %q: %v", ErrInvalidConfig, opts.EnvFile, err)
		}
		for k, v := range fileEnv {
			env[k] = v
		}
	}

	if opts.Env != nil {
		for k, v := range opts.Env {
			env[k] = v
		}
		return env, nil
	}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env, nil
}

func applyEnvOverrides(cfg *Config, env map[string]string) error {
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok && v != ""
	}

	if v, ok := lookup("LISTEN_ADDR"); ok {
		cfg.Server.ListenAddr = v
	}
	if v, ok := lookup("STATIC_PATH"); ok {
		cfg.Server.StaticPath = v
	}
	if v, ok := lookup("DB_PATH"); ok {
		cfg.Storage.DBPath = v
	}
	if v, ok := lookup("LOCAL_STORE_PATH"); ok {
		cfg.Storage.LocalStorePath = v
	}
	if v, ok := lookup("JWT_SECRET"); ok {
		cfg.Auth.JWTSecret = v
	}
	if v, ok := lookup("TOKEN_DURATION"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: TOKEN_DURATION: %v", ErrInvalidConfig, err)
		}
		cfg.Auth.TokenDuration = d
	}
	if v, ok := lookup("LOG_LEVEL"); ok {
		cfg.Logging.Level = v
	}
	if v, ok := lookup("LOG_FILE"); ok {
		cfg.Logging.File = v
	}
	if v, ok := lookup("LOG_MAX_SIZE_MB"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: LOG_MAX_SIZE_MB: %v", ErrInvalidConfig, err)
		}
		cfg.Logging.MaxSizeMB = n
	}
	return nil
}

func validate(cfg Config) error {
	switch {
	case cfg.Server.ListenAddr == "":
		return fmt.Errorf("%w: listen address is empty", ErrInvalidConfig)
	case cfg.Storage.DBPath == "":
		return fmt.Errorf("%w: database path is empty", ErrInvalidConfig)
	case cfg.Storage.LocalStorePath == "":
		return fmt.Errorf("%w: local store path is empty", ErrInvalidConfig)
	case cfg.Auth.TokenDuration <= 0:
		return fmt.Errorf("%w: token duration must be positive", ErrInvalidConfig)
	case cfg.Auth.JWTSecret != "" && len(cfg.Auth.JWTSecret) < 16:
		return fmt.Errorf("%w: jwt secret must be at least 16 characters", ErrInvalidConfig)
	case cfg.Logging.MaxSizeMB <= 0 || cfg.Logging.MaxFiles <= 0:
		return fmt.Errorf("%w: log rotation limits must be positive", ErrInvalidConfig)
	}

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, cfg.Logging.Level)
	}
	return nil
}
