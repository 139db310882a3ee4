package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/kbukum/covaflow/errors"
)

// EnvPrefix is the prefix of environment variables that override config keys.
const EnvPrefix = "COVA"

// FileSystem interface for file operations (useful for testing).
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// RealFileSystem implements FileSystem using actual file operations.
type RealFileSystem struct{}

func (rfs *RealFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (rfs *RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// LoaderConfig holds dependencies and optional file overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	EnvFile    string // Direct env file path (optional)
}

// LoaderOption is a functional option for LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets a custom filesystem for the loader.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// ResolveEnvFile returns the .env file to load for a config file: the
// explicit path when given, otherwise a .env next to the config file.
func ResolveEnvFile(configFile string, lc LoaderConfig) string {
	if lc.EnvFile != "" {
		return lc.EnvFile
	}
	dir := "."
	if configFile != "" {
		dir = filepath.Dir(configFile)
	}
	candidate := filepath.Join(dir, ".env")
	if lc.FileSystem.Exists(candidate) {
		return candidate
	}
	return ""
}

// LoadConfig loads the YAML file at path into cfg. Defaults cover every key,
// a .env file next to the config is loaded first, and COVA_* environment
// variables override file values. Unknown keys fail with UNKNOWN_PARAMETER.
// When cfg implements ApplyDefaults or Validate they run after decoding.
func LoadConfig(path string, cfg interface{}, opts ...LoaderOption) error {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.FileSystem == nil {
		lc.FileSystem = &RealFileSystem{}
	}

	v := viper.New()
	SetDefaults(v)

	// 1. Load YAML config (base configuration)
	if path != "" {
		if !lc.FileSystem.Exists(path) {
			return errors.InvalidConfig(fmt.Sprintf("config file %s does not exist", path))
		}
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return errors.InvalidConfig(fmt.Sprintf("failed to read config file %s", path)).WithCause(err)
		}
	}

	// 2. Load .env before binding so its variables are visible to viper
	if envFile := ResolveEnvFile(path, lc); envFile != "" {
		if err := lc.FileSystem.LoadEnv(envFile); err != nil {
			return errors.InvalidConfig(fmt.Sprintf("failed to load env file %s", envFile)).WithCause(err)
		}
	}

	// 3. COVA_NUM_ENTDEC -> num_entdec, COVA_TELEMETRY_ENDPOINT -> telemetry.endpoint
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Strict decode
	if err := v.UnmarshalExact(cfg); err != nil {
		return decodeError(err)
	}

	if d, ok := cfg.(interface{ ApplyDefaults() }); ok {
		d.ApplyDefaults()
	}
	if val, ok := cfg.(interface{ Validate() error }); ok {
		if err := val.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func decodeError(err error) error {
	msg := err.Error()
	if i := strings.Index(msg, "has invalid keys:"); i >= 0 {
		keys := strings.TrimSpace(msg[i+len("has invalid keys:"):])
		return errors.New(errors.ErrCodeUnknownParameter,
			fmt.Sprintf("unknown configuration keys: %s", keys),
		).WithDetail("keys", strings.Split(keys, ", ")).WithCause(err)
	}
	return errors.InvalidConfig("failed to decode configuration").WithCause(err)
}

// WriteResolved writes cfg as YAML to path so a run can be reproduced.
func WriteResolved(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Internal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing resolved config %s: %w", path, err)
	}
	return nil
}
