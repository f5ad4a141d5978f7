package am

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/teranos/vista/errors"
)

var (
	globalConfig  *Config
	viperInstance *viper.Viper
	loadMu        sync.Mutex

	// ConfigSources records which file set each key during the last merge
	ConfigSources = map[string]SourceInfo{}

	// projectConfigPath is the am.toml found by the upward search, if any
	projectConfigPath string
)

// Load reads the vista configuration using Viper. The result is cached
// until Reset.
func Load() (*Config, error) {
	loadMu.Lock()
	defer loadMu.Unlock()

	if globalConfig != nil {
		return globalConfig, nil
	}

	config, err := LoadWithViper(initViper())
	if err != nil {
		return nil, err
	}

	globalConfig = config
	return globalConfig, nil
}

// GetViper returns the Viper instance for advanced configuration access
func GetViper() *viper.Viper {
	loadMu.Lock()
	defer loadMu.Unlock()
	return initViper()
}

// LoadWithViper loads configuration using a provided Viper instance
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &config, nil
}

// LoadFromFile loads configuration from a specific file path, on top of
// the defaults and without environment overrides
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
	}

	config, err := LoadWithViper(v)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load config from %s", configPath)
	}
	return config, nil
}

// Reset clears the cached configuration (useful for testing)
func Reset() {
	loadMu.Lock()
	defer loadMu.Unlock()
	globalConfig = nil
	viperInstance = nil
	ConfigSources = map[string]SourceInfo{}
	projectConfigPath = ""
}

// ProjectConfigPath returns the project am.toml used by the last load, or ""
func ProjectConfigPath() string {
	loadMu.Lock()
	defer loadMu.Unlock()
	return projectConfigPath
}

// initViper initializes Viper with configuration sources and defaults.
// Callers hold loadMu.
func initViper() *viper.Viper {
	if viperInstance != nil {
		return viperInstance
	}

	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	BindEnvVars(v)

	SetDefaults(v)
	mergeConfigFiles(v)

	viperInstance = v
	return v
}

// FindProjectConfig walks up from the working directory looking for am.toml
func FindProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		amPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(amPath); err == nil {
			return amPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// configLayer is one file in the merge order
type configLayer struct {
	path   string
	source ConfigSource
}

// configLayers lists config files from lowest to highest precedence
func configLayers() []configLayer {
	layers := []configLayer{
		{path: filepath.Join("/etc", "vista", ConfigFileName), source: SourceSystem},
	}
	if home, err := os.UserHomeDir(); err == nil {
		userDir := filepath.Join(home, UserDirName)
		layers = append(layers,
			configLayer{path: filepath.Join(userDir, ConfigFileName), source: SourceUser},
			configLayer{path: filepath.Join(userDir, UIConfigName), source: SourceUserUI},
		)
	}
	if project := FindProjectConfig(); project != "" {
		layers = append(layers, configLayer{path: project, source: SourceProject})
	}
	return layers
}

// mergeConfigFiles merges every existing layer into v.
// Precedence (lowest to highest): system < user < UI edits < project < env vars
func mergeConfigFiles(v *viper.Viper) {
	for _, layer := range configLayers() {
		if _, err := os.Stat(layer.path); err != nil {
			continue
		}

		tempViper := viper.New()
		tempViper.SetConfigFile(layer.path)
		tempViper.SetConfigType("toml")
		if err := tempViper.ReadInConfig(); err != nil {
			continue
		}

		if err := v.MergeConfigMap(tempViper.AllSettings()); err != nil {
			continue
		}
		for _, key := range tempViper.AllKeys() {
			ConfigSources[key] = SourceInfo{Source: layer.source, Path: layer.path}
		}
		if layer.source == SourceProject {
			projectConfigPath = layer.path
		}
	}
}

// Get returns a configuration value using dot notation
func Get(key string) interface{} {
	return GetViper().Get(key)
}

// GetString returns a configuration value as string using dot notation
func GetString(key string) string {
	return GetViper().GetString(key)
}
