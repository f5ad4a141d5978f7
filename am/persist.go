package am

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"

	"github.com/teranos/vista/errors"
	"github.com/teranos/vista/logger"
	"github.com/teranos/vista/physics"
	"github.com/teranos/vista/projection"
)

// backupCount is how many rotating backups are kept (.back1 .. .back3)
const backupCount = 3

// createBackup creates rotating backups before modifying config
func createBackup(configPath string) error {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil
	}

	oldest := backupPath(configPath, backupCount)
	if err := os.Remove(oldest); err != nil && !os.IsNotExist(err) {
		logger.Warnw("Failed to delete old config backup", logger.FieldPath, oldest, logger.FieldError, err)
	}

	for i := backupCount - 1; i >= 1; i-- {
		from, to := backupPath(configPath, i), backupPath(configPath, i+1)
		if _, err := os.Stat(from); err == nil {
			if err := os.Rename(from, to); err != nil {
				return errors.Wrapf(err, "failed to rotate %s", filepath.Base(from))
			}
		}
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return errors.Wrap(err, "failed to read config for backup")
	}
	if err := os.WriteFile(backupPath(configPath, 1), content, DefaultFilePermissions); err != nil {
		return errors.Wrap(err, "failed to create .back1")
	}
	return nil
}

func backupPath(configPath string, n int) string {
	return configPath + ".back" + strconv.Itoa(n)
}

// GetUIConfigPath returns the path of the UI-managed config, ~/.vista/am_from_ui.toml
func GetUIConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, UserDirName, UIConfigName)
}

// loadOrInitialize reads a TOML file into a map, or returns an empty map
// when it does not exist yet
func loadOrInitialize(configPath string) (map[string]interface{}, error) {
	if configPath == "" {
		return nil, errors.New("could not determine home directory")
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0750); err != nil {
		return nil, errors.Wrap(err, "failed to create config directory")
	}

	config := make(map[string]interface{})
	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return config, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", configPath)
	}
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", configPath)
	}
	return config, nil
}

// save writes config with a backup, marking the write as our own so the
// watcher does not reload it
func save(config map[string]interface{}, configPath string) error {
	if err := createBackup(configPath); err != nil {
		return errors.Wrap(err, "failed to create backup")
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	if w := GetGlobalWatcher(); w != nil {
		w.MarkOwnWrite()
	}

	if err := os.WriteFile(configPath, data, DefaultFilePermissions); err != nil {
		return errors.Wrapf(err, "failed to write %s", configPath)
	}
	return nil
}

// UpdateSection merges values into one [section] of the file at configPath
func UpdateSection(configPath, section string, values map[string]interface{}) error {
	config, err := loadOrInitialize(configPath)
	if err != nil {
		return err
	}

	current, ok := config[section].(map[string]interface{})
	if !ok {
		current = make(map[string]interface{})
	}
	for k, v := range values {
		current[k] = v
	}
	config[section] = current

	return save(config, configPath)
}

// SaveViewMode persists the active view mode as a UI edit
func SaveViewMode(mode projection.Mode) error {
	return UpdateSection(GetUIConfigPath(), "view", map[string]interface{}{"mode": string(mode)})
}

// SavePhysics persists physics parameters as a UI edit
func SavePhysics(p physics.Params) error {
	values, err := toSection(p)
	if err != nil {
		return err
	}
	return UpdateSection(GetUIConfigPath(), "physics", values)
}

// toSection converts a tagged struct into a TOML table
func toSection(v interface{}) (map[string]interface{}, error) {
	data, err := toml.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal section")
	}
	section := make(map[string]interface{})
	if err := toml.Unmarshal(data, &section); err != nil {
		return nil, errors.Wrap(err, "failed to decode section")
	}
	return section, nil
}

// Render formats a config as TOML, for `vista am show`
func Render(c *Config) ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(err, "failed to render config")
	}
	return data, nil
}
