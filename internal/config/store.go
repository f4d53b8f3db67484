package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	appName    = "printscout"
	configFile = "vendors.yaml"
)

var (
	// Global catalogue instance (loaded lazily)
	globalCatalogue     *Catalogue
	globalCatalogueOnce sync.Once
	globalCatalogueErr  error

	// Explicit config path set from the command line
	pathOverride string

	// Mutex for thread-safe file operations
	fileMutex sync.Mutex
)

// GetConfigDir returns the OS-appropriate configuration directory for the application.
//   - Linux: $XDG_CONFIG_HOME/printscout or $HOME/.config/printscout
//   - macOS: $HOME/.config/printscout
//   - Windows: %LOCALAPPDATA%\printscout
func GetConfigDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
			}
			baseDir = filepath.Join(userProfile, "AppData", "Local", appName)
		} else {
			baseDir = filepath.Join(localAppData, appName)
		}

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, ".config", appName)

	default:
		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome != "" {
			baseDir = filepath.Join(xdgConfigHome, appName)
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("cannot determine home directory: %w", err)
			}
			baseDir = filepath.Join(homeDir, ".config", appName)
		}
	}

	return baseDir, nil
}

// SetConfigPath makes every later load and save use path instead of the
// default location. An empty path restores the default.
func SetConfigPath(path string) {
	fileMutex.Lock()
	defer fileMutex.Unlock()
	pathOverride = path
	globalCatalogueOnce = sync.Once{}
}

// GetConfigPath returns the full path to the configuration file.
func GetConfigPath() (string, error) {
	if pathOverride != "" {
		return pathOverride, nil
	}
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFile), nil
}

// LoadCatalogue loads the vendor catalogue from disk.
// If the file doesn't exist, returns the built-in catalogue.
// Thread-safe - multiple calls will return the same instance.
func LoadCatalogue() (*Catalogue, error) {
	globalCatalogueOnce.Do(func() {
		path, err := GetConfigPath()
		if err != nil {
			globalCatalogue, globalCatalogueErr = nil, fmt.Errorf("failed to get config path: %w", err)
			return
		}
		globalCatalogue, globalCatalogueErr = LoadCatalogueFrom(path)
	})
	return globalCatalogue, globalCatalogueErr
}

// ReloadCatalogue reloads the catalogue from disk, discarding any in-memory changes.
func ReloadCatalogue() (*Catalogue, error) {
	fileMutex.Lock()
	globalCatalogueOnce = sync.Once{}
	fileMutex.Unlock()
	return LoadCatalogue()
}

// LoadCatalogueFrom reads and validates the catalogue at path. A missing
// file yields the built-in catalogue.
func LoadCatalogueFrom(path string) (*Catalogue, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return NewCatalogue(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var catalogue Catalogue
	if err := yaml.Unmarshal(data, &catalogue); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := catalogue.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	if catalogue.Preferences == nil {
		catalogue.Preferences = defaultPreferences()
	}

	return &catalogue, nil
}

// Save writes the catalogue to the configured path.
func (c *Catalogue) Save() error {
	path, err := GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	return c.SaveTo(path)
}

// SaveTo writes the catalogue to path.
// Performs an atomic write to prevent corruption on crash.
func (c *Catalogue) SaveTo(path string) error {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	// Create directory with user-only permissions (0700)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# printscout vendor catalogue
# Each vendor is matched by service names (mdns_names), manufacturer
# names in TXT records (vendor_names) or a TXT attribute test.
#
# Location: ` + path + `

`)
	data = append(header, data...)

	// Write to temporary file first (atomic write)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}

	return nil
}

// CreateDefaultConfig writes the built-in catalogue to the configured path.
// An existing file is left untouched unless force is set.
func CreateDefaultConfig(force bool) (string, error) {
	path, err := GetConfigPath()
	if err != nil {
		return "", fmt.Errorf("failed to get config path: %w", err)
	}
	if _, err := os.Stat(path); err == nil && !force {
		return path, fmt.Errorf("config file already exists: %s", path)
	}
	return path, NewCatalogue().SaveTo(path)
}
