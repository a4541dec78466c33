package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// EnvHome overrides the settings directory.
	EnvHome = "PAPER_DIGEST_HOME"

	userFile   = "config.yaml"
	recentFile = "recent.yaml"
)

// Dir returns the settings directory, ~/.paper-digest by default.
func Dir() string {
	if d := os.Getenv(EnvHome); d != "" {
		return d
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".paper-digest"
	}
	return filepath.Join(home, ".paper-digest")
}

// UserPath returns the user config file inside dir.
func UserPath(dir string) string {
	return filepath.Join(dir, userFile)
}

// RecentPath returns the file holding the last run's settings.
func RecentPath(dir string) string {
	return filepath.Join(dir, recentFile)
}

// SaveRecent records the effective settings of a run, with the API key
// masked.
func SaveRecent(dir string, c *Config) error {
	return c.Redacted().Save(RecentPath(dir))
}

// Export writes c to path with the API key masked.
func Export(c *Config, path string) error {
	return c.Redacted().Save(path)
}

// Import validates the YAML file at src and installs it as the user config
// in dir. The file is read over the defaults, so settings it leaves out keep
// their default values. A redacted API key is dropped so the environment can
// supply it.
func Import(dir, src string) (*Config, error) {
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", src, err)
	}
	imported := DefaultConfig()
	if err := yaml.Unmarshal(data, imported); err != nil {
		return nil, fmt.Errorf("import %s: %w", src, err)
	}
	if imported.APIKey == RedactedKey {
		imported.APIKey = ""
	}

	check := *imported
	if check.APIKey == "" {
		check.APIKey = RedactedKey
	}
	if err := check.Validate(); err != nil {
		return nil, fmt.Errorf("import %s: %w", src, err)
	}

	if err := imported.Save(UserPath(dir)); err != nil {
		return nil, err
	}
	return imported, nil
}

// Reset moves the user config aside as config.backup-<unix>.yaml and
// returns the backup path, or "" when there was nothing to reset.
func Reset(dir string, now time.Time) (string, error) {
	path := UserPath(dir)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return "", nil
	}
	backup := filepath.Join(dir, "config.backup-"+strconv.FormatInt(now.Unix(), 10)+".yaml")
	if err := os.Rename(path, backup); err != nil {
		return "", fmt.Errorf("back up config: %w", err)
	}
	return backup, nil
}
