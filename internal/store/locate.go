package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// DatabaseFile is the name of the Zotero database inside its data directory.
const DatabaseFile = "zotero.sqlite"

// candidatePaths lists the usual database locations, most common first.
func candidatePaths() []string {
	home, _ := os.UserHomeDir()
	paths := []string{filepath.Join(home, "Zotero", DatabaseFile)}
	if appData := os.Getenv("APPDATA"); appData != "" {
		paths = append(paths, filepath.Join(appData, "Zotero", "Zotero", DatabaseFile))
	}
	return append(paths,
		filepath.Join(home, "Documents", "Zotero", DatabaseFile),
		filepath.Join(home, ".zotero", DatabaseFile),
	)
}

// FindDatabase returns the first existing database in the usual locations.
func FindDatabase() (string, error) {
	for _, p := range candidatePaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: no %s in the default locations, set database_path", ErrDatabaseNotFound, DatabaseFile)
}

// DataDir returns the Zotero data directory for a database path. Managed
// attachments live under <DataDir>/storage.
func DataDir(dbPath string) string {
	return filepath.Dir(dbPath)
}
