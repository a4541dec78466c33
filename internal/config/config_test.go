package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvAPIKey, EnvBaseURL, EnvDatabase, EnvModel} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, time.Second, cfg.DelayDuration())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, t.TempDir(), "config.yaml", `
api_key: sk-file
language: English
delay: 2.5
limit: 10
include_types: [journalArticle, book]
export_statistics: false
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-file", cfg.APIKey)
	assert.Equal(t, "English", cfg.Language)
	assert.Equal(t, 2500*time.Millisecond, cfg.DelayDuration())
	assert.Equal(t, 10, cfg.Limit)
	assert.Equal(t, []string{"journalArticle", "book"}, cfg.IncludeTypes)
	assert.False(t, cfg.ExportStatistics, "file can turn statistics off")
	assert.Equal(t, 50, cfg.MaxPages, "unset keys keep defaults")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, t.TempDir(), "config.yaml", "api_key: sk-file\nmodel: gpt-4o-mini\n")
	t.Setenv(EnvAPIKey, "sk-env")
	t.Setenv(EnvDatabase, "/data/zotero.sqlite")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-env", cfg.APIKey)
	assert.Equal(t, "/data/zotero.sqlite", cfg.DatabasePath)
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
}

func TestLoad_BadYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", "limit: [not an int\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()
	base.IncludeTypes = []string{"book"}
	overlay := &Config{Model: "llama3", Limit: 5, ExportDetailed: true, ExcludeKeywords: []string{"erratum"}}

	got := Merge(base, overlay)
	assert.Equal(t, "llama3", got.Model)
	assert.Equal(t, 5, got.Limit)
	assert.True(t, got.ExportDetailed)
	assert.True(t, got.ExportStatistics)
	assert.Equal(t, []string{"book"}, got.IncludeTypes)
	assert.Equal(t, []string{"erratum"}, got.ExcludeKeywords)
	assert.Equal(t, "Chinese", got.Language)
	assert.Equal(t, "gpt-4o", base.Model, "base is not modified")
}

func TestValidate(t *testing.T) {
	ok := DefaultConfig()
	ok.APIKey = "sk"
	require.NoError(t, ok.Validate())

	ollama := DefaultConfig()
	ollama.Provider = "ollama"
	assert.NoError(t, ollama.Validate(), "ollama needs no key")

	lower := DefaultConfig()
	lower.APIKey = "sk"
	lower.Language = "english"
	assert.NoError(t, lower.Validate())

	bad := DefaultConfig()
	bad.Language = "Klingon"
	bad.MaxTokens = 0
	bad.Delay = -1
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
	assert.Contains(t, err.Error(), "Klingon")
	assert.Contains(t, err.Error(), "max_tokens")
	assert.Contains(t, err.Error(), "delay")
}

func TestRedactedAndExport(t *testing.T) {
	cfg := DefaultConfig()
	cfg.APIKey = "sk-secret"
	assert.Equal(t, RedactedKey, cfg.Redacted().APIKey)
	assert.Equal(t, "sk-secret", cfg.APIKey)

	path := filepath.Join(t.TempDir(), "sub", "export.yaml")
	require.NoError(t, Export(cfg, path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "sk-secret")
	assert.Contains(t, string(data), RedactedKey)
}

func TestImport(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, t.TempDir(), "shared.yaml", "api_key: "+RedactedKey+"\nlanguage: English\nmax_pages: 20\n")

	cfg, err := Import(dir, src)
	require.NoError(t, err)
	assert.Empty(t, cfg.APIKey)

	installed, err := LoadFile(UserPath(dir))
	require.NoError(t, err)
	assert.Equal(t, 20, installed.MaxPages)
	assert.Equal(t, "English", installed.Language)

	bad := writeFile(t, t.TempDir(), "bad.yaml", "language: Klingon\n")
	_, err = Import(dir, bad)
	assert.Error(t, err)
}

func TestImport_PartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, t.TempDir(), "partial.yaml", "model: gpt-4o-mini\nlanguage: English\nexport_statistics: false\n")

	_, err := Import(dir, src)
	require.NoError(t, err)

	clearEnv(t)
	t.Setenv(EnvAPIKey, "sk-test")
	cfg, err := Load(UserPath(dir))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	def := DefaultConfig()
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, "English", cfg.Language)
	assert.Equal(t, def.Provider, cfg.Provider)
	assert.Equal(t, def.BaseURL, cfg.BaseURL)
	assert.Equal(t, def.MaxPages, cfg.MaxPages)
	assert.Equal(t, def.MaxTokens, cfg.MaxTokens)
	assert.Equal(t, def.Delay, cfg.Delay)
	assert.False(t, cfg.ExportStatistics)
}

func TestReset(t *testing.T) {
	dir := t.TempDir()
	backup, err := Reset(dir, time.Unix(1700000000, 0))
	require.NoError(t, err)
	assert.Empty(t, backup)

	require.NoError(t, DefaultConfig().Save(UserPath(dir)))
	backup, err = Reset(dir, time.Unix(1700000000, 0))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.backup-1700000000.yaml"), backup)
	assert.NoFileExists(t, UserPath(dir))
	assert.FileExists(t, backup)
}

func TestSaveRecent(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.APIKey = "sk-secret"
	require.NoError(t, SaveRecent(dir, cfg))

	recent, err := LoadFile(RecentPath(dir))
	require.NoError(t, err)
	assert.Equal(t, RedactedKey, recent.APIKey)
}

func TestDir(t *testing.T) {
	t.Setenv(EnvHome, "/tmp/pd-home")
	assert.Equal(t, "/tmp/pd-home", Dir())
}
