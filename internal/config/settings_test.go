package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-eventtracker/internal/config"
)

func TestLoadSettings_FirstRunCreatesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", config.SettingsFileName)

	s, err := config.LoadSettings(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "nested", config.DatabaseFileName), s.DatabasePath)
	assert.Equal(t, config.DefaultPort, s.Port)
	assert.Equal(t, config.DefaultRefreshCron, s.RefreshCron)

	info, err := os.Stat(path)
	require.NoError(t, err, "Default settings must be persisted")
	assert.Equal(t, config.FilePermUserRW, info.Mode().Perm())
}

func TestLoadSettings_YAMLAndTOML(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name:    "YAML",
			file:    "settings.yaml",
			content: "port: \"19000\"\nlanguage: fr\nvcard:\n  mode: web\n  url: https://dav.example.com/\n",
		},
		{
			name:    "TOML",
			file:    "settings.toml",
			content: "port = \"19000\"\nlanguage = \"fr\"\n[vcard]\nmode = \"web\"\nurl = \"https://dav.example.com/\"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, tt.file)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), config.FilePermUserRW))

			s, err := config.LoadSettings(path)
			require.NoError(t, err)

			assert.Equal(t, "19000", s.Port)
			assert.Equal(t, "fr", s.Language)
			assert.Equal(t, config.SourceModeWeb, s.VCard.Mode)
			assert.Equal(t, "https://dav.example.com/", s.VCard.URL)
			// Missing fields are normalized.
			assert.Equal(t, filepath.Join(dir, config.ExportDirName), s.ExportDir)
		})
	}
}

func TestLoadSettings_UnsupportedLanguageFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yml")
	require.NoError(t, os.WriteFile(path, []byte("language: xx\n"), config.FilePermUserRW))

	s, err := config.LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultLanguage, s.Language)
}

func TestLoadSettings_Errors(t *testing.T) {
	_, err := config.LoadSettings("")
	assert.EqualError(t, err, config.ErrSettingsPath)

	path := filepath.Join(t.TempDir(), "settings.ini")
	require.NoError(t, os.WriteFile(path, []byte("port=1"), config.FilePermUserRW))
	_, err = config.LoadSettings(path)
	assert.ErrorContains(t, err, config.ErrSettingsFormat)

	bad := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("port: [unclosed"), config.FilePermUserRW))
	_, err = config.LoadSettings(bad)
	assert.ErrorContains(t, err, config.ErrSettingsLoad)
}

func TestSaveSettings_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	in := config.DefaultSettings(filepath.Dir(path))
	in.ReminderTrigger = "-P1D"
	in.VCard.Username = "alice"

	require.NoError(t, config.SaveSettings(path, in))

	out, err := config.LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	assert.EqualError(t, config.SaveSettings(path, nil), config.ErrSettingsNil)
}

func TestApplyEnv_Overrides(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(config.EnvExportDir+"=/from/dotenv\n"), config.FilePermUserRW))

	t.Setenv(config.EnvPort, "18999")
	t.Setenv(config.EnvDatabasePath, filepath.Join(dir, "other.db"))

	s := config.DefaultSettings(dir)
	s.ApplyEnv(envFile)

	assert.Equal(t, "18999", s.Port)
	assert.Equal(t, filepath.Join(dir, "other.db"), s.DatabasePath)
	assert.Equal(t, "/from/dotenv", s.ExportDir)

	// godotenv.Load sets process variables; clean up for other tests.
	require.NoError(t, os.Unsetenv(config.EnvExportDir))
}

func TestValidatePort(t *testing.T) {
	tests := []struct {
		port string
		want string
	}{
		{"", config.ErrPortRequired},
		{"abc", config.ErrPortNumber},
		{"0", config.ErrPortRange},
		{"65536", config.ErrPortRange},
	}
	for _, tt := range tests {
		t.Run(tt.port, func(t *testing.T) {
			assert.EqualError(t, config.ValidatePort(tt.port), tt.want)
		})
	}
	assert.NoError(t, config.ValidatePort("8080"))
}
