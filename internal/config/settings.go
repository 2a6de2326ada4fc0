package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// VCardSource describes where `import-vcard` reads contacts from when no
// explicit file or URL is given on the command line.
type VCardSource struct {
	Mode      string `yaml:"mode" toml:"mode"`
	LocalPath string `yaml:"local_path" toml:"local_path"`
	URL       string `yaml:"url" toml:"url"`
	Username  string `yaml:"username" toml:"username"`
}

// Settings is the user-editable configuration file.
type Settings struct {
	// DatabasePath is the SQLite file holding the events.
	DatabasePath string `yaml:"database_path" toml:"database_path"`

	// ExportDir receives Events_<date>.json backups.
	ExportDir string `yaml:"export_dir" toml:"export_dir"`

	// Port is the localhost port of the HTTP server.
	Port string `yaml:"port" toml:"port"`

	// Language is an ISO 639-1 code; see SupportedLanguages.
	Language string `yaml:"language" toml:"language"`

	// RefreshCron is a cron schedule (robfig/cron syntax) for re-rendering the feed.
	RefreshCron string `yaml:"refresh" toml:"refresh"`

	// ReminderTrigger is an optional ISO 8601 duration (e.g. "-P1D") added
	// as a VALARM to every feed event.
	ReminderTrigger string `yaml:"reminder_trigger,omitempty" toml:"reminder_trigger,omitempty"`

	VCard VCardSource `yaml:"vcard" toml:"vcard"`
}

// DefaultSettings returns settings rooted in the given data directory.
func DefaultSettings(dataDir string) *Settings {
	return &Settings{
		DatabasePath: filepath.Join(dataDir, DatabaseFileName),
		ExportDir:    filepath.Join(dataDir, ExportDirName),
		Port:         DefaultPort,
		Language:     DefaultLanguage,
		RefreshCron:  DefaultRefreshCron,
		VCard:        VCardSource{Mode: SourceModeLocal},
	}
}

// Normalize fills zero values so that partially written files still work.
func (s *Settings) Normalize(dataDir string) {
	def := DefaultSettings(dataDir)
	if s.DatabasePath == "" {
		s.DatabasePath = def.DatabasePath
	}
	if s.ExportDir == "" {
		s.ExportDir = def.ExportDir
	}
	if s.Port == "" {
		s.Port = def.Port
	}
	if s.RefreshCron == "" {
		s.RefreshCron = def.RefreshCron
	}
	if s.VCard.Mode == "" {
		s.VCard.Mode = def.VCard.Mode
	}

	supported := false
	for _, l := range SupportedLanguages {
		if s.Language == l {
			supported = true
			break
		}
	}
	if !supported {
		s.Language = DefaultLanguage
	}
}

// Validate checks values that cannot be defaulted silently.
func (s *Settings) Validate() error {
	return ValidatePort(s.Port)
}

// ValidatePort checks that port is a number within the TCP range.
func ValidatePort(port string) error {
	if port == "" {
		return errors.New(ErrPortRequired)
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return errors.New(ErrPortNumber)
	}
	if n < MinPort || n > MaxPort {
		return errors.New(ErrPortRange)
	}
	return nil
}

// LoadSettings reads the settings file at path.
//
// On first run the file does not exist: a default file is written with 0600
// permissions and the defaults are returned. Relative defaults are resolved
// against the directory that holds the settings file.
func LoadSettings(path string) (*Settings, error) {
	if path == "" {
		return nil, errors.New(ErrSettingsPath)
	}
	dataDir := filepath.Dir(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s := DefaultSettings(dataDir)
			if err := SaveSettings(path, s); err != nil {
				return s, err
			}
			slog.Info(MsgSettingsNew,
				LogKeyComponent, CompSettings,
				LogKeyPath, path)
			return s, nil
		}
		return nil, fmt.Errorf("%s: %w", ErrSettingsLoad, err)
	}

	var s Settings
	if err := unmarshalSettings(path, data, &s); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrSettingsLoad, err)
	}
	s.Normalize(dataDir)

	return &s, nil
}

// SaveSettings writes s to path atomically (temp file + rename, 0600).
func SaveSettings(path string, s *Settings) error {
	if path == "" {
		return errors.New(ErrSettingsPath)
	}
	if s == nil {
		return errors.New(ErrSettingsNil)
	}

	dir := filepath.Dir(path)
	s.Normalize(dir)

	if err := os.MkdirAll(dir, DirPermUserRWX); err != nil {
		return fmt.Errorf("%s: %w", ErrSettingsSave, err)
	}

	data, err := marshalSettings(path, s)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrSettingsSave, err)
	}

	if err := WriteFileAtomic(dir, SettingsTmpGlob, path, data, FilePermUserRW); err != nil {
		return fmt.Errorf("%s: %w", ErrSettingsSave, err)
	}
	return nil
}

// WriteFileAtomic writes data to a temp file in dir and renames it over target.
// Readers observe either the previous content or the new one.
func WriteFileAtomic(dir, pattern, target string, data []byte, perm fs.FileMode) error {
	tmp, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return err
	}
	return os.Rename(tmpName, target)
}

// ApplyEnv overrides settings from a .env file (if present) and the process
// environment. Process variables win over the .env file.
func (s *Settings) ApplyEnv(envFile string) {
	// A missing .env is the normal case.
	_ = godotenv.Load(envFile)

	if v := os.Getenv(EnvDatabasePath); v != "" {
		s.DatabasePath = v
	}
	if v := os.Getenv(EnvExportDir); v != "" {
		s.ExportDir = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		s.Port = v
	}
	if v := os.Getenv(EnvLanguage); v != "" {
		s.Language = v
	}
	if v := os.Getenv(EnvRefreshCron); v != "" {
		s.RefreshCron = v
	}
}

// DefaultSettingsPath returns <user config dir>/<AppID>/settings.yaml.
func DefaultSettingsPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("%s: %w", ErrConfigDir, err)
	}
	return filepath.Join(dir, AppID, SettingsFileName), nil
}

func unmarshalSettings(path string, data []byte, s *Settings) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ExtYAML, ExtYML:
		return yaml.Unmarshal(data, s)
	case ExtTOML:
		return toml.Unmarshal(data, s)
	default:
		return fmt.Errorf("%s: %q", ErrSettingsFormat, filepath.Ext(path))
	}
}

func marshalSettings(path string, s *Settings) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ExtYAML, ExtYML:
		return yaml.Marshal(s)
	case ExtTOML:
		return toml.Marshal(s)
	default:
		return nil, fmt.Errorf("%s: %q", ErrSettingsFormat, filepath.Ext(path))
	}
}
