package main

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-eventtracker/internal/config"
	"github.com/tartampluch/go-eventtracker/internal/engine"
	"github.com/tartampluch/go-eventtracker/internal/transfer"
	"github.com/zalando/go-keyring"
)

// cli runs one subcommand against a settings file in dir.
func cli(t *testing.T, dir string, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := run(context.Background(), filepath.Join(dir, config.SettingsFileName), args, strings.NewReader(stdin), &out)
	return out.String(), err
}

func TestCLI_AddListEditDelete(t *testing.T) {
	dir := t.TempDir()
	tomorrow := time.Now().AddDate(0, 0, 1)
	if tomorrow.Month() == time.February && tomorrow.Day() == 29 {
		t.Skip("Leap day makes the expected label ambiguous")
	}
	date := time.Date(1990, tomorrow.Month(), tomorrow.Day(), 0, 0, 0, 0, time.UTC)

	out, err := cli(t, dir, "", config.CmdAdd, "-name", "Ada", "-date", date.Format(config.DateFormatISO))
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)

	out, err = cli(t, dir, "", config.CmdList)
	require.NoError(t, err)
	assert.Contains(t, out, "Ada")
	assert.Contains(t, out, "Tomorrow")
	assert.Contains(t, out, "Birthday")

	_, err = cli(t, dir, "", config.CmdEdit, "-id", "1", "-name", "Ada L.", "-date", "2000-01-01", "-type", "ANNIVERSARY", "-no-year")
	require.NoError(t, err)

	out, err = cli(t, dir, "", config.CmdList)
	require.NoError(t, err)
	assert.Contains(t, out, "Ada L.")
	assert.Contains(t, out, "Anniversary")
	assert.Contains(t, out, config.WidgetAgeUnknown)

	_, err = cli(t, dir, "", config.CmdDelete, "-id", "1")
	require.NoError(t, err)

	out, err = cli(t, dir, "", config.CmdWidget)
	require.NoError(t, err)
	assert.Equal(t, config.FallbackNoUpcoming+"\n", out)
}

func TestCLI_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := cli(t, dir, "")
	assert.Error(t, err)

	_, err = cli(t, dir, "", "frobnicate")
	assert.ErrorContains(t, err, config.ErrUnknownCommand)

	_, err = cli(t, dir, "", config.CmdAdd, "-date", "2000-01-01")
	assert.ErrorContains(t, err, config.ErrMissingArg)

	_, err = cli(t, dir, "", config.CmdAdd, "-name", "X", "-date", "2000-01-01", "-type", "WEDDING")
	assert.ErrorContains(t, err, config.ErrCategoryUnknown)

	_, err = cli(t, dir, "", config.CmdDelete)
	assert.ErrorContains(t, err, config.ErrInvalidID)
}

func TestCLI_ExportImport(t *testing.T) {
	dir := t.TempDir()

	_, err := cli(t, dir, "", config.CmdAdd, "-name", "Bob", "-date", "1990-01-01")
	require.NoError(t, err)

	out, err := cli(t, dir, "", config.CmdExport)
	require.NoError(t, err)
	expected := filepath.Join(dir, config.ExportDirName, transfer.ExportFileName(engine.Today(engine.RealClock{})))
	assert.Equal(t, "Data exported to: "+expected+"\n", out)

	out, err = cli(t, dir, "", config.CmdImport, "-file", expected)
	require.NoError(t, err)
	assert.Equal(t, "Import successful: 0 events imported\n", out)

	other := t.TempDir()
	out, err = cli(t, other, "", config.CmdImport, expected)
	require.NoError(t, err)
	assert.Equal(t, "Import successful: 1 event imported\n", out)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`[{"date":"yesterday"}]`), config.FilePermUserRW))
	out, err = cli(t, dir, "", config.CmdImport, bad)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(out, "Import failed: "), out)
}

func TestCLI_VCardAndPassword(t *testing.T) {
	keyring.MockInit()
	dir := t.TempDir()

	out, err := cli(t, dir, "s3cret\n", config.CmdSetPassword, "-user", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, strings.TrimSpace(config.MsgPasswordSaved))

	pass, err := keyring.Get(config.KeyringService, "alice")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", pass)

	vcf := filepath.Join(dir, "contacts.vcf")
	content := "BEGIN:VCARD\nVERSION:3.0\nFN:Grace Hopper\nBDAY:1906-12-09\nEND:VCARD\n"
	require.NoError(t, os.WriteFile(vcf, []byte(content), config.FilePermUserRW))

	out, err = cli(t, dir, "", config.CmdImportVCard, "-file", vcf)
	require.NoError(t, err)
	assert.Equal(t, "Import successful: 1 event imported\n", out)

	out, err = cli(t, dir, "", config.CmdList)
	require.NoError(t, err)
	assert.Contains(t, out, "Grace Hopper")
}

func TestCLI_VCardRejectedCredentials(t *testing.T) {
	keyring.MockInit()
	dir := t.TempDir()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	out, err := cli(t, dir, "", config.CmdImportVCard, "-url", ts.URL, "-user", "nobody")
	require.Error(t, err)
	assert.ErrorContains(t, err, config.ErrFetchAuth)
	assert.True(t, strings.HasPrefix(out, "Import failed: "), out)
}

func TestCLI_SettingsCreatedOnFirstRun(t *testing.T) {
	dir := t.TempDir()
	_, err := cli(t, dir, "", config.CmdList)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, config.SettingsFileName))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, config.DatabaseFileName))
	assert.NoError(t, err)
}

func TestPrintVersion(t *testing.T) {
	var out bytes.Buffer
	printVersion(&out)
	assert.True(t, strings.HasPrefix(out.String(), config.AppName+" version "+config.Version), out.String())
}

func TestNewLogger_WritesFileAndConsole(t *testing.T) {
	cache := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", cache)
	t.Setenv("HOME", cache)

	var console bytes.Buffer
	logger, closer := newLogger(&console, true)
	require.NotNil(t, closer)

	logger.Debug("debug line", config.LogKeyComponent, config.CompMain)
	require.NoError(t, closer.Close())

	assert.Contains(t, console.String(), `"component":"main"`)

	path, err := logFilePath()
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"level":"DEBUG"`)
}

func TestNewLogger_QuietConsoleByDefault(t *testing.T) {
	cache := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", cache)
	t.Setenv("HOME", cache)

	logger, closer := newLogger(nil, false)
	require.NotNil(t, closer)
	defer func() { _ = closer.Close() }()

	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelInfo))
}
