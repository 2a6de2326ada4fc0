package transfer

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tartampluch/go-eventtracker/internal/config"
	"github.com/tartampluch/go-eventtracker/internal/engine"
)

// ExportFileName returns the backup file name for day, e.g. Events_2024-06-15.json.
func ExportFileName(day engine.Date) string {
	return config.ExportFilePrefix + day.String() + config.ExportFileExt
}

// WriteExport stores data in dir under the name for day and returns the full path.
// A previous export of the same day is replaced. The write is atomic so a
// failure never leaves a truncated backup behind.
func WriteExport(dir string, day engine.Date, data []byte) (string, error) {
	path := filepath.Join(dir, ExportFileName(day))

	if err := os.MkdirAll(dir, config.DirPermUserRWX); err != nil {
		return "", &IOError{Path: dir, Err: err}
	}
	if err := config.WriteFileAtomic(dir, config.ExportTempGlob, path, data, config.FilePermExport); err != nil {
		return "", &IOError{Path: path, Err: err}
	}

	slog.Debug(config.MsgExported,
		config.LogKeyComponent, config.CompTransfer,
		config.LogKeyPath, path,
		config.LogKeySizeBytes, len(data))
	return path, nil
}

// ReadImport reads a whole transfer file.
func ReadImport(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	return data, nil
}
