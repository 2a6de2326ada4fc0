package transfer

import "github.com/tartampluch/go-eventtracker/internal/config"

// FormatError reports transfer text that does not have the expected shape,
// or a date that is not in YYYY-MM-DD form. No records are returned with it.
type FormatError struct {
	Err error
}

func (e *FormatError) Error() string {
	return config.ErrTransferFormat + ": " + e.Err.Error()
}

func (e *FormatError) Unwrap() error { return e.Err }

// IOError reports a failed read or write of a transfer file.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return config.ErrTransferIO + ": " + e.Path + ": " + e.Err.Error()
}

func (e *IOError) Unwrap() error { return e.Err }
