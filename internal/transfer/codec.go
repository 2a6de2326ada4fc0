// Package transfer converts events to and from the JSON backup format.
package transfer

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tartampluch/go-eventtracker/internal/config"
	"github.com/tartampluch/go-eventtracker/internal/engine"
)

// record is the on-disk shape of an event. There is no schema version.
type record struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Date      string `json:"date"`
	Type      string `json:"type"`
	YearKnown bool   `json:"yearKnown"`
}

// Serialize renders events as a pretty-printed JSON array.
// Dates are YYYY-MM-DD and categories use their tag names.
func Serialize(events []engine.Event) ([]byte, error) {
	recs := make([]record, 0, len(events))
	for _, ev := range events {
		recs = append(recs, record{
			ID:        ev.ID,
			Name:      ev.Name,
			Date:      ev.Date.String(),
			Type:      string(ev.Category),
			YearKnown: ev.YearKnown,
		})
	}

	data, err := json.MarshalIndent(recs, "", config.JSONIndent)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrTransferEncode, err)
	}
	return data, nil
}

// Deserialize parses transfer text. Any malformed element fails the whole
// batch with a *FormatError. Unknown types are read as BIRTHDAY.
func Deserialize(data []byte) ([]engine.Event, error) {
	var recs []record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, &FormatError{Err: err}
	}
	// A JSON null leaves recs nil; an empty array does not.
	if recs == nil {
		return nil, &FormatError{Err: errors.New(config.ErrTransferShape)}
	}

	events := make([]engine.Event, 0, len(recs))
	for i, r := range recs {
		date, err := engine.ParseDate(r.Date)
		if err != nil {
			return nil, &FormatError{Err: fmt.Errorf("element %d: %w", i, err)}
		}
		category, _ := engine.ParseCategory(r.Type)
		events = append(events, engine.Event{
			ID:        r.ID,
			Name:      r.Name,
			Date:      date,
			Category:  category,
			YearKnown: r.YearKnown,
		})
	}
	return events, nil
}
