// Package widget builds the compact "next events" view.
package widget

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/tartampluch/go-eventtracker/internal/config"
	"github.com/tartampluch/go-eventtracker/internal/engine"
	"github.com/tartampluch/go-eventtracker/internal/locale"
)

// Lister provides the events to display.
type Lister interface {
	List(ctx context.Context) ([]engine.Event, error)
}

// Row is one line of the widget.
type Row struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Age       string `json:"age"`
	Label     string `json:"label"`
	DaysUntil int    `json:"daysUntil"`
	Type      string `json:"type"`
	Level     string `json:"level"`
	Color     string `json:"color,omitempty"` // #AARRGGBB, empty when not highlighted
}

// View is the rendered widget. Empty holds the placeholder text when there are no rows.
type View struct {
	Rows  []Row  `json:"rows"`
	Empty string `json:"empty,omitempty"`
}

// Load fetches events with a short deadline and builds the view.
// A slow or failing source yields the empty view rather than an error.
func Load(ctx context.Context, src Lister, clock engine.Clock, loc *locale.Localizer) View {
	ctx, cancel := context.WithTimeout(ctx, config.WidgetLoadTimeout)
	defer cancel()

	events, err := src.List(ctx)
	if err != nil {
		slog.Warn(config.MsgWidgetLoad,
			config.LogKeyComponent, config.CompWidget,
			config.LogKeyError, err)
		events = nil
	}
	return Build(events, engine.Today(clock), loc)
}

// Build keeps the WidgetMaxRows closest events relative to today.
func Build(events []engine.Event, today engine.Date, loc *locale.Localizer) View {
	upcoming := engine.Upcoming(events, today)
	if len(upcoming) > config.WidgetMaxRows {
		upcoming = upcoming[:config.WidgetMaxRows]
	}

	view := View{Rows: make([]Row, 0, len(upcoming))}
	if len(upcoming) == 0 {
		view.Empty = loc.NoUpcoming()
		return view
	}

	for _, o := range upcoming {
		level := engine.Proximity(o.DaysUntil)
		row := Row{
			ID:        o.Event.ID,
			Name:      TruncateName(o.Event.Name),
			Age:       config.WidgetAgeUnknown,
			Label:     loc.DaysLabel(o.DaysUntil),
			DaysUntil: o.DaysUntil,
			Type:      string(o.Event.Category),
			Level:     level.String(),
		}
		if o.AgeKnown {
			row.Age = strconv.Itoa(o.Age)
		}
		if c := level.Color(); c != 0 {
			row.Color = fmt.Sprintf("#%08X", c)
		}
		view.Rows = append(view.Rows, row)
	}
	return view
}

// TruncateName shortens names longer than WidgetNameMaxLen runes.
func TruncateName(name string) string {
	r := []rune(name)
	if len(r) <= config.WidgetNameMaxLen {
		return name
	}
	return string(r[:config.WidgetNameMaxLen]) + config.WidgetEllipsis
}

// WriteText prints the view as aligned plain text.
func (v View) WriteText(w io.Writer) error {
	if len(v.Rows) == 0 {
		_, err := fmt.Fprintln(w, v.Empty)
		return err
	}
	var b strings.Builder
	for _, r := range v.Rows {
		fmt.Fprintf(&b, config.FormatWidgetRow, r.Name, r.Age, r.Label)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
