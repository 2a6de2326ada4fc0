package engine

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
	"github.com/tartampluch/go-eventtracker/internal/config"
)

// Generator renders events into an iCalendar feed.
type Generator struct {
	Clock Clock // Interface for time mocking.

	// ReminderTrigger is an optional ISO 8601 duration (e.g. "-P1D").
	ReminderTrigger string

	// FormatSummary allows the caller to inject localized strings into the logic layer.
	// age is only meaningful when ageKnown is true.
	FormatSummary func(ev Event, age int, ageKnown bool) string
}

// Render builds the feed and returns it with the number of events occurring today.
// Events are emitted for the previous, current and next year so that calendar
// clients scrolling around "now" see them without a refresh.
func (g *Generator) Render(events []Event) ([]byte, int, error) {
	cal := ical.NewCalendar()

	cal.Props.SetText(config.PropVersion, config.ICalVersion)
	cal.Props.SetText(config.PropProdid, config.ICalProdid)
	cal.Props.SetText(config.PropXWRCalName, config.ICalCalName)
	cal.Props.SetText(config.PropCalScale, config.ICalScale)
	cal.Props.SetText(config.PropMethod, config.ICalMethod)

	// RFC 7986: Suggest a refresh interval.
	refreshProp := ical.NewProp(config.PropRefresh)
	refreshProp.SetDuration(config.DefaultICalRefresh)
	cal.Props.Set(refreshProp)

	// Local calendar date for logic, UTC only for stamping.
	now := g.Clock.Now()
	today := DateOf(now)
	dtStampProp := ical.NewProp(config.PropDTStamp)
	dtStampProp.SetDateTime(now.UTC())

	countToday := 0
	for _, ev := range events {
		vevents, isToday := g.createEvents(ev, today)
		if isToday {
			countToday++
			slog.Info(config.MsgEventToday,
				config.LogKeyComponent, config.CompEngine,
				config.LogKeyName, ev.Name,
				config.LogKeyDate, ev.Date.String())
		}
		for _, e := range vevents {
			e.Props.Set(dtStampProp)
			cal.Children = append(cal.Children, e.Component)
		}
	}

	// An empty VCALENDAR would be rejected by the encoder; clients still need a valid feed.
	if len(cal.Children) == 0 {
		g.logSuccess(len(events), 0)
		return []byte(config.StubVCalendar), 0, nil
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", config.ErrICalEncode, err)
	}

	g.logSuccess(len(events), countToday)
	return buf.Bytes(), countToday, nil
}

func (g *Generator) logSuccess(total, today int) {
	slog.Info(config.MsgGenSuccess,
		config.LogKeyComponent, config.CompEngine,
		slog.Group(config.LogKeyStats,
			slog.Int(config.LogKeyTotal, total),
			slog.Int(config.LogKeyToday, today),
		),
	)
}

// createEvents generates all-day events for today.Year-1 .. today.Year+1.
// Years before a known original year are skipped.
func (g *Generator) createEvents(ev Event, today Date) ([]*ical.Event, bool) {
	uidBase := eventUID(ev)
	targetYears := []int{today.Year - 1, today.Year, today.Year + 1}

	var out []*ical.Event
	isToday := false

	for _, y := range targetYears {
		if ev.YearKnown && y < ev.Date.Year {
			continue
		}

		date := OccurrenceIn(ev.Date, y)
		if date == today {
			isToday = true
		}

		age := 0
		if ev.YearKnown {
			age = y - ev.Date.Year
		}

		summary := fallbackSummary(ev, age, ev.YearKnown)
		if g.FormatSummary != nil {
			summary = g.FormatSummary(ev, age, ev.YearKnown)
		}

		e := ical.NewEvent()
		e.Props.SetText(config.PropUID, fmt.Sprintf("%s-%d@%s", uidBase, y, config.ICalDomain))
		e.Props.SetText(config.PropSummary, summary)
		e.Props.SetText(config.PropCategories, string(ev.Category))

		dtStartProp := ical.NewProp(config.PropDTStart)
		dtStartProp.SetDate(date.Time())
		e.Props.Set(dtStartProp)

		if g.ReminderTrigger != "" {
			addAlarm(e, g.ReminderTrigger, summary)
		}

		out = append(out, e)
	}
	return out, isToday
}

// eventUID is stable across refreshes and store migrations as long as the
// event keeps its identity.
func eventUID(ev Event) string {
	input := fmt.Sprintf(config.FormatHashInput, ev.Name, ev.Date, config.UIDSalt, ev.ID)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(input)).String()
}

// addAlarm appends a DISPLAY alarm to the event.
func addAlarm(event *ical.Event, trigger, description string) {
	alarm := ical.NewComponent(config.ICalComponent)
	alarm.Props.SetText(config.PropAction, config.ICalAction)
	alarm.Props.SetText(config.PropDescription, description)

	// Set trigger manually to avoid "VALUE=TEXT" param
	triggerProp := ical.NewProp(config.PropTrigger)
	triggerProp.Value = trigger
	alarm.Props.Set(triggerProp)

	event.Children = append(event.Children, alarm)
}

func fallbackSummary(ev Event, age int, ageKnown bool) string {
	label := config.FallbackBirthday
	if ev.Category == Anniversary {
		label = config.FallbackAnniversary
	}
	if ageKnown && age > 0 {
		return fmt.Sprintf(config.FallbackSummaryAge, label, ev.Name, age)
	}
	return fmt.Sprintf(config.FallbackSummary, label, ev.Name)
}
