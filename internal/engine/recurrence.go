package engine

import (
	"sort"

	"github.com/tartampluch/go-eventtracker/internal/config"
)

// Occurrence is an event projected onto its next yearly occurrence.
type Occurrence struct {
	Event Event

	// Next is the date of the next occurrence (today counts as next).
	Next Date

	// DaysUntil is the number of days from the reference date to Next.
	DaysUntil int

	// Age is the number of years reached on Next. Only valid if AgeKnown.
	Age      int
	AgeKnown bool
}

// OccurrenceIn returns the date on which the event is observed in year.
// Feb 29 falls back to March 1 in years without a leap day.
func OccurrenceIn(original Date, year int) Date {
	candidate := Date{Year: year, Month: original.Month, Day: original.Day}
	if !candidate.IsValid() {
		candidate = Date{Year: year, Month: config.FallbackMonth, Day: config.FallbackDay}
	}
	return candidate
}

// nextOccurrence projects original onto ref's year and rolls it forward one
// year when it has already passed.
func nextOccurrence(original, ref Date) Date {
	candidate := OccurrenceIn(original, ref.Year)
	if candidate.Before(ref) {
		candidate = candidate.AddYears(1)
	}
	return candidate
}

// DaysUntilNextOccurrence returns the number of days from ref to the next
// occurrence of the event's month/day. It is 0 when the occurrence is ref.
func DaysUntilNextOccurrence(ev Event, ref Date) int {
	return ref.DaysUntil(nextOccurrence(ev.Date, ref))
}

// AgeAtNextOccurrence returns the number of years reached on the next
// occurrence. The boolean is false when the original year is a placeholder.
//
// An event whose original date is later in ref's own year yields 0: the
// occurrence that is still ahead is the original event itself.
func AgeAtNextOccurrence(ev Event, ref Date) (int, bool) {
	if !ev.YearKnown {
		return 0, false
	}
	return nextOccurrence(ev.Date, ref).Year - ev.Date.Year, true
}

// Project computes the derived display values of ev relative to ref.
func Project(ev Event, ref Date) Occurrence {
	age, known := AgeAtNextOccurrence(ev, ref)
	return Occurrence{
		Event:     ev,
		Next:      nextOccurrence(ev.Date, ref),
		DaysUntil: DaysUntilNextOccurrence(ev, ref),
		Age:       age,
		AgeKnown:  known,
	}
}

// Upcoming projects every event and sorts them by proximity to ref.
// Ties keep the input order.
func Upcoming(events []Event, ref Date) []Occurrence {
	out := make([]Occurrence, 0, len(events))
	for _, ev := range events {
		out = append(out, Project(ev, ref))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DaysUntil < out[j].DaysUntil
	})
	return out
}
