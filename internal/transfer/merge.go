package transfer

import "github.com/tartampluch/go-eventtracker/internal/engine"

// Merge splits incoming into the events that are not already present and
// the duplicates that were dropped.
// An event is a duplicate when another one has the same name and the same
// original date; identifiers are ignored. Duplicates inside incoming are
// skipped too. Fresh events have a zero ID so the store assigns a new one.
func Merge(existing, incoming []engine.Event) (fresh, dropped []engine.Event) {
	type key struct {
		name string
		date engine.Date
	}

	seen := make(map[key]struct{}, len(existing)+len(incoming))
	for _, ev := range existing {
		seen[key{ev.Name, ev.Date}] = struct{}{}
	}

	for _, ev := range incoming {
		k := key{ev.Name, ev.Date}
		if _, dup := seen[k]; dup {
			dropped = append(dropped, ev)
			continue
		}
		seen[k] = struct{}{}
		ev.ID = 0
		fresh = append(fresh, ev)
	}
	return fresh, dropped
}
