// Package tracker wires the store, the recurrence engine and the transfer
// codec into the operations exposed by the CLI and the HTTP API.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tartampluch/go-eventtracker/internal/config"
	"github.com/tartampluch/go-eventtracker/internal/engine"
	"github.com/tartampluch/go-eventtracker/internal/store"
	"github.com/tartampluch/go-eventtracker/internal/transfer"
)

// ErrInvalidEvent wraps validation failures of user-supplied events.
var ErrInvalidEvent = errors.New(config.ErrInvalidEvent)

// VCardSource reads events from a vCard collection.
type VCardSource interface {
	Read(ctx context.Context, cfg engine.SourceConfig) ([]engine.Event, error)
}

// Service is safe for concurrent use as long as Store is.
type Service struct {
	Store     store.Store
	Clock     engine.Clock
	ExportDir string
	VCards    VCardSource

	// OnChange, if set, is called after every successful mutation.
	OnChange func()
}

// Events returns every stored event, unordered.
func (s *Service) Events(ctx context.Context) ([]engine.Event, error) {
	return s.Store.List(ctx)
}

// Upcoming returns the events sorted by days until their next occurrence.
func (s *Service) Upcoming(ctx context.Context) ([]engine.Occurrence, error) {
	events, err := s.Store.List(ctx)
	if err != nil {
		return nil, err
	}
	return engine.Upcoming(events, engine.Today(s.Clock)), nil
}

// Add validates and stores a new event. Any identifier on ev is ignored.
func (s *Service) Add(ctx context.Context, ev engine.Event) (engine.Event, error) {
	if err := ev.Validate(); err != nil {
		return engine.Event{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	ev.ID = 0
	created, err := s.Store.Insert(ctx, ev)
	if err != nil {
		return engine.Event{}, err
	}
	s.log().Info(config.MsgEventCreated,
		config.LogKeyID, created.ID,
		config.LogKeyName, created.Name)
	s.changed()
	return created, nil
}

// Edit replaces the stored event with the same identifier.
func (s *Service) Edit(ctx context.Context, ev engine.Event) error {
	if err := ev.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if err := s.Store.Update(ctx, ev); err != nil {
		return err
	}
	s.log().Info(config.MsgEventUpdated, config.LogKeyID, ev.ID)
	s.changed()
	return nil
}

// Remove deletes one event.
func (s *Service) Remove(ctx context.Context, id int64) error {
	if err := s.Store.Delete(ctx, id); err != nil {
		return err
	}
	s.log().Info(config.MsgEventDeleted, config.LogKeyID, id)
	s.changed()
	return nil
}

// RemoveAll deletes every event.
func (s *Service) RemoveAll(ctx context.Context) error {
	if err := s.Store.DeleteAll(ctx); err != nil {
		return err
	}
	s.log().Info(config.MsgEventsCleared)
	s.changed()
	return nil
}

// ExportText serializes every stored event.
func (s *Service) ExportText(ctx context.Context) ([]byte, error) {
	events, err := s.Store.List(ctx)
	if err != nil {
		return nil, err
	}
	return transfer.Serialize(events)
}

// Export writes today's backup file into ExportDir and returns its path.
func (s *Service) Export(ctx context.Context) (string, error) {
	data, err := s.ExportText(ctx)
	if err != nil {
		return "", err
	}
	path, err := transfer.WriteExport(s.ExportDir, engine.Today(s.Clock), data)
	if err != nil {
		return "", err
	}
	s.log().Info(config.MsgExported, config.LogKeyPath, path)
	return path, nil
}

// Import reads a backup file and adds the events that are not already present.
// It returns the number of events added.
func (s *Service) Import(ctx context.Context, path string) (int, error) {
	data, err := transfer.ReadImport(path)
	if err != nil {
		return 0, err
	}
	return s.ImportText(ctx, data)
}

// ImportText is Import on in-memory transfer text.
func (s *Service) ImportText(ctx context.Context, data []byte) (int, error) {
	incoming, err := transfer.Deserialize(data)
	if err != nil {
		return 0, err
	}
	for i, ev := range incoming {
		if err := ev.Validate(); err != nil {
			return 0, &transfer.FormatError{Err: fmt.Errorf("element %d: %w", i, err)}
		}
	}
	return s.merge(ctx, incoming)
}

// ImportVCard adds the birthdays and anniversaries found in a vCard collection,
// under the same duplicate rule as ImportText.
func (s *Service) ImportVCard(ctx context.Context, src engine.SourceConfig) (int, error) {
	reader := s.VCards
	if reader == nil {
		reader = &engine.VCardReader{Fetcher: engine.NewHTTPFetcher()}
	}
	log := s.log().With(
		config.LogKeyMode, src.Mode,
		config.LogKeyPath, src.Location())

	incoming, err := reader.Read(ctx, src)
	if err != nil {
		log.Warn(config.MsgVCardFailed, config.LogKeyError, err)
		return 0, err
	}
	added, err := s.merge(ctx, incoming)
	if err != nil {
		return added, err
	}
	log.Info(config.MsgVCardImported,
		config.LogKeyFound, len(incoming),
		config.LogKeyCount, added)
	return added, nil
}

func (s *Service) merge(ctx context.Context, incoming []engine.Event) (int, error) {
	existing, err := s.Store.List(ctx)
	if err != nil {
		return 0, err
	}

	fresh, dropped := transfer.Merge(existing, incoming)
	for _, ev := range dropped {
		s.log().Debug(config.MsgDuplicateSkip,
			config.LogKeyName, ev.Name,
			config.LogKeyDate, ev.Date.String())
	}

	added := 0
	for _, ev := range fresh {
		if _, err := s.Store.Insert(ctx, ev); err != nil {
			if added > 0 {
				s.changed()
			}
			return added, err
		}
		added++
	}

	s.log().Info(config.MsgImported,
		config.LogKeyCount, added,
		config.LogKeySkipped, len(dropped))
	if added > 0 {
		s.changed()
	}
	return added, nil
}

func (s *Service) changed() {
	if s.OnChange != nil {
		s.OnChange()
	}
}

func (s *Service) log() *slog.Logger {
	return slog.With(config.LogKeyComponent, config.CompTracker)
}
