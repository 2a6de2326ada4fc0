package tracker_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-eventtracker/internal/config"
	"github.com/tartampluch/go-eventtracker/internal/engine"
	"github.com/tartampluch/go-eventtracker/internal/store"
	"github.com/tartampluch/go-eventtracker/internal/tracker"
	"github.com/tartampluch/go-eventtracker/internal/transfer"
)

type MockClock struct {
	CurrentTime time.Time
}

func (m MockClock) Now() time.Time { return m.CurrentTime }

type MockVCards struct {
	mock.Mock
}

func (m *MockVCards) Read(ctx context.Context, cfg engine.SourceConfig) ([]engine.Event, error) {
	args := m.Called(ctx, cfg)
	events, _ := args.Get(0).([]engine.Event)
	return events, args.Error(1)
}

func newService(t *testing.T) (*tracker.Service, *int32) {
	t.Helper()
	var changes int32
	return &tracker.Service{
		Store:     store.NewMemory(),
		Clock:     MockClock{CurrentTime: time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)},
		ExportDir: filepath.Join(t.TempDir(), config.ExportDirName),
		OnChange:  func() { atomic.AddInt32(&changes, 1) },
	}, &changes
}

func ada() engine.Event {
	return engine.Event{Name: "Ada", Date: engine.NewDate(2000, time.June, 20), Category: engine.Birthday, YearKnown: true}
}

func bob() engine.Event {
	return engine.Event{Name: "Bob", Date: engine.NewDate(1990, time.January, 1), Category: engine.Birthday, YearKnown: true}
}

func TestService_CRUDAndUpcoming(t *testing.T) {
	svc, changes := newService(t)
	ctx := context.Background()

	b, err := svc.Add(ctx, bob())
	require.NoError(t, err)
	a, err := svc.Add(ctx, ada())
	require.NoError(t, err)

	upcoming, err := svc.Upcoming(ctx)
	require.NoError(t, err)
	require.Len(t, upcoming, 2)
	assert.Equal(t, a.ID, upcoming[0].Event.ID)
	assert.Equal(t, 5, upcoming[0].DaysUntil)
	assert.Equal(t, 24, upcoming[0].Age)
	assert.Equal(t, 200, upcoming[1].DaysUntil)
	assert.Equal(t, 35, upcoming[1].Age)

	b.Name = "Robert"
	require.NoError(t, svc.Edit(ctx, b))
	got, err := svc.Store.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Robert", got.Name)

	require.NoError(t, svc.Remove(ctx, a.ID))
	assert.ErrorIs(t, svc.Remove(ctx, a.ID), store.ErrNotFound)

	require.NoError(t, svc.RemoveAll(ctx))
	events, err := svc.Events(ctx)
	require.NoError(t, err)
	assert.Empty(t, events)

	// Add x2, Edit, Remove, RemoveAll.
	assert.Equal(t, int32(5), atomic.LoadInt32(changes))
}

func TestService_AddRejectsInvalid(t *testing.T) {
	svc, changes := newService(t)
	ctx := context.Background()

	blank := ada()
	blank.Name = " "
	_, err := svc.Add(ctx, blank)
	assert.ErrorIs(t, err, tracker.ErrInvalidEvent)

	badDate := ada()
	badDate.Date = engine.NewDate(2023, time.February, 29)
	assert.ErrorIs(t, svc.Edit(ctx, badDate), tracker.ErrInvalidEvent)

	assert.Zero(t, atomic.LoadInt32(changes))
}

func TestService_ExportImportRoundTrip(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	for _, ev := range []engine.Event{ada(), bob()} {
		_, err := svc.Add(ctx, ev)
		require.NoError(t, err)
	}

	path, err := svc.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(svc.ExportDir, "Events_2024-06-15.json"), path)

	// Re-importing the same backup adds nothing.
	n, err := svc.Import(ctx, path)
	require.NoError(t, err)
	assert.Zero(t, n)

	// Into an empty tracker everything is new, with fresh identifiers.
	other, _ := newService(t)
	_, err = other.Add(ctx, engine.Event{Name: "Zed", Date: engine.NewDate(1970, time.March, 3), Category: engine.Birthday, YearKnown: true})
	require.NoError(t, err)

	n, err = other.Import(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	events, err := other.Events(ctx)
	require.NoError(t, err)
	assert.Len(t, events, 3)
	ids := map[int64]bool{}
	for _, ev := range events {
		assert.False(t, ids[ev.ID], "Identifiers must stay unique")
		ids[ev.ID] = true
	}
}

func TestService_ImportTextDuplicatesAndFailures(t *testing.T) {
	svc, changes := newService(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, ada())
	require.NoError(t, err)
	atomic.StoreInt32(changes, 0)

	data := []byte(`[
		{"id":1,"name":"Ada","date":"2000-06-20","type":"ANNIVERSARY","yearKnown":false},
		{"id":1,"name":"Cy","date":"1985-02-11","type":"BIRTHDAY","yearKnown":true},
		{"id":5,"name":"Cy","date":"1985-02-11","type":"BIRTHDAY","yearKnown":true}
	]`)
	n, err := svc.ImportText(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "Existing and in-batch duplicates are skipped")
	assert.Equal(t, int32(1), atomic.LoadInt32(changes))

	_, err = svc.ImportText(ctx, []byte(`[{"id":1,"name":"X","date":"2000-13-01","type":"BIRTHDAY","yearKnown":true}]`))
	var fe *transfer.FormatError
	assert.True(t, errors.As(err, &fe))

	_, err = svc.ImportText(ctx, []byte(`[{"id":1,"name":"","date":"2000-01-01","type":"BIRTHDAY","yearKnown":true}]`))
	assert.True(t, errors.As(err, &fe), "Blank names fail the batch")

	events, err := svc.Events(ctx)
	require.NoError(t, err)
	assert.Len(t, events, 2, "Failed imports add nothing")
}

func TestService_ImportMissingFile(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Import(context.Background(), filepath.Join(t.TempDir(), "missing.json"))

	var ioErr *transfer.IOError
	assert.True(t, errors.As(err, &ioErr))
}

func TestService_ExportFailure(t *testing.T) {
	svc, _ := newService(t)
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, config.FilePermUserRW))
	svc.ExportDir = blocker

	_, err := svc.Export(context.Background())
	var ioErr *transfer.IOError
	assert.True(t, errors.As(err, &ioErr))
}

func TestService_ImportVCard(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	_, err := svc.Add(ctx, ada())
	require.NoError(t, err)

	src := engine.SourceConfig{Mode: config.SourceModeWeb, WebURL: "https://dav.example.com/contacts"}
	vcards := new(MockVCards)
	vcards.On("Read", mock.Anything, src).Return([]engine.Event{ada(), bob()}, nil).Once()
	vcards.On("Read", mock.Anything, src).Return(nil, errors.New("unauthorized")).Once()
	svc.VCards = vcards

	n, err := svc.ImportVCard(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = svc.ImportVCard(ctx, src)
	assert.EqualError(t, err, "unauthorized")

	vcards.AssertExpectations(t)
}

func TestService_ImportVCardDefaultReader(t *testing.T) {
	svc, _ := newService(t)
	path := filepath.Join(t.TempDir(), "contacts.vcf")
	content := "BEGIN:VCARD\nVERSION:3.0\nFN:Grace\nBDAY:--1209\nEND:VCARD\n"
	require.NoError(t, os.WriteFile(path, []byte(content), config.FilePermUserRW))

	n, err := svc.ImportVCard(context.Background(), engine.SourceConfig{Mode: config.SourceModeLocal, LocalPath: path})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	events, err := svc.Events(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.False(t, events[0].YearKnown)
}
