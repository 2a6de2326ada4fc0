package transfer_test

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-eventtracker/internal/config"
	"github.com/tartampluch/go-eventtracker/internal/engine"
	"github.com/tartampluch/go-eventtracker/internal/transfer"
)

func sample() []engine.Event {
	return []engine.Event{
		{ID: 1, Name: "Ada", Date: engine.NewDate(2000, time.June, 20), Category: engine.Birthday, YearKnown: true},
		{ID: 2, Name: "Us", Date: engine.NewDate(2010, time.September, 4), Category: engine.Anniversary, YearKnown: true},
		{ID: 3, Name: "Leap", Date: engine.NewDate(2000, time.February, 29), Category: engine.Birthday, YearKnown: false},
		{ID: 4, Name: "Ancient", Date: engine.NewDate(987, time.March, 4), Category: engine.Birthday, YearKnown: true},
	}
}

func TestRoundTrip(t *testing.T) {
	data, err := transfer.Serialize(sample())
	require.NoError(t, err)

	got, err := transfer.Deserialize(data)
	require.NoError(t, err)
	assert.Equal(t, sample(), got)
}

func TestSerialize_Shape(t *testing.T) {
	data, err := transfer.Serialize(sample()[:1])
	require.NoError(t, err)

	expected := `[
  {
    "id": 1,
    "name": "Ada",
    "date": "2000-06-20",
    "type": "BIRTHDAY",
    "yearKnown": true
  }
]`
	assert.Equal(t, expected, string(data))

	empty, err := transfer.Serialize(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(empty))
}

func TestDeserialize_FormatErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"Not JSON", "this is not json"},
		{"Object instead of array", `{"id":1}`},
		{"JSON null", "null"},
		{"JSON null with spaces", "  null\n"},
		{"Truncated", `[{"id":1,"name":"A","date":"2000-01-01"`},
		{"Wrong field type", `[{"id":"one","name":"A","date":"2000-01-01","type":"BIRTHDAY","yearKnown":true}]`},
		{"Non ISO date", `[{"id":1,"name":"A","date":"01/02/2000","type":"BIRTHDAY","yearKnown":true}]`},
		{"Impossible date", `[{"id":1,"name":"A","date":"2023-02-29","type":"BIRTHDAY","yearKnown":true}]`},
		{"Missing date", `[{"id":1,"name":"A","type":"BIRTHDAY","yearKnown":true}]`},
		{
			"One bad element fails the batch",
			`[{"id":1,"name":"A","date":"2000-01-01","type":"BIRTHDAY","yearKnown":true},
			  {"id":2,"name":"B","date":"2000-1-1","type":"BIRTHDAY","yearKnown":true}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := transfer.Deserialize([]byte(tt.input))
			require.Error(t, err)
			assert.Nil(t, events)

			var fe *transfer.FormatError
			assert.True(t, errors.As(err, &fe), "expected *FormatError, got %T", err)
			assert.Contains(t, err.Error(), config.ErrTransferFormat)
		})
	}
}

func TestDeserialize_EmptyArray(t *testing.T) {
	events, err := transfer.Deserialize([]byte("[]"))
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestDeserialize_UnknownTypeFallsBackToBirthday(t *testing.T) {
	input := `[
		{"id":7,"name":"Wed","date":"2015-05-05","type":"WEDDING","yearKnown":true},
		{"id":8,"name":"NoType","date":"2015-05-06","yearKnown":false},
		{"id":9,"name":"Ann","date":"2015-05-07","type":"ANNIVERSARY","yearKnown":true}
	]`

	events, err := transfer.Deserialize([]byte(input))
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, engine.Birthday, events[0].Category)
	assert.Equal(t, engine.Birthday, events[1].Category)
	assert.False(t, events[1].YearKnown)
	assert.Equal(t, engine.Anniversary, events[2].Category)
	assert.Equal(t, int64(9), events[2].ID)
}

func TestDeserialize_IgnoresUnknownFields(t *testing.T) {
	input := `[{"id":1,"name":"A","date":"2000-01-01","type":"BIRTHDAY","yearKnown":true,"color":"red"}]`
	events, err := transfer.Deserialize([]byte(input))
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestMerge(t *testing.T) {
	existing := []engine.Event{
		{ID: 1, Name: "Ada", Date: engine.NewDate(2000, time.June, 20), Category: engine.Birthday, YearKnown: true},
	}
	incoming := []engine.Event{
		// Same identifier, different occasion: kept.
		{ID: 1, Name: "Bob", Date: engine.NewDate(1990, time.January, 1), Category: engine.Birthday, YearKnown: true},
		// Same name and date with other fields changed: duplicate.
		{ID: 42, Name: "Ada", Date: engine.NewDate(2000, time.June, 20), Category: engine.Anniversary, YearKnown: false},
		// Same name, other date: kept.
		{ID: 43, Name: "Ada", Date: engine.NewDate(2001, time.June, 20), Category: engine.Birthday, YearKnown: true},
		// Repeated inside the batch: only the first one is kept.
		{ID: 44, Name: "Bob", Date: engine.NewDate(1990, time.January, 1), Category: engine.Birthday, YearKnown: true},
	}

	got, dropped := transfer.Merge(existing, incoming)
	require.Len(t, got, 2)
	assert.Equal(t, "Bob", got[0].Name)
	assert.Equal(t, engine.NewDate(2001, time.June, 20), got[1].Date)
	for _, ev := range got {
		assert.Zero(t, ev.ID, "Imported events get fresh identifiers")
	}

	require.Len(t, dropped, 2)
	assert.Equal(t, int64(42), dropped[0].ID)
	assert.Equal(t, int64(44), dropped[1].ID)

	// Inputs are not modified.
	assert.Equal(t, int64(1), incoming[0].ID)
	assert.Len(t, existing, 1)
}

func TestMerge_Empty(t *testing.T) {
	fresh, dropped := transfer.Merge(nil, nil)
	assert.Empty(t, fresh)
	assert.Empty(t, dropped)

	fresh, dropped = transfer.Merge(sample(), sample())
	assert.Empty(t, fresh)
	assert.Len(t, dropped, len(sample()))

	fresh, dropped = transfer.Merge(nil, sample())
	assert.Len(t, fresh, len(sample()))
	assert.Empty(t, dropped)
}

func TestExportFileName(t *testing.T) {
	assert.Equal(t, "Events_2024-06-15.json", transfer.ExportFileName(engine.NewDate(2024, time.June, 15)))
}

func TestWriteExport_CreatesAndOverwrites(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "Events")
	day := engine.NewDate(2024, time.June, 15)

	path, err := transfer.WriteExport(dir, day, []byte("[]"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Events_2024-06-15.json"), path)

	again, err := transfer.WriteExport(dir, day, []byte(`[{"id":1}]`))
	require.NoError(t, err)
	assert.Equal(t, path, again, "Same-day exports replace each other")

	content, err := transfer.ReadImport(path)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1}]`, string(content))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, config.FilePermExport, info.Mode().Perm())

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteExport_Failure(t *testing.T) {
	// A regular file where the directory should be.
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, config.FilePermUserRW))

	_, err := transfer.WriteExport(blocker, engine.NewDate(2024, time.June, 15), []byte("[]"))
	require.Error(t, err)

	var ioErr *transfer.IOError
	assert.True(t, errors.As(err, &ioErr))
	assert.Contains(t, err.Error(), config.ErrTransferIO)
}

func TestReadImport_Missing(t *testing.T) {
	_, err := transfer.ReadImport(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)

	var ioErr *transfer.IOError
	require.True(t, errors.As(err, &ioErr))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestSerialize_ValidJSONForOtherTools(t *testing.T) {
	data, err := transfer.Serialize(sample())
	require.NoError(t, err)

	var generic []map[string]any
	require.NoError(t, json.Unmarshal(data, &generic))
	require.Len(t, generic, 4)
	assert.Equal(t, "0987-03-04", generic[3]["date"])
	assert.Equal(t, "ANNIVERSARY", generic[1]["type"])
}
