package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"apartment-tracker/models"
)

func sampleSnapshot() models.Snapshot {
	ts := time.Date(2026, 10, 19, 9, 30, 0, 123000000, time.UTC)
	return models.Snapshot{
		{ID: "1", Title: "Altbau", URL: "https://www.berlinovo.de/de/wohnung/1", Address: "Christophstraße 4", Price: "900 €", Size: "60 m²", Rooms: "2", Timestamp: ts},
		{ID: "", Title: "", Address: "", Timestamp: ts},
		{ID: "3", Title: "<Neubau> & mehr", Address: "Fischerinsel 1", Timestamp: ts.Add(time.Minute)},
		{ID: "4", Address: "Karl-Marx-Allee 9", Timestamp: time.Date(2026, 10, 19, 9, 31, 0, 123456000, time.UTC)},
	}
}

func TestJSONStoreRoundTrip(t *testing.T) {
	store, err := NewJSONStore(filepath.Join(t.TempDir(), "nested", "apartment_listings.json"))
	require.NoError(t, err)

	want := sampleSnapshot()
	require.NoError(t, store.Save(context.Background(), want))

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestJSONStoreMissingFileIsEmpty(t *testing.T) {
	store, err := NewJSONStore(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestJSONStoreCorruptFileFailsLoudly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apartment_listings.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id": "1",`), 0o644))

	store, err := NewJSONStore(path)
	require.NoError(t, err)

	_, err = store.Load(context.Background())
	require.True(t, errors.Is(err, ErrCorruptSnapshot), "got %v", err)
}

func TestJSONStoreFileFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apartment_listings.json")
	store, err := NewJSONStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), sampleSnapshot()[:1]))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	body := string(raw)

	require.True(t, strings.HasPrefix(body, "[\n  {\n"), "expected indented array, got %q", body)
	for _, field := range []string{"id", "title", "url", "address", "price", "size", "rooms", "timestamp"} {
		require.Contains(t, body, `"`+field+`":`)
	}
	require.Contains(t, body, "Christophstraße", "UTF-8 must not be escaped")
}

func TestJSONStoreSaveReplacesWholesale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apartment_listings.json")
	store, err := NewJSONStore(path)
	require.NoError(t, err)

	require.NoError(t, store.Save(context.Background(), sampleSnapshot()))
	require.NoError(t, store.Save(context.Background(), models.Snapshot{{ID: "9"}}))

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "9", got[0].ID)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
}

func TestJSONStoreNullFieldsDecodeEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apartment_listings.json")
	legacy := `[{"id": "7", "title": "x", "url": "", "address": "A", "price": null, "size": "", "rooms": "", "timestamp": "2025-01-02T03:04:05Z"}]`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	store, err := NewJSONStore(path)
	require.NoError(t, err)

	got, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "", got[0].Price)
	require.Equal(t, "A", got[0].Address)
}

func TestNewJSONStoreRejectsEmptyPath(t *testing.T) {
	_, err := NewJSONStore("")
	require.Error(t, err)
}
