package services

import (
	"errors"
	"testing"

	"apartment-tracker/models"
	"apartment-tracker/utils"
)

func newTestLogger() *utils.Logger { return utils.NewDiscardLogger() }

func TestNormaliseText(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"  2-Zimmer   Wohnung ", "2-Zimmer Wohnung"},
		{"812,40\n\t€", "812,40 €"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		if got := normaliseText(tt.raw); got != tt.want {
			t.Errorf("normaliseText(%q) = %q; want %q", tt.raw, got, tt.want)
		}
	}
}

func TestCleanerLeavesIdentityAndAddress(t *testing.T) {
	c := NewCleaner(newTestLogger())
	raw := models.Snapshot{
		{ID: "1", Address: "Christoph  str", Title: " Altbau \n Wohnung ", Price: " 900 € "},
	}

	cleaned, err := c.Clean(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cleaned[0].Address != "Christoph  str" {
		t.Errorf("Address: got %q, want untouched", cleaned[0].Address)
	}
	if cleaned[0].Title != "Altbau Wohnung" {
		t.Errorf("Title: got %q, want %q", cleaned[0].Title, "Altbau Wohnung")
	}
	if cleaned[0].Price != "900 €" {
		t.Errorf("Price: got %q, want %q", cleaned[0].Price, "900 €")
	}
	if raw[0].Title != " Altbau \n Wohnung " {
		t.Error("Clean must not mutate its input")
	}
}

func TestCleanerKeepsPartialRecords(t *testing.T) {
	c := NewCleaner(newTestLogger())
	raw := models.Snapshot{{ID: "1"}, {ID: ""}, {ID: "1"}}

	cleaned, err := c.Clean(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cleaned) != 3 {
		t.Errorf("expected all 3 listings kept, got %d", len(cleaned))
	}
}

func TestCleanerFlagsDegradedExtraction(t *testing.T) {
	c := NewCleaner(newTestLogger())
	raw := models.Snapshot{{Title: "x"}, {Title: "y"}}

	_, err := c.Clean(raw)
	if !errors.Is(err, ErrDegradedExtraction) {
		t.Errorf("expected ErrDegradedExtraction, got %v", err)
	}
}

func TestCleanerEmptySnapshotIsValid(t *testing.T) {
	c := NewCleaner(newTestLogger())
	cleaned, err := c.Clean(models.Snapshot{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cleaned == nil || len(cleaned) != 0 {
		t.Errorf("expected empty non-nil snapshot, got %#v", cleaned)
	}
}
