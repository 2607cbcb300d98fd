package services

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"apartment-tracker/models"
)

func ids(s models.Snapshot) []string {
	out := make([]string, 0, len(s))
	for _, l := range s {
		out = append(out, l.ID)
	}
	return out
}

func TestFindNew(t *testing.T) {
	tests := []struct {
		name     string
		current  models.Snapshot
		previous models.Snapshot
		want     []string
	}{
		{
			name:     "identical snapshots yield nothing",
			current:  models.Snapshot{{ID: "1"}, {ID: "2"}, {ID: "3"}},
			previous: models.Snapshot{{ID: "1"}, {ID: "2"}, {ID: "3"}},
			want:     []string{},
		},
		{
			name:     "one new listing",
			current:  models.Snapshot{{ID: "1", Address: "A"}, {ID: "2", Address: "B, Christoph-str"}},
			previous: models.Snapshot{{ID: "1", Address: "A"}},
			want:     []string{"2"},
		},
		{
			name:     "empty previous treats everything as new",
			current:  models.Snapshot{{ID: "1"}, {ID: "2"}},
			previous: models.Snapshot{},
			want:     []string{"1", "2"},
		},
		{
			name:     "nil previous treats everything as new",
			current:  models.Snapshot{{ID: "1"}},
			previous: nil,
			want:     []string{"1"},
		},
		{
			name:     "order follows current",
			current:  models.Snapshot{{ID: "9"}, {ID: "1"}, {ID: "5"}},
			previous: models.Snapshot{{ID: "1"}},
			want:     []string{"9", "5"},
		},
		{
			name:     "duplicate new ids are all reported",
			current:  models.Snapshot{{ID: "3", Title: "a"}, {ID: "3", Title: "b"}},
			previous: models.Snapshot{{ID: "1"}},
			want:     []string{"3", "3"},
		},
		{
			name:     "duplicate ids in previous collapse",
			current:  models.Snapshot{{ID: "3"}, {ID: "4"}},
			previous: models.Snapshot{{ID: "3"}, {ID: "3"}},
			want:     []string{"4"},
		},
		{
			name:     "empty id seen once hides all empty ids",
			current:  models.Snapshot{{ID: ""}, {ID: ""}, {ID: "7"}},
			previous: models.Snapshot{{ID: ""}},
			want:     []string{"7"},
		},
		{
			name:     "empty ids are new when none was seen",
			current:  models.Snapshot{{ID: ""}, {ID: ""}},
			previous: models.Snapshot{{ID: "1"}},
			want:     []string{"", ""},
		},
		{
			name:     "fields other than id do not matter",
			current:  models.Snapshot{{ID: "1", Price: "1000 €"}},
			previous: models.Snapshot{{ID: "1", Price: "900 €"}},
			want:     []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(FindNew(tt.current, tt.previous))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("FindNew ids mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFindNewIsPureAndRepeatable(t *testing.T) {
	current := models.Snapshot{{ID: "1"}, {ID: "2"}}
	previous := models.Snapshot{{ID: "1"}}
	currentCopy := append(models.Snapshot(nil), current...)

	first := FindNew(current, previous)
	second := FindNew(current, previous)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("FindNew not repeatable (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(currentCopy, current); diff != "" {
		t.Errorf("FindNew mutated its input (-before +after):\n%s", diff)
	}
}

func TestFindNewScenarioWithFilter(t *testing.T) {
	previous := models.Snapshot{{ID: "1", Address: "A"}}
	current := models.Snapshot{{ID: "1", Address: "A"}, {ID: "2", Address: "B, Christoph-str"}}

	got := Filter(FindNew(current, previous), SubstringMatcher{Criterion: "Christoph"})
	want := models.Snapshot{{ID: "2", Address: "B, Christoph-str"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("filtered delta mismatch (-want +got):\n%s", diff)
	}
}

func TestFindRemoved(t *testing.T) {
	previous := models.Snapshot{{ID: "1"}, {ID: "2"}}
	current := models.Snapshot{{ID: "2"}, {ID: "3"}}

	got := ids(FindRemoved(current, previous))
	if diff := cmp.Diff([]string{"1"}, got); diff != "" {
		t.Errorf("FindRemoved mismatch (-want +got):\n%s", diff)
	}
}
