package models

import "time"

// Listing is one apartment offer as captured from the search page.
// Identity is carried by ID alone; every other field is informational.
type Listing struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Address   string    `json:"address"`
	Price     string    `json:"price"`
	Size      string    `json:"size"`
	Rooms     string    `json:"rooms"`
	Timestamp time.Time `json:"timestamp"`
}

// Snapshot is the ordered set of listings observed in one fetch cycle.
type Snapshot []Listing

// IDs returns the identity set of the snapshot. Duplicate ids collapse.
func (s Snapshot) IDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(s))
	for _, l := range s {
		ids[l.ID] = struct{}{}
	}
	return ids
}

// CycleResult summarises one fetch → diff → filter → notify → persist pass.
type CycleResult struct {
	CycleID   string
	StartedAt time.Time
	Duration  time.Duration

	Current Snapshot
	New     Snapshot
	Removed Snapshot
	Matched Snapshot

	Persisted bool
	NotifyErr error
}
