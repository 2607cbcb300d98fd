package services

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"apartment-tracker/models"
)

const (
	aggregateTitle = "New Apartment Listings Found!"
	startupTitle   = "Test Notification"
	startupMessage = "This is a test notification to check if notifications are working."

	// aggregateDetailLimit bounds the per-listing lines of one alert.
	aggregateDetailLimit = 10
)

// Reporter renders operator-facing console output for a cycle.
type Reporter struct {
	out io.Writer
}

// NewReporter creates a Reporter writing to out. A nil out discards output.
func NewReporter(out io.Writer) *Reporter {
	if out == nil {
		out = io.Discard
	}
	return &Reporter{out: out}
}

// PrintNew writes one table row per matched listing.
func (r *Reporter) PrintNew(listings models.Snapshot) {
	if len(listings) == 0 {
		return
	}

	fmt.Fprintf(r.out, "\n\033[1;35m  Found %d new listing(s)\033[0m\n", len(listings))

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.AppendHeader(table.Row{"Title", "Address", "Price", "Size", "Rooms", "URL"})
	for _, l := range listings {
		t.AppendRow(table.Row{
			orNA(l.Title), orNA(l.Address), orNA(l.Price), orNA(l.Size), orNA(l.Rooms), orNA(l.URL),
		})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

// Summary is the one-line description of a finished cycle.
func (r *Reporter) Summary(res *models.CycleResult) string {
	return fmt.Sprintf("cycle %s: %d listings, %d new, %d removed, %d matched, took %v",
		shortID(res.CycleID), len(res.Current), len(res.New), len(res.Removed), len(res.Matched),
		res.Duration.Round(time.Millisecond))
}

// AggregateMessage is the body of the single alert sent per cycle. Only the
// first aggregateDetailLimit listings are spelled out.
func AggregateMessage(matched models.Snapshot, m Matcher) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d new listings (%s)!", len(matched), m)
	for i, l := range matched {
		if i == aggregateDetailLimit {
			fmt.Fprintf(&b, "\n...and %d more", len(matched)-aggregateDetailLimit)
			break
		}
		b.WriteString("\n- ")
		b.WriteString(orNA(l.Address))
		if l.Price != "" {
			b.WriteString(", ")
			b.WriteString(l.Price)
		}
		if l.URL != "" {
			b.WriteString("\n  ")
			b.WriteString(l.URL)
		}
	}
	return b.String()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
