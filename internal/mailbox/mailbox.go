// Package mailbox fetches card alert emails from a mail source.
package mailbox

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alertas-dev/alertas/internal/model"
)

// DateLayout is the layout of the on-or-after cutoff.
const DateLayout = "2006-01-02"

// Query selects messages from one sender received on or after Since.
type Query struct {
	Sender string
	Since  time.Time
}

// Source returns the messages matching a query, in no particular order.
type Source interface {
	Fetch(ctx context.Context, q Query) ([]model.RawMessage, error)
}

// ParseSince parses a YYYY-MM-DD cutoff in the local time zone.
func ParseSince(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q (want YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}

// SearchString renders q in Gmail search syntax.
func (q Query) SearchString() string {
	var parts []string
	if q.Sender != "" {
		parts = append(parts, "from:"+q.Sender)
	}
	if !q.Since.IsZero() {
		parts = append(parts, "after:"+q.Since.Format("2006/01/02"))
	}
	return strings.Join(parts, " ")
}

// matchesSender reports whether a From header value refers to sender.
func matchesSender(from, sender string) bool {
	if sender == "" {
		return true
	}
	return strings.Contains(strings.ToLower(from), strings.ToLower(sender))
}

// onOrAfter reports whether ts falls on or after since. Timestamps that cannot
// be resolved are kept.
func onOrAfter(ts model.Timestamp, since time.Time) bool {
	if since.IsZero() {
		return true
	}
	t, ok := ts.Time()
	if !ok {
		return true
	}
	return !t.Before(since)
}
