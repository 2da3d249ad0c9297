// Package lifecycle holds the project status enumeration and the table of
// permitted status transitions. It has no I/O and no notion of who is asking;
// callers authorize the request before consulting it.
package lifecycle

import (
	"fmt"
	"strings"
)

// Status is one value of the canonical project lifecycle enumeration.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusQueued     Status = "queued"
	StatusInProgress Status = "in_progress"
	StatusNeedsInfo  Status = "needs_info"
	StatusDelivered  Status = "delivered"
	StatusClosed     Status = "closed"
)

// All lists the canonical statuses in pipeline order.
var All = []Status{
	StatusDraft,
	StatusQueued,
	StatusInProgress,
	StatusNeedsInfo,
	StatusDelivered,
	StatusClosed,
}

// Valid reports whether s is a member of the canonical enumeration.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return s == StatusClosed
}

func (s Status) String() string {
	return string(s)
}

// Parse converts user input into a canonical Status.
func Parse(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown project status %q", raw)
	}
	return s, nil
}

// ParseList parses a comma separated list such as "queued,needs_info".
// Empty items are skipped.
func ParseList(raw string) ([]Status, error) {
	var out []Status
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		s, err := Parse(part)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
