package lifecycle

import "fmt"

// LegacyStatus is the vocabulary used by the older portal tree
// (draft, submitted, in_review, in_progress, delivered, closed).
// It must be converted with FromLegacy before reaching any lifecycle check.
type LegacyStatus string

const (
	LegacyDraft      LegacyStatus = "draft"
	LegacySubmitted  LegacyStatus = "submitted"
	LegacyInReview   LegacyStatus = "in_review"
	LegacyInProgress LegacyStatus = "in_progress"
	LegacyDelivered  LegacyStatus = "delivered"
	LegacyClosed     LegacyStatus = "closed"
)

var fromLegacy = map[LegacyStatus]Status{
	LegacyDraft:      StatusDraft,
	LegacySubmitted:  StatusQueued,
	LegacyInReview:   StatusNeedsInfo,
	LegacyInProgress: StatusInProgress,
	LegacyDelivered:  StatusDelivered,
	LegacyClosed:     StatusClosed,
}

var toLegacy = map[Status]LegacyStatus{
	StatusDraft:      LegacyDraft,
	StatusQueued:     LegacySubmitted,
	StatusNeedsInfo:  LegacyInReview,
	StatusInProgress: LegacyInProgress,
	StatusDelivered:  LegacyDelivered,
	StatusClosed:     LegacyClosed,
}

// FromLegacy maps a legacy status onto the canonical enumeration.
func FromLegacy(l LegacyStatus) (Status, error) {
	s, ok := fromLegacy[l]
	if !ok {
		return "", fmt.Errorf("unknown legacy status %q", l)
	}
	return s, nil
}

// ToLegacy maps a canonical status onto the legacy vocabulary.
// Unknown input maps to the empty LegacyStatus.
func ToLegacy(s Status) LegacyStatus {
	return toLegacy[s]
}
