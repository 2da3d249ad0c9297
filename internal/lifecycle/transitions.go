package lifecycle

// transitions is the complete table. A status missing from the map is not a
// canonical status; a status mapped to an empty slice is terminal. Self loops
// are intentionally absent, so requesting the current status is denied.
var transitions = map[Status][]Status{
	StatusDraft:      {StatusQueued, StatusClosed},
	StatusQueued:     {StatusInProgress, StatusNeedsInfo, StatusClosed},
	StatusInProgress: {StatusNeedsInfo, StatusDelivered, StatusClosed},
	StatusNeedsInfo:  {StatusQueued, StatusInProgress, StatusClosed},
	StatusDelivered:  {StatusClosed},
	StatusClosed:     {},
}

// CanTransition reports whether a project in status from may move to status to.
// It is total: unknown values on either side are denied.
func CanTransition(from, to Status) bool {
	allowed, ok := transitions[from]
	if !ok {
		return false
	}
	for _, candidate := range allowed {
		if candidate == to {
			return true
		}
	}
	return false
}

// Allowed returns the statuses reachable from from in one step.
// The returned slice is a copy and may be modified by the caller.
func Allowed(from Status) []Status {
	allowed := transitions[from]
	out := make([]Status, len(allowed))
	copy(out, allowed)
	return out
}
