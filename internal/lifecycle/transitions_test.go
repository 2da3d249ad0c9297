package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition_MatchesTable(t *testing.T) {
	want := map[Status][]Status{
		StatusDraft:      {StatusQueued, StatusClosed},
		StatusQueued:     {StatusInProgress, StatusNeedsInfo, StatusClosed},
		StatusInProgress: {StatusNeedsInfo, StatusDelivered, StatusClosed},
		StatusNeedsInfo:  {StatusQueued, StatusInProgress, StatusClosed},
		StatusDelivered:  {StatusClosed},
		StatusClosed:     {},
	}

	for _, from := range All {
		for _, to := range All {
			expected := false
			for _, allowed := range want[from] {
				if allowed == to {
					expected = true
				}
			}
			assert.Equalf(t, expected, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestCanTransition_Scenarios(t *testing.T) {
	testCases := []struct {
		name string
		from Status
		to   Status
		want bool
	}{
		{"draft to queued", StatusDraft, StatusQueued, true},
		{"draft to delivered", StatusDraft, StatusDelivered, false},
		{"queued to needs_info", StatusQueued, StatusNeedsInfo, true},
		{"delivered to closed", StatusDelivered, StatusClosed, true},
		{"closed to draft", StatusClosed, StatusDraft, false},
		{"in_progress to itself", StatusInProgress, StatusInProgress, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanTransition(tc.from, tc.to))
		})
	}
}

func TestCanTransition_ClosedIsTerminal(t *testing.T) {
	for _, to := range All {
		assert.False(t, CanTransition(StatusClosed, to), "closed -> %s", to)
	}
	assert.Empty(t, Allowed(StatusClosed))
	assert.True(t, StatusClosed.Terminal())
	assert.False(t, StatusDelivered.Terminal())
}

func TestCanTransition_SelfTransitionDenied(t *testing.T) {
	for _, s := range All {
		assert.False(t, CanTransition(s, s), "%s -> %s", s, s)
	}
}

func TestCanTransition_UnknownValuesFailClosed(t *testing.T) {
	unknown := []Status{"", "submitted", "in_review", "DRAFT", "archived"}

	for _, u := range unknown {
		assert.NotPanics(t, func() {
			assert.False(t, CanTransition(u, StatusQueued))
			assert.False(t, CanTransition(StatusDraft, u))
			assert.False(t, CanTransition(u, u))
		})
		assert.Empty(t, Allowed(u))
	}
}

func TestAllowed_ReturnsCopy(t *testing.T) {
	got := Allowed(StatusQueued)
	require.Len(t, got, 3)

	got[0] = StatusClosed
	assert.True(t, CanTransition(StatusQueued, StatusInProgress))
	assert.Equal(t, StatusInProgress, Allowed(StatusQueued)[0])
}

func TestParse(t *testing.T) {
	s, err := Parse(" In_Progress ")
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, s)

	_, err = Parse("submitted")
	assert.Error(t, err)

	list, err := ParseList("queued, needs_info,,")
	require.NoError(t, err)
	assert.Equal(t, []Status{StatusQueued, StatusNeedsInfo}, list)

	_, err = ParseList("queued,bogus")
	assert.Error(t, err)
}
