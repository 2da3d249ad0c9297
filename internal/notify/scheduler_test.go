package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planhaus/portal-backend/internal/events"
	"github.com/planhaus/portal-backend/internal/lifecycle"
)

func TestScheduler_RequeuesOnSchedule(t *testing.T) {
	d, rdb, _ := setup(t, &recordingMailer{})
	ctx := context.Background()

	require.NoError(t, rdb.LPush(ctx, events.DeadQueue, statusEvent("fp-12345-6789", lifecycle.StatusQueued, lifecycle.StatusClosed)).Err())

	s, err := NewScheduler(d, "@every 1s", 3)
	require.NoError(t, err)
	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool {
		n, err := rdb.LLen(ctx, events.NotifyQueue).Result()
		return err == nil && n == 1
	}, 5*time.Second, 50*time.Millisecond)
}

func TestScheduler_BadSpec(t *testing.T) {
	d, _, _ := setup(t, &recordingMailer{})

	_, err := NewScheduler(d, "every now and then", 3)
	assert.Error(t, err)
}
