package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler periodically moves dead letters back onto the notify queue.
type Scheduler struct {
	c *cron.Cron
}

func NewScheduler(d *Dispatcher, spec string, maxAttempts int) (*Scheduler, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		moved, dropped, err := d.Requeue(ctx, maxAttempts)
		if err != nil {
			d.log.Error("requeue failed", zap.Error(err))
			return
		}
		if moved > 0 || dropped > 0 {
			d.log.Info("dead letters requeued", zap.Int("moved", moved), zap.Int("dropped", dropped))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("requeue schedule %q: %w", spec, err)
	}
	return &Scheduler{c: c}, nil
}

func (s *Scheduler) Start() {
	s.c.Start()
}

// Stop waits for a running requeue to finish.
func (s *Scheduler) Stop() {
	<-s.c.Stop().Done()
}
