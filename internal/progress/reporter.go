package progress

import (
	"context"
	"time"
)

// DefaultInterval is how often the reporter samples the tracker.
const DefaultInterval = 500 * time.Millisecond

// Reporter polls a Tracker and pushes readings to a single consumer.
type Reporter struct {
	tracker  *Tracker
	interval time.Duration
}

func NewReporter(tracker *Tracker, interval time.Duration) *Reporter {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Reporter{tracker: tracker, interval: interval}
}

// Run emits the current reading immediately and then once per interval until
// ctx is done or emit returns an error. It returns the emit error, or nil when
// the context ended the loop.
func (r *Reporter) Run(ctx context.Context, emit func(Reading) error) error {
	if err := emit(r.tracker.Read()); err != nil {
		return err
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := emit(r.tracker.Read()); err != nil {
				return err
			}
		}
	}
}
