package timeline

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gauthierbraillon/tweetmix/internal/logging"
)

// Intervals sets how often each feed is polled. A zero interval disables
// that feed.
type Intervals struct {
	Home      time.Duration
	Mentions  time.Duration
	Messages  time.Duration
	Favorites time.Duration
	TimeAgo   time.Duration
}

// Poller keeps a Set fresh by fetching every feed on its own interval.
type Poller struct {
	set       *Set
	intervals Intervals
}

// NewPoller creates a poller for set.
func NewPoller(set *Set, intervals Intervals) *Poller {
	return &Poller{set: set, intervals: intervals}
}

// Run fetches every enabled feed immediately and then on each tick until
// ctx is cancelled. Fetch failures are logged and retried on the next tick.
func (p *Poller) Run(ctx context.Context) error {
	var g errgroup.Group

	jobs := []struct {
		name     string
		interval time.Duration
		run      func(context.Context) error
	}{
		{string(Home), p.intervals.Home, p.set.FetchHome},
		{string(Mentions), p.intervals.Mentions, p.set.FetchMentions},
		{string(Messages), p.intervals.Messages, p.set.FetchDirectMessages},
		{string(Favorites), p.intervals.Favorites, p.set.FetchFavorites},
		{"time ago", p.intervals.TimeAgo, func(context.Context) error {
			p.set.RefreshTimeAgo()
			return nil
		}},
	}

	for _, job := range jobs {
		if job.interval <= 0 {
			continue
		}
		g.Go(func() error {
			p.loop(ctx, job.name, job.interval, job.run)
			return nil // never fail the group - errors are logged per feed
		})
	}

	_ = g.Wait()
	return ctx.Err()
}

func (p *Poller) loop(ctx context.Context, name string, interval time.Duration, run func(context.Context) error) {
	p.tick(ctx, name, run)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx, name, run)
		}
	}
}

func (p *Poller) tick(ctx context.Context, name string, run func(context.Context) error) {
	if ctx.Err() != nil {
		return
	}
	if err := run(ctx); err != nil && ctx.Err() == nil {
		logging.Warn("Poll failed", "feed", name, "err", err)
	}
}
