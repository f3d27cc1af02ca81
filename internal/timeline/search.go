package timeline

import (
	"context"
	"fmt"

	"github.com/gauthierbraillon/tweetmix/internal/logging"
)

const excludeRetweets = " exclude:retweets"

// Search clears the search view, then searches for query in the
// background. The returned channel receives exactly one value: nil once
// the results are merged, ErrCancelled if SignalCancel ran first, or the
// client error.
func (s *Set) Search(ctx context.Context, query string) <-chan error {
	done := make(chan error, 1)

	s.mu.Lock()
	token := s.token
	v := s.views[Search]
	cleared := len(v.items) > 0
	v.items = nil
	s.searches.Add(1)
	s.mu.Unlock()

	if cleared {
		s.publish(Event{Kind: ViewChanged, View: Search})
	}

	go func() {
		defer s.searches.Done()
		done <- s.runSearch(ctx, token, query)
	}()
	return done
}

func (s *Set) runSearch(ctx, token context.Context, query string) error {
	if token.Err() != nil {
		return ErrCancelled
	}

	statuses, err := s.client.Search(ctx, query+excludeRetweets)
	if err != nil {
		return fmt.Errorf("search %q failed: %w", query, err)
	}

	s.mu.Lock()
	if token.Err() != nil {
		s.mu.Unlock()
		logging.Debug("Discarding cancelled search", "query", query, "count", len(statuses))
		return ErrCancelled
	}
	res := s.mergeLocked([]Name{Search}, statuses, TagSearch)
	s.mu.Unlock()

	s.afterMerge(res)
	return nil
}

// SignalCancel invalidates every search started so far. Searches started
// afterwards run under a fresh token.
func (s *Set) SignalCancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancel()
	s.token, s.cancel = context.WithCancel(context.Background())
}
