// Package timeline is the aggregation core of tweetmix.
//
// A Set owns one canonical store of items keyed by status id and the six
// named views over it. Every feed fetch is merged into the store:
// duplicates are folded into the existing item, the feed's tag is added to
// its membership, and the target views are re-sorted newest first.
// Observers learn about changes through Subscribe once an operation has
// fully applied.
package timeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/text/cases"

	"github.com/gauthierbraillon/tweetmix/internal/logging"
	"github.com/gauthierbraillon/tweetmix/internal/twitter"
)

var (
	// ErrUnknownItem is returned for operations on ids the store never saw.
	ErrUnknownItem = errors.New("unknown item")

	// ErrCancelled is delivered when a search observed a stale token.
	ErrCancelled = errors.New("operation cancelled")
)

// FeedClient is the remote API consumed by the Set. *twitter.Client
// implements it.
type FeedClient interface {
	HomeTimeline(ctx context.Context, sinceID uint64) ([]twitter.Status, error)
	MentionsTimeline(ctx context.Context, sinceID uint64) ([]twitter.Status, error)
	DirectMessages(ctx context.Context, sinceID uint64) ([]twitter.Status, error)
	Favorites(ctx context.Context, sinceID uint64) ([]twitter.Status, error)
	Search(ctx context.Context, query string) ([]twitter.Status, error)
	GetStatus(ctx context.Context, id string) (*twitter.Status, error)
	CreateFavorite(ctx context.Context, id string) error
	DestroyFavorite(ctx context.Context, id string) error
	DestroyStatus(ctx context.Context, id string) error
	Retweet(ctx context.Context, id string) error
	UpdateStatus(ctx context.Context, text, inReplyToID string) (*twitter.Status, error)
	UpdateStatusWithMedia(ctx context.Context, text, mediaPath string) (*twitter.Status, error)
	SendDirectMessage(ctx context.Context, text, screenName string) (*twitter.Status, error)
}

// Option configures a Set.
type Option func(*Set)

// WithNotifier sets the callback fired once per merge that brought new
// items into the home or messages view.
func WithNotifier(fn func(Name)) Option {
	return func(s *Set) {
		s.notify = fn
	}
}

// WithClock replaces time.Now (useful for testing).
func WithClock(now func() time.Time) Option {
	return func(s *Set) {
		s.now = now
	}
}

// Set is the canonical item store plus its views. It is safe for
// concurrent use; network calls never run while the store is locked.
type Set struct {
	client     FeedClient
	screenName string
	now        func() time.Time
	notify     func(Name)

	mu            sync.Mutex
	items         map[string]*Item
	views         map[Name]*view
	active        Name
	searchVisible bool
	handles       []string
	handleKeys    map[string]struct{}
	fold          cases.Caser
	token         context.Context
	cancel        context.CancelFunc
	searches      sync.WaitGroup

	subsMu      sync.RWMutex
	subscribers []chan Event
	closed      bool
}

// New creates an empty Set acting for screenName.
func New(client FeedClient, screenName string, opts ...Option) *Set {
	s := &Set{
		client:     client,
		screenName: screenName,
		now:        time.Now,
		items:      make(map[string]*Item),
		views:      make(map[Name]*view, len(Names)),
		active:     Unified,
		handleKeys: make(map[string]struct{}),
		fold:       cases.Fold(),
	}
	for _, name := range Names {
		s.views[name] = &view{}
	}
	s.token, s.cancel = context.WithCancel(context.Background())

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// mergeResult carries what a locked merge changed out of the lock.
type mergeResult struct {
	updated bool
	events  []Event
	notify  Name
}

// FetchHome merges new home timeline statuses into home and unified.
func (s *Set) FetchHome(ctx context.Context) error {
	return s.fetch(ctx, Home, TagHome, s.client.HomeTimeline, Home, Unified)
}

// FetchMentions merges new mentions into mentions and unified.
func (s *Set) FetchMentions(ctx context.Context) error {
	return s.fetch(ctx, Mentions, TagMention, s.client.MentionsTimeline, Mentions, Unified)
}

// FetchDirectMessages merges new direct messages into messages and unified.
func (s *Set) FetchDirectMessages(ctx context.Context) error {
	return s.fetch(ctx, Messages, TagMessage, s.client.DirectMessages, Messages, Unified)
}

// FetchFavorites merges new favorites into the favorites view and marks
// matching home items as favorited.
func (s *Set) FetchFavorites(ctx context.Context) error {
	statuses, err := s.pull(ctx, Favorites, s.client.Favorites)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.raiseSinceID(Favorites, statuses)
	res := s.mergeLocked([]Name{Favorites}, statuses, TagFavorite)

	favorited := make(map[string]bool, len(statuses))
	for _, st := range statuses {
		favorited[st.ID] = true
	}
	for _, item := range s.views[Home].items {
		if item.Favorited {
			continue
		}
		if favorited[item.ID] || (item.RetweetStatusID != "" && favorited[item.RetweetStatusID]) {
			item.Favorited = true
			res.events = append(res.events, Event{Kind: ItemChanged, View: Home, ItemID: item.ID})
		}
	}
	s.mu.Unlock()

	s.afterMerge(res)
	return nil
}

func (s *Set) fetch(ctx context.Context, source Name, tag Tag, call func(context.Context, uint64) ([]twitter.Status, error), targets ...Name) error {
	statuses, err := s.pull(ctx, source, call)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.raiseSinceID(source, statuses)
	res := s.mergeLocked(targets, statuses, tag)
	s.mu.Unlock()

	s.afterMerge(res)
	return nil
}

func (s *Set) pull(ctx context.Context, source Name, call func(context.Context, uint64) ([]twitter.Status, error)) ([]twitter.Status, error) {
	s.mu.Lock()
	since := s.views[source].sinceID
	s.mu.Unlock()

	statuses, err := call(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", source, err)
	}
	logging.Debug("Fetched timeline", "view", source, "since_id", since, "count", len(statuses))
	return statuses, nil
}

func (s *Set) raiseSinceID(name Name, statuses []twitter.Status) {
	v := s.views[name]
	v.sinceID = maxSinceID(v.sinceID, statuses)
}

// MergeBatch merges statuses into the store, tags each item and adds it to
// the target views. It reports whether any view changed.
func (s *Set) MergeBatch(targets []Name, statuses []twitter.Status, tag Tag) bool {
	s.mu.Lock()
	res := s.mergeLocked(targets, statuses, tag)
	s.mu.Unlock()

	s.afterMerge(res)
	return res.updated
}

func (s *Set) mergeLocked(targets []Name, statuses []twitter.Status, tag Tag) mergeResult {
	var res mergeResult

	views := make([]*view, 0, len(targets))
	names := make([]Name, 0, len(targets))
	for _, name := range targets {
		v, ok := s.views[name]
		if !ok {
			logging.Warn("Ignoring unknown view", "view", name)
			continue
		}
		views = append(views, v)
		names = append(names, name)
	}
	changed := make([]bool, len(views))
	now := s.now()

	for i := range statuses {
		status := &statuses[i]
		item, ok := s.items[status.ID]
		if !ok {
			created, err := newItem(status, s.screenName, now)
			if err != nil {
				logging.Warn("Skipping malformed status", "id", status.ID, "err", err)
				continue
			}
			item = created
			s.items[item.ID] = item
		}
		item.Membership = item.Membership.with(tag)

		for j, v := range views {
			if !v.contains(item) {
				v.items = append(v.items, item)
				changed[j] = true
			}
		}

		s.addHandle(item.ScreenName)
		for _, m := range status.Entities.Mentions {
			s.addHandle(m.ScreenName)
		}
	}

	for j, v := range views {
		if !changed[j] {
			continue
		}
		res.updated = true
		v.sort()
		res.events = append(res.events, Event{Kind: ViewChanged, View: names[j]})
		if res.notify == "" && (names[j] == Home || names[j] == Messages) {
			res.notify = names[j]
		}
	}
	return res
}

func (s *Set) addHandle(handle string) {
	if handle == "" {
		return
	}
	key := s.fold.String(handle)
	if _, ok := s.handleKeys[key]; ok {
		return
	}
	s.handleKeys[key] = struct{}{}
	s.handles = append(s.handles, handle)
}

// afterMerge runs outside the lock so observers see the whole merge.
func (s *Set) afterMerge(res mergeResult) {
	if res.notify != "" {
		res.events = append(res.events, Event{Kind: NewContent, View: res.notify})
	}
	s.publish(res.events...)
	if res.notify != "" && s.notify != nil {
		s.notify(res.notify)
	}
}

// AddFavorite favorites a stored item. Favoriting an item that already is
// favorited does nothing.
func (s *Set) AddFavorite(ctx context.Context, id string) error {
	s.mu.Lock()
	item, ok := s.items[id]
	done := ok && item.Favorited
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownItem, id)
	}
	if done {
		return nil
	}
	if err := s.client.CreateFavorite(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	item.Favorited = true
	item.Membership = item.Membership.with(TagFavorite)
	events := []Event{{Kind: ItemChanged, ItemID: id}}
	if fv := s.views[Favorites]; !fv.contains(item) {
		fv.items = append(fv.items, item)
		fv.sort()
		events = append(events, Event{Kind: ViewChanged, View: Favorites, ItemID: id})
	}
	s.mu.Unlock()

	s.publish(events...)
	return nil
}

// RemoveFavorite un-favorites a stored item. Items that are not favorited
// are left alone.
func (s *Set) RemoveFavorite(ctx context.Context, id string) error {
	s.mu.Lock()
	item, ok := s.items[id]
	done := ok && !item.Favorited
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownItem, id)
	}
	if done {
		return nil
	}
	if err := s.client.DestroyFavorite(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	item.Favorited = false
	item.Membership = item.Membership.without(TagFavorite)
	events := []Event{{Kind: ItemChanged, ItemID: id}}
	if s.views[Favorites].remove(item) {
		events = append(events, Event{Kind: ViewChanged, View: Favorites, ItemID: id})
	}
	s.mu.Unlock()

	s.publish(events...)
	return nil
}

// DeleteTweet deletes a status server side and removes it from every view.
// The store keeps the item so the id still resolves.
func (s *Set) DeleteTweet(ctx context.Context, id string) error {
	s.mu.Lock()
	item, ok := s.items[id]
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownItem, id)
	}
	if err := s.client.DestroyStatus(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	var events []Event
	for _, name := range Names {
		if s.views[name].remove(item) {
			events = append(events, Event{Kind: ViewChanged, View: name, ItemID: id})
		}
	}
	s.mu.Unlock()

	s.publish(events...)
	return nil
}

// Retweet toggles the user's retweet of a stored item. Undoing looks up
// the id of the user's own retweet and deletes it.
func (s *Set) Retweet(ctx context.Context, id string) error {
	s.mu.Lock()
	item, ok := s.items[id]
	var retweeted bool
	var original string
	if ok {
		retweeted = item.IsRetweet
		original = item.RetweetStatusID
	}
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownItem, id)
	}

	if retweeted {
		if original == "" {
			original = id
		}
		status, err := s.client.GetStatus(ctx, original)
		if err != nil {
			return err
		}
		if status.CurrentUserRetweet == nil || status.CurrentUserRetweet.ID == "" {
			return fmt.Errorf("%w: no retweet of %s by current user", twitter.ErrMalformedResponse, original)
		}
		if err := s.client.DestroyStatus(ctx, status.CurrentUserRetweet.ID); err != nil {
			return err
		}
	} else if err := s.client.Retweet(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	item.IsRetweet = !retweeted
	s.mu.Unlock()

	s.publish(Event{Kind: ItemChanged, ItemID: id})
	return nil
}

// PostStatus posts text, optionally as a reply, and merges the created
// status into home and unified.
func (s *Set) PostStatus(ctx context.Context, text, inReplyToID string) (Item, error) {
	status, err := s.client.UpdateStatus(ctx, text, inReplyToID)
	if err != nil {
		return Item{}, err
	}
	return s.mergeCreated(status, TagHome, Home, Unified)
}

// PostStatusWithMedia posts text with an attached image.
func (s *Set) PostStatusWithMedia(ctx context.Context, text, mediaPath string) (Item, error) {
	status, err := s.client.UpdateStatusWithMedia(ctx, text, mediaPath)
	if err != nil {
		return Item{}, err
	}
	return s.mergeCreated(status, TagHome, Home, Unified)
}

// PostDirectMessage sends a direct message and merges it into messages
// and unified.
func (s *Set) PostDirectMessage(ctx context.Context, text, screenName string) (Item, error) {
	status, err := s.client.SendDirectMessage(ctx, text, screenName)
	if err != nil {
		return Item{}, err
	}
	return s.mergeCreated(status, TagMessage, Messages, Unified)
}

// Lookup fetches one status into the store without adding it to a view.
func (s *Set) Lookup(ctx context.Context, id string) (Item, error) {
	if item, ok := s.Item(id); ok {
		return item, nil
	}
	status, err := s.client.GetStatus(ctx, id)
	if err != nil {
		return Item{}, err
	}
	return s.mergeCreated(status, 0)
}

func (s *Set) mergeCreated(status *twitter.Status, tag Tag, targets ...Name) (Item, error) {
	s.mu.Lock()
	res := s.mergeLocked(targets, []twitter.Status{*status}, tag)
	item, ok := s.items[status.ID]
	var out Item
	if ok {
		out = item.snapshot()
	}
	s.mu.Unlock()

	s.afterMerge(res)
	if !ok {
		return Item{}, fmt.Errorf("%w: status %q could not be stored", twitter.ErrMalformedResponse, status.ID)
	}
	return out, nil
}

// SwitchTimeline makes name the active view. Unknown names change nothing.
func (s *Set) SwitchTimeline(name Name) bool {
	s.mu.Lock()
	if _, ok := s.views[name]; !ok {
		s.mu.Unlock()
		return false
	}
	changed := s.active != name
	s.active = name
	s.searchVisible = name == Search
	s.mu.Unlock()

	if changed {
		s.publish(Event{Kind: ActiveChanged, View: name})
	}
	return true
}

// RefreshTimeAgo recomputes the relative-time label of every item in the
// active view. Order is unchanged.
func (s *Set) RefreshTimeAgo() {
	s.mu.Lock()
	now := s.now()
	active := s.active
	for _, item := range s.views[active].items {
		item.TimeAgo = TimeAgo(now, item.CreatedAt)
	}
	s.mu.Unlock()

	s.publish(Event{Kind: ItemChanged, View: active})
}

// ClearAll empties every view and resets the high-water marks. The store
// keeps its items.
func (s *Set) ClearAll() {
	s.mu.Lock()
	for _, name := range Names {
		s.views[name] = &view{}
	}
	s.mu.Unlock()

	events := make([]Event, 0, len(Names))
	for _, name := range Names {
		events = append(events, Event{Kind: ViewChanged, View: name})
	}
	s.publish(events...)
}

// View returns a copy of the named view's items, newest first.
func (s *Set) View(name Name) []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyView(name)
}

// Active returns the active view's name and a copy of its items.
func (s *Set) Active() (Name, []Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active, s.copyView(s.active)
}

func (s *Set) copyView(name Name) []Item {
	v, ok := s.views[name]
	if !ok {
		return nil
	}
	out := make([]Item, len(v.items))
	for i, item := range v.items {
		out[i] = item.snapshot()
	}
	return out
}

// SearchVisible reports whether search affordances should be shown.
func (s *Set) SearchVisible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searchVisible
}

// Item returns a copy of the stored item with id, including deleted ones.
func (s *Set) Item(id string) (Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return Item{}, false
	}
	return item.snapshot(), true
}

// ScreenNames returns every handle seen so far, in first-seen order.
func (s *Set) ScreenNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.handles...)
}

// SinceID returns the named view's high-water mark.
func (s *Set) SinceID(name Name) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.views[name]; ok {
		return v.sinceID
	}
	return 0
}

// Close cancels running searches, waits for them and closes subscriber
// channels.
func (s *Set) Close() {
	s.mu.Lock()
	s.cancel()
	s.mu.Unlock()

	s.searches.Wait()
	s.closeSubscribers()
}
