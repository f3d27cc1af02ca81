package timeline

import (
	"sort"
	"strconv"

	"github.com/gauthierbraillon/tweetmix/internal/twitter"
)

// Name identifies one of the fixed timeline views.
type Name string

const (
	Unified   Name = "unified"
	Home      Name = "home"
	Mentions  Name = "mentions"
	Messages  Name = "messages"
	Favorites Name = "favorites"
	Search    Name = "search"
)

// Names lists every view in display order.
var Names = []Name{Unified, Home, Mentions, Messages, Favorites, Search}

// ParseName returns the view called s.
func ParseName(s string) (Name, bool) {
	for _, n := range Names {
		if string(n) == s {
			return n, true
		}
	}
	return "", false
}

type view struct {
	items   []*Item
	sinceID uint64
}

func (v *view) indexOf(item *Item) int {
	for i, it := range v.items {
		if it == item {
			return i
		}
	}
	return -1
}

func (v *view) contains(item *Item) bool {
	return v.indexOf(item) >= 0
}

func (v *view) remove(item *Item) bool {
	i := v.indexOf(item)
	if i < 0 {
		return false
	}
	v.items = append(v.items[:i], v.items[i+1:]...)
	return true
}

// sort orders the view newest first. Entries already in place are left
// alone so observers only see real moves. Returns the number of moves.
func (v *view) sort() int {
	sorted := make([]*Item, len(v.items))
	copy(sorted, v.items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	moves := 0
	for i, item := range sorted {
		if v.items[i] == item {
			continue
		}
		// everything before i is final, so the item sits further down
		j := i + 1
		for v.items[j] != item {
			j++
		}
		copy(v.items[i+1:j+1], v.items[i:j])
		v.items[i] = item
		moves++
	}
	return moves
}

// maxSinceID raises current to the highest numeric id in statuses.
func maxSinceID(current uint64, statuses []twitter.Status) uint64 {
	for _, s := range statuses {
		id, err := strconv.ParseUint(s.ID, 10, 64)
		if err != nil {
			continue
		}
		if id > current {
			current = id
		}
	}
	return current
}
