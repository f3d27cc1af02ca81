package timeline

import (
	"errors"
	"strings"
	"time"

	"github.com/gauthierbraillon/tweetmix/internal/markup"
	"github.com/gauthierbraillon/tweetmix/internal/twitter"
)

var errMalformedItem = errors.New("malformed item")

// Tag records which feed surfaced an item.
type Tag byte

const (
	TagHome     Tag = 'h'
	TagMention  Tag = 'm'
	TagMessage  Tag = 'd'
	TagFavorite Tag = 'f'
	TagSearch   Tag = 's'
)

// Membership is the set of tags an item has collected, in arrival order.
type Membership string

// Has reports whether tag is present.
func (m Membership) Has(tag Tag) bool {
	return strings.IndexByte(string(m), byte(tag)) >= 0
}

func (m Membership) with(tag Tag) Membership {
	if tag == 0 || m.Has(tag) {
		return m
	}
	return m + Membership(tag)
}

func (m Membership) without(tag Tag) Membership {
	return Membership(strings.ReplaceAll(string(m), string(byte(tag)), ""))
}

// Item is a status as presented in the timelines. The Set owns every Item;
// callers only ever see copies.
type Item struct {
	ID              string
	ScreenName      string
	Name            string
	ProfileImageURL string
	Text            string
	CreatedAt       time.Time
	TimeAgo         string
	Segments        []markup.Segment
	Membership      Membership
	Favorited       bool
	IsRetweet       bool
	RetweetedBy     string
	RetweetStatusID string
	MediaLinks      []string
}

func (it *Item) snapshot() Item {
	c := *it
	c.Segments = append([]markup.Segment(nil), it.Segments...)
	c.MediaLinks = append([]string(nil), it.MediaLinks...)
	return c
}

// newItem builds an Item from a raw status. A retweet displays the wrapped
// original; a direct message displays whichever side of the conversation is
// not the current user.
func newItem(status *twitter.Status, screenName string, now time.Time) (*Item, error) {
	if status.ID == "" {
		return nil, errMalformedItem
	}
	createdAt, err := twitter.ParseCreatedAt(status.CreatedAt)
	if err != nil {
		return nil, err
	}

	display := status
	if status.RetweetedStatus != nil {
		display = status.RetweetedStatus
	}

	user := display.User
	if user == nil {
		switch {
		case status.Sender == nil || status.Recipient == nil:
			return nil, errMalformedItem
		case strings.EqualFold(status.Recipient.ScreenName, screenName):
			user = status.Sender
		default:
			user = status.Recipient
		}
	}

	item := &Item{
		ID:              status.ID,
		ScreenName:      user.ScreenName,
		Name:            user.Name,
		ProfileImageURL: user.ProfileImageURL,
		Text:            display.Text,
		CreatedAt:       createdAt,
		TimeAgo:         TimeAgo(now, createdAt),
		Segments:        markup.Annotate(display.Text, spans(display.Entities)),
		Favorited:       status.Favorited,
		IsRetweet:       status.Retweeted,
		MediaLinks:      []string{},
	}
	if status.RetweetedStatus != nil {
		item.RetweetStatusID = status.RetweetedStatus.ID
		if status.User != nil && !strings.EqualFold(status.User.ScreenName, screenName) {
			item.RetweetedBy = status.User.Name
		}
	}
	for _, m := range display.Entities.Media {
		item.MediaLinks = append(item.MediaLinks, m.MediaURL)
	}
	return item, nil
}

func spans(e twitter.Entities) []markup.Span {
	out := make([]markup.Span, 0, len(e.URLs)+len(e.Mentions)+len(e.HashTags)+len(e.Media))
	for _, u := range e.URLs {
		out = append(out, markup.Span{Kind: markup.KindURL, Text: u.URL, Start: u.Indices[0], End: u.Indices[1]})
	}
	for _, m := range e.Mentions {
		out = append(out, markup.Span{Kind: markup.KindMention, Text: m.ScreenName, Start: m.Indices[0], End: m.Indices[1]})
	}
	for _, h := range e.HashTags {
		out = append(out, markup.Span{Kind: markup.KindHashTag, Text: h.Text, Start: h.Indices[0], End: h.Indices[1]})
	}
	for _, m := range e.Media {
		out = append(out, markup.Span{Kind: markup.KindMedia, Text: m.URL, Start: m.Indices[0], End: m.Indices[1]})
	}
	return out
}
