// Package twitter provides a client for the Twitter REST API v1.1.
//
// This package enables tweetmix to:
// - Sign every request with OAuth 1.0a user credentials
// - Fetch home, mentions, direct message, favorites and search timelines
// - Favorite, retweet, delete and post statuses
package twitter

import (
	"fmt"
	"time"
)

// CreatedAtLayout is the fixed timestamp format of status payloads.
const CreatedAtLayout = "Mon Jan 02 15:04:05 -0700 2006"

// Status is a raw status or direct message as returned by the API.
type Status struct {
	ID                 string              `json:"id_str"`
	CreatedAt          string              `json:"created_at"`
	Text               string              `json:"text"`
	User               *User               `json:"user,omitempty"`
	Sender             *User               `json:"sender,omitempty"`
	Recipient          *User               `json:"recipient,omitempty"`
	RetweetedStatus    *Status             `json:"retweeted_status,omitempty"`
	Entities           Entities            `json:"entities"`
	Favorited          bool                `json:"favorited"`
	Retweeted          bool                `json:"retweeted"`
	CurrentUserRetweet *CurrentUserRetweet `json:"current_user_retweet,omitempty"`
}

// User is the author, sender or recipient of a status.
type User struct {
	ID              string `json:"id_str"`
	Name            string `json:"name"`
	ScreenName      string `json:"screen_name"`
	ProfileImageURL string `json:"profile_image_url_https"`
}

// Entities are positional annotations over a status text.
type Entities struct {
	URLs     []URLEntity     `json:"urls,omitempty"`
	Mentions []MentionEntity `json:"user_mentions,omitempty"`
	HashTags []HashTagEntity `json:"hashtags,omitempty"`
	Media    []MediaEntity   `json:"media,omitempty"`
}

type URLEntity struct {
	URL         string `json:"url"`
	DisplayURL  string `json:"display_url"`
	ExpandedURL string `json:"expanded_url"`
	Indices     [2]int `json:"indices"`
}

type MentionEntity struct {
	ScreenName string `json:"screen_name"`
	Name       string `json:"name"`
	Indices    [2]int `json:"indices"`
}

type HashTagEntity struct {
	Text    string `json:"text"`
	Indices [2]int `json:"indices"`
}

type MediaEntity struct {
	URL      string `json:"url"`
	MediaURL string `json:"media_url_https"`
	Indices  [2]int `json:"indices"`
}

// CurrentUserRetweet is present when the authenticated user retweeted a status.
type CurrentUserRetweet struct {
	ID string `json:"id_str"`
}

// ParseCreatedAt parses a created_at value into UTC.
func ParseCreatedAt(value string) (time.Time, error) {
	t, err := time.Parse(CreatedAtLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid created_at %q: %w", value, err)
	}
	return t.UTC(), nil
}

// API response types (private - implementation detail)

type searchResponse struct {
	Statuses []Status `json:"statuses"`
}
