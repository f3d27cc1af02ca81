// Package oauth provides OAuth 1.0a utilities for tweetmix.
package oauth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var (
	ErrTokenNotFound      = errors.New("token not found")
	ErrMissingCredentials = errors.New("missing access token or access token secret")
)

// Credentials identify the authenticated user. They are issued once per
// account and never refreshed.
type Credentials struct {
	AccessToken       string `json:"access_token"`        // #nosec G117 - JSON field for OAuth token, not an exposed secret
	AccessTokenSecret string `json:"access_token_secret"` // #nosec G117 - JSON field for OAuth token, not an exposed secret
	ScreenName        string `json:"screen_name"`
}

// Validate reports ErrMissingCredentials when either half of the token pair is empty.
func (c Credentials) Validate() error {
	if c.AccessToken == "" || c.AccessTokenSecret == "" {
		return ErrMissingCredentials
	}
	return nil
}

type TokenStorage struct {
	dir string
}

func NewTokenStorage(dir string) *TokenStorage {
	return &TokenStorage{dir: dir}
}

func (s *TokenStorage) Save(account string, creds *Credentials) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	cleanAccount := filepath.Base(account)
	return os.WriteFile(filepath.Join(s.dir, cleanAccount+"_token.json"), data, 0600)
}

func (s *TokenStorage) Load(account string) (*Credentials, error) {
	cleanAccount := filepath.Base(account)
	data, err := os.ReadFile(filepath.Join(s.dir, cleanAccount+"_token.json")) // #nosec G304 -- account is sanitized
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to read token: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token: %w", err)
	}

	return &creds, nil
}
