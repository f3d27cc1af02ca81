package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/gauthierbraillon/tweetmix/internal/logging"
	"github.com/gauthierbraillon/tweetmix/pkg/oauth"
)

const (
	defaultBaseURL = "https://api.twitter.com/1.1"
	timelineCount  = 200
	searchCount    = 100
)

// HTTPClient interface for making HTTP requests (allows injection for testing).
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithBaseURL sets a custom base URL (useful for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithRateLimit caps outgoing requests. A zero limit disables limiting.
func WithRateLimit(perSecond float64, burst int) ClientOption {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// Client is a Twitter REST API client acting on behalf of one user.
type Client struct {
	signer     *oauth.Signer
	creds      oauth.Credentials
	baseURL    string
	httpClient HTTPClient
	limiter    *rate.Limiter
}

// NewClient creates a new Twitter API client signing with the given credentials.
func NewClient(signer *oauth.Signer, creds oauth.Credentials, opts ...ClientOption) *Client {
	c := &Client{
		signer:     signer,
		creds:      creds,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(time.Second), 3),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// HomeTimeline retrieves statuses newer than sinceID from the home timeline.
func (c *Client) HomeTimeline(ctx context.Context, sinceID uint64) ([]Status, error) {
	return c.fetchTimeline(ctx, "/statuses/home_timeline.json", sinceID)
}

// MentionsTimeline retrieves statuses mentioning the user.
func (c *Client) MentionsTimeline(ctx context.Context, sinceID uint64) ([]Status, error) {
	return c.fetchTimeline(ctx, "/statuses/mentions_timeline.json", sinceID)
}

// DirectMessages retrieves direct messages received by the user.
func (c *Client) DirectMessages(ctx context.Context, sinceID uint64) ([]Status, error) {
	return c.fetchTimeline(ctx, "/direct_messages.json", sinceID)
}

// Favorites retrieves statuses the user has favorited.
func (c *Client) Favorites(ctx context.Context, sinceID uint64) ([]Status, error) {
	return c.fetchTimeline(ctx, "/favorites/list.json", sinceID)
}

// Search runs a standard search query.
func (c *Client) Search(ctx context.Context, query string) ([]Status, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("count", strconv.Itoa(searchCount))
	q.Set("include_entities", "true")

	body, err := c.doRequest(ctx, http.MethodGet, "/search/tweets.json", q, nil)
	if err != nil {
		return nil, err
	}

	var response searchResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("%w: failed to parse search response: %v", ErrMalformedResponse, err)
	}
	if response.Statuses == nil {
		return []Status{}, nil
	}
	return response.Statuses, nil
}

// GetStatus retrieves a single status, including the user's own retweet id when present.
func (c *Client) GetStatus(ctx context.Context, id string) (*Status, error) {
	q := url.Values{}
	q.Set("id", id)
	q.Set("include_my_retweet", "true")
	q.Set("include_entities", "true")

	body, err := c.doRequest(ctx, http.MethodGet, "/statuses/show.json", q, nil)
	if err != nil {
		return nil, err
	}
	return parseStatus(body)
}

// CreateFavorite favorites a status.
func (c *Client) CreateFavorite(ctx context.Context, id string) error {
	return c.mutate(ctx, "/favorites/create.json", url.Values{"id": {id}})
}

// DestroyFavorite removes a favorite.
func (c *Client) DestroyFavorite(ctx context.Context, id string) error {
	return c.mutate(ctx, "/favorites/destroy.json", url.Values{"id": {id}})
}

// DestroyStatus deletes one of the user's statuses or retweets.
func (c *Client) DestroyStatus(ctx context.Context, id string) error {
	return c.mutate(ctx, "/statuses/destroy/"+url.PathEscape(id)+".json", nil)
}

// Retweet retweets a status.
func (c *Client) Retweet(ctx context.Context, id string) error {
	return c.mutate(ctx, "/statuses/retweet/"+url.PathEscape(id)+".json", nil)
}

// UpdateStatus posts a status, optionally as a reply.
func (c *Client) UpdateStatus(ctx context.Context, text, inReplyToID string) (*Status, error) {
	form := url.Values{}
	form.Set("status", text)
	if inReplyToID != "" {
		form.Set("in_reply_to_status_id", inReplyToID)
	}

	body, err := c.doRequest(ctx, http.MethodPost, "/statuses/update.json", nil, form)
	if err != nil {
		return nil, err
	}
	return parseStatus(body)
}

// UpdateStatusWithMedia posts a status with one attached image.
func (c *Client) UpdateStatusWithMedia(ctx context.Context, text, mediaPath string) (*Status, error) {
	media, err := os.ReadFile(mediaPath) // #nosec G304 -- path chosen by the user
	if err != nil {
		return nil, fmt.Errorf("failed to read media: %w", err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("status", text); err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	part, err := mw.CreateFormFile("media[]", filepath.Base(mediaPath))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if _, err := part.Write(media); err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	// Multipart bodies are not part of the OAuth signature base string.
	body, err := c.send(ctx, http.MethodPost, "/statuses/update_with_media.json", nil, nil, &buf, mw.FormDataContentType())
	if err != nil {
		return nil, err
	}
	return parseStatus(body)
}

// SendDirectMessage sends a direct message to screenName.
func (c *Client) SendDirectMessage(ctx context.Context, text, screenName string) (*Status, error) {
	form := url.Values{}
	form.Set("text", text)
	form.Set("screen_name", screenName)

	body, err := c.doRequest(ctx, http.MethodPost, "/direct_messages/new.json", nil, form)
	if err != nil {
		return nil, err
	}
	return parseStatus(body)
}

func (c *Client) fetchTimeline(ctx context.Context, path string, sinceID uint64) ([]Status, error) {
	q := url.Values{}
	q.Set("count", strconv.Itoa(timelineCount))
	q.Set("include_entities", "true")
	if sinceID > 0 {
		q.Set("since_id", strconv.FormatUint(sinceID, 10))
	}

	body, err := c.doRequest(ctx, http.MethodGet, path, q, nil)
	if err != nil {
		return nil, err
	}

	var statuses []Status
	if err := json.Unmarshal(body, &statuses); err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s response: %v", ErrMalformedResponse, path, err)
	}
	if statuses == nil {
		return []Status{}, nil
	}
	return statuses, nil
}

func (c *Client) mutate(ctx context.Context, path string, form url.Values) error {
	body, err := c.doRequest(ctx, http.MethodPost, path, nil, form)
	if err != nil {
		return err
	}
	_, err = parseStatus(body)
	return err
}

func (c *Client) doRequest(ctx context.Context, method, path string, query, form url.Values) ([]byte, error) {
	var body io.Reader
	contentType := ""
	if len(form) > 0 {
		body = strings.NewReader(encodeValues(form))
		contentType = "application/x-www-form-urlencoded"
	}
	return c.send(ctx, method, path, query, form, body, contentType)
}

func (c *Client) send(ctx context.Context, method, path string, query, form url.Values, body io.Reader, contentType string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &APIError{Endpoint: path, Err: err}
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + encodeValues(query)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	if err := c.signer.Sign(req, c.creds, toParams(form)); err != nil {
		return nil, err
	}

	logging.Debug("twitter request", "method", method, "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Endpoint: path, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Endpoint: path, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Endpoint: path, StatusCode: resp.StatusCode}
	}

	return data, nil
}

func parseStatus(body []byte) (*Status, error) {
	var status Status
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if status.ID == "" {
		return nil, fmt.Errorf("%w: response has no status id", ErrMalformedResponse)
	}
	return &status, nil
}

// encodeValues renders values with RFC 3986 escaping so the wire form
// matches what was signed.
func encodeValues(values url.Values) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		for _, v := range values[k] {
			parts = append(parts, oauth.PercentEncode(k)+"="+oauth.PercentEncode(v))
		}
	}
	return strings.Join(parts, "&")
}

func toParams(values url.Values) []oauth.Param {
	params := make([]oauth.Param, 0, len(values))
	for k, vs := range values {
		for _, v := range vs {
			params = append(params, oauth.Param{Key: k, Value: v})
		}
	}
	return params
}
