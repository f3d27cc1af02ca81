package oauth

import (
	"crypto/hmac"
	"crypto/sha1" // #nosec G505 -- HMAC-SHA1 is mandated by the OAuth 1.0a signature method
	"encoding/base64"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	oauthVersion    = "1.0"
	signatureMethod = "HMAC-SHA1"
)

// Param is a single request parameter that takes part in the signature.
type Param struct {
	Key   string
	Value string
}

// SignerOption configures the Signer.
type SignerOption func(*Signer)

// WithNonce replaces the nonce generator (useful for testing).
func WithNonce(fn func() string) SignerOption {
	return func(s *Signer) { s.nonce = fn }
}

// WithTimestamp replaces the timestamp generator (useful for testing).
func WithTimestamp(fn func() string) SignerOption {
	return func(s *Signer) { s.timestamp = fn }
}

// Signer produces OAuth 1.0a HMAC-SHA1 signatures for a single consumer.
type Signer struct {
	consumerKey    string
	consumerSecret string // #nosec G117 - consumer secret held in memory only
	nonce          func() string
	timestamp      func() string
}

// NewSigner creates a Signer for the given consumer key pair.
func NewSigner(consumerKey, consumerSecret string, opts ...SignerOption) *Signer {
	s := &Signer{
		consumerKey:    consumerKey,
		consumerSecret: consumerSecret,
		nonce:          uuid.NewString,
		timestamp: func() string {
			return strconv.FormatInt(time.Now().Unix(), 10)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Signature returns the base64 HMAC-SHA1 signature over the canonical base
// string. For fixed inputs the result is byte-for-byte reproducible.
func (s *Signer) Signature(method, rawURL, nonce, timestamp, accessToken, accessTokenSecret string, params []Param) string {
	pairs := s.orderedParameters(nonce, timestamp, accessToken, "", params)

	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = p.Key + "=" + p.Value
	}
	parameterString := strings.Join(parts, "&")

	baseString := strings.ToUpper(method) + "&" + PercentEncode(rawURL) + "&" + PercentEncode(parameterString)
	signingKey := PercentEncode(s.consumerSecret) + "&" + PercentEncode(accessTokenSecret)

	mac := hmac.New(sha1.New, []byte(signingKey))
	mac.Write([]byte(baseString))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// AuthorizationHeader renders the Authorization header value with the
// parameters in the same sorted order used for signing.
func (s *Signer) AuthorizationHeader(nonce, timestamp, accessToken, signature string, params []Param) string {
	pairs := s.orderedParameters(nonce, timestamp, accessToken, signature, params)

	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = p.Key + `="` + p.Value + `"`
	}
	return "OAuth " + strings.Join(parts, ",")
}

// Sign computes a fresh nonce and timestamp and sets the Authorization
// header on req. Query parameters of req and the given form parameters are
// covered by the signature.
func (s *Signer) Sign(req *http.Request, creds Credentials, form []Param) error {
	if err := creds.Validate(); err != nil {
		return err
	}

	params := make([]Param, 0, len(form))
	for key, values := range req.URL.Query() {
		for _, v := range values {
			params = append(params, Param{Key: key, Value: v})
		}
	}
	params = append(params, form...)

	baseURL := *req.URL
	baseURL.RawQuery = ""
	baseURL.Fragment = ""

	nonce, timestamp := s.nonce(), s.timestamp()
	signature := s.Signature(req.Method, baseURL.String(), nonce, timestamp, creds.AccessToken, creds.AccessTokenSecret, params)
	req.Header.Set("Authorization", s.AuthorizationHeader(nonce, timestamp, creds.AccessToken, signature, nil))
	return nil
}

func (s *Signer) orderedParameters(nonce, timestamp, accessToken, signature string, params []Param) []Param {
	pairs := []Param{
		{"oauth_version", oauthVersion},
		{"oauth_nonce", PercentEncode(nonce)},
		{"oauth_timestamp", PercentEncode(timestamp)},
		{"oauth_signature_method", signatureMethod},
		{"oauth_consumer_key", PercentEncode(s.consumerKey)},
	}
	if strings.TrimSpace(signature) != "" {
		pairs = append(pairs, Param{"oauth_signature", PercentEncode(signature)})
	}
	if strings.TrimSpace(accessToken) != "" {
		pairs = append(pairs, Param{"oauth_token", PercentEncode(accessToken)})
	}
	for _, p := range params {
		pairs = append(pairs, Param{PercentEncode(p.Key), PercentEncode(p.Value)})
	}

	sort.SliceStable(pairs, func(i, j int) bool {
		if pairs[i].Key != pairs[j].Key {
			return pairs[i].Key < pairs[j].Key
		}
		return pairs[i].Value < pairs[j].Value
	})
	return pairs
}

// PercentEncode escapes every byte outside the RFC 3986 unreserved set.
func PercentEncode(value string) string {
	const hex = "0123456789ABCDEF"

	var b strings.Builder
	b.Grow(len(value))
	for i := 0; i < len(value); i++ {
		c := value[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0F])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '.', c == '_', c == '~':
		return true
	}
	return false
}
