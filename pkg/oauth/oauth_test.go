package oauth

import (
	"errors"
	"net/http"
	"os"
	"strings"
	"testing"
)

// Values from the public "creating a signature" walkthrough of the upstream API.
const (
	docConsumerKey    = "xvz1evFS4wEEPTGEFPHBog"
	docConsumerSecret = "kAcSOqF21Fu85e7zjz7ZN2U4ZRhfV3WpwPAoE3Z7kBw"
	docToken          = "370773112-GmHxMAgYyLbNEtIKZeRNFsMKPR9EyMZeS9weJAEb"
	docTokenSecret    = "LswwdoUaIvS8ltyTt5jkRh4J50vUPVVHtR2YPi5kE"
	docNonce          = "kYjzVBB8Y0ZFabxSWbWovY3uYSQ2pTgmZeNu2VS4cg"
	docTimestamp      = "1318622958"
	docURL            = "https://api.twitter.com/1.1/statuses/update.json"
)

var docParams = []Param{
	{"status", "Hello Ladies + Gentlemen, a signed OAuth request!"},
	{"include_entities", "true"},
}

func TestSignature_MatchesPublishedExample(t *testing.T) {
	signer := NewSigner(docConsumerKey, docConsumerSecret)

	got := signer.Signature("POST", docURL, docNonce, docTimestamp, docToken, docTokenSecret, docParams)

	if got != "hCtSmYh+iHYCEqBWrE7C7hYmtUk=" {
		t.Errorf("signature should match the published example, got %q", got)
	}
}

func TestSignature_IsDeterministic(t *testing.T) {
	signer := NewSigner(docConsumerKey, docConsumerSecret)

	first := signer.Signature("POST", docURL, docNonce, docTimestamp, docToken, docTokenSecret, docParams)
	for i := 0; i < 5; i++ {
		if again := signer.Signature("POST", docURL, docNonce, docTimestamp, docToken, docTokenSecret, docParams); again != first {
			t.Fatalf("signature changed between calls: %q != %q", again, first)
		}
	}
}

func TestSignature_ChangesWhenAnyInputChanges(t *testing.T) {
	signer := NewSigner(docConsumerKey, docConsumerSecret)
	base := signer.Signature("POST", docURL, docNonce, docTimestamp, docToken, docTokenSecret, docParams)

	tests := []struct {
		name string
		sig  string
	}{
		{"method", signer.Signature("GET", docURL, docNonce, docTimestamp, docToken, docTokenSecret, docParams)},
		{"url", signer.Signature("POST", docURL+"x", docNonce, docTimestamp, docToken, docTokenSecret, docParams)},
		{"nonce", signer.Signature("POST", docURL, docNonce+"x", docTimestamp, docToken, docTokenSecret, docParams)},
		{"timestamp", signer.Signature("POST", docURL, docNonce, "1318622959", docToken, docTokenSecret, docParams)},
		{"token", signer.Signature("POST", docURL, docNonce, docTimestamp, docToken+"x", docTokenSecret, docParams)},
		{"token secret", signer.Signature("POST", docURL, docNonce, docTimestamp, docToken, docTokenSecret+"x", docParams)},
		{"params", signer.Signature("POST", docURL, docNonce, docTimestamp, docToken, docTokenSecret, docParams[:1])},
		{"consumer secret", NewSigner(docConsumerKey, "other").Signature("POST", docURL, docNonce, docTimestamp, docToken, docTokenSecret, docParams)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.sig == base {
				t.Errorf("changing %s should change the signature", tt.name)
			}
		})
	}
}

func TestSignature_IgnoresParameterInsertionOrder(t *testing.T) {
	signer := NewSigner(docConsumerKey, docConsumerSecret)
	reversed := []Param{docParams[1], docParams[0]}

	a := signer.Signature("POST", docURL, docNonce, docTimestamp, docToken, docTokenSecret, docParams)
	b := signer.Signature("POST", docURL, docNonce, docTimestamp, docToken, docTokenSecret, reversed)

	if a != b {
		t.Error("parameter order should not affect the signature")
	}
}

func TestAuthorizationHeader_SortsKeysLexicographically(t *testing.T) {
	signer := NewSigner(docConsumerKey, docConsumerSecret)
	params := []Param{{"zeta", "1"}, {"alpha", "2"}, {"oauth_callback", "oob"}}

	header := signer.AuthorizationHeader(docNonce, docTimestamp, docToken, "sig+/=", params)

	if !strings.HasPrefix(header, "OAuth ") {
		t.Fatalf("header should start with OAuth scheme, got %q", header)
	}
	var keys []string
	for _, part := range strings.Split(strings.TrimPrefix(header, "OAuth "), ",") {
		keys = append(keys, strings.SplitN(part, "=", 2)[0])
	}
	want := []string{
		"alpha", "oauth_callback", "oauth_consumer_key", "oauth_nonce", "oauth_signature",
		"oauth_signature_method", "oauth_timestamp", "oauth_token", "oauth_version", "zeta",
	}
	if strings.Join(keys, ",") != strings.Join(want, ",") {
		t.Errorf("header keys out of order:\n got %v\nwant %v", keys, want)
	}
	if !strings.Contains(header, `oauth_signature="sig%2B%2F%3D"`) {
		t.Errorf("signature should be percent-encoded in header, got %q", header)
	}
}

func TestAuthorizationHeader_OmitsEmptyToken(t *testing.T) {
	header := NewSigner("key", "secret").AuthorizationHeader("n", "1", "", "s", nil)

	if strings.Contains(header, "oauth_token") {
		t.Errorf("header should not carry an empty token, got %q", header)
	}
}

func TestPercentEncode(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Ladies + Gentlemen", "Ladies%20%2B%20Gentlemen"},
		{"An encoded string!", "An%20encoded%20string%21"},
		{"Dogs, Cats & Mice", "Dogs%2C%20Cats%20%26%20Mice"},
		{"☃", "%E2%98%83"},
		{"safe-._~AZaz09", "safe-._~AZaz09"},
		{"*'()", "%2A%27%28%29"},
	}
	for _, tt := range tests {
		if got := PercentEncode(tt.in); got != tt.want {
			t.Errorf("PercentEncode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSign_SetsAuthorizationHeader(t *testing.T) {
	signer := NewSigner(docConsumerKey, docConsumerSecret,
		WithNonce(func() string { return docNonce }),
		WithTimestamp(func() string { return docTimestamp }),
	)
	req, _ := http.NewRequest(http.MethodPost, docURL+"?include_entities=true", nil)

	creds := Credentials{AccessToken: docToken, AccessTokenSecret: docTokenSecret}
	if err := signer.Sign(req, creds, docParams[:1]); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	header := req.Header.Get("Authorization")
	if !strings.Contains(header, `oauth_signature="hCtSmYh%2BiHYCEqBWrE7C7hYmtUk%3D"`) {
		t.Errorf("signed request should carry the published signature, got %q", header)
	}
	if strings.Contains(header, "include_entities") {
		t.Error("request parameters belong in the signature, not the header")
	}
}

func TestSign_RequiresCredentials(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, docURL, nil)

	err := NewSigner("key", "secret").Sign(req, Credentials{AccessToken: "only-token"}, nil)

	if !errors.Is(err, ErrMissingCredentials) {
		t.Errorf("expected ErrMissingCredentials, got %v", err)
	}
	if req.Header.Get("Authorization") != "" {
		t.Error("request should not be signed without credentials")
	}
}

func TestTokenStorage(t *testing.T) {
	dir, _ := os.MkdirTemp("", "oauth-test")
	defer os.RemoveAll(dir)

	storage := NewTokenStorage(dir)
	creds := &Credentials{AccessToken: "token", AccessTokenSecret: "secret", ScreenName: "alice"}

	if err := storage.Save("default", creds); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := storage.Load("default")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if *loaded != *creds {
		t.Errorf("loaded credentials differ: %+v", loaded)
	}
}

func TestTokenStorage_NotFound(t *testing.T) {
	dir, _ := os.MkdirTemp("", "oauth-test")
	defer os.RemoveAll(dir)

	_, err := NewTokenStorage(dir).Load("nonexistent")
	if err != ErrTokenNotFound {
		t.Errorf("expected ErrTokenNotFound, got %v", err)
	}
}
