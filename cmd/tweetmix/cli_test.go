// Package main tests document the expected behavior of the tweetmix CLI.
//
// These are BLACK BOX tests - they test the CLI by executing the binary
// and checking stdout/stderr output.
//
// External dependencies mocked:
// - Twitter REST API via TWEETMIX_API_URL pointing at an httptest server
// - Token storage and config.yml via TWEETMIX_CONFIG_DIR
//
// Test requirements (this file serves as documentation):
// - CLI has root command with version info
// - "auth" stores the access token pair in the config dir
// - "timeline" fetches and displays the unified view by default
// - "search", "post", "favorite" and "open" reach the right endpoints
// - Missing credentials produce helpful errors
package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

var binaryPath string

// TestMain builds the binary once before running tests.
func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "tweetmix-test")
	if err != nil {
		panic(err)
	}

	binaryPath = filepath.Join(dir, "tweetmix")
	cmd := exec.Command("go", "build", "-o", binaryPath, ".")
	cmd.Dir = "."
	if err := cmd.Run(); err != nil {
		panic("failed to build binary: " + err.Error())
	}

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

// runCLI executes the CLI binary with given arguments and environment.
func runCLI(t *testing.T, env map[string]string, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)

	cmd.Env = os.Environ()
	for k, v := range env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	var outBuf, errBuf strings.Builder
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err := cmd.Run()
	exitCode = 0
	if exitErr, ok := err.(*exec.ExitError); ok {
		exitCode = exitErr.ExitCode()
	} else if err != nil {
		t.Fatalf("failed to run command: %v", err)
	}

	return outBuf.String(), errBuf.String(), exitCode
}

// runCLISimple runs CLI with an isolated, empty config dir.
func runCLISimple(t *testing.T, args ...string) (stdout, stderr string, exitCode int) {
	return runCLI(t, map[string]string{"TWEETMIX_CONFIG_DIR": t.TempDir()}, args...)
}

const homeJSON = `[{
	"id_str": "101",
	"created_at": "Wed Aug 27 13:08:45 +0000 2008",
	"text": "hello @bob #golang",
	"user": {"name": "Alice", "screen_name": "alice"},
	"entities": {
		"user_mentions": [{"screen_name": "bob", "indices": [6, 10]}],
		"hashtags": [{"text": "golang", "indices": [11, 18]}]
	}
}]`

const mentionsJSON = `[{
	"id_str": "102",
	"created_at": "Wed Aug 27 14:08:45 +0000 2008",
	"text": "@me ping",
	"user": {"name": "Carol", "screen_name": "carol"}
}]`

const showJSON = `{
	"id_str": "101",
	"created_at": "Wed Aug 27 13:08:45 +0000 2008",
	"text": "hello",
	"user": {"name": "Alice", "screen_name": "alice"}
}`

// fakeAPI records the requests it served.
type fakeAPI struct {
	mu       sync.Mutex
	requests []string
	bodies   []string
}

func (f *fakeAPI) paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	t.Helper()
	api := &fakeAPI{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		api.mu.Lock()
		api.requests = append(api.requests, r.Method+" "+r.URL.Path)
		api.bodies = append(api.bodies, string(body))
		api.mu.Unlock()

		if !strings.HasPrefix(r.Header.Get("Authorization"), "OAuth ") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/statuses/home_timeline.json":
			_, _ = io.WriteString(w, homeJSON)
		case "/statuses/mentions_timeline.json":
			_, _ = io.WriteString(w, mentionsJSON)
		case "/direct_messages.json", "/favorites/list.json":
			_, _ = io.WriteString(w, "[]")
		case "/search/tweets.json":
			_, _ = io.WriteString(w, `{"statuses": `+mentionsJSON+`}`)
		case "/statuses/show.json":
			if r.URL.Query().Get("id") != "101" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			_, _ = io.WriteString(w, showJSON)
		case "/favorites/create.json", "/statuses/update.json":
			_, _ = io.WriteString(w, showJSON)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return api, server
}

func apiEnv(t *testing.T, serverURL string) map[string]string {
	return map[string]string{
		"TWEETMIX_CONFIG_DIR":          t.TempDir(),
		"TWEETMIX_API_URL":             serverURL,
		"TWEETMIX_CONSUMER_KEY":        "ck",
		"TWEETMIX_CONSUMER_SECRET":     "cs",
		"TWEETMIX_ACCESS_TOKEN":        "at",
		"TWEETMIX_ACCESS_TOKEN_SECRET": "ats",
		"TWEETMIX_SCREEN_NAME":         "me",
		"TWEETMIX_REQUESTS_PER_SECOND": "0",
	}
}

// TestRootCommand_Help verifies help output shows available commands.
func TestRootCommand_Help(t *testing.T) {
	stdout, _, _ := runCLISimple(t, "--help")
	output := strings.ToLower(stdout)

	expects := []string{"tweetmix", "usage", "auth", "timeline", "search", "watch", "post", "favorite", "retweet", "open"}
	for _, want := range expects {
		if !strings.Contains(output, want) {
			t.Errorf("help should contain %q, got:\n%s", want, stdout)
		}
	}
}

// TestRootCommand_Version verifies version output.
func TestRootCommand_Version(t *testing.T) {
	stdout, _, _ := runCLISimple(t, "--version")

	if !strings.HasPrefix(stdout, "tweetmix version ") {
		t.Errorf("version should show tweetmix and version, got:\n%s", stdout)
	}
}

// TestAuthCommand_RequiresTokens verifies auth needs the token pair.
func TestAuthCommand_RequiresTokens(t *testing.T) {
	_, stderr, exitCode := runCLI(t, map[string]string{
		"TWEETMIX_CONFIG_DIR":          t.TempDir(),
		"TWEETMIX_ACCESS_TOKEN":        "",
		"TWEETMIX_ACCESS_TOKEN_SECRET": "",
	}, "auth")

	if exitCode == 0 {
		t.Error("should fail without tokens")
	}
	if !strings.Contains(strings.ToLower(stderr), "token") {
		t.Errorf("error should mention the token, got:\n%s", stderr)
	}
}

// TestAuthCommand_SavesToken verifies credentials land in the config dir.
func TestAuthCommand_SavesToken(t *testing.T) {
	configDir := t.TempDir()

	stdout, stderr, exitCode := runCLI(t, map[string]string{"TWEETMIX_CONFIG_DIR": configDir},
		"auth", "--token", "at", "--token-secret", "ats", "--screen-name", "gopher")

	if exitCode != 0 {
		t.Fatalf("auth should succeed, got exit code %d: %s", exitCode, stderr)
	}
	if !strings.Contains(stdout, "@gopher") {
		t.Errorf("user should see who they authenticated as, got:\n%s", stdout)
	}
	if _, err := os.Stat(filepath.Join(configDir, "twitter_token.json")); err != nil {
		t.Errorf("token file should exist: %v", err)
	}
}

// TestTimelineCommand_RequiresCredentials verifies a helpful error without a token.
func TestTimelineCommand_RequiresCredentials(t *testing.T) {
	_, stderr, exitCode := runCLI(t, map[string]string{
		"TWEETMIX_CONFIG_DIR":          t.TempDir(),
		"TWEETMIX_CONSUMER_KEY":        "ck",
		"TWEETMIX_CONSUMER_SECRET":     "cs",
		"TWEETMIX_ACCESS_TOKEN":        "",
		"TWEETMIX_ACCESS_TOKEN_SECRET": "",
	}, "timeline")

	if exitCode == 0 {
		t.Error("should fail without credentials")
	}
	if !strings.Contains(stderr, "tweetmix auth") {
		t.Errorf("error should point to the auth command, got:\n%s", stderr)
	}
}

// TestTimelineCommand_RejectsUnknownView verifies view names are validated.
func TestTimelineCommand_RejectsUnknownView(t *testing.T) {
	_, stderr, exitCode := runCLISimple(t, "timeline", "bogus")

	if exitCode == 0 {
		t.Error("should fail with unknown view")
	}
	if !strings.Contains(strings.ToLower(stderr), "invalid") {
		t.Errorf("error should mention invalid, got:\n%s", stderr)
	}
}

// TestTimelineCommand_DisplaysUnifiedView verifies home and mentions are merged.
func TestTimelineCommand_DisplaysUnifiedView(t *testing.T) {
	api, server := newFakeAPI(t)

	stdout, stderr, exitCode := runCLI(t, apiEnv(t, server.URL), "timeline")

	if exitCode != 0 {
		t.Fatalf("timeline should succeed, got exit code %d: %s", exitCode, stderr)
	}
	for _, want := range []string{"@alice", "@carol", "hello @bob #golang", "[h]", "[m]"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output should contain %q, got:\n%s", want, stdout)
		}
	}
	if strings.Index(stdout, "@carol") > strings.Index(stdout, "@alice") {
		t.Error("newest status should be shown first")
	}
	if len(api.paths()) != 3 {
		t.Errorf("unified view should fetch home, mentions and messages, got %v", api.paths())
	}
}

// TestTimelineCommand_SingleView verifies only the requested feed is fetched.
func TestTimelineCommand_SingleView(t *testing.T) {
	api, server := newFakeAPI(t)

	stdout, _, exitCode := runCLI(t, apiEnv(t, server.URL), "timeline", "home")

	if exitCode != 0 {
		t.Fatalf("timeline home should succeed, got exit code %d", exitCode)
	}
	if strings.Contains(stdout, "@carol") {
		t.Error("home view should not show mentions")
	}
	if got := api.paths(); len(got) != 1 || got[0] != "GET /statuses/home_timeline.json" {
		t.Errorf("only home should be fetched, got %v", got)
	}
}

// TestSearchCommand_DisplaysResults verifies search output.
func TestSearchCommand_DisplaysResults(t *testing.T) {
	_, server := newFakeAPI(t)

	stdout, stderr, exitCode := runCLI(t, apiEnv(t, server.URL), "search", "ping")

	if exitCode != 0 {
		t.Fatalf("search should succeed, got exit code %d: %s", exitCode, stderr)
	}
	if !strings.Contains(stdout, "@carol") || !strings.Contains(stdout, "[s]") {
		t.Errorf("output should contain the search result, got:\n%s", stdout)
	}
}

// TestPostCommand_PostsStatus verifies the status text reaches the API.
func TestPostCommand_PostsStatus(t *testing.T) {
	api, server := newFakeAPI(t)

	stdout, stderr, exitCode := runCLI(t, apiEnv(t, server.URL), "post", "hello", "world")

	if exitCode != 0 {
		t.Fatalf("post should succeed, got exit code %d: %s", exitCode, stderr)
	}
	if !strings.Contains(stdout, "https://twitter.com/alice/status/101") {
		t.Errorf("user should see the permalink of the new status, got:\n%s", stdout)
	}
	api.mu.Lock()
	defer api.mu.Unlock()
	if len(api.bodies) != 1 || api.bodies[0] != "status=hello%20world" {
		t.Errorf("status text should be posted, got %v", api.bodies)
	}
}

// TestFavoriteCommand_LooksUpThenFavorites verifies id-based commands.
func TestFavoriteCommand_LooksUpThenFavorites(t *testing.T) {
	api, server := newFakeAPI(t)

	stdout, stderr, exitCode := runCLI(t, apiEnv(t, server.URL), "favorite", "101")

	if exitCode != 0 {
		t.Fatalf("favorite should succeed, got exit code %d: %s", exitCode, stderr)
	}
	if !strings.Contains(stdout, "Favorited 101") {
		t.Errorf("user should see confirmation, got:\n%s", stdout)
	}
	want := []string{"GET /statuses/show.json", "POST /favorites/create.json"}
	if got := api.paths(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("got requests %v, want %v", got, want)
	}
}

// TestOpenCommand_PrintsPermalink verifies the link of a status.
func TestOpenCommand_PrintsPermalink(t *testing.T) {
	_, server := newFakeAPI(t)

	stdout, stderr, exitCode := runCLI(t, apiEnv(t, server.URL), "open", "--print", "101")

	if exitCode != 0 {
		t.Fatalf("open should succeed, got exit code %d: %s", exitCode, stderr)
	}
	if strings.TrimSpace(stdout) != "https://twitter.com/alice/status/101" {
		t.Errorf("unexpected link: %q", stdout)
	}
}

// TestCommands_ReportAPIErrors verifies HTTP failures are explained.
func TestCommands_ReportAPIErrors(t *testing.T) {
	_, server := newFakeAPI(t)
	env := apiEnv(t, server.URL)

	_, stderr, exitCode := runCLI(t, env, "retweet", "999")

	if exitCode == 0 {
		t.Error("unknown status should fail")
	}
	if !strings.Contains(stderr, "not found") {
		t.Errorf("error should explain the failure, got:\n%s", stderr)
	}
}

// TestConfigCommand_ShowsSettings verifies config shows the directory and settings.
func TestConfigCommand_ShowsSettings(t *testing.T) {
	configDir := t.TempDir()

	stdout, _, exitCode := runCLI(t, map[string]string{"TWEETMIX_CONFIG_DIR": configDir}, "config")

	if exitCode != 0 {
		t.Fatalf("config should succeed, got exit code %d", exitCode)
	}
	if !strings.Contains(stdout, configDir) || !strings.Contains(stdout, "api_url") {
		t.Errorf("should show config dir and settings, got:\n%s", stdout)
	}
}

// TestConfigInit_WritesFile verifies config init creates config.yml.
func TestConfigInit_WritesFile(t *testing.T) {
	configDir := t.TempDir()

	_, stderr, exitCode := runCLI(t, map[string]string{"TWEETMIX_CONFIG_DIR": configDir}, "config", "init")

	if exitCode != 0 {
		t.Fatalf("config init should succeed, got exit code %d: %s", exitCode, stderr)
	}
	if _, err := os.Stat(filepath.Join(configDir, "config.yml")); err != nil {
		t.Errorf("config.yml should exist: %v", err)
	}
}
