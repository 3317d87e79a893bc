package cli

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cebeepredict/admin/internal/session"
	"github.com/cebeepredict/admin/model"
)

const fixturesReply = `{"success":true,"data":[
	{"id":"f1","homeTeam":{"name":"Arsenal"},"awayTeam":{"name":"Chelsea"},"league":{"name":"Premier League"},"kickoffTime":"2026-08-15T14:00:00Z","status":"live"},
	{"id":"f2","homeTeam":{"name":"Enyimba"},"awayTeam":{"name":"Rangers"},"league":{"name":"NPFL"},"kickoffTime":"2026-08-16T16:00:00Z","status":"scheduled"},
	{"id":"f3","homeTeam":{"name":"Barcelona"},"awayTeam":{"name":"Sevilla"},"league":{"name":"La Liga"},"kickoffTime":"2026-08-14T19:00:00Z","status":"finished"}
]}`

type backendCall struct {
	method string
	path   string
	auth   string
	body   string
}

// mockBackend answers "METHOD /path" routes with canned bodies. failures
// makes a route answer 500 that many times before succeeding.
type mockBackend struct {
	mu       sync.Mutex
	routes   map[string]string
	failures map[string]int
	calls    []backendCall
}

func (m *mockBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	key := r.Method + " " + r.URL.Path

	m.mu.Lock()
	m.calls = append(m.calls, backendCall{method: r.Method, path: r.URL.Path, auth: r.Header.Get("Authorization"), body: string(body)})
	reply, ok := m.routes[key]
	fail := m.failures[key] > 0
	if fail {
		m.failures[key]--
	}
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case fail:
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"success":false,"message":"database unavailable"}`)
	case !ok:
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"success":false,"message":"not found"}`)
	default:
		_, _ = io.WriteString(w, reply)
	}
}

func (m *mockBackend) recorded() []backendCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]backendCall(nil), m.calls...)
}

type harness struct {
	backend     *mockBackend
	url         string
	sessionFile string
}

func newHarness(t *testing.T, routes map[string]string) *harness {
	t.Helper()
	for _, env := range []string{envBackend, envSessionFile, envOutput, envPassword} {
		t.Setenv(env, "")
	}
	b := &mockBackend{routes: routes, failures: map[string]int{}}
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)
	return &harness{
		backend:     b,
		url:         srv.URL,
		sessionFile: filepath.Join(t.TempDir(), "session.json"),
	}
}

func (h *harness) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(&app{})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--backend", h.url, "--session-file", h.sessionFile}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (h *harness) signIn(t *testing.T) {
	t.Helper()
	store := session.NewFileStore(h.sessionFile)
	err := store.Save(context.Background(), sessionKey, &model.Session{
		Token:     "tok-cli",
		User:      map[string]any{"id": "u1", "name": "Ops"},
		Timestamp: time.Now(),
	})
	require.NoError(t, err)
}

// --- Root ---

func TestValidateOutputFormat(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		wantErr bool
	}{
		{"table", "table", false},
		{"json", "json", false},
		{"empty", "", false},
		{"yaml", "yaml", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateOutputFormat(tt.output)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRoot_rejectsUnknownOutput(t *testing.T) {
	h := newHarness(t, nil)
	_, err := h.run(t, "", "-o", "yaml", "resources")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

func TestRoot_backendRequired(t *testing.T) {
	h := newHarness(t, nil)
	cmd := newRootCmd(&app{})
	cmd.SetOut(io.Discard)
	cmd.SetArgs([]string{"--session-file", h.sessionFile, "resources"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend URL not set")
}

func TestRoot_backendFromEnv(t *testing.T) {
	h := newHarness(t, nil)
	t.Setenv(envBackend, h.url)
	cmd := newRootCmd(&app{})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--session-file", h.sessionFile, "resources"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "fixtures")
}

func TestVersion(t *testing.T) {
	h := newHarness(t, nil)
	out, err := h.run(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "cebeectl dev")
	assert.Empty(t, h.backend.recorded())
}

// --- Auth ---

func TestLogin_storesSession(t *testing.T) {
	h := newHarness(t, map[string]string{
		"POST /auth/login": `{"success":true,"data":{"token":"tok-new","user":{"id":"u1","name":"Ops"}}}`,
	})

	out, err := h.run(t, "", "login", "--email", "ops@cebeepredict.com", "--password", "secret-pass")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as Ops")

	sess, err := session.NewFileStore(h.sessionFile).Load(context.Background(), sessionKey)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "tok-new", sess.Token)

	info, err := os.Stat(h.sessionFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	out, err = h.run(t, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Ops")
	assert.Contains(t, out, h.url)
}

func TestLogin_passwordFromStdin(t *testing.T) {
	h := newHarness(t, map[string]string{
		"POST /auth/login": `{"success":true,"data":{"token":"tok-new","user":{"name":"Ops"}}}`,
	})

	_, err := h.run(t, "secret-pass\n", "login", "--email", "ops@cebeepredict.com")
	require.NoError(t, err)

	calls := h.backend.recorded()
	require.Len(t, calls, 1)
	var body map[string]string
	require.NoError(t, json.Unmarshal([]byte(calls[0].body), &body))
	assert.Equal(t, "secret-pass", body["password"])
	assert.Empty(t, calls[0].auth)
}

func TestLogin_invalidEmailNeverReachesBackend(t *testing.T) {
	h := newHarness(t, nil)
	_, err := h.run(t, "", "login", "--email", "not-an-email", "--password", "secret-pass")
	require.Error(t, err)
	assert.Empty(t, h.backend.recorded())
}

func TestLogin_rejected(t *testing.T) {
	h := newHarness(t, nil)
	_, err := h.run(t, "", "login", "--email", "ops@cebeepredict.com", "--password", "wrong-pass")
	require.Error(t, err)

	sess, err := session.NewFileStore(h.sessionFile).Load(context.Background(), sessionKey)
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestLogout(t *testing.T) {
	h := newHarness(t, nil)
	h.signIn(t)

	out, err := h.run(t, "", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed out")
	assert.Empty(t, h.backend.recorded())

	_, err = h.run(t, "", "whoami")
	assert.ErrorIs(t, err, errNotSignedIn)
}

func TestWhoami_json(t *testing.T) {
	h := newHarness(t, nil)
	h.signIn(t)

	out, err := h.run(t, "", "-o", "json", "whoami")
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "Ops", got["display_name"])
}

// --- Listing ---

func TestList_table(t *testing.T) {
	h := newHarness(t, map[string]string{"GET /fixtures": fixturesReply})
	h.signIn(t)

	out, err := h.run(t, "", "list", "fixtures", "--sort", "kickoffDesc")
	require.NoError(t, err)

	assert.Contains(t, out, "HOME")
	assert.Contains(t, out, "Live")
	assert.Contains(t, out, "Completed")
	assert.Contains(t, out, "1-3 of 3  page 1 of 1")
	i1, i2, i3 := strings.Index(out, "f1 "), strings.Index(out, "f2 "), strings.Index(out, "f3 ")
	assert.True(t, i2 < i1 && i1 < i3, "rows out of order:\n%s", out)

	calls := h.backend.recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, "Bearer tok-cli", calls[0].auth)
}

func TestList_filterAndSearch(t *testing.T) {
	h := newHarness(t, map[string]string{"GET /fixtures": fixturesReply})
	h.signIn(t)

	out, err := h.run(t, "", "list", "fixtures", "--filter", "status=live")
	require.NoError(t, err)
	assert.Contains(t, out, "Arsenal")
	assert.NotContains(t, out, "Enyimba")

	out, err = h.run(t, "", "list", "fixtures", "-s", "enyim")
	require.NoError(t, err)
	assert.Contains(t, out, "Enyimba")
	assert.Contains(t, out, "1-1 of 1")
}

func TestList_json(t *testing.T) {
	h := newHarness(t, map[string]string{"GET /fixtures": fixturesReply})
	h.signIn(t)

	out, err := h.run(t, "", "-o", "json", "list", "fixtures", "--page-size", "10")
	require.NoError(t, err)

	var resp model.DataResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 3, resp.Data.TotalCount)
	assert.Len(t, resp.Data.Rows, 3)
	assert.Equal(t, false, resp.Meta["has_next"])
}

func TestList_rejections(t *testing.T) {
	h := newHarness(t, map[string]string{"GET /fixtures": fixturesReply})
	h.signIn(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown resource", []string{"list", "nope"}, "not found"},
		{"unknown filter", []string{"list", "fixtures", "--filter", "colour=red"}, "unknown filter"},
		{"malformed filter", []string{"list", "fixtures", "--filter", "status"}, "use param=value"},
		{"page zero", []string{"list", "fixtures", "--page", "0"}, "--page"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.run(t, "", tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
	assert.Empty(t, h.backend.recorded())
}

func TestList_empty(t *testing.T) {
	h := newHarness(t, map[string]string{"GET /fixtures": `{"success":true,"data":[]}`})
	h.signIn(t)

	out, err := h.run(t, "", "list", "fixtures")
	require.NoError(t, err)
	assert.Contains(t, out, "No fixtures match the current filters.")
}

func TestList_backendFailure(t *testing.T) {
	h := newHarness(t, nil)
	h.backend.failures["GET /fixtures"] = 1
	h.backend.routes = map[string]string{"GET /fixtures": fixturesReply}
	h.signIn(t)

	out, err := h.run(t, "", "list", "fixtures")
	require.Error(t, err)
	assert.NotContains(t, out, "Arsenal")
}

func TestResources(t *testing.T) {
	h := newHarness(t, nil)
	out, err := h.run(t, "", "resources")
	require.NoError(t, err)
	assert.Contains(t, out, "fixtures")
	assert.Contains(t, out, "kickoffDesc")
	assert.Contains(t, out, "status,league")
}

func TestDashboard(t *testing.T) {
	h := newHarness(t, map[string]string{
		"GET /admin/dashboard": `{"success":true,"data":{"fixtures":12,"users":3400}}`,
	})
	h.signIn(t)

	out, err := h.run(t, "", "dashboard")
	require.NoError(t, err)
	assert.Contains(t, out, "3,400")
}

// --- Browse ---

func TestBrowse_searchAndPaging(t *testing.T) {
	h := newHarness(t, map[string]string{"GET /fixtures": fixturesReply})
	h.signIn(t)

	out, err := h.run(t, "n\np\ns enyim\nf colour=red\nq\n", "browse", "fixtures")
	require.NoError(t, err)
	assert.Contains(t, out, "1-3 of 3")
	assert.Contains(t, out, "Already on the last page.")
	assert.Contains(t, out, "Already on the first page.")
	assert.Contains(t, out, "1-1 of 1")
	assert.Contains(t, out, "error: unknown filter")
}

func TestBrowse_retryAfterFailure(t *testing.T) {
	h := newHarness(t, map[string]string{"GET /fixtures": fixturesReply})
	h.backend.failures["GET /fixtures"] = 1
	h.signIn(t)

	out, err := h.run(t, "r\nq\n", "browse", "fixtures")
	require.NoError(t, err)

	failed := strings.Index(out, "Could not load fixtures")
	loaded := strings.Index(out, "1-3 of 3")
	require.GreaterOrEqual(t, failed, 0, out)
	assert.Greater(t, loaded, failed)
	assert.Contains(t, out, "Type r to retry.")
}

func TestBrowse_pageSize(t *testing.T) {
	h := newHarness(t, map[string]string{"GET /fixtures": fixturesReply})
	h.signIn(t)

	out, err := h.run(t, "z 7\nq\n", "browse", "fixtures")
	require.NoError(t, err)
	assert.Contains(t, out, "error:")
}

// --- Writes ---

func TestStatus(t *testing.T) {
	h := newHarness(t, map[string]string{
		"PATCH /fixtures/f1": `{"success":true,"data":{"id":"f1","status":"locked"}}`,
	})
	h.signIn(t)

	out, err := h.run(t, "", "status", "fixtures", "f1", "locked")
	require.NoError(t, err)
	assert.Contains(t, out, "status set to Prediction Locked")

	calls := h.backend.recorded()
	require.Len(t, calls, 1)
	assert.JSONEq(t, `{"status":"locked"}`, calls[0].body)
}

func TestAction_confirmation(t *testing.T) {
	h := newHarness(t, map[string]string{"DELETE /fixtures/f1": `{"success":true}`})
	h.signIn(t)

	out, err := h.run(t, "n\n", "action", "fixtures", "f1", "delete")
	require.NoError(t, err)
	assert.Contains(t, out, "Delete this fixture?")
	assert.Contains(t, out, "Cancelled")
	assert.Empty(t, h.backend.recorded())

	out, err = h.run(t, "", "action", "fixtures", "f1", "delete", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Delete done")
	calls := h.backend.recorded()
	require.Len(t, calls, 1)
	assert.Equal(t, "DELETE", calls[0].method)
}

func TestAction_navigate(t *testing.T) {
	h := newHarness(t, map[string]string{
		"GET /leagues/L1": `{"success":true,"data":{"id":"L1","name":"Premier League"}}`,
	})
	h.signIn(t)

	out, err := h.run(t, "", "action", "leagues", "L1", "fixtures")
	require.NoError(t, err)
	assert.Equal(t, "/resources/fixtures?league=Premier+League\n", out)
}

func TestAction_unknown(t *testing.T) {
	h := newHarness(t, nil)
	h.signIn(t)
	_, err := h.run(t, "", "action", "fixtures", "f1", "explode")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "explode")
}

func TestGet(t *testing.T) {
	h := newHarness(t, map[string]string{
		"GET /fixtures/f1": `{"success":true,"data":{"id":"f1","homeTeam":{"name":"Arsenal"},"status":"live"}}`,
	})
	h.signIn(t)

	out, err := h.run(t, "", "get", "fixtures", "f1")
	require.NoError(t, err)
	assert.Contains(t, out, "Arsenal")
	assert.Contains(t, out, "Live")
}

// --- Content ---

func TestContent_showMarkdown(t *testing.T) {
	h := newHarness(t, map[string]string{
		"GET /game-rules": `{"success":true,"data":{"content":"## Scoring\n\nExact score: 3 points."}}`,
	})
	h.signIn(t)

	out, err := h.run(t, "", "content", "show", "game-rules")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "## Scoring"), out)

	out, err = h.run(t, "", "content", "show", "game-rules", "--html")
	require.NoError(t, err)
	assert.Contains(t, out, "<h2>Scoring</h2>")
}

func TestContent_showList(t *testing.T) {
	h := newHarness(t, map[string]string{
		"GET /faqs": `{"success":true,"data":[
			{"_id":"q2","question":"How do I win?","answer":"Predict well.","order":2},
			{"_id":"q1","question":"What is CeBee?","answer":"A prediction game.","order":1}
		]}`,
	})
	h.signIn(t)

	out, err := h.run(t, "", "content", "show", "faqs")
	require.NoError(t, err)
	assert.Less(t, strings.Index(out, "What is CeBee?"), strings.Index(out, "How do I win?"))
}

func TestContent_saveFromStdin(t *testing.T) {
	h := newHarness(t, map[string]string{"PUT /terms": `{"success":true,"data":{}}`})
	h.signIn(t)

	out, err := h.run(t, "Be *nice*.", "content", "save", "terms")
	require.NoError(t, err)
	assert.Contains(t, out, "Saved Terms of Service")

	calls := h.backend.recorded()
	require.Len(t, calls, 1)
	assert.JSONEq(t, `{"content":"Be *nice*."}`, calls[0].body)
}

func TestContent_list(t *testing.T) {
	h := newHarness(t, nil)
	out, err := h.run(t, "", "content", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "game-rules")
	assert.Contains(t, out, "markdown")
}
