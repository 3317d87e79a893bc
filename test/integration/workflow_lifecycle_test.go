package integration

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/cebeepredict/admin/model"
)

// ==========================================================================
// Session Lifecycle
// ==========================================================================

func TestLifecycle_LoginListExpireRelogin(t *testing.T) {
	h := NewTestHarness(t)

	// Step 1: Sign in.
	sid := h.Login(t)
	var me struct {
		DisplayName string `json:"display_name"`
	}
	h.AssertJSON(t, h.GET("/ui/api/auth/me", sid), http.StatusOK, &me)
	if me.DisplayName != "Ops Admin" {
		t.Errorf("display name = %q", me.DisplayName)
	}

	// Step 2: List works.
	h.Backend().On("GET /fixtures").
		RespondWith(http.StatusOK, Envelope(DefaultFixtures())).
		RespondWithError(http.StatusUnauthorized, "token expired")
	resp := h.GET("/ui/api/resources/fixtures/data", sid)
	h.AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	// Step 3: The backend rejects the token; the session is dropped.
	h.AssertErrorCode(t, h.GET("/ui/api/resources/fixtures/data", sid), http.StatusUnauthorized, "UNAUTHORIZED")
	if sess, _ := h.Store.Load(context.Background(), sid.Value); sess != nil {
		t.Error("a backend 401 must clear the stored session")
	}
	before := h.Backend().TotalCalls()
	h.AssertErrorCode(t, h.GET("/ui/api/resources/fixtures/data", sid), http.StatusUnauthorized, "UNAUTHORIZED")
	if h.Backend().TotalCalls() != before {
		t.Error("a cleared session must not reach the backend")
	}

	// Step 4: Sign in again.
	h.Backend().ResetRoute("GET /fixtures")
	h.Backend().On("GET /fixtures").RespondWith(http.StatusOK, Envelope(DefaultFixtures()))
	sid2 := h.Login(t)
	if sid2.Value == sid.Value {
		t.Error("a new login must use a new session key")
	}
	resp = h.GET("/ui/api/resources/fixtures/data", sid2)
	h.AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()
}

func TestLifecycle_PageUnauthorizedRedirectsToLogin(t *testing.T) {
	h := NewTestHarness(t)
	sid := h.Login(t)
	h.Backend().On("GET /fixtures").RespondWithError(http.StatusUnauthorized, "token expired")

	resp := h.GET("/resources/fixtures", sid)
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); !strings.HasPrefix(loc, "/login") {
		t.Errorf("Location = %q", loc)
	}
	if h.Store.Len() != 0 {
		t.Errorf("stored sessions = %d, want 0", h.Store.Len())
	}
}

func TestLifecycle_APILogout(t *testing.T) {
	h := NewTestHarness(t)
	sid := h.Login(t)
	calls := h.Backend().TotalCalls()

	resp := h.POST("/ui/api/auth/logout", map[string]any{}, sid)
	h.AssertStatus(t, resp, http.StatusNoContent)
	resp.Body.Close()

	if c := CookieNamed(resp, SessionCookie); c == nil || c.MaxAge >= 0 {
		t.Errorf("logout should expire the cookie, got %+v", c)
	}
	if h.Store.Len() != 0 {
		t.Errorf("stored sessions = %d", h.Store.Len())
	}
	if h.Backend().TotalCalls() != calls {
		t.Error("logout must not call the backend")
	}
	h.AssertErrorCode(t, h.GET("/ui/api/auth/me", sid), http.StatusUnauthorized, "UNAUTHORIZED")
}

func TestLifecycle_FormLogout(t *testing.T) {
	h := NewTestHarness(t)
	sid := h.Login(t)
	csrf := h.CSRF(t)

	resp := h.PostForm("/logout", nil, sid, csrf)
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/login" {
		t.Errorf("logout = %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
	if h.Store.Len() != 0 {
		t.Errorf("stored sessions = %d", h.Store.Len())
	}

	resp = h.GET("/", sid)
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Errorf("overview after logout = %d, want redirect", resp.StatusCode)
	}
}

func TestLifecycle_ExpiredTokenIsSignedOut(t *testing.T) {
	h := NewTestHarness(t)
	h.Backend().On("POST /auth/login").RespondWith(http.StatusOK, LoginReply(h.BackendToken("u1", -time.Minute), AdminUser()))

	resp := h.POST("/ui/api/auth/login", map[string]string{"email": "ops@cebeepredict.com", "password": "secret-pass"})
	h.AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()
	sid := CookieNamed(resp, SessionCookie)
	if sid == nil {
		t.Fatal("no session cookie")
	}

	h.AssertErrorCode(t, h.GET("/ui/api/auth/me", sid), http.StatusUnauthorized, "UNAUTHORIZED")
	h.Backend().AssertNotCalled(t, "GET /fixtures")
}

func TestLifecycle_SessionExpiryFromSeed(t *testing.T) {
	h := NewTestHarness(t)
	valid := h.SeedSession(t, &model.Session{Token: "tok", User: AdminUser(), ExpiresAt: time.Now().Add(time.Hour)})
	stale := h.SeedSession(t, &model.Session{Token: "tok", User: AdminUser(), ExpiresAt: time.Now().Add(-time.Second)})

	resp := h.GET("/ui/api/auth/me", valid)
	h.AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()
	h.AssertErrorCode(t, h.GET("/ui/api/auth/me", stale), http.StatusUnauthorized, "UNAUTHORIZED")
}

func TestLifecycle_LoginReplacesPreviousSession(t *testing.T) {
	h := NewTestHarness(t)
	first := h.Login(t)

	h.Backend().On("POST /auth/login").RespondWith(http.StatusOK, LoginReply(h.BackendToken("u1", time.Hour), AdminUser()))
	resp := h.POST("/ui/api/auth/login", map[string]string{"email": "ops@cebeepredict.com", "password": "secret-pass"}, first)
	h.AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	second := CookieNamed(resp, SessionCookie)
	if second == nil || second.Value == first.Value {
		t.Fatalf("second login cookie = %+v", second)
	}
	if sess, _ := h.Store.Load(context.Background(), first.Value); sess != nil {
		t.Error("the previous session must be dropped on login")
	}
	if h.Store.Len() != 1 {
		t.Errorf("stored sessions = %d, want 1", h.Store.Len())
	}
}

func TestLifecycle_LoginRejections(t *testing.T) {
	h := NewTestHarness(t)

	h.AssertErrorCode(t, h.POST("/ui/api/auth/login", map[string]string{"email": "nope", "password": "x"}),
		http.StatusUnprocessableEntity, "VALIDATION_ERROR")
	h.Backend().AssertNotCalled(t, "POST /auth/login")

	h.Backend().On("POST /auth/login").RespondWithError(http.StatusUnauthorized, "bad password")
	h.AssertErrorCode(t, h.POST("/ui/api/auth/login", map[string]string{"email": "ops@cebeepredict.com", "password": "wrong-pass"}),
		http.StatusUnauthorized, "UNAUTHORIZED")

	h.Backend().ResetRoute("POST /auth/login")
	h.Backend().On("POST /auth/login").RespondWith(http.StatusOK, Envelope(map[string]any{"user": AdminUser()}))
	h.AssertErrorCode(t, h.POST("/ui/api/auth/login", map[string]string{"email": "ops@cebeepredict.com", "password": "secret-pass"}),
		http.StatusBadGateway, "BACKEND_ERROR")

	if h.Store.Len() != 0 {
		t.Errorf("stored sessions = %d", h.Store.Len())
	}
}
