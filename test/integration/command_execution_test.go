package integration

import (
	"net/http"
	"net/url"
	"testing"
)

// ==========================================================================
// Record Writes through the JSON API
// ==========================================================================

func TestCommand_SetStatus(t *testing.T) {
	h := NewTestHarness(t)
	sid := h.Login(t)
	h.Backend().On("PATCH /fixtures/{id}").RespondWith(http.StatusOK, Envelope(map[string]any{"id": "f1", "status": "locked"}))

	var body struct {
		Data map[string]any `json:"data"`
	}
	resp := h.PATCH("/ui/api/resources/fixtures/records/f1/status", map[string]string{"status": "locked"}, sid)
	h.AssertJSON(t, resp, http.StatusOK, &body)
	if body.Data["status"] != "locked" {
		t.Errorf("data = %v", body.Data)
	}

	req := h.Backend().LastRequest("PATCH /fixtures/{id}")
	if req.Path != "/fixtures/f1" || req.Body["status"] != "locked" {
		t.Errorf("backend request = %s %v", req.Path, req.Body)
	}
}

func TestCommand_SetStatusRejections(t *testing.T) {
	h := NewTestHarness(t)
	sid := h.Login(t)

	h.AssertErrorCode(t, h.PATCH("/ui/api/resources/fixtures/records/f1/status", map[string]string{"status": "  "}, sid),
		http.StatusUnprocessableEntity, "VALIDATION_ERROR")
	h.AssertErrorCode(t, h.PATCH("/ui/api/resources/fixtures/records/f1/status", map[string]any{"state": "locked"}, sid),
		http.StatusBadRequest, "BAD_REQUEST")
	h.AssertErrorCode(t, h.PATCH("/ui/api/resources/leaderboard/records/u1/status", map[string]string{"status": "locked"}, sid),
		http.StatusForbidden, "FORBIDDEN")

	h.Backend().AssertNotCalled(t, "PATCH /fixtures/{id}")
}

func TestCommand_BackendRejectsTransition(t *testing.T) {
	h := NewTestHarness(t)
	sid := h.Login(t)
	h.Backend().On("PATCH /fixtures/{id}").RespondWithError(http.StatusConflict, "fixture already finished")

	env := h.AssertErrorCode(t, h.PATCH("/ui/api/resources/fixtures/records/f3/status", map[string]string{"status": "live"}, sid),
		http.StatusConflict, "CONFLICT")
	if env.Message != "fixture already finished" {
		t.Errorf("message = %q", env.Message)
	}
}

func TestCommand_RunActions(t *testing.T) {
	h := NewTestHarness(t)
	sid := h.Login(t)
	h.Backend().On("PATCH /fixtures/{id}").RespondWith(http.StatusOK, Envelope(map[string]any{"id": "f2", "status": "published"}))
	h.Backend().On("DELETE /fixtures/{id}").RespondWith(http.StatusOK, Envelope(nil))

	resp := h.POST("/ui/api/resources/fixtures/records/f2/actions/open", map[string]any{}, sid)
	h.AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()
	if req := h.Backend().LastRequest("PATCH /fixtures/{id}"); req == nil || req.Body["status"] != "published" {
		t.Errorf("open action request = %+v", req)
	}

	resp = h.POST("/ui/api/resources/fixtures/records/f2/actions/delete", map[string]any{}, sid)
	h.AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()
	h.Backend().AssertCalled(t, "DELETE /fixtures/{id}", 1)

	// Navigate actions are resolved by the client.
	h.AssertErrorCode(t, h.POST("/ui/api/resources/leagues/records/l1/actions/fixtures", map[string]any{}, sid),
		http.StatusBadRequest, "BAD_REQUEST")
	h.AssertErrorCode(t, h.POST("/ui/api/resources/fixtures/records/f2/actions/explode", map[string]any{}, sid),
		http.StatusNotFound, "NOT_FOUND")
}

func TestCommand_CreateUpdateDelete(t *testing.T) {
	h := NewTestHarness(t)
	sid := h.Login(t)
	h.Backend().On("POST /leagues").RespondWith(http.StatusCreated, Envelope(map[string]any{"_id": "l9", "name": "Serie A"}))
	h.Backend().On("PUT /leagues/{id}").RespondWith(http.StatusOK, Envelope(map[string]any{"_id": "l9", "name": "Serie A TIM"}))
	h.Backend().On("DELETE /leagues/{id}").RespondWith(http.StatusNoContent, nil)

	var created struct {
		Data map[string]any `json:"data"`
	}
	h.AssertJSON(t, h.POST("/ui/api/resources/leagues/records", map[string]any{"name": "Serie A", "country": "Italy"}, sid),
		http.StatusCreated, &created)
	if created.Data["_id"] != "l9" {
		t.Errorf("created = %v", created.Data)
	}
	if req := h.Backend().LastRequest("POST /leagues"); req.Body["country"] != "Italy" {
		t.Errorf("create body = %v", req.Body)
	}

	resp := h.PUT("/ui/api/resources/leagues/records/l9", map[string]any{"name": "Serie A TIM"}, sid)
	h.AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()
	if req := h.Backend().LastRequest("PUT /leagues/{id}"); req.Path != "/leagues/l9" {
		t.Errorf("update path = %s", req.Path)
	}

	resp = h.DELETE("/ui/api/resources/leagues/records/l9", sid)
	h.AssertStatus(t, resp, http.StatusNoContent)
	resp.Body.Close()

	h.AssertErrorCode(t, h.POST("/ui/api/resources/leagues/records", map[string]any{}, sid),
		http.StatusBadRequest, "BAD_REQUEST")
	h.AssertErrorCode(t, h.DELETE("/ui/api/resources/leaderboard/records/u1", sid),
		http.StatusForbidden, "FORBIDDEN")
}

func TestCommand_RecordIDIsPathEscaped(t *testing.T) {
	h := NewTestHarness(t)
	sid := h.Login(t)
	h.Backend().On("GET /fixtures/{id}").RespondWith(http.StatusOK, Envelope(map[string]any{"id": "a b"}))

	resp := h.GET("/ui/api/resources/fixtures/records/a%20b", sid)
	h.AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()
	if req := h.Backend().LastRequest("GET /fixtures/{id}"); req == nil || req.Path != "/fixtures/a b" {
		t.Errorf("backend request = %+v", req)
	}
}

// ==========================================================================
// Content Writes
// ==========================================================================

func TestCommand_SaveContent(t *testing.T) {
	h := NewTestHarness(t)
	sid := h.Login(t)
	h.Backend().On("PUT /terms").RespondWith(http.StatusOK, Envelope(map[string]any{}))

	var body struct {
		Data struct {
			Body string `json:"body"`
			HTML string `json:"html"`
		} `json:"data"`
	}
	h.AssertJSON(t, h.PUT("/ui/api/content/terms", map[string]string{"body": "Be *nice*."}, sid), http.StatusOK, &body)
	if body.Data.Body != "Be *nice*." || body.Data.HTML != "<p>Be <em>nice</em>.</p>\n" {
		t.Errorf("saved = %+v", body.Data)
	}
	if req := h.Backend().LastRequest("PUT /terms"); req.Body["content"] != "Be *nice*." {
		t.Errorf("backend body = %v", req.Body)
	}

	h.AssertErrorCode(t, h.PUT("/ui/api/content/terms", map[string]string{"body": " "}, sid),
		http.StatusUnprocessableEntity, "VALIDATION_ERROR")
	h.AssertErrorCode(t, h.PUT("/ui/api/content/faqs", map[string]string{"body": "x"}, sid),
		http.StatusBadRequest, "BAD_REQUEST")
	h.Backend().AssertCalled(t, "PUT /terms", 1)
}

func TestCommand_ContentItems(t *testing.T) {
	h := NewTestHarness(t)
	sid := h.Login(t)
	h.Backend().On("POST /app-features").RespondWith(http.StatusCreated, Envelope(map[string]any{"_id": "a1"}))
	h.Backend().On("PUT /app-features/{id}").RespondWith(http.StatusOK, Envelope(map[string]any{"_id": "a1"}))
	h.Backend().On("DELETE /app-features/{id}").RespondWith(http.StatusOK, Envelope(nil))

	resp := h.POST("/ui/api/content/app-features/items",
		map[string]any{"id": "ignored", "title": "Live scores", "text": "Follow every goal.", "order": 2}, sid)
	h.AssertStatus(t, resp, http.StatusCreated)
	resp.Body.Close()
	req := h.Backend().LastRequest("POST /app-features")
	if req.Body["title"] != "Live scores" || req.Body["description"] != "Follow every goal." || req.Body["order"] != float64(2) {
		t.Errorf("create body = %v", req.Body)
	}

	resp = h.PUT("/ui/api/content/app-features/items/a1", map[string]any{"title": "Live scores", "text": "Every goal."}, sid)
	h.AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()
	if req := h.Backend().LastRequest("PUT /app-features/{id}"); req.Path != "/app-features/a1" {
		t.Errorf("update path = %s", req.Path)
	}

	resp = h.DELETE("/ui/api/content/app-features/items/a1", sid)
	h.AssertStatus(t, resp, http.StatusNoContent)
	resp.Body.Close()

	h.AssertErrorCode(t, h.POST("/ui/api/content/privacy/items", map[string]any{"title": "a", "text": "b"}, sid),
		http.StatusBadRequest, "BAD_REQUEST")
}

// ==========================================================================
// Writes through the HTML forms
// ==========================================================================

func TestCommand_FormAction(t *testing.T) {
	h := NewTestHarness(t)
	sid := h.Login(t)
	csrf := h.CSRF(t)
	h.Backend().On("PATCH /fixtures/{id}").RespondWith(http.StatusOK, Envelope(map[string]any{"id": "f1", "status": "locked"}))

	resp := h.PostForm("/resources/fixtures/f1/actions/lock",
		url.Values{"return": {"/resources/fixtures?page=1"}}, sid, csrf)
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/resources/fixtures?page=1" {
		t.Errorf("Location = %q", loc)
	}
	if req := h.Backend().LastRequest("PATCH /fixtures/{id}"); req == nil || req.Body["status"] != "locked" {
		t.Errorf("backend request = %+v", req)
	}
}

func TestCommand_FormActionOffsiteReturn(t *testing.T) {
	h := NewTestHarness(t)
	sid := h.Login(t)
	csrf := h.CSRF(t)
	h.Backend().On("DELETE /fixtures/{id}").RespondWith(http.StatusOK, Envelope(nil))

	resp := h.PostForm("/resources/fixtures/f1/actions/delete",
		url.Values{"return": {"https://evil.example.com/"}}, sid, csrf)
	resp.Body.Close()
	if loc := resp.Header.Get("Location"); loc != "/resources/fixtures" {
		t.Errorf("Location = %q, want the resource list", loc)
	}
}

func TestCommand_FormContentSave(t *testing.T) {
	h := NewTestHarness(t)
	sid := h.Login(t)
	csrf := h.CSRF(t)
	h.Backend().On("PUT /privacy").RespondWith(http.StatusOK, Envelope(map[string]any{}))
	h.Backend().On("GET /privacy").RespondWith(http.StatusOK, Envelope(map[string]any{"content": "Old."}))

	resp := h.PostForm("/content/privacy", url.Values{"body": {"# Privacy"}}, sid, csrf)
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/content/privacy?saved=1" {
		t.Errorf("save = %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
	if req := h.Backend().LastRequest("PUT /privacy"); req.Body["content"] != "# Privacy" {
		t.Errorf("backend body = %v", req.Body)
	}

	resp = h.PostForm("/content/privacy", url.Values{"body": {"   "}}, sid, csrf)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("blank save status = %d, want 422", resp.StatusCode)
	}
	resp.Body.Close()
	h.Backend().AssertCalled(t, "PUT /privacy", 1)
}

func TestCommand_FormContentItems(t *testing.T) {
	h := NewTestHarness(t)
	sid := h.Login(t)
	csrf := h.CSRF(t)
	h.Backend().On("POST /faqs").RespondWith(http.StatusCreated, Envelope(map[string]any{"_id": "q9"}))
	h.Backend().On("DELETE /faqs/{id}").RespondWith(http.StatusOK, Envelope(nil))

	resp := h.PostForm("/content/faqs/items", url.Values{"title": {"New?"}, "text": {"Yes."}, "order": {"4"}}, sid, csrf)
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Errorf("create status = %d", resp.StatusCode)
	}
	req := h.Backend().LastRequest("POST /faqs")
	if req.Body["question"] != "New?" || req.Body["answer"] != "Yes." || req.Body["order"] != float64(4) {
		t.Errorf("create body = %v", req.Body)
	}

	resp = h.PostForm("/content/faqs/items/q9/delete", nil, sid, csrf)
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Errorf("delete status = %d", resp.StatusCode)
	}
	if req := h.Backend().LastRequest("DELETE /faqs/{id}"); req == nil || req.Path != "/faqs/q9" {
		t.Errorf("delete request = %+v", req)
	}
}
