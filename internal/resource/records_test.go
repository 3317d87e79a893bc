package resource

import (
	"context"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/cebeepredict/admin/model"
)

// --- Write verbs ---

func TestSetStatus(t *testing.T) {
	p := testProvider(t)
	backend := &fakeBackend{respond: func(c call) model.Envelope {
		return model.Envelope{Success: true, Status: 200, Data: map[string]any{"id": "f1", "status": "locked"}}
	}}

	row, err := p.SetStatus(context.Background(), backend, "fixtures", "f1", "locked")
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if row["status"] != "locked" {
		t.Errorf("row = %v", row)
	}

	c := backend.Calls()[0]
	if c.method != "PATCH" || c.endpoint != "/fixtures/f1" {
		t.Errorf("call = %s %s", c.method, c.endpoint)
	}
	body, _ := c.body.(map[string]any)
	if body["status"] != "locked" {
		t.Errorf("body = %v", c.body)
	}
}

func TestSetStatus_blankRejected(t *testing.T) {
	p := testProvider(t)
	backend := &fakeBackend{}
	_, err := p.SetStatus(context.Background(), backend, "fixtures", "f1", "  ")
	if code := errCode(t, err); code != model.ErrValidationError {
		t.Errorf("code = %s", code)
	}
	if len(backend.Calls()) != 0 {
		t.Error("backend should not be called")
	}
}

func TestWrites_readOnlyResource(t *testing.T) {
	p := testProvider(t)
	backend := &fakeBackend{}
	ctx := context.Background()

	if _, err := p.SetStatus(ctx, backend, "leaderboard", "u1", "x"); errCode(t, err) != model.ErrForbidden {
		t.Errorf("SetStatus err = %v", err)
	}
	if err := p.Delete(ctx, backend, "cmds", "c1"); errCode(t, err) != model.ErrForbidden {
		t.Errorf("Delete err = %v", err)
	}
	if _, err := p.Create(ctx, backend, "referrals", map[string]any{"a": 1}); errCode(t, err) != model.ErrForbidden {
		t.Errorf("Create err = %v", err)
	}
	if len(backend.Calls()) != 0 {
		t.Error("read-only writes must not reach the backend")
	}
}

func TestDelete_escapesID(t *testing.T) {
	p := testProvider(t)
	backend := &fakeBackend{}
	if err := p.Delete(context.Background(), backend, "polls", "a/b"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if c := backend.Calls()[0]; c.method != "DELETE" || c.endpoint != "/polls/a%2Fb" {
		t.Errorf("call = %s %s", c.method, c.endpoint)
	}
}

func TestDelete_missingID(t *testing.T) {
	err := testProvider(t).Delete(context.Background(), &fakeBackend{}, "polls", "")
	if code := errCode(t, err); code != model.ErrBadRequest {
		t.Errorf("code = %s", code)
	}
}

func TestCreateAndUpdate(t *testing.T) {
	p := testProvider(t)
	backend := &fakeBackend{respond: func(c call) model.Envelope {
		return model.Envelope{Success: true, Status: 201, Data: map[string]any{"id": "n9"}}
	}}
	ctx := context.Background()

	row, err := p.Create(ctx, backend, "notifications", map[string]any{"title": "Kick-off soon"})
	if err != nil || row.ID() != "n9" {
		t.Fatalf("Create = %v, %v", row, err)
	}
	if _, err := p.Update(ctx, backend, "notifications", "n9", map[string]any{"title": "Updated"}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	calls := backend.Calls()
	if calls[0].method != "POST" || calls[0].endpoint != "/notifications" {
		t.Errorf("create call = %+v", calls[0])
	}
	if calls[1].method != "PUT" || calls[1].endpoint != "/notifications/n9" {
		t.Errorf("update call = %+v", calls[1])
	}

	if _, err := p.Create(ctx, backend, "notifications", nil); errCode(t, err) != model.ErrBadRequest {
		t.Errorf("empty create err = %v", err)
	}
}

func TestGet(t *testing.T) {
	p := testProvider(t)
	backend := &fakeBackend{respond: func(c call) model.Envelope {
		if c.endpoint != "/fixtures/f1" {
			return model.Envelope{Status: 404, Error: "not found"}
		}
		return model.Envelope{Success: true, Status: 200, Data: map[string]any{"id": "f1"}}
	}}

	row, err := p.Get(context.Background(), backend, "fixtures", "f1")
	if err != nil || row.ID() != "f1" {
		t.Fatalf("Get = %v, %v", row, err)
	}
	if _, err := p.Get(context.Background(), backend, "fixtures", "f2"); errCode(t, err) != model.ErrNotFound {
		t.Errorf("missing record err = %v", err)
	}
}

// --- Actions ---

func TestRunAction(t *testing.T) {
	p := testProvider(t)
	backend := &fakeBackend{}
	ctx := context.Background()

	if _, err := p.RunAction(ctx, backend, "fixtures", "lock", "f1"); err != nil {
		t.Fatalf("lock: %v", err)
	}
	if _, err := p.RunAction(ctx, backend, "fixtures", "delete", "f1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	calls := backend.Calls()
	if len(calls) != 2 || calls[0].method != "PATCH" || calls[1].method != "DELETE" {
		t.Fatalf("calls = %+v", calls)
	}
	if body := calls[0].body.(map[string]any); body["status"] != "locked" {
		t.Errorf("lock body = %v", body)
	}

	if _, err := p.RunAction(ctx, backend, "leagues", "fixtures", "l1"); errCode(t, err) != model.ErrBadRequest {
		t.Errorf("navigate action err = %v", err)
	}
	if _, err := p.RunAction(ctx, backend, "fixtures", "explode", "f1"); errCode(t, err) != model.ErrNotFound {
		t.Errorf("unknown action err = %v", err)
	}
}

// --- Dashboard ---

func TestDashboard(t *testing.T) {
	p := testProvider(t)
	backend := &fakeBackend{respond: func(c call) model.Envelope {
		if c.endpoint != DashboardEndpoint {
			t.Errorf("endpoint = %s", c.endpoint)
		}
		return model.Envelope{Success: true, Status: 200, Data: map[string]any{"activeUsers": float64(42)}}
	}}
	summary, err := p.Dashboard(context.Background(), backend)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if summary["activeUsers"] != float64(42) {
		t.Errorf("summary = %v", summary)
	}

	backend.respond = func(call) model.Envelope { return model.Envelope{Success: true, Status: 200, Data: []any{1.0}} }
	summary, _ = p.Dashboard(context.Background(), backend)
	if _, ok := summary["data"]; !ok {
		t.Errorf("non-object payload should be wrapped: %v", summary)
	}
}

// --- Routes ---

func TestExpandRoute(t *testing.T) {
	row := model.Row{"id": "a/b", "name": "La Liga", "league": map[string]any{"slug": "la-liga"}}

	tests := []struct {
		tmpl string
		want string
	}{
		{"/resources/fixtures/{id}", "/resources/fixtures/a%2Fb"},
		{"/resources/fixtures?league={name}", "/resources/fixtures?league=La+Liga"},
		{"/leagues/{league.slug}/table", "/leagues/la-liga/table"},
		{"/x/{missing}", "/x/"},
		{"/plain", "/plain"},
	}
	for _, tt := range tests {
		if got := ExpandRoute(tt.tmpl, row); got != tt.want {
			t.Errorf("ExpandRoute(%q) = %q, want %q", tt.tmpl, got, tt.want)
		}
	}
}

func TestRowHref(t *testing.T) {
	def := model.ResourceDefinition{RowLink: "/resources/polls/{id}"}
	if got := RowHref(def, model.Row{"id": "p1"}); got != "/resources/polls/p1" {
		t.Errorf("RowHref = %q", got)
	}
	if got := RowHref(def, model.Row{}); got != "" {
		t.Errorf("row without id should have no link, got %q", got)
	}
	if got := RowHref(model.ResourceDefinition{}, model.Row{"id": "p1"}); got != "" {
		t.Errorf("resource without row_link should have no link, got %q", got)
	}
}

// --- View ---

func TestView_stateChangesResetPage(t *testing.T) {
	v, err := NewView(testProvider(t), &fakeBackend{}, "fixtures")
	if err != nil {
		t.Fatalf("NewView: %v", err)
	}
	if req := v.Request(); req.SortKey != "kickoffAsc" || req.PageSize != 10 || req.PageIndex != 0 {
		t.Errorf("initial request = %+v", req)
	}

	v.SetPage(3)
	v.SetSearch("arsenal")
	if v.Request().PageIndex != 0 {
		t.Error("search should reset the page")
	}

	v.SetPage(3)
	v.SetFilter("status", "live")
	if req := v.Request(); req.PageIndex != 0 || req.Filters["status"] != "live" {
		t.Errorf("filter request = %+v", req)
	}
	v.SetFilter("status", "all")
	if _, ok := v.Request().Filters["status"]; ok {
		t.Error("all should clear the filter")
	}

	v.SetPage(3)
	v.SetSort("homeTeamAsc")
	if v.Request().PageIndex != 0 {
		t.Error("sort should reset the page")
	}

	v.SetPage(3)
	if err := v.SetPageSize(10); err != nil {
		t.Fatalf("SetPageSize: %v", err)
	}
	if v.Request().PageIndex != 0 {
		t.Error("page size change should reset the page even when unchanged")
	}
	if err := v.SetPageSize(7); err == nil {
		t.Error("SetPageSize(7) should fail")
	}
}

func TestView_loadAndPaging(t *testing.T) {
	v, err := NewView(testProvider(t), &fakeBackend{respond: respondRows(fixtureRows())}, "fixtures")
	if err != nil {
		t.Fatalf("NewView: %v", err)
	}
	ctx := context.Background()

	if err := v.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	st := v.State()
	if st.Loading || st.Err != nil || st.Result.TotalCount != 12 || len(st.Result.Rows) != 10 {
		t.Fatalf("state = %+v", st)
	}

	if !v.NextPage() {
		t.Fatal("NextPage should advance")
	}
	if err := v.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(v.State().Result.Rows) != 2 {
		t.Errorf("second page rows = %d", len(v.State().Result.Rows))
	}
	if v.NextPage() {
		t.Error("NextPage past the end should not advance")
	}
	if !v.PrevPage() || v.Request().PageIndex != 0 {
		t.Error("PrevPage should return to page 0")
	}
}

func TestView_loadErrorAndRetry(t *testing.T) {
	fail := true
	backend := &fakeBackend{}
	backend.respond = func(call) model.Envelope {
		if fail {
			return model.Envelope{Status: 503, Error: "Service temporarily unavailable."}
		}
		return respondRows(fixtureRows())(call{})
	}
	v, err := NewView(testProvider(t), backend, "fixtures")
	if err != nil {
		t.Fatalf("NewView: %v", err)
	}

	if err := v.Load(context.Background()); err == nil {
		t.Fatal("Load should fail")
	}
	st := v.State()
	if st.Err == nil || len(st.Result.Rows) != 0 || st.Loading {
		t.Errorf("failed state = %+v", st)
	}

	fail = false
	if err := v.Retry(context.Background()); err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if st := v.State(); st.Err != nil || st.Result.TotalCount != 12 {
		t.Errorf("retried state = %+v", st)
	}
}

func TestView_staleResponseDiscarded(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	slow := []any{map[string]any{"id": "stale", "kickoffTime": "2026-01-01T00:00:00Z"}}
	fresh := []any{map[string]any{"id": "fresh", "kickoffTime": "2026-01-01T00:00:00Z"}}

	var mu sync.Mutex
	callNo := 0
	backend := &fakeBackend{respond: func(call) model.Envelope {
		mu.Lock()
		callNo++
		n := callNo
		mu.Unlock()
		if n == 1 {
			once.Do(func() { close(started) })
			<-release
			return respondRows(slow)(call{})
		}
		return respondRows(fresh)(call{})
	}}

	v, err := NewView(testProvider(t), backend, "fixtures")
	if err != nil {
		t.Fatalf("NewView: %v", err)
	}

	firstErr := make(chan error, 1)
	go func() { firstErr <- v.Load(context.Background()) }()
	<-started

	v.SetSearch("")
	if err := v.Load(context.Background()); err != nil {
		t.Fatalf("second Load: %v", err)
	}
	close(release)

	select {
	case err := <-firstErr:
		if err != ErrStale {
			t.Errorf("first Load = %v, want ErrStale", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("first Load did not return")
	}

	if got := ids(v.State().Result.Rows); len(got) != 1 || got[0] != "fresh" {
		t.Errorf("rows = %v, want the fresh response", got)
	}
}

// blockingFirstCall holds the first backend call until release is closed.
func blockingFirstCall(started, release chan struct{}) *fakeBackend {
	var mu sync.Mutex
	callNo := 0
	return &fakeBackend{respond: func(call) model.Envelope {
		mu.Lock()
		callNo++
		n := callNo
		mu.Unlock()
		if n == 1 {
			close(started)
			<-release
		}
		return respondRows(fixtureRows())(call{})
	}}
}

func TestView_stateChangeDuringLoadDiscardsResult(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	v, err := NewView(testProvider(t), blockingFirstCall(started, release), "fixtures")
	if err != nil {
		t.Fatalf("NewView: %v", err)
	}

	firstErr := make(chan error, 1)
	go func() { firstErr <- v.Load(context.Background()) }()
	<-started

	v.SetPage(1)
	close(release)

	select {
	case err := <-firstErr:
		if err != ErrStale {
			t.Errorf("in-flight Load = %v, want ErrStale", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("in-flight Load did not return")
	}

	st := v.State()
	if st.Request.PageIndex != 1 {
		t.Errorf("page index = %d, want 1 (the page set during the load)", st.Request.PageIndex)
	}
	if st.Loading || len(st.Result.Rows) != 0 {
		t.Errorf("discarded load leaked into state: %+v", st)
	}

	if err := v.Load(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	st = v.State()
	if st.Result.PageIndex != 1 || len(st.Result.Rows) != 2 || st.Request.PageIndex != 1 {
		t.Errorf("reloaded state = page %d, %d rows, request page %d", st.Result.PageIndex, len(st.Result.Rows), st.Request.PageIndex)
	}
}

func TestView_closeDiscardsInFlightLoad(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	v, err := NewView(testProvider(t), blockingFirstCall(started, release), "fixtures")
	if err != nil {
		t.Fatalf("NewView: %v", err)
	}

	firstErr := make(chan error, 1)
	go func() { firstErr <- v.Load(context.Background()) }()
	<-started

	v.Close()
	close(release)

	if err := <-firstErr; err != ErrStale {
		t.Errorf("Load after Close = %v, want ErrStale", err)
	}
	if st := v.State(); st.Err != nil || st.Loading {
		t.Errorf("state after Close = %+v", st)
	}
}

func TestNewView_unknownResource(t *testing.T) {
	if _, err := NewView(testProvider(t), &fakeBackend{}, "ghosts"); errCode(t, err) != model.ErrNotFound {
		t.Errorf("err = %v", err)
	}
}

// --- Query parameters ---

func TestParseRequest(t *testing.T) {
	p := testProvider(t)
	def, _ := p.Definition("fixtures")
	q := url.Values{
		"q":         {"  arsenal "},
		"sort":      {"kickoffAsc"},
		"page":      {"3"},
		"page_size": {"oops"},
		"status":    {"live"},
		"unknown":   {"x"},
	}

	req := ParseRequest(def, q)
	if req.Collection != "fixtures" || req.Search != "arsenal" || req.SortKey != "kickoffAsc" {
		t.Errorf("req = %+v", req)
	}
	if req.PageIndex != 3 || req.PageSize != 0 {
		t.Errorf("paging = %d/%d", req.PageIndex, req.PageSize)
	}
	if req.Filters["status"] != "live" || len(req.Filters) != 1 {
		t.Errorf("filters = %v", req.Filters)
	}

	back := EncodeRequest(req)
	if back.Get("q") != "arsenal" || back.Get("status") != "live" || back.Has("page") {
		t.Errorf("encoded = %v", back)
	}
}
