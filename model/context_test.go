package model

import (
	"context"
	"math"
	"testing"
	"time"
)

func TestRequestContext_Validate(t *testing.T) {
	tests := []struct {
		name    string
		rc      *RequestContext
		wantErr bool
	}{
		{
			name:    "valid context",
			rc:      &RequestContext{SubjectID: "admin-1", SessionID: "sess-1"},
			wantErr: false,
		},
		{
			name:    "session only",
			rc:      &RequestContext{SessionID: "sess-1"},
			wantErr: false,
		},
		{
			name:    "missing SessionID",
			rc:      &RequestContext{SubjectID: "admin-1"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rc.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRequestContext_HasRole(t *testing.T) {
	rc := &RequestContext{Roles: []string{"admin", "editor"}}

	if !rc.HasRole("admin") {
		t.Error("expected HasRole(admin) to be true")
	}
	if rc.HasRole("viewer") {
		t.Error("expected HasRole(viewer) to be false")
	}
}

func TestRequestContextFrom(t *testing.T) {
	rc := &RequestContext{SubjectID: "admin-1", SessionID: "sess-1"}
	ctx := WithRequestContext(context.Background(), rc)

	got, ok := RequestContextFrom(ctx)
	if !ok {
		t.Fatal("expected RequestContext to be present")
	}
	if got.SubjectID != "admin-1" {
		t.Errorf("SubjectID = %q, want %q", got.SubjectID, "admin-1")
	}
}

func TestRequestContextFrom_missing(t *testing.T) {
	got, ok := RequestContextFrom(context.Background())
	if ok || got != nil {
		t.Errorf("expected no RequestContext, got %v", got)
	}
}

// --- Rows ---

func TestRow_ID(t *testing.T) {
	tests := []struct {
		name string
		row  Row
		want string
	}{
		{"string id", Row{"id": "fx-1"}, "fx-1"},
		{"numeric id", Row{"id": float64(42)}, "42"},
		{"mongo id", Row{"_id": "abc"}, "abc"},
		{"missing", Row{"name": "x"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.row.ID(); got != tt.want {
				t.Errorf("ID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRow_Field_nested(t *testing.T) {
	row := Row{
		"homeTeam": map[string]any{"name": "Arsenal"},
		"a.b":      "literal",
	}
	if got := row.Field("homeTeam.name"); got != "Arsenal" {
		t.Errorf("Field(homeTeam.name) = %v", got)
	}
	if got := row.Field("a.b"); got != "literal" {
		t.Errorf("Field(a.b) = %v", got)
	}
	if got := row.Field("homeTeam.name.x"); got != nil {
		t.Errorf("Field(deep) = %v, want nil", got)
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"x", "x"},
		{float64(3), "3"},
		{1.5, "1.5"},
		{true, "true"},
		{7, "7"},
		{float64(-4), "-4"},
		{1e20, "100000000000000000000"},
		{-1e19, "-10000000000000000000"},
		{math.Inf(1), "+Inf"},
		{math.NaN(), "NaN"},
	}
	for _, tt := range tests {
		if got := FormatValue(tt.in); got != tt.want {
			t.Errorf("FormatValue(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestListResult_PageCount(t *testing.T) {
	tests := []struct {
		total, size, want int
	}{
		{0, 10, 0},
		{12, 10, 2},
		{10, 10, 1},
		{5, 0, 0},
	}
	for _, tt := range tests {
		r := ListResult{TotalCount: tt.total, PageSize: tt.size}
		if got := r.PageCount(); got != tt.want {
			t.Errorf("PageCount(%d/%d) = %d, want %d", tt.total, tt.size, got, tt.want)
		}
	}
	r := ListResult{TotalCount: 12, PageSize: 10, PageIndex: 0}
	if !r.HasNext() {
		t.Error("expected HasNext on first of two pages")
	}
	r.PageIndex = 1
	if r.HasNext() {
		t.Error("expected no next page on last page")
	}
}

// --- Session ---

func TestSession_Valid(t *testing.T) {
	now := time.Now()
	var nilSession *Session
	if nilSession.Valid(now) {
		t.Error("nil session must be invalid")
	}
	if (&Session{}).Valid(now) {
		t.Error("session without token must be invalid")
	}
	if !(&Session{Token: "t"}).Valid(now) {
		t.Error("session without expiry must be valid")
	}
	if (&Session{Token: "t", ExpiresAt: now.Add(-time.Minute)}).Valid(now) {
		t.Error("expired session must be invalid")
	}
}

func TestSession_DisplayName(t *testing.T) {
	s := &Session{User: map[string]any{"email": "ops@cebee.io", "username": "ops"}}
	if got := s.DisplayName(); got != "ops" {
		t.Errorf("DisplayName() = %q, want %q", got, "ops")
	}
}
