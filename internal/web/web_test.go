package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"dayview/internal/config"
)

const eventsYAML = `events:
  - title: Standup
    start: "2024-05-14 09:00"
    end: "2024-05-14 10:00"
  - title: Review
    color: "#1D3557"
    start: "2024-05-14 09:30"
    end: "2024-05-14 10:30"
  - title: Broken
    start: "2024-05-15 11:00"
    end: "2024-05-15 10:00"
`

func newTestServer(t *testing.T, auth *config.BasicAuthConfig) *Server {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "events.yaml")
	if err := os.WriteFile(path, []byte(eventsYAML), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultConfig()
	cfg.CacheDir = filepath.Join(dir, "cache")
	cfg.Sources = []config.SourceConfig{{ID: "file", Path: path}}
	cfg.BasicAuth = auth

	s := NewServer(cfg)
	s.now = func() time.Time { return time.Date(2024, 5, 14, 10, 15, 0, 0, time.Local) }
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	return s
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, &config.BasicAuthConfig{Username: "u", Password: "p"})
	rec := get(t, s.Handler(), "/health")
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("/health = %d %q", rec.Code, rec.Body.String())
	}
}

func TestLayoutEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	h := s.Handler()

	rec := get(t, h, "/api/layout?date=2024-05-14&width=359")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	var resp layoutResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Date != "2024-05-14" || resp.Cached || len(resp.Events) != 2 {
		t.Fatalf("resp = %+v", resp)
	}

	type geom struct {
		Index               int
		Title               string
		Top, Left, Width    float64
		Column, TotalColumn int
	}
	got := []geom{}
	for _, e := range resp.Events {
		got = append(got, geom{e.SourceIndex, e.Title, e.Top, e.Left, e.Width, e.Column, e.TotalColumns})
	}
	want := []geom{
		{0, "Standup", 900, 0, 150, 0, 2},
		{1, "Review", 950, 150, 150, 1, 2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("layout mismatch (-want +got):\n%s", diff)
	}
	if raw := rec.Body.String(); !strings.Contains(raw, `"source_index":1`) {
		t.Errorf("body lacks source_index: %s", raw)
	}
	if resp.InitialScroll != 800 {
		t.Errorf("initial scroll = %v, want 800", resp.InitialScroll)
	}

	rec = get(t, h, "/api/layout?date=2024-05-14&width=359")
	resp = layoutResponse{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Cached {
		t.Error("second request was not served from the layout cache")
	}
}

func TestLayoutEndpointErrors(t *testing.T) {
	s := newTestServer(t, nil)
	h := s.Handler()

	tests := map[string]int{
		"/api/layout?date=14-05-2024":          http.StatusBadRequest,
		"/api/layout?date=2024-05-14&width=40": http.StatusBadRequest,
		"/api/layout?date=2024-05-15":          http.StatusUnprocessableEntity,
		"/day.svg?date=2024-05-15":             http.StatusUnprocessableEntity,
		"/api/unknown":                         http.StatusNotFound,
	}
	for target, want := range tests {
		if rec := get(t, h, target); rec.Code != want {
			t.Errorf("%s = %d, want %d", target, rec.Code, want)
		}
	}
}

func TestDaySVG(t *testing.T) {
	s := newTestServer(t, nil)
	rec := get(t, s.Handler(), "/day.svg?date=2024-05-14")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("content type = %q", ct)
	}
	body := rec.Body.String()
	for _, want := range []string{`data-ready="true"`, "Standup", "Review", `fill="#1D3557"`} {
		if !strings.Contains(body, want) {
			t.Errorf("svg missing %s", want)
		}
	}
}

func TestStaticIndex(t *testing.T) {
	s := newTestServer(t, nil)
	rec := get(t, s.Handler(), "/")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "/day.svg") {
		t.Errorf("/ = %d", rec.Code)
	}
}

func TestBasicAuth(t *testing.T) {
	s := newTestServer(t, &config.BasicAuthConfig{Username: "admin", Password: "secret"})
	h := s.Handler()

	if rec := get(t, h, "/api/layout?date=2024-05-14"); rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/layout?date=2024-05-14", nil)
	req.SetBasicAuth("admin", "secret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("authenticated = %d, want 200", rec.Code)
	}

	req.SetBasicAuth("admin", "wrong")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong password = %d, want 401", rec.Code)
	}
}

func TestRefreshReportsFailedSources(t *testing.T) {
	s := newTestServer(t, nil)
	s.sources = append(s.sources, s.sources[0])
	s.sources[1].ID = "gone"
	s.sources[1].Path = filepath.Join(t.TempDir(), "missing.yaml")

	if err := s.Refresh(context.Background()); err == nil {
		t.Error("expected error for missing source")
	}
	if n := len(s.snapshot(time.Date(2024, 5, 14, 0, 0, 0, 0, time.Local))); n != 2 {
		t.Errorf("snapshot holds %d events for the day, want 2", n)
	}
}

func TestSecureCompare(t *testing.T) {
	if !secureCompare("abc", "abc") || secureCompare("abc", "abd") || secureCompare("abc", "ab") {
		t.Error("secureCompare misbehaves")
	}
}
