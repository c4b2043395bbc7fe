package e2e

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/radioafrica/internal/handler"
	"github.com/radioafrica/internal/live"
	"github.com/radioafrica/internal/metrics"
	"github.com/radioafrica/internal/router"
	"github.com/radioafrica/internal/service"
	"github.com/radioafrica/internal/store"
)

type e2eSuite struct {
	server      *httptest.Server
	store       store.Store
	broadcaster *live.Broadcaster
}

func newE2ESuite(t *testing.T) *e2eSuite {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := store.Open(context.Background(), store.Options{
		Driver:     store.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "data", "radioafrica.db"),
	})
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}

	recorder, err := metrics.New()
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}

	presence := service.NewPresenceTracker(st, st).WithObserver(recorder)
	stats := service.NewStatsAggregator(st, st)
	api := handler.NewAPI(handler.Services{
		Presence:    presence,
		Stats:       stats,
		Blogs:       service.NewBlogService(st),
		Diagnostics: service.NewDiagnosticsService(st, service.DiagnosticsEnv{Driver: string(store.DriverSQLite)}),
	}, nil)

	broadcaster := live.NewBroadcaster(stats, recorder, nil)
	engine := router.SetupRouter(api, router.Options{
		Metrics:     recorder.Handler(),
		StatsStream: broadcaster,
	})

	suite := &e2eSuite{
		server:      httptest.NewServer(router.Handler(engine, nil)),
		store:       st,
		broadcaster: broadcaster,
	}
	t.Cleanup(func() {
		suite.broadcaster.Stop()
		suite.server.Close()
		_ = st.Close()
	})
	return suite
}

func TestE2E_AllInterfaces(t *testing.T) {
	s := newE2ESuite(t)

	t.Run("presence", s.testPresence)
	t.Run("blogs", s.testBlogs)
	t.Run("diagnostics", s.testDiagnostics)
	t.Run("metrics", s.testMetrics)
	t.Run("stream", s.testStatsStream)
}

func (s *e2eSuite) testPresence(t *testing.T) {
	for _, visitor := range []string{"v1", "v2", "v1"} {
		resp := s.mustRequest(t, http.MethodPost, "/api/heartbeat", `{"visitor_id":"`+visitor+`"}`)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("heartbeat %s: expected 200, got %d: %s", visitor, resp.StatusCode, readBody(t, resp))
		}
		resp.Body.Close()
	}

	resp := s.mustRequest(t, http.MethodGet, "/api/stats?window_seconds=120", "")
	var stats service.Stats
	decodeJSON(t, resp, &stats)
	if stats.Active != 2 || stats.Total != 2 {
		t.Fatalf("expected active=2 total=2, got %+v", stats)
	}

	resp = s.mustRequest(t, http.MethodPost, "/api/heartbeat", `{"visitor_id":""}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty visitor, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func (s *e2eSuite) testBlogs(t *testing.T) {
	resp := s.mustRequest(t, http.MethodPost, "/api/blogs",
		`{"title":"Jùjú music","content":"King Sunny Adé and the *talking drum*","author":"Tunde","published_at":"2024-03-01T09:00:00Z"}`)
	var created map[string]interface{}
	decodeJSON(t, resp, &created)
	id, _ := created["id"].(string)
	if id == "" {
		t.Fatalf("expected id, got %v", created)
	}
	if created["published_at"] != "2024-03-01T09:00:00Z" {
		t.Fatalf("unexpected published_at %v", created["published_at"])
	}

	resp = s.mustRequest(t, http.MethodGet, "/api/blogs/"+id, "")
	var fetched map[string]interface{}
	decodeJSON(t, resp, &fetched)
	if html, _ := fetched["content_html"].(string); !strings.Contains(html, "<em>talking drum</em>") {
		t.Fatalf("expected rendered markdown, got %q", html)
	}

	resp = s.mustRequest(t, http.MethodGet, "/api/blogs", "")
	var list []map[string]interface{}
	decodeJSON(t, resp, &list)
	if len(list) != 1 {
		t.Fatalf("expected 1 post, got %d", len(list))
	}
}

func (s *e2eSuite) testDiagnostics(t *testing.T) {
	resp := s.mustRequest(t, http.MethodGet, "/test", "")
	var report service.DatabaseReport
	decodeJSON(t, resp, &report)
	if report.ConnectionStatus != "Connected" || report.Database != "✅ Connected & Working" {
		t.Fatalf("unexpected report %+v", report)
	}
	want := map[string]bool{store.CollectionSessions: false, store.CollectionSiteStats: false, store.CollectionPosts: false}
	for _, name := range report.Collections {
		if _, ok := want[name]; ok {
			want[name] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Fatalf("expected collection %s in %v", name, report.Collections)
		}
	}

	resp = s.mustRequest(t, http.MethodGet, "/healthz", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected healthz 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func (s *e2eSuite) testMetrics(t *testing.T) {
	resp := s.mustRequest(t, http.MethodGet, "/metrics", "")
	body := readBody(t, resp)
	for _, line := range []string{
		`radioafrica_heartbeats_total{result="ok"} 3`,
		`radioafrica_heartbeats_total{result="invalid"} 1`,
		`radioafrica_first_seen_total 2`,
	} {
		if !strings.Contains(body, line) {
			t.Fatalf("expected %q in metrics output", line)
		}
	}
}

func (s *e2eSuite) testStatsStream(t *testing.T) {
	if err := s.broadcaster.Start(20 * time.Millisecond); err != nil {
		t.Fatalf("failed to start broadcaster: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.server.URL+"/api/stats/stream", nil)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	resp, err := s.server.Client().Do(req)
	if err != nil {
		t.Fatalf("stream request failed: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("unexpected content type %q", ct)
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		var stats service.Stats
		if err := json.Unmarshal([]byte(strings.TrimSpace(strings.TrimPrefix(line, "data:"))), &stats); err != nil {
			t.Fatalf("failed to decode event %q: %v", line, err)
		}
		if stats.Total != 2 {
			t.Fatalf("expected total=2 in stream, got %+v", stats)
		}
		return
	}
	t.Fatalf("stream ended without a stats event: %v", scanner.Err())
}

func (s *e2eSuite) mustRequest(t *testing.T, method, path, body string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, s.server.URL+path, reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.server.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	return string(data)
}
