package handler_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/radioafrica/internal/handler"
	"github.com/radioafrica/internal/router"
	"github.com/radioafrica/internal/service"
	"github.com/radioafrica/internal/store"
)

var ginOnce sync.Once

func setupTestRouter(t *testing.T, s store.Store) *gin.Engine {
	t.Helper()

	ginOnce.Do(func() {
		gin.SetMode(gin.TestMode)
	})

	api := handler.NewAPI(handler.Services{
		Presence:    service.NewPresenceTracker(s, s),
		Stats:       service.NewStatsAggregator(s, s),
		Blogs:       service.NewBlogService(s),
		Diagnostics: service.NewDiagnosticsService(s, service.DiagnosticsEnv{Driver: "memory"}),
	}, nil)

	return router.SetupRouter(api, router.Options{})
}

func doRequest(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), dst); err != nil {
		t.Fatalf("failed to decode body %q: %v", w.Body.String(), err)
	}
}

func TestHeartbeatThenStats(t *testing.T) {
	r := setupTestRouter(t, store.NewMemoryStore())

	w := doRequest(r, http.MethodPost, "/api/heartbeat", `{"visitor_id":"abc"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var ack map[string]bool
	decodeBody(t, w, &ack)
	if !ack["ok"] {
		t.Fatalf("expected ok=true, got %v", ack)
	}

	// 同一访客重复心跳不重复计数
	doRequest(r, http.MethodPost, "/api/heartbeat", `{"visitor_id":"abc"}`)

	w = doRequest(r, http.MethodGet, "/api/stats", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var stats service.Stats
	decodeBody(t, w, &stats)
	if stats.Active != 1 || stats.Total != 1 {
		t.Fatalf("expected active=1 total=1, got %+v", stats)
	}

	w = doRequest(r, http.MethodGet, "/api/stats?window_seconds=0", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200 for zero window, got %d", w.Code)
	}
}

func TestStatsColdStartBody(t *testing.T) {
	r := setupTestRouter(t, store.NewMemoryStore())

	w := doRequest(r, http.MethodGet, "/api/stats?window_seconds=120", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"active":0,"total":0}` {
		t.Fatalf("unexpected body %s", got)
	}
}

func TestHeartbeatRejectsInvalidPayloads(t *testing.T) {
	s := store.NewMemoryStore()
	r := setupTestRouter(t, s)

	bodies := []string{`{}`, `{"visitor_id":""}`, `{"visitor_id":"   "}`, `{"visitor_id":42}`, `not json`}
	for _, body := range bodies {
		w := doRequest(r, http.MethodPost, "/api/heartbeat", body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected status 400, got %d", body, w.Code)
		}
	}

	w := doRequest(r, http.MethodGet, "/api/stats", "")
	var stats service.Stats
	decodeBody(t, w, &stats)
	if stats.Active != 0 || stats.Total != 0 {
		t.Fatalf("invalid heartbeats must not mutate state, got %+v", stats)
	}
}

func TestStatsRejectsBadWindow(t *testing.T) {
	r := setupTestRouter(t, store.NewMemoryStore())

	for _, query := range []string{"abc", "-5", "1.5"} {
		w := doRequest(r, http.MethodGet, "/api/stats?window_seconds="+query, "")
		if w.Code != http.StatusBadRequest {
			t.Fatalf("window %q: expected status 400, got %d", query, w.Code)
		}
	}
}

func TestStoreUnavailableSurfacesServerErrors(t *testing.T) {
	r := setupTestRouter(t, store.Unavailable("mongo", errors.New("no reachable servers")))

	w := doRequest(r, http.MethodPost, "/api/heartbeat", `{"visitor_id":"abc"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected heartbeat status 500, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), `"ok"`) {
		t.Fatalf("failed heartbeat must not acknowledge, got %s", w.Body.String())
	}

	w = doRequest(r, http.MethodGet, "/api/stats", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected stats status 500, got %d", w.Code)
	}

	w = doRequest(r, http.MethodGet, "/healthz", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected healthz status 503, got %d", w.Code)
	}

	w = doRequest(r, http.MethodGet, "/test", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected diagnostics status 200, got %d", w.Code)
	}
	var report service.DatabaseReport
	decodeBody(t, w, &report)
	if report.ConnectionStatus != "Not Connected" || !strings.HasPrefix(report.Database, "❌ Error: ") {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestBlogEndpoints(t *testing.T) {
	r := setupTestRouter(t, store.NewMemoryStore())

	w := doRequest(r, http.MethodPost, "/api/blogs", `{"title":"Afrobeat","content":"**Fela**","author":"Ngozi","tags":["music"]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var created map[string]interface{}
	decodeBody(t, w, &created)
	id, _ := created["id"].(string)
	if id == "" {
		t.Fatalf("expected id in response, got %v", created)
	}
	if html, _ := created["content_html"].(string); !strings.Contains(html, "<strong>Fela</strong>") {
		t.Fatalf("expected rendered html, got %q", html)
	}
	if created["published_at"] == "" || created["published_at"] == nil {
		t.Fatalf("expected published_at to be set")
	}

	w = doRequest(r, http.MethodGet, "/api/blogs?limit=5", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var list []map[string]interface{}
	decodeBody(t, w, &list)
	if len(list) != 1 || list[0]["title"] != "Afrobeat" {
		t.Fatalf("unexpected list %v", list)
	}

	w = doRequest(r, http.MethodGet, "/api/blogs/"+id, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	w = doRequest(r, http.MethodGet, "/api/blogs/not-an-id", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for invalid id, got %d", w.Code)
	}

	w = doRequest(r, http.MethodGet, "/api/blogs/999", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}

	w = doRequest(r, http.MethodPost, "/api/blogs", `{"title":"","content":"x","author":"y"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for missing title, got %d", w.Code)
	}

	w = doRequest(r, http.MethodGet, "/api/blogs?limit=-1", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for negative limit, got %d", w.Code)
	}
}

func TestRootAndHello(t *testing.T) {
	r := setupTestRouter(t, store.NewMemoryStore())

	tests := map[string]string{
		"/":          "Radio Africa API running",
		"/api/hello": "Hello from the backend API!",
	}
	for path, message := range tests {
		w := doRequest(r, http.MethodGet, path, "")
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected status 200, got %d", path, w.Code)
		}
		var body map[string]string
		decodeBody(t, w, &body)
		if body["message"] != message {
			t.Fatalf("%s: expected %q, got %q", path, message, body["message"])
		}
	}
}

func TestRequestIDHeader(t *testing.T) {
	r := setupTestRouter(t, store.NewMemoryStore())

	w := doRequest(r, http.MethodGet, "/healthz", "")
	if w.Header().Get(handler.RequestIDHeader) == "" {
		t.Fatalf("expected generated request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(handler.RequestIDHeader, "trace-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if got := rec.Header().Get(handler.RequestIDHeader); got != "trace-123" {
		t.Fatalf("expected request id to be echoed, got %q", got)
	}
}
