package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"matchreel/internal/history"
	"matchreel/internal/pipeline"
	"matchreel/internal/testsupport"
)

type runLogStub struct {
	entries   []history.Entry
	lastLimit int
}

func (s *runLogStub) List(_ context.Context, limit int) ([]history.Entry, error) {
	s.lastLimit = limit
	return s.entries, nil
}

func (s *runLogStub) Get(_ context.Context, id string) (*history.Entry, error) {
	for i := range s.entries {
		if s.entries[i].ID == id {
			return &s.entries[i], nil
		}
	}
	return nil, nil
}

func (s *runLogStub) Counts(context.Context) (history.Counts, error) {
	return history.Counts{Total: len(s.entries), Succeeded: len(s.entries)}, nil
}

type nopProcessor struct{}

func (nopProcessor) Process(_ context.Context, path string) *pipeline.Run {
	return &pipeline.Run{Path: path, State: pipeline.StateDone}
}

func newTestAPI(t *testing.T, token string, runs *runLogStub) http.Handler {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIToken = token
	d, err := New(cfg, runs, nopProcessor{}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d.api.routes()
}

func serve(h http.Handler, method, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestAPIRunsListAndGet(t *testing.T) {
	matchID := int64(99)
	runs := &runLogStub{entries: []history.Entry{{
		ID: "abc", RecordingPath: "/v/a.mp4", MatchID: &matchID, Status: history.StatusSuccess,
		StartedAt: time.Now(), FinishedAt: time.Now(),
	}}}
	h := newTestAPI(t, "", runs)

	w := serve(h, http.MethodGet, "/api/runs?limit=5", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var reply RunsReply
	if err := json.Unmarshal(w.Body.Bytes(), &reply); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(reply.Runs) != 1 || reply.Runs[0].ID != "abc" {
		t.Fatalf("unexpected runs: %+v", reply.Runs)
	}
	if runs.lastLimit != 5 {
		t.Fatalf("expected limit 5, got %d", runs.lastLimit)
	}

	w = serve(h, http.MethodGet, "/api/runs/abc", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"match_id":99`) {
		t.Fatalf("unexpected run reply %d: %s", w.Code, w.Body.String())
	}

	w = serve(h, http.MethodGet, "/api/runs/missing", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestAPIRejectsBadLimit(t *testing.T) {
	h := newTestAPI(t, "", &runLogStub{})
	w := serve(h, http.MethodGet, "/api/runs?limit=zero", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestAPIRequiresBearerToken(t *testing.T) {
	h := newTestAPI(t, "s3cret", &runLogStub{})

	if w := serve(h, http.MethodGet, "/api/status", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
	if w := serve(h, http.MethodGet, "/api/status", "wrong"); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", w.Code)
	}
	w := serve(h, http.MethodGet, "/api/status", "s3cret")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"running":false`) {
		t.Fatalf("unexpected status body: %s", w.Body.String())
	}
}

func TestMetricsEndpointSkipsAuth(t *testing.T) {
	h := newTestAPI(t, "s3cret", &runLogStub{})
	w := serve(h, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "matchreel_") {
		t.Fatalf("expected matchreel metrics in output")
	}
}
