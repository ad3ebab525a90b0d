package notifications_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"matchreel/internal/config"
	"matchreel/internal/notifications"
	"matchreel/internal/services"
)

func TestNewServiceReturnsNoopWhenWebhookMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.WebhookURL = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyRunFinished(context.Background(), notifications.Result{Status: notifications.StatusSuccess}); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestWebhookPayloadShape(t *testing.T) {
	var received map[string]any
	var contentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &received); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Notifications.WebhookURL = server.URL
	svc := notifications.NewService(&cfg)

	matchID := int64(7700000001)
	msg := "upload /v/a.mkv failed"
	started := time.Date(2024, 5, 2, 0, 16, 0, 0, time.FixedZone("EDT", -4*3600))
	err := svc.NotifyRunFinished(context.Background(), notifications.Result{
		Status:     notifications.StatusError,
		StartedAt:  started,
		FinishedAt: started.Add(time.Minute),
		VideoPath:  "/v/a.mkv",
		MatchID:    &matchID,
		Error:      &msg,
	})
	if err != nil {
		t.Fatalf("NotifyRunFinished returned error: %v", err)
	}
	if contentType != "application/json" {
		t.Fatalf("unexpected content type %q", contentType)
	}

	if received["status"] != "error" || received["videoPath"] != "/v/a.mkv" || received["error"] != msg {
		t.Fatalf("unexpected payload: %v", received)
	}
	if received["startedAt"] != "2024-05-02T04:16:00Z" || received["finishedAt"] != "2024-05-02T04:17:00Z" {
		t.Fatalf("expected UTC RFC3339 timestamps, got %v / %v", received["startedAt"], received["finishedAt"])
	}
	if received["matchId"] != float64(matchID) {
		t.Fatalf("unexpected matchId %v", received["matchId"])
	}
	for _, key := range []string{"youtubeVideoId", "descriptionPath"} {
		value, ok := received[key]
		if !ok || value != nil {
			t.Fatalf("expected %s to be present and null, got %v (present=%v)", key, value, ok)
		}
	}
	if _, ok := received["test"]; ok {
		t.Fatal("test flag must be omitted for real runs")
	}
}

func TestWebhookNon2xxIsNotificationError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Notifications.WebhookURL = server.URL
	err := notifications.NewService(&cfg).TestNotification(context.Background())
	if !errors.Is(err, services.ErrNotification) {
		t.Fatalf("expected ErrNotification, got %v", err)
	}
}
