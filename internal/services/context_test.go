package services_test

import (
	"context"
	"testing"

	"matchreel/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-1")
	ctx = services.WithStage(ctx, "resolving")
	ctx = services.WithRecording(ctx, "/videos/a.mp4")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-1" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "resolving" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if rec, ok := services.RecordingFromContext(ctx); !ok || rec != "/videos/a.mp4" {
		t.Fatalf("unexpected recording: %v %v", rec, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	ctx = services.WithRunID(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
	if _, ok := services.RunIDFromContext(ctx); ok {
		t.Fatal("expected no run id value")
	}
}
