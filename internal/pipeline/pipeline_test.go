package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"matchreel/internal/catalog"
	"matchreel/internal/config"
	"matchreel/internal/fileutil"
	"matchreel/internal/history"
	"matchreel/internal/matching"
	"matchreel/internal/notifications"
	"matchreel/internal/opendota"
	"matchreel/internal/pipeline"
	"matchreel/internal/recording"
	"matchreel/internal/services"
	"matchreel/internal/testsupport"
	"matchreel/internal/youtube"
)

const (
	testPlayerID = int64(42)
	testMatchID  = int64(7700000001)
)

type fakeResolver struct {
	calls int
	err   error
}

func (f *fakeResolver) Resolve(_ context.Context, playerID int64, instant time.Time, _ matching.Window) (matching.Resolution, error) {
	f.calls++
	if f.err != nil {
		return matching.Resolution{}, f.err
	}
	if playerID != testPlayerID {
		return matching.Resolution{}, errors.New("unexpected player id")
	}
	return matching.Resolution{MatchID: testMatchID, MatchStart: instant, Pass: matching.PassRecent}, nil
}

type fakeMatches struct {
	match *opendota.Match
}

func (f *fakeMatches) Match(_ context.Context, id int64) (*opendota.Match, error) {
	if f.match == nil || f.match.MatchID != id {
		return nil, &opendota.ProviderError{Endpoint: "matches", Status: 404}
	}
	return f.match, nil
}

type fakeCatalogs struct{}

func (fakeCatalogs) Load(context.Context) (catalog.Catalogs, error) {
	return catalog.Catalogs{
		Heroes: map[int]string{8: "Juggernaut"},
		Items:  map[int]string{1: "Blink Dagger"},
	}, nil
}

type fakeUploader struct {
	calls  int
	videos []youtube.Video
	err    error
	panics bool
}

func (f *fakeUploader) Upload(_ context.Context, v youtube.Video) (string, error) {
	f.calls++
	f.videos = append(f.videos, v)
	if f.panics {
		panic("nil map write")
	}
	if f.err != nil {
		return "", f.err
	}
	return "yt-video-1", nil
}

type recordingNotifier struct {
	mu      sync.Mutex
	results []notifications.Result
	err     error
}

func (r *recordingNotifier) NotifyRunFinished(_ context.Context, result notifications.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
	return r.err
}

func (r *recordingNotifier) TestNotification(context.Context) error { return nil }

func fixtureMatch() *opendota.Match {
	return &opendota.Match{
		MatchID:    testMatchID,
		StartTime:  time.Date(2024, 5, 2, 0, 10, 0, 0, time.UTC).Unix(),
		Duration:   2400,
		RadiantWin: true,
		Players: []opendota.Player{
			{AccountID: testPlayerID, PlayerSlot: 1, HeroID: 8, Item0: 1},
		},
	}
}

type harness struct {
	cfg       *config.Config
	resolver  *fakeResolver
	matches   *fakeMatches
	uploader  *fakeUploader
	notifier  *recordingNotifier
	history   *history.Store
	pipeline  *pipeline.Pipeline
	recording string
}

func newHarness(t *testing.T, uploads bool, stability fileutil.StabilityPolicy) *harness {
	t.Helper()
	opts := []testsupport.ConfigOption{}
	if uploads {
		opts = append(opts, testsupport.WithUploads())
	}
	cfg := testsupport.NewConfig(t, opts...)
	cfg.Matching.PlayerID = testPlayerID

	h := &harness{
		cfg:       cfg,
		resolver:  &fakeResolver{},
		matches:   &fakeMatches{match: fixtureMatch()},
		uploader:  &fakeUploader{},
		notifier:  &recordingNotifier{},
		history:   testsupport.MustOpenHistory(t, cfg),
		recording: filepath.Join(cfg.Paths.WatchDir, "2024-05-02 00-15-30.mp4"),
	}
	deps := pipeline.Dependencies{
		Resolver: h.resolver,
		Matches:  h.matches,
		Catalogs: fakeCatalogs{},
		Notifier: h.notifier,
		History:  h.history,
	}
	if uploads {
		deps.Uploader = h.uploader
	}
	p, err := pipeline.New(cfg, deps, pipeline.WithStability(stability))
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	h.pipeline = p
	return h
}

func fastStability() fileutil.StabilityPolicy {
	return fileutil.StabilityPolicy{Interval: 10 * time.Millisecond}
}

func (h *harness) onlyNotification(t *testing.T) notifications.Result {
	t.Helper()
	h.notifier.mu.Lock()
	defer h.notifier.mu.Unlock()
	if len(h.notifier.results) != 1 {
		t.Fatalf("expected exactly one notification, got %d", len(h.notifier.results))
	}
	return h.notifier.results[0]
}

func (h *harness) historyEntry(t *testing.T, id string) *history.Entry {
	t.Helper()
	entry, err := h.history.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("history get: %v", err)
	}
	if entry == nil {
		t.Fatalf("expected history entry for run %s", id)
	}
	return entry
}

func TestProcessUploadsAndNotifiesSuccess(t *testing.T) {
	h := newHarness(t, true, fastStability())
	testsupport.WriteFile(t, h.recording, 2048)

	run := h.pipeline.Process(context.Background(), h.recording)

	if !run.Succeeded() {
		t.Fatalf("expected done, got %s (%v)", run.State, run.Err)
	}
	if run.VideoID == nil || *run.VideoID != "yt-video-1" {
		t.Fatalf("unexpected video id: %v", run.VideoID)
	}
	if h.uploader.calls != 1 {
		t.Fatalf("expected one upload, got %d", h.uploader.calls)
	}
	video := h.uploader.videos[0]
	if !strings.HasPrefix(video.Title, "Juggernaut Gameplay | Win | 40min") {
		t.Fatalf("unexpected title: %q", video.Title)
	}
	if video.Path != h.recording {
		t.Fatalf("unexpected upload path: %q", video.Path)
	}

	result := h.onlyNotification(t)
	if result.Status != notifications.StatusSuccess {
		t.Fatalf("expected success notification, got %s", result.Status)
	}
	if result.MatchID == nil || *result.MatchID != testMatchID {
		t.Fatalf("unexpected notified match id: %v", result.MatchID)
	}
	if result.YouTubeVideoID == nil || *result.YouTubeVideoID != "yt-video-1" {
		t.Fatalf("unexpected notified video id: %v", result.YouTubeVideoID)
	}
	if result.Error != nil {
		t.Fatalf("expected nil error, got %q", *result.Error)
	}

	entry := h.historyEntry(t, run.ID)
	if entry.Status != history.StatusSuccess || entry.VideoID == nil {
		t.Fatalf("unexpected history entry: %+v", entry)
	}
}

func TestProcessUploadFailureKeepsDescriptionAndReportsMatch(t *testing.T) {
	h := newHarness(t, true, fastStability())
	h.uploader.err = &youtube.UploadError{Path: h.recording, Attempts: 3, Err: errors.New("quota exceeded")}
	testsupport.WriteFile(t, h.recording, 2048)

	run := h.pipeline.Process(context.Background(), h.recording)

	if run.State != pipeline.StateFailed || run.FailedStage != "uploading" {
		t.Fatalf("expected failure in uploading, got %s/%s", run.State, run.FailedStage)
	}
	if !errors.Is(run.Err, services.ErrUpload) {
		t.Fatalf("expected upload error, got %v", run.Err)
	}
	descPath := recording.DescriptionPath(h.recording)
	if _, err := os.Stat(descPath); err != nil {
		t.Fatalf("expected description to remain on disk: %v", err)
	}

	result := h.onlyNotification(t)
	if result.Status != notifications.StatusError {
		t.Fatalf("expected error notification, got %s", result.Status)
	}
	if result.MatchID == nil || *result.MatchID != testMatchID {
		t.Fatalf("expected match id in notification, got %v", result.MatchID)
	}
	if result.YouTubeVideoID != nil {
		t.Fatalf("expected nil video id, got %q", *result.YouTubeVideoID)
	}
	if result.DescriptionPath == nil || *result.DescriptionPath != descPath {
		t.Fatalf("unexpected description path: %v", result.DescriptionPath)
	}
	if result.Error == nil || !strings.Contains(*result.Error, "quota exceeded") {
		t.Fatalf("expected upload error text, got %v", result.Error)
	}

	entry := h.historyEntry(t, run.ID)
	if entry.ErrorKind != "upload" || entry.FailedStage != "uploading" {
		t.Fatalf("unexpected history failure fields: %+v", entry)
	}
}

func TestProcessStagePanicStillNotifiesAndRecords(t *testing.T) {
	h := newHarness(t, true, fastStability())
	h.uploader.panics = true
	testsupport.WriteFile(t, h.recording, 2048)

	run := h.pipeline.Process(context.Background(), h.recording)

	if run.State != pipeline.StateFailed || run.FailedStage != "uploading" {
		t.Fatalf("expected failure in uploading, got %s/%s", run.State, run.FailedStage)
	}
	if run.Err == nil || !strings.Contains(run.Err.Error(), "nil map write") {
		t.Fatalf("expected panic value in error, got %v", run.Err)
	}
	result := h.onlyNotification(t)
	if result.Status != notifications.StatusError {
		t.Fatalf("expected error notification, got %s", result.Status)
	}
	entry := h.historyEntry(t, run.ID)
	if entry.Status != history.StatusError || entry.FailedStage != "uploading" {
		t.Fatalf("unexpected history entry: %+v", entry)
	}
}

func TestProcessDryRunSkipsUpload(t *testing.T) {
	h := newHarness(t, false, fastStability())
	testsupport.WriteFile(t, h.recording, 1024)

	run := h.pipeline.Process(context.Background(), h.recording)

	if !run.Succeeded() {
		t.Fatalf("expected done, got %s (%v)", run.State, run.Err)
	}
	if h.uploader.calls != 0 {
		t.Fatalf("expected no upload in dry run, got %d", h.uploader.calls)
	}
	data, err := os.ReadFile(recording.DescriptionPath(h.recording))
	if err != nil {
		t.Fatalf("read description: %v", err)
	}
	if !strings.Contains(string(data), "Match ID: 7700000001") {
		t.Fatalf("description missing match id:\n%s", data)
	}

	result := h.onlyNotification(t)
	if result.Status != notifications.StatusSuccess {
		t.Fatalf("expected success, got %s", result.Status)
	}
	if result.YouTubeVideoID != nil {
		t.Fatalf("expected nil video id in dry run, got %q", *result.YouTubeVideoID)
	}
	if !h.historyEntry(t, run.ID).DryRun {
		t.Fatal("expected history entry flagged as dry run")
	}
}

func TestProcessBadNameFailsInResolving(t *testing.T) {
	h := newHarness(t, false, fastStability())
	bad := filepath.Join(h.cfg.Paths.WatchDir, "Replay Buffer.mp4")
	testsupport.WriteFile(t, bad, 512)

	run := h.pipeline.Process(context.Background(), bad)

	if run.State != pipeline.StateFailed || run.FailedStage != "resolving" {
		t.Fatalf("expected resolving failure, got %s/%s", run.State, run.FailedStage)
	}
	if !errors.Is(run.Err, services.ErrNameParse) {
		t.Fatalf("expected name parse error, got %v", run.Err)
	}
	if h.resolver.calls != 0 {
		t.Fatal("resolver should not run after a name parse failure")
	}
	result := h.onlyNotification(t)
	if result.MatchID != nil || result.DescriptionPath != nil {
		t.Fatalf("expected no match context, got %+v", result)
	}
}

func TestProcessNoMatchReportsError(t *testing.T) {
	h := newHarness(t, false, fastStability())
	h.resolver.err = &matching.NoMatchFoundError{LookbackDays: 3}
	testsupport.WriteFile(t, h.recording, 512)

	run := h.pipeline.Process(context.Background(), h.recording)

	if !errors.Is(run.Err, services.ErrNoMatch) {
		t.Fatalf("expected no-match error, got %v", run.Err)
	}
	if run.MatchID != nil {
		t.Fatalf("expected match id unset, got %d", *run.MatchID)
	}
	if h.onlyNotification(t).Status != notifications.StatusError {
		t.Fatal("expected error notification")
	}
	if _, err := os.Stat(recording.DescriptionPath(h.recording)); !os.IsNotExist(err) {
		t.Fatalf("expected no description file, stat err=%v", err)
	}
}

func TestProcessPlayerMissingFromMatchFailsEnriching(t *testing.T) {
	h := newHarness(t, false, fastStability())
	h.matches.match.Players[0].AccountID = 7
	testsupport.WriteFile(t, h.recording, 512)

	run := h.pipeline.Process(context.Background(), h.recording)

	if run.FailedStage != "enriching" || !errors.Is(run.Err, services.ErrValidation) {
		t.Fatalf("expected enriching validation failure, got %s: %v", run.FailedStage, run.Err)
	}
	result := h.onlyNotification(t)
	if result.MatchID == nil || *result.MatchID != testMatchID {
		t.Fatalf("expected match id carried into notification, got %v", result.MatchID)
	}
}

func TestProcessNotificationFailureDoesNotChangeOutcome(t *testing.T) {
	h := newHarness(t, false, fastStability())
	h.notifier.err = errors.New("webhook down")
	testsupport.WriteFile(t, h.recording, 512)

	run := h.pipeline.Process(context.Background(), h.recording)

	if !run.Succeeded() {
		t.Fatalf("expected done despite notifier error, got %s (%v)", run.State, run.Err)
	}
	h.onlyNotification(t)
}

func TestProcessMissingFileFailsStabilizing(t *testing.T) {
	h := newHarness(t, false, fastStability())

	run := h.pipeline.Process(context.Background(), h.recording)

	if run.State != pipeline.StateFailed || run.FailedStage != "stabilizing" {
		t.Fatalf("expected stabilizing failure, got %s/%s", run.State, run.FailedStage)
	}
	if !errors.Is(run.Err, fileutil.ErrFileMissing) {
		t.Fatalf("expected missing file error, got %v", run.Err)
	}
	h.onlyNotification(t)
}

func TestProcessCancelledWhileStabilizingAborts(t *testing.T) {
	policy := fastStability()
	policy.MissingGrace = time.Hour
	h := newHarness(t, false, policy)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	run := h.pipeline.Process(ctx, h.recording)

	if run.State != pipeline.StateAborted {
		t.Fatalf("expected aborted, got %s", run.State)
	}
	if len(h.notifier.results) != 0 {
		t.Fatalf("expected no notification for aborted run, got %d", len(h.notifier.results))
	}
	counts, err := h.history.Counts(context.Background())
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if counts.Total != 0 {
		t.Fatalf("expected no history for aborted run, got %d", counts.Total)
	}
}

func TestNewRequiresUploaderUnlessDryRun(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithUploads())
	_, err := pipeline.New(cfg, pipeline.Dependencies{
		Resolver: &fakeResolver{},
		Matches:  &fakeMatches{},
		Catalogs: fakeCatalogs{},
	})
	if err == nil {
		t.Fatal("expected error without uploader")
	}
}
