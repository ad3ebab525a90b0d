package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"matchreel/internal/config"
)

// Status values recorded for finished runs.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Entry is one finished run.
type Entry struct {
	ID              string     `json:"id"`
	RecordingPath   string     `json:"recording_path"`
	RecordingStart  *time.Time `json:"recording_start,omitempty"`
	MatchID         *int64     `json:"match_id,omitempty"`
	VideoID         *string    `json:"video_id,omitempty"`
	DescriptionPath *string    `json:"description_path,omitempty"`
	Status          string     `json:"status"`
	FailedStage     string     `json:"failed_stage,omitempty"`
	ErrorKind       string     `json:"error_kind,omitempty"`
	ErrorMessage    string     `json:"error_message,omitempty"`
	DryRun          bool       `json:"dry_run"`
	StartedAt       time.Time  `json:"started_at"`
	FinishedAt      time.Time  `json:"finished_at"`
}

// Counts summarizes the log.
type Counts struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Store persists run history in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open connects to the history database in the configured log directory.
func Open(cfg *config.Config) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("history: config required")
	}
	return OpenPath(cfg.HistoryDBPath())
}

// OpenPath connects to (or creates) the database at dbPath and applies migrations.
func OpenPath(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record appends a finished run.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		return errors.New("history entry requires an id")
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (
            id, recording_path, recording_start, match_id, video_id, description_path,
            status, failed_stage, error_kind, error_message, dry_run, started_at, finished_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		e.RecordingPath,
		nullableTime(e.RecordingStart),
		nullableInt(e.MatchID),
		nullableStringPtr(e.VideoID),
		nullableStringPtr(e.DescriptionPath),
		e.Status,
		nullableString(e.FailedStage),
		nullableString(e.ErrorKind),
		nullableString(e.ErrorMessage),
		boolToInt(e.DryRun),
		e.StartedAt.UTC().Format(time.RFC3339Nano),
		e.FinishedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// List returns up to limit runs, most recently finished first. A limit <= 0
// returns every run.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM runs ORDER BY finished_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// Get fetches a run by id. A missing run yields (nil, nil).
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM runs WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return entry, nil
}

// Counts tallies runs by status.
func (s *Store) Counts(ctx context.Context) (Counts, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM runs GROUP BY status`)
	if err != nil {
		return Counts{}, fmt.Errorf("count runs: %w", err)
	}
	defer rows.Close()

	var counts Counts
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return Counts{}, err
		}
		counts.Total += n
		switch status {
		case StatusSuccess:
			counts.Succeeded += n
		case StatusError:
			counts.Failed += n
		}
	}
	return counts, rows.Err()
}

const entryColumns = "id, recording_path, recording_start, match_id, video_id, description_path, status, failed_stage, error_kind, error_message, dry_run, started_at, finished_at"

func scanEntry(scanner interface{ Scan(dest ...any) error }) (*Entry, error) {
	var (
		e               Entry
		recordingStart  sql.NullString
		matchID         sql.NullInt64
		videoID         sql.NullString
		descriptionPath sql.NullString
		failedStage     sql.NullString
		errorKind       sql.NullString
		errorMessage    sql.NullString
		dryRun          int
		startedRaw      string
		finishedRaw     string
	)
	if err := scanner.Scan(
		&e.ID,
		&e.RecordingPath,
		&recordingStart,
		&matchID,
		&videoID,
		&descriptionPath,
		&e.Status,
		&failedStage,
		&errorKind,
		&errorMessage,
		&dryRun,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}

	if recordingStart.Valid {
		if t, err := time.Parse(time.RFC3339Nano, recordingStart.String); err == nil {
			e.RecordingStart = &t
		}
	}
	if matchID.Valid {
		id := matchID.Int64
		e.MatchID = &id
	}
	if videoID.Valid {
		v := videoID.String
		e.VideoID = &v
	}
	if descriptionPath.Valid {
		p := descriptionPath.String
		e.DescriptionPath = &p
	}
	e.FailedStage = failedStage.String
	e.ErrorKind = errorKind.String
	e.ErrorMessage = errorMessage.String
	e.DryRun = dryRun != 0
	e.StartedAt, _ = time.Parse(time.RFC3339Nano, startedRaw)
	e.FinishedAt, _ = time.Parse(time.RFC3339Nano, finishedRaw)
	return &e, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableStringPtr(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableInt(value *int64) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
