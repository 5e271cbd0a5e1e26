package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const defaultListLimit = 50

// ErrAttemptNotFound is returned when an attempt id does not exist.
var ErrAttemptNotFound = errors.New("attempt not found")

// Store persists attempts in a SQLite database.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open creates or connects to the journal at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("history path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
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

	store := &Store{db: db, path: path, now: time.Now}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Begin records the start of an attempt and returns its id. The row starts
// in the processing status.
func (s *Store) Begin(ctx context.Context, attempt Attempt) (int64, error) {
	if strings.TrimSpace(attempt.ProductID) == "" {
		return 0, errors.New("begin attempt: product id required")
	}
	if strings.TrimSpace(attempt.Fingerprint) == "" {
		return 0, errors.New("begin attempt: fingerprint required")
	}
	if attempt.Status == "" {
		attempt.Status = "processing"
	}
	if attempt.StartedAt.IsZero() {
		attempt.StartedAt = s.now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO attempts (run_id, product_id, title, fingerprint, image_url, status, started_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		nullableString(attempt.RunID),
		attempt.ProductID,
		nullableString(attempt.Title),
		attempt.Fingerprint,
		nullableString(attempt.ImageURL),
		attempt.Status,
		formatTime(attempt.StartedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("insert attempt: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// Finish stores the terminal outcome of an attempt.
func (s *Store) Finish(ctx context.Context, id int64, result Result) error {
	if strings.TrimSpace(result.Status) == "" {
		return errors.New("finish attempt: status required")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE attempts
         SET status = ?, error_message = ?, media_id = ?, task_id = COALESCE(?, task_id), finished_at = ?
         WHERE id = ?`,
		result.Status,
		nullableString(result.Error),
		nullableString(result.MediaID),
		nullableString(result.TaskID),
		formatTime(s.now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("finish attempt: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish attempt: rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("finish attempt %d: %w", id, ErrAttemptNotFound)
	}
	return nil
}

// Get fetches one attempt.
func (s *Store) Get(ctx context.Context, id int64) (Attempt, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+attemptColumns+` FROM attempts WHERE id = ?`, id)
	attempt, err := scanAttempt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Attempt{}, fmt.Errorf("attempt %d: %w", id, ErrAttemptNotFound)
	}
	if err != nil {
		return Attempt{}, fmt.Errorf("get attempt: %w", err)
	}
	return attempt, nil
}

// List returns attempts newest first.
func (s *Store) List(ctx context.Context, filter Filter) ([]Attempt, error) {
	var (
		clauses []string
		args    []any
	)
	if id := strings.TrimSpace(filter.ProductID); id != "" {
		clauses = append(clauses, "product_id = ?")
		args = append(args, id)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, status)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := `SELECT ` + attemptColumns + ` FROM attempts`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	var attempts []Attempt
	for rows.Next() {
		attempt, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		attempts = append(attempts, attempt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}
	return attempts, nil
}

// CountByStatus returns the number of attempts per status.
func (s *Store) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM attempts GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count attempts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate counts: %w", err)
	}
	return counts, nil
}

// MarkInterrupted closes attempts left unfinished by a previous process and
// returns how many rows changed.
func (s *Store) MarkInterrupted(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE attempts SET status = ?, finished_at = ? WHERE finished_at IS NULL`,
		StatusInterrupted,
		formatTime(s.now()),
	)
	if err != nil {
		return 0, fmt.Errorf("mark interrupted: %w", err)
	}
	return res.RowsAffected()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
