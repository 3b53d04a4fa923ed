package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mr1hm/go-aurora-alerts/internal/models"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

var ErrNotFound = errors.New("alert not found")

type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB opens the alert history. With ":memory:" the history lives and
// dies with the process.
func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	// Every connection to ":memory:" is its own database.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{
		db: db,
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error while migrating to database: %w", err)
	}

	return s, nil
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS alerts (
			id TEXT PRIMARY KEY,
			level INTEGER NOT NULL,
			message TEXT NOT NULL,
			priority INTEGER NOT NULL,
			receipt TEXT,
			created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_alerts_created_at ON alerts(created_at);
		CREATE INDEX IF NOT EXISTS idx_alerts_level ON alerts(level);
  	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteDB) AddAlert(ctx context.Context, a *models.Alert) error {
	if !a.Level.Valid() {
		return fmt.Errorf("add alert: invalid level %d", a.Level)
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO alerts (id, level, message, priority, receipt, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, a.ID, int(a.Level), a.Message, a.Priority, a.Receipt, a.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

func (s *SQLiteDB) GetAlert(ctx context.Context, id string) (*models.Alert, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, level, message, priority, receipt, created_at
		FROM alerts
		WHERE id = ?
	`, id)

	a, err := scanAlert(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get alert %s: %w", id, err)
	}
	return a, nil
}

// ListAlerts returns alerts newest first.
func (s *SQLiteDB) ListAlerts(ctx context.Context, opts Filter) ([]models.Alert, error) {
	query := `
		SELECT id, level, message, priority, receipt, created_at
		FROM alerts
		WHERE 1 = 1`
	var args []any

	if opts.Since != nil {
		query += ` AND created_at >= ?`
		args = append(args, opts.Since.UnixNano())
	}
	if opts.MinLevel != nil {
		query += ` AND level >= ?`
		args = append(args, int(*opts.MinLevel))
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	limit = min(limit, maxLimit)
	query += ` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`
	args = append(args, limit, max(opts.Offset, 0))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	alerts := []models.Alert{}
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		alerts = append(alerts, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	return alerts, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAlert(sc scanner) (*models.Alert, error) {
	var (
		a       models.Alert
		level   int
		receipt sql.NullString
		created int64
	)
	if err := sc.Scan(&a.ID, &level, &a.Message, &a.Priority, &receipt, &created); err != nil {
		return nil, err
	}
	a.Level = models.Level(level)
	a.Receipt = receipt.String
	a.CreatedAt = time.Unix(0, created).UTC()
	return &a, nil
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}
