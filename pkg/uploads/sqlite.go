package uploads

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const backendSQLite = "sqlite"

// schema creates the ledger table.
const schema = `
CREATE TABLE IF NOT EXISTS uploads (
	id TEXT PRIMARY KEY,
	annotation_id INTEGER NOT NULL,
	table_name TEXT NOT NULL,
	segment_id INTEGER NOT NULL,
	dataset TEXT NOT NULL DEFAULT '',
	annotation TEXT NOT NULL,
	user_id INTEGER NOT NULL,
	chat_user TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_uploads_created ON uploads(created_at);
CREATE INDEX IF NOT EXISTS idx_uploads_segment ON uploads(table_name, segment_id);
`

// SQLiteConfig configures a SQLiteLedger.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// SQLiteLedger persists entries in SQLite.
type SQLiteLedger struct {
	db     *sql.DB
	now    func() time.Time
	logger *slog.Logger
}

// NewSQLiteLedger opens (creating if needed) the ledger at cfg.Path.
func NewSQLiteLedger(cfg SQLiteConfig, logger *slog.Logger) (*SQLiteLedger, error) {
	if cfg.Path == "" {
		return nil, errors.New("ledger path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "uploads.sqlite")

	db, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, storageError(backendSQLite, "open", err)
	}
	db.SetMaxOpenConns(1)

	l := &SQLiteLedger{db: db, now: time.Now, logger: logger}
	if err := l.initialize(cfg.BusyTimeout); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("upload ledger initialized", "path", cfg.Path)
	return l, nil
}

func (l *SQLiteLedger) initialize(busyTimeout time.Duration) error {
	if _, err := l.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return storageError(backendSQLite, "enable_wal", err)
	}
	if _, err := l.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeout.Milliseconds())); err != nil {
		return storageError(backendSQLite, "set_busy_timeout", err)
	}
	if _, err := l.db.Exec(schema); err != nil {
		return storageError(backendSQLite, "create_schema", err)
	}
	return nil
}

// Record stores e.
func (l *SQLiteLedger) Record(ctx context.Context, e *Entry) error {
	prepare(e, l.now)

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO uploads (id, annotation_id, table_name, segment_id, dataset, annotation, user_id, chat_user, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.AnnotationID, e.Table, int64(e.Segment), e.Dataset, e.Annotation, e.UserID, e.ChatUser, e.CreatedAt.UTC(),
	)
	if err != nil {
		return storageError(backendSQLite, "record", err)
	}
	return nil
}

// List returns matching entries, newest first.
func (l *SQLiteLedger) List(ctx context.Context, q Query) ([]Entry, error) {
	where, args := whereClause(q)

	query := `SELECT id, annotation_id, table_name, segment_id, dataset, annotation, user_id, chat_user, created_at FROM uploads`
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY created_at DESC"
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", q.Limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageError(backendSQLite, "list", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e   Entry
			seg int64
		)
		if err := rows.Scan(&e.ID, &e.AnnotationID, &e.Table, &seg, &e.Dataset, &e.Annotation, &e.UserID, &e.ChatUser, &e.CreatedAt); err != nil {
			return nil, storageError(backendSQLite, "scan", err)
		}
		e.Segment = uint64(seg)
		e.CreatedAt = e.CreatedAt.UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError(backendSQLite, "list", err)
	}
	return out, nil
}

func whereClause(q Query) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if q.Table != "" {
		conds = append(conds, "table_name = ?")
		args = append(args, q.Table)
	}
	if q.Segment != 0 {
		conds = append(conds, "segment_id = ?")
		args = append(args, int64(q.Segment))
	}
	if q.UserID != 0 {
		conds = append(conds, "user_id = ?")
		args = append(args, q.UserID)
	}
	if !q.Since.IsZero() {
		conds = append(conds, "created_at >= ?")
		args = append(args, q.Since.UTC())
	}
	if !q.Until.IsZero() {
		conds = append(conds, "created_at < ?")
		args = append(args, q.Until.UTC())
	}
	return strings.Join(conds, " AND "), args
}

// Prune deletes entries created before cutoff.
func (l *SQLiteLedger) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := l.db.ExecContext(ctx, "DELETE FROM uploads WHERE created_at < ?", cutoff.UTC())
	if err != nil {
		return 0, storageError(backendSQLite, "prune", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storageError(backendSQLite, "prune", err)
	}
	return n, nil
}

// Ping checks the database connection.
func (l *SQLiteLedger) Ping(ctx context.Context) error {
	return l.db.PingContext(ctx)
}

// Close closes the database.
func (l *SQLiteLedger) Close() error {
	return l.db.Close()
}
