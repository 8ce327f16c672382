package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"htem/fanc/pkg/policy/engine"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteConfig configures a SQLiteStore.
type SQLiteConfig struct {
	// Path is the database file. ":memory:" is accepted for tests.
	Path string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// SQLiteStore persists annotations in a SQLite database.
type SQLiteStore struct {
	db        *sql.DB
	closeOnce sync.Once
	now       func() time.Time

	insertStmt  *sql.Stmt
	segmentStmt *sql.Stmt
	getStmt     *sql.Stmt
	termStmt    *sql.Stmt
	pointStmt   *sql.Stmt
	setPtStmt   *sql.Stmt
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS annotations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	table_name TEXT NOT NULL,
	segment_id INTEGER NOT NULL,
	tag TEXT NOT NULL,
	tag2 TEXT NOT NULL DEFAULT '',
	user_id INTEGER NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_annotations_segment ON annotations(table_name, segment_id);
CREATE INDEX IF NOT EXISTS idx_annotations_tag ON annotations(table_name, tag);

CREATE TABLE IF NOT EXISTS segment_points (
	x INTEGER NOT NULL,
	y INTEGER NOT NULL,
	z INTEGER NOT NULL,
	segment_id INTEGER NOT NULL,
	PRIMARY KEY (x, y, z)
);
`

// NewSQLiteStore opens (creating if needed) the database at cfg.Path.
func NewSQLiteStore(cfg SQLiteConfig) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, errors.New("db path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)",
		cfg.Path, cfg.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLiteStore{db: db, now: time.Now}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := s.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) prepareStatements() error {
	stmts := []struct {
		dst   **sql.Stmt
		name  string
		query string
	}{
		{&s.insertStmt, "insert", `
			INSERT INTO annotations (table_name, segment_id, tag, tag2, user_id, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`},
		{&s.segmentStmt, "segment", `
			SELECT id, table_name, segment_id, tag, tag2, user_id, created_at
			FROM annotations
			WHERE table_name = ? AND segment_id = ?
			ORDER BY id`},
		{&s.getStmt, "get", `
			SELECT id, table_name, segment_id, tag, tag2, user_id, created_at
			FROM annotations
			WHERE table_name = ? AND id = ?`},
		{&s.termStmt, "term", `
			SELECT DISTINCT segment_id
			FROM annotations
			WHERE table_name = ? AND (tag = ? OR (tag2 <> '' AND tag2 || ': ' || tag = ?))`},
		{&s.pointStmt, "point", `
			SELECT segment_id FROM segment_points WHERE x = ? AND y = ? AND z = ?`},
		{&s.setPtStmt, "set point", `
			INSERT INTO segment_points (x, y, z, segment_id) VALUES (?, ?, ?, ?)
			ON CONFLICT (x, y, z) DO UPDATE SET segment_id = excluded.segment_id`},
	}

	for _, st := range stmts {
		stmt, err := s.db.Prepare(st.query)
		if err != nil {
			return fmt.Errorf("failed to prepare %s statement: %w", st.name, err)
		}
		*st.dst = stmt
	}
	return nil
}

// Backend returns "sqlite".
func (s *SQLiteStore) Backend() string { return "sqlite" }

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the prepared statements and the database.
func (s *SQLiteStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		for _, stmt := range []*sql.Stmt{s.insertStmt, s.segmentStmt, s.getStmt, s.termStmt, s.pointStmt, s.setPtStmt} {
			if stmt != nil {
				stmt.Close()
			}
		}
		err = s.db.Close()
	})
	return err
}

// FetchAnnotations returns the pairs attached to segment in table.
func (s *SQLiteStore) FetchAnnotations(ctx context.Context, table string, segment uint64) ([]engine.Pair, error) {
	rows, err := s.Annotations(ctx, table, segment)
	if err != nil {
		return nil, err
	}
	return pairs(rows), nil
}

// Annotations returns the rows attached to segment in table.
func (s *SQLiteStore) Annotations(ctx context.Context, table string, segment uint64) ([]Annotation, error) {
	rows, err := s.segmentStmt.QueryContext(ctx, table, int64(segment))
	if err != nil {
		return nil, fmt.Errorf("failed to query annotations: %w", err)
	}
	defer rows.Close()

	var out []Annotation
	for rows.Next() {
		a, err := scanAnnotation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read annotations: %w", err)
	}
	return out, nil
}

// PostAnnotation inserts r.
func (s *SQLiteStore) PostAnnotation(ctx context.Context, r Record) (int64, error) {
	if err := validateRecord(r); err != nil {
		return 0, err
	}

	res, err := s.insertStmt.ExecContext(ctx,
		r.Table, int64(r.Segment), r.Pair.Value, r.Pair.Class, r.UserID, s.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to insert annotation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read annotation ID: %w", err)
	}
	return id, nil
}

// GetAnnotation returns the row with id.
func (s *SQLiteStore) GetAnnotation(ctx context.Context, table string, id int64) (Annotation, error) {
	a, err := scanAnnotation(s.getStmt.QueryRowContext(ctx, table, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Annotation{}, fmt.Errorf("annotation %d in %q: %w", id, table, ErrNotFound)
	}
	return a, err
}

// FindSegments returns segments carrying every term.
func (s *SQLiteStore) FindSegments(ctx context.Context, table string, terms []string) ([]uint64, error) {
	sets := make([]map[uint64]bool, 0, len(terms))
	for _, term := range terms {
		set, err := s.segmentsWith(ctx, table, term)
		if err != nil {
			return nil, err
		}
		sets = append(sets, set)
	}
	return intersect(sets), nil
}

func (s *SQLiteStore) segmentsWith(ctx context.Context, table, term string) (map[uint64]bool, error) {
	rows, err := s.termStmt.QueryContext(ctx, table, term, term)
	if err != nil {
		return nil, fmt.Errorf("failed to search annotations: %w", err)
	}
	defer rows.Close()

	set := make(map[uint64]bool)
	for rows.Next() {
		var seg int64
		if err := rows.Scan(&seg); err != nil {
			return nil, fmt.Errorf("failed to scan segment: %w", err)
		}
		set[uint64(seg)] = true
	}
	return set, rows.Err()
}

// SetPoint registers the segment containing p.
func (s *SQLiteStore) SetPoint(ctx context.Context, p Point, segment uint64) error {
	if _, err := s.setPtStmt.ExecContext(ctx, p[0], p[1], p[2], int64(segment)); err != nil {
		return fmt.Errorf("failed to store point: %w", err)
	}
	return nil
}

// ResolvePoint returns the segment registered for p.
func (s *SQLiteStore) ResolvePoint(ctx context.Context, p Point) (uint64, error) {
	var seg int64
	err := s.pointStmt.QueryRowContext(ctx, p[0], p[1], p[2]).Scan(&seg)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("point %v: %w", p, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to resolve point: %w", err)
	}
	return uint64(seg), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnnotation(row rowScanner) (Annotation, error) {
	var (
		a       Annotation
		seg     int64
		created int64
	)
	if err := row.Scan(&a.ID, &a.Table, &seg, &a.Tag, &a.Tag2, &a.UserID, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Annotation{}, err
		}
		return Annotation{}, fmt.Errorf("failed to scan annotation: %w", err)
	}
	a.Segment = uint64(seg)
	a.Created = time.UnixMilli(created).UTC()
	return a, nil
}
