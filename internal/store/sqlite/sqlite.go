// Package sqlite implements store.Store on a SQLite database using the
// pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/agentstation/utc"
	_ "modernc.org/sqlite"

	"github.com/emetrics/populate/pkg/constants"
	"github.com/emetrics/populate/pkg/entities"
	"github.com/emetrics/populate/pkg/errors"
)

// Store implements store.Store using SQLite.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and migrates its schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
			return nil, errors.WrapIO("create", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, errors.WrapResource("open", "database", path, err)
	}
	// One writer at a time keeps per-entity commits ordered.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, errors.WrapResource("migrate", "database", path, err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS entities (
		name          TEXT PRIMARY KEY,
		status        TEXT NOT NULL DEFAULT 'enabled',
		summary       TEXT,
		date_started  TEXT,
		date_ended    TEXT,
		corp_fam      TEXT,
		category      TEXT,
		stage_current INTEGER NOT NULL DEFAULT 0,
		stage_history TEXT,
		timeline      TEXT,
		updated_at    TEXT
	);

	CREATE TABLE IF NOT EXISTS news (
		id      INTEGER PRIMARY KEY,
		text    TEXT NOT NULL DEFAULT '',
		summary TEXT NOT NULL DEFAULT '',
		date    TEXT NOT NULL DEFAULT ''
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

const entityColumns = `name, status, summary, date_started, date_ended, corp_fam, category,
	stage_current, stage_history, timeline, updated_at`

// Entities returns every entity in insertion order.
func (s *Store) Entities(ctx context.Context) ([]*entities.Entity, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+entityColumns+` FROM entities ORDER BY rowid`)
	if err != nil {
		return nil, errors.WrapResource("list", "entities", "", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*entities.Entity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapResource("list", "entities", "", err)
	}
	return out, nil
}

// Entity returns one entity by name.
func (s *Store) Entity(ctx context.Context, name string) (*entities.Entity, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entityColumns+` FROM entities WHERE name = ?`, name)
	e, err := scanEntity(row)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFoundError("entity", name)
	}
	return e, err
}

// SaveEntity updates the enrichment columns in one statement.
func (s *Store) SaveEntity(ctx context.Context, e *entities.Entity) error {
	e.UpdatedAt = utc.Now()
	res, err := s.db.ExecContext(ctx, `
		UPDATE entities SET summary = ?, date_started = ?, date_ended = ?, corp_fam = ?,
			category = ?, timeline = ?, updated_at = ?
		WHERE name = ?`,
		nullable(e.Summary), nullable(e.DateStarted), nullable(e.DateEnded), nullable(e.CorpFam),
		nullable(e.Category), nullable(e.Timeline), e.UpdatedAt.Format(time.RFC3339Nano), e.Name)
	if err != nil {
		return errors.WrapResource("save", "entity", e.Name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.WrapResource("save", "entity", e.Name, err)
	}
	if n == 0 {
		return errors.NewNotFoundError("entity", e.Name)
	}
	return nil
}

// PutEntity inserts or replaces a whole entity, keeping its row position.
func (s *Store) PutEntity(ctx context.Context, e *entities.Entity) error {
	if err := e.Validate(); err != nil {
		return err
	}
	history, err := json.Marshal(e.StageHistory)
	if err != nil {
		return errors.WrapParse("json", "stage_history", err)
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = utc.Now()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO entities (`+entityColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			status = excluded.status, summary = excluded.summary,
			date_started = excluded.date_started, date_ended = excluded.date_ended,
			corp_fam = excluded.corp_fam, category = excluded.category,
			stage_current = excluded.stage_current, stage_history = excluded.stage_history,
			timeline = excluded.timeline, updated_at = excluded.updated_at`,
		e.Name, string(e.Status), nullable(e.Summary), nullable(e.DateStarted), nullable(e.DateEnded),
		nullable(e.CorpFam), nullable(e.Category), e.StageCurrent, string(history),
		nullable(e.Timeline), e.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return errors.WrapResource("put", "entity", e.Name, err)
	}
	return nil
}

// News returns one news item by id.
func (s *Store) News(ctx context.Context, id int64) (*entities.NewsItem, error) {
	n := &entities.NewsItem{}
	err := s.db.QueryRowContext(ctx, `SELECT id, text, summary, date FROM news WHERE id = ?`, id).
		Scan(&n.ID, &n.Text, &n.Summary, &n.Date)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFoundError("news", strconv.FormatInt(id, 10))
	}
	if err != nil {
		return nil, errors.WrapResource("get", "news", strconv.FormatInt(id, 10), err)
	}
	return n, nil
}

// PutNews inserts or replaces a news item.
func (s *Store) PutNews(ctx context.Context, n *entities.NewsItem) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO news (id, text, summary, date) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET text = excluded.text, summary = excluded.summary, date = excluded.date`,
		n.ID, n.Text, n.Summary, n.Date)
	if err != nil {
		return errors.WrapResource("put", "news", strconv.FormatInt(n.ID, 10), err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntity(row scanner) (*entities.Entity, error) {
	var (
		e                                                         entities.Entity
		status                                                    string
		summary, started, ended, corpFam, category, timeline, upd sql.NullString
		history                                                   sql.NullString
	)
	err := row.Scan(&e.Name, &status, &summary, &started, &ended, &corpFam, &category,
		&e.StageCurrent, &history, &timeline, &upd)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, errors.WrapResource("scan", "entity", e.Name, err)
	}

	e.Status = entities.Status(status)
	e.Summary, e.DateStarted, e.DateEnded = summary.String, started.String, ended.String
	e.CorpFam, e.Category, e.Timeline = corpFam.String, category.String, timeline.String
	if upd.Valid {
		e.UpdatedAt, _ = utc.Parse(time.RFC3339Nano, upd.String)
	}
	if history.Valid && history.String != "" && history.String != "null" {
		if err := json.Unmarshal([]byte(history.String), &e.StageHistory); err != nil {
			e.StageHistory = nil
			e.Defect = errors.NewParseError("json", "stage_history", err.Error(), err)
		}
	}
	return &e, nil
}

// nullable stores blank fields as NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
