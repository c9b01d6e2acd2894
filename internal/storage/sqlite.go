package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	logx "github.com/garpil124/menfes/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

var builder = sq.StatementBuilder.PlaceholderFormat(sq.Question)

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	path := cfg.Path
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	st := &sqliteStore{db: db, log: log}

	// Basic pragmas.
	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) CreateSubmission(ctx context.Context, sub Submission) (int64, error) {
	q, args, err := builder.
		Insert("submissions").
		Columns("author_id", "kind", "media_ref", "body", "submitted_at").
		Values(sub.AuthorID, string(sub.Kind), sub.MediaRef, sub.Body, sub.SubmittedAt).
		ToSql()
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *sqliteStore) GetSubmission(ctx context.Context, id int64) (Submission, error) {
	q, args, err := builder.
		Select("id", "author_id", "kind", "media_ref", "body", "submitted_at").
		From("submissions").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return Submission{}, err
	}
	var sub Submission
	var kind string
	err = s.db.QueryRowContext(ctx, q, args...).
		Scan(&sub.ID, &sub.AuthorID, &kind, &sub.MediaRef, &sub.Body, &sub.SubmittedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Submission{}, ErrNotFound
	}
	if err != nil {
		return Submission{}, err
	}
	sub.Kind = Kind(kind)
	return sub, nil
}

func (s *sqliteStore) ListPending(ctx context.Context) ([]Submission, error) {
	q, args, err := builder.
		Select("id", "author_id", "kind", "media_ref", "body", "submitted_at").
		From("submissions").
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Submission
	for rows.Next() {
		var sub Submission
		var kind string
		if err := rows.Scan(&sub.ID, &sub.AuthorID, &kind, &sub.MediaRef, &sub.Body, &sub.SubmittedAt); err != nil {
			return nil, err
		}
		sub.Kind = Kind(kind)
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (s *sqliteStore) AddDestination(ctx context.Context, chatID int64) error {
	q, args, err := builder.
		Insert("destinations").
		Options("OR IGNORE").
		Columns("chat_id").
		Values(chatID).
		ToSql()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, q, args...)
	return err
}

func (s *sqliteStore) RemoveDestination(ctx context.Context, chatID int64) error {
	q, args, err := builder.
		Delete("destinations").
		Where(sq.Eq{"chat_id": chatID}).
		ToSql()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, q, args...)
	return err
}

func (s *sqliteStore) ListDestinations(ctx context.Context) ([]int64, error) {
	q, args, err := builder.
		Select("chat_id").
		From("destinations").
		OrderBy("rowid ASC").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *sqliteStore) RetireAndRecord(ctx context.Context, id int64, day string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	delQ, delArgs, err := builder.Delete("submissions").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, delQ, delArgs...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}

	insQ, insArgs, err := builder.Insert("deliveries").Columns("day").Values(day).ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, insQ, insArgs...); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *sqliteStore) CountDeliveries(ctx context.Context) (int64, error) {
	q, args, err := builder.Select("COUNT(*)").From("deliveries").ToSql()
	if err != nil {
		return 0, err
	}
	var n int64
	if err := s.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *sqliteStore) DeliveriesByDay(ctx context.Context) ([]DayCount, error) {
	q, args, err := builder.
		Select("day", "COUNT(*)").
		From("deliveries").
		GroupBy("day").
		OrderBy("day ASC").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DayCount
	for rows.Next() {
		var dc DayCount
		if err := rows.Scan(&dc.Day, &dc.Count); err != nil {
			return nil, err
		}
		out = append(out, dc)
	}
	return out, rows.Err()
}
