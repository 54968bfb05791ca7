package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"mailpane/internal/codec"
	"mailpane/internal/model"
)

// SQLiteStore implements gmail.EmailStore backed by a local SQLite
// database: a read mirror of decoded messages so the message list renders
// without a network round trip.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at the given path and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS emails (
	id           TEXT PRIMARY KEY,
	thread_id    TEXT NOT NULL,
	subject      TEXT NOT NULL DEFAULT '',
	from_addr    TEXT NOT NULL DEFAULT '',
	to_list      TEXT NOT NULL DEFAULT '',
	cc_list      TEXT NOT NULL DEFAULT '',
	bcc_list     TEXT NOT NULL DEFAULT '',
	date_rfc3339 TEXT NOT NULL DEFAULT '',
	snippet      TEXT NOT NULL DEFAULT '',
	body_plain   TEXT NOT NULL DEFAULT '',
	body_html    TEXT NOT NULL DEFAULT '',
	labels       TEXT NOT NULL DEFAULT '[]',
	attachments  TEXT NOT NULL DEFAULT '[]',
	is_unread    INTEGER NOT NULL DEFAULT 0,
	is_starred   INTEGER NOT NULL DEFAULT 0,
	is_important INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_emails_thread ON emails(thread_id);
CREATE INDEX IF NOT EXISTS idx_emails_date ON emails(date_rfc3339);

CREATE TABLE IF NOT EXISTS metadata (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL DEFAULT ''
);
`
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertEmails(ctx context.Context, emails []model.Email) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO emails (id, thread_id, subject, from_addr, to_list, cc_list, bcc_list,
			date_rfc3339, snippet, body_plain, body_html, labels, attachments,
			is_unread, is_starred, is_important)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			thread_id    = excluded.thread_id,
			subject      = excluded.subject,
			from_addr    = excluded.from_addr,
			to_list      = excluded.to_list,
			cc_list      = excluded.cc_list,
			bcc_list     = excluded.bcc_list,
			date_rfc3339 = excluded.date_rfc3339,
			snippet      = excluded.snippet,
			body_plain   = excluded.body_plain,
			body_html    = excluded.body_html,
			labels       = excluded.labels,
			attachments  = excluded.attachments,
			is_unread    = excluded.is_unread,
			is_starred   = excluded.is_starred,
			is_important = excluded.is_important
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range emails {
		labels, err := json.Marshal(e.Labels)
		if err != nil {
			return fmt.Errorf("marshal labels for %s: %w", e.ID, err)
		}
		atts, err := json.Marshal(e.Attachments)
		if err != nil {
			return fmt.Errorf("marshal attachments for %s: %w", e.ID, err)
		}
		_, err = stmt.ExecContext(ctx,
			e.ID, e.ThreadID, e.Subject, e.From.String(),
			joinAddresses(e.To), joinAddresses(e.Cc), joinAddresses(e.Bcc),
			e.Date.UTC().Format(time.RFC3339), e.Snippet,
			e.Body.Plain, e.Body.HTML, string(labels), string(atts),
			boolInt(e.Flags.Unread), boolInt(e.Flags.Starred), boolInt(e.Flags.Important),
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) DeleteEmails(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "DELETE FROM emails WHERE id = ?")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}

const emailColumns = `id, thread_id, subject, from_addr, to_list, cc_list, bcc_list,
	date_rfc3339, snippet, body_plain, body_html, labels, attachments,
	is_unread, is_starred, is_important`

// ListEmails returns cached emails newest first. limit <= 0 means all.
func (s *SQLiteStore) ListEmails(ctx context.Context, limit int) ([]model.Email, error) {
	query := "SELECT " + emailColumns + " FROM emails ORDER BY date_rfc3339 DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var emails []model.Email
	for rows.Next() {
		e, err := scanEmail(rows)
		if err != nil {
			return nil, err
		}
		emails = append(emails, e)
	}
	return emails, rows.Err()
}

func (s *SQLiteStore) GetEmail(ctx context.Context, id string) (model.Email, bool, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+emailColumns+" FROM emails WHERE id = ?", id)
	e, err := scanEmail(row)
	if err == sql.ErrNoRows {
		return model.Email{}, false, nil
	}
	if err != nil {
		return model.Email{}, false, err
	}
	return e, true, nil
}

func (s *SQLiteStore) CountEmails(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM emails").Scan(&count)
	return count, err
}

func (s *SQLiteStore) GetLastSyncAt(ctx context.Context) (time.Time, error) {
	var val string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = 'last_sync_at'").Scan(&val)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, val)
}

func (s *SQLiteStore) SetLastSyncAt(ctx context.Context, t time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES ('last_sync_at', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, t.UTC().Format(time.RFC3339))
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmail(row rowScanner) (model.Email, error) {
	var e model.Email
	var from, toList, ccList, bccList, date, labels, atts string
	var unread, starred, important int
	err := row.Scan(&e.ID, &e.ThreadID, &e.Subject, &from, &toList, &ccList, &bccList,
		&date, &e.Snippet, &e.Body.Plain, &e.Body.HTML, &labels, &atts,
		&unread, &starred, &important)
	if err != nil {
		return model.Email{}, err
	}

	e.From = codec.ParseAddress(from)
	e.To = codec.ParseAddressList(toList)
	e.Cc = codec.ParseAddressList(ccList)
	e.Bcc = codec.ParseAddressList(bccList)
	if t, err := time.Parse(time.RFC3339, date); err == nil {
		e.Date = t
	}
	if err := json.Unmarshal([]byte(labels), &e.Labels); err != nil {
		return model.Email{}, fmt.Errorf("unmarshal labels for %s: %w", e.ID, err)
	}
	if err := json.Unmarshal([]byte(atts), &e.Attachments); err != nil {
		return model.Email{}, fmt.Errorf("unmarshal attachments for %s: %w", e.ID, err)
	}
	e.Flags = model.Flags{Unread: unread != 0, Starred: starred != 0, Important: important != 0}
	return e, nil
}

func joinAddresses(addrs []model.Address) string {
	if len(addrs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(addrs))
	for _, a := range addrs {
		parts = append(parts, a.String())
	}
	return strings.Join(parts, ", ")
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
