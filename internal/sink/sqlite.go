package sink

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pkg/errors"

	"github.com/you/groupme-archive/internal/core"
)

const schema = `CREATE TABLE IF NOT EXISTS messages (
  id TEXT NOT NULL,
  chat TEXT NOT NULL,
  is_group INTEGER NOT NULL,
  sent_at TEXT NOT NULL,
  author TEXT NOT NULL,
  author_avatar TEXT NOT NULL DEFAULT '',
  text TEXT NOT NULL DEFAULT '',
  PRIMARY KEY (chat, id)
);`

// SQLiteSink keeps a queryable copy of everything an export run
// fetched, so later runs can be checked against the raw history.
type SQLiteSink struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "apply schema")
	}
	if _, err := db.Exec(`PRAGMA journal_mode=wal;`); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "set WAL")
	}
	ApplySQLitePragmas(context.Background(), db)
	return &SQLiteSink{db: db}, nil
}

func (s *SQLiteSink) Close() error { return s.db.Close() }

func (s *SQLiteSink) Write(msg core.Message) error {
	const q = `INSERT INTO messages (id, chat, is_group, sent_at, author, author_avatar, text)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(chat, id) DO NOTHING;`
	sentAt := msg.SentAt.UTC().Format(time.RFC3339Nano)
	isGroup := 0
	if msg.IsGroup {
		isGroup = 1
	}
	_, err := s.db.Exec(q, msg.ID, msg.ChatName, isGroup, sentAt, msg.Author, msg.AuthorAvatar, msg.Text)
	return errors.Wrap(err, "insert message")
}

func (s *SQLiteSink) Ping() error {
	return s.db.Ping()
}

func (s *SQLiteSink) String() string {
	return fmt.Sprintf("SQLiteSink{%p}", s.db)
}

// CountMessages reports how many messages the archive holds, optionally
// restricted to one chat.
func (s *SQLiteSink) CountMessages(ctx context.Context, chat string) (int64, error) {
	var (
		n   int64
		err error
	)
	if chat == "" {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages;`).Scan(&n)
	} else {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages WHERE chat = ?;`, chat).Scan(&n)
	}
	if err != nil {
		return 0, errors.Wrap(err, "count")
	}
	return n, nil
}
