// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists chat conversations in a SQLite database so that
// sessions can be listed, searched, resumed, and exported.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/research-assistant/pkg/types"
)

// ErrNotFound means no conversation has the requested id.
var ErrNotFound = errors.New("conversation not found")

const (
	defaultLimit = 50

	// timeLayout has a fixed width so stored timestamps sort as text.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// Store manages the conversation database.
type Store struct {
	db *sql.DB
}

// Summary is one row of a conversation listing.
type Summary struct {
	ID       string             `json:"id" yaml:"id"`
	Title    string             `json:"title" yaml:"title"`
	Provider types.ProviderID   `json:"provider" yaml:"provider"`
	Mode     types.ResearchMode `json:"mode" yaml:"mode"`
	Turns    int                `json:"turns" yaml:"turns"`
	Updated  time.Time          `json:"updated" yaml:"updated"`
}

// QueryOptions filters List and Search. Zero values match everything.
type QueryOptions struct {
	// Text matches conversations with a turn containing it, case-insensitively.
	Text     string
	Provider types.ProviderID
	Mode     types.ResearchMode
	Limit    int
}

// NewStore opens or creates the database at path and creates the schema if
// it does not exist.
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS conversations (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			provider TEXT NOT NULL,
			mode TEXT NOT NULL,
			video_url TEXT,
			video_id TEXT,
			created TEXT NOT NULL,
			updated TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS turns (
			conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			PRIMARY KEY (conversation_id, seq)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_updated ON conversations(updated)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// SaveConversation inserts or replaces c and all of its turns.
func (s *Store) SaveConversation(ctx context.Context, c types.Conversation) error {
	if c.ID == "" {
		return errors.New("conversation has no id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var videoURL, videoID sql.NullString
	if c.Video != nil {
		videoURL = sql.NullString{String: c.Video.URL, Valid: true}
		videoID = sql.NullString{String: c.Video.VideoID, Valid: true}
	}
	title := c.Title
	if title == "" {
		title = c.FirstQuery()
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO conversations (id, title, provider, mode, video_url, video_id, created, updated)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, provider=excluded.provider, mode=excluded.mode,
			video_url=excluded.video_url, video_id=excluded.video_id, updated=excluded.updated`,
		c.ID, title, string(c.Provider), string(c.Mode), videoURL, videoID,
		formatTime(c.Created), formatTime(c.Updated),
	)
	if err != nil {
		return fmt.Errorf("upserting conversation: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM turns WHERE conversation_id = ?`, c.ID); err != nil {
		return fmt.Errorf("deleting old turns: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO turns (conversation_id, seq, role, content) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, t := range c.Turns {
		if _, err := stmt.ExecContext(ctx, c.ID, i, string(t.Role), t.Content); err != nil {
			return fmt.Errorf("inserting turn %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// LoadConversation returns the conversation with id, or ErrNotFound.
func (s *Store) LoadConversation(ctx context.Context, id string) (types.Conversation, error) {
	var (
		c                 types.Conversation
		provider, mode    string
		videoURL, videoID sql.NullString
		created, updated  string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, provider, mode, video_url, video_id, created, updated
		 FROM conversations WHERE id = ?`, id,
	).Scan(&c.ID, &c.Title, &provider, &mode, &videoURL, &videoID, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Conversation{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return types.Conversation{}, fmt.Errorf("loading conversation %s: %w", id, err)
	}

	c.Provider = types.ProviderID(provider)
	c.Mode = types.ResearchMode(mode)
	c.Created = parseTime(created)
	c.Updated = parseTime(updated)
	if videoURL.Valid {
		c.Video = &types.VideoContext{URL: videoURL.String, VideoID: videoID.String}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content FROM turns WHERE conversation_id = ? ORDER BY seq`, id)
	if err != nil {
		return types.Conversation{}, fmt.Errorf("loading turns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return types.Conversation{}, fmt.Errorf("scanning turn: %w", err)
		}
		c.Turns = append(c.Turns, types.ChatTurn{Role: types.Role(role), Content: content})
	}
	return c, rows.Err()
}

// List returns conversations matching opts, most recently updated first.
func (s *Store) List(ctx context.Context, opts QueryOptions) ([]Summary, error) {
	var (
		qb   strings.Builder
		args []any
	)

	qb.WriteString(
		`SELECT c.id, c.title, c.provider, c.mode, c.updated,
			(SELECT count(*) FROM turns t WHERE t.conversation_id = c.id) AS turns
		FROM conversations c
		WHERE 1=1`)

	if opts.Text != "" {
		qb.WriteString(` AND EXISTS (SELECT 1 FROM turns t
			WHERE t.conversation_id = c.id AND t.content LIKE ? ESCAPE '\')`)
		args = append(args, "%"+escapeLike(opts.Text)+"%")
	}
	if opts.Provider != "" {
		qb.WriteString(` AND c.provider = ?`)
		args = append(args, string(opts.Provider))
	}
	if opts.Mode != "" {
		qb.WriteString(` AND c.mode = ?`)
		args = append(args, string(opts.Mode))
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	qb.WriteString(` ORDER BY c.updated DESC, c.id LIMIT ?`)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying conversations: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum            Summary
			provider, mode string
			updated        string
		)
		if err := rows.Scan(&sum.ID, &sum.Title, &provider, &mode, &updated, &sum.Turns); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		sum.Provider = types.ProviderID(provider)
		sum.Mode = types.ResearchMode(mode)
		sum.Updated = parseTime(updated)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Search returns conversations with a turn containing text.
func (s *Store) Search(ctx context.Context, text string, limit int) ([]Summary, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("search text is empty")
	}
	return s.List(ctx, QueryOptions{Text: text, Limit: limit})
}

// Delete removes the conversation with id and its turns.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting conversation %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// escapeLike escapes the LIKE wildcards in s.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
