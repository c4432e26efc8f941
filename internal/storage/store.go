// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/olympus-tui/internal/backend"
	"github.com/jeranaias/olympus-tui/internal/config"
	"github.com/jeranaias/olympus-tui/internal/files"
	"github.com/jeranaias/olympus-tui/internal/logging"
	"github.com/jeranaias/olympus-tui/internal/model"
)

// =============================================================================
// STORE
// =============================================================================

// Store is the SQLite demo backend.
type Store struct {
	db          *sql.DB
	hub         *Hub
	userID      string
	blobDir     string
	fileBaseURL string
	stream      bool
	streamDelay time.Duration
	policy      *files.Policy
	log         logrus.FieldLogger
	now         func() time.Time

	// Background reply streams; Close waits for them.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Store) { s.log = logging.OrDiscard(l) }
}

// WithPolicy sets the upload policy. Defaults to files.DefaultPolicy.
func WithPolicy(p *files.Policy) Option {
	return func(s *Store) {
		if p != nil {
			s.policy = p
		}
	}
}

// WithFileBaseURL makes uploaded file URLs point at baseURL + "/files/{id}"
// instead of file:// paths. The mock server sets this.
func WithFileBaseURL(baseURL string) Option {
	return func(s *Store) { s.fileBaseURL = baseURL }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open opens (creating if needed) the database at cfg.DBPath, seeding the
// demo conversations when cfg.SeedDemo is set and the database is empty.
// Use ":memory:" for a throwaway store.
func Open(cfg config.LocalConfig, opts ...Option) (*Store, error) {
	if cfg.DBPath == "" {
		return nil, errors.New("storage: db path is required")
	}
	if cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer; a single connection also keeps :memory:
	// databases alive across queries.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	if cfg.DBPath != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL", "PRAGMA synchronous=NORMAL")
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if _, err := db.Exec(InitMetadata); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize metadata: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Store{
		db:          db,
		hub:         NewHub(),
		userID:      cfg.UserID,
		blobDir:     cfg.BlobDir,
		stream:      cfg.Stream,
		streamDelay: cfg.StreamDelay,
		policy:      files.DefaultPolicy(),
		log:         logging.Discard(),
		now:         time.Now,
		ctx:         ctx,
		cancel:      cancel,
	}
	if s.userID == "" {
		s.userID = DemoUserID
	}
	for _, opt := range opts {
		opt(s)
	}

	if cfg.SeedDemo {
		if err := s.seed(context.Background()); err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}
	return s, nil
}

// Hub returns the event hub replies are streamed through.
func (s *Store) Hub() *Hub {
	return s.hub
}

// Streaming reports whether replies are delivered through the hub rather
// than in the send response.
func (s *Store) Streaming() bool {
	return s.stream
}

// Close stops background streams and closes the database.
func (s *Store) Close() error {
	s.cancel()
	s.wg.Wait()
	s.hub.Close()
	return s.db.Close()
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

const conversationColumns = `
    c.id, c.user_id, c.title, c.model_preference, c.created_at, c.updated_at,
    (SELECT COUNT(*) FROM messages m WHERE m.conversation_id = c.id),
    COALESCE((SELECT m.content FROM messages m WHERE m.conversation_id = c.id ORDER BY m.seq DESC LIMIT 1), '')`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (model.Conversation, error) {
	var (
		c           model.Conversation
		created     int64
		updated     int64
		lastContent string
	)
	if err := row.Scan(&c.ID, &c.UserID, &c.Title, &c.ModelPreference, &created, &updated, &c.MessageCount, &lastContent); err != nil {
		return model.Conversation{}, err
	}
	c.CreatedAt = time.UnixMilli(created).UTC()
	c.UpdatedAt = time.UnixMilli(updated).UTC()
	if lastContent != "" {
		var parts []model.ContentPart
		if err := json.Unmarshal([]byte(lastContent), &parts); err == nil {
			c.LastMessagePreview = (&model.Message{Content: parts}).Preview(100)
		}
	}
	return c, nil
}

// ListConversations returns the demo user's conversations, most recently
// active first.
func (s *Store) ListConversations(ctx context.Context) ([]model.Conversation, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+conversationColumns+`
		FROM conversations c WHERE c.user_id = ? ORDER BY c.updated_at DESC, c.id`, s.userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var out []model.Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) getConversation(ctx context.Context, q queryer, id string) (model.Conversation, error) {
	row := q.QueryRowContext(ctx, `SELECT `+conversationColumns+`
		FROM conversations c WHERE c.id = ? AND c.user_id = ?`, id, s.userID)
	c, err := scanConversation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Conversation{}, fmt.Errorf("conversation %s: %w", id, backend.ErrNotFound)
	}
	return c, err
}

// GetConversation returns a conversation with its messages in order.
func (s *Store) GetConversation(ctx context.Context, id string) (model.ConversationWithMessages, error) {
	conv, err := s.getConversation(ctx, s.db, id)
	if err != nil {
		return model.ConversationWithMessages{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, conversation_id, role, content, model_used, prompt_used,
		       tokens_input, tokens_output, cost, latency_ms, created_at
		FROM messages WHERE conversation_id = ? ORDER BY seq`, id)
	if err != nil {
		return model.ConversationWithMessages{}, fmt.Errorf("load messages: %w", err)
	}
	defer rows.Close()

	out := model.ConversationWithMessages{Conversation: conv, Messages: []*model.Message{}}
	for rows.Next() {
		var (
			msg     model.Message
			content string
			created int64
		)
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Role, &content, &msg.ModelUsed, &msg.PromptUsed,
			&msg.TokensInput, &msg.TokensOutput, &msg.Cost, &msg.LatencyMs, &created); err != nil {
			return model.ConversationWithMessages{}, fmt.Errorf("scan message: %w", err)
		}
		if err := json.Unmarshal([]byte(content), &msg.Content); err != nil {
			return model.ConversationWithMessages{}, fmt.Errorf("decode message %s: %w", msg.ID, err)
		}
		msg.CreatedAt = time.UnixMilli(created).UTC()
		out.Messages = append(out.Messages, &msg)
	}
	return out, rows.Err()
}

// CreateConversation creates an empty conversation.
func (s *Store) CreateConversation(ctx context.Context, title string) (model.Conversation, error) {
	id := "conv-" + uuid.NewString()
	now := s.now().UnixMilli()
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO conversations (id, user_id, title, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`, id, s.userID, title, now, now); err != nil {
		return model.Conversation{}, fmt.Errorf("create conversation: %w", err)
	}
	s.log.WithField("conversation_id", id).Debug("conversation created")
	return s.getConversation(ctx, s.db, id)
}

// DeleteConversation deletes a conversation and its messages.
// Returns backend.ErrNotFound when it does not exist.
func (s *Store) DeleteConversation(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = ? AND user_id = ?`, id, s.userID)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("conversation %s: %w", id, backend.ErrNotFound)
	}
	return nil
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertMessage(ctx context.Context, q queryer, msg *model.Message) error {
	content, err := json.Marshal(msg.Content)
	if err != nil {
		return fmt.Errorf("encode content: %w", err)
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, role, content, model_used, prompt_used,
		                      tokens_input, tokens_output, cost, latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.ConversationID, string(msg.Role), string(content), msg.ModelUsed, msg.PromptUsed,
		msg.TokensInput, msg.TokensOutput, msg.Cost, msg.LatencyMs, msg.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}
