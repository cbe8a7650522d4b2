package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"chat-backend/models"
)

// foreign_key_violation
const pqForeignKeyViolation pq.ErrorCode = "23503"

// Postgres stores records in PostgreSQL through database/sql and lib/pq
type Postgres struct {
	db  DBTX
	now Clock
}

// NewPostgres creates a store backed by the provided handle
func NewPostgres(db DBTX) *Postgres {
	return &Postgres{db: db, now: systemClock}
}

// WithClock replaces the clock used to stamp rows
func (p *Postgres) WithClock(now Clock) *Postgres {
	p.now = now
	return p
}

func dbError(err error) error {
	return fmt.Errorf("db error: %w", err)
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (models.Conversation, error) {
	var c models.Conversation
	err := row.Scan(&c.ID, &c.FirebaseUID, &c.Title, &c.Summary, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func scanMessage(row rowScanner) (models.Message, error) {
	var m models.Message
	err := row.Scan(&m.ID, &m.ConversationID, &m.Content, &m.IsFromUser, &m.Timestamp)
	return m, err
}

func scanSummary(row rowScanner, extra ...any) (models.Summary, error) {
	var (
		s      models.Summary
		convID sql.NullInt64
		ctxt   sql.NullString
	)
	dest := append([]any{&s.ID, &s.FirebaseUID, &convID, &ctxt, &s.Summary, &s.CreatedAt, &s.UpdatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return models.Summary{}, err
	}
	s.ConversationID = conversationIDFromNull(convID)
	s.Context = stringFromNull(ctxt)
	return s, nil
}

func conversationIDFromNull(v sql.NullInt64) *models.ConversationID {
	if !v.Valid {
		return nil
	}
	id := models.ConversationID(v.Int64)
	return &id
}

func stringFromNull(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullConversationID(id *models.ConversationID) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*id), Valid: true}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// ListConversations returns the owner's conversations, most recently updated first
func (p *Postgres) ListConversations(ctx context.Context, owner string) ([]models.ConversationOverview, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, title, summary, created_at, updated_at FROM conversations
		 WHERE firebase_uid = $1
		 ORDER BY updated_at DESC`, owner)
	if err != nil {
		return nil, dbError(err)
	}
	defer rows.Close()

	conversations := []models.ConversationOverview{}
	for rows.Next() {
		var c models.ConversationOverview
		if err := rows.Scan(&c.ID, &c.Title, &c.Summary, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, dbError(err)
		}
		conversations = append(conversations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err)
	}
	return conversations, nil
}

// CreateConversation inserts a conversation with an empty summary
func (p *Postgres) CreateConversation(ctx context.Context, owner, title string) (models.Conversation, error) {
	now := p.now()
	row := p.db.QueryRowContext(ctx,
		`INSERT INTO conversations (firebase_uid, title, summary, created_at, updated_at)
		 VALUES ($1, $2, '', $3, $3)
		 RETURNING id, firebase_uid, title, summary, created_at, updated_at`,
		owner, title, now)
	c, err := scanConversation(row)
	if err != nil {
		return models.Conversation{}, dbError(err)
	}
	return c, nil
}

// FindConversation returns the conversation or nil when it does not exist
func (p *Postgres) FindConversation(ctx context.Context, id models.ConversationID) (*models.Conversation, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT id, firebase_uid, title, summary, created_at, updated_at FROM conversations
		 WHERE id = $1`, id)
	c, err := scanConversation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, dbError(err)
	}
	return &c, nil
}

// ListMessages returns the messages of a conversation in chronological order
func (p *Postgres) ListMessages(ctx context.Context, conversationID models.ConversationID) ([]models.Message, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, conversation_id, content, is_from_user, timestamp FROM messages
		 WHERE conversation_id = $1
		 ORDER BY timestamp ASC, id ASC`, conversationID)
	if err != nil {
		return nil, dbError(err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, dbError(err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err)
	}
	return messages, nil
}

// InsertMessage appends a message; ErrNotFound if the conversation is gone
func (p *Postgres) InsertMessage(ctx context.Context, msg models.NewMessage) (models.Message, error) {
	row := p.db.QueryRowContext(ctx,
		`INSERT INTO messages (conversation_id, content, is_from_user, timestamp)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, conversation_id, content, is_from_user, timestamp`,
		msg.ConversationID, msg.Content, msg.IsFromUser, p.now())
	m, err := scanMessage(row)
	if err != nil {
		if isForeignKeyViolation(err) {
			return models.Message{}, ErrNotFound
		}
		return models.Message{}, dbError(err)
	}
	return m, nil
}

// TouchConversation sets the conversation's updated_at to now
func (p *Postgres) TouchConversation(ctx context.Context, id models.ConversationID) error {
	res, err := p.db.ExecContext(ctx,
		`UPDATE conversations SET updated_at = $2 WHERE id = $1`, id, p.now())
	if err != nil {
		return dbError(err)
	}
	return requireAffected(res)
}

// UpdateConversationSummary rewrites the summary field and bumps updated_at
func (p *Postgres) UpdateConversationSummary(ctx context.Context, id models.ConversationID, summary string) (models.Conversation, error) {
	row := p.db.QueryRowContext(ctx,
		`UPDATE conversations SET summary = $2, updated_at = $3
		 WHERE id = $1
		 RETURNING id, firebase_uid, title, summary, created_at, updated_at`,
		id, summary, p.now())
	c, err := scanConversation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Conversation{}, ErrNotFound
		}
		return models.Conversation{}, dbError(err)
	}
	return c, nil
}

// DeleteConversation removes a conversation; its messages cascade
func (p *Postgres) DeleteConversation(ctx context.Context, id models.ConversationID) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = $1`, id)
	if err != nil {
		return dbError(err)
	}
	return requireAffected(res)
}

// ListSummaries returns the owner's summaries, newest first
func (p *Postgres) ListSummaries(ctx context.Context, owner string) ([]models.SummaryOverview, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, firebase_uid, conversation_id, context, summary, created_at, updated_at FROM summaries
		 WHERE firebase_uid = $1
		 ORDER BY created_at DESC`, owner)
	if err != nil {
		return nil, dbError(err)
	}
	defer rows.Close()

	summaries := []models.SummaryOverview{}
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, dbError(err)
		}
		summaries = append(summaries, models.SummaryOverview{
			ID:             s.ID,
			ConversationID: s.ConversationID,
			Context:        s.Context,
			Summary:        s.Summary,
			CreatedAt:      s.CreatedAt,
			UpdatedAt:      s.UpdatedAt,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, dbError(err)
	}
	return summaries, nil
}

// FindSummary returns the summary or nil when it does not exist
func (p *Postgres) FindSummary(ctx context.Context, id models.SummaryID) (*models.Summary, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT id, firebase_uid, conversation_id, context, summary, created_at, updated_at FROM summaries
		 WHERE id = $1`, id)
	s, err := scanSummary(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, dbError(err)
	}
	return &s, nil
}

// InsertSummary always creates a new summary row
func (p *Postgres) InsertSummary(ctx context.Context, in models.NewSummary) (models.Summary, error) {
	row := p.db.QueryRowContext(ctx,
		`INSERT INTO summaries (id, firebase_uid, conversation_id, context, summary, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $6)
		 RETURNING id, firebase_uid, conversation_id, context, summary, created_at, updated_at`,
		uuid.NewString(), in.FirebaseUID, nullConversationID(in.ConversationID), nullString(in.Context), in.Summary, p.now())
	s, err := scanSummary(row)
	if err != nil {
		if isForeignKeyViolation(err) {
			return models.Summary{}, ErrNotFound
		}
		return models.Summary{}, dbError(err)
	}
	return s, nil
}

// UpsertSummary inserts the summary or, when a row already exists for the same
// (conversation_id, firebase_uid), replaces its body and, if requested, its context.
// The boolean result reports whether a new row was inserted.
func (p *Postgres) UpsertSummary(ctx context.Context, in models.NewSummary) (models.Summary, bool, error) {
	if in.ConversationID == nil {
		s, err := p.InsertSummary(ctx, in)
		return s, err == nil, err
	}

	var inserted bool
	row := p.db.QueryRowContext(ctx,
		`INSERT INTO summaries (id, firebase_uid, conversation_id, context, summary, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $6)
		 ON CONFLICT (conversation_id, firebase_uid) WHERE conversation_id IS NOT NULL
		 DO UPDATE SET
		     summary = EXCLUDED.summary,
		     context = CASE WHEN $7 THEN EXCLUDED.context ELSE summaries.context END,
		     updated_at = EXCLUDED.updated_at
		 RETURNING id, firebase_uid, conversation_id, context, summary, created_at, updated_at, (xmax = 0) AS inserted`,
		uuid.NewString(), in.FirebaseUID, nullConversationID(in.ConversationID), nullString(in.Context), in.Summary, p.now(), in.ReplaceContext)
	s, err := scanSummary(row, &inserted)
	if err != nil {
		if isForeignKeyViolation(err) {
			return models.Summary{}, false, ErrNotFound
		}
		return models.Summary{}, false, dbError(err)
	}
	return s, inserted, nil
}

// UpdateSummary applies a partial update; nil patch fields keep their stored value
func (p *Postgres) UpdateSummary(ctx context.Context, id models.SummaryID, patch models.SummaryPatch) (models.Summary, error) {
	row := p.db.QueryRowContext(ctx,
		`UPDATE summaries SET
		     summary = COALESCE($2, summary),
		     context = COALESCE($3, context),
		     updated_at = $4
		 WHERE id = $1
		 RETURNING id, firebase_uid, conversation_id, context, summary, created_at, updated_at`,
		id, nullString(patch.Summary), nullString(patch.Context), p.now())
	s, err := scanSummary(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Summary{}, ErrNotFound
		}
		return models.Summary{}, dbError(err)
	}
	return s, nil
}

// DeleteSummary removes a summary
func (p *Postgres) DeleteSummary(ctx context.Context, id models.SummaryID) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM summaries WHERE id = $1`, id)
	if err != nil {
		return dbError(err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return dbError(err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
