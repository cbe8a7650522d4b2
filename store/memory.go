package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"chat-backend/models"
)

// Memory is a thread-safe in-process store with the same contract as Postgres.
// It backs local demos (STORE_DRIVER=memory) and handler tests.
type Memory struct {
	mu            sync.RWMutex
	now           Clock
	nextConvID    models.ConversationID
	nextMessageID models.MessageID
	conversations map[models.ConversationID]models.Conversation
	messages      map[models.ConversationID][]models.Message
	summaries     map[models.SummaryID]models.Summary
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		now:           systemClock,
		conversations: make(map[models.ConversationID]models.Conversation),
		messages:      make(map[models.ConversationID][]models.Message),
		summaries:     make(map[models.SummaryID]models.Summary),
	}
}

// WithClock replaces the clock used to stamp rows
func (m *Memory) WithClock(now Clock) *Memory {
	m.now = now
	return m
}

func (m *Memory) ListConversations(_ context.Context, owner string) ([]models.ConversationOverview, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []models.ConversationOverview{}
	for _, c := range m.conversations {
		if c.FirebaseUID != owner {
			continue
		}
		out = append(out, models.ConversationOverview{
			ID:        c.ID,
			Title:     c.Title,
			Summary:   c.Summary,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (m *Memory) CreateConversation(_ context.Context, owner, title string) (models.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextConvID++
	now := m.now()
	c := models.Conversation{
		ID:          m.nextConvID,
		FirebaseUID: owner,
		Title:       title,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.conversations[c.ID] = c
	return c, nil
}

func (m *Memory) FindConversation(_ context.Context, id models.ConversationID) (*models.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.conversations[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *Memory) ListMessages(_ context.Context, conversationID models.ConversationID) ([]models.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := append([]models.Message{}, m.messages[conversationID]...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID < out[j].ID
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

func (m *Memory) InsertMessage(_ context.Context, msg models.NewMessage) (models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.conversations[msg.ConversationID]; !ok {
		return models.Message{}, ErrNotFound
	}
	m.nextMessageID++
	stored := models.Message{
		ID:             m.nextMessageID,
		ConversationID: msg.ConversationID,
		Content:        msg.Content,
		IsFromUser:     msg.IsFromUser,
		Timestamp:      m.now(),
	}
	m.messages[msg.ConversationID] = append(m.messages[msg.ConversationID], stored)
	return stored, nil
}

func (m *Memory) TouchConversation(_ context.Context, id models.ConversationID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.conversations[id]
	if !ok {
		return ErrNotFound
	}
	c.UpdatedAt = m.now()
	m.conversations[id] = c
	return nil
}

func (m *Memory) UpdateConversationSummary(_ context.Context, id models.ConversationID, summary string) (models.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.conversations[id]
	if !ok {
		return models.Conversation{}, ErrNotFound
	}
	c.Summary = summary
	c.UpdatedAt = m.now()
	m.conversations[id] = c
	return c, nil
}

func (m *Memory) DeleteConversation(_ context.Context, id models.ConversationID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.conversations[id]; !ok {
		return ErrNotFound
	}
	delete(m.conversations, id)
	delete(m.messages, id)
	for sid, s := range m.summaries {
		if s.ConversationID != nil && *s.ConversationID == id {
			s.ConversationID = nil
			m.summaries[sid] = s
		}
	}
	return nil
}

func (m *Memory) ListSummaries(_ context.Context, owner string) ([]models.SummaryOverview, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []models.SummaryOverview{}
	for _, s := range m.summaries {
		if s.FirebaseUID != owner {
			continue
		}
		out = append(out, models.SummaryOverview{
			ID:             s.ID,
			ConversationID: s.ConversationID,
			Context:        s.Context,
			Summary:        s.Summary,
			CreatedAt:      s.CreatedAt,
			UpdatedAt:      s.UpdatedAt,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) FindSummary(_ context.Context, id models.SummaryID) (*models.Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.summaries[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *Memory) InsertSummary(_ context.Context, in models.NewSummary) (models.Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.insertSummaryLocked(in)
}

func (m *Memory) insertSummaryLocked(in models.NewSummary) (models.Summary, error) {
	if in.ConversationID != nil {
		if _, ok := m.conversations[*in.ConversationID]; !ok {
			return models.Summary{}, ErrNotFound
		}
	}
	now := m.now()
	s := models.Summary{
		ID:             models.SummaryID(uuid.NewString()),
		FirebaseUID:    in.FirebaseUID,
		ConversationID: in.ConversationID,
		Context:        in.Context,
		Summary:        in.Summary,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	m.summaries[s.ID] = s
	return s, nil
}

func (m *Memory) UpsertSummary(_ context.Context, in models.NewSummary) (models.Summary, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if in.ConversationID != nil {
		for id, s := range m.summaries {
			if s.FirebaseUID != in.FirebaseUID || s.ConversationID == nil || *s.ConversationID != *in.ConversationID {
				continue
			}
			s.Summary = in.Summary
			if in.ReplaceContext {
				s.Context = in.Context
			}
			s.UpdatedAt = m.now()
			m.summaries[id] = s
			return s, false, nil
		}
	}
	s, err := m.insertSummaryLocked(in)
	if err != nil {
		return models.Summary{}, false, err
	}
	return s, true, nil
}

func (m *Memory) UpdateSummary(_ context.Context, id models.SummaryID, patch models.SummaryPatch) (models.Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.summaries[id]
	if !ok {
		return models.Summary{}, ErrNotFound
	}
	if patch.Summary != nil {
		s.Summary = *patch.Summary
	}
	if patch.Context != nil {
		v := *patch.Context
		s.Context = &v
	}
	s.UpdatedAt = m.now()
	m.summaries[id] = s
	return s, nil
}

func (m *Memory) DeleteSummary(_ context.Context, id models.SummaryID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.summaries[id]; !ok {
		return ErrNotFound
	}
	delete(m.summaries, id)
	return nil
}
