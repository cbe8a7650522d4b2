package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"chat-backend/metrics"
	"chat-backend/models"
	"chat-backend/store"
)

// ConversationStore is the persistence surface used by ConversationService
type ConversationStore interface {
	ListConversations(ctx context.Context, owner string) ([]models.ConversationOverview, error)
	CreateConversation(ctx context.Context, owner, title string) (models.Conversation, error)
	FindConversation(ctx context.Context, id models.ConversationID) (*models.Conversation, error)
	ListMessages(ctx context.Context, conversationID models.ConversationID) ([]models.Message, error)
	UpdateConversationSummary(ctx context.Context, id models.ConversationID, summary string) (models.Conversation, error)
}

// ConversationWorkflows runs the multi-write conversation operations
type ConversationWorkflows interface {
	AppendMessage(ctx context.Context, msg models.NewMessage) (models.Message, error)
	DeleteConversation(ctx context.Context, id models.ConversationID) error
}

// ConversationService implements conversation and message use cases
type ConversationService struct {
	store     ConversationStore
	workflows ConversationWorkflows
	log       zerolog.Logger
}

// NewConversationService wires the service with its store and workflow runner
func NewConversationService(store ConversationStore, workflows ConversationWorkflows, log zerolog.Logger) *ConversationService {
	return &ConversationService{
		store:     store,
		workflows: workflows,
		log:       log.With().Str("component", "conversation-service").Logger(),
	}
}

// List returns the owner's conversations without their messages
func (s *ConversationService) List(ctx context.Context, owner string) ([]models.ConversationOverview, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	conversations, err := s.store.ListConversations(ctx, owner)
	if err != nil {
		return nil, StoreFailure(err)
	}
	return conversations, nil
}

// Create starts a new conversation; a nil title falls back to the default one
func (s *ConversationService) Create(ctx context.Context, owner string, title *string) (models.Conversation, error) {
	if err := requireOwner(owner); err != nil {
		return models.Conversation{}, err
	}
	t := models.DefaultConversationTitle
	if title != nil {
		t = *title
	}
	conv, err := s.store.CreateConversation(ctx, owner, t)
	if err != nil {
		return models.Conversation{}, StoreFailure(err)
	}
	metrics.ConversationsCreatedTotal.Inc()
	s.log.Debug().Int64("conversation_id", int64(conv.ID)).Msg("conversation created")
	return conv, nil
}

// authorized loads a conversation and applies the ownership guard
func (s *ConversationService) authorized(ctx context.Context, id models.ConversationID, owner string) (*models.Conversation, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	conv, err := s.store.FindConversation(ctx, id)
	if err != nil {
		return nil, StoreFailure(err)
	}
	if err := Authorize(owner, conv, MsgConversationNotFound); err != nil {
		return nil, err
	}
	return conv, nil
}

// Get returns a conversation with its messages in chronological order
func (s *ConversationService) Get(ctx context.Context, id models.ConversationID, owner string) (models.ConversationWithMessages, error) {
	conv, err := s.authorized(ctx, id, owner)
	if err != nil {
		return models.ConversationWithMessages{}, err
	}
	messages, err := s.store.ListMessages(ctx, id)
	if err != nil {
		return models.ConversationWithMessages{}, StoreFailure(err)
	}
	return models.ConversationWithMessages{Conversation: *conv, Messages: messages}, nil
}

// AppendMessage adds a message to an owned conversation and refreshes its updated timestamp.
// An empty content is accepted; a missing one is not.
func (s *ConversationService) AppendMessage(ctx context.Context, id models.ConversationID, owner string, content *string, isFromUser bool) (models.Message, error) {
	if err := requireOwner(owner); err != nil {
		return models.Message{}, err
	}
	if content == nil {
		return models.Message{}, Validation(MsgContentRequired)
	}
	if _, err := s.authorized(ctx, id, owner); err != nil {
		return models.Message{}, err
	}

	msg, err := s.workflows.AppendMessage(ctx, models.NewMessage{
		ConversationID: id,
		Content:        *content,
		IsFromUser:     isFromUser,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Message{}, NotFound(MsgConversationNotFound)
		}
		return models.Message{}, StoreFailure(err)
	}
	metrics.RecordMessageAppended(isFromUser)
	return msg, nil
}

// UpdateSummary rewrites the summary text stored on the conversation itself
func (s *ConversationService) UpdateSummary(ctx context.Context, id models.ConversationID, owner string, summary *string) (models.Conversation, error) {
	if err := requireOwner(owner); err != nil {
		return models.Conversation{}, err
	}
	if summary == nil {
		return models.Conversation{}, Validation(MsgSummaryRequired)
	}
	if _, err := s.authorized(ctx, id, owner); err != nil {
		return models.Conversation{}, err
	}

	updated, err := s.store.UpdateConversationSummary(ctx, id, *summary)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Conversation{}, NotFound(MsgConversationNotFound)
		}
		return models.Conversation{}, StoreFailure(err)
	}
	return updated, nil
}

// Delete removes an owned conversation together with its messages
func (s *ConversationService) Delete(ctx context.Context, id models.ConversationID, owner string) error {
	if _, err := s.authorized(ctx, id, owner); err != nil {
		return err
	}
	if err := s.workflows.DeleteConversation(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NotFound(MsgConversationNotFound)
		}
		return StoreFailure(err)
	}
	s.log.Debug().Int64("conversation_id", int64(id)).Msg("conversation deleted")
	return nil
}
