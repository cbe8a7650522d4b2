package workflows

import (
	"context"

	"github.com/dbos-inc/dbos-transact-golang/dbos"
	"github.com/rs/zerolog"

	"chat-backend/models"
)

// MessageStore is the persistence surface the chat workflows write through
type MessageStore interface {
	InsertMessage(ctx context.Context, msg models.NewMessage) (models.Message, error)
	TouchConversation(ctx context.Context, id models.ConversationID) error
	DeleteConversation(ctx context.Context, id models.ConversationID) error
}

// ChatWorkflows contains DBOS workflows for chat operations
type ChatWorkflows struct {
	store MessageStore
	log   zerolog.Logger
}

// NewChatWorkflows creates a new ChatWorkflows instance
func NewChatWorkflows(store MessageStore, log zerolog.Logger) *ChatWorkflows {
	return &ChatWorkflows{
		store: store,
		log:   log.With().Str("component", "chat-workflows").Logger(),
	}
}

// Register registers every workflow with DBOS. It must run before dbos.Launch.
func (w *ChatWorkflows) Register(ctx dbos.DBOSContext) {
	dbos.RegisterWorkflow(ctx, w.AppendMessageWorkflow)
	dbos.RegisterWorkflow(ctx, w.DeleteConversationWorkflow)
}

// AppendMessageWorkflow stores a message and then refreshes the conversation's updated_at.
// A failed refresh is logged and does not fail the workflow; the message is kept.
func (w *ChatWorkflows) AppendMessageWorkflow(ctx dbos.DBOSContext, input models.NewMessage) (models.Message, error) {
	// Step 1: Save the message
	msg, err := dbos.RunAsStep(ctx, func(stepCtx context.Context) (models.Message, error) {
		return w.insertMessage(stepCtx, input)
	})
	if err != nil {
		return models.Message{}, err
	}

	// Step 2: Touch the conversation
	if _, err := dbos.RunAsStep(ctx, func(stepCtx context.Context) (bool, error) {
		return w.touch(stepCtx, input.ConversationID)
	}); err != nil {
		w.log.Warn().Err(err).Int64("conversation_id", int64(input.ConversationID)).Msg("touch step not recorded")
	}
	return msg, nil
}

// DeleteConversationWorkflow deletes a conversation durably. Messages go with it
// through the foreign key cascade, so there is a single write to retry.
func (w *ChatWorkflows) DeleteConversationWorkflow(ctx dbos.DBOSContext, conversationID models.ConversationID) (bool, error) {
	return dbos.RunAsStep(ctx, func(stepCtx context.Context) (bool, error) {
		return w.deleteConversation(stepCtx, conversationID)
	})
}

func (w *ChatWorkflows) insertMessage(ctx context.Context, msg models.NewMessage) (models.Message, error) {
	return w.store.InsertMessage(ctx, msg)
}

// touch never fails: the message is already stored, so a stale updated_at is only logged.
func (w *ChatWorkflows) touch(ctx context.Context, id models.ConversationID) (bool, error) {
	if err := w.store.TouchConversation(ctx, id); err != nil {
		w.log.Warn().
			Err(err).
			Int64("conversation_id", int64(id)).
			Msg("message stored but conversation timestamp not refreshed")
		return false, nil
	}
	return true, nil
}

func (w *ChatWorkflows) deleteConversation(ctx context.Context, id models.ConversationID) (bool, error) {
	if err := w.store.DeleteConversation(ctx, id); err != nil {
		return false, err
	}
	return true, nil
}
