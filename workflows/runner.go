package workflows

import (
	"context"

	"github.com/dbos-inc/dbos-transact-golang/dbos"

	"chat-backend/models"
)

// DurableRunner runs the chat workflows through DBOS so an interrupted
// append or delete resumes from its last completed step.
type DurableRunner struct {
	dbosCtx   dbos.DBOSContext
	workflows *ChatWorkflows
}

// NewDurableRunner expects wf to be registered on dbosCtx already
func NewDurableRunner(dbosCtx dbos.DBOSContext, wf *ChatWorkflows) *DurableRunner {
	return &DurableRunner{dbosCtx: dbosCtx, workflows: wf}
}

func (r *DurableRunner) AppendMessage(_ context.Context, msg models.NewMessage) (models.Message, error) {
	handle, err := dbos.RunWorkflow(r.dbosCtx, r.workflows.AppendMessageWorkflow, msg)
	if err != nil {
		return models.Message{}, err
	}
	return handle.GetResult()
}

func (r *DurableRunner) DeleteConversation(_ context.Context, id models.ConversationID) error {
	handle, err := dbos.RunWorkflow(r.dbosCtx, r.workflows.DeleteConversationWorkflow, id)
	if err != nil {
		return err
	}
	_, err = handle.GetResult()
	return err
}

// DirectRunner runs the same steps as the workflows in-process without durability.
// It is used when DBOS is disabled and with the in-memory store.
type DirectRunner struct {
	workflows *ChatWorkflows
}

func NewDirectRunner(wf *ChatWorkflows) *DirectRunner {
	return &DirectRunner{workflows: wf}
}

func (r *DirectRunner) AppendMessage(ctx context.Context, msg models.NewMessage) (models.Message, error) {
	stored, err := r.workflows.insertMessage(ctx, msg)
	if err != nil {
		return models.Message{}, err
	}
	_, _ = r.workflows.touch(ctx, msg.ConversationID)
	return stored, nil
}

func (r *DirectRunner) DeleteConversation(ctx context.Context, id models.ConversationID) error {
	_, err := r.workflows.deleteConversation(ctx, id)
	return err
}
