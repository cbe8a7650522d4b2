package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"chat-backend/metrics"
	"chat-backend/models"
	"chat-backend/store"
)

// SummaryStore is the persistence surface used by SummaryService
type SummaryStore interface {
	ListSummaries(ctx context.Context, owner string) ([]models.SummaryOverview, error)
	FindSummary(ctx context.Context, id models.SummaryID) (*models.Summary, error)
	UpsertSummary(ctx context.Context, in models.NewSummary) (models.Summary, bool, error)
	UpdateSummary(ctx context.Context, id models.SummaryID, patch models.SummaryPatch) (models.Summary, error)
	DeleteSummary(ctx context.Context, id models.SummaryID) error
	FindConversation(ctx context.Context, id models.ConversationID) (*models.Conversation, error)
}

// UpsertSummaryInput carries the decoded fields of a summary upsert
type UpsertSummaryInput struct {
	OwnerID        string
	ConversationID models.OptionalConversationID
	Context        models.OptionalString
	Summary        string
}

// SummaryService implements summary use cases
type SummaryService struct {
	store SummaryStore
	log   zerolog.Logger
}

// NewSummaryService creates a SummaryService
func NewSummaryService(store SummaryStore, log zerolog.Logger) *SummaryService {
	return &SummaryService{
		store: store,
		log:   log.With().Str("component", "summary-service").Logger(),
	}
}

// List returns the owner's summaries, newest first
func (s *SummaryService) List(ctx context.Context, owner string) ([]models.SummaryOverview, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	summaries, err := s.store.ListSummaries(ctx, owner)
	if err != nil {
		return nil, StoreFailure(err)
	}
	return summaries, nil
}

// Upsert creates a summary, or refreshes the caller's existing one for the same conversation.
// The returned bool is true when a new row was created.
func (s *SummaryService) Upsert(ctx context.Context, in UpsertSummaryInput) (models.Summary, bool, error) {
	if err := requireOwner(in.OwnerID); err != nil {
		return models.Summary{}, false, err
	}
	if in.Summary == "" {
		return models.Summary{}, false, Validation(MsgSummaryRequired)
	}
	if in.Context.Invalid {
		return models.Summary{}, false, Validation(MsgInvalidFields)
	}

	record := models.NewSummary{
		FirebaseUID:    in.OwnerID,
		Context:        in.Context.Ptr(),
		ReplaceContext: in.Context.Set,
		Summary:        in.Summary,
	}

	if in.ConversationID.Set {
		convID, err := in.ConversationID.Parse()
		if err != nil {
			return models.Summary{}, false, Validation(MsgConversationIDInvalid)
		}
		conv, err := s.store.FindConversation(ctx, convID)
		if err != nil {
			return models.Summary{}, false, StoreFailure(err)
		}
		if err := Authorize(in.OwnerID, conv, MsgConversationNotFound); err != nil {
			if errors.Is(err, ErrForbidden) {
				return models.Summary{}, false, Forbidden(MsgForbiddenConversation)
			}
			return models.Summary{}, false, err
		}
		record.ConversationID = &convID
	}

	summary, created, err := s.store.UpsertSummary(ctx, record)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Summary{}, false, NotFound(MsgConversationNotFound)
		}
		return models.Summary{}, false, StoreFailure(err)
	}
	metrics.RecordSummaryUpsert(created)
	s.log.Debug().
		Str("summary_id", string(summary.ID)).
		Bool("created", created).
		Msg("summary upserted")
	return summary, created, nil
}

func (s *SummaryService) authorized(ctx context.Context, id models.SummaryID, owner string) (*models.Summary, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	summary, err := s.store.FindSummary(ctx, id)
	if err != nil {
		return nil, StoreFailure(err)
	}
	if err := Authorize(owner, summary, MsgSummaryNotFound); err != nil {
		return nil, err
	}
	return summary, nil
}

// Get returns a summary together with its linked conversation, if any
func (s *SummaryService) Get(ctx context.Context, id models.SummaryID, owner string) (models.SummaryWithConversation, error) {
	summary, err := s.authorized(ctx, id, owner)
	if err != nil {
		return models.SummaryWithConversation{}, err
	}
	out := models.SummaryWithConversation{Summary: *summary}
	if summary.ConversationID != nil {
		conv, err := s.store.FindConversation(ctx, *summary.ConversationID)
		if err != nil {
			return models.SummaryWithConversation{}, StoreFailure(err)
		}
		out.Conversation = conv
	}
	return out, nil
}

// Update patches the summary text and context. Omitted fields keep their value,
// null or non-string values are rejected.
func (s *SummaryService) Update(ctx context.Context, id models.SummaryID, owner string, summary, contextText models.OptionalString) (models.Summary, error) {
	if err := requireOwner(owner); err != nil {
		return models.Summary{}, err
	}
	for _, field := range []models.OptionalString{summary, contextText} {
		if field.Set && (field.Null || field.Invalid) {
			return models.Summary{}, Validation(MsgInvalidFields)
		}
	}
	if _, err := s.authorized(ctx, id, owner); err != nil {
		return models.Summary{}, err
	}

	updated, err := s.store.UpdateSummary(ctx, id, models.SummaryPatch{
		Summary: summary.Ptr(),
		Context: contextText.Ptr(),
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Summary{}, NotFound(MsgSummaryNotFound)
		}
		return models.Summary{}, StoreFailure(err)
	}
	return updated, nil
}

// Delete removes an owned summary
func (s *SummaryService) Delete(ctx context.Context, id models.SummaryID, owner string) error {
	if _, err := s.authorized(ctx, id, owner); err != nil {
		return err
	}
	if err := s.store.DeleteSummary(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return NotFound(MsgSummaryNotFound)
		}
		return StoreFailure(err)
	}
	return nil
}
