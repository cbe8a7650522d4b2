package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"chat-backend/models"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newStoreWithMock(t *testing.T) (*Postgres, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	p := NewPostgres(db).WithClock(func() time.Time { return fixedNow })
	return p, mock, db
}

var (
	conversationColumns = []string{"id", "firebase_uid", "title", "summary", "created_at", "updated_at"}
	messageColumns      = []string{"id", "conversation_id", "content", "is_from_user", "timestamp"}
	summaryColumns      = []string{"id", "firebase_uid", "conversation_id", "context", "summary", "created_at", "updated_at"}
)

func TestCreateConversation_Success(t *testing.T) {
	p, mock, db := newStoreWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^INSERT INTO conversations \(firebase_uid, title, summary, created_at, updated_at\).*RETURNING`).
		WithArgs("u1", "Conversation", fixedNow).
		WillReturnRows(sqlmock.NewRows(conversationColumns).AddRow(int64(7), "u1", "Conversation", "", fixedNow, fixedNow))

	got, err := p.CreateConversation(context.Background(), "u1", "Conversation")
	if err != nil {
		t.Fatalf("CreateConversation error: %v", err)
	}
	if got.ID != 7 || got.FirebaseUID != "u1" || got.Summary != "" {
		t.Fatalf("unexpected conversation: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateConversation_DBError(t *testing.T) {
	p, mock, db := newStoreWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO conversations`).
		WillReturnError(errors.New("db down"))

	_, err := p.CreateConversation(context.Background(), "u1", "t")
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestFindConversation_Found(t *testing.T) {
	p, mock, db := newStoreWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT id, firebase_uid, title, summary, created_at, updated_at FROM conversations WHERE id = \$1$`).
		WithArgs(models.ConversationID(3)).
		WillReturnRows(sqlmock.NewRows(conversationColumns).AddRow(int64(3), "u1", "hello", "sum", fixedNow, fixedNow))

	got, err := p.FindConversation(context.Background(), 3)
	if err != nil {
		t.Fatalf("FindConversation error: %v", err)
	}
	if got == nil || got.Title != "hello" || got.OwnerID() != "u1" {
		t.Fatalf("unexpected conversation: %+v", got)
	}
}

func TestFindConversation_Missing(t *testing.T) {
	p, mock, db := newStoreWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM conversations`).
		WithArgs(models.ConversationID(99)).
		WillReturnError(sql.ErrNoRows)

	got, err := p.FindConversation(context.Background(), 99)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil conversation, got %+v", got)
	}
}

func TestListConversations_OrdersByUpdatedAt(t *testing.T) {
	p, mock, db := newStoreWithMock(t)
	defer db.Close()

	later := fixedNow.Add(time.Hour)
	mock.ExpectQuery(`(?s)FROM conversations WHERE firebase_uid = \$1 ORDER BY updated_at DESC`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "summary", "created_at", "updated_at"}).
			AddRow(int64(2), "b", "", fixedNow, later).
			AddRow(int64(1), "a", "", fixedNow, fixedNow))

	got, err := p.ListConversations(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ListConversations error: %v", err)
	}
	if len(got) != 2 || got[0].ID != 2 || got[1].ID != 1 {
		t.Fatalf("unexpected conversations: %+v", got)
	}
}

func TestListMessages_Empty(t *testing.T) {
	p, mock, db := newStoreWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)FROM messages WHERE conversation_id = \$1 ORDER BY timestamp ASC`).
		WithArgs(models.ConversationID(4)).
		WillReturnRows(sqlmock.NewRows(messageColumns))

	got, err := p.ListMessages(context.Background(), 4)
	if err != nil {
		t.Fatalf("ListMessages error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestInsertMessage_Success(t *testing.T) {
	p, mock, db := newStoreWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^INSERT INTO messages \(conversation_id, content, is_from_user, timestamp\)`).
		WithArgs(models.ConversationID(4), "", true, fixedNow).
		WillReturnRows(sqlmock.NewRows(messageColumns).AddRow(int64(10), int64(4), "", true, fixedNow))

	got, err := p.InsertMessage(context.Background(), models.NewMessage{ConversationID: 4, Content: "", IsFromUser: true})
	if err != nil {
		t.Fatalf("InsertMessage error: %v", err)
	}
	if got.ID != 10 || got.ConversationID != 4 || !got.IsFromUser {
		t.Fatalf("unexpected message: %+v", got)
	}
}

func TestInsertMessage_ForeignKeyViolation(t *testing.T) {
	p, mock, db := newStoreWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO messages`).
		WillReturnError(&pq.Error{Code: "23503"})

	_, err := p.InsertMessage(context.Background(), models.NewMessage{ConversationID: 4, Content: "x"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestTouchConversation(t *testing.T) {
	p, mock, db := newStoreWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^UPDATE conversations SET updated_at = \$2 WHERE id = \$1$`).
		WithArgs(models.ConversationID(4), fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE conversations SET updated_at`).
		WithArgs(models.ConversationID(5), fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := p.TouchConversation(context.Background(), 4); err != nil {
		t.Fatalf("TouchConversation error: %v", err)
	}
	if err := p.TouchConversation(context.Background(), 5); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestUpdateConversationSummary_NotFound(t *testing.T) {
	p, mock, db := newStoreWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^UPDATE conversations SET summary = \$2, updated_at = \$3`).
		WithArgs(models.ConversationID(8), "s", fixedNow).
		WillReturnError(sql.ErrNoRows)

	_, err := p.UpdateConversationSummary(context.Background(), 8, "s")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestDeleteConversation(t *testing.T) {
	p, mock, db := newStoreWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^DELETE FROM conversations WHERE id = \$1$`).
		WithArgs(models.ConversationID(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := p.DeleteConversation(context.Background(), 4); err != nil {
		t.Fatalf("DeleteConversation error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpsertSummary_Inserted(t *testing.T) {
	p, mock, db := newStoreWithMock(t)
	defer db.Close()

	convID := models.ConversationID(5)
	mock.ExpectQuery(`(?s)INSERT INTO summaries .*ON CONFLICT \(conversation_id, firebase_uid\) WHERE conversation_id IS NOT NULL.*\(xmax = 0\) AS inserted`).
		WithArgs(sqlmock.AnyArg(), "u1", convID, nil, "s1", fixedNow, false).
		WillReturnRows(sqlmock.NewRows(append(summaryColumns, "inserted")).
			AddRow("sum-1", "u1", int64(5), nil, "s1", fixedNow, fixedNow, true))

	got, created, err := p.UpsertSummary(context.Background(), models.NewSummary{
		FirebaseUID:    "u1",
		ConversationID: &convID,
		Summary:        "s1",
	})
	if err != nil {
		t.Fatalf("UpsertSummary error: %v", err)
	}
	if !created {
		t.Fatalf("expected a created row")
	}
	if got.ID != "sum-1" || got.Context != nil || got.ConversationID == nil || *got.ConversationID != 5 {
		t.Fatalf("unexpected summary: %+v", got)
	}
}

func TestUpsertSummary_Updated(t *testing.T) {
	p, mock, db := newStoreWithMock(t)
	defer db.Close()

	convID := models.ConversationID(5)
	ctxText := "c2"
	mock.ExpectQuery(`ON CONFLICT`).
		WithArgs(sqlmock.AnyArg(), "u1", convID, "c2", "s2", fixedNow, true).
		WillReturnRows(sqlmock.NewRows(append(summaryColumns, "inserted")).
			AddRow("sum-1", "u1", int64(5), "c2", "s2", fixedNow.Add(-time.Hour), fixedNow, false))

	got, created, err := p.UpsertSummary(context.Background(), models.NewSummary{
		FirebaseUID:    "u1",
		ConversationID: &convID,
		Context:        &ctxText,
		ReplaceContext: true,
		Summary:        "s2",
	})
	if err != nil {
		t.Fatalf("UpsertSummary error: %v", err)
	}
	if created {
		t.Fatalf("expected an updated row")
	}
	if got.ID != "sum-1" || got.Context == nil || *got.Context != "c2" || got.Summary != "s2" {
		t.Fatalf("unexpected summary: %+v", got)
	}
}

func TestUpsertSummary_WithoutConversationAlwaysInserts(t *testing.T) {
	p, mock, db := newStoreWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^INSERT INTO summaries .*RETURNING id, firebase_uid, conversation_id, context, summary, created_at, updated_at$`).
		WithArgs(sqlmock.AnyArg(), "u1", nil, nil, "s", fixedNow).
		WillReturnRows(sqlmock.NewRows(summaryColumns).AddRow("sum-9", "u1", nil, nil, "s", fixedNow, fixedNow))

	got, created, err := p.UpsertSummary(context.Background(), models.NewSummary{FirebaseUID: "u1", Summary: "s"})
	if err != nil {
		t.Fatalf("UpsertSummary error: %v", err)
	}
	if !created || got.ConversationID != nil {
		t.Fatalf("unexpected result: created=%v summary=%+v", created, got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateSummary_PreservesNilFields(t *testing.T) {
	p, mock, db := newStoreWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^UPDATE summaries SET summary = COALESCE\(\$2, summary\), context = COALESCE\(\$3, context\)`).
		WithArgs(models.SummaryID("sum-1"), nil, "new ctx", fixedNow).
		WillReturnRows(sqlmock.NewRows(summaryColumns).AddRow("sum-1", "u1", nil, "new ctx", "old", fixedNow, fixedNow))

	newCtx := "new ctx"
	got, err := p.UpdateSummary(context.Background(), "sum-1", models.SummaryPatch{Context: &newCtx})
	if err != nil {
		t.Fatalf("UpdateSummary error: %v", err)
	}
	if got.Summary != "old" || got.Context == nil || *got.Context != "new ctx" {
		t.Fatalf("unexpected summary: %+v", got)
	}
}

func TestFindSummary_Missing(t *testing.T) {
	p, mock, db := newStoreWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM summaries`).
		WithArgs(models.SummaryID("nope")).
		WillReturnError(sql.ErrNoRows)

	got, err := p.FindSummary(context.Background(), "nope")
	if err != nil || got != nil {
		t.Fatalf("expected nil, nil; got %+v, %v", got, err)
	}
}

func TestDeleteSummary_NotFound(t *testing.T) {
	p, mock, db := newStoreWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^DELETE FROM summaries WHERE id = \$1$`).
		WithArgs(models.SummaryID("nope")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := p.DeleteSummary(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestListSummaries_NullableColumns(t *testing.T) {
	p, mock, db := newStoreWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)FROM summaries WHERE firebase_uid = \$1 ORDER BY created_at DESC`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(summaryColumns).
			AddRow("a", "u1", int64(2), "ctx", "s", fixedNow, fixedNow).
			AddRow("b", "u1", nil, nil, "s", fixedNow, fixedNow))

	got, err := p.ListSummaries(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ListSummaries error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("unexpected length %d", len(got))
	}
	if got[0].ConversationID == nil || *got[0].ConversationID != 2 || got[0].Context == nil {
		t.Fatalf("unexpected first row: %+v", got[0])
	}
	if got[1].ConversationID != nil || got[1].Context != nil {
		t.Fatalf("unexpected second row: %+v", got[1])
	}
}
