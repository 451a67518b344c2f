package messages

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/techconhub/messaging/internal/common"
	"github.com/techconhub/messaging/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func messageRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "conversation_id", "sender_id", "receiver_id", "content", "message_type",
		"encrypted_media_url", "media_iv", "original_file_name", "media_mime_type",
		"is_encrypted", "is_media_encrypted", "seen", "seen_at", "edited", "edited_at", "created_at",
	})
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+messages`).
		WithArgs("m-1", "c-1", "user-a", "user-b", "b64blob", "text",
			"", "", "", "", true, false).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	m := &models.Message{
		ID: "m-1", ConversationID: "c-1", SenderID: "user-a", ReceiverID: "user-b",
		Content: "b64blob", Type: models.MessageTypeText, IsEncrypted: true,
	}
	if err := repo.Create(context.Background(), m); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if !m.CreatedAt.Equal(now) {
		t.Fatalf("expected created_at to be populated")
	}
}

func TestGetByID_MediaFields(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	seenAt := now.Add(time.Minute)
	rows := messageRows().AddRow(
		"m-2", "c-1", "user-a", "user-b", "caption-blob", "image",
		"https://store/enc/abc", "bm9uY2U=", "cat.png", "image/png",
		true, true, true, seenAt, false, nil, now)

	mock.ExpectQuery(`(?s)^SELECT\s+.*FROM\s+messages\s+WHERE\s+id\s*=\s*\$1`).
		WithArgs("m-2").
		WillReturnRows(rows)

	got, err := repo.GetByID(context.Background(), "m-2")
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if got.Type != models.MessageTypeImage || !got.IsMediaEncrypted || got.MediaIV != "bm9uY2U=" {
		t.Fatalf("unexpected message: %+v", got)
	}
	if got.SeenAt == nil || !got.SeenAt.Equal(seenAt) {
		t.Fatalf("expected seenAt to be set")
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT\s+.*FROM\s+messages`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestListPage_NewestFirst(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	rows := messageRows().
		AddRow("m-3", "c-1", "user-a", "user-b", "x", "text", "", "", "", "", true, false, false, nil, false, nil, now).
		AddRow("m-2", "c-1", "user-b", "user-a", "y", "text", "", "", "", "", true, false, false, nil, false, nil, now.Add(-time.Minute))

	mock.ExpectQuery(`(?s)^SELECT\s+.*FROM\s+messages\s+WHERE\s+conversation_id\s*=\s*\$1\s+ORDER\s+BY\s+created_at\s+DESC\s+LIMIT\s+\$2\s+OFFSET\s+\$3`).
		WithArgs("c-1", 50, 0).
		WillReturnRows(rows)

	got, err := repo.ListPage(context.Background(), "c-1", 50, 0)
	if err != nil {
		t.Fatalf("ListPage error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "m-3" {
		t.Fatalf("unexpected page: %+v", got)
	}
}

func TestMarkSeen_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^UPDATE\s+messages\s+SET\s+seen`).
		WithArgs("missing", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkSeen(context.Background(), "missing", time.Now())
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestMarkConversationSeen_NoRowsIsOK(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	// nothing unseen: not an error
	mock.ExpectExec(`(?s)^UPDATE\s+messages\s+SET\s+seen`).
		WithArgs("c-1", "user-b", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.MarkConversationSeen(context.Background(), "c-1", "user-b", time.Now()); err != nil {
		t.Fatalf("MarkConversationSeen error: %v", err)
	}
}

func TestUpdateContent_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^UPDATE\s+messages\s+SET\s+content`).
		WithArgs("m-1", "new-blob", true, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateContent(context.Background(), "m-1", "new-blob", true, time.Now()); err != nil {
		t.Fatalf("UpdateContent error: %v", err)
	}
}

func TestDelete_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^DELETE\s+FROM\s+messages\s+WHERE\s+id\s*=\s*\$1`).
		WithArgs("m-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Delete(context.Background(), "m-1"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
}
