package api

import (
	"bytes"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"

	"github.com/lettermail/go-lettermail-server/repository"
	"github.com/lettermail/go-lettermail-server/services"
)

func newDeleteApiRouter(t *testing.T, userID int64) (*gin.Engine, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}

	deleteService := services.NewDeleteService(repository.NewEmailRepository(db), nil, nil)
	deleteApi := NewMailDeleteApi(deleteService)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	authed := router.Group("/", func(c *gin.Context) {
		c.Set("userID", userID)
		c.Next()
	})
	authed.DELETE("/api/v1/emails/:id", deleteApi.DeleteEmail)
	authed.DELETE("/api/v1/emails", deleteApi.BulkDelete)

	return router, mock, db
}

func lockedRow(id, senderID, recipientID int64, bySender, byRecipient bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "sender_id", "recipient_id", "subject", "body",
		"attachment_path", "attachment_name", "sent_at",
		"is_deleted_by_sender", "is_deleted_by_recipient",
	}).AddRow(id, senderID, recipientID, "s", "b", "", "", time.Now().UTC(), bySender, byRecipient)
}

func TestDeleteEmail_NotFoundForNonParticipant(t *testing.T) {
	router, mock, db := newDeleteApiRouter(t, 99)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`(?s)FOR\s+UPDATE`).
		WithArgs(int64(7), int64(99)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/emails/7", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("want 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestDeleteEmail_InvalidID(t *testing.T) {
	router, _, db := newDeleteApiRouter(t, 1)
	defer db.Close()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/emails/abc", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", w.Code)
	}
}

func TestBulkDelete_EmailIdsShape(t *testing.T) {
	router, mock, db := newDeleteApiRouter(t, 1)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`(?s)FOR\s+UPDATE`).
		WithArgs(int64(3), int64(1)).
		WillReturnRows(lockedRow(3, 1, 2, false, false))
	mock.ExpectQuery(`(?s)UPDATE\s+emails\s+SET\s+is_deleted_by_sender`).
		WithArgs(int64(3)).
		WillReturnRows(lockedRow(3, 1, 2, true, false))
	mock.ExpectCommit()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/emails", bytes.NewBufferString(`{"emailIds":[3]}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestBulkDelete_IdsWithLocationShape(t *testing.T) {
	router, mock, db := newDeleteApiRouter(t, 2)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`(?s)FOR\s+UPDATE`).
		WithArgs(int64(3), int64(2)).
		WillReturnRows(lockedRow(3, 1, 2, false, false))
	mock.ExpectQuery(`(?s)UPDATE\s+emails\s+SET\s+is_deleted_by_recipient`).
		WithArgs(int64(3)).
		WillReturnRows(lockedRow(3, 1, 2, false, true))
	mock.ExpectCommit()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/emails", bytes.NewBufferString(`{"ids":[3],"location":"inbox"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestBulkDelete_EmptyIDs(t *testing.T) {
	router, _, db := newDeleteApiRouter(t, 1)
	defer db.Close()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/emails", bytes.NewBufferString(`{"emailIds":[]}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", w.Code)
	}
}

func TestBulkDelete_InvalidLocation(t *testing.T) {
	router, _, db := newDeleteApiRouter(t, 1)
	defer db.Close()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/emails", bytes.NewBufferString(`{"ids":[1],"location":"trash"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", w.Code)
	}
}

func TestBulkDelete_TransactionFailure(t *testing.T) {
	router, mock, db := newDeleteApiRouter(t, 1)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`(?s)FOR\s+UPDATE`).
		WithArgs(int64(3), int64(1)).
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/emails", bytes.NewBufferString(`{"emailIds":[3]}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("want 500, got %d: %s", w.Code, w.Body.String())
	}
}
