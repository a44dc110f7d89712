package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/ignite/leadpilot/internal/domain"
	"github.com/ignite/leadpilot/internal/service/suppression"
)

func TestSuppressionRepoUpsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	entry := &domain.Suppression{
		ID:        "sup-1",
		Email:     "bounce@example.com",
		Reason:    domain.ReasonBounce,
		Source:    domain.SourceCallback,
		CreatedAt: time.Now(),
	}
	mock.ExpectExec("INSERT INTO suppressions").
		WithArgs(entry.ID, entry.Email, entry.Reason, entry.Source, entry.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := NewSuppressionRepo(db).Upsert(context.Background(), entry); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestSuppressionRepoGetNotFound(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM suppressions").
		WithArgs("missing@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := NewSuppressionRepo(db).Get(context.Background(), "missing@example.com")
	if err != suppression.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSuppressionRepoDelete(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	mock.ExpectExec("DELETE FROM suppressions").
		WithArgs("gone@example.com").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := NewSuppressionRepo(db).Delete(context.Background(), "gone@example.com"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	mock.ExpectExec("DELETE FROM suppressions").
		WithArgs("gone@example.com").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := NewSuppressionRepo(db).Delete(context.Background(), "gone@example.com"); err != suppression.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
