package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/ignite/leadpilot/internal/domain"
	"github.com/ignite/leadpilot/internal/service/lead"
)

func TestLeadRepoGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	now := time.Now()
	history, _ := json.Marshal([]domain.MessageRecord{{Direction: "outbound", Step: 1, Subject: "Hi"}})
	activities, _ := json.Marshal([]domain.Activity{{Kind: "email_sent", Note: "Step 1: Hi", At: now}})

	mock.ExpectQuery("SELECT (.+) FROM leads").
		WithArgs("lead-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "contact_name", "first_name", "company", "industry", "website",
			"email", "phone", "address", "deal_value", "manual_only",
			"message_history", "activities", "created_at", "updated_at",
		}).AddRow("lead-1", "Jane Smith", "Jane", "Acme", "Logistics", "https://acme.example",
			"jane@acme.example", "+1 555 0100", "1 Main St", 2500.0, false,
			history, activities, now, now))

	got, err := NewLeadRepo(db).Get(context.Background(), "lead-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ContactName != "Jane Smith" || got.DealValue != 2500 {
		t.Fatalf("decoded lead: %+v", got)
	}
	if len(got.MessageHistory) != 1 || got.MessageHistory[0].Step != 1 {
		t.Fatalf("history: %+v", got.MessageHistory)
	}
	if len(got.Activities) != 1 {
		t.Fatalf("activities: %+v", got.Activities)
	}
}

func TestLeadRepoGetNotFound(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM leads").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := NewLeadRepo(db).Get(context.Background(), "ghost")
	if err != lead.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLeadRepoSaveNotFound(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	mock.ExpectExec("UPDATE leads").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewLeadRepo(db).Save(context.Background(), &domain.Lead{ID: "ghost"})
	if err != lead.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
