package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/ignite/leadpilot/internal/domain"
	"github.com/ignite/leadpilot/internal/service/campaign"
)

func campaignRow(t *testing.T, c *domain.Campaign) *sqlmock.Rows {
	t.Helper()
	schedule, _ := json.Marshal(c.Schedule)
	steps, _ := json.Marshal(c.Steps)
	leads, _ := json.Marshal(c.Leads)
	stats, _ := json.Marshal(c.Stats)
	return sqlmock.NewRows([]string{
		"id", "name", "status", "webhook_url", "schedule", "steps", "leads", "stats",
		"created_at", "updated_at", "started_at", "completed_at",
	}).AddRow(c.ID, c.Name, c.Status, c.WebhookURL, schedule, steps, leads, stats,
		c.CreatedAt, c.UpdatedAt, c.StartedAt, c.CompletedAt)
}

func testCampaign() *domain.Campaign {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	return &domain.Campaign{
		ID:         "camp-1",
		Name:       "Outbound Q3",
		Status:     domain.CampaignActive,
		WebhookURL: "https://hooks.example/send",
		Schedule: domain.Schedule{
			FrequencyMinutes: 15,
			TimeWindows:      []domain.TimeWindow{{Start: "09:00", End: "17:00"}},
			Timezone:         "UTC",
			DailyLimit:       50,
			DaysOfWeek:       []int{1, 2, 3, 4, 5},
		},
		Steps: []domain.Step{
			{Number: 2, SubjectTemplate: "Bump", Active: true},
			{Number: 1, SubjectTemplate: "Hi {{first_name}}", Active: true},
		},
		Leads: []domain.LeadEnrollment{
			{LeadID: "lead-1", Email: "jane@acme.example", Status: domain.EnrollmentWaiting, CurrentStep: 2},
		},
		Stats:     domain.Stats{TotalLeads: 1, EmailsSent: 1, SendsToday: 1, LastSendReset: "2026-03-02"},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestCampaignRepoGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	want := testCampaign()
	mock.ExpectQuery("SELECT (.+) FROM campaigns").
		WithArgs("camp-1").
		WillReturnRows(campaignRow(t, want))

	repo := NewCampaignRepo(db)
	got, err := repo.Get(context.Background(), "camp-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Outbound Q3" || got.Schedule.DailyLimit != 50 {
		t.Fatalf("decoded campaign: %+v", got)
	}
	if len(got.Leads) != 1 || got.Leads[0].Status != domain.EnrollmentWaiting {
		t.Fatalf("decoded leads: %+v", got.Leads)
	}
	// Steps come back sorted regardless of stored order.
	if got.Steps[0].Number != 1 || got.Steps[1].Number != 2 {
		t.Fatalf("steps not sorted: %+v", got.Steps)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCampaignRepoGetNotFound(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM campaigns").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := NewCampaignRepo(db).Get(context.Background(), "ghost")
	if err != campaign.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCampaignRepoSave(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	c := testCampaign()
	mock.ExpectExec("UPDATE campaigns").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := NewCampaignRepo(db).Save(context.Background(), c); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCampaignRepoSaveNotFound(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	mock.ExpectExec("UPDATE campaigns").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewCampaignRepo(db).Save(context.Background(), testCampaign())
	if err != campaign.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCampaignRepoListActiveIDs(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	mock.ExpectQuery("SELECT id FROM campaigns WHERE status = 'active'").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("camp-1").AddRow("camp-2"))

	ids, err := NewCampaignRepo(db).ListActiveIDs(context.Background())
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(ids) != 2 || ids[0] != "camp-1" {
		t.Fatalf("ids = %v", ids)
	}
}

func TestCampaignRepoCreate(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer db.Close()

	c := testCampaign()
	c.ID = ""
	mock.ExpectExec("INSERT INTO campaigns").
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := NewCampaignRepo(db).Create(context.Background(), c)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id == "" {
		t.Fatal("expected generated id")
	}
}
