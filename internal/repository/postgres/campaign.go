package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/ignite/leadpilot/internal/domain"
	"github.com/ignite/leadpilot/internal/service/campaign"
)

// CampaignRepo implements campaign.Repository against PostgreSQL. The
// aggregate substructures (schedule, steps, leads, stats) live in JSONB
// columns so reads and writes stay whole-object: last writer wins, matching
// the store contract the sequencer relies on.
type CampaignRepo struct{ db *sql.DB }

// NewCampaignRepo creates a Postgres-backed campaign repository.
func NewCampaignRepo(db *sql.DB) *CampaignRepo { return &CampaignRepo{db: db} }

const campaignColumns = `id, name, status, webhook_url, schedule, steps, leads, stats,
	       created_at, updated_at, started_at, completed_at`

func scanCampaign(row interface{ Scan(...interface{}) error }) (*domain.Campaign, error) {
	c := &domain.Campaign{}
	var schedule, steps, leads, stats []byte
	err := row.Scan(
		&c.ID, &c.Name, &c.Status, &c.WebhookURL,
		&schedule, &steps, &leads, &stats,
		&c.CreatedAt, &c.UpdatedAt, &c.StartedAt, &c.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(schedule, &c.Schedule); err != nil {
		return nil, fmt.Errorf("decode schedule: %w", err)
	}
	if err := json.Unmarshal(steps, &c.Steps); err != nil {
		return nil, fmt.Errorf("decode steps: %w", err)
	}
	if err := json.Unmarshal(leads, &c.Leads); err != nil {
		return nil, fmt.Errorf("decode leads: %w", err)
	}
	if err := json.Unmarshal(stats, &c.Stats); err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}
	c.SortSteps()
	return c, nil
}

func marshalCampaign(c *domain.Campaign) (schedule, steps, leads, stats []byte, err error) {
	if schedule, err = json.Marshal(c.Schedule); err != nil {
		return
	}
	if c.Steps == nil {
		c.Steps = []domain.Step{}
	}
	if steps, err = json.Marshal(c.Steps); err != nil {
		return
	}
	if c.Leads == nil {
		c.Leads = []domain.LeadEnrollment{}
	}
	if leads, err = json.Marshal(c.Leads); err != nil {
		return
	}
	stats, err = json.Marshal(c.Stats)
	return
}

func (r *CampaignRepo) Get(ctx context.Context, id string) (*domain.Campaign, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+campaignColumns+`
		FROM campaigns
		WHERE id = $1
	`, id)
	c, err := scanCampaign(row)
	if err == sql.ErrNoRows {
		return nil, campaign.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	return c, nil
}

func (r *CampaignRepo) List(ctx context.Context, f campaign.ListFilter) ([]domain.Campaign, int, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	countQ := `SELECT COUNT(*) FROM campaigns`
	args := []interface{}{}
	if f.Status != "" {
		countQ += ` WHERE status = $1`
		args = append(args, f.Status)
	}
	var total int
	if err := r.db.QueryRowContext(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count campaigns: %w", err)
	}

	q := `SELECT ` + campaignColumns + ` FROM campaigns`
	qArgs := []interface{}{}
	idx := 1
	if f.Status != "" {
		q += fmt.Sprintf(" WHERE status = $%d", idx)
		qArgs = append(qArgs, f.Status)
		idx++
	}
	q += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	qArgs = append(qArgs, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, q, qArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	var out []domain.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan campaign: %w", err)
		}
		out = append(out, *c)
	}
	return out, total, rows.Err()
}

func (r *CampaignRepo) Create(ctx context.Context, c *domain.Campaign) (string, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	schedule, steps, leads, stats, err := marshalCampaign(c)
	if err != nil {
		return "", fmt.Errorf("encode campaign: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO campaigns
			(id, name, status, webhook_url, schedule, steps, leads, stats, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	`, c.ID, c.Name, c.Status, c.WebhookURL, schedule, steps, leads, stats)
	if err != nil {
		return "", fmt.Errorf("create campaign: %w", err)
	}
	return c.ID, nil
}

// Save replaces the whole row. There is no field-level merging: the
// sequencer and the management API both operate on full aggregates.
func (r *CampaignRepo) Save(ctx context.Context, c *domain.Campaign) error {
	schedule, steps, leads, stats, err := marshalCampaign(c)
	if err != nil {
		return fmt.Errorf("encode campaign: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE campaigns
		SET name = $2, status = $3, webhook_url = $4,
		    schedule = $5, steps = $6, leads = $7, stats = $8,
		    updated_at = $9, started_at = $10, completed_at = $11
		WHERE id = $1
	`, c.ID, c.Name, c.Status, c.WebhookURL,
		schedule, steps, leads, stats,
		c.UpdatedAt, c.StartedAt, c.CompletedAt)
	if err != nil {
		return fmt.Errorf("save campaign: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save campaign: %w", err)
	}
	if n == 0 {
		return campaign.ErrNotFound
	}
	return nil
}

func (r *CampaignRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete campaign: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete campaign: %w", err)
	}
	if n == 0 {
		return campaign.ErrNotFound
	}
	return nil
}

// ListActiveIDs returns the ids of every active campaign; the supervisor
// uses it on startup to resume in-flight sequences.
func (r *CampaignRepo) ListActiveIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM campaigns WHERE status = 'active'`)
	if err != nil {
		return nil, fmt.Errorf("list active campaigns: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan campaign id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
