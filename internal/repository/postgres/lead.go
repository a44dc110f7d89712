package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/ignite/leadpilot/internal/domain"
	"github.com/ignite/leadpilot/internal/service/lead"
)

// LeadRepo implements lead.Repository against PostgreSQL. Message history
// and the activity log are JSONB columns: the record is written whole, like
// the campaign aggregate.
type LeadRepo struct{ db *sql.DB }

// NewLeadRepo creates a Postgres-backed lead repository.
func NewLeadRepo(db *sql.DB) *LeadRepo { return &LeadRepo{db: db} }

const leadColumns = `id, contact_name, first_name, company, industry, website,
	       email, phone, address, deal_value, manual_only,
	       message_history, activities, created_at, updated_at`

func scanLead(row interface{ Scan(...interface{}) error }) (*domain.Lead, error) {
	l := &domain.Lead{}
	var history, activities []byte
	err := row.Scan(
		&l.ID, &l.ContactName, &l.FirstName, &l.Company, &l.Industry, &l.Website,
		&l.Email, &l.Phone, &l.Address, &l.DealValue, &l.ManualOnly,
		&history, &activities, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(history, &l.MessageHistory); err != nil {
		return nil, fmt.Errorf("decode message history: %w", err)
	}
	if err := json.Unmarshal(activities, &l.Activities); err != nil {
		return nil, fmt.Errorf("decode activities: %w", err)
	}
	return l, nil
}

func marshalLeadLogs(l *domain.Lead) (history, activities []byte, err error) {
	if l.MessageHistory == nil {
		l.MessageHistory = []domain.MessageRecord{}
	}
	if history, err = json.Marshal(l.MessageHistory); err != nil {
		return
	}
	if l.Activities == nil {
		l.Activities = []domain.Activity{}
	}
	activities, err = json.Marshal(l.Activities)
	return
}

func (r *LeadRepo) Get(ctx context.Context, id string) (*domain.Lead, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE id = $1
	`, id)
	l, err := scanLead(row)
	if err == sql.ErrNoRows {
		return nil, lead.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get lead: %w", err)
	}
	return l, nil
}

func (r *LeadRepo) List(ctx context.Context, f lead.ListFilter) ([]domain.Lead, int, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	where := ""
	args := []interface{}{}
	idx := 1
	if f.Company != "" {
		where = fmt.Sprintf(" WHERE company = $%d", idx)
		args = append(args, f.Company)
		idx++
	}
	if f.Search != "" {
		clause := fmt.Sprintf("(contact_name ILIKE $%d OR email ILIKE $%d)", idx, idx)
		if where == "" {
			where = " WHERE " + clause
		} else {
			where += " AND " + clause
		}
		args = append(args, "%"+f.Search+"%")
		idx++
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM leads`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count leads: %w", err)
	}

	q := `SELECT ` + leadColumns + ` FROM leads` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	var out []domain.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan lead: %w", err)
		}
		out = append(out, *l)
	}
	return out, total, rows.Err()
}

func (r *LeadRepo) Create(ctx context.Context, l *domain.Lead) (string, error) {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	history, activities, err := marshalLeadLogs(l)
	if err != nil {
		return "", fmt.Errorf("encode lead: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO leads
			(id, contact_name, first_name, company, industry, website,
			 email, phone, address, deal_value, manual_only,
			 message_history, activities, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
	`, l.ID, l.ContactName, l.FirstName, l.Company, l.Industry, l.Website,
		l.Email, l.Phone, l.Address, l.DealValue, l.ManualOnly,
		history, activities)
	if err != nil {
		return "", fmt.Errorf("create lead: %w", err)
	}
	return l.ID, nil
}

func (r *LeadRepo) Save(ctx context.Context, l *domain.Lead) error {
	history, activities, err := marshalLeadLogs(l)
	if err != nil {
		return fmt.Errorf("encode lead: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE leads
		SET contact_name = $2, first_name = $3, company = $4, industry = $5,
		    website = $6, email = $7, phone = $8, address = $9,
		    deal_value = $10, manual_only = $11,
		    message_history = $12, activities = $13, updated_at = $14
		WHERE id = $1
	`, l.ID, l.ContactName, l.FirstName, l.Company, l.Industry,
		l.Website, l.Email, l.Phone, l.Address,
		l.DealValue, l.ManualOnly,
		history, activities, l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save lead: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save lead: %w", err)
	}
	if n == 0 {
		return lead.ErrNotFound
	}
	return nil
}

func (r *LeadRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete lead: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete lead: %w", err)
	}
	if n == 0 {
		return lead.ErrNotFound
	}
	return nil
}
