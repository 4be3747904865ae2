package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"leadintake_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrNotFound     = errors.New("lead not found")
	ErrMissingField = errors.New("required field is empty")
)

type Repository struct {
	pool db.Pool
}

func New(pool db.Pool) *Repository {
	return &Repository{pool: pool}
}

type Lead struct {
	ID                  uuid.UUID
	Name                string
	Email               string
	Company             string
	ProjectType         string
	ProjectTitle        string
	Description         string
	Timeline            string
	Budget              string
	Goals               string
	Phone               *string
	TargetAudience      *string
	SpecialRequirements *string
	ReferralSource      *string
	Status              string
	AIScore             *int
	AIAnalysis          *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type CreateLeadParams struct {
	Name                string
	Email               string
	Company             string
	ProjectType         string
	ProjectTitle        string
	Description         string
	Timeline            string
	Budget              string
	Goals               string
	Phone               *string
	TargetAudience      *string
	SpecialRequirements *string
	ReferralSource      *string
}

const leadColumns = `id, name, email, company, project_type, project_title, description,
		timeline, budget, goals, phone, target_audience, special_requirements, referral_source,
		status, ai_score, ai_analysis, created_at, updated_at`

func scanLead(row pgx.Row) (Lead, error) {
	var lead Lead
	err := row.Scan(
		&lead.ID, &lead.Name, &lead.Email, &lead.Company, &lead.ProjectType, &lead.ProjectTitle,
		&lead.Description, &lead.Timeline, &lead.Budget, &lead.Goals, &lead.Phone,
		&lead.TargetAudience, &lead.SpecialRequirements, &lead.ReferralSource,
		&lead.Status, &lead.AIScore, &lead.AIAnalysis, &lead.CreatedAt, &lead.UpdatedAt,
	)
	return lead, err
}

// validateRequired rejects empty required fields. The transport layer
// validates first, but a lead must never be persisted without them.
func (p CreateLeadParams) validateRequired() error {
	required := map[string]string{
		"name":         p.Name,
		"email":        p.Email,
		"company":      p.Company,
		"projectType":  p.ProjectType,
		"projectTitle": p.ProjectTitle,
		"description":  p.Description,
		"timeline":     p.Timeline,
		"budget":       p.Budget,
		"goals":        p.Goals,
	}
	for field, value := range required {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, field)
		}
	}
	return nil
}

// Create inserts a new lead with status NEW and no AI score.
func (r *Repository) Create(ctx context.Context, params CreateLeadParams) (Lead, error) {
	if err := params.validateRequired(); err != nil {
		return Lead{}, err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO leads (
			name, email, company, project_type, project_title, description,
			timeline, budget, goals, phone, target_audience, special_requirements, referral_source
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING `+leadColumns,
		params.Name, params.Email, params.Company, params.ProjectType, params.ProjectTitle,
		params.Description, params.Timeline, params.Budget, params.Goals,
		params.Phone, params.TargetAudience, params.SpecialRequirements, params.ReferralSource,
	)

	lead, err := scanLead(row)
	if err != nil {
		return Lead{}, err
	}
	return lead, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

// GetByIDWithRelations returns a lead with its files and insights populated.
// A missing insights row is not an error: the lead may never have been scored.
func (r *Repository) GetByIDWithRelations(ctx context.Context, id uuid.UUID) (Lead, []File, *AIInsights, error) {
	lead, err := r.GetByID(ctx, id)
	if err != nil {
		return Lead{}, nil, nil, err
	}

	files, err := r.ListFilesByLead(ctx, id)
	if err != nil {
		return Lead{}, nil, nil, err
	}

	insights, err := r.GetInsightsByLeadID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return lead, files, nil, nil
		}
		return Lead{}, nil, nil, err
	}

	return lead, files, &insights, nil
}

// UpdateStatus sets the triage status. The caller validates the status value;
// this only touches the row and bumps updated_at.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (Lead, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE leads SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+leadColumns, id, status)

	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

// Delete removes a lead. Files and insights rows cascade at the database level.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type ListParams struct {
	Status    *string
	Search    string
	SortBy    string
	SortOrder string
	Limit     int
	Offset    int
}

// List returns a page of leads plus the total count of the full matching set.
// Filtering and ordering are applied before LIMIT/OFFSET.
func (r *Repository) List(ctx context.Context, params ListParams) ([]Lead, int, error) {
	whereClause, args, argIdx := buildLeadListWhere(params)

	var total int
	countQuery := "SELECT COUNT(*) FROM leads WHERE " + whereClause
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, params.Limit, params.Offset)
	query := fmt.Sprintf(`
		SELECT `+leadColumns+`
		FROM leads
		WHERE %s
		ORDER BY %s
		LIMIT $%d OFFSET $%d
	`, whereClause, orderByClause(params.SortBy, params.SortOrder), argIdx, argIdx+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, 0, err
		}
		leads = append(leads, lead)
	}

	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}

	return leads, total, nil
}

func buildLeadListWhere(params ListParams) (string, []interface{}, int) {
	whereClauses := []string{"TRUE"}
	args := []interface{}{}
	argIdx := 1

	if params.Status != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("status = UPPER($%d)", argIdx))
		args = append(args, *params.Status)
		argIdx++
	}
	if params.Search != "" {
		searchPattern := "%" + params.Search + "%"
		whereClauses = append(whereClauses, fmt.Sprintf(
			"(name ILIKE $%d OR email ILIKE $%d OR company ILIKE $%d OR project_title ILIKE $%d)",
			argIdx, argIdx, argIdx, argIdx,
		))
		args = append(args, searchPattern)
		argIdx++
	}

	return strings.Join(whereClauses, " AND "), args, argIdx
}

// orderByClause maps a sort key to a SQL ORDER BY expression. Every ordering
// tie-breaks on id ASC so pagination is stable. The status sort always places
// QUALIFIED leads first regardless of direction; this prioritization is a
// business rule from the triage dashboard.
func orderByClause(sortBy, sortOrder string) string {
	dir := "DESC"
	if strings.EqualFold(sortOrder, "asc") {
		dir = "ASC"
	}

	switch sortBy {
	case "name":
		return "LOWER(name) " + dir + ", id ASC"
	case "company":
		return "LOWER(company) " + dir + ", id ASC"
	case "aiScore":
		return "COALESCE(ai_score, 0) " + dir + ", id ASC"
	case "status":
		return "(status = 'QUALIFIED') DESC, LOWER(status) " + dir + ", id ASC"
	default:
		return "created_at " + dir + ", id ASC"
	}
}

// ListUnscored returns leads whose scoring attempt failed (ai_score IS NULL),
// oldest first, for the rescore backfill.
func (r *Repository) ListUnscored(ctx context.Context, limit int) ([]Lead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE ai_score IS NULL
		ORDER BY created_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}
