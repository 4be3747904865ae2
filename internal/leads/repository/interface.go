package repository

import (
	"context"

	"github.com/google/uuid"
)

// LeadsRepository is the full persistence surface the leads service depends
// on. Tests implement it with fakes; *Repository is the pgx implementation.
type LeadsRepository interface {
	Create(ctx context.Context, params CreateLeadParams) (Lead, error)
	GetByID(ctx context.Context, id uuid.UUID) (Lead, error)
	GetByIDWithRelations(ctx context.Context, id uuid.UUID) (Lead, []File, *AIInsights, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (Lead, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params ListParams) ([]Lead, int, error)
	ListUnscored(ctx context.Context, limit int) ([]Lead, error)

	RecordScore(ctx context.Context, leadID uuid.UUID, score int, analysis string) error
	RecordScoreWithInsights(ctx context.Context, leadID uuid.UUID, score int, analysis string, params RecordInsightsParams) error
	GetInsightsByLeadID(ctx context.Context, leadID uuid.UUID) (AIInsights, error)

	CreateFile(ctx context.Context, params CreateFileParams) (File, error)
	GetFileByID(ctx context.Context, id uuid.UUID) (File, error)
	ListFilesByLead(ctx context.Context, leadID uuid.UUID) ([]File, error)
	DeleteFile(ctx context.Context, id uuid.UUID) error
}

var _ LeadsRepository = (*Repository)(nil)
