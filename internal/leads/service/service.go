package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"leadintake_backend/internal/events"
	"leadintake_backend/internal/leads/repository"
	"leadintake_backend/internal/leads/scoring"
	"leadintake_backend/platform/apperr"
	"leadintake_backend/platform/logger"
)

// ValidStatuses is the triage status vocabulary. Any status may move to any
// other; there are no guarded transitions.
var ValidStatuses = map[string]struct{}{
	"NEW":          {},
	"CONTACTED":    {},
	"QUALIFIED":    {},
	"DISQUALIFIED": {},
}

// Scorer runs AI scoring for a lead. Both paths return the raw model text
// for the analysis column.
type Scorer interface {
	ScoreSimple(ctx context.Context, lead repository.Lead) (int, string, error)
	ScoreStructured(ctx context.Context, lead repository.Lead) (int, string, scoring.Insights, error)
}

// BlobStore is the object storage surface for lead attachments.
type BlobStore interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	DownloadURL(ctx context.Context, key, fileName string, expiry time.Duration) (string, error)
}

type Service struct {
	repo   repository.LeadsRepository
	scorer Scorer
	blobs  BlobStore
	bus    events.Bus
	log    *logger.Logger
}

func New(repo repository.LeadsRepository, scorer Scorer, blobs BlobStore, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, scorer: scorer, blobs: blobs, bus: bus, log: log}
}

// Create persists a new lead and runs a best-effort scoring pass. A scoring
// failure of any kind is logged and swallowed: the lead is created either
// way, just without a score.
func (s *Service) Create(ctx context.Context, params repository.CreateLeadParams) (repository.Lead, *repository.AIInsights, error) {
	lead, err := s.repo.Create(ctx, params)
	if err != nil {
		if errors.Is(err, repository.ErrMissingField) {
			return repository.Lead{}, nil, apperr.Wrap(apperr.KindValidation, err.Error(), err)
		}
		return repository.Lead{}, nil, apperr.Wrap(apperr.KindInternal, "failed to create lead", err)
	}

	var insights *repository.AIInsights
	if s.scorer != nil {
		insights = s.scoreNewLead(ctx, &lead)
	}

	s.bus.Publish(ctx, events.LeadCreated{
		BaseEvent:    events.NewBaseEvent(),
		LeadID:       lead.ID,
		Name:         lead.Name,
		Email:        lead.Email,
		Company:      lead.Company,
		ProjectType:  lead.ProjectType,
		ProjectTitle: lead.ProjectTitle,
		AIScore:      lead.AIScore,
	})

	return lead, insights, nil
}

// scoreNewLead tries the structured insights path first, then falls back to
// the plain-number path, then gives up. The lead passed in is mutated with
// whatever score was recorded.
func (s *Service) scoreNewLead(ctx context.Context, lead *repository.Lead) *repository.AIInsights {
	score, analysis, parsed, err := s.scorer.ScoreStructured(ctx, *lead)
	if err == nil {
		if err := s.repo.RecordScoreWithInsights(ctx, lead.ID, score, analysis, parsed.RecordParams()); err != nil {
			s.log.ScoringFailed(lead.ID.String(), err)
			return nil
		}
		lead.AIScore = &score
		lead.AIAnalysis = &analysis
		if stored, err := s.repo.GetInsightsByLeadID(ctx, lead.ID); err == nil {
			return &stored
		}
		return nil
	}
	s.log.ScoringFailed(lead.ID.String(), err)

	score, analysis, err = s.scorer.ScoreSimple(ctx, *lead)
	if err != nil {
		s.log.ScoringFailed(lead.ID.String(), err)
		return nil
	}
	if err := s.repo.RecordScore(ctx, lead.ID, score, analysis); err != nil {
		s.log.ScoringFailed(lead.ID.String(), err)
		return nil
	}
	lead.AIScore = &score
	lead.AIAnalysis = &analysis
	return nil
}

// Analyze re-runs the structured scoring pass on demand. Unlike the pass at
// creation time, failures here are surfaced to the caller.
func (s *Service) Analyze(ctx context.Context, id uuid.UUID) (repository.Lead, repository.AIInsights, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return repository.Lead{}, repository.AIInsights{}, s.mapRepoErr(err, "lead")
	}

	if s.scorer == nil {
		return repository.Lead{}, repository.AIInsights{}, apperr.New(apperr.KindInternal, "AI scoring is not configured")
	}

	score, analysis, parsed, err := s.scorer.ScoreStructured(ctx, lead)
	if err != nil {
		if errors.Is(err, scoring.ErrMalformedResponse) {
			return repository.Lead{}, repository.AIInsights{}, apperr.Wrap(apperr.KindInternal, "AI analysis returned an unusable response", err)
		}
		return repository.Lead{}, repository.AIInsights{}, apperr.Wrap(apperr.KindInternal, "AI analysis failed", err)
	}

	if err := s.repo.RecordScoreWithInsights(ctx, id, score, analysis, parsed.RecordParams()); err != nil {
		return repository.Lead{}, repository.AIInsights{}, apperr.Wrap(apperr.KindInternal, "failed to store AI analysis", err)
	}

	lead.AIScore = &score
	lead.AIAnalysis = &analysis

	stored, err := s.repo.GetInsightsByLeadID(ctx, id)
	if err != nil {
		return repository.Lead{}, repository.AIInsights{}, apperr.Wrap(apperr.KindInternal, "failed to load AI insights", err)
	}

	return lead, stored, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (repository.Lead, []repository.File, *repository.AIInsights, error) {
	lead, files, insights, err := s.repo.GetByIDWithRelations(ctx, id)
	if err != nil {
		return repository.Lead{}, nil, nil, s.mapRepoErr(err, "lead")
	}
	return lead, files, insights, nil
}

// ListQuery is the query surface of the leads list endpoint. Page is
// 1-indexed.
type ListQuery struct {
	Status    string
	Search    string
	SortBy    string
	SortOrder string
	Page      int
	Limit     int
}

type Page struct {
	Leads      []repository.Lead
	Total      int
	Page       int
	Limit      int
	TotalPages int
}

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// List returns a filtered, sorted page of leads. An unknown status filter is
// passed through and simply matches nothing.
func (s *Service) List(ctx context.Context, query ListQuery) (Page, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.Limit < 1 {
		query.Limit = defaultPageLimit
	}
	if query.Limit > maxPageLimit {
		query.Limit = maxPageLimit
	}

	params := repository.ListParams{
		Search:    query.Search,
		SortBy:    query.SortBy,
		SortOrder: query.SortOrder,
		Limit:     query.Limit,
		Offset:    (query.Page - 1) * query.Limit,
	}
	if query.Status != "" {
		status := strings.ToUpper(query.Status)
		params.Status = &status
	}

	leads, total, err := s.repo.List(ctx, params)
	if err != nil {
		return Page{}, apperr.Wrap(apperr.KindInternal, "failed to fetch leads", err)
	}

	totalPages := (total + query.Limit - 1) / query.Limit

	return Page{
		Leads:      leads,
		Total:      total,
		Page:       query.Page,
		Limit:      query.Limit,
		TotalPages: totalPages,
	}, nil
}

// ListAll returns the full matching set in one slice for exports. The cap
// keeps a runaway export from pulling the whole table into memory at once.
func (s *Service) ListAll(ctx context.Context, query ListQuery) ([]repository.Lead, error) {
	params := repository.ListParams{
		Search:    query.Search,
		SortBy:    query.SortBy,
		SortOrder: query.SortOrder,
		Limit:     10000,
		Offset:    0,
	}
	if query.Status != "" {
		status := strings.ToUpper(query.Status)
		params.Status = &status
	}

	leads, _, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to fetch leads", err)
	}
	return leads, nil
}

// SetStatus updates the triage status. The value is matched
// case-insensitively against the status vocabulary.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, status string) (repository.Lead, error) {
	normalized := strings.ToUpper(strings.TrimSpace(status))
	if _, ok := ValidStatuses[normalized]; !ok {
		return repository.Lead{}, apperr.Validation("Invalid status")
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return repository.Lead{}, s.mapRepoErr(err, "lead")
	}

	lead, err := s.repo.UpdateStatus(ctx, id, normalized)
	if err != nil {
		return repository.Lead{}, s.mapRepoErr(err, "lead")
	}

	if current.Status != normalized {
		s.bus.Publish(ctx, events.LeadStatusChanged{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    id,
			OldStatus: current.Status,
			NewStatus: normalized,
		})
	}

	return lead, nil
}

// Delete removes a lead, its database dependents, and its stored files. Blob
// deletion is best effort: a storage failure leaves an orphaned object, not
// a half-deleted lead.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	_, files, _, err := s.repo.GetByIDWithRelations(ctx, id)
	if err != nil {
		return s.mapRepoErr(err, "lead")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return s.mapRepoErr(err, "lead")
	}

	if s.blobs != nil {
		for _, file := range files {
			if err := s.blobs.Delete(ctx, file.FileKey); err != nil {
				s.log.Error("blob_delete_failed",
					"file_key", file.FileKey,
					"error", err.Error(),
				)
			}
		}
	}

	s.bus.Publish(ctx, events.LeadDeleted{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    id,
		FileCount: len(files),
	})

	return nil
}

// allowedUploadTypes is the attachment MIME allow-list.
var allowedUploadTypes = map[string]struct{}{
	"application/pdf":    {},
	"image/png":          {},
	"image/jpeg":         {},
	"image/webp":         {},
	"text/plain":         {},
	"text/csv":           {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
	"application/vnd.ms-excel": {},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": {},
}

type UploadFileParams struct {
	LeadID      uuid.UUID
	FileName    string
	ContentType string
	SizeBytes   int64
	MaxBytes    int64
	Reader      io.Reader
}

// UploadFile stores an attachment in object storage and records it. The blob
// is written first; a metadata failure afterwards leaves an orphaned object
// rather than a dangling database row.
func (s *Service) UploadFile(ctx context.Context, params UploadFileParams) (repository.File, error) {
	if s.blobs == nil {
		return repository.File{}, apperr.New(apperr.KindInternal, "file storage is not configured")
	}
	if _, ok := allowedUploadTypes[params.ContentType]; !ok {
		return repository.File{}, apperr.Validation(fmt.Sprintf("file type %q is not allowed", params.ContentType))
	}
	if params.MaxBytes > 0 && params.SizeBytes > params.MaxBytes {
		return repository.File{}, apperr.Validation("file exceeds the maximum allowed size")
	}

	if _, err := s.repo.GetByID(ctx, params.LeadID); err != nil {
		return repository.File{}, s.mapRepoErr(err, "lead")
	}

	key := params.LeadID.String() + "/" + uuid.New().String() + path.Ext(params.FileName)
	if err := s.blobs.Upload(ctx, key, params.Reader, params.SizeBytes, params.ContentType); err != nil {
		return repository.File{}, apperr.Wrap(apperr.KindInternal, "failed to store file", err)
	}

	file, err := s.repo.CreateFile(ctx, repository.CreateFileParams{
		LeadID:      params.LeadID,
		FileName:    params.FileName,
		FileKey:     key,
		ContentType: params.ContentType,
		SizeBytes:   params.SizeBytes,
	})
	if err != nil {
		return repository.File{}, apperr.Wrap(apperr.KindInternal, "failed to record file", err)
	}

	return file, nil
}

func (s *Service) ListFiles(ctx context.Context, leadID uuid.UUID) ([]repository.File, error) {
	if _, err := s.repo.GetByID(ctx, leadID); err != nil {
		return nil, s.mapRepoErr(err, "lead")
	}
	files, err := s.repo.ListFilesByLead(ctx, leadID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list files", err)
	}
	return files, nil
}

func (s *Service) DeleteFile(ctx context.Context, fileID uuid.UUID) error {
	file, err := s.repo.GetFileByID(ctx, fileID)
	if err != nil {
		return s.mapRepoErr(err, "file")
	}

	if err := s.repo.DeleteFile(ctx, fileID); err != nil {
		return s.mapRepoErr(err, "file")
	}

	if s.blobs != nil {
		if err := s.blobs.Delete(ctx, file.FileKey); err != nil {
			s.log.Error("blob_delete_failed",
				"file_key", file.FileKey,
				"error", err.Error(),
			)
		}
	}

	return nil
}

// FileDownloadURL returns a short-lived presigned link for an attachment.
func (s *Service) FileDownloadURL(ctx context.Context, fileID uuid.UUID) (string, error) {
	if s.blobs == nil {
		return "", apperr.New(apperr.KindInternal, "file storage is not configured")
	}
	file, err := s.repo.GetFileByID(ctx, fileID)
	if err != nil {
		return "", s.mapRepoErr(err, "file")
	}
	url, err := s.blobs.DownloadURL(ctx, file.FileKey, file.FileName, 15*time.Minute)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "failed to generate download link", err)
	}
	return url, nil
}

// LeadEmail resolves a lead's email address for the notification dispatcher.
func (s *Service) LeadEmail(ctx context.Context, id uuid.UUID) (string, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", s.mapRepoErr(err, "lead")
	}
	return lead.Email, nil
}

// ListUnscored exposes unscored leads for the rescore backfill.
func (s *Service) ListUnscored(ctx context.Context, limit int) ([]repository.Lead, error) {
	return s.repo.ListUnscored(ctx, limit)
}

func (s *Service) mapRepoErr(err error, resource string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(resource + " not found")
	}
	return apperr.Wrap(apperr.KindInternal, "database operation failed", err)
}
