package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"leadintake_backend/internal/events"
	"leadintake_backend/internal/leads/repository"
	"leadintake_backend/internal/leads/scoring"
	"leadintake_backend/platform/apperr"
	"leadintake_backend/platform/logger"
)

type fakeRepo struct {
	leads    map[uuid.UUID]repository.Lead
	insights map[uuid.UUID]repository.AIInsights
	files    map[uuid.UUID]repository.File

	insightsTxCalls int
	scoreCalls      int
	createErr       error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		leads:    make(map[uuid.UUID]repository.Lead),
		insights: make(map[uuid.UUID]repository.AIInsights),
		files:    make(map[uuid.UUID]repository.File),
	}
}

func (f *fakeRepo) Create(_ context.Context, params repository.CreateLeadParams) (repository.Lead, error) {
	if f.createErr != nil {
		return repository.Lead{}, f.createErr
	}
	lead := repository.Lead{
		ID:           uuid.New(),
		Name:         params.Name,
		Email:        params.Email,
		Company:      params.Company,
		ProjectType:  params.ProjectType,
		ProjectTitle: params.ProjectTitle,
		Description:  params.Description,
		Timeline:     params.Timeline,
		Budget:       params.Budget,
		Goals:        params.Goals,
		Phone:        params.Phone,
		Status:       "NEW",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	f.leads[lead.ID] = lead
	return lead, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, repository.ErrNotFound
	}
	return lead, nil
}

func (f *fakeRepo) GetByIDWithRelations(ctx context.Context, id uuid.UUID) (repository.Lead, []repository.File, *repository.AIInsights, error) {
	lead, err := f.GetByID(ctx, id)
	if err != nil {
		return repository.Lead{}, nil, nil, err
	}
	var files []repository.File
	for _, file := range f.files {
		if file.LeadID == id {
			files = append(files, file)
		}
	}
	if ins, ok := f.insights[id]; ok {
		return lead, files, &ins, nil
	}
	return lead, files, nil, nil
}

func (f *fakeRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) (repository.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, repository.ErrNotFound
	}
	lead.Status = status
	f.leads[id] = lead
	return lead, nil
}

func (f *fakeRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.leads[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.leads, id)
	return nil
}

func (f *fakeRepo) List(_ context.Context, params repository.ListParams) ([]repository.Lead, int, error) {
	out := make([]repository.Lead, 0, len(f.leads))
	for _, lead := range f.leads {
		out = append(out, lead)
	}
	return out, len(out), nil
}

func (f *fakeRepo) ListUnscored(_ context.Context, limit int) ([]repository.Lead, error) {
	var out []repository.Lead
	for _, lead := range f.leads {
		if lead.AIScore == nil {
			out = append(out, lead)
		}
	}
	return out, nil
}

func (f *fakeRepo) RecordScore(_ context.Context, leadID uuid.UUID, score int, analysis string) error {
	lead, ok := f.leads[leadID]
	if !ok {
		return repository.ErrNotFound
	}
	f.scoreCalls++
	lead.AIScore = &score
	lead.AIAnalysis = &analysis
	f.leads[leadID] = lead
	return nil
}

func (f *fakeRepo) RecordScoreWithInsights(_ context.Context, leadID uuid.UUID, score int, analysis string, params repository.RecordInsightsParams) error {
	lead, ok := f.leads[leadID]
	if !ok {
		return repository.ErrNotFound
	}
	f.insightsTxCalls++
	lead.AIScore = &score
	lead.AIAnalysis = &analysis
	f.leads[leadID] = lead
	f.insights[leadID] = repository.AIInsights{
		LeadID:         leadID,
		BudgetVerdict:  params.BudgetVerdict,
		Recommendation: params.Recommendation,
		NextSteps:      params.NextSteps,
		RiskFactors:    params.RiskFactors,
	}
	return nil
}

func (f *fakeRepo) GetInsightsByLeadID(_ context.Context, leadID uuid.UUID) (repository.AIInsights, error) {
	ins, ok := f.insights[leadID]
	if !ok {
		return repository.AIInsights{}, repository.ErrNotFound
	}
	return ins, nil
}

func (f *fakeRepo) CreateFile(_ context.Context, params repository.CreateFileParams) (repository.File, error) {
	file := repository.File{
		ID:          uuid.New(),
		LeadID:      params.LeadID,
		FileName:    params.FileName,
		FileKey:     params.FileKey,
		ContentType: params.ContentType,
		SizeBytes:   params.SizeBytes,
		CreatedAt:   time.Now(),
	}
	f.files[file.ID] = file
	return file, nil
}

func (f *fakeRepo) GetFileByID(_ context.Context, id uuid.UUID) (repository.File, error) {
	file, ok := f.files[id]
	if !ok {
		return repository.File{}, repository.ErrNotFound
	}
	return file, nil
}

func (f *fakeRepo) ListFilesByLead(_ context.Context, leadID uuid.UUID) ([]repository.File, error) {
	var out []repository.File
	for _, file := range f.files {
		if file.LeadID == leadID {
			out = append(out, file)
		}
	}
	return out, nil
}

func (f *fakeRepo) DeleteFile(_ context.Context, id uuid.UUID) error {
	if _, ok := f.files[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.files, id)
	return nil
}

type fakeScorer struct {
	structuredScore int
	structuredErr   error
	simpleScore     int
	simpleErr       error
}

func (f *fakeScorer) ScoreStructured(_ context.Context, _ repository.Lead) (int, string, scoring.Insights, error) {
	if f.structuredErr != nil {
		return 0, "", scoring.Insights{}, f.structuredErr
	}
	return f.structuredScore, "structured analysis", scoring.Insights{
		Budget: "good", Timeline: "good", Scope: "good", Requirements: "good",
		MarketFit: "high", TechnicalFeasibility: "high",
		Recommendation: "Proceed",
	}, nil
}

func (f *fakeScorer) ScoreSimple(_ context.Context, _ repository.Lead) (int, string, error) {
	if f.simpleErr != nil {
		return 0, "", f.simpleErr
	}
	return f.simpleScore, "simple analysis", nil
}

type fakeBlobs struct {
	uploads   []string
	deletes   []string
	deleteErr error
}

func (f *fakeBlobs) Upload(_ context.Context, key string, _ io.Reader, _ int64, _ string) error {
	f.uploads = append(f.uploads, key)
	return nil
}

func (f *fakeBlobs) Delete(_ context.Context, key string) error {
	f.deletes = append(f.deletes, key)
	return f.deleteErr
}

func (f *fakeBlobs) DownloadURL(_ context.Context, key, _ string, _ time.Duration) (string, error) {
	return "https://storage.example.com/" + key, nil
}

type recordingBus struct {
	published []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.published = append(b.published, event)
}

func (b *recordingBus) PublishSync(_ context.Context, event events.Event) error {
	b.published = append(b.published, event)
	return nil
}

func (b *recordingBus) Subscribe(_ string, _ events.Handler) {}

func createParams() repository.CreateLeadParams {
	return repository.CreateLeadParams{
		Name:         "Jane Doe",
		Email:        "jane@example.com",
		Company:      "Acme",
		ProjectType:  "web",
		ProjectTitle: "Storefront rebuild",
		Description:  "Rebuild the store",
		Timeline:     "3 months",
		Budget:       "$30k",
		Goals:        "More sales",
	}
}

func newTestService(repo repository.LeadsRepository, scorer Scorer, blobs BlobStore, bus events.Bus) *Service {
	return New(repo, scorer, blobs, bus, logger.New("development"))
}

func TestCreateWithStructuredScoring(t *testing.T) {
	repo := newFakeRepo()
	bus := &recordingBus{}
	svc := newTestService(repo, &fakeScorer{structuredScore: 120}, nil, bus)

	lead, insights, err := svc.Create(context.Background(), createParams())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if lead.AIScore == nil || *lead.AIScore != 120 {
		t.Fatalf("lead score = %v, want 120", lead.AIScore)
	}
	if insights == nil || insights.Recommendation != "Proceed" {
		t.Fatalf("insights not returned: %+v", insights)
	}
	if repo.insightsTxCalls != 1 {
		t.Fatalf("insightsTxCalls = %d, want 1", repo.insightsTxCalls)
	}

	if len(bus.published) != 1 {
		t.Fatalf("published %d events, want 1", len(bus.published))
	}
	created, ok := bus.published[0].(events.LeadCreated)
	if !ok {
		t.Fatalf("unexpected event type %T", bus.published[0])
	}
	if created.AIScore == nil || *created.AIScore != 120 {
		t.Fatalf("event score = %v, want 120", created.AIScore)
	}
}

func TestCreateFallsBackToSimpleScoring(t *testing.T) {
	repo := newFakeRepo()
	scorer := &fakeScorer{
		structuredErr: scoring.ErrMalformedResponse,
		simpleScore:   70,
	}
	svc := newTestService(repo, scorer, nil, &recordingBus{})

	lead, insights, err := svc.Create(context.Background(), createParams())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if lead.AIScore == nil || *lead.AIScore != 70 {
		t.Fatalf("lead score = %v, want 70", lead.AIScore)
	}
	if insights != nil {
		t.Fatal("simple path must not produce insights")
	}
	if repo.scoreCalls != 1 || repo.insightsTxCalls != 0 {
		t.Fatalf("scoreCalls=%d insightsTxCalls=%d", repo.scoreCalls, repo.insightsTxCalls)
	}
}

func TestCreateSurvivesScoringFailure(t *testing.T) {
	repo := newFakeRepo()
	scorer := &fakeScorer{
		structuredErr: errors.New("quota exceeded"),
		simpleErr:     errors.New("quota exceeded"),
	}
	svc := newTestService(repo, scorer, nil, &recordingBus{})

	lead, _, err := svc.Create(context.Background(), createParams())
	if err != nil {
		t.Fatalf("Create must not fail on scoring errors, got %v", err)
	}
	if lead.AIScore != nil {
		t.Fatalf("lead should be unscored, got %d", *lead.AIScore)
	}
	if lead.Status != "NEW" {
		t.Fatalf("status = %q, want NEW", lead.Status)
	}
}

func TestCreateWithoutScorer(t *testing.T) {
	svc := newTestService(newFakeRepo(), nil, nil, &recordingBus{})

	lead, _, err := svc.Create(context.Background(), createParams())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if lead.AIScore != nil {
		t.Fatal("lead should be unscored when scoring is disabled")
	}
}

func TestCreateValidationError(t *testing.T) {
	repo := newFakeRepo()
	repo.createErr = repository.ErrMissingField
	svc := newTestService(repo, nil, nil, &recordingBus{})

	_, _, err := svc.Create(context.Background(), repository.CreateLeadParams{})
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSetStatusCaseInsensitive(t *testing.T) {
	repo := newFakeRepo()
	bus := &recordingBus{}
	svc := newTestService(repo, nil, nil, bus)

	lead, _, err := svc.Create(context.Background(), createParams())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	updated, err := svc.SetStatus(context.Background(), lead.ID, "qualified")
	if err != nil {
		t.Fatalf("SetStatus returned error: %v", err)
	}
	if updated.Status != "QUALIFIED" {
		t.Fatalf("status = %q, want QUALIFIED", updated.Status)
	}

	var changed *events.LeadStatusChanged
	for _, event := range bus.published {
		if e, ok := event.(events.LeadStatusChanged); ok {
			changed = &e
		}
	}
	if changed == nil {
		t.Fatal("LeadStatusChanged not published")
	}
	if changed.OldStatus != "NEW" || changed.NewStatus != "QUALIFIED" {
		t.Fatalf("event transition %s -> %s", changed.OldStatus, changed.NewStatus)
	}
}

func TestSetStatusInvalid(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, nil, nil, &recordingBus{})

	lead, _, err := svc.Create(context.Background(), createParams())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	_, err = svc.SetStatus(context.Background(), lead.ID, "ARCHIVED")
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	// Stored status must be untouched.
	stored, _ := repo.GetByID(context.Background(), lead.ID)
	if stored.Status != "NEW" {
		t.Fatalf("status mutated to %q", stored.Status)
	}
}

func TestSetStatusUnknownLead(t *testing.T) {
	svc := newTestService(newFakeRepo(), nil, nil, &recordingBus{})

	_, err := svc.SetStatus(context.Background(), uuid.New(), "CONTACTED")
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestListDefaults(t *testing.T) {
	svc := newTestService(newFakeRepo(), nil, nil, &recordingBus{})

	page, err := svc.List(context.Background(), ListQuery{})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if page.Page != 1 || page.Limit != 10 {
		t.Fatalf("defaults page=%d limit=%d, want 1/10", page.Page, page.Limit)
	}
}

func TestListTotalPages(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, nil, nil, &recordingBus{})
	for i := 0; i < 11; i++ {
		if _, _, err := svc.Create(context.Background(), createParams()); err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
	}

	page, err := svc.List(context.Background(), ListQuery{Limit: 10})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if page.Total != 11 || page.TotalPages != 2 {
		t.Fatalf("total=%d totalPages=%d, want 11/2", page.Total, page.TotalPages)
	}
}

func TestDeleteBestEffortBlobCleanup(t *testing.T) {
	repo := newFakeRepo()
	blobs := &fakeBlobs{deleteErr: errors.New("storage down")}
	bus := &recordingBus{}
	svc := newTestService(repo, nil, blobs, bus)

	lead, _, err := svc.Create(context.Background(), createParams())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := repo.CreateFile(context.Background(), repository.CreateFileParams{
		LeadID: lead.ID, FileName: "brief.pdf", FileKey: lead.ID.String() + "/brief.pdf",
		ContentType: "application/pdf", SizeBytes: 1024,
	}); err != nil {
		t.Fatalf("CreateFile returned error: %v", err)
	}

	if err := svc.Delete(context.Background(), lead.ID); err != nil {
		t.Fatalf("Delete must not fail on blob errors, got %v", err)
	}
	if _, err := repo.GetByID(context.Background(), lead.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatal("lead row still present")
	}
	if len(blobs.deletes) != 1 {
		t.Fatalf("blob deletes = %d, want 1", len(blobs.deletes))
	}

	var deleted *events.LeadDeleted
	for _, event := range bus.published {
		if e, ok := event.(events.LeadDeleted); ok {
			deleted = &e
		}
	}
	if deleted == nil || deleted.FileCount != 1 {
		t.Fatalf("LeadDeleted event missing or wrong file count: %+v", deleted)
	}
}

func TestUploadFileRejectsDisallowedType(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, nil, &fakeBlobs{}, &recordingBus{})

	lead, _, err := svc.Create(context.Background(), createParams())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	_, err = svc.UploadFile(context.Background(), UploadFileParams{
		LeadID:      lead.ID,
		FileName:    "malware.exe",
		ContentType: "application/x-msdownload",
		SizeBytes:   100,
		Reader:      strings.NewReader("x"),
	})
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUploadFileRejectsOversize(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, nil, &fakeBlobs{}, &recordingBus{})

	lead, _, err := svc.Create(context.Background(), createParams())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	_, err = svc.UploadFile(context.Background(), UploadFileParams{
		LeadID:      lead.ID,
		FileName:    "big.pdf",
		ContentType: "application/pdf",
		SizeBytes:   10 << 20,
		MaxBytes:    5 << 20,
		Reader:      strings.NewReader("x"),
	})
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUploadFileStoresBlobAndRow(t *testing.T) {
	repo := newFakeRepo()
	blobs := &fakeBlobs{}
	svc := newTestService(repo, nil, blobs, &recordingBus{})

	lead, _, err := svc.Create(context.Background(), createParams())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	file, err := svc.UploadFile(context.Background(), UploadFileParams{
		LeadID:      lead.ID,
		FileName:    "brief.pdf",
		ContentType: "application/pdf",
		SizeBytes:   2048,
		MaxBytes:    5 << 20,
		Reader:      strings.NewReader("content"),
	})
	if err != nil {
		t.Fatalf("UploadFile returned error: %v", err)
	}
	if len(blobs.uploads) != 1 {
		t.Fatalf("uploads = %d, want 1", len(blobs.uploads))
	}
	if !strings.HasPrefix(file.FileKey, lead.ID.String()+"/") {
		t.Fatalf("file key %q not scoped to lead", file.FileKey)
	}
	if !strings.HasSuffix(file.FileKey, ".pdf") {
		t.Fatalf("file key %q lost the extension", file.FileKey)
	}
}
