package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var leadColumnNames = []string{
	"id", "name", "email", "company", "project_type", "project_title", "description",
	"timeline", "budget", "goals", "phone", "target_audience", "special_requirements",
	"referral_source", "status", "ai_score", "ai_analysis", "created_at", "updated_at",
}

func anyArgs(n int) []interface{} {
	args := make([]interface{}, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func leadRow(id uuid.UUID) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows(leadColumnNames).AddRow(
		id, "Jane Doe", "jane@example.com", "Acme", "web", "Storefront rebuild",
		"Rebuild the store", "3 months", "$30k", "More sales",
		(*string)(nil), (*string)(nil), (*string)(nil), (*string)(nil),
		"NEW", (*int)(nil), (*string)(nil), now, now,
	)
}

func validParams() CreateLeadParams {
	return CreateLeadParams{
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

func TestCreateRejectsMissingRequiredField(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := New(mock)

	params := validParams()
	params.Budget = "   "

	_, err = repo.Create(context.Background(), params)
	require.ErrorIs(t, err, ErrMissingField)
	assert.Contains(t, err.Error(), "budget")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateInsertsLead(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := uuid.New()
	mock.ExpectQuery("INSERT INTO leads").
		WithArgs(anyArgs(13)...).
		WillReturnRows(leadRow(id))

	repo := New(mock)
	lead, err := repo.Create(context.Background(), validParams())
	require.NoError(t, err)
	assert.Equal(t, id, lead.ID)
	assert.Equal(t, "NEW", lead.Status)
	assert.Nil(t, lead.AIScore)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM leads WHERE id").
		WithArgs(pgxmock.AnyArg()).
		WillReturnError(pgx.ErrNoRows)

	repo := New(mock)
	_, err = repo.GetByID(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateStatusNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("UPDATE leads SET status").
		WithArgs(anyArgs(2)...).
		WillReturnError(pgx.ErrNoRows)

	repo := New(mock)
	_, err = repo.UpdateStatus(context.Background(), uuid.New(), "CONTACTED")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM leads").
		WithArgs(pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	repo := New(mock)
	err = repo.Delete(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListCountsBeforePaginating(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	status := "qualified"
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM leads").
		WithArgs(status).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery("SELECT .+ FROM leads").
		WithArgs(status, 10, 0).
		WillReturnRows(leadRow(uuid.New()))

	repo := New(mock)
	leads, total, err := repo.List(context.Background(), ListParams{
		Status: &status,
		Limit:  10,
		Offset: 0,
	})
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	assert.Len(t, leads, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordScoreWithInsightsIsTransactional(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	leadID := uuid.New()
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE leads SET ai_score").
		WithArgs(anyArgs(3)...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("INSERT INTO ai_insights").
		WithArgs(anyArgs(16)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()
	mock.ExpectRollback()

	repo := New(mock)
	err = repo.RecordScoreWithInsights(context.Background(), leadID, 105, "analysis", RecordInsightsParams{
		BudgetVerdict: "good", TimelineVerdict: "needs_attention",
		ScopeVerdict: "good", RequirementsVerdict: "good",
		MarketFitVerdict: "high", TechnicalFeasibilityVerdict: "medium",
		Recommendation: "Proceed",
		NextSteps:      []string{"Schedule a call"},
		RiskFactors:    []string{"Timeline pressure"},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordScoreWithInsightsRollsBackOnUnknownLead(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE leads SET ai_score").
		WithArgs(anyArgs(3)...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	repo := New(mock)
	err = repo.RecordScoreWithInsights(context.Background(), uuid.New(), 80, "analysis", RecordInsightsParams{})
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildLeadListWhere(t *testing.T) {
	status := "NEW"

	where, args, next := buildLeadListWhere(ListParams{})
	assert.Equal(t, "TRUE", where)
	assert.Empty(t, args)
	assert.Equal(t, 1, next)

	where, args, next = buildLeadListWhere(ListParams{Status: &status, Search: "acme"})
	assert.Contains(t, where, "status = UPPER($1)")
	assert.Contains(t, where, "name ILIKE $2")
	assert.Contains(t, where, "project_title ILIKE $2")
	assert.Equal(t, []interface{}{"NEW", "%acme%"}, args)
	assert.Equal(t, 3, next)
}

func TestOrderByClause(t *testing.T) {
	cases := []struct {
		sortBy    string
		sortOrder string
		want      string
	}{
		{"", "", "created_at DESC, id ASC"},
		{"createdAt", "asc", "created_at ASC, id ASC"},
		{"name", "asc", "LOWER(name) ASC, id ASC"},
		{"company", "desc", "LOWER(company) DESC, id ASC"},
		{"aiScore", "desc", "COALESCE(ai_score, 0) DESC, id ASC"},
		{"status", "asc", "(status = 'QUALIFIED') DESC, LOWER(status) ASC, id ASC"},
		{"status", "desc", "(status = 'QUALIFIED') DESC, LOWER(status) DESC, id ASC"},
		{"nonsense", "asc", "created_at ASC, id ASC"},
	}

	for _, tc := range cases {
		got := orderByClause(tc.sortBy, tc.sortOrder)
		assert.Equal(t, tc.want, got, "sortBy=%q sortOrder=%q", tc.sortBy, tc.sortOrder)
	}
}

func TestOrderByClauseRejectsInjection(t *testing.T) {
	// Sort keys are mapped through a fixed table; arbitrary SQL never
	// reaches the ORDER BY clause.
	got := orderByClause("name; DROP TABLE leads", "asc")
	assert.Equal(t, "created_at ASC, id ASC", got)

	got = orderByClause("name", "asc; DROP TABLE leads")
	assert.Equal(t, "LOWER(name) DESC, id ASC", got)
}
