package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type AIInsights struct {
	ID                          uuid.UUID
	LeadID                      uuid.UUID
	BudgetVerdict               string
	BudgetReason                string
	TimelineVerdict             string
	TimelineReason              string
	ScopeVerdict                string
	ScopeReason                 string
	RequirementsVerdict         string
	RequirementsReason          string
	MarketFitVerdict            string
	MarketFitReason             string
	TechnicalFeasibilityVerdict string
	TechnicalFeasibilityReason  string
	Recommendation              string
	NextSteps                   []string
	RiskFactors                 []string
	CreatedAt                   time.Time
	UpdatedAt                   time.Time
}

const insightsColumns = `id, lead_id, budget_verdict, budget_reason, timeline_verdict, timeline_reason,
		scope_verdict, scope_reason, requirements_verdict, requirements_reason,
		market_fit_verdict, market_fit_reason, technical_feasibility_verdict, technical_feasibility_reason,
		recommendation, next_steps, risk_factors, created_at, updated_at`

func scanInsights(row pgx.Row) (AIInsights, error) {
	var ins AIInsights
	err := row.Scan(
		&ins.ID, &ins.LeadID,
		&ins.BudgetVerdict, &ins.BudgetReason,
		&ins.TimelineVerdict, &ins.TimelineReason,
		&ins.ScopeVerdict, &ins.ScopeReason,
		&ins.RequirementsVerdict, &ins.RequirementsReason,
		&ins.MarketFitVerdict, &ins.MarketFitReason,
		&ins.TechnicalFeasibilityVerdict, &ins.TechnicalFeasibilityReason,
		&ins.Recommendation, &ins.NextSteps, &ins.RiskFactors,
		&ins.CreatedAt, &ins.UpdatedAt,
	)
	return ins, err
}

func (r *Repository) GetInsightsByLeadID(ctx context.Context, leadID uuid.UUID) (AIInsights, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+insightsColumns+` FROM ai_insights WHERE lead_id = $1`, leadID)
	ins, err := scanInsights(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return AIInsights{}, ErrNotFound
	}
	return ins, err
}

// RecordScore stores a score and analysis text from the plain-text scoring
// path, which produces no structured insights.
func (r *Repository) RecordScore(ctx context.Context, leadID uuid.UUID, score int, analysis string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads SET ai_score = $2, ai_analysis = $3, updated_at = NOW()
		WHERE id = $1
	`, leadID, score, analysis)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type RecordInsightsParams struct {
	BudgetVerdict               string
	BudgetReason                string
	TimelineVerdict             string
	TimelineReason              string
	ScopeVerdict                string
	ScopeReason                 string
	RequirementsVerdict         string
	RequirementsReason          string
	MarketFitVerdict            string
	MarketFitReason             string
	TechnicalFeasibilityVerdict string
	TechnicalFeasibilityReason  string
	Recommendation              string
	NextSteps                   []string
	RiskFactors                 []string
}

// RecordScoreWithInsights stores the computed score on the lead and upserts
// the structured insights row in a single transaction. A rescore replaces the
// previous insights; a lead never has more than one insights row.
func (r *Repository) RecordScoreWithInsights(ctx context.Context, leadID uuid.UUID, score int, analysis string, params RecordInsightsParams) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE leads SET ai_score = $2, ai_analysis = $3, updated_at = NOW()
		WHERE id = $1
	`, leadID, score, analysis)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO ai_insights (
			lead_id, budget_verdict, budget_reason, timeline_verdict, timeline_reason,
			scope_verdict, scope_reason, requirements_verdict, requirements_reason,
			market_fit_verdict, market_fit_reason, technical_feasibility_verdict, technical_feasibility_reason,
			recommendation, next_steps, risk_factors
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (lead_id) DO UPDATE SET
			budget_verdict = EXCLUDED.budget_verdict,
			budget_reason = EXCLUDED.budget_reason,
			timeline_verdict = EXCLUDED.timeline_verdict,
			timeline_reason = EXCLUDED.timeline_reason,
			scope_verdict = EXCLUDED.scope_verdict,
			scope_reason = EXCLUDED.scope_reason,
			requirements_verdict = EXCLUDED.requirements_verdict,
			requirements_reason = EXCLUDED.requirements_reason,
			market_fit_verdict = EXCLUDED.market_fit_verdict,
			market_fit_reason = EXCLUDED.market_fit_reason,
			technical_feasibility_verdict = EXCLUDED.technical_feasibility_verdict,
			technical_feasibility_reason = EXCLUDED.technical_feasibility_reason,
			recommendation = EXCLUDED.recommendation,
			next_steps = EXCLUDED.next_steps,
			risk_factors = EXCLUDED.risk_factors,
			updated_at = NOW()
	`,
		leadID,
		params.BudgetVerdict, params.BudgetReason,
		params.TimelineVerdict, params.TimelineReason,
		params.ScopeVerdict, params.ScopeReason,
		params.RequirementsVerdict, params.RequirementsReason,
		params.MarketFitVerdict, params.MarketFitReason,
		params.TechnicalFeasibilityVerdict, params.TechnicalFeasibilityReason,
		params.Recommendation, params.NextSteps, params.RiskFactors,
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}
