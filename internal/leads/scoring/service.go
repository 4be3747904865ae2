package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"leadintake_backend/internal/leads/repository"
)

// ErrMalformedResponse means the model replied but the reply could not be
// interpreted. The caller decides whether to fall back or give up.
var ErrMalformedResponse = errors.New("malformed model response")

var scorePattern = regexp.MustCompile(`\b\d{1,3}\b`)

// Insights is the structured assessment parsed from the model. The JSON tags
// match the shape the prompt requests.
type Insights struct {
	Budget                     string   `json:"budget"`
	BudgetReason               string   `json:"budgetReason"`
	Timeline                   string   `json:"timeline"`
	TimelineReason             string   `json:"timelineReason"`
	Scope                      string   `json:"scope"`
	ScopeReason                string   `json:"scopeReason"`
	Requirements               string   `json:"requirements"`
	RequirementsReason         string   `json:"requirementsReason"`
	MarketFit                  string   `json:"marketFit"`
	MarketFitReason            string   `json:"marketFitReason"`
	TechnicalFeasibility       string   `json:"technicalFeasibility"`
	TechnicalFeasibilityReason string   `json:"technicalFeasibilityReason"`
	Recommendation             string   `json:"recommendation"`
	NextSteps                  []string `json:"nextSteps"`
	RiskFactors                []string `json:"riskFactors"`
}

type Service struct {
	generator TextGenerator
	timeout   time.Duration
}

func NewService(generator TextGenerator, timeout time.Duration) *Service {
	return &Service{generator: generator, timeout: timeout}
}

// ScoreSimple runs the plain-text scoring path: the model is asked for a bare
// number and the first run of 1-3 digits in the reply is taken as the score.
// A reply with no digits scores zero rather than failing.
func (s *Service) ScoreSimple(ctx context.Context, lead repository.Lead) (int, string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.generator.Generate(ctx, buildScorePrompt(lead))
	if err != nil {
		return 0, "", err
	}

	score := ExtractScore(text)
	return score, text, nil
}

// ExtractScore pulls the first 1-3 digit token out of model output. Returns 0
// when no digits are present.
func ExtractScore(text string) int {
	match := scorePattern.FindString(text)
	if match == "" {
		return 0
	}
	score, err := strconv.Atoi(match)
	if err != nil {
		return 0
	}
	return score
}

// ScoreStructured runs the insights path: the model returns a JSON assessment
// and the score is computed deterministically from its verdicts. The raw
// model text is returned alongside for the analysis column.
func (s *Service) ScoreStructured(ctx context.Context, lead repository.Lead) (int, string, Insights, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.generator.Generate(ctx, buildInsightsPrompt(lead))
	if err != nil {
		return 0, "", Insights{}, err
	}

	insights, err := parseInsights(text)
	if err != nil {
		return 0, text, Insights{}, err
	}

	return ComputeScore(insights), text, insights, nil
}

// parseInsights decodes the model reply, tolerating a markdown code fence
// around the JSON, and rejects verdicts outside the prompt's vocabulary.
func parseInsights(text string) (Insights, error) {
	raw := stripCodeFence(text)

	var insights Insights
	if err := json.Unmarshal([]byte(raw), &insights); err != nil {
		return Insights{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	quality := map[string]string{
		"budget":       insights.Budget,
		"timeline":     insights.Timeline,
		"scope":        insights.Scope,
		"requirements": insights.Requirements,
	}
	for field, verdict := range quality {
		if verdict != "good" && verdict != "needs_attention" {
			return Insights{}, fmt.Errorf("%w: unexpected %s verdict %q", ErrMalformedResponse, field, verdict)
		}
	}

	level := map[string]string{
		"marketFit":            insights.MarketFit,
		"technicalFeasibility": insights.TechnicalFeasibility,
	}
	for field, verdict := range level {
		if verdict != "high" && verdict != "medium" && verdict != "low" {
			return Insights{}, fmt.Errorf("%w: unexpected %s verdict %q", ErrMalformedResponse, field, verdict)
		}
	}

	return insights, nil
}

func stripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

// ComputeScore maps the six verdicts to points and sums them. Each factor is
// worth 20: the binary verdicts pay 20 or 10, the three-level verdicts pay
// 20, 15, or 10.
func ComputeScore(insights Insights) int {
	score := 0
	for _, verdict := range []string{insights.Budget, insights.Timeline, insights.Scope, insights.Requirements} {
		if verdict == "good" {
			score += 20
		} else {
			score += 10
		}
	}
	for _, verdict := range []string{insights.MarketFit, insights.TechnicalFeasibility} {
		switch verdict {
		case "high":
			score += 20
		case "medium":
			score += 15
		default:
			score += 10
		}
	}
	return score
}

// RecordParams converts parsed insights into the repository's storage shape.
func (i Insights) RecordParams() repository.RecordInsightsParams {
	return repository.RecordInsightsParams{
		BudgetVerdict:               i.Budget,
		BudgetReason:                i.BudgetReason,
		TimelineVerdict:             i.Timeline,
		TimelineReason:              i.TimelineReason,
		ScopeVerdict:                i.Scope,
		ScopeReason:                 i.ScopeReason,
		RequirementsVerdict:         i.Requirements,
		RequirementsReason:          i.RequirementsReason,
		MarketFitVerdict:            i.MarketFit,
		MarketFitReason:             i.MarketFitReason,
		TechnicalFeasibilityVerdict: i.TechnicalFeasibility,
		TechnicalFeasibilityReason:  i.TechnicalFeasibilityReason,
		Recommendation:              i.Recommendation,
		NextSteps:                   i.NextSteps,
		RiskFactors:                 i.RiskFactors,
	}
}
