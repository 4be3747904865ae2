package scoring

import (
	"fmt"

	"leadintake_backend/internal/leads/repository"
)

// orDefault substitutes a placeholder for absent optional fields so the
// prompt never contains the word "null".
func orDefault(v *string, placeholder string) string {
	if v == nil || *v == "" {
		return placeholder
	}
	return *v
}

func leadDetails(lead repository.Lead) string {
	return fmt.Sprintf(`Lead details:
Name: %s
Company: %s
Project Type: %s
Project Title: %s
Description: %s
Timeline: %s
Budget: %s
Goals: %s
Target Audience: %s
Special Requirements: %s`,
		lead.Name, lead.Company, lead.ProjectType, lead.ProjectTitle,
		lead.Description, lead.Timeline, lead.Budget, lead.Goals,
		orDefault(lead.TargetAudience, "Not specified"),
		orDefault(lead.SpecialRequirements, "None"),
	)
}

// buildScorePrompt asks for a bare 0-100 number.
func buildScorePrompt(lead repository.Lead) string {
	return fmt.Sprintf(`Analyze this lead and provide a score between 0-100 based on the following criteria:
1. Project completeness (20 points)
2. Budget clarity (20 points)
3. Timeline feasibility (20 points)
4. Project scope (20 points)
5. Business potential (20 points)

%s

Please provide a single number between 0-100 as the score.`, leadDetails(lead))
}

// buildInsightsPrompt asks for the structured JSON assessment. The verdict
// vocabulary here must match what parseInsights accepts.
func buildInsightsPrompt(lead repository.Lead) string {
	return fmt.Sprintf(`Analyze this lead and provide detailed insights in JSON format with the following structure:
{
  "budget": "good" or "needs_attention",
  "budgetReason": "Detailed explanation",
  "timeline": "good" or "needs_attention",
  "timelineReason": "Detailed explanation",
  "scope": "good" or "needs_attention",
  "scopeReason": "Detailed explanation",
  "requirements": "good" or "needs_attention",
  "requirementsReason": "Detailed explanation",
  "marketFit": "high", "medium", or "low",
  "marketFitReason": "Detailed explanation",
  "technicalFeasibility": "high", "medium", or "low",
  "technicalFeasibilityReason": "Detailed explanation",
  "recommendation": "Overall recommendation",
  "nextSteps": ["List of recommended next steps"],
  "riskFactors": ["List of potential risks"]
}

%s`, leadDetails(lead))
}
