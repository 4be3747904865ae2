package scoring

import (
	"strings"
	"testing"
)

func TestLeadDetailsOptionalPlaceholders(t *testing.T) {
	lead := testLead()
	lead.TargetAudience = nil
	lead.SpecialRequirements = nil

	details := leadDetails(lead)
	if !strings.Contains(details, "Target Audience: Not specified") {
		t.Errorf("missing target audience placeholder:\n%s", details)
	}
	if !strings.Contains(details, "Special Requirements: None") {
		t.Errorf("missing special requirements placeholder:\n%s", details)
	}
}

func TestLeadDetailsOptionalValues(t *testing.T) {
	reqs := "WCAG AA compliance"
	lead := testLead()
	lead.SpecialRequirements = &reqs

	details := leadDetails(lead)
	if !strings.Contains(details, "Special Requirements: WCAG AA compliance") {
		t.Errorf("special requirements not embedded:\n%s", details)
	}
	if !strings.Contains(details, "Target Audience: Small retailers") {
		t.Errorf("target audience not embedded:\n%s", details)
	}
}

func TestPromptsAreDeterministic(t *testing.T) {
	lead := testLead()
	if buildScorePrompt(lead) != buildScorePrompt(lead) {
		t.Error("score prompt not deterministic")
	}
	if buildInsightsPrompt(lead) != buildInsightsPrompt(lead) {
		t.Error("insights prompt not deterministic")
	}
}

func TestInsightsPromptContainsSchema(t *testing.T) {
	prompt := buildInsightsPrompt(testLead())
	for _, field := range []string{`"budget"`, `"marketFit"`, `"technicalFeasibility"`, `"nextSteps"`, `"riskFactors"`} {
		if !strings.Contains(prompt, field) {
			t.Errorf("prompt missing schema field %s", field)
		}
	}
}
