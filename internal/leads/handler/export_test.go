package handler

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"leadintake_backend/internal/leads/repository"
)

func TestExportRow(t *testing.T) {
	score := 85
	created := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	lead := repository.Lead{
		ID:           uuid.MustParse("9f1c2d3e-4b5a-6c7d-8e9f-0a1b2c3d4e5f"),
		Name:         "Jane Doe",
		Email:        "jane@acme.test",
		Company:      "Acme",
		ProjectType:  "web-app",
		ProjectTitle: "Storefront rebuild",
		Status:       "QUALIFIED",
		AIScore:      &score,
		Timeline:     "3 months",
		Budget:       "$50k",
		CreatedAt:    created,
	}

	row := exportRow(lead)
	if len(row) != len(exportHeader) {
		t.Fatalf("row has %d columns, header has %d", len(row), len(exportHeader))
	}
	if row[7] != "85" {
		t.Errorf("score column = %q, want %q", row[7], "85")
	}
	if row[10] != "2026-03-14T09:30:00Z" {
		t.Errorf("created column = %q", row[10])
	}
}

func TestExportRowUnscoredLead(t *testing.T) {
	lead := repository.Lead{ID: uuid.New(), Status: "NEW", CreatedAt: time.Now()}

	row := exportRow(lead)
	if row[7] != "" {
		t.Errorf("score column = %q, want empty for unscored lead", row[7])
	}
}
