// Package transport defines the request and response shapes of the leads API.
package transport

import (
	"time"

	"github.com/google/uuid"

	"leadintake_backend/internal/leads/repository"
	"leadintake_backend/internal/leads/service"
)

type CreateLeadRequest struct {
	Name                string  `json:"name" validate:"required"`
	Email               string  `json:"email" validate:"required,email"`
	Company             string  `json:"company" validate:"required"`
	ProjectType         string  `json:"projectType" validate:"required"`
	ProjectTitle        string  `json:"projectTitle" validate:"required"`
	Description         string  `json:"description" validate:"required"`
	Timeline            string  `json:"timeline" validate:"required"`
	Budget              string  `json:"budget" validate:"required"`
	Goals               string  `json:"goals" validate:"required"`
	Phone               *string `json:"phone,omitempty"`
	TargetAudience      *string `json:"targetAudience,omitempty"`
	SpecialRequirements *string `json:"specialRequirements,omitempty"`
	ReferralSource      *string `json:"referralSource,omitempty"`
}

func (r CreateLeadRequest) ToParams() repository.CreateLeadParams {
	return repository.CreateLeadParams{
		Name:                r.Name,
		Email:               r.Email,
		Company:             r.Company,
		ProjectType:         r.ProjectType,
		ProjectTitle:        r.ProjectTitle,
		Description:         r.Description,
		Timeline:            r.Timeline,
		Budget:              r.Budget,
		Goals:               r.Goals,
		Phone:               r.Phone,
		TargetAudience:      r.TargetAudience,
		SpecialRequirements: r.SpecialRequirements,
		ReferralSource:      r.ReferralSource,
	}
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type ListLeadsRequest struct {
	Status    string `form:"status"`
	Search    string `form:"search"`
	SortBy    string `form:"sortBy"`
	SortOrder string `form:"sortOrder"`
	Page      int    `form:"page"`
	Limit     int    `form:"limit"`
}

func (r ListLeadsRequest) ToQuery() service.ListQuery {
	return service.ListQuery{
		Status:    r.Status,
		Search:    r.Search,
		SortBy:    r.SortBy,
		SortOrder: r.SortOrder,
		Page:      r.Page,
		Limit:     r.Limit,
	}
}

type LeadResponse struct {
	ID                  uuid.UUID         `json:"id"`
	Name                string            `json:"name"`
	Email               string            `json:"email"`
	Company             string            `json:"company"`
	ProjectType         string            `json:"projectType"`
	ProjectTitle        string            `json:"projectTitle"`
	Description         string            `json:"description"`
	Timeline            string            `json:"timeline"`
	Budget              string            `json:"budget"`
	Goals               string            `json:"goals"`
	Phone               *string           `json:"phone"`
	TargetAudience      *string           `json:"targetAudience"`
	SpecialRequirements *string           `json:"specialRequirements"`
	ReferralSource      *string           `json:"referralSource"`
	Status              string            `json:"status"`
	AIScore             *int              `json:"aiScore"`
	AIAnalysis          *string           `json:"aiAnalysis"`
	CreatedAt           time.Time         `json:"createdAt"`
	UpdatedAt           time.Time         `json:"updatedAt"`
	Files               []FileResponse    `json:"files,omitempty"`
	AIInsights          *InsightsResponse `json:"aiInsights,omitempty"`
}

type FileResponse struct {
	ID          uuid.UUID `json:"id"`
	LeadID      uuid.UUID `json:"leadId"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	SizeBytes   int64     `json:"sizeBytes"`
	CreatedAt   time.Time `json:"createdAt"`
}

type InsightsResponse struct {
	Budget                     string    `json:"budget"`
	BudgetReason               string    `json:"budgetReason"`
	Timeline                   string    `json:"timeline"`
	TimelineReason             string    `json:"timelineReason"`
	Scope                      string    `json:"scope"`
	ScopeReason                string    `json:"scopeReason"`
	Requirements               string    `json:"requirements"`
	RequirementsReason         string    `json:"requirementsReason"`
	MarketFit                  string    `json:"marketFit"`
	MarketFitReason            string    `json:"marketFitReason"`
	TechnicalFeasibility       string    `json:"technicalFeasibility"`
	TechnicalFeasibilityReason string    `json:"technicalFeasibilityReason"`
	Recommendation             string    `json:"recommendation"`
	NextSteps                  []string  `json:"nextSteps"`
	RiskFactors                []string  `json:"riskFactors"`
	UpdatedAt                  time.Time `json:"updatedAt"`
}

type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

type ListLeadsResponse struct {
	Items      []LeadResponse `json:"items"`
	Pagination Pagination     `json:"pagination"`
}

func ToLeadResponse(lead repository.Lead) LeadResponse {
	return LeadResponse{
		ID:                  lead.ID,
		Name:                lead.Name,
		Email:               lead.Email,
		Company:             lead.Company,
		ProjectType:         lead.ProjectType,
		ProjectTitle:        lead.ProjectTitle,
		Description:         lead.Description,
		Timeline:            lead.Timeline,
		Budget:              lead.Budget,
		Goals:               lead.Goals,
		Phone:               lead.Phone,
		TargetAudience:      lead.TargetAudience,
		SpecialRequirements: lead.SpecialRequirements,
		ReferralSource:      lead.ReferralSource,
		Status:              lead.Status,
		AIScore:             lead.AIScore,
		AIAnalysis:          lead.AIAnalysis,
		CreatedAt:           lead.CreatedAt,
		UpdatedAt:           lead.UpdatedAt,
	}
}

func ToLeadDetailResponse(lead repository.Lead, files []repository.File, insights *repository.AIInsights) LeadResponse {
	resp := ToLeadResponse(lead)
	resp.Files = ToFileResponses(files)
	if insights != nil {
		ins := ToInsightsResponse(*insights)
		resp.AIInsights = &ins
	}
	return resp
}

func ToFileResponse(f repository.File) FileResponse {
	return FileResponse{
		ID:          f.ID,
		LeadID:      f.LeadID,
		FileName:    f.FileName,
		ContentType: f.ContentType,
		SizeBytes:   f.SizeBytes,
		CreatedAt:   f.CreatedAt,
	}
}

func ToFileResponses(files []repository.File) []FileResponse {
	out := make([]FileResponse, 0, len(files))
	for _, f := range files {
		out = append(out, ToFileResponse(f))
	}
	return out
}

func ToInsightsResponse(ins repository.AIInsights) InsightsResponse {
	return InsightsResponse{
		Budget:                     ins.BudgetVerdict,
		BudgetReason:               ins.BudgetReason,
		Timeline:                   ins.TimelineVerdict,
		TimelineReason:             ins.TimelineReason,
		Scope:                      ins.ScopeVerdict,
		ScopeReason:                ins.ScopeReason,
		Requirements:               ins.RequirementsVerdict,
		RequirementsReason:         ins.RequirementsReason,
		MarketFit:                  ins.MarketFitVerdict,
		MarketFitReason:            ins.MarketFitReason,
		TechnicalFeasibility:       ins.TechnicalFeasibilityVerdict,
		TechnicalFeasibilityReason: ins.TechnicalFeasibilityReason,
		Recommendation:             ins.Recommendation,
		NextSteps:                  ins.NextSteps,
		RiskFactors:                ins.RiskFactors,
		UpdatedAt:                  ins.UpdatedAt,
	}
}

func ToListLeadsResponse(page service.Page) ListLeadsResponse {
	items := make([]LeadResponse, 0, len(page.Leads))
	for _, lead := range page.Leads {
		items = append(items, ToLeadResponse(lead))
	}
	return ListLeadsResponse{
		Items: items,
		Pagination: Pagination{
			Total:      page.Total,
			Page:       page.Page,
			Limit:      page.Limit,
			TotalPages: page.TotalPages,
		},
	}
}
