package handler

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tealeg/xlsx/v2"

	"leadintake_backend/internal/leads/repository"
	"leadintake_backend/internal/leads/transport"
	"leadintake_backend/platform/httpkit"
)

var exportHeader = []string{
	"ID", "Name", "Email", "Company", "Project Type", "Project Title",
	"Status", "AI Score", "Timeline", "Budget", "Created At",
}

func exportRow(lead repository.Lead) []string {
	score := ""
	if lead.AIScore != nil {
		score = strconv.Itoa(*lead.AIScore)
	}
	return []string{
		lead.ID.String(), lead.Name, lead.Email, lead.Company,
		lead.ProjectType, lead.ProjectTitle, lead.Status, score,
		lead.Timeline, lead.Budget, lead.CreatedAt.Format(time.RFC3339),
	}
}

// Export streams the full filtered set as CSV or XLSX. It accepts the same
// filter and sort parameters as List; pagination does not apply.
func (h *Handler) Export(c *gin.Context) {
	var req transport.ListLeadsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid query parameters", nil)
		return
	}

	leads, err := h.svc.ListAll(c.Request.Context(), req.ToQuery())
	if httpkit.HandleError(c, err) {
		return
	}

	filename := "leads-" + time.Now().Format("2006-01-02")

	switch c.DefaultQuery("format", "csv") {
	case "xlsx":
		h.exportXLSX(c, leads, filename)
	case "csv":
		h.exportCSV(c, leads, filename)
	default:
		httpkit.Error(c, http.StatusBadRequest, "unsupported export format", nil)
	}
}

func (h *Handler) exportCSV(c *gin.Context, leads []repository.Lead, filename string) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename+".csv"))

	w := csv.NewWriter(c.Writer)
	if err := w.Write(exportHeader); err != nil {
		return
	}
	for _, lead := range leads {
		if err := w.Write(exportRow(lead)); err != nil {
			return
		}
	}
	w.Flush()
}

func (h *Handler) exportXLSX(c *gin.Context, leads []repository.Lead, filename string) {
	wb := xlsx.NewFile()
	sheet, err := wb.AddSheet("Leads")
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to build workbook", nil)
		return
	}

	header := sheet.AddRow()
	for _, col := range exportHeader {
		header.AddCell().SetString(col)
	}
	for _, lead := range leads {
		row := sheet.AddRow()
		for _, value := range exportRow(lead) {
			row.AddCell().SetString(value)
		}
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename+".xlsx"))

	if err := wb.Write(c.Writer); err != nil {
		h.log.Error("export_write_failed", "error", err.Error())
	}
}
