package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"libradesk/internal/core/analytics"
	"libradesk/internal/core/services"
	"libradesk/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// maxReportDays bounds the lookback window accepted from clients
const maxReportDays = 3650

// ReportHandler handles report endpoints
type ReportHandler struct {
	reports services.ReportReader
}

// NewReportHandler creates a new report handler
func NewReportHandler(reports services.ReportReader) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// parseReportQuery reads days, limit, branch, max_borrows and now.
// now accepts any date shape CoerceDate understands, including epoch milliseconds.
func parseReportQuery(c *fiber.Ctx) (services.ReportQuery, error) {
	var q services.ReportQuery
	var err error

	if q.Days, err = queryCount(c, "days", maxReportDays); err != nil {
		return q, err
	}
	if q.Limit, err = queryCount(c, "limit", 1000); err != nil {
		return q, err
	}
	if q.MaxBorrows, err = queryCount(c, "max_borrows", 1000); err != nil {
		return q, err
	}
	q.Branch = strings.TrimSpace(c.Query("branch"))

	if raw := strings.TrimSpace(c.Query("now")); raw != "" {
		var v any = raw
		if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
			v = ms
		}
		now, ok := analytics.CoerceDate(v)
		if !ok {
			return q, fmt.Errorf("now: cannot read %q as a date", raw)
		}
		// reports echo now back as JSON, which only encodes four digit years
		if now.Year() < 1 || now.Year() > 9999 {
			return q, fmt.Errorf("now: %q is outside years 1 to 9999", raw)
		}
		q.Now = now
	}
	return q, nil
}

func queryCount(c *fiber.Ctx, name string, max int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || n > max {
		return 0, fmt.Errorf("%s must be a whole number between 0 and %d", name, max)
	}
	return n, nil
}

// serve runs one report builder with the parsed query
func serve[T any](c *fiber.Ctx, name string, build func(context.Context, services.ReportQuery) (T, error)) error {
	q, err := parseReportQuery(c)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	report, err := build(c.Context(), q)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return response.Error(c, fiber.StatusServiceUnavailable, "Report timed out")
		}
		return fail(c, err, "Failed to build "+name+" report")
	}

	return response.Success(c, "Report generated successfully", report)
}

// TopBorrowers ranks members by loans in the window
// @Summary Top borrowers
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param days query int false "Lookback days"
// @Param limit query int false "Max rows"
// @Param now query string false "Reference instant (RFC3339, date or epoch ms)"
// @Success 200 {object} response.Response{data=analytics.TopBorrowersReport}
// @Failure 400 {object} response.Response
// @Router /reports/top-borrowers [get]
func (h *ReportHandler) TopBorrowers(c *fiber.Ctx) error {
	return serve(c, "top borrowers", h.reports.TopBorrowers)
}

// GenreTrends compares genre demand with the previous window
// @Summary Genre trends
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param days query int false "Window days"
// @Param limit query int false "Max rows"
// @Param now query string false "Reference instant"
// @Success 200 {object} response.Response{data=analytics.GenreTrendsReport}
// @Failure 400 {object} response.Response
// @Router /reports/genre-trends [get]
func (h *ReportHandler) GenreTrends(c *fiber.Ctx) error {
	return serve(c, "genre trends", h.reports.GenreTrends)
}

// Underutilized lists idle books
// @Summary Underutilized books
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param days query int false "Lookback days"
// @Param max_borrows query int false "Highest borrow count still considered idle"
// @Param limit query int false "Max rows"
// @Param now query string false "Reference instant"
// @Success 200 {object} response.Response{data=analytics.UnderutilizedReport}
// @Failure 400 {object} response.Response
// @Router /reports/underutilized [get]
func (h *ReportHandler) Underutilized(c *fiber.Ctx) error {
	return serve(c, "underutilized", h.reports.Underutilized)
}

// Fines prices overdue loans
// @Summary Outstanding fines
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param now query string false "Reference instant"
// @Success 200 {object} response.Response{data=analytics.FinesReport}
// @Failure 400 {object} response.Response
// @Router /reports/fines [get]
func (h *ReportHandler) Fines(c *fiber.Ctx) error {
	return serve(c, "fines", h.reports.Fines)
}

// Usage returns the hourly and weekday visit histogram
// @Summary Gate usage
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param days query int false "Lookback days"
// @Param branch query string false "Branch"
// @Param now query string false "Reference instant"
// @Success 200 {object} response.Response{data=services.UsageReport}
// @Failure 400 {object} response.Response
// @Router /reports/usage [get]
func (h *ReportHandler) Usage(c *fiber.Ctx) error {
	return serve(c, "usage", h.reports.Usage)
}

// Staffing recommends desk staffing from visit patterns
// @Summary Staffing recommendations
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param days query int false "Lookback days"
// @Param branch query string false "Branch"
// @Param limit query int false "Max peak hours"
// @Param now query string false "Reference instant"
// @Success 200 {object} response.Response{data=analytics.StaffingReport}
// @Failure 400 {object} response.Response
// @Router /reports/staffing [get]
func (h *ReportHandler) Staffing(c *fiber.Ctx) error {
	return serve(c, "staffing", h.reports.Staffing)
}

// Summary returns the desk overview
// @Summary Summary
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param days query int false "Lookback days"
// @Param branch query string false "Branch for visit counts"
// @Param now query string false "Reference instant"
// @Success 200 {object} response.Response{data=services.Summary}
// @Failure 400 {object} response.Response
// @Router /reports/summary [get]
func (h *ReportHandler) Summary(c *fiber.Ctx) error {
	return serve(c, "summary", h.reports.Summary)
}
