package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/hisaab/internal/domain/models"
	"github.com/mamadbah2/hisaab/internal/service/access"
	"github.com/mamadbah2/hisaab/internal/service/analytics"
)

// DashboardMetrics serves the business metrics snapshot. ?refresh=true
// bypasses the cache.
func (h *Handler) DashboardMetrics(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	refresh, _ := strconv.ParseBool(c.Query("refresh"))

	var (
		m   models.BusinessMetrics
		err error
	)
	if refresh {
		m, err = h.svc.Metrics.Recalculate(c.Request.Context(), scope)
	} else {
		m, err = h.svc.Metrics.GetBusinessMetrics(c.Request.Context(), scope)
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handler) RevenueSeries(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	period := analytics.Period(c.DefaultQuery("period", string(analytics.PeriodMonthly)))
	series, err := h.svc.Analytics.RevenueSeries(c.Request.Context(), scope, period)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, series)
}

func (h *Handler) PAT(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	window := analytics.Window(c.DefaultQuery("window", string(analytics.WindowMonth)))
	pat, err := h.svc.Analytics.PAT(c.Request.Context(), scope, window)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, pat)
}

func (h *Handler) Valuation(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	v, err := h.svc.Analytics.Valuation(c.Request.Context(), scope)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// Rankings serves /analytics/rankings/:kind for staff, clients or vendors.
func (h *Handler) Rankings(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}

	var (
		rs  []models.Ranking
		err error
	)
	switch c.Param("kind") {
	case "staff":
		rs, err = h.svc.Analytics.StaffRankings(c.Request.Context(), scope)
	case "clients":
		rs, err = h.svc.Analytics.ClientRankings(c.Request.Context(), scope)
	case "vendors":
		rs, err = h.svc.Analytics.VendorRankings(c.Request.Context(), scope)
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown ranking"})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	if rs == nil {
		rs = []models.Ranking{}
	}
	c.JSON(http.StatusOK, rs)
}

// Reconcile rebuilds customer and staff counters on demand.
func (h *Handler) Reconcile(c *gin.Context) {
	if !principal(c).Role.SeesAllBranches() {
		h.fail(c, access.ErrForbidden)
		return
	}
	report, err := h.svc.Records.Reconcile(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// ListDailyReports lists the snapshots of the request scope only; an
// all-branches snapshot is not a shared record.
func (h *Handler) ListDailyReports(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	reports, err := h.svc.Reporting.ListDailyReports(c.Request.Context(), scope)
	if err != nil {
		h.fail(c, err)
		return
	}
	if reports == nil {
		reports = []models.DailyReport{}
	}
	c.JSON(http.StatusOK, reports)
}

// BuildDailyReport snapshots ?date=YYYY-MM-DD, today when absent.
func (h *Handler) BuildDailyReport(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	day := time.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := h.svc.Reporting.ParseDay(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		day = parsed
	}
	report, err := h.svc.Reporting.BuildDailyReport(c.Request.Context(), day, scope)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, report)
}
