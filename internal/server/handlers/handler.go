package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/hisaab/internal/domain/models"
	"github.com/mamadbah2/hisaab/internal/repository/store"
	"github.com/mamadbah2/hisaab/internal/server/middleware"
	"github.com/mamadbah2/hisaab/internal/service/access"
	"github.com/mamadbah2/hisaab/internal/service/analytics"
	"github.com/mamadbah2/hisaab/internal/service/branches"
	"github.com/mamadbah2/hisaab/internal/service/documents"
	"github.com/mamadbah2/hisaab/internal/service/metrics"
	"github.com/mamadbah2/hisaab/internal/service/records"
	"github.com/mamadbah2/hisaab/internal/service/reporting"
	"github.com/mamadbah2/hisaab/internal/service/vendors"
)

// Services bundles everything the HTTP layer calls into.
type Services struct {
	Records       *records.Service
	Vendors       *vendors.Service
	Branches      *branches.Service
	BranchContext *branches.Context
	Metrics       *metrics.Service
	Analytics     *analytics.Service
	Reporting     *reporting.Service
	Documents     *documents.Service
}

// Handler adapts the services to gin.
type Handler struct {
	svc    Services
	logger *zap.Logger
}

// New constructs the HTTP handler adapter.
func New(svc Services, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// fail maps err onto a status code and writes the JSON error body.
func (h *Handler) fail(c *gin.Context, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "fields": verr.Fields})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, access.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, access.ErrBranchRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "select a branch"})
	case errors.Is(err, analytics.ErrUnknownPeriod), errors.Is(err, analytics.ErrUnknownWindow):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h *Handler) badRequest(c *gin.Context, err error) {
	h.logger.Debug("invalid request body", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
}

func principal(c *gin.Context) access.Principal {
	p, _ := middleware.PrincipalFrom(c)
	return p
}

// scope resolves the ?branch= parameter against the caller's current
// branch. It writes the error response and returns false on failure.
func (h *Handler) scope(c *gin.Context) (access.Scope, bool) {
	scope, err := h.svc.BranchContext.Scope(c.Request.Context(), principal(c), c.Query("branch"))
	if err != nil {
		h.fail(c, err)
		return access.Scope{}, false
	}
	return scope, true
}

// canSee reports whether the caller may read a record of branchID. Records
// without a branch belong to the whole business.
func canSee(c *gin.Context, branchID string) bool {
	return branchID == "" || principal(c).CanAccessBranch(branchID)
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
