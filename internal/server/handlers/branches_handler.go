package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/hisaab/internal/domain/models"
	"github.com/mamadbah2/hisaab/internal/repository/store"
	"github.com/mamadbah2/hisaab/internal/service/access"
)

type currentBranchRequest struct {
	BranchID string `json:"branch_id"`
}

type currentBranchResponse struct {
	BranchID string `json:"branch_id"`
	All      bool   `json:"all"`
}

// ListBranches returns the branches the caller may see.
func (h *Handler) ListBranches(c *gin.Context) {
	bs, err := h.svc.Branches.List(c.Request.Context(), principal(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	if bs == nil {
		bs = []models.Branch{}
	}
	c.JSON(http.StatusOK, bs)
}

func (h *Handler) GetBranch(c *gin.Context) {
	b, err := h.svc.Branches.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if !principal(c).CanAccessBranch(b.ID) {
		h.fail(c, store.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, b)
}

// Creating, editing and removing branches is reserved to roles that see
// every branch.
func (h *Handler) CreateBranch(c *gin.Context) {
	if !principal(c).Role.SeesAllBranches() {
		h.fail(c, access.ErrForbidden)
		return
	}
	var b models.Branch
	if err := c.ShouldBindJSON(&b); err != nil {
		h.badRequest(c, err)
		return
	}
	created, err := h.svc.Branches.Create(c.Request.Context(), b)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) UpdateBranch(c *gin.Context) {
	if !principal(c).Role.SeesAllBranches() {
		h.fail(c, access.ErrForbidden)
		return
	}
	var b models.Branch
	if err := c.ShouldBindJSON(&b); err != nil {
		h.badRequest(c, err)
		return
	}
	updated, err := h.svc.Branches.Update(c.Request.Context(), c.Param("id"), b)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) DeleteBranch(c *gin.Context) {
	if !principal(c).Role.SeesAllBranches() {
		h.fail(c, access.ErrForbidden)
		return
	}
	if err := h.svc.Branches.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CurrentBranch returns the caller's selected branch.
func (h *Handler) CurrentBranch(c *gin.Context) {
	id, err := h.svc.BranchContext.Current(c.Request.Context(), principal(c).UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, currentBranchResponse{BranchID: id, All: id == ""})
}

// SelectBranch changes the caller's selected branch. "all" or an empty id
// selects every branch.
func (h *Handler) SelectBranch(c *gin.Context) {
	var req currentBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	id := strings.TrimSpace(req.BranchID)
	if strings.EqualFold(id, "all") {
		id = ""
	}
	if err := h.svc.BranchContext.Select(c.Request.Context(), principal(c), id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, currentBranchResponse{BranchID: id, All: id == ""})
}
