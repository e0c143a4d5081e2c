package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/hisaab/internal/repository/store"
	"github.com/mamadbah2/hisaab/internal/service/access"
)

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

// listRecords lists what the request scope covers. Records without a branch
// belong to the whole business and are listed in every branch, matching
// what canSee allows by id.
func listRecords[T access.Branched](h *Handler, c *gin.Context, list func(context.Context, access.Scope) ([]T, error)) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	items, err := list(c.Request.Context(), access.AllBranches)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, visibleIn(items, scope))
}

func visibleIn[T access.Branched](items []T, scope access.Scope) []T {
	if scope.All() {
		if items == nil {
			return []T{}
		}
		return items
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		if b := item.Branch(); b == "" || b == scope.BranchID {
			out = append(out, item)
		}
	}
	return out
}

func getRecord[T access.Branched](h *Handler, c *gin.Context, get func(context.Context, string) (T, error)) {
	rec, err := get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if !canSee(c, rec.Branch()) {
		h.fail(c, store.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// assignBranch defaults an empty branch to the request scope and checks the
// caller may write to the result.
func assignBranch[T any](h *Handler, c *gin.Context, rec *T, field func(*T) *string) bool {
	b := field(rec)
	if *b == "" {
		scope, ok := h.scope(c)
		if !ok {
			return false
		}
		*b = scope.BranchID
	}
	if !canSee(c, *b) {
		h.fail(c, access.ErrForbidden)
		return false
	}
	return true
}

func createRecord[T any](h *Handler, c *gin.Context, field func(*T) *string, create func(context.Context, T) (T, error)) {
	var rec T
	if err := c.ShouldBindJSON(&rec); err != nil {
		h.badRequest(c, err)
		return
	}
	if !assignBranch(h, c, &rec, field) {
		return
	}
	created, err := create(c.Request.Context(), rec)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func updateRecord[T access.Branched](
	h *Handler,
	c *gin.Context,
	field func(*T) *string,
	get func(context.Context, string) (T, error),
	update func(context.Context, string, T) (T, error),
) {
	id := c.Param("id")
	existing, err := get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !canSee(c, existing.Branch()) {
		h.fail(c, store.ErrNotFound)
		return
	}

	var rec T
	if err := c.ShouldBindJSON(&rec); err != nil {
		h.badRequest(c, err)
		return
	}
	// An omitted branch keeps the record where it is, business-wide included.
	b := field(&rec)
	if *b == "" {
		*b = existing.Branch()
	}
	if !canSee(c, *b) {
		h.fail(c, access.ErrForbidden)
		return
	}
	updated, err := update(c.Request.Context(), id, rec)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func deleteRecord[T access.Branched](h *Handler, c *gin.Context, get func(context.Context, string) (T, error), del func(context.Context, string) error) {
	id := c.Param("id")
	existing, err := get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !canSee(c, existing.Branch()) {
		h.fail(c, store.ErrNotFound)
		return
	}
	if err := del(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func updateStatus[T access.Branched, S ~string](
	h *Handler,
	c *gin.Context,
	get func(context.Context, string) (T, error),
	set func(context.Context, string, S) (T, error),
) {
	id := c.Param("id")
	existing, err := get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if !canSee(c, existing.Branch()) {
		h.fail(c, store.ErrNotFound)
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}
	updated, err := set(c.Request.Context(), id, S(req.Status))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
