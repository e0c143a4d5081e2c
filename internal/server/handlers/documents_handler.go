package handlers

import (
	"fmt"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/hisaab/internal/domain/models"
	"github.com/mamadbah2/hisaab/internal/repository/store"
)

func documentBranch(d *models.Document) *string { return &d.BranchID }

func (h *Handler) ListDocuments(c *gin.Context) {
	listRecords(h, c, h.svc.Documents.List)
}

func (h *Handler) GetDocument(c *gin.Context) {
	getRecord(h, c, h.svc.Documents.Get)
}

// UploadDocument accepts a multipart form with a "file" part and optional
// "category" and "branch_id" fields.
func (h *Handler) UploadDocument(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	doc := models.Document{
		Name:        fh.Filename,
		Category:    c.PostForm("category"),
		BranchID:    c.PostForm("branch_id"),
		ContentType: fh.Header.Get("Content-Type"),
		UploadedBy:  principal(c).UserID,
	}
	if !assignBranch(h, c, &doc, documentBranch) {
		return
	}

	f, err := fh.Open()
	if err != nil {
		h.fail(c, fmt.Errorf("open upload: %w", err))
		return
	}
	defer f.Close()

	created, err := h.svc.Documents.Upload(c.Request.Context(), doc, f)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// DocumentContent streams the stored file.
func (h *Handler) DocumentContent(c *gin.Context) {
	doc, rc, err := h.svc.Documents.Open(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	defer rc.Close()

	if !canSee(c, doc.BranchID) {
		h.fail(c, store.ErrNotFound)
		return
	}
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": doc.Name})
	c.DataFromReader(http.StatusOK, doc.Size, doc.ContentType, rc, map[string]string{"Content-Disposition": disposition})
}

func (h *Handler) DeleteDocument(c *gin.Context) {
	deleteRecord(h, c, h.svc.Documents.Get, h.svc.Documents.Delete)
}
