package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/hisaab/internal/domain/models"
	"github.com/mamadbah2/hisaab/internal/service/access"
)

// Vendors are shared by every branch.

func (h *Handler) ListVendors(c *gin.Context) {
	vs, err := h.svc.Vendors.ListVendors(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	if vs == nil {
		vs = []models.Vendor{}
	}
	c.JSON(http.StatusOK, vs)
}

func (h *Handler) GetVendor(c *gin.Context) {
	v, err := h.svc.Vendors.GetVendor(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *Handler) CreateVendor(c *gin.Context) {
	var v models.Vendor
	if err := c.ShouldBindJSON(&v); err != nil {
		h.badRequest(c, err)
		return
	}
	created, err := h.svc.Vendors.AddVendor(c.Request.Context(), v)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) UpdateVendor(c *gin.Context) {
	var v models.Vendor
	if err := c.ShouldBindJSON(&v); err != nil {
		h.badRequest(c, err)
		return
	}
	updated, err := h.svc.Vendors.UpdateVendor(c.Request.Context(), c.Param("id"), v)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) DeleteVendor(c *gin.Context) {
	if err := h.svc.Vendors.DeleteVendor(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListVendorOrders accepts ?vendor_id= to narrow to one vendor.
func (h *Handler) ListVendorOrders(c *gin.Context) {
	scope, ok := h.scope(c)
	if !ok {
		return
	}
	orders, err := h.svc.Vendors.ListVendorOrders(c.Request.Context(), access.AllBranches, c.Query("vendor_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, visibleIn(orders, scope))
}

func (h *Handler) GetVendorOrder(c *gin.Context) {
	getRecord(h, c, h.svc.Vendors.GetVendorOrder)
}

func (h *Handler) CreateVendorOrder(c *gin.Context) {
	createRecord(h, c, vendorOrderBranch, h.svc.Vendors.AddVendorOrder)
}

func (h *Handler) UpdateVendorOrderStatus(c *gin.Context) {
	updateStatus(h, c, h.svc.Vendors.GetVendorOrder, h.svc.Vendors.UpdateVendorOrderStatus)
}

func (h *Handler) DeleteVendorOrder(c *gin.Context) {
	deleteRecord(h, c, h.svc.Vendors.GetVendorOrder, h.svc.Vendors.DeleteVendorOrder)
}
