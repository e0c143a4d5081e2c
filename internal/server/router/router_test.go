package router

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/hisaab/internal/domain/models"
	"github.com/mamadbah2/hisaab/internal/events"
	"github.com/mamadbah2/hisaab/internal/repository/blob"
	"github.com/mamadbah2/hisaab/internal/repository/memory"
	"github.com/mamadbah2/hisaab/internal/server/handlers"
	"github.com/mamadbah2/hisaab/internal/server/middleware"
	"github.com/mamadbah2/hisaab/internal/service/analytics"
	"github.com/mamadbah2/hisaab/internal/service/branches"
	"github.com/mamadbah2/hisaab/internal/service/documents"
	"github.com/mamadbah2/hisaab/internal/service/metrics"
	"github.com/mamadbah2/hisaab/internal/service/records"
	"github.com/mamadbah2/hisaab/internal/service/reporting"
	"github.com/mamadbah2/hisaab/internal/service/vendors"
	"github.com/mamadbah2/hisaab/internal/telemetry"
)

type user struct {
	id       string
	role     string
	branches string
}

var (
	owner   = user{id: "owner-1", role: "owner"}
	cashier = user{id: "cashier-1", role: "sales", branches: "b1"}
	staffer = user{id: "staff-1", role: "staff", branches: "b1"}
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	st := memory.New()
	bus := events.NewBus()

	metricsSvc := metrics.NewService(st, nil)
	t.Cleanup(metricsSvc.Watch(bus))
	analyticsSvc := analytics.NewService(st, "retail", time.UTC, nil)

	h := handlers.New(handlers.Services{
		Records:       records.NewService(st, bus, nil),
		Vendors:       vendors.NewService(st, bus, nil),
		Branches:      branches.NewService(st, bus, nil),
		BranchContext: branches.NewContext(st, bus, nil),
		Metrics:       metricsSvc,
		Analytics:     analyticsSvc,
		Reporting:     reporting.NewService(st, analyticsSvc, nil, time.UTC, nil),
		Documents:     documents.NewService(st, blob.NewMemory(), bus, nil),
	}, nil)

	return New(h, middleware.HeaderAuthenticator{}, telemetry.New(), nil)
}

func do(t *testing.T, r *gin.Engine, u user, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if u.id != "" {
		req.Header.Set(middleware.HeaderUserID, u.id)
		req.Header.Set(middleware.HeaderRole, u.role)
		req.Header.Set(middleware.HeaderBranches, u.branches)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func createBranch(t *testing.T, r *gin.Engine, name string) models.Branch {
	t.Helper()
	w := do(t, r, owner, http.MethodPost, "/api/v1/branches", map[string]any{"name": name, "code": name[:3]})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[models.Branch](t, w)
}

func TestHealthAndMetrics(t *testing.T) {
	r := setupRouter(t)

	w := do(t, r, user{}, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, user{}, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "hisaab_http_requests_total")

	w = do(t, r, user{}, http.MethodGet, "/api/v1/products", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProductLifecycle(t *testing.T) {
	r := setupRouter(t)

	w := do(t, r, owner, http.MethodPost, "/api/v1/products", map[string]any{"name": "Rice", "price": 20, "cost": 12, "stock": 10})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	p := decode[models.Product](t, w)
	assert.NotEmpty(t, p.ID)

	w = do(t, r, owner, http.MethodPost, "/api/v1/products", map[string]any{"name": "Oil", "price": 5, "cost": 8})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	errBody := decode[struct {
		Fields map[string]string `json:"fields"`
	}](t, w)
	assert.Equal(t, "selling price cannot be lower than buying price", errBody.Fields["price"])

	w = do(t, r, owner, http.MethodPut, "/api/v1/products/"+p.ID, map[string]any{"name": "Rice 5kg", "price": 22, "cost": 12, "stock": 10})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Rice 5kg", decode[models.Product](t, w).Name)

	w = do(t, r, owner, http.MethodGet, "/api/v1/products", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Product](t, w), 1)

	w = do(t, r, owner, http.MethodDelete, "/api/v1/products/"+p.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, r, owner, http.MethodGet, "/api/v1/products/"+p.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, owner, http.MethodPost, "/api/v1/products", "not an object")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestModulePermissions(t *testing.T) {
	r := setupRouter(t)

	w := do(t, r, staffer, http.MethodGet, "/api/v1/sales", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, r, staffer, http.MethodGet, "/api/v1/analytics/valuation", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, r, cashier, http.MethodPost, "/api/v1/admin/reconcile", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestBranchScopingAndSelection(t *testing.T) {
	r := setupRouter(t)
	b1 := createBranch(t, r, "Kaloum")
	b2 := createBranch(t, r, "Matoto")
	restricted := user{id: "cashier-2", role: "sales", branches: b1.ID}

	w := do(t, r, owner, http.MethodPost, "/api/v1/customers", map[string]any{"name": "Binta", "branch_id": b1.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = do(t, r, owner, http.MethodPost, "/api/v1/customers", map[string]any{"name": "Alpha", "branch_id": b2.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	other := decode[models.Customer](t, w)

	w = do(t, r, owner, http.MethodGet, "/api/v1/customers?branch=all", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Customer](t, w), 2)

	// A single-branch user is scoped to that branch without choosing.
	w = do(t, r, restricted, http.MethodGet, "/api/v1/customers", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]models.Customer](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, "Binta", list[0].Name)

	w = do(t, r, restricted, http.MethodGet, "/api/v1/customers?branch="+b2.ID, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, r, restricted, http.MethodGet, "/api/v1/customers/"+other.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Records created without a branch land in the caller's branch.
	w = do(t, r, restricted, http.MethodPost, "/api/v1/customers", map[string]any{"name": "Fanta"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, b1.ID, decode[models.Customer](t, w).BranchID)

	w = do(t, r, owner, http.MethodPut, "/api/v1/branches/current", map[string]any{"branch_id": b2.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = do(t, r, owner, http.MethodGet, "/api/v1/branches/current", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), b2.ID)

	w = do(t, r, owner, http.MethodGet, "/api/v1/customers", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list = decode[[]models.Customer](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, "Alpha", list[0].Name)

	w = do(t, r, restricted, http.MethodPut, "/api/v1/branches/current", map[string]any{"branch_id": b2.ID})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestBusinessWideRecordsStayShared(t *testing.T) {
	r := setupRouter(t)
	b1 := createBranch(t, r, "Kaloum")
	b2 := createBranch(t, r, "Matoto")
	restricted := user{id: "cashier-2", role: "sales", branches: b1.ID}

	w := do(t, r, owner, http.MethodPost, "/api/v1/products", map[string]any{"name": "Rice", "price": 20, "cost": 12})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	shared := decode[models.Product](t, w)
	require.Empty(t, shared.BranchID)

	w = do(t, r, owner, http.MethodPost, "/api/v1/products", map[string]any{"name": "Oil", "price": 9, "cost": 5, "branch_id": b2.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Listed in a branch scope because it is readable by id there too.
	w = do(t, r, restricted, http.MethodGet, "/api/v1/products", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]models.Product](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, shared.ID, list[0].ID)

	w = do(t, r, restricted, http.MethodGet, "/api/v1/products/"+shared.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, restricted, http.MethodPut, "/api/v1/products/"+shared.ID, map[string]any{"name": "Rice", "price": 25, "cost": 12})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[models.Product](t, w)
	assert.Equal(t, 25.0, updated.Price)
	assert.Empty(t, updated.BranchID)

	w = do(t, r, owner, http.MethodGet, "/api/v1/products?branch="+b2.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Product](t, w), 2)
}

func TestSaleFlowUpdatesDashboard(t *testing.T) {
	r := setupRouter(t)

	w := do(t, r, owner, http.MethodPost, "/api/v1/products", map[string]any{"name": "Rice", "price": 20, "cost": 12, "stock": 10, "low_stock_threshold": 8})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	p := decode[models.Product](t, w)

	w = do(t, r, owner, http.MethodGet, "/api/v1/dashboard/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0.0, decode[models.BusinessMetrics](t, w).TotalRevenue)

	w = do(t, r, owner, http.MethodPost, "/api/v1/sales", map[string]any{
		"customer_name": "Binta",
		"products":      []map[string]any{{"product_id": p.ID, "quantity": 3, "price": 20}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sale := decode[models.Sale](t, w)
	assert.Equal(t, 60.0, sale.Total)

	// The sale invalidated the cached snapshot.
	w = do(t, r, owner, http.MethodGet, "/api/v1/dashboard/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	m := decode[models.BusinessMetrics](t, w)
	assert.Equal(t, 60.0, m.TotalRevenue)
	assert.Equal(t, 60.0, m.NetRevenue)
	assert.Equal(t, 1, m.TotalSales)
	assert.Equal(t, 1, m.LowStockItems)
	assert.Equal(t, 1, m.CustomerCount)

	w = do(t, r, owner, http.MethodPatch, "/api/v1/sales/"+sale.ID+"/status", map[string]any{"status": "refunded"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, r, owner, http.MethodGet, "/api/v1/dashboard/metrics?refresh=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	m = decode[models.BusinessMetrics](t, w)
	assert.Equal(t, 60.0, m.TotalRevenue)
	assert.Equal(t, 0.0, m.NetRevenue)

	w = do(t, r, owner, http.MethodPatch, "/api/v1/sales/"+sale.ID+"/status", map[string]any{"status": "lost"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, r, owner, http.MethodPost, "/api/v1/admin/reconcile", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestAnalyticsEndpoints(t *testing.T) {
	r := setupRouter(t)

	w := do(t, r, owner, http.MethodGet, "/api/v1/analytics/revenue?period=weekly", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[models.RevenueSeries](t, w).Points, 12)

	w = do(t, r, owner, http.MethodGet, "/api/v1/analytics/revenue?period=hourly", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, owner, http.MethodGet, "/api/v1/analytics/pat?window=quarter", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "quarter", decode[models.PATAnalysis](t, w).Window)

	w = do(t, r, owner, http.MethodGet, "/api/v1/analytics/valuation", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, analytics.ValuationConfidence, decode[models.Valuation](t, w).Confidence)

	for _, kind := range []string{"staff", "clients", "vendors"} {
		w = do(t, r, owner, http.MethodGet, "/api/v1/analytics/rankings/"+kind, nil)
		assert.Equal(t, http.StatusOK, w.Code, kind)
	}
	w = do(t, r, owner, http.MethodGet, "/api/v1/analytics/rankings/planets", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, owner, http.MethodPost, "/api/v1/reports/daily?date=2024-06-20", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "report_2024-06-20_all", decode[models.DailyReport](t, w).ID)

	w = do(t, r, owner, http.MethodGet, "/api/v1/reports/daily", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.DailyReport](t, w), 1)
}

func TestVendorOrders(t *testing.T) {
	r := setupRouter(t)

	w := do(t, r, owner, http.MethodPost, "/api/v1/vendors", map[string]any{"name": "Sonoco", "rating": 4})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	v := decode[models.Vendor](t, w)

	w = do(t, r, owner, http.MethodPost, "/api/v1/vendor-orders", map[string]any{
		"vendor_id": v.ID,
		"items":     []map[string]any{{"name": "Flour", "quantity": 2, "price": 50}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	o := decode[models.VendorOrder](t, w)
	assert.Equal(t, 100.0, o.TotalAmount)

	w = do(t, r, owner, http.MethodPatch, "/api/v1/vendor-orders/"+o.ID+"/status", map[string]any{"status": "delivered"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, r, owner, http.MethodGet, "/api/v1/vendors/"+v.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[models.Vendor](t, w).Performance.DeliveredOrders)

	w = do(t, r, owner, http.MethodGet, "/api/v1/vendor-orders?vendor_id="+v.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.VendorOrder](t, w), 1)

	w = do(t, r, owner, http.MethodDelete, "/api/v1/vendor-orders/"+o.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestDocumentUploadAndDownload(t *testing.T) {
	r := setupRouter(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("category", "receipts"))
	part, err := mw.CreateFormFile("file", "receipt.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("paid in full"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(middleware.HeaderUserID, owner.id)
	req.Header.Set(middleware.HeaderRole, owner.role)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	doc := decode[models.Document](t, w)
	assert.Equal(t, "receipts", doc.Category)
	assert.Equal(t, owner.id, doc.UploadedBy)

	w = do(t, r, owner, http.MethodGet, "/api/v1/documents/"+doc.ID+"/content", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "paid in full", w.Body.String())
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Disposition"), "attachment"))

	w = do(t, r, owner, http.MethodGet, "/api/v1/documents", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Document](t, w), 1)

	w = do(t, r, owner, http.MethodDelete, "/api/v1/documents/"+doc.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, r, owner, http.MethodGet, "/api/v1/documents/"+doc.ID+"/content", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
