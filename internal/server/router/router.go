package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/hisaab/internal/server/handlers"
	"github.com/mamadbah2/hisaab/internal/server/middleware"
	"github.com/mamadbah2/hisaab/internal/service/access"
	"github.com/mamadbah2/hisaab/internal/telemetry"
)

// New wires the Gin engine with required routes and middlewares.
func New(h *handlers.Handler, auth middleware.Authenticator, metrics *telemetry.Metrics, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics(metrics))

	r.GET("/healthz", h.Health)
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	api := r.Group("/api/v1", middleware.Identity(auth, logger))

	products := api.Group("/products", middleware.RequireModule(access.ModuleProducts))
	products.GET("", h.ListProducts)
	products.POST("", h.CreateProduct)
	products.GET("/:id", h.GetProduct)
	products.PUT("/:id", h.UpdateProduct)
	products.DELETE("/:id", h.DeleteProduct)

	customers := api.Group("/customers", middleware.RequireModule(access.ModuleCustomers))
	customers.GET("", h.ListCustomers)
	customers.POST("", h.CreateCustomer)
	customers.GET("/:id", h.GetCustomer)
	customers.PUT("/:id", h.UpdateCustomer)
	customers.DELETE("/:id", h.DeleteCustomer)

	staff := api.Group("/staff", middleware.RequireModule(access.ModuleStaff))
	staff.GET("", h.ListStaff)
	staff.POST("", h.CreateStaff)
	staff.GET("/:id", h.GetStaff)
	staff.PUT("/:id", h.UpdateStaff)
	staff.DELETE("/:id", h.DeleteStaff)

	sales := api.Group("/sales", middleware.RequireModule(access.ModuleSales))
	sales.GET("", h.ListSales)
	sales.POST("", h.CreateSale)
	sales.GET("/:id", h.GetSale)
	sales.PATCH("/:id/status", h.UpdateSaleStatus)
	sales.DELETE("/:id", h.DeleteSale)

	invoices := api.Group("/invoices", middleware.RequireModule(access.ModuleInvoices))
	invoices.GET("", h.ListInvoices)
	invoices.POST("", h.CreateInvoice)
	invoices.GET("/:id", h.GetInvoice)
	invoices.PATCH("/:id/status", h.UpdateInvoiceStatus)
	invoices.DELETE("/:id", h.DeleteInvoice)

	tasks := api.Group("/tasks", middleware.RequireModule(access.ModuleTasks))
	tasks.GET("", h.ListTasks)
	tasks.POST("", h.CreateTask)
	tasks.GET("/:id", h.GetTask)
	tasks.PUT("/:id", h.UpdateTask)
	tasks.PATCH("/:id/status", h.UpdateTaskStatus)
	tasks.DELETE("/:id", h.DeleteTask)

	orders := api.Group("/orders", middleware.RequireModule(access.ModuleOrders))
	orders.GET("", h.ListOrders)
	orders.POST("", h.CreateOrder)
	orders.GET("/:id", h.GetOrder)
	orders.PATCH("/:id/status", h.UpdateOrderStatus)
	orders.DELETE("/:id", h.DeleteOrder)

	vendors := api.Group("/vendors", middleware.RequireModule(access.ModuleVendors))
	vendors.GET("", h.ListVendors)
	vendors.POST("", h.CreateVendor)
	vendors.GET("/:id", h.GetVendor)
	vendors.PUT("/:id", h.UpdateVendor)
	vendors.DELETE("/:id", h.DeleteVendor)

	vendorOrders := api.Group("/vendor-orders", middleware.RequireModule(access.ModuleVendors))
	vendorOrders.GET("", h.ListVendorOrders)
	vendorOrders.POST("", h.CreateVendorOrder)
	vendorOrders.GET("/:id", h.GetVendorOrder)
	vendorOrders.PATCH("/:id/status", h.UpdateVendorOrderStatus)
	vendorOrders.DELETE("/:id", h.DeleteVendorOrder)

	// Every role may read and switch its current branch.
	api.GET("/branches/current", h.CurrentBranch)
	api.PUT("/branches/current", h.SelectBranch)

	branches := api.Group("/branches", middleware.RequireModule(access.ModuleBranches))
	branches.GET("", h.ListBranches)
	branches.POST("", h.CreateBranch)
	branches.GET("/:id", h.GetBranch)
	branches.PUT("/:id", h.UpdateBranch)
	branches.DELETE("/:id", h.DeleteBranch)

	api.GET("/dashboard/metrics", middleware.RequireModule(access.ModuleDashboard), h.DashboardMetrics)

	insights := api.Group("/analytics", middleware.RequireModule(access.ModuleAnalytics))
	insights.GET("/revenue", h.RevenueSeries)
	insights.GET("/pat", h.PAT)
	insights.GET("/valuation", h.Valuation)
	insights.GET("/rankings/:kind", h.Rankings)

	reports := api.Group("/reports", middleware.RequireModule(access.ModuleAnalytics))
	reports.GET("/daily", h.ListDailyReports)
	reports.POST("/daily", h.BuildDailyReport)

	api.POST("/admin/reconcile", middleware.RequireModule(access.ModuleSettings), h.Reconcile)

	documents := api.Group("/documents", middleware.RequireModule(access.ModuleDocuments))
	documents.GET("", h.ListDocuments)
	documents.POST("", h.UploadDocument)
	documents.GET("/:id", h.GetDocument)
	documents.GET("/:id/content", h.DocumentContent)
	documents.DELETE("/:id", h.DeleteDocument)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}
