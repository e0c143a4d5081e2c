package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/hisaab/internal/domain/models"
)

func productBranch(p *models.Product) *string { return &p.BranchID }
func customerBranch(cu *models.Customer) *string { return &cu.BranchID }
func staffBranch(m *models.StaffMember) *string { return &m.BranchID }
func saleBranch(s *models.Sale) *string { return &s.BranchID }
func invoiceBranch(i *models.Invoice) *string { return &i.BranchID }
func taskBranch(t *models.Task) *string { return &t.BranchID }
func orderBranch(o *models.Order) *string { return &o.BranchID }
func vendorOrderBranch(o *models.VendorOrder) *string { return &o.BranchID }

func (h *Handler) ListProducts(c *gin.Context) { listRecords(h, c, h.svc.Records.ListProducts) }
func (h *Handler) GetProduct(c *gin.Context) { getRecord(h, c, h.svc.Records.GetProduct) }
func (h *Handler) CreateProduct(c *gin.Context) {
	createRecord(h, c, productBranch, h.svc.Records.AddProduct)
}
func (h *Handler) UpdateProduct(c *gin.Context) {
	updateRecord(h, c, productBranch, h.svc.Records.GetProduct, h.svc.Records.UpdateProduct)
}
func (h *Handler) DeleteProduct(c *gin.Context) {
	deleteRecord(h, c, h.svc.Records.GetProduct, h.svc.Records.DeleteProduct)
}

func (h *Handler) ListCustomers(c *gin.Context) { listRecords(h, c, h.svc.Records.ListCustomers) }
func (h *Handler) GetCustomer(c *gin.Context) { getRecord(h, c, h.svc.Records.GetCustomer) }
func (h *Handler) CreateCustomer(c *gin.Context) {
	createRecord(h, c, customerBranch, h.svc.Records.AddCustomer)
}
func (h *Handler) UpdateCustomer(c *gin.Context) {
	updateRecord(h, c, customerBranch, h.svc.Records.GetCustomer, h.svc.Records.UpdateCustomer)
}
func (h *Handler) DeleteCustomer(c *gin.Context) {
	deleteRecord(h, c, h.svc.Records.GetCustomer, h.svc.Records.DeleteCustomer)
}

func (h *Handler) ListStaff(c *gin.Context) { listRecords(h, c, h.svc.Records.ListStaff) }
func (h *Handler) GetStaff(c *gin.Context) { getRecord(h, c, h.svc.Records.GetStaff) }
func (h *Handler) CreateStaff(c *gin.Context) {
	createRecord(h, c, staffBranch, h.svc.Records.AddStaff)
}
func (h *Handler) UpdateStaff(c *gin.Context) {
	updateRecord(h, c, staffBranch, h.svc.Records.GetStaff, h.svc.Records.UpdateStaff)
}
func (h *Handler) DeleteStaff(c *gin.Context) {
	deleteRecord(h, c, h.svc.Records.GetStaff, h.svc.Records.DeleteStaff)
}

func (h *Handler) ListSales(c *gin.Context) { listRecords(h, c, h.svc.Records.ListSales) }
func (h *Handler) GetSale(c *gin.Context) { getRecord(h, c, h.svc.Records.GetSale) }
func (h *Handler) CreateSale(c *gin.Context) {
	createRecord(h, c, saleBranch, h.svc.Records.AddSale)
}
func (h *Handler) UpdateSaleStatus(c *gin.Context) {
	updateStatus(h, c, h.svc.Records.GetSale, h.svc.Records.UpdateSaleStatus)
}
func (h *Handler) DeleteSale(c *gin.Context) {
	deleteRecord(h, c, h.svc.Records.GetSale, h.svc.Records.DeleteSale)
}

func (h *Handler) ListInvoices(c *gin.Context) { listRecords(h, c, h.svc.Records.ListInvoices) }
func (h *Handler) GetInvoice(c *gin.Context) { getRecord(h, c, h.svc.Records.GetInvoice) }
func (h *Handler) CreateInvoice(c *gin.Context) {
	createRecord(h, c, invoiceBranch, h.svc.Records.AddInvoice)
}
func (h *Handler) UpdateInvoiceStatus(c *gin.Context) {
	updateStatus(h, c, h.svc.Records.GetInvoice, h.svc.Records.UpdateInvoiceStatus)
}
func (h *Handler) DeleteInvoice(c *gin.Context) {
	deleteRecord(h, c, h.svc.Records.GetInvoice, h.svc.Records.DeleteInvoice)
}

func (h *Handler) ListTasks(c *gin.Context) { listRecords(h, c, h.svc.Records.ListTasks) }
func (h *Handler) GetTask(c *gin.Context) { getRecord(h, c, h.svc.Records.GetTask) }
func (h *Handler) CreateTask(c *gin.Context) {
	createRecord(h, c, taskBranch, h.svc.Records.AddTask)
}
func (h *Handler) UpdateTask(c *gin.Context) {
	updateRecord(h, c, taskBranch, h.svc.Records.GetTask, h.svc.Records.UpdateTask)
}
func (h *Handler) UpdateTaskStatus(c *gin.Context) {
	updateStatus(h, c, h.svc.Records.GetTask, h.svc.Records.UpdateTaskStatus)
}
func (h *Handler) DeleteTask(c *gin.Context) {
	deleteRecord(h, c, h.svc.Records.GetTask, h.svc.Records.DeleteTask)
}

func (h *Handler) ListOrders(c *gin.Context) { listRecords(h, c, h.svc.Records.ListOrders) }
func (h *Handler) GetOrder(c *gin.Context) { getRecord(h, c, h.svc.Records.GetOrder) }
func (h *Handler) CreateOrder(c *gin.Context) {
	createRecord(h, c, orderBranch, h.svc.Records.AddOrder)
}
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	updateStatus(h, c, h.svc.Records.GetOrder, h.svc.Records.UpdateOrderStatus)
}
func (h *Handler) DeleteOrder(c *gin.Context) {
	deleteRecord(h, c, h.svc.Records.GetOrder, h.svc.Records.DeleteOrder)
}
