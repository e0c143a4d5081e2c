package models

// SaleStatus enumerates the lifecycle states of a point-of-sale transaction.
type SaleStatus string

const (
	SaleCompleted SaleStatus = "completed"
	SalePending   SaleStatus = "pending"
	SaleCancelled SaleStatus = "cancelled"
	SaleRefunded  SaleStatus = "refunded"
)

// Valid reports whether the status is one of the known sale states.
func (s SaleStatus) Valid() bool {
	switch s {
	case SaleCompleted, SalePending, SaleCancelled, SaleRefunded:
		return true
	}
	return false
}

// InvoiceStatus enumerates invoice states.
type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "draft"
	InvoicePending   InvoiceStatus = "pending"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceOverdue   InvoiceStatus = "overdue"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

// Valid reports whether the status is one of the known invoice states.
func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceDraft, InvoicePending, InvoicePaid, InvoiceOverdue, InvoiceCancelled:
		return true
	}
	return false
}

// Outstanding reports whether the invoice still awaits payment.
func (s InvoiceStatus) Outstanding() bool {
	return s == InvoicePending || s == InvoiceOverdue
}

// TaskStatus enumerates task states. Transitions are not checked.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in-progress"
	TaskCompleted  TaskStatus = "completed"
	TaskCancelled  TaskStatus = "cancelled"
)

// Valid reports whether the status is one of the known task states.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskCompleted, TaskCancelled:
		return true
	}
	return false
}

// Active reports whether the task still needs work.
func (s TaskStatus) Active() bool {
	return s == TaskPending || s == TaskInProgress
}

// OrderStatus enumerates customer order states. Transitions are not checked.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

// Valid reports whether the status is one of the known order states.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// Active reports whether the order is still moving through fulfilment.
func (s OrderStatus) Active() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderProcessing, OrderShipped:
		return true
	}
	return false
}

// VendorOrderStatus enumerates purchase order states.
type VendorOrderStatus string

const (
	VendorOrderPending   VendorOrderStatus = "pending"
	VendorOrderOrdered   VendorOrderStatus = "ordered"
	VendorOrderDelivered VendorOrderStatus = "delivered"
	VendorOrderCancelled VendorOrderStatus = "cancelled"
)

// Valid reports whether the status is one of the known purchase order states.
func (s VendorOrderStatus) Valid() bool {
	switch s {
	case VendorOrderPending, VendorOrderOrdered, VendorOrderDelivered, VendorOrderCancelled:
		return true
	}
	return false
}

// ActivityStatus is shared by branches, staff and vendors.
type ActivityStatus string

const (
	StatusActive   ActivityStatus = "active"
	StatusInactive ActivityStatus = "inactive"
)

// Valid reports whether the status is active or inactive.
func (s ActivityStatus) Valid() bool {
	return s == StatusActive || s == StatusInactive
}
