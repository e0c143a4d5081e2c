package models

import (
	"net/mail"
	"strings"
	"time"
)

// Customer is a CRM contact. TotalPurchases and LastPurchaseDate are running
// values bumped on every sale; Reconcile in the records service rebuilds them.
type Customer struct {
	ID               string     `bson:"_id" json:"id"`
	BranchID         string     `bson:"branch_id" json:"branch_id"`
	Name             string     `bson:"name" json:"name"`
	Email            string     `bson:"email" json:"email"`
	Phone            string     `bson:"phone" json:"phone"`
	TotalPurchases   float64    `bson:"total_purchases" json:"total_purchases"`
	PurchaseCount    int        `bson:"purchase_count" json:"purchase_count"`
	LastPurchaseDate *time.Time `bson:"last_purchase_date,omitempty" json:"last_purchase_date,omitempty"`
	// Rating is an optional measured satisfaction score on a 0-5 scale.
	Rating    *float64  `bson:"rating,omitempty" json:"rating,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

func (c Customer) Key() string    { return c.ID }
func (c Customer) Branch() string { return c.BranchID }

// Validate checks the customer before it is stored.
func (c Customer) Validate() error {
	errs := FieldErrors{}
	errs.Check(strings.TrimSpace(c.Name) != "", "name", "name is required")
	if c.Email != "" {
		_, err := mail.ParseAddress(c.Email)
		errs.Check(err == nil, "email", "email is invalid")
	}
	if c.Rating != nil {
		errs.Check(*c.Rating >= 0 && *c.Rating <= 5, "rating", "rating must be between 0 and 5")
	}
	return errs.Err()
}

// StaffMember is an employee. TotalSales, CommissionEarned and TasksCompleted
// are incremented as sales and tasks are recorded.
type StaffMember struct {
	ID               string         `bson:"_id" json:"id"`
	BranchID         string         `bson:"branch_id" json:"branch_id"`
	Name             string         `bson:"name" json:"name"`
	Email            string         `bson:"email" json:"email"`
	Role             string         `bson:"role" json:"role"`
	Status           ActivityStatus `bson:"status" json:"status"`
	CommissionRate   float64        `bson:"commission_rate" json:"commission_rate"`
	TotalSales       float64        `bson:"total_sales" json:"total_sales"`
	CommissionEarned float64        `bson:"commission_earned" json:"commission_earned"`
	TasksCompleted   int            `bson:"tasks_completed" json:"tasks_completed"`
	// AttendanceRate is an optional measured ratio in [0,1].
	AttendanceRate *float64 `bson:"attendance_rate,omitempty" json:"attendance_rate,omitempty"`
	// Rating is an optional measured score on a 0-5 scale.
	Rating   *float64  `bson:"rating,omitempty" json:"rating,omitempty"`
	JoinedAt time.Time `bson:"joined_at" json:"joined_at"`
}

func (s StaffMember) Key() string    { return s.ID }
func (s StaffMember) Branch() string { return s.BranchID }

// Validate checks the staff member before it is stored.
func (s StaffMember) Validate() error {
	errs := FieldErrors{}
	errs.Check(strings.TrimSpace(s.Name) != "", "name", "name is required")
	errs.Check(s.Status == "" || s.Status.Valid(), "status", "unknown status")
	errs.Check(s.CommissionRate >= 0 && s.CommissionRate <= 1, "commission_rate", "commission rate must be between 0 and 1")
	if s.AttendanceRate != nil {
		errs.Check(*s.AttendanceRate >= 0 && *s.AttendanceRate <= 1, "attendance_rate", "attendance rate must be between 0 and 1")
	}
	if s.Rating != nil {
		errs.Check(*s.Rating >= 0 && *s.Rating <= 5, "rating", "rating must be between 0 and 5")
	}
	return errs.Err()
}

// Task is a unit of work assigned to a staff member.
type Task struct {
	ID          string     `bson:"_id" json:"id"`
	BranchID    string     `bson:"branch_id" json:"branch_id"`
	Title       string     `bson:"title" json:"title"`
	Description string     `bson:"description" json:"description"`
	AssignedTo  string     `bson:"assigned_to" json:"assigned_to"`
	Priority    string     `bson:"priority" json:"priority"`
	Status      TaskStatus `bson:"status" json:"status"`
	DueDate     *time.Time `bson:"due_date,omitempty" json:"due_date,omitempty"`
	CompletedAt *time.Time `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
}

func (t Task) Key() string    { return t.ID }
func (t Task) Branch() string { return t.BranchID }

// Validate checks the task before it is stored.
func (t Task) Validate() error {
	errs := FieldErrors{}
	errs.Check(strings.TrimSpace(t.Title) != "", "title", "title is required")
	errs.Check(t.Status == "" || t.Status.Valid(), "status", "unknown task status")
	return errs.Err()
}
