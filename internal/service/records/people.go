package records

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mamadbah2/hisaab/internal/domain/models"
	"github.com/mamadbah2/hisaab/internal/events"
	"github.com/mamadbah2/hisaab/internal/repository/store"
	"github.com/mamadbah2/hisaab/internal/service/access"
)

// AddCustomer stores a CRM contact. Running totals start at zero.
func (s *Service) AddCustomer(ctx context.Context, c models.Customer) (models.Customer, error) {
	if err := s.checkBranch(ctx, c.BranchID); err != nil {
		return models.Customer{}, err
	}
	c.Name = strings.TrimSpace(c.Name)
	c.ID = store.NewID("cust")
	c.TotalPurchases, c.PurchaseCount, c.LastPurchaseDate = 0, 0, nil
	c.CreatedAt = s.now()
	if err := save(ctx, s, s.store.Customers, store.BucketCustomers, c, c.BranchID, events.OpCreate); err != nil {
		return models.Customer{}, err
	}
	return c, nil
}

// UpdateCustomer replaces the contact details of a customer and keeps its
// purchase history.
func (s *Service) UpdateCustomer(ctx context.Context, id string, c models.Customer) (models.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.store.Customers.Get(ctx, id)
	if err != nil {
		return models.Customer{}, err
	}
	if err := s.checkBranch(ctx, c.BranchID); err != nil {
		return models.Customer{}, err
	}
	existing.BranchID = c.BranchID
	existing.Name = strings.TrimSpace(c.Name)
	existing.Email = c.Email
	existing.Phone = c.Phone
	existing.Rating = c.Rating
	if err := save(ctx, s, s.store.Customers, store.BucketCustomers, existing, existing.BranchID, events.OpUpdate); err != nil {
		return models.Customer{}, err
	}
	return existing, nil
}

// DeleteCustomer removes a customer.
func (s *Service) DeleteCustomer(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return remove(ctx, s, s.store.Customers, store.BucketCustomers, id)
}

// GetCustomer loads one customer.
func (s *Service) GetCustomer(ctx context.Context, id string) (models.Customer, error) {
	return s.store.Customers.Get(ctx, id)
}

// ListCustomers returns the customers visible in scope.
func (s *Service) ListCustomers(ctx context.Context, scope access.Scope) ([]models.Customer, error) {
	return listScoped(ctx, s.store.Customers, store.BucketCustomers, scope)
}

// AddStaff stores a staff member. Counters start at zero.
func (s *Service) AddStaff(ctx context.Context, m models.StaffMember) (models.StaffMember, error) {
	if err := s.checkBranch(ctx, m.BranchID); err != nil {
		return models.StaffMember{}, err
	}
	m.Name = strings.TrimSpace(m.Name)
	m.ID = store.NewID("staff")
	if m.Status == "" {
		m.Status = models.StatusActive
	}
	if m.JoinedAt.IsZero() {
		m.JoinedAt = s.now()
	}
	m.TotalSales, m.CommissionEarned, m.TasksCompleted = 0, 0, 0
	if err := save(ctx, s, s.store.Staff, store.BucketStaff, m, m.BranchID, events.OpCreate); err != nil {
		return models.StaffMember{}, err
	}
	return m, nil
}

// UpdateStaff replaces the profile fields of a staff member and keeps its
// counters.
func (s *Service) UpdateStaff(ctx context.Context, id string, m models.StaffMember) (models.StaffMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.store.Staff.Get(ctx, id)
	if err != nil {
		return models.StaffMember{}, err
	}
	if err := s.checkBranch(ctx, m.BranchID); err != nil {
		return models.StaffMember{}, err
	}
	existing.BranchID = m.BranchID
	existing.Name = strings.TrimSpace(m.Name)
	existing.Email = m.Email
	existing.Role = m.Role
	if m.Status != "" {
		existing.Status = m.Status
	}
	existing.CommissionRate = m.CommissionRate
	existing.AttendanceRate = m.AttendanceRate
	existing.Rating = m.Rating
	if err := save(ctx, s, s.store.Staff, store.BucketStaff, existing, existing.BranchID, events.OpUpdate); err != nil {
		return models.StaffMember{}, err
	}
	return existing, nil
}

// DeleteStaff removes a staff member.
func (s *Service) DeleteStaff(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return remove(ctx, s, s.store.Staff, store.BucketStaff, id)
}

// GetStaff loads one staff member.
func (s *Service) GetStaff(ctx context.Context, id string) (models.StaffMember, error) {
	return s.store.Staff.Get(ctx, id)
}

// ListStaff returns the team visible in scope.
func (s *Service) ListStaff(ctx context.Context, scope access.Scope) ([]models.StaffMember, error) {
	return listScoped(ctx, s.store.Staff, store.BucketStaff, scope)
}

func (s *Service) checkAssignee(ctx context.Context, staffID string) error {
	if staffID == "" {
		return nil
	}
	if _, err := s.store.Staff.Get(ctx, staffID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return invalid("assigned_to", "unknown staff member")
		}
		return fmt.Errorf("load staff: %w", err)
	}
	return nil
}

// AddTask stores a task. A task created as completed counts for its
// assignee straight away.
func (s *Service) AddTask(ctx context.Context, t models.Task) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkBranch(ctx, t.BranchID); err != nil {
		return models.Task{}, err
	}
	if err := s.checkAssignee(ctx, t.AssignedTo); err != nil {
		return models.Task{}, err
	}
	now := s.now()
	t.Title = strings.TrimSpace(t.Title)
	t.ID = store.NewID("task")
	t.CreatedAt = now
	if t.Status == "" {
		t.Status = models.TaskPending
	}
	t.CompletedAt = nil
	if t.Status == models.TaskCompleted {
		t.CompletedAt = &now
	}
	if err := save(ctx, s, s.store.Tasks, store.BucketTasks, t, t.BranchID, events.OpCreate); err != nil {
		return models.Task{}, err
	}
	if t.Status == models.TaskCompleted {
		if err := s.bumpTasksCompleted(ctx, t.AssignedTo, 1); err != nil {
			return t, err
		}
	}
	return t, nil
}

// UpdateTask replaces the descriptive fields of a task. Status changes go
// through UpdateTaskStatus.
func (s *Service) UpdateTask(ctx context.Context, id string, t models.Task) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.store.Tasks.Get(ctx, id)
	if err != nil {
		return models.Task{}, err
	}
	if err := s.checkBranch(ctx, t.BranchID); err != nil {
		return models.Task{}, err
	}
	if err := s.checkAssignee(ctx, t.AssignedTo); err != nil {
		return models.Task{}, err
	}
	if existing.Status == models.TaskCompleted && existing.AssignedTo != t.AssignedTo {
		if err := s.bumpTasksCompleted(ctx, existing.AssignedTo, -1); err != nil {
			return models.Task{}, err
		}
		if err := s.bumpTasksCompleted(ctx, t.AssignedTo, 1); err != nil {
			return models.Task{}, err
		}
	}
	existing.BranchID = t.BranchID
	existing.Title = strings.TrimSpace(t.Title)
	existing.Description = t.Description
	existing.AssignedTo = t.AssignedTo
	existing.Priority = t.Priority
	existing.DueDate = t.DueDate
	if err := save(ctx, s, s.store.Tasks, store.BucketTasks, existing, existing.BranchID, events.OpUpdate); err != nil {
		return models.Task{}, err
	}
	return existing, nil
}

// UpdateTaskStatus moves a task to status. Any known status may follow any
// other. Completing a task credits its assignee; reopening takes it back.
func (s *Service) UpdateTaskStatus(ctx context.Context, id string, status models.TaskStatus) (models.Task, error) {
	if !status.Valid() {
		return models.Task{}, invalid("status", "unknown task status")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.store.Tasks.Get(ctx, id)
	if err != nil {
		return models.Task{}, err
	}
	wasCompleted := t.Status == models.TaskCompleted
	t.Status = status
	switch {
	case !wasCompleted && status == models.TaskCompleted:
		now := s.now()
		t.CompletedAt = &now
	case wasCompleted && status != models.TaskCompleted:
		t.CompletedAt = nil
	}
	if err := save(ctx, s, s.store.Tasks, store.BucketTasks, t, t.BranchID, events.OpUpdate); err != nil {
		return models.Task{}, err
	}

	switch {
	case !wasCompleted && status == models.TaskCompleted:
		err = s.bumpTasksCompleted(ctx, t.AssignedTo, 1)
	case wasCompleted && status != models.TaskCompleted:
		err = s.bumpTasksCompleted(ctx, t.AssignedTo, -1)
	}
	return t, err
}

func (s *Service) bumpTasksCompleted(ctx context.Context, staffID string, delta int) error {
	if staffID == "" {
		return nil
	}
	m, err := s.store.Staff.Get(ctx, staffID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load staff: %w", err)
	}
	m.TasksCompleted = max(0, m.TasksCompleted+delta)
	if err := wrapPut(s.store.Staff.Put(ctx, m), store.BucketStaff); err != nil {
		return err
	}
	s.publish(store.BucketStaff, m.ID, m.BranchID, events.OpUpdate)
	return nil
}

// DeleteTask removes a task. A completed task's credit stays with the
// assignee until the next reconcile.
func (s *Service) DeleteTask(ctx context.Context, id string) error {
	return remove(ctx, s, s.store.Tasks, store.BucketTasks, id)
}

// GetTask loads one task.
func (s *Service) GetTask(ctx context.Context, id string) (models.Task, error) {
	return s.store.Tasks.Get(ctx, id)
}

// ListTasks returns the tasks visible in scope.
func (s *Service) ListTasks(ctx context.Context, scope access.Scope) ([]models.Task, error) {
	return listScoped(ctx, s.store.Tasks, store.BucketTasks, scope)
}
