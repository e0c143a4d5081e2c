// Package access narrows record sets by branch and decides which modules and
// branches a role may see. Permissions are static lookup tables; a check is a
// membership test.
package access

import (
	"errors"
	"slices"
	"strings"

	"github.com/mamadbah2/hisaab/internal/domain/models"
)

var (
	// ErrForbidden indicates the principal may not access the module or branch.
	ErrForbidden = errors.New("access forbidden")
	// ErrBranchRequired indicates a restricted principal must pick a branch.
	ErrBranchRequired = errors.New("branch selection required")
	// ErrUnknownRole indicates the role string is not recognised.
	ErrUnknownRole = errors.New("unknown role")
)

// Scope is the explicit branch context passed to every aggregation.
// The zero value covers all branches.
type Scope struct {
	BranchID string
}

// AllBranches is the scope that disables branch filtering.
var AllBranches = Scope{}

// ForBranch returns a scope restricted to one branch.
func ForBranch(id string) Scope {
	return Scope{BranchID: id}
}

// All reports whether the scope spans every branch.
func (s Scope) All() bool {
	return s.BranchID == ""
}

// CacheKey is a stable suffix identifying the scope.
func (s Scope) CacheKey() string {
	if s.All() {
		return "all"
	}
	return s.BranchID
}

// Branched is implemented by records that may belong to a branch.
type Branched interface {
	Branch() string
}

// FilterByBranch returns items unchanged for the all-branches scope and
// otherwise a new slice with the records whose branch equals the scope's.
func FilterByBranch[T Branched](items []T, scope Scope) []T {
	if scope.All() {
		return items
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		if item.Branch() == scope.BranchID {
			out = append(out, item)
		}
	}
	return out
}

// Role is a user's role within the business.
type Role string

const (
	RoleOwner      Role = "owner"
	RoleAdmin      Role = "admin"
	RoleManager    Role = "manager"
	RoleAccountant Role = "accountant"
	RoleSales      Role = "sales"
	RoleStaff      Role = "staff"
	RoleViewer     Role = "viewer"
)

// Module is a functional area of the application.
type Module string

const (
	ModuleDashboard Module = "dashboard"
	ModuleSales     Module = "sales"
	ModuleInvoices  Module = "invoices"
	ModuleProducts  Module = "products"
	ModuleCustomers Module = "customers"
	ModuleStaff     Module = "staff"
	ModuleTasks     Module = "tasks"
	ModuleOrders    Module = "orders"
	ModuleVendors   Module = "vendors"
	ModuleBranches  Module = "branches"
	ModuleAnalytics Module = "analytics"
	ModuleDocuments Module = "documents"
	ModuleSettings  Module = "settings"
)

var allModules = []Module{
	ModuleDashboard, ModuleSales, ModuleInvoices, ModuleProducts, ModuleCustomers, ModuleStaff, ModuleTasks,
	ModuleOrders, ModuleVendors, ModuleBranches, ModuleAnalytics, ModuleDocuments, ModuleSettings,
}

var roleModules = map[Role][]Module{
	RoleOwner: allModules,
	RoleAdmin: allModules,
	RoleManager: {
		ModuleDashboard, ModuleSales, ModuleInvoices, ModuleProducts, ModuleCustomers, ModuleStaff,
		ModuleTasks, ModuleOrders, ModuleVendors, ModuleAnalytics, ModuleDocuments,
	},
	RoleAccountant: {ModuleDashboard, ModuleSales, ModuleInvoices, ModuleVendors, ModuleAnalytics, ModuleDocuments},
	RoleSales:      {ModuleDashboard, ModuleSales, ModuleInvoices, ModuleProducts, ModuleCustomers, ModuleOrders},
	RoleStaff:      {ModuleDashboard, ModuleTasks, ModuleProducts},
	RoleViewer:     {ModuleDashboard},
}

// ParseRole converts a role string into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := roleModules[r]; !ok {
		return "", ErrUnknownRole
	}
	return r, nil
}

// Modules returns the modules the role may open.
func (r Role) Modules() []Module {
	return slices.Clone(roleModules[r])
}

// SeesAllBranches reports whether the role is unrestricted across branches.
func (r Role) SeesAllBranches() bool {
	return r == RoleOwner || r == RoleAdmin
}

// CanAccessModule reports whether role may open module.
func CanAccessModule(role Role, module Module) bool {
	return slices.Contains(roleModules[role], module)
}

// Principal is the authenticated caller.
type Principal struct {
	UserID    string
	Role      Role
	BranchIDs []string
}

// CanAccessBranch reports whether the principal may see branchID.
func (p Principal) CanAccessBranch(branchID string) bool {
	if p.Role.SeesAllBranches() {
		return true
	}
	return slices.Contains(p.BranchIDs, branchID)
}

// VisibleBranches keeps the branches the principal may see.
func VisibleBranches(p Principal, branches []models.Branch) []models.Branch {
	if p.Role.SeesAllBranches() {
		return branches
	}
	out := make([]models.Branch, 0, len(p.BranchIDs))
	for _, b := range branches {
		if slices.Contains(p.BranchIDs, b.ID) {
			out = append(out, b)
		}
	}
	return out
}

// ResolveScope turns a requested branch ("" for all branches) into the scope
// the principal is allowed to aggregate over. Restricted principals asking
// for all branches get their only branch, or ErrBranchRequired when they
// have several.
func ResolveScope(p Principal, requested string) (Scope, error) {
	if p.Role.SeesAllBranches() {
		return ForBranch(requested), nil
	}
	if requested == "" {
		if len(p.BranchIDs) == 1 {
			return ForBranch(p.BranchIDs[0]), nil
		}
		return Scope{}, ErrBranchRequired
	}
	if !slices.Contains(p.BranchIDs, requested) {
		return Scope{}, ErrForbidden
	}
	return ForBranch(requested), nil
}
