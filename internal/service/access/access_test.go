package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/hisaab/internal/domain/models"
)

func TestFilterByBranchAllIsIdentity(t *testing.T) {
	inputs := [][]models.Sale{
		nil,
		{},
		{{ID: "1", BranchID: "a"}, {ID: "2"}, {ID: "3", BranchID: "b"}},
	}
	for _, in := range inputs {
		out := FilterByBranch(in, AllBranches)
		assert.Equal(t, in, out)
		if len(in) > 0 {
			assert.Same(t, &in[0], &out[0])
		}
	}
}

func TestFilterByBranchEquality(t *testing.T) {
	sales := []models.Sale{{ID: "1", BranchID: "a"}, {ID: "2"}, {ID: "3", BranchID: "a"}, {ID: "4", BranchID: "b"}}

	out := FilterByBranch(sales, ForBranch("a"))
	require.Len(t, out, 2)
	assert.Equal(t, "1", out[0].ID)
	assert.Equal(t, "3", out[1].ID)

	assert.Empty(t, FilterByBranch(sales, ForBranch("zzz")))
}

func TestModulePermissions(t *testing.T) {
	tests := []struct {
		role   Role
		module Module
		want   bool
	}{
		{RoleOwner, ModuleSettings, true},
		{RoleAdmin, ModuleBranches, true},
		{RoleManager, ModuleBranches, false},
		{RoleManager, ModuleAnalytics, true},
		{RoleAccountant, ModuleInvoices, true},
		{RoleAccountant, ModuleTasks, false},
		{RoleSales, ModuleSales, true},
		{RoleStaff, ModuleSales, false},
		{RoleViewer, ModuleDashboard, true},
		{RoleViewer, ModuleProducts, false},
		{Role("ghost"), ModuleDashboard, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanAccessModule(tt.role, tt.module), "%s/%s", tt.role, tt.module)
	}
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" Manager ")
	require.NoError(t, err)
	assert.Equal(t, RoleManager, r)

	_, err = ParseRole("root")
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestResolveScope(t *testing.T) {
	owner := Principal{UserID: "o", Role: RoleOwner}
	single := Principal{UserID: "m", Role: RoleManager, BranchIDs: []string{"b1"}}
	multi := Principal{UserID: "s", Role: RoleSales, BranchIDs: []string{"b1", "b2"}}

	s, err := ResolveScope(owner, "")
	require.NoError(t, err)
	assert.True(t, s.All())

	s, err = ResolveScope(owner, "b9")
	require.NoError(t, err)
	assert.Equal(t, "b9", s.BranchID)

	s, err = ResolveScope(single, "")
	require.NoError(t, err)
	assert.Equal(t, "b1", s.BranchID)

	_, err = ResolveScope(multi, "")
	assert.ErrorIs(t, err, ErrBranchRequired)

	_, err = ResolveScope(multi, "b3")
	assert.ErrorIs(t, err, ErrForbidden)

	s, err = ResolveScope(multi, "b2")
	require.NoError(t, err)
	assert.Equal(t, "b2", s.BranchID)
}

func TestVisibleBranches(t *testing.T) {
	branches := []models.Branch{{ID: "b1"}, {ID: "b2"}, {ID: "b3"}}

	assert.Len(t, VisibleBranches(Principal{Role: RoleAdmin}, branches), 3)

	got := VisibleBranches(Principal{Role: RoleManager, BranchIDs: []string{"b3", "b1"}}, branches)
	require.Len(t, got, 2)
	assert.Equal(t, "b1", got[0].ID)
	assert.Equal(t, "b3", got[1].ID)
	assert.True(t, Principal{Role: RoleManager, BranchIDs: []string{"b3"}}.CanAccessBranch("b3"))
	assert.False(t, Principal{Role: RoleManager, BranchIDs: []string{"b3"}}.CanAccessBranch("b1"))
}

func TestScopeCacheKey(t *testing.T) {
	assert.Equal(t, "all", AllBranches.CacheKey())
	assert.Equal(t, "b1", ForBranch("b1").CacheKey())
}
