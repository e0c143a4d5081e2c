package branches

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/hisaab/internal/domain/models"
	"github.com/mamadbah2/hisaab/internal/events"
	"github.com/mamadbah2/hisaab/internal/repository/memory"
	"github.com/mamadbah2/hisaab/internal/repository/store"
	"github.com/mamadbah2/hisaab/internal/service/access"
)

func TestCreateAndListVisible(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.New(), nil, nil)

	a, err := svc.Create(ctx, models.Branch{Name: "Kaloum", Code: " klm "})
	require.NoError(t, err)
	assert.Equal(t, "KLM", a.Code)
	assert.Equal(t, models.StatusActive, a.Status)
	b, err := svc.Create(ctx, models.Branch{Name: "Ratoma"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, models.Branch{Name: " "})
	var verr *models.ValidationError
	assert.ErrorAs(t, err, &verr)

	all, err := svc.List(ctx, access.Principal{Role: access.RoleOwner})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := svc.List(ctx, access.Principal{Role: access.RoleSales, BranchIDs: []string{b.ID}})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Ratoma", mine[0].Name)

	require.NoError(t, svc.Delete(ctx, a.ID))
	assert.ErrorIs(t, svc.Delete(ctx, a.ID), store.ErrNotFound)
}

func TestContextSelectPersistsAndNotifies(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	bus := events.NewBus()
	require.NoError(t, st.Branches.Put(ctx, models.Branch{ID: "b1", Name: "Kaloum"}))
	require.NoError(t, st.Branches.Put(ctx, models.Branch{ID: "b2", Name: "Ratoma"}))

	bc := NewContext(st, bus, nil)
	owner := access.Principal{UserID: "u1", Role: access.RoleOwner}

	var got []events.BranchChanged
	unsubscribe := bc.Subscribe(func(e events.BranchChanged) { got = append(got, e) })

	current, err := bc.Current(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, current)

	require.NoError(t, bc.Select(ctx, owner, "b2"))
	require.NoError(t, bc.Select(ctx, owner, "b2"))
	require.Len(t, got, 1, "re-selecting the same branch is not a change")
	assert.Equal(t, events.BranchChanged{UserID: "u1", BranchID: "b2"}, got[0])

	// A fresh context reads the persisted selection.
	reloaded := NewContext(st, bus, nil)
	current, err = reloaded.Current(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "b2", current)

	unsubscribe()
	require.NoError(t, bc.Select(ctx, owner, ""))
	assert.Len(t, got, 1)

	assert.ErrorIs(t, bc.Select(ctx, owner, "missing"), store.ErrNotFound)
}

func TestContextSelectRestricted(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	require.NoError(t, st.Branches.Put(ctx, models.Branch{ID: "b1", Name: "Kaloum"}))
	require.NoError(t, st.Branches.Put(ctx, models.Branch{ID: "b2", Name: "Ratoma"}))
	bc := NewContext(st, nil, nil)

	manager := access.Principal{UserID: "m", Role: access.RoleManager, BranchIDs: []string{"b1", "b2"}}
	assert.ErrorIs(t, bc.Select(ctx, manager, ""), access.ErrBranchRequired)

	clerk := access.Principal{UserID: "c", Role: access.RoleSales, BranchIDs: []string{"b1"}}
	assert.ErrorIs(t, bc.Select(ctx, clerk, "b2"), access.ErrForbidden)
}

func TestContextScope(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	require.NoError(t, st.Branches.Put(ctx, models.Branch{ID: "b1", Name: "Kaloum"}))
	bc := NewContext(st, nil, nil)
	owner := access.Principal{UserID: "o", Role: access.RoleOwner}

	scope, err := bc.Scope(ctx, owner, "")
	require.NoError(t, err)
	assert.True(t, scope.All())

	require.NoError(t, bc.Select(ctx, owner, "b1"))
	scope, err = bc.Scope(ctx, owner, "")
	require.NoError(t, err)
	assert.Equal(t, "b1", scope.BranchID)

	scope, err = bc.Scope(ctx, owner, "ALL")
	require.NoError(t, err)
	assert.True(t, scope.All())

	clerk := access.Principal{UserID: "c", Role: access.RoleSales, BranchIDs: []string{"b1"}}
	scope, err = bc.Scope(ctx, clerk, "all")
	require.NoError(t, err)
	assert.Equal(t, "b1", scope.BranchID)
}
