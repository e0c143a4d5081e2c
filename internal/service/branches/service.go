// Package branches manages business locations and each user's current
// branch selection.
package branches

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/hisaab/internal/domain/models"
	"github.com/mamadbah2/hisaab/internal/events"
	"github.com/mamadbah2/hisaab/internal/repository/store"
	"github.com/mamadbah2/hisaab/internal/service/access"
)

// CurrentBranchKeyPrefix prefixes the KV key holding a user's selection.
const CurrentBranchKeyPrefix = "insygth_current_branch:"

// Service implements branch CRUD.
type Service struct {
	store  *store.Store
	bus    *events.Bus
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a branch service.
func NewService(st *store.Store, bus *events.Bus, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if bus == nil {
		bus = events.NewBus()
	}
	return &Service{store: st, bus: bus, logger: logger.Named("branches"), now: time.Now}
}

// Create stores a new branch.
func (s *Service) Create(ctx context.Context, b models.Branch) (models.Branch, error) {
	b.Name = strings.TrimSpace(b.Name)
	b.Code = strings.ToUpper(strings.TrimSpace(b.Code))
	b.ID = store.NewID("branch")
	if b.Status == "" {
		b.Status = models.StatusActive
	}
	b.CreatedAt = s.now()
	if err := b.Validate(); err != nil {
		return models.Branch{}, err
	}
	if err := s.store.Branches.Put(ctx, b); err != nil {
		return models.Branch{}, fmt.Errorf("save branch: %w", err)
	}
	s.bus.Records.Publish(events.RecordChanged{Bucket: store.BucketBranches, ID: b.ID, BranchID: b.ID, Op: events.OpCreate})
	s.logger.Info("branch created", zap.String("branch_id", b.ID), zap.String("name", b.Name))
	return b, nil
}

// Update replaces a branch's details.
func (s *Service) Update(ctx context.Context, id string, b models.Branch) (models.Branch, error) {
	existing, err := s.store.Branches.Get(ctx, id)
	if err != nil {
		return models.Branch{}, err
	}
	existing.Name = strings.TrimSpace(b.Name)
	existing.Code = strings.ToUpper(strings.TrimSpace(b.Code))
	existing.Address = b.Address
	existing.Manager = b.Manager
	if b.Status != "" {
		existing.Status = b.Status
	}
	if err := existing.Validate(); err != nil {
		return models.Branch{}, err
	}
	if err := s.store.Branches.Put(ctx, existing); err != nil {
		return models.Branch{}, fmt.Errorf("save branch: %w", err)
	}
	s.bus.Records.Publish(events.RecordChanged{Bucket: store.BucketBranches, ID: id, BranchID: id, Op: events.OpUpdate})
	return existing, nil
}

// Delete removes a branch. Records tagged with it keep their BranchID.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Branches.Delete(ctx, id); err != nil {
		return err
	}
	s.bus.Records.Publish(events.RecordChanged{Bucket: store.BucketBranches, ID: id, BranchID: id, Op: events.OpDelete})
	return nil
}

// Get loads one branch.
func (s *Service) Get(ctx context.Context, id string) (models.Branch, error) {
	return s.store.Branches.Get(ctx, id)
}

// List returns the branches the principal may see.
func (s *Service) List(ctx context.Context, p access.Principal) ([]models.Branch, error) {
	all, err := s.store.Branches.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	return access.VisibleBranches(p, all), nil
}

// Context tracks the branch each user is working in. Selections are kept in
// the KV store and mirrored in memory.
type Context struct {
	kv       store.KV
	branches store.Collection[models.Branch]
	emitter  *events.Emitter[events.BranchChanged]
	logger   *zap.Logger

	mu     sync.RWMutex
	mirror map[string]string
}

// NewContext returns a branch context backed by st.
func NewContext(st *store.Store, bus *events.Bus, logger *zap.Logger) *Context {
	if logger == nil {
		logger = zap.NewNop()
	}
	if bus == nil {
		bus = events.NewBus()
	}
	return &Context{
		kv:       st.KV,
		branches: st.Branches,
		emitter:  bus.Branches,
		logger:   logger.Named("branch_context"),
		mirror:   make(map[string]string),
	}
}

type selection struct {
	BranchID string `json:"branch_id"`
}

// Current returns the user's selected branch id, "" meaning all branches.
func (c *Context) Current(ctx context.Context, userID string) (string, error) {
	c.mu.RLock()
	id, ok := c.mirror[userID]
	c.mu.RUnlock()
	if ok {
		return id, nil
	}

	var sel selection
	err := c.kv.GetJSON(ctx, CurrentBranchKeyPrefix+userID, &sel)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return "", fmt.Errorf("load current branch: %w", err)
	}

	c.mu.Lock()
	c.mirror[userID] = sel.BranchID
	c.mu.Unlock()
	return sel.BranchID, nil
}

// Select makes branchID the user's current branch and notifies subscribers.
// An empty branchID selects all branches. The principal must be allowed to
// see the branch.
func (c *Context) Select(ctx context.Context, p access.Principal, branchID string) error {
	if branchID != "" {
		if !p.CanAccessBranch(branchID) {
			return access.ErrForbidden
		}
		if _, err := c.branches.Get(ctx, branchID); err != nil {
			return err
		}
	} else if !p.Role.SeesAllBranches() && len(p.BranchIDs) != 1 {
		return access.ErrBranchRequired
	}

	if err := c.kv.PutJSON(ctx, CurrentBranchKeyPrefix+p.UserID, selection{BranchID: branchID}); err != nil {
		return fmt.Errorf("save current branch: %w", err)
	}

	c.mu.Lock()
	prev, known := c.mirror[p.UserID]
	c.mirror[p.UserID] = branchID
	c.mu.Unlock()

	if known && prev == branchID {
		return nil
	}
	c.logger.Debug("current branch changed", zap.String("user_id", p.UserID), zap.String("branch_id", branchID))
	c.emitter.Publish(events.BranchChanged{UserID: p.UserID, BranchID: branchID})
	return nil
}

// Subscribe registers fn for branch changes; call the returned func to stop.
func (c *Context) Subscribe(fn func(events.BranchChanged)) func() {
	return c.emitter.Subscribe(fn)
}

// Scope resolves the branch a request should aggregate over. requested may
// be a branch id, "all", or empty to fall back to the user's current branch.
func (c *Context) Scope(ctx context.Context, p access.Principal, requested string) (access.Scope, error) {
	switch strings.ToLower(strings.TrimSpace(requested)) {
	case "all":
		return access.ResolveScope(p, "")
	case "":
		current, err := c.Current(ctx, p.UserID)
		if err != nil {
			return access.Scope{}, err
		}
		if current != "" && !p.CanAccessBranch(current) {
			current = ""
		}
		return access.ResolveScope(p, current)
	default:
		return access.ResolveScope(p, strings.TrimSpace(requested))
	}
}
