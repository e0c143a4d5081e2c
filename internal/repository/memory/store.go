// Package memory implements an in-process record store. It is the default
// backend for tests and single-user setups.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/mamadbah2/hisaab/internal/domain/models"
	"github.com/mamadbah2/hisaab/internal/repository/store"
)

// New returns a store whose collections live in process memory.
func New() *store.Store {
	return &store.Store{
		Sales:        newCollection[models.Sale](),
		Invoices:     newCollection[models.Invoice](),
		Products:     newCollection[models.Product](),
		Customers:    newCollection[models.Customer](),
		Staff:        newCollection[models.StaffMember](),
		Tasks:        newCollection[models.Task](),
		Orders:       newCollection[models.Order](),
		Vendors:      newCollection[models.Vendor](),
		VendorOrders: newCollection[models.VendorOrder](),
		Branches:     newCollection[models.Branch](),
		Documents:    newCollection[models.Document](),
		DailyReports: newCollection[models.DailyReport](),
		KV:           NewKV(),
	}
}

// Collection keeps each record JSON-encoded, keyed by id, plus the insertion
// order of the ids. Callers never share memory with stored records.
type Collection[T store.Record] struct {
	mu    sync.RWMutex
	items map[string][]byte
	order []string
}

func newCollection[T store.Record]() *Collection[T] {
	return &Collection[T]{items: make(map[string][]byte)}
}

// List returns all records in insertion order.
func (c *Collection[T]) List(_ context.Context) ([]T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, 0, len(c.order))
	for _, id := range c.order {
		item, err := decode[T](id, c.items[id])
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// Get returns the record with the given id.
func (c *Collection[T]) Get(_ context.Context, id string) (T, error) {
	c.mu.RLock()
	raw, ok := c.items[id]
	c.mu.RUnlock()
	if !ok {
		var zero T
		return zero, fmt.Errorf("%s: %w", id, store.ErrNotFound)
	}
	return decode[T](id, raw)
}

// Put inserts or replaces the record keyed by its id.
func (c *Collection[T]) Put(_ context.Context, record T) error {
	id := record.Key()
	if id == "" {
		return fmt.Errorf("put record: empty id")
	}
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode %s: %w", id, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.items[id]; !exists {
		c.order = append(c.order, id)
	}
	c.items[id] = raw
	return nil
}

func decode[T any](id string, raw []byte) (T, error) {
	var item T
	if err := json.Unmarshal(raw, &item); err != nil {
		return item, fmt.Errorf("decode %s: %w", id, err)
	}
	return item, nil
}

// Delete removes the record; missing ids return ErrNotFound.
func (c *Collection[T]) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[id]; !ok {
		return fmt.Errorf("%s: %w", id, store.ErrNotFound)
	}
	delete(c.items, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

// KV keeps JSON-encoded values keyed by string.
type KV struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewKV returns an empty key-value store.
func NewKV() *KV {
	return &KV{values: make(map[string][]byte)}
}

// GetJSON decodes the value stored under key into out.
func (k *KV) GetJSON(_ context.Context, key string, out any) error {
	k.mu.RLock()
	raw, ok := k.values[key]
	k.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%s: %w", key, store.ErrNotFound)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// PutJSON encodes value and stores it under key.
func (k *KV) PutJSON(_ context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	k.mu.Lock()
	k.values[key] = raw
	k.mu.Unlock()
	return nil
}

// Delete removes key. Missing keys are ignored.
func (k *KV) Delete(_ context.Context, key string) error {
	k.mu.Lock()
	delete(k.values, key)
	k.mu.Unlock()
	return nil
}

// DeletePrefix removes every key starting with prefix.
func (k *KV) DeletePrefix(_ context.Context, prefix string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	for key := range k.values {
		if strings.HasPrefix(key, prefix) {
			delete(k.values, key)
		}
	}
	return nil
}
