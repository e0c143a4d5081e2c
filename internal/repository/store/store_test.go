package store

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIDIsPrefixedAndUnique(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id := NewID("prod")
		require.True(t, strings.HasPrefix(id, "prod_"), id)
		parts := strings.Split(id, "_")
		require.Len(t, parts, 3)
		assert.Len(t, parts[2], 8)
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}

func TestFind(t *testing.T) {
	items := []string{"a", "bb", "ccc"}

	got, ok := Find(items, func(s string) bool { return len(s) == 2 })
	assert.True(t, ok)
	assert.Equal(t, "bb", got)

	_, ok = Find(items, func(s string) bool { return s == "z" })
	assert.False(t, ok)
}

func TestCloseNilSafe(t *testing.T) {
	var s *Store
	assert.NoError(t, s.Close(context.Background()))
	assert.NoError(t, (&Store{}).Close(context.Background()))
}
