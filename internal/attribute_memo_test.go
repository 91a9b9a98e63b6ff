package internal

import (
	"context"
	"testing"

	"github.com/lychee-technology/indexsync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingDefaults struct {
	codes []string
	calls int
}

func (c *countingDefaults) DefaultAttributeCodes(context.Context) ([]string, error) {
	c.calls++
	return c.codes, nil
}

func TestAttributeMemo_IsDefaultLoadsOnce(t *testing.T) {
	defaults := &countingDefaults{codes: []string{"status", "visibility"}}
	memo := NewAttributeMemo(newFakeRegistry(), defaults)
	ctx := context.Background()

	for _, code := range []string{"status", "name", "visibility"} {
		_, err := memo.IsDefault(ctx, indexsync.AttributeDescriptor{Code: code})
		require.NoError(t, err)
	}
	assert.Equal(t, 1, defaults.calls)

	ok, err := memo.IsDefault(ctx, indexsync.AttributeDescriptor{Code: "name", IsDefault: true})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAttributeMemo_DoesNotCacheFailures(t *testing.T) {
	registry := newFakeRegistry(nameAttr)
	registry.err = errBoom
	memo := NewAttributeMemo(registry, nil)
	ctx := context.Background()

	_, err := memo.GetAttribute(ctx, "name")
	require.ErrorIs(t, err, errBoom)

	registry.err = nil
	attr, err := memo.GetAttribute(ctx, "name")
	require.NoError(t, err)
	assert.Equal(t, nameAttr.ID, attr.ID)
	assert.Equal(t, 2, registry.calls)
}

func TestStoreIntegration(t *testing.T) {
	integration := NewStoreIntegration(map[int64]string{3: "k3", 1: "k1", 2: " ", 0: "admin"})

	assert.True(t, integration.IsIntegrated(1))
	assert.False(t, integration.IsIntegrated(2))
	assert.True(t, integration.IsIntegrated(indexsync.DefaultStoreID))
	assert.Equal(t, []int64{1, 3}, integration.IntegratedStoreIDs())

	none := NewStoreIntegration(nil)
	assert.False(t, none.IsIntegrated(indexsync.DefaultStoreID))
	assert.Empty(t, none.IntegratedStoreIDs())
}
