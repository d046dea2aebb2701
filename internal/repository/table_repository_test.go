package repository

import (
    "context"
    "testing"

    "github.com/stretchr/testify/assert"

    "github.com/iliyamo/restaurant-booking/internal/config"
)

func TestTableRepo_CacheKey(t *testing.T) {
    r := NewTableRepo(nil, nil, config.CatalogCacheConfig{Enabled: true, Prefix: "catalog"})
    assert.Equal(t, "catalog:table:42", r.cacheKey(42))
    assert.False(t, r.cached(), "no client means no cache")
    assert.NoError(t, r.Invalidate(context.Background(), 42))
}
