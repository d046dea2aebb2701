package config

import "time"

// CatalogCacheConfig controls the Redis read-through cache in front of the
// table catalog. Caching is skipped when Enabled is false or no Redis
// client is available. Table ownership rarely changes, so a TTL in the
// minutes range is fine.
type CatalogCacheConfig struct {
    Enabled bool
    TTL     time.Duration
    Prefix  string
}

// LoadCatalogCacheConfig reads CATALOG_CACHE_* variables, falling back to
// defaults when unset.
func LoadCatalogCacheConfig() CatalogCacheConfig {
    c := CatalogCacheConfig{
        Enabled: envBool("CATALOG_CACHE_ENABLED", true),
        TTL:     envDur("CATALOG_CACHE_TTL", 5*time.Minute),
        Prefix:  envStr("CATALOG_CACHE_PREFIX", "catalog"),
    }
    if c.TTL <= 0 {
        c.TTL = time.Minute
    }
    return c
}
