package repository

import (
    "context"
    "database/sql"
    "encoding/json"
    "errors"
    "fmt"
    "log"

    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/restaurant-booking/internal/apperr"
    "github.com/iliyamo/restaurant-booking/internal/config"
    "github.com/iliyamo/restaurant-booking/internal/model"
)

// TableRepo is the read side of the table catalog. Each table resolves to
// its restaurant and that restaurant's manager. Lookups are served from
// Redis when a client is configured; the database stays authoritative and
// cache failures only cost a round trip.
type TableRepo struct {
    db    *sql.DB
    rdb   *redis.Client
    cache config.CatalogCacheConfig
}

// NewTableRepo returns a TableRepo. rdb may be nil to disable caching.
func NewTableRepo(db *sql.DB, rdb *redis.Client, cache config.CatalogCacheConfig) *TableRepo {
    return &TableRepo{db: db, rdb: rdb, cache: cache}
}

func (r *TableRepo) cacheKey(id uint64) string {
    return fmt.Sprintf("%s:table:%d", r.cache.Prefix, id)
}

func (r *TableRepo) cached() bool { return r.rdb != nil && r.cache.Enabled }

// TableByID returns the table with its owning restaurant and manager. An
// unknown id yields an error wrapping apperr.ErrNotFound.
func (r *TableRepo) TableByID(ctx context.Context, id uint64) (*model.Table, error) {
    if r.cached() {
        if raw, err := r.rdb.Get(ctx, r.cacheKey(id)).Bytes(); err == nil {
            var t model.Table
            if json.Unmarshal(raw, &t) == nil {
                return &t, nil
            }
        } else if !errors.Is(err, redis.Nil) {
            log.Printf("catalog cache get %d: %v", id, err)
        }
    }

    const q = `SELECT t.id, t.restaurant_id, rs.manager_id, t.number, t.capacity
               FROM restaurant_tables t
               JOIN restaurants rs ON rs.id = t.restaurant_id
               WHERE t.id = ?`
    var t model.Table
    err := r.db.QueryRowContext(ctx, q, id).Scan(&t.ID, &t.RestaurantID, &t.ManagerID, &t.Number, &t.Capacity)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, fmt.Errorf("%w: table %d", apperr.ErrNotFound, id)
        }
        return nil, err
    }

    if r.cached() {
        if raw, err := json.Marshal(t); err == nil {
            if err := r.rdb.Set(ctx, r.cacheKey(id), raw, r.cache.TTL).Err(); err != nil {
                log.Printf("catalog cache set %d: %v", id, err)
            }
        }
    }
    return &t, nil
}

// Invalidate drops the cached entry for a table. It is a no-op without a
// Redis client.
func (r *TableRepo) Invalidate(ctx context.Context, id uint64) error {
    if r.rdb == nil {
        return nil
    }
    return r.rdb.Del(ctx, r.cacheKey(id)).Err()
}

// RestaurantByID returns a restaurant row.
func (r *TableRepo) RestaurantByID(ctx context.Context, id uint64) (*model.Restaurant, error) {
    var rs model.Restaurant
    err := r.db.QueryRowContext(ctx,
        "SELECT id, manager_id, name FROM restaurants WHERE id = ?", id).
        Scan(&rs.ID, &rs.ManagerID, &rs.Name)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, fmt.Errorf("%w: restaurant %d", apperr.ErrNotFound, id)
        }
        return nil, err
    }
    return &rs, nil
}

// CreateRestaurant inserts a restaurant managed by managerID. A manager
// runs at most one restaurant.
func (r *TableRepo) CreateRestaurant(ctx context.Context, managerID uint64, name string) (uint64, error) {
    res, err := r.db.ExecContext(ctx, "INSERT INTO restaurants (manager_id, name) VALUES (?, ?)", managerID, name)
    if err != nil {
        if isDuplicateKey(err) {
            return 0, fmt.Errorf("%w: user %d already manages a restaurant", apperr.ErrInvalidState, managerID)
        }
        return 0, err
    }
    id, err := res.LastInsertId()
    return uint64(id), err
}

// CreateTable adds a table to a restaurant and drops any stale cache
// entry for the new id.
func (r *TableRepo) CreateTable(ctx context.Context, restaurantID uint64, number, capacity uint32) (*model.Table, error) {
    if _, err := r.RestaurantByID(ctx, restaurantID); err != nil {
        return nil, err
    }
    res, err := r.db.ExecContext(ctx,
        "INSERT INTO restaurant_tables (restaurant_id, number, capacity) VALUES (?, ?, ?)",
        restaurantID, number, capacity)
    if err != nil {
        if isDuplicateKey(err) {
            return nil, fmt.Errorf("%w: table %d already exists in restaurant %d", apperr.ErrInvalidState, number, restaurantID)
        }
        return nil, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return nil, err
    }
    if err := r.Invalidate(ctx, uint64(id)); err != nil {
        log.Printf("catalog cache invalidate %d: %v", id, err)
    }
    return r.TableByID(ctx, uint64(id))
}
