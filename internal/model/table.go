package model

// Table is the catalog view of a restaurant table. The booking core only
// needs the ownership chain table -> restaurant -> manager.
type Table struct {
    ID           uint64 `json:"id"`            // restaurant_tables.id
    RestaurantID uint64 `json:"restaurant_id"` // restaurant_tables.restaurant_id
    ManagerID    uint64 `json:"manager_id"`    // restaurants.manager_id
    Number       uint32 `json:"number"`        // restaurant_tables.number
    Capacity     uint32 `json:"capacity"`      // restaurant_tables.capacity
}

// Restaurant represents a row in the `restaurants` table. Each restaurant
// has exactly one manager.
type Restaurant struct {
    ID        uint64 // restaurants.id
    ManagerID uint64 // restaurants.manager_id
    Name      string // restaurants.name
}
