package model

import (
	"time"
)

const (
	TableName  = "inventory_days"
	EntityName = "inventory"
)

// InventoryDay holds the capacity counters for one property, room category
// and stay date. It is the single source of truth for how many rooms can
// still be sold on that date.
type InventoryDay struct {
	PropertyID     string    `db:"property_id"      json:"property_id"`
	RoomCategoryID string    `db:"room_category_id" json:"room_category_id"`
	Date           time.Time `db:"stay_date"        json:"date"`
	TotalRooms     int       `db:"total_rooms"      json:"total_rooms"`
	BookedRooms    int       `db:"booked_rooms"     json:"booked_rooms"`
	BlockedRooms   int       `db:"blocked_rooms"    json:"blocked_rooms"`
	HeldRooms      int       `db:"held_rooms"       json:"held_rooms"`
}

// AvailableRooms is capacity minus confirmed bookings and blocks.
func (d InventoryDay) AvailableRooms() int {
	return d.TotalRooms - d.BookedRooms - d.BlockedRooms
}

// NetAvailable is what can still be sold right now: available minus active holds.
func (d InventoryDay) NetAvailable() int {
	return d.AvailableRooms() - d.HeldRooms
}

// Consistent reports whether the counters satisfy the ledger invariant:
// no counter negative and booked+blocked+held never above total.
func (d InventoryDay) Consistent() bool {
	if d.BookedRooms < 0 || d.BlockedRooms < 0 || d.HeldRooms < 0 || d.TotalRooms < 0 {
		return false
	}

	return d.BookedRooms+d.BlockedRooms+d.HeldRooms <= d.TotalRooms
}

// Key identifies the inventory row this day belongs to.
func (d InventoryDay) Key() string {
	return d.PropertyID + ":" + d.RoomCategoryID + ":" + d.Date.Format("2006-01-02")
}
