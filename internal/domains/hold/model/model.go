package model

import (
	"time"

	inventoryModel "innkeeper/internal/domains/inventory/model"
)

type HoldStatus string

const (
	HoldStatusActive    HoldStatus = "active"
	HoldStatusConverted HoldStatus = "converted"
	HoldStatusExpired   HoldStatus = "expired"
	HoldStatusReleased  HoldStatus = "released"
)

// Hold is a TTL-bounded claim on rooms while a guest completes checkout.
// Rooms counted by an active hold are unavailable to other shoppers but not
// yet booked.
type Hold struct {
	ID             string     `db:"id"`
	SessionID      string     `db:"session_id"`
	PropertyID     string     `db:"property_id"`
	RoomCategoryID string     `db:"room_category_id"`
	CheckIn        time.Time  `db:"check_in"`
	CheckOut       time.Time  `db:"check_out"`
	Rooms          int        `db:"rooms"`
	Status         HoldStatus `db:"status"`
	BookingID      *string    `db:"booking_id"`
	ExpiresAt      time.Time  `db:"expires_at"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

func (h Hold) Stay() inventoryModel.StayRange {
	return inventoryModel.StayRange{CheckIn: h.CheckIn, CheckOut: h.CheckOut}
}

func (h Hold) Active(now time.Time) bool {
	return h.Status == HoldStatusActive && now.Before(h.ExpiresAt)
}

func (h Hold) Expired(now time.Time) bool {
	return h.Status == HoldStatusActive && !now.Before(h.ExpiresAt)
}

const (
	TableName  = "holds"
	EntityName = "hold"
)
