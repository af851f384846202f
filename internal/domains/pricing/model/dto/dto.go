package dto

import (
	"time"

	"innkeeper/internal/domains/pricing/model"
	"innkeeper/shared/constant"
)

type QuoteRequest struct {
	PropertyID     string             `json:"property_id"      validate:"required,max=64"`
	RoomCategoryID string             `json:"room_category_id" validate:"required,max=64"`
	Date           string             `json:"date"             validate:"required,staydate"`
	BaseRate       float64            `json:"base_rate"        validate:"required,gt=0"`
	// An all-zero context is a legitimate signal set (same-day booking with
	// no occupancy or competitor data), so the struct itself is optional.
	Context model.QuoteContext `json:"context"`
}

func (r QuoteRequest) ParsedDate() (time.Time, error) {
	return time.Parse(constant.StayDateFormat, r.Date)
}
