package dto

import (
	"innkeeper/internal/domains/inventory/model"
	"innkeeper/shared/constant"
)

type StayRequest struct {
	PropertyID     string `json:"property_id"      validate:"required,max=64"`
	RoomCategoryID string `json:"room_category_id" validate:"required,max=64"`
	CheckIn        string `json:"check_in"         validate:"required,staydate"`
	CheckOut       string `json:"check_out"        validate:"required,staydate"`
}

func (r StayRequest) Stay() (model.StayRange, error) {
	return model.ParseStayRange(r.CheckIn, r.CheckOut)
}

type CheckAvailabilityRequest struct {
	StayRequest
	Rooms int `json:"rooms" validate:"required,gt=0"`
}

type CheckAvailabilityResponse struct {
	Available bool `json:"available"`
}

type SetBlockedRequest struct {
	StayRequest
	Rooms int `json:"rooms" validate:"gte=0"`
}

type SetCapacityRequest struct {
	StayRequest
	TotalRooms int `json:"total_rooms" validate:"gte=0"`
}

type CancelBookingRequest struct {
	StayRequest
	Rooms int `json:"rooms" validate:"required,gt=0"`
}

type DayResponse struct {
	Date           string `json:"date"`
	TotalRooms     int    `json:"total_rooms"`
	BookedRooms    int    `json:"booked_rooms"`
	BlockedRooms   int    `json:"blocked_rooms"`
	HeldRooms      int    `json:"held_rooms"`
	AvailableRooms int    `json:"available_rooms"`
	NetAvailable   int    `json:"net_available"`
}

func DayResponseFromModel(day model.InventoryDay) DayResponse {
	return DayResponse{
		Date:           day.Date.Format(constant.StayDateFormat),
		TotalRooms:     day.TotalRooms,
		BookedRooms:    day.BookedRooms,
		BlockedRooms:   day.BlockedRooms,
		HeldRooms:      day.HeldRooms,
		AvailableRooms: day.AvailableRooms(),
		NetAvailable:   day.NetAvailable(),
	}
}
