package dto

import (
	"innkeeper/internal/domains/hold/model"
	inventoryDto "innkeeper/internal/domains/inventory/model/dto"
	"innkeeper/shared/constant"
)

type CreateHoldRequest struct {
	inventoryDto.StayRequest
	SessionID string `json:"session_id" validate:"required,max=64"`
	Rooms     int    `json:"rooms"      validate:"required,gt=0"`
}

type ConvertHoldRequest struct {
	SessionID string `json:"session_id" validate:"required,max=64"`
	BookingID string `json:"booking_id" validate:"required,max=64"`
}

type ReleaseHoldRequest struct {
	SessionID string `json:"session_id" validate:"required,max=64"`
}

type HoldResponse struct {
	ID             string  `json:"id"`
	SessionID      string  `json:"session_id"`
	PropertyID     string  `json:"property_id"`
	RoomCategoryID string  `json:"room_category_id"`
	CheckIn        string  `json:"check_in"`
	CheckOut       string  `json:"check_out"`
	Rooms          int     `json:"rooms"`
	Status         string  `json:"status"`
	BookingID      *string `json:"booking_id,omitempty"`
	ExpiresAt      string  `json:"expires_at"`
	CreatedAt      string  `json:"created_at"`
}

func HoldResponseFromModel(hold model.Hold) HoldResponse {
	return HoldResponse{
		ID:             hold.ID,
		SessionID:      hold.SessionID,
		PropertyID:     hold.PropertyID,
		RoomCategoryID: hold.RoomCategoryID,
		CheckIn:        hold.CheckIn.Format(constant.StayDateFormat),
		CheckOut:       hold.CheckOut.Format(constant.StayDateFormat),
		Rooms:          hold.Rooms,
		Status:         string(hold.Status),
		BookingID:      hold.BookingID,
		ExpiresAt:      hold.ExpiresAt.Format(constant.DateFormat),
		CreatedAt:      hold.CreatedAt.Format(constant.DateFormat),
	}
}

func HoldResponsesFromModels(holds []model.Hold) []HoldResponse {
	responses := make([]HoldResponse, 0, len(holds))
	for _, hold := range holds {
		responses = append(responses, HoldResponseFromModel(hold))
	}

	return responses
}
