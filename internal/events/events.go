package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	TypeInventoryChanged = "inventory.changed"
	TypeRateChanged      = "rate.changed"
)

// Event is a change notification fanned out to distribution channels. The
// payload names the scope of the change, not the new values; consumers
// re-read through the availability or pricing APIs.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	PropertyID string    `json:"propertyId"`
	CategoryID string    `json:"roomCategoryId"`
	StartDate  time.Time `json:"startDate"`
	EndDate    time.Time `json:"endDate"`
	OccurredAt time.Time `json:"occurredAt"`
}

func NewInventoryChanged(propertyID, categoryID string, start, end time.Time) Event {
	return newEvent(TypeInventoryChanged, propertyID, categoryID, start, end)
}

func NewRateChanged(propertyID, categoryID string, start, end time.Time) Event {
	return newEvent(TypeRateChanged, propertyID, categoryID, start, end)
}

func newEvent(eventType, propertyID, categoryID string, start, end time.Time) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		PropertyID: propertyID,
		CategoryID: categoryID,
		StartDate:  start,
		EndDate:    end,
		OccurredAt: time.Now().UTC(),
	}
}
