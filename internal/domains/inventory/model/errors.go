package model

import "errors"

var (
	ErrInsufficientCapacity = errors.New("insufficient capacity")
	ErrDateClosedOut        = errors.New("date closed out")
	ErrInvalidStayRange     = errors.New("check-out must be after check-in")
	ErrInvalidRoomCount     = errors.New("room count must be positive")
	ErrInventoryNotFound    = errors.New("inventory not configured for date range")
	ErrInvariantViolation   = errors.New("inventory counters would exceed capacity")
)
