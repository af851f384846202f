package model

import "errors"

var (
	ErrHoldNotFound         = errors.New("hold not found")
	ErrHoldExpired          = errors.New("hold expired")
	ErrHoldAlreadyConverted = errors.New("hold already converted")
	ErrHoldNotActive        = errors.New("hold not active")
	ErrHoldNotOwned         = errors.New("hold belongs to another session")
)
