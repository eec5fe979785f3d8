package domain

import "time"

// Prize is one entry in the lucky draw wheel. Weight is a non-negative
// relative probability; a zero-weight prize can never win.
type Prize struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// DrawResult records the outcome of a single completed spin. Immutable once created.
type DrawResult struct {
	ID        string    `json:"id"`
	PrizeID   string    `json:"prize_id"`
	PrizeName string    `json:"prize_name"`
	DrawnAt   time.Time `json:"drawn_at"`
}
