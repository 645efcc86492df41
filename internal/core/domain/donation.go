package domain

import "time"

// Donation is a single entry in a principal's donation history as reported
// by the upstream platform.
type Donation struct {
	ID        string    `json:"id"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	Cause     string    `json:"cause,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}
