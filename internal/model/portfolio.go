package model

import "time"

// Portfolio represents a portfolio from the database.
// A portfolio owns an ordered collection of transactions; deleting a
// portfolio cascades to its transactions.
type Portfolio struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}
