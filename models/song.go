package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Song represents a row in the t_songs table.
type Song struct {
	ID           int64           `json:"id"`
	Title        string          `json:"title"`
	Length       int             `json:"length"` // seconds
	DateReleased time.Time       `json:"date_released"`
	Price        decimal.Decimal `json:"price"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}
