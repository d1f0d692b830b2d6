package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/kartvelo/kartvelo-backend/pkg/db/models"
	"github.com/kartvelo/kartvelo-backend/pkg/enums"
)

// CreateOrderInput carries the booking request. CustomerID is nil for guest
// bookings.
type CreateOrderInput struct {
	TourID          uuid.UUID
	CustomerID      *uuid.UUID
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	CustomerCountry string
	PeopleCount     int
	TourDate        time.Time
	Notes           string
	Currency        enums.Currency
}

// OrderList is one page of orders plus the cursor for the next page.
type OrderList struct {
	Orders     []models.Order `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}
