package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type AvailabilityStatus string

const (
	AvailabilityAvailable AvailabilityStatus = "available"
	AvailabilityBusy      AvailabilityStatus = "busy"
	AvailabilityOffline   AvailabilityStatus = "offline"
)

// CategoryTractor основная категория техники; всё остальное - навесное оборудование
const CategoryTractor = "Tractor"

// Listing объявление о технике (трактор или дополнительное оборудование)
type Listing struct {
	ID                 int64              `json:"id"`
	OwnerID            int64              `json:"owner_id"`
	Title              string             `json:"title"`
	PricePerHour       decimal.Decimal    `json:"price_per_hour"`
	PostalArea         string             `json:"postal_area"`
	AvailabilityStatus AvailabilityStatus `json:"availability_status"`
	Category           string             `json:"category"`
	CreatedAt          time.Time          `json:"created_at"`
}

// IsOffline проверяет что техника снята с аренды
func (l *Listing) IsOffline() bool {
	return l.AvailabilityStatus == AvailabilityOffline
}

// IsPrimary проверяет что объявление относится к основной категории (трактор)
func (l *Listing) IsPrimary() bool {
	return l.Category == "" || l.Category == CategoryTractor
}
