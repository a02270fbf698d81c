package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Booking struct {
	ID        int64         `json:"id"`
	TractorID int64         `json:"tractor_id"`
	FarmerID  int64         `json:"farmer_id"`
	OwnerID   int64         `json:"owner_id"`
	Status    BookingStatus `json:"status"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Hours     int           `json:"hours"`

	// Денежные поля замораживаются при создании и больше не пересчитываются
	QuotedPricePerHour decimal.Decimal `json:"quoted_price_per_hour"`
	BaseTotal          decimal.Decimal `json:"base_total"`
	AddonTotal         decimal.Decimal `json:"addon_total"`
	GrandTotal         decimal.Decimal `json:"grand_total"`
	SurgeMultiplier    decimal.Decimal `json:"surge_multiplier"`
	CommissionPct      decimal.Decimal `json:"commission_pct"`
	CommissionAmount   decimal.Decimal `json:"commission_amount"`
	OwnerPayoutAmount  decimal.Decimal `json:"owner_payout_amount"`

	AcceptedAt        *time.Time `json:"accepted_at"`
	EnRouteAt         *time.Time `json:"en_route_at"`
	StartedAt         *time.Time `json:"started_at"`
	CompletedAt       *time.Time `json:"completed_at"`
	FarmerConfirmedAt *time.Time `json:"farmer_confirmed_at"`
	CancelledAt       *time.Time `json:"cancelled_at"`
	PaidAt            *time.Time `json:"paid_at"`

	ConfirmedHours *int    `json:"confirmed_hours"` // часы, подтверждённые фермером
	FarmerNote     *string `json:"farmer_note"`
	OwnerNote      *string `json:"owner_note"`

	Version   int       `json:"-"` // для оптимистичной проверки при смене статуса
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Дополнительные поля для удобства (не из таблицы bookings)
	Addons  []BookingAddon `json:"addons,omitempty"`
	Payment *Payment       `json:"payment,omitempty"`
}

// BookingAddon дополнительное оборудование, арендованное вместе с трактором
type BookingAddon struct {
	ID             int64           `json:"id"`
	BookingID      int64           `json:"booking_id"`
	AddonListingID int64           `json:"addon_listing_id"`
	Quantity       int             `json:"quantity"`
	TotalPrice     decimal.Decimal `json:"total_price"`
	CreatedAt      time.Time       `json:"created_at"`
}

// IsParty проверяет что пользователь является участником бронирования
func (b *Booking) IsParty(userID int64) bool {
	return b.FarmerID == userID || b.OwnerID == userID
}

// Counterpart возвращает вторую сторону бронирования для уведомлений
func (b *Booking) Counterpart(actorID int64) int64 {
	if actorID == b.FarmerID {
		return b.OwnerID
	}
	return b.FarmerID
}

// StampMilestone проставляет время этапа, соответствующего статусу.
// Уже заполненное время не перезаписывается.
func (b *Booking) StampMilestone(status BookingStatus, at time.Time) {
	var field **time.Time
	switch status {
	case BookingStatusAccepted:
		field = &b.AcceptedAt
	case BookingStatusEnRoute:
		field = &b.EnRouteAt
	case BookingStatusWorking:
		field = &b.StartedAt
	case BookingStatusCompleted:
		field = &b.CompletedAt
	case BookingStatusCancelled:
		field = &b.CancelledAt
	case BookingStatusPaid:
		field = &b.PaidAt
	default:
		return
	}
	if *field == nil {
		t := at
		*field = &t
	}
}
