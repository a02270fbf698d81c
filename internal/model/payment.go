package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const PaymentStatusPaid PaymentStatus = "paid"

type Payment struct {
	ID            int64           `json:"id"`
	BookingID     int64           `json:"booking_id"`
	ReceiptNumber string          `json:"receipt_number"`
	Amount        decimal.Decimal `json:"amount"`
	FarmerID      int64           `json:"farmer_id"`
	OwnerID       int64           `json:"owner_id"`
	Status        PaymentStatus   `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}

// OwnerEarning чистый доход владельца по одному бронированию
type OwnerEarning struct {
	ID          int64           `json:"id"`
	OwnerID     int64           `json:"owner_id"`
	BookingID   int64           `json:"booking_id"`
	GrossAmount decimal.Decimal `json:"gross_amount"`
	PlatformFee decimal.Decimal `json:"platform_fee"`
	NetAmount   decimal.Decimal `json:"net_amount"`
	CreatedAt   time.Time       `json:"created_at"`
}
