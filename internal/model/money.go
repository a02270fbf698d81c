package model

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// MoneyPlaces знаков после запятой в денежных суммах и коэффициентах
const MoneyPlaces = 2

// Money сериализует сумму в JSON строкой с фиксированной точностью ("1650.00")
type Money decimal.Decimal

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(decimal.Decimal(m).StringFixed(MoneyPlaces))
}

func (b Booking) MarshalJSON() ([]byte, error) {
	type alias Booking
	return json.Marshal(struct {
		alias
		QuotedPricePerHour Money `json:"quoted_price_per_hour"`
		BaseTotal          Money `json:"base_total"`
		AddonTotal         Money `json:"addon_total"`
		GrandTotal         Money `json:"grand_total"`
		SurgeMultiplier    Money `json:"surge_multiplier"`
		CommissionPct      Money `json:"commission_pct"`
		CommissionAmount   Money `json:"commission_amount"`
		OwnerPayoutAmount  Money `json:"owner_payout_amount"`
	}{
		alias:              alias(b),
		QuotedPricePerHour: Money(b.QuotedPricePerHour),
		BaseTotal:          Money(b.BaseTotal),
		AddonTotal:         Money(b.AddonTotal),
		GrandTotal:         Money(b.GrandTotal),
		SurgeMultiplier:    Money(b.SurgeMultiplier),
		CommissionPct:      Money(b.CommissionPct),
		CommissionAmount:   Money(b.CommissionAmount),
		OwnerPayoutAmount:  Money(b.OwnerPayoutAmount),
	})
}

func (a BookingAddon) MarshalJSON() ([]byte, error) {
	type alias BookingAddon
	return json.Marshal(struct {
		alias
		TotalPrice Money `json:"total_price"`
	}{
		alias:      alias(a),
		TotalPrice: Money(a.TotalPrice),
	})
}

func (p Payment) MarshalJSON() ([]byte, error) {
	type alias Payment
	return json.Marshal(struct {
		alias
		Amount Money `json:"amount"`
	}{
		alias:  alias(p),
		Amount: Money(p.Amount),
	})
}

func (e OwnerEarning) MarshalJSON() ([]byte, error) {
	type alias OwnerEarning
	return json.Marshal(struct {
		alias
		GrossAmount Money `json:"gross_amount"`
		PlatformFee Money `json:"platform_fee"`
		NetAmount   Money `json:"net_amount"`
	}{
		alias:       alias(e),
		GrossAmount: Money(e.GrossAmount),
		PlatformFee: Money(e.PlatformFee),
		NetAmount:   Money(e.NetAmount),
	})
}
