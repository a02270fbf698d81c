package service

import (
	"github.com/shopspring/decimal"
	"github.com/uzhavango/rental_core/internal/model"
)

var hundred = decimal.NewFromInt(100)

// AddonSelection запрошенное фермером навесное оборудование
type AddonSelection struct {
	ListingID int64 `json:"listing_id"`
	Quantity  int   `json:"quantity"`
}

// Totals расчёт стоимости бронирования по статьям
type Totals struct {
	SurgeMultiplier  decimal.Decimal
	EffectiveRate    decimal.Decimal
	BaseTotal        decimal.Decimal
	AddonTotal       decimal.Decimal
	GrandTotal       decimal.Decimal
	CommissionPct    decimal.Decimal
	CommissionAmount decimal.Decimal
	OwnerPayout      decimal.Decimal
	Addons           []model.BookingAddon
}

func round(d decimal.Decimal) decimal.Decimal {
	// суммы округляются до копеек на каждом шаге
	return d.Round(model.MoneyPlaces)
}

// Price считает стоимость аренды. Функция чистая: всё нужное передаётся аргументами.
// candidates - объявления, найденные по ID из selections. Неподходящие позиции
// (чужой владелец, offline, основная категория, количество <= 0, неизвестный ID)
// пропускаются без ошибки. Повторы одного ID складываются в одну позицию.
func Price(
	listing *model.Listing,
	hours int,
	selections []AddonSelection,
	candidates map[int64]*model.Listing,
	surge decimal.Decimal,
	commissionPct decimal.Decimal,
) Totals {
	h := decimal.NewFromInt(int64(hours))

	rate := round(listing.PricePerHour.Mul(surge))
	base := round(rate.Mul(h))

	addonTotal := decimal.Zero
	var lines []model.BookingAddon
	for _, sel := range mergeSelections(selections) {
		addon, ok := candidates[sel.ListingID]
		if !ok || !eligibleAddon(listing, addon) || sel.Quantity <= 0 {
			continue
		}

		line := round(addon.PricePerHour.Mul(h).Mul(decimal.NewFromInt(int64(sel.Quantity))))
		addonTotal = addonTotal.Add(line)
		lines = append(lines, model.BookingAddon{
			AddonListingID: addon.ID,
			Quantity:       sel.Quantity,
			TotalPrice:     line,
		})
	}

	grand := round(base.Add(addonTotal))
	commission := round(grand.Mul(commissionPct.Div(hundred)))

	return Totals{
		SurgeMultiplier:  surge,
		EffectiveRate:    rate,
		BaseTotal:        base,
		AddonTotal:       addonTotal,
		GrandTotal:       grand,
		CommissionPct:    commissionPct,
		CommissionAmount: commission,
		OwnerPayout:      grand.Sub(commission),
		Addons:           lines,
	}
}

// mergeSelections суммирует количество по ID в порядке первого упоминания.
// Позиции с количеством <= 0 отбрасываются до суммирования.
func mergeSelections(selections []AddonSelection) []AddonSelection {
	merged := make([]AddonSelection, 0, len(selections))
	index := make(map[int64]int, len(selections))

	for _, sel := range selections {
		if sel.Quantity <= 0 {
			continue
		}
		if i, ok := index[sel.ListingID]; ok {
			merged[i].Quantity += sel.Quantity
			continue
		}
		index[sel.ListingID] = len(merged)
		merged = append(merged, sel)
	}

	return merged
}

func eligibleAddon(primary, addon *model.Listing) bool {
	if addon == nil || addon.ID == primary.ID {
		return false
	}
	return addon.OwnerID == primary.OwnerID && !addon.IsOffline() && !addon.IsPrimary()
}

// Apply переносит расчёт в бронирование
func (t Totals) Apply(b *model.Booking) {
	b.QuotedPricePerHour = t.EffectiveRate
	b.BaseTotal = t.BaseTotal
	b.AddonTotal = t.AddonTotal
	b.GrandTotal = t.GrandTotal
	b.SurgeMultiplier = t.SurgeMultiplier
	b.CommissionPct = t.CommissionPct
	b.CommissionAmount = t.CommissionAmount
	b.OwnerPayoutAmount = t.OwnerPayout
	b.Addons = t.Addons
}
