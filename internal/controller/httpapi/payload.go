package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/uzhavango/rental_core/internal/service"
)

type createBookingPayload struct {
	TractorID  int64          `json:"tractor_id"`
	Hours      int            `json:"hours"`
	StartTime  *time.Time     `json:"start_time"`
	FarmerNote *string        `json:"farmer_note"`
	Addons     addonSelection `json:"addons"`
}

type transitionPayload struct {
	Status string  `json:"status"`
	Note   *string `json:"note"`
}

type confirmPayload struct {
	ConfirmedHours int `json:"confirmed_hours"`
}

type linkTelegramPayload struct {
	TelegramID int64 `json:"telegram_id"`
}

// settingPayload значение принимается числом или строкой: 12.5 или "12.5"
type settingPayload struct {
	Value json.Number `json:"value"`
}

type settingResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// addonSelection принимает дополнения в двух формах:
// {"12": 2} (ID -> количество) или [{"listing_id": 12, "quantity": 2}]
type addonSelection []service.AddonSelection

func (a *addonSelection) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = nil
		return nil
	}

	if data[0] == '[' {
		var items []struct {
			ListingID int64 `json:"listing_id"`
			Quantity  int   `json:"quantity"`
		}
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("decode addons list: %w", err)
		}

		out := make(addonSelection, 0, len(items))
		for _, it := range items {
			out = append(out, service.AddonSelection{ListingID: it.ListingID, Quantity: it.Quantity})
		}
		*a = out
		return nil
	}

	var byID map[string]int
	if err := json.Unmarshal(data, &byID); err != nil {
		return fmt.Errorf("decode addons map: %w", err)
	}

	out := make(addonSelection, 0, len(byID))
	for key, qty := range byID {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return fmt.Errorf("addon id %q is not a number", key)
		}
		out = append(out, service.AddonSelection{ListingID: id, Quantity: qty})
	}

	// Порядок ключей map случайный
	sort.Slice(out, func(i, j int) bool { return out[i].ListingID < out[j].ListingID })
	*a = out
	return nil
}
