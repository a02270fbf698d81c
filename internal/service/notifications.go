package service

import (
	"fmt"

	"github.com/uzhavango/rental_core/internal/model"
)

// bookingRequestNotice уведомление владельцу о новой заявке
func bookingRequestNotice(b *model.Booking, listing *model.Listing) *model.Notification {
	return model.NewNotification(b.OwnerID, b.ID,
		"New booking request",
		fmt.Sprintf("You received a booking request for %s.", listing.Title))
}

// surgeNotice предупреждение фермеру о повышенном тарифе
func surgeNotice(b *model.Booking, listing *model.Listing) *model.Notification {
	return model.NewNotification(b.FarmerID, b.ID,
		"Surge pricing alert",
		fmt.Sprintf("High demand in %s. Surge %sx applied.", listing.PostalArea, b.SurgeMultiplier.StringFixed(2)))
}

// transitionNotices уведомления о смене статуса.
// Получатель - вторая сторона относительно того, кто сменил статус.
func transitionNotices(b *model.Booking, title string, actorID int64, payment *model.Payment) []*model.Notification {
	recipient := b.Counterpart(actorID)

	switch b.Status {
	case model.BookingStatusAccepted:
		return []*model.Notification{model.NewNotification(recipient, b.ID,
			"Booking accepted",
			fmt.Sprintf("Your booking for %s was accepted.", title))}
	case model.BookingStatusCancelled:
		return []*model.Notification{model.NewNotification(recipient, b.ID,
			"Booking cancelled",
			fmt.Sprintf("Your booking for %s was cancelled.", title))}
	case model.BookingStatusEnRoute:
		return []*model.Notification{model.NewNotification(recipient, b.ID,
			"Tractor en route",
			fmt.Sprintf("The owner marked booking #%d as en route.", b.ID))}
	case model.BookingStatusWorking:
		return []*model.Notification{model.NewNotification(recipient, b.ID,
			"Work started",
			fmt.Sprintf("Work has started for booking #%d.", b.ID))}
	case model.BookingStatusCompleted:
		if actorID == b.FarmerID {
			return []*model.Notification{model.NewNotification(recipient, b.ID,
				"Work completed by farmer",
				fmt.Sprintf("The farmer marked booking #%d as completed.", b.ID))}
		}
		return []*model.Notification{model.NewNotification(recipient, b.ID,
			"Work completed by owner",
			"Please confirm completion and actual hours to finalize payment.")}
	case model.BookingStatusPaid:
		return paidNotices(b, payment)
	}

	return nil
}

// paidNotices оплату видят обе стороны
func paidNotices(b *model.Booking, payment *model.Payment) []*model.Notification {
	return []*model.Notification{
		model.NewNotification(b.FarmerID, b.ID,
			"Payment successful",
			fmt.Sprintf("Payment completed. Receipt #%s.", payment.ReceiptNumber)),
		model.NewNotification(b.OwnerID, b.ID,
			"Payment received",
			fmt.Sprintf("Payment completed for booking #%d. Receipt #%s.", b.ID, payment.ReceiptNumber)),
	}
}

// confirmationNotice фермер подтвердил выполнение работ
func confirmationNotice(b *model.Booking) *model.Notification {
	return model.NewNotification(b.OwnerID, b.ID,
		"Farmer confirmed completion",
		fmt.Sprintf("Booking #%d has been finalized and paid.", b.ID))
}
