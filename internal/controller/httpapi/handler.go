package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/uzhavango/rental_core/internal/model"
	"github.com/uzhavango/rental_core/internal/service"
	"go.uber.org/zap"
)

// BookingAPI операции бронирования, доступные через HTTP
type BookingAPI interface {
	CreateBooking(ctx context.Context, req service.CreateBookingRequest) (*model.Booking, error)
	Transition(ctx context.Context, req service.TransitionRequest) (*model.Booking, error)
	ConfirmCompletion(ctx context.Context, bookingID, farmerID int64, confirmedHours int) (*model.Payment, error)
	GetBooking(ctx context.Context, bookingID, actorID int64, role model.UserRole) (*model.Booking, error)
	ListForActor(ctx context.Context, actorID int64, role model.UserRole) ([]*model.Booking, error)
}

// UserAPI привязка Telegram аккаунта
type UserAPI interface {
	LinkTelegram(ctx context.Context, userID, telegramID int64) (*model.User, error)
}

// SettingsAPI изменение настроек платформы
type SettingsAPI interface {
	UpdateSetting(ctx context.Context, role model.UserRole, key, raw string) (decimal.Decimal, error)
}

type Handler struct {
	bookings BookingAPI
	users    UserAPI
	settings SettingsAPI
	logger   *zap.Logger
}

func NewHandler(bookings BookingAPI, users UserAPI, settings SettingsAPI, logger *zap.Logger) *Handler {
	return &Handler{bookings: bookings, users: users, settings: settings, logger: logger}
}

// CreateBooking POST /api/v1/bookings
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	if actor.Role != model.UserRoleFarmer {
		writeError(w, http.StatusForbidden, "Only farmers can request bookings.")
		return
	}

	var payload createBookingPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	booking, err := h.bookings.CreateBooking(r.Context(), service.CreateBookingRequest{
		FarmerID:  actor.ID,
		TractorID: payload.TractorID,
		Hours:     payload.Hours,
		StartTime: payload.StartTime,
		Note:      payload.FarmerNote,
		Addons:    payload.Addons,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, booking)
}

// MyBookings GET /api/v1/bookings/me
func (h *Handler) MyBookings(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())

	bookings, err := h.bookings.ListForActor(r.Context(), actor.ID, actor.Role)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if bookings == nil {
		bookings = []*model.Booking{}
	}

	writeJSON(w, http.StatusOK, bookings)
}

// GetBooking GET /api/v1/bookings/{id}
func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	id, ok := bookingID(w, r)
	if !ok {
		return
	}

	booking, err := h.bookings.GetBooking(r.Context(), id, actor.ID, actor.Role)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, booking)
}

// UpdateStatus PATCH /api/v1/bookings/{id}/status
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	id, ok := bookingID(w, r)
	if !ok {
		return
	}

	var payload transitionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	booking, err := h.bookings.Transition(r.Context(), service.TransitionRequest{
		BookingID: id,
		Target:    payload.Status,
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		Note:      payload.Note,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, booking)
}

// ConfirmCompletion POST /api/v1/bookings/{id}/confirm
func (h *Handler) ConfirmCompletion(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	id, ok := bookingID(w, r)
	if !ok {
		return
	}

	var payload confirmPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	payment, err := h.bookings.ConfirmCompletion(r.Context(), id, actor.ID, payload.ConfirmedHours)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payment)
}

// LinkTelegram PUT /api/v1/me/telegram
func (h *Handler) LinkTelegram(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())

	var payload linkTelegramPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	user, err := h.users.LinkTelegram(r.Context(), actor.ID, payload.TelegramID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// UpdateSetting PUT /api/v1/admin/settings/{key}
func (h *Handler) UpdateSetting(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())

	var payload settingPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	key := chi.URLParam(r, "key")
	value, err := h.settings.UpdateSetting(r.Context(), actor.Role, key, payload.Value.String())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, settingResponse{Key: key, Value: value.String()})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusCode(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeError(w, status, "Internal server error.")
		return
	}

	h.logger.Debug("Request rejected",
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.String("reason", err.Error()))
	writeError(w, status, err.Error())
}

func bookingID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusNotFound, "Booking not found.")
		return 0, false
	}
	return id, true
}
