package rest

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/chemimartinez77/clubdn-sub002/internal/domain"
	appCtx "github.com/chemimartinez77/clubdn-sub002/internal/pkg/context"
	"github.com/chemimartinez77/clubdn-sub002/internal/service"
	"github.com/chemimartinez77/clubdn-sub002/internal/transport/rest/response"
)

type Handler struct {
	events        *service.EventService
	registrations *service.RegistrationService
	notifications *service.NotificationService
}

func NewHandler(ev *service.EventService, reg *service.RegistrationService, nt *service.NotificationService) *Handler {
	return &Handler{events: ev, registrations: reg, notifications: nt}
}

type eventDTO struct {
	ID          uuid.UUID  `json:"id"`
	OrganizerID uuid.UUID  `json:"organizer_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Location    string     `json:"location,omitempty"`
	Type        string     `json:"type"`
	StartsAt    time.Time  `json:"starts_at"`
	Capacity    int        `json:"capacity"`
	Status      string     `json:"status"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

func toEventDTO(e *domain.Event) eventDTO {
	return eventDTO{
		ID:          e.ID,
		OrganizerID: e.OrganizerID,
		Title:       e.Title,
		Description: e.Description,
		Location:    e.Location,
		Type:        string(e.Type),
		StartsAt:    e.StartsAt,
		Capacity:    e.Capacity,
		Status:      string(e.Status),
		CancelledAt: e.CancelledAt,
	}
}

type registrationDTO struct {
	ID          uuid.UUID  `json:"id"`
	EventID     uuid.UUID  `json:"event_id"`
	UserID      uuid.UUID  `json:"user_id"`
	Status      string     `json:"status"`
	JoinedAt    time.Time  `json:"joined_at"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
}

func toRegistrationDTO(reg *domain.Registration) registrationDTO {
	return registrationDTO{
		ID:          reg.ID,
		EventID:     reg.EventID,
		UserID:      reg.UserID,
		Status:      string(reg.Status),
		JoinedAt:    reg.CreatedAt,
		ConfirmedAt: reg.ConfirmedAt,
	}
}

func toRegistrationDTOs(regs []*domain.Registration) []registrationDTO {
	out := make([]registrationDTO, 0, len(regs))
	for _, reg := range regs {
		out = append(out, toRegistrationDTO(reg))
	}
	return out
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	auth, ok := GetAuth(r.Context())
	if !ok {
		fail(w, r, http.StatusUnauthorized, "auth.unauthorized", "unauthorized", nil)
		return
	}

	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Location    string `json:"location"`
		Type        string `json:"type"`
		StartsAt    string `json:"starts_at"` // RFC3339
		Capacity    int    `json:"capacity"`
	}
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		fail(w, r, http.StatusBadRequest, "request.invalid", "invalid body", nil)
		return
	}

	startsAt, err := time.Parse(time.RFC3339, strings.TrimSpace(req.StartsAt))
	if err != nil {
		fail(w, r, http.StatusBadRequest, "request.invalid", "invalid starts_at", map[string]string{
			"starts_at": "must be RFC3339",
		})
		return
	}

	ev, err := h.events.Create(r.Context(), service.CreateEventCmd{
		ActorID:     auth.UserID,
		ActorRole:   auth.Role,
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Type:        domain.EventType(strings.TrimSpace(req.Type)),
		StartsAt:    startsAt.UTC(),
		Capacity:    req.Capacity,
	})
	if err != nil {
		handleErr(w, r, err)
		return
	}

	response.JSON(w, http.StatusCreated, map[string]any{"event": toEventDTO(ev)})
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}

	ev, err := h.events.Get(r.Context(), eventID)
	if err != nil {
		handleErr(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{"event": toEventDTO(ev)})
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r.URL.Query().Get("limit"))

	events, err := h.events.ListUpcoming(r.Context(), limit)
	if err != nil {
		handleErr(w, r, err)
		return
	}

	items := make([]eventDTO, 0, len(events))
	for _, ev := range events {
		items = append(items, toEventDTO(ev))
	}
	response.JSON(w, http.StatusOK, map[string]any{"events": items})
}

func (h *Handler) CancelEvent(w http.ResponseWriter, r *http.Request) {
	h.transitionEvent(w, r, h.events.Cancel)
}

func (h *Handler) BeginEvent(w http.ResponseWriter, r *http.Request) {
	h.transitionEvent(w, r, h.events.Begin)
}

func (h *Handler) CompleteEvent(w http.ResponseWriter, r *http.Request) {
	h.transitionEvent(w, r, h.events.Complete)
}

func (h *Handler) transitionEvent(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, eventID, actorID uuid.UUID, actorRole string) (*domain.Event, error),
) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}

	auth, ok := GetAuth(r.Context())
	if !ok {
		fail(w, r, http.StatusUnauthorized, "auth.unauthorized", "unauthorized", nil)
		return
	}

	ev, err := fn(r.Context(), eventID, auth.UserID, auth.Role)
	if err != nil {
		handleErr(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{"event": toEventDTO(ev)})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}

	auth, ok := GetAuth(r.Context())
	if !ok {
		fail(w, r, http.StatusUnauthorized, "auth.unauthorized", "unauthorized", nil)
		return
	}

	reg, err := h.registrations.Register(r.Context(), eventID, auth.UserID)
	if err != nil {
		handleErr(w, r, err)
		return
	}

	response.JSON(w, http.StatusCreated, map[string]any{
		"registration": map[string]any{
			"id":     reg.ID,
			"status": string(reg.Status),
		},
	})
}

func (h *Handler) Unregister(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}

	auth, ok := GetAuth(r.Context())
	if !ok {
		fail(w, r, http.StatusUnauthorized, "auth.unauthorized", "unauthorized", nil)
		return
	}

	if err := h.registrations.Unregister(r.Context(), eventID, auth.UserID); err != nil {
		handleErr(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{
		"message": "registration cancelled",
	})
}

func (h *Handler) Attendees(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathUUID(w, r, "eventID")
	if !ok {
		return
	}

	att, err := h.registrations.ListAttendees(r.Context(), eventID)
	if err != nil {
		handleErr(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"confirmed": toRegistrationDTOs(att.Confirmed),
		"waitlist":  toRegistrationDTOs(att.Waitlist),
	})
}

func (h *Handler) MyRegistrations(w http.ResponseWriter, r *http.Request) {
	auth, ok := GetAuth(r.Context())
	if !ok {
		fail(w, r, http.StatusUnauthorized, "auth.unauthorized", "unauthorized", nil)
		return
	}

	regs, err := h.registrations.ListMine(r.Context(), auth.UserID)
	if err != nil {
		handleErr(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"registrations": toRegistrationDTOs(regs),
	})
}

type notificationDTO struct {
	ID        uuid.UUID  `json:"id"`
	Kind      string     `json:"kind"`
	EventID   uuid.UUID  `json:"event_id"`
	Title     string     `json:"title,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
}

func (h *Handler) MyNotifications(w http.ResponseWriter, r *http.Request) {
	auth, ok := GetAuth(r.Context())
	if !ok {
		fail(w, r, http.StatusUnauthorized, "auth.unauthorized", "unauthorized", nil)
		return
	}

	limit := parseLimit(r.URL.Query().Get("limit"))

	items, err := h.notifications.ListMine(r.Context(), auth.UserID, limit)
	if err != nil {
		handleErr(w, r, err)
		return
	}

	out := make([]notificationDTO, 0, len(items))
	for _, n := range items {
		out = append(out, notificationDTO{
			ID:        n.ID,
			Kind:      string(n.Kind),
			EventID:   n.EventID,
			Title:     n.Title,
			CreatedAt: n.CreatedAt,
			ReadAt:    n.ReadAt,
		})
	}
	response.JSON(w, http.StatusOK, map[string]any{"notifications": out})
}

func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	notifID, ok := pathUUID(w, r, "notificationID")
	if !ok {
		return
	}

	auth, ok := GetAuth(r.Context())
	if !ok {
		fail(w, r, http.StatusUnauthorized, "auth.unauthorized", "unauthorized", nil)
		return
	}

	if err := h.notifications.MarkRead(r.Context(), auth.UserID, notifID); err != nil {
		handleErr(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "notification read"})
}

func handleErr(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrAlreadyRegistered):
		fail(w, r, http.StatusConflict, "registration.conflict", err.Error(), nil)

	case errors.Is(err, domain.ErrEventClosed):
		fail(w, r, http.StatusBadRequest, "event.closed", err.Error(), nil)
	case errors.Is(err, domain.ErrEventInPast):
		fail(w, r, http.StatusBadRequest, "event.in_past", err.Error(), nil)
	case errors.Is(err, domain.ErrAlreadyCancelled):
		fail(w, r, http.StatusBadRequest, "registration.already_cancelled", err.Error(), nil)
	case errors.Is(err, domain.ErrValidation):
		fail(w, r, http.StatusBadRequest, "request.invalid", err.Error(), nil)

	case errors.Is(err, domain.ErrEventNotFound):
		fail(w, r, http.StatusNotFound, "event.not_found", err.Error(), nil)
	case errors.Is(err, domain.ErrNotRegistered):
		fail(w, r, http.StatusNotFound, "registration.not_found", err.Error(), nil)
	case errors.Is(err, domain.ErrNotificationNotFound):
		fail(w, r, http.StatusNotFound, "notification.not_found", err.Error(), nil)

	case errors.Is(err, domain.ErrForbidden):
		fail(w, r, http.StatusForbidden, "auth.forbidden", err.Error(), nil)

	default:
		// Do not leak internal details.
		fail(w, r, http.StatusInternalServerError, "internal", "internal error", nil)
	}
}

func fail(w http.ResponseWriter, r *http.Request, status int, code, message string, meta map[string]string) {
	reqID := appCtx.GetRequestIDOr(r.Context(), "no-request-id")
	response.Fail(w, status, code, message, meta, reqID)
}

func pathUUID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		fail(w, r, http.StatusBadRequest, "request.invalid", "invalid "+param, map[string]string{
			param: "must be a valid uuid",
		})
		return uuid.Nil, false
	}
	return id, true
}

func parseLimit(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 20
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 20
	}
	if n < 1 {
		return 1
	}
	if n > 100 {
		return 100
	}
	return n
}
