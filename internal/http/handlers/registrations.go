package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/geocoder89/admithub/internal/admission"
	"github.com/geocoder89/admithub/internal/cache"
	"github.com/geocoder89/admithub/internal/config"
	"github.com/geocoder89/admithub/internal/domain/event"
	"github.com/geocoder89/admithub/internal/domain/registration"
	"github.com/geocoder89/admithub/internal/domain/user"
	"github.com/geocoder89/admithub/internal/utils"
	"github.com/gin-gonic/gin"
)

const (
	defaultRegistrationsPageSize = 50
	maxRegistrationsPageSize     = 200
)

// Admitter is the admission/release protocol as the HTTP layer sees it.
type Admitter interface {
	Register(ctx context.Context, userID, eventID string) (registration.Registration, error)
	Release(ctx context.Context, userID, eventID string) error
}

type RegistrationsLister interface {
	ListByUser(ctx context.Context, userID string) ([]registration.Registration, error)
	CountForEvent(ctx context.Context, eventID string) (int, error)
	ListByEventCursor(ctx context.Context, eventID string, limit int, afterRegisteredAt time.Time, afterUserID string) ([]registration.Registration, *string, bool, error)
}

type UserGetter interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

type EventGetter interface {
	GetByID(ctx context.Context, id string) (event.Event, error)
}

type RegistrationsHandler struct {
	admitter Admitter
	lister   RegistrationsLister
	users    UserGetter
	events   EventGetter
	cache    *cache.Cache
}

func NewRegistrationsHandler(admitter Admitter, lister RegistrationsLister, users UserGetter, events EventGetter, c *cache.Cache) *RegistrationsHandler {
	return &RegistrationsHandler{
		admitter: admitter,
		lister:   lister,
		users:    users,
		events:   events,
		cache:    c,
	}
}

// admission and release both mutate the event's aggregate record, so its
// cached copy has to go
func (h *RegistrationsHandler) invalidateEvent(ctx context.Context, eventID string) {
	if h.cache == nil {
		return
	}

	h.cache.Delete(ctx, utils.EventCacheKey(eventID), utils.EventsListCacheKey(nil))
}

func (h *RegistrationsHandler) register(ctx *gin.Context, userID, eventID string) {
	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	reg, err := h.admitter.Register(cctx, userID, eventID)

	if err != nil {
		switch {
		case errors.Is(err, user.ErrNotFound):
			RespondNotFound(ctx, "User not found")
		case errors.Is(err, event.ErrNotFound):
			RespondNotFound(ctx, "Event not found")
		case errors.Is(err, registration.ErrAlreadyRegistered):
			RespondConflict(ctx, "already_registered", "User already registered for this event.")
		case errors.Is(err, registration.ErrAlreadyWaitlisted):
			RespondConflict(ctx, "already_waitlisted", "User already on waitlist for this event.")
		case errors.Is(err, registration.ErrEventFull):
			RespondConflict(ctx, "event_full", "Event is full and waitlist is not enabled.")
		case errors.Is(err, admission.ErrRetryLimit):
			RespondInternal(ctx, "Could not register, please retry")
		default:
			RespondInternal(ctx, "Could not create registration")
		}
		return
	}

	h.invalidateEvent(cctx, eventID)

	ctx.JSON(http.StatusCreated, reg)
}

// CreateForUser handles POST /users/:id/registrations.
func (h *RegistrationsHandler) CreateForUser(ctx *gin.Context) {
	userID := ctx.Param("id")

	var req registration.CreateRegistrationRequest

	if !BindJSON(ctx, &req) {
		return
	}

	h.register(ctx, userID, req.EventID)
}

// CreateForEvent handles POST /events/:id/registrations, the event-centric
// twin of CreateForUser.
func (h *RegistrationsHandler) CreateForEvent(ctx *gin.Context) {
	eventID := ctx.Param("id")

	var req registration.CreateForEventRequest

	if !BindJSON(ctx, &req) {
		return
	}

	h.register(ctx, req.UserID, eventID)
}

func (h *RegistrationsHandler) unregister(ctx *gin.Context, userID, eventID string) {
	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	err := h.admitter.Release(cctx, userID, eventID)

	if err != nil {
		switch {
		case errors.Is(err, registration.ErrNotFound):
			RespondNotFound(ctx, "Registration not found")
		case errors.Is(err, event.ErrNotFound):
			RespondNotFound(ctx, "Event not found")
		default:
			RespondInternal(ctx, "Could not delete registration")
		}
		return
	}

	h.invalidateEvent(cctx, eventID)

	ctx.Status(http.StatusNoContent)
}

// DeleteForUser handles DELETE /users/:id/registrations/:eventId.
func (h *RegistrationsHandler) DeleteForUser(ctx *gin.Context) {
	h.unregister(ctx, ctx.Param("id"), ctx.Param("eventId"))
}

// DeleteForEvent handles DELETE /events/:id/registrations/:userId.
func (h *RegistrationsHandler) DeleteForEvent(ctx *gin.Context) {
	h.unregister(ctx, ctx.Param("userId"), ctx.Param("id"))
}

// ListForUser handles GET /users/:id/registrations.
func (h *RegistrationsHandler) ListForUser(ctx *gin.Context) {
	userID := ctx.Param("id")

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	if _, err := h.users.GetByID(cctx, userID); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		RespondInternal(ctx, "Could not list registrations")
		return
	}

	regs, err := h.lister.ListByUser(cctx, userID)

	if err != nil {
		RespondInternal(ctx, "Could not list registrations")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"registrations": regs,
		"total":         len(regs),
	})
}

// ListForEvent handles GET /events/:id/registrations with keyset pagination.
func (h *RegistrationsHandler) ListForEvent(ctx *gin.Context) {
	eventID := ctx.Param("id")

	limit := defaultRegistrationsPageSize

	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)

		if err != nil || n <= 0 {
			RespondBadRequest(ctx, "limit must be a positive integer", nil)
			return
		}

		if n > maxRegistrationsPageSize {
			n = maxRegistrationsPageSize
		}

		limit = n
	}

	var afterRegisteredAt time.Time
	var afterUserID string

	if raw := ctx.Query("cursor"); raw != "" {
		cur, err := utils.DecodeRegistrationCursor(raw)

		if err != nil {
			RespondBadRequest(ctx, "invalid cursor", nil)
			return
		}

		afterRegisteredAt = cur.RegisteredAt
		afterUserID = cur.UserID
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	if _, err := h.events.GetByID(cctx, eventID); err != nil {
		if errors.Is(err, event.ErrNotFound) {
			RespondNotFound(ctx, "Event not found")
			return
		}

		RespondInternal(ctx, "Could not list registrations")
		return
	}

	total, err := h.lister.CountForEvent(cctx, eventID)

	if err != nil {
		RespondInternal(ctx, "Could not list registrations")
		return
	}

	regs, nextCursor, hasMore, err := h.lister.ListByEventCursor(cctx, eventID, limit, afterRegisteredAt, afterUserID)

	if err != nil {
		RespondInternal(ctx, "Could not list registrations")
		return
	}

	resp := gin.H{
		"eventId":       eventID,
		"registrations": regs,
		"total":         total,
		"hasMore":       hasMore,
	}

	if nextCursor != nil {
		resp["nextCursor"] = *nextCursor
	}

	ctx.JSON(http.StatusOK, resp)
}
