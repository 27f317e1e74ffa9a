package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/admithub/internal/cache"
	"github.com/geocoder89/admithub/internal/config"
	"github.com/geocoder89/admithub/internal/domain/event"
	"github.com/geocoder89/admithub/internal/utils"
	"github.com/gin-gonic/gin"
)

type EventsStore interface {
	Create(ctx context.Context, req event.CreateEventRequest) (event.Event, error)
	GetByID(ctx context.Context, id string) (event.Event, error)
	List(ctx context.Context, filter event.ListEventsFilter) ([]event.Event, error)
	Update(ctx context.Context, id string, req event.UpdateEventRequest) (event.Event, error)
	Delete(ctx context.Context, id string) error
}

type EventsHandler struct {
	repo  EventsStore
	cache *cache.Cache
}

func NewEventsHandler(repo EventsStore, c *cache.Cache) *EventsHandler {
	return &EventsHandler{repo: repo, cache: c}
}

// eventView adds the computed fields to the stored record.
type eventView struct {
	event.Event
	AvailableSpots int `json:"availableSpots"`
	WaitlistCount  int `json:"waitlistCount"`
}

func viewOf(e event.Event) eventView {
	return eventView{
		Event:          e,
		AvailableSpots: e.AvailableSpots(),
		WaitlistCount:  e.WaitlistCount(),
	}
}

func (h *EventsHandler) invalidate(ctx context.Context, eventID string, statuses ...string) {
	if h.cache == nil {
		return
	}

	keys := []string{utils.EventCacheKey(eventID), utils.EventsListCacheKey(nil)}

	for i := range statuses {
		keys = append(keys, utils.EventsListCacheKey(&statuses[i]))
	}

	h.cache.Delete(ctx, keys...)
}

func (h *EventsHandler) CreateEvent(ctx *gin.Context) {
	var req event.CreateEventRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	e, err := h.repo.Create(cctx, req)

	if err != nil {
		if errors.Is(err, event.ErrAlreadyExists) {
			RespondConflict(ctx, "event_exists", "An event with this eventId already exists.")
			return
		}

		RespondInternal(ctx, "Could not create event")
		return
	}

	h.invalidate(cctx, e.ID, e.Status)

	ctx.JSON(http.StatusCreated, viewOf(e))
}

func (h *EventsHandler) ListEvents(ctx *gin.Context) {
	var filter event.ListEventsFilter

	if s := ctx.Query("status"); s != "" {
		filter.Status = &s
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	key := utils.EventsListCacheKey(filter.Status)

	if h.cache != nil {
		var cached []eventView
		if h.cache.Get(cctx, key, &cached) {
			ctx.JSON(http.StatusOK, gin.H{"items": cached, "count": len(cached)})
			return
		}
	}

	events, err := h.repo.List(cctx, filter)

	if err != nil {
		RespondInternal(ctx, "Could not list events")

		return
	}

	items := make([]eventView, 0, len(events))

	for _, e := range events {
		items = append(items, viewOf(e))
	}

	if h.cache != nil {
		h.cache.Set(cctx, key, items)
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
	})
}

func (h *EventsHandler) GetEventByID(ctx *gin.Context) {
	id := ctx.Param("id")

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	if h.cache != nil {
		var cached eventView
		if h.cache.Get(cctx, utils.EventCacheKey(id), &cached) {
			RespondJSONWithETag(ctx, http.StatusOK, cached)
			return
		}
	}

	e, err := h.repo.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			RespondNotFound(ctx, "Event not found")
			return
		}

		RespondInternal(ctx, "Could not fetch event")
		return
	}

	v := viewOf(e)

	if h.cache != nil {
		h.cache.Set(cctx, utils.EventCacheKey(id), v)
	}

	RespondJSONWithETag(ctx, http.StatusOK, v)
}

func (h *EventsHandler) UpdateEvent(ctx *gin.Context) {
	id := ctx.Param("id")

	var req event.UpdateEventRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if req.Empty() {
		RespondBadRequest(ctx, "No fields to update", nil)
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	e, err := h.repo.Update(cctx, id, req)

	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			RespondNotFound(ctx, "Event not found")
			return
		}

		RespondInternal(ctx, "Could not update event")
		return
	}

	h.invalidate(cctx, e.ID, e.Status)

	ctx.JSON(http.StatusOK, viewOf(e))
}

func (h *EventsHandler) DeleteEvent(ctx *gin.Context) {
	id := ctx.Param("id")

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	err := h.repo.Delete(cctx, id)

	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			RespondNotFound(ctx, "Event not found")
			return
		}

		RespondInternal(ctx, "Could not delete event")
		return
	}

	h.invalidate(cctx, id)

	ctx.Status(http.StatusNoContent)
}
