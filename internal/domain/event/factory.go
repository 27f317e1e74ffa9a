package event

import (
	"time"

	"github.com/google/uuid"
)

// NewFromCreateRequest builds an Event from the incoming DTO. A client-supplied
// eventId is honored as-is, otherwise one is generated.

func NewFromCreateRequest(req CreateEventRequest) Event {
	id := req.EventID

	if id == "" {
		id = uuid.NewString()
	}

	now := time.Now().UTC()

	return Event{
		ID:              id,
		Title:           req.Title,
		Description:     req.Description,
		Date:            req.Date,
		Location:        req.Location,
		Capacity:        req.Capacity,
		Organizer:       req.Organizer,
		Status:          req.Status,
		RegisteredCount: 0,
		WaitlistEnabled: req.WaitlistEnabled,
		Waitlist:        []string{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}
