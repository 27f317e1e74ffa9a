package registration

import (
	"errors"
	"time"
)

// registration statuses; waitlist flips to confirmed only via promotion.
const (
	StatusConfirmed = "confirmed"
	StatusWaitlist  = "waitlist"
)

// Registration is keyed by the (userId, eventId) pair. EventTitle and EventDate
// are denormalized at creation time and intentionally never refreshed if the
// event is edited later.
type Registration struct {
	UserID       string    `json:"userId"`
	EventID      string    `json:"eventId"`
	Status       string    `json:"status"`
	RegisteredAt time.Time `json:"registeredAt"`
	EventTitle   string    `json:"eventTitle"`
	EventDate    string    `json:"eventDate"`
}

var ErrNotFound = errors.New("registration not found")

// if you are already registered
var ErrAlreadyRegistered = errors.New("user already registered for this event")

// if you are already queued on the waitlist
var ErrAlreadyWaitlisted = errors.New("user already on waitlist for this event")

// event full and waitlist disabled
var ErrEventFull = errors.New("event is full and waitlist is not enabled")

// user-centric payload: POST /users/:id/registrations
type CreateRegistrationRequest struct {
	EventID string `json:"eventId" binding:"required,min=1"`
}

// event-centric payload: POST /events/:id/registrations
type CreateForEventRequest struct {
	UserID string `json:"userId" binding:"required,min=1,max=100,userid"`
}

// New builds a Registration snapshotting the event's title and date.

func New(userID, eventID, status, eventTitle, eventDate string) Registration {
	return Registration{
		UserID:       userID,
		EventID:      eventID,
		Status:       status,
		RegisteredAt: time.Now().UTC(),
		EventTitle:   eventTitle,
		EventDate:    eventDate,
	}
}
