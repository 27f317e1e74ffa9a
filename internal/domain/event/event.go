package event

import (
	"errors"
	"time"
)

// valid lifecycle statuses for an event
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
	StatusActive    = "active"
)

type Event struct {
	ID              string    `json:"eventId"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	Date            string    `json:"date"`
	Location        string    `json:"location"`
	Capacity        int       `json:"capacity"`
	Organizer       string    `json:"organizer"`
	Status          string    `json:"status"`
	RegisteredCount int       `json:"registeredCount"`
	WaitlistEnabled bool      `json:"waitlistEnabled"`
	Waitlist        []string  `json:"waitlist"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// computed convenience views, mirrored into responses

func (e Event) AvailableSpots() int {
	return e.Capacity - e.RegisteredCount
}

func (e Event) WaitlistCount() int {
	return len(e.Waitlist)
}

var ErrNotFound = errors.New("event not found")

// if a client-supplied eventId collides with an existing one
var ErrAlreadyExists = errors.New("event already exists")

type CreateEventRequest struct {
	EventID         string `json:"eventId" binding:"omitempty,min=1,max=100"`
	Title           string `json:"title" binding:"required,min=1,max=200"`
	Description     string `json:"description" binding:"omitempty,max=1000"`
	Date            string `json:"date" binding:"required"`
	Location        string `json:"location" binding:"required,min=1,max=200"`
	Capacity        int    `json:"capacity" binding:"required,gt=0"`
	Organizer       string `json:"organizer" binding:"required,min=1,max=100"`
	Status          string `json:"status" binding:"required,oneof=draft published cancelled completed active"`
	WaitlistEnabled bool   `json:"waitlistEnabled"`
}

// a patch style payload, nil pointers mean "leave the field alone".
type UpdateEventRequest struct {
	Title           *string `json:"title" binding:"omitempty,min=1,max=200"`
	Description     *string `json:"description" binding:"omitempty,max=1000"`
	Date            *string `json:"date" binding:"omitempty"`
	Location        *string `json:"location" binding:"omitempty,min=1,max=200"`
	Capacity        *int    `json:"capacity" binding:"omitempty,gt=0"`
	Organizer       *string `json:"organizer" binding:"omitempty,min=1,max=100"`
	Status          *string `json:"status" binding:"omitempty,oneof=draft published cancelled completed active"`
	WaitlistEnabled *bool   `json:"waitlistEnabled" binding:"omitempty"`
}

// Empty reports whether the patch carries no fields at all.
func (r UpdateEventRequest) Empty() bool {
	return r.Title == nil &&
		r.Description == nil &&
		r.Date == nil &&
		r.Location == nil &&
		r.Capacity == nil &&
		r.Organizer == nil &&
		r.Status == nil &&
		r.WaitlistEnabled == nil
}

// with a pointer if optional, it will be nil
type ListEventsFilter struct {
	Status *string
}
