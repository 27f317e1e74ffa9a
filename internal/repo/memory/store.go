package memory

import (
	"context"
	"sync"
	"time"

	"github.com/geocoder89/admithub/internal/admission"
	"github.com/geocoder89/admithub/internal/domain/event"
	"github.com/geocoder89/admithub/internal/domain/registration"
	"github.com/geocoder89/admithub/internal/domain/user"
)

type regKey struct {
	userID  string
	eventID string
}

// Store is an in-memory stand-in for the postgres store. One mutex guards
// everything, which makes each primitive exactly as atomic as its SQL
// counterpart: the reserve predicate, the waitlist ops and the promotion pair
// each run under a single critical section.
type Store struct {
	mu     sync.Mutex
	events map[string]*event.Event
	users  map[string]user.User
	regs   map[regKey]registration.Registration
}

func NewStore() *Store {
	return &Store{
		events: make(map[string]*event.Event),
		users:  make(map[string]user.User),
		regs:   make(map[regKey]registration.Registration),
	}
}

var _ admission.Store = (*Store)(nil)

// seeding helpers for tests and local dev

func (s *Store) SeedUser(u user.User) {
	s.mu.Lock()
	s.users[u.ID] = u
	s.mu.Unlock()
}

func (s *Store) SeedEvent(e event.Event) {
	s.mu.Lock()
	cp := e
	cp.Waitlist = append([]string(nil), e.Waitlist...)
	s.events[e.ID] = &cp
	s.mu.Unlock()
}

func (s *Store) DeleteEvent(id string) {
	s.mu.Lock()
	delete(s.events, id)
	s.mu.Unlock()
}

func (s *Store) GetUser(_ context.Context, userID string) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]

	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return u, nil
}

func (s *Store) GetEvent(_ context.Context, eventID string) (event.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[eventID]

	if !ok {
		return event.Event{}, event.ErrNotFound
	}

	cp := *e
	cp.Waitlist = append([]string(nil), e.Waitlist...)

	return cp, nil
}

func (s *Store) ReserveSlot(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[eventID]

	if !ok {
		return event.ErrNotFound
	}

	if e.RegisteredCount >= e.Capacity {
		return admission.ErrRaceLost
	}

	e.RegisteredCount++
	e.UpdatedAt = time.Now().UTC()

	return nil
}

func (s *Store) ReleaseSlot(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[eventID]

	if !ok {
		return event.ErrNotFound
	}

	e.RegisteredCount--
	e.UpdatedAt = time.Now().UTC()

	return nil
}

func (s *Store) AppendWaitlist(_ context.Context, eventID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[eventID]

	if !ok {
		return event.ErrNotFound
	}

	e.Waitlist = append(e.Waitlist, userID)
	e.UpdatedAt = time.Now().UTC()

	return nil
}

func (s *Store) RemoveFromWaitlist(_ context.Context, eventID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[eventID]

	if !ok {
		return event.ErrNotFound
	}

	kept := e.Waitlist[:0]

	for _, id := range e.Waitlist {
		if id != userID {
			kept = append(kept, id)
		}
	}

	e.Waitlist = kept
	e.UpdatedAt = time.Now().UTC()

	return nil
}

func (s *Store) PromoteWaitlistHead(_ context.Context, eventID, headUserID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[eventID]

	if !ok {
		return event.ErrNotFound
	}

	if len(e.Waitlist) == 0 || e.Waitlist[0] != headUserID {
		return admission.ErrHeadMoved
	}

	// a concurrent admission may have taken the freed slot already
	if e.RegisteredCount >= e.Capacity {
		return admission.ErrHeadMoved
	}

	key := regKey{userID: headUserID, eventID: eventID}
	reg, ok := s.regs[key]

	if !ok || reg.Status != registration.StatusWaitlist {
		return admission.ErrHeadMoved
	}

	// both sides flip together or not at all; the promoted user takes the
	// slot the release just gave back
	e.Waitlist = append([]string(nil), e.Waitlist[1:]...)
	e.RegisteredCount++
	e.UpdatedAt = time.Now().UTC()
	reg.Status = registration.StatusConfirmed
	s.regs[key] = reg

	return nil
}

func (s *Store) GetRegistration(_ context.Context, userID, eventID string) (registration.Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg, ok := s.regs[regKey{userID: userID, eventID: eventID}]

	if !ok {
		return registration.Registration{}, registration.ErrNotFound
	}

	return reg, nil
}

func (s *Store) PutRegistration(_ context.Context, reg registration.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := regKey{userID: reg.UserID, eventID: reg.EventID}

	if _, ok := s.regs[key]; ok {
		return registration.ErrAlreadyRegistered
	}

	s.regs[key] = reg

	return nil
}

func (s *Store) DeleteRegistration(_ context.Context, userID, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := regKey{userID: userID, eventID: eventID}

	if _, ok := s.regs[key]; !ok {
		return registration.ErrNotFound
	}

	delete(s.regs, key)

	return nil
}

// ListRegistrationsByEvent returns the ledger view for one event, in no
// particular order.
func (s *Store) ListRegistrationsByEvent(_ context.Context, eventID string) []registration.Registration {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]registration.Registration, 0)

	for key, reg := range s.regs {
		if key.eventID == eventID {
			out = append(out, reg)
		}
	}

	return out
}
