package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geocoder89/admithub/internal/admission"
	"github.com/geocoder89/admithub/internal/domain/event"
	"github.com/geocoder89/admithub/internal/domain/registration"
	"github.com/geocoder89/admithub/internal/domain/user"
	"github.com/geocoder89/admithub/internal/http/handlers"
	"github.com/geocoder89/admithub/internal/utils"
)

type fakeAdmitter struct {
	registerFn func(ctx context.Context, userID, eventID string) (registration.Registration, error)
	releaseFn  func(ctx context.Context, userID, eventID string) error
}

func (f *fakeAdmitter) Register(ctx context.Context, userID, eventID string) (registration.Registration, error) {
	if f.registerFn != nil {
		return f.registerFn(ctx, userID, eventID)
	}

	return registration.Registration{}, nil
}

func (f *fakeAdmitter) Release(ctx context.Context, userID, eventID string) error {
	if f.releaseFn != nil {
		return f.releaseFn(ctx, userID, eventID)
	}

	return nil
}

type fakeRegistrationsLister struct {
	listByUserFn   func(ctx context.Context, userID string) ([]registration.Registration, error)
	countFn        func(ctx context.Context, eventID string) (int, error)
	listByCursorFn func(ctx context.Context, eventID string, limit int, afterRegisteredAt time.Time, afterUserID string) ([]registration.Registration, *string, bool, error)
}

func (f *fakeRegistrationsLister) ListByUser(ctx context.Context, userID string) ([]registration.Registration, error) {
	if f.listByUserFn != nil {
		return f.listByUserFn(ctx, userID)
	}

	return nil, nil
}

func (f *fakeRegistrationsLister) CountForEvent(ctx context.Context, eventID string) (int, error) {
	if f.countFn != nil {
		return f.countFn(ctx, eventID)
	}

	return 0, nil
}

func (f *fakeRegistrationsLister) ListByEventCursor(ctx context.Context, eventID string, limit int, afterRegisteredAt time.Time, afterUserID string) ([]registration.Registration, *string, bool, error) {
	if f.listByCursorFn != nil {
		return f.listByCursorFn(ctx, eventID, limit, afterRegisteredAt, afterUserID)
	}

	return nil, nil, false, nil
}

func sampleRegistration(now time.Time, status string) registration.Registration {
	return registration.Registration{
		UserID:       "alice_01",
		EventID:      "ev-1",
		Status:       status,
		RegisteredAt: now,
		EventTitle:   "Go Meetup",
		EventDate:    "2026-10-01T18:00:00Z",
	}
}

func newRegistrationsHandler(admitter *fakeAdmitter, lister *fakeRegistrationsLister) *handlers.RegistrationsHandler {
	users := &fakeUsersRepo{}
	events := &fakeEventsRepo{}

	if admitter == nil {
		admitter = &fakeAdmitter{}
	}

	if lister == nil {
		lister = &fakeRegistrationsLister{}
	}

	return handlers.NewRegistrationsHandler(admitter, lister, users, events, nil)
}

func TestCreateRegistrationForUser(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name           string
		body           string
		registerErr    error
		wantStatusCode int
		wantStatus     string
	}{
		{
			name:           "confirmed",
			body:           `{"eventId": "ev-1"}`,
			wantStatusCode: http.StatusCreated,
			wantStatus:     registration.StatusConfirmed,
		},
		{
			name:           "missing_event_id",
			body:           `{}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "user_not_found",
			body:           `{"eventId": "ev-1"}`,
			registerErr:    user.ErrNotFound,
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:           "event_not_found",
			body:           `{"eventId": "ev-1"}`,
			registerErr:    event.ErrNotFound,
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:           "already_registered",
			body:           `{"eventId": "ev-1"}`,
			registerErr:    registration.ErrAlreadyRegistered,
			wantStatusCode: http.StatusConflict,
		},
		{
			name:           "already_waitlisted",
			body:           `{"eventId": "ev-1"}`,
			registerErr:    registration.ErrAlreadyWaitlisted,
			wantStatusCode: http.StatusConflict,
		},
		{
			name:           "event_full",
			body:           `{"eventId": "ev-1"}`,
			registerErr:    registration.ErrEventFull,
			wantStatusCode: http.StatusConflict,
		},
		{
			name:           "retry_limit",
			body:           `{"eventId": "ev-1"}`,
			registerErr:    admission.ErrRetryLimit,
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			admitter := &fakeAdmitter{
				registerFn: func(ctx context.Context, userID, eventID string) (registration.Registration, error) {
					if tt.registerErr != nil {
						return registration.Registration{}, tt.registerErr
					}

					if userID != "alice_01" || eventID != "ev-1" {
						return registration.Registration{}, errors.New("wrong ids passed through")
					}

					return sampleRegistration(now, registration.StatusConfirmed), nil
				},
			}

			h := newRegistrationsHandler(admitter, nil)

			r := setupRouter(http.MethodPost, "/users/:id/registrations", h.CreateForUser)

			req := httptest.NewRequest(http.MethodPost, "/users/alice_01/registrations", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantStatus == "" {
				return
			}

			var resp registration.Registration

			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}

			if resp.Status != tt.wantStatus {
				t.Fatalf("status = %s, want %s", resp.Status, tt.wantStatus)
			}
		})
	}
}

// event-centric twin: same protocol, ids swapped between path and body
func TestCreateRegistrationForEvent(t *testing.T) {
	now := time.Now().UTC()

	t.Run("waitlisted", func(t *testing.T) {
		admitter := &fakeAdmitter{
			registerFn: func(ctx context.Context, userID, eventID string) (registration.Registration, error) {
				if userID != "bob-2" || eventID != "ev-1" {
					return registration.Registration{}, errors.New("wrong ids passed through")
				}

				reg := sampleRegistration(now, registration.StatusWaitlist)
				reg.UserID = userID
				return reg, nil
			},
		}

		h := newRegistrationsHandler(admitter, nil)

		r := setupRouter(http.MethodPost, "/events/:id/registrations", h.CreateForEvent)

		req := httptest.NewRequest(http.MethodPost, "/events/ev-1/registrations", bytes.NewBufferString(`{"userId": "bob-2"}`))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
		}

		var resp registration.Registration

		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}

		if resp.Status != registration.StatusWaitlist {
			t.Fatalf("status = %s, want %s", resp.Status, registration.StatusWaitlist)
		}
	})

	t.Run("invalid_user_id", func(t *testing.T) {
		h := newRegistrationsHandler(nil, nil)

		r := setupRouter(http.MethodPost, "/events/:id/registrations", h.CreateForEvent)

		req := httptest.NewRequest(http.MethodPost, "/events/ev-1/registrations", bytes.NewBufferString(`{"userId": "bad id!"}`))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("got status %d, want 400, body=%s", w.Code, w.Body.String())
		}
	})
}

func TestDeleteRegistration(t *testing.T) {
	tests := []struct {
		name           string
		releaseErr     error
		wantStatusCode int
	}{
		{
			name:           "success",
			wantStatusCode: http.StatusNoContent,
		},
		{
			name:           "registration_not_found",
			releaseErr:     registration.ErrNotFound,
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:           "event_not_found",
			releaseErr:     event.ErrNotFound,
			wantStatusCode: http.StatusNotFound,
		},
		{
			name:           "store_error",
			releaseErr:     errors.New("db error"),
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			admitter := &fakeAdmitter{
				releaseFn: func(ctx context.Context, userID, eventID string) error {
					if userID != "alice_01" || eventID != "ev-1" {
						return errors.New("wrong ids passed through")
					}

					return tt.releaseErr
				},
			}

			h := newRegistrationsHandler(admitter, nil)

			r := setupRouter(http.MethodDelete, "/users/:id/registrations/:eventId", h.DeleteForUser)

			req := httptest.NewRequest(http.MethodDelete, "/users/alice_01/registrations/ev-1", nil)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}
		})
	}
}

func TestListRegistrationsForUser(t *testing.T) {
	now := time.Now().UTC()

	t.Run("success", func(t *testing.T) {
		lister := &fakeRegistrationsLister{
			listByUserFn: func(ctx context.Context, userID string) ([]registration.Registration, error) {
				return []registration.Registration{sampleRegistration(now, registration.StatusConfirmed)}, nil
			},
		}

		h := newRegistrationsHandler(nil, lister)

		r := setupRouter(http.MethodGet, "/users/:id/registrations", h.ListForUser)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/alice_01/registrations", nil))

		if w.Code != http.StatusOK {
			t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
		}

		var resp struct {
			Registrations []registration.Registration `json:"registrations"`
			Total         int                         `json:"total"`
		}

		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}

		if resp.Total != 1 || len(resp.Registrations) != 1 {
			t.Fatalf("total=%d len=%d, want 1", resp.Total, len(resp.Registrations))
		}
	})

	t.Run("user_not_found", func(t *testing.T) {
		users := &fakeUsersRepo{
			getFn: func(ctx context.Context, id string) (user.User, error) {
				return user.User{}, user.ErrNotFound
			},
		}

		h := handlers.NewRegistrationsHandler(&fakeAdmitter{}, &fakeRegistrationsLister{}, users, &fakeEventsRepo{}, nil)

		r := setupRouter(http.MethodGet, "/users/:id/registrations", h.ListForUser)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/ghost/registrations", nil))

		if w.Code != http.StatusNotFound {
			t.Fatalf("got status %d, want 404", w.Code)
		}
	})
}

func TestListRegistrationsForEvent(t *testing.T) {
	now := time.Now().UTC()

	validCursor, err := utils.EncodeRegistrationCursor(now.Add(-time.Minute), "alice_01")

	if err != nil {
		t.Fatalf("failed to build cursor: %v", err)
	}

	tests := []struct {
		name           string
		url            string
		listerSetUp    func(*fakeRegistrationsLister)
		wantStatusCode int
		wantHasMore    bool
	}{
		{
			name: "first_page",
			url:  "/events/ev-1/registrations?limit=1",
			listerSetUp: func(f *fakeRegistrationsLister) {
				f.countFn = func(ctx context.Context, eventID string) (int, error) {
					return 2, nil
				}
				f.listByCursorFn = func(ctx context.Context, eventID string, limit int, afterRegisteredAt time.Time, afterUserID string) ([]registration.Registration, *string, bool, error) {
					if !afterRegisteredAt.IsZero() || afterUserID != "" {
						return nil, nil, false, errors.New("first page should have a zero cursor")
					}

					if limit != 1 {
						return nil, nil, false, errors.New("limit not passed through")
					}

					next, cerr := utils.EncodeRegistrationCursor(now, "alice_01")

					if cerr != nil {
						return nil, nil, false, cerr
					}

					return []registration.Registration{sampleRegistration(now, registration.StatusConfirmed)}, &next, true, nil
				}
			},
			wantStatusCode: http.StatusOK,
			wantHasMore:    true,
		},
		{
			name: "with_cursor",
			url:  "/events/ev-1/registrations?cursor=" + validCursor,
			listerSetUp: func(f *fakeRegistrationsLister) {
				f.listByCursorFn = func(ctx context.Context, eventID string, limit int, afterRegisteredAt time.Time, afterUserID string) ([]registration.Registration, *string, bool, error) {
					if afterRegisteredAt.IsZero() || afterUserID != "alice_01" {
						return nil, nil, false, errors.New("cursor not decoded into the query")
					}

					return []registration.Registration{}, nil, false, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "invalid_cursor",
			url:            "/events/ev-1/registrations?cursor=!!!",
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "invalid_limit",
			url:            "/events/ev-1/registrations?limit=0",
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "limit_capped_at_max",
			url:  "/events/ev-1/registrations?limit=9999",
			listerSetUp: func(f *fakeRegistrationsLister) {
				f.listByCursorFn = func(ctx context.Context, eventID string, limit int, afterRegisteredAt time.Time, afterUserID string) ([]registration.Registration, *string, bool, error) {
					if limit != 200 {
						return nil, nil, false, errors.New("limit not capped")
					}

					return []registration.Registration{}, nil, false, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			lister := &fakeRegistrationsLister{}

			if tt.listerSetUp != nil {
				tt.listerSetUp(lister)
			}

			h := newRegistrationsHandler(nil, lister)

			r := setupRouter(http.MethodGet, "/events/:id/registrations", h.ListForEvent)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.url, nil))

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantStatusCode != http.StatusOK {
				return
			}

			var resp struct {
				EventID    string  `json:"eventId"`
				HasMore    bool    `json:"hasMore"`
				NextCursor *string `json:"nextCursor"`
			}

			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}

			if resp.HasMore != tt.wantHasMore {
				t.Fatalf("hasMore = %v, want %v", resp.HasMore, tt.wantHasMore)
			}

			if tt.wantHasMore && resp.NextCursor == nil {
				t.Fatal("expected a nextCursor when hasMore")
			}
		})
	}
}
