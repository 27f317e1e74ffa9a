package utils

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"
)

type RegistrationCursor struct {
	RegisteredAt time.Time `json:"registeredAt"`
	UserID       string    `json:"userId"`
}

func EncodeRegistrationCursor(registeredAt time.Time, userID string) (string, error) {
	b, err := json.Marshal(RegistrationCursor{RegisteredAt: registeredAt, UserID: userID})
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func DecodeRegistrationCursor(cursor string) (RegistrationCursor, error) {
	if cursor == "" {
		return RegistrationCursor{}, errors.New("empty cursor")
	}

	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return RegistrationCursor{}, err
	}

	var c RegistrationCursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return RegistrationCursor{}, err
	}
	if c.UserID == "" || c.RegisteredAt.IsZero() {
		return RegistrationCursor{}, errors.New("invalid cursor payload")
	}
	return c, nil
}
