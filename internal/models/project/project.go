package project

import (
	"strings"
	"time"
	"unicode/utf8"

	"taskflow/internal/errs"

	"github.com/google/uuid"
)

const MaxNameLength = 200

type Project struct {
	ID             uuid.UUID `json:"id"`
	SubscriptionID uuid.UUID `json:"subscription_id"`
	Name           string    `json:"name"`
	CreatedAt      time.Time `json:"created_at"`
}

func New(subscriptionID uuid.UUID, name string, createdAt time.Time) (*Project, error) {
	if subscriptionID == uuid.Nil {
		return nil, errs.NewValidation("subscription_id", "must not be empty")
	}
	clean := strings.TrimSpace(name)
	if clean == "" || utf8.RuneCountInString(clean) > MaxNameLength {
		return nil, errs.NewValidation("name", "must be between 1 and 200 characters")
	}
	return &Project{
		ID:             uuid.New(),
		SubscriptionID: subscriptionID,
		Name:           clean,
		CreatedAt:      createdAt.UTC(),
	}, nil
}
