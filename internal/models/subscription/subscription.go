package subscription

import (
	"strings"
	"time"

	"taskflow/internal/errs"

	"github.com/google/uuid"
)

// Subscription is the tenant. TimeZone is an IANA id that has already been
// checked by timectx.Resolver when the subscription was configured.
type Subscription struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	TimeZone  string    `json:"time_zone"`
	CreatedAt time.Time `json:"created_at"`
}

func New(name, timeZone string, createdAt time.Time) (*Subscription, error) {
	clean := strings.TrimSpace(name)
	if clean == "" {
		return nil, errs.NewValidation("name", "must not be empty")
	}
	return &Subscription{
		ID:        uuid.New(),
		Name:      clean,
		TimeZone:  strings.TrimSpace(timeZone),
		CreatedAt: createdAt.UTC(),
	}, nil
}
