// Package timectx converts between UTC instants and subscription local
// calendar dates. Zone ids are resolved once, when a subscription is
// configured; the rest of the code only sees *time.Location values.
package timectx

import (
	"strings"
	"sync"
	"time"

	"taskflow/internal/errs"

	"cloud.google.com/go/civil"
)

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// FixedClock always reports the same instant.
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time {
	return c.At.UTC()
}

// Resolver turns IANA zone ids into locations and caches the result.
type Resolver struct {
	mtx   *sync.RWMutex
	cache map[string]*time.Location
}

func NewResolver() *Resolver {
	return &Resolver{
		mtx:   &sync.RWMutex{},
		cache: make(map[string]*time.Location),
	}
}

func (r *Resolver) Resolve(zoneID string) (*time.Location, error) {
	zoneID = strings.TrimSpace(zoneID)
	if zoneID == "" || zoneID == "Local" {
		return nil, errs.NewValidation("time_zone", "an IANA zone id is required")
	}

	r.mtx.RLock()
	loc, ok := r.cache[zoneID]
	r.mtx.RUnlock()
	if ok {
		return loc, nil
	}

	loc, err := time.LoadLocation(zoneID)
	if err != nil {
		return nil, errs.Wrap(errs.CodeValidation, "unknown time zone "+zoneID, err,
			errs.ToDetail("field", "time_zone"))
	}

	r.mtx.Lock()
	r.cache[zoneID] = loc
	r.mtx.Unlock()
	return loc, nil
}

// LocalDate is the calendar date of instant as seen in loc.
func LocalDate(instant time.Time, loc *time.Location) civil.Date {
	return civil.DateOf(instant.In(loc))
}

// ToUTC interprets date and clock time in loc and returns the UTC instant.
// Nonexistent local times (DST gaps) are normalized forward by time.Date.
func ToUTC(date civil.Date, clock civil.Time, loc *time.Location) time.Time {
	return civil.DateTime{Date: date, Time: clock}.In(loc).UTC()
}

// EndOfWeek returns the Sunday closing the Monday-based week that contains
// day. For a Sunday it returns day itself.
func EndOfWeek(day civil.Date) civil.Date {
	weekday := day.In(time.UTC).Weekday()
	return day.AddDays((7 - int(weekday)) % 7)
}
