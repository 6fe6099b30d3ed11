package postgres

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/jackc/pgx/v5/pgtype"
)

func dateToPg(d *civil.Date) pgtype.Date {
	if d == nil {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: d.In(time.UTC), Valid: true}
}

func dateFromPg(d pgtype.Date) *civil.Date {
	if !d.Valid {
		return nil
	}
	out := civil.DateOf(d.Time)
	return &out
}

func timeToPg(t *civil.Time) pgtype.Time {
	if t == nil {
		return pgtype.Time{}
	}
	d := time.Duration(t.Hour)*time.Hour +
		time.Duration(t.Minute)*time.Minute +
		time.Duration(t.Second)*time.Second +
		time.Duration(t.Nanosecond)
	return pgtype.Time{Microseconds: d.Microseconds(), Valid: true}
}

func timeFromPg(t pgtype.Time) *civil.Time {
	if !t.Valid {
		return nil
	}
	d := time.Duration(t.Microseconds) * time.Microsecond
	out := civil.Time{
		Hour:       int(d / time.Hour),
		Minute:     int(d % time.Hour / time.Minute),
		Second:     int(d % time.Minute / time.Second),
		Nanosecond: int(d % time.Second),
	}
	return &out
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	out := t.UTC()
	return &out
}
