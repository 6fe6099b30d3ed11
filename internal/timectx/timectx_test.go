package timectx_test

import (
	"testing"
	"time"

	"taskflow/internal/errs"
	"taskflow/internal/timectx"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_Resolve(t *testing.T) {
	resolver := timectx.NewResolver()

	loc, err := resolver.Resolve("Europe/Berlin")
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())

	cached, err := resolver.Resolve("Europe/Berlin")
	require.NoError(t, err)
	assert.Same(t, loc, cached)

	for _, bad := range []string{"", "  ", "Local", "Mars/Olympus_Mons"} {
		_, err := resolver.Resolve(bad)
		assert.True(t, errs.IsValidation(err), "zone %q", bad)
	}
}

func TestLocalDate_CrossesMidnight(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	instant := time.Date(2026, 2, 10, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, civil.Date{Year: 2026, Month: time.February, Day: 11}, timectx.LocalDate(instant, tokyo))
	assert.Equal(t, civil.Date{Year: 2026, Month: time.February, Day: 10}, timectx.LocalDate(instant, time.UTC))
}

func TestToUTC(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	got := timectx.ToUTC(civil.Date{Year: 2026, Month: time.February, Day: 10}, civil.Time{Hour: 10}, berlin)
	assert.Equal(t, time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC), got)

	summer := timectx.ToUTC(civil.Date{Year: 2026, Month: time.July, Day: 1}, civil.Time{Hour: 10}, berlin)
	assert.Equal(t, time.Date(2026, 7, 1, 8, 0, 0, 0, time.UTC), summer)
}

func TestEndOfWeek(t *testing.T) {
	tests := []struct {
		name string
		day  civil.Date
		want civil.Date
	}{
		{"monday", civil.Date{Year: 2026, Month: time.February, Day: 9}, civil.Date{Year: 2026, Month: time.February, Day: 15}},
		{"wednesday", civil.Date{Year: 2026, Month: time.February, Day: 11}, civil.Date{Year: 2026, Month: time.February, Day: 15}},
		{"sunday", civil.Date{Year: 2026, Month: time.February, Day: 15}, civil.Date{Year: 2026, Month: time.February, Day: 15}},
		{"across month", civil.Date{Year: 2026, Month: time.February, Day: 26}, civil.Date{Year: 2026, Month: time.March, Day: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, timectx.EndOfWeek(tt.day))
		})
	}
}
