package gridmet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAdvance(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		n     int
		unit  TimeUnit
		want  time.Time
	}{
		{"month end clamps in leap year", date(2020, time.January, 31), 1, UnitMonth, date(2020, time.February, 29)},
		{"month end clamps in common year", date(2021, time.January, 31), 1, UnitMonth, date(2021, time.February, 28)},
		{"thirty-first into thirty-day month", date(2020, time.March, 31), 1, UnitMonth, date(2020, time.April, 30)},
		{"months across year", date(2020, time.November, 15), 3, UnitMonth, date(2021, time.February, 15)},
		{"leap day plus year", date(2020, time.February, 29), 1, UnitYear, date(2021, time.February, 28)},
		{"twelve months", date(2020, time.June, 1), 12, UnitMonth, date(2021, time.June, 1)},
		{"week", date(2020, time.December, 28), 1, UnitWeek, date(2021, time.January, 4)},
		{"days", date(2020, time.February, 27), 3, UnitDay, date(2020, time.March, 1)},
		{"hours", date(2020, time.June, 1), 36, UnitHour, date(2020, time.June, 2).Add(12 * time.Hour)},
		{"minutes", date(2020, time.June, 1), 90, UnitMinute, date(2020, time.June, 1).Add(90 * time.Minute)},
		{"seconds", date(2020, time.June, 1), 5, UnitSecond, date(2020, time.June, 1).Add(5 * time.Second)},
		{"zero", date(2020, time.June, 1), 0, UnitMonth, date(2020, time.June, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Advance(tt.start, tt.n, tt.unit))
		})
	}
}

func TestWindowContains(t *testing.T) {
	w := Window{Start: date(2020, time.June, 1), End: date(2020, time.July, 1)}

	assert.True(t, w.Contains(date(2020, time.June, 1)))
	assert.True(t, w.Contains(date(2020, time.June, 30)))
	assert.False(t, w.Contains(date(2020, time.July, 1)))
	assert.False(t, w.Contains(date(2020, time.May, 31)))
	assert.False(t, w.Empty())
}
