package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// 2024-06-03 — понедельник, 2024-06-08 — суббота, 2024-06-09 — воскресенье.
func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func at(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name   string
		target time.Time
		now    time.Time
		want   Reason
	}{
		{
			name:   "weekday today before cutoff",
			target: date(2024, 6, 3),
			now:    at(2024, 6, 3, 8, 0),
			want:   ReasonNone,
		},
		{
			name:   "weekday today one minute before cutoff",
			target: date(2024, 6, 3),
			now:    at(2024, 6, 3, 9, 29),
			want:   ReasonNone,
		},
		{
			name:   "weekday today exactly at cutoff",
			target: date(2024, 6, 3),
			now:    at(2024, 6, 3, 9, 30),
			want:   ReasonCutoff,
		},
		{
			name:   "weekday today after cutoff",
			target: date(2024, 6, 3),
			now:    at(2024, 6, 3, 10, 0),
			want:   ReasonCutoff,
		},
		{
			name:   "future weekday after cutoff time of day",
			target: date(2024, 6, 4),
			now:    at(2024, 6, 3, 23, 59),
			want:   ReasonNone,
		},
		{
			name:   "far future weekday",
			target: date(2024, 6, 14),
			now:    at(2024, 6, 3, 12, 0),
			want:   ReasonNone,
		},
		{
			name:   "saturday always refused",
			target: date(2024, 6, 8),
			now:    at(2024, 6, 3, 8, 0),
			want:   ReasonWeekend,
		},
		{
			name:   "sunday always refused",
			target: date(2024, 6, 9),
			now:    at(2024, 6, 3, 8, 0),
			want:   ReasonWeekend,
		},
		{
			name:   "saturday refused even before cutoff same day",
			target: date(2024, 6, 8),
			now:    at(2024, 6, 8, 8, 0),
			want:   ReasonWeekend,
		},
		{
			name:   "past weekday refused",
			target: date(2024, 5, 31),
			now:    at(2024, 6, 3, 8, 0),
			want:   ReasonPast,
		},
		{
			name:   "yesterday refused even before cutoff",
			target: date(2024, 6, 3),
			now:    at(2024, 6, 4, 8, 0),
			want:   ReasonPast,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Check(tt.target, tt.now))
			assert.Equal(t, tt.want == ReasonNone, CanModify(tt.target, tt.now))
		})
	}
}

func TestCheck_TargetDateInDifferentZone(t *testing.T) {
	// Дата цели, сохранённая как полночь UTC, должна сравниваться
	// как календарная дата, а не как момент времени.
	msk := time.FixedZone("MSK", 3*60*60)

	target := time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, 6, 3, 23, 0, 0, 0, msk)

	assert.Equal(t, ReasonNone, Check(target, now))
}

func TestCheck_AllWeekendDatesRefused(t *testing.T) {
	// Любой момент обращения не открывает окно для выходной даты.
	target := date(2024, 6, 8) // суббота
	moments := []time.Time{
		at(2024, 6, 3, 0, 0),
		at(2024, 6, 7, 9, 29),
		at(2024, 6, 8, 5, 0),
		at(2024, 6, 10, 12, 0),
	}
	for _, now := range moments {
		assert.False(t, CanModify(target, now), "now=%s", now)
	}
}
