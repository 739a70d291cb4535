package menu

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
week:
  monday:
    first: "Борщ"
    main: "Котлета с пюре"
    salad: "Оливье"
  tuesday:
    first: "Солянка"
    main: "Плов"
    salad: "Винегрет"
holidays:
  "2024-06-12": "День России"
`

func TestParse(t *testing.T) {
	b, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	monday := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	dishes, ok := b.ForDate(monday)
	require.True(t, ok)
	assert.Equal(t, "Борщ", dishes.First)
	assert.Equal(t, "Котлета с пюре", dishes.Main)
	assert.Equal(t, "Оливье", dishes.Salad)

	// Среда не описана в файле — меню нет.
	wednesday := time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC)
	_, ok = b.ForDate(wednesday)
	assert.False(t, ok)

	// Суббота — выходной, меню не предусмотрено.
	saturday := time.Date(2024, 6, 8, 0, 0, 0, 0, time.UTC)
	_, ok = b.ForDate(saturday)
	assert.False(t, ok)
}

func TestParse_Holiday(t *testing.T) {
	b, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	holiday := time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC) // среда
	name, ok := b.Holiday(holiday)
	require.True(t, ok)
	assert.Equal(t, "День России", name)

	// Праздник скрывает меню даже в будний день.
	_, ok = b.ForDate(holiday)
	assert.False(t, ok)
}

func TestParse_UnknownWeekday(t *testing.T) {
	_, err := Parse([]byte("week:\n  caturday:\n    first: x\n"))
	require.Error(t, err)
}

func TestParse_BadHolidayDate(t *testing.T) {
	_, err := Parse([]byte("holidays:\n  \"12.06.2024\": x\n"))
	require.Error(t, err)
}

func TestNextWorkday(t *testing.T) {
	tests := []struct {
		name string
		from time.Time
		want time.Time
	}{
		{
			name: "monday to tuesday",
			from: time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
			want: time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "friday to monday",
			from: time.Date(2024, 6, 7, 0, 0, 0, 0, time.UTC),
			want: time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "saturday to monday",
			from: time.Date(2024, 6, 8, 0, 0, 0, 0, time.UTC),
			want: time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "sunday to monday",
			from: time.Date(2024, 6, 9, 0, 0, 0, 0, time.UTC),
			want: time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextWorkday(tt.from))
		})
	}
}
