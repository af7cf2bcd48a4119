package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTimeStringFromString(t *testing.T) {
	t.Run("валидное время", func(t *testing.T) {
		ts, err := NewTimeStringFromString("09:30")
		require.NoError(t, err)
		assert.Equal(t, "09:30", ts.String())
	})

	t.Run("невалидный формат", func(t *testing.T) {
		_, err := NewTimeStringFromString("9:30am")
		assert.ErrorIs(t, err, ErrInvalidTimeString)
	})

	t.Run("часы вне диапазона", func(t *testing.T) {
		_, err := NewTimeStringFromString("25:00")
		assert.ErrorIs(t, err, ErrInvalidTimeString)
	})
}

func TestTimeStringComparisons(t *testing.T) {
	early := TimeString("09:00")
	late := TimeString("17:30")

	assert.True(t, early.IsBefore(late))
	assert.False(t, late.IsBefore(early))
	assert.True(t, late.IsAfter(early))
	assert.True(t, early.Equal(TimeString("09:00")))
	assert.True(t, TimeString("").IsZero())
	assert.False(t, early.IsZero())
}

func TestTimeStringAddMinutes(t *testing.T) {
	t.Run("сдвиг внутри дня", func(t *testing.T) {
		ts, err := TimeString("09:45").AddMinutes(30)
		require.NoError(t, err)
		assert.Equal(t, TimeString("10:15"), ts)
	})

	t.Run("переход через полночь заворачивается", func(t *testing.T) {
		ts, err := TimeString("23:50").AddMinutes(30)
		require.NoError(t, err)
		assert.Equal(t, TimeString("00:20"), ts)
	})
}

func TestTimeStringAtDate(t *testing.T) {
	date := time.Date(2025, time.October, 13, 0, 0, 0, 0, time.UTC)

	v, err := TimeString("14:05").AtDate(date)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.October, 13, 14, 5, 0, 0, time.UTC), v)
}

func TestMinutesUntil(t *testing.T) {
	start := TimeString("09:00")
	end := TimeString("10:30")

	minutes, err := start.MinutesUntil(end)
	require.NoError(t, err)
	assert.Equal(t, 90, minutes)
}
