package timeofday

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{in: "08:00", want: 480},
		{in: "21:30:59", want: 21*60 + 30},
		{in: "00:00", want: 0},
		{in: "24:00", wantErr: true},
		{in: "8am", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCloseMidnightIsEndOfDay(t *testing.T) {
	got, err := ParseClose("00:00")
	require.NoError(t, err)
	assert.Equal(t, EndOfDay, got)
	assert.Equal(t, "24:00", got.String())

	got, err = ParseClose("22:00")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay(22*60), got)
}

func TestOn(t *testing.T) {
	day := time.Date(2024, 1, 1, 15, 45, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC), TimeOfDay(570).On(day, time.UTC))
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), EndOfDay.On(day, time.UTC))
}

func TestComponents(t *testing.T) {
	v := TimeOfDay(20*60 + 30)
	assert.Equal(t, 20, v.Hour())
	assert.Equal(t, 30, v.Minute())
	assert.Equal(t, TimeOfDay(22*60), v.Add(90))
	assert.True(t, v.Valid())
	assert.False(t, TimeOfDay(-1).Valid())
	assert.Equal(t, TimeOfDay(13*60+5), Of(time.Date(2024, 5, 5, 13, 5, 0, 0, time.UTC)))
}
