package scenario

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/moreevents/internal/events"
)

func TestCheckSetting(t *testing.T) {
	weathers := []string{"", "Rain", "Snow"}

	tests := []struct {
		tag, value string
		wantErr    bool
	}{
		{events.NaturalGravityTag, "0.5", false},
		{events.NaturalGravityTag, "-1", false},
		{events.NaturalGravityTag, "1.5", true},
		{events.NaturalGravityTag, "NaN", true},
		{events.TargetAcquiredTag, "2500", false},
		{events.TargetAcquiredTag, "-1", true},
		{events.WeatherTag, "2", false},
		{events.WeatherTag, "3", true},
		{events.WeatherTag, "rain", true},
		{events.ThrustRatioTag, "0.5", true},
		{"NopeEvent", "1", true},
	}
	for _, tt := range tests {
		err := CheckSetting(tt.tag, tt.value, weathers)
		if tt.wantErr {
			assert.Error(t, err, "%s=%s", tt.tag, tt.value)
		} else {
			assert.NoError(t, err, "%s=%s", tt.tag, tt.value)
		}
	}
}

func TestCheckSetting_SettingError(t *testing.T) {
	err := CheckSetting(events.TargetAcquiredTag, "3000", nil)
	assert.True(t, events.IsSettingError(err))
}
