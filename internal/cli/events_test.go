package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvents_JSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "events")
	require.NoError(t, err)

	var resp struct {
		Data []EventView `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 6)

	first := resp.Data[0]
	assert.Equal(t, "ThrustRatioEvent", first.Tag)
	assert.Equal(t, int64(6844801), first.SelectionID)
	assert.Equal(t, []string{"threshold", "condition", "blocks"}, first.Uses)
	assert.False(t, first.Setting)

	weather := resp.Data[3]
	assert.Equal(t, "WeatherEvent", weather.Tag)
	assert.Empty(t, weather.Uses)
	assert.True(t, weather.Setting)
}

func TestEvents_Text(t *testing.T) {
	out, err := execute(t, "events")
	require.NoError(t, err)
	assert.Contains(t, out, "TAG")
	assert.Contains(t, out, "EventControllerTriggeredEvent")
	assert.Contains(t, out, "Thrust ratio")
}
