package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestNewPrinter_Fallback(t *testing.T) {
	tests := []struct {
		lang string
		want language.Tag
	}{
		{"en", language.English},
		{"en-GB", language.English},
		{"de", language.German},
		{"de-AT", language.German},
		{"xx", language.English},
		{"", language.English},
	}

	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			p := NewPrinter(tt.lang)
			assert.Equal(t, tt.want, p.Language())
		})
	}
}

func TestPrinter_Get(t *testing.T) {
	en := Default()
	de := NewPrinter("de")

	assert.Equal(t, "Thrust ratio", en.Get(EventThrustRatioName))
	assert.Equal(t, "Schubverhältnis", de.Get(EventThrustRatioName))
	assert.Equal(t, "%", en.Get(PercentSign), "escaped percent sign must render literally")
	assert.Equal(t, "", en.Get(""))
}

func TestPrinter_Format(t *testing.T) {
	p := Default()

	assert.Equal(t, "Event: Weather", p.Format(EventInfo, p.Get(EventWeatherName)))
	assert.Equal(t, "Threshold: 50.0%", p.Format(EventThresholdInfo, "50.0", p.Get(PercentSign)))
	assert.Equal(t, "Output: action 2", p.Format(EventOutputInfo, 2))
}

func TestPrinter_Numbers(t *testing.T) {
	en := Default()
	de := NewPrinter("de")

	assert.Equal(t, "0.50", en.Fixed(0.5, 2))
	assert.Equal(t, "0,50", de.Fixed(0.5, 2))
	assert.Equal(t, "1,234.5", en.Grouped(1234.5, 1))
	assert.Equal(t, "60.0", en.Percent(0.6))
	assert.Equal(t, "100.0", en.Percent(1))
}

func TestTables_SameKeys(t *testing.T) {
	for k := range english {
		_, ok := german[k]
		assert.True(t, ok, "german table missing %s", k)
	}
}
