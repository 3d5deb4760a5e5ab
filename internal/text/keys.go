// Package text holds the localized strings of the event controller panels.
//
// Strings are registered in an x/text catalog per supported language and
// looked up through a Printer. Values are format strings: a literal percent
// sign must be written as "%%".
package text

import "golang.org/x/text/language"

// Key identifies a localized string.
type Key string

// Detailed info lines.
const (
	EventInfo               Key = "EventInfo"
	EventAboveInfo          Key = "EventAboveInfo"
	EventBelowEqualInfo     Key = "EventBelowEqualInfo"
	EventThresholdInfo      Key = "EventThresholdInfo"
	EventBlockInputInfo     Key = "EventBlockInputInfo"
	EventBoolBlockInputInfo Key = "EventBoolBlockInputInfo"
	EventInputInfo          Key = "EventInputInfo"
	EventOutputInfo         Key = "EventOutputInfo"
)

// Values and units.
const (
	Triggered        Key = "EventTriggered"
	NotTriggered     Key = "EventNotTriggered"
	None             Key = "None"
	Weather          Key = "Weather"
	PercentSign      Key = "PercentSign"
	GravitySymbol    Key = "GravitySymbol"
	LengthUnitSymbol Key = "LengthUnitSymbol"
)

// Event names.
const (
	EventThrustRatioName         Key = "Event_ThrustRatioName"
	EventNaturalGravityName      Key = "Event_NaturalGravityName"
	EventTargetAcquiredName      Key = "Event_TargetAcquiredName"
	EventWeatherName             Key = "Event_WeatherName"
	EventProjectionBuiltName     Key = "Event_ProjectionBuiltName"
	EventControllerTriggeredName Key = "Event_EventControllerTriggeredName"
)

var english = map[Key]string{
	EventInfo:               "Event: %s",
	EventAboveInfo:          "Condition: above threshold",
	EventBelowEqualInfo:     "Condition: below or equal to threshold",
	EventThresholdInfo:      "Threshold: %s%s",
	EventBlockInputInfo:     "%s: %s%s",
	EventBoolBlockInputInfo: "%s: %s",
	EventInputInfo:          "Input: %s%s",
	EventOutputInfo:         "Output: action %d",

	Triggered:        "Triggered",
	NotTriggered:     "Not triggered",
	None:             "None",
	Weather:          "Weather",
	PercentSign:      "%%",
	GravitySymbol:    "g",
	LengthUnitSymbol: "m",

	EventThrustRatioName:         "Thrust ratio",
	EventNaturalGravityName:      "Natural gravity",
	EventTargetAcquiredName:      "Target distance",
	EventWeatherName:             "Weather",
	EventProjectionBuiltName:     "Projection built",
	EventControllerTriggeredName: "Event controller triggered",
}

var german = map[Key]string{
	EventInfo:               "Ereignis: %s",
	EventAboveInfo:          "Bedingung: über dem Schwellenwert",
	EventBelowEqualInfo:     "Bedingung: unter oder gleich dem Schwellenwert",
	EventThresholdInfo:      "Schwellenwert: %s%s",
	EventBlockInputInfo:     "%s: %s%s",
	EventBoolBlockInputInfo: "%s: %s",
	EventInputInfo:          "Eingabe: %s%s",
	EventOutputInfo:         "Ausgabe: Aktion %d",

	Triggered:        "Ausgelöst",
	NotTriggered:     "Nicht ausgelöst",
	None:             "Keine",
	Weather:          "Wetter",
	PercentSign:      "%%",
	GravitySymbol:    "g",
	LengthUnitSymbol: "m",

	EventThrustRatioName:         "Schubverhältnis",
	EventNaturalGravityName:      "Natürliche Schwerkraft",
	EventTargetAcquiredName:      "Zielentfernung",
	EventWeatherName:             "Wetter",
	EventProjectionBuiltName:     "Projektion gebaut",
	EventControllerTriggeredName: "Ereignissteuerung ausgelöst",
}

// tables lists the catalogs in matcher preference order; the first entry is
// the fallback.
var tables = []struct {
	tag     language.Tag
	strings map[Key]string
}{
	{language.English, english},
	{language.German, german},
}
