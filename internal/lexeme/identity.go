// Package lexeme provides the token model shared by the TAC lexer, parsers
// and serializers: classified token occurrences (Lexeme) and the ordered,
// build-once chain they live in (Sequence).
package lexeme

import "strings"

// Identity names what a lexeme represents. The set is closed.
type Identity uint8

const (
	None Identity = iota
	MetarStart
	SpeciStart
	TafStart
	Correction
	Amendment
	Cancellation
	Nil
	Automated
	AerodromeDesignator
	IssueTime
	ValidTime
	SurfaceWind
	VariableWindDirection
	Cavok
	HorizontalVisibility
	RunwayVisualRange
	Weather
	NoSignificantWeather
	Cloud
	AirDewpointTemperature
	AirPressureQNH
	RecentWeather
	WindShear
	SeaState
	RunwayState
	SnowClosure
	ColorCode
	MinMaxTemperature
	TrendChangeIndicator
	TrendTimeGroup
	TafForecastChangeIndicator
	TafChangeForecastTimeGroup
	RemarksStart
	Remark
	EndToken

	numIdentities
)

var identityNames = [numIdentities]string{
	None:                       "NONE",
	MetarStart:                 "METAR_START",
	SpeciStart:                 "SPECI_START",
	TafStart:                   "TAF_START",
	Correction:                 "CORRECTION",
	Amendment:                  "AMENDMENT",
	Cancellation:               "CANCELLATION",
	Nil:                        "NIL",
	Automated:                  "AUTOMATED",
	AerodromeDesignator:        "AERODROME_DESIGNATOR",
	IssueTime:                  "ISSUE_TIME",
	ValidTime:                  "VALID_TIME",
	SurfaceWind:                "SURFACE_WIND",
	VariableWindDirection:      "VARIABLE_WIND_DIRECTION",
	Cavok:                      "CAVOK",
	HorizontalVisibility:       "HORIZONTAL_VISIBILITY",
	RunwayVisualRange:          "RUNWAY_VISUAL_RANGE",
	Weather:                    "WEATHER",
	NoSignificantWeather:       "NO_SIGNIFICANT_WEATHER",
	Cloud:                      "CLOUD",
	AirDewpointTemperature:     "AIR_DEWPOINT_TEMPERATURE",
	AirPressureQNH:             "AIR_PRESSURE_QNH",
	RecentWeather:              "RECENT_WEATHER",
	WindShear:                  "WIND_SHEAR",
	SeaState:                   "SEA_STATE",
	RunwayState:                "RUNWAY_STATE",
	SnowClosure:                "SNOW_CLOSURE",
	ColorCode:                  "COLOR_CODE",
	MinMaxTemperature:          "MIN_MAX_TEMPERATURE",
	TrendChangeIndicator:       "TREND_CHANGE_INDICATOR",
	TrendTimeGroup:             "TREND_TIME_GROUP",
	TafForecastChangeIndicator: "TAF_FORECAST_CHANGE_INDICATOR",
	TafChangeForecastTimeGroup: "TAF_CHANGE_FORECAST_TIME_GROUP",
	RemarksStart:               "REMARKS_START",
	Remark:                     "REMARK",
	EndToken:                   "END_TOKEN",
}

func (id Identity) String() string {
	if id >= numIdentities {
		return "UNKNOWN"
	}
	return identityNames[id]
}

// In reports whether id is one of ids.
func (id Identity) In(ids ...Identity) bool {
	for _, other := range ids {
		if id == other {
			return true
		}
	}
	return false
}

// Identities returns every identity except None, in declaration order.
func Identities() []Identity {
	out := make([]Identity, 0, numIdentities-1)
	for id := None + 1; id < numIdentities; id++ {
		out = append(out, id)
	}
	return out
}

// ParseIdentity returns the identity with the given name (case-insensitive).
func ParseIdentity(name string) (Identity, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for id, n := range identityNames {
		if n == name {
			return Identity(id), true
		}
	}
	return None, false
}

// MarshalText encodes the identity by name so traces read well as JSON.
func (id Identity) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// Status is the outcome of classifying one lexeme.
type Status uint8

const (
	StatusUnrecognized Status = iota
	StatusOK
	StatusWarning
	StatusSyntaxError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusWarning:
		return "WARNING"
	case StatusSyntaxError:
		return "SYNTAX_ERROR"
	default:
		return "UNRECOGNIZED"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ValueName names a parsed-value slot on a lexeme.
type ValueName string

const (
	Day1                ValueName = "DAY1"
	Day2                ValueName = "DAY2"
	Hour1               ValueName = "HOUR1"
	Hour2               ValueName = "HOUR2"
	Minute1             ValueName = "MINUTE1"
	Minute2             ValueName = "MINUTE2"
	HasZone             ValueName = "HAS_ZONE"
	Unit                ValueName = "UNIT"
	Unit2               ValueName = "UNIT2"
	Value               ValueName = "VALUE"
	Value2              ValueName = "VALUE2"
	MinValue            ValueName = "MIN_VALUE"
	MaxValue            ValueName = "MAX_VALUE"
	MeanValue           ValueName = "MEAN_VALUE"
	Direction           ValueName = "DIRECTION"
	RelationalOperator  ValueName = "RELATIONAL_OPERATOR"
	RelationalOperator2 ValueName = "RELATIONAL_OPERATOR2"
	TendencyOperator    ValueName = "TENDENCY_OPERATOR"
	Cover               ValueName = "COVER"
	Type                ValueName = "TYPE"
	Runway              ValueName = "RUNWAY"
	Location            ValueName = "LOCATION_INDICATOR"
	Country             ValueName = "COUNTRY"
	Format              ValueName = "FORMAT"
	Code                ValueName = "CODE"
	Intensity           ValueName = "INTENSITY"
	Deposit             ValueName = "DEPOSIT"
	Contamination       ValueName = "CONTAMINATION"
	Depth               ValueName = "DEPTH"
	BrakingAction       ValueName = "BRAKING_ACTION"
	Cleared             ValueName = "CLEARED"
	AllRunways          ValueName = "ALL_RUNWAYS"
	Repetition          ValueName = "REPETITION"
	Probability         ValueName = "PROBABILITY"
	Missing             ValueName = "MISSING"

	NoDirectionalVariation ValueName = "NDV"
)
