package model

import "tac_codec/internal/partialtime"

// TAF change forecast types.
const (
	ChangeBecoming        = "BECMG"
	ChangeTemporary       = "TEMPO"
	ChangeFrom            = "FM"
	ChangeProb30          = "PROB30"
	ChangeProb40          = "PROB40"
	ChangeProb30Temporary = "PROB30_TEMPO"
	ChangeProb40Temporary = "PROB40_TEMPO"
)

// TemperatureForecast is a TX or TN group.
type TemperatureForecast struct {
	Maximum bool                `json:"maximum"`
	Value   NumericMeasure      `json:"value"`
	Time    partialtime.Instant `json:"time"`
}

// TAFChangeForecast is one change group. FM groups carry only a start time.
type TAFChangeForecast struct {
	Type   string             `json:"type"`
	Period partialtime.Period `json:"period"`
	Conditions
}

// TAF is an aerodrome forecast.
type TAF struct {
	Amendment  bool `json:"amendment,omitempty"`
	Correction bool `json:"correction,omitempty"`
	Cancelled  bool `json:"cancelled,omitempty"`
	Missing    bool `json:"nil,omitempty"`

	Aerodrome    Aerodrome            `json:"aerodrome"`
	IssueTime    *partialtime.Instant `json:"issue_time,omitempty"`
	ValidityTime *partialtime.Period  `json:"validity,omitempty"`

	Conditions
	Temperatures []TemperatureForecast `json:"temperatures,omitempty"`

	ChangeForecasts []TAFChangeForecast `json:"changes,omitempty"`

	Remarks []string `json:"remarks,omitempty"`
}
