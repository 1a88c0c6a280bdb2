package model

import "tac_codec/internal/partialtime"

// Kind is the report type.
type Kind string

const (
	KindUnknown Kind = ""
	KindMETAR   Kind = "METAR"
	KindSPECI   Kind = "SPECI"
	KindTAF     Kind = "TAF"
)

// Aerodrome identifies the reporting or forecast location.
type Aerodrome struct {
	Designator string `json:"designator"`
	Country    string `json:"country,omitempty"`
}

// AirDewpoint holds the observed temperatures. A nil side was reported as "//".
type AirDewpoint struct {
	Air      *NumericMeasure `json:"air,omitempty"`
	Dewpoint *NumericMeasure `json:"dewpoint,omitempty"`
}

// RunwayVisualRange is one RVR group. Max is set for varying RVR (VnnnnV form),
// in which case Value is the minimum.
type RunwayVisualRange struct {
	Runway      string             `json:"runway"`
	Value       NumericMeasure     `json:"value"`
	Operator    RelationalOperator `json:"operator,omitempty"`
	Max         *NumericMeasure    `json:"max,omitempty"`
	MaxOperator RelationalOperator `json:"max_operator,omitempty"`
	Tendency    Tendency           `json:"tendency,omitempty"`
}

// WindShear lists runways with wind shear, or all runways.
type WindShear struct {
	AllRunways bool     `json:"all_runways,omitempty"`
	Runways    []string `json:"runways,omitempty"`
}

// SeaState carries sea surface temperature and either the state of the sea
// or the significant wave height.
type SeaState struct {
	SurfaceTemperature *NumericMeasure `json:"surface_temperature,omitempty"`
	State              *int            `json:"state,omitempty"`
	WaveHeight         *NumericMeasure `json:"wave_height,omitempty"`
}

// RunwayState is one runway surface condition group. The code fields keep the
// reported digits ("/" for not reported); the description fields are decoded
// from them for consumers and ignored on serialization.
type RunwayState struct {
	Runway     string `json:"runway,omitempty"`
	AllRunways bool   `json:"all_runways,omitempty"`
	Repetition bool   `json:"repetition,omitempty"`
	Cleared    bool   `json:"cleared,omitempty"`

	Deposit       string `json:"deposit,omitempty"`
	Contamination string `json:"contamination,omitempty"`
	Depth         string `json:"depth,omitempty"`
	BrakingAction string `json:"braking_action"`

	DepositDescription       string `json:"deposit_description,omitempty"`
	ContaminationDescription string `json:"contamination_description,omitempty"`
	DepthDescription         string `json:"depth_description,omitempty"`
	BrakingDescription       string `json:"braking_description,omitempty"`
}

// Trend change types.
const (
	TrendBecoming  = "BECMG"
	TrendTemporary = "TEMPO"
)

// Trend is one BECMG or TEMPO trend forecast of a METAR.
type Trend struct {
	Type  string               `json:"type"`
	From  *partialtime.Instant `json:"from,omitempty"`
	Until *partialtime.Instant `json:"until,omitempty"`
	At    *partialtime.Instant `json:"at,omitempty"`
	Conditions
	ColorCode string `json:"color_code,omitempty"`
}

// METAR is a routine (METAR) or special (SPECI) aerodrome observation.
type METAR struct {
	Kind       Kind `json:"kind"`
	Correction bool `json:"correction,omitempty"`
	Automated  bool `json:"automated,omitempty"`
	Missing    bool `json:"nil,omitempty"`

	Aerodrome Aerodrome            `json:"aerodrome"`
	IssueTime *partialtime.Instant `json:"issue_time,omitempty"`

	Conditions
	RunwayVisualRanges []RunwayVisualRange `json:"rvr,omitempty"`
	Temperatures       *AirDewpoint        `json:"temperatures,omitempty"`
	QNH                *NumericMeasure     `json:"qnh,omitempty"`
	RecentWeather      []Weather           `json:"recent_weather,omitempty"`
	WindShear          *WindShear          `json:"wind_shear,omitempty"`
	SeaState           *SeaState           `json:"sea_state,omitempty"`
	RunwayStates       []RunwayState       `json:"runway_states,omitempty"`
	SnowClosure        bool                `json:"snow_closure,omitempty"`
	ColorCode          string              `json:"color_code,omitempty"`

	Trends               []Trend `json:"trends,omitempty"`
	NoSignificantChanges bool    `json:"nosig,omitempty"`

	Remarks []string `json:"remarks,omitempty"`
}

// ReportKind returns the kind, defaulting to METAR.
func (m *METAR) ReportKind() Kind {
	if m.Kind == KindSPECI {
		return KindSPECI
	}
	return KindMETAR
}
