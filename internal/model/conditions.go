package model

// SurfaceWind is the mean wind with optional gust and direction variation.
// MeanDirection is nil when the direction is variable (VRB).
type SurfaceWind struct {
	MeanDirection     *NumericMeasure    `json:"mean_direction,omitempty"`
	Variable          bool               `json:"variable,omitempty"`
	MeanSpeed         NumericMeasure     `json:"mean_speed"`
	MeanSpeedOperator RelationalOperator `json:"mean_speed_operator,omitempty"`
	Gust              *NumericMeasure    `json:"gust,omitempty"`
	GustOperator      RelationalOperator `json:"gust_operator,omitempty"`

	// Extreme directions of a varying wind, from a dddVddd group.
	ExtremeCounterClockwise *NumericMeasure `json:"extreme_ccw,omitempty"`
	ExtremeClockwise        *NumericMeasure `json:"extreme_cw,omitempty"`
}

// HorizontalVisibility is the prevailing visibility plus an optional
// directional minimum.
type HorizontalVisibility struct {
	Prevailing             NumericMeasure     `json:"prevailing"`
	Operator               RelationalOperator `json:"operator,omitempty"`
	NoDirectionalVariation bool               `json:"ndv,omitempty"`

	Minimum          *NumericMeasure `json:"minimum,omitempty"`
	MinimumDirection string          `json:"minimum_direction,omitempty"`
}

// Weather is one present, forecast or recent weather group.
type Weather struct {
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
}

// Cloud cover amounts and special sky conditions.
const (
	CoverFew       = "FEW"
	CoverScattered = "SCT"
	CoverBroken    = "BKN"
	CoverOvercast  = "OVC"

	SkyNoSignificantCloud = "NSC"
	SkyNoCloudDetected    = "NCD"
	SkyClear              = "SKC"
	SkyClearBelow12000    = "CLR"
)

// CloudLayer is one cloud group. Empty Amount and nil Base stand for "///".
type CloudLayer struct {
	Amount      string          `json:"amount,omitempty"`
	Base        *NumericMeasure `json:"base,omitempty"`
	Type        string          `json:"type,omitempty"`
	TypeMissing bool            `json:"type_missing,omitempty"`
}

// CloudForecast is the cloud section: layers, vertical visibility, or one of
// the special sky conditions.
type CloudForecast struct {
	Layers []CloudLayer `json:"layers,omitempty"`

	VerticalVisibility        *NumericMeasure `json:"vertical_visibility,omitempty"`
	VerticalVisibilityMissing bool            `json:"vertical_visibility_missing,omitempty"`

	Special string `json:"special,omitempty"`
}

// Conditions are the weather fields shared by observations, trends and
// forecast change groups.
type Conditions struct {
	SurfaceWind          *SurfaceWind          `json:"surface_wind,omitempty"`
	CAVOK                bool                  `json:"cavok,omitempty"`
	Visibility           *HorizontalVisibility `json:"visibility,omitempty"`
	Weather              []Weather             `json:"weather,omitempty"`
	NoSignificantWeather bool                  `json:"nsw,omitempty"`
	Clouds               *CloudForecast        `json:"clouds,omitempty"`
}

// IsEmpty reports whether no field is set.
func (c *Conditions) IsEmpty() bool {
	return c == nil || c.SurfaceWind == nil && !c.CAVOK && c.Visibility == nil &&
		len(c.Weather) == 0 && !c.NoSignificantWeather && c.Clouds == nil
}
