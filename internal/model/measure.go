// Package model holds the structured METAR, SPECI and TAF report types the
// codec produces and consumes. The types are plain data with JSON tags; the
// parsers fill them and the serializers read them.
package model

import "strconv"

// Units of measure used in reports. Codes follow UCUM where TAC has an equivalent.
const (
	UnitDegrees       = "deg"
	UnitKnots         = "[kn_i]"
	UnitMetresPerSec  = "m/s"
	UnitKmPerHour     = "km/h"
	UnitMetres        = "m"
	UnitFeet          = "[ft_i]"
	UnitStatuteMiles  = "[mi_i]"
	UnitCelsius       = "degC"
	UnitHectopascal   = "hPa"
	UnitInchesMercury = "[in_i'Hg]"
	UnitDecimetres    = "dm"
)

// NumericMeasure is a value with its unit of measure.
type NumericMeasure struct {
	Value float64 `json:"value"`
	UOM   string  `json:"uom"`
}

// Measure is shorthand for building a NumericMeasure.
func Measure(v float64, uom string) NumericMeasure {
	return NumericMeasure{Value: v, UOM: uom}
}

// MeasureRef is Measure returning a pointer, for optional fields.
func MeasureRef(v float64, uom string) *NumericMeasure {
	m := Measure(v, uom)
	return &m
}

func (m NumericMeasure) String() string {
	return strconv.FormatFloat(m.Value, 'f', -1, 64) + " " + m.UOM
}

// RelationalOperator qualifies a value reported at the limit of the code range.
type RelationalOperator string

const (
	OperatorNone  RelationalOperator = ""
	OperatorAbove RelationalOperator = "ABOVE"
	OperatorBelow RelationalOperator = "BELOW"
)

// Tendency is the RVR trend over the observation period.
type Tendency string

const (
	TendencyNone     Tendency = ""
	TendencyUpward   Tendency = "UPWARD"
	TendencyDownward Tendency = "DOWNWARD"
	TendencyNoChange Tendency = "NO_CHANGE"
)
