package patterns

// BasePatterns defines reusable regex components for token formats.
// Formats reference them with {PATTERN_NAME}.
var BasePatterns = map[string]string{
	// Locations and runways.
	"ICAO":   `[A-Z]{4}`,
	"RUNWAY": `\d{2}[LRC]?`,

	// Time groups.
	"DD":   `\d{2}`,
	"HH":   `\d{2}`,
	"MM":   `\d{2}`,
	"ZONE": `Z?`,

	// Wind.
	"WIND_DIR":  `\d{3}`,
	"WIND_SPD":  `\d{2,3}`,
	"WIND_UNIT": `KT|MPS|KMH`,

	// Visibility.
	"COMPASS":  `NE|NW|SE|SW|N|E|S|W`,
	"SM_VALUE": `\d{1,2}|\d{1,2}/\d{1,2}`,

	// Temperatures; M is minus.
	"TEMP": `M?\d{2}`,

	// Clouds.
	"COVER":      `FEW|SCT|BKN|OVC`,
	"CLOUD_TYPE": `CB|TCU`,
	"SKY":        `NSC|NCD|SKC|CLR`,

	// Weather groups.
	"WX_INTENSITY":  `[+-]|VC|\+VC|-VC`,
	"WX_DESCRIPTOR": `MI|PR|BC|DR|BL|SH|TS|FZ`,
	"WX_PHENOMENON": `DZ|RA|SN|SG|PL|GR|GS|UP|IC|BR|FG|FU|VA|DU|SA|HZ|PO|SQ|FC|SS|DS`,

	// Aerodrome colour state.
	"COLOR": `BLU\+?|WHT|GRN|YLO1|YLO2|YLO|AMB|RED`,
}
