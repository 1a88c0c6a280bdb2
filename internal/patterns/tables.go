package patterns

import (
	"strconv"
	"strings"
)

// Weather code tables. Read-only after init.
var (
	weatherIntensities = map[string]string{
		"-":   "light",
		"+":   "heavy",
		"VC":  "in the vicinity",
		"-VC": "light, in the vicinity",
		"+VC": "heavy, in the vicinity",
	}

	weatherDescriptors = map[string]string{
		"MI": "shallow",
		"PR": "partial",
		"BC": "patches of",
		"DR": "low drifting",
		"BL": "blowing",
		"SH": "showers of",
		"TS": "thunderstorm",
		"FZ": "freezing",
	}

	weatherPhenomena = map[string]string{
		"DZ": "drizzle",
		"RA": "rain",
		"SN": "snow",
		"SG": "snow grains",
		"PL": "ice pellets",
		"GR": "hail",
		"GS": "small hail",
		"UP": "unknown precipitation",
		"IC": "ice crystals",
		"BR": "mist",
		"FG": "fog",
		"FU": "smoke",
		"VA": "volcanic ash",
		"DU": "widespread dust",
		"SA": "sand",
		"HZ": "haze",
		"PO": "dust whirls",
		"SQ": "squalls",
		"FC": "funnel cloud",
		"SS": "sandstorm",
		"DS": "duststorm",
	}
)

// DescribeWeather decodes a weather group such as "+TSRA" into words. It
// returns "" if the code contains an unknown part.
func DescribeWeather(code string) string {
	rest := strings.ToUpper(code)
	var words []string

	intensity := ""
	for _, p := range []string{"+VC", "-VC", "VC", "+", "-"} {
		if strings.HasPrefix(rest, p) {
			intensity, rest = p, rest[len(p):]
			break
		}
	}
	if intensity != "" {
		words = append(words, weatherIntensities[intensity])
	}
	if len(rest) >= 2 {
		if d, ok := weatherDescriptors[rest[:2]]; ok {
			words = append(words, d)
			rest = rest[2:]
		}
	}
	if len(rest)%2 != 0 {
		return ""
	}
	for ; len(rest) > 0; rest = rest[2:] {
		p, ok := weatherPhenomena[rest[:2]]
		if !ok {
			return ""
		}
		words = append(words, p)
	}
	if len(words) == 0 || intensity != "" && len(words) == 1 {
		return ""
	}
	return strings.Join(words, " ")
}

// icaoCountries maps ICAO location indicator prefixes to countries. Longer
// prefixes win over shorter ones.
var icaoCountries = map[string]string{
	"C":  "Canada",
	"K":  "United States",
	"Y":  "Australia",
	"Z":  "China",
	"U":  "Russia",
	"BG": "Greenland",
	"BI": "Iceland",
	"EB": "Belgium",
	"ED": "Germany",
	"EE": "Estonia",
	"EF": "Finland",
	"EG": "United Kingdom",
	"EH": "Netherlands",
	"EI": "Ireland",
	"EK": "Denmark",
	"EL": "Luxembourg",
	"EN": "Norway",
	"EP": "Poland",
	"ES": "Sweden",
	"ET": "Germany",
	"EV": "Latvia",
	"EY": "Lithuania",
	"FA": "South Africa",
	"GC": "Spain",
	"LB": "Bulgaria",
	"LC": "Cyprus",
	"LD": "Croatia",
	"LE": "Spain",
	"LF": "France",
	"LG": "Greece",
	"LH": "Hungary",
	"LI": "Italy",
	"LJ": "Slovenia",
	"LK": "Czech Republic",
	"LL": "Israel",
	"LM": "Malta",
	"LO": "Austria",
	"LP": "Portugal",
	"LR": "Romania",
	"LS": "Switzerland",
	"LT": "Turkey",
	"LZ": "Slovakia",
	"NZ": "New Zealand",
	"OM": "United Arab Emirates",
	"RJ": "Japan",
	"RK": "South Korea",
	"SB": "Brazil",
	"UK": "Ukraine",
	"UM": "Belarus",
	"VH": "Hong Kong",
	"VT": "Thailand",
	"WS": "Singapore",
	"ZK": "North Korea",
}

// CountryForICAO returns the country of a location indicator, or "".
func CountryForICAO(designator string) string {
	designator = strings.ToUpper(designator)
	for n := 2; n >= 1; n-- {
		if len(designator) < n {
			continue
		}
		if c, ok := icaoCountries[designator[:n]]; ok {
			return c
		}
	}
	return ""
}

// Runway state decoding tables.
var (
	runwayDeposits = map[string]string{
		"0": "CLEAR_AND_DRY",
		"1": "DAMP",
		"2": "WET_WITH_WATER_PATCHES",
		"3": "RIME_AND_FROST_COVERED",
		"4": "DRY_SNOW",
		"5": "WET_SNOW",
		"6": "SLUSH",
		"7": "ICE",
		"8": "COMPACT_OR_ROLLED_SNOW",
		"9": "FROZEN_RUTS_OR_RIDGES",
		"/": "NOT_REPORTED",
	}

	runwayContamination = map[string]string{
		"1": "LESS_OR_EQUAL_TO_10PCT",
		"2": "FROM_11_TO_25PCT",
		"5": "FROM_26_TO_50PCT",
		"9": "FROM_51_TO_100PCT",
		"/": "NOT_REPORTED",
	}

	runwayDepthCodes = map[string]string{
		"92": "10 cm",
		"93": "15 cm",
		"94": "20 cm",
		"95": "25 cm",
		"96": "30 cm",
		"97": "35 cm",
		"98": "40 cm or more",
		"99": "RUNWAY_NOT_OPERATIONAL",
		"//": "NOT_REPORTED",
	}

	runwayBrakingCodes = map[string]string{
		"91": "POOR",
		"92": "MEDIUM_POOR",
		"93": "MEDIUM",
		"94": "MEDIUM_GOOD",
		"95": "GOOD",
		"99": "UNRELIABLE",
		"//": "NOT_REPORTED",
	}
)

// RunwayDeposit decodes a deposit digit. ok is false for an unknown code.
func RunwayDeposit(code string) (string, bool) {
	d, ok := runwayDeposits[code]
	return d, ok
}

// RunwayContamination decodes a contamination extent digit.
func RunwayContamination(code string) (string, bool) {
	d, ok := runwayContamination[code]
	return d, ok
}

// RunwayDepth decodes a two digit depth code: 00 to 90 are millimetres.
func RunwayDepth(code string) (string, bool) {
	if d, ok := runwayDepthCodes[code]; ok {
		return d, true
	}
	n, err := strconv.Atoi(code)
	if err != nil || n < 0 || n > 90 {
		return "", false
	}
	if n == 0 {
		return "less than 1 mm", true
	}
	return strconv.Itoa(n) + " mm", true
}

// RunwayBraking decodes a two digit braking code: 01 to 90 are friction
// coefficients in hundredths.
func RunwayBraking(code string) (string, bool) {
	if d, ok := runwayBrakingCodes[code]; ok {
		return d, true
	}
	n, err := strconv.Atoi(code)
	if err != nil || n < 1 || n > 90 {
		return "", false
	}
	return "FRICTION_0." + code, true
}
