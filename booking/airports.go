package booking

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrUnknownAirport is returned when a location cannot be mapped to an airport.
var ErrUnknownAirport = errors.New("could not find airport")

type airport struct {
	place string
	code  string
}

// airports maps lower-case city and country names to a main airport.
// Partial matches take the first entry in this order.
var airports = []airport{
	// India
	{"chennai", "MAA"}, {"mumbai", "BOM"}, {"delhi", "DEL"}, {"bangalore", "BLR"},
	{"kolkata", "CCU"}, {"hyderabad", "HYD"}, {"ahmedabad", "AMD"}, {"pune", "PNQ"},
	{"goa", "GOI"}, {"jaipur", "JAI"}, {"kochi", "COK"}, {"thiruvananthapuram", "TRV"},
	{"lucknow", "LKO"}, {"chandigarh", "IXC"}, {"coimbatore", "CJB"}, {"guwahati", "GAU"},

	// USA
	{"new york", "JFK"}, {"los angeles", "LAX"}, {"chicago", "ORD"}, {"houston", "IAH"},
	{"phoenix", "PHX"}, {"philadelphia", "PHL"}, {"san antonio", "SAT"}, {"san diego", "SAN"},
	{"dallas", "DFW"}, {"san jose", "SJC"}, {"austin", "AUS"}, {"jacksonville", "JAX"},
	{"fort worth", "DFW"}, {"columbus", "CMH"}, {"charlotte", "CLT"}, {"san francisco", "SFO"},
	{"indianapolis", "IND"}, {"seattle", "SEA"}, {"denver", "DEN"}, {"washington", "IAD"},
	{"boston", "BOS"}, {"nashville", "BNA"}, {"detroit", "DTW"}, {"las vegas", "LAS"},
	{"portland", "PDX"}, {"memphis", "MEM"}, {"miami", "MIA"}, {"atlanta", "ATL"},
	{"orlando", "MCO"},

	// Europe
	{"london", "LHR"}, {"paris", "CDG"}, {"berlin", "BER"}, {"madrid", "MAD"},
	{"rome", "FCO"}, {"amsterdam", "AMS"}, {"barcelona", "BCN"}, {"munich", "MUC"},
	{"milan", "MXP"}, {"vienna", "VIE"}, {"zurich", "ZRH"}, {"brussels", "BRU"},
	{"dublin", "DUB"}, {"copenhagen", "CPH"}, {"stockholm", "ARN"}, {"oslo", "OSL"},
	{"helsinki", "HEL"}, {"prague", "PRG"}, {"warsaw", "WAW"}, {"budapest", "BUD"},
	{"athens", "ATH"}, {"istanbul", "IST"}, {"lisbon", "LIS"}, {"manchester", "MAN"},
	{"edinburgh", "EDI"}, {"geneva", "GVA"}, {"frankfurt", "FRA"}, {"nice", "NCE"},

	// Asia
	{"tokyo", "NRT"}, {"beijing", "PEK"}, {"shanghai", "PVG"}, {"hong kong", "HKG"},
	{"singapore", "SIN"}, {"dubai", "DXB"}, {"bangkok", "BKK"}, {"kuala lumpur", "KUL"},
	{"seoul", "ICN"}, {"taipei", "TPE"}, {"manila", "MNL"}, {"jakarta", "CGK"},
	{"hanoi", "HAN"}, {"ho chi minh", "SGN"}, {"osaka", "KIX"}, {"nagoya", "NGO"},
	{"fukuoka", "FUK"}, {"sapporo", "CTS"}, {"chengdu", "CTU"}, {"guangzhou", "CAN"},
	{"shenzhen", "SZX"}, {"doha", "DOH"}, {"abu dhabi", "AUH"}, {"riyadh", "RUH"},
	{"jeddah", "JED"}, {"tehran", "IKA"}, {"karachi", "KHI"}, {"lahore", "LHE"},
	{"islamabad", "ISB"}, {"dhaka", "DAC"}, {"kathmandu", "KTM"}, {"colombo", "CMB"},

	// Australia & Oceania
	{"sydney", "SYD"}, {"melbourne", "MEL"}, {"brisbane", "BNE"}, {"perth", "PER"},
	{"adelaide", "ADL"}, {"auckland", "AKL"}, {"wellington", "WLG"}, {"christchurch", "CHC"},

	// Middle East & Africa
	{"cairo", "CAI"}, {"johannesburg", "JNB"}, {"cape town", "CPT"}, {"nairobi", "NBO"},
	{"lagos", "LOS"}, {"casablanca", "CMN"}, {"addis ababa", "ADD"}, {"tel aviv", "TLV"},
	{"amman", "AMM"}, {"beirut", "BEY"},

	// South America
	{"sao paulo", "GRU"}, {"rio de janeiro", "GIG"}, {"buenos aires", "EZE"}, {"lima", "LIM"},
	{"bogota", "BOG"}, {"santiago", "SCL"}, {"caracas", "CCS"}, {"quito", "UIO"},

	// Canada
	{"toronto", "YYZ"}, {"vancouver", "YVR"}, {"montreal", "YUL"}, {"calgary", "YYC"},
	{"ottawa", "YOW"}, {"edmonton", "YEG"},

	// Countries
	{"france", "CDG"}, {"germany", "FRA"}, {"italy", "FCO"}, {"spain", "MAD"},
	{"uk", "LHR"}, {"united kingdom", "LHR"}, {"netherlands", "AMS"}, {"switzerland", "ZRH"},
	{"austria", "VIE"}, {"belgium", "BRU"}, {"portugal", "LIS"}, {"greece", "ATH"},
	{"turkey", "IST"}, {"russia", "SVO"}, {"poland", "WAW"}, {"czech republic", "PRG"},
	{"hungary", "BUD"}, {"denmark", "CPH"}, {"sweden", "ARN"}, {"norway", "OSL"},
	{"finland", "HEL"}, {"ireland", "DUB"}, {"scotland", "EDI"}, {"wales", "CWL"},
	{"japan", "NRT"}, {"china", "PEK"}, {"south korea", "ICN"}, {"thailand", "BKK"},
	{"malaysia", "KUL"}, {"indonesia", "CGK"}, {"vietnam", "SGN"}, {"philippines", "MNL"},
	{"cambodia", "PNH"}, {"myanmar", "RGN"}, {"bangladesh", "DAC"}, {"sri lanka", "CMB"},
	{"nepal", "KTM"}, {"pakistan", "KHI"}, {"uae", "DXB"}, {"saudi arabia", "RUH"},
	{"qatar", "DOH"}, {"kuwait", "KWI"}, {"oman", "MCT"}, {"bahrain", "BAH"},
	{"egypt", "CAI"}, {"south africa", "JNB"}, {"kenya", "NBO"}, {"nigeria", "LOS"},
	{"morocco", "CMN"}, {"australia", "SYD"}, {"new zealand", "AKL"}, {"brazil", "GRU"},
	{"argentina", "EZE"}, {"chile", "SCL"}, {"peru", "LIM"}, {"colombia", "BOG"},
	{"mexico", "MEX"}, {"canada", "YYZ"}, {"usa", "JFK"}, {"united states", "JFK"},
	{"india", "DEL"},
}

var airportIndex = func() map[string]string {
	idx := make(map[string]string, len(airports))
	for _, a := range airports {
		if _, dup := idx[a.place]; !dup {
			idx[a.place] = a.code
		}
	}
	return idx
}()

// AirportCode resolves a city, country or IATA code to an airport code and a
// display name. Three upper-case letters pass through unchanged.
func AirportCode(location string) (code, name string, err error) {
	clean := strings.TrimSpace(location)
	if clean == "" {
		return "", "", fmt.Errorf("%w: empty location", ErrUnknownAirport)
	}
	if isIATA(clean) {
		return clean, clean, nil
	}

	lower := strings.ToLower(clean)
	if code, ok := airportIndex[lower]; ok {
		return code, clean, nil
	}
	for _, a := range airports {
		if strings.Contains(lower, a.place) || strings.Contains(a.place, lower) {
			return a.code, titleCase(a.place), nil
		}
	}
	return strings.ToUpper(clean), "", fmt.Errorf("%w for '%s'", ErrUnknownAirport, clean)
}

// DisplayLocation formats "City (CODE)", or just the code when both match.
func DisplayLocation(code, name string) string {
	if name != "" && name != code {
		return fmt.Sprintf("%s (%s)", name, code)
	}
	return code
}

func isIATA(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
