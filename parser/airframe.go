package parser

import "strings"

// airframeAliases pairs lower-cased designations and nicknames found
// in livery descriptions with the canonical airframe name. Order
// matters: the first alias present in the description wins.
var airframeAliases = []struct {
	alias    string
	airframe string
}{
	{"ci-22", "CI-22"},
	{"cricket", "CI-22"},
	{"t/a-30", "T/A-30"},
	{"compass", "T/A-30"},
	{"a-19", "A-19"},
	{"brawler", "A-19"},
	{"uh-90", "UH-90"},
	{"ibis", "UH-90"},
	{"sah-46", "SAH-46"},
	{"chicane", "SAH-46"},
	{"fs-12", "FS-12"},
	{"revoker", "FS-12"},
	{"fs-20", "FS-20"},
	{"vortex", "FS-20"},
	{"kr-67", "KR-67"},
	{"ifrit", "KR-67"},
	{"vl-49", "VL-49"},
	{"tarantula", "VL-49"},
	{"ew-25", "EW-25"},
	{"medusa", "EW-25"},
	{"sfb-81", "SFB-81"},
	{"darkreach", "SFB-81"},
}

// Airframe infers the airframe a livery belongs to by matching known
// aliases against the lower-cased description text.
func Airframe(description string) string {
	description = strings.ToLower(description)
	for _, entry := range airframeAliases {
		if strings.Contains(description, entry.alias) {
			return entry.airframe
		}
	}
	return UnknownValue
}
