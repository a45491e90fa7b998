package normalize

import "strings"

// GeographyUnknown is the bucket key for geography values that cannot be
// matched to a canonical name. Keeping them under a nominal key preserves
// the invariant that a geographic rollup accounts for every record.
const GeographyUnknown = "DESCONOCIDO"

// geographyAliases collapses independently sourced spellings onto one
// canonical key. Keys and values are in folded form (see Fold).
var geographyAliases = map[string]string{
	"caba":                            "CABA",
	"capital federal":                 "CABA",
	"ciudad autonoma de buenos aires": "CABA",
	"ciudad de buenos aires":          "CABA",
	"tierra del fuego antartida e islas del atlantico sur": "TIERRA DEL FUEGO",
	"santiago del estero": "SANTIAGO DEL ESTERO",
}

// geographyNoise lists administrative prefixes that appear in raw data but
// not in reference geometry names.
var geographyNoise = []string{
	"provincia de ",
	"provincia del ",
	"prov. de ",
	"prov. ",
	"prov ",
	"pcia. de ",
	"pcia. ",
}

// Geography canonicalizes a raw geography label into the join key used by
// geographic rollups and the boundary reference. Empty or blank input maps
// to GeographyUnknown.
func Geography(raw string) string {
	s := Fold(raw)
	if s == "" {
		return GeographyUnknown
	}

	for _, prefix := range geographyNoise {
		if strings.HasPrefix(s, prefix) {
			s = strings.TrimSpace(strings.TrimPrefix(s, prefix))
			break
		}
	}
	if s == "" {
		return GeographyUnknown
	}

	// Reference geometry names carry no punctuation.
	s = strings.Join(strings.Fields(strings.NewReplacer(",", "", ".", "").Replace(s)), " ")
	if s == "" {
		return GeographyUnknown
	}

	if canonical, ok := geographyAliases[s]; ok {
		return canonical
	}
	return strings.ToUpper(s)
}
