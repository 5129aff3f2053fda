package model

// Region choices map a symbolic selection to hh.ru area IDs.
// An empty area list means no region filter is sent to the API.
const (
	RegionMoscowMO = "moscow_mo" // Москва и МО
	RegionRussia   = "russia"    // вся Россия
	RegionAll      = "all"       // без фильтра по региону
)

var regionAreas = map[string][]string{
	RegionMoscowMO: {"1", "1002"},
	RegionRussia:   {"113"},
	RegionAll:      {},
}

var regionNames = map[string]string{
	RegionMoscowMO: "Москва и МО",
	RegionRussia:   "Россия",
	RegionAll:      "Все регионы",
}

// AreaIDs resolves the script's region choice to hh.ru area identifiers.
// Unknown choices behave like RegionAll.
func (s *Script) AreaIDs() []string {
	return regionAreas[s.Region]
}

// RegionDisplayName returns the human-readable region name.
func (s *Script) RegionDisplayName() string {
	if name, ok := regionNames[s.Region]; ok {
		return name
	}
	return regionNames[RegionAll]
}
