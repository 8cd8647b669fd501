package domain

import "strings"

// Place is a known destination with map coordinates.
type Place struct {
	Name    string
	Aliases []string
	Lat     float64
	Lng     float64
}

// DefaultPlace is the map centre when no hotel resolves to a known place.
var DefaultPlace = knownPlaces[0]

// knownPlaces is matched against free-text hotel locations. Aliases include
// the Hebrew spellings used by the first group of travellers.
var knownPlaces = []Place{
	{Name: "Bangkok", Aliases: []string{"bangkok", "בנגקוק"}, Lat: 13.7563, Lng: 100.5018},
	{Name: "Phuket", Aliases: []string{"phuket", "פוקט"}, Lat: 7.8804, Lng: 98.3923},
	{Name: "Kata", Aliases: []string{"kata", "קאטה"}, Lat: 7.8186, Lng: 98.2984},
	{Name: "Patong", Aliases: []string{"patong", "פאטונג"}, Lat: 7.8963, Lng: 98.3017},
	{Name: "Chiang Mai", Aliases: []string{"chiang mai", "צ'יאנג מאי"}, Lat: 18.7883, Lng: 98.9853},
	{Name: "Krabi", Aliases: []string{"krabi", "קראבי"}, Lat: 8.0863, Lng: 98.9063},
	{Name: "Ayutthaya", Aliases: []string{"ayutthaya", "איוטאיה"}, Lat: 14.3692, Lng: 100.5876},
}

// MatchPlace resolves a free-text location to a known place by
// case-insensitive substring match on any alias. When several places match
// (e.g. "Kata Beach, Phuket") the last one in the table wins.
func MatchPlace(location string) (Place, bool) {
	lower := strings.ToLower(location)
	if lower == "" {
		return Place{}, false
	}
	var (
		found Place
		ok    bool
	)
	for _, p := range knownPlaces {
		for _, alias := range p.Aliases {
			if strings.Contains(lower, alias) {
				found, ok = p, true
				break
			}
		}
	}
	return found, ok
}
