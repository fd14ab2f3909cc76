package models

// LocationCandidate is one forward-geocoding autocomplete result. It is
// never persisted; selecting a candidate feeds a post draft's location
// fields.
type LocationCandidate struct {
	PlaceID     string  `json:"place_id"`
	DisplayName string  `json:"display_name"`
	Longitude   float64 `json:"longitude"`
	Latitude    float64 `json:"latitude"`
}

// SelectedLocation is the normalized output of both lookup flows
type SelectedLocation struct {
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
