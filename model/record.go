package model

// Record is one close-approach candidate from the catalog service.
type Record struct {
	Name              string   `json:"name"`
	DiameterMinKm     float64  `json:"diameter_min_km"`
	DiameterMaxKm     float64  `json:"diameter_max_km"`
	AbsoluteMagnitude *float64 `json:"absolute_magnitude,omitempty"`
	IsHazardous       bool     `json:"is_hazardous"`
	VelocityKmS       float64  `json:"velocity_km_s"`
	MissDistanceKm    float64  `json:"miss_distance_km"`
	CloseApproachDate string   `json:"close_approach_date"`
}
