package domain

// Restaurant is read-only reference data owned by an external catalog
// management process.
type Restaurant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Branch belongs to a restaurant.
type Branch struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	RestaurantID string `json:"-"`
}
