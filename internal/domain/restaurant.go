package domain

import "time"

// MaxRating is the top of the 0-5 rating scale. Zero means unrated.
const MaxRating = 5

// Restaurant is a place in a user's journal.
type Restaurant struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Name       string    `json:"name"`
	Address    string    `json:"address"`
	Phone      string    `json:"phone"`
	Website    string    `json:"website"`
	Rating     int       `json:"rating"`
	Notes      string    `json:"notes"`
	IsFavorite bool      `json:"is_favorite"`
	ExternalID string    `json:"external_id,omitempty"`
	Tags       []string  `json:"tags"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// RestaurantFilter narrows a restaurant listing. Zero values match all.
type RestaurantFilter struct {
	Query        string
	Tag          string
	FavoriteOnly bool
}
