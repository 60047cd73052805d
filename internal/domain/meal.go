package domain

import "time"

// Meal is a dish eaten at one of the user's restaurants.
type Meal struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	RestaurantID    string     `json:"restaurant_id"`
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	Rating          int        `json:"rating"`
	WouldOrderAgain bool       `json:"would_order_again"`
	Notes           string     `json:"notes"`
	PhotoKeys       []string   `json:"photo_keys"`
	Tags            []string   `json:"tags"`
	VisitedAt       *time.Time `json:"visited_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// MealFilter narrows a meal listing. Zero values match all.
type MealFilter struct {
	RestaurantID string
	Tag          string
}
