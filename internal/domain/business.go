package domain

// Business is a place returned by the external business search.
type Business struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Phone       string   `json:"phone"`
	URL         string   `json:"url"`
	ImageURL    string   `json:"image_url"`
	Rating      float64  `json:"rating"`
	ReviewCount int      `json:"review_count"`
	Price       string   `json:"price,omitempty"`
	Categories  []string `json:"categories"`
	Address     string   `json:"address"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
}

// BusinessSearch is a page of search results.
type BusinessSearch struct {
	Businesses []Business `json:"businesses"`
	Total      int        `json:"total"`
}

// BusinessQuery are the search parameters.
type BusinessQuery struct {
	Term     string
	Location string
	Limit    int
}
