// Package client holds outbound API clients.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shawnhank/nomnomlog-sub000/internal/domain"
	"github.com/shawnhank/nomnomlog-sub000/pkg/httpclient"
)

const yelpUpstream = "business search"

// YelpClient queries the Yelp Fusion business API with a server-held key.
// It satisfies service.BusinessDirectory.
type YelpClient struct {
	http    httpclient.Doer
	baseURL string
	apiKey  string
	logger  *slog.Logger
}

// NewYelpClient creates a client for baseURL (e.g. https://api.yelp.com/v3).
// doer is normally a CircuitBreakerClient wrapping an httpclient.Client.
func NewYelpClient(doer httpclient.Doer, baseURL, apiKey string, logger *slog.Logger) *YelpClient {
	return &YelpClient{
		http:    doer,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		logger:  logger,
	}
}

type yelpBusiness struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Phone       string  `json:"display_phone"`
	URL         string  `json:"url"`
	ImageURL    string  `json:"image_url"`
	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"review_count"`
	Price       string  `json:"price"`
	Categories  []struct {
		Title string `json:"title"`
	} `json:"categories"`
	Location struct {
		DisplayAddress []string `json:"display_address"`
	} `json:"location"`
	Coordinates struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"coordinates"`
}

func (b yelpBusiness) toDomain() domain.Business {
	cats := make([]string, 0, len(b.Categories))
	for _, c := range b.Categories {
		cats = append(cats, c.Title)
	}
	return domain.Business{
		ID:          b.ID,
		Name:        b.Name,
		Phone:       b.Phone,
		URL:         b.URL,
		ImageURL:    b.ImageURL,
		Rating:      b.Rating,
		ReviewCount: b.ReviewCount,
		Price:       b.Price,
		Categories:  cats,
		Address:     strings.Join(b.Location.DisplayAddress, ", "),
		Latitude:    b.Coordinates.Latitude,
		Longitude:   b.Coordinates.Longitude,
	}
}

// Search runs /businesses/search restricted to restaurants.
func (c *YelpClient) Search(ctx context.Context, q domain.BusinessQuery) (*domain.BusinessSearch, error) {
	params := url.Values{}
	params.Set("location", q.Location)
	params.Set("categories", "restaurants")
	params.Set("limit", strconv.Itoa(q.Limit))
	if q.Term != "" {
		params.Set("term", q.Term)
	}

	var body struct {
		Businesses []yelpBusiness `json:"businesses"`
		Total      int            `json:"total"`
	}
	if err := c.get(ctx, "/businesses/search?"+params.Encode(), &body); err != nil {
		return nil, err
	}

	out := &domain.BusinessSearch{
		Businesses: make([]domain.Business, 0, len(body.Businesses)),
		Total:      body.Total,
	}
	for _, b := range body.Businesses {
		out.Businesses = append(out.Businesses, b.toDomain())
	}

	c.logger.DebugContext(ctx, "business search completed",
		slog.String("location", q.Location),
		slog.Int("results", len(out.Businesses)),
	)
	return out, nil
}

// Get fetches a single business by its Yelp id or alias.
func (c *YelpClient) Get(ctx context.Context, id string) (*domain.Business, error) {
	var body yelpBusiness
	if err := c.get(ctx, "/businesses/"+url.PathEscape(id), &body); err != nil {
		return nil, err
	}
	b := body.toDomain()
	return &b, nil
}

func (c *YelpClient) get(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("create business search request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return httpclient.TransportError(err, yelpUpstream)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return httpclient.ParseResponseError(resp, yelpUpstream)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode business search response: %w", err)
	}
	return nil
}
