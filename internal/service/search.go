package service

import (
	"context"
	"strings"

	"github.com/shawnhank/nomnomlog-sub000/internal/domain"
	apperrors "github.com/shawnhank/nomnomlog-sub000/pkg/errors"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 50
)

// BusinessDirectory is the external business search API.
type BusinessDirectory interface {
	Search(ctx context.Context, q domain.BusinessQuery) (*domain.BusinessSearch, error)
	Get(ctx context.Context, id string) (*domain.Business, error)
}

// SearchService looks up restaurants in the external directory.
type SearchService struct {
	directory BusinessDirectory
}

// NewSearchService creates a new search service.
func NewSearchService(directory BusinessDirectory) *SearchService {
	return &SearchService{directory: directory}
}

// Search validates q and passes it to the directory.
func (s *SearchService) Search(ctx context.Context, q domain.BusinessQuery) (*domain.BusinessSearch, error) {
	q.Term = strings.TrimSpace(q.Term)
	q.Location = strings.TrimSpace(q.Location)
	if q.Location == "" {
		return nil, apperrors.InvalidInput("location is required")
	}
	switch {
	case q.Limit <= 0:
		q.Limit = defaultSearchLimit
	case q.Limit > maxSearchLimit:
		q.Limit = maxSearchLimit
	}
	return s.directory.Search(ctx, q)
}

// Get returns one business by its directory id.
func (s *SearchService) Get(ctx context.Context, id string) (*domain.Business, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperrors.InvalidInput("business id is required")
	}
	return s.directory.Get(ctx, id)
}
