package service

import (
	"context"
	"fmt"

	"github.com/shawnhank/nomnomlog-sub000/internal/repository"
)

// TagService lists the tags a user has applied.
type TagService struct {
	repo repository.TagRepository
}

// NewTagService creates a new tag service.
func NewTagService(repo repository.TagRepository) *TagService {
	return &TagService{repo: repo}
}

// List returns the user's distinct tags, sorted.
func (s *TagService) List(ctx context.Context, userID string) ([]string, error) {
	tags, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}
