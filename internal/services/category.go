package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/todoapp/apiserver/internal/apperr"
	"github.com/todoapp/apiserver/internal/store"
	"github.com/todoapp/apiserver/internal/validation"
	"github.com/todoapp/apiserver/types"
)

// CategoryRepository defines persistence operations for categories.
type CategoryRepository interface {
	List(ctx context.Context) ([]types.Category, error)
	Get(ctx context.Context, id string) (types.Category, error)
	Create(ctx context.Context, category types.Category) (types.Category, error)
}

// CategoryService encapsulates category use-cases. Categories are shared by
// every user.
type CategoryService struct {
	repo      CategoryRepository
	validator *validation.Validator
}

func NewCategoryService(repo CategoryRepository, validator *validation.Validator) *CategoryService {
	return &CategoryService{repo: repo, validator: validator}
}

func (s *CategoryService) List(ctx context.Context) ([]types.Category, error) {
	categories, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (s *CategoryService) Get(ctx context.Context, id string) (types.Category, error) {
	category, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Category{}, apperr.NotFound(msgCategoryNotFound)
		}
		return types.Category{}, fmt.Errorf("get category: %w", err)
	}
	return category, nil
}

func (s *CategoryService) Create(ctx context.Context, req types.CategoryCreate) (types.Category, error) {
	if err := s.validator.Struct(apperr.LocBody, req); err != nil {
		return types.Category{}, err
	}

	category, err := s.repo.Create(ctx, types.Category{
		Name:  req.Name,
		Color: req.Color,
	})
	if err != nil {
		return types.Category{}, fmt.Errorf("create category: %w", err)
	}
	return category, nil
}
