package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/dfcarvalho/radiostock-backend/pkg/db/models"
	pkgerrors "github.com/dfcarvalho/radiostock-backend/pkg/errors"
)

// Service exposes the radio model catalog.
type Service interface {
	Create(ctx context.Context, name, actor string) (*models.RadioModel, error)
	List(ctx context.Context) ([]models.RadioModel, error)
	Exists(ctx context.Context, name string) (bool, error)
}

type service struct {
	repo Repository
}

// NewService wires a catalog service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

// Create registers a new radio model. Names are stored uppercase so lookups
// are case-insensitive.
func (s *service) Create(ctx context.Context, name, actor string) (*models.RadioModel, error) {
	normalized := NormalizeName(name)
	if normalized == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "model name is required")
	}
	if strings.TrimSpace(actor) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor is required")
	}

	exists, err := s.repo.ExistsByName(ctx, normalized)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check model name")
	}
	if exists {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "model already registered").
			WithDetails(map[string]any{"name": normalized})
	}

	model := &models.RadioModel{
		Name:      normalized,
		CreatedBy: actor,
	}
	if err := s.repo.Create(ctx, model); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create model")
	}
	return model, nil
}

func (s *service) List(ctx context.Context) ([]models.RadioModel, error) {
	return s.repo.List(ctx)
}

// Exists reports whether the named model is in the catalog.
func (s *service) Exists(ctx context.Context, name string) (bool, error) {
	normalized := NormalizeName(name)
	if normalized == "" {
		return false, nil
	}
	return s.repo.ExistsByName(ctx, normalized)
}

// NormalizeName uppercases and trims a model name for storage and lookup.
func NormalizeName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
