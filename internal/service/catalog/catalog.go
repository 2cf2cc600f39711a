// Package catalog exposes the read-only clinic catalog: bookable services,
// lab tests and inventory products.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/pawcare/vetclinic_backend/internal/repo"
)

var ErrUnknownKind = errors.New("unknown product kind")

type Service interface {
	ListServices(ctx context.Context) ([]repo.Service, error)
	ListLabTests(ctx context.Context) ([]repo.LabTest, error)
	// ListProducts returns every product, or only those of kind when it is
	// non-empty.
	ListProducts(ctx context.Context, kind string) ([]repo.Product, error)
}

type catalogService struct {
	store repo.Queries
}

func New(store repo.Queries) Service {
	return &catalogService{store: store}
}

func (s *catalogService) ListServices(ctx context.Context) ([]repo.Service, error) {
	out, err := s.store.ListServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	return out, nil
}

func (s *catalogService) ListLabTests(ctx context.Context) ([]repo.LabTest, error) {
	out, err := s.store.ListLabTests(ctx)
	if err != nil {
		return nil, fmt.Errorf("list lab tests: %w", err)
	}
	return out, nil
}

func (s *catalogService) ListProducts(ctx context.Context, kind string) ([]repo.Product, error) {
	var filter *repo.ProductKind
	if kind != "" {
		k := repo.ProductKind(kind)
		switch k {
		case repo.KindVaccine, repo.KindMedicine, repo.KindSupply:
		default:
			return nil, ErrUnknownKind
		}
		filter = &k
	}

	out, err := s.store.ListProducts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return out, nil
}
