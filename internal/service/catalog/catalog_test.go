package catalog

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawcare/vetclinic_backend/internal/repo"
	"github.com/pawcare/vetclinic_backend/internal/repo/memory"
)

func TestListServices(t *testing.T) {
	svc := New(memory.New())

	got, err := svc.ListServices(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 6)
	assert.Equal(t, "Pet Grooming", got[0].Name)
}

func TestListLabTests(t *testing.T) {
	svc := New(memory.New())

	got, err := svc.ListLabTests(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 7)
	assert.Equal(t, "Complete Blood Count", got[0].Name)
	assert.True(t, got[0].Price.Equal(decimal.NewFromInt(650)), got[0].Price.String())
}

func TestListProducts(t *testing.T) {
	svc := New(memory.New())
	ctx := context.Background()

	all, err := svc.ListProducts(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 6)

	vaccines, err := svc.ListProducts(ctx, "vaccine")
	require.NoError(t, err)
	require.Len(t, vaccines, 3)
	for _, p := range vaccines {
		assert.Equal(t, repo.KindVaccine, p.Kind)
	}

	_, err = svc.ListProducts(ctx, "toy")
	assert.ErrorIs(t, err, ErrUnknownKind)
}
