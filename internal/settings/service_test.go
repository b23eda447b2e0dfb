package settings

import (
	"context"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/docengine"
)

type memRepo struct {
	values map[string]string
	reads  int
}

func (m *memRepo) Get(ctx context.Context, key string) (string, error) {
	m.reads++
	v, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *memRepo) Set(ctx context.Context, key, value string) error {
	if m.values == nil {
		m.values = map[string]string{}
	}
	m.values[key] = value
	return nil
}

func newTestService(t *testing.T, repo *memRepo) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewService(repo, client, slog.Default())
}

func TestRoundingPolicyDefaults(t *testing.T) {
	svc := newTestService(t, &memRepo{})

	pol, err := svc.RoundingPolicy(context.Background())
	require.NoError(t, err)
	require.Equal(t, docengine.NoRounding, pol.Method)
	require.True(t, pol.Precision.Equal(decimal.NewFromFloat(0.01)))
}

func TestRoundingPolicyConfigured(t *testing.T) {
	repo := &memRepo{values: map[string]string{
		keyRoundingMethod:    "up",
		keyRoundingPrecision: "0.05",
	}}
	svc := newTestService(t, repo)

	pol, err := svc.RoundingPolicy(context.Background())
	require.NoError(t, err)
	require.Equal(t, docengine.RoundUp, pol.Method)
	require.True(t, pol.Precision.Equal(decimal.NewFromFloat(0.05)))
}

func TestRoundingPolicyCached(t *testing.T) {
	repo := &memRepo{values: map[string]string{
		keyRoundingMethod:    "nearest",
		keyRoundingPrecision: "1",
	}}
	svc := newTestService(t, repo)

	_, err := svc.RoundingPolicy(context.Background())
	require.NoError(t, err)
	readsAfterFirst := repo.reads

	pol, err := svc.RoundingPolicy(context.Background())
	require.NoError(t, err)
	require.Equal(t, readsAfterFirst, repo.reads, "second read served from cache")
	require.Equal(t, docengine.RoundNearest, pol.Method)
}

func TestUpdateRoundingInvalidatesCache(t *testing.T) {
	repo := &memRepo{}
	svc := newTestService(t, repo)

	_, err := svc.RoundingPolicy(context.Background())
	require.NoError(t, err)

	require.NoError(t, svc.UpdateRounding(context.Background(), "down", "0.25"))

	pol, err := svc.RoundingPolicy(context.Background())
	require.NoError(t, err)
	require.Equal(t, docengine.RoundDown, pol.Method)
	require.True(t, pol.Precision.Equal(decimal.NewFromFloat(0.25)))
}

func TestUpdateRoundingRejectsBadInput(t *testing.T) {
	svc := newTestService(t, &memRepo{})

	require.Error(t, svc.UpdateRounding(context.Background(), "sideways", "0.01"))
	require.Error(t, svc.UpdateRounding(context.Background(), "up", "0"))
	require.Error(t, svc.UpdateRounding(context.Background(), "up", "-1"))
}
