package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/docengine"
)

const (
	keyRoundingMethod    = "rounding_method"
	keyRoundingPrecision = "rounding_precision"

	cacheKeyRounding = "settings:rounding"
	cacheTTL         = 5 * time.Minute
)

// Service reads and writes installation settings. Reads go through redis
// with a short TTL; documents are edited far more often than settings change.
type Service struct {
	repo   Repository
	cache  *redis.Client
	logger *slog.Logger
}

func NewService(repo Repository, cache *redis.Client, logger *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, logger: logger}
}

// RoundingPolicy resolves the grand-total rounding policy. Missing rows fall
// back to the defaults rather than erroring; a fresh installation has no
// settings rows at all.
func (s *Service) RoundingPolicy(ctx context.Context) (docengine.RoundingPolicy, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKeyRounding).Result(); err == nil {
			if pol, ok := parseCached(cached); ok {
				return pol, nil
			}
		}
	}

	pol := docengine.DefaultRoundingPolicy()

	method, err := s.repo.Get(ctx, keyRoundingMethod)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return docengine.RoundingPolicy{}, fmt.Errorf("settings: read rounding method: %w", err)
	}
	if method != "" {
		pol.Method = docengine.RoundingMethod(method)
	}

	precision, err := s.repo.Get(ctx, keyRoundingPrecision)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return docengine.RoundingPolicy{}, fmt.Errorf("settings: read rounding precision: %w", err)
	}
	if precision != "" {
		d, err := decimal.NewFromString(precision)
		if err == nil && d.IsPositive() {
			pol.Precision = d
		}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKeyRounding, encodeCached(pol), cacheTTL).Err(); err != nil {
			s.logger.Warn("cache rounding policy", slog.Any("error", err))
		}
	}
	return pol, nil
}

// UpdateRounding validates and persists the policy, then drops the cache so
// the next document read sees the new values.
func (s *Service) UpdateRounding(ctx context.Context, method string, precision string) error {
	switch docengine.RoundingMethod(method) {
	case docengine.NoRounding, docengine.RoundNearest, docengine.RoundUp, docengine.RoundDown:
	default:
		return fmt.Errorf("settings: unknown rounding method %q", method)
	}
	d, err := decimal.NewFromString(precision)
	if err != nil || !d.IsPositive() {
		return fmt.Errorf("settings: rounding precision must be a positive number")
	}

	if err := s.repo.Set(ctx, keyRoundingMethod, method); err != nil {
		return err
	}
	if err := s.repo.Set(ctx, keyRoundingPrecision, precision); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Del(ctx, cacheKeyRounding).Err(); err != nil {
			s.logger.Warn("invalidate rounding cache", slog.Any("error", err))
		}
	}
	return nil
}

func encodeCached(pol docengine.RoundingPolicy) string {
	return string(pol.Method) + "|" + pol.Precision.String()
}

func parseCached(v string) (docengine.RoundingPolicy, bool) {
	for i := 0; i < len(v); i++ {
		if v[i] == '|' {
			d, err := decimal.NewFromString(v[i+1:])
			if err != nil || !d.IsPositive() {
				return docengine.RoundingPolicy{}, false
			}
			return docengine.RoundingPolicy{Method: docengine.RoundingMethod(v[:i]), Precision: d}, true
		}
	}
	return docengine.RoundingPolicy{}, false
}
