package analytics

import (
	"context"

	"github.com/angelmondragon/supermarket-backend/internal/analytics/types"
)

type testAnalyticsService struct {
	unique       int64
	loyal        []types.LoyalBuyer
	top          []types.ProductCount
	err          error
	lastMin      int
	lastTopN     int
	summaryCalls int
}

func (s *testAnalyticsService) UniqueBuyerCount(context.Context) (int64, error) {
	return s.unique, s.err
}

func (s *testAnalyticsService) LoyalBuyers(_ context.Context, minPurchases int) ([]types.LoyalBuyer, error) {
	s.lastMin = minPurchases
	return s.loyal, s.err
}

func (s *testAnalyticsService) TopProducts(_ context.Context, topN int) ([]types.ProductCount, error) {
	s.lastTopN = topN
	return s.top, s.err
}

func (s *testAnalyticsService) Summary(_ context.Context, minPurchases, topN int) (*types.Summary, error) {
	s.summaryCalls++
	s.lastMin = minPurchases
	s.lastTopN = topN
	if s.err != nil {
		return nil, s.err
	}
	return &types.Summary{UniqueBuyers: s.unique, LoyalBuyers: s.loyal, TopProducts: s.top}, nil
}
