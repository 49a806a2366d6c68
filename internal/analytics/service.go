package analytics

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/supermarket-backend/internal/analytics/types"
	pkgerrors "github.com/angelmondragon/supermarket-backend/pkg/errors"
	"github.com/angelmondragon/supermarket-backend/pkg/logger"
)

// Service provides the owner dashboard aggregates over the purchase ledger.
type Service interface {
	UniqueBuyerCount(ctx context.Context) (int64, error)
	LoyalBuyers(ctx context.Context, minPurchases int) ([]types.LoyalBuyer, error)
	TopProducts(ctx context.Context, topN int) ([]types.ProductCount, error)
	Summary(ctx context.Context, minPurchases, topN int) (*types.Summary, error)
}

type service struct {
	reader Reader
	logg   *logger.Logger
}

// NewService builds the analytics engine on top of reader.
func NewService(reader Reader, logg *logger.Logger) (Service, error) {
	if reader == nil {
		return nil, fmt.Errorf("analytics reader required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{reader: reader, logg: logg}, nil
}

func (s *service) UniqueBuyerCount(ctx context.Context) (int64, error) {
	count, err := s.reader.UniqueBuyerCount(ctx)
	if err != nil {
		return 0, storeError(err, "unique_buyers")
	}
	s.logg.Info(s.logg.WithField(ctx, "unique_buyers", count), "unique buyers calculated")
	return count, nil
}

func (s *service) LoyalBuyers(ctx context.Context, minPurchases int) ([]types.LoyalBuyer, error) {
	if minPurchases < 1 {
		return nil, pkgerrors.Validation("min_purchases must be at least 1").
			WithDetails(map[string]any{"field": "min_purchases"})
	}
	rows, err := s.reader.LoyalBuyerRows(ctx, minPurchases)
	if err != nil {
		return nil, storeError(err, "loyal_buyers")
	}
	out := make([]types.LoyalBuyer, 0, len(rows))
	for _, row := range rows {
		out = append(out, types.LoyalBuyer{CustomerID: row.CustomerID, Purchases: row.PurchaseCount})
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"min_purchases": minPurchases,
		"loyal_buyers":  len(out),
	}), "loyal buyers calculated")
	return out, nil
}

func (s *service) TopProducts(ctx context.Context, topN int) ([]types.ProductCount, error) {
	if topN < 1 {
		return nil, pkgerrors.Validation("top_n must be at least 1").
			WithDetails(map[string]any{"field": "top_n"})
	}
	counts := map[string]int64{}
	err := s.reader.EachItemList(ctx, func(items []string) {
		for _, item := range items {
			counts[item]++
		}
	})
	if err != nil {
		return nil, storeError(err, "top_products")
	}
	out := rankProducts(counts, topN)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"top_n":        topN,
		"distinct":     len(counts),
		"top_products": len(out),
	}), "top products calculated")
	return out, nil
}

func (s *service) Summary(ctx context.Context, minPurchases, topN int) (*types.Summary, error) {
	return buildSummary(ctx, s, minPurchases, topN)
}

// buildSummary evaluates the three aggregates of svc concurrently.
func buildSummary(ctx context.Context, svc Service, minPurchases, topN int) (*types.Summary, error) {
	var summary types.Summary
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		count, err := svc.UniqueBuyerCount(gctx)
		summary.UniqueBuyers = count
		return err
	})
	g.Go(func() error {
		buyers, err := svc.LoyalBuyers(gctx, minPurchases)
		summary.LoyalBuyers = buyers
		return err
	})
	g.Go(func() error {
		products, err := svc.TopProducts(gctx, topN)
		summary.TopProducts = products
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &summary, nil
}

func storeError(err error, query string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return pkgerrors.Dependency(err, "analytics store unavailable").
		WithDetails(map[string]any{"query": query})
}
