// Package seed loads the product catalog and historical purchases from CSV
// exports into an empty (or reset) store.
package seed

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/supermarket-backend/internal/catalog"
	"github.com/angelmondragon/supermarket-backend/internal/customers"
	"github.com/angelmondragon/supermarket-backend/internal/purchases"
	"github.com/angelmondragon/supermarket-backend/pkg/db/models"
	"github.com/angelmondragon/supermarket-backend/pkg/logger"
	"github.com/angelmondragon/supermarket-backend/pkg/metrics"
)

const (
	jobName         = "seed"
	importBatchSize = 500
)

// resetOrder deletes children before parents.
var resetOrder = []string{"outbox_events", "purchases", "customers", "products"}

type pinger interface {
	Ping(ctx context.Context) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Options controls a seed run.
type Options struct {
	DataDir string
	Reset   bool
}

// Result summarises what a run imported.
type Result struct {
	Products  int
	Customers int
	Purchases int
}

// Seeder imports CSV exports in a single transaction.
type Seeder struct {
	db        txRunner
	catalog   *catalog.Repository
	customers *customers.Repository
	purchases *purchases.Repository
	metrics   *metrics.JobMetrics
	logg      *logger.Logger
}

// NewSeeder wires a Seeder. metrics and logg may be nil.
func NewSeeder(db txRunner, catalogRepo *catalog.Repository, customerRepo *customers.Repository, purchaseRepo *purchases.Repository, m *metrics.JobMetrics, logg *logger.Logger) (*Seeder, error) {
	if db == nil || catalogRepo == nil || customerRepo == nil || purchaseRepo == nil {
		return nil, fmt.Errorf("seed dependencies required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Seeder{
		db:        db,
		catalog:   catalogRepo,
		customers: customerRepo,
		purchases: purchaseRepo,
		metrics:   m,
		logg:      logg,
	}, nil
}

// WaitForDatabase pings until the store answers, giving up after retries
// further attempts spaced delay apart.
func WaitForDatabase(ctx context.Context, db pinger, retries uint64, delay time.Duration, logg *logger.Logger) error {
	if logg == nil {
		logg = logger.Nop()
	}
	attempt := 0
	backoff := retry.WithMaxRetries(retries, retry.NewConstant(delay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := db.Ping(ctx); err != nil {
			logg.Warn(logg.WithFields(ctx, map[string]any{
				"attempt": attempt,
				"error":   err.Error(),
			}), "database not ready yet")
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("database not available after %d attempts: %w", attempt, err)
	}
	logg.Info(ctx, "database is ready")
	return nil
}

// Run loads products and purchases from opts.DataDir.
func (s *Seeder) Run(ctx context.Context, opts Options) (result *Result, err error) {
	done := s.metrics.Time(jobName)
	defer func() { done(err) }()

	products, err := parseFile(filepath.Join(opts.DataDir, ProductsFile), ParseProducts)
	if err != nil {
		return nil, err
	}
	history, err := parseFile(filepath.Join(opts.DataDir, PurchasesFile), ParsePurchases)
	if err != nil {
		return nil, err
	}
	customerIDs := distinctCustomers(history)

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if opts.Reset {
			for _, table := range resetOrder {
				if err := tx.WithContext(ctx).Exec("DELETE FROM " + table).Error; err != nil {
					return fmt.Errorf("reset %s: %w", table, err)
				}
			}
			s.logg.Info(ctx, "existing data removed")
		}
		if err := s.catalog.WithTx(tx).Upsert(ctx, products); err != nil {
			return fmt.Errorf("import products: %w", err)
		}
		if err := s.customers.WithTx(tx).EnsureIDs(ctx, customerIDs); err != nil {
			return fmt.Errorf("import customers: %w", err)
		}
		if err := s.purchases.WithTx(tx).Import(ctx, history, importBatchSize); err != nil {
			return fmt.Errorf("import purchases: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result = &Result{Products: len(products), Customers: len(customerIDs), Purchases: len(history)}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"products":  result.Products,
		"customers": result.Customers,
		"purchases": result.Purchases,
	}), "seed complete")
	return result, nil
}

func parseFile[T any](path string, parse func(io.Reader) ([]T, error)) (rows []T, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()

	rows, err = parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return rows, nil
}

func distinctCustomers(rows []models.Purchase) []string {
	seen := make(map[string]struct{}, len(rows))
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		if _, ok := seen[row.CustomerID]; ok {
			continue
		}
		seen[row.CustomerID] = struct{}{}
		ids = append(ids, row.CustomerID)
	}
	return ids
}
