package purchases

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/supermarket-backend/internal/catalog"
	"github.com/angelmondragon/supermarket-backend/internal/customers"
	"github.com/angelmondragon/supermarket-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/supermarket-backend/pkg/db/types"
	"github.com/angelmondragon/supermarket-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/supermarket-backend/pkg/errors"
	"github.com/angelmondragon/supermarket-backend/pkg/itemlist"
	"github.com/angelmondragon/supermarket-backend/pkg/logger"
	"github.com/angelmondragon/supermarket-backend/pkg/metrics"
	"github.com/angelmondragon/supermarket-backend/pkg/outbox"
	"github.com/angelmondragon/supermarket-backend/pkg/outbox/payloads"
)

// Service is the cashier-side purchase workflow.
type Service interface {
	CreatePurchase(ctx context.Context, input CreatePurchaseInput) (*CreatePurchaseResult, error)
	ListCustomerIDs(ctx context.Context) ([]string, error)
	ListProducts(ctx context.Context) ([]ProductDTO, error)
}

// CacheInvalidator is told after every committed purchase so cached
// dashboard answers do not outlive the data they were built from.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams wires the workflow. Everything after Catalog is optional.
type ServiceParams struct {
	DB          txRunner
	Purchases   *Repository
	Customers   *customers.Repository
	Catalog     *catalog.Repository
	Outbox      outbox.Emitter
	Invalidator CacheInvalidator
	Metrics     *metrics.PurchaseMetrics
	Logger      *logger.Logger
	IDGenerator IDGenerator
}

type service struct {
	db        txRunner
	purchases *Repository
	customers *customers.Repository
	catalog   *catalog.Repository
	outbox    outbox.Emitter
	invalid   CacheInvalidator
	metrics   *metrics.PurchaseMetrics
	logg      *logger.Logger
	newID     IDGenerator
}

// NewService constructs the purchase workflow.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db client required")
	}
	if params.Purchases == nil {
		return nil, fmt.Errorf("purchase repository required")
	}
	if params.Customers == nil {
		return nil, fmt.Errorf("customer repository required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	gen := params.IDGenerator
	if gen == nil {
		gen = NewUUID
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		db:        params.DB,
		purchases: params.Purchases,
		customers: params.Customers,
		catalog:   params.Catalog,
		outbox:    params.Outbox,
		invalid:   params.Invalidator,
		metrics:   params.Metrics,
		logg:      logg,
		newID:     gen,
	}, nil
}

func (s *service) CreatePurchase(ctx context.Context, input CreatePurchaseInput) (*CreatePurchaseResult, error) {
	result, err := s.createPurchase(ctx, input)
	if err != nil {
		s.metrics.IncFailure(failureReason(err))
		return nil, err
	}

	s.metrics.ObserveCreated(result.IsNewCustomer, result.Purchase.TotalAmount.InexactFloat64())
	logCtx := s.logg.WithCustomerID(s.logg.WithSupermarketID(ctx, result.Purchase.SupermarketID), result.CustomerID)
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"purchase_id":  result.Purchase.ID,
		"new_customer": result.IsNewCustomer,
		"item_count":   len(result.Purchase.Items),
		"total_amount": result.Purchase.TotalAmount.StringFixed(2),
	})
	s.logg.Info(logCtx, "purchase persisted")

	if s.invalid != nil {
		if err := s.invalid.Invalidate(ctx); err != nil {
			s.logg.Warn(s.logg.WithField(logCtx, "error", err.Error()), "analytics cache invalidation failed")
		}
	}
	return result, nil
}

func (s *service) createPurchase(ctx context.Context, input CreatePurchaseInput) (*CreatePurchaseResult, error) {
	supermarketID, items, err := normalizeInput(input)
	if err != nil {
		return nil, err
	}

	var result *CreatePurchaseResult
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		customerRepo := s.customers.WithTx(tx)
		purchaseRepo := s.purchases.WithTx(tx)

		customerID, isNew, err := s.resolveCustomer(ctx, customerRepo, input.CustomerID)
		if err != nil {
			return err
		}

		total, err := s.priceItems(ctx, s.catalog.WithTx(tx), items)
		if err != nil {
			return err
		}

		purchaseID, err := uniqueID(ctx, s.newID, purchaseRepo.Exists)
		if err != nil {
			return storeError(err, "purchase_id")
		}

		row := &models.Purchase{
			ID:            purchaseID,
			SupermarketID: supermarketID,
			CustomerID:    customerID,
			ItemsList:     dbtypes.ItemList(items),
			TotalAmount:   total,
		}
		if err := purchaseRepo.Create(ctx, row); err != nil {
			return storeError(err, "insert_purchase")
		}

		dto := purchaseFromModel(row)
		if err := s.emit(ctx, tx, dto, isNew); err != nil {
			return storeError(err, "outbox")
		}

		result = &CreatePurchaseResult{
			Purchase:      dto,
			CustomerID:    customerID,
			IsNewCustomer: isNew,
		}
		return nil
	})
	if err != nil {
		return nil, storeError(err, "transaction")
	}
	return result, nil
}

func normalizeInput(input CreatePurchaseInput) (string, []string, error) {
	supermarketID := strings.TrimSpace(input.SupermarketID)
	if supermarketID == "" {
		return "", nil, pkgerrors.Validation("supermarket_id is required").
			WithDetails(map[string]any{"field": "supermarket_id"})
	}

	items := make([]string, 0, len(input.Items))
	for _, raw := range input.Items {
		items = append(items, strings.TrimSpace(raw))
	}
	return supermarketID, items, nil
}

func invalidItem(index int) error {
	return pkgerrors.Validation("item names must be non-empty and must not contain commas").
		WithDetails(map[string]any{"field": "items_list", "index": index})
}

func (s *service) resolveCustomer(ctx context.Context, repo *customers.Repository, requested *string) (string, bool, error) {
	if requested != nil {
		if id := strings.TrimSpace(*requested); id != "" {
			exists, err := repo.Exists(ctx, id)
			if err != nil {
				return "", false, storeError(err, "lookup_customer")
			}
			if exists {
				s.logg.Debug(s.logg.WithCustomerID(ctx, id), "existing customer resolved")
				return id, false, nil
			}
			s.logg.Info(s.logg.WithField(ctx, "requested_customer_id", id), "unknown customer id, registering a new customer")
		}
	}

	// unknown and anonymous buyers both get a freshly generated id
	id, err := uniqueID(ctx, s.newID, repo.Exists)
	if err != nil {
		return "", false, storeError(err, "customer_id")
	}
	if err := repo.Create(ctx, &models.Customer{CustomerID: id}); err != nil {
		return "", false, storeError(err, "insert_customer")
	}
	s.logg.Debug(s.logg.WithCustomerID(ctx, id), "customer created")
	return id, true, nil
}

func (s *service) priceItems(ctx context.Context, repo *catalog.Repository, items []string) (decimal.Decimal, error) {
	total := decimal.Zero
	if len(items) == 0 {
		return total, nil
	}

	products, err := repo.FindByNames(ctx, distinct(items))
	if err != nil {
		return total, storeError(err, "lookup_products")
	}
	// items are checked in order so the first bad entry is the one reported
	for i, name := range items {
		if !itemlist.Valid(name) {
			return total, invalidItem(i)
		}
		product, ok := products[name]
		if !ok {
			return total, unknownProduct(name)
		}
		total = total.Add(product.UnitPrice)
	}
	return total, nil
}

func (s *service) emit(ctx context.Context, tx *gorm.DB, purchase PurchaseDTO, newCustomer bool) error {
	if s.outbox == nil {
		return nil
	}
	actor := &outbox.ActorRef{SupermarketID: purchase.SupermarketID, CustomerID: purchase.CustomerID}
	if newCustomer {
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCustomerCreated,
			AggregateType: enums.AggregateCustomer,
			AggregateID:   purchase.CustomerID,
			Actor:         actor,
			Data: payloads.CustomerCreatedEvent{
				CustomerID:    purchase.CustomerID,
				SupermarketID: purchase.SupermarketID,
			},
		}); err != nil {
			return err
		}
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventPurchaseCreated,
		AggregateType: enums.AggregatePurchase,
		AggregateID:   purchase.ID,
		Actor:         actor,
		Data: payloads.PurchaseCreatedEvent{
			PurchaseID:    purchase.ID,
			SupermarketID: purchase.SupermarketID,
			CustomerID:    purchase.CustomerID,
			NewCustomer:   newCustomer,
			Items:         purchase.Items,
			TotalAmount:   purchase.TotalAmount.StringFixed(2),
			CreatedAt:     purchase.CreatedAt,
		},
	})
}

func (s *service) ListCustomerIDs(ctx context.Context) ([]string, error) {
	ids, err := s.customers.ListIDs(ctx)
	if err != nil {
		return nil, storeError(err, "list_customers")
	}
	return ids, nil
}

func (s *service) ListProducts(ctx context.Context) ([]ProductDTO, error) {
	rows, err := s.catalog.List(ctx)
	if err != nil {
		return nil, storeError(err, "list_products")
	}
	out := make([]ProductDTO, 0, len(rows))
	for _, p := range rows {
		out = append(out, ProductDTO{Name: p.ProductName, UnitPrice: p.UnitPrice})
	}
	return out, nil
}

func distinct(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

// IsUnknownProduct reports whether err names a product missing from the catalog.
func IsUnknownProduct(err error) (string, bool) {
	var unknown *UnknownProductError
	if errors.As(err, &unknown) {
		return unknown.Name, true
	}
	return "", false
}
