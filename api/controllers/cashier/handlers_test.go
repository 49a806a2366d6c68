package cashier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/supermarket-backend/internal/purchases"
	pkgerrors "github.com/angelmondragon/supermarket-backend/pkg/errors"
	"github.com/angelmondragon/supermarket-backend/pkg/logger"
)

type fakePurchaseService struct {
	lastInput purchases.CreatePurchaseInput
	result    *purchases.CreatePurchaseResult
	ids       []string
	products  []purchases.ProductDTO
	err       error
}

func (f *fakePurchaseService) CreatePurchase(_ context.Context, input purchases.CreatePurchaseInput) (*purchases.CreatePurchaseResult, error) {
	f.lastInput = input
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakePurchaseService) ListCustomerIDs(context.Context) ([]string, error) {
	return f.ids, f.err
}

func (f *fakePurchaseService) ListProducts(context.Context) ([]purchases.ProductDTO, error) {
	return f.products, f.err
}

func decodeData(t *testing.T, resp *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	return envelope.Data
}

func TestCreatePurchase(t *testing.T) {
	svc := &fakePurchaseService{result: &purchases.CreatePurchaseResult{
		Purchase:      purchases.PurchaseDTO{ID: "p-1", TotalAmount: decimal.RequireFromString("3.75")},
		CustomerID:    "cust-9",
		IsNewCustomer: true,
	}}
	body := `{"supermarket_id":"SMKT001","user_id":"cust-1","items_list":["milk","bread"]}`

	resp := httptest.NewRecorder()
	CreatePurchase(svc, logger.Nop())(resp, httptest.NewRequest(http.MethodPost, "/api/v1/purchases", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, resp.Code)
	data := decodeData(t, resp)
	assert.Equal(t, "p-1", data["purchase_id"])
	assert.Equal(t, "cust-9", data["user_id"])
	assert.Equal(t, true, data["is_new"])
	assert.Equal(t, 3.75, data["total_amount"])

	assert.Equal(t, "SMKT001", svc.lastInput.SupermarketID)
	require.NotNil(t, svc.lastInput.CustomerID)
	assert.Equal(t, "cust-1", *svc.lastInput.CustomerID)
	assert.Equal(t, []string{"milk", "bread"}, svc.lastInput.Items)
}

func TestCreatePurchaseWithoutUser(t *testing.T) {
	svc := &fakePurchaseService{result: &purchases.CreatePurchaseResult{CustomerID: "new"}}
	resp := httptest.NewRecorder()
	CreatePurchase(svc, logger.Nop())(resp, httptest.NewRequest(http.MethodPost, "/api/v1/purchases",
		strings.NewReader(`{"supermarket_id":"S1","items_list":[]}`)))

	require.Equal(t, http.StatusCreated, resp.Code)
	assert.Nil(t, svc.lastInput.CustomerID)
	assert.Empty(t, svc.lastInput.Items)
}

func TestCreatePurchaseRejectsInvalidBody(t *testing.T) {
	bodies := []string{
		`{"items_list":["milk"]}`,
		`{"supermarket_id":"S1"}`,
		`{"supermarket_id":"S1","items_list":["milk,bread"]}`,
		`not json`,
	}
	for _, body := range bodies {
		svc := &fakePurchaseService{}
		resp := httptest.NewRecorder()
		CreatePurchase(svc, logger.Nop())(resp, httptest.NewRequest(http.MethodPost, "/api/v1/purchases", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, resp.Code, body)
		assert.Empty(t, svc.lastInput.SupermarketID, body)
	}
}

func TestCreatePurchaseUnknownProduct(t *testing.T) {
	svc := &fakePurchaseService{err: pkgerrors.New(pkgerrors.CodeValidation, "unknown product: caviar").
		WithDetails(map[string]any{"product": "caviar"})}
	resp := httptest.NewRecorder()
	CreatePurchase(svc, logger.Nop())(resp, httptest.NewRequest(http.MethodPost, "/api/v1/purchases",
		strings.NewReader(`{"supermarket_id":"S1","items_list":["caviar"]}`)))

	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "unknown product: caviar")
}

func TestCreatePurchaseStoreDown(t *testing.T) {
	svc := &fakePurchaseService{err: pkgerrors.Dependency(errors.New("refused"), "purchase store unavailable")}
	resp := httptest.NewRecorder()
	CreatePurchase(svc, logger.Nop())(resp, httptest.NewRequest(http.MethodPost, "/api/v1/purchases",
		strings.NewReader(`{"supermarket_id":"S1","items_list":["milk"]}`)))

	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
}

func TestListCustomers(t *testing.T) {
	svc := &fakePurchaseService{ids: []string{"a", "b"}}
	resp := httptest.NewRecorder()
	ListCustomers(svc, logger.Nop())(resp, httptest.NewRequest(http.MethodGet, "/api/v1/customers", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, []any{"a", "b"}, decodeData(t, resp)["customers"])
}

func TestListProducts(t *testing.T) {
	svc := &fakePurchaseService{products: []purchases.ProductDTO{
		{Name: "milk", UnitPrice: decimal.RequireFromString("1.25")},
	}}
	resp := httptest.NewRecorder()
	ListProducts(svc, logger.Nop())(resp, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))

	require.Equal(t, http.StatusOK, resp.Code)
	products := decodeData(t, resp)["products"].([]any)
	require.Len(t, products, 1)
	assert.Equal(t, map[string]any{"name": "milk", "price": 1.25}, products[0])
}

func TestNilServiceIsInternalError(t *testing.T) {
	resp := httptest.NewRecorder()
	ListProducts(nil, logger.Nop())(resp, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
}
