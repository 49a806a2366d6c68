package seed

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/angelmondragon/supermarket-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/supermarket-backend/pkg/db/types"
	"github.com/angelmondragon/supermarket-backend/pkg/itemlist"
)

const (
	ProductsFile  = "products_list.csv"
	PurchasesFile = "purchases.csv"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

type table struct {
	header map[string]int
	rows   [][]string
}

func (t table) value(row []string, column string) string {
	idx, ok := t.header[column]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func (t table) require(columns ...string) error {
	var missing []string
	for _, col := range columns {
		if _, ok := t.header[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

func readTable(r io.Reader) (table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return table{}, err
	}
	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return table{}, err
	}
	if len(records) == 0 {
		return table{}, errors.New("empty csv: header row required")
	}
	header := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		header[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return table{header: header, rows: records[1:]}, nil
}

// ParseProducts reads product_name,unit_price rows.
func ParseProducts(r io.Reader) ([]models.Product, error) {
	t, err := readTable(r)
	if err != nil {
		return nil, err
	}
	if err := t.require("product_name", "unit_price"); err != nil {
		return nil, err
	}

	var errs error
	products := make([]models.Product, 0, len(t.rows))
	for i, row := range t.rows {
		line := i + 2
		name := t.value(row, "product_name")
		if !itemlist.Valid(name) {
			errs = multierr.Append(errs, fmt.Errorf("line %d: invalid product name %q", line, name))
			continue
		}
		price, err := decimal.NewFromString(t.value(row, "unit_price"))
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("line %d: unit_price: %w", line, err))
			continue
		}
		if price.IsNegative() {
			errs = multierr.Append(errs, fmt.Errorf("line %d: unit_price must not be negative", line))
			continue
		}
		products = append(products, models.Product{ProductName: name, UnitPrice: price})
	}
	if errs != nil {
		return nil, errs
	}
	return products, nil
}

// ParsePurchases reads supermarket_id,timestamp,user_id,items_list,total_amount
// rows. Purchases without an id column are numbered by row position starting
// at zero.
func ParsePurchases(r io.Reader) ([]models.Purchase, error) {
	t, err := readTable(r)
	if err != nil {
		return nil, err
	}
	if err := t.require("supermarket_id", "user_id", "items_list", "total_amount"); err != nil {
		return nil, err
	}

	var errs error
	purchases := make([]models.Purchase, 0, len(t.rows))
	for i, row := range t.rows {
		line := i + 2
		id := t.value(row, "id")
		if id == "" {
			id = strconv.Itoa(i)
		}
		purchase := models.Purchase{
			ID:            id,
			SupermarketID: t.value(row, "supermarket_id"),
			CustomerID:    t.value(row, "user_id"),
			ItemsList:     dbtypes.ItemList(itemlist.Split(t.value(row, "items_list"))),
		}
		if purchase.SupermarketID == "" || purchase.CustomerID == "" {
			errs = multierr.Append(errs, fmt.Errorf("line %d: supermarket_id and user_id are required", line))
			continue
		}
		total, err := decimal.NewFromString(t.value(row, "total_amount"))
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("line %d: total_amount: %w", line, err))
			continue
		}
		purchase.TotalAmount = total
		if ts := t.value(row, "timestamp"); ts != "" {
			parsed, err := parseTimestamp(ts)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("line %d: %w", line, err))
				continue
			}
			purchase.CreatedAt = parsed
		}
		purchases = append(purchases, purchase)
	}
	if errs != nil {
		return nil, errs
	}
	return purchases, nil
}

func parseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", value)
}
