package models

import "github.com/shopspring/decimal"

// Product is a catalog entry keyed by its unique name.
type Product struct {
	ProductName string          `gorm:"column:product_name;primaryKey"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(10,2);not null"`
}

func (Product) TableName() string { return "products" }
