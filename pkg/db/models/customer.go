package models

import "time"

// Customer is a buyer identity. Rows are created implicitly by purchases.
type Customer struct {
	CustomerID  string    `gorm:"column:customer_id;primaryKey"`
	DisplayName *string   `gorm:"column:display_name"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Customer) TableName() string { return "customers" }
