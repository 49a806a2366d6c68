package dbtypes

import (
	"database/sql/driver"
	"fmt"

	"github.com/angelmondragon/supermarket-backend/pkg/itemlist"
)

// ItemList is the ordered list of product names stored in purchases.items_list.
type ItemList []string

func (l *ItemList) Scan(src any) error {
	if src == nil {
		*l = ItemList{}
		return nil
	}

	switch v := src.(type) {
	case string:
		*l = ItemList(itemlist.Split(v))
	case []byte:
		*l = ItemList(itemlist.Split(string(v)))
	default:
		return fmt.Errorf("ItemList: unsupported Scan type %T", src)
	}
	return nil
}

func (l ItemList) Value() (driver.Value, error) {
	return itemlist.Join(l), nil
}
