package analytics

import (
	"net/http"

	"github.com/angelmondragon/supermarket-backend/api/validators"
)

const maxQueryValue = 10000

// Defaults holds the query values used when the dashboard omits them.
type Defaults struct {
	MinPurchases int
	TopN         int
}

func (d Defaults) withFallbacks() Defaults {
	if d.MinPurchases < 1 {
		d.MinPurchases = 3
	}
	if d.TopN < 1 {
		d.TopN = 3
	}
	return d
}

func minPurchasesParam(r *http.Request, d Defaults) (int, error) {
	return validators.IntParam{Key: "min_purchases", Default: d.MinPurchases, Min: 1, Max: maxQueryValue}.Parse(r)
}

func topNParam(r *http.Request, d Defaults) (int, error) {
	return validators.IntParam{Key: "top_n", Default: d.TopN, Min: 1, Max: maxQueryValue}.Parse(r)
}
