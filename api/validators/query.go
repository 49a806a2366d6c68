package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/supermarket-backend/pkg/errors"
)

// IntParam describes a bounded integer query parameter.
type IntParam struct {
	Key     string
	Default int
	Min     int
	Max     int
}

// Parse returns Default when the parameter is absent or blank. Repeated,
// non-numeric or out-of-range values are validation errors.
func (p IntParam) Parse(r *http.Request) (int, error) {
	values := r.URL.Query()[p.Key]
	if len(values) > 1 {
		return 0, p.invalid("query parameter must be given once", nil)
	}
	raw := ""
	if len(values) == 1 {
		raw = strings.TrimSpace(values[0])
	}
	if raw == "" {
		return p.Default, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, p.invalid("query parameter must be numeric", err)
	}
	if value < p.Min || value > p.Max {
		return 0, p.invalid("query parameter out of range", nil)
	}
	return value, nil
}

func (p IntParam) invalid(msg string, cause error) *pkgerrors.Error {
	details := map[string]any{"field": p.Key, "min": p.Min, "max": p.Max}
	if cause != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, cause, msg).WithDetails(details)
	}
	return pkgerrors.New(pkgerrors.CodeValidation, msg).WithDetails(details)
}
