package purchases

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

const maxIDAttempts = 32

// IDGenerator produces candidate identifiers.
type IDGenerator func() string

// NewUUID is the default IDGenerator.
func NewUUID() string {
	return uuid.NewString()
}

type existsFunc func(ctx context.Context, id string) (bool, error)

// uniqueID draws candidates from gen until exists reports a free one.
func uniqueID(ctx context.Context, gen IDGenerator, exists existsFunc) (string, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		candidate := gen()
		if candidate == "" {
			continue
		}
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free id after %d attempts", maxIDAttempts)
}
