// Package knowledge looks up background information for resource requests.
package knowledge

import (
	"context"
	"errors"
)

// ErrNoResult is returned when a source has nothing for the query.
var ErrNoResult = errors.New("knowledge: no result")

// Fetcher retrieves raw knowledge for a query.
type Fetcher interface {
	Fetch(ctx context.Context, query string) (string, error)
	// Origin tags resources produced from this source.
	Origin() string
}
