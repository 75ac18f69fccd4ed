// Package monitoring proxies opaque queries to external monitoring tools.
// Query text is never interpreted here; the persistence core treats it as
// opaque and this package only forwards it.
package monitoring

import (
	"context"
	"encoding/json"
)

// Executor forwards one opaque query to a monitoring tool and returns the
// tool's raw JSON response.
type Executor interface {
	Query(ctx context.Context, query string) (json.RawMessage, error)
}
