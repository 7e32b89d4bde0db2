package metrics

import (
	"context"

	"github.com/newrelic/go-agent/v3/newrelic"
)

type newRelicContextKey struct{}

// NewRelicContextKey is the context key holding the *newrelic.Application used
// by the Record* helpers.
var NewRelicContextKey = newRelicContextKey{}

// NewContext returns a copy of ctx that reports custom metrics and events to
// app. If a transaction is provided, method calls are traced within it.
func NewContext(ctx context.Context, app *newrelic.Application, txn *newrelic.Transaction) context.Context {
	ctx = context.WithValue(ctx, NewRelicContextKey, app)
	if txn != nil {
		ctx = newrelic.NewContext(ctx, txn)
	}
	return ctx
}
