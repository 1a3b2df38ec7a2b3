package metrics

import (
	"context"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
)

type contextKey struct{}

// NewRelicContextKey is the context key holding the *newrelic.Application
// that metrics and events are reported to.
var NewRelicContextKey = contextKey{}

// NewContext returns a copy of ctx that reports metrics to app.
func NewContext(ctx context.Context, app *newrelic.Application) context.Context {
	return context.WithValue(ctx, NewRelicContextKey, app)
}

// RecordCount records a count metric.
func RecordCount(ctx context.Context, metricName string, count uint64) {
	if app := fromContext(ctx); app != nil {
		app.RecordCustomMetric(metricName, float64(count))
	}
}

// RecordDuration records a duration metric in milliseconds.
func RecordDuration(ctx context.Context, metricName string, duration time.Duration) {
	if app := fromContext(ctx); app != nil {
		app.RecordCustomMetric(metricName, float64(duration.Milliseconds()))
	}
}

// RecordEvent records a custom event with the provided attributes.
func RecordEvent(ctx context.Context, eventName string, attributes map[string]interface{}) {
	if app := fromContext(ctx); app != nil {
		app.RecordCustomEvent(eventName, attributes)
	}
}

func fromContext(ctx context.Context) *newrelic.Application {
	app, _ := ctx.Value(NewRelicContextKey).(*newrelic.Application)
	return app
}
