package runtime

import (
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-custody/pkg/metrics"
)

// ConfigureLogger forwards the standard logger's output to New Relic via app,
// keeping the JSON layout locally.
func ConfigureLogger(app *newrelic.Application) {
	logrus.StandardLogger().SetFormatter(metrics.NewCustomNewRelicLogFormatter(app, &logrus.JSONFormatter{}))
}
