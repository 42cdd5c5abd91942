// README: Optional New Relic application.
package infra

import (
	"github.com/newrelic/go-agent/v3/newrelic"
)

// NewNewRelic returns nil without error when telemetry is disabled or unlicensed.
func NewNewRelic(enabled bool, appName, licenseKey string) (*newrelic.Application, error) {
	if !enabled || licenseKey == "" {
		return nil, nil
	}
	return newrelic.NewApplication(
		newrelic.ConfigAppName(appName),
		newrelic.ConfigLicense(licenseKey),
		newrelic.ConfigDistributedTracerEnabled(true),
		newrelic.ConfigAppLogForwardingEnabled(true),
	)
}
