// Package metrics documents the Prometheus metrics exposed by the updater.
// The metrics themselves are defined next to the code they observe (fetch,
// pricing) and registered via promauto on the default registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the registerer all updater metrics attach to.
var Registry = prometheus.DefaultRegisterer

// Metric reference
//
// HTTP (pkg/fetch):
//   - updater_http_requests_total{status} (Counter): upstream requests by
//     HTTP status, plus "network_error" for transport failures
//   - updater_http_request_duration_seconds{host} (Histogram): per-call
//     duration by upstream host
//   - updater_http_retries_total{class} (Counter): retry attempts by error
//     class (transient, not_found, other)
//   - updater_http_retry_exhausted_total{class} (Counter): requests that
//     burned the full attempt ceiling
//
// Resolution (pkg/pricing):
//   - updater_items_priced_total (Counter): items resolved to a price
//   - updater_items_missing_total (Counter): items left unpriced
//   - updater_slug_fallbacks_total (Counter): items priced through a
//     non-primary slug candidate
//
// Example queries:
//
//	# share of requests that needed a retry
//	rate(updater_http_retries_total[5m]) / rate(updater_http_requests_total[5m])
//
//	# missing ratio of the current run
//	updater_items_missing_total / (updater_items_priced_total + updater_items_missing_total)
