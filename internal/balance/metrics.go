package balance

import "expvar"

var (
	metricEventsTotal    = expvar.NewInt("balance_events_total")
	metricBadEventsTotal = expvar.NewInt("balance_bad_events_total")
	metricAttachesTotal  = expvar.NewInt("balance_listener_attaches_total")

	metricOverlaySkippedTotal = expvar.NewInt("balance_overlay_skipped_total")
)
