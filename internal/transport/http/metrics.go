package httptransport

import "expvar"

var (
	metricStatusRequestsTotal = expvar.NewInt("status_requests_total")
	metricControlTotal        = expvar.NewInt("control_requests_total")
	metricControlErrors       = expvar.NewInt("control_errors_total")
)
