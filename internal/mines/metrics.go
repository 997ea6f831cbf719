package mines

import "expvar"

var (
	metricActionsTotal       = expvar.NewInt("mines_actions_total")
	metricGateRejectedTotal  = expvar.NewInt("mines_gate_rejected_total")
	metricValidationTotal    = expvar.NewInt("mines_validation_errors_total")
	metricRejectedTotal      = expvar.NewInt("mines_rejected_total")
	metricTransportErrTotal  = expvar.NewInt("mines_transport_errors_total")
	metricProtocolViolations = expvar.NewInt("mines_protocol_violations_total")
	metricDiscardedTotal     = expvar.NewInt("mines_responses_discarded_total")
	metricRoundsWonTotal     = expvar.NewInt("mines_rounds_won_total")
	metricRoundsLostTotal    = expvar.NewInt("mines_rounds_lost_total")
	metricResyncTotal        = expvar.NewInt("mines_resync_total")
	metricResyncFailedTotal  = expvar.NewInt("mines_resync_failed_total")
	metricSessionsDropped    = expvar.NewInt("mines_sessions_dropped_total")
)
