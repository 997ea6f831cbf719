package realtime

import "expvar"

var (
	metricFramesTotal        = expvar.NewInt("realtime_frames_total")
	metricInvalidFramesTotal = expvar.NewInt("realtime_invalid_frames_total")
	metricUnhandledTotal     = expvar.NewInt("realtime_unhandled_frames_total")
	metricReconnectsTotal    = expvar.NewInt("realtime_reconnects_total")
	metricDialErrorsTotal    = expvar.NewInt("realtime_dial_errors_total")
	metricConnected          = expvar.NewInt("realtime_connected")
)
