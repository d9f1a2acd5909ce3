package controllers

import "github.com/prometheus/client_golang/prometheus"

var (
	promScans = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tvremote_scans_total",
		Help: "Discovery runs triggered through the API",
	}, []string{"result"})
	promCandidates = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tvremote_last_scan_candidates",
		Help: "Number of candidates found by the last discovery run",
	})
	promKeysSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tvremote_keys_sent_total",
		Help: "Key press messages written to a control channel",
	}, []string{"key"})
	promConnectFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tvremote_connect_failures_total",
		Help: "Control channel connections that could not be opened",
	})
)

func init() {
	prometheus.MustRegister(promScans, promCandidates, promKeysSent, promConnectFailures)
}
