package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics records request counts and latency per route.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewHTTPMetrics registers the HTTP metrics on the provided registerer.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		return &HTTPMetrics{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Handled HTTP requests by method, route, and status.",
	}, []string{"method", "route", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	reg.MustRegister(requests, duration)
	return &HTTPMetrics{
		requests: requests,
		duration: duration,
	}
}

// ObserveRequest records one handled request.
func (h *HTTPMetrics) ObserveRequest(method, route, status string, duration time.Duration) {
	if h == nil || h.requests == nil {
		return
	}
	h.requests.WithLabelValues(method, normalizeLabel(route), status).Inc()
	h.duration.WithLabelValues(method, normalizeLabel(route)).Observe(duration.Seconds())
}

// QuotaMetrics records domain events for the quota ledger and transfer flow.
type QuotaMetrics struct {
	transfersCreated  *prometheus.CounterVec
	transfersRejected *prometheus.CounterVec
	ledgerCacheHits   prometheus.Counter
	ledgerCacheMisses prometheus.Counter
	harvestsImported  prometheus.Counter
	alertsShared      prometheus.Counter
}

// NewQuotaMetrics registers the quota domain metrics on the provided registerer.
func NewQuotaMetrics(reg prometheus.Registerer) *QuotaMetrics {
	if reg == nil {
		return &QuotaMetrics{}
	}
	transfersCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quota_transfers_created_total",
		Help: "Quota transfers written, by species code.",
	}, []string{"species"})
	transfersRejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quota_transfers_rejected_total",
		Help: "Quota transfers rejected by validation, by reason.",
	}, []string{"reason"})
	ledgerCacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_cache_hits_total",
		Help: "Ledger reads served from cache.",
	})
	ledgerCacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_cache_misses_total",
		Help: "Ledger reads that fell through to the database.",
	})
	harvestsImported := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "harvests_imported_total",
		Help: "Harvest rows ingested from eFish report files.",
	})
	alertsShared := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bycatch_alerts_shared_total",
		Help: "Bycatch alerts broadcast to the fleet.",
	})
	reg.MustRegister(transfersCreated, transfersRejected, ledgerCacheHits, ledgerCacheMisses, harvestsImported, alertsShared)
	return &QuotaMetrics{
		transfersCreated:  transfersCreated,
		transfersRejected: transfersRejected,
		ledgerCacheHits:   ledgerCacheHits,
		ledgerCacheMisses: ledgerCacheMisses,
		harvestsImported:  harvestsImported,
		alertsShared:      alertsShared,
	}
}

// IncTransferCreated increments the created-transfer counter for a species.
func (q *QuotaMetrics) IncTransferCreated(species string) {
	if q == nil || q.transfersCreated == nil {
		return
	}
	q.transfersCreated.WithLabelValues(normalizeLabel(species)).Inc()
}

// IncTransferRejected increments the rejected-transfer counter for a reason.
func (q *QuotaMetrics) IncTransferRejected(reason string) {
	if q == nil || q.transfersRejected == nil {
		return
	}
	q.transfersRejected.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncLedgerCacheHit records a ledger read served from Redis.
func (q *QuotaMetrics) IncLedgerCacheHit() {
	if q == nil || q.ledgerCacheHits == nil {
		return
	}
	q.ledgerCacheHits.Inc()
}

// IncLedgerCacheMiss records a ledger read that hit the database.
func (q *QuotaMetrics) IncLedgerCacheMiss() {
	if q == nil || q.ledgerCacheMisses == nil {
		return
	}
	q.ledgerCacheMisses.Inc()
}

// AddHarvestsImported records rows ingested by the eFish importer.
func (q *QuotaMetrics) AddHarvestsImported(count int) {
	if q == nil || q.harvestsImported == nil || count <= 0 {
		return
	}
	q.harvestsImported.Add(float64(count))
}

// IncAlertShared records a bycatch alert broadcast.
func (q *QuotaMetrics) IncAlertShared() {
	if q == nil || q.alertsShared == nil {
		return
	}
	q.alertsShared.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
