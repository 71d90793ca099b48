package moderation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var filterReloads = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "nucleo_filter_reloads_total",
	Help: "Block-list reloads from the rule store, by result",
}, []string{"result"})

var filterLookups = promauto.NewCounter(prometheus.CounterOpts{
	Name: "nucleo_filter_lookups_total",
	Help: "Block-list lookups served",
})

var filterHits = promauto.NewCounter(prometheus.CounterOpts{
	Name: "nucleo_filter_hits_total",
	Help: "Messages that matched a blocked word",
})

var filterCacheSize = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "nucleo_filter_cache_words",
	Help: "Words held by the current block-list snapshot",
})

var warnsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "nucleo_warns_total",
	Help: "Warn ledger writes, by operation and schema shape",
}, []string{"op", "schema"})

var auditAppends = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "nucleo_audit_appends_total",
	Help: "Audit entries appended, by event and result",
}, []string{"event", "result"})

var schemaFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "nucleo_schema_fallbacks_total",
	Help: "Optional columns found missing, by table and column",
}, []string{"table", "column"})
