package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geoapi_requests_total",
		Help: "Total number of HTTP requests by route and status",
	}, []string{"route", "status"})
	RequestDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "geoapi_request_duration_ms",
		Help:    "Request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	}, []string{"route"})
	BuildDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "geoapi_build_duration_ms",
		Help:    "Index build duration in milliseconds",
		Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
	})
	RecordsIndexed = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "geoapi_records_indexed",
		Help: "Number of commune records held by the current database",
	})
	SearchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geoapi_searches_total",
		Help: "Total searches by number of predicates",
	}, []string{"predicates"})
	SearchDurationUs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "geoapi_search_duration_us",
		Help:    "Search duration in microseconds",
		Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 5000},
	})
	EmptyResultsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geoapi_empty_results_total",
		Help: "Total number of searches returning no record",
	})
	RedisHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geoapi_redis_hits_total",
		Help: "Total redis cache hits",
	})
	RedisMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geoapi_redis_misses_total",
		Help: "Total redis cache misses",
	})
	RateLimitedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geoapi_rate_limited_total",
		Help: "Total requests rejected by the token bucket",
	})
	ImportedRecordsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geoapi_imported_records_total",
		Help: "Total records upserted into PostgreSQL",
	})
)

func init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RequestDurationMs)
	prometheus.MustRegister(BuildDurationMs)
	prometheus.MustRegister(RecordsIndexed)
	prometheus.MustRegister(SearchesTotal)
	prometheus.MustRegister(SearchDurationUs)
	prometheus.MustRegister(EmptyResultsTotal)
	prometheus.MustRegister(RedisHitsTotal)
	prometheus.MustRegister(RedisMissesTotal)
	prometheus.MustRegister(RateLimitedTotal)
	prometheus.MustRegister(ImportedRecordsTotal)
}

// 文档注释：返回 Prometheus 指标监听器
// 背景：统一暴露注册指标到 /metrics 路径，供 Prometheus 抓取；在主入口挂载。
func Handler() http.Handler { return promhttp.Handler() }
