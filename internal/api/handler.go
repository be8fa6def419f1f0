// 包 api：集中注册 HTTP API 路由以解耦主入口，便于后续扩展与替换
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"geo-api/internal/geodb"
	"geo-api/internal/logger"
	"geo-api/internal/metrics"
	"geo-api/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// ParamIP 以 IP 代替坐标；值为 me 时取访问者地址
const ParamIP = "ip"

var errIPLookupDisabled = errors.New("ip lookup is not configured")

// Handler 行政区查询接口；cache 与 ipl 均可为 nil
type Handler struct {
	db     *geodb.DB
	cache  *Cache
	ipl    IPLocator
	logger *slog.Logger
}

func New(db *geodb.DB, cache *Cache, ipl IPLocator, l *slog.Logger) *Handler {
	if l == nil {
		l = logger.L()
	}
	return &Handler{db: db, cache: cache, ipl: ipl, logger: l}
}

// Register 挂载业务路由
func (h *Handler) Register(r chi.Router) {
	r.Get("/communes", h.handleSearch)
	r.Get("/communes/{code}", h.handleGet)
	r.Get("/healthz", h.handleHealth)
}

// 文档注释：构建完整路由
// 背景：访问日志与按路由统计在最外层；/metrics 与业务路由并列，apiBase 为空时挂在根路径。
func Router(h *Handler, apiBase string) http.Handler {
	r := chi.NewRouter()
	r.Use(logger.AccessMiddleware(h.logger, observeRoute))
	if apiBase == "" || apiBase == "/" {
		h.Register(r)
	} else {
		r.Route(apiBase, h.Register)
	}
	r.Handle("/metrics", metrics.Handler())
	return r
}

func observeRoute(r *http.Request, status int, dur time.Duration) {
	route := "unmatched"
	if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
		route = rc.RoutePattern()
	}
	metrics.RequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	metrics.RequestDurationMs.WithLabelValues(route).Observe(float64(dur.Milliseconds()))
}

// 文档注释：多条件查询
// 背景：nom/codePostal/code/lat/lon 直接映射为查询条件；ip 先经 GeoIP 解析为坐标再参与求交。
// 异常：条件形状错误返回 400；ip 解析不到位置时结果为空数组而非错误。
func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	c, err := geodb.ParseCriteria(q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if q.Has(ParamIP) {
		located, err := h.applyIP(r, q.Get(ParamIP), &c)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		if !located {
			writeJSON(w, http.StatusOK, []geodb.Record{})
			return
		}
	}
	if err := c.Validate(); err != nil {
		h.writeError(w, r, err)
		return
	}

	key := c.Key()
	if b, ok := h.cache.Get(ctx, key); ok {
		writeRaw(w, http.StatusOK, b)
		return
	}
	recs, err := h.db.Search(c)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	b, err := json.Marshal(recs)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.cache.Set(ctx, key, b)
	writeRaw(w, http.StatusOK, b)
}

// applyIP 将 ip 参数解析为坐标写入条件；与 lat/lon 同时出现视为形状错误
func (h *Handler) applyIP(r *http.Request, raw string, c *geodb.Criteria) (bool, error) {
	if c.Latitude != nil || c.Longitude != nil {
		return false, &geodb.PredicateShapeError{Predicate: ParamIP, Reason: "ip conflicts with lat/lon"}
	}
	if raw == "me" {
		raw = middleware.ClientIP(r.Context())
	}
	ip := net.ParseIP(raw)
	if ip == nil {
		return false, &geodb.PredicateShapeError{Predicate: ParamIP, Reason: "not an ip address"}
	}
	if h.ipl == nil {
		return false, errIPLookupDisabled
	}
	lon, lat, ok, err := h.ipl.Locate(ip)
	if err != nil {
		return false, err
	}
	h.logger.Debug("ip_located", "ip", raw, "ok", ok, "lat", lat, "lon", lon)
	if !ok {
		return false, nil
	}
	c.Latitude, c.Longitude = &lat, &lon
	return true, nil
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	rec, ok := h.db.UniqueIndex().Get(code)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "commune not found"})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"records":  h.db.Len(),
		"source":   h.db.Source(),
		"built_at": h.db.BuiltAt().UTC().Format(time.RFC3339),
	})
}

// writeError 条件错误映射为 400，未配置 ip 解析为 501，其余为 500
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case geodb.IsCriteriaError(err):
		status = http.StatusBadRequest
	case errors.Is(err, errIPLookupDisabled):
		status = http.StatusNotImplemented
	default:
		h.logger.ErrorContext(r.Context(), "search_error", "query", r.URL.RawQuery, "err", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		b = []byte(`{"error":"encode response"}`)
	}
	writeRaw(w, status, b)
}

func writeRaw(w http.ResponseWriter, status int, b []byte) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}
