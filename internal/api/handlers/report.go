package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/tradelog/backend/internal/analytics"
	"github.com/wonny/tradelog/backend/internal/journal"
	"github.com/wonny/tradelog/backend/internal/observability"
	"github.com/wonny/tradelog/backend/internal/store"
	"github.com/wonny/tradelog/backend/pkg/logger"
	"github.com/wonny/tradelog/backend/pkg/redis"
)

// ReportHandler handles performance report API endpoints
// ⭐ SSOT: 리포트 API 핸들러는 이 구조체에서만
type ReportHandler struct {
	tradeRepo *store.TradeRepository
	assembler *analytics.Assembler
	cache     *redis.Cache
	metrics   *observability.Metrics
	logger    *logger.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(tradeRepo *store.TradeRepository, assembler *analytics.Assembler, cache *redis.Cache, metrics *observability.Metrics, log *logger.Logger) *ReportHandler {
	return &ReportHandler{
		tradeRepo: tradeRepo,
		assembler: assembler,
		cache:     cache,
		metrics:   metrics,
		logger:    log,
	}
}

// GetReport returns the full performance report for a user
// GET /api/users/{id}/report
func (h *ReportHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	cacheKey := redis.ReportKey(userID)
	var cached analytics.Report
	if hit, err := h.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		h.metrics.ReportCacheHits.Inc()
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"cached":  true,
			"data":    cached,
		})
		return
	}
	h.metrics.ReportCacheMiss.Inc()

	started := time.Now()

	series, ok := h.loadSeries(w, r, userID)
	if !ok {
		return
	}

	report, err := h.assembler.Assemble(ctx, userID, series)
	if err != nil {
		h.metrics.ReportsAssembled.WithLabelValues("error").Inc()
		h.logger.WithError(err).WithField("user_id", userID).Error("Failed to assemble report")
		respondError(w, http.StatusInternalServerError, "Failed to assemble report")
		return
	}

	h.metrics.ReportsAssembled.WithLabelValues("ok").Inc()
	h.metrics.ReportDuration.Observe(time.Since(started).Seconds())

	if err := h.cache.Set(ctx, cacheKey, report, redis.TTLMedium); err != nil {
		h.logger.WithError(err).Warn("Failed to cache report")
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"cached":  false,
		"data":    report,
	})
}

// GetGroups returns one grouping dimension's breakdown
// GET /api/users/{id}/report/groups?by=symbol
func (h *ReportHandler) GetGroups(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	dimension := r.URL.Query().Get("by")
	if dimension == "" {
		dimension = "symbol"
	}

	cacheKey := redis.GroupReportKey(userID, dimension)
	var cached []analytics.GroupReport
	if hit, err := h.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		h.metrics.ReportCacheHits.Inc()
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"by":      dimension,
			"data":    cached,
		})
		return
	}
	h.metrics.ReportCacheMiss.Inc()

	series, ok := h.loadSeries(w, r, userID)
	if !ok {
		return
	}

	groups, err := h.assembler.AssembleGroups(ctx, series, dimension)
	if err != nil {
		if ctx.Err() == nil {
			// Not a cancellation: the dimension name was bad
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "Failed to compute groups")
		return
	}

	if err := h.cache.Set(ctx, cacheKey, groups, redis.TTLShort); err != nil {
		h.logger.WithError(err).Warn("Failed to cache group report")
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"by":      dimension,
		"data":    groups,
	})
}

// GetTaxes returns the tax-year breakdown for a user
// GET /api/users/{id}/taxes/{year}
func (h *ReportHandler) GetTaxes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	year, err := strconv.Atoi(mux.Vars(r)["year"])
	if err != nil || year < 1970 || year > 2200 {
		respondError(w, http.StatusBadRequest, "invalid tax year")
		return
	}

	cacheKey := redis.TaxReportKey(userID, year)
	var cached analytics.TaxReport
	if hit, err := h.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		h.metrics.ReportCacheHits.Inc()
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data":    cached,
		})
		return
	}
	h.metrics.ReportCacheMiss.Inc()

	// Pad the load window so cross-boundary wash sales still match
	trades, err := h.tradeRepo.GetClosedByUserAndYear(ctx, userID, year, analytics.WashSaleWindowDays)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", userID).Error("Failed to load trades for tax report")
		respondError(w, http.StatusInternalServerError, "Failed to load trades")
		return
	}

	series, ok := h.buildSeries(w, trades)
	if !ok {
		return
	}

	report := analytics.ComputeTaxes(series, year)

	if err := h.cache.Set(ctx, cacheKey, report, redis.TTLDaily); err != nil {
		h.logger.WithError(err).Warn("Failed to cache tax report")
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    report,
	})
}

// loadSeries fetches and validates a user's closed trades, writing the
// error response itself when something fails
func (h *ReportHandler) loadSeries(w http.ResponseWriter, r *http.Request, userID int64) (*journal.Series, bool) {
	trades, err := h.tradeRepo.GetClosedByUser(r.Context(), userID)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", userID).Error("Failed to load trades")
		respondError(w, http.StatusInternalServerError, "Failed to load trades")
		return nil, false
	}
	return h.buildSeries(w, trades)
}

func (h *ReportHandler) buildSeries(w http.ResponseWriter, trades []journal.Trade) (*journal.Series, bool) {
	series, err := journal.NewSeries(trades)
	if err != nil {
		var verr *journal.ValidationError
		if errors.As(err, &verr) {
			// Stored data violating the schema is a data problem, not
			// a client problem
			respondJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
				"success": false,
				"error":   "trade data failed validation",
				"issues":  verr.Issues,
			})
			return nil, false
		}
		respondError(w, http.StatusInternalServerError, "Failed to build trade series")
		return nil, false
	}
	return series, true
}

func parseUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || userID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid user id")
		return 0, false
	}
	return userID, true
}
