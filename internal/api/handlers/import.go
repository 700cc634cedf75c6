package handlers

import (
	"net/http"

	"github.com/wonny/tradelog/backend/internal/importer"
	"github.com/wonny/tradelog/backend/internal/observability"
	"github.com/wonny/tradelog/backend/internal/store"
	"github.com/wonny/tradelog/backend/pkg/logger"
	"github.com/wonny/tradelog/backend/pkg/redis"
)

// maxStatementSize bounds statement uploads (8 MiB)
const maxStatementSize = 8 << 20

// ImportHandler handles broker statement uploads
// ⭐ SSOT: 거래 내역 업로드 처리는 이 구조체에서만
type ImportHandler struct {
	importer  *importer.StatementImporter
	tradeRepo *store.TradeRepository
	cache     *redis.Cache
	metrics   *observability.Metrics
	logger    *logger.Logger
}

// NewImportHandler creates a new import handler
func NewImportHandler(imp *importer.StatementImporter, tradeRepo *store.TradeRepository, cache *redis.Cache, metrics *observability.Metrics, log *logger.Logger) *ImportHandler {
	return &ImportHandler{
		importer:  imp,
		tradeRepo: tradeRepo,
		cache:     cache,
		metrics:   metrics,
		logger:    log,
	}
}

// ImportStatement parses an uploaded statement and stores its trades
// POST /api/users/{id}/import (multipart field "statement", or raw HTML body)
func (h *ImportHandler) ImportStatement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxStatementSize)
	defer body.Close()

	source := body
	if err := r.ParseMultipartForm(maxStatementSize); err == nil {
		file, _, ferr := r.FormFile("statement")
		if ferr == nil {
			defer file.Close()
			source = http.MaxBytesReader(w, file, maxStatementSize)
		}
	}

	result, err := h.importer.Parse(source, userID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse statement: "+err.Error())
		return
	}
	if len(result.Trades) == 0 {
		respondError(w, http.StatusUnprocessableEntity, "statement contained no parseable trades")
		return
	}

	inserted, err := h.tradeRepo.InsertBatch(ctx, result.Trades)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", userID).Error("Failed to store imported trades")
		respondError(w, http.StatusInternalServerError, "Failed to store trades")
		return
	}

	h.metrics.TradesImported.Add(float64(inserted))
	h.metrics.RowsSkipped.Add(float64(result.Skipped))

	// New trades invalidate the cached report
	if err := h.cache.Delete(ctx, redis.ReportKey(userID)); err != nil {
		h.logger.WithError(err).Warn("Failed to invalidate report cache")
	}

	h.logger.WithFields(map[string]interface{}{
		"user_id":  userID,
		"parsed":   len(result.Trades),
		"inserted": inserted,
		"skipped":  result.Skipped,
	}).Info("Statement imported")

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"parsed":   len(result.Trades),
		"inserted": inserted,
		"skipped":  result.Skipped,
	})
}
