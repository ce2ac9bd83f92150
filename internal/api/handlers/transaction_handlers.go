package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/christi903/fraudwatch-service/internal/domain/entities"
	"github.com/christi903/fraudwatch-service/internal/domain/services/export"
	"github.com/christi903/fraudwatch-service/internal/domain/services/records"
	"github.com/christi903/fraudwatch-service/internal/domain/services/stats"
	"github.com/christi903/fraudwatch-service/internal/infrastructure/repositories"
	apperrors "github.com/christi903/fraudwatch-service/pkg/errors"
	"github.com/christi903/fraudwatch-service/pkg/logger"
)

const exportPageSize = 500

// TransactionHandler serves the review grid: filtered listing through
// the caller's session view-model, staged edits, review persistence,
// history, live-update streaming and exports.
type TransactionHandler struct {
	transactions *repositories.TransactionRepository
	reviewLog    *repositories.ReviewRepository
	sessions     *records.Registry
	stats        *stats.Service
	logger       *logger.Logger
}

func NewTransactionHandler(
	transactions *repositories.TransactionRepository,
	reviewLog *repositories.ReviewRepository,
	sessions *records.Registry,
	statsService *stats.Service,
	log *logger.Logger,
) *TransactionHandler {
	return &TransactionHandler{
		transactions: transactions,
		reviewLog:    reviewLog,
		sessions:     sessions,
		stats:        statsService,
		logger:       log,
	}
}

// session resolves the caller's view-model, responding on failure.
func (h *TransactionHandler) session(c *gin.Context) (*records.ViewModel, entities.Principal, bool) {
	principal, err := getPrincipal(c)
	if err != nil {
		respondUnauthorized(c, "Authentication required")
		return nil, entities.Principal{}, false
	}

	vm, err := h.sessions.Session(principal)
	if err != nil {
		h.logger.WithError(err).Error("Failed to open review session")
		respondServiceError(c, err)
		return nil, entities.Principal{}, false
	}
	return vm, principal, true
}

// parseFilter builds a FilterState from query parameters. Malformed
// amount bounds and flags are dropped rather than applied.
func parseFilter(c *gin.Context) entities.FilterState {
	filter := entities.FilterState{
		Search: c.Query("search"),
		Type:   c.Query("type"),
		Status: c.Query("status"),
	}

	if raw := c.Query("min_amount"); raw != "" {
		if amount, err := decimal.NewFromString(raw); err == nil {
			filter.MinAmount = &amount
		}
	}
	if raw := c.Query("max_amount"); raw != "" {
		if amount, err := decimal.NewFromString(raw); err == nil {
			filter.MaxAmount = &amount
		}
	}
	if raw := c.Query("fraud_only"); raw != "" {
		if fraudOnly, err := strconv.ParseBool(raw); err == nil {
			filter.FraudOnly = fraudOnly
		}
	}

	return filter
}

func parsePage(c *gin.Context) entities.PageRequest {
	page := entities.PageRequest{PageSize: 25}
	if raw := c.Query("page"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			page.Page = v
		}
	}
	if raw := c.Query("page_size"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			page.PageSize = v
		}
	}
	page.Validate()
	return page
}

// ListTransactions runs the requested query through the caller's
// session view-model and returns its resulting page.
// GET /api/transactions
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	vm, _, ok := h.session(c)
	if !ok {
		return
	}

	vm.Query(c.Request.Context(), parseFilter(c), parsePage(c))
	vm.Wait()

	snap := vm.Snapshot()
	if snap.State == records.StateError {
		respondError(c, http.StatusBadGateway, string(apperrors.ErrCodeFetchFailed), snap.Error, nil)
		return
	}

	c.JSON(http.StatusOK, entities.TransactionListResponse{
		Rows:       snap.Rows,
		TotalCount: snap.TotalCount,
		Page:       snap.Page.Page,
		PageSize:   snap.Page.PageSize,
	})
}

// GetTransaction returns one transaction formatted for display.
// GET /api/transactions/:id
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "Invalid transaction id", nil)
		return
	}

	tx, err := h.transactions.GetByID(c.Request.Context(), id)
	if err != nil {
		respondNotFound(c, "Transaction not found")
		return
	}

	c.JSON(http.StatusOK, tx.ForDisplay())
}

// StageEdit buffers a pending edit for one transaction in the caller's
// session.
// PUT /api/transactions/:id/edit
func (h *TransactionHandler) StageEdit(c *gin.Context) {
	vm, _, ok := h.session(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "Invalid transaction id", nil)
		return
	}

	var req entities.EditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", nil)
		return
	}

	tx, err := h.transactions.GetByID(c.Request.Context(), id)
	if err != nil {
		respondNotFound(c, "Transaction not found")
		return
	}

	if req.NewStatus != "" {
		vm.StageStatus(id, tx.Status, entities.TransactionStatus(req.NewStatus).Normalize())
	}
	if req.Notes != "" {
		vm.StageNotes(id, tx.Status, req.Notes)
	}

	edit, _ := vm.PendingEdit(id)
	c.JSON(http.StatusOK, gin.H{
		"transaction_id": id,
		"pending":        edit,
	})
}

// DiscardEdit drops the buffered edit for one transaction.
// DELETE /api/transactions/:id/edit
func (h *TransactionHandler) DiscardEdit(c *gin.Context) {
	vm, _, ok := h.session(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "Invalid transaction id", nil)
		return
	}

	vm.Discard(id)
	c.JSON(http.StatusOK, gin.H{"transaction_id": id, "discarded": true})
}

// SaveReview persists the buffered edit for one transaction.
// POST /api/transactions/:id/review
func (h *TransactionHandler) SaveReview(c *gin.Context) {
	vm, principal, ok := h.session(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "Invalid transaction id", nil)
		return
	}

	if err := vm.SaveReview(c.Request.Context(), principal, id); err != nil {
		h.logger.WithError(err).Warn("Review save failed")
		respondServiceError(c, err)
		return
	}

	// The save changed the status distribution; drop the cached stats.
	if err := h.stats.Invalidate(c.Request.Context()); err != nil {
		h.logger.WithError(err).Warn("Failed to invalidate stats cache")
	}

	c.JSON(http.StatusOK, gin.H{"transaction_id": id, "saved": true})
}

// StreamChanges streams the session's insert notifications as
// server-sent events. Clients surface these as "new rows" toasts; the
// grid itself is kept current by the subscription-driven refetch.
// GET /api/transactions/stream
func (h *TransactionHandler) StreamChanges(c *gin.Context) {
	vm, _, ok := h.session(c)
	if !ok {
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		// Flush queued events before honoring cancellation so nothing
		// already delivered is lost.
		select {
		case event := <-vm.Notifications():
			c.SSEvent("change", event)
			return true
		default:
		}

		select {
		case event := <-vm.Notifications():
			c.SSEvent("change", event)
			return true
		case <-ctx.Done():
			return false
		}
	})
}

// EndSession tears the caller's session down, unsubscribing from live
// updates and discarding unsaved edits.
// DELETE /api/transactions/session
func (h *TransactionHandler) EndSession(c *gin.Context) {
	principal, err := getPrincipal(c)
	if err != nil {
		respondUnauthorized(c, "Authentication required")
		return
	}

	h.sessions.Close(principal)
	c.JSON(http.StatusOK, gin.H{"ended": true})
}

// ListReviews returns the audit trail for one transaction, newest first.
// GET /api/transactions/:id/reviews
func (h *TransactionHandler) ListReviews(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "Invalid transaction id", nil)
		return
	}

	reviews, err := h.reviewLog.ListByTransaction(c.Request.Context(), id)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list reviews")
		respondInternalError(c, "Failed to load review history")
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction_id": id, "reviews": reviews})
}

// collectForExport pages through every row matching the filter.
func (h *TransactionHandler) collectForExport(c *gin.Context, filter entities.FilterState) ([]entities.DisplayTransaction, error) {
	var display []entities.DisplayTransaction
	page := entities.PageRequest{Page: 0, PageSize: exportPageSize}

	for {
		rows, total, err := h.transactions.List(c.Request.Context(), filter, page)
		if err != nil {
			return nil, err
		}
		for i := range rows {
			display = append(display, rows[i].ForDisplay())
		}
		if len(display) >= total || len(rows) == 0 {
			return display, nil
		}
		page.Page++
	}
}

// ExportCSV streams the filtered transactions as a CSV attachment.
// GET /api/transactions/export/csv
func (h *TransactionHandler) ExportCSV(c *gin.Context) {
	rows, err := h.collectForExport(c, parseFilter(c))
	if err != nil {
		h.logger.WithError(err).Error("Failed to collect rows for csv export")
		respondServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("transactions-%s.csv", time.Now().Format("2006-01-02"))
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := export.WriteCSV(c.Writer, rows); err != nil {
		h.logger.WithError(err).Error("Failed to write csv export")
	}
}

// ExportXLSX streams the filtered transactions as a workbook attachment.
// GET /api/transactions/export/xlsx
func (h *TransactionHandler) ExportXLSX(c *gin.Context) {
	rows, err := h.collectForExport(c, parseFilter(c))
	if err != nil {
		h.logger.WithError(err).Error("Failed to collect rows for xlsx export")
		respondServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("transactions-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := export.WriteXLSX(c.Writer, rows); err != nil {
		h.logger.WithError(err).Error("Failed to write xlsx export")
	}
}

// GetStats returns the cached dashboard aggregates.
// GET /api/stats/dashboard
func (h *TransactionHandler) GetStats(c *gin.Context) {
	dashboard, err := h.stats.Dashboard(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to load dashboard stats")
		respondInternalError(c, "Failed to load statistics")
		return
	}

	c.JSON(http.StatusOK, dashboard)
}
