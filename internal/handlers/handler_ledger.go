package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/org_funding_app/internal/core/ports/services"
	"github.com/SscSPs/org_funding_app/internal/dto"
	"github.com/SscSPs/org_funding_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// ledgerHandler handles HTTP requests related to the ledger.
type ledgerHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

// newLedgerHandler creates a new ledgerHandler.
func newLedgerHandler(ls portssvc.LedgerSvcFacade) *ledgerHandler {
	return &ledgerHandler{ledgerService: ls}
}

// registerLedgerRoutes registers routes related to the ledger.
// Reads are open to every authenticated user; writes need an admin.
func registerLedgerRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerSvcFacade) {
	h := newLedgerHandler(ledgerService)

	ledger := rg.Group("/ledger")
	{
		ledger.GET("/balance", h.getBalance)
		ledger.GET("/transactions", h.listTransactions)
		ledger.GET("/transactions/:transactionID", h.getTransaction)
		ledger.POST("/transactions", middleware.RequireAdmin(), h.recordTransaction)
		ledger.DELETE("/transactions/:transactionID", middleware.RequireAdmin(), h.removeTransaction)
	}
}

// getBalance returns the balance over the whole ledger.
func (h *ledgerHandler) getBalance(c *gin.Context) {
	summary, err := h.ledgerService.GetBalance(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to compute balance")
		return
	}
	c.JSON(http.StatusOK, dto.ToBalanceResponse(summary))
}

// listTransactions returns one page of the ledger, newest first.
func (h *ledgerHandler) listTransactions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.ListTransactionsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Invalid query parameters for ListTransactions", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	resp, err := h.ledgerService.ListTransactions(c.Request.Context(), params)
	if err != nil {
		respondError(c, err, "Failed to list transactions")
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ledgerHandler) getTransaction(c *gin.Context) {
	txn, err := h.ledgerService.GetTransaction(c.Request.Context(), c.Param("transactionID"))
	if err != nil {
		respondError(c, err, "Failed to retrieve transaction")
		return
	}
	c.JSON(http.StatusOK, dto.ToTransactionResponse(txn))
}

// recordTransaction posts a direct income or expense entry.
func (h *ledgerHandler) recordTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req dto.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for RecordTransaction", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	txn, err := h.ledgerService.RecordTransaction(c.Request.Context(), req, actor)
	if err != nil {
		respondError(c, err, "Failed to record transaction")
		return
	}

	logger.Info("Transaction recorded", slog.String("transaction_id", txn.TransactionID), slog.String("kind", string(txn.Kind)))
	c.JSON(http.StatusCreated, dto.ToTransactionResponse(txn))
}

// removeTransaction deletes an entry that was not posted by an approval.
func (h *ledgerHandler) removeTransaction(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	transactionID := c.Param("transactionID")
	if err := h.ledgerService.RemoveTransaction(c.Request.Context(), transactionID, actor); err != nil {
		respondError(c, err, "Failed to remove transaction")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Transaction removed", slog.String("transaction_id", transactionID))
	c.Status(http.StatusNoContent)
}
