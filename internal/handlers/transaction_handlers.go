package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"lodge_backend/internal/models"
	"lodge_backend/internal/services"
	"lodge_backend/pkg/utils"
)

// TransactionHandler handles HTTP requests for ledger transactions.
type TransactionHandler struct {
	service services.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(s services.TransactionService) *TransactionHandler {
	return &TransactionHandler{service: s}
}

// CreateTransaction handles POST /transactions
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	var req services.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err)
		return
	}

	txn, err := h.service.CreateTransaction(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "Failed to create transaction.")
		return
	}
	c.JSON(http.StatusCreated, txn)
}

// GetTransactions handles GET /transactions
func (h *TransactionHandler) GetTransactions(c *gin.Context) {
	page, pageSize := parsePagination(c, 50)
	filters := models.TransactionFilters{
		TransactionType: optionalQuery(c, "transaction_type"),
		Category:        optionalQuery(c, "category"),
		PaymentMethod:   optionalQuery(c, "payment_method"),
		Page:            page,
		PageSize:        pageSize,
	}
	var ok bool
	if filters.ReservationID, ok = optionalInt64Query(c, "reservation"); !ok {
		return
	}
	if filters.DueDateStart, ok = optionalDateQuery(c, "due_date_start"); !ok {
		return
	}
	if filters.DueDateEnd, ok = optionalDateQuery(c, "due_date_end"); !ok {
		return
	}
	if raw := optionalQuery(c, "is_paid"); raw != nil {
		paid, err := strconv.ParseBool(*raw)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid query parameter.", "").
				WithField("is_paid", "must be true or false"))
			return
		}
		filters.IsPaid = &paid
	}

	txns, total, err := h.service.GetTransactions(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve transactions.")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      txns,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetTransactionByID handles GET /transactions/:id
func (h *TransactionHandler) GetTransactionByID(c *gin.Context) {
	id, ok := parseIDParam(c, "transaction")
	if !ok {
		return
	}
	txn, err := h.service.GetTransactionByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve transaction.")
		return
	}
	c.JSON(http.StatusOK, txn)
}

// UpdateTransaction handles PUT and PATCH /transactions/:id
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	id, ok := parseIDParam(c, "transaction")
	if !ok {
		return
	}
	var req services.UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err)
		return
	}

	txn, err := h.service.UpdateTransaction(c.Request.Context(), id, req)
	if err != nil {
		respondServiceError(c, err, "Failed to update transaction.")
		return
	}
	c.JSON(http.StatusOK, txn)
}

// DeleteTransaction handles DELETE /transactions/:id
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	id, ok := parseIDParam(c, "transaction")
	if !ok {
		return
	}
	if err := h.service.DeleteTransaction(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "Failed to delete transaction.")
		return
	}
	c.Status(http.StatusNoContent)
}
