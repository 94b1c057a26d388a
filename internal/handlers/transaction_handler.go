package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "duofinance/internal/errors"
	"duofinance/internal/ledger"
	"duofinance/internal/logger"
	"duofinance/internal/middleware"
	"duofinance/internal/models"
	"duofinance/internal/pagination"
	"duofinance/internal/services"
)

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
	auditService       services.AuditServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer, auditService services.AuditServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService, auditService: auditService}
}

// SplitDetails describes how a shared expense is divided. Shares are
// required for the custom mode and ignored for equal.
type SplitDetails struct {
	Mode         models.SplitMode `json:"mode" binding:"required,split_mode" example:"custom"`
	SelfShare    *decimal.Decimal `json:"self_share,omitempty" swaggertype:"string" example:"30.00"`
	PartnerShare *decimal.Decimal `json:"partner_share,omitempty" swaggertype:"string" example:"70.00"`
}

// TransactionFields are the values a user enters for one transaction.
type TransactionFields struct {
	Description  string                 `json:"description" binding:"required,max=255"`
	Amount       decimal.Decimal        `json:"amount" binding:"gt=0" swaggertype:"string" example:"100.00"`
	Kind         models.TransactionKind `json:"kind" binding:"required,transaction_kind"`
	Category     string                 `json:"category" binding:"required,max=100"`
	OccursOn     string                 `json:"occurs_on" binding:"required" example:"2024-03-01"`
	IsShared     bool                   `json:"is_shared"`
	Payer        models.Payer           `json:"payer" binding:"omitempty,payer"`
	SplitDetails *SplitDetails          `json:"split_details"`
}

// CreateTransactionRequest represents the request payload for creating a
// transaction, optionally repeated as installments.
type CreateTransactionRequest struct {
	TransactionFields
	Installments    int              `json:"installments" binding:"omitempty,min=1,max=360"`
	Frequency       ledger.Frequency `json:"frequency" binding:"omitempty,frequency"`
	RecurrenceGroup *string          `json:"recurrence_group" binding:"omitempty,uuid"`
}

// UpdateTransactionRequest replaces every user-entered field of a transaction.
type UpdateTransactionRequest struct {
	TransactionFields
}

// TransactionResponse represents a transaction in the response
type TransactionResponse struct {
	ID              string                 `json:"id"`
	Description     string                 `json:"description"`
	Amount          decimal.Decimal        `json:"amount" swaggertype:"string"`
	Kind            models.TransactionKind `json:"kind"`
	Category        string                 `json:"category"`
	OccursOn        string                 `json:"occurs_on"`
	IsShared        bool                   `json:"is_shared"`
	Payer           models.Payer           `json:"payer"`
	SplitDetails    *SplitDetails          `json:"split_details,omitempty"`
	RecurrenceGroup *string                `json:"recurrence_group,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

// CreateTransactionsResponse lists every stored installment.
type CreateTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
}

// PartialCreateResponse is returned when a recurring request stopped part
// way. Created lists the ids that were stored and are not rolled back.
type PartialCreateResponse struct {
	Error       ErrorDetail `json:"error"`
	Created     []string    `json:"created"`
	FailedIndex int         `json:"failed_index"`
	Total       int         `json:"total"`
}

func toTransactionResponse(tx models.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:              tx.ID,
		Description:     tx.Description,
		Amount:          tx.Amount,
		Kind:            tx.Kind,
		Category:        tx.Category,
		OccursOn:        ledger.FormatDate(tx.OccursOn),
		IsShared:        tx.IsSharedExpense(),
		Payer:           tx.Payer,
		RecurrenceGroup: tx.RecurrenceGroup,
		CreatedAt:       tx.CreatedAt,
		UpdatedAt:       tx.UpdatedAt,
	}
	if resp.IsShared {
		split := tx.Split()
		resp.SplitDetails = &SplitDetails{Mode: split.Mode()}
		if custom, ok := split.(models.CustomSplit); ok {
			resp.SplitDetails.SelfShare = &custom.Self
			resp.SplitDetails.PartnerShare = &custom.Partner
		}
	}
	return resp
}

// toRequest converts the bound fields into a ledger request for userID.
func (f TransactionFields) toRequest(userID string) (ledger.Request, error) {
	occursOn, err := ledger.ParseDate(f.OccursOn)
	if err != nil {
		return ledger.Request{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid occurs_on, use YYYY-MM-DD")
	}

	req := ledger.Request{
		Description: f.Description,
		Amount:      f.Amount,
		Kind:        f.Kind,
		Category:    f.Category,
		OccursOn:    occursOn,
		IsShared:    f.IsShared,
		Payer:       f.Payer,
		Owner:       userID,
	}

	if f.SplitDetails != nil && f.SplitDetails.Mode == models.SplitModeCustom {
		if f.SplitDetails.SelfShare == nil || f.SplitDetails.PartnerShare == nil {
			return ledger.Request{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "custom split requires self_share and partner_share")
		}
		req.Split = models.CustomSplit{Self: *f.SplitDetails.SelfShare, Partner: *f.SplitDetails.PartnerShare}
	}
	return req, nil
}

// CreateTransaction handles the creation of a transaction and its installments
// @Summary     Create a transaction
// @Description Create an income or expense. With installments > 1 the transaction is repeated at the given frequency and all records share one recurrence group.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateTransactionRequest true "Transaction details"
// @Success     201 {object} CreateTransactionsResponse "Transactions created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} PartialCreateResponse "Only some installments were created"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var body CreateTransactionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	req, err := body.toRequest(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	req.Installments = body.Installments
	req.Frequency = body.Frequency
	req.RecurrenceGroup = body.RecurrenceGroup

	created, err := h.transactionService.CreateTransactions(c.Request.Context(), req)

	var partial *services.PartialCreateError
	if errors.As(err, &partial) {
		h.auditService.Log(userID, "CREATE_TRANSACTION_PARTIAL", "transaction", firstID(partial.Created), c.ClientIP(),
			map[string]interface{}{"created": len(partial.Created), "failed_index": partial.FailedIndex, "total": partial.Total})

		respondWithPartial(c, partial)
		return
	}
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_TRANSACTION", "transaction", firstID(created), c.ClientIP(),
		map[string]interface{}{"kind": req.Kind, "amount": req.Amount.String(), "installments": len(created)})

	out := make([]TransactionResponse, len(created))
	for i, tx := range created {
		out[i] = toTransactionResponse(tx)
	}
	c.JSON(http.StatusCreated, CreateTransactionsResponse{Transactions: out})
}

// respondWithPartial reports which installments were stored before the
// failure so the client can retry the rest or delete them.
func respondWithPartial(c *gin.Context, partial *services.PartialCreateError) {
	logger.Get().Errorw("recurring create stopped part way",
		"error", partial.Error(),
		"created", len(partial.Created),
		"failed_index", partial.FailedIndex,
		"total", partial.Total,
		"request_id", c.GetString(middleware.RequestIDKey),
	)
	c.JSON(partial.Err.StatusCode, PartialCreateResponse{
		Error:       ErrorDetail{Code: partial.Err.Code, Message: partial.Err.Message},
		Created:     partial.CreatedIDs(),
		FailedIndex: partial.FailedIndex,
		Total:       partial.Total,
	})
}

func firstID(txs []models.Transaction) string {
	if len(txs) == 0 {
		return ""
	}
	return txs[0].ID
}

// GetUserTransactions handles the retrieval of all transactions for the authenticated user
// @Summary     Get user transactions
// @Description Get a paginated list of the authenticated user's transactions, newest first, with optional filters
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page             query int    false "Page number (default 1)"
// @Param       page_size        query int    false "Items per page (default 20, max 100)"
// @Param       period           query string false "Month as YYYY-MM"
// @Param       year             query int    false "Year, used with month"
// @Param       month            query int    false "Month 1-12, used with year"
// @Param       kind             query string false "income or expense"
// @Param       category         query string false "Category name"
// @Param       is_shared        query bool   false "Only shared or only personal transactions"
// @Param       recurrence_group query string false "Recurrence group id"
// @Success     200 {object} pagination.PageResponse[TransactionResponse] "Paginated transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [get]
func (h *TransactionHandler) GetUserTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transactionService.GetUserTransactions(c.Request.Context(), userID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, pagination.Map(*result, toTransactionResponse))
}

func parseTransactionFilter(c *gin.Context) (services.TransactionFilter, error) {
	var filter services.TransactionFilter

	period, err := parsePeriod(c)
	if err != nil {
		return filter, err
	}
	filter.Period = period

	if v := c.Query("kind"); v != "" {
		kind := models.TransactionKind(v)
		switch kind {
		case models.TransactionKindIncome, models.TransactionKindExpense:
			filter.Kind = &kind
		default:
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid kind, must be income or expense")
		}
	}

	if v := c.Query("category"); v != "" {
		filter.Category = &v
	}

	if v := c.Query("is_shared"); v != "" {
		shared, err := strconv.ParseBool(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid is_shared")
		}
		filter.IsShared = &shared
	}

	if v := c.Query("recurrence_group"); v != "" {
		filter.RecurrenceGroup = &v
	}

	return filter, nil
}

// GetTransactionByID handles the retrieval of a specific transaction
// @Summary     Get transaction by ID
// @Description Get a specific transaction by ID
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} TransactionResponse "Transaction details"
// @Failure     400 {object} ErrorResponse "Invalid transaction ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransactionByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.GetTransactionByID(c.Request.Context(), userID, transactionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": toTransactionResponse(*transaction)})
}

// UpdateTransaction handles replacing an existing transaction
// @Summary     Update transaction
// @Description Replace the fields of one transaction. Other installments of the same recurrence group are not touched.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                   true "Transaction ID"
// @Param       request body UpdateTransactionRequest true "New transaction values"
// @Success     200 {object} TransactionResponse "Updated transaction"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	txID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var body UpdateTransactionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	req, err := body.toRequest(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.UpdateTransaction(c.Request.Context(), txID, req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_TRANSACTION", "transaction", txID, c.ClientIP(),
		map[string]interface{}{"kind": req.Kind, "amount": req.Amount.String(), "is_shared": transaction.IsShared})

	c.JSON(http.StatusOK, gin.H{"transaction": toTransactionResponse(*transaction)})
}

// DeleteTransaction handles the deletion of a transaction
// @Summary     Delete transaction
// @Description Delete one transaction. Other installments of the same recurrence group are kept.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} MessageResponse "Transaction deleted"
// @Failure     400 {object} ErrorResponse "Invalid transaction ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.DeleteTransaction(c.Request.Context(), userID, transactionID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_TRANSACTION", "transaction", transactionID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted successfully"})
}
