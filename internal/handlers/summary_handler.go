package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"duofinance/internal/ledger"
	"duofinance/internal/services"
)

// SummaryHandler serves the monthly summary and settlement.
type SummaryHandler struct {
	summaryService services.SummaryServicer
	now            func() time.Time
}

// NewSummaryHandler creates a new SummaryHandler.
func NewSummaryHandler(summaryService services.SummaryServicer) *SummaryHandler {
	return &SummaryHandler{summaryService: summaryService, now: time.Now}
}

// SummaryResponse is one month of totals plus who owes whom.
type SummaryResponse struct {
	Period                string           `json:"period" example:"2024-03"`
	TotalIncome           decimal.Decimal  `json:"total_income" swaggertype:"string"`
	TotalExpense          decimal.Decimal  `json:"total_expense" swaggertype:"string"`
	CurrentBalance        decimal.Decimal  `json:"current_balance" swaggertype:"string"`
	SelfPaidShared        decimal.Decimal  `json:"self_paid_shared" swaggertype:"string"`
	PartnerPaidShared     decimal.Decimal  `json:"partner_paid_shared" swaggertype:"string"`
	PartnerOwesSelf       decimal.Decimal  `json:"partner_owes_self" swaggertype:"string"`
	SelfOwesPartner       decimal.Decimal  `json:"self_owes_partner" swaggertype:"string"`
	NetBalance            decimal.Decimal  `json:"net_balance" swaggertype:"string"`
	Direction             ledger.Direction `json:"direction" example:"partner_owes_self"`
	SettlementAmount      decimal.Decimal  `json:"settlement_amount" swaggertype:"string"`
	HasSharedTransactions bool             `json:"has_shared_transactions"`
}

func toSummaryResponse(period ledger.Period, s ledger.Summary) SummaryResponse {
	return SummaryResponse{
		Period:                period.String(),
		TotalIncome:           s.TotalIncome,
		TotalExpense:          s.TotalExpense,
		CurrentBalance:        s.CurrentBalance,
		SelfPaidShared:        s.SelfPaidShared,
		PartnerPaidShared:     s.PartnerPaidShared,
		PartnerOwesSelf:       s.PartnerOwesSelf,
		SelfOwesPartner:       s.SelfOwesPartner,
		NetBalance:            s.NetBalance,
		Direction:             s.Direction(),
		SettlementAmount:      s.SettlementAmount(),
		HasSharedTransactions: s.HasSharedTransactions,
	}
}

// GetSummary returns the summary of one month
// @Summary     Get monthly summary
// @Description Totals, balance and settlement for one month. Defaults to the current month.
// @Tags        summary
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       period query string false "Month as YYYY-MM"
// @Param       year   query int    false "Year, used with month"
// @Param       month  query int    false "Month 1-12, used with year"
// @Success     200 {object} SummaryResponse "Monthly summary"
// @Failure     400 {object} ErrorResponse "Invalid period"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /summary [get]
func (h *SummaryHandler) GetSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	period, err := parsePeriod(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if period == nil {
		current := ledger.CurrentPeriod(h.now())
		period = &current
	}

	summary, err := h.summaryService.GetSummary(c.Request.Context(), userID, *period)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, toSummaryResponse(*period, *summary))
}
