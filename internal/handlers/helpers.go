package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "duofinance/internal/errors"
	"duofinance/internal/ledger"
	"duofinance/internal/middleware"
	"duofinance/internal/uuid"
)

// getUserID extracts the authenticated user ID from the Gin context.
// Returns ErrUnauthorized if not present.
func getUserID(c *gin.Context) (string, error) {
	userID := c.GetString(middleware.UserIDKey)
	if userID == "" {
		return "", apperrors.ErrUnauthorized
	}
	return userID, nil
}

// parsePathID reads a UUID path parameter.
// Returns ErrInvalidInput if the parameter is not a valid UUID.
func parsePathID(c *gin.Context, param string) (string, error) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid "+param)
	}
	return id, nil
}

// parsePeriod reads ?period=YYYY-MM, or ?year=&month=. It returns nil when
// neither is given.
func parsePeriod(c *gin.Context) (*ledger.Period, error) {
	if v := c.Query("period"); v != "" {
		p, err := ledger.ParsePeriod(v)
		if err != nil {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid period, use YYYY-MM")
		}
		return &p, nil
	}

	yearStr, monthStr := c.Query("year"), c.Query("month")
	if yearStr == "" && monthStr == "" {
		return nil, nil
	}
	year, yearErr := strconv.Atoi(yearStr)
	month, monthErr := strconv.Atoi(monthStr)
	if yearErr != nil || monthErr != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "year and month must both be numbers")
	}
	p, err := ledger.NewPeriod(year, month)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	return &p, nil
}

// respondWithError hands err to middleware.ErrorHandler, which logs it and
// writes the JSON error body, and stops the handler chain.
func respondWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ErrorDetail represents the inner error object in an error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// MessageResponse represents a simple message response
type MessageResponse struct {
	Message string `json:"message"`
}
