package services

import (
	"fmt"

	apperrors "duofinance/internal/errors"
	"duofinance/internal/models"
)

// PartialCreateError reports a recurring request that stopped part way.
// Created holds the installments stored before the failure; they are not
// rolled back.
type PartialCreateError struct {
	Created     []models.Transaction
	FailedIndex int
	Total       int
	Err         *apperrors.AppError
}

func (e *PartialCreateError) Error() string {
	return fmt.Sprintf("created %d of %d installments, failed at index %d: %s",
		len(e.Created), e.Total, e.FailedIndex, e.Err.Error())
}

// Unwrap exposes the PARTIAL_RECURRENCE app error.
func (e *PartialCreateError) Unwrap() error { return e.Err }

// CreatedIDs lists the ids of the stored installments.
func (e *PartialCreateError) CreatedIDs() []string {
	ids := make([]string, len(e.Created))
	for i, tx := range e.Created {
		ids[i] = tx.ID
	}
	return ids
}
