package services

import (
	"context"

	"go.uber.org/zap"

	"duofinance/internal/cache"
	apperrors "duofinance/internal/errors"
	"duofinance/internal/ledger"
	"duofinance/internal/models"
	"duofinance/internal/store"
)

// summaryService handles the monthly summary and settlement.
type summaryService struct {
	transactions store.TransactionStore
	summaries    cache.SummaryCache
	log          *zap.SugaredLogger
}

// NewSummaryService creates a new SummaryServicer.
func NewSummaryService(transactions store.TransactionStore, summaries cache.SummaryCache, log *zap.SugaredLogger) SummaryServicer {
	return &summaryService{transactions: transactions, summaries: summaries, log: log}
}

// GetSummary returns the summary of one owner and one month. Cache errors
// are logged and fall through to the store; a summary is only cached under
// the version observed before the store read.
func (s *summaryService) GetSummary(ctx context.Context, userID string, period ledger.Period) (*ledger.Summary, error) {
	cached, version, ok, err := s.summaries.Get(ctx, userID, period)
	cacheable := err == nil
	if err != nil {
		s.log.Warnw("summary cache read failed", "error", err, "user_id", userID, "period", period.String())
	}
	if ok {
		return &cached, nil
	}

	from, to := period.Bounds()
	txs, err := s.transactions.FindByOwner(ctx, userID, store.TransactionFilter{From: &from, To: &to})
	if err != nil {
		s.log.Errorw("transaction store failure", "op", "summary", "error", err, "user_id", userID)
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	inPeriod := make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.UserID == userID && period.Contains(tx.OccursOn) {
			inPeriod = append(inPeriod, tx)
		}
	}

	summary := ledger.Summarize(inPeriod)

	if cacheable {
		if err := s.summaries.Set(ctx, userID, period, version, summary); err != nil {
			s.log.Warnw("summary cache write failed", "error", err, "user_id", userID, "period", period.String())
		}
	}
	return &summary, nil
}
