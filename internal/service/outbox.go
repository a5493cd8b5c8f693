package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const saleIntentBatch = 100

// RunSaleOutbox периодически досылает продажи по заказам, для которых запись не удалась.
// Блокируется до отмены контекста.
func (s *Service) RunSaleOutbox(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.ProcessSaleIntents(ctx)
		}
	}
}

// ProcessSaleIntents обрабатывает одну пачку ожидающих записей очереди и возвращает число записанных продаж.
func (s *Service) ProcessSaleIntents(ctx context.Context) int {
	intents, err := s.repo.GetPendingSaleIntents(ctx, saleIntentBatch)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("load pending sale intents", zap.Error(err))
		}
		return 0
	}

	recorded := 0
	for _, in := range intents {
		if ctx.Err() != nil {
			break
		}

		o, err := s.repo.GetOrder(ctx, in.OrderID)
		if err != nil {
			s.logger.Warn("load order for sale intent", zap.String("orderID", in.OrderID), zap.Error(err))
			if ferr := s.repo.FailSaleIntent(ctx, in.OrderID, err.Error()); ferr != nil {
				s.logger.Error("mark sale intent failed", zap.String("orderID", in.OrderID), zap.Error(ferr))
			}
			continue
		}

		if err := s.recordOrderSale(ctx, o, in.CreatedBy); err != nil {
			s.logger.Warn("retry sale for order failed",
				zap.String("orderID", in.OrderID),
				zap.Int("attempts", in.Attempts+1),
				zap.Error(err))
			continue
		}
		recorded++
	}

	if recorded > 0 {
		s.logger.Info("sales recorded from outbox", zap.Int("count", recorded))
	}
	return recorded
}
