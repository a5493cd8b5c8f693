package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/mmeshcher/freshmart/internal/model"
	"github.com/mmeshcher/freshmart/internal/validation"
)

// ListUsers возвращает всех пользователей.
func (s *Service) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.repo.ListUsers(ctx)
}

// GetUserWithOrders возвращает пользователя и его заказы.
func (s *Service) GetUserWithOrders(ctx context.Context, id string) (*model.User, []model.Order, error) {
	u, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, nil, notFound(err)
	}
	orders, err := s.repo.GetOrdersByUser(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return u, orders, nil
}

// SetUserRole меняет роль пользователя. Изменение журналируется вместе с инициатором.
func (s *Service) SetUserRole(ctx context.Context, actorID, id, role string) (*model.User, error) {
	r := model.Role(strings.TrimSpace(role))
	if !r.Valid() {
		return nil, validation.New("Invalid role", "role", "enum", role)
	}

	u, err := s.repo.UpdateUserRole(ctx, id, r)
	if err != nil {
		return nil, notFound(err)
	}

	s.logger.Info("user role changed",
		zap.String("actorID", actorID),
		zap.String("userID", id),
		zap.String("role", string(r)))
	return u, nil
}

// PromoteAllowlisted повышает до администратора пользователей из списка ADMIN_EMAILS.
// Возвращает идентификаторы пользователей, чья роль изменилась.
func (s *Service) PromoteAllowlisted(ctx context.Context, actorID string) ([]string, error) {
	if len(s.adminEmails) == 0 {
		return []string{}, nil
	}

	ids, err := s.repo.PromoteUsersByEmail(ctx, s.adminEmails)
	if err != nil {
		return nil, err
	}

	s.logger.Info("allow-listed users promoted to admin",
		zap.String("actorID", actorID),
		zap.Strings("userIDs", ids),
		zap.Int("allowlist", len(s.adminEmails)))
	return ids, nil
}
