package service

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/freshmart/internal/model"
	"github.com/mmeshcher/freshmart/internal/repository"
	"github.com/mmeshcher/freshmart/internal/validation"
)

// maxPasswordBytes ограничивает длину пароля: bcrypt не принимает пароли длиннее 72 байт.
const maxPasswordBytes = 72

// RegisterInput содержит данные регистрации.
type RegisterInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=72"`
}

// LoginInput содержит данные входа.
type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ProfileInput содержит изменяемые поля профиля. Пустые значения не меняют профиль.
type ProfileInput struct {
	Name  string `json:"name"`
	Phone string `json:"phone" validate:"omitempty,phone"`
}

// SettingsInput описывает частичное обновление настроек.
type SettingsInput struct {
	ThemeMode   *string `json:"themeMode" validate:"omitempty,oneof=light dark system"`
	AccentColor *string `json:"accentColor"`
}

// RegisterUser регистрирует нового пользователя с ролью user.
func (s *Service) RegisterUser(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct("Please provide name, email and password", in); err != nil {
		return nil, err
	}
	if len(in.Password) > maxPasswordBytes {
		return nil, &validation.Error{
			Message: "Password is too long",
			Fields: []validation.FieldError{{
				Field:   "password",
				Kind:    "max",
				Message: "password must be at most 72 bytes long",
			}},
		}
	}

	if _, err := s.repo.GetUserByEmail(ctx, in.Email); err == nil {
		return nil, ErrAlreadyExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, errors.Wrap(err, "lookup user")
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u := &model.User{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         model.RoleUser,
		Settings:     model.Settings{ThemeMode: "system"},
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.logger.Warn("duplicate registration race", zap.String("email", in.Email))
			return nil, ErrAlreadyExists
		}
		return nil, err
	}

	s.logger.Info("user registered", zap.String("userID", u.ID))
	return u, nil
}

// AuthenticateUser проверяет email и пароль и возвращает пользователя.
// Роль пользователя при входе не меняется.
func (s *Service) AuthenticateUser(ctx context.Context, in LoginInput) (*model.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := validation.Struct("Please provide email and password", in); err != nil {
		return nil, err
	}

	u, err := s.repo.GetUserByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !checkPassword(u.PasswordHash, in.Password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func hashPassword(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}
	return hash, nil
}

func checkPassword(hash []byte, password string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}

// GetUser возвращает пользователя по идентификатору.
func (s *Service) GetUser(ctx context.Context, id string) (*model.User, error) {
	u, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

// UpdateProfile меняет имя и телефон пользователя.
func (s *Service) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*model.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	if err := validation.Struct("Invalid profile payload", in); err != nil {
		return nil, err
	}

	u, err := s.repo.UpdateProfile(ctx, userID, in.Name, in.Phone)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

// ReplaceCart заменяет корзину пользователя целиком.
func (s *Service) ReplaceCart(ctx context.Context, userID string, cart []model.LineItem) ([]model.LineItem, error) {
	if cart == nil {
		return nil, validation.New("cart must be array", "cart", "required", nil)
	}
	for i := range cart {
		applyItemDefaults(&cart[i])
	}
	if err := s.repo.ReplaceCart(ctx, userID, cart); err != nil {
		return nil, notFound(err)
	}
	return cart, nil
}

// ReplaceFavorites заменяет список избранного пользователя.
func (s *Service) ReplaceFavorites(ctx context.Context, userID string, favorites []string) ([]string, error) {
	if favorites == nil {
		return nil, validation.New("favorites must be array", "favorites", "required", nil)
	}
	if err := s.repo.ReplaceFavorites(ctx, userID, favorites); err != nil {
		return nil, notFound(err)
	}
	return favorites, nil
}

// UpdateAddress сохраняет адрес доставки пользователя.
func (s *Service) UpdateAddress(ctx context.Context, userID string, addr model.Address) (*model.Address, error) {
	if err := validation.Struct("Invalid address payload", addr); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateAddress(ctx, userID, addr); err != nil {
		return nil, notFound(err)
	}
	return &addr, nil
}

// UpdateSettings объединяет переданные настройки с сохранёнными.
func (s *Service) UpdateSettings(ctx context.Context, userID string, in SettingsInput) (*model.Settings, error) {
	if err := validation.Struct("Invalid settings payload", in); err != nil {
		return nil, err
	}

	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, notFound(err)
	}

	settings := u.Settings
	if in.ThemeMode != nil {
		settings.ThemeMode = *in.ThemeMode
	}
	if in.AccentColor != nil {
		settings.AccentColor = *in.AccentColor
	}
	if settings.ThemeMode == "" {
		settings.ThemeMode = "system"
	}

	if err := s.repo.UpdateSettings(ctx, userID, settings); err != nil {
		return nil, notFound(err)
	}
	return &settings, nil
}

func notFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func normalizeEmails(emails []string) []string {
	out := make([]string, 0, len(emails))
	for _, e := range emails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}
