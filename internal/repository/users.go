package repository

import (
	"context"
	"strings"

	"github.com/mmeshcher/freshmart/internal/model"
)

const userColumns = `id, name, email, password_hash, phone, avatar_url, role,
	cart, favorites, address, settings, created_at, updated_at`

// CreateUser создаёт нового пользователя.
func (r *PostgresRepository) CreateUser(ctx context.Context, u *model.User) error {
	cart, err := marshalJSON(nonNilItems(u.Cart))
	if err != nil {
		return err
	}
	favorites, err := marshalJSON(nonNilStrings(u.Favorites))
	if err != nil {
		return err
	}
	settings, err := marshalJSON(u.Settings)
	if err != nil {
		return err
	}

	err = r.pool.QueryRow(ctx,
		`INSERT INTO users (id, name, email, password_hash, phone, role, cart, favorites, settings)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING created_at, updated_at`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Phone, string(u.Role), cart, favorites, settings,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return classify(err, "create user")
	}
	return nil
}

// GetUserByEmail возвращает пользователя по email без учёта регистра.
func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`,
		email,
	)
	u, err := scanUser(row)
	if err != nil {
		return nil, classify(err, "get user by email")
	}
	return u, nil
}

// GetUserByID возвращает пользователя по идентификатору.
func (r *PostgresRepository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	)
	u, err := scanUser(row)
	if err != nil {
		return nil, classify(err, "get user")
	}
	return u, nil
}

// ListUsers возвращает всех пользователей, новые первыми.
func (r *PostgresRepository) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id`,
	)
	if err != nil {
		return nil, classify(err, "select users")
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, classify(err, "scan user")
		}
		users = append(users, *u)
	}

	if err := rows.Err(); err != nil {
		return nil, classify(err, "rows error")
	}
	return users, nil
}

// UpdateProfile обновляет имя и телефон пользователя. Пустые значения не изменяют поле.
func (r *PostgresRepository) UpdateProfile(ctx context.Context, id, name, phone string) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE users
		 SET name = COALESCE(NULLIF($2, ''), name),
		     phone = COALESCE(NULLIF($3, ''), phone),
		     updated_at = now()
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, name, phone,
	)
	u, err := scanUser(row)
	if err != nil {
		return nil, classify(err, "update profile")
	}
	return u, nil
}

// ReplaceCart заменяет корзину пользователя целиком.
func (r *PostgresRepository) ReplaceCart(ctx context.Context, id string, cart []model.LineItem) error {
	doc, err := marshalJSON(nonNilItems(cart))
	if err != nil {
		return err
	}
	return r.updateDocument(ctx, id, "cart", doc)
}

// ReplaceFavorites заменяет список избранного пользователя.
func (r *PostgresRepository) ReplaceFavorites(ctx context.Context, id string, favorites []string) error {
	doc, err := marshalJSON(nonNilStrings(favorites))
	if err != nil {
		return err
	}
	return r.updateDocument(ctx, id, "favorites", doc)
}

// UpdateAddress сохраняет адрес пользователя.
func (r *PostgresRepository) UpdateAddress(ctx context.Context, id string, addr model.Address) error {
	doc, err := marshalJSON(addr)
	if err != nil {
		return err
	}
	return r.updateDocument(ctx, id, "address", doc)
}

// UpdateSettings сохраняет настройки пользователя.
func (r *PostgresRepository) UpdateSettings(ctx context.Context, id string, settings model.Settings) error {
	doc, err := marshalJSON(settings)
	if err != nil {
		return err
	}
	return r.updateDocument(ctx, id, "settings", doc)
}

// column приходит только из констант пакета.
func (r *PostgresRepository) updateDocument(ctx context.Context, id, column string, doc []byte) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET `+column+` = $2, updated_at = now() WHERE id = $1`,
		id, doc,
	)
	if err != nil {
		return classify(err, "update "+column)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateUserRole меняет роль пользователя.
func (r *PostgresRepository) UpdateUserRole(ctx context.Context, id string, role model.Role) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE users SET role = $2, updated_at = now() WHERE id = $1 RETURNING `+userColumns,
		id, string(role),
	)
	u, err := scanUser(row)
	if err != nil {
		return nil, classify(err, "update role")
	}
	return u, nil
}

// PromoteUsersByEmail назначает роль администратора пользователям из списка email
// и возвращает адреса тех, чья роль действительно изменилась.
func (r *PostgresRepository) PromoteUsersByEmail(ctx context.Context, emails []string) ([]string, error) {
	if len(emails) == 0 {
		return nil, nil
	}

	lowered := make([]string, 0, len(emails))
	for _, e := range emails {
		lowered = append(lowered, strings.ToLower(e))
	}

	rows, err := r.pool.Query(ctx,
		`UPDATE users SET role = $2, updated_at = now()
		 WHERE lower(email) = ANY($1) AND role <> $2
		 RETURNING email`,
		lowered, string(model.RoleAdmin),
	)
	if err != nil {
		return nil, classify(err, "promote users")
	}
	defer rows.Close()

	var promoted []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, classify(err, "scan email")
		}
		promoted = append(promoted, email)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err, "rows error")
	}
	return promoted, nil
}

func scanUser(row scanner) (*model.User, error) {
	var (
		u                                  model.User
		role                               string
		cart, favorites, address, settings []byte
	)
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Phone, &u.AvatarURL, &role,
		&cart, &favorites, &address, &settings, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.Role = model.Role(role)

	if err := unmarshalJSON(cart, &u.Cart); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(favorites, &u.Favorites); err != nil {
		return nil, err
	}
	if len(address) > 0 {
		u.Address = &model.Address{}
		if err := unmarshalJSON(address, u.Address); err != nil {
			return nil, err
		}
	}
	if err := unmarshalJSON(settings, &u.Settings); err != nil {
		return nil, err
	}
	return &u, nil
}

func nonNilItems(items []model.LineItem) []model.LineItem {
	if items == nil {
		return []model.LineItem{}
	}
	return items
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
