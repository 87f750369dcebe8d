package repo

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

const isAdminSQL = `EXISTS (SELECT 1 FROM user_roles ur
	JOIN roles r ON r.id = ur.role_id
	WHERE ur.user_id = users.id AND r.name = ?) AS is_admin`

type UserRow struct {
	models.User
	IsAdmin bool
}

func (r *GormRepo) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.DB.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// EmailTaken reports whether another user already owns email.
// Pass uuid.Nil as except when creating.
func (r *GormRepo) EmailTaken(ctx context.Context, email string, except uuid.UUID) (bool, error) {
	var n int64
	q := r.DB.WithContext(ctx).Model(&models.User{}).Where("email = ?", strings.ToLower(email))
	if except != uuid.Nil {
		q = q.Where("id <> ?", except)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *GormRepo) CreateUser(ctx context.Context, user *models.User, admin bool) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		if !admin {
			return nil
		}
		return setAdmin(tx, user.ID, true)
	})
}

func (r *GormRepo) UpdateUser(ctx context.Context, user *models.User, admin bool) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("id = ?", user.ID).
			Select("email", "password_hash", "full_name", "is_active", "updated_at").
			Updates(user)
		if err := notFoundIfNone(res); err != nil {
			return err
		}
		return setAdmin(tx, user.ID, admin)
	})
}

// DeleteUser refuses with ErrUserHasOrders when the user owns any order.
func (r *GormRepo) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var orders int64
		if err := tx.Model(&models.Order{}).Where("user_id = ?", id).Count(&orders).Error; err != nil {
			return err
		}
		if orders > 0 {
			return ErrUserHasOrders
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.UserRole{}).Error; err != nil {
			return err
		}
		return notFoundIfNone(tx.Where("id = ?", id).Delete(&models.User{}))
	})
}

func (r *GormRepo) ListUsers(ctx context.Context, offset, limit int) (int64, []UserRow, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var rows []UserRow
	if err := r.DB.WithContext(ctx).
		Model(&models.User{}).
		Select("users.*, "+isAdminSQL, models.RoleAdmin).
		Order("users.created_at DESC").
		Order("users.email ASC").
		Offset(offset).
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return 0, nil, err
	}
	return total, rows, nil
}

func (r *GormRepo) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.User{}).Count(&n).Error
	return n, err
}
