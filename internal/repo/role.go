package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

// EnsureAdminRole returns the id of the "admin" role, creating it on first use.
func EnsureAdminRole(tx *gorm.DB) (uint, error) {
	var role models.Role
	err := tx.Where(models.Role{Name: models.RoleAdmin}).
		Attrs(models.Role{Description: models.RoleAdminDescription}).
		FirstOrCreate(&role).Error
	if err != nil {
		return 0, err
	}
	return role.ID, nil
}

func (r *GormRepo) IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).
		Model(&models.UserRole{}).
		Joins("JOIN roles ON roles.id = user_roles.role_id").
		Where("user_roles.user_id = ? AND roles.name = ?", userID, models.RoleAdmin).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SetAdmin grants or revokes the admin role. Repeating a call is a no-op.
func (r *GormRepo) SetAdmin(ctx context.Context, userID uuid.UUID, want bool) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return setAdmin(tx, userID, want)
	})
}

func setAdmin(tx *gorm.DB, userID uuid.UUID, want bool) error {
	roleID, err := EnsureAdminRole(tx)
	if err != nil {
		return err
	}

	link := models.UserRole{UserID: userID, RoleID: roleID}
	var n int64
	if err := tx.Model(&models.UserRole{}).Where(&link).Count(&n).Error; err != nil {
		return err
	}

	switch {
	case want && n == 0:
		return tx.Create(&link).Error
	case !want && n > 0:
		return tx.Where(&link).Delete(&models.UserRole{}).Error
	}
	return nil
}
