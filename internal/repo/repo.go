package repo

import (
	"errors"

	"gorm.io/gorm"
)

var ErrUserHasOrders = errors.New("user has orders")

type GormRepo struct {
	DB *gorm.DB
}

func notFoundIfNone(res *gorm.DB) error {
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
