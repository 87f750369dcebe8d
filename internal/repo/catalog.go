package repo

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

const categoryNameSQL = `(SELECT c.name FROM categories c
	JOIN product_categories pc ON pc.category_id = c.id
	WHERE pc.product_id = products.id
	ORDER BY c.name LIMIT 1) AS category_name`

// ProductRow is a product joined with its effective category.
type ProductRow struct {
	models.Product
	CategoryName *string
}

func (r *GormRepo) productRows(ctx context.Context) *gorm.DB {
	return r.DB.WithContext(ctx).
		Model(&models.Product{}).
		Select("products.*, " + categoryNameSQL)
}

func (r *GormRepo) ListActiveProducts(ctx context.Context) ([]ProductRow, error) {
	var rows []ProductRow
	if err := r.productRows(ctx).
		Where("products.is_active = ?", true).
		Order("products.created_at DESC").
		Order("products.name ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *GormRepo) ListAllProducts(ctx context.Context, offset, limit int) (int64, []ProductRow, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Product{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var rows []ProductRow
	if err := r.productRows(ctx).
		Order("products.created_at DESC").
		Order("products.name ASC").
		Offset(offset).
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return 0, nil, err
	}
	return total, rows, nil
}

func (r *GormRepo) GetProduct(ctx context.Context, id uuid.UUID) (*ProductRow, error) {
	var rows []ProductRow
	if err := r.productRows(ctx).
		Where("products.id = ?", id).
		Limit(1).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}

func (r *GormRepo) ProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []models.Product
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) CountProducts(ctx context.Context) (total, active int64, err error) {
	if err = r.DB.WithContext(ctx).Model(&models.Product{}).Count(&total).Error; err != nil {
		return 0, 0, err
	}
	if err = r.DB.WithContext(ctx).Model(&models.Product{}).Where("is_active = ?", true).Count(&active).Error; err != nil {
		return 0, 0, err
	}
	return total, active, nil
}

func (r *GormRepo) CreateProduct(ctx context.Context, prod *models.Product, category string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(prod).Error; err != nil {
			return err
		}
		return linkCategory(tx, prod.ID, category)
	})
}

// UpdateProduct saves every column and replaces the category links.
func (r *GormRepo) UpdateProduct(ctx context.Context, prod *models.Product, category string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Product{}).
			Where("id = ?", prod.ID).
			Select("name", "slug", "description", "price", "image_url", "is_on_offer", "offer_price", "is_active", "updated_at").
			Updates(prod)
		if err := notFoundIfNone(res); err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", prod.ID).Delete(&models.ProductCategory{}).Error; err != nil {
			return err
		}
		return linkCategory(tx, prod.ID, category)
	})
}

// DeleteProduct hard-deletes the product. Category links go with it and
// order lines keep their frozen name and price with a null product reference.
func (r *GormRepo) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&models.ProductCategory{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.OrderItem{}).
			Where("product_id = ?", id).
			Update("product_id", gorm.Expr("NULL")).Error; err != nil {
			return err
		}
		return notFoundIfNone(tx.Where("id = ?", id).Delete(&models.Product{}))
	})
}

func linkCategory(tx *gorm.DB, productID uuid.UUID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}

	var cat models.Category
	if err := tx.Where(models.Category{Name: name}).FirstOrCreate(&cat).Error; err != nil {
		return err
	}
	return tx.Create(&models.ProductCategory{ProductID: productID, CategoryID: cat.ID}).Error
}
